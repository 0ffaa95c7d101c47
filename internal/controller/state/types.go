package state

import "github.com/Freeeeeet/clinic_scheduler/internal/service"

// UserState представляет текущее состояние пользователя в диалоге
type UserState string

const (
	StateNone UserState = "" // Нет активного состояния

	// Шаги записи на приём
	StateBookResource  UserState = "book_resource"
	StateBookPatient   UserState = "book_patient"
	StateBookTitle     UserState = "book_title"
	StateBookDate      UserState = "book_date"
	StateBookStartSlot UserState = "book_start_slot"
	StateBookEndSlot   UserState = "book_end_slot"
	StateBookCost      UserState = "book_cost"
	StateBookConfirm   UserState = "book_confirm"

	// Поиск в списке приёмов
	StateSearchAppointments UserState = "search_appointments"
)

// IsBooking состояние относится к диалогу записи
func (s UserState) IsBooking() bool {
	switch s {
	case StateBookResource, StateBookPatient, StateBookTitle, StateBookDate,
		StateBookStartSlot, StateBookEndSlot, StateBookCost, StateBookConfirm:
		return true
	}
	return false
}

// Dialog данные незавершённого диалога. Форма хранится целиком,
// чтобы после ошибки проверки пользователь исправил одно поле, а не начинал заново.
type Dialog struct {
	State     UserState
	Form      service.AppointmentForm
	EditingID string // непустой при переносе существующего приёма
}
