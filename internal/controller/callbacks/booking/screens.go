package booking

import (
	"fmt"
	"html"
	"time"

	"github.com/Freeeeeet/clinic_scheduler/internal/calendar"
	"github.com/Freeeeeet/clinic_scheduler/internal/controller/callbacks/common"
	"github.com/Freeeeeet/clinic_scheduler/internal/controller/callbacks/common/formatting"
	"github.com/Freeeeeet/clinic_scheduler/internal/controller/callbacks/common/keyboard"
	"github.com/Freeeeeet/clinic_scheduler/internal/model"
	"github.com/Freeeeeet/clinic_scheduler/internal/service"
	"github.com/Freeeeeet/clinic_scheduler/internal/timeslot"
	"github.com/go-telegram/bot/models"
)

// Подсказки шагов записи
const (
	PatientPrompt = "🧑 Введите идентификатор пациента:"
	TitlePrompt   = "📚 Введите название приёма (например, «Консультация»):"
	DatePrompt    = "📅 Введите дату приёма в формате ДД.ММ.ГГГГ:"
	CostPrompt    = "💰 Введите стоимость приёма в рублях или пропустите шаг:"
)

// CancelKeyboard клавиатура текстовых шагов
func CancelKeyboard() *models.InlineKeyboardMarkup {
	return keyboard.NewBuilder().Row(keyboard.CancelButton(common.CbBookCancel)).Build()
}

// CostKeyboard клавиатура шага стоимости
func CostKeyboard() *models.InlineKeyboardMarkup {
	return keyboard.NewBuilder().
		Row(keyboard.Button("⏭ Без стоимости", common.CbBookSkipCost)).
		Row(keyboard.CancelButton(common.CbBookCancel)).
		Build()
}

// busyFor занятые слоты ресурса в день формы по загруженному окну календаря.
// Если день вне окна, занятость не показывается: пересечения всё равно проверит запись.
func busyFor(ws *service.Workspace, form service.AppointmentForm, editingID string) map[int]bool {
	loc := ws.Location()
	day, err := time.ParseInLocation(model.DateLayout, form.Date, loc)
	if err != nil || !ws.Calendar().Covers(day) {
		return nil
	}

	known := ws.Calendar().Known(form.ResourceID)
	others := make([]*model.Appointment, 0, len(known))
	for _, a := range known {
		if a.ID != editingID {
			others = append(others, a)
		}
	}
	return common.BusySlots(calendar.DateOf(day), others, loc)
}

// StartPicker экран выбора начала приёма
func StartPicker(ws *service.Workspace, form service.AppointmentForm, editingID string) (string, *models.InlineKeyboardMarkup) {
	text := fmt.Sprintf("🕐 <b>Время начала</b>\n\n📅 %s\n🎓 Студент: %s\n\n⛔ отмечены занятые слоты.",
		dateText(form.Date), html.EscapeString(form.ResourceID))
	kb := common.BuildSlotPicker("Начало", timeslot.Generate(), common.CbBookStart, busyFor(ws, form, editingID))
	return text, kb
}

// EndPicker экран выбора окончания: только слоты после начала
func EndPicker(ws *service.Workspace, form service.AppointmentForm, editingID string) (string, *models.InlineKeyboardMarkup) {
	text := fmt.Sprintf("🕐 <b>Время окончания</b>\n\n📅 %s\nНачало: %s",
		dateText(form.Date), form.StartLabel)
	kb := common.BuildSlotPicker("Окончание", timeslot.After(form.StartLabel), common.CbBookEnd, busyFor(ws, form, editingID))
	return text, kb
}

func dateText(date string) string {
	d, err := time.Parse(model.DateLayout, date)
	if err != nil {
		return html.EscapeString(date)
	}
	return formatting.FormatDateWithWeekday(d)
}
