package formatting

import "github.com/Freeeeeet/clinic_scheduler/internal/model"

// StatusDisplay представляет отображение статуса приёма
type StatusDisplay struct {
	Emoji string
	Text  string
}

var statusDisplays = map[model.Status]StatusDisplay{
	model.StatusScheduled:  {"🗓", "Запланирован"},
	model.StatusInProgress: {"🩺", "Идёт приём"},
	model.StatusCompleted:  {"✅", "Завершён"},
	model.StatusCancelled:  {"❌", "Отменён"},
}

// GetStatusDisplay возвращает emoji и текст для статуса приёма
func GetStatusDisplay(status model.Status) StatusDisplay {
	if display, ok := statusDisplays[status]; ok {
		return display
	}
	return StatusDisplay{"❓", "Неизвестно"}
}

// ActionText подпись кнопки перехода в статус
func ActionText(status model.Status) string {
	switch status {
	case model.StatusInProgress:
		return "🩺 Начать приём"
	case model.StatusCompleted:
		return "✅ Завершить"
	case model.StatusCancelled:
		return "❌ Отменить приём"
	case model.StatusScheduled:
		return "🗓 Вернуть в план"
	}
	return string(status)
}

// StatusIndex позиция статуса в model.Statuses, для коротких callback data
func StatusIndex(status model.Status) int {
	for i, s := range model.Statuses {
		if s == status {
			return i
		}
	}
	return -1
}

// StatusAt обратное к StatusIndex
func StatusAt(index int) (model.Status, bool) {
	if index < 0 || index >= len(model.Statuses) {
		return "", false
	}
	return model.Statuses[index], true
}
