package formatting

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/Freeeeeet/clinic_scheduler/internal/model"
)

// FormatAppointmentInfo карточка приёма
func FormatAppointmentInfo(a *model.Appointment, loc *time.Location) string {
	start, end := a.Start.In(loc), a.End.In(loc)
	status := GetStatusDisplay(a.Status)

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s <b>%s</b>\n\n", status.Emoji, html.EscapeString(a.Title))
	fmt.Fprintf(&sb, "📅 Дата: %s\n", FormatDateWithWeekday(start))
	fmt.Fprintf(&sb, "🕐 Время: %s (%s)\n", FormatTimeRange(start, end), FormatDuration(end.Sub(start)))
	fmt.Fprintf(&sb, "🧑 Пациент: %s\n", html.EscapeString(a.PatientID))
	fmt.Fprintf(&sb, "🎓 Студент: %s\n", html.EscapeString(a.ResourceID))
	fmt.Fprintf(&sb, "💰 Стоимость: %s\n", FormatCost(a.Cost))
	fmt.Fprintf(&sb, "📊 Статус: %s\n", status.Text)
	if a.Treatment != "" {
		fmt.Fprintf(&sb, "💊 Лечение: %s\n", html.EscapeString(a.Treatment))
	}
	if a.Description != "" {
		fmt.Fprintf(&sb, "📝 Описание: %s\n", html.EscapeString(a.Description))
	}
	if a.Comments != "" {
		fmt.Fprintf(&sb, "💬 Комментарий: %s\n", html.EscapeString(a.Comments))
	}
	if len(a.Files) > 0 {
		fmt.Fprintf(&sb, "📎 Файлов: %d\n", len(a.Files))
	}
	return sb.String()
}

// FormatAppointmentShort строка приёма в списке: "🗓 16.10 10:00-10:30 Осмотр (p-1)"
func FormatAppointmentShort(a *model.Appointment, loc *time.Location) string {
	start, end := a.Start.In(loc), a.End.In(loc)
	return fmt.Sprintf("%s %s %s %s (%s)",
		GetStatusDisplay(a.Status).Emoji,
		start.Format("02.01"),
		FormatTimeRange(start, end),
		html.EscapeString(a.Title),
		html.EscapeString(a.PatientID),
	)
}
