package common

import (
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"github.com/Freeeeeet/clinic_scheduler/internal/calendar"
	"github.com/Freeeeeet/clinic_scheduler/internal/controller/callbacks/common/formatting"
	"github.com/Freeeeeet/clinic_scheduler/internal/controller/callbacks/common/keyboard"
	"github.com/Freeeeeet/clinic_scheduler/internal/model"
	"github.com/Freeeeeet/clinic_scheduler/internal/service"
	"github.com/Freeeeeet/clinic_scheduler/internal/timeslot"
	"github.com/go-telegram/bot/models"
)

// Префиксы callback data. Короткие, потому что Telegram ограничивает данные 64 байтами.
const (
	CbCalendarOpen   = "cal:open"
	CbCalendarToday  = "cal:today"
	CbCalendarMonth  = "cal:month"
	CbCalendarWeek   = "cal:week"
	CbMonthShift     = "cal:m:" // cal:m:-1
	CbWeekShift      = "cal:w:" // cal:w:1
	CbDay            = "cal:d:" // cal:d:2026-10-16
	CbFilterPick     = "flt:pick"
	CbFilterSet      = "flt:r:" // flt:r:tg-123, flt:r:* снимает фильтр
	CbListOpen       = "apl:open"
	CbListPage       = "apl:p:" // apl:p:2
	CbListStatus     = "apl:s:" // apl:s:1, apl:s:-1 все статусы
	CbListSize       = "apl:z:" // apl:z:20
	CbListSort       = "apl:o:" // apl:o:title:asc
	CbListSearch     = "apl:q"
	CbListClear      = "apl:qc"
	CbListRefresh    = "apl:r"
	CbView           = "apt:v:"     // apt:v:<id>
	CbStatus         = "apt:st:"    // apt:st:<status index>:<id>
	CbMove           = "apt:mv:"    // apt:mv:<id>
	CbDelete         = "apt:del:"   // apt:del:<id>
	CbDeleteConfirm  = "apt:delok:" // apt:delok:<id>
	CbBookNew        = "bk:new"
	CbBookDay        = "bk:day:" // bk:day:2026-10-16
	CbBookResource   = "bk:r:"   // bk:r:tg-123
	CbBookStart      = "bk:s:"   // bk:s:<slot index>
	CbBookEnd        = "bk:e:"   // bk:e:<slot index>
	CbBookSkipCost   = "bk:nocost"
	CbBookConfirm    = "bk:ok"
	CbBookRetime     = "bk:time"
	CbBookCancel     = "bk:no"
	FilterAll        = "*"
	StatusFilterAll  = -1 // apl:s:-1
)

// PageSizes варианты размера страницы списка
var PageSizes = []int{5, 10, 20}

var weekdayHeader = []string{"Вс", "Пн", "Вт", "Ср", "Чт", "Пт", "Сб"}

// BuildMonthScreen месячная сетка: 7 колонок с воскресенья, дни соседних месяцев в скобках
func BuildMonthScreen(snap service.CalendarSnapshot, grid []calendar.Cell, today calendar.Date, filter string, supervisor bool) (string, *models.InlineKeyboardMarkup) {
	ref := snap.Reference
	title := fmt.Sprintf("%s %d", formatting.GetMonthName(ref.Month()), ref.Year())

	count := 0
	for _, c := range grid {
		if c.InMonth {
			count += len(c.Appointments)
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📅 <b>%s</b>\n\n", title)
	if filter != "" {
		fmt.Fprintf(&sb, "🎓 Студент: %s\n", html.EscapeString(filter))
	}
	fmt.Fprintf(&sb, "За месяц: %d %s\n\n", count, formatting.PluralizeAppointments(count))
	sb.WriteString("Выберите день. Точка означает, что в этот день есть приёмы.")

	kb := keyboard.NewBuilder().
		Row(keyboard.ShiftButtons(CbMonthShift+"-1", title, CbMonthShift+"1")...)

	header := make([]models.InlineKeyboardButton, 0, len(weekdayHeader))
	for _, d := range weekdayHeader {
		header = append(header, keyboard.LabelButton(d))
	}
	kb.Row(header...)

	for _, week := range calendar.Weeks(grid) {
		row := make([]models.InlineKeyboardButton, 0, calendar.DaysInWeek)
		for _, cell := range week {
			row = append(row, keyboard.Button(dayLabel(cell, today), CbDay+cell.Date.String()))
		}
		kb.Row(row...)
	}

	kb.Row(
		keyboard.Button("📆 Сегодня", CbCalendarToday),
		keyboard.Button("🗓 Неделя", CbCalendarWeek),
		keyboard.Button("📋 Список", CbListOpen),
	)
	actions := []models.InlineKeyboardButton{keyboard.Button("➕ Записать", CbBookNew)}
	if supervisor {
		actions = append(actions, keyboard.Button("🎓 Студент", CbFilterPick))
	}
	kb.Row(actions...)

	return sb.String(), kb.Build()
}

func dayLabel(cell calendar.Cell, today calendar.Date) string {
	label := strconv.Itoa(cell.Date.Day)
	if cell.Date == today {
		label = "[" + label + "]"
	}
	if !cell.InMonth {
		label = "(" + label + ")"
	}
	if len(cell.Appointments) > 0 {
		label += "•"
	}
	return label
}

// BuildDayScreen приёмы одного дня
func BuildDayScreen(date calendar.Date, appts []*model.Appointment, loc *time.Location) (string, *models.InlineKeyboardMarkup) {
	day := date.Time(loc)

	var sb strings.Builder
	fmt.Fprintf(&sb, "📅 <b>%s, %s</b>\n\n",
		formatting.GetWeekdayName(int(day.Weekday())), formatting.FormatDate(day))

	kb := keyboard.NewBuilder()
	if len(appts) == 0 {
		sb.WriteString("Приёмов нет.")
	} else {
		fmt.Fprintf(&sb, "%d %s:\n", len(appts), formatting.PluralizeAppointments(len(appts)))
		for _, a := range appts {
			line := formatting.FormatAppointmentShort(a, loc)
			sb.WriteString(line + "\n")
			kb.Row(keyboard.Button(buttonText(a, loc), CbView+a.ID))
		}
	}

	kb.Row(keyboard.Button("➕ Записать на этот день", CbBookDay+date.String()))
	kb.AddBackButton(CbCalendarOpen)

	return sb.String(), kb.Build()
}

// BuildWeekCaption подпись и клавиатура к картинке недели
func BuildWeekCaption(snap service.CalendarSnapshot, loc *time.Location, filter string) (string, *models.InlineKeyboardMarkup) {
	start, end := snap.Window.Start.In(loc), snap.Window.End.In(loc)
	label := start.Format("02.01") + " - " + end.Format("02.01")

	var sb strings.Builder
	fmt.Fprintf(&sb, "🗓 <b>Неделя %s</b>\n", label)
	if filter != "" {
		fmt.Fprintf(&sb, "🎓 Студент: %s\n", html.EscapeString(filter))
	}
	n := len(snap.Appointments)
	fmt.Fprintf(&sb, "%d %s", n, formatting.PluralizeAppointments(n))

	kb := keyboard.NewBuilder().
		Row(keyboard.ShiftButtons(CbWeekShift+"-1", label, CbWeekShift+"1")...)

	days := make([]models.InlineKeyboardButton, 0, calendar.DaysInWeek)
	for _, d := range snap.Window.Days() {
		date := calendar.DateOf(d.In(loc))
		days = append(days, keyboard.Button(
			formatting.GetWeekdayShortName(int(d.Weekday()))+" "+strconv.Itoa(date.Day),
			CbDay+date.String(),
		))
	}
	kb.Grid(4, days...)
	kb.Row(
		keyboard.Button("📆 Сегодня", CbCalendarToday),
		keyboard.Button("📅 Месяц", CbCalendarMonth),
		keyboard.Button("📋 Список", CbListOpen),
	)

	return sb.String(), kb.Build()
}

// BuildListScreen страница списка приёмов с фильтрами
func BuildListScreen(snap service.PageSnapshot, loc *time.Location) (string, *models.InlineKeyboardMarkup) {
	q, res := snap.Query, snap.Result

	var sb strings.Builder
	sb.WriteString("📋 <b>Приёмы</b>\n\n")
	fmt.Fprintf(&sb, "Всего: %d, найдено: %d\n", res.TotalCount, res.FilteredTotalCount)
	if q.Search != "" {
		fmt.Fprintf(&sb, "🔍 Поиск: «%s»\n", html.EscapeString(q.Search))
	}
	if q.Status != "" {
		fmt.Fprintf(&sb, "📊 Статус: %s\n", formatting.GetStatusDisplay(q.Status).Text)
	}
	if q.ResourceID != "" {
		fmt.Fprintf(&sb, "🎓 Студент: %s\n", html.EscapeString(q.ResourceID))
	}
	sb.WriteString("\n")

	kb := keyboard.NewBuilder()
	if len(res.Items) == 0 {
		sb.WriteString("Ничего не найдено.")
	}
	offset := (q.Page - 1) * q.PageSize
	for i, a := range res.Items {
		fmt.Fprintf(&sb, "%d. %s\n", offset+i+1, formatting.FormatAppointmentShort(a, loc))
		kb.Row(keyboard.Button(fmt.Sprintf("%d. %s", offset+i+1, buttonText(a, loc)), CbView+a.ID))
	}

	kb.AddPagination(CbListPage, q.Page, snap.LastPage)

	filters := []models.InlineKeyboardButton{
		keyboard.Button(mark(q.Status == "", fmt.Sprintf("Все %d", res.TotalCount)), CbListStatus+strconv.Itoa(StatusFilterAll)),
	}
	for i, s := range model.Statuses {
		text := fmt.Sprintf("%s %d", formatting.GetStatusDisplay(s).Emoji, res.StatusCounts[s])
		filters = append(filters, keyboard.Button(mark(q.Status == s, text), CbListStatus+strconv.Itoa(i)))
	}
	kb.Grid(5, filters...)

	dateOrder, titleOrder := nextOrder(q, "appointmentDate"), nextOrder(q, "title")
	kb.Row(
		keyboard.Button(sortText("Дата", q, "appointmentDate"), CbListSort+"appointmentDate:"+string(dateOrder)),
		keyboard.Button(sortText("Название", q, "title"), CbListSort+"title:"+string(titleOrder)),
	)

	sizes := make([]models.InlineKeyboardButton, 0, len(PageSizes))
	for _, size := range PageSizes {
		sizes = append(sizes, keyboard.Button(mark(q.PageSize == size, fmt.Sprintf("по %d", size)), CbListSize+strconv.Itoa(size)))
	}
	kb.Row(sizes...)

	search := []models.InlineKeyboardButton{keyboard.Button("🔍 Поиск", CbListSearch)}
	if q.Search != "" {
		search = append(search, keyboard.Button("✖️ Сбросить поиск", CbListClear))
	}
	search = append(search, keyboard.Button("🔄", CbListRefresh))
	kb.Row(search...)
	kb.Row(keyboard.Button("📅 Календарь", CbCalendarOpen))

	return sb.String(), kb.Build()
}

func mark(active bool, text string) string {
	if active {
		return "• " + text
	}
	return text
}

func nextOrder(q model.PageQuery, field string) model.SortOrder {
	if q.Sort == field && q.Order == model.SortDesc {
		return model.SortAsc
	}
	if q.Sort == field {
		return model.SortDesc
	}
	if field == "title" {
		return model.SortAsc
	}
	return model.SortDesc
}

func sortText(label string, q model.PageQuery, field string) string {
	if q.Sort != field {
		return "↕️ " + label
	}
	if q.Order == model.SortAsc {
		return "⬆️ " + label
	}
	return "⬇️ " + label
}

// BuildAppointmentScreen карточка приёма с быстрыми действиями
func BuildAppointmentScreen(a *model.Appointment, actor model.Actor, loc *time.Location) (string, *models.InlineKeyboardMarkup) {
	kb := keyboard.NewBuilder()

	if !actor.Constrained() || a.ResourceID == actor.ResourceID {
		actions := make([]models.InlineKeyboardButton, 0, 2)
		for _, next := range model.QuickActions(a.Status) {
			actions = append(actions, keyboard.Button(
				formatting.ActionText(next),
				fmt.Sprintf("%s%d:%s", CbStatus, formatting.StatusIndex(next), a.ID),
			))
		}
		kb.Row(actions...)
		if !a.Status.IsTerminal() {
			kb.Row(keyboard.Button("🕐 Перенести", CbMove+a.ID))
		}
		kb.Row(keyboard.Button("🗑 Удалить", CbDelete+a.ID))
	}

	kb.Row(
		keyboard.Button("📅 Календарь", CbCalendarOpen),
		keyboard.Button("📋 Список", CbListOpen),
	)

	return formatting.FormatAppointmentInfo(a, loc), kb.Build()
}

// BuildDeleteConfirmScreen подтверждение удаления
func BuildDeleteConfirmScreen(a *model.Appointment, loc *time.Location) (string, *models.InlineKeyboardMarkup) {
	text := fmt.Sprintf("🗑 Удалить приём?\n\n%s\n\nДействие нельзя отменить.",
		formatting.FormatAppointmentShort(a, loc))
	kb := keyboard.NewBuilder().AddConfirmCancel(CbDeleteConfirm+a.ID, CbView+a.ID)
	return text, kb.Build()
}

// BuildSlotPicker выбор слота начала или окончания. busy отмечает слоты, занятые приёмами студента.
func BuildSlotPicker(title string, labels []string, prefix string, busy map[int]bool) *models.InlineKeyboardMarkup {
	buttons := make([]models.InlineKeyboardButton, 0, len(labels))
	for _, label := range labels {
		idx := timeslot.IndexOf(label)
		text := label
		if busy[idx] {
			text = "⛔ " + label
		}
		buttons = append(buttons, keyboard.Button(text, prefix+strconv.Itoa(idx)))
	}
	kb := keyboard.NewBuilder().Row(keyboard.LabelButton(title)).Grid(4, buttons...)
	kb.Row(keyboard.CancelButton(CbBookCancel))
	return kb.Build()
}

// BusySlots индексы слотов дня, пересекающихся с приёмами (отменённые не учитываются)
func BusySlots(date calendar.Date, appts []*model.Appointment, loc *time.Location) map[int]bool {
	busy := make(map[int]bool)
	day := date.Time(loc)
	for _, slot := range timeslot.Slots() {
		start := timeslot.At(day, slot, loc)
		end := start.Add(timeslot.SlotMinutes * time.Minute)
		for _, a := range appts {
			if a.Status == model.StatusCancelled {
				continue
			}
			if a.Start.Before(end) && start.Before(a.End) {
				busy[slot.Index()] = true
				break
			}
		}
	}
	return busy
}

// BuildBookingSummary итог формы перед сохранением
func BuildBookingSummary(form service.AppointmentForm, editing bool) (string, *models.InlineKeyboardMarkup) {
	header := "📝 <b>Новая запись</b>"
	confirm := "✅ Записать"
	if editing {
		header = "🕐 <b>Перенос приёма</b>"
		confirm = "✅ Перенести"
	}

	date := form.Date
	if d, err := time.Parse(model.DateLayout, form.Date); err == nil {
		date = formatting.FormatDateWithWeekday(d)
	}

	var sb strings.Builder
	sb.WriteString(header + "\n\n")
	fmt.Fprintf(&sb, "🧑 Пациент: %s\n", html.EscapeString(form.PatientID))
	fmt.Fprintf(&sb, "📚 Название: %s\n", html.EscapeString(form.Title))
	if form.ResourceID != "" {
		fmt.Fprintf(&sb, "🎓 Студент: %s\n", html.EscapeString(form.ResourceID))
	}
	fmt.Fprintf(&sb, "📅 Дата: %s\n", date)
	fmt.Fprintf(&sb, "🕐 Время: %s - %s\n", form.StartLabel, form.EndLabel)
	fmt.Fprintf(&sb, "💰 Стоимость: %s\n", formatting.FormatCost(form.Cost))

	kb := keyboard.NewBuilder().
		Row(keyboard.Button(confirm, CbBookConfirm)).
		Row(keyboard.Button("🕐 Изменить время", CbBookRetime)).
		Row(keyboard.CancelButton(CbBookCancel))

	return sb.String(), kb.Build()
}

// BuildResourcePicker выбор студента. prefix определяет, куда пойдёт выбор: фильтр или запись.
func BuildResourcePicker(students []*model.User, prefix string, withAll bool) *models.InlineKeyboardMarkup {
	kb := keyboard.NewBuilder()
	if withAll {
		kb.Row(keyboard.Button("👥 Все студенты", prefix+FilterAll))
	}
	buttons := make([]models.InlineKeyboardButton, 0, len(students))
	for _, s := range students {
		if s.ResourceID == "" {
			continue
		}
		buttons = append(buttons, keyboard.Button(UserDisplayName(s), prefix+s.ResourceID))
	}
	kb.Grid(2, buttons...)
	if prefix == CbBookResource {
		kb.Row(keyboard.CancelButton(CbBookCancel))
	} else {
		kb.AddBackButton(CbCalendarOpen)
	}
	return kb.Build()
}

// UserDisplayName имя пользователя для кнопок и подписей
func UserDisplayName(u *model.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" && u.Username != "" {
		name = "@" + u.Username
	}
	if name == "" {
		name = u.ResourceID
	}
	return name
}

func buttonText(a *model.Appointment, loc *time.Location) string {
	start := a.Start.In(loc)
	text := fmt.Sprintf("%s %s %s", formatting.GetStatusDisplay(a.Status).Emoji, start.Format("02.01 15:04"), a.Title)
	if r := []rune(text); len(r) > 40 {
		text = string(r[:39]) + "…"
	}
	return text
}
