package common

import (
	"bytes"
	"errors"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/Freeeeeet/clinic_scheduler/internal/calendar"
	"github.com/Freeeeeet/clinic_scheduler/internal/daterange"
	"github.com/Freeeeeet/clinic_scheduler/internal/model"
	"github.com/Freeeeeet/clinic_scheduler/internal/service"
	"github.com/go-telegram/bot/models"
)

const testID = "3f1c9a52-7d4e-4b8a-9c21-5e6f7a8b9c0d"

func appt(id string, start time.Time, minutes int, status model.Status) *model.Appointment {
	return &model.Appointment{
		ID:         id,
		ResourceID: "tg-1",
		PatientID:  "P-100",
		Title:      "Консультация",
		Start:      start,
		End:        start.Add(time.Duration(minutes) * time.Minute),
		Status:     status,
	}
}

func allCallbacks(kb *models.InlineKeyboardMarkup) []string {
	var data []string
	for _, row := range kb.InlineKeyboard {
		for _, b := range row {
			data = append(data, b.CallbackData)
		}
	}
	return data
}

func assertCallbacksFit(t *testing.T, kb *models.InlineKeyboardMarkup) {
	t.Helper()
	for _, d := range allCallbacks(kb) {
		if len(d) == 0 || len(d) > 64 {
			t.Errorf("callback data %q has invalid length %d", d, len(d))
		}
	}
}

func TestBuildMonthScreen(t *testing.T) {
	ref := time.Date(2026, time.October, 16, 12, 0, 0, 0, time.UTC)
	a := appt(testID, time.Date(2026, time.October, 16, 10, 0, 0, 0, time.UTC), 60, model.StatusScheduled)
	grid := calendar.Populate(calendar.BuildMonthGrid(2026, time.October), []*model.Appointment{a})
	snap := service.CalendarSnapshot{Reference: ref, Window: daterange.MonthRange(ref), Appointments: []*model.Appointment{a}}

	text, kb := BuildMonthScreen(snap, grid, calendar.DateOf(ref), "", true)

	if !strings.Contains(text, "Октябрь 2026") {
		t.Errorf("title missing in %q", text)
	}

	header := kb.InlineKeyboard[1]
	for i, want := range []string{"Вс", "Пн", "Вт", "Ср", "Чт", "Пт", "Сб"} {
		if header[i].Text != want {
			t.Fatalf("header[%d] = %q, want %q", i, header[i].Text, want)
		}
	}

	weeks := len(calendar.Weeks(grid))
	if got := len(kb.InlineKeyboard); got != 2+weeks+2 {
		t.Fatalf("expected %d rows, got %d", 2+weeks+2, got)
	}

	// 1 октября 2026 четверг: первая строка начинается с 27 сентября
	first := kb.InlineKeyboard[2][0]
	if first.Text != "(27)" || first.CallbackData != CbDay+"2026-09-27" {
		t.Errorf("unexpected first cell %+v", first)
	}

	found := false
	for _, d := range allCallbacks(kb) {
		if d == CbFilterPick {
			found = true
		}
	}
	if !found {
		t.Error("supervisor must see the student filter")
	}
	assertCallbacksFit(t, kb)
}

func TestDayLabel(t *testing.T) {
	today := calendar.Date{Year: 2026, Month: time.October, Day: 16}
	tests := []struct {
		cell calendar.Cell
		want string
	}{
		{calendar.Cell{Date: today, InMonth: true}, "[16]"},
		{calendar.Cell{Date: calendar.Date{Year: 2026, Month: time.October, Day: 3}, InMonth: true}, "3"},
		{calendar.Cell{Date: calendar.Date{Year: 2026, Month: time.November, Day: 1}}, "(1)"},
		{calendar.Cell{Date: calendar.Date{Year: 2026, Month: time.October, Day: 5}, InMonth: true, Appointments: []*model.Appointment{{}}}, "5•"},
	}
	for _, tt := range tests {
		if got := dayLabel(tt.cell, today); got != tt.want {
			t.Errorf("dayLabel(%v) = %q, want %q", tt.cell.Date, got, tt.want)
		}
	}
}

func TestBusySlots(t *testing.T) {
	date := calendar.Date{Year: 2026, Month: time.October, Day: 16}
	appts := []*model.Appointment{
		appt("a", time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC), 60, model.StatusScheduled),
		appt("b", time.Date(2026, 10, 16, 14, 0, 0, 0, time.UTC), 30, model.StatusCancelled),
	}

	busy := BusySlots(date, appts, time.UTC)

	if !busy[20] || !busy[21] {
		t.Errorf("10:00 and 10:30 must be busy: %v", busy)
	}
	if busy[19] || busy[22] {
		t.Errorf("neighbours must be free: %v", busy)
	}
	if busy[28] {
		t.Error("cancelled appointment must not block a slot")
	}
}

func TestBuildSlotPicker(t *testing.T) {
	kb := BuildSlotPicker("Начало", []string{"10:00 AM", "10:30 AM"}, CbBookStart, map[int]bool{21: true})

	buttons := kb.InlineKeyboard[1]
	if buttons[0].Text != "10:00 AM" || buttons[0].CallbackData != CbBookStart+"20" {
		t.Errorf("unexpected button %+v", buttons[0])
	}
	if buttons[1].Text != "⛔ 10:30 AM" {
		t.Errorf("busy slot must be marked: %+v", buttons[1])
	}
}

func TestBuildListScreen(t *testing.T) {
	start := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	snap := service.PageSnapshot{
		Query: model.PageQuery{Page: 2, PageSize: 5, Sort: "appointmentDate", Order: model.SortDesc, Search: "<b>"},
		Result: &model.PageResult{
			Items:              []*model.Appointment{appt(testID, start, 30, model.StatusInProgress)},
			TotalCount:         12,
			FilteredTotalCount: 6,
			StatusCounts:       map[model.Status]int{model.StatusInProgress: 6},
		},
		LastPage: 2,
	}

	text, kb := BuildListScreen(snap, time.UTC)

	if !strings.Contains(text, "6. ") {
		t.Errorf("numbering must continue from previous pages: %q", text)
	}
	if strings.Contains(text, "<b>»") || !strings.Contains(text, "&lt;b&gt;") {
		t.Errorf("search must be escaped: %q", text)
	}

	data := allCallbacks(kb)
	want := []string{CbView + testID, CbListPage + "1", CbListSort + "appointmentDate:asc", CbListSort + "title:asc", CbListClear}
	for _, w := range want {
		found := false
		for _, d := range data {
			if d == w {
				found = true
			}
		}
		if !found {
			t.Errorf("callback %q not found in %v", w, data)
		}
	}
	assertCallbacksFit(t, kb)
}

func TestBuildAppointmentScreen(t *testing.T) {
	a := appt(testID, time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC), 30, model.StatusScheduled)

	_, own := BuildAppointmentScreen(a, model.Actor{Role: model.RoleStudent, ResourceID: "tg-1"}, time.UTC)
	if own.InlineKeyboard[0][0].CallbackData != CbStatus+"1:"+testID {
		t.Errorf("first quick action must start the visit, got %q", own.InlineKeyboard[0][0].CallbackData)
	}
	assertCallbacksFit(t, own)

	_, foreign := BuildAppointmentScreen(a, model.Actor{Role: model.RoleStudent, ResourceID: "tg-2"}, time.UTC)
	if len(foreign.InlineKeyboard) != 1 {
		t.Errorf("foreign appointment must be read-only, got %d rows", len(foreign.InlineKeyboard))
	}

	done := *a
	done.Status = model.StatusCompleted
	_, terminal := BuildAppointmentScreen(&done, model.Actor{Role: model.RoleSupervisor}, time.UTC)
	for _, d := range allCallbacks(terminal) {
		if strings.HasPrefix(d, CbMove) || strings.HasPrefix(d, CbStatus) {
			t.Errorf("completed appointment offers %q", d)
		}
	}
}

func TestBuildBookingSummary(t *testing.T) {
	cost := 1500.0
	form := service.AppointmentForm{
		PatientID: "P-1", Title: "Чистка", Date: "2026-10-16",
		StartLabel: "10:00 AM", EndLabel: "11:00 AM", Cost: &cost,
	}

	text, _ := BuildBookingSummary(form, false)
	if !strings.Contains(text, "16.10.2026 (Пт)") || !strings.Contains(text, "1500 ₽") {
		t.Errorf("unexpected summary %q", text)
	}

	text, kb := BuildBookingSummary(form, true)
	if !strings.Contains(text, "Перенос") || kb.InlineKeyboard[0][0].CallbackData != CbBookConfirm {
		t.Errorf("unexpected reschedule summary %q", text)
	}
}

func TestCallbackArgs(t *testing.T) {
	args, err := CallbackArgs(CbStatus+"2:"+testID, CbStatus, 2)
	if err != nil || args[0] != "2" || args[1] != testID {
		t.Fatalf("unexpected args %v, %v", args, err)
	}

	for _, data := range []string{"apt:st:", CbStatus + "1", CbStatus + ":" + testID, "apl:p:1"} {
		if _, err := CallbackArgs(data, CbStatus, 2); !errors.Is(err, ErrInvalidFormat) {
			t.Errorf("CallbackArgs(%q) error = %v", data, err)
		}
	}

	if n, err := CallbackInt(CbListStatus+"-1", CbListStatus); err != nil || n != StatusFilterAll {
		t.Errorf("CallbackInt = %d, %v", n, err)
	}
}

func TestGenerateWeekImage(t *testing.T) {
	loc := time.UTC
	window := daterange.WeekRange(time.Date(2026, 10, 16, 0, 0, 0, 0, loc))
	appts := []*model.Appointment{
		appt("a", time.Date(2026, 10, 12, 9, 30, 0, 0, loc), 90, model.StatusCompleted),
		appt("b", time.Date(2026, 10, 16, 23, 30, 0, 0, loc), 60, model.StatusScheduled),
	}

	img, err := GenerateWeekImage(window, appts, time.Date(2026, 10, 16, 12, 0, 0, 0, loc), loc)
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(img))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != imageWidth || cfg.Height != imageHeight {
		t.Errorf("unexpected size %dx%d", cfg.Width, cfg.Height)
	}
}

func TestCalculateHourRange(t *testing.T) {
	if got := calculateHourRange(nil, time.UTC); got.start != defaultMinHour-hourPaddingTop || got.end != defaultMaxHour+hourPaddingBot {
		t.Errorf("empty week range = %+v", got)
	}

	late := appt("a", time.Date(2026, 10, 16, 23, 30, 0, 0, time.UTC), 60, model.StatusScheduled)
	got := calculateHourRange([]*model.Appointment{late}, time.UTC)
	if got.start != 22 || got.end != 24 || got.total != 2 {
		t.Errorf("overnight range = %+v", got)
	}
}
