package formatting

import (
	"strings"
	"testing"
	"time"

	"github.com/Freeeeeet/clinic_scheduler/internal/model"
)

func TestPluralizeAppointments(t *testing.T) {
	tests := map[int]string{
		0: "приёмов", 1: "приём", 2: "приёма", 5: "приёмов",
		11: "приёмов", 21: "приём", 22: "приёма", 112: "приёмов",
	}
	for n, want := range tests {
		if got := PluralizeAppointments(n); got != want {
			t.Errorf("PluralizeAppointments(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestFormatCost(t *testing.T) {
	whole, frac := 1500.0, 99.5
	tests := []struct {
		cost *float64
		want string
	}{
		{nil, "не указана"},
		{&whole, "1500 ₽"},
		{&frac, "99.50 ₽"},
	}
	for _, tt := range tests {
		if got := FormatCost(tt.cost); got != tt.want {
			t.Errorf("FormatCost = %q, want %q", got, tt.want)
		}
	}
}

func TestStatusIndexRoundTrip(t *testing.T) {
	for _, s := range model.Statuses {
		got, ok := StatusAt(StatusIndex(s))
		if !ok || got != s {
			t.Errorf("status %q did not survive index round trip", s)
		}
	}
	if _, ok := StatusAt(len(model.Statuses)); ok {
		t.Error("out of range index must fail")
	}
}

func TestFormatDateTimeRange(t *testing.T) {
	start := time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)
	if got := FormatDateTimeRange(start, start.Add(30*time.Minute)); got != "16.10.2026 10:00-10:30" {
		t.Errorf("same day range = %q", got)
	}
	if got := FormatDateTimeRange(start, start.Add(24*time.Hour)); got != "16.10.2026 10:00 - 17.10.2026 10:00" {
		t.Errorf("multi day range = %q", got)
	}
}

func TestFormatAppointmentInfoEscapes(t *testing.T) {
	a := &model.Appointment{
		Title:     "<b>x</b>",
		PatientID: "p&1",
		Start:     time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC),
		End:       time.Date(2026, 10, 16, 11, 0, 0, 0, time.UTC),
		Status:    model.StatusScheduled,
	}
	info := FormatAppointmentInfo(a, time.UTC)
	if strings.Contains(info, "<b>x</b>") || !strings.Contains(info, "p&amp;1") {
		t.Fatalf("user input must be escaped: %s", info)
	}
	if !strings.Contains(info, "16.10.2026 (Пт)") || !strings.Contains(info, "1 ч") {
		t.Fatalf("unexpected card: %s", info)
	}
}
