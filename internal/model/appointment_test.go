package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseStatus_WireVocabulary(t *testing.T) {
	for _, s := range []string{"Scheduled", "In Progress", "Completed", "Cancelled"} {
		if _, err := ParseStatus(s); err != nil {
			t.Fatalf("status %q rejected: %v", s, err)
		}
	}
	for _, s := range []string{"scheduled", "InProgress", "In progress", "Canceled", ""} {
		if _, err := ParseStatus(s); err == nil {
			t.Fatalf("status %q must be rejected", s)
		}
	}
}

func TestStatus_JSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Status Status `json:"status"`
	}{StatusInProgress})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"status":"In Progress"}` {
		t.Fatalf("unexpected json %s", data)
	}

	var rec AppointmentRecord
	if err := json.Unmarshal([]byte(`{"status":"Done"}`), &rec); err == nil {
		t.Fatal("expected unknown status to fail decoding")
	}
}

func TestQuickActions(t *testing.T) {
	if got := QuickActions(StatusScheduled); len(got) != 2 || got[0] != StatusInProgress || got[1] != StatusCancelled {
		t.Fatalf("unexpected actions for Scheduled: %v", got)
	}
	if got := QuickActions(StatusInProgress); len(got) != 1 || got[0] != StatusCompleted {
		t.Fatalf("unexpected actions for In Progress: %v", got)
	}
	for _, s := range []Status{StatusCompleted, StatusCancelled} {
		if !s.IsTerminal() {
			t.Fatalf("%s must be terminal", s)
		}
		if len(QuickActions(s)) != 0 {
			t.Fatalf("terminal status %s must offer no actions", s)
		}
	}
}

func TestRecordToAppointment(t *testing.T) {
	rec := AppointmentRecord{
		ID:              "a1",
		Title:           "Check-up",
		AppointmentDate: "2026-03-10T10:00:00Z",
		PatientID:       "p1",
		ResourceID:      "r1",
		Status:          StatusScheduled,
	}
	a, err := rec.ToAppointment(time.UTC)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if a.Duration() != DefaultDuration {
		t.Fatalf("expected default duration, got %s", a.Duration())
	}
	if a.Files == nil {
		t.Fatal("files must never be nil")
	}

	rec.EndTime = "2026-03-10T11:30:00Z"
	a, err = rec.ToAppointment(time.UTC)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if a.Duration() != 90*time.Minute {
		t.Fatalf("expected 90m, got %s", a.Duration())
	}

	rec.AppointmentDate = "10/03/2026"
	if _, err := rec.ToAppointment(time.UTC); err == nil {
		t.Fatal("expected parse error")
	}
}
