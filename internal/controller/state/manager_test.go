package state

import (
	"testing"

	"github.com/Freeeeeet/clinic_scheduler/internal/service"
)

func TestManagerDialogLifecycle(t *testing.T) {
	sm := NewManager()

	if sm.GetState(1) != StateNone {
		t.Fatal("new user must have no state")
	}
	if _, ok := sm.UpdateForm(1, StateBookTitle, nil); ok {
		t.Fatal("update without dialog must fail")
	}

	sm.Start(1, StateBookPatient, service.AppointmentForm{ResourceID: "R"}, "")
	d, ok := sm.UpdateForm(1, StateBookTitle, func(f *service.AppointmentForm) { f.PatientID = "p-1" })
	if !ok || d.State != StateBookTitle || d.Form.PatientID != "p-1" || d.Form.ResourceID != "R" {
		t.Fatalf("unexpected dialog %+v", d)
	}

	// копия не должна менять сохранённую форму
	d.Form.PatientID = "changed"
	if got, _ := sm.Dialog(1); got.Form.PatientID != "p-1" {
		t.Fatalf("dialog copy leaked into manager: %+v", got)
	}

	sm.SetState(1, StateBookConfirm)
	if got, _ := sm.Dialog(1); got.State != StateBookConfirm || got.Form.Title != "" || got.Form.PatientID != "p-1" {
		t.Fatalf("SetState must keep form data, got %+v", got)
	}

	sm.SetState(1, StateNone)
	if _, ok := sm.Dialog(1); ok {
		t.Fatal("StateNone must drop the dialog")
	}
}

func TestUserStateIsBooking(t *testing.T) {
	if !StateBookCost.IsBooking() || StateSearchAppointments.IsBooking() || StateNone.IsBooking() {
		t.Fatal("unexpected IsBooking classification")
	}
}
