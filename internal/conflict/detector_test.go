package conflict

import (
	"testing"
	"time"

	"github.com/Freeeeeet/clinic_scheduler/internal/model"
)

var day = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

func at(h, m int) time.Time {
	return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func appt(id, resource string, sh, sm, eh, em int) *model.Appointment {
	return &model.Appointment{
		ID:         id,
		ResourceID: resource,
		Start:      at(sh, sm),
		End:        at(eh, em),
		Status:     model.StatusScheduled,
	}
}

func TestDetect_SameResourceOverlap(t *testing.T) {
	existing := []*model.Appointment{appt("a1", "R", 10, 0, 10, 30)}

	res := Detect(Candidate{Start: at(10, 15), End: at(10, 45), ResourceID: "R"}, existing, "")
	if !res.Conflicting || res.WithID != "a1" {
		t.Fatalf("expected conflict with a1, got %+v", res)
	}

	res = Detect(Candidate{Start: at(10, 15), End: at(10, 45), ResourceID: "Other"}, existing, "")
	if res.Conflicting {
		t.Fatalf("different resource must not conflict, got %+v", res)
	}
}

func TestDetect_AdjacentIntervalsDoNotConflict(t *testing.T) {
	existing := []*model.Appointment{appt("a1", "R", 10, 0, 10, 30)}

	for _, c := range []Candidate{
		{Start: at(10, 30), End: at(11, 0), ResourceID: "R"},
		{Start: at(9, 30), End: at(10, 0), ResourceID: "R"},
	} {
		if res := Detect(c, existing, ""); res.Conflicting {
			t.Fatalf("adjacent candidate %s-%s must not conflict", c.Start.Format("15:04"), c.End.Format("15:04"))
		}
	}
}

func TestDetect_SelfExclusion(t *testing.T) {
	existing := []*model.Appointment{appt("x", "R", 10, 0, 11, 0)}
	c := Candidate{Start: at(10, 0), End: at(11, 0), ResourceID: "R"}

	if res := Detect(c, existing, "x"); res.Conflicting {
		t.Fatal("editing an appointment must not conflict with itself")
	}
	if res := Detect(c, existing, ""); !res.Conflicting {
		t.Fatal("without exclusion the identical interval must conflict")
	}
}

func TestDetect_CancelledDoesNotBlock(t *testing.T) {
	cancelled := appt("c", "R", 10, 0, 11, 0)
	cancelled.Status = model.StatusCancelled

	if res := Detect(Candidate{Start: at(10, 0), End: at(11, 0), ResourceID: "R"}, []*model.Appointment{cancelled}, ""); res.Conflicting {
		t.Fatal("cancelled appointment must not block the slot")
	}
}

func TestOverlaps_Symmetric(t *testing.T) {
	intervals := [][2]time.Time{
		{at(9, 0), at(10, 0)},
		{at(9, 30), at(10, 30)},
		{at(10, 0), at(10, 30)},
		{at(8, 0), at(12, 0)},
		{at(11, 0), at(11, 30)},
	}
	for i, a := range intervals {
		for j, b := range intervals {
			if Overlaps(a[0], a[1], b[0], b[1]) != Overlaps(b[0], b[1], a[0], a[1]) {
				t.Fatalf("overlap not symmetric for %d and %d", i, j)
			}

			ra := Detect(Candidate{Start: a[0], End: a[1], ResourceID: "R"}, []*model.Appointment{{ID: "b", ResourceID: "R", Start: b[0], End: b[1]}}, "")
			rb := Detect(Candidate{Start: b[0], End: b[1], ResourceID: "R"}, []*model.Appointment{{ID: "a", ResourceID: "R", Start: a[0], End: a[1]}}, "")
			if ra.Conflicting != rb.Conflicting {
				t.Fatalf("detect not symmetric for %d and %d", i, j)
			}
		}
	}
}

func TestDetectAll(t *testing.T) {
	existing := []*model.Appointment{
		appt("a", "R", 9, 0, 10, 0),
		appt("b", "R", 10, 0, 11, 0),
		appt("c", "Q", 9, 0, 11, 0),
		appt("d", "R", 12, 0, 13, 0),
	}
	got := DetectAll(Candidate{Start: at(9, 30), End: at(10, 30), ResourceID: "R"}, existing, "")
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Fatalf("unexpected conflicts %v", got)
	}
}
