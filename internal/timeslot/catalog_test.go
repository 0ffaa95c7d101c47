package timeslot

import (
	"errors"
	"testing"
	"time"
)

func TestGenerate_FortyEightOrderedLabels(t *testing.T) {
	labels := Generate()
	if len(labels) != 48 {
		t.Fatalf("expected 48 labels, got %d", len(labels))
	}
	if labels[0] != "12:00 AM" {
		t.Fatalf("expected first label 12:00 AM, got %q", labels[0])
	}
	if labels[47] != "11:30 PM" {
		t.Fatalf("expected last label 11:30 PM, got %q", labels[47])
	}

	seen := make(map[string]bool)
	prev := -1
	for i, l := range labels {
		if seen[l] {
			t.Fatalf("duplicate label %q", l)
		}
		seen[l] = true

		s, err := Parse(l)
		if err != nil {
			t.Fatalf("parse %q: %v", l, err)
		}
		if s.MinuteOfDay() <= prev {
			t.Fatalf("label %d (%q) is not after previous", i, l)
		}
		if s.MinuteOfDay() != i*30 {
			t.Fatalf("label %q: expected minute %d, got %d", l, i*30, s.MinuteOfDay())
		}
		prev = s.MinuteOfDay()
	}
}

func TestGenerate_ReturnsCopy(t *testing.T) {
	labels := Generate()
	labels[0] = "broken"
	if Generate()[0] != "12:00 AM" {
		t.Fatal("Generate must not expose internal state")
	}
}

func TestLabels(t *testing.T) {
	cases := map[int]string{
		0:  "12:00 AM",
		1:  "12:30 AM",
		2:  "1:00 AM",
		18: "9:00 AM",
		23: "11:30 AM",
		24: "12:00 PM",
		27: "1:30 PM",
		47: "11:30 PM",
	}
	for index, want := range cases {
		s, ok := FromIndex(index)
		if !ok {
			t.Fatalf("index %d rejected", index)
		}
		if got := s.Label(); got != want {
			t.Fatalf("index %d: expected %q, got %q", index, want, got)
		}
	}
}

func TestNextConsistentWithIndexOf(t *testing.T) {
	labels := Generate()
	for i, l := range labels {
		next, ok := Next(l)
		if i == len(labels)-1 {
			if ok {
				t.Fatalf("last label must have no successor, got %q", next)
			}
			continue
		}
		if !ok {
			t.Fatalf("label %q has no successor", l)
		}
		if IndexOf(next) != IndexOf(l)+1 {
			t.Fatalf("IndexOf(Next(%q)) = %d, want %d", l, IndexOf(next), IndexOf(l)+1)
		}
	}
}

func TestUnknownLabels(t *testing.T) {
	for _, l := range []string{"", "9:15 AM", "09:00 AM", "9:00 am", "13:00 PM", "9:00AM"} {
		if IndexOf(l) != -1 {
			t.Fatalf("IndexOf(%q) should be -1", l)
		}
		if _, ok := Next(l); ok {
			t.Fatalf("Next(%q) should fail", l)
		}
		if _, err := Parse(l); !errors.Is(err, ErrUnknownLabel) {
			t.Fatalf("Parse(%q): expected ErrUnknownLabel, got %v", l, err)
		}
	}
}

func TestAfter(t *testing.T) {
	after := After("11:00 PM")
	if len(after) != 1 || after[0] != "11:30 PM" {
		t.Fatalf("unexpected labels after 11:00 PM: %v", after)
	}
	if len(After("11:30 PM")) != 0 {
		t.Fatal("expected nothing after the last slot")
	}
	if After("nope") != nil {
		t.Fatal("expected nil for unknown label")
	}
}

func TestAt_IgnoresDateLocation(t *testing.T) {
	s, _ := Parse("1:30 PM")
	tokyo := time.FixedZone("JST", 9*3600)
	ny := time.FixedZone("EST", -5*3600)

	a := At(time.Date(2026, 3, 10, 23, 0, 0, 0, tokyo), s, time.UTC)
	b := At(time.Date(2026, 3, 10, 1, 0, 0, 0, ny), s, time.UTC)
	if !a.Equal(b) {
		t.Fatalf("same date and label must resolve to the same instant: %s vs %s", a, b)
	}
	want := time.Date(2026, 3, 10, 13, 30, 0, 0, time.UTC)
	if !a.Equal(want) {
		t.Fatalf("expected %s, got %s", want, a)
	}
	if !Aligned(a) {
		t.Fatal("expected aligned instant")
	}
}

func TestFromTime(t *testing.T) {
	s := FromTime(time.Date(2026, 1, 1, 10, 44, 12, 0, time.UTC))
	if s.Label() != "10:30 AM" {
		t.Fatalf("expected 10:30 AM, got %s", s.Label())
	}
}
