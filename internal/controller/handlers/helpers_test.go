package handlers

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
		err  bool
	}{
		{"16.10.2026", "2026-10-16", false},
		{" 2026-10-16 ", "2026-10-16", false},
		{"6.1.2027", "2027-01-06", false},
		{"31.02.2026", "", true},
		{"завтра", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, _, err := parseDate(tt.in, time.UTC)
		if (err != nil) != tt.err {
			t.Errorf("parseDate(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseDate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseCost(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		err  bool
	}{
		{"1500", 1500, false},
		{"1 500,50", 1500.5, false},
		{"2000 ₽", 2000, false},
		{"0", 0, false},
		{"-1", 0, true},
		{"много", 0, true},
		{"100000000", 0, true},
	}

	for _, tt := range tests {
		got, err := parseCost(tt.in)
		if (err != nil) != tt.err {
			t.Errorf("parseCost(%q) error = %v", tt.in, err)
			continue
		}
		if !tt.err && got != tt.want {
			t.Errorf("parseCost(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestValidResourceID(t *testing.T) {
	for _, id := range []string{"tg-42", "student_7", "Иванов"} {
		if err := validResourceID(id); err != nil {
			t.Errorf("validResourceID(%q) = %v", id, err)
		}
	}
	for _, id := range []string{"", "a:b", "two words", strings.Repeat("x", ResourceIDMaxLength+1)} {
		if err := validResourceID(id); !errors.Is(err, errBadResource) {
			t.Errorf("validResourceID(%q) must fail", id)
		}
	}
}
