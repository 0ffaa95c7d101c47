package model

import (
	"fmt"
	"time"
)

type Status string

const (
	StatusScheduled  Status = "Scheduled"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
	StatusCancelled  Status = "Cancelled"
)

// Statuses все статусы в порядке отображения
var Statuses = []Status{StatusScheduled, StatusInProgress, StatusCompleted, StatusCancelled}

// ParseStatus разбирает статус в формате API. Регистр и пробелы значимы.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusScheduled, StatusInProgress, StatusCompleted, StatusCancelled:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown appointment status %q", s)
}

// IsTerminal Completed и Cancelled дальше не переходят
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (s Status) MarshalText() ([]byte, error) {
	if _, err := ParseStatus(string(s)); err != nil {
		return nil, err
	}
	return []byte(s), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// QuickActions переходы, которые предлагает интерфейс для статуса.
// Сами переходы нигде не проверяются, решает сервер.
func QuickActions(s Status) []Status {
	switch s {
	case StatusScheduled:
		return []Status{StatusInProgress, StatusCancelled}
	case StatusInProgress:
		return []Status{StatusCompleted}
	default:
		return nil
	}
}

type Appointment struct {
	ID          string     `json:"id"`
	ResourceID  string     `json:"resource_id"` // студент/врач, за которым закреплён приём
	PatientID   string     `json:"patient_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Comments    string     `json:"comments,omitempty"`
	Start       time.Time  `json:"start"`
	End         time.Time  `json:"end"`
	Cost        *float64   `json:"cost,omitempty"`
	Treatment   string     `json:"treatment,omitempty"`
	Status      Status     `json:"status"`
	Files       []string   `json:"files"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

// SameDay проверяет что приём начинается в указанный календарный день
func (a *Appointment) SameDay(year int, month time.Month, day int) bool {
	return a.Start.Year() == year && a.Start.Month() == month && a.Start.Day() == day
}

// Duration длительность приёма
func (a *Appointment) Duration() time.Duration {
	return a.End.Sub(a.Start)
}
