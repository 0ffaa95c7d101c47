package service

import (
	"errors"
	"fmt"
	"time"
)

// ValidationReason причина отказа в записи до обращения к серверу
type ValidationReason string

const (
	ReasonMissingField     ValidationReason = "missing_field"
	ReasonInvalidDate      ValidationReason = "invalid_date"
	ReasonUnknownSlot      ValidationReason = "unknown_slot"
	ReasonEndNotAfterStart ValidationReason = "end_not_after_start"
	ReasonNegativeCost     ValidationReason = "negative_cost"
	ReasonInvalidStatus    ValidationReason = "invalid_status"
)

// ValidationError ошибка заполнения формы. Состояние формы сохраняется для исправления.
type ValidationError struct {
	Reason ValidationReason
	Field  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s (%s)", e.Reason, e.Field)
}

// ConflictError пересечение с уже записанным приёмом того же ресурса
type ConflictError struct {
	ResourceID string
	WithID     string
	Start      time.Time
	End        time.Time
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("appointment conflicts with %s on resource %s (%s-%s)",
		e.WithID, e.ResourceID, e.Start.Format("2006-01-02 15:04"), e.End.Format("15:04"))
}

// RemoteError сбой внешнего хранилища. Не повторяется автоматически.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

var (
	// ErrStaleFetch ответ пришёл после более нового запроса и отброшен
	ErrStaleFetch = errors.New("stale fetch discarded")

	// ErrForbidden действие над чужим ресурсом
	ErrForbidden = errors.New("appointment belongs to another resource")

	ErrUserNotFound        = errors.New("user not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
)

func remote(op string, err error) error {
	if err == nil {
		return nil
	}
	return &RemoteError{Op: op, Err: err}
}
