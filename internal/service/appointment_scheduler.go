package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/clinic_scheduler/internal/conflict"
	"github.com/Freeeeeet/clinic_scheduler/internal/metrics"
	"github.com/Freeeeeet/clinic_scheduler/internal/model"
	"github.com/Freeeeeet/clinic_scheduler/internal/timeslot"
	"go.uber.org/zap"
)

// ConflictPolicy решает, проверять ли пересечения для действующего лица
type ConflictPolicy interface {
	ShouldCheck(actor model.Actor) bool
}

// ConflictPolicyFunc адаптер функции к ConflictPolicy
type ConflictPolicyFunc func(actor model.Actor) bool

func (f ConflictPolicyFunc) ShouldCheck(actor model.Actor) bool {
	return f(actor)
}

var (
	// CheckConstrained проверка только для ролей, привязанных к своему ресурсу
	CheckConstrained ConflictPolicy = ConflictPolicyFunc(func(a model.Actor) bool { return a.Constrained() })
	// CheckAlways проверка для всех, в пределах ресурса записи
	CheckAlways ConflictPolicy = ConflictPolicyFunc(func(model.Actor) bool { return true })
	// CheckNever проверку полностью оставляем хранилищу
	CheckNever ConflictPolicy = ConflictPolicyFunc(func(model.Actor) bool { return false })
)

// ParseConflictPolicy разбирает значение CONFLICT_POLICY
func ParseConflictPolicy(s string) (ConflictPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "constrained":
		return CheckConstrained, nil
	case "always":
		return CheckAlways, nil
	case "never":
		return CheckNever, nil
	}
	return nil, fmt.Errorf("unknown conflict policy %q", s)
}

// AppointmentForm поля формы записи в том виде, как их ввёл пользователь
type AppointmentForm struct {
	PatientID   string
	ResourceID  string // учитывается только для ролей без ограничения
	Title       string
	Description string
	Comments    string
	Date        string // YYYY-MM-DD
	StartLabel  string
	EndLabel    string
	Cost        *float64
	Treatment   string
	Status      model.Status
}

// ScheduleRequest запрос на создание или перенос приёма
type ScheduleRequest struct {
	Form      AppointmentForm
	Known     []*model.Appointment // загруженные сейчас приёмы, по ним ищутся пересечения
	EditingID string
	Actor     model.Actor

	// LoadKnown вызывается вместо Known, если задан и проверка пересечений нужна
	LoadKnown func(ctx context.Context, interval Interval) ([]*model.Appointment, error)
}

// Interval вычисленный интервал приёма
type Interval struct {
	ResourceID string
	Start      time.Time
	End        time.Time
}

type AppointmentScheduler struct {
	writer  AppointmentWriter
	policy  ConflictPolicy
	loc     *time.Location
	metrics *metrics.Collector
	logger  *zap.Logger
}

func NewAppointmentScheduler(
	writer AppointmentWriter,
	policy ConflictPolicy,
	loc *time.Location,
	collector *metrics.Collector,
	logger *zap.Logger,
) *AppointmentScheduler {
	if policy == nil {
		policy = CheckConstrained
	}
	if loc == nil {
		loc = time.UTC
	}
	return &AppointmentScheduler{
		writer:  writer,
		policy:  policy,
		loc:     loc,
		metrics: collector,
		logger:  logger,
	}
}

// Location часовой пояс клиники, в котором даты и метки слотов превращаются в моменты времени
func (s *AppointmentScheduler) Location() *time.Location {
	return s.loc
}

// Validate проверяет форму и вычисляет интервал. Порядок проверок фиксирован:
// обязательные поля, дата и метки слотов, конец позже начала, стоимость, статус.
func (s *AppointmentScheduler) Validate(form AppointmentForm, actor model.Actor) (Interval, error) {
	required := []struct {
		field string
		value string
	}{
		{"patientId", form.PatientID},
		{"title", form.Title},
		{"date", form.Date},
		{"startTime", form.StartLabel},
		{"endTime", form.EndLabel},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return Interval{}, &ValidationError{Reason: ReasonMissingField, Field: r.field}
		}
	}

	resourceID := form.ResourceID
	if actor.Constrained() || resourceID == "" {
		resourceID = actor.ResourceID
	}
	if resourceID == "" {
		return Interval{}, &ValidationError{Reason: ReasonMissingField, Field: "resourceId"}
	}

	date, err := time.Parse(model.DateLayout, form.Date)
	if err != nil {
		return Interval{}, &ValidationError{Reason: ReasonInvalidDate, Field: "date"}
	}

	startSlot, err := timeslot.Parse(form.StartLabel)
	if err != nil {
		return Interval{}, &ValidationError{Reason: ReasonUnknownSlot, Field: "startTime"}
	}
	endSlot, err := timeslot.Parse(form.EndLabel)
	if err != nil {
		return Interval{}, &ValidationError{Reason: ReasonUnknownSlot, Field: "endTime"}
	}

	if endSlot.Index() <= startSlot.Index() {
		return Interval{}, &ValidationError{Reason: ReasonEndNotAfterStart, Field: "endTime"}
	}

	if form.Cost != nil && *form.Cost < 0 {
		return Interval{}, &ValidationError{Reason: ReasonNegativeCost, Field: "cost"}
	}

	if form.Status != "" {
		if _, err := model.ParseStatus(string(form.Status)); err != nil {
			return Interval{}, &ValidationError{Reason: ReasonInvalidStatus, Field: "status"}
		}
	}

	interval := Interval{
		ResourceID: resourceID,
		Start:      timeslot.At(date, startSlot, s.loc),
		End:        timeslot.At(date, endSlot, s.loc),
	}
	// в день перевода часов такого времени на часах клиники нет
	if !onWallClock(interval.Start, startSlot) {
		return Interval{}, &ValidationError{Reason: ReasonUnknownSlot, Field: "startTime"}
	}
	if !onWallClock(interval.End, endSlot) {
		return Interval{}, &ValidationError{Reason: ReasonUnknownSlot, Field: "endTime"}
	}
	if !interval.Start.Before(interval.End) {
		return Interval{}, &ValidationError{Reason: ReasonEndNotAfterStart, Field: "endTime"}
	}
	return interval, nil
}

func onWallClock(t time.Time, slot timeslot.Slot) bool {
	return t.Hour() == slot.Hour() && t.Minute() == slot.Minute()
}

// Schedule валидирует форму, проверяет пересечения и передаёт запись хранилищу.
// Загруженные приёмы не меняются: после успеха вызывающий перезапрашивает окно и список.
func (s *AppointmentScheduler) Schedule(ctx context.Context, req ScheduleRequest) (*model.Appointment, error) {
	interval, err := s.Validate(req.Form, req.Actor)
	if err != nil {
		var vErr *ValidationError
		if errors.As(err, &vErr) {
			s.metrics.ValidationRejected(string(vErr.Reason))
		}
		return nil, err
	}

	if s.policy.ShouldCheck(req.Actor) {
		known := req.Known
		if req.LoadKnown != nil {
			known, err = req.LoadKnown(ctx, interval)
			if err != nil {
				return nil, err
			}
		}

		res := conflict.Detect(conflict.Candidate{
			Start:      interval.Start,
			End:        interval.End,
			ResourceID: interval.ResourceID,
		}, known, req.EditingID)

		if res.Conflicting {
			s.metrics.ConflictRejected()
			s.logger.Info("Appointment rejected: conflict",
				zap.String("resource_id", interval.ResourceID),
				zap.String("conflict_with", res.WithID),
				zap.Time("start", interval.Start),
			)
			return nil, &ConflictError{
				ResourceID: interval.ResourceID,
				WithID:     res.WithID,
				Start:      res.With.Start,
				End:        res.With.End,
			}
		}
	}

	payload := s.payload(req.Form, interval)

	if req.EditingID == "" {
		appt, err := s.writer.Create(ctx, payload)
		if err != nil {
			return nil, s.remoteFailure("create appointment", err, zap.String("resource_id", interval.ResourceID))
		}

		s.metrics.Saved("create")
		s.logger.Info("Appointment created",
			zap.String("appointment_id", appt.ID),
			zap.String("resource_id", interval.ResourceID),
			zap.Time("start", interval.Start),
		)
		return appt, nil
	}

	appt, err := s.writer.Update(ctx, req.EditingID, payload)
	if err != nil {
		return nil, s.remoteFailure("update appointment", err, zap.String("appointment_id", req.EditingID))
	}

	s.metrics.Saved("update")
	s.logger.Info("Appointment updated",
		zap.String("appointment_id", req.EditingID),
		zap.String("resource_id", interval.ResourceID),
		zap.Time("start", interval.Start),
	)
	return appt, nil
}

// TransitionStatus меняет статус приёма. Допустимость перехода решает хранилище,
// интерфейс предлагает только model.QuickActions.
func (s *AppointmentScheduler) TransitionStatus(ctx context.Context, actor model.Actor, appt *model.Appointment, status model.Status) (*model.Appointment, error) {
	if appt == nil {
		return nil, ErrAppointmentNotFound
	}
	if _, err := model.ParseStatus(string(status)); err != nil {
		return nil, &ValidationError{Reason: ReasonInvalidStatus, Field: "status"}
	}
	if actor.Constrained() && appt.ResourceID != actor.ResourceID {
		return nil, ErrForbidden
	}

	updated, err := s.writer.UpdateStatus(ctx, appt.ID, status)
	if err != nil {
		return nil, s.remoteFailure("update appointment status", err, zap.String("appointment_id", appt.ID))
	}

	s.metrics.Saved("status")
	s.logger.Info("Appointment status changed",
		zap.String("appointment_id", appt.ID),
		zap.String("from", string(appt.Status)),
		zap.String("to", string(status)),
	)
	return updated, nil
}

// Delete удаляет приём
func (s *AppointmentScheduler) Delete(ctx context.Context, actor model.Actor, appt *model.Appointment) error {
	if appt == nil {
		return ErrAppointmentNotFound
	}
	if actor.Constrained() && appt.ResourceID != actor.ResourceID {
		return ErrForbidden
	}

	if err := s.writer.Delete(ctx, appt.ID); err != nil {
		return s.remoteFailure("delete appointment", err, zap.String("appointment_id", appt.ID))
	}

	s.metrics.Saved("delete")
	s.logger.Info("Appointment deleted",
		zap.String("appointment_id", appt.ID),
		zap.String("resource_id", appt.ResourceID),
	)
	return nil
}

// FormFromAppointment заполняет форму по существующему приёму, для переноса
func FormFromAppointment(a *model.Appointment, loc *time.Location) AppointmentForm {
	if loc == nil {
		loc = time.UTC
	}
	start := a.Start.In(loc)
	return AppointmentForm{
		PatientID:   a.PatientID,
		ResourceID:  a.ResourceID,
		Title:       a.Title,
		Description: a.Description,
		Comments:    a.Comments,
		Date:        start.Format(model.DateLayout),
		StartLabel:  timeslot.FromTime(start).Label(),
		EndLabel:    timeslot.FromTime(a.End.In(loc)).Label(),
		Cost:        a.Cost,
		Treatment:   a.Treatment,
		Status:      a.Status,
	}
}

func (s *AppointmentScheduler) payload(form AppointmentForm, interval Interval) model.AppointmentPayload {
	status := form.Status
	if status == "" {
		status = model.StatusScheduled
	}
	return model.AppointmentPayload{
		PatientID:   strings.TrimSpace(form.PatientID),
		ResourceID:  interval.ResourceID,
		Title:       strings.TrimSpace(form.Title),
		Description: form.Description,
		Comments:    form.Comments,
		Date:        form.Date,
		StartTime:   form.StartLabel,
		EndTime:     form.EndLabel,
		Cost:        form.Cost,
		Treatment:   form.Treatment,
		Status:      status,
	}
}

// remoteFailure оборачивает ошибку хранилища и пишет её в лог ровно один раз
func (s *AppointmentScheduler) remoteFailure(op string, err error, fields ...zap.Field) error {
	s.metrics.RemoteError(op)
	s.logger.Error("Gateway call failed", append(fields, zap.String("op", op), zap.Error(err))...)
	return remote(op, err)
}
