package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Freeeeeet/clinic_scheduler/internal/model"
	"github.com/Freeeeeet/clinic_scheduler/internal/repository/base"
	"github.com/Freeeeeet/clinic_scheduler/internal/timeslot"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	// ErrOverlap база отклонила запись: ресурс уже занят на это время
	ErrOverlap = errors.New("appointment overlaps another booking of the resource")
	ErrInvalidAppointment = errors.New("invalid appointment")
)

const appointmentColumns = `id, resource_id, patient_id, title, description, comments,
	start_at, end_at, cost, treatment, status, files, created_at, updated_at`

// sortColumns допустимые поля сортировки списка
var sortColumns = map[string]string{
	"appointmentDate": "start_at",
	"title":           "title",
	"status":          "status",
	"cost":            "cost",
	"patientId":       "patient_id",
	"resourceId":      "resource_id",
	"createdAt":       "created_at",
}

// AppointmentRepository хранилище приёмов в Postgres, работает вместо REST API
type AppointmentRepository struct {
	*base.Repository
	loc *time.Location
}

func NewAppointmentRepository(pool *pgxpool.Pool, loc *time.Location) *AppointmentRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &AppointmentRepository{Repository: base.NewRepository(pool), loc: loc}
}

// FetchByRange приёмы, начинающиеся в [start, end], по времени начала
func (r *AppointmentRepository) FetchByRange(ctx context.Context, start, end time.Time) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE start_at >= $1 AND start_at <= $2
		ORDER BY start_at, id
	`

	rows, err := r.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetch appointments by range: %w", err)
	}
	defer rows.Close()

	appts, err := r.collect(rows)
	if err != nil {
		return nil, fmt.Errorf("fetch appointments by range: %w", err)
	}
	return appts, nil
}

// FetchPage страница списка с общим, отфильтрованным и постатусным количеством
func (r *AppointmentRepository) FetchPage(ctx context.Context, q model.PageQuery) (*model.PageResult, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = 10
	}

	result := &model.PageResult{StatusCounts: make(map[model.Status]int)}

	scope := newFilter()
	scope.resource(q.ResourceID)
	if err := r.QueryRow(ctx, `SELECT COUNT(*) FROM appointments`+scope.where(), scope.args...).Scan(&result.TotalCount); err != nil {
		return nil, fmt.Errorf("count appointments: %w", err)
	}

	// счётчики по статусам учитывают поиск, но не фильтр по статусу
	searched := newFilter()
	searched.resource(q.ResourceID)
	searched.search(q.Search)
	rows, err := r.Query(ctx, `SELECT status, COUNT(*) FROM appointments`+searched.where()+` GROUP BY status`, searched.args...)
	if err != nil {
		return nil, fmt.Errorf("count appointments by status: %w", err)
	}
	for rows.Next() {
		var (
			status model.Status
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		result.StatusCounts[status] = count
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status counts: %w", err)
	}

	filtered := pageFilter(q)
	if err := r.QueryRow(ctx, `SELECT COUNT(*) FROM appointments`+filtered.where(), filtered.args...).Scan(&result.FilteredTotalCount); err != nil {
		return nil, fmt.Errorf("count filtered appointments: %w", err)
	}

	args := append(filtered.args, q.PageSize, (q.Page-1)*q.PageSize)
	query := `SELECT ` + appointmentColumns + ` FROM appointments` + filtered.where() +
		` ORDER BY ` + orderBy(q) +
		` LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	items, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch appointments page: %w", err)
	}
	defer items.Close()

	result.Items, err = r.collect(items)
	if err != nil {
		return nil, fmt.Errorf("fetch appointments page: %w", err)
	}
	return result, nil
}

// Create сохраняет новый приём
func (r *AppointmentRepository) Create(ctx context.Context, p model.AppointmentPayload) (*model.Appointment, error) {
	start, end, err := intervalFromPayload(p, r.loc)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO appointments (id, resource_id, patient_id, title, description, comments,
			start_at, end_at, cost, treatment, status, files)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, '{}')
		RETURNING ` + appointmentColumns

	appt, err := r.scan(r.QueryRow(ctx, query,
		uuid.New(),
		p.ResourceID,
		p.PatientID,
		p.Title,
		p.Description,
		p.Comments,
		start,
		end,
		p.Cost,
		p.Treatment,
		defaultStatus(p.Status),
	))
	if err != nil {
		return nil, mapWriteError("create appointment", err)
	}
	return appt, nil
}

// Update переписывает приём целиком
func (r *AppointmentRepository) Update(ctx context.Context, id string, p model.AppointmentPayload) (*model.Appointment, error) {
	appointmentID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrAppointmentNotFound
	}

	start, end, err := intervalFromPayload(p, r.loc)
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE appointments
		SET resource_id = $2, patient_id = $3, title = $4, description = $5, comments = $6,
			start_at = $7, end_at = $8, cost = $9, treatment = $10, status = $11, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + appointmentColumns

	appt, err := r.scan(r.QueryRow(ctx, query,
		appointmentID,
		p.ResourceID,
		p.PatientID,
		p.Title,
		p.Description,
		p.Comments,
		start,
		end,
		p.Cost,
		p.Treatment,
		defaultStatus(p.Status),
	))
	if err != nil {
		return nil, mapWriteError("update appointment", err)
	}
	return appt, nil
}

// UpdateStatus меняет только статус. Порядок переходов здесь не проверяется.
func (r *AppointmentRepository) UpdateStatus(ctx context.Context, id string, status model.Status) (*model.Appointment, error) {
	appointmentID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrAppointmentNotFound
	}

	query := `
		UPDATE appointments
		SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + appointmentColumns

	appt, err := r.scan(r.QueryRow(ctx, query, appointmentID, status))
	if err != nil {
		return nil, mapWriteError("update appointment status", err)
	}
	return appt, nil
}

func (r *AppointmentRepository) Delete(ctx context.Context, id string) error {
	appointmentID, err := uuid.Parse(id)
	if err != nil {
		return ErrAppointmentNotFound
	}

	affected, err := r.ExecAffected(ctx, `DELETE FROM appointments WHERE id = $1`, appointmentID)
	if err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	if affected == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *AppointmentRepository) collect(rows pgx.Rows) ([]*model.Appointment, error) {
	appts := []*model.Appointment{}
	for rows.Next() {
		a, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		appts = append(appts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate appointments: %w", err)
	}
	return appts, nil
}

func (r *AppointmentRepository) scan(row pgx.Row) (*model.Appointment, error) {
	var (
		a  model.Appointment
		id uuid.UUID
	)
	err := row.Scan(
		&id,
		&a.ResourceID,
		&a.PatientID,
		&a.Title,
		&a.Description,
		&a.Comments,
		&a.Start,
		&a.End,
		&a.Cost,
		&a.Treatment,
		&a.Status,
		&a.Files,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.ID = id.String()
	a.Start = a.Start.In(r.loc)
	a.End = a.End.In(r.loc)
	if a.Files == nil {
		a.Files = []string{}
	}
	return &a, nil
}

func mapWriteError(op string, err error) error {
	switch {
	case base.IsNotFound(err):
		return ErrAppointmentNotFound
	case base.IsExclusionViolation(err):
		return ErrOverlap
	case base.IsCheckViolation(err):
		return fmt.Errorf("%s: %w: %v", op, ErrInvalidAppointment, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func defaultStatus(s model.Status) model.Status {
	if s == "" {
		return model.StatusScheduled
	}
	return s
}

// intervalFromPayload переводит дату и метки слотов запроса в моменты времени зоны loc
func intervalFromPayload(p model.AppointmentPayload, loc *time.Location) (time.Time, time.Time, error) {
	date, err := time.Parse(model.DateLayout, p.Date)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: date %q", ErrInvalidAppointment, p.Date)
	}
	startSlot, err := timeslot.Parse(p.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %v", ErrInvalidAppointment, err)
	}
	endSlot, err := timeslot.Parse(p.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %v", ErrInvalidAppointment, err)
	}

	start := timeslot.At(date, startSlot, loc)
	end := timeslot.At(date, endSlot, loc)
	if !start.Before(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end %s is not after start %s", ErrInvalidAppointment, p.EndTime, p.StartTime)
	}
	return start, end, nil
}

// filter накапливает условия WHERE и позиционные аргументы
type filter struct {
	conds []string
	args  []any
}

func newFilter() *filter {
	return &filter{}
}

func (f *filter) add(cond string, arg any) {
	f.args = append(f.args, arg)
	f.conds = append(f.conds, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(f.args))))
}

func (f *filter) resource(id string) {
	if id != "" {
		f.add("resource_id = ?", id)
	}
}

func (f *filter) search(s string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return
	}
	f.add("(title ILIKE ? OR patient_id ILIKE ? OR treatment ILIKE ?)", "%"+escapeLike(s)+"%")
}

func (f *filter) status(s model.Status) {
	if s != "" {
		f.add("status = ?", s)
	}
}

func (f *filter) where() string {
	if len(f.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(f.conds, " AND ")
}

func pageFilter(q model.PageQuery) *filter {
	f := newFilter()
	f.resource(q.ResourceID)
	f.search(q.Search)
	f.status(q.Status)
	return f
}

func orderBy(q model.PageQuery) string {
	column, ok := sortColumns[q.Sort]
	if !ok {
		column = "start_at"
	}
	direction := "DESC"
	if q.Order == model.SortAsc {
		direction = "ASC"
	}
	return column + " " + direction + ", id " + direction
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
