package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Freeeeeet/clinic_scheduler/internal/calendar"
	"github.com/Freeeeeet/clinic_scheduler/internal/daterange"
	"github.com/Freeeeeet/clinic_scheduler/internal/metrics"
	"github.com/Freeeeeet/clinic_scheduler/internal/model"
	"go.uber.org/zap"
)

type ViewMode int

const (
	ModeMonth ViewMode = iota
	ModeWeek
)

func (m ViewMode) String() string {
	if m == ModeWeek {
		return "week"
	}
	return "month"
}

// CalendarSnapshot загруженное окно календаря
type CalendarSnapshot struct {
	Mode         ViewMode
	Reference    time.Time
	Window       daterange.DateRange
	Appointments []*model.Appointment
	Loaded       bool
	Seq          uint64
}

// CalendarView окно календаря пользователя: режим, опорная дата и кэш приёмов окна.
// Кэш заменяется целиком при каждой успешной выборке и никогда не правится на месте.
type CalendarView struct {
	fetcher RangeFetcher
	loc     *time.Location
	metrics *metrics.Collector
	logger  *zap.Logger

	mu             sync.Mutex
	mode           ViewMode
	reference      time.Time
	resourceFilter string
	seq            uint64
	applied        uint64 // число применённых ответов
	loaded         *CalendarSnapshot
}

func NewCalendarView(fetcher RangeFetcher, loc *time.Location, now time.Time, collector *metrics.Collector, logger *zap.Logger) *CalendarView {
	if loc == nil {
		loc = time.UTC
	}
	return &CalendarView{
		fetcher:   fetcher,
		loc:       loc,
		metrics:   collector,
		logger:    logger,
		reference: now.In(loc),
	}
}

func (v *CalendarView) Mode() ViewMode {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.mode
}

func (v *CalendarView) SetMode(mode ViewMode) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.mode = mode
	v.seq++
}

func (v *CalendarView) Reference() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.reference
}

// GoTo переносит опорную дату
func (v *CalendarView) GoTo(date time.Time) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.reference = date.In(v.loc)
	v.seq++
}

// Shift листает календарь на n месяцев или недель в зависимости от режима.
// Навигация сама не загружает данные, но делает устаревшими выборки в полёте.
func (v *CalendarView) Shift(n int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.seq++
	if v.mode == ModeWeek {
		v.reference = daterange.ShiftWeek(v.reference, n)
		return
	}
	v.reference = daterange.ShiftMonth(v.reference, n)
}

// SetResourceFilter оставляет в снимке только приёмы ресурса; пустая строка снимает фильтр
func (v *CalendarView) SetResourceFilter(resourceID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.resourceFilter = resourceID
}

func (v *CalendarView) ResourceFilter() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.resourceFilter
}

// Window окно, которое покажет следующая выборка
func (v *CalendarView) Window() daterange.DateRange {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.windowLocked()
}

func (v *CalendarView) windowLocked() daterange.DateRange {
	if v.mode == ModeWeek {
		return daterange.WeekRange(v.reference)
	}
	return daterange.MonthRange(v.reference)
}

// Refresh загружает приёмы текущего окна. Ответ применяется только если за время
// запроса не было выдано новой выборки, иначе возвращается ErrStaleFetch.
func (v *CalendarView) Refresh(ctx context.Context) (CalendarSnapshot, error) {
	v.mu.Lock()
	v.seq++
	seq := v.seq
	v.mu.Unlock()

	return v.fetch(ctx, seq, 0, false)
}

// Resync перезапрашивает текущее окно в фоне, не выдавая новой выборки: запросы
// пользователя в полёте остаются актуальными. Ответ отбрасывается с ErrStaleFetch,
// если за время запроса окно сменилось или был применён другой ответ.
func (v *CalendarView) Resync(ctx context.Context) (CalendarSnapshot, error) {
	v.mu.Lock()
	seq, applied := v.seq, v.applied
	v.mu.Unlock()

	return v.fetch(ctx, seq, applied, true)
}

func (v *CalendarView) fetch(ctx context.Context, seq, applied uint64, background bool) (CalendarSnapshot, error) {
	v.mu.Lock()
	mode, reference, window := v.mode, v.reference, v.windowLocked()
	v.mu.Unlock()

	started := time.Now()
	appts, err := v.fetcher.FetchByRange(ctx, window.Start, window.End)
	v.metrics.ObserveFetch("range", time.Since(started).Seconds())

	v.mu.Lock()
	defer v.mu.Unlock()

	if seq != v.seq || (background && applied != v.applied) {
		v.metrics.StaleDiscarded("range")
		v.logger.Debug("Stale range fetch discarded", zap.Uint64("seq", seq))
		return CalendarSnapshot{}, ErrStaleFetch
	}

	if err != nil {
		if errors.Is(err, context.Canceled) {
			return CalendarSnapshot{}, err
		}
		v.metrics.RemoteError("fetch range")
		v.logger.Warn("Range fetch failed",
			zap.Time("start", window.Start),
			zap.Time("end", window.End),
			zap.Error(err),
		)
		return CalendarSnapshot{}, remote("fetch range", err)
	}

	if appts == nil {
		appts = []*model.Appointment{}
	}
	v.applied++
	v.loaded = &CalendarSnapshot{
		Mode:         mode,
		Reference:    reference,
		Window:       window,
		Appointments: appts,
		Loaded:       true,
		Seq:          seq,
	}
	return v.snapshotLocked(), nil
}

// Snapshot последнее загруженное окно с учётом фильтра по ресурсу
func (v *CalendarView) Snapshot() CalendarSnapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshotLocked()
}

func (v *CalendarView) snapshotLocked() CalendarSnapshot {
	if v.loaded == nil {
		return CalendarSnapshot{Mode: v.mode, Reference: v.reference, Window: v.windowLocked()}
	}
	snap := *v.loaded
	snap.Appointments = filterByResource(v.loaded.Appointments, v.resourceFilter)
	return snap
}

// Known приёмы ресурса из загруженного окна, для проверки пересечений
func (v *CalendarView) Known(resourceID string) []*model.Appointment {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.loaded == nil {
		return nil
	}
	return filterByResource(v.loaded.Appointments, resourceID)
}

// Covers окно загружено и содержит момент t
func (v *CalendarView) Covers(t time.Time) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loaded != nil && v.loaded.Window.Contains(t)
}

// MonthGrid сетка месяца опорной даты загруженного окна с разложенными приёмами
func (v *CalendarView) MonthGrid() []calendar.Cell {
	snap := v.Snapshot()
	ref := snap.Reference
	return calendar.Populate(calendar.BuildMonthGrid(ref.Year(), ref.Month()), snap.Appointments)
}

// Day приёмы одного дня из загруженного окна
func (v *CalendarView) Day(date calendar.Date) []*model.Appointment {
	snap := v.Snapshot()
	return calendar.AppointmentsForCell(calendar.Cell{Date: date}, snap.Appointments)
}

// Find ищет приём в загруженном окне, без учёта фильтра
func (v *CalendarView) Find(id string) *model.Appointment {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.loaded == nil {
		return nil
	}
	for _, a := range v.loaded.Appointments {
		if a.ID == id {
			return a
		}
	}
	return nil
}

func filterByResource(appts []*model.Appointment, resourceID string) []*model.Appointment {
	result := make([]*model.Appointment, 0, len(appts))
	for _, a := range appts {
		if resourceID == "" || a.ResourceID == resourceID {
			result = append(result, a)
		}
	}
	return result
}
