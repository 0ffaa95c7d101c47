package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Freeeeeet/clinic_scheduler/internal/daterange"
	"github.com/Freeeeeet/clinic_scheduler/internal/metrics"
	"github.com/Freeeeeet/clinic_scheduler/internal/model"
	"go.uber.org/zap"
)

// WorkspaceDeps общие зависимости рабочих пространств
type WorkspaceDeps struct {
	Gateway   AppointmentGateway
	Scheduler *AppointmentScheduler
	PageSize  int
	Debounce  time.Duration
	Metrics   *metrics.Collector
	Logger    *zap.Logger
	Now       func() time.Time
}

// Workspace данные одного пользователя: календарь и список приёмов.
// Все изменения приёмов идут через планировщик, после успеха окно и список перезапрашиваются.
type Workspace struct {
	actor     model.Actor
	calendar  *CalendarView
	list      *PaginatedQueryCoordinator
	scheduler *AppointmentScheduler
	fetcher   RangeFetcher
	logger    *zap.Logger

	mu       sync.Mutex
	lastUsed time.Time
}

func NewWorkspace(actor model.Actor, deps WorkspaceDeps) *Workspace {
	now := time.Now
	if deps.Now != nil {
		now = deps.Now
	}

	logger := deps.Logger.With(zap.Int64("user_id", actor.UserID))

	initial := model.PageQuery{
		Page:     1,
		PageSize: deps.PageSize,
		Sort:     "appointmentDate",
		Order:    model.SortDesc,
	}
	cal := NewCalendarView(deps.Gateway, deps.Scheduler.Location(), now(), deps.Metrics, logger)

	// студент видит только свой ресурс
	if actor.Constrained() {
		initial.ResourceID = actor.ResourceID
		cal.SetResourceFilter(actor.ResourceID)
	}

	return &Workspace{
		actor:     actor,
		calendar:  cal,
		list:      NewPaginatedQueryCoordinator(deps.Gateway, initial, deps.Debounce, deps.Metrics, logger),
		scheduler: deps.Scheduler,
		fetcher:   deps.Gateway,
		logger:    logger,
		lastUsed:  now(),
	}
}

func (w *Workspace) Actor() model.Actor {
	return w.actor
}

func (w *Workspace) Calendar() *CalendarView {
	return w.calendar
}

func (w *Workspace) List() *PaginatedQueryCoordinator {
	return w.list
}

// SetResourceFilter фильтр по студенту для календаря и списка. Пустая строка снимает фильтр.
// Для ролей, ограниченных своим ресурсом, фильтр не меняется.
func (w *Workspace) SetResourceFilter(resourceID string) error {
	if w.actor.Constrained() {
		return ErrForbidden
	}
	w.calendar.SetResourceFilter(resourceID)
	w.list.SetResourceFilter(resourceID)
	return nil
}

// Location часовой пояс, в котором показываются приёмы
func (w *Workspace) Location() *time.Location {
	return w.scheduler.Location()
}

// Touch отмечает использование пространства
func (w *Workspace) Touch(now time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastUsed = now
}

func (w *Workspace) LastUsed() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastUsed
}

// Submit создаёт приём или переносит editingID
func (w *Workspace) Submit(ctx context.Context, form AppointmentForm, editingID string) (*model.Appointment, error) {
	appt, err := w.scheduler.Schedule(ctx, ScheduleRequest{
		Form:      form,
		EditingID: editingID,
		Actor:     w.actor,
		LoadKnown: w.known,
	})
	if err != nil {
		return nil, err
	}

	w.Resync(ctx)
	return appt, nil
}

// ChangeStatus быстрое действие над статусом
func (w *Workspace) ChangeStatus(ctx context.Context, id string, status model.Status) (*model.Appointment, error) {
	appt, err := w.scheduler.TransitionStatus(ctx, w.actor, w.Find(id), status)
	if err != nil {
		return nil, err
	}
	w.Resync(ctx)
	return appt, nil
}

func (w *Workspace) Delete(ctx context.Context, id string) error {
	if err := w.scheduler.Delete(ctx, w.actor, w.Find(id)); err != nil {
		return err
	}
	w.Resync(ctx)
	return nil
}

// Find ищет приём в загруженном окне календаря, затем на текущей странице списка
func (w *Workspace) Find(id string) *model.Appointment {
	if a := w.calendar.Find(id); a != nil {
		return a
	}
	if snap, ok := w.list.Snapshot(); ok {
		for _, a := range snap.Result.Items {
			if a.ID == id {
				return a
			}
		}
	}
	return nil
}

// Resync перезапрашивает окно календаря и, если список уже открывался, текущую страницу.
// Ошибки выборок не отменяют уже выполненное изменение и только пишутся в лог.
func (w *Workspace) Resync(ctx context.Context) {
	if _, err := w.calendar.Refresh(ctx); err != nil && !errors.Is(err, ErrStaleFetch) {
		w.logger.Warn("Calendar resync failed", zap.Error(err))
	}

	if _, ok := w.list.Snapshot(); !ok {
		return
	}
	if _, err := w.list.FetchNow(ctx); err != nil && !errors.Is(err, ErrStaleFetch) {
		w.logger.Warn("List resync failed", zap.Error(err))
	}
}

// Close останавливает отложенные выборки
func (w *Workspace) Close() {
	w.list.Close()
}

// known приёмы ресурса для проверки пересечений. Если дата вне загруженного окна,
// догружается неделя с этой датой.
func (w *Workspace) known(ctx context.Context, interval Interval) ([]*model.Appointment, error) {
	if w.calendar.Covers(interval.Start) {
		return w.calendar.Known(interval.ResourceID), nil
	}

	week := daterange.WeekRange(interval.Start)
	appts, err := w.fetcher.FetchByRange(ctx, week.Start, week.End)
	if err != nil {
		w.logger.Warn("Fetch week for conflict check failed", zap.Error(err))
		return nil, remote("fetch range", err)
	}
	return filterByResource(appts, interval.ResourceID), nil
}

// WorkspaceRegistry рабочие пространства по Telegram ID
type WorkspaceRegistry struct {
	deps    WorkspaceDeps
	idleTTL time.Duration
	logger  *zap.Logger

	mu    sync.RWMutex
	items map[int64]*Workspace
}

func NewWorkspaceRegistry(deps WorkspaceDeps, idleTTL time.Duration) *WorkspaceRegistry {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &WorkspaceRegistry{
		deps:    deps,
		idleTTL: idleTTL,
		logger:  deps.Logger,
		items:   make(map[int64]*Workspace),
	}
}

// Get возвращает пространство пользователя, создавая его при первом обращении.
// При смене роли или ресурса пространство пересоздаётся.
func (r *WorkspaceRegistry) Get(telegramID int64, actor model.Actor) *Workspace {
	now := r.deps.Now()

	r.mu.RLock()
	ws, ok := r.items[telegramID]
	r.mu.RUnlock()
	if ok && ws.actor == actor {
		ws.Touch(now)
		return ws
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.items[telegramID]; ok {
		if existing.actor == actor {
			existing.Touch(now)
			return existing
		}
		existing.Close()
	}

	ws = NewWorkspace(actor, r.deps)
	r.items[telegramID] = ws
	r.deps.Metrics.SetActiveWorkspaces(len(r.items))

	r.logger.Debug("Workspace created",
		zap.Int64("telegram_id", telegramID),
		zap.String("role", string(actor.Role)),
	)
	return ws
}

// Lookup возвращает пространство без создания
func (r *WorkspaceRegistry) Lookup(telegramID int64) (*Workspace, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ws, ok := r.items[telegramID]
	return ws, ok
}

// All снимок всех живых пространств
func (r *WorkspaceRegistry) All() []*Workspace {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*Workspace, 0, len(r.items))
	for _, ws := range r.items {
		result = append(result, ws)
	}
	return result
}

func (r *WorkspaceRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// EvictIdle удаляет пространства, не использовавшиеся дольше idleTTL
func (r *WorkspaceRegistry) EvictIdle(now time.Time) int {
	if r.idleTTL <= 0 {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := 0
	for id, ws := range r.items {
		if now.Sub(ws.LastUsed()) > r.idleTTL {
			ws.Close()
			delete(r.items, id)
			evicted++
		}
	}
	r.deps.Metrics.SetActiveWorkspaces(len(r.items))
	return evicted
}

// ResyncAll обновляет уже открытые окна календаря всех пространств
func (r *WorkspaceRegistry) ResyncAll(ctx context.Context) error {
	var failed int
	for _, ws := range r.All() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !ws.calendar.Snapshot().Loaded {
			continue
		}
		if _, err := ws.calendar.Resync(ctx); err != nil && !errors.Is(err, ErrStaleFetch) {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("resync workspaces: %d failed", failed)
	}
	return nil
}

// Close останавливает все пространства
func (r *WorkspaceRegistry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, ws := range r.items {
		ws.Close()
		delete(r.items, id)
	}
}
