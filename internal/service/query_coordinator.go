package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Freeeeeet/clinic_scheduler/internal/metrics"
	"github.com/Freeeeeet/clinic_scheduler/internal/model"
	"go.uber.org/zap"
)

const (
	DefaultPageSize = 10
	DefaultDebounce = 350 * time.Millisecond
)

// PageSnapshot видимое состояние списка: запрос, по которому получен ответ, и сам ответ
type PageSnapshot struct {
	Query    model.PageQuery
	Result   *model.PageResult
	LastPage int
	Seq      uint64
}

// LastPage номер последней допустимой страницы, не меньше 1
func LastPage(filteredTotal, pageSize int) int {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	pages := (filteredTotal + pageSize - 1) / pageSize
	if pages < 1 {
		return 1
	}
	return pages
}

// PaginatedQueryCoordinator держит страницу, фильтры и сортировку списка согласованными
// с серверным счётчиком. Каждая выборка помечается номером; применяется только ответ
// на последнюю выданную выборку.
type PaginatedQueryCoordinator struct {
	fetcher  PageFetcher
	debounce time.Duration
	metrics  *metrics.Collector
	logger   *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	state    model.PageQuery
	seq      uint64
	timer    *time.Timer
	timerGen uint64 // поколение таймера, сработавший устаревший таймер ничего не делает
	applied  *PageSnapshot
	onUpdate func(PageSnapshot)
	onError  func(error)
	closed   bool
}

func NewPaginatedQueryCoordinator(
	fetcher PageFetcher,
	initial model.PageQuery,
	debounce time.Duration,
	collector *metrics.Collector,
	logger *zap.Logger,
) *PaginatedQueryCoordinator {
	if initial.Page < 1 {
		initial.Page = 1
	}
	if initial.PageSize < 1 {
		initial.PageSize = DefaultPageSize
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &PaginatedQueryCoordinator{
		fetcher:  fetcher,
		debounce: debounce,
		metrics:  collector,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		state:    initial,
	}
}

// OnUpdate вызывается после каждого применённого ответа отложенной выборки
func (c *PaginatedQueryCoordinator) OnUpdate(fn func(PageSnapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUpdate = fn
}

// OnError вызывается при ошибке отложенной выборки, один раз на ошибку
func (c *PaginatedQueryCoordinator) OnError(fn func(error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onError = fn
}

// Query текущее (возможно, ещё не загруженное) состояние запроса
func (c *PaginatedQueryCoordinator) Query() model.PageQuery {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Snapshot последнее применённое состояние; false, если загрузок ещё не было
func (c *PaginatedQueryCoordinator) Snapshot() (PageSnapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.applied == nil {
		return PageSnapshot{}, false
	}
	return *c.applied, true
}

func (c *PaginatedQueryCoordinator) SetPage(page int) {
	c.change(func(q *model.PageQuery) {
		if page < 1 {
			page = 1
		}
		q.Page = page
	})
}

func (c *PaginatedQueryCoordinator) NextPage() {
	c.change(func(q *model.PageQuery) { q.Page++ })
}

func (c *PaginatedQueryCoordinator) PrevPage() {
	c.change(func(q *model.PageQuery) {
		if q.Page > 1 {
			q.Page--
		}
	})
}

func (c *PaginatedQueryCoordinator) SetPageSize(size int) {
	c.change(func(q *model.PageQuery) {
		if size < 1 {
			size = DefaultPageSize
		}
		q.PageSize = size
		q.Page = 1
	})
}

func (c *PaginatedQueryCoordinator) SetSearch(search string) {
	c.change(func(q *model.PageQuery) {
		q.Search = search
		q.Page = 1
	})
}

func (c *PaginatedQueryCoordinator) SetStatusFilter(status model.Status) {
	c.change(func(q *model.PageQuery) {
		q.Status = status
		q.Page = 1
	})
}

func (c *PaginatedQueryCoordinator) SetResourceFilter(resourceID string) {
	c.change(func(q *model.PageQuery) {
		q.ResourceID = resourceID
		q.Page = 1
	})
}

// SetSort меняет сортировку, страница сохраняется
func (c *PaginatedQueryCoordinator) SetSort(field string, order model.SortOrder) {
	c.change(func(q *model.PageQuery) {
		q.Sort = field
		q.Order = order
	})
}

// FetchNow отменяет отложенную выборку и выполняет запрос сразу.
// Возвращает ErrStaleFetch, если за время запроса была выдана более новая выборка.
func (c *PaginatedQueryCoordinator) FetchNow(ctx context.Context) (PageSnapshot, error) {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
		c.timerGen++
	}
	c.mu.Unlock()

	return c.run(ctx)
}

// Close отменяет отложенную выборку и запросы в полёте
func (c *PaginatedQueryCoordinator) Close() {
	c.mu.Lock()
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
		c.timerGen++
	}
	c.mu.Unlock()
	c.cancel()
}

// change применяет изменение состояния и перезапускает таймер отложенной выборки
func (c *PaginatedQueryCoordinator) change(mutate func(q *model.PageQuery)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	mutate(&c.state)
	// ответы на выборки, выданные до изменения, больше не применяются
	c.seq++

	if c.timer != nil {
		c.timer.Stop()
	}
	c.timerGen++
	gen := c.timerGen
	c.timer = time.AfterFunc(c.debounce, func() { c.fire(gen) })
}

func (c *PaginatedQueryCoordinator) fire(gen uint64) {
	c.mu.Lock()
	if c.closed || gen != c.timerGen {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.mu.Unlock()

	snap, err := c.run(c.ctx)

	c.mu.Lock()
	onUpdate, onError := c.onUpdate, c.onError
	c.mu.Unlock()

	switch {
	case errors.Is(err, ErrStaleFetch), errors.Is(err, context.Canceled):
	case err != nil:
		if onError != nil {
			onError(err)
		}
	default:
		if onUpdate != nil {
			onUpdate(snap)
		}
	}
}

// run выдаёт выборку с новым номером. Если страница вышла за последнюю, номер
// страницы прижимается и запрос сразу повторяется. Страница 1 прижиматься не может,
// поэтому цикл конечен.
func (c *PaginatedQueryCoordinator) run(ctx context.Context) (PageSnapshot, error) {
	for {
		c.mu.Lock()
		c.seq++
		seq, q := c.seq, c.state
		c.mu.Unlock()

		started := time.Now()
		res, err := c.fetcher.FetchPage(ctx, q)
		c.metrics.ObserveFetch("page", time.Since(started).Seconds())

		c.mu.Lock()
		if seq != c.seq {
			c.mu.Unlock()
			c.metrics.StaleDiscarded("page")
			c.logger.Debug("Stale page fetch discarded", zap.Uint64("seq", seq))
			return PageSnapshot{}, ErrStaleFetch
		}

		if err != nil {
			c.mu.Unlock()
			if errors.Is(err, context.Canceled) {
				return PageSnapshot{}, err
			}
			c.metrics.RemoteError("fetch page")
			c.logger.Warn("Page fetch failed", zap.Int("page", q.Page), zap.Error(err))
			return PageSnapshot{}, remote("fetch page", err)
		}

		last := LastPage(res.FilteredTotalCount, q.PageSize)
		if q.Page > last {
			c.state.Page = last
			c.mu.Unlock()
			c.metrics.PageClamped()
			c.logger.Debug("Page clamped",
				zap.Int("requested", q.Page),
				zap.Int("last", last),
				zap.Int("filtered_total", res.FilteredTotalCount),
			)
			continue
		}

		snap := PageSnapshot{Query: q, Result: res, LastPage: last, Seq: seq}
		c.applied = &snap
		c.mu.Unlock()
		return snap, nil
	}
}
