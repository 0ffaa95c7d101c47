package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Freeeeeet/clinic_scheduler/internal/model"
)

var errUnavailable = errors.New("503 service unavailable")

// fakeGateway хранилище в памяти, считает вызовы
type fakeGateway struct {
	mu sync.Mutex

	appointments []*model.Appointment
	nextID       int

	rangeCalls  int
	createCalls int
	updateCalls int
	statusCalls int
	deleteCalls int

	failWrites bool
	failRange  bool
	lastCreate model.AppointmentPayload
}

func (g *fakeGateway) FetchByRange(_ context.Context, start, end time.Time) ([]*model.Appointment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rangeCalls++
	if g.failRange {
		return nil, errUnavailable
	}
	var result []*model.Appointment
	for _, a := range g.appointments {
		if !a.Start.Before(start) && !a.Start.After(end) {
			result = append(result, a)
		}
	}
	return result, nil
}

func (g *fakeGateway) FetchPage(_ context.Context, q model.PageQuery) (*model.PageResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	items := g.appointments
	from := (q.Page - 1) * q.PageSize
	if from > len(items) {
		from = len(items)
	}
	to := from + q.PageSize
	if to > len(items) {
		to = len(items)
	}
	return &model.PageResult{
		Items:              items[from:to],
		TotalCount:         len(items),
		FilteredTotalCount: len(items),
	}, nil
}

func (g *fakeGateway) Create(_ context.Context, p model.AppointmentPayload) (*model.Appointment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.createCalls++
	g.lastCreate = p
	if g.failWrites {
		return nil, errUnavailable
	}
	g.nextID++
	a := &model.Appointment{
		ID:         fmt.Sprintf("new-%d", g.nextID),
		ResourceID: p.ResourceID,
		PatientID:  p.PatientID,
		Title:      p.Title,
		Status:     p.Status,
	}
	g.appointments = append(g.appointments, a)
	return a, nil
}

func (g *fakeGateway) Update(_ context.Context, id string, p model.AppointmentPayload) (*model.Appointment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.updateCalls++
	if g.failWrites {
		return nil, errUnavailable
	}
	return &model.Appointment{ID: id, ResourceID: p.ResourceID, Title: p.Title, Status: p.Status}, nil
}

func (g *fakeGateway) UpdateStatus(_ context.Context, id string, status model.Status) (*model.Appointment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.statusCalls++
	if g.failWrites {
		return nil, errUnavailable
	}
	return &model.Appointment{ID: id, Status: status}, nil
}

func (g *fakeGateway) Delete(_ context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deleteCalls++
	if g.failWrites {
		return errUnavailable
	}
	return nil
}

func (g *fakeGateway) writes() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.createCalls + g.updateCalls + g.statusCalls + g.deleteCalls
}

// pendingFetch выборка страницы, которую тест отпускает вручную
type pendingFetch struct {
	query model.PageQuery
	reply chan pageReply
}

type pageReply struct {
	result *model.PageResult
	err    error
}

// manualPages отдаёт каждую выборку страницы в канал и ждёт ответа от теста
type manualPages struct {
	calls chan pendingFetch
}

func newManualPages() *manualPages {
	return &manualPages{calls: make(chan pendingFetch, 16)}
}

func (m *manualPages) FetchPage(ctx context.Context, q model.PageQuery) (*model.PageResult, error) {
	call := pendingFetch{query: q, reply: make(chan pageReply, 1)}
	m.calls <- call
	select {
	case r := <-call.reply:
		return r.result, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (m *manualPages) next(timeout time.Duration) (pendingFetch, bool) {
	select {
	case c := <-m.calls:
		return c, true
	case <-time.After(timeout):
		return pendingFetch{}, false
	}
}

// countingPages отвечает сразу фиксированным отфильтрованным числом
type countingPages struct {
	mu       sync.Mutex
	filtered int
	queries  []model.PageQuery
}

func (c *countingPages) FetchPage(_ context.Context, q model.PageQuery) (*model.PageResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queries = append(c.queries, q)
	return &model.PageResult{TotalCount: c.filtered, FilteredTotalCount: c.filtered}, nil
}

func (c *countingPages) seen() []model.PageQuery {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.PageQuery(nil), c.queries...)
}

func ptr(v float64) *float64 {
	return &v
}
