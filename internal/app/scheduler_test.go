package app

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Freeeeeet/clinic_scheduler/internal/model"
	"github.com/Freeeeeet/clinic_scheduler/internal/service"
	"go.uber.org/zap"
)

type stubGateway struct {
	rangeCalls atomic.Int32
}

func (g *stubGateway) FetchByRange(ctx context.Context, start, end time.Time) ([]*model.Appointment, error) {
	g.rangeCalls.Add(1)
	return nil, nil
}

func (g *stubGateway) FetchPage(ctx context.Context, q model.PageQuery) (*model.PageResult, error) {
	return &model.PageResult{}, nil
}

func (g *stubGateway) Create(ctx context.Context, p model.AppointmentPayload) (*model.Appointment, error) {
	return &model.Appointment{}, nil
}

func (g *stubGateway) Update(ctx context.Context, id string, p model.AppointmentPayload) (*model.Appointment, error) {
	return &model.Appointment{ID: id}, nil
}

func (g *stubGateway) UpdateStatus(ctx context.Context, id string, status model.Status) (*model.Appointment, error) {
	return &model.Appointment{ID: id, Status: status}, nil
}

func (g *stubGateway) Delete(ctx context.Context, id string) error {
	return nil
}

func TestSchedulerTick(t *testing.T) {
	gw := &stubGateway{}
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	clock := now

	registry := service.NewWorkspaceRegistry(service.WorkspaceDeps{
		Gateway:   gw,
		Scheduler: service.NewAppointmentScheduler(gw, service.CheckConstrained, time.UTC, nil, zap.NewNop()),
		PageSize:  10,
		Logger:    zap.NewNop(),
		Now:       func() time.Time { return clock },
	}, time.Hour)
	defer registry.Close()

	active := registry.Get(1, model.Actor{UserID: 1, Role: model.RoleSupervisor})
	if _, err := active.Calendar().Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	clock = now.Add(-2 * time.Hour)
	registry.Get(2, model.Actor{UserID: 2, Role: model.RoleStudent, ResourceID: "R2"})

	s := NewScheduler(registry, time.Minute, nil, zap.NewNop())
	s.now = func() time.Time { return now }
	s.tick(context.Background())

	if registry.Len() != 1 {
		t.Fatalf("expected idle workspace to be evicted, %d left", registry.Len())
	}
	if _, ok := registry.Lookup(1); !ok {
		t.Fatal("active workspace must survive")
	}
	// одна выборка при открытии и одна при синхронизации
	if got := gw.rangeCalls.Load(); got != 2 {
		t.Fatalf("expected 2 range fetches, got %d", got)
	}
}

func TestSchedulerDisabled(t *testing.T) {
	s := NewScheduler(nil, 0, nil, zap.NewNop())
	s.Start(context.Background())
}
