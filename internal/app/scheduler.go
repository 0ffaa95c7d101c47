package app

import (
	"context"
	"time"

	"github.com/Freeeeeet/clinic_scheduler/internal/metrics"
	"github.com/Freeeeeet/clinic_scheduler/internal/service"
	"go.uber.org/zap"
)

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	registry *service.WorkspaceRegistry
	interval time.Duration
	metrics  *metrics.Collector
	logger   *zap.Logger
	now      func() time.Time
	stopChan chan struct{}
}

// NewScheduler создаёт планировщик. Нулевой interval отключает фоновую синхронизацию.
func NewScheduler(registry *service.WorkspaceRegistry, interval time.Duration, collector *metrics.Collector, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		registry: registry,
		interval: interval,
		metrics:  collector,
		logger:   logger,
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Info("Background resync disabled")
		return
	}

	s.logger.Info("Starting background scheduler", zap.Duration("interval", s.interval))
	go s.runResyncTask(ctx)
}

// Stop останавливает фоновые задачи
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background scheduler")
	close(s.stopChan)
}

func (s *Scheduler) runResyncTask(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.tick(ctx)
		case <-s.stopChan:
			s.logger.Info("Resync task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Resync task cancelled")
			return
		}
	}
}

// tick выгружает простаивающие рабочие области и перечитывает окна остальных
func (s *Scheduler) tick(ctx context.Context) {
	evicted := s.registry.EvictIdle(s.now())
	if evicted > 0 {
		s.logger.Info("Idle workspaces evicted", zap.Int("count", evicted))
	}
	s.metrics.SetActiveWorkspaces(s.registry.Len())

	if err := s.registry.ResyncAll(ctx); err != nil {
		s.logger.Warn("Workspace resync finished with errors", zap.Error(err))
		return
	}
	s.logger.Debug("Workspaces resynced", zap.Int("count", s.registry.Len()))
}
