package service

import (
	"context"
	"time"

	"github.com/Freeeeeet/clinic_scheduler/internal/model"
)

// RangeFetcher выборка приёмов за окно календаря, упорядоченная по началу
type RangeFetcher interface {
	FetchByRange(ctx context.Context, start, end time.Time) ([]*model.Appointment, error)
}

// PageFetcher постраничная выборка с фильтрами и счётчиками
type PageFetcher interface {
	FetchPage(ctx context.Context, q model.PageQuery) (*model.PageResult, error)
}

// AppointmentWriter изменения приёмов. Хранилище окончательно решает, принимать ли запись.
type AppointmentWriter interface {
	Create(ctx context.Context, p model.AppointmentPayload) (*model.Appointment, error)
	Update(ctx context.Context, id string, p model.AppointmentPayload) (*model.Appointment, error)
	UpdateStatus(ctx context.Context, id string, status model.Status) (*model.Appointment, error)
	Delete(ctx context.Context, id string) error
}

// AppointmentGateway внешнее хранилище приёмов: REST API или Postgres
type AppointmentGateway interface {
	RangeFetcher
	PageFetcher
	AppointmentWriter
}
