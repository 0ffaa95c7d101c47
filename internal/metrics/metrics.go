package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "clinic_scheduler"

// Collector метрики планировщика. Нулевой *Collector допустим: все методы ничего не делают.
type Collector struct {
	registry *prometheus.Registry

	ValidationRejections *prometheus.CounterVec
	ConflictRejections   prometheus.Counter
	AppointmentsSaved    *prometheus.CounterVec
	RemoteErrors         *prometheus.CounterVec
	StaleFetches         *prometheus.CounterVec
	PageClamps           prometheus.Counter
	FetchDuration        *prometheus.HistogramVec
	ActiveWorkspaces     prometheus.Gauge
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,

		ValidationRejections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "validation_rejections_total",
			Help:      "Appointment submissions rejected by validation, by reason.",
		}, []string{"reason"}),

		ConflictRejections: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "conflict_rejections_total",
			Help:      "Appointment submissions rejected because of a double booking.",
		}),

		AppointmentsSaved: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "appointments_saved_total",
			Help:      "Appointments persisted through the gateway, by operation.",
		}, []string{"operation"}),

		RemoteErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "errors_total",
			Help:      "Failed gateway calls, by operation.",
		}, []string{"operation"}),

		StaleFetches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "stale_fetches_discarded_total",
			Help:      "Fetch responses dropped because a newer fetch was issued.",
		}, []string{"view"}),

		PageClamps: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "page_clamps_total",
			Help:      "Times the requested page was clamped to the last valid page.",
		}),

		FetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "fetch_duration_seconds",
			Help:      "Latency of range and page fetches.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"view"}),

		ActiveWorkspaces: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "active_workspaces",
			Help:      "Users with a live calendar/list workspace.",
		}),
	}
}

// Handler отдаёт метрики в формате Prometheus
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) ValidationRejected(reason string) {
	if c == nil {
		return
	}
	c.ValidationRejections.WithLabelValues(reason).Inc()
}

func (c *Collector) ConflictRejected() {
	if c == nil {
		return
	}
	c.ConflictRejections.Inc()
}

func (c *Collector) Saved(operation string) {
	if c == nil {
		return
	}
	c.AppointmentsSaved.WithLabelValues(operation).Inc()
}

func (c *Collector) RemoteError(operation string) {
	if c == nil {
		return
	}
	c.RemoteErrors.WithLabelValues(operation).Inc()
}

func (c *Collector) StaleDiscarded(view string) {
	if c == nil {
		return
	}
	c.StaleFetches.WithLabelValues(view).Inc()
}

func (c *Collector) PageClamped() {
	if c == nil {
		return
	}
	c.PageClamps.Inc()
}

func (c *Collector) ObserveFetch(view string, seconds float64) {
	if c == nil {
		return
	}
	c.FetchDuration.WithLabelValues(view).Observe(seconds)
}

func (c *Collector) SetActiveWorkspaces(n int) {
	if c == nil {
		return
	}
	c.ActiveWorkspaces.Set(float64(n))
}
