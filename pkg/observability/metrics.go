package observability

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/kamelat/Netopeer2/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors of the RPC bridge.
type Metrics struct {
	calls           *prometheus.CounterVec
	transitions     *prometheus.CounterVec
	backendDuration *prometheus.HistogramVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg selects prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "np2",
				Subsystem: "rpc",
				Name:      "calls_total",
				Help:      "Generic operation and action calls by outcome.",
			},
			[]string{"shape", "outcome"},
		),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "np2",
				Subsystem: "rpc",
				Name:      "state_transitions_total",
				Help:      "Call state transitions by target state.",
			},
			[]string{"state"},
		),
		backendDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "np2",
				Subsystem: "backend",
				Name:      "call_duration_seconds",
				Help:      "Backend round trip duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"shape", "status"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "np2",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total HTTP requests.",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "np2",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
	}
	reg.MustRegister(m.calls, m.transitions, m.backendDuration, m.httpRequests, m.httpDuration)
	return m
}

// RecordHTTPRequest counts one served HTTP request.
func (m *Metrics) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	statusLabel := strconv.Itoa(status)
	m.httpRequests.WithLabelValues(method, route, statusLabel).Inc()
	m.httpDuration.WithLabelValues(method, route, statusLabel).Observe(duration.Seconds())
}

// Hooks returns lifecycle hooks feeding the collectors and logging every
// event at debug level. A nil logger disables logging.
func (m *Metrics) Hooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			m.transitions.WithLabelValues(e.To.String()).Inc()
			switch e.To {
			case domain.StateDone:
				m.calls.WithLabelValues(e.Shape.String(), "done").Inc()
			case domain.StateFailed:
				m.calls.WithLabelValues(e.Shape.String(), "failed").Inc()
			}
			if logger != nil {
				logger.DebugContext(ctx, "call_transition",
					"session", e.SessionID,
					"op", e.Path,
					"from", e.From.String(),
					"to", e.To.String(),
				)
			}
		},
		OnBackendCall: func(ctx context.Context, e *domain.BackendEvent) {
			if logger != nil {
				logger.DebugContext(ctx, "backend_call", "session", e.SessionID, "op", e.Path, "records", e.Records)
			}
		},
		OnBackendReturn: func(ctx context.Context, e *domain.BackendEvent) {
			m.backendDuration.WithLabelValues(e.Shape.String(), e.Code.String()).Observe(e.Duration.Seconds())
			if logger != nil {
				logger.DebugContext(ctx, "backend_return",
					"session", e.SessionID,
					"op", e.Path,
					"records", e.Records,
					"is_error", e.IsError,
				)
			}
		},
	}
}
