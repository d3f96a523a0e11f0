package observability_test

import (
	"context"
	"testing"
	"time"

	"github.com/kamelat/Netopeer2/internal/logging"
	"github.com/kamelat/Netopeer2/pkg/domain"
	"github.com/kamelat/Netopeer2/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	hooks := m.Hooks(logging.NewNop())
	ctx := context.Background()

	for _, to := range []domain.CallState{domain.StateShapeDetected, domain.StateDone} {
		hooks.OnTransition(ctx, &domain.TransitionEvent{
			Transition: domain.Transition{To: to},
			Shape:      domain.ShapeAction,
		})
	}
	hooks.OnTransition(ctx, &domain.TransitionEvent{Transition: domain.Transition{To: domain.StateFailed}})
	hooks.OnBackendCall(ctx, &domain.BackendEvent{Path: "/example:ping"})
	hooks.OnBackendReturn(ctx, &domain.BackendEvent{Path: "/example:ping", Duration: time.Millisecond})

	assert.Equal(t, 3, testutil.CollectAndCount(reg, "np2_rpc_state_transitions_total"))
	assert.Equal(t, 2, testutil.CollectAndCount(reg, "np2_rpc_calls_total"))
	assert.Equal(t, 1, testutil.CollectAndCount(reg, "np2_backend_call_duration_seconds"))
}

func TestMetrics_HTTP(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)

	m.RecordHTTPRequest("POST", "/sessions/{id}/rpc", 200, 5*time.Millisecond)
	m.RecordHTTPRequest("POST", "/sessions/{id}/rpc", 200, 5*time.Millisecond)
	m.RecordHTTPRequest("POST", "/sessions/{id}/rpc", 429, time.Millisecond)

	assert.Equal(t, 2, testutil.CollectAndCount(reg, "np2_http_requests_total"))
}
