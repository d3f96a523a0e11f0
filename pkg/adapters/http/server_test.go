package http

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kamelat/Netopeer2/internal/testutils"
	"github.com/kamelat/Netopeer2/pkg/adapters/memory"
	"github.com/kamelat/Netopeer2/pkg/domain"
	"github.com/kamelat/Netopeer2/pkg/observability"
	"github.com/kamelat/Netopeer2/pkg/ports"
	"github.com/kamelat/Netopeer2/pkg/record"
	"github.com/kamelat/Netopeer2/pkg/rpc"
	"github.com/kamelat/Netopeer2/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	handler  http.Handler
	backend  *memory.Backend
	sessions *session.Manager
	streams  *StreamManager
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	ctx := testutils.SetupSchema(t)
	be := memory.NewBackend()
	bg := context.Background()

	require.NoError(t, be.Register(bg, "/example:compute", func(_ context.Context, req ports.Request) ([]record.Record, error) {
		return []record.Record{{
			Path:  "/example:compute/y",
			Value: record.Value{Kind: record.KindInt, Int: int64(len(req.Input))},
		}}, nil
	}))
	require.NoError(t, be.Register(bg, "/ietf-interfaces:interfaces/interface/reset", func(_ context.Context, req ports.Request) ([]record.Record, error) {
		return []record.Record{{
			Path:    req.Path + "/status",
			Value:   record.Value{Kind: record.KindString, Str: "done"},
			Default: true,
		}}, nil
	}))

	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	streams := NewStreamManager(nil)
	coord := rpc.NewCoordinator(rpc.WithLifecycleHooks(domain.ChainHooks(metrics.Hooks(nil), streams.Hooks())))
	sessions := session.NewManager(memory.NewStore(), be)

	opts = append([]Option{WithStreams(streams), WithMetrics(metrics, reg)}, opts...)
	srv := NewServer(ctx, sessions, coord, opts...)
	return &fixture{handler: srv.Handler(), backend: be, sessions: sessions, streams: streams}
}

func (f *fixture) do(method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func TestPostRPC_Data(t *testing.T) {
	f := newFixture(t)

	w := f.do("POST", "/sessions/s1/rpc", `{"example:compute":{"y":"5"}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	// only y travels; x and opts are defaults
	assert.JSONEq(t, `{"data":{"example:compute":{"y":1}}}`, w.Body.String())
}

func TestPostRPC_NotSupported(t *testing.T) {
	f := newFixture(t)

	w := f.do("POST", "/sessions/s1/rpc", `{"example:ping":{}}`)
	assert.Equal(t, http.StatusNotImplemented, w.Code)
	assert.JSONEq(t, `{"rpc-error":{"error-type":"protocol","error-tag":"operation-not-supported"}}`, w.Body.String())
}

func TestPostRPC_BadRequests(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name, target, body string
	}{
		{"not json", "/sessions/s1/rpc", `{`},
		{"unknown module", "/sessions/s1/rpc", `{"nope:compute":{}}`},
		{"bad mode", "/sessions/s1/rpc?with-defaults=sometimes", `{"example:compute":{"y":"5"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do("POST", tt.target, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), `"error-tag":"invalid-value"`)
		})
	}
}

func TestPostRPC_WithDefaultsParameter(t *testing.T) {
	f := newFixture(t)
	body := `{"ietf-interfaces:interfaces":{"interface":[{"name":"eth0","reset":{}}]}}`

	w := f.do("POST", "/sessions/s1/rpc", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"status":"done"`, "explicit mode keeps action output")

	w = f.do("POST", "/sessions/s1/rpc?with-defaults=trim", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "done")
	assert.Contains(t, w.Body.String(), `"reset":{}`)
}

func TestPostRPC_RateLimit(t *testing.T) {
	f := newFixture(t, WithLimiter(NewLimiter(0.001, 1)))

	w := f.do("POST", "/sessions/s1/rpc", `{"example:compute":{"y":"5"}}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do("POST", "/sessions/s1/rpc", `{"example:compute":{"y":"5"}}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "resource-denied")

	w = f.do("POST", "/sessions/s2/rpc", `{"example:compute":{"y":"5"}}`)
	assert.Equal(t, http.StatusOK, w.Code, "limits are per session")
}

func TestPutDatastore(t *testing.T) {
	f := newFixture(t)

	w := f.do("PUT", "/sessions/s1/datastore", `{"datastore":"candidate"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"datastore":"candidate"`)
	assert.Equal(t, domain.DatastoreCandidate, f.backend.Datastore("s1"))

	// a call moves the session back to running
	w = f.do("POST", "/sessions/s1/rpc", `{"example:compute":{"y":"5"}}`)
	require.Equal(t, http.StatusOK, w.Code)
	state, err := f.sessions.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.DatastoreRunning, state.Datastore)
	assert.Equal(t, domain.DatastoreRunning, f.backend.Datastore("s1"))

	w = f.do("PUT", "/sessions/s1/datastore", `{"datastore":"attic"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteSession(t *testing.T) {
	f := newFixture(t)
	f.do("POST", "/sessions/s1/rpc", `{"example:compute":{"y":"5"}}`)

	w := f.do("DELETE", "/sessions/s1", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	ids, err := f.sessions.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestInfoAndHealth(t *testing.T) {
	f := newFixture(t)

	w := f.do("GET", "/health", "")
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = f.do("GET", "/info", "")
	assert.Contains(t, w.Body.String(), "ietf-interfaces")
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)
	f.do("POST", "/sessions/s1/rpc", `{"example:compute":{"y":"5"}}`)

	w := f.do("GET", "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `np2_http_requests_total{method="POST",route="/sessions/{id}/rpc",status="200"} 1`)
	assert.Contains(t, w.Body.String(), `np2_rpc_calls_total{outcome="done",shape="rpc"} 1`)
}

func TestSubscribeEvents(t *testing.T) {
	f := newFixture(t)
	ts := httptest.NewServer(f.handler)
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, "GET", ts.URL+"/sessions/s1/events", nil)
	require.NoError(t, err)
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	require.True(t, lines.Scan())
	assert.Equal(t, "event: ping", lines.Text())

	w := f.do("POST", "/sessions/s1/rpc", `{"example:compute":{"y":"5"}}`)
	require.Equal(t, http.StatusOK, w.Code)

	var events []string
	for lines.Scan() {
		line := lines.Text()
		if data, ok := strings.CutPrefix(line, "data: "); ok && data != "connected" {
			events = append(events, data)
			if strings.Contains(data, `"to":"done"`) {
				break
			}
		}
	}
	require.Len(t, events, 6)
	assert.Contains(t, events[0], `"to":"shape-detected"`)
	assert.Contains(t, events[0], `"path":"/example:compute"`)
	assert.Contains(t, events[0], `"session_id":"s1"`)
}
