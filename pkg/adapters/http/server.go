package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/kamelat/Netopeer2/internal/logging"
	"github.com/kamelat/Netopeer2/pkg/domain"
	"github.com/kamelat/Netopeer2/pkg/observability"
	"github.com/kamelat/Netopeer2/pkg/rpc"
	"github.com/kamelat/Netopeer2/pkg/schema"
	"github.com/kamelat/Netopeer2/pkg/session"
	"github.com/kamelat/Netopeer2/pkg/tree"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MaxBodySize bounds the size of a request tree.
const MaxBodySize = 1 << 20

// Server exposes generic operation and action calls over HTTP.
//
// Request and reply trees use the JSON encoding of YANG data. A call runs
// under the session lock of the session named in the URL; sessions are
// created on first use.
type Server struct {
	schema   *schema.Context
	sessions *session.Manager
	coord    *rpc.Coordinator
	streams  *StreamManager
	limiter  *Limiter
	metrics  *observability.Metrics
	gatherer prometheus.Gatherer
	logger   *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithStreams enables the per-session event stream. The coordinator must
// have been built with sm.Hooks() for events to flow.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.streams = sm
	}
}

// WithLimiter bounds the call rate of each session.
func WithLimiter(l *Limiter) Option {
	return func(s *Server) {
		s.limiter = l
	}
}

// WithMetrics records request metrics and serves /metrics from g.
func WithMetrics(m *observability.Metrics, g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = g
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a server dispatching calls through coord.
func NewServer(ctx *schema.Context, sessions *session.Manager, coord *rpc.Coordinator, opts ...Option) *Server {
	s := &Server{
		schema:   ctx,
		sessions: sessions,
		coord:    coord,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	if s.metrics != nil {
		r.Use(s.measure)
	}

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Post("/rpc", s.PostRPC)
		r.Put("/datastore", s.PutDatastore)
		r.Get("/events", s.SubscribeEvents)
		r.Delete("/", s.DeleteSession)
	})
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

func (s *Server) measure(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.RecordHTTPRequest(r.Method, route, status, time.Since(start))
	})
}

// PostRPC handles POST /sessions/{id}/rpc. The body is an operation or an
// action envelope; the optional with-defaults query parameter overrides the
// reporting mode of data replies.
func (s *Server) PostRPC(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.limiter.Allow(id, time.Now()) {
		writeError(w, http.StatusTooManyRequests, &rpc.RPCError{
			Type: rpc.ErrorTypeProtocol, Tag: "resource-denied", Message: "call rate exceeded",
		})
		return
	}

	mode := domain.WithDefaultsMode("")
	if q := r.URL.Query().Get("with-defaults"); q != "" {
		m, err := domain.ParseWithDefaultsMode(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, invalidValue(err))
			return
		}
		mode = m
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, MaxBodySize+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, invalidValue(err))
		return
	}
	if len(body) > MaxBodySize {
		writeError(w, http.StatusRequestEntityTooLarge, invalidValue(fmt.Errorf("request tree exceeds %d bytes", MaxBodySize)))
		return
	}
	req, err := tree.DecodeJSON(s.schema, body, tree.DecodeOptions{AddDefaults: true})
	if err != nil {
		s.logger.Debug("PostRPC: Invalid request tree", "session_id", id, "err", err)
		writeError(w, http.StatusBadRequest, invalidValue(err))
		return
	}

	var reply *rpc.Reply
	err = s.sessions.Do(r.Context(), id, func(ctx context.Context, sess *session.Session) error {
		reply = s.coord.Handle(ctx, sess, req)
		return nil
	})
	req.Free()
	if err != nil {
		reply.Free()
		s.logger.Error("PostRPC: Session failure", "session_id", id, "err", err)
		writeError(w, http.StatusInternalServerError, &rpc.RPCError{
			Type: rpc.ErrorTypeApplication, Tag: rpc.TagOperationFailed, Message: err.Error(),
		})
		return
	}
	defer reply.Free()

	if mode != "" {
		reply.WithDefaults = mode
	}
	status := http.StatusOK
	if reply.Kind == rpc.ReplyError {
		status = http.StatusInternalServerError
		if reply.Err.Tag == rpc.TagOperationNotSupported {
			status = http.StatusNotImplemented
		}
	}
	writeJSON(w, status, reply)
}

type datastoreRequest struct {
	Datastore string `json:"datastore"`
}

// PutDatastore handles PUT /sessions/{id}/datastore.
func (s *Server) PutDatastore(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body datastoreRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, MaxBodySize)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, invalidValue(err))
		return
	}
	ds, err := domain.ParseDatastore(body.Datastore)
	if err != nil {
		writeError(w, http.StatusBadRequest, invalidValue(err))
		return
	}
	if err := s.sessions.SetDatastore(r.Context(), id, ds); err != nil {
		s.logger.Error("PutDatastore failed", "session_id", id, "err", err)
		writeError(w, http.StatusInternalServerError, &rpc.RPCError{
			Type: rpc.ErrorTypeApplication, Tag: rpc.TagOperationFailed, Message: err.Error(),
		})
		return
	}
	state, err := s.sessions.Load(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, &rpc.RPCError{
			Type: rpc.ErrorTypeApplication, Tag: rpc.TagOperationFailed, Message: err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.sessions.Delete(r.Context(), id); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrSessionNotFound) {
			status = http.StatusNotFound
		}
		writeError(w, status, &rpc.RPCError{
			Type: rpc.ErrorTypeApplication, Tag: "invalid-value", Message: err.Error(),
		})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"app":     "np2rpc",
		"modules": s.schema.Modules(),
	})
}

// SubscribeEvents handles GET /sessions/{id}/events (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	if s.streams == nil {
		http.Error(w, "Event streams are disabled", http.StatusNotFound)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	id := chi.URLParam(r, "id")
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.streams.Subscribe(id)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()
	s.logger.Debug("SSE: Subscribed", "session_id", id)

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func invalidValue(err error) *rpc.RPCError {
	return &rpc.RPCError{Type: rpc.ErrorTypeProtocol, Tag: "invalid-value", Message: err.Error()}
}

func writeError(w http.ResponseWriter, status int, e *rpc.RPCError) {
	writeJSON(w, status, &rpc.Reply{Kind: rpc.ReplyError, Err: e})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		slog.Error("Response encode failed", "err", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}
