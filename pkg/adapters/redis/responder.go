package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kamelat/Netopeer2/internal/logging"
	"github.com/kamelat/Netopeer2/pkg/domain"
	"github.com/kamelat/Netopeer2/pkg/ports"
	"github.com/kamelat/Netopeer2/pkg/schema"
	backend "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

// Responder serves the backend side of a Backend: it subscribes handlers to
// schema paths and answers the requests queued for them.
type Responder struct {
	client   *backend.Client
	keys     keys
	id       string
	workers  int
	poll     time.Duration
	replyTTL time.Duration
	logger   *slog.Logger

	mu       sync.RWMutex
	handlers map[string]ports.Handler
}

// ResponderOption configures a Responder.
type ResponderOption func(*Responder)

// WithResponderPrefix sets the key prefix; it must match the Backend's.
func WithResponderPrefix(prefix string) ResponderOption {
	return func(r *Responder) {
		r.keys = keys(prefix)
	}
}

// WithWorkers bounds how many requests are handled concurrently.
func WithWorkers(n int) ResponderOption {
	return func(r *Responder) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithResponderLogger sets the logger.
func WithResponderLogger(logger *slog.Logger) ResponderOption {
	return func(r *Responder) {
		r.logger = logger
	}
}

// NewResponder creates a responder from an existing client.
func NewResponder(client *backend.Client, opts ...ResponderOption) *Responder {
	r := &Responder{
		client:   client,
		keys:     DefaultPrefix,
		id:       uuid.NewString(),
		workers:  4,
		poll:     time.Second,
		replyTTL: time.Minute,
		logger:   logging.NewNop(),
		handlers: make(map[string]ports.Handler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var _ ports.Registry = (*Responder)(nil)

// Register subscribes h to calls targeting path and announces the path in the handler set.
func (r *Responder) Register(ctx context.Context, path string, h ports.Handler) error {
	if h == nil {
		return fmt.Errorf("nil handler for %s", path)
	}
	target := schema.StripPredicates(path)

	r.mu.Lock()
	r.handlers[target] = h
	r.mu.Unlock()

	pipe := r.client.Pipeline()
	pipe.SAdd(ctx, r.keys.handlers(), target)
	// wake a Serve loop blocked on the previous set of queues
	pipe.RPush(ctx, r.keys.wake(r.id), "1")
	pipe.Expire(ctx, r.keys.wake(r.id), r.replyTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to register handler: %w", err)
	}
	r.logger.Debug("Handler registered", "path", target)
	return nil
}

func (r *Responder) queues() ([]string, map[string]ports.Handler) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	qs := make([]string, 0, len(r.handlers)+1)
	byQueue := make(map[string]ports.Handler, len(r.handlers))
	for target, h := range r.handlers {
		q := r.keys.queue(target)
		qs = append(qs, q)
		byQueue[q] = h
	}
	return append(qs, r.keys.wake(r.id)), byQueue
}

// Serve answers queued requests until ctx is done. Handler paths are removed
// from the handler set on return.
func (r *Responder) Serve(ctx context.Context) error {
	defer r.unregister(context.WithoutCancel(ctx))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	var serveErr error
	for gctx.Err() == nil {
		qs, byQueue := r.queues()
		res, err := r.client.BLPop(gctx, r.poll, qs...).Result()
		if errors.Is(err, backend.Nil) {
			continue
		}
		if err != nil {
			if gctx.Err() == nil {
				serveErr = fmt.Errorf("failed to pop request: %w", err)
			}
			break
		}

		h, ok := byQueue[res[0]]
		if !ok {
			continue // wake-up
		}
		payload := res[1]
		g.Go(func() error {
			r.handle(gctx, h, payload)
			return nil
		})
	}

	_ = g.Wait()
	return serveErr
}

func (r *Responder) handle(ctx context.Context, h ports.Handler, payload string) {
	var req ports.Request
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		r.logger.Error("Dropping malformed request", "err", err)
		return
	}

	rep := reply{Status: domain.StatusOK}
	out, err := h(ctx, req)
	if err != nil {
		be := domain.AsBackendError(err)
		rep = reply{Status: be.Code, Message: be.Message, Path: be.Path}
		r.logger.Debug("Handler failed", "id", req.ID, "path", req.Path, "err", err)
	} else {
		rep.Output = out
	}

	data, err := json.Marshal(rep)
	if err != nil {
		r.logger.Error("Failed to marshal reply", "id", req.ID, "err", err)
		return
	}

	wctx := context.WithoutCancel(ctx)
	pipe := r.client.Pipeline()
	pipe.RPush(wctx, r.keys.reply(req.ID), data)
	pipe.Expire(wctx, r.keys.reply(req.ID), r.replyTTL)
	if _, err := pipe.Exec(wctx); err != nil {
		r.logger.Error("Failed to push reply", "id", req.ID, "err", err)
	}
}

func (r *Responder) unregister(ctx context.Context) {
	r.mu.RLock()
	targets := make([]any, 0, len(r.handlers))
	for target := range r.handlers {
		targets = append(targets, target)
	}
	r.mu.RUnlock()

	pipe := r.client.Pipeline()
	if len(targets) > 0 {
		pipe.SRem(ctx, r.keys.handlers(), targets...)
	}
	pipe.Del(ctx, r.keys.wake(r.id))
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Warn("Failed to unregister handlers", "err", err)
	}
}
