package rpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kamelat/Netopeer2/internal/logging"
	"github.com/kamelat/Netopeer2/pkg/domain"
	"github.com/kamelat/Netopeer2/pkg/record"
	"github.com/kamelat/Netopeer2/pkg/session"
)

// Invoker sends a flattened request through the session's backend handle and
// classifies the outcome.
type Invoker struct {
	hooks  domain.LifecycleHooks
	logger *slog.Logger
}

// NewInvoker creates an invoker. Hooks with nil callbacks are fine.
func NewInvoker(hooks domain.LifecycleHooks, logger *slog.Logger) *Invoker {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Invoker{hooks: hooks, logger: logger}
}

// Invoke blocks on one backend round trip for the call at path and returns the
// output records. input is released before Invoke returns, whatever the outcome.
//
// A backend without an implementation for path yields domain.ErrNotSupported;
// any other failure reported by the backend is returned as a *domain.BackendError.
// Transport errors are wrapped and returned as is.
func (i *Invoker) Invoke(ctx context.Context, sess *session.Session, shape domain.Shape, path string, input *record.Batch) (*record.Batch, error) {
	defer input.Release()

	send := sess.Backend.SendRPC
	if shape == domain.ShapeAction {
		send = sess.Backend.SendAction
	}

	ev := &domain.BackendEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventBackendCall, SessionID: sess.ID},
		Shape:     shape,
		Path:      path,
		Records:   input.Len(),
	}
	if i.hooks.OnBackendCall != nil {
		i.hooks.OnBackendCall(ctx, ev)
	}

	var in []record.Record
	if input != nil {
		in = input.Records
	}
	out, err := send(ctx, sess.ID, path, in)

	ret := *ev
	ret.Type = domain.EventBackendReturn
	ret.Duration = time.Since(ev.Timestamp)
	ret.Records = len(out)
	if err != nil {
		ret.IsError = true
		ret.Code = domain.AsBackendError(err).Code
	}
	if i.hooks.OnBackendReturn != nil {
		i.hooks.OnBackendReturn(ctx, &ret)
	}

	if err != nil {
		var be *domain.BackendError
		if errors.As(err, &be) {
			if be.NotSupported() {
				return nil, fmt.Errorf("%w: %s", domain.ErrNotSupported, path)
			}
			return nil, be
		}
		return nil, fmt.Errorf("backend call %s: %w", path, err)
	}
	i.logger.Debug("Backend call returned", "op", path, "records", len(out), "duration", ret.Duration)
	return record.Of(out...), nil
}
