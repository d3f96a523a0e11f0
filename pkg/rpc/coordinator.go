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
	"github.com/kamelat/Netopeer2/pkg/schema"
	"github.com/kamelat/Netopeer2/pkg/session"
	"github.com/kamelat/Netopeer2/pkg/tree"
)

// Coordinator drives generic operation and action calls to the backend.
//
// A call moves through domain.CallState from StateInit to StateDone, or to
// StateFailed from any step. Whatever the exit, the request batch and any
// tree built along the way are released before Handle returns, except the
// reply tree handed to the caller.
//
// The Coordinator holds no per-call state and may be shared. The session
// passed to Handle must not be used concurrently; see session.Manager.
type Coordinator struct {
	hooks        domain.LifecycleHooks
	logger       *slog.Logger
	withDefaults domain.WithDefaultsMode
	invoker      *Invoker
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Coordinator) {
		c.hooks = hooks
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// WithDefaultsMode sets the with-defaults mode attached to data replies.
func WithDefaultsMode(mode domain.WithDefaultsMode) Option {
	return func(c *Coordinator) {
		c.withDefaults = mode
	}
}

// NewCoordinator creates a coordinator. Data replies default to
// domain.WithDefaultsExplicit.
func NewCoordinator(opts ...Option) *Coordinator {
	c := &Coordinator{
		logger:       logging.NewNop(),
		withDefaults: domain.WithDefaultsExplicit,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.invoker = NewInvoker(c.hooks, c.logger)
	return c
}

// Handle runs the call carried by op on behalf of sess. op is either an
// operation tree or a data tree enclosing exactly one action; it is not
// modified.
//
// The reply never carries a tree together with an error.
func (c *Coordinator) Handle(ctx context.Context, sess *session.Session, op *tree.Tree) *Reply {
	cl := &call{c: c, sess: sess, state: domain.StateInit}
	return cl.run(ctx, op)
}

// call is the state of one Handle invocation.
type call struct {
	c     *Coordinator
	sess  *session.Session
	state domain.CallState
	shape domain.Shape
	path  string
}

func (cl *call) run(ctx context.Context, op *tree.Tree) *Reply {
	var (
		dup    *tree.Tree
		input  *record.Batch
		output *record.Batch
	)
	// Release whatever is still held on every exit. Ownership moves out of
	// these variables by setting them to nil.
	defer func() {
		input.Release()
		output.Release()
		if dup != nil {
			dup.Free()
		}
	}()

	if op == nil || !op.Valid(op.Root()) {
		return cl.fail(ctx, fmt.Errorf("%w: empty request tree", domain.ErrResource))
	}

	// shape
	base, target := op, op.Root()
	if op.Schema(target).Kind != schema.KindOperation {
		dup = op.Dup()
		target = dup.FindKind(schema.KindAction)
		if target == tree.NoNode {
			return cl.fail(ctx, domain.ErrNoAction)
		}
		base, cl.shape = dup, domain.ShapeAction
	}
	cl.path = base.Path(target)
	cl.transition(ctx, domain.StateShapeDetected, nil)

	if err := cl.sess.SwitchDatastore(ctx, domain.DatastoreRunning); err != nil {
		return cl.fail(ctx, err)
	}
	cl.transition(ctx, domain.StateDatastoreSelected, nil)

	input, err := Flatten(base, target)
	if err != nil {
		return cl.fail(ctx, err)
	}
	cl.transition(ctx, domain.StateFlattened, nil)

	in := input
	input = nil // released by Invoke
	output, err = cl.c.invoker.Invoke(ctx, cl.sess, cl.shape, cl.path, in)
	if err != nil {
		return cl.fail(ctx, err)
	}
	cl.transition(ctx, domain.StateInvoked, nil)

	if output.Len() == 0 {
		cl.transition(ctx, domain.StateDone, nil)
		return &Reply{Kind: ReplyOK}
	}

	reply, err := Assemble(cl.shape, base, target, output)
	if err != nil {
		return cl.fail(ctx, err)
	}
	if reply == dup {
		dup = nil
	}
	cl.transition(ctx, domain.StateAssembled, nil)

	cl.transition(ctx, domain.StateDone, nil)
	return &Reply{Kind: ReplyData, Data: reply, WithDefaults: cl.c.withDefaults}
}

func (cl *call) transition(ctx context.Context, to domain.CallState, err error) {
	tr := domain.Transition{From: cl.state, To: to}
	if !tr.Valid() {
		// a coordinator bug, never a caller error
		cl.c.logger.Error("Invalid call state transition", "from", tr.From, "to", tr.To)
	}
	cl.state = to
	cl.c.logger.Debug("Call state changed", "op", cl.path, "from", tr.From, "to", tr.To)
	if cl.c.hooks.OnTransition != nil {
		cl.c.hooks.OnTransition(ctx, &domain.TransitionEvent{
			EventBase:  domain.EventBase{Timestamp: time.Now(), Type: domain.EventTransition, SessionID: cl.sess.ID},
			Transition: tr,
			Shape:      cl.shape,
			Path:       cl.path,
			Err:        err,
		})
	}
}

// fail moves the call to StateFailed and maps err to its rpc-error.
func (cl *call) fail(ctx context.Context, err error) *Reply {
	at := cl.state
	cl.transition(ctx, domain.StateFailed, err)

	var be *domain.BackendError
	switch {
	case errors.Is(err, domain.ErrNotSupported):
		cl.c.logger.Debug("Operation not supported by the backend", "op", cl.path)
		return &Reply{Kind: ReplyError, Err: &RPCError{
			Type: ErrorTypeProtocol,
			Tag:  TagOperationNotSupported,
		}}
	case errors.As(err, &be):
		cl.c.logger.Error("Sending an RPC/action to the backend failed", "op", cl.path, "code", be.Code, "err", err)
		msg := be.Message
		if msg == "" {
			msg = be.Code.String()
		}
		return &Reply{Kind: ReplyError, Err: &RPCError{
			Type:    ErrorTypeApplication,
			Tag:     TagOperationFailed,
			AppTag:  be.Code.String(),
			Message: msg,
			Path:    be.Path,
		}}
	default:
		cl.c.logger.Error("Generic call failed", "op", cl.path, "state", at, "err", err)
		return &Reply{Kind: ReplyError, Err: &RPCError{
			Type:    ErrorTypeApplication,
			Tag:     TagOperationFailed,
			Message: err.Error(),
		}}
	}
}
