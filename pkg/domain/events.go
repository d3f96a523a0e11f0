package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventTransition    EventType = "transition"
	EventBackendCall   EventType = "backend_call"
	EventBackendReturn EventType = "backend_return"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// TransitionEvent reports a call moving between states.
type TransitionEvent struct {
	EventBase
	Transition
	Shape Shape  `json:"shape"`
	Path  string `json:"path,omitempty"` // empty until the shape is known
	Err   error  `json:"-"`              // set on transitions to StateFailed
}

// BackendEvent reports a round trip to the backend.
type BackendEvent struct {
	EventBase
	Shape    Shape         `json:"shape"`
	Path     string        `json:"path"`
	Records  int           `json:"records"`
	Duration time.Duration `json:"duration,omitempty"` // set on return
	Code     Status        `json:"code"`               // StatusOK unless the call failed
	IsError  bool          `json:"is_error,omitempty"`
}

// LifecycleHooks defines callbacks for call observability.
// Any of them may be nil.
type LifecycleHooks struct {
	OnTransition    func(context.Context, *TransitionEvent)
	OnBackendCall   func(context.Context, *BackendEvent)
	OnBackendReturn func(context.Context, *BackendEvent)
}

// ChainHooks returns hooks calling each of hooks in order.
func ChainHooks(hooks ...LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnTransition: func(ctx context.Context, e *TransitionEvent) {
			for _, h := range hooks {
				if h.OnTransition != nil {
					h.OnTransition(ctx, e)
				}
			}
		},
		OnBackendCall: func(ctx context.Context, e *BackendEvent) {
			for _, h := range hooks {
				if h.OnBackendCall != nil {
					h.OnBackendCall(ctx, e)
				}
			}
		},
		OnBackendReturn: func(ctx context.Context, e *BackendEvent) {
			for _, h := range hooks {
				if h.OnBackendReturn != nil {
					h.OnBackendReturn(ctx, e)
				}
			}
		},
	}
}
