package ports

import (
	"context"

	"github.com/kamelat/Netopeer2/pkg/domain"
	"github.com/kamelat/Netopeer2/pkg/record"
)

// Backend is the flat key/value datastore that executes operations and actions.
//
// Failures reported by the backend after it accepted a call are returned as
// *domain.BackendError. Any other error is a transport failure.
//
// Input records are only valid until SendRPC or SendAction returns: the slice
// belongs to a pooled batch that is cleared afterwards. Implementations must
// copy any input record they keep.
type Backend interface {
	// SwitchDatastore selects the datastore the following calls of session operate on.
	SwitchDatastore(ctx context.Context, session string, ds domain.Datastore) error

	// SendRPC invokes the operation at path with the flattened input records.
	// The returned records are owned by the caller.
	SendRPC(ctx context.Context, session, path string, input []record.Record) ([]record.Record, error)

	// SendAction invokes the action at path, which addresses a node inside a data instance.
	SendAction(ctx context.Context, session, path string, input []record.Record) ([]record.Record, error)
}

// Request is what a Handler receives for one call.
type Request struct {
	ID        string           `json:"id"`
	Session   string           `json:"session"`
	Path      string           `json:"path"`
	Action    bool             `json:"action,omitempty"`
	Datastore domain.Datastore `json:"datastore"`
	Input     []record.Record  `json:"input,omitempty"`
}

// Handler implements an operation or action on the backend side.
// Returning a *domain.BackendError reports its code; any other error is
// reported as domain.StatusOperationFailed.
type Handler func(ctx context.Context, req Request) ([]record.Record, error)

// Registry is implemented by backends that accept handler subscriptions.
type Registry interface {
	// Register subscribes h to calls targeting the schema path of an operation or action.
	// Predicates in incoming call paths are ignored when matching.
	Register(ctx context.Context, path string, h Handler) error
}
