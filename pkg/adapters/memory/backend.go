package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/kamelat/Netopeer2/pkg/domain"
	"github.com/kamelat/Netopeer2/pkg/ports"
	"github.com/kamelat/Netopeer2/pkg/record"
	"github.com/kamelat/Netopeer2/pkg/schema"
)

// Backend implements ports.Backend and ports.Registry in process.
// Handlers are looked up by the schema path of the call target.
// Safe for concurrent use.
type Backend struct {
	mu         sync.RWMutex
	handlers   map[string]ports.Handler
	datastores map[string]domain.Datastore
}

// NewBackend creates an empty in-memory backend.
func NewBackend() *Backend {
	return &Backend{
		handlers:   make(map[string]ports.Handler),
		datastores: make(map[string]domain.Datastore),
	}
}

// Register subscribes h to calls targeting path. A later registration replaces an earlier one.
func (b *Backend) Register(ctx context.Context, path string, h ports.Handler) error {
	if h == nil {
		return fmt.Errorf("nil handler for %s", path)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[schema.StripPredicates(path)] = h
	return nil
}

// SwitchDatastore records the datastore selected by session.
func (b *Backend) SwitchDatastore(ctx context.Context, session string, ds domain.Datastore) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.datastores[session] = ds
	return nil
}

// Datastore returns the datastore selected by session; sessions start on running.
func (b *Backend) Datastore(session string) domain.Datastore {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if ds, ok := b.datastores[session]; ok {
		return ds
	}
	return domain.DatastoreRunning
}

// SendRPC invokes the handler registered for the operation at path.
func (b *Backend) SendRPC(ctx context.Context, session, path string, input []record.Record) ([]record.Record, error) {
	return b.call(ctx, session, path, false, input)
}

// SendAction invokes the handler registered for the action at path.
func (b *Backend) SendAction(ctx context.Context, session, path string, input []record.Record) ([]record.Record, error) {
	return b.call(ctx, session, path, true, input)
}

func (b *Backend) call(ctx context.Context, session, path string, action bool, input []record.Record) ([]record.Record, error) {
	b.mu.RLock()
	h, ok := b.handlers[schema.StripPredicates(path)]
	b.mu.RUnlock()
	if !ok {
		return nil, &domain.BackendError{
			Code:    domain.StatusNotFound,
			Message: "no subscriber for " + path,
			Path:    path,
		}
	}

	req := ports.Request{
		ID:        uuid.NewString(),
		Session:   session,
		Path:      path,
		Action:    action,
		Datastore: b.Datastore(session),
		Input:     slices.Clone(input),
	}
	out, err := h(ctx, req)
	if err != nil {
		return nil, domain.AsBackendError(err)
	}
	return slices.Clone(out), nil
}
