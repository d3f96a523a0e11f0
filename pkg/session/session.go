package session

import (
	"context"
	"fmt"

	"github.com/kamelat/Netopeer2/pkg/domain"
	"github.com/kamelat/Netopeer2/pkg/ports"
)

// Session is the per-client context an operation runs in: its identity, the
// active datastore selector and the backend handle.
//
// A Session is not safe for concurrent use; Manager.Do serialises calls per session.
type Session struct {
	ID        string
	Datastore domain.Datastore
	Backend   ports.Backend
}

// New creates a session working on ds.
func New(id string, ds domain.Datastore, backend ports.Backend) *Session {
	return &Session{ID: id, Datastore: ds, Backend: backend}
}

// SwitchDatastore makes ds the active datastore. The backend is only told
// when the selector actually changes.
func (s *Session) SwitchDatastore(ctx context.Context, ds domain.Datastore) error {
	if s.Datastore == ds {
		return nil
	}
	if err := s.Backend.SwitchDatastore(ctx, s.ID, ds); err != nil {
		return fmt.Errorf("failed to switch session %s to %s: %w", s.ID, ds, err)
	}
	s.Datastore = ds
	return nil
}
