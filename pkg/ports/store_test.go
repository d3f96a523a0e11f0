package ports_test

import (
	"context"
	"testing"

	"github.com/kamelat/Netopeer2/pkg/domain"
	"github.com/kamelat/Netopeer2/pkg/ports"
)

// MockStore is an in-memory implementation of SessionStore for testing purposes.
type MockStore struct {
	data map[string]domain.SessionState
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string]domain.SessionState),
	}
}

func (m *MockStore) Save(ctx context.Context, sessionID string, state *domain.SessionState) error {
	m.data[sessionID] = *state
	return nil
}

func (m *MockStore) Load(ctx context.Context, sessionID string) (*domain.SessionState, error) {
	state, ok := m.data[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return &state, nil
}

func (m *MockStore) Delete(ctx context.Context, sessionID string) error {
	delete(m.data, sessionID)
	return nil
}

func (m *MockStore) List(ctx context.Context) ([]string, error) {
	ids := make([]string, 0, len(m.data))
	for id := range m.data {
		ids = append(ids, id)
	}
	return ids, nil
}

func TestSessionStoreContract(t *testing.T) {
	ports.RunSessionStoreContract(t, NewMockStore())
}
