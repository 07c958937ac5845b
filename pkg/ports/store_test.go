package ports_test

import (
	"context"
	"testing"

	"github.com/esantoro/gaphor/pkg/domain"
	"github.com/esantoro/gaphor/pkg/ports"
	"github.com/esantoro/gaphor/pkg/undo"
)

// MockStore is an in-memory implementation of SnapshotStore for testing purposes.
type MockStore struct {
	data map[string]*domain.Snapshot
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string]*domain.Snapshot),
	}
}

func (m *MockStore) Save(ctx context.Context, key string, snapshot *domain.Snapshot) error {
	m.data[key] = snapshot.Clone()
	return nil
}

func (m *MockStore) Load(ctx context.Context, key string) (*domain.Snapshot, error) {
	snap, ok := m.data[key]
	if !ok {
		return nil, domain.ErrSnapshotNotFound
	}
	return snap.Clone(), nil
}

func (m *MockStore) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *MockStore) List(ctx context.Context) ([]string, error) {
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys, nil
}

func TestMockStore_Contract(t *testing.T) {
	ports.RunSnapshotStoreContract(t, NewMockStore())
}

var _ ports.TransactionManager = (*undo.Manager)(nil)
