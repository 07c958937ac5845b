package ports

import (
	"context"

	"github.com/esantoro/gaphor/pkg/domain"
)

// SnapshotStore defines the interface for persisting model snapshots.
// It is used by the backup service; undo history is never stored.
type SnapshotStore interface {
	// Save persists the snapshot under key, replacing any previous one.
	Save(ctx context.Context, key string, snapshot *domain.Snapshot) error

	// Load retrieves the snapshot stored under key.
	// Returns domain.ErrSnapshotNotFound if it does not exist.
	Load(ctx context.Context, key string) (*domain.Snapshot, error)

	// Delete removes the snapshot. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns the stored keys.
	List(ctx context.Context) ([]string, error)
}
