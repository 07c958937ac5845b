package ports

import (
	"context"
	"testing"
	"time"

	"github.com/esantoro/gaphor/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSnapshotStoreContract runs a suite of tests to verify that a SnapshotStore
// implementation adheres to the defined interface contract.
func RunSnapshotStoreContract(t *testing.T, store SnapshotStore) {
	ctx := context.Background()
	key := "contract-test-" + time.Now().Format("20060102150405")

	sample := func() *domain.Snapshot {
		return &domain.Snapshot{
			TakenAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
			Elements: []domain.ElementRecord{
				{
					ID:         "a",
					Kind:       "Class",
					Attributes: map[string]string{"name": "Customer"},
					Collections: map[string][]string{
						"ownedAttribute": {"b"},
					},
				},
				{ID: "b", Kind: "Property", Attributes: map[string]string{"name": "id"}},
			},
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		snap := sample()
		require.NoError(t, store.Save(ctx, key, snap), "Save should not return error")

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err, "Load should not return error")
		require.Len(t, loaded.Elements, 2)
		assert.Equal(t, "Customer", loaded.Elements[0].Attributes["name"])
		assert.Equal(t, []string{"b"}, loaded.Elements[0].Collections["ownedAttribute"])
		assert.True(t, snap.TakenAt.Equal(loaded.TakenAt))
	})

	t.Run("Stored copy is isolated", func(t *testing.T) {
		snap := sample()
		require.NoError(t, store.Save(ctx, key, snap))
		snap.Elements[0].Attributes["name"] = "mutated"

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "Customer", loaded.Elements[0].Attributes["name"])
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+key)
		assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, key, sample()))

		require.NoError(t, store.Delete(ctx, key), "Delete should not return error")

		_, err := store.Load(ctx, key)
		assert.ErrorIs(t, err, domain.ErrSnapshotNotFound, "Load after Delete should return ErrSnapshotNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := key + "-1"
		id2 := key + "-2"
		require.NoError(t, store.Save(ctx, id1, sample()))
		require.NoError(t, store.Save(ctx, id2, sample()))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		keys, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, keys, id1)
		assert.Contains(t, keys, id2)
	})
}
