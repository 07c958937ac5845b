package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/esantoro/gaphor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(func(ctx context.Context, id string) (*gaphor.Application, error) {
		return gaphor.New(gaphor.WithID(id)), nil
	})
	ctx := context.Background()
	count := 1000

	for i := 0; i < count; i++ {
		id := fmt.Sprintf("doc-%d", i)
		require.NoError(t, mgr.WithDocument(ctx, id, func(context.Context, *gaphor.Application) error { return nil }))
		require.NoError(t, mgr.Close(ctx, id))
	}

	assert.Empty(t, mgr.locks, "locks leaked after Close")
	assert.Empty(t, mgr.docs)
}
