package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/esantoro/gaphor"
	"github.com/esantoro/gaphor/pkg/adapters/memory"
	redisadapter "github.com/esantoro/gaphor/pkg/adapters/redis"
	"github.com/esantoro/gaphor/pkg/model"
	"github.com/esantoro/gaphor/pkg/session"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func opener(store *memory.Store) session.Opener {
	return func(ctx context.Context, id string) (*gaphor.Application, error) {
		return gaphor.New(gaphor.WithID(id), gaphor.WithStore(store, true, true)), nil
	}
}

func TestManager_OpensLazilyAndReuses(t *testing.T) {
	opened := 0
	mgr := session.NewManager(func(ctx context.Context, id string) (*gaphor.Application, error) {
		opened++
		return gaphor.New(gaphor.WithID(id)), nil
	})
	ctx := context.Background()

	var first, second *gaphor.Application
	require.NoError(t, mgr.WithDocument(ctx, "a", func(_ context.Context, app *gaphor.Application) error {
		first = app
		return nil
	}))
	require.NoError(t, mgr.WithDocument(ctx, "a", func(_ context.Context, app *gaphor.Application) error {
		second = app
		return nil
	}))

	assert.Same(t, first, second)
	assert.Equal(t, 1, opened)
	assert.Equal(t, []string{"a"}, mgr.List())
}

func TestManager_CloseHook(t *testing.T) {
	var closed []string
	mgr := session.NewManager(opener(memory.NewStore()), session.WithCloseHook(func(id string) {
		closed = append(closed, id)
	}))
	ctx := context.Background()

	for _, id := range []string{"b", "a"} {
		require.NoError(t, mgr.WithDocument(ctx, id, func(context.Context, *gaphor.Application) error { return nil }))
	}
	require.NoError(t, mgr.Close(ctx, "missing"))
	require.NoError(t, mgr.Shutdown(ctx))
	assert.Equal(t, []string{"a", "b"}, closed)
}

func TestManager_InvalidID(t *testing.T) {
	mgr := session.NewManager(nil)
	err := mgr.WithDocument(context.Background(), "", func(context.Context, *gaphor.Application) error { return nil })
	assert.ErrorIs(t, err, session.ErrInvalidDocumentID)
}

func TestManager_OpenError(t *testing.T) {
	boom := errors.New("boom")
	mgr := session.NewManager(func(ctx context.Context, id string) (*gaphor.Application, error) {
		return nil, boom
	})
	err := mgr.WithDocument(context.Background(), "a", func(context.Context, *gaphor.Application) error { return nil })
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, mgr.List())
}

func TestManager_Locking(t *testing.T) {
	mgr := session.NewManager(func(ctx context.Context, id string) (*gaphor.Application, error) {
		return gaphor.New(gaphor.WithID(id)), nil
	})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := mgr.WithDocument(ctx, "race", func(_ context.Context, app *gaphor.Application) error {
				return app.Do(func(f *model.Factory) error {
					_, err := f.Create("Class")
					time.Sleep(time.Millisecond)
					return err
				})
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	require.NoError(t, mgr.WithDocument(ctx, "race", func(_ context.Context, app *gaphor.Application) error {
		assert.Equal(t, 20, app.Factory.Size())
		assert.Equal(t, 20, app.Manager.UndoDepth())
		return nil
	}))
}

func TestManager_CloseBacksUpAndReopenRestores(t *testing.T) {
	store := memory.NewStore()
	mgr := session.NewManager(opener(store))
	ctx := context.Background()

	require.NoError(t, mgr.WithDocument(ctx, "doc", func(_ context.Context, app *gaphor.Application) error {
		return app.Do(func(f *model.Factory) error {
			_, err := f.Create("Class")
			return err
		})
	}))
	require.NoError(t, mgr.Shutdown(ctx))
	assert.Empty(t, mgr.List())

	keys, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"doc"}, keys)

	require.NoError(t, mgr.WithDocument(ctx, "doc", func(_ context.Context, app *gaphor.Application) error {
		assert.Equal(t, 1, app.Factory.Size())
		assert.False(t, app.Manager.CanUndo(), "restored document starts with a fresh history")
		return nil
	}))
}

func TestManager_DistributedLock(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	locker := redisadapter.NewLocker(client, "")
	mgr := session.NewManager(opener(memory.NewStore()),
		session.WithLocker(locker),
		session.WithLockTTL(5*time.Second),
	)
	ctx := context.Background()

	require.NoError(t, mgr.WithDocument(ctx, "doc", func(_ context.Context, app *gaphor.Application) error {
		assert.NotEmpty(t, mr.Keys(), "lock held while the command runs")
		return nil
	}))
	assert.Empty(t, mr.Keys(), "lock released afterwards")
}
