package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/esantoro/gaphor/pkg/adapters/memory"
	"github.com/esantoro/gaphor/pkg/domain"
	"github.com/esantoro/gaphor/pkg/persistence/middleware"
	"github.com/esantoro/gaphor/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func secret() *domain.Snapshot {
	return &domain.Snapshot{
		TakenAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Elements: []domain.ElementRecord{
			{ID: "c1", Kind: "Class", Attributes: map[string]string{"name": "my-secret-sauce"}},
		},
	}
}

func encrypted(t *testing.T, next ports.SnapshotStore, cfg middleware.EncryptionConfig) ports.SnapshotStore {
	t.Helper()
	mw, err := middleware.NewEncryptionMiddleware(cfg)
	require.NoError(t, err)
	return middleware.Chain(next, mw)
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := memory.NewStore()
	store := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "doc", secret()))

	raw, err := underlying.Load(ctx, "doc")
	require.NoError(t, err)
	require.Len(t, raw.Elements, 1)
	assert.Equal(t, "__encrypted__", raw.Elements[0].ID)
	for _, v := range raw.Elements[0].Attributes {
		assert.False(t, strings.Contains(v, "my-secret-sauce"), "plain text leaked")
	}

	loaded, err := store.Load(ctx, "doc")
	require.NoError(t, err)
	assert.Equal(t, secret(), loaded)
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	ports.RunSnapshotStoreContract(t, encrypted(t, memory.NewStore(), middleware.EncryptionConfig{ActiveKey: generateKey(t)}))
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := memory.NewStore()
	oldKey, newKey := generateKey(t), generateKey(t)
	ctx := context.Background()

	require.NoError(t, encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: oldKey}).Save(ctx, "doc", secret()))

	_, err := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: newKey}).Load(ctx, "doc")
	assert.Error(t, err, "new key alone cannot read old data")

	rotated := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: newKey, FallbackKeys: [][]byte{oldKey}})
	loaded, err := rotated.Load(ctx, "doc")
	require.NoError(t, err)
	assert.Equal(t, "my-secret-sauce", loaded.Elements[0].Attributes["name"])
}

func TestEncryptionMiddleware_RejectsPlainSnapshot(t *testing.T) {
	underlying := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, underlying.Save(ctx, "doc", secret()))

	_, err := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)}).Load(ctx, "doc")
	assert.ErrorContains(t, err, "envelope")
}

func TestEncryptionMiddleware_NotFoundPassesThrough(t *testing.T) {
	store := encrypted(t, memory.NewStore(), middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	_, err := store.Load(context.Background(), "absent")
	assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
}

func TestNewEncryptionMiddleware_InvalidKey(t *testing.T) {
	_, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short")})
	assert.ErrorIs(t, err, middleware.ErrInvalidKey)

	_, err = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    generateKey(t),
		FallbackKeys: [][]byte{[]byte("short")},
	})
	assert.ErrorIs(t, err, middleware.ErrInvalidKey)
}
