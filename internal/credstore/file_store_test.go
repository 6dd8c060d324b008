package credstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()

	path := filepath.Join(t.TempDir(), "vault.bin")
	store, err := NewFileStore(path, []byte("machine-secret"))
	require.NoError(t, err)
	return store
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestFileStore(t)

	require.NoError(t, store.Set(ctx, KeyAccessToken, "a"))
	require.NoError(t, store.Set(ctx, KeyUserID, "u1"))

	val, ok, err := store.Get(ctx, KeyAccessToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "a", val)

	val, ok, err = store.Get(ctx, KeyUserID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "u1", val)

	// keys never written stay absent
	_, ok, err = store.Get(ctx, KeyRefreshToken)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileStoreSetReplaces(t *testing.T) {
	ctx := context.Background()
	store := newTestFileStore(t)

	require.NoError(t, store.Set(ctx, KeyAccessToken, "a"))
	require.NoError(t, store.Set(ctx, KeyAccessToken, "a2"))

	val, ok, err := store.Get(ctx, KeyAccessToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "a2", val)
}

func TestFileStoreClearAllIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newTestFileStore(t)

	require.NoError(t, store.Set(ctx, KeyAccessToken, "a"))
	require.NoError(t, store.Set(ctx, KeyOrganizationID, "org_1"))

	require.NoError(t, store.ClearAll(ctx))
	require.NoError(t, store.ClearAll(ctx))

	for _, key := range Keys {
		_, ok, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, ok, "key %s should be absent after ClearAll", key)
	}
}

func TestFileStoreDeleteAbsentKey(t *testing.T) {
	ctx := context.Background()
	store := newTestFileStore(t)

	require.NoError(t, store.Delete(ctx, KeyIDToken))
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "vault.bin")

	store, err := NewFileStore(path, []byte("machine-secret"))
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, KeyRefreshToken, "r1"))

	reopened, err := NewFileStore(path, []byte("machine-secret"))
	require.NoError(t, err)

	val, ok, err := reopened.Get(ctx, KeyRefreshToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "r1", val)
}

func TestFileStoreCiphertextAtRest(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "vault.bin")

	store, err := NewFileStore(path, []byte("machine-secret"))
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, KeyAccessToken, "super-secret-token"))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "super-secret-token")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStoreWrongSecretFailsClosed(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "vault.bin")

	store, err := NewFileStore(path, []byte("machine-secret"))
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, KeyAccessToken, "a"))

	other, err := NewFileStore(path, []byte("different-secret"))
	require.NoError(t, err)

	_, _, err = other.Get(ctx, KeyAccessToken)
	assert.Error(t, err)
}
