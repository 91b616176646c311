package blobstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Open(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	ok, err := store.Exists(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	w, err := store.Create(ctx, "run/clusters.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte("Cluster,1,ACD\n"))
	require.NoError(t, err)
	_, err = w.Write([]byte("s:0\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	require.NoError(t, store.Put(ctx, "run/protos.fa", []byte(">proto_0|size=1\nACD\n")))
	require.NoError(t, store.Put(ctx, "other", nil))

	data, err := ReadAll(ctx, store, "run/clusters.txt")
	require.NoError(t, err)
	assert.Equal(t, "Cluster,1,ACD\ns:0\n", string(data))

	data, err = ReadAll(ctx, store, "other")
	require.NoError(t, err)
	assert.Empty(t, data)

	names, err := store.List(ctx, "run/")
	require.NoError(t, err)
	assert.Equal(t, []string{"run/clusters.txt", "run/protos.fa"}, names)

	n, err := Copy(ctx, store, "copy.fa", store, "run/protos.fa")
	require.NoError(t, err)
	assert.Equal(t, int64(20), n)

	require.NoError(t, store.Delete(ctx, "run/protos.fa"))
	require.NoError(t, store.Delete(ctx, "run/protos.fa"))
	ok, err = store.Exists(ctx, "run/protos.fa")
	require.NoError(t, err)
	assert.False(t, ok)

	all, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"copy.fa", "other", "run/clusters.txt"}, all)
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemoryStore())
}

func TestLocalStore(t *testing.T) {
	dir := t.TempDir()
	testStore(t, NewLocalStore(dir))

	_, err := os.Stat(filepath.Join(dir, "run", "clusters.txt"))
	require.NoError(t, err)
}

func TestLocalStoreMissingRoot(t *testing.T) {
	store := NewLocalStore(filepath.Join(t.TempDir(), "nope"))
	names, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestLocalStoreCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := NewLocalStore(t.TempDir())
	_, err := store.Create(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
	_, err = store.Open(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryStorePutCopies(t *testing.T) {
	store := NewMemoryStore()
	buf := []byte("abc")
	require.NoError(t, store.Put(context.Background(), "x", buf))
	buf[0] = 'z'

	data, err := ReadAll(context.Background(), store, "x")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(data))
}

func TestMemoryStoreWriterClose(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	w, err := store.Create(ctx, "sig.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte("q 1 2\n"))
	require.NoError(t, err)

	ok, err := store.Exists(ctx, "sig.txt")
	require.NoError(t, err)
	assert.False(t, ok, "blob is visible before Close")

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	_, err = w.Write([]byte("more"))
	assert.Error(t, err)

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	_, err = store.Open(cctx, "sig.txt")
	assert.ErrorIs(t, err, context.Canceled)
}
