package minio

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/aaclust/blobstore"
)

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(minio.ErrorResponse{Code: "NoSuchKey"}))
	assert.True(t, isNotFound(minio.ErrorResponse{Code: "NotFound"}))
	assert.False(t, isNotFound(minio.ErrorResponse{Code: "AccessDenied"}))
	assert.False(t, isNotFound(errors.New("boom")))
}

func TestKey(t *testing.T) {
	assert.Equal(t, "a/b/x", NewStore(nil, "bkt", "/a/b/").key("x"))
	assert.Equal(t, "x", NewStore(nil, "bkt", "").key("x"))
}

func TestNewFromEnvRequiresEndpoint(t *testing.T) {
	t.Setenv("MINIO_ENDPOINT", "")
	_, err := NewFromEnv("bkt", "")
	assert.ErrorIs(t, err, ErrNoEndpoint)
}

// TestStore_Integration requires a running MinIO instance at MINIO_ENDPOINT.
func TestStore_Integration(t *testing.T) {
	if os.Getenv("MINIO_ENDPOINT") == "" {
		t.Skip("MINIO_ENDPOINT not set")
	}
	const bucket = "test-aaclust"

	store, err := NewFromEnv(bucket, "it/")
	require.NoError(t, err)

	ctx := context.Background()
	if _, err := store.client.ListBuckets(ctx); err != nil {
		t.Skipf("MinIO not available: %v", err)
	}
	exists, err := store.client.BucketExists(ctx, bucket)
	require.NoError(t, err)
	if !exists {
		require.NoError(t, store.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}))
	}

	require.NoError(t, store.Put(ctx, "protos.fa", []byte(">proto_0|size=1\nACD\n")))

	data, err := blobstore.ReadAll(ctx, store, "protos.fa")
	require.NoError(t, err)
	assert.Equal(t, ">proto_0|size=1\nACD\n", string(data))

	w, err := store.Create(ctx, "sigs.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte("q 1 2\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Subset(t, names, []string{"protos.fa", "sigs.txt"})

	require.NoError(t, store.Delete(ctx, "protos.fa"))
	ok, err := store.Exists(ctx, "protos.fa")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = store.Open(ctx, "protos.fa")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}
