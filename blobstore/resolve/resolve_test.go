package resolve

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/aaclust/blobstore"
)

func TestParse(t *testing.T) {
	tests := []struct {
		uri  string
		want Location
	}{
		{"s3://bkt/runs/a/", Location{Scheme: "s3", Bucket: "bkt", Prefix: "runs/a"}},
		{"s3://bkt", Location{Scheme: "s3", Bucket: "bkt"}},
		{"minio://codebooks/pfam", Location{Scheme: "minio", Bucket: "codebooks", Prefix: "pfam"}},
		{"file:///tmp/out", Location{Scheme: "file", Prefix: "/tmp/out"}},
		{"out/dir", Location{Scheme: "file", Prefix: "out/dir"}},
	}
	for _, tc := range tests {
		got, err := Parse(tc.uri)
		require.NoError(t, err, tc.uri)
		assert.Equal(t, tc.want, got, tc.uri)
	}

	_, err := Parse("gs://bkt/x")
	assert.Error(t, err)
	_, err = Parse("s3:///x")
	assert.Error(t, err)
}

func TestFileLocal(t *testing.T) {
	dir := t.TempDir()
	store, name, err := File(context.Background(), filepath.Join(dir, "protos.fa"))
	require.NoError(t, err)
	assert.Equal(t, "protos.fa", name)

	require.NoError(t, store.Put(context.Background(), name, []byte("x")))
	data, err := blobstore.ReadAll(context.Background(), blobstore.NewLocalStore(dir), "protos.fa")
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))

	store, name, err = File(context.Background(), "sigs.txt")
	require.NoError(t, err)
	assert.Equal(t, "sigs.txt", name)
	assert.Equal(t, ".", store.(*blobstore.LocalStore).Root())

	_, _, err = File(context.Background(), dir+"/")
	assert.Error(t, err)
}

func TestStoreMinioRequiresEnv(t *testing.T) {
	t.Setenv("MINIO_ENDPOINT", "")
	_, err := Store(context.Background(), "minio://bkt/prefix")
	assert.Error(t, err)
}
