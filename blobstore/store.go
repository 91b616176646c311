package blobstore

import (
	"context"
	"errors"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// Store is a flat namespace of immutable blobs.
type Store interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	// Create starts a streaming write. The blob becomes visible on Close.
	Create(ctx context.Context, name string) (io.WriteCloser, error)
	// Put writes a blob atomically.
	Put(ctx context.Context, name string, data []byte) error
	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error
	// List returns the sorted names starting with prefix.
	List(ctx context.Context, prefix string) ([]string, error)
	// Exists reports whether a blob exists.
	Exists(ctx context.Context, name string) (bool, error)
}

// ReadAll reads a whole blob.
func ReadAll(ctx context.Context, s Store, name string) ([]byte, error) {
	rc, err := s.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(rc)
	return data, errors.Join(err, rc.Close())
}

// Copy streams a blob from src to dst.
func Copy(ctx context.Context, dst Store, dstName string, src Store, srcName string) (int64, error) {
	rc, err := src.Open(ctx, srcName)
	if err != nil {
		return 0, err
	}
	defer func() { _ = rc.Close() }()

	wc, err := dst.Create(ctx, dstName)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(wc, rc)
	if err != nil {
		_ = wc.Close()
		return n, err
	}
	return n, wc.Close()
}
