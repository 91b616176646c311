package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/hupe1980/aaclust/blobstore"
)

// StoreCatalog keeps manifests and the CURRENT pointer in a blob store.
// It serializes publishes within one process only.
type StoreCatalog struct {
	store  blobstore.Store
	prefix string
	mu     sync.Mutex
}

// NewStoreCatalog returns a catalog under prefix in store.
func NewStoreCatalog(store blobstore.Store, prefix string) *StoreCatalog {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &StoreCatalog{store: store, prefix: prefix}
}

// Publish writes the manifest first and then moves CURRENT to it.
func (c *StoreCatalog) Publish(ctx context.Context, m Manifest) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, version, err := c.latest(ctx)
	if err != nil && !errors.Is(err, ErrNoManifest) {
		return 0, err
	}
	version++

	data, err := encode(m, version)
	if err != nil {
		return 0, err
	}
	name := manifestName(version, "")
	if err := c.store.Put(ctx, c.prefix+name, data); err != nil {
		return 0, fmt.Errorf("catalog: write manifest: %w", err)
	}
	if err := c.store.Put(ctx, c.prefix+CurrentFileName, []byte(name)); err != nil {
		return 0, fmt.Errorf("catalog: update %s: %w", CurrentFileName, err)
	}
	return version, nil
}

// Latest follows CURRENT.
func (c *StoreCatalog) Latest(ctx context.Context) (Manifest, uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latest(ctx)
}

func (c *StoreCatalog) latest(ctx context.Context) (Manifest, uint64, error) {
	current, err := blobstore.ReadAll(ctx, c.store, c.prefix+CurrentFileName)
	if errors.Is(err, blobstore.ErrNotFound) {
		return Manifest{}, 0, ErrNoManifest
	}
	if err != nil {
		return Manifest{}, 0, err
	}

	data, err := blobstore.ReadAll(ctx, c.store, c.prefix+strings.TrimSpace(string(current)))
	if err != nil {
		return Manifest{}, 0, err
	}
	m, err := decode(data)
	if err != nil {
		return Manifest{}, 0, err
	}
	return m, m.Version, nil
}

// Versions lists the published versions in ascending order.
func (c *StoreCatalog) Versions(ctx context.Context) ([]uint64, error) {
	names, err := c.store.List(ctx, c.prefix+ManifestFileName+"-")
	if err != nil {
		return nil, err
	}
	var out []uint64
	for _, n := range names {
		n = strings.TrimPrefix(n, c.prefix+ManifestFileName+"-")
		n = strings.TrimSuffix(n, ".json")
		if v, err := strconv.ParseUint(n, 10, 64); err == nil {
			out = append(out, v)
		}
	}
	return out, nil
}
