// Package resolve maps storage URIs to blob stores.
//
// Supported forms:
//
//	s3://bucket/prefix     Amazon S3, default AWS configuration chain
//	minio://bucket/prefix  MinIO, configured from MINIO_* variables
//	file:///dir            local directory
//	dir                    local directory
package resolve

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/hupe1980/aaclust/blobstore"
	"github.com/hupe1980/aaclust/blobstore/minio"
	"github.com/hupe1980/aaclust/blobstore/s3"
)

// Location is a parsed storage URI.
type Location struct {
	Scheme string
	Bucket string
	Prefix string
}

// Parse splits uri into scheme, bucket and prefix. Plain paths have scheme
// "file" and the path as prefix.
func Parse(uri string) (Location, error) {
	scheme, rest, ok := strings.Cut(uri, "://")
	if !ok {
		return Location{Scheme: "file", Prefix: uri}, nil
	}
	switch scheme {
	case "file":
		return Location{Scheme: scheme, Prefix: rest}, nil
	case "s3", "minio":
		u, err := url.Parse(uri)
		if err != nil {
			return Location{}, err
		}
		if u.Host == "" {
			return Location{}, fmt.Errorf("resolve: %q has no bucket", uri)
		}
		return Location{Scheme: scheme, Bucket: u.Host, Prefix: strings.Trim(u.Path, "/")}, nil
	}
	return Location{}, fmt.Errorf("resolve: unsupported scheme %q", scheme)
}

// Store opens the store rooted at uri.
func Store(ctx context.Context, uri string) (blobstore.Store, error) {
	loc, err := Parse(uri)
	if err != nil {
		return nil, err
	}
	return open(ctx, loc)
}

// File resolves a blob URI to the store of its parent and the blob name.
func File(ctx context.Context, uri string) (blobstore.Store, string, error) {
	loc, err := Parse(uri)
	if err != nil {
		return nil, "", err
	}
	var name string
	if loc.Scheme == "file" {
		dir, base := filepath.Split(loc.Prefix)
		if dir == "" {
			dir = "."
		}
		loc.Prefix, name = dir, base
	} else {
		loc.Prefix, name = path.Split(loc.Prefix)
	}
	if name == "" {
		return nil, "", fmt.Errorf("resolve: %q names no file", uri)
	}
	store, err := open(ctx, loc)
	if err != nil {
		return nil, "", err
	}
	return store, name, nil
}

func open(ctx context.Context, loc Location) (blobstore.Store, error) {
	switch loc.Scheme {
	case "s3":
		return s3.New(ctx, loc.Bucket, loc.Prefix)
	case "minio":
		return minio.NewFromEnv(loc.Bucket, loc.Prefix)
	default:
		return blobstore.NewLocalStore(loc.Prefix), nil
	}
}
