package aaclust

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/aaclust/blobstore"
	"github.com/hupe1980/aaclust/cluster"
	"github.com/hupe1980/aaclust/config"
	"github.com/hupe1980/aaclust/fasta"
	"github.com/hupe1980/aaclust/format"
	"github.com/hupe1980/aaclust/rank"
	"github.com/hupe1980/aaclust/signature"
)

// readBlob opens name in store, decompressing by extension.
func readBlob(ctx context.Context, store blobstore.Store, name string, fn func(io.Reader) error) error {
	rc, err := store.Open(ctx, name)
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	r, err := format.NewReader(rc, name)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	defer func() { _ = r.Close() }()

	if err := fn(r); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// writeBlob creates name in store, compressing by extension. A failed write
// removes the blob.
func writeBlob(ctx context.Context, store blobstore.Store, name string, fn func(io.Writer) error) error {
	wc, err := store.Create(ctx, name)
	if err != nil {
		return err
	}
	w, err := format.NewWriter(wc, name)
	if err != nil {
		_ = wc.Close()
		_ = store.Delete(ctx, name)
		return fmt.Errorf("%s: %w", name, err)
	}

	err = fn(w)
	err = errors.Join(err, w.Close(), wc.Close())
	if err != nil {
		_ = store.Delete(ctx, name)
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// ReadSequences reads the FASTA records of name. Gzip input is detected by
// content, zstd and lz4 by extension.
func ReadSequences(ctx context.Context, store blobstore.Store, name string, cfg config.Sequences) ([]*fasta.Record, error) {
	var recs []*fasta.Record
	err := readBlob(ctx, store, name, func(r io.Reader) error {
		var err error
		recs, err = fasta.Parse(ctx, r, fasta.WithIDIndex(cfg.IDIndex), fasta.WithClassIndex(cfg.ClassIndex))
		return err
	})
	return recs, err
}

// ReadPrototypes reads a prototype file and encodes it for the pipeline's
// distance table.
func (p *Pipeline) ReadPrototypes(ctx context.Context, store blobstore.Store, name string) ([]cluster.Prototype, error) {
	var protos []cluster.Prototype
	err := readBlob(ctx, store, name, func(r io.Reader) error {
		var err error
		protos, err = format.ReadPrototypes(ctx, r, p.table)
		return err
	})
	return protos, err
}

// ReadSignatures reads a signature file.
func ReadSignatures(ctx context.Context, store blobstore.Store, name string) ([]*signature.Signature, error) {
	var sigs []*signature.Signature
	err := readBlob(ctx, store, name, func(r io.Reader) error {
		var err error
		sigs, err = format.ReadSignatures(r)
		return err
	})
	return sigs, err
}

// ReadClusters reads a cluster file.
func ReadClusters(ctx context.Context, store blobstore.Store, name string) ([]format.ClusterRecord, error) {
	var recs []format.ClusterRecord
	err := readBlob(ctx, store, name, func(r io.Reader) error {
		var err error
		recs, err = format.ReadClusters(r)
		return err
	})
	return recs, err
}

// WriteCodebook writes the cluster file and the prototype file of cb.
// An empty name skips that file.
func WriteCodebook(ctx context.Context, store blobstore.Store, clustersName, protosName string, cb *Codebook) error {
	if clustersName != "" {
		err := writeBlob(ctx, store, clustersName, func(w io.Writer) error {
			return format.WriteClusters(w, cb.Index, cb.Clusters, cb.SequenceIDs)
		})
		if err != nil {
			return err
		}
	}
	if protosName != "" {
		return writeBlob(ctx, store, protosName, func(w io.Writer) error {
			return format.WritePrototypes(w, cb.Prototypes())
		})
	}
	return nil
}

// WriteSelection writes picked cluster records and their prototypes.
// An empty name skips that file.
func WriteSelection(ctx context.Context, store blobstore.Store, clustersName, protosName string, sel *Selection) error {
	if clustersName != "" {
		err := writeBlob(ctx, store, clustersName, func(w io.Writer) error {
			return format.WriteClusterRecords(w, sel.Clusters)
		})
		if err != nil {
			return err
		}
	}
	if protosName != "" {
		return writeBlob(ctx, store, protosName, func(w io.Writer) error {
			return format.WritePrototypes(w, sel.Prototypes)
		})
	}
	return nil
}

// WriteSignatures writes a signature file.
func WriteSignatures(ctx context.Context, store blobstore.Store, name string, sigs []*signature.Signature) error {
	return writeBlob(ctx, store, name, func(w io.Writer) error {
		return format.WriteSignatures(w, sigs)
	})
}

// RankTo ranks queries against db and writes the ranking file name.
func (p *Pipeline) RankTo(ctx context.Context, queries, db []*signature.Signature, store blobstore.Store, name string) error {
	return writeBlob(ctx, store, name, func(w io.Writer) error {
		rw := format.NewRankWriter(w)
		if err := p.Rank(ctx, queries, db, func(res rank.Result) error {
			return rw.Write(res)
		}); err != nil {
			return err
		}
		return rw.Flush()
	})
}
