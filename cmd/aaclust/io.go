package main

import (
	"context"

	"github.com/hupe1980/aaclust"
	"github.com/hupe1980/aaclust/blobstore/resolve"
	"github.com/hupe1980/aaclust/cluster"
	"github.com/hupe1980/aaclust/config"
	"github.com/hupe1980/aaclust/fasta"
	"github.com/hupe1980/aaclust/format"
	"github.com/hupe1980/aaclust/signature"
)

// required reports the first empty flag value as a configuration error.
func required(flags ...[2]string) error {
	for _, f := range flags {
		if f[1] == "" {
			return &aaclust.ErrConfig{Field: f[0], Reason: "required"}
		}
	}
	return nil
}

func readSequences(ctx context.Context, uri string, cfg config.Sequences) ([]*fasta.Record, error) {
	store, name, err := resolve.File(ctx, uri)
	if err != nil {
		return nil, err
	}
	return aaclust.ReadSequences(ctx, store, name, cfg)
}

// readPrototypes reads every file and merges prototypes sharing a text.
func readPrototypes(ctx context.Context, p *aaclust.Pipeline, uris []string) ([]cluster.Prototype, error) {
	lists := make([][]cluster.Prototype, 0, len(uris))
	for _, uri := range uris {
		store, name, err := resolve.File(ctx, uri)
		if err != nil {
			return nil, err
		}
		protos, err := p.ReadPrototypes(ctx, store, name)
		if err != nil {
			return nil, err
		}
		lists = append(lists, protos)
	}
	return cluster.MergePrototypes(lists...), nil
}

func readSignatures(ctx context.Context, uri string) ([]*signature.Signature, error) {
	store, name, err := resolve.File(ctx, uri)
	if err != nil {
		return nil, err
	}
	return aaclust.ReadSignatures(ctx, store, name)
}

func readClusters(ctx context.Context, uri string) ([]format.ClusterRecord, error) {
	store, name, err := resolve.File(ctx, uri)
	if err != nil {
		return nil, err
	}
	return aaclust.ReadClusters(ctx, store, name)
}

func writeCodebook(ctx context.Context, cb *aaclust.Codebook, clustersOut, protosOut string) error {
	if clustersOut != "" {
		store, name, err := resolve.File(ctx, clustersOut)
		if err != nil {
			return err
		}
		if err := aaclust.WriteCodebook(ctx, store, name, "", cb); err != nil {
			return err
		}
	}
	if protosOut != "" {
		store, name, err := resolve.File(ctx, protosOut)
		if err != nil {
			return err
		}
		return aaclust.WriteCodebook(ctx, store, "", name, cb)
	}
	return nil
}

func writeSelection(ctx context.Context, sel *aaclust.Selection, clustersOut, protosOut string) error {
	if clustersOut != "" {
		store, name, err := resolve.File(ctx, clustersOut)
		if err != nil {
			return err
		}
		if err := aaclust.WriteSelection(ctx, store, name, "", sel); err != nil {
			return err
		}
	}
	if protosOut != "" {
		store, name, err := resolve.File(ctx, protosOut)
		if err != nil {
			return err
		}
		return aaclust.WriteSelection(ctx, store, "", name, sel)
	}
	return nil
}
