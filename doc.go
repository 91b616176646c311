// Package aaclust builds k-mer codebooks from protein sequences and uses
// them to compare sequences by their cluster signatures.
//
// # Pipeline
//
// A codebook is built by clustering the distinct k-mers of a sequence set.
// Every k-mer joins the first cluster whose prototype lies within the
// distance threshold; unmatched k-mers seed new clusters in later passes:
//
//	cfg := config.Default()
//	cfg.Cluster.K, cfg.Cluster.Threshold = 30, 20
//	p, _ := aaclust.New(cfg, aaclust.WithLogger(aaclust.NewTextLogger(os.Stderr, slog.LevelInfo)))
//	cb, _ := p.Cluster(ctx, records, nil)
//
// Sequences are then encoded as signatures, the set of clusters their
// k-mers fall into:
//
//	sigs, _ := p.Encode(ctx, records, cb.Prototypes())
//
// and ranked against a database of signatures by Jaccard distance:
//
//	_ = p.Rank(ctx, queries, sigs, func(res rank.Result) error { ... })
//
// # Storage
//
// The Read* and Write* helpers move artifacts through any blobstore.Store.
// File names choose the compression: .zst, .lz4 and .gz are recognized.
// Codebooks can be published to a versioned catalog with Pipeline.Manifest
// and package catalog.
//
// # Observability
//
// Logging uses log/slog through Logger. Metrics go to a MetricsCollector;
// package prom exports them to Prometheus. Long-running steps report
// progress as throttled log lines or terminal bars (WithProgress).
package aaclust
