package aaclust

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/hupe1980/aaclust/alphabet"
	"github.com/hupe1980/aaclust/catalog"
	"github.com/hupe1980/aaclust/cluster"
	"github.com/hupe1980/aaclust/config"
	"github.com/hupe1980/aaclust/distance"
	"github.com/hupe1980/aaclust/fasta"
	"github.com/hupe1980/aaclust/internal/progress"
	"github.com/hupe1980/aaclust/kmer"
	"github.com/hupe1980/aaclust/matrix"
	"github.com/hupe1980/aaclust/rank"
	"github.com/hupe1980/aaclust/signature"
)

// encodeChunk is the number of records encoded between progress updates.
const encodeChunk = 4096

// Pipeline runs clustering, encoding and ranking with one set of settings.
// It is safe for concurrent use.
type Pipeline struct {
	cfg      config.Config
	table    *distance.Table
	opts     options
	progress *progress.Reporter
}

// New validates cfg and builds the distance table.
func New(cfg config.Config, optFns ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, translateError(err)
	}

	opts := options{
		logger:  NoopLogger(),
		metrics: NoopMetricsCollector{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	table := opts.table
	if table == nil {
		var err error
		if table, err = NewTable(cfg.Distance); err != nil {
			return nil, err
		}
	}

	return &Pipeline{
		cfg:      cfg,
		table:    table,
		opts:     opts,
		progress: progress.New(opts.progressMode, opts.progressOut, opts.logger.Logger),
	}, nil
}

// NewTable builds the amino-acid distance table described by cfg.
func NewTable(cfg config.Distance) (*distance.Table, error) {
	typ, err := distance.ParseType(cfg.Type)
	if err != nil {
		return nil, &ErrConfig{Field: "distance.type", Reason: err.Error(), cause: err}
	}

	var m *matrix.Matrix
	switch {
	case typ == distance.Custom:
		f, err := os.Open(cfg.MatrixFile)
		if err != nil {
			return nil, &ErrConfig{Field: "distance.matrix_file", Reason: err.Error(), cause: err}
		}
		defer func() { _ = f.Close() }()
		if m, err = matrix.ParseCustom(f, false); err != nil {
			return nil, fmt.Errorf("%s: %w", cfg.MatrixFile, err)
		}
	case typ != distance.UngappedEdit:
		if m, err = matrix.Blosum(cfg.Matrix); err != nil {
			return nil, &ErrConfig{Field: "distance.matrix", Reason: err.Error(), cause: err}
		}
	}

	alpha := alphabet.AA()
	cost, err := distance.ForType(typ, m, alpha)
	if err != nil {
		return nil, err
	}
	return distance.NewTable(alpha, cost)
}

// Config returns the settings the pipeline was built with.
func (p *Pipeline) Config() config.Config { return p.cfg }

// Table returns the distance table.
func (p *Pipeline) Table() *distance.Table { return p.table }

// Logger returns the pipeline logger.
func (p *Pipeline) Logger() *Logger { return p.opts.logger }

// Codebook is the outcome of a clustering run.
type Codebook struct {
	cluster.Codebook

	// Index holds the k-mers of the input sequences with their recorded
	// distances to their prototypes.
	Index *kmer.Index
	// SequenceIDs maps sequence positions to record ids.
	SequenceIDs []string

	Created    int
	Assigned   int
	Excluded   int
	Unassigned int
	Passes     int
}

// Cluster builds a codebook from recs. Clusters seeded from existing
// prototypes are matched first; new clusters are seeded as configured.
// Medoids are re-estimated afterwards unless the medoid mode is none.
func (p *Pipeline) Cluster(ctx context.Context, recs []*fasta.Record, existing []cluster.Prototype) (*Codebook, error) {
	cc := p.cfg.Cluster
	for _, proto := range existing {
		if len(proto.Text) != cc.K {
			return nil, &ErrConfig{
				Field:  "cluster.k",
				Reason: fmt.Sprintf("prototype %q has length %d", proto.Text, len(proto.Text)),
			}
		}
	}
	mode, err := cluster.ParseMedoidMode(cc.Medoids)
	if err != nil {
		return nil, &ErrConfig{Field: "cluster.medoids", Reason: err.Error(), cause: err}
	}

	idx, err := kmer.Build(ctx, fasta.Residues(recs), cc.K, p.table)
	if err != nil {
		return nil, err
	}
	p.opts.logger.InfoContext(ctx, "k-mer index built",
		"sequences", len(recs),
		"kmers", idx.Len(),
		"instances", idx.InstanceCount(),
	)

	task := p.progress.Start("assign", int64(idx.Len()))
	engine := cluster.NewEngine(p.table,
		cluster.WithThreshold(cc.Threshold),
		cluster.WithWorkers(cc.Workers),
		cluster.WithSeed(cc.Seed),
		cluster.WithClusterIncrement(cc.Increment),
		cluster.WithMinMedditSize(cc.MinMedditSize),
		cluster.WithLogger(p.opts.logger.Logger),
		cluster.WithPassHook(func(st cluster.PassStats) {
			p.opts.logger.LogPass(ctx, st)
			p.opts.metrics.RecordPass(st)
			task.Add(int64(st.Assigned))
		}),
	)

	clusters := make([]*cluster.Cluster, len(existing))
	for i, proto := range existing {
		clusters[i] = cluster.New(proto, 0)
	}
	res, err := engine.Run(ctx, idx, clusters, cc.Clusters)
	task.Finish()
	if err != nil {
		return nil, translateError(err)
	}

	out := res.Clusters
	if mode != cluster.None {
		start := time.Now()
		var st cluster.MedoidStats
		out, st, err = engine.UpdateMedoids(ctx, idx, out, mode, -1)
		if err != nil {
			return nil, err
		}
		d := time.Since(start)
		p.opts.logger.LogMedoids(ctx, mode, st, d)
		p.opts.metrics.RecordMedoids(st, d)
	}

	return &Codebook{
		Codebook:    cluster.Codebook{K: cc.K, Threshold: cc.Threshold, Clusters: out},
		Index:       idx,
		SequenceIDs: ids(recs),
		Created:     res.Created,
		Assigned:    res.Assigned,
		Excluded:    res.Excluded,
		Unassigned:  res.Unassigned,
		Passes:      res.Passes,
	}, nil
}

// KMedoids builds a codebook with sequence-seeded k-medoids.
func (p *Pipeline) KMedoids(ctx context.Context, recs []*fasta.Record) (*Codebook, error) {
	cc, kc := p.cfg.Cluster, p.cfg.KMedoids
	opts := cluster.KMedoidsOptions{
		K:             cc.K,
		Threshold:     cc.Threshold,
		Trials:        kc.Trials,
		Iterations:    kc.Iterations,
		Workers:       cc.Workers,
		Seed:          cc.Seed,
		MinMedditSize: cc.MinMedditSize,
		Logger:        p.opts.logger.Logger,
	}
	var err error
	if opts.Sort, err = cluster.ParseSortMode(kc.Sort); err != nil {
		return nil, &ErrConfig{Field: "kmedoids.sort", Reason: err.Error(), cause: err}
	}
	if opts.Select, err = cluster.ParseSelectMode(kc.Select); err != nil {
		return nil, &ErrConfig{Field: "kmedoids.select", Reason: err.Error(), cause: err}
	}
	if opts.Medoids, err = cluster.ParseMedoidMode(kc.Medoids); err != nil {
		return nil, &ErrConfig{Field: "kmedoids.medoids", Reason: err.Error(), cause: err}
	}
	if opts.Workers <= 0 {
		opts.Workers = cluster.DefaultKMedoidsOptions().Workers
	}

	start := time.Now()
	res, err := cluster.KMedoids(ctx, p.table, fasta.Residues(recs), opts)
	if err != nil {
		return nil, translateError(err)
	}
	p.opts.logger.InfoContext(ctx, "kmedoids completed",
		"trials", res.Trials,
		"seed_sequence", res.SeedSequence,
		"clusters", len(res.Clusters),
		"assigned", res.Assigned,
		"duration", time.Since(start),
	)

	return &Codebook{
		Codebook:    cluster.Codebook{K: cc.K, Threshold: cc.Threshold, Clusters: res.Clusters},
		Index:       res.Index,
		SequenceIDs: ids(recs),
		Created:     len(res.Clusters),
		Assigned:    res.Assigned,
		Passes:      res.Trials,
	}, nil
}

// Encode maps recs to signatures over protos, in record order.
func (p *Pipeline) Encode(ctx context.Context, recs []*fasta.Record, protos []cluster.Prototype) ([]*signature.Signature, error) {
	if len(protos) == 0 {
		return nil, ErrNoPrototypes
	}
	ec := p.cfg.Encode
	mode, err := signature.ParseMode(ec.Mode)
	if err != nil {
		return nil, &ErrConfig{Field: "encode.mode", Reason: err.Error(), cause: err}
	}
	optFns := []signature.Option{
		signature.WithMode(mode),
		signature.WithCacheSize(ec.CacheSize),
		signature.WithLogger(p.opts.logger.Logger),
	}
	if ec.Workers > 0 {
		optFns = append(optFns, signature.WithWorkers(ec.Workers))
	}
	enc, err := signature.NewEncoder(p.table, protos, p.cfg.Cluster.K, p.cfg.Cluster.Threshold, optFns...)
	if err != nil {
		return nil, translateError(err)
	}

	start := time.Now()
	task := p.progress.Start("encode", int64(len(recs)))
	out := make([]*signature.Signature, 0, len(recs))
	for i := 0; i < len(recs); i += encodeChunk {
		sigs, err := enc.Encode(ctx, recs[i:min(i+encodeChunk, len(recs))])
		if err != nil {
			task.Finish()
			p.opts.metrics.RecordEncode(len(out), time.Since(start), err)
			p.opts.logger.LogEncode(ctx, enc.Stats(), 0, err)
			return nil, err
		}
		out = append(out, sigs...)
		task.Add(int64(len(sigs)))
	}
	task.Finish()

	empty := 0
	for _, s := range out {
		if s.IsEmpty() {
			empty++
		}
	}
	p.opts.metrics.RecordEncode(len(out), time.Since(start), nil)
	p.opts.logger.LogEncode(ctx, enc.Stats(), empty, nil)
	return out, nil
}

// Rank ranks every query against db and calls emit once per query, in
// query order.
func (p *Pipeline) Rank(ctx context.Context, queries, db []*signature.Signature, emit func(rank.Result) error) error {
	rc := p.cfg.Rank
	mode, err := rank.ParseMode(rc.Mode)
	if err != nil {
		return &ErrConfig{Field: "rank.mode", Reason: err.Error(), cause: err}
	}
	optFns := []rank.Option{
		rank.WithMode(mode),
		rank.WithMaxResults(rc.MaxResults),
		rank.WithPadUnmatched(rc.PadUnmatched),
		rank.WithLogger(p.opts.logger.Logger),
	}
	if rc.Workers > 0 {
		optFns = append(optFns, rank.WithWorkers(rc.Workers))
	}
	ranker := rank.NewRanker(rank.NewIndex(db), optFns...)

	start := time.Now()
	task := p.progress.Start("rank", int64(len(queries)))
	err = ranker.Rank(ctx, queries, func(res rank.Result) error {
		p.opts.metrics.RecordQuery(len(res.Hits), time.Since(start))
		task.Add(1)
		return emit(res)
	})
	task.Finish()
	p.opts.logger.LogRank(ctx, len(queries), len(db), time.Since(start), err)
	return err
}

// Manifest describes cb for publication.
func (p *Pipeline) Manifest(cb *Codebook, files map[string]string) catalog.Manifest {
	m := catalog.NewManifest()
	m.K = cb.K
	m.Threshold = cb.Threshold
	m.Distance = p.cfg.Distance.Type
	typ, _ := distance.ParseType(p.cfg.Distance.Type)
	switch typ {
	case distance.Custom:
		m.Matrix = p.cfg.Distance.MatrixFile
	case distance.HalperinEtAl, distance.BlosumDistance:
		m.Matrix = "BLOSUM" + strconv.Itoa(p.cfg.Distance.Matrix)
	}
	m.Seed = p.cfg.Cluster.Seed
	m.Clusters = len(cb.Clusters)
	m.Prototypes = len(cb.Prototypes())
	for k, v := range files {
		m.Files[k] = v
	}
	return m
}

func ids(recs []*fasta.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}
