package cluster

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/aaclust/distance"
	"github.com/hupe1980/aaclust/internal/xrand"
	"github.com/hupe1980/aaclust/kmer"
)

// DefaultClusterIncrement is the number of clusters seeded per pass.
const DefaultClusterIncrement = 100

// ErrNothingToAssign is returned when a run has neither existing clusters
// nor permission to seed new ones.
var ErrNothingToAssign = errors.New("cluster: no existing clusters and no clusters requested")

// ErrInvalidThreshold is returned for a negative threshold.
var ErrInvalidThreshold = errors.New("cluster: threshold must not be negative")

// ErrPrototypeLength is returned when an existing prototype is not k
// symbols long.
var ErrPrototypeLength = errors.New("cluster: prototype length does not match k")

// PassStats describes one completed clustering pass.
type PassStats struct {
	Pass      int
	Seeded    int
	Assigned  int
	Remaining int
	Clusters  int
	Duration  time.Duration
}

// Options configures an Engine.
type Options struct {
	// Threshold is the largest distance at which a k-mer joins a cluster.
	Threshold int

	// Workers is the fixed number of partitions processed in parallel.
	// Zero means runtime.GOMAXPROCS(0).
	Workers int

	// Seed drives the per-partition shuffles and medoid sampling.
	Seed uint64

	// ClusterIncrement is the number of clusters seeded by every pass after
	// the first. Zero means the count requested for the first pass.
	ClusterIncrement int

	// MinMedditSize is the largest cluster whose medoid is computed exactly
	// when MEDDIT is selected.
	MinMedditSize int

	// Logger receives progress messages. Nil discards them.
	Logger *slog.Logger

	// OnPass is called after every pass.
	OnPass func(PassStats)
}

// Option mutates Options.
type Option func(*Options)

// WithThreshold sets the assignment threshold.
func WithThreshold(t int) Option {
	return func(o *Options) {
		o.Threshold = t
	}
}

// WithWorkers sets the number of parallel partitions.
func WithWorkers(n int) Option {
	return func(o *Options) {
		o.Workers = n
	}
}

// WithSeed sets the random seed.
func WithSeed(seed uint64) Option {
	return func(o *Options) {
		o.Seed = seed
	}
}

// WithClusterIncrement sets how many clusters are seeded per pass.
func WithClusterIncrement(n int) Option {
	return func(o *Options) {
		o.ClusterIncrement = n
	}
}

// WithMinMedditSize sets the exact-medoid cutoff.
func WithMinMedditSize(n int) Option {
	return func(o *Options) {
		o.MinMedditSize = n
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithPassHook registers a callback invoked after each pass.
func WithPassHook(fn func(PassStats)) Option {
	return func(o *Options) {
		o.OnPass = fn
	}
}

// Engine clusters the k-mers of an index.
type Engine struct {
	table *distance.Table
	opts  Options
}

// NewEngine returns an Engine comparing k-mers with table.
func NewEngine(table *distance.Table, optFns ...Option) *Engine {
	opts := Options{
		Workers:       runtime.GOMAXPROCS(0),
		MinMedditSize: DefaultMinMedditSize,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{table: table, opts: opts}
}

// Options returns the effective options.
func (e *Engine) Options() Options { return e.opts }

// Result summarizes a clustering run.
type Result struct {
	// Clusters holds the existing clusters followed by those created by
	// the run, in creation order.
	Clusters []*Cluster
	Created  int
	// Assigned counts k-mers attached during the run.
	Assigned int
	// Excluded counts k-mers whose self-distance exceeds the threshold.
	Excluded   int
	Unassigned int
	Passes     int
}

// partition is the slice [begin, end) of the pool owned by one worker.
// Items in [begin, mark) are assigned, [mark, limit) are unassigned and
// [limit, end) are excluded.
type partition struct {
	begin, mark, limit, end int
}

// Run assigns every unassigned k-mer of idx (Dist < 0) to the first cluster
// whose prototype lies within the threshold. Without existing clusters the
// first pass seeds requested new clusters; with existing clusters the first
// pass only matches against them. Later passes seed ClusterIncrement new
// clusters each. Each prototype's Size grows by the occurrences of the
// members added to it.
func (e *Engine) Run(ctx context.Context, idx *kmer.Index, existing []*Cluster, requested int) (*Result, error) {
	if e.opts.Threshold < 0 {
		return nil, ErrInvalidThreshold
	}
	if len(existing) == 0 && requested <= 0 {
		return nil, ErrNothingToAssign
	}
	clusterIncrement := e.opts.ClusterIncrement
	if clusterIncrement <= 0 {
		clusterIncrement = requested
	}

	k := idx.K()
	threshold := e.opts.Threshold
	workers := e.opts.Workers

	// Prototypes read without an encoder carry text only.
	words := e.table.Words(k)
	for i, c := range existing {
		if len(c.Prototype.Text) != k {
			return nil, fmt.Errorf("%w: prototype %d has length %d, want %d", ErrPrototypeLength, i, len(c.Prototype.Text), k)
		}
		if len(c.Prototype.Codes) != words {
			c.Prototype.Codes = kmer.Encode(e.table, c.Prototype.Text)
		}
	}

	pool := make([]int32, 0, idx.Len())
	for h := range idx.All() {
		if idx.At(int32(h)).Dist < 0 {
			pool = append(pool, int32(h))
		}
	}
	n := len(pool)

	clusters := make([]*Cluster, len(existing), len(existing)+max(requested, 0))
	copy(clusters, existing)
	startLen := make([]int, len(existing))
	for i, c := range existing {
		startLen[i] = c.Len()
	}

	parts := make([]partition, workers)
	rngs := xrand.New(e.opts.Seed)
	res := &Result{}

	// Exclusion and shuffling are independent per partition.
	g, gctx := errgroup.WithContext(ctx)
	excluded := make([]int, workers)
	for t := 0; t < workers; t++ {
		g.Go(func() error {
			p := partition{begin: t * n / workers, end: (t + 1) * n / workers}
			p.mark, p.limit = p.begin, p.end

			for i := p.begin; i < p.limit; {
				km := idx.At(pool[i])
				if _, ok := e.table.IsWithin(km.Codes, km.Codes, k, threshold); ok {
					i++
					continue
				}
				p.limit--
				pool[i], pool[p.limit] = pool[p.limit], pool[i]
				excluded[t]++
			}

			rng := rngs.Stream(uint64(t))
			for i := p.limit - 1; i > p.mark; i-- {
				j := p.mark + rng.IntN(i-p.mark+1)
				pool[i], pool[j] = pool[j], pool[i]
			}

			parts[t] = p
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, x := range excluded {
		res.Excluded += x
	}

	increment := requested
	if len(existing) > 0 {
		increment = 0
	}
	firstCluster := 0
	assigned := 0
	assignable := n - res.Excluded

	for assigned < assignable {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := time.Now()
		before := len(clusters)

		clusters = e.seed(pool, parts, clusters, idx, increment)

		counts, err := e.assign(ctx, pool, parts, clusters[firstCluster:], idx)
		if err != nil {
			return nil, err
		}
		newly := 0
		for _, c := range counts {
			newly += c
		}
		assigned += newly
		res.Passes++

		stats := PassStats{
			Pass:      res.Passes,
			Seeded:    len(clusters) - before,
			Assigned:  newly,
			Remaining: assignable - assigned,
			Clusters:  len(clusters),
			Duration:  time.Since(start),
		}
		e.opts.Logger.DebugContext(ctx, "clustering pass completed",
			"pass", stats.Pass,
			"seeded", stats.Seeded,
			"assigned", stats.Assigned,
			"remaining", stats.Remaining,
			"clusters", stats.Clusters,
		)
		if e.opts.OnPass != nil {
			e.opts.OnPass(stats)
		}

		// A seeding pass always assigns its own seeds, so no progress means
		// the pool is exhausted. An extension pass over existing clusters may
		// assign nothing and still be followed by seeding.
		if newly == 0 && increment > 0 {
			break
		}
		if clusterIncrement == 0 {
			break
		}
		// Unassigned items have been compared with every cluster so far.
		increment = clusterIncrement
		firstCluster = len(clusters)
	}

	for i, c := range clusters {
		from := 0
		if i < len(startLen) {
			from = startLen[i]
		}
		for _, h := range c.Members[from:] {
			c.Prototype.Size += len(idx.At(h).Instances)
		}
	}

	res.Clusters = clusters
	res.Created = len(clusters) - len(existing)
	res.Assigned = assigned
	res.Unassigned = assignable - assigned
	return res, nil
}

// seed appends up to increment singleton clusters, drawn proportionally
// from the unassigned part of each partition. It runs before the parallel
// phase so the cluster list is frozen while workers read it.
func (e *Engine) seed(pool []int32, parts []partition, clusters []*Cluster, idx *kmer.Index, increment int) []*Cluster {
	if increment <= 0 {
		return clusters
	}
	workers := len(parts)
	for t, p := range parts {
		desired := (t+1)*increment/workers - t*increment/workers
		wanted := min(desired, p.limit-p.mark)
		for i := p.mark; i < p.mark+wanted; i++ {
			clusters = append(clusters, New(PrototypeOf(idx.At(pool[i])), 0))
		}
	}
	return clusters
}

// assign runs the parallel first-fit phase over the unassigned range of
// every partition, comparing only against candidates. It returns the number
// of k-mers assigned per partition.
func (e *Engine) assign(ctx context.Context, pool []int32, parts []partition, candidates []*Cluster, idx *kmer.Index) ([]int, error) {
	k := idx.K()
	threshold := e.opts.Threshold
	counts := make([]int, len(parts))

	g, gctx := errgroup.WithContext(ctx)
	for t := range parts {
		g.Go(func() error {
			p := &parts[t]
			for i := p.mark; i < p.limit; i++ {
				if (i-p.mark)&4095 == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				h := pool[i]
				km := idx.At(h)
				for _, c := range candidates {
					d, ok := e.table.IsWithin(km.Codes, c.Prototype.Codes, k, threshold)
					if !ok {
						continue
					}
					km.Dist = d
					c.AddParallel(h)
					pool[p.mark], pool[i] = pool[i], pool[p.mark]
					p.mark++
					counts[t]++
					break
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("cluster: assignment: %w", err)
	}
	return counts, nil
}
