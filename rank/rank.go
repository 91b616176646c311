// Package rank retrieves the database signatures most similar to each query
// signature.
//
// An inverted index maps every cluster bit to the database entries that
// carry it. A query only scores entries sharing at least one bit with it and
// keeps the K best by ascending distance, where distance is one minus the
// Jaccard similarity.
package rank

import (
	"context"
	"io"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/aaclust/internal/bitset"
	"github.com/hupe1980/aaclust/internal/queue"
	"github.com/hupe1980/aaclust/signature"
)

// DefaultMaxResults is the default number of hits per query.
const DefaultMaxResults = 1000

// batchPerWorker is the number of queries each worker scores between
// ordered emits.
const batchPerWorker = 64

// Index is an inverted index over database signatures.
type Index struct {
	db       []*signature.Signature
	indices  [][]uint32
	postings [][]int32
}

// NewIndex builds the bit to entry postings for db. Postings are ascending.
func NewIndex(db []*signature.Signature) *Index {
	x := &Index{
		db:      db,
		indices: make([][]uint32, len(db)),
	}
	size := 0
	for i, s := range db {
		x.indices[i] = s.Indices()
		if top, ok := s.Max(); ok {
			size = max(size, int(top)+1)
		}
	}
	counts := make([]int, size)
	for _, idx := range x.indices {
		for _, b := range idx {
			counts[b]++
		}
	}
	x.postings = make([][]int32, size)
	for b, n := range counts {
		if n > 0 {
			x.postings[b] = make([]int32, 0, n)
		}
	}
	for i, idx := range x.indices {
		for _, b := range idx {
			x.postings[b] = append(x.postings[b], int32(i))
		}
	}
	return x
}

// Len returns the number of database entries.
func (x *Index) Len() int { return len(x.db) }

// Signature returns entry i.
func (x *Index) Signature(i int) *signature.Signature { return x.db[i] }

// Postings returns the entries carrying bit in ascending order.
func (x *Index) Postings(bit uint32) []int32 {
	if int(bit) >= len(x.postings) {
		return nil
	}
	return x.postings[bit]
}

// Hit is one ranked database entry.
type Hit struct {
	ID       string
	Index    int
	Distance float64
}

// Result holds the ranked hits of one query.
type Result struct {
	Query      *signature.Signature
	QueryIndex int
	Hits       []Hit
}

// Options configures a Ranker.
type Options struct {
	Mode       Mode
	MaxResults int
	Workers    int
	// PadUnmatched appends entries sharing no bit with the query at
	// distance 1 until MaxResults hits are reached.
	PadUnmatched bool
	Logger       *slog.Logger
}

// Option mutates Options.
type Option func(*Options)

// WithMode sets the similarity mode.
func WithMode(m Mode) Option {
	return func(o *Options) {
		o.Mode = m
	}
}

// WithMaxResults sets the number of hits kept per query.
func WithMaxResults(k int) Option {
	return func(o *Options) {
		o.MaxResults = k
	}
}

// WithWorkers sets the number of queries scored in parallel.
func WithWorkers(n int) Option {
	return func(o *Options) {
		o.Workers = n
	}
}

// WithPadUnmatched enables padding with unrelated entries.
func WithPadUnmatched(pad bool) Option {
	return func(o *Options) {
		o.PadUnmatched = pad
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// Ranker scores queries against an Index.
type Ranker struct {
	index *Index
	opts  Options
}

// NewRanker returns a Ranker over index.
func NewRanker(index *Index, optFns ...Option) *Ranker {
	opts := Options{
		Mode:       Merge,
		MaxResults: DefaultMaxResults,
		Workers:    runtime.GOMAXPROCS(0),
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
	return &Ranker{index: index, opts: opts}
}

// Rank scores every query and calls emit once per query, in query order.
// emit is never called concurrently. An error from emit stops ranking.
func (r *Ranker) Rank(ctx context.Context, queries []*signature.Signature, emit func(Result) error) error {
	workers := r.opts.Workers
	batch := workers * batchPerWorker
	results := make([]Result, min(batch, len(queries)))

	states := make([]*scorer, workers)
	for t := range states {
		states[t] = r.newScorer()
	}

	for start := 0; start < len(queries); start += batch {
		end := min(start+batch, len(queries))

		g, gctx := errgroup.WithContext(ctx)
		for t := 0; t < workers; t++ {
			g.Go(func() error {
				s := states[t]
				for i := start + t; i < end; i += workers {
					if err := gctx.Err(); err != nil {
						return err
					}
					results[i-start] = s.rank(i, queries[i])
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		for i := start; i < end; i++ {
			if err := emit(results[i-start]); err != nil {
				return err
			}
			results[i-start] = Result{}
		}
	}

	r.opts.Logger.DebugContext(ctx, "queries ranked",
		"queries", len(queries),
		"database", r.index.Len(),
		"mode", r.opts.Mode.String(),
	)
	return nil
}

// RankOne scores a single query.
func (r *Ranker) RankOne(query *signature.Signature) Result {
	return r.newScorer().rank(0, query)
}

// scorer holds per-worker state.
type scorer struct {
	r     *Ranker
	seen  *bitset.BitSet
	top   *queue.TopK
	items []queue.PriorityQueueItem
}

func (r *Ranker) newScorer() *scorer {
	return &scorer{
		r:    r,
		seen: bitset.New(uint64(r.index.Len())),
		top:  queue.NewTopK(r.opts.MaxResults),
	}
}

func (s *scorer) rank(qi int, query *signature.Signature) Result {
	x := s.r.index
	mode := s.r.opts.Mode
	defer s.seen.ClearAll()

	qidx := query.Indices()
	for _, bit := range qidx {
		for _, d := range x.Postings(bit) {
			if s.seen.TestAndSet(uint64(d)) {
				continue
			}
			var sim float64
			if mode == Bits {
				sim = BitsJaccard(query.Bits, x.db[d].Bits)
			} else {
				sim = MergeJaccard(qidx, x.indices[d])
			}
			s.top.Offer(uint32(d), 1-sim)
		}
	}

	if s.r.opts.PadUnmatched {
		for d := 0; d < x.Len() && !s.top.Full(); d++ {
			if !s.seen.Test(uint64(d)) {
				s.top.Offer(uint32(d), 1)
			}
		}
	}

	s.items = s.top.Drain(s.items[:0])
	hits := make([]Hit, len(s.items))
	for i, it := range s.items {
		hits[i] = Hit{ID: x.db[it.Node].ID, Index: int(it.Node), Distance: it.Distance}
	}
	return Result{Query: query, QueryIndex: qi, Hits: hits}
}
