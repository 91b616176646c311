package signature

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"runtime"
	"strings"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/aaclust/cluster"
	"github.com/hupe1980/aaclust/distance"
	"github.com/hupe1980/aaclust/fasta"
	"github.com/hupe1980/aaclust/internal/conv"
)

// DefaultCacheSize is the default number of memoized k-mers.
const DefaultCacheSize = 1 << 16

var (
	// ErrNoPrototypes is returned when the codebook is empty.
	ErrNoPrototypes = errors.New("signature: no prototypes")

	// ErrPrototypeLength is returned when a prototype is not k symbols long.
	ErrPrototypeLength = errors.New("signature: prototype length differs from k")
)

// Mode selects which clusters a k-mer contributes.
type Mode int

const (
	// Any sets the bit of every prototype within the threshold.
	Any Mode = iota
	// Nearest sets only the bit of the closest prototype within the
	// threshold. Ties keep the earlier prototype.
	Nearest
)

func (m Mode) String() string {
	switch m {
	case Any:
		return "any"
	case Nearest:
		return "nearest"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses "any" or "nearest".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "any", "":
		return Any, nil
	case "nearest":
		return Nearest, nil
	}
	return 0, fmt.Errorf("signature: unknown mode %q", s)
}

// Options configures an Encoder.
type Options struct {
	Mode      Mode
	Workers   int
	CacheSize int
	Logger    *slog.Logger
}

// Option mutates Options.
type Option func(*Options)

// WithMode sets the assignment mode.
func WithMode(m Mode) Option {
	return func(o *Options) {
		o.Mode = m
	}
}

// WithWorkers sets the number of sequences encoded in parallel.
func WithWorkers(n int) Option {
	return func(o *Options) {
		o.Workers = n
	}
}

// WithCacheSize sets the size of the k-mer memo. Zero disables it.
func WithCacheSize(n int) Option {
	return func(o *Options) {
		o.CacheSize = n
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// Stats reports memo effectiveness.
type Stats struct {
	Sequences   int64
	Kmers       int64
	CacheHits   int64
	CacheMisses int64
}

// Encoder maps sequences to signatures against a fixed codebook.
// It is safe for concurrent use.
type Encoder struct {
	table     *distance.Table
	protos    [][]uint32
	k         int
	threshold int
	opts      Options
	cache     *lru.Cache[string, []uint32]

	sequences atomic.Int64
	kmers     atomic.Int64
	hits      atomic.Int64
	misses    atomic.Int64
}

// NewEncoder returns an Encoder for protos, which must all be k symbols long.
func NewEncoder(table *distance.Table, protos []cluster.Prototype, k, threshold int, optFns ...Option) (*Encoder, error) {
	opts := Options{
		Mode:      Any,
		Workers:   runtime.GOMAXPROCS(0),
		CacheSize: DefaultCacheSize,
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

	if len(protos) == 0 {
		return nil, ErrNoPrototypes
	}
	if _, err := conv.IntToUint32(len(protos)); err != nil {
		return nil, fmt.Errorf("signature: prototype count: %w", err)
	}
	codes := make([][]uint32, len(protos))
	for i, p := range protos {
		if len(p.Text) != k {
			return nil, fmt.Errorf("%w: prototype %d has length %d, want %d", ErrPrototypeLength, i, len(p.Text), k)
		}
		codes[i] = p.Codes
		if codes[i] == nil {
			codes[i] = cluster.NewPrototype(table, p.Text, 0).Codes
		}
	}

	e := &Encoder{
		table:     table,
		protos:    codes,
		k:         k,
		threshold: threshold,
		opts:      opts,
	}
	if opts.CacheSize > 0 {
		cache, err := lru.New[string, []uint32](opts.CacheSize)
		if err != nil {
			return nil, err
		}
		e.cache = cache
	}
	return e, nil
}

// Stats returns counters accumulated since construction.
func (e *Encoder) Stats() Stats {
	return Stats{
		Sequences:   e.sequences.Load(),
		Kmers:       e.kmers.Load(),
		CacheHits:   e.hits.Load(),
		CacheMisses: e.misses.Load(),
	}
}

// Encode returns one signature per record, in record order.
func (e *Encoder) Encode(ctx context.Context, records []*fasta.Record) ([]*Signature, error) {
	out := make([]*Signature, len(records))
	workers := min(e.opts.Workers, max(len(records), 1))

	g, gctx := errgroup.WithContext(ctx)
	for t := 0; t < workers; t++ {
		g.Go(func() error {
			var s scratch
			for i := t; i < len(records); i += workers {
				if err := gctx.Err(); err != nil {
					return err
				}
				out[i] = e.encode(records[i].ID, records[i].Residues, &s)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	st := e.Stats()
	e.opts.Logger.DebugContext(ctx, "signatures encoded",
		"sequences", len(records),
		"mode", e.opts.Mode.String(),
		"cache_hits", st.CacheHits,
		"cache_misses", st.CacheMisses,
	)
	return out, nil
}

// EncodeSequence returns the signature of a single sequence.
func (e *Encoder) EncodeSequence(id string, residues []byte) *Signature {
	var s scratch
	return e.encode(id, residues, &s)
}

// scratch holds per-worker buffers.
type scratch struct {
	codes []uint8
	words []uint32
	found []uint32
}

func (e *Encoder) encode(id string, residues []byte, s *scratch) *Signature {
	sig := &Signature{ID: id, Bits: roaring.New()}
	e.sequences.Add(1)

	n := fasta.KmerCount(len(residues), e.k)
	if n == 0 {
		return sig
	}
	e.kmers.Add(int64(n))
	s.codes = e.table.Alphabet().EncodeLenient(residues, s.codes)

	for off := 0; off < n; off++ {
		text := residues[off : off+e.k]
		if e.cache != nil {
			if bits, ok := e.cache.Get(string(text)); ok {
				e.hits.Add(1)
				sig.Bits.AddMany(bits)
				continue
			}
			e.misses.Add(1)
		}

		s.words = e.table.EncodeKmer(s.codes[off:off+e.k], s.words)
		s.found = e.match(s.words, s.found[:0])
		sig.Bits.AddMany(s.found)

		if e.cache != nil {
			e.cache.Add(string(text), append([]uint32(nil), s.found...))
		}
	}
	return sig
}

// match appends the prototypes the k-mer contributes to.
func (e *Encoder) match(words []uint32, dst []uint32) []uint32 {
	switch e.opts.Mode {
	case Nearest:
		best, bestDist := -1, math.MaxInt
		for c, p := range e.protos {
			// Anything at or beyond the current best cannot win.
			limit := min(e.threshold, bestDist-1)
			if d, ok := e.table.IsWithin(words, p, e.k, limit); ok {
				best, bestDist = c, d
				if d == 0 {
					break
				}
			}
		}
		if best >= 0 {
			dst = append(dst, uint32(best))
		}
	default:
		for c, p := range e.protos {
			if _, ok := e.table.IsWithin(words, p, e.k, e.threshold); ok {
				dst = append(dst, uint32(c))
			}
		}
	}
	return dst
}
