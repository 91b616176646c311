package cluster

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"runtime"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/hupe1980/aaclust/distance"
	"github.com/hupe1980/aaclust/internal/xrand"
	"github.com/hupe1980/aaclust/kmer"
)

// SortMode orders the candidate seed sequences of KMedoids.
type SortMode int

const (
	// SortRandom shuffles the sequences.
	SortRandom SortMode = iota
	// SortLongestFirst tries the longest sequences first.
	SortLongestFirst
	// SortShortestFirst tries the shortest sequences first.
	SortShortestFirst
)

func (m SortMode) String() string {
	switch m {
	case SortRandom:
		return "random"
	case SortLongestFirst:
		return "longest"
	case SortShortestFirst:
		return "shortest"
	default:
		return fmt.Sprintf("SortMode(%d)", int(m))
	}
}

// ParseSortMode parses "random", "longest" or "shortest".
func ParseSortMode(s string) (SortMode, error) {
	for _, m := range []SortMode{SortRandom, SortLongestFirst, SortShortestFirst} {
		if strings.EqualFold(s, m.String()) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("cluster: unknown sort mode %q", s)
}

// SelectMode decides which prototype a k-mer is assigned to.
type SelectMode int

const (
	// SelectNearest picks the closest prototype within the threshold.
	SelectNearest SelectMode = iota
	// SelectGreedy picks the first prototype within the threshold.
	SelectGreedy
)

func (m SelectMode) String() string {
	switch m {
	case SelectNearest:
		return "nearest"
	case SelectGreedy:
		return "greedy"
	default:
		return fmt.Sprintf("SelectMode(%d)", int(m))
	}
}

// ParseSelectMode parses "nearest" or "greedy".
func ParseSelectMode(s string) (SelectMode, error) {
	for _, m := range []SelectMode{SelectNearest, SelectGreedy} {
		if strings.EqualFold(s, m.String()) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("cluster: unknown select mode %q", s)
}

// KMedoidsOptions configures KMedoids.
type KMedoidsOptions struct {
	K             int
	Threshold     int
	Trials        int
	Iterations    int
	Workers       int
	Seed          uint64
	Sort          SortMode
	Select        SelectMode
	Medoids       MedoidMode
	MinMedditSize int
	Logger        *slog.Logger
}

// DefaultKMedoidsOptions returns the defaults used by the k-medoids tool.
func DefaultKMedoidsOptions() KMedoidsOptions {
	return KMedoidsOptions{
		K:             30,
		Trials:        40,
		Iterations:    3,
		Workers:       runtime.GOMAXPROCS(0),
		Sort:          SortRandom,
		Select:        SelectNearest,
		Medoids:       Meddit,
		MinMedditSize: DefaultMinMedditSize,
	}
}

// KMedoidsResult is the best partition found by KMedoids.
type KMedoidsResult struct {
	Index    *kmer.Index
	Clusters []*Cluster
	// SeedSequence is the input position of the sequence whose k-mers
	// seeded the winning trial.
	SeedSequence int
	// Assigned is the number of k-mer occurrences covered by the winning
	// trial.
	Assigned int
	Trials   int
}

// kmedoidsTrial is the state of one trial.
type kmedoidsTrial struct {
	protos   []int32 // -1 once a prototype has been dropped
	members  [][]int32
	dists    [][]float64
	assigned int
}

// KMedoids partitions the k-mers of seqs around prototypes taken from the
// distinct k-mers of one seed sequence. Each trial starts from a different
// seed sequence and alternates assignment and medoid updates. The trial
// covering the most k-mer occurrences wins.
func KMedoids(ctx context.Context, table *distance.Table, seqs [][]byte, opts KMedoidsOptions) (*KMedoidsResult, error) {
	if opts.Threshold < 0 {
		return nil, ErrInvalidThreshold
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Iterations <= 0 {
		opts.Iterations = 1
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	idx, err := kmer.Build(ctx, seqs, opts.K, table)
	if err != nil {
		return nil, err
	}

	src := xrand.New(opts.Seed)
	order := make([]int, 0, len(seqs))
	for i, s := range seqs {
		if len(s) >= opts.K {
			order = append(order, i)
		}
	}
	switch opts.Sort {
	case SortRandom:
		rng := src.Stream(0)
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	case SortLongestFirst:
		slices.SortStableFunc(order, func(a, b int) int { return cmp.Compare(len(seqs[b]), len(seqs[a])) })
	case SortShortestFirst:
		slices.SortStableFunc(order, func(a, b int) int { return cmp.Compare(len(seqs[a]), len(seqs[b])) })
	}

	trials := len(order)
	if opts.Trials > 0 {
		trials = min(trials, opts.Trials)
	}

	res := &KMedoidsResult{Index: idx, SeedSequence: -1}
	var best *kmedoidsTrial

	for trial := 0; trial < trials; trial++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		seq := order[trial]
		tr := &kmedoidsTrial{protos: seedPrototypes(idx, seqs[seq])}
		rng := src.Stream(1, uint64(trial))

		for iter := 0; iter < opts.Iterations; iter++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := tr.assign(ctx, table, idx, opts); err != nil {
				return nil, err
			}
			tr.updateMedoids(table, idx, opts, rng)
		}

		opts.Logger.DebugContext(ctx, "kmedoids trial completed",
			"trial", trial,
			"seed_sequence", seq,
			"prototypes", len(tr.protos),
			"assigned", tr.assigned,
		)
		if best == nil || tr.assigned > best.assigned {
			best = tr
			res.SeedSequence = seq
			res.Assigned = tr.assigned
		}
		res.Trials++
	}

	if best == nil {
		return res, nil
	}

	idx.ResetAssignments()
	for c, p := range best.protos {
		if p < 0 {
			continue
		}
		cl := New(PrototypeOf(idx.At(p)), len(best.members[c]))
		for i, h := range best.members[c] {
			cl.Add(h)
			idx.At(h).Dist = int(best.dists[c][i])
		}
		cl.Prototype.Size = cl.InstanceCount(idx)
		res.Clusters = append(res.Clusters, cl)
	}
	return res, nil
}

// seedPrototypes returns the handles of the distinct k-mers of seq in order
// of first occurrence.
func seedPrototypes(idx *kmer.Index, seq []byte) []int32 {
	k := idx.K()
	seen := make(map[int32]struct{})
	var protos []int32
	for off := 0; off+k <= len(seq); off++ {
		h, ok := idx.Lookup(string(seq[off : off+k]))
		if !ok {
			continue
		}
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}
		protos = append(protos, h)
	}
	return protos
}

// assign attaches every k-mer of idx to a prototype. Workers scan disjoint
// handle ranges; results are merged in handle order.
func (tr *kmedoidsTrial) assign(ctx context.Context, table *distance.Table, idx *kmer.Index, opts KMedoidsOptions) error {
	n := idx.Len()
	k := idx.K()
	workers := opts.Workers
	target := make([]int32, n)
	dist := make([]int, n)

	g, gctx := errgroup.WithContext(ctx)
	for t := 0; t < workers; t++ {
		g.Go(func() error {
			for h := t * n / workers; h < (t+1)*n/workers; h++ {
				if h&4095 == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				codes := idx.At(int32(h)).Codes
				target[h], dist[h] = tr.nearest(table, idx, codes, k, opts)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	tr.members = make([][]int32, len(tr.protos))
	tr.dists = make([][]float64, len(tr.protos))
	tr.assigned = 0
	for h, c := range target {
		if c < 0 {
			continue
		}
		tr.members[c] = append(tr.members[c], int32(h))
		tr.dists[c] = append(tr.dists[c], float64(dist[h]))
		tr.assigned += len(idx.At(int32(h)).Instances)
	}
	return nil
}

func (tr *kmedoidsTrial) nearest(table *distance.Table, idx *kmer.Index, codes []uint32, k int, opts KMedoidsOptions) (int32, int) {
	target, best := int32(-1), math.MaxInt
	for c, p := range tr.protos {
		if p < 0 {
			continue
		}
		pc := idx.At(p).Codes
		if opts.Select == SelectGreedy {
			if d, ok := table.IsWithin(codes, pc, k, opts.Threshold); ok {
				return int32(c), d
			}
			continue
		}
		if d := table.Distance(codes, pc, k); d < best {
			target, best = int32(c), d
		}
	}
	if target < 0 || best > opts.Threshold {
		return -1, 0
	}
	return target, best
}

func (tr *kmedoidsTrial) updateMedoids(table *distance.Table, idx *kmer.Index, opts KMedoidsOptions, rng *rand.Rand) {
	if opts.Medoids == None {
		return
	}
	for c := range tr.protos {
		members := tr.members[c]
		if len(members) == 0 {
			tr.protos[c] = -1
			continue
		}
		var h int32
		if opts.Medoids == BruteForce || len(members) <= opts.MinMedditSize {
			h, _ = Medoid(table, idx, members)
		} else {
			_, sigma := stat.PopMeanStdDev(tr.dists[c], nil)
			h, _ = MedoidMEDDIT(table, idx, members, sigma, rng)
		}
		tr.protos[c] = h
	}
}
