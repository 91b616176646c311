package cluster

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/hupe1980/aaclust/distance"
	"github.com/hupe1980/aaclust/internal/xrand"
	"github.com/hupe1980/aaclust/kmer"
)

// DefaultMinMedditSize is the largest cluster whose medoid is computed
// exactly when MEDDIT is requested.
const DefaultMinMedditSize = 1000

// MedoidMode selects how prototypes are re-estimated.
type MedoidMode int

const (
	// BruteForce always computes the exact medoid.
	BruteForce MedoidMode = iota
	// Meddit uses the randomized estimate for large clusters.
	Meddit
	// None keeps the current prototypes.
	None
)

func (m MedoidMode) String() string {
	switch m {
	case BruteForce:
		return "exact"
	case Meddit:
		return "meddit"
	case None:
		return "none"
	default:
		return fmt.Sprintf("MedoidMode(%d)", int(m))
	}
}

// ParseMedoidMode parses "exact", "meddit" or "none".
func ParseMedoidMode(s string) (MedoidMode, error) {
	switch strings.ToLower(s) {
	case "exact", "bruteforce":
		return BruteForce, nil
	case "meddit":
		return Meddit, nil
	case "none", "":
		return None, nil
	}
	return 0, fmt.Errorf("cluster: unknown medoid mode %q", s)
}

// Medoid returns the member whose summed distance to all members is
// smallest. Ties keep the earliest member. It reports false for an empty
// member list.
func Medoid(table *distance.Table, idx *kmer.Index, members []int32) (int32, bool) {
	if len(members) == 0 {
		return 0, false
	}
	k := idx.K()
	best := members[0]
	bestSum := -1
	for _, a := range members {
		ca := idx.At(a).Codes
		sum := 0
		for _, b := range members {
			sum += table.Distance(ca, idx.At(b).Codes, k)
			if bestSum >= 0 && sum >= bestSum {
				break
			}
		}
		if bestSum < 0 || sum < bestSum {
			best, bestSum = a, sum
		}
	}
	return best, true
}

// MedoidFor picks exact or MEDDIT estimation according to mode and the
// cluster size.
func MedoidFor(mode MedoidMode, table *distance.Table, idx *kmer.Index, members []int32, minMedditSize int, sigma float64, rng *rand.Rand) (int32, bool) {
	if mode == Meddit && len(members) > minMedditSize {
		return MedoidMEDDIT(table, idx, members, sigma, rng)
	}
	return Medoid(table, idx, members)
}

// Sigma returns the population standard deviation of the member distances
// recorded during assignment.
func Sigma(idx *kmer.Index, clusters []*Cluster) float64 {
	var xs []float64
	for _, c := range clusters {
		for _, h := range c.Members {
			if d := idx.At(h).Dist; d >= 0 {
				xs = append(xs, float64(d))
			}
		}
	}
	if len(xs) == 0 {
		return 0
	}
	_, std := stat.PopMeanStdDev(xs, nil)
	return std
}

// MedoidStats summarizes a medoid update.
type MedoidStats struct {
	Updated int
	Changed int
	Dropped int
}

// UpdateMedoids replaces each cluster prototype by its medoid in parallel.
// Clusters without members are dropped from the returned slice. A negative
// sigma is estimated from the recorded member distances.
func (e *Engine) UpdateMedoids(ctx context.Context, idx *kmer.Index, clusters []*Cluster, mode MedoidMode, sigma float64) ([]*Cluster, MedoidStats, error) {
	var st MedoidStats
	if mode == None {
		return clusters, st, nil
	}
	if mode == Meddit && sigma < 0 {
		sigma = Sigma(idx, clusters)
	}

	workers := e.opts.Workers
	rngs := xrand.New(e.opts.Seed).Derive(1)
	keep := make([]bool, len(clusters))
	changed := make([]int, workers)

	g, gctx := errgroup.WithContext(ctx)
	for t := 0; t < workers; t++ {
		g.Go(func() error {
			for i := t; i < len(clusters); i += workers {
				if err := gctx.Err(); err != nil {
					return err
				}
				c := clusters[i]
				h, ok := MedoidFor(mode, e.table, idx, c.Members, e.opts.MinMedditSize, sigma, rngs.Stream(uint64(i)))
				if !ok {
					continue
				}
				keep[i] = true
				km := idx.At(h)
				if km.Text != c.Prototype.Text {
					c.Prototype = Prototype{Text: km.Text, Codes: km.Codes, Size: c.Prototype.Size}
					changed[t]++
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, st, err
	}

	out := clusters[:0:0]
	for i, c := range clusters {
		if keep[i] {
			out = append(out, c)
		}
	}
	for _, n := range changed {
		st.Changed += n
	}
	st.Updated = len(out)
	st.Dropped = len(clusters) - len(out)

	e.opts.Logger.DebugContext(ctx, "medoids updated",
		"mode", mode.String(),
		"updated", st.Updated,
		"changed", st.Changed,
		"dropped", st.Dropped,
	)
	return out, st, nil
}
