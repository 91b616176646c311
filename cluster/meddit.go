package cluster

import (
	"math"
	"math/rand/v2"

	"github.com/hupe1980/aaclust/distance"
	"github.com/hupe1980/aaclust/kmer"
)

// medditDelta is the per-arm error probability of the confidence bounds.
const medditDelta = 0.01

// MedoidMEDDIT estimates the medoid of members with the MEDDIT bandit
// procedure of Bagaria et al. Each member is an arm whose mean distance to
// the others is estimated from random samples. sigma scales the confidence
// intervals. A non-positive sigma falls back to the exact medoid.
func MedoidMEDDIT(table *distance.Table, idx *kmer.Index, members []int32, sigma float64, rng *rand.Rand) (int32, bool) {
	if sigma <= 0 {
		return Medoid(table, idx, members)
	}
	k := idx.K()
	i, ok := meddit(len(members), func(a, b int) int {
		return table.Distance(idx.At(members[a]).Codes, idx.At(members[b]).Codes, k)
	}, sigma, rng)
	if !ok {
		return 0, false
	}
	return members[i], true
}

// arms holds the running estimates of the mean distance of every arm.
type arms struct {
	mean   []float64
	count  []int
	lower  []float64
	upper  []float64
	exact  []bool
	sigma  float64
	factor float64
}

func (a *arms) conf(n int) float64 {
	return a.sigma * math.Sqrt(a.factor/float64(n))
}

func (a *arms) set(i int, mean float64, n int) {
	a.mean[i] = mean
	a.count[i] = n
	c := a.conf(n)
	a.lower[i] = mean - c
	a.upper[i] = mean + c
}

// meddit returns the index in [0, n) of the estimated medoid.
func meddit(n int, dist func(a, b int) int, sigma float64, rng *rand.Rand) (int, bool) {
	switch n {
	case 0:
		return 0, false
	case 1:
		return 0, true
	}

	a := &arms{
		mean:   make([]float64, n),
		count:  make([]int, n),
		lower:  make([]float64, n),
		upper:  make([]float64, n),
		exact:  make([]bool, n),
		sigma:  sigma,
		factor: 2 * math.Log(2/medditDelta),
	}

	other := func(i int) int {
		j := rng.IntN(n - 1)
		if j >= i {
			j++
		}
		return j
	}

	for i := 0; i < n; i++ {
		a.set(i, float64(dist(i, other(i))), 1)
	}

	for {
		turn := 0
		for i := 1; i < n; i++ {
			if a.lower[i] < a.lower[turn] {
				turn = i
			}
		}

		done := true
		for j := 0; j < n; j++ {
			if j != turn && a.lower[j] < a.upper[turn] {
				done = false
				break
			}
		}
		if done {
			return turn, true
		}

		if a.count[turn] < n-1 {
			d := float64(dist(turn, other(turn)))
			c := a.count[turn] + 1
			a.set(turn, a.mean[turn]+(d-a.mean[turn])/float64(c), c)
			continue
		}

		// Enough samples: evaluate the arm exactly and pin its interval.
		sum := 0
		for j := 0; j < n; j++ {
			if j != turn {
				sum += dist(turn, j)
			}
		}
		mean := float64(sum) / float64(n-1)
		a.mean[turn] = mean
		a.lower[turn] = mean
		a.upper[turn] = mean
		a.exact[turn] = true
	}
}

// medoidIndex is the exact counterpart of meddit over an abstract metric.
func medoidIndex(n int, dist func(a, b int) int) (int, bool) {
	if n == 0 {
		return 0, false
	}
	best, bestSum := 0, math.MaxInt
	for i := 0; i < n; i++ {
		sum := 0
		for j := 0; j < n; j++ {
			sum += dist(i, j)
		}
		if sum < bestSum {
			best, bestSum = i, sum
		}
	}
	return best, true
}
