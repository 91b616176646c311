package testutil

import (
	"math/rand"
	"slices"
	"sync"
)

// AminoAcids are the twenty standard residues.
const AminoAcids = "ARNDCQEGHILKMFPSTWYV"

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// Sequence returns a random sequence of the given length over symbols.
func (r *RNG) Sequence(length int, symbols string) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sequenceLocked(length, symbols)
}

func (r *RNG) sequenceLocked(length int, symbols string) []byte {
	s := make([]byte, length)
	for i := range s {
		s[i] = symbols[r.rand.Intn(len(symbols))]
	}
	return s
}

// Sequences generates num random sequences with lengths in [minLen, maxLen].
func (r *RNG) Sequences(num, minLen, maxLen int, symbols string) [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([][]byte, num)
	for i := range out {
		n := minLen
		if maxLen > minLen {
			n += r.rand.Intn(maxLen - minLen + 1)
		}
		out[i] = r.sequenceLocked(n, symbols)
	}
	return out
}

// Mutate returns a copy of seq with up to mutations random substitutions.
// A substitution may pick the original symbol.
func (r *RNG) Mutate(seq []byte, mutations int, symbols string) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mutateLocked(seq, mutations, symbols)
}

func (r *RNG) mutateLocked(seq []byte, mutations int, symbols string) []byte {
	out := slices.Clone(seq)
	for i := 0; i < mutations && len(out) > 0; i++ {
		out[r.rand.Intn(len(out))] = symbols[r.rand.Intn(len(symbols))]
	}
	return out
}

// Family generates num variants of center, each with up to maxMutations
// substitutions. The result is the family of a synthetic cluster.
func (r *RNG) Family(center []byte, num, maxMutations int, symbols string) [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([][]byte, num)
	for i := range out {
		out[i] = r.mutateLocked(center, r.rand.Intn(maxMutations+1), symbols)
	}
	return out
}

// Bits returns the ascending set bits of a random subset of [0, universe)
// in which every bit is set with probability density.
func (r *RNG) Bits(universe int, density float64) []uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	var bits []uint32
	for i := 0; i < universe; i++ {
		if r.rand.Float64() < density {
			bits = append(bits, uint32(i))
		}
	}
	return bits
}

// Jaccard is the reference set similarity of two ascending bit lists.
// Two empty lists have similarity 0.
func Jaccard(a, b []uint32) float64 {
	set := make(map[uint32]struct{}, len(a))
	for _, x := range a {
		set[x] = struct{}{}
	}
	inter := 0
	for _, x := range b {
		if _, ok := set[x]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// ComputeRecall computes the fraction of the ground truth ids found in the
// approximate result.
func ComputeRecall(groundTruth, approximate []string) float64 {
	if len(groundTruth) == 0 {
		return 1
	}
	found := make(map[string]struct{}, len(approximate))
	for _, id := range approximate {
		found[id] = struct{}{}
	}
	hits := 0
	for _, id := range groundTruth {
		if _, ok := found[id]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(groundTruth))
}
