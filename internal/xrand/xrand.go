// Package xrand derives independent, reproducible random streams from a
// single seed so that parallel workers never share a generator.
package xrand

import "math/rand/v2"

// golden is the 64-bit golden ratio used to spread stream ids.
const golden = 0x9e3779b97f4a7c15

// Source hands out deterministic generators for numbered streams.
type Source struct {
	seed uint64
}

// New returns a Source for seed.
func New(seed uint64) Source {
	return Source{seed: seed}
}

// Stream returns the generator for the given stream ids. The same seed and
// ids always yield the same sequence.
func (s Source) Stream(ids ...uint64) *rand.Rand {
	hi := s.seed
	lo := uint64(golden)
	for _, id := range ids {
		lo = mix(lo ^ (id+1)*golden)
		hi = mix(hi + lo)
	}
	return rand.New(rand.NewPCG(hi, lo))
}

// Derive returns a child Source whose streams are independent of the
// parent's.
func (s Source) Derive(id uint64) Source {
	return Source{seed: mix(s.seed ^ (id+1)*golden)}
}

// mix is the splitmix64 finalizer.
func mix(z uint64) uint64 {
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
