package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequences(t *testing.T) {
	rng := NewRNG(4711)

	seqs := rng.Sequences(8, 10, 20, AminoAcids)

	require.Len(t, seqs, 8)
	for _, s := range seqs {
		assert.GreaterOrEqual(t, len(s), 10)
		assert.LessOrEqual(t, len(s), 20)
		for _, c := range s {
			assert.Contains(t, AminoAcids, string(c))
		}
	}
}

func TestReset(t *testing.T) {
	rng := NewRNG(4711)
	a := rng.Sequence(30, AminoAcids)
	rng.Reset()
	b := rng.Sequence(30, AminoAcids)
	assert.Equal(t, a, b)
	assert.Equal(t, int64(4711), rng.Seed())
}

func TestFamily(t *testing.T) {
	rng := NewRNG(4711)
	center := rng.Sequence(30, AminoAcids)

	family := rng.Family(center, 16, 3, AminoAcids)

	require.Len(t, family, 16)
	for _, s := range family {
		diff := 0
		for i := range s {
			if s[i] != center[i] {
				diff++
			}
		}
		assert.LessOrEqual(t, diff, 3)
	}
}

func TestBits(t *testing.T) {
	rng := NewRNG(4711)
	assert.Empty(t, rng.Bits(100, 0))
	assert.Len(t, rng.Bits(100, 1), 100)
}

func TestJaccard(t *testing.T) {
	assert.Equal(t, 0.0, Jaccard(nil, nil))
	assert.Equal(t, 1.0, Jaccard([]uint32{1, 2}, []uint32{1, 2}))
	assert.InDelta(t, 1.0/3.0, Jaccard([]uint32{1, 2}, []uint32{2, 3}), 1e-12)
}

func TestComputeRecall(t *testing.T) {
	assert.Equal(t, 1.0, ComputeRecall(nil, nil))
	assert.Equal(t, 0.5, ComputeRecall([]string{"a", "b"}, []string{"b", "c"}))
}
