package rank

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/aaclust/signature"
	"github.com/hupe1980/aaclust/testutil"
)

func TestMergeMatchesBits(t *testing.T) {
	rng := testutil.NewRNG(7)
	for _, density := range []float64{0, 0.5, 1} {
		for i := 0; i < 50; i++ {
			a := signature.New("a", rng.Bits(300, density)...)
			b := signature.New("b", rng.Bits(300, density)...)

			merge := Similarity(Merge, a, b)
			bits := Similarity(Bits, a, b)
			assert.InDelta(t, bits, merge, 1e-9)
			assert.InDelta(t, testutil.Jaccard(a.Indices(), b.Indices()), merge, 1e-9)
		}
	}
}

func TestJaccardEdgeCases(t *testing.T) {
	assert.Zero(t, MergeJaccard(nil, nil))
	assert.Zero(t, MergeJaccard([]uint32{1, 2}, []uint32{3}))
	assert.Equal(t, 1.0, MergeJaccard([]uint32{1, 2}, []uint32{1, 2}))
	assert.InDelta(t, 1.0/3, MergeJaccard([]uint32{1, 2}, []uint32{2, 3}), 1e-12)

	assert.Zero(t, Similarity(Bits, signature.New("a"), signature.New("b")))
}

func TestNewIndex(t *testing.T) {
	db := []*signature.Signature{
		signature.New("x", 0, 4),
		signature.New("y"),
		signature.New("z", 4, 2),
	}
	x := NewIndex(db)
	assert.Equal(t, 3, x.Len())
	assert.Equal(t, []int32{0}, x.Postings(0))
	assert.Equal(t, []int32{2}, x.Postings(2))
	assert.Equal(t, []int32{0, 2}, x.Postings(4))
	assert.Empty(t, x.Postings(1))
	assert.Empty(t, x.Postings(99))
}

func TestRankOrdersByDistance(t *testing.T) {
	db := []*signature.Signature{
		signature.New("far", 1, 7, 8, 9),
		signature.New("exact", 1, 2, 3),
		signature.New("none", 10, 11),
		signature.New("near", 1, 2),
	}
	for _, mode := range []Mode{Merge, Bits} {
		r := NewRanker(NewIndex(db), WithMode(mode))
		res := r.RankOne(signature.New("q", 1, 2, 3))

		require.Len(t, res.Hits, 3)
		assert.Equal(t, "exact", res.Hits[0].ID)
		assert.InDelta(t, 0, res.Hits[0].Distance, 1e-12)
		assert.Equal(t, "near", res.Hits[1].ID)
		assert.InDelta(t, 1.0/3, res.Hits[1].Distance, 1e-12)
		assert.Equal(t, "far", res.Hits[2].ID)
		assert.InDelta(t, 1-1.0/6, res.Hits[2].Distance, 1e-12)
	}
}

func TestRankPadUnmatched(t *testing.T) {
	db := []*signature.Signature{
		signature.New("a", 5),
		signature.New("b", 1),
		signature.New("c", 6),
	}
	r := NewRanker(NewIndex(db), WithPadUnmatched(true), WithMaxResults(2))
	res := r.RankOne(signature.New("q", 1))

	require.Len(t, res.Hits, 2)
	assert.Equal(t, "b", res.Hits[0].ID)
	assert.Equal(t, "a", res.Hits[1].ID)
	assert.Equal(t, 1.0, res.Hits[1].Distance)

	// Without padding, disjoint entries are excluded.
	r = NewRanker(NewIndex(db), WithMaxResults(2))
	res = r.RankOne(signature.New("q", 1))
	require.Len(t, res.Hits, 1)
}

func TestRankEmptyQuery(t *testing.T) {
	db := []*signature.Signature{signature.New("a", 1)}
	res := NewRanker(NewIndex(db)).RankOne(signature.New("q"))
	assert.Empty(t, res.Hits)
}

func TestRankMatchesBruteForce(t *testing.T) {
	rng := testutil.NewRNG(3)
	var db, queries []*signature.Signature
	for i := 0; i < 200; i++ {
		db = append(db, signature.New(fmt.Sprintf("d%d", i), rng.Bits(128, 0.05)...))
	}
	for i := 0; i < 150; i++ {
		queries = append(queries, signature.New(fmt.Sprintf("q%d", i), rng.Bits(128, 0.05)...))
	}

	const k = 10
	r := NewRanker(NewIndex(db), WithMaxResults(k), WithWorkers(3))

	next := 0
	err := r.Rank(context.Background(), queries, func(res Result) error {
		require.Equal(t, next, res.QueryIndex)
		next++

		var want []float64
		for _, d := range db {
			sim := testutil.Jaccard(res.Query.Indices(), d.Indices())
			if sim > 0 {
				want = append(want, 1-sim)
			}
		}
		sort.Float64s(want)
		if len(want) > k {
			want = want[:k]
		}

		require.Len(t, res.Hits, len(want))
		for i, h := range res.Hits {
			assert.InDelta(t, want[i], h.Distance, 1e-9)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, len(queries), next)
}

func TestRankEmitError(t *testing.T) {
	db := []*signature.Signature{signature.New("a", 1)}
	queries := []*signature.Signature{signature.New("q", 1), signature.New("r", 1)}
	stop := errors.New("stop")

	calls := 0
	err := NewRanker(NewIndex(db)).Rank(context.Background(), queries, func(Result) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestRankCanceled(t *testing.T) {
	db := []*signature.Signature{signature.New("a", 1)}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewRanker(NewIndex(db)).Rank(ctx, []*signature.Signature{signature.New("q", 1)}, func(Result) error {
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{Merge, Bits} {
		parsed, err := ParseMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, parsed)
	}
	_, err := ParseMode("cosine")
	assert.Error(t, err)
}
