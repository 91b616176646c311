package aaclust

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/aaclust/cluster"
	"github.com/hupe1980/aaclust/fasta"
	"github.com/hupe1980/aaclust/format"
)

func occurrences(ids ...string) []format.Occurrence {
	out := make([]format.Occurrence, len(ids))
	for i, id := range ids {
		out[i] = format.Occurrence{SeqID: id, Offset: i}
	}
	return out
}

func TestPickByClass(t *testing.T) {
	recs := []*fasta.Record{
		{ID: "a1", Classes: []string{"A"}},
		{ID: "a2", Classes: []string{"A"}},
		{ID: "b1", Classes: []string{"B"}},
		{ID: "ab", Classes: []string{"A", "B"}},
		{ID: "x"},
	}
	labels := ClassLabels(recs)
	require.Len(t, labels, 4)
	assert.NotContains(t, labels, "x")

	clusters := []format.ClusterRecord{
		{Prototype: "AAA", Members: [][]format.Occurrence{occurrences("a1", "a2", "a1")}},
		{Prototype: "BBB", Members: [][]format.Occurrence{occurrences("b1", "b1"), occurrences("b1")}},
		{Prototype: "CCC", Members: [][]format.Occurrence{occurrences("ab", "a1")}},
		{Prototype: "DDD", Members: [][]format.Occurrence{occurrences("x", "x", "x", "x", "x")}},
		{Prototype: "EEE", Members: [][]format.Occurrence{occurrences("ab", "b1")}},
	}
	protos := []cluster.Prototype{{Text: "CCC", Size: 42}}

	sel := PickByClass(clusters, protos, labels, 1)
	require.Len(t, sel.Clusters, 2)
	assert.Equal(t, "AAA", sel.Clusters[0].Prototype)
	assert.Equal(t, "BBB", sel.Clusters[1].Prototype)
	assert.Equal(t, 3, sel.Prototypes[0].Size)

	sel = PickByClass(clusters, protos, labels, 2)
	var got []string
	for _, c := range sel.Clusters {
		got = append(got, c.Prototype)
	}
	assert.Equal(t, []string{"AAA", "CCC", "BBB", "EEE"}, got)
	assert.Equal(t, 42, sel.Prototypes[1].Size)

	// A cluster picked for an earlier class is not repeated.
	sel = PickByClass(clusters, nil, labels, -1)
	got = got[:0]
	for _, c := range sel.Clusters {
		got = append(got, c.Prototype)
	}
	assert.Equal(t, []string{"AAA", "CCC", "EEE", "BBB"}, got)
	assert.Len(t, sel.Prototypes, 4)

	assert.Empty(t, PickByClass(clusters, nil, nil, 3).Clusters)
}

func TestPickLargestFirst(t *testing.T) {
	clusters := []format.ClusterRecord{
		{Prototype: "AAA", Members: [][]format.Occurrence{occurrences("s")}},
		{Prototype: "BBB", Members: [][]format.Occurrence{occurrences("s", "t", "u")}},
	}
	sel := Pick(clusters, nil, 1)
	require.Len(t, sel.Clusters, 1)
	assert.Equal(t, "BBB", sel.Clusters[0].Prototype)
	assert.Equal(t, cluster.Prototype{Text: "BBB", Size: 3}, sel.Prototypes[0])
}
