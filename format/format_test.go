package format

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/aaclust/alphabet"
	"github.com/hupe1980/aaclust/cluster"
	"github.com/hupe1980/aaclust/distance"
	"github.com/hupe1980/aaclust/kmer"
	"github.com/hupe1980/aaclust/rank"
	"github.com/hupe1980/aaclust/signature"
)

func abTable(t *testing.T) *distance.Table {
	t.Helper()
	alpha, err := alphabet.New("AB")
	require.NoError(t, err)
	table, err := distance.NewTable(alpha, distance.Edit())
	require.NoError(t, err)
	return table
}

func TestWriteClusters(t *testing.T) {
	table := abTable(t)
	idx, err := kmer.Build(context.Background(), [][]byte{[]byte("AAB"), []byte("AAA")}, 2, table)
	require.NoError(t, err)

	aa, ok := idx.Lookup("AA")
	require.True(t, ok)
	ab, ok := idx.Lookup("AB")
	require.True(t, ok)

	c := cluster.New(cluster.PrototypeOf(idx.At(aa)), 2)
	c.Add(aa)
	c.Add(ab)
	empty := cluster.New(cluster.PrototypeOf(idx.At(ab)), 0)

	var buf bytes.Buffer
	require.NoError(t, WriteClusters(&buf, idx, []*cluster.Cluster{c, empty}, []string{"s1", "s2"}))
	assert.Equal(t, "Cluster,2,AA\ns1:0;s2:0;s2:1\ns1:1\n", buf.String())

	recs, err := ReadClusters(&buf)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "AA", recs[0].Prototype)
	assert.Equal(t, 4, recs[0].InstanceCount())
	assert.Equal(t, []Occurrence{{SeqID: "s1", Offset: 1}}, recs[0].Members[1])
}

func TestReadClusters(t *testing.T) {
	in := "Cluster,1,ABC\nsp|P1:3;sp|P2:0;\n\nCluster,0,XYZ\nCluster,2,DEF\nq:1\nq:2\n"
	recs, err := ReadClusters(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, []Occurrence{{"sp|P1", 3}, {"sp|P2", 0}}, recs[0].Members[0])
	assert.Empty(t, recs[1].Members)
	assert.Equal(t, 2, recs[2].InstanceCount())

	largest := LargestClusters(recs, 2)
	require.Len(t, largest, 2)
	assert.Equal(t, "ABC", largest[0].Prototype)
	assert.Equal(t, "DEF", largest[1].Prototype)

	var buf bytes.Buffer
	require.NoError(t, WriteClusterRecords(&buf, largest[:1]))
	assert.Equal(t, "Cluster,1,ABC\nsp|P1:3;sp|P2:0\n", buf.String())
}

func TestReadClustersMalformed(t *testing.T) {
	for _, in := range []string{
		"Cluster,x,AB\n",
		"Group,1,AB\nq:1\n",
		"Cluster,2,AB\nq:1\n",
		"Cluster,1,AB\nq\n",
	} {
		_, err := ReadClusters(strings.NewReader(in))
		assert.ErrorIs(t, err, ErrClusterFile, in)
	}
}

func TestPrototypes(t *testing.T) {
	table := abTable(t)
	protos := []cluster.Prototype{
		{Text: "AAB", Size: 3},
		{Text: "BBB", Size: 0},
		{Text: "ABA", Size: 12},
	}

	var buf bytes.Buffer
	require.NoError(t, WritePrototypes(&buf, protos))
	assert.Equal(t, ">proto_0|size=3\nAAB\n>proto_1|size=12\nABA\n", buf.String())

	got, err := ReadPrototypes(context.Background(), &buf, table)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "ABA", got[1].Text)
	assert.Equal(t, 12, got[1].Size)
	assert.Equal(t, kmer.Encode(table, "ABA"), got[1].Codes)
}

func TestSizeOf(t *testing.T) {
	tests := []struct {
		defLine string
		want    int
	}{
		{"proto_1|size=42", 42},
		{"proto_1|PF0001|size=7", 7},
		{"proto_1;size = 5", 5},
		{"proto_2| size =9", 9},
		{"proto_1", 0},
		{"proto_1|size=abc", 0},
		{"proto_1|maxsize=3", 0},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, SizeOf(tc.defLine), tc.defLine)
	}
}

func TestSignatures(t *testing.T) {
	sigs := []*signature.Signature{
		signature.New("q1", 7, 2, 40),
		signature.New("q2"),
	}
	var buf bytes.Buffer
	require.NoError(t, WriteSignatures(&buf, sigs))
	assert.Equal(t, "q1 2 7 40\nq2\n", buf.String())

	got, err := ReadSignatures(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []uint32{2, 7, 40}, got[0].Indices())
	assert.True(t, got[1].IsEmpty())

	_, err = ReadSignatures(strings.NewReader("q 1 x\n"))
	assert.ErrorIs(t, err, ErrSignatureFile)
}

func TestRankWriter(t *testing.T) {
	var buf bytes.Buffer
	rw := NewRankWriter(&buf)
	require.NoError(t, rw.Write(rank.Result{
		Query: signature.New("q"),
		Hits: []rank.Hit{
			{ID: "a", Distance: 0.25},
			{ID: "b", Distance: 1},
		},
	}))
	require.NoError(t, rw.Write(rank.Result{Query: signature.New("r")}))
	require.NoError(t, rw.Flush())

	assert.Equal(t, "q a -0.25 b -1 ___eol___ -100000\nr ___eol___ -100000\n", buf.String())

	got, err := ReadRankings(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []RankedHit{{"a", -0.25}, {"b", -1}}, got[0].Hits)
	assert.Empty(t, got[1].Hits)

	_, err = ReadRankings(strings.NewReader("q a\n"))
	assert.ErrorIs(t, err, ErrRankingFile)
}

func TestCompressionRoundTrip(t *testing.T) {
	payload := strings.Repeat("Cluster,1,ACDEFG\nseq:1\n", 200)
	for _, name := range []string{"out.txt", "out.zst", "out.lz4", "out.gz"} {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			w, err := NewWriter(&buf, name)
			require.NoError(t, err)
			_, err = w.Write([]byte(payload))
			require.NoError(t, err)
			require.NoError(t, w.Close())

			if CompressionFor(name) != CompressionNone {
				assert.Less(t, buf.Len(), len(payload))
			}

			r, err := NewReader(&buf, name)
			require.NoError(t, err)
			recs, err := ReadClusters(r)
			require.NoError(t, err)
			assert.Len(t, recs, 200)
			require.NoError(t, r.Close())
		})
	}
}

func TestCompressionFor(t *testing.T) {
	assert.Equal(t, CompressionZSTD, CompressionFor("a/b.ZST"))
	assert.Equal(t, CompressionLZ4, CompressionFor("x.lz4"))
	assert.Equal(t, CompressionGzip, CompressionFor("x.fa.gz"))
	assert.Equal(t, CompressionNone, CompressionFor("x.fa"))
	assert.Equal(t, "zstd", CompressionZSTD.String())
}
