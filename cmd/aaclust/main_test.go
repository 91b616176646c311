package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/aaclust"
	"github.com/hupe1980/aaclust/format"
	"github.com/hupe1980/aaclust/testutil"
)

func run(t *testing.T, args ...string) (*app, string, error) {
	t.Helper()
	a := newApp()
	cmd := newRootCmd(a)
	var out, stderr bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return a, out.String(), err
}

func writeFasta(t *testing.T, dir string) string {
	t.Helper()
	rng := testutil.NewRNG(99)
	var b strings.Builder
	for f := 0; f < 3; f++ {
		center := rng.Sequence(30, testutil.AminoAcids)
		for i, seq := range rng.Family(center, 3, 2, testutil.AminoAcids) {
			fmt.Fprintf(&b, ">f%d_%d|fam%d\n%s\n", f, i, f, seq)
		}
	}
	path := filepath.Join(dir, "in.fa")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o600))
	return path
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func TestRootCmd_Definition(t *testing.T) {
	cmd := newRootCmd(newApp())
	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"cluster", "kmedoids", "encode", "rank", "pick", "latest", "version"})

	for _, name := range []string{"config", "log-format", "log-level", "progress", "metrics-addr"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}
}

func TestPipelineCommands(t *testing.T) {
	dir := t.TempDir()
	in := writeFasta(t, dir)
	path := func(name string) string { return filepath.Join(dir, name) }
	common := []string{"--k", "5", "--threshold", "1", "--distance", "UngappedEdit", "--log-level", "error"}

	_, _, err := run(t, append([]string{"cluster",
		"--fasta", in,
		"--clusters", "3",
		"--clusters-out", path("clusters.csv"),
		"--protos-out", path("protos.fa.zst"),
		"--catalog", path("catalog"),
	}, common...)...)
	require.NoError(t, err)

	clusters, err := format.ReadClusters(bytes.NewReader(readFile(t, path("clusters.csv"))))
	require.NoError(t, err)
	require.NotEmpty(t, clusters)

	_, _, err = run(t, append([]string{"encode",
		"--fasta", in,
		"--protos", path("protos.fa.zst"),
		"--out", path("sigs.txt"),
	}, common...)...)
	require.NoError(t, err)
	sigs, err := format.ReadSignatures(bytes.NewReader(readFile(t, path("sigs.txt"))))
	require.NoError(t, err)
	require.Len(t, sigs, 9)
	assert.Equal(t, "f0_0", sigs[0].ID)

	_, _, err = run(t, "rank",
		"--query", path("sigs.txt"),
		"--db", path("sigs.txt"),
		"--out", path("ranks.txt.gz"),
		"--log-level", "error",
	)
	require.NoError(t, err)
	rc, err := format.NewReader(bytes.NewReader(readFile(t, path("ranks.txt.gz"))), "ranks.txt.gz")
	require.NoError(t, err)
	rankings, err := format.ReadRankings(rc)
	require.NoError(t, err)
	require.Len(t, rankings, 9)
	assert.Equal(t, "f0_0", rankings[0].QueryID)

	_, _, err = run(t, "pick",
		"--clusters-in", path("clusters.csv"),
		"--protos-in", path("protos.fa.zst"),
		"--n", "2",
		"--clusters-out", path("top.csv"),
		"--protos-out", path("top.fa"),
		"--log-level", "error",
	)
	require.NoError(t, err)
	top, err := format.ReadClusters(bytes.NewReader(readFile(t, path("top.csv"))))
	require.NoError(t, err)
	assert.Len(t, top, min(2, len(clusters)))
	assert.Equal(t, 2, strings.Count(string(readFile(t, path("top.fa"))), ">"+format.ProtoPrefix))

	_, out, err := run(t, "latest", "--catalog", path("catalog"))
	require.NoError(t, err)
	assert.Contains(t, out, `"k": 5`)
	assert.Contains(t, out, `"version": 1`)
	assert.Contains(t, out, "protos.fa.zst")
}

func TestKMedoidsCommand(t *testing.T) {
	dir := t.TempDir()
	in := writeFasta(t, dir)
	protos := filepath.Join(dir, "protos.fa")

	_, _, err := run(t, "kmedoids",
		"--fasta", in,
		"--protos-out", protos,
		"--k", "5", "--threshold", "1", "--distance", "UngappedEdit",
		"--trials", "2", "--medoids", "exact",
		"--log-level", "error",
	)
	require.NoError(t, err)
	assert.Contains(t, string(readFile(t, protos)), ">"+format.ProtoPrefix+"0|size=")
}

func TestRepeatedProtosIn(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	in := writeFasta(t, dir)
	path := func(name string) string { return filepath.Join(dir, name) }
	common := []string{"--k", "5", "--threshold", "1", "--distance", "UngappedEdit", "--log-level", "error"}

	_, _, err := run(t, append([]string{"cluster",
		"--fasta", in,
		"--clusters", "3",
		"--clusters-out", path("clusters.csv"),
		"--protos-out", path("protos.fa"),
	}, common...)...)
	require.NoError(t, err)
	protos, err := format.ReadPrototypes(ctx, bytes.NewReader(readFile(t, path("protos.fa"))), nil)
	require.NoError(t, err)
	require.NotEmpty(t, protos)
	sizes := make(map[string]int, len(protos))
	for _, p := range protos {
		sizes[p.Text] = p.Size
	}

	// The same codebook given twice extends to one prototype per text.
	_, _, err = run(t, append([]string{"cluster",
		"--fasta", in,
		"--protos-in", path("protos.fa"),
		"--protos-in", path("protos.fa"),
		"--protos-out", path("extended.fa"),
	}, common...)...)
	require.NoError(t, err)
	extended, err := format.ReadPrototypes(ctx, bytes.NewReader(readFile(t, path("extended.fa"))), nil)
	require.NoError(t, err)
	assert.Len(t, extended, len(protos))

	_, _, err = run(t, "pick",
		"--clusters-in", path("clusters.csv"),
		"--protos-in", path("protos.fa"),
		"--protos-in", path("protos.fa"),
		"--fasta", in,
		"--class-index", "1",
		"--by-class",
		"--n", "1",
		"--clusters-out", path("top.csv"),
		"--protos-out", path("top.fa"),
		"--log-level", "error",
	)
	require.NoError(t, err)
	top, err := format.ReadClusters(bytes.NewReader(readFile(t, path("top.csv"))))
	require.NoError(t, err)
	assert.NotEmpty(t, top)
	assert.LessOrEqual(t, len(top), 3)
	picked, err := format.ReadPrototypes(ctx, bytes.NewReader(readFile(t, path("top.fa"))), nil)
	require.NoError(t, err)
	require.Len(t, picked, len(top))
	for i, p := range picked {
		assert.Equal(t, top[i].Prototype, p.Text)
		assert.Equal(t, 2*sizes[p.Text], p.Size, p.Text)
	}
}

func TestPickByClassNeedsLabels(t *testing.T) {
	dir := t.TempDir()
	in := writeFasta(t, dir)

	_, _, err := run(t, "pick", "--clusters-in", filepath.Join(dir, "c.csv"), "--by-class", "--fasta", in)
	var ce *aaclust.ErrConfig
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "class-index", ce.Field)

	_, _, err = run(t, "pick", "--clusters-in", filepath.Join(dir, "c.csv"), "--by-class", "--class-index", "1")
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "fasta", ce.Field)
}

func TestConfigFileUnderFlags(t *testing.T) {
	dir := t.TempDir()
	in := writeFasta(t, dir)
	protos := filepath.Join(dir, "protos.fa")
	cfgPath := filepath.Join(dir, "run.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
cluster:
  k: 5
  threshold: 1
  clusters: 3
distance:
  type: UngappedEdit
encode:
  mode: nearest
log:
  level: error
`), 0o600))

	_, _, err := run(t, "cluster", "--config", cfgPath, "--fasta", in, "--protos-out", protos)
	require.NoError(t, err)

	a, _, err := run(t, "encode", "--config", cfgPath,
		"--fasta", in, "--protos", protos, "--out", filepath.Join(dir, "sigs.txt"),
		"--threshold", "0",
	)
	require.NoError(t, err)
	assert.Equal(t, 5, a.cfg.Cluster.K)
	assert.Equal(t, 0, a.cfg.Cluster.Threshold)
	assert.Equal(t, "nearest", a.cfg.Encode.Mode)
	assert.Equal(t, "error", a.cfg.Log.Level)
}

func TestCommandErrors(t *testing.T) {
	dir := t.TempDir()
	in := writeFasta(t, dir)

	_, _, err := run(t, "cluster", "--fasta", in, "--clusters-out", in)
	var ow *aaclust.ErrOverwrite
	require.ErrorAs(t, err, &ow)
	assert.Equal(t, in, ow.Path)
	assert.Equal(t, 2, exitCode(err))

	_, _, err = run(t, "cluster", "--clusters-out", filepath.Join(dir, "c.csv"))
	var ce *aaclust.ErrConfig
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "fasta", ce.Field)

	_, _, err = run(t, "rank", "--query", "q", "--db", "d", "--out", "o", "--mode", "cosine")
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "rank.mode", ce.Field)

	_, _, err = run(t, "encode", "--fasta", in, "--protos", filepath.Join(dir, "missing.fa"), "--out", filepath.Join(dir, "s.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Equal(t, 1, exitCode(err))

	assert.Equal(t, 1, exitCode(errors.New("boom")))
}

func TestVersionCommand(t *testing.T) {
	_, out, err := run(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "aaclust dev"), out)
}
