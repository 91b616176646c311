package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 30, cfg.Cluster.K)
	assert.Equal(t, -1, cfg.Sequences.ClassIndex)
	assert.Equal(t, "none", cfg.Cluster.Medoids)
	assert.Equal(t, 1000, cfg.Rank.MaxResults)
	assert.Equal(t, "off", cfg.Progress)
	assert.Equal(t, "meddit", cfg.KMedoids.Medoids)
}

func TestDecodeOverlaysDefaults(t *testing.T) {
	in := `
cluster:
  k: 12
  threshold: 20
  medoids: meddit
rank:
  pad_unmatched: true
log:
  format: json
`
	cfg, err := Decode(strings.NewReader(in))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 12, cfg.Cluster.K)
	assert.Equal(t, 20, cfg.Cluster.Threshold)
	assert.Equal(t, "meddit", cfg.Cluster.Medoids)
	assert.True(t, cfg.Rank.PadUnmatched)
	assert.Equal(t, "json", cfg.Log.Format)
	// Untouched keys keep defaults.
	assert.Equal(t, 40, cfg.KMedoids.Trials)
	assert.Equal(t, "HalperinEtAl", cfg.Distance.Type)
}

func TestDecodeEmpty(t *testing.T) {
	cfg, err := Decode(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestDecodeRejectsUnknownKeys(t *testing.T) {
	_, err := Decode(strings.NewReader("cluster:\n  kmer_length: 5\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Cluster.K = 0
	cfg.Cluster.Medoids = "median"
	cfg.Rank.Mode = "cosine"
	cfg.Distance.Type = "Custom"
	cfg.Log.Level = "trace"
	cfg.Progress = "spinner"

	err := cfg.Validate()
	require.Error(t, err)

	var fields []string
	for _, e := range err.(interface{ Unwrap() []error }).Unwrap() {
		var ve *ValidationError
		require.True(t, errors.As(e, &ve))
		fields = append(fields, ve.Field)
	}
	assert.ElementsMatch(t, []string{
		"cluster.k", "cluster.medoids", "rank.mode", "distance.matrix_file", "log.level", "progress",
	}, fields)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte("encode:\n  mode: nearest\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "nearest", cfg.Encode.Mode)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
