package fasta

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
>101|PF00001;PF00002|first
MKVL
AAG IV

>102|PF00003|second
QQQ
>103||empty classes
`

func TestReader(t *testing.T) {
	recs, err := NewReader(strings.NewReader(sample), WithClassIndex(1)).ReadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, "101", recs[0].ID)
	assert.Equal(t, "101|PF00001;PF00002|first", recs[0].DefLine)
	assert.Equal(t, []string{"PF00001", "PF00002"}, recs[0].Classes)
	assert.Equal(t, "MKVLAAGIV", string(recs[0].Residues))

	assert.Equal(t, "102", recs[1].ID)
	assert.Equal(t, []string{"PF00003"}, recs[1].Classes)
	assert.Equal(t, "QQQ", string(recs[1].Residues))

	assert.Equal(t, "103", recs[2].ID)
	assert.Empty(t, recs[2].Classes)
	assert.Empty(t, recs[2].Residues)
}

func TestReaderIDIndex(t *testing.T) {
	recs, err := NewReader(strings.NewReader(sample), WithIDIndex(2)).ReadAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first", recs[0].ID)
	assert.Nil(t, recs[0].Classes)

	_, err = NewReader(strings.NewReader(">a|b\nMK\n"), WithIDIndex(5)).Read()
	var idErr *ErrIDField
	require.ErrorAs(t, err, &idErr)
	assert.Equal(t, 1, idErr.Line)
}

func TestReaderNoDefLine(t *testing.T) {
	_, err := NewReader(strings.NewReader("MKV\n>a\nMK\n")).Read()
	assert.ErrorIs(t, err, ErrNoDefLine)
}

func TestReadAllCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewReader(strings.NewReader(sample)).ReadAll(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseGzip(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(sample))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	recs, err := Parse(context.Background(), &buf)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "QQQ", string(recs[1].Residues))
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.fa")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	recs, err := ReadFile(context.Background(), path, WithClassIndex(1))
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, [][]byte{[]byte("MKVLAAGIV"), []byte("QQQ"), nil}, Residues(recs))

	_, err = ReadFile(context.Background(), filepath.Join(t.TempDir(), "nope.fa"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestKmerCount(t *testing.T) {
	assert.Equal(t, 0, KmerCount(2, 3))
	assert.Equal(t, 1, KmerCount(3, 3))
	assert.Equal(t, 8, (&Record{Residues: []byte("MKVLAAGIVG")}).KmerCount(3))
}
