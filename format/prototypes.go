package format

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/hupe1980/aaclust/cluster"
	"github.com/hupe1980/aaclust/fasta"
	"github.com/hupe1980/aaclust/kmer"
)

// ProtoPrefix starts the id of every written prototype.
const ProtoPrefix = "proto_"

// WritePrototypes writes protos as FASTA. Prototypes of size zero are
// skipped; the rest are numbered from zero in order.
func WritePrototypes(w io.Writer, protos []cluster.Prototype) error {
	bw := bufio.NewWriter(w)
	serial := 0
	for _, p := range protos {
		if p.Size <= 0 {
			continue
		}
		_, _ = bw.WriteString(">" + ProtoPrefix)
		_, _ = bw.WriteString(strconv.Itoa(serial))
		_, _ = bw.WriteString("|size=")
		_, _ = bw.WriteString(strconv.Itoa(p.Size))
		_ = bw.WriteByte('\n')
		_, _ = bw.WriteString(p.Text)
		_ = bw.WriteByte('\n')
		serial++
	}
	return bw.Flush()
}

// ReadPrototypes parses a prototype FASTA file. When enc is non-nil the
// prototypes are encoded for distance evaluation.
func ReadPrototypes(ctx context.Context, r io.Reader, enc kmer.Encoder) ([]cluster.Prototype, error) {
	recs, err := fasta.NewReader(r).ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]cluster.Prototype, len(recs))
	for i, rec := range recs {
		text := string(rec.Residues)
		if enc != nil {
			out[i] = cluster.NewPrototype(enc, text, SizeOf(rec.DefLine))
		} else {
			out[i] = cluster.Prototype{Text: text, Size: SizeOf(rec.DefLine)}
		}
	}
	return out, nil
}

// SizeOf extracts the size=N attribute of a definition line. A missing or
// malformed attribute yields 0.
func SizeOf(defLine string) int {
	fields := strings.FieldsFunc(defLine, func(r rune) bool { return r == '|' || r == ';' })
	for _, f := range fields {
		key, value, ok := strings.Cut(f, "=")
		if !ok || strings.TrimSpace(key) != "size" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || n < 0 {
			return 0
		}
		return n
	}
	return 0
}
