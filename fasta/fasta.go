package fasta

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/hupe1980/aaclust/internal/mmap"
)

const maxLineSize = 64 << 20

// ErrNoDefLine is returned when residues appear before the first '>' line.
var ErrNoDefLine = errors.New("fasta: sequence data before first definition line")

// ErrIDField reports a definition line without the configured id field.
type ErrIDField struct {
	Line    int
	IDIndex int
}

func (e *ErrIDField) Error() string {
	return fmt.Sprintf("fasta: line %d: definition line has no field %d", e.Line, e.IDIndex)
}

// Record is one sequence.
type Record struct {
	ID       string
	DefLine  string
	Classes  []string
	Residues []byte
}

// KmerCount returns the number of k-mers in a sequence of length n.
func KmerCount(n, k int) int {
	return max(0, n-k+1)
}

// KmerCount returns the number of k-mers of length k in the record.
func (r *Record) KmerCount(k int) int {
	return KmerCount(len(r.Residues), k)
}

type options struct {
	idIndex    int
	classIndex int
}

// Option configures a Reader.
type Option func(*options)

// WithIDIndex selects the 0-based '|' field holding the sequence id.
func WithIDIndex(i int) Option {
	return func(o *options) {
		o.idIndex = i
	}
}

// WithClassIndex selects the 0-based '|' field holding class labels.
// A negative index disables class parsing.
func WithClassIndex(i int) Option {
	return func(o *options) {
		o.classIndex = i
	}
}

// Reader reads FASTA records.
type Reader struct {
	sc      *bufio.Scanner
	opts    options
	lineNo  int
	pending string
	havePen bool
	done    bool
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader, optFns ...Option) *Reader {
	opts := options{classIndex: -1}
	for _, fn := range optFns {
		fn(&opts)
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Reader{sc: sc, opts: opts}
}

// Read returns the next record, or io.EOF when the input is exhausted.
func (r *Reader) Read() (*Record, error) {
	if r.done {
		return nil, io.EOF
	}

	if !r.havePen {
		for r.sc.Scan() {
			r.lineNo++
			line := strings.TrimSpace(r.sc.Text())
			if line == "" {
				continue
			}
			if line[0] != '>' {
				return nil, fmt.Errorf("%w (line %d)", ErrNoDefLine, r.lineNo)
			}
			r.pending = line[1:]
			r.havePen = true
			break
		}
		if !r.havePen {
			r.done = true
			if err := r.sc.Err(); err != nil {
				return nil, err
			}
			return nil, io.EOF
		}
	}

	rec, err := r.parseDefLine(r.pending, r.lineNo)
	if err != nil {
		return nil, err
	}
	r.havePen = false

	var residues bytes.Buffer
	for r.sc.Scan() {
		r.lineNo++
		line := r.sc.Bytes()
		if len(line) > 0 && line[0] == '>' {
			r.pending = strings.TrimSpace(string(line[1:]))
			r.havePen = true
			break
		}
		for _, c := range line {
			if c > ' ' {
				residues.WriteByte(c)
			}
		}
	}
	if err := r.sc.Err(); err != nil {
		return nil, err
	}
	if !r.havePen {
		r.done = true
	}

	rec.Residues = residues.Bytes()
	return rec, nil
}

func (r *Reader) parseDefLine(def string, lineNo int) (*Record, error) {
	fields := strings.Split(def, "|")
	if r.opts.idIndex < 0 || r.opts.idIndex >= len(fields) {
		return nil, &ErrIDField{Line: lineNo, IDIndex: r.opts.idIndex}
	}
	rec := &Record{
		ID:      strings.TrimSpace(fields[r.opts.idIndex]),
		DefLine: def,
	}
	if ci := r.opts.classIndex; ci >= 0 && ci < len(fields) {
		for _, c := range strings.Split(fields[ci], ";") {
			if c = strings.TrimSpace(c); c != "" {
				rec.Classes = append(rec.Classes, c)
			}
		}
	}
	return rec, nil
}

// ReadAll reads all remaining records. ctx is checked between records.
func (r *Reader) ReadAll(ctx context.Context) ([]*Record, error) {
	var recs []*Record
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return recs, nil
		}
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
}

// Decompress returns r unchanged unless it starts with the gzip magic bytes,
// in which case a gzip reader is returned.
func Decompress(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(2)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		return gzip.NewReader(br)
	}
	return br, nil
}

// Parse reads all records from r, decompressing gzip input.
func Parse(ctx context.Context, r io.Reader, optFns ...Option) ([]*Record, error) {
	dr, err := Decompress(r)
	if err != nil {
		return nil, err
	}
	return NewReader(dr, optFns...).ReadAll(ctx)
}

// ReadFile reads all records of a local file.
func ReadFile(ctx context.Context, path string, optFns ...Option) ([]*Record, error) {
	f, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	recs, err := Parse(ctx, f.Reader(), optFns...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return recs, nil
}

// Residues returns the residue strings of recs.
func Residues(recs []*Record) [][]byte {
	out := make([][]byte, len(recs))
	for i, r := range recs {
		out[i] = r.Residues
	}
	return out
}
