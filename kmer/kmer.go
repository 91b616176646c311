package kmer

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/aaclust/alphabet"
	"github.com/hupe1980/aaclust/internal/conv"
)

// ErrInvalidLength is returned for a non-positive k-mer length.
var ErrInvalidLength = errors.New("kmer: length must be positive")

// Encoder packs the codes of one k-mer into words.
// *distance.Table implements Encoder.
type Encoder interface {
	Alphabet() *alphabet.Alphabet
	EncodeKmer(codes []uint8, dst []uint32) []uint32
}

// Instance is one occurrence of a k-mer.
type Instance struct {
	Seq    int32
	Offset int32
}

// Kmer is a distinct k-mer.
type Kmer struct {
	Text      string
	Codes     []uint32
	Instances []Instance
	// Dist is the distance to the prototype of the cluster the k-mer was
	// assigned to, or -1 while unassigned.
	Dist int
}

// Encode packs text into words using enc. Undefined symbols map to the
// alphabet default.
func Encode(enc Encoder, text string) []uint32 {
	codes := enc.Alphabet().EncodeLenient([]byte(text), nil)
	return enc.EncodeKmer(codes, nil)
}

// Index holds the distinct k-mers of a collection.
type Index struct {
	k      int
	enc    Encoder
	kmers  []Kmer
	lookup map[string]int32
	codes  []uint8
	folded []byte
}

// NewIndex returns an empty index for k-mers of length k.
func NewIndex(k int, enc Encoder) (*Index, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLength, k)
	}
	return &Index{
		k:      k,
		enc:    enc,
		lookup: make(map[string]int32),
	}, nil
}

// Build indexes every k-mer of seqs. Sequence i is recorded as Seq i.
func Build(ctx context.Context, seqs [][]byte, k int, enc Encoder) (*Index, error) {
	idx, err := NewIndex(k, enc)
	if err != nil {
		return nil, err
	}
	for i, s := range seqs {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		seq, err := conv.IntToInt32(i)
		if err != nil {
			return nil, fmt.Errorf("kmer: sequence %d: %w", i, err)
		}
		idx.Add(seq, s)
	}
	return idx, nil
}

// Add indexes the k-mers of one sequence. Sequences shorter than k add
// nothing.
func (x *Index) Add(seq int32, residues []byte) {
	n := len(residues) - x.k + 1
	if n <= 0 {
		return
	}
	a := x.enc.Alphabet()
	x.codes = a.EncodeLenient(residues, x.codes)
	// Keys are case-folded so that "ab" and "AB" share one k-mer when the
	// alphabet does not distinguish them.
	x.folded = a.Fold(residues, x.folded)

	for off := 0; off < n; off++ {
		sub := x.folded[off : off+x.k]
		inst := Instance{Seq: seq, Offset: int32(off)}
		if h, ok := x.lookup[string(sub)]; ok {
			km := &x.kmers[h]
			km.Instances = append(km.Instances, inst)
			continue
		}
		text := string(sub)
		x.lookup[text] = int32(len(x.kmers))
		x.kmers = append(x.kmers, Kmer{
			Text:      text,
			Codes:     x.enc.EncodeKmer(x.codes[off:off+x.k], nil),
			Instances: []Instance{inst},
			Dist:      -1,
		})
	}
}

// K returns the k-mer length.
func (x *Index) K() int { return x.k }

// Encoder returns the word encoder.
func (x *Index) Encoder() Encoder { return x.enc }

// Len returns the number of distinct k-mers.
func (x *Index) Len() int { return len(x.kmers) }

// At returns the k-mer with handle h.
func (x *Index) At(h int32) *Kmer { return &x.kmers[h] }

// Lookup returns the handle of text, folding case like Add.
func (x *Index) Lookup(text string) (int32, bool) {
	h, ok := x.lookup[string(x.enc.Alphabet().Fold([]byte(text), nil))]
	return h, ok
}

// All returns the backing k-mer slice in first-occurrence order.
func (x *Index) All() []Kmer { return x.kmers }

// InstanceCount returns the total number of occurrences.
func (x *Index) InstanceCount() int {
	n := 0
	for i := range x.kmers {
		n += len(x.kmers[i].Instances)
	}
	return n
}

// Handles returns the handles 0..Len()-1.
func (x *Index) Handles() []int32 {
	hs := make([]int32, len(x.kmers))
	for i := range hs {
		hs[i] = int32(i)
	}
	return hs
}

// ResetAssignments marks every k-mer as unassigned.
func (x *Index) ResetAssignments() {
	for i := range x.kmers {
		x.kmers[i].Dist = -1
	}
}
