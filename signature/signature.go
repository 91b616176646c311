// Package signature encodes sequences as sets of codebook clusters.
//
// A signature has bit c set when the sequence contains a k-mer within the
// distance threshold of prototype c.
package signature

import (
	"github.com/RoaringBitmap/roaring/v2"
)

// Signature is the cluster set of one sequence.
type Signature struct {
	ID   string
	Bits *roaring.Bitmap
}

// New returns a signature with the given bits set.
func New(id string, bits ...uint32) *Signature {
	return &Signature{ID: id, Bits: roaring.BitmapOf(bits...)}
}

// Add sets bit.
func (s *Signature) Add(bit uint32) {
	s.Bits.Add(bit)
}

// Contains reports whether bit is set.
func (s *Signature) Contains(bit uint32) bool {
	return s.Bits.Contains(bit)
}

// Indices returns the set bits in ascending order.
func (s *Signature) Indices() []uint32 {
	return s.Bits.ToArray()
}

// Cardinality returns the number of set bits.
func (s *Signature) Cardinality() int {
	return int(s.Bits.GetCardinality())
}

// IsEmpty reports whether no bit is set.
func (s *Signature) IsEmpty() bool {
	return s.Bits.IsEmpty()
}

// Max returns the largest set bit and false for an empty signature.
func (s *Signature) Max() (uint32, bool) {
	if s.Bits.IsEmpty() {
		return 0, false
	}
	return s.Bits.Maximum(), true
}
