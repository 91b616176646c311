package rank

import (
	"fmt"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/aaclust/signature"
)

// Mode selects how signature similarity is computed.
type Mode int

const (
	// Merge walks the two ascending index lists.
	Merge Mode = iota
	// Bits intersects the bitmaps.
	Bits
)

func (m Mode) String() string {
	switch m {
	case Merge:
		return "merge"
	case Bits:
		return "bits"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses "merge" or "bits".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "merge", "":
		return Merge, nil
	case "bits":
		return Bits, nil
	}
	return 0, fmt.Errorf("rank: unknown mode %q", s)
}

// Similarity returns the Jaccard similarity of a and b.
func Similarity(mode Mode, a, b *signature.Signature) float64 {
	if mode == Bits {
		return BitsJaccard(a.Bits, b.Bits)
	}
	return MergeJaccard(a.Indices(), b.Indices())
}

// MergeJaccard returns |a ∩ b| / |a ∪ b| for ascending index lists. Two
// empty lists have similarity 0.
func MergeJaccard(a, b []uint32) float64 {
	i, j := 0, 0
	inter, union := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			i++
		case a[i] > b[j]:
			j++
		default:
			inter++
			i++
			j++
		}
		union++
	}
	union += len(a) - i + len(b) - j
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// BitsJaccard returns |a ∩ b| / |a ∪ b|. Two empty sets have similarity 0.
func BitsJaccard(a, b *roaring.Bitmap) float64 {
	union := a.OrCardinality(b)
	if union == 0 {
		return 0
	}
	return float64(a.AndCardinality(b)) / float64(union)
}
