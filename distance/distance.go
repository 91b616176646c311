// Package distance provides symbol cost functions and the precomputed word
// distance tables used to compare k-mers.
package distance

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/aaclust/alphabet"
	"github.com/hupe1980/aaclust/matrix"
)

// ErrMatrixRequired is returned when a matrix based distance type has no matrix.
var ErrMatrixRequired = errors.New("distance: similarity matrix required")

// Type identifies how symbol costs are derived.
type Type int

const (
	// HalperinEtAl is s(a,a) + s(b,b) - 2s(a,b).
	HalperinEtAl Type = iota
	// UngappedEdit counts mismatching positions.
	UngappedEdit
	// BlosumDistance is max(s) - s(a,b).
	BlosumDistance
	// Custom is BlosumDistance over a user supplied matrix.
	Custom
)

func (t Type) String() string {
	switch t {
	case HalperinEtAl:
		return "HalperinEtAl"
	case UngappedEdit:
		return "UngappedEdit"
	case BlosumDistance:
		return "BlosumDistance"
	case Custom:
		return "Custom"
	default:
		return fmt.Sprintf("Unknown(%d)", int(t))
	}
}

// ParseType parses the name of a distance type, ignoring case.
func ParseType(s string) (Type, error) {
	for _, t := range []Type{HalperinEtAl, UngappedEdit, BlosumDistance, Custom} {
		if strings.EqualFold(s, t.String()) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("distance: unknown type %q", s)
}

// CostFunc is the cost of aligning the symbols with codes a and b.
type CostFunc func(a, b uint8) int

// BlosumDifference returns max(m) - m(a,b) over the codes of alpha.
func BlosumDifference(m *matrix.Matrix, alpha *alphabet.Alphabet) CostFunc {
	top := m.MaxValue()
	return func(a, b uint8) int {
		return top - m.Similarity(alpha.Symbol(a), alpha.Symbol(b))
	}
}

// Halperin returns the distance of Halperin et al. over the codes of alpha.
func Halperin(m *matrix.Matrix, alpha *alphabet.Alphabet) CostFunc {
	return func(a, b uint8) int {
		x, y := alpha.Symbol(a), alpha.Symbol(b)
		return m.Similarity(x, x) + m.Similarity(y, y) - 2*m.Similarity(x, y)
	}
}

// Edit returns the unit mismatch cost.
func Edit() CostFunc {
	return func(a, b uint8) int {
		if a == b {
			return 0
		}
		return 1
	}
}

// ForType returns the cost function for t. m may be nil for UngappedEdit.
func ForType(t Type, m *matrix.Matrix, alpha *alphabet.Alphabet) (CostFunc, error) {
	switch t {
	case UngappedEdit:
		return Edit(), nil
	case HalperinEtAl:
		if m == nil {
			return nil, ErrMatrixRequired
		}
		return Halperin(m, alpha), nil
	case BlosumDistance, Custom:
		if m == nil {
			return nil, ErrMatrixRequired
		}
		return BlosumDifference(m, alpha), nil
	default:
		return nil, fmt.Errorf("distance: unsupported type %v", t)
	}
}
