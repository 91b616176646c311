package distance

import (
	"errors"
	"fmt"
	"math"

	"github.com/hupe1980/aaclust/alphabet"
)

// DefaultMaxCells bounds the size of the widest table built by default.
const DefaultMaxCells = 1 << 26

var (
	// ErrNegativeCost is returned when a cost function yields a negative value.
	ErrNegativeCost = errors.New("distance: negative symbol cost")

	// ErrCostOverflow is returned when a word distance does not fit a table cell.
	ErrCostOverflow = errors.New("distance: symbol cost too large")

	// ErrTableTooLarge is returned when no word width fits the cell budget.
	ErrTableTooLarge = errors.New("distance: table exceeds cell budget")
)

// TableOptions configures table construction.
type TableOptions struct {
	// WordWidth is the widest block composed from a single lookup.
	// Zero selects the widest width whose table fits MaxCells.
	WordWidth int

	// MaxCells limits the number of cells of an automatically sized table.
	MaxCells int
}

// TableOption mutates TableOptions.
type TableOption func(*TableOptions)

// WithWordWidth fixes the block width.
func WithWordWidth(w int) TableOption {
	return func(o *TableOptions) {
		o.WordWidth = w
	}
}

// WithMaxCells sets the cell budget used to pick the block width.
func WithMaxCells(n int) TableOption {
	return func(o *TableOptions) {
		o.MaxCells = n
	}
}

// Table holds precomputed distances between all pairs of words of width
// 1..Width(). Cell (i, j) of the width-w table is the summed symbol cost of
// the decoded words i and j.
//
// A Table is read-only after construction and safe for concurrent use.
type Table struct {
	alpha  *alphabet.Alphabet
	cost   CostFunc
	width  int
	space  [alphabet.MaxWordWidth + 1]int
	tables [alphabet.MaxWordWidth + 1][]uint16
}

// NewTable builds the distance tables for alpha under cost.
func NewTable(alpha *alphabet.Alphabet, cost CostFunc, optFns ...TableOption) (*Table, error) {
	opts := TableOptions{MaxCells: DefaultMaxCells}
	for _, fn := range optFns {
		fn(&opts)
	}

	t := &Table{alpha: alpha, cost: cost}
	for w := 1; w <= alphabet.MaxWordWidth; w++ {
		t.space[w] = alpha.WordSpace(w)
	}

	if opts.WordWidth != 0 {
		if err := alphabet.ValidateWordWidth(opts.WordWidth); err != nil {
			return nil, err
		}
		t.width = opts.WordWidth
	} else {
		for w := alphabet.MaxWordWidth; w >= 1; w-- {
			if t.space[w]*t.space[w] <= opts.MaxCells {
				t.width = w
				break
			}
		}
		if t.width == 0 {
			return nil, ErrTableTooLarge
		}
	}

	if err := t.build(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Table) build() error {
	n := t.space[1]
	limit := math.MaxUint16 / alphabet.MaxWordWidth

	t1 := make([]uint16, n*n)
	for a := 0; a < n; a++ {
		for b := 0; b < n; b++ {
			c := t.cost(uint8(a), uint8(b))
			if c < 0 {
				return fmt.Errorf("%w: cost(%q, %q) = %d", ErrNegativeCost, t.alpha.Symbol(uint8(a)), t.alpha.Symbol(uint8(b)), c)
			}
			if c > limit {
				return fmt.Errorf("%w: cost(%q, %q) = %d", ErrCostOverflow, t.alpha.Symbol(uint8(a)), t.alpha.Symbol(uint8(b)), c)
			}
			t1[a*n+b] = uint16(c)
		}
	}
	t.tables[1] = t1

	// Word i of width w is prefix*n + last, so each cell extends the cell of
	// the two prefixes in the table of width w-1 by the cost of the last pair.
	for w := 2; w <= t.width; w++ {
		prev := t.tables[w-1]
		prevSpace := t.space[w-1]
		space := t.space[w]
		cur := make([]uint16, space*space)
		for i := 0; i < space; i++ {
			pi, li := i/n, i%n
			row := cur[i*space : (i+1)*space]
			prevRow := prev[pi*prevSpace : (pi+1)*prevSpace]
			lastRow := t1[li*n : (li+1)*n]
			for j := range row {
				row[j] = prevRow[j/n] + lastRow[j%n]
			}
		}
		t.tables[w] = cur
	}
	return nil
}

// Alphabet returns the alphabet the table was built for.
func (t *Table) Alphabet() *alphabet.Alphabet { return t.alpha }

// Width returns the block width used to compose k-mer distances.
func (t *Table) Width() int { return t.width }

// Cost returns the symbol cost function.
func (t *Table) Cost() CostFunc { return t.cost }

// Lookup returns the distance between words i and j of width w.
func (t *Table) Lookup(w int, i, j uint32) int {
	return int(t.tables[w][int(i)*t.space[w]+int(j)])
}

// Words returns the number of packed words of a k-mer of length k.
func (t *Table) Words(k int) int {
	n := k / t.width
	if k%t.width != 0 {
		n++
	}
	return n
}

// EncodeKmer packs the k codes into k/Width() full words followed by at most
// one remainder word, appending to dst[:0].
func (t *Table) EncodeKmer(codes []uint8, dst []uint32) []uint32 {
	dst = dst[:0]
	k := len(codes)
	p := 0
	for ; p+t.width <= k; p += t.width {
		dst = append(dst, t.alpha.Pack(codes[p:p+t.width]))
	}
	if p < k {
		dst = append(dst, t.alpha.Pack(codes[p:]))
	}
	return dst
}

// Distance returns the distance between two encoded k-mers of length k.
func (t *Table) Distance(x, y []uint32, k int) int {
	full := k / t.width
	tw := t.tables[t.width]
	sw := t.space[t.width]

	d := 0
	for i := 0; i < full; i++ {
		d += int(tw[int(x[i])*sw+int(y[i])])
	}
	if r := k % t.width; r != 0 {
		d += int(t.tables[r][int(x[full])*t.space[r]+int(y[full])])
	}
	return d
}

// IsWithin reports whether the distance between x and y is at most
// threshold. It stops as soon as the partial sum exceeds threshold. When it
// reports true the returned distance equals Distance(x, y, k).
func (t *Table) IsWithin(x, y []uint32, k int, threshold int) (int, bool) {
	full := k / t.width
	tw := t.tables[t.width]
	sw := t.space[t.width]

	d := 0
	for i := 0; i < full; i++ {
		d += int(tw[int(x[i])*sw+int(y[i])])
		if d > threshold {
			return d, false
		}
	}
	if r := k % t.width; r != 0 {
		d += int(t.tables[r][int(x[full])*t.space[r]+int(y[full])])
		if d > threshold {
			return d, false
		}
	}
	return d, true
}

// Direct sums the symbol cost over aligned positions of a and b without
// using the tables.
func (t *Table) Direct(a, b []uint8) int {
	d := 0
	for i := range a {
		d += t.cost(a[i], b[i])
	}
	return d
}
