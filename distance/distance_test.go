package distance

import (
	"math/rand"
	"testing"

	"github.com/hupe1980/aaclust/alphabet"
	"github.com/hupe1980/aaclust/matrix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blosumTable(t *testing.T, typ Type, optFns ...TableOption) *Table {
	t.Helper()
	m, err := matrix.Blosum(62)
	require.NoError(t, err)
	alpha, err := alphabet.New(m.Symbols())
	require.NoError(t, err)
	cost, err := ForType(typ, m, alpha)
	require.NoError(t, err)
	table, err := NewTable(alpha, cost, optFns...)
	require.NoError(t, err)
	return table
}

func TestTypeString(t *testing.T) {
	for _, typ := range []Type{HalperinEtAl, UngappedEdit, BlosumDistance, Custom} {
		parsed, err := ParseType(typ.String())
		require.NoError(t, err)
		assert.Equal(t, typ, parsed)
	}
	_, err := ParseType("euclid")
	assert.Error(t, err)
	assert.Equal(t, "Unknown(9)", Type(9).String())
}

func TestForTypeRequiresMatrix(t *testing.T) {
	_, err := ForType(BlosumDistance, nil, alphabet.AA())
	assert.ErrorIs(t, err, ErrMatrixRequired)
	_, err = ForType(HalperinEtAl, nil, alphabet.AA())
	assert.ErrorIs(t, err, ErrMatrixRequired)
	cost, err := ForType(UngappedEdit, nil, alphabet.AA())
	require.NoError(t, err)
	assert.Equal(t, 1, cost(0, 1))
	assert.Equal(t, 0, cost(2, 2))
}

func TestOneSymbolTableMatchesCost(t *testing.T) {
	for _, typ := range []Type{BlosumDistance, HalperinEtAl, UngappedEdit} {
		t.Run(typ.String(), func(t *testing.T) {
			table := blosumTable(t, typ)
			n := table.Alphabet().Size()
			for a := 0; a < n; a++ {
				for b := 0; b < n; b++ {
					assert.Equal(t, table.Cost()(uint8(a), uint8(b)), table.Lookup(1, uint32(a), uint32(b)))
				}
			}
		})
	}
}

func TestBlosumDifferenceValues(t *testing.T) {
	table := blosumTable(t, BlosumDistance)
	alpha := table.Alphabet()
	a, _ := alpha.Code('a')
	w, _ := alpha.Code('w')
	// max(BLOSUM62) = 11
	assert.Equal(t, 7, table.Lookup(1, uint32(a), uint32(a)))
	assert.Equal(t, 0, table.Lookup(1, uint32(w), uint32(w)))
	assert.Equal(t, 14, table.Lookup(1, uint32(a), uint32(w)))
}

func TestDefaultWidthFollowsBudget(t *testing.T) {
	assert.Equal(t, 2, blosumTable(t, BlosumDistance).Width())
	assert.Equal(t, 1, blosumTable(t, BlosumDistance, WithMaxCells(24*24*24)).Width())

	dna, err := NewTable(alphabet.DNA(), Edit())
	require.NoError(t, err)
	assert.Equal(t, 3, dna.Width())

	_, err = NewTable(alphabet.AA(), Edit(), WithMaxCells(10))
	assert.ErrorIs(t, err, ErrTableTooLarge)

	_, err = NewTable(alphabet.AA(), Edit(), WithWordWidth(4))
	assert.ErrorIs(t, err, alphabet.ErrInvalidWordWidth)
}

func TestNegativeCostRejected(t *testing.T) {
	_, err := NewTable(alphabet.DNA(), func(a, b uint8) int { return int(a) - int(b) })
	assert.ErrorIs(t, err, ErrNegativeCost)

	_, err = NewTable(alphabet.DNA(), func(a, b uint8) int { return 1 << 20 })
	assert.ErrorIs(t, err, ErrCostOverflow)
}

func randomCodes(rng *rand.Rand, n, size int) []uint8 {
	codes := make([]uint8, n)
	for i := range codes {
		codes[i] = uint8(rng.Intn(size))
	}
	return codes
}

func TestComposedDistanceMatchesDirect(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	tables := map[string]*Table{
		"blosum/w1": blosumTable(t, BlosumDistance, WithWordWidth(1)),
		"blosum/w2": blosumTable(t, BlosumDistance, WithWordWidth(2)),
		"halperin":  blosumTable(t, HalperinEtAl),
	}
	dna, err := NewTable(alphabet.DNA(), Edit(), WithWordWidth(3))
	require.NoError(t, err)
	tables["dna/w3"] = dna

	for name, table := range tables {
		t.Run(name, func(t *testing.T) {
			size := table.Alphabet().Size()
			for k := 1; k <= 40; k++ {
				for trial := 0; trial < 5; trial++ {
					a := randomCodes(rng, k, size)
					b := randomCodes(rng, k, size)
					x := table.EncodeKmer(a, nil)
					y := table.EncodeKmer(b, nil)
					require.Len(t, x, table.Words(k))

					want := table.Direct(a, b)
					require.Equal(t, want, table.Distance(x, y, k), "k=%d", k)
					assert.Equal(t, table.Direct(a, a), table.Distance(x, x, k))
				}
			}
		})
	}
}

func TestIsWithin(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	table := blosumTable(t, BlosumDistance)
	size := table.Alphabet().Size()

	for k := 1; k <= 40; k++ {
		a := randomCodes(rng, k, size)
		b := randomCodes(rng, k, size)
		x := table.EncodeKmer(a, nil)
		y := table.EncodeKmer(b, nil)
		full := table.Distance(x, y, k)

		for _, threshold := range []int{0, full - 1, full, full + 1, 5 * k} {
			d, ok := table.IsWithin(x, y, k, threshold)
			assert.Equal(t, full <= threshold, ok, "k=%d threshold=%d", k, threshold)
			if ok {
				assert.Equal(t, full, d)
			} else {
				assert.Greater(t, d, threshold)
			}
		}
	}
}
