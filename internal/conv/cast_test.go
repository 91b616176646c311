package conv

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIntToInt32(t *testing.T) {
	got, err := IntToInt32(math.MaxInt32)
	assert.NoError(t, err)
	assert.Equal(t, int32(math.MaxInt32), got)

	got, err = IntToInt32(-5)
	assert.NoError(t, err)
	assert.Equal(t, int32(-5), got)

	if strconv.IntSize == 64 {
		_, err = IntToInt32(math.MaxInt32 + 1)
		assert.Error(t, err)
	}
}

func TestIntToUint32(t *testing.T) {
	t.Run("valid zero", func(t *testing.T) {
		got, err := IntToUint32(0)
		assert.NoError(t, err)
		assert.Equal(t, uint32(0), got)
	})

	t.Run("invalid negative", func(t *testing.T) {
		_, err := IntToUint32(-1)
		assert.Error(t, err)
	})

	t.Run("too large", func(t *testing.T) {
		if strconv.IntSize < 64 {
			t.Skip("int is 32 bits")
		}
		_, err := IntToUint32(math.MaxUint32 + 1)
		assert.Error(t, err)
	})
}
