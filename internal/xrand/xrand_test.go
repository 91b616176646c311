package xrand

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func draw(s Source, ids ...uint64) []uint64 {
	r := s.Stream(ids...)
	out := make([]uint64, 8)
	for i := range out {
		out[i] = r.Uint64()
	}
	return out
}

func TestStreamReproducible(t *testing.T) {
	s := New(42)
	assert.Equal(t, draw(s, 1, 2), draw(New(42), 1, 2))
	assert.NotEqual(t, draw(s, 1, 2), draw(s, 2, 1))
	assert.NotEqual(t, draw(s, 0), draw(s, 1))
	assert.NotEqual(t, draw(s, 0), draw(New(43), 0))
}

func TestDerive(t *testing.T) {
	s := New(7)
	assert.Equal(t, draw(s.Derive(3), 0), draw(New(7).Derive(3), 0))
	assert.NotEqual(t, draw(s.Derive(3), 0), draw(s.Derive(4), 0))
}
