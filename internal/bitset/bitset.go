package bitset

// BitSet is a fixed-size set of small integers.
type BitSet struct {
	words   []uint64
	touched []uint32
}

// New creates a new BitSet with the given size (in bits).
func New(size uint64) *BitSet {
	return &BitSet{words: make([]uint64, (size+63)/64)}
}

// TestAndSet sets the bit at the given index and returns true if it was ALREADY set.
//
// Bits are only cleared by ClearAll, so a word is recorded as touched
// exactly once per reset cycle.
func (b *BitSet) TestAndSet(i uint64) bool {
	w := i >> 6
	mask := uint64(1) << (i & 63)
	old := b.words[w]
	if old&mask != 0 {
		return true
	}
	if old == 0 {
		b.touched = append(b.touched, uint32(w))
	}
	b.words[w] = old | mask
	return false
}

// Test returns true if the bit at the given index is set.
func (b *BitSet) Test(i uint64) bool {
	return b.words[i>>6]&(uint64(1)<<(i&63)) != 0
}

// ClearAll clears every bit set since the last ClearAll.
func (b *BitSet) ClearAll() {
	for _, w := range b.touched {
		b.words[w] = 0
	}
	b.touched = b.touched[:0]
}
