package alphabet

import "sync"

// AASymbols are the amino-acid symbols in BLOSUM column order.
const AASymbols = "ARNDCQEGHILKMFPSTWYVBZX*"

// DNASymbols are the nucleotide symbols.
const DNASymbols = "ACGT"

var (
	aaOnce  sync.Once
	aa      *Alphabet
	dnaOnce sync.Once
	dna     *Alphabet
)

// AA returns the shared amino-acid alphabet.
func AA() *Alphabet {
	aaOnce.Do(func() {
		aa = MustNew(AASymbols)
	})
	return aa
}

// DNA returns the shared nucleotide alphabet.
func DNA() *Alphabet {
	dnaOnce.Do(func() {
		dna = MustNew(DNASymbols, WithDefaultSymbol('a'))
	})
	return dna
}
