package alphabet

import (
	"errors"
	"fmt"
	"strings"
)

// MaxWordWidth is the widest tuple that can be packed into a single word.
const MaxWordWidth = 3

var (
	// ErrEmpty is returned when an alphabet has no symbols.
	ErrEmpty = errors.New("alphabet: no symbols")

	// ErrTooLarge is returned when an alphabet has more symbols than a code can hold.
	ErrTooLarge = errors.New("alphabet: more than 255 symbols")

	// ErrDuplicateSymbol is returned when a symbol occurs twice.
	ErrDuplicateSymbol = errors.New("alphabet: duplicate symbol")

	// ErrInvalidWordWidth is returned for word widths outside [1, MaxWordWidth].
	ErrInvalidWordWidth = errors.New("alphabet: invalid word width")
)

// ErrUndefinedSymbol reports a symbol that is not part of the alphabet.
type ErrUndefinedSymbol struct {
	Symbol   byte
	Position int
}

func (e *ErrUndefinedSymbol) Error() string {
	return fmt.Sprintf("alphabet: undefined symbol %q at position %d", e.Symbol, e.Position)
}

// Alphabet maps symbols to dense integer codes 0..Size()-1.
//
// An Alphabet is immutable after construction and safe for concurrent use.
type Alphabet struct {
	symbols       []byte
	inverse       [256]uint8
	defined       [256]bool
	caseSensitive bool
	defaultCode   uint8
	powers        [MaxWordWidth + 1]uint32
}

type options struct {
	caseSensitive bool
	defaultSymbol byte
}

// Option configures an Alphabet.
type Option func(*options)

// WithCaseSensitive disables case folding of symbols.
func WithCaseSensitive() Option {
	return func(o *options) {
		o.caseSensitive = true
	}
}

// WithDefaultSymbol sets the symbol that undefined input maps to.
// When unset, 'x' is used if it is defined, otherwise the first symbol.
func WithDefaultSymbol(s byte) Option {
	return func(o *options) {
		o.defaultSymbol = s
	}
}

// New creates an alphabet from an ordered symbol string.
func New(symbols string, optFns ...Option) (*Alphabet, error) {
	opts := options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	if len(symbols) == 0 {
		return nil, ErrEmpty
	}
	if len(symbols) > 255 {
		return nil, ErrTooLarge
	}

	a := &Alphabet{caseSensitive: opts.caseSensitive}
	for i := 0; i < len(symbols); i++ {
		s := symbols[i]
		if !a.caseSensitive {
			s = lower(s)
		}
		if a.defined[s] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateSymbol, s)
		}
		a.symbols = append(a.symbols, s)
		a.set(s, uint8(i))
	}

	def := opts.defaultSymbol
	if def == 0 {
		def = 'x'
	}
	if code, ok := a.Code(def); ok {
		a.defaultCode = code
	}

	a.powers[0] = 1
	for w := 1; w <= MaxWordWidth; w++ {
		a.powers[w] = a.powers[w-1] * uint32(len(a.symbols))
	}

	return a, nil
}

// MustNew is like New but panics on error. Intended for built-in alphabets.
func MustNew(symbols string, optFns ...Option) *Alphabet {
	a, err := New(symbols, optFns...)
	if err != nil {
		panic(err)
	}
	return a
}

func (a *Alphabet) set(s byte, code uint8) {
	if a.caseSensitive {
		a.inverse[s] = code
		a.defined[s] = true
		return
	}
	for _, c := range [2]byte{lower(s), upper(s)} {
		a.inverse[c] = code
		a.defined[c] = true
	}
}

// Size returns the number of symbols.
func (a *Alphabet) Size() int { return len(a.symbols) }

// Symbols returns the symbols in code order.
func (a *Alphabet) Symbols() string { return string(a.symbols) }

// IsDefined reports whether s belongs to the alphabet.
func (a *Alphabet) IsDefined(s byte) bool { return a.defined[s] }

// Code returns the code for s.
func (a *Alphabet) Code(s byte) (uint8, bool) {
	if !a.defined[s] {
		return 0, false
	}
	return a.inverse[s], true
}

// CodeOrDefault returns the code for s, or the default code if s is undefined.
func (a *Alphabet) CodeOrDefault(s byte) uint8 {
	if !a.defined[s] {
		return a.defaultCode
	}
	return a.inverse[s]
}

// Symbol returns the symbol for code.
func (a *Alphabet) Symbol(code uint8) byte { return a.symbols[code] }

// Encode converts s to codes, rejecting undefined symbols.
func (a *Alphabet) Encode(s []byte, dst []uint8) ([]uint8, error) {
	dst = dst[:0]
	for i, c := range s {
		if !a.defined[c] {
			return nil, &ErrUndefinedSymbol{Symbol: c, Position: i}
		}
		dst = append(dst, a.inverse[c])
	}
	return dst, nil
}

// EncodeLenient converts s to codes, mapping undefined symbols to the default.
func (a *Alphabet) EncodeLenient(s []byte, dst []uint8) []uint8 {
	dst = dst[:0]
	for _, c := range s {
		dst = append(dst, a.CodeOrDefault(c))
	}
	return dst
}

// Fold returns s upper-cased into dst unless the alphabet is case
// sensitive, in which case s is copied unchanged. Texts that encode to the
// same codes fold to the same bytes.
func (a *Alphabet) Fold(s []byte, dst []byte) []byte {
	dst = dst[:0]
	if a.caseSensitive {
		return append(dst, s...)
	}
	for _, c := range s {
		dst = append(dst, upper(c))
	}
	return dst
}

// Decode converts codes back to symbols.
func (a *Alphabet) Decode(codes []uint8) string {
	var sb strings.Builder
	sb.Grow(len(codes))
	for _, c := range codes {
		sb.WriteByte(a.symbols[c])
	}
	return sb.String()
}

// WordSpace returns Size()^w, the number of distinct words of width w.
func (a *Alphabet) WordSpace(w int) int {
	return int(a.powers[w])
}

// Pack packs up to MaxWordWidth codes into one word. The first code is the
// most significant digit.
func (a *Alphabet) Pack(codes []uint8) uint32 {
	size := uint32(len(a.symbols))
	var word uint32
	for _, c := range codes {
		word = word*size + uint32(c)
	}
	return word
}

// Unpack writes the w codes of word into dst and returns it.
func (a *Alphabet) Unpack(word uint32, w int, dst []uint8) []uint8 {
	if cap(dst) < w {
		dst = make([]uint8, w)
	}
	dst = dst[:w]
	size := uint32(len(a.symbols))
	for i := w - 1; i >= 0; i-- {
		dst[i] = uint8(word % size)
		word /= size
	}
	return dst
}

// ValidateWordWidth checks that w can be packed into a word.
func ValidateWordWidth(w int) error {
	if w < 1 || w > MaxWordWidth {
		return fmt.Errorf("%w: %d", ErrInvalidWordWidth, w)
	}
	return nil
}

func lower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - ('a' - 'A')
	}
	return c
}
