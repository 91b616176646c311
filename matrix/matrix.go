package matrix

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrUnknownMatrix is returned for an unsupported BLOSUM identifier.
	ErrUnknownMatrix = errors.New("matrix: unknown matrix id")

	// ErrNoSymbols is returned when the input has no heading row.
	ErrNoSymbols = errors.New("matrix: no heading row")
)

// ErrParse reports a malformed line in a matrix file.
type ErrParse struct {
	Line   int
	Reason string
	cause  error
}

func (e *ErrParse) Error() string {
	return fmt.Sprintf("matrix: line %d: %s", e.Line, e.Reason)
}

func (e *ErrParse) Unwrap() error { return e.cause }

// Matrix is a symmetric symbol similarity matrix over 7-bit symbols.
type Matrix struct {
	scores        [128][128]int8
	set           [128][128]bool
	defined       [128]bool
	symbols       []byte
	min, max      int8
	caseSensitive bool
	custom        bool
}

func newMatrix(caseSensitive bool) *Matrix {
	return &Matrix{
		caseSensitive: caseSensitive,
		min:           math.MaxInt8,
		max:           math.MinInt8,
	}
}

// Similarity returns the score of the pair (s, t).
func (m *Matrix) Similarity(s, t byte) int {
	return int(m.scores[s&0x7f][t&0x7f])
}

// MaxValue returns the largest score in the matrix.
func (m *Matrix) MaxValue() int { return int(m.max) }

// MinValue returns the smallest score in the matrix.
func (m *Matrix) MinValue() int { return int(m.min) }

// IsDefined reports whether s has a row in the matrix.
func (m *Matrix) IsDefined(s byte) bool { return s < 128 && m.defined[s] }

// Symbols returns the heading symbols in column order.
func (m *Matrix) Symbols() string { return string(m.symbols) }

// IsCustom reports whether the matrix was loaded from user input.
func (m *Matrix) IsCustom() bool { return m.custom }

func (m *Matrix) setScore(s, t byte, v int8) {
	if m.caseSensitive {
		m.scores[s][t] = v
		m.set[s][t] = true
	} else {
		for _, a := range [2]byte{lower(s), upper(s)} {
			for _, b := range [2]byte{lower(t), upper(t)} {
				m.scores[a][b] = v
				m.set[a][b] = true
			}
		}
	}
	m.max = max(m.max, v)
	m.min = min(m.min, v)
}

func (m *Matrix) define(s byte) {
	if m.caseSensitive {
		m.defined[s] = true
		return
	}
	m.defined[lower(s)] = true
	m.defined[upper(s)] = true
}

// Parse reads a matrix in NCBI text layout.
//
// Lines starting with '#' are comments. The first remaining line lists the
// column symbols. Each following line is a row of integer scores, optionally
// prefixed by its row symbol. Parsing stops at the first blank line. Pairs not
// present in the input receive the lowest score seen.
func Parse(r io.Reader, caseSensitive bool) (*Matrix, error) {
	m := newMatrix(caseSensitive)
	sc := bufio.NewScanner(r)

	lineNo := 0
	row := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			if len(m.symbols) == 0 {
				continue
			}
			break
		}
		if line[0] == '#' {
			continue
		}

		fields := strings.Fields(line)
		if len(m.symbols) == 0 {
			for _, f := range fields {
				if len(f) != 1 || f[0] >= 128 {
					return nil, &ErrParse{Line: lineNo, Reason: fmt.Sprintf("invalid symbol %q", f)}
				}
				s := f[0]
				if !caseSensitive {
					s = lower(s)
				}
				m.symbols = append(m.symbols, s)
				m.define(s)
			}
			continue
		}

		if row >= len(m.symbols) {
			return nil, &ErrParse{Line: lineNo, Reason: "more rows than columns"}
		}
		if _, err := strconv.Atoi(fields[0]); err != nil && len(fields) == len(m.symbols)+1 {
			fields = fields[1:]
		}
		if len(fields) != len(m.symbols) {
			return nil, &ErrParse{
				Line:   lineNo,
				Reason: fmt.Sprintf("expected %d scores, got %d", len(m.symbols), len(fields)),
			}
		}
		for col, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, &ErrParse{Line: lineNo, Reason: fmt.Sprintf("invalid score %q", f), cause: err}
			}
			if v < math.MinInt8 || v > math.MaxInt8 {
				return nil, &ErrParse{Line: lineNo, Reason: fmt.Sprintf("score %q out of range", f)}
			}
			m.setScore(m.symbols[row], m.symbols[col], int8(v))
		}
		row++
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(m.symbols) == 0 {
		return nil, ErrNoSymbols
	}
	if row != len(m.symbols) {
		return nil, &ErrParse{Line: lineNo, Reason: fmt.Sprintf("expected %d rows, got %d", len(m.symbols), row)}
	}

	for i := range m.scores {
		for j := range m.scores[i] {
			if !m.set[i][j] {
				m.scores[i][j] = m.min
			}
		}
	}

	return m, nil
}

// ParseCustom parses a user supplied matrix and marks it as custom.
func ParseCustom(r io.Reader, caseSensitive bool) (*Matrix, error) {
	m, err := Parse(r, caseSensitive)
	if err != nil {
		return nil, err
	}
	m.custom = true
	return m, nil
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
