package format

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/hupe1980/aaclust/rank"
)

// EndOfLine terminates every ranking line.
const EndOfLine = "___eol___ -100000"

// ErrRankingFile is returned for a malformed ranking file.
var ErrRankingFile = errors.New("format: malformed ranking file")

// RankWriter writes one ranking line per query. Each line is written
// atomically, so a RankWriter may be shared by concurrent emitters.
type RankWriter struct {
	mu  sync.Mutex
	bw  *bufio.Writer
	buf []byte
}

// NewRankWriter returns a RankWriter over w.
func NewRankWriter(w io.Writer) *RankWriter {
	return &RankWriter{bw: bufio.NewWriterSize(w, 256<<10)}
}

// Write appends the ranking line of res. Hits are written as id followed by
// the negated distance, so larger scores rank higher.
func (rw *RankWriter) Write(res rank.Result) error {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	b := append(rw.buf[:0], res.Query.ID...)
	for _, h := range res.Hits {
		b = append(b, ' ')
		b = append(b, h.ID...)
		b = append(b, ' ')
		b = strconv.AppendFloat(b, -h.Distance, 'g', 6, 64)
	}
	b = append(b, ' ')
	b = append(b, EndOfLine...)
	b = append(b, '\n')
	rw.buf = b

	_, err := rw.bw.Write(b)
	return err
}

// Flush writes buffered lines to the underlying writer.
func (rw *RankWriter) Flush() error {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	return rw.bw.Flush()
}

// Ranking is one parsed ranking line.
type Ranking struct {
	QueryID string
	Hits    []RankedHit
}

// RankedHit is a database id with its score, the negated distance.
type RankedHit struct {
	ID    string
	Score float64
}

// ReadRankings parses ranking output.
func ReadRankings(r io.Reader) ([]Ranking, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxLineSize)

	var (
		out    []Ranking
		lineNo int
	)
	for sc.Scan() {
		lineNo++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		n := len(fields)
		if n < 3 || fields[n-2] != "___eol___" || (n-3)%2 != 0 {
			return nil, fmt.Errorf("%w: line %d", ErrRankingFile, lineNo)
		}
		rk := Ranking{QueryID: fields[0]}
		for i := 1; i < n-2; i += 2 {
			score, err := strconv.ParseFloat(fields[i+1], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrRankingFile, lineNo, err)
			}
			rk.Hits = append(rk.Hits, RankedHit{ID: fields[i], Score: score})
		}
		out = append(out, rk)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
