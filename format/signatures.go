package format

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hupe1980/aaclust/signature"
)

// ErrSignatureFile is returned for a malformed signature file.
var ErrSignatureFile = errors.New("format: malformed signature file")

// WriteSignatures writes one line per signature: the id followed by the
// set bits in ascending order.
func WriteSignatures(w io.Writer, sigs []*signature.Signature) error {
	bw := bufio.NewWriter(w)
	var buf []byte
	for _, s := range sigs {
		buf = append(buf[:0], s.ID...)
		it := s.Bits.Iterator()
		for it.HasNext() {
			buf = append(buf, ' ')
			buf = strconv.AppendUint(buf, uint64(it.Next()), 10)
		}
		buf = append(buf, '\n')
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadSignatures parses a signature file.
func ReadSignatures(r io.Reader) ([]*signature.Signature, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxLineSize)

	var (
		out    []*signature.Signature
		lineNo int
		bits   []uint32
	)
	for sc.Scan() {
		lineNo++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		bits = bits[:0]
		for _, f := range fields[1:] {
			v, err := strconv.ParseUint(f, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrSignatureFile, lineNo, err)
			}
			bits = append(bits, uint32(v))
		}
		out = append(out, signature.New(fields[0], bits...))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
