package format

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// CompressionType defines the stream compression of an artifact.
type CompressionType uint8

const (
	// CompressionNone indicates plain text.
	CompressionNone CompressionType = 0
	// CompressionLZ4 indicates an LZ4 frame (fast, good for scratch outputs).
	CompressionLZ4 CompressionType = 1
	// CompressionZSTD indicates a zstd stream (better ratio, good for published codebooks).
	CompressionZSTD CompressionType = 2
	// CompressionGzip indicates a gzip stream.
	CompressionGzip CompressionType = 3
)

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	case CompressionGzip:
		return "gzip"
	default:
		return fmt.Sprintf("CompressionType(%d)", uint8(c))
	}
}

// CompressionFor returns the compression implied by the extension of name.
func CompressionFor(name string) CompressionType {
	switch strings.ToLower(path.Ext(name)) {
	case ".zst", ".zstd":
		return CompressionZSTD
	case ".lz4":
		return CompressionLZ4
	case ".gz":
		return CompressionGzip
	default:
		return CompressionNone
	}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// bufferedWriteCloser flushes the buffer before closing the codec.
type bufferedWriteCloser struct {
	*bufio.Writer
	codec io.Closer
}

func (b *bufferedWriteCloser) Close() error {
	err := b.Flush()
	if b.codec != nil {
		err = errors.Join(err, b.codec.Close())
	}
	return err
}

// NewWriter wraps w in the compressor implied by name. Closing the returned
// writer flushes the stream but does not close w.
func NewWriter(w io.Writer, name string) (io.WriteCloser, error) {
	var codec io.WriteCloser
	switch CompressionFor(name) {
	case CompressionZSTD:
		enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, err
		}
		codec = enc
	case CompressionLZ4:
		codec = lz4.NewWriter(w)
	case CompressionGzip:
		codec = gzip.NewWriter(w)
	default:
		codec = nopWriteCloser{w}
	}
	return &bufferedWriteCloser{Writer: bufio.NewWriterSize(codec, 64<<10), codec: codec}, nil
}

type zstdReadCloser struct{ *zstd.Decoder }

func (z zstdReadCloser) Close() error {
	z.Decoder.Close()
	return nil
}

// NewReader wraps r in the decompressor implied by name. Closing the
// returned reader does not close r.
func NewReader(r io.Reader, name string) (io.ReadCloser, error) {
	switch CompressionFor(name) {
	case CompressionZSTD:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zstdReadCloser{dec}, nil
	case CompressionLZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	case CompressionGzip:
		return gzip.NewReader(r)
	default:
		return io.NopCloser(r), nil
	}
}
