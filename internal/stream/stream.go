// Package stream detects and undoes the compression wrappers a file may be
// saved with, and applies them on write.
package stream

import (
	"bytes"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// Compression identifies a container wrapped around the chunk stream.
type Compression uint8

const (
	None Compression = iota
	Gzip
	Zstd
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// ErrTooLarge indicates the decompressed stream exceeded the caller's limit.
var ErrTooLarge = errors.New("stream: decompressed size exceeds limit")

func (c Compression) String() string {
	switch c {
	case Gzip:
		return "gzip"
	case Zstd:
		return "zstd"
	default:
		return "none"
	}
}

// ParseCompression maps a name ("none", "gzip", "zstd") to a Compression.
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "raw":
		return None, nil
	case "gzip", "gz":
		return Gzip, nil
	case "zstd", "zst":
		return Zstd, nil
	}
	return None, errors.Errorf("stream: unknown compression %q", s)
}

// Detect inspects the leading bytes of b.
func Detect(b []byte) Compression {
	switch {
	case bytes.HasPrefix(b, gzipMagic):
		return Gzip
	case bytes.HasPrefix(b, zstdMagic):
		return Zstd
	}
	return None
}

// Decompress returns the plain stream for data. Uncompressed input is
// returned as is. limit bounds the output size; zero or negative means
// unbounded.
func Decompress(data []byte, limit int) ([]byte, Compression, error) {
	c := Detect(data)
	var r io.Reader
	switch c {
	case None:
		return data, None, nil
	case Gzip:
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, c, errors.Wrap(err, "stream: gzip")
		}
		defer zr.Close()
		r = zr
	case Zstd:
		zr, err := zstd.NewReader(bytes.NewReader(data), zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, c, errors.Wrap(err, "stream: zstd")
		}
		defer zr.Close()
		r = zr
	}

	if limit > 0 {
		r = io.LimitReader(r, int64(limit)+1)
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, c, errors.Wrapf(err, "stream: %s", c)
	}
	if limit > 0 && len(out) > limit {
		return nil, c, errors.Wrapf(ErrTooLarge, "%s stream over %d bytes", c, limit)
	}
	return out, c, nil
}

// NewWriter wraps w with the given compression. The caller must Close the
// result to flush trailing frames; closing does not close w.
func NewWriter(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case None:
		return nopCloser{w}, nil
	case Gzip:
		return gzip.NewWriter(w), nil
	case Zstd:
		zw, err := zstd.NewWriter(w, zstd.WithEncoderConcurrency(1))
		if err != nil {
			return nil, errors.Wrap(err, "stream: zstd")
		}
		return zw, nil
	}
	return nil, errors.Errorf("stream: unknown compression %d", c)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
