package chunk

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/joshuapare/blendkit/internal/buf"
)

// NoLength is the reserved length value that marks a malformed chunk.
const NoLength = 0xFFFFFFFF

// Header is a decoded chunk header. OldAddress is the address the block had
// in the producing process, widened to 64 bits.
type Header struct {
	Code       Code
	Length     uint32
	OldAddress uint64
	TypeID     uint32
	Count      uint32
}

// Chunk is a header plus its payload.
type Chunk struct {
	Header
	Data []byte
}

// Reader walks the chunk stream of one file.
type Reader struct {
	r        io.Reader
	file     FileHeader
	order    binary.ByteOrder
	maxLen   int
	offset   int64
	hdr      []byte
	finished bool
}

// NewReader reads the file header from r and prepares to iterate chunks.
// maxLength bounds any single payload; zero or negative means unbounded.
func NewReader(r io.Reader, magic string, maxLength int) (*Reader, error) {
	var fh [FileHeaderSize]byte
	if _, err := io.ReadFull(r, fh[:]); err != nil {
		return nil, errors.Wrapf(ErrInvalidHeader, "read file header: %v", err)
	}
	h, err := ParseFileHeader(fh[:], magic)
	if err != nil {
		return nil, err
	}
	return &Reader{
		r:      r,
		file:   h,
		order:  h.Endian.Order(),
		maxLen: maxLength,
		offset: FileHeaderSize,
		hdr:    make([]byte, ChunkHeaderSize(h.PointerSize)),
	}, nil
}

// FileHeader returns the decoded file header.
func (r *Reader) FileHeader() FileHeader { return r.file }

// BitsVary reports whether the file pointer width differs from nativeSize.
func (r *Reader) BitsVary(nativeSize int) bool { return r.file.PointerSize != nativeSize }

// NeedSwap reports whether the file byte order differs from the host's.
func (r *Reader) NeedSwap() bool { return !buf.IsEndian(r.file.Endian) }

// Offset is the stream position of the next chunk header.
func (r *Reader) Offset() int64 { return r.offset }

// Next returns the next chunk. The end chunk is returned like any other;
// calls after it, or after a clean end of stream at a chunk boundary,
// return io.EOF.
func (r *Reader) Next() (*Chunk, error) {
	if r.finished {
		return nil, io.EOF
	}
	n, err := io.ReadFull(r.r, r.hdr)
	switch {
	case err == io.EOF:
		r.finished = true
		return nil, io.EOF
	case err != nil:
		return nil, errors.Wrapf(ErrInvalidRead, "chunk header at %d: %d of %d bytes", r.offset, n, len(r.hdr))
	}
	h := r.decode(r.hdr)
	at := r.offset
	r.offset += int64(len(r.hdr))

	if h.Length == NoLength {
		return nil, errors.Wrapf(ErrInvalidLength, "chunk %s at %d", h.Code, at)
	}
	if r.maxLen > 0 && int64(h.Length) > int64(r.maxLen) {
		return nil, errors.Wrapf(ErrTooLarge, "chunk %s at %d: %d bytes (limit %d)", h.Code, at, h.Length, r.maxLen)
	}

	c := &Chunk{Header: h}
	if h.Length > 0 {
		c.Data = make([]byte, h.Length)
		if n, err := io.ReadFull(r.r, c.Data); err != nil {
			return nil, errors.Wrapf(ErrInvalidRead, "chunk %s at %d: payload %d of %d bytes", h.Code, at, n, h.Length)
		}
		r.offset += int64(h.Length)
	}
	if h.Code == CodeENDB {
		r.finished = true
	}
	return c, nil
}

func (r *Reader) decode(b []byte) Header {
	var h Header
	code := Code(binary.LittleEndian.Uint32(b[0:4]))
	if r.file.Endian == buf.BigEndian {
		code = normalize(code)
	}
	h.Code = code
	h.Length = r.order.Uint32(b[4:8])
	off := 8
	if r.file.PointerSize == 8 {
		h.OldAddress = r.order.Uint64(b[off:])
	} else {
		h.OldAddress = uint64(r.order.Uint32(b[off:]))
	}
	off += r.file.PointerSize
	h.TypeID = r.order.Uint32(b[off:])
	h.Count = r.order.Uint32(b[off+4:])
	return h
}

// ReadAll collects every chunk up to and including the end chunk.
func ReadAll(r *Reader) ([]*Chunk, error) {
	var out []*Chunk
	for {
		c, err := r.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, c)
	}
}
