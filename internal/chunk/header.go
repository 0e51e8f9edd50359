// Package chunk reads and writes the file header and the chunk stream that
// follows it.
//
// File header (12 bytes):
//
//	Offset  Size  Description
//	------  ----  ----------------------------------------------
//	 0x00    7    magic ("BLENDER")
//	 0x07    1    pointer width: '-' = 64-bit, '_' = 32-bit
//	 0x08    1    byte order:    'v' = little, 'V' = big
//	 0x09    3    ASCII version digits ("300")
//
// Chunk header, integers in the file's byte order:
//
//	code u32 | length u32 | old address u32/u64 | type id u32 | count u32
package chunk

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"

	"github.com/joshuapare/blendkit/internal/buf"
)

const (
	// FileHeaderSize is the size of the file header in bytes.
	FileHeaderSize = 12
	// MagicSize is the length of the magic identifier.
	MagicSize = 7
	// DefaultMagic is the identifier written by the reference application.
	DefaultMagic = "BLENDER"

	Pointer64Marker = '-'
	Pointer32Marker = '_'
	LittleMarker    = 'v'
	BigMarker       = 'V'
)

var (
	// ErrInvalidHeader indicates an unrecognized magic or marker byte.
	ErrInvalidHeader = errors.New("chunk: invalid file header")
	// ErrInvalidRead indicates the stream ended inside a header or payload.
	ErrInvalidRead = errors.New("chunk: invalid read")
	// ErrInvalidLength indicates a chunk declared the "no length" sentinel.
	ErrInvalidLength = errors.New("chunk: invalid length")
	// ErrTooLarge indicates a chunk payload above the configured limit.
	ErrTooLarge = errors.New("chunk: payload exceeds limit")
	// ErrUnsupported indicates a write the format layer does not implement.
	ErrUnsupported = errors.New("chunk: unsupported")
)

// FileHeader is the decoded 12-byte file header.
type FileHeader struct {
	Magic       string
	PointerSize int
	Endian      buf.Endian
	Version     int
}

// ParseFileHeader decodes and validates b[:12] against magic.
func ParseFileHeader(b []byte, magic string) (FileHeader, error) {
	if len(magic) != MagicSize {
		return FileHeader{}, errors.Wrapf(ErrInvalidHeader, "magic %q must be %d bytes", magic, MagicSize)
	}
	if len(b) < FileHeaderSize {
		return FileHeader{}, errors.Wrapf(ErrInvalidHeader, "need %d bytes, have %d", FileHeaderSize, len(b))
	}
	if string(b[:MagicSize]) != magic {
		return FileHeader{}, errors.Wrapf(ErrInvalidHeader, "magic %q", b[:MagicSize])
	}
	h := FileHeader{Magic: magic}
	switch b[7] {
	case Pointer64Marker:
		h.PointerSize = 8
	case Pointer32Marker:
		h.PointerSize = 4
	default:
		return FileHeader{}, errors.Wrapf(ErrInvalidHeader, "pointer marker %q", b[7])
	}
	switch b[8] {
	case LittleMarker:
		h.Endian = buf.LittleEndian
	case BigMarker:
		h.Endian = buf.BigEndian
	default:
		return FileHeader{}, errors.Wrapf(ErrInvalidHeader, "endian marker %q", b[8])
	}
	v, err := strconv.Atoi(string(b[9:12]))
	if err != nil || v < 0 {
		return FileHeader{}, errors.Wrapf(ErrInvalidHeader, "version %q", b[9:12])
	}
	h.Version = v
	return h, nil
}

// Bytes encodes the header.
func (h FileHeader) Bytes() ([]byte, error) {
	if len(h.Magic) != MagicSize {
		return nil, errors.Wrapf(ErrInvalidHeader, "magic %q", h.Magic)
	}
	if h.Version < 0 || h.Version > 999 {
		return nil, errors.Wrapf(ErrInvalidHeader, "version %d", h.Version)
	}
	out := make([]byte, 0, FileHeaderSize)
	out = append(out, h.Magic...)
	switch h.PointerSize {
	case 8:
		out = append(out, Pointer64Marker)
	case 4:
		out = append(out, Pointer32Marker)
	default:
		return nil, errors.Wrapf(ErrInvalidHeader, "pointer size %d", h.PointerSize)
	}
	if h.Endian == buf.BigEndian {
		out = append(out, BigMarker)
	} else {
		out = append(out, LittleMarker)
	}
	out = append(out, fmt.Sprintf("%03d", h.Version)...)
	return out, nil
}

// ChunkHeaderSize is the on-disk chunk header size for a pointer width.
func ChunkHeaderSize(pointerSize int) int {
	return 16 + pointerSize
}
