// Package buf contains bounds checks and byte-order helpers shared by the
// schema compiler, the chunk reader and the migration engine.
package buf

import (
	"encoding/binary"
	"math/bits"
	"unsafe"
)

// Endian identifies a byte order as stored in a file header.
type Endian uint8

const (
	LittleEndian Endian = iota
	BigEndian
)

func (e Endian) String() string {
	if e == BigEndian {
		return "big"
	}
	return "little"
}

// Order reads, writes and appends fixed-width words in one byte order.
type Order interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// Order returns the encoding/binary byte order for e.
func (e Endian) Order() Order {
	if e == BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

var native = detectNative()

func detectNative() Endian {
	var probe uint16 = 0x0102
	if *(*byte)(unsafe.Pointer(&probe)) == 0x01 {
		return BigEndian
	}
	return LittleEndian
}

// NativeEndian reports the byte order of the running process.
func NativeEndian() Endian { return native }

// IsEndian reports whether the host uses byte order e.
func IsEndian(e Endian) bool { return native == e }

// NativeOrder returns the byte order of the host.
func NativeOrder() Order { return native.Order() }

// Swap16 reverses the bytes of v.
func Swap16(v uint16) uint16 { return bits.ReverseBytes16(v) }

// Swap32 reverses the bytes of v.
func Swap32(v uint32) uint32 { return bits.ReverseBytes32(v) }

// Swap64 reverses the bytes of v.
func Swap64(v uint64) uint64 { return bits.ReverseBytes64(v) }

// SwapBuffer16 byte-swaps count consecutive 16-bit words of b in place.
// Words that do not fit in b are left untouched.
func SwapBuffer16(b []byte, count int) {
	for i := 0; i < count && 2*i+2 <= len(b); i++ {
		w := b[2*i:]
		w[0], w[1] = w[1], w[0]
	}
}

// SwapBuffer32 byte-swaps count consecutive 32-bit words of b in place.
func SwapBuffer32(b []byte, count int) {
	for i := 0; i < count && 4*i+4 <= len(b); i++ {
		w := b[4*i:]
		w[0], w[1], w[2], w[3] = w[3], w[2], w[1], w[0]
	}
}

// SwapBuffer64 byte-swaps count consecutive 64-bit words of b in place.
func SwapBuffer64(b []byte, count int) {
	for i := 0; i < count && 8*i+8 <= len(b); i++ {
		w := b[8*i:]
		w[0], w[1], w[2], w[3], w[4], w[5], w[6], w[7] = w[7], w[6], w[5], w[4], w[3], w[2], w[1], w[0]
	}
}

// SwapElem byte-swaps a single element of width len(b). Widths other than
// 2, 4 and 8 are left as is.
func SwapElem(b []byte) {
	switch len(b) {
	case 2:
		SwapBuffer16(b, 1)
	case 4:
		SwapBuffer32(b, 1)
	case 8:
		SwapBuffer64(b, 1)
	}
}

// Uint reads an unsigned word of the given width (1, 2, 4 or 8) from b.
// Returns 0 when b is too short or the width is unsupported.
func Uint(b []byte, width int, order binary.ByteOrder) uint64 {
	if len(b) < width {
		return 0
	}
	switch width {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(order.Uint16(b))
	case 4:
		return uint64(order.Uint32(b))
	case 8:
		return order.Uint64(b)
	}
	return 0
}

// PutUint writes v as an unsigned word of the given width, truncating high bits.
// Returns false when b is too short or the width is unsupported.
func PutUint(b []byte, width int, order binary.ByteOrder, v uint64) bool {
	if len(b) < width {
		return false
	}
	switch width {
	case 1:
		b[0] = byte(v)
	case 2:
		order.PutUint16(b, uint16(v))
	case 4:
		order.PutUint32(b, uint32(v))
	case 8:
		order.PutUint64(b, v)
	default:
		return false
	}
	return true
}
