// Package prim classifies schema primitive types and converts single values
// between them. All reinterpretation of raw field bytes as numbers happens
// here.
package prim

import (
	"encoding/binary"
	"math"

	"github.com/joshuapare/blendkit/internal/buf"
	"github.com/joshuapare/blendkit/internal/hashtab"
)

// Kind is the primitive classification of a schema type.
type Kind uint8

const (
	Unknown Kind = iota
	Char
	UChar
	Short
	UShort
	Int
	UInt
	Long
	ULong
	Int64
	UInt64
	Float
	Double
	Void
)

var kindNames = [...]string{
	Unknown: "unknown",
	Char:    "char",
	UChar:   "uchar",
	Short:   "short",
	UShort:  "ushort",
	Int:     "int",
	UInt:    "uint",
	Long:    "long",
	ULong:   "ulong",
	Int64:   "int64",
	UInt64:  "uint64",
	Float:   "float",
	Double:  "double",
	Void:    "void",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsInteger reports whether k is one of the integer kinds.
func (k Kind) IsInteger() bool { return k >= Char && k <= UInt64 }

// IsFloat reports whether k is float or double.
func (k Kind) IsFloat() bool { return k == Float || k == Double }

// IsNumber reports whether k holds a numeric value. Void and Unknown do not.
func (k Kind) IsNumber() bool { return k.IsInteger() || k.IsFloat() }

// IsSigned reports whether an integer kind is signed.
func (k Kind) IsSigned() bool {
	switch k {
	case Char, Short, Int, Long, Int64:
		return true
	}
	return false
}

// Size is the natural width of k in bytes. Long and ULong report 8, their
// actual width comes from the schema's type-length table.
func (k Kind) Size() int {
	switch k {
	case Char, UChar:
		return 1
	case Short, UShort:
		return 2
	case Int, UInt, Float:
		return 4
	case Long, ULong, Int64, UInt64, Double:
		return 8
	}
	return 0
}

var typeNames = map[string]Kind{
	"char":     Char,
	"int8_t":   Char,
	"uchar":    UChar,
	"uint8_t":  UChar,
	"bool":     UChar,
	"short":    Short,
	"int16_t":  Short,
	"ushort":   UShort,
	"uint16_t": UShort,
	"int":      Int,
	"int32_t":  Int,
	"uint":     UInt,
	"uint32_t": UInt,
	"long":     Long,
	"ulong":    ULong,
	"int64_t":  Int64,
	"uint64_t": UInt64,
	"float":    Float,
	"double":   Double,
	"void":     Void,
}

// byHash is built once from typeNames.
var byHash = func() map[uint32]Kind {
	m := make(map[uint32]Kind, len(typeNames))
	for name, k := range typeNames {
		m[hashtab.Hash32(name)] = k
	}
	return m
}()

// Classify maps a type-name hash (hashtab.Hash32) to its primitive kind.
func Classify(typeHash uint32) Kind {
	return byHash[typeHash]
}

// Decode reads one element of kind k from b (len(b) is the element width)
// and returns it as a float64.
func Decode(b []byte, k Kind, order binary.ByteOrder) float64 {
	switch k {
	case Float:
		if len(b) < 4 {
			return 0
		}
		return float64(math.Float32frombits(order.Uint32(b)))
	case Double:
		if len(b) < 8 {
			return 0
		}
		return math.Float64frombits(order.Uint64(b))
	}
	if !k.IsInteger() {
		return 0
	}
	if k.IsSigned() {
		return float64(DecodeInt(b, k, order))
	}
	return float64(DecodeUint(b, k, order))
}

// Encode writes v into b as one element of kind k. Float to integer
// conversion truncates toward zero; out of range integers wrap like a C cast
// through a 64-bit intermediate.
func Encode(v float64, k Kind, b []byte, order binary.ByteOrder) {
	switch k {
	case Float:
		if len(b) >= 4 {
			order.PutUint32(b, math.Float32bits(float32(v)))
		}
		return
	case Double:
		if len(b) >= 8 {
			order.PutUint64(b, math.Float64bits(v))
		}
		return
	}
	if !k.IsInteger() {
		return
	}
	if k.IsSigned() || v < 0 {
		EncodeInt(int64(v), b, order)
		return
	}
	EncodeUint(uint64(v), b, order)
}

// DecodeInt reads a signed integer of width len(b), sign-extending it.
// Unsigned kinds are zero-extended.
func DecodeInt(b []byte, k Kind, order binary.ByteOrder) int64 {
	u := buf.Uint(b, len(b), order)
	if !k.IsSigned() {
		return int64(u)
	}
	switch len(b) {
	case 1:
		return int64(int8(u))
	case 2:
		return int64(int16(u))
	case 4:
		return int64(int32(u))
	}
	return int64(u)
}

// DecodeUint reads an integer of width len(b) without sign extension for
// unsigned kinds; signed kinds are sign-extended then reinterpreted.
func DecodeUint(b []byte, k Kind, order binary.ByteOrder) uint64 {
	if k.IsSigned() {
		return uint64(DecodeInt(b, k, order))
	}
	return buf.Uint(b, len(b), order)
}

// EncodeInt writes v truncated to width len(b).
func EncodeInt(v int64, b []byte, order binary.ByteOrder) {
	buf.PutUint(b, len(b), order, uint64(v))
}

// EncodeUint writes v truncated to width len(b).
func EncodeUint(v uint64, b []byte, order binary.ByteOrder) {
	buf.PutUint(b, len(b), order, v)
}

// Convert decodes one element of kind from (src, in srcOrder) and encodes it
// as kind to into dst (in dstOrder). Integer to integer conversions stay in
// 64-bit integer space so sign and zero extension are exact; every other
// numeric pair goes through float64.
func Convert(dst []byte, to Kind, dstOrder binary.ByteOrder, src []byte, from Kind, srcOrder binary.ByteOrder) {
	if from.IsInteger() && to.IsInteger() {
		if from.IsSigned() {
			EncodeInt(DecodeInt(src, from, srcOrder), dst, dstOrder)
		} else {
			EncodeUint(DecodeUint(src, from, srcOrder), dst, dstOrder)
		}
		return
	}
	Encode(Decode(src, from, srcOrder), to, dst, dstOrder)
}
