package blend

import (
	"bytes"
	"unicode/utf8"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"

	"github.com/joshuapare/blendkit/internal/buf"
	"github.com/joshuapare/blendkit/internal/prim"
	"github.com/joshuapare/blendkit/internal/sdna"
)

var (
	// ErrNoField indicates a path that names no field of the block's struct.
	ErrNoField = errors.New("blend: no such field")
	// ErrRecord indicates a record index outside the block.
	ErrRecord = errors.New("blend: record out of range")
	// ErrRawBlock indicates field access on a block copied without a layout.
	ErrRawBlock = errors.New("blend: raw block has no fields")
	// ErrKind indicates a field of the wrong kind for the accessor.
	ErrKind = errors.New("blend: field kind mismatch")
)

// StructName returns the memory struct name of b.
func (f *File) StructName(b *Block) string {
	if f.memTable == nil {
		return ""
	}
	if s := f.memTable.Struct(b.TypeID); s != nil {
		return s.Name
	}
	return ""
}

func (f *File) field(b *Block, record int, path string) (*sdna.Field, []byte, error) {
	if err := f.parsed(); err != nil {
		return nil, nil, err
	}
	if b.Raw {
		return nil, nil, errors.Wrapf(ErrRawBlock, "%s at %#x", b.Code, b.Address)
	}
	s := f.memTable.Struct(b.TypeID)
	if s == nil {
		return nil, nil, errors.Wrapf(ErrNoField, "type id %d", b.TypeID)
	}
	if record < 0 || record >= b.Count {
		return nil, nil, errors.Wrapf(ErrRecord, "%s record %d of %d", s.Name, record, b.Count)
	}
	fl := s.Field(path)
	if fl == nil {
		return nil, nil, errors.Wrapf(ErrNoField, "%s.%s", s.Name, path)
	}
	data, ok := buf.Slice(b.Data, record*s.Length+fl.Offset, fl.Length)
	if !ok {
		return nil, nil, errors.Wrapf(ErrRecord, "%s.%s beyond block", s.Name, path)
	}
	return fl, data, nil
}

// FieldBytes returns the bytes of a field of one record. The slice aliases
// the block.
func (f *File) FieldBytes(b *Block, record int, path string) ([]byte, error) {
	_, data, err := f.field(b, record, path)
	return data, err
}

// Pointer returns the first address stored in a pointer field.
func (f *File) Pointer(b *Block, record int, path string) (uint64, error) {
	fl, data, err := f.field(b, record, path)
	if err != nil {
		return 0, err
	}
	if !fl.IsPointer() {
		return 0, errors.Wrapf(ErrKind, "%s is not a pointer", path)
	}
	return buf.Uint(data, f.memTable.PointerSize, buf.NativeOrder()), nil
}

// Deref follows a pointer field to the block it points at. A null or
// unresolved pointer returns nil without error.
func (f *File) Deref(b *Block, record int, path string) (*Block, error) {
	addr, err := f.Pointer(b, record, path)
	if err != nil || addr == 0 {
		return nil, err
	}
	target, _, ok := f.Resolve(addr)
	if !ok {
		return nil, nil
	}
	return target, nil
}

// Int returns the first element of an integer field.
func (f *File) Int(b *Block, record int, path string) (int64, error) {
	fl, data, err := f.field(b, record, path)
	if err != nil {
		return 0, err
	}
	if fl.IsPointer() || !fl.Kind.IsInteger() {
		return 0, errors.Wrapf(ErrKind, "%s is not an integer", path)
	}
	return prim.DecodeInt(data[:fl.ElemSize()], fl.Kind, buf.NativeOrder()), nil
}

// Floats returns every element of a numeric field as float64.
func (f *File) Floats(b *Block, record int, path string) ([]float64, error) {
	fl, data, err := f.field(b, record, path)
	if err != nil {
		return nil, err
	}
	if fl.IsPointer() || !fl.Kind.IsNumber() {
		return nil, errors.Wrapf(ErrKind, "%s is not numeric", path)
	}
	n, w := max(fl.ArraySize, 1), fl.ElemSize()
	out := make([]float64, 0, n)
	for i := 0; i < n && (i+1)*w <= len(data); i++ {
		out = append(out, prim.Decode(data[i*w:(i+1)*w], fl.Kind, buf.NativeOrder()))
	}
	return out, nil
}

// Float returns the first element of a numeric field.
func (f *File) Float(b *Block, record int, path string) (float64, error) {
	v, err := f.Floats(b, record, path)
	if err != nil || len(v) == 0 {
		return 0, err
	}
	return v[0], nil
}

// String returns a char array field up to its first NUL.
func (f *File) String(b *Block, record int, path string) (string, error) {
	fl, data, err := f.field(b, record, path)
	if err != nil {
		return "", err
	}
	if fl.IsPointer() || (fl.Kind != prim.Char && fl.Kind != prim.UChar) {
		return "", errors.Wrapf(ErrKind, "%s is not a char array", path)
	}
	return DecodeString(data), nil
}

// DecodeString converts a NUL-terminated char buffer. Files from before
// UTF-8 was adopted store Latin-1, so invalid UTF-8 is decoded as ISO-8859-1.
func DecodeString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	if utf8.Valid(b) {
		return string(b)
	}
	s, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(s)
}
