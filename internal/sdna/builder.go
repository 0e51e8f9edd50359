package sdna

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/joshuapare/blendkit/internal/buf"
)

// Primitives are the types every builder starts with, in schema order.
var Primitives = []struct {
	Name string
	Size int
}{
	{"char", 1}, {"uchar", 1}, {"short", 2}, {"ushort", 2},
	{"int", 4}, {"long", 4}, {"ulong", 4}, {"float", 4}, {"double", 8},
	{"int64_t", 8}, {"uint64_t", 8}, {"void", 0},
}

// Builder assembles a schema blob. Members are written as C declarations:
//
//	b := sdna.NewBuilder(8)
//	b.Struct("Link", "Link *next", "Link *prev")
//	b.Struct("Foo", "int a", "float b[2]", "Foo *next")
//	blob, err := b.Bytes(buf.LittleEndian)
type Builder struct {
	ptr int

	names   []string
	nameIdx map[string]int

	types   []string
	sizes   []int
	typeIdx map[string]int
	isStrct map[int]bool

	structs []rawStruct
	err     error
}

// NewBuilder creates a builder that sizes pointers as pointerSize bytes.
func NewBuilder(pointerSize int) *Builder {
	b := &Builder{
		ptr:     pointerSize,
		nameIdx: make(map[string]int),
		typeIdx: make(map[string]int),
		isStrct: make(map[int]bool),
	}
	for _, p := range Primitives {
		b.Type(p.Name, p.Size)
	}
	return b
}

// Type declares a type (or updates the size of an existing one).
func (b *Builder) Type(name string, size int) *Builder {
	if i, ok := b.typeIdx[name]; ok {
		b.sizes[i] = size
		return b
	}
	b.typeIdx[name] = len(b.types)
	b.types = append(b.types, name)
	b.sizes = append(b.sizes, size)
	return b
}

// Struct declares a struct whose length is the sum of its members.
func (b *Builder) Struct(name string, members ...string) *Builder {
	return b.declare(name, -1, members)
}

// StructSized declares a struct with an explicit type length, which may
// disagree with its members.
func (b *Builder) StructSized(name string, size int, members ...string) *Builder {
	return b.declare(name, size, members)
}

func (b *Builder) name(decl string) int {
	if i, ok := b.nameIdx[decl]; ok {
		return i
	}
	b.nameIdx[decl] = len(b.names)
	b.names = append(b.names, decl)
	return len(b.names) - 1
}

func (b *Builder) declare(name string, size int, members []string) *Builder {
	if b.err != nil {
		return b
	}
	if _, ok := b.typeIdx[name]; !ok {
		b.Type(name, 0)
	}
	ti := b.typeIdx[name]
	if b.isStrct[ti] {
		b.err = errors.Wrapf(ErrDuplicate, "struct %q", name)
		return b
	}
	b.isStrct[ti] = true

	rs := rawStruct{Type: ti}
	total := 0
	for _, m := range members {
		m = strings.TrimSpace(m)
		sp := strings.LastIndexByte(m, ' ')
		if sp < 0 {
			b.err = errors.Errorf("sdna: member %q of %q needs \"type name\"", m, name)
			return b
		}
		typName, decl := strings.TrimSpace(m[:sp]), strings.TrimSpace(m[sp+1:])
		n := ParseName(decl)

		mt, ok := b.typeIdx[typName]
		if !ok {
			if !n.IsPointer() {
				b.err = errors.Errorf("sdna: member %q of %q has undeclared type", m, name)
				return b
			}
			b.Type(typName, 0)
			mt = b.typeIdx[typName]
		}
		if n.IsPointer() {
			total += b.ptr * n.ArraySize
		} else {
			total += b.sizes[mt] * n.ArraySize
		}
		rs.Members = append(rs.Members, Member{Type: mt, Name: b.name(decl)})
	}
	if size < 0 {
		size = total
	}
	b.sizes[ti] = size
	b.structs = append(b.structs, rs)
	return b
}

// Bytes encodes the schema in byte order e.
func (b *Builder) Bytes(e buf.Endian) ([]byte, error) {
	if b.err != nil {
		return nil, b.err
	}
	return encodeBlob(e.Order(), b.names, b.types, b.sizes, b.structs)
}

// Table encodes and compiles the schema.
func (b *Builder) Table(opts Options) (*Table, error) {
	if opts.PointerSize == 0 {
		opts.PointerSize = b.ptr
	}
	blob, err := b.Bytes(opts.Endian)
	if err != nil {
		return nil, err
	}
	return Parse(blob, opts)
}
