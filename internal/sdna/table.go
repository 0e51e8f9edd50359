// Package sdna compiles the schema blob embedded in every file (and the one
// the application was built against) into struct records with flattened,
// offset-resolved fields.
//
// Blob layout, every section 4-byte aligned relative to the blob start:
//
//	"SDNA"
//	"NAME" u32 count, count NUL-terminated declarators
//	"TYPE" u32 count, count NUL-terminated type names
//	"TLEN" count u16 type lengths
//	"STRC" u32 count, per struct: u16 type, u16 n, n × (u16 type, u16 name)
//
// Integers are in the byte order of the file that carries the blob.
package sdna

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/joshuapare/blendkit/internal/buf"
	"github.com/joshuapare/blendkit/internal/diag"
	"github.com/joshuapare/blendkit/internal/hashtab"
	"github.com/joshuapare/blendkit/pkg/types"
)

// Section tags.
const (
	TagSDNA = "SDNA"
	TagName = "NAME"
	TagType = "TYPE"
	TagTLen = "TLEN"
	TagStrc = "STRC"
)

// NoStruct marks a type that is not declared in the struct table.
const NoStruct = -1

// LinkTypeName is the list-node type; chunks of a struct whose first member
// has this type are copied verbatim instead of being remapped.
const LinkTypeName = "Link"

// Type is one entry of the type table.
type Type struct {
	Name     string
	Hash     uint32
	Size     int
	StructID int
}

// IsStruct reports whether the type is declared in the struct table.
func (t *Type) IsStruct() bool { return t.StructID != NoStruct }

// Member is one raw (type index, name index) pair from the struct table.
type Member struct {
	Type int
	Name int
}

// Options configures parsing.
type Options struct {
	Endian      buf.Endian
	PointerSize int
	Limits      types.Limits
	Diag        *diag.Recorder
}

// Table is a compiled schema.
type Table struct {
	Endian      buf.Endian
	Order       binary.ByteOrder
	PointerSize int

	Names   []Name
	Types   []Type
	Structs []Struct

	types   *hashtab.Table[hashtab.U32, int]
	structs *hashtab.Table[hashtab.U32, int]

	limits types.Limits
	diag   *diag.Recorder
}

// Parse reads a schema blob and compiles its struct offsets.
func Parse(blob []byte, opts Options) (*Table, error) {
	if opts.PointerSize != 4 && opts.PointerSize != 8 {
		return nil, errors.Errorf("sdna: unsupported pointer size %d", opts.PointerSize)
	}
	limits := (&opts.Limits).OrDefault()
	t := &Table{
		Endian:      opts.Endian,
		Order:       opts.Endian.Order(),
		PointerSize: opts.PointerSize,
		limits:      limits,
		diag:        opts.Diag,
	}
	if err := t.parse(blob); err != nil {
		return nil, err
	}
	t.compile()
	return t, nil
}

type cursor struct {
	b     []byte
	off   int
	order binary.ByteOrder
}

func (c *cursor) tag(want string) error {
	got, ok := buf.Slice(c.b, c.off, 4)
	if !ok {
		return errors.Wrapf(ErrTruncated, "reading %q tag", want)
	}
	if string(got) != want {
		return errors.Wrapf(ErrMissingTag, "want %q at offset %d, got %q", want, c.off, got)
	}
	c.off += 4
	return nil
}

func (c *cursor) u32() (uint32, error) {
	b, ok := buf.Slice(c.b, c.off, 4)
	if !ok {
		return 0, ErrTruncated
	}
	c.off += 4
	return c.order.Uint32(b), nil
}

func (c *cursor) u16() (uint16, error) {
	b, ok := buf.Slice(c.b, c.off, 2)
	if !ok {
		return 0, ErrTruncated
	}
	c.off += 2
	return c.order.Uint16(b), nil
}

func (c *cursor) cstring() (string, error) {
	for i := c.off; i < len(c.b); i++ {
		if c.b[i] == 0 {
			s := string(c.b[c.off:i])
			c.off = i + 1
			return s, nil
		}
	}
	return "", ErrTruncated
}

func (c *cursor) align() { c.off = buf.Align4(c.off) }

func (t *Table) count(c *cursor, what string) (int, error) {
	n, err := c.u32()
	if err != nil {
		return 0, errors.Wrapf(err, "reading %s count", what)
	}
	if int64(n) > int64(t.limits.MaxTableEntries) {
		t.diag.Schema(types.SevError, "", what+" table exceeds limit", t.limits.MaxTableEntries, n)
		return 0, errors.Wrapf(ErrTableFull, "%s: %d entries (limit %d)", what, n, t.limits.MaxTableEntries)
	}
	return int(n), nil
}

func (t *Table) parse(blob []byte) error {
	c := &cursor{b: blob, order: t.Order}

	if err := c.tag(TagSDNA); err != nil {
		return err
	}

	// names
	if err := c.tag(TagName); err != nil {
		return err
	}
	n, err := t.count(c, "name")
	if err != nil {
		return err
	}
	t.Names = make([]Name, n)
	for i := range t.Names {
		s, err := c.cstring()
		if err != nil {
			return errors.Wrapf(err, "name %d", i)
		}
		t.Names[i] = ParseName(s)
	}
	c.align()

	// types
	if err := c.tag(TagType); err != nil {
		return err
	}
	n, err = t.count(c, "type")
	if err != nil {
		return err
	}
	t.Types = make([]Type, n)
	t.types = hashtab.New[hashtab.U32, int](n)
	for i := range t.Types {
		s, err := c.cstring()
		if err != nil {
			return errors.Wrapf(err, "type %d", i)
		}
		h := hashtab.Hash32(s)
		t.Types[i] = Type{Name: s, Hash: h, StructID: NoStruct}
		if !t.types.Insert(hashtab.U32(h), i) {
			return errors.Wrapf(ErrDuplicate, "type %q", s)
		}
	}
	c.align()

	// type lengths, parallel to types
	if err := c.tag(TagTLen); err != nil {
		return err
	}
	for i := range t.Types {
		v, err := c.u16()
		if err != nil {
			return errors.Wrapf(err, "length of type %q", t.Types[i].Name)
		}
		t.Types[i].Size = int(v)
	}
	c.align()

	// structs
	if err := c.tag(TagStrc); err != nil {
		return err
	}
	n, err = t.count(c, "struct")
	if err != nil {
		return err
	}
	t.Structs = make([]Struct, n)
	t.structs = hashtab.New[hashtab.U32, int](n)
	for id := range t.Structs {
		typ, err := c.u16()
		if err != nil {
			return errors.Wrapf(err, "struct %d", id)
		}
		nm, err := c.u16()
		if err != nil {
			return errors.Wrapf(err, "struct %d", id)
		}
		if int(typ) >= len(t.Types) {
			return errors.Wrapf(ErrBadIndex, "struct %d type %d", id, typ)
		}
		st := &t.Structs[id]
		*st = Struct{ID: id, Type: int(typ), Link: NoLink}
		ty := &t.Types[typ]
		st.Name = ty.Name
		st.TypeHash = ty.Hash
		st.Length = ty.Size

		st.Members = make([]Member, nm)
		for j := range st.Members {
			mt, err := c.u16()
			if err != nil {
				return errors.Wrapf(err, "struct %q member %d", ty.Name, j)
			}
			mn, err := c.u16()
			if err != nil {
				return errors.Wrapf(err, "struct %q member %d", ty.Name, j)
			}
			if int(mt) >= len(t.Types) || int(mn) >= len(t.Names) {
				return errors.Wrapf(ErrBadIndex, "struct %q member %d (type %d, name %d)", ty.Name, j, mt, mn)
			}
			st.Members[j] = Member{Type: int(mt), Name: int(mn)}
		}

		if ty.StructID != NoStruct {
			return errors.Wrapf(ErrDuplicate, "struct %q", ty.Name)
		}
		ty.StructID = id
		t.structs.Insert(hashtab.U32(ty.Hash), id)
	}
	return nil
}

// Struct returns the struct with the given id, or nil.
func (t *Table) Struct(id int) *Struct {
	if id < 0 || id >= len(t.Structs) {
		return nil
	}
	return &t.Structs[id]
}

// StructByHash finds a struct by its type-name hash.
func (t *Table) StructByHash(h uint32) *Struct {
	id, ok := t.structs.Get(hashtab.U32(h))
	if !ok {
		return nil
	}
	return &t.Structs[id]
}

// StructByName finds a struct by type name.
func (t *Table) StructByName(name string) *Struct {
	return t.StructByHash(hashtab.Hash32(name))
}

// TypeByName returns the index of the named type.
func (t *Table) TypeByName(name string) (int, bool) {
	return t.types.Get(hashtab.U32(hashtab.Hash32(name)))
}

// FieldType returns the type entry of f.
func (t *Table) FieldType(f *Field) *Type { return &t.Types[f.Type] }

// FieldName returns the name entry of f.
func (t *Table) FieldName(f *Field) *Name { return &t.Names[f.Name] }

// IsLinkStruct reports whether s begins with a Link-typed member, marking
// its chunks as opaque raw blocks.
func (t *Table) IsLinkStruct(s *Struct) bool {
	if len(s.Members) == 0 {
		return false
	}
	return t.Types[s.Members[0].Type].Name == LinkTypeName
}
