package sdna

import (
	"strconv"

	"github.com/joshuapare/blendkit/internal/prim"
	"github.com/joshuapare/blendkit/pkg/types"
)

// NoLink marks a struct or field without a counterpart in the other table.
const NoLink = -1

// Flags annotate compiled structs and fields.
type Flags uint8

const (
	// FlagMissing: no counterpart in the other schema.
	FlagMissing Flags = 1 << iota
	// FlagMisaligned: computed size disagrees with the declared type length.
	FlagMisaligned
	// FlagNeedCast: counterpart has a different numeric kind that needs a value conversion.
	FlagNeedCast
	// FlagSkip: excluded from migration by the application.
	FlagSkip
)

// Has reports whether all bits of f2 are set.
func (f Flags) Has(f2 Flags) bool { return f&f2 == f2 }

func (f Flags) String() string {
	if f == 0 {
		return "-"
	}
	s := ""
	add := func(bit Flags, name string) {
		if f&bit != 0 {
			if s != "" {
				s += "|"
			}
			s += name
		}
	}
	add(FlagMissing, "missing")
	add(FlagMisaligned, "misaligned")
	add(FlagNeedCast, "cast")
	add(FlagSkip, "skip")
	return s
}

// Key is one step of the embedding path leading to a field: the type and
// base name of an enclosing embedded member, plus the element index when
// that member is an array of structs.
type Key struct {
	Type  uint32
	Name  uint32
	Index int
}

// Field is a leaf member of a struct after descending into embedded
// structs. Offsets are relative to the start of the top-level struct.
type Field struct {
	Type int // index into Table.Types
	Name int // index into Table.Names

	TypeHash uint32
	NameHash uint32
	BaseHash uint32
	Kind     prim.Kind

	Pointers  int
	ArraySize int
	Offset    int
	Length    int

	// ArrayIndex is the element index of the innermost embedded array this
	// field was reached through, 0 otherwise.
	ArrayIndex int
	Depth      int
	Chain      []Key
	Path       string

	Flags Flags
	Link  int // index into the linked struct's Fields
}

// IsPointer reports whether the field stores addresses.
func (f *Field) IsPointer() bool { return f.Pointers > 0 }

// ElemSize is the width of one array element.
func (f *Field) ElemSize() int {
	if f.ArraySize <= 0 {
		return f.Length
	}
	return f.Length / f.ArraySize
}

// SameChain reports whether f and o were reached through the same
// embedding path.
func (f *Field) SameChain(o *Field) bool {
	if len(f.Chain) != len(o.Chain) {
		return false
	}
	for i := range f.Chain {
		if f.Chain[i] != o.Chain[i] {
			return false
		}
	}
	return true
}

// Struct is a compiled struct table entry.
type Struct struct {
	ID       int
	Type     int
	Name     string
	TypeHash uint32

	// Length is the declared type length, Size the sum of compiled fields.
	Length int
	Size   int

	Members []Member
	Fields  []Field

	Flags Flags
	Link  int // index into the other table's Structs
}

// Field returns the field with the given path, e.g. "a", "id.name" or
// "mtex[1].tex". Pointer stars and array suffixes are not part of the path.
func (s *Struct) Field(path string) *Field {
	for i := range s.Fields {
		if s.Fields[i].Path == path {
			return &s.Fields[i]
		}
	}
	return nil
}

// compile lays out every struct's flattened fields.
func (t *Table) compile() {
	for id := range t.Structs {
		st := &t.Structs[id]
		c := compiler{t: t, st: st}
		c.members(st.Members, 1, nil, "")
		st.Size = c.offset

		if c.overflow {
			t.diag.Schema(types.SevWarning, st.Name, "struct exceeds member limit",
				t.limits.MaxStructMembers, len(st.Fields))
		}
		if st.Size != st.Length {
			st.Flags |= FlagMisaligned
			t.diag.Schema(types.SevError, st.Name, "struct size mismatch", st.Length, st.Size)
		}
	}
}

type compiler struct {
	t        *Table
	st       *Struct
	offset   int
	overflow bool
}

func (c *compiler) members(members []Member, depth int, chain []Key, prefix string) {
	t := c.t
	for _, m := range members {
		name := &t.Names[m.Name]
		typ := &t.Types[m.Type]

		if !name.IsPointer() && typ.IsStruct() {
			if depth > t.limits.MaxEmbedDepth {
				c.st.Flags |= FlagMisaligned
				t.diag.Schema(types.SevError, c.st.Name, "embedded struct nesting too deep",
					t.limits.MaxEmbedDepth, depth)
				c.offset += typ.Size * name.ArraySize
				continue
			}
			sub := &t.Structs[typ.StructID]
			for i := 0; i < name.ArraySize; i++ {
				path := prefix + name.Ident()
				if name.ArraySize > 1 {
					path += "[" + strconv.Itoa(i) + "]"
				}
				// each level gets its own chain slice; siblings never share backing arrays
				next := make([]Key, len(chain)+1)
				copy(next, chain)
				next[len(chain)] = Key{Type: typ.Hash, Name: name.BaseHash, Index: i}
				c.members(sub.Members, depth+1, next, path+".")
			}
			continue
		}
		c.put(m, name, typ, depth, chain, prefix)
	}
}

func (c *compiler) put(m Member, name *Name, typ *Type, depth int, chain []Key, prefix string) {
	elem := typ.Size
	if name.IsPointer() {
		elem = c.t.PointerSize
	}
	f := Field{
		Type:      m.Type,
		Name:      m.Name,
		TypeHash:  typ.Hash,
		NameHash:  name.Hash,
		BaseHash:  name.BaseHash,
		Kind:      prim.Classify(typ.Hash),
		Pointers:  name.Pointers,
		ArraySize: name.ArraySize,
		Offset:    c.offset,
		Length:    elem * name.ArraySize,
		Depth:     depth,
		Chain:     chain,
		Path:      prefix + name.Ident(),
		Link:      NoLink,
	}
	if n := len(chain); n > 0 {
		f.ArrayIndex = chain[n-1].Index
	}
	if len(c.st.Fields) == c.t.limits.MaxStructMembers {
		c.overflow = true
	}
	c.st.Fields = append(c.st.Fields, f)
	c.offset += f.Length
}
