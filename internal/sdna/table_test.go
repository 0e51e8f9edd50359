package sdna

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/blendkit/internal/buf"
	"github.com/joshuapare/blendkit/internal/diag"
	"github.com/joshuapare/blendkit/internal/prim"
	"github.com/joshuapare/blendkit/pkg/types"
)

func le8() Options { return Options{Endian: buf.LittleEndian, PointerSize: 8} }

func TestParseFlatStruct(t *testing.T) {
	tab, err := NewBuilder(8).
		Struct("Foo", "int a", "float b[2]", "char c", "Foo *next").
		Table(le8())
	require.NoError(t, err)

	foo := tab.StructByName("Foo")
	require.NotNil(t, foo)
	require.Equal(t, 4+8+1+8, foo.Length)
	require.Equal(t, foo.Length, foo.Size)
	require.False(t, foo.Flags.Has(FlagMisaligned))
	require.Len(t, foo.Fields, 4)

	want := []struct {
		path   string
		offset int
		length int
		kind   prim.Kind
		ptrs   int
	}{
		{"a", 0, 4, prim.Int, 0},
		{"b", 4, 8, prim.Float, 0},
		{"c", 12, 1, prim.Char, 0},
		{"next", 13, 8, prim.Unknown, 1},
	}
	for i, w := range want {
		f := &foo.Fields[i]
		require.Equal(t, w.path, f.Path)
		require.Equal(t, w.offset, f.Offset, w.path)
		require.Equal(t, w.length, f.Length, w.path)
		require.Equal(t, w.kind, f.Kind, w.path)
		require.Equal(t, w.ptrs, f.Pointers, w.path)
		require.Equal(t, NoLink, f.Link)
	}
	require.Equal(t, 4, foo.Field("b").ElemSize())
	require.Nil(t, foo.Field("missing"))

	idx, ok := tab.TypeByName("float")
	require.True(t, ok)
	require.Equal(t, "float", tab.Types[idx].Name)
	require.Equal(t, "Foo", tab.FieldType(foo.Field("next")).Name)
	require.Equal(t, "*next", tab.FieldName(foo.Field("next")).Text)
}

func TestPointerSizeAffectsLayout(t *testing.T) {
	b := NewBuilder(4).Struct("Node", "Node *next", "int v")
	tab, err := b.Table(Options{Endian: buf.LittleEndian, PointerSize: 4})
	require.NoError(t, err)
	node := tab.StructByName("Node")
	require.Equal(t, 8, node.Length)
	require.Equal(t, 4, node.Field("v").Offset)
}

func TestEmbeddedStructOffsets(t *testing.T) {
	tab, err := NewBuilder(8).
		Struct("vec", "float x", "float y").
		Struct("Obj", "int flag", "vec loc", "vec pts[2]", "short pad").
		Table(le8())
	require.NoError(t, err)

	obj := tab.StructByName("Obj")
	require.Equal(t, 4+8+16+2, obj.Length)
	require.Equal(t, obj.Length, obj.Size)

	paths := make([]string, len(obj.Fields))
	for i := range obj.Fields {
		paths[i] = obj.Fields[i].Path
	}
	require.Equal(t, []string{
		"flag", "loc.x", "loc.y", "pts[0].x", "pts[0].y", "pts[1].x", "pts[1].y", "pad",
	}, paths)

	locY := obj.Field("loc.y")
	require.Equal(t, 8, locY.Offset)
	require.Equal(t, 2, locY.Depth)
	require.Len(t, locY.Chain, 1)
	require.Equal(t, 0, locY.ArrayIndex)

	p1x := obj.Field("pts[1].x")
	require.Equal(t, 20, p1x.Offset)
	require.Equal(t, 1, p1x.ArrayIndex)
	require.False(t, p1x.SameChain(obj.Field("pts[0].x")))
	require.True(t, p1x.SameChain(obj.Field("pts[1].y")))

	// top-level fields have an empty chain
	require.Empty(t, obj.Field("flag").Chain)
	require.Equal(t, 1, obj.Field("flag").Depth)

	// sum of the embedded struct's flattened members matches its type length
	vec := tab.StructByName("vec")
	sum := 0
	for i := range vec.Fields {
		sum += vec.Fields[i].Length
	}
	require.Equal(t, vec.Length, sum)
}

func TestEmbeddedChainsDoNotAlias(t *testing.T) {
	tab, err := NewBuilder(8).
		Struct("inner", "int v").
		Struct("mid", "inner a", "inner b").
		Struct("outer", "mid m", "mid n").
		Table(le8())
	require.NoError(t, err)

	outer := tab.StructByName("outer")
	require.Len(t, outer.Fields, 4)
	seen := map[string]bool{}
	for i := range outer.Fields {
		f := &outer.Fields[i]
		require.Len(t, f.Chain, 2)
		seen[f.Path] = true
		for j := range outer.Fields {
			if i != j {
				require.False(t, f.SameChain(&outer.Fields[j]), "%s vs %s", f.Path, outer.Fields[j].Path)
			}
		}
	}
	require.True(t, seen["m.a.v"] && seen["n.b.v"])
}

func TestMisalignedStructFlagged(t *testing.T) {
	rec := diag.New(nil)
	opts := le8()
	opts.Diag = rec
	tab, err := NewBuilder(8).
		StructSized("bad", 12, "int a", "int b").
		Struct("holder", "bad x", "int tail").
		Table(opts)
	require.NoError(t, err)

	bad := tab.StructByName("bad")
	require.True(t, bad.Flags.Has(FlagMisaligned))
	require.Equal(t, 12, bad.Length)
	require.Equal(t, 8, bad.Size)

	// the holder embeds the wrong declared length, so it is misaligned too
	holder := tab.StructByName("holder")
	require.True(t, holder.Flags.Has(FlagMisaligned))
	require.Equal(t, 8, holder.Field("tail").Offset)

	require.Len(t, rec.Report().Filter(types.DiagSchema), 2)
}

func TestSelfEmbeddingStopsAtDepthLimit(t *testing.T) {
	// hand-assemble a struct that embeds itself by value
	blob, err := encodeBlob(binary.LittleEndian,
		[]string{"loop", "v"},
		[]string{"int", "Loop"},
		[]int{4, 4},
		[]rawStruct{{Type: 1, Members: []Member{{Type: 0, Name: 1}, {Type: 1, Name: 0}}}},
	)
	require.NoError(t, err)

	opts := le8()
	opts.Limits = types.Limits{MaxEmbedDepth: 3}
	tab, err := Parse(blob, opts)
	require.NoError(t, err)
	loop := tab.StructByName("Loop")
	require.True(t, loop.Flags.Has(FlagMisaligned))
	require.Len(t, loop.Fields, 4)
}

func TestParseBigEndian(t *testing.T) {
	b := NewBuilder(8).Struct("Foo", "short s", "double d")
	blob, err := b.Bytes(buf.BigEndian)
	require.NoError(t, err)

	_, err = Parse(blob, le8())
	require.Error(t, err, "big-endian counts read as little-endian must not parse")

	tab, err := Parse(blob, Options{Endian: buf.BigEndian, PointerSize: 8})
	require.NoError(t, err)
	require.Equal(t, 10, tab.StructByName("Foo").Length)
	require.Equal(t, buf.BigEndian, tab.Endian)
}

func TestParseErrors(t *testing.T) {
	blob, err := NewBuilder(8).Struct("Foo", "int a").Bytes(buf.LittleEndian)
	require.NoError(t, err)

	_, err = Parse(blob[:len(blob)-3], le8())
	require.ErrorIs(t, err, ErrTruncated)

	broken := append([]byte(nil), blob...)
	copy(broken[4:], "NAMX")
	_, err = Parse(broken, le8())
	require.ErrorIs(t, err, ErrMissingTag)

	_, err = Parse(blob, Options{Endian: buf.LittleEndian, PointerSize: 2})
	require.Error(t, err)

	opts := le8()
	opts.Limits = types.Limits{MaxTableEntries: 3}
	_, err = Parse(blob, opts)
	require.ErrorIs(t, err, ErrTableFull)
}

func TestParseRejectsDuplicates(t *testing.T) {
	blob, err := encodeBlob(binary.LittleEndian,
		[]string{"a"},
		[]string{"int", "Foo"},
		[]int{4, 4},
		[]rawStruct{
			{Type: 1, Members: []Member{{Type: 0, Name: 0}}},
			{Type: 1, Members: []Member{{Type: 0, Name: 0}}},
		},
	)
	require.NoError(t, err)
	_, err = Parse(blob, le8())
	require.ErrorIs(t, err, ErrDuplicate)

	blob, err = encodeBlob(binary.LittleEndian, []string{"a"}, []string{"int", "int"}, []int{4, 4}, nil)
	require.NoError(t, err)
	_, err = Parse(blob, le8())
	require.ErrorIs(t, err, ErrDuplicate)

	_, err = NewBuilder(8).Struct("Foo", "int a").Struct("Foo", "int b").Bytes(buf.LittleEndian)
	require.ErrorIs(t, err, ErrDuplicate)
}

func TestParseRejectsBadIndex(t *testing.T) {
	blob, err := encodeBlob(binary.LittleEndian,
		[]string{"a"},
		[]string{"int", "Foo"},
		[]int{4, 4},
		[]rawStruct{{Type: 1, Members: []Member{{Type: 7, Name: 0}}}},
	)
	require.NoError(t, err)
	_, err = Parse(blob, le8())
	require.ErrorIs(t, err, ErrBadIndex)
}

func TestIsLinkStruct(t *testing.T) {
	tab, err := NewBuilder(8).
		Struct("Link", "Link *next", "Link *prev").
		Struct("ListBase", "void *first", "void *last").
		Table(le8())
	require.NoError(t, err)
	require.True(t, tab.IsLinkStruct(tab.StructByName("Link")))
	require.False(t, tab.IsLinkStruct(tab.StructByName("ListBase")))
}

func TestEncodeRoundTrip(t *testing.T) {
	tab, err := NewBuilder(8).
		Struct("vec", "float x", "float y").
		Struct("Obj", "Obj *next", "vec loc", "int flag").
		Table(le8())
	require.NoError(t, err)

	// same pointer size keeps declared lengths and re-parses identically
	blob, err := tab.Encode(buf.BigEndian, 8)
	require.NoError(t, err)
	again, err := Parse(blob, Options{Endian: buf.BigEndian, PointerSize: 8})
	require.NoError(t, err)
	require.Equal(t, len(tab.Structs), len(again.Structs))
	require.Equal(t, tab.StructByName("Obj").Length, again.StructByName("Obj").Length)

	// a different pointer size recomputes struct lengths
	blob, err = tab.Encode(buf.LittleEndian, 4)
	require.NoError(t, err)
	narrow, err := Parse(blob, Options{Endian: buf.LittleEndian, PointerSize: 4})
	require.NoError(t, err)
	obj := narrow.StructByName("Obj")
	require.Equal(t, 4+8+4, obj.Length)
	require.False(t, obj.Flags.Has(FlagMisaligned))
}

func TestFlagsString(t *testing.T) {
	require.Equal(t, "-", Flags(0).String())
	require.Equal(t, "missing|cast", (FlagMissing | FlagNeedCast).String())
}

func TestEncodeRejectsOversizedType(t *testing.T) {
	// type lengths are stored as u16
	_, err := NewBuilder(8).Type("huge", 70000).Bytes(buf.LittleEndian)
	require.Error(t, err)

	_, err = NewBuilder(8).Type("big", 65535).Bytes(buf.LittleEndian)
	require.NoError(t, err)
}
