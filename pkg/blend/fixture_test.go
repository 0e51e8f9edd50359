package blend

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/blendkit/internal/buf"
	"github.com/joshuapare/blendkit/internal/chunk"
	"github.com/joshuapare/blendkit/internal/sdna"
)

// enc appends values in a fixed byte order and pointer width.
type enc struct {
	b     []byte
	order buf.Order
	ptr   int
}

func (e *enc) i32(v int32) *enc { e.b = e.order.AppendUint32(e.b, uint32(v)); return e }
func (e *enc) f32(v float32) *enc {
	e.b = e.order.AppendUint32(e.b, math.Float32bits(v))
	return e
}
func (e *enc) str(s string, n int) *enc {
	b := make([]byte, n)
	copy(b, s)
	e.b = append(e.b, b...)
	return e
}
func (e *enc) addr(v uint64) *enc {
	if e.ptr == 4 {
		e.b = e.order.AppendUint32(e.b, uint32(v))
	} else {
		e.b = e.order.AppendUint64(e.b, v)
	}
	return e
}

type testChunk struct {
	code  string
	typ   string
	addr  uint64
	count int
	data  []byte
}

// encodeFile writes a complete file in any byte order and pointer width.
func encodeFile(t *testing.T, magic string, ptr int, e buf.Endian, schema *sdna.Builder, chunks ...testChunk) []byte {
	t.Helper()
	tab, err := schema.Table(sdna.Options{Endian: e, PointerSize: ptr})
	require.NoError(t, err)
	blob, err := schema.Bytes(e)
	require.NoError(t, err)

	var out bytes.Buffer
	hdr, err := chunk.FileHeader{Magic: magic, PointerSize: ptr, Endian: e, Version: 279}.Bytes()
	require.NoError(t, err)
	out.Write(hdr)

	w := &enc{order: e.Order(), ptr: ptr}
	put := func(code string, length int, addr uint64, typeID, count int) {
		c := chunk.MakeCode(code).Bytes()
		w.b = append(w.b[:0], c[:]...)
		w.b = w.order.AppendUint32(w.b, uint32(length))
		w.addr(addr)
		w.b = w.order.AppendUint32(w.b, uint32(typeID))
		w.b = w.order.AppendUint32(w.b, uint32(count))
		out.Write(w.b)
	}
	for _, c := range chunks {
		s := tab.StructByName(c.typ)
		require.NotNil(t, s, c.typ)
		put(c.code, len(c.data), c.addr, s.ID, c.count)
		out.Write(c.data)
	}
	put("DNA1", len(blob), 0, 0, 1)
	out.Write(blob)
	put("ENDB", 0, 0, 0, 0)
	return out.Bytes()
}

func sceneSchema(ptr int) *sdna.Builder {
	return sdna.NewBuilder(ptr).
		Struct("Link", "Link *next", "Link *prev").
		Struct("ID", "void *next", "char name[24]", "int us", "int pad").
		Struct("Material", "ID id", "float r", "float g", "float b").
		Struct("Object", "ID id", "float loc[3]", "Material **mat", "int totcol", "Object *parent")
}

// scene holds two objects, one material and the material table of the
// first object.
func scene(t *testing.T, ptr int, e buf.Endian) []byte {
	t.Helper()
	n := func() *enc { return &enc{order: e.Order(), ptr: ptr} }
	cube := n().addr(0x1100).str("OBCube", 24).i32(1).i32(0).
		f32(1).f32(2).f32(3).addr(0x3000).i32(1).addr(0x1100)
	lamp := n().addr(0).str("OBLamp", 24).i32(1).i32(0).
		f32(-4).f32(0.5).f32(8).addr(0).i32(0).addr(0)
	mat := n().addr(0).str("MARed", 24).i32(2).i32(0).
		f32(1).f32(0).f32(0.25)
	table := n().addr(0x2000)

	return encodeFile(t, chunk.DefaultMagic, ptr, e, sceneSchema(ptr),
		testChunk{"OB", "Object", 0x1000, 1, cube.b},
		testChunk{"OB", "Object", 0x1100, 1, lamp.b},
		testChunk{"MA", "Material", 0x2000, 1, mat.b},
		testChunk{"DATA", "Link", 0x3000, 1, table.b},
	)
}

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}
