package sdna

import (
	"bytes"
	"encoding/binary"

	"fortio.org/safecast"
	"github.com/pkg/errors"

	"github.com/joshuapare/blendkit/internal/buf"
)

type rawStruct struct {
	Type    int
	Members []Member
}

type blobWriter struct {
	bytes.Buffer
	order binary.ByteOrder
	err   error
}

func (w *blobWriter) u32(v int) {
	n, err := safecast.Convert[uint32](v)
	if err != nil && w.err == nil {
		w.err = errors.Wrapf(err, "sdna: value %d", v)
	}
	var b [4]byte
	w.order.PutUint32(b[:], n)
	w.Write(b[:])
}

func (w *blobWriter) u16(v int) {
	n, err := safecast.Convert[uint16](v)
	if err != nil && w.err == nil {
		w.err = errors.Wrapf(err, "sdna: value %d", v)
	}
	var b [2]byte
	w.order.PutUint16(b[:], n)
	w.Write(b[:])
}

func (w *blobWriter) align() {
	for w.Len() != buf.Align4(w.Len()) {
		w.WriteByte(0)
	}
}

func encodeBlob(order binary.ByteOrder, names, typeNames []string, sizes []int, structs []rawStruct) ([]byte, error) {
	w := &blobWriter{order: order}
	w.WriteString(TagSDNA)

	w.WriteString(TagName)
	w.u32(len(names))
	for _, n := range names {
		w.WriteString(n)
		w.WriteByte(0)
	}
	w.align()

	w.WriteString(TagType)
	w.u32(len(typeNames))
	for _, n := range typeNames {
		w.WriteString(n)
		w.WriteByte(0)
	}
	w.align()

	w.WriteString(TagTLen)
	for _, s := range sizes {
		w.u16(s)
	}
	w.align()

	w.WriteString(TagStrc)
	w.u32(len(structs))
	for _, s := range structs {
		w.u16(s.Type)
		w.u16(len(s.Members))
		for _, m := range s.Members {
			w.u16(m.Type)
			w.u16(m.Name)
		}
	}
	if w.err != nil {
		return nil, w.err
	}
	return w.Bytes(), nil
}

// Encode serializes the schema in byte order e for a layout with the given
// pointer size. When pointerSize differs from the table's own, struct type
// lengths are recomputed; otherwise declared lengths are kept as they are.
func (t *Table) Encode(e buf.Endian, pointerSize int) ([]byte, error) {
	names := make([]string, len(t.Names))
	for i := range t.Names {
		names[i] = t.Names[i].Text
	}
	typeNames := make([]string, len(t.Types))
	sizes := make([]int, len(t.Types))
	for i := range t.Types {
		typeNames[i] = t.Types[i].Name
		sizes[i] = t.Types[i].Size
	}
	if pointerSize != t.PointerSize {
		memo := make(map[int]int, len(t.Structs))
		for id := range t.Structs {
			sizes[t.Structs[id].Type] = t.structSize(id, pointerSize, memo, 0)
		}
	}
	structs := make([]rawStruct, len(t.Structs))
	for i := range t.Structs {
		structs[i] = rawStruct{Type: t.Structs[i].Type, Members: t.Structs[i].Members}
	}
	return encodeBlob(e.Order(), names, typeNames, sizes, structs)
}

func (t *Table) structSize(id, ptr int, memo map[int]int, depth int) int {
	if n, ok := memo[id]; ok {
		return n
	}
	if depth > t.limits.MaxEmbedDepth {
		return 0
	}
	size := 0
	for _, m := range t.Structs[id].Members {
		name := &t.Names[m.Name]
		typ := &t.Types[m.Type]
		switch {
		case name.IsPointer():
			size += ptr * name.ArraySize
		case typ.IsStruct():
			size += t.structSize(typ.StructID, ptr, memo, depth+1) * name.ArraySize
		default:
			size += typ.Size * name.ArraySize
		}
	}
	memo[id] = size
	return size
}
