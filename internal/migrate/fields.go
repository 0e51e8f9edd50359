package migrate

import (
	"github.com/joshuapare/blendkit/internal/buf"
	"github.com/joshuapare/blendkit/internal/hashtab"
	"github.com/joshuapare/blendkit/internal/prim"
	"github.com/joshuapare/blendkit/internal/sdna"
	"github.com/joshuapare/blendkit/pkg/types"
)

// migrate copies every linked field of every record of st.
func (e *engine) migrate(st *state) {
	fs, ms, b := st.fs, st.ms, st.block
	src := st.c.Data
	truncated := false

	for r := 0; r < b.Count; r++ {
		srcRec := r * fs.Length
		dstRec := r * ms.Length
		for i := range ms.Fields {
			mf := &ms.Fields[i]
			if mf.Link == sdna.NoLink {
				continue
			}
			ff := &fs.Fields[mf.Link]

			s, ok := buf.Slice(src, srcRec+ff.Offset, ff.Length)
			if !ok {
				truncated = true
				continue
			}
			d, ok := buf.Slice(b.Data, dstRec+mf.Offset, mf.Length)
			if !ok {
				continue
			}
			if mf.IsPointer() {
				e.pointers(d, mf, s, ff, ms)
				continue
			}
			e.values(d, mf, s, ff)
		}
	}
	if truncated {
		e.diag.Chunk(types.SevWarning, fs.Name, st.c.OldAddress, "payload shorter than struct layout, fields left zero")
	}
}

// values copies a value field, element by element when the bytes cannot be
// moved as is.
func (e *engine) values(d []byte, mf *sdna.Field, s []byte, ff *sdna.Field) {
	cast := mf.Flags.Has(sdna.FlagNeedCast) || ff.TypeHash != mf.TypeHash
	if !cast && !e.swap {
		copy(d, s)
		return
	}

	n := min(elems(ff), elems(mf))
	se, de := ff.ElemSize(), mf.ElemSize()
	var tmp [8]byte
	for i := 0; i < n; i++ {
		se0, de0 := i*se, i*de
		if se0+se > len(s) || de0+de > len(d) {
			return
		}
		sv, dv := s[se0:se0+se], d[de0:de0+de]
		switch {
		case cast && ff.Kind.IsNumber() && mf.Kind.IsNumber():
			prim.Convert(dv, mf.Kind, e.nativeOrder, sv, ff.Kind, e.fileOrder)
		case e.swap && ff.Kind.IsNumber() && se <= len(tmp):
			t := tmp[:se]
			copy(t, sv)
			buf.SwapElem(t)
			copy(dv, t)
		default:
			copy(dv, sv)
		}
	}
}

// pointers relocates every slot of a pointer field.
func (e *engine) pointers(d []byte, mf *sdna.Field, s []byte, ff *sdna.Field, ms *sdna.Struct) {
	n := min(elems(ff), elems(mf))
	for i := 0; i < n; i++ {
		sv, ok := buf.Slice(s, i*e.filePtr, e.filePtr)
		if !ok {
			return
		}
		old := buf.Uint(sv, e.filePtr, e.fileOrder)
		var addr uint64
		if mf.Pointers > 1 {
			addr = e.table(old, ms.Name, mf.Path)
		} else {
			addr = e.resolve(old, ms.Name, mf.Path)
		}
		buf.PutUint(d[i*e.nativePtr:], e.nativePtr, e.nativeOrder, addr)
	}
}

func elems(f *sdna.Field) int {
	if f.ArraySize < 1 {
		return 1
	}
	return f.ArraySize
}

// resolve maps an old address to the new address of its block. Zero stays
// zero; addresses without a migrated block become zero.
func (e *engine) resolve(old uint64, structure, field string) uint64 {
	if old == 0 {
		return 0
	}
	if i, ok := e.byAddr.Get(hashtab.Addr(old)); ok {
		if b := e.states[i].block; b != nil {
			return b.Address
		}
	}
	e.res.Stats.Unresolved++
	if e.reported.Insert(hashtab.Addr(old), struct{}{}) {
		e.diag.Pointer(structure, field, old)
	}
	return 0
}

// table resolves a pointer to an array of pointers. The first dereference
// of a raw block rewrites its addresses into native width and order; later
// ones reuse the rewritten block.
func (e *engine) table(old uint64, structure, field string) uint64 {
	if old == 0 {
		return 0
	}
	i, ok := e.byAddr.Get(hashtab.Addr(old))
	if !ok || e.states[i].block == nil {
		return e.resolve(old, structure, field)
	}
	st := &e.states[i]
	b := st.block
	if b.Raw && !b.Modified && e.convert(st, structure, field) {
		e.res.Stats.PointerTables++
	}
	return b.Address
}

// convert rewrites a raw block as native addresses of the blocks its
// file-width words point to.
func (e *engine) convert(st *state, structure, field string) bool {
	b := st.block
	n := len(st.c.Data) / e.filePtr
	size, err := buf.RecordsSize(n, e.nativePtr, e.limits.MaxAllocation)
	if err != nil {
		e.diag.Chunk(types.SevError, structure, st.c.OldAddress, "pointer table too large, left unconverted")
		return false
	}
	out := make([]byte, size)
	for j := 0; j < n; j++ {
		entry := buf.Uint(st.c.Data[j*e.filePtr:], e.filePtr, e.fileOrder)
		buf.PutUint(out[j*e.nativePtr:], e.nativePtr, e.nativeOrder, e.resolve(entry, structure, field))
	}
	b.Data = out
	b.Count = n
	b.Modified = true
	return true
}
