package blend

import (
	"io"

	"fortio.org/safecast"
	"github.com/pkg/errors"

	"github.com/joshuapare/blendkit/internal/buf"
	"github.com/joshuapare/blendkit/internal/chunk"
	"github.com/joshuapare/blendkit/internal/stream"
	"github.com/joshuapare/blendkit/internal/writer"
	"github.com/joshuapare/blendkit/pkg/types"
)

// Writer emits chunks during Reflect. Blocks are written with their new
// addresses as old addresses, so pointers inside them stay consistent.
type Writer struct {
	cw *chunk.Writer
	n  int
}

// WriteBlock writes one migrated block.
func (w *Writer) WriteBlock(b *Block) error {
	return w.Write(b.Code, b.Address, b.TypeID, b.Count, b.Data)
}

// Write writes an arbitrary chunk. typeID indexes the memory schema.
func (w *Writer) Write(code Code, addr uint64, typeID, count int, data []byte) error {
	tid, err := safecast.Convert[uint32](typeID)
	if err != nil {
		return errors.Wrapf(err, "chunk %s type id", code)
	}
	n, err := safecast.Convert[uint32](count)
	if err != nil {
		return errors.Wrapf(err, "chunk %s count", code)
	}
	if err := w.cw.Write(chunk.Header{Code: code, OldAddress: addr, TypeID: tid, Count: n}, data); err != nil {
		return err
	}
	w.n++
	return nil
}

// Chunks is the number of chunks written so far.
func (w *Writer) Chunks() int { return w.n }

// Reflect writes the parsed data to path in native byte order and pointer
// width, followed by the memory schema. path is replaced only when the whole
// file was written.
func (f *File) Reflect(path string) error {
	if err := f.parsed(); err != nil {
		return types.NewError(types.StatusFailed, "blend: reflect", err)
	}
	out, err := writer.Create(path)
	if err != nil {
		return types.NewError(types.StatusFailed, "blend: create "+path, err)
	}
	if err := f.ReflectTo(out); err != nil {
		out.Abort()
		return err
	}
	if err := out.Commit(); err != nil {
		return types.NewError(types.StatusFailed, "blend: commit "+path, err)
	}
	return nil
}

// ReflectTo is Reflect onto an arbitrary writer.
func (f *File) ReflectTo(w io.Writer) error {
	if err := f.parsed(); err != nil {
		return types.NewError(types.StatusFailed, "blend: reflect", err)
	}
	version := f.opts.Version
	if version == 0 {
		version = f.header.Version
	}
	if version == 0 {
		version = DefaultVersion
	}

	zw, err := stream.NewWriter(w, f.opts.Compression)
	if err != nil {
		return wrap(err, "blend: reflect")
	}
	cw, err := chunk.NewWriter(zw, FileHeader{
		Magic:       f.opts.Magic,
		PointerSize: f.memTable.PointerSize,
		Endian:      buf.NativeEndian(),
		Version:     version,
	})
	if err != nil {
		return wrap(err, "blend: reflect header")
	}

	if err := f.app.WriteData(&Writer{cw: cw}); err != nil {
		return wrap(err, "blend: write data")
	}
	schema, err := f.memTable.Encode(buf.NativeEndian(), f.memTable.PointerSize)
	if err != nil {
		return wrap(err, "blend: encode schema")
	}
	if err := cw.Write(chunk.Header{Code: chunk.CodeDNA1, Count: 1}, schema); err != nil {
		return wrap(err, "blend: write schema")
	}
	if err := cw.End(); err != nil {
		return wrap(err, "blend: write end")
	}
	if err := zw.Close(); err != nil {
		return wrap(err, "blend: reflect")
	}
	f.rec.Logger().WithField("bytes", cw.Written()).Debug("reflected")
	return nil
}
