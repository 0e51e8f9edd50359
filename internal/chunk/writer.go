package chunk

import (
	"encoding/binary"
	"io"

	"fortio.org/safecast"
	"github.com/pkg/errors"

	"github.com/joshuapare/blendkit/internal/buf"
)

// Writer emits a file header followed by chunks. Only the host byte order
// is supported.
type Writer struct {
	w     io.Writer
	file  FileHeader
	order binary.ByteOrder
	hdr   []byte
	n     int64
	ended bool
}

// NewWriter writes fh to w.
func NewWriter(w io.Writer, fh FileHeader) (*Writer, error) {
	if !buf.IsEndian(fh.Endian) {
		return nil, errors.Wrapf(ErrUnsupported, "writing %s-endian files", fh.Endian)
	}
	b, err := fh.Bytes()
	if err != nil {
		return nil, err
	}
	cw := &Writer{
		w:     w,
		file:  fh,
		order: fh.Endian.Order(),
		hdr:   make([]byte, ChunkHeaderSize(fh.PointerSize)),
	}
	if err := cw.write(b); err != nil {
		return nil, err
	}
	return cw, nil
}

// FileHeader returns the header this writer was created with.
func (w *Writer) FileHeader() FileHeader { return w.file }

// Written is the number of bytes emitted so far.
func (w *Writer) Written() int64 { return w.n }

// Write emits one chunk. h.Length is taken from len(data).
func (w *Writer) Write(h Header, data []byte) error {
	if w.ended {
		return errors.Wrap(ErrUnsupported, "write after end chunk")
	}
	n, err := safecast.Convert[uint32](len(data))
	if err != nil || n == NoLength {
		return errors.Wrapf(ErrTooLarge, "chunk %s: %d bytes", h.Code, len(data))
	}
	h.Length = n
	if err := w.putHeader(h); err != nil {
		return err
	}
	if len(data) > 0 {
		return w.write(data)
	}
	return nil
}

// End emits the end chunk. Further writes fail.
func (w *Writer) End() error {
	if w.ended {
		return nil
	}
	if err := w.putHeader(Header{Code: CodeENDB}); err != nil {
		return err
	}
	w.ended = true
	return nil
}

func (w *Writer) putHeader(h Header) error {
	b := w.hdr
	binary.LittleEndian.PutUint32(b[0:4], uint32(h.Code))
	w.order.PutUint32(b[4:8], h.Length)
	off := 8
	if w.file.PointerSize == 8 {
		w.order.PutUint64(b[off:], h.OldAddress)
	} else {
		addr, err := safecast.Convert[uint32](h.OldAddress)
		if err != nil {
			return errors.Wrapf(ErrUnsupported, "address %#x does not fit a 32-bit file", h.OldAddress)
		}
		w.order.PutUint32(b[off:], addr)
	}
	off += w.file.PointerSize
	w.order.PutUint32(b[off:], h.TypeID)
	w.order.PutUint32(b[off+4:], h.Count)
	return w.write(b)
}

func (w *Writer) write(b []byte) error {
	n, err := w.w.Write(b)
	w.n += int64(n)
	if err != nil {
		return errors.Wrap(err, "chunk: write")
	}
	return nil
}
