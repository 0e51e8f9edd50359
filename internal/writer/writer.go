// Package writer provides an output file that only appears at its final
// path once everything was written.
package writer

import (
	"bufio"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// ErrClosed is returned by Write after Commit or Abort.
var ErrClosed = errors.New("writer: file already committed or aborted")

// File buffers writes into a temp file next to Path. Commit syncs it and
// renames it over Path, Abort removes it.
type File struct {
	Path string

	tmp  *os.File
	bw   *bufio.Writer
	done bool
}

// Create opens a temp file in the directory of path.
func Create(path string) (*File, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".blendkit-tmp-*")
	if err != nil {
		return nil, errors.Wrap(err, "create temp file")
	}
	return &File{Path: path, tmp: tmp, bw: bufio.NewWriter(tmp)}, nil
}

func (w *File) Write(p []byte) (int, error) {
	if w.done {
		return 0, ErrClosed
	}
	return w.bw.Write(p)
}

// Commit flushes, syncs and renames the temp file into place.
func (w *File) Commit() error {
	if w.done {
		return ErrClosed
	}
	w.done = true
	tmpPath := w.tmp.Name()

	if err := w.bw.Flush(); err != nil {
		w.discard()
		return errors.Wrap(err, "write temp file")
	}
	if err := w.tmp.Sync(); err != nil {
		w.discard()
		return errors.Wrap(err, "sync temp file")
	}
	if err := w.tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return errors.Wrap(err, "close temp file")
	}
	if err := os.Rename(tmpPath, w.Path); err != nil {
		_ = os.Remove(tmpPath)
		return errors.Wrap(err, "rename temp file")
	}
	return nil
}

// Abort drops the temp file. Path is left untouched. Safe after Commit.
func (w *File) Abort() {
	if w.done {
		return
	}
	w.done = true
	w.discard()
}

func (w *File) discard() {
	_ = w.tmp.Close()
	_ = os.Remove(w.tmp.Name())
}
