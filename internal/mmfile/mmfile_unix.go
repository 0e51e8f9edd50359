//go:build unix

package mmfile

import (
	"os"

	"fortio.org/safecast"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Map maps the file at path read-only and returns its contents plus a
// release function. Calling release more than once is a no-op.
func Map(path string) ([]byte, func() error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, nil, err
	}
	if info.Size() == 0 {
		return []byte{}, noop, nil
	}
	size, err := safecast.Convert[int](info.Size())
	if err != nil {
		return nil, nil, errors.Errorf("mmfile: %s too large to map (%d bytes)", path, info.Size())
	}
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "mmfile: map %s", path)
	}
	released := false
	release := func() error {
		if released {
			return nil
		}
		released = true
		return unix.Munmap(data)
	}
	return data, release, nil
}
