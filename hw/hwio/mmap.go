package hwio

import (
	"os"
)

type MapFlags int

const (
	MapReadOnly  MapFlags = 0
	MapReadWrite MapFlags = (1 << iota)
	MapSync                // open with O_SYNC (uncached device access)
)

// Mapping is a memory mapping of a device file.
type Mapping struct {
	Path string
	Data []byte

	f *os.File
}

// MapFile opens the device file at path and maps size bytes of it, from
// offset 0. Failures are reported as *AcquireError.
func MapFile(path string, size int, flags MapFlags) (*Mapping, error) {
	if size <= 0 {
		return nil, &AcquireError{Dev: path, Op: "mmap", Err: os.ErrInvalid}
	}

	oflags := os.O_RDONLY
	if flags&MapReadWrite != 0 {
		oflags = os.O_RDWR
	}
	if flags&MapSync != 0 {
		oflags |= os.O_SYNC
	}

	f, err := os.OpenFile(path, oflags, 0)
	if err != nil {
		return nil, &AcquireError{Dev: path, Op: "open", Err: err}
	}

	data, err := mmap(f, size, flags&MapReadWrite != 0)
	if err != nil {
		f.Close()
		return nil, &AcquireError{Dev: path, Op: "mmap", Err: err}
	}

	return &Mapping{Path: path, Data: data, f: f}, nil
}

// Close unmaps the memory and closes the device file. It is safe to call
// Close more than once.
func (m *Mapping) Close() error {
	if m.f == nil {
		return nil
	}
	err := munmap(m.Data)
	if cerr := m.f.Close(); err == nil {
		err = cerr
	}
	m.Data = nil
	m.f = nil
	return err
}
