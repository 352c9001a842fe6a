// Package udmabuf gives access to the physically contiguous buffers allocated
// by the u-dma-buf kernel driver.
//
// Each buffer is exposed as a device file (/dev/udmabufN) that can be mapped
// in full, while its physical address and size are published in sysfs
// (/sys/class/u-dma-buf/udmabufN/{phys_addr,size}).
package udmabuf

import (
	"encoding/binary"
	"fmt"
	"path/filepath"

	"axiloop/hw/hwio"
	"axiloop/log"
)

const (
	DefaultSysfsRoot = "/sys/class/u-dma-buf"
	DefaultDevRoot   = "/dev"
)

type options struct {
	sysfsRoot string
	devRoot   string
	readonly  bool
	sync      bool
}

type Option func(*options)

// WithSysfsRoot sets the directory holding per-buffer metadata directories.
func WithSysfsRoot(dir string) Option { return func(o *options) { o.sysfsRoot = dir } }

// WithDevRoot sets the directory holding the buffer device files.
func WithDevRoot(dir string) Option { return func(o *options) { o.devRoot = dir } }

// ReadOnly maps the buffer read-only.
func ReadOnly() Option { return func(o *options) { o.readonly = true } }

// Sync opens the buffer device with O_SYNC, disabling CPU caching of the
// buffer. Used when reading data freshly written by hardware.
func Sync() Option { return func(o *options) { o.sync = true } }

// Buffer is a mapped physically contiguous memory region.
//
// A Buffer is not safe for concurrent use.
type Buffer struct {
	Name     string
	PhysAddr uint64
	Size     int
	ReadOnly bool

	data []byte
	m    *hwio.Mapping
}

// Acquire maps the whole buffer named name (e.g. "udmabuf0").
func Acquire(name string, opts ...Option) (*Buffer, error) {
	o := options{
		sysfsRoot: DefaultSysfsRoot,
		devRoot:   DefaultDevRoot,
	}
	for _, opt := range opts {
		opt(&o)
	}

	phys, size, err := Metadata(o.sysfsRoot, name)
	if err != nil {
		return nil, err
	}

	flags := hwio.MapReadWrite
	if o.readonly {
		flags = hwio.MapReadOnly
	}
	if o.sync {
		flags |= hwio.MapSync
	}
	m, err := hwio.MapFile(filepath.Join(o.devRoot, name), size, flags)
	if err != nil {
		return nil, err
	}

	log.ModMem.DebugZ("acquired buffer").
		String("name", name).
		Hex64("phys", phys).
		Int("size", size).
		Bool("ro", o.readonly).
		End()

	return &Buffer{
		Name:     name,
		PhysAddr: phys,
		Size:     size,
		ReadOnly: o.readonly,
		data:     m.Data,
		m:        m,
	}, nil
}

// New returns a Buffer over plain memory, as if data was mapped at physical
// address phys.
func New(name string, phys uint64, data []byte) *Buffer {
	return &Buffer{
		Name:     name,
		PhysAddr: phys,
		Size:     len(data),
		data:     data,
	}
}

func (b *Buffer) check(off int64, n int) error {
	if b.data == nil {
		return fmt.Errorf("%s: %w", b.Name, hwio.ErrClosed)
	}
	if off < 0 {
		return &hwio.RangeError{Name: b.Name, Off: uint64(off), Len: n, Size: b.Size}
	}
	return hwio.CheckRange(b.Name, uint64(off), n, b.Size)
}

// Bytes returns the n bytes of the mapping starting at off. The returned
// slice aliases the buffer memory.
func (b *Buffer) Bytes(off int64, n int) ([]byte, error) {
	if err := b.check(off, n); err != nil {
		return nil, err
	}
	return b.data[off : off+int64(n) : off+int64(n)], nil
}

// ReadAt copies len(p) bytes at off into p. Unlike io.ReaderAt, a read that
// does not fit entirely in the buffer copies nothing and fails with a
// *hwio.RangeError.
func (b *Buffer) ReadAt(p []byte, off int64) (int, error) {
	src, err := b.Bytes(off, len(p))
	if err != nil {
		return 0, err
	}
	return copy(p, src), nil
}

// WriteAt copies p into the buffer at off.
func (b *Buffer) WriteAt(p []byte, off int64) (int, error) {
	if b.ReadOnly {
		return 0, fmt.Errorf("%s: %w", b.Name, hwio.ErrReadOnly)
	}
	dst, err := b.Bytes(off, len(p))
	if err != nil {
		return 0, err
	}
	return copy(dst, p), nil
}

// Read32 reads a little-endian 32-bit value at off.
func (b *Buffer) Read32(off int64) (uint32, error) {
	src, err := b.Bytes(off, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(src), nil
}

// Write32 writes a little-endian 32-bit value at off.
func (b *Buffer) Write32(off int64, val uint32) error {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], val)
	_, err := b.WriteAt(tmp[:], off)
	return err
}

// Release unmaps the buffer. It is safe to call Release more than once.
func (b *Buffer) Release() error {
	if b.data == nil {
		return nil
	}
	b.data = nil

	if b.m == nil {
		return nil
	}
	log.ModMem.DebugZ("released buffer").String("name", b.Name).End()
	return b.m.Close()
}
