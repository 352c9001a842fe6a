package hwio

import (
	"fmt"

	"axiloop/log"
)

// BankIO32 is the raw access interface to a register window. Offsets are
// validated by Window before reaching a BankIO32.
type BankIO32 interface {
	Read32(off uint32) uint32
	Write32(off uint32, val uint32)
}

// DefaultWindowSize is the size of an AXI register window exposed through UIO.
const DefaultWindowSize = 0x10000

// Window is a fixed-size register window. Every access is bounds checked
// against the window size.
//
// A Window is not safe for concurrent use, a device register window must have
// a single owner.
type Window struct {
	Name string
	Size int

	io    BankIO32
	close func() error
}

// NewWindow creates a window of the given size over io.
func NewWindow(name string, size int, io BankIO32) *Window {
	return &Window{
		Name:  name,
		Size:  size,
		io:    io,
		close: func() error { return nil },
	}
}

// OpenWindow maps size bytes of the register device at path (typically
// /dev/uioN).
func OpenWindow(path string, size int) (*Window, error) {
	m, err := MapFile(path, size, MapReadWrite|MapSync)
	if err != nil {
		return nil, err
	}

	log.ModHwIo.DebugZ("mapped register window").
		String("dev", path).
		Hex32("size", uint32(size)).
		End()

	w := NewWindow(path, size, NewMem32(m.Data))
	w.close = m.Close
	return w, nil
}

func (w *Window) check(off uint32) error {
	if w.io == nil {
		return fmt.Errorf("%s: %w", w.Name, ErrClosed)
	}
	if err := CheckRange(w.Name, uint64(off), 4, w.Size); err != nil {
		return err
	}
	if off&3 != 0 {
		return fmt.Errorf("%s: offset %#x: %w", w.Name, off, ErrUnaligned)
	}
	return nil
}

// Read32 reads the 32-bit register at off.
func (w *Window) Read32(off uint32) (uint32, error) {
	if err := w.check(off); err != nil {
		return 0, err
	}
	return w.io.Read32(off), nil
}

// Write32 writes the 32-bit register at off.
func (w *Window) Write32(off uint32, val uint32) error {
	if err := w.check(off); err != nil {
		return err
	}
	w.io.Write32(off, val)
	return nil
}

// Close unmaps the window. It is safe to call Close more than once.
func (w *Window) Close() error {
	if w.io == nil {
		return nil
	}
	w.io = nil
	return w.close()
}
