package hwio

import (
	"errors"
	"fmt"
)

var (
	ErrAcquire    = errors.New("device unavailable")
	ErrOutOfRange = errors.New("out of range")
	ErrUnaligned  = errors.New("unaligned access")
	ErrReadOnly   = errors.New("read-only")
	ErrWriteOnly  = errors.New("write-only")
	ErrClosed     = errors.New("closed")
)

// AcquireError reports a device or device metadata that could not be opened
// or mapped.
type AcquireError struct {
	Dev string // device or metadata path
	Op  string // open, mmap, read, parse
	Err error
}

func (e *AcquireError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Dev, e.Err)
}

func (e *AcquireError) Unwrap() []error { return []error{ErrAcquire, e.Err} }

// RangeError reports an access of Len bytes at Off that does not fit in a
// mapped area of Size bytes.
type RangeError struct {
	Name string
	Off  uint64
	Len  int
	Size int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s: access [%#x, %#x) out of range, size is %#x",
		e.Name, e.Off, e.Off+uint64(e.Len), e.Size)
}

func (e *RangeError) Unwrap() error { return ErrOutOfRange }

// CheckRange returns a *RangeError if [off, off+n) is not within [0, size).
func CheckRange(name string, off uint64, n, size int) error {
	if n < 0 || off > uint64(size) || uint64(n) > uint64(size)-off {
		return &RangeError{Name: name, Off: off, Len: n, Size: size}
	}
	return nil
}
