package hwio

import (
	"sync/atomic"
	"unsafe"
)

// Mem32 is a BankIO32 over a linear memory area, typically a device register
// window mapped into the process. Every access is a single 32-bit load or
// store so that the device sees exactly one bus transaction per register
// access. Values are in host byte order, which matches the little-endian
// layout of the registers on the supported hosts (see be_unsupported.go).
type Mem32 struct {
	ptr  unsafe.Pointer
	size uint32
}

func NewMem32(buf []byte) *Mem32 {
	if len(buf) == 0 || len(buf)%4 != 0 {
		panic("memory buffer size is not a multiple of 4")
	}
	return &Mem32{
		ptr:  unsafe.Pointer(&buf[0]),
		size: uint32(len(buf)),
	}
}

func (m *Mem32) word(off uint32) *uint32 {
	return (*uint32)(unsafe.Add(m.ptr, off))
}

func (m *Mem32) Read32(off uint32) uint32 {
	return atomic.LoadUint32(m.word(off))
}

func (m *Mem32) Write32(off uint32, val uint32) {
	atomic.StoreUint32(m.word(off), val)
}
