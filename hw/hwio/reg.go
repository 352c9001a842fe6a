package hwio

import (
	"fmt"

	"axiloop/log"
)

type RWFlags uint8

const (
	ReadWriteFlag RWFlags = 0
	ReadOnlyFlag  RWFlags = (1 << iota)
	WriteOnlyFlag
)

// Reg32 is a named 32-bit register at a fixed offset of a register window.
// Registers are normally created in banks by InitRegs.
type Reg32 struct {
	Name   string
	Offset uint32
	Flags  RWFlags

	win *Window
}

// NewReg32 returns the register at off in win. The register must fit in the
// window.
func NewReg32(win *Window, name string, off uint32, flags RWFlags) (Reg32, error) {
	if err := CheckRange(win.Name, uint64(off), 4, win.Size); err != nil {
		return Reg32{}, fmt.Errorf("hwio: register %s: %w", name, err)
	}
	return Reg32{Name: name, Offset: off, Flags: flags, win: win}, nil
}

func (reg Reg32) String() string {
	s := fmt.Sprintf("%s@%#02x", reg.Name, reg.Offset)
	switch {
	case reg.Flags&ReadOnlyFlag != 0:
		s += "{ro}"
	case reg.Flags&WriteOnlyFlag != 0:
		s += "{wo}"
	}
	return s
}

func (reg *Reg32) Read() (uint32, error) {
	if reg.Flags&WriteOnlyFlag != 0 {
		log.ModHwIo.ErrorZ("invalid Read32 from writeonly reg").
			String("name", reg.Name).
			Hex32("off", reg.Offset).
			End()
		return 0, fmt.Errorf("%s: %w", reg.Name, ErrWriteOnly)
	}
	return reg.win.Read32(reg.Offset)
}

func (reg *Reg32) Write(val uint32) error {
	if reg.Flags&ReadOnlyFlag != 0 {
		log.ModHwIo.ErrorZ("invalid Write32 to readonly reg").
			String("name", reg.Name).
			Hex32("off", reg.Offset).
			Hex32("val", val).
			End()
		return fmt.Errorf("%s: %w", reg.Name, ErrReadOnly)
	}
	return reg.win.Write32(reg.Offset, val)
}
