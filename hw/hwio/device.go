package hwio

import "axiloop/log"

// Device32 is a BankIO32 implementation that allows manual management of an
// entire register window through callbacks. It is what simulated devices are
// built on.
type Device32 struct {
	Name  string // name of the device (for debugging)
	Flags RWFlags

	ReadCb  func(off uint32) uint32
	WriteCb func(off uint32, val uint32)
}

func (d *Device32) Read32(off uint32) uint32 {
	switch {
	case d.Flags&WriteOnlyFlag != 0:
		log.ModHwIo.ErrorZ("invalid Read32 from writeonly device").
			String("name", d.Name).
			Hex32("off", off).
			End()
		fallthrough
	case d.ReadCb == nil:
		return 0
	}
	return d.ReadCb(off)
}

func (d *Device32) Write32(off uint32, val uint32) {
	switch {
	case d.Flags&ReadOnlyFlag != 0:
		log.ModHwIo.ErrorZ("invalid Write32 to readonly device").
			String("name", d.Name).
			Hex32("off", off).
			End()
		fallthrough
	case d.WriteCb == nil:
		return
	}
	d.WriteCb(off, val)
}
