// Package axidmatest provides a simulated AXI DMA engine, to exercise
// axidma without hardware.
//
// The simulation moves data between udmabuf.Buffer memories attached to it,
// resolving physical addresses the way the real engine would, and records
// every register write so tests can check the programming sequence.
package axidmatest

import (
	"fmt"
	"time"

	"axiloop/hw/axidma"
	"axiloop/hw/hwio"
	"axiloop/hw/udmabuf"
)

// Register offsets, relative to a channel base.
const (
	regControl = 0x00
	regStatus  = 0x04
	regAddrLo  = 0x18
	regAddrHi  = 0x1C
	regLength  = 0x28
)

var bases = [2]uint32{axidma.Send: 0x00, axidma.Receive: 0x30}

// Write is a register write seen by the simulated engine.
type Write struct {
	Off uint32
	Val uint32
}

func (w Write) String() string { return fmt.Sprintf("%#02x<-%#x", w.Off, w.Val) }

type channel struct {
	ctrl    uint32
	status  uint32
	addr    uint64
	length  uint32
	pending bool // receive armed, waiting for data
	reads   int  // status reads since last length write
}

// Engine is a simulated AXI DMA engine.
type Engine struct {
	// Window gives register access to the simulated engine. Pass it to
	// axidma.New.
	Window *hwio.Window

	// Writes is the log of all register writes, in order.
	Writes []Write

	// WriteTimes holds the time of each write in Writes.
	WriteTimes []time.Time

	// BusyReads is the number of status reads that report a busy channel
	// after a transfer, before the idle bit shows up.
	BusyReads int

	// NeverIdle makes channels stay busy forever once triggered.
	NeverIdle bool

	// FailSend sets the send channel error bit when it is triggered.
	FailSend bool

	// StatusReads counts status register reads per channel.
	StatusReads [2]int

	chans [2]channel
	bufs  []*udmabuf.Buffer
}

// New returns a simulated engine, with bufs attached.
func New(bufs ...*udmabuf.Buffer) *Engine {
	e := &Engine{bufs: bufs}
	for i := range e.chans {
		e.chans[i].status = axidma.StatusHalted
	}
	e.Window = hwio.NewWindow("axidmatest", hwio.DefaultWindowSize, &hwio.Device32{
		Name:    "axidmatest",
		ReadCb:  e.read32,
		WriteCb: e.write32,
	})
	return e
}

// Reg returns the current value of the register at off.
func (e *Engine) Reg(off uint32) uint32 {
	return e.read(off, false)
}

// SetStatus forces the status register of ch.
func (e *Engine) SetStatus(ch axidma.Channel, status uint32) {
	e.chans[ch].status = status
}

func decode(off uint32) (axidma.Channel, uint32, bool) {
	switch {
	case off < bases[axidma.Receive]:
		return axidma.Send, off, true
	case off < bases[axidma.Receive]+0x30:
		return axidma.Receive, off - bases[axidma.Receive], true
	}
	return 0, 0, false
}

func (e *Engine) read32(off uint32) uint32 { return e.read(off, true) }

func (e *Engine) read(off uint32, count bool) uint32 {
	chn, reg, ok := decode(off)
	if !ok {
		return 0
	}
	ch := &e.chans[chn]

	switch reg {
	case regControl:
		return ch.ctrl
	case regStatus:
		if !count {
			return ch.status
		}
		e.StatusReads[chn]++
		ch.reads++
		if ch.status&axidma.StatusIdle != 0 && ch.reads <= e.BusyReads {
			return ch.status &^ axidma.StatusIdle
		}
		return ch.status
	case regAddrLo:
		return uint32(ch.addr)
	case regAddrHi:
		return uint32(ch.addr >> 32)
	case regLength:
		return ch.length
	}
	return 0
}

func (e *Engine) write32(off uint32, val uint32) {
	e.Writes = append(e.Writes, Write{Off: off, Val: val})
	e.WriteTimes = append(e.WriteTimes, time.Now())

	chn, reg, ok := decode(off)
	if !ok {
		return
	}
	ch := &e.chans[chn]

	switch reg {
	case regControl:
		if val&axidma.CtrlReset != 0 {
			// Reset affects both channels and self-clears.
			for i := range e.chans {
				e.chans[i] = channel{status: axidma.StatusHalted}
			}
			return
		}
		ch.ctrl = val
		if val&axidma.CtrlRunStop != 0 {
			ch.status &^= axidma.StatusHalted
		} else {
			ch.status |= axidma.StatusHalted
		}
	case regAddrLo:
		ch.addr = ch.addr&^0xFFFFFFFF | uint64(val)
	case regAddrHi:
		ch.addr = ch.addr&0xFFFFFFFF | uint64(val)<<32
	case regLength:
		ch.length = val
		if ch.ctrl&axidma.CtrlRunStop == 0 {
			// Length writes to a halted channel are ignored.
			return
		}
		ch.status &^= axidma.StatusIdle
		ch.reads = 0
		switch chn {
		case axidma.Receive:
			ch.pending = true
		case axidma.Send:
			e.send()
		}
	}
}

// send moves the data of the send channel to the receive channel. Data sent
// while the receive channel isn't armed is lost.
func (e *Engine) send() {
	tx := &e.chans[axidma.Send]
	rx := &e.chans[axidma.Receive]

	if e.FailSend {
		tx.status |= axidma.StatusErrIRQ | axidma.StatusHalted
		return
	}
	if e.NeverIdle {
		return
	}

	data, ok := e.resolve(tx.addr, tx.length)
	if !ok {
		// DMA decode error.
		tx.status |= axidma.StatusErrIRQ | axidma.StatusHalted
		return
	}
	tx.status |= axidma.StatusIdle

	if !rx.pending {
		return
	}
	n := min(rx.length, tx.length)
	dst, ok := e.resolve(rx.addr, n)
	if !ok {
		rx.status |= axidma.StatusErrIRQ | axidma.StatusHalted
		return
	}
	copy(dst, data[:n])
	rx.pending = false
	rx.status |= axidma.StatusIdle
}

func (e *Engine) resolve(phys uint64, n uint32) ([]byte, bool) {
	for _, b := range e.bufs {
		if phys < b.PhysAddr || phys >= b.PhysAddr+uint64(b.Size) {
			continue
		}
		data, err := b.Bytes(int64(phys-b.PhysAddr), int(n))
		return data, err == nil
	}
	return nil, false
}
