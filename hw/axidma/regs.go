// Package axidma drives an AXI DMA engine in simple (register direct) mode
// through its memory-mapped register window.
//
// The engine has two channels: MM2S (Send) reads memory and pushes it on its
// output stream, S2MM (Receive) writes its input stream to memory. A transfer
// is programmed by writing an address and then a length: the length write is
// what starts moving data.
package axidma

import "axiloop/hw/hwio"

//go:generate go tool stringer -type=Channel,State -linecomment -output=types_string.go

type Channel uint8

const (
	Send    Channel = iota // MM2S
	Receive                // S2MM
)

// Base offset of each channel register bank in the register window.
var channelBase = [2]uint32{
	Send:    0x00,
	Receive: 0x30,
}

// Registers of one channel, relative to the channel base.
type channelRegs struct {
	Control hwio.Reg32 `hwio:"offset=0x00,name=DMACR"`
	Status  hwio.Reg32 `hwio:"offset=0x04,name=DMASR,readonly"`
	AddrLo  hwio.Reg32 `hwio:"offset=0x18,name=ADDR"`
	AddrHi  hwio.Reg32 `hwio:"offset=0x1C,name=ADDR_MSB"`
	Length  hwio.Reg32 `hwio:"offset=0x28,name=LENGTH"`
}

// Control register bits.
const (
	CtrlRunStop = 1 << 0
	CtrlReset   = 1 << 2

	// IOC, delay and error interrupt enables. Completion is polled either
	// way; see Config.IRQEnable.
	CtrlIRQMask = 0x7000
)

// Status register bits.
const (
	StatusHalted = 1 << 0
	StatusIdle   = 1 << 1

	// Set on DMA internal, slave or decode errors. This is not an exhaustive
	// error indicator: other error conditions exist that it doesn't cover.
	StatusErrIRQ = 1 << 14
)
