package axidma

import "strings"

// Status is the value of a channel status register (DMASR).
type Status uint32

func (s Status) Halted() bool { return s&StatusHalted != 0 }
func (s Status) Idle() bool   { return s&StatusIdle != 0 }

// Err reports whether the error interrupt bit is set. A clear error bit does
// not guarantee the channel is error-free.
func (s Status) Err() bool { return s&StatusErrIRQ != 0 }

// State of a channel, derived from its status register.
type State uint8

const (
	StateReset   State = iota // reset
	StateIdle                 // idle
	StateRunning              // running
	StateError                // error
)

// State derives the channel state from the status bits. A halted channel is
// reported in the Reset state: that is where it is after a reset and before
// run/stop is set.
func (s Status) State() State {
	switch {
	case s.Err():
		return StateError
	case s.Idle():
		return StateIdle
	case s.Halted():
		return StateReset
	}
	return StateRunning
}

func (s Status) String() string {
	var flags []string
	if s.Err() {
		flags = append(flags, "err")
	}
	if s.Idle() {
		flags = append(flags, "idle")
	}
	if s.Halted() {
		flags = append(flags, "halted")
	}
	return "[" + strings.Join(flags, ",") + "]"
}
