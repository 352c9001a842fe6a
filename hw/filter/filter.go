// Package filter controls the neural filter of the capture pipeline through
// its two limit registers.
package filter

import (
	"fmt"
	"math"

	"axiloop/hw/hwio"
	"axiloop/log"
)

// Offsets are the register offsets of the filter limits.
type Offsets struct {
	Spike uint32 `toml:"spike_offset"`
	Decay uint32 `toml:"decay_offset"`
}

func DefaultOffsets() Offsets {
	return Offsets{Spike: 0x00, Decay: 0x04}
}

// Adjustment steps of the control keys.
const (
	SpikeStep = 100
	DecayStep = 10000
)

// Limits are the filter counter limits.
type Limits struct {
	Spike uint32
	Decay uint32
}

func (l Limits) String() string {
	return fmt.Sprintf("SPIKE_COUNTER_LIMIT=%-10d  DECAY_COUNTER_LIMIT=%-10d", l.Spike, l.Decay)
}

// Filter gives access to the filter registers.
type Filter struct {
	spike hwio.Reg32
	decay hwio.Reg32
}

func New(win *hwio.Window, offs Offsets) (*Filter, error) {
	spike, err := hwio.NewReg32(win, "SPIKE_COUNTER_LIMIT", offs.Spike, hwio.ReadWriteFlag)
	if err != nil {
		return nil, err
	}
	decay, err := hwio.NewReg32(win, "DECAY_COUNTER_LIMIT", offs.Decay, hwio.ReadWriteFlag)
	if err != nil {
		return nil, err
	}
	return &Filter{spike: spike, decay: decay}, nil
}

// Limits reads the current limits.
func (f *Filter) Limits() (Limits, error) {
	spike, err := f.spike.Read()
	if err != nil {
		return Limits{}, err
	}
	decay, err := f.decay.Read()
	if err != nil {
		return Limits{}, err
	}
	return Limits{Spike: spike, Decay: decay}, nil
}

// Adjust adds the deltas to the current limits, saturating at 0 and
// math.MaxUint32. If a limit changes, both are written then read back, and
// the read back values are returned.
func (f *Filter) Adjust(spikeDelta, decayDelta int64) (Limits, error) {
	cur, err := f.Limits()
	if err != nil {
		return Limits{}, err
	}

	next := Limits{
		Spike: saturate(cur.Spike, spikeDelta),
		Decay: saturate(cur.Decay, decayDelta),
	}
	if next == cur {
		return cur, nil
	}

	if err := f.spike.Write(next.Spike); err != nil {
		return Limits{}, err
	}
	if err := f.decay.Write(next.Decay); err != nil {
		return Limits{}, err
	}

	got, err := f.Limits()
	if err != nil {
		return Limits{}, err
	}
	log.ModFilter.DebugZ("limits").
		Hex32("spike", got.Spike).
		Hex32("decay", got.Decay).
		End()
	return got, nil
}

func saturate(v uint32, delta int64) uint32 {
	return uint32(min(max(int64(v)+delta, 0), math.MaxUint32))
}
