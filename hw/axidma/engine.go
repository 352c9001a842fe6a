package axidma

import (
	"fmt"
	"time"

	"axiloop/hw/hwio"
	"axiloop/log"
)

// Config holds the engine timing parameters.
type Config struct {
	// Settle is how long to wait after a reset before issuing commands. The
	// reset bit self-clears but there's no reset-complete signal to poll.
	Settle time.Duration `toml:"settle"`

	// PollInterval is the delay between two status reads while waiting for a
	// channel to become idle.
	PollInterval time.Duration `toml:"poll_interval"`

	// Timeout is the longest time to wait for a channel to become idle.
	Timeout time.Duration `toml:"timeout"`

	// IRQEnable sets the interrupt enable bits when starting a channel.
	IRQEnable bool `toml:"irq_enable"`
}

func DefaultConfig() Config {
	return Config{
		Settle:       10 * time.Millisecond,
		PollInterval: time.Millisecond,
		Timeout:      time.Second,
	}
}

// Engine is an AXI DMA engine in simple mode.
//
// An Engine is not safe for concurrent use. Callers orchestrating several
// engines must use one Engine per register window.
type Engine struct {
	cfg   Config
	win   *hwio.Window
	chans [2]channelRegs
}

// New returns an Engine controlling the registers in win.
func New(win *hwio.Window, cfg Config) (*Engine, error) {
	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("axidma: invalid poll interval %v", cfg.PollInterval)
	}
	if cfg.Timeout < 0 || cfg.Settle < 0 {
		return nil, fmt.Errorf("axidma: negative timeout or settle delay")
	}

	e := &Engine{cfg: cfg, win: win}
	for ch := range e.chans {
		if err := hwio.InitRegs(&e.chans[ch], win, channelBase[ch]); err != nil {
			return nil, fmt.Errorf("axidma: %s registers: %w", Channel(ch), err)
		}
	}
	return e, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.cfg }

func (e *Engine) regs(ch Channel) (*channelRegs, error) {
	if int(ch) >= len(e.chans) {
		return nil, fmt.Errorf("axidma: invalid channel %s", ch)
	}
	return &e.chans[ch], nil
}

// Reset resets both channels then waits for the settle delay.
func (e *Engine) Reset() error {
	for _, ch := range []Channel{Send, Receive} {
		if err := e.chans[ch].Control.Write(CtrlReset); err != nil {
			return fmt.Errorf("%s reset: %w", ch, err)
		}
	}
	log.ModDMA.DebugZ("reset").Duration("settle", e.cfg.Settle).End()
	time.Sleep(e.cfg.Settle)
	return nil
}

// Start sets the run/stop bit of ch. This does not move any data.
func (e *Engine) Start(ch Channel) error {
	regs, err := e.regs(ch)
	if err != nil {
		return err
	}

	val := uint32(CtrlRunStop)
	if e.cfg.IRQEnable {
		val |= CtrlIRQMask
	}
	if err := regs.Control.Write(val); err != nil {
		return fmt.Errorf("%s start: %w", ch, err)
	}
	log.ModDMA.DebugZ("armed").Stringer("ch", ch).Hex32("ctrl", val).End()
	return nil
}

// ProgramAddress writes the physical address of the channel source (Send)
// or destination (Receive), low word first.
func (e *Engine) ProgramAddress(ch Channel, addr uint64) error {
	regs, err := e.regs(ch)
	if err != nil {
		return err
	}

	lo, hi := hwio.Split64(addr)
	if err := regs.AddrLo.Write(lo); err != nil {
		return fmt.Errorf("%s address: %w", ch, err)
	}
	if err := regs.AddrHi.Write(hi); err != nil {
		return fmt.Errorf("%s address: %w", ch, err)
	}
	log.ModDMA.DebugZ("program address").Stringer("ch", ch).Hex64("addr", addr).End()
	return nil
}

// Address reads back the address programmed in ch.
func (e *Engine) Address(ch Channel) (uint64, error) {
	regs, err := e.regs(ch)
	if err != nil {
		return 0, err
	}

	lo, err := regs.AddrLo.Read()
	if err != nil {
		return 0, fmt.Errorf("%s address: %w", ch, err)
	}
	hi, err := regs.AddrHi.Read()
	if err != nil {
		return 0, fmt.Errorf("%s address: %w", ch, err)
	}
	return hwio.Join64(lo, hi), nil
}

// Trigger writes the transfer length of ch, which starts the transfer.
func (e *Engine) Trigger(ch Channel, n uint32) error {
	regs, err := e.regs(ch)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s trigger: %w: 0", ch, ErrInvalidLength)
	}

	if err := regs.Length.Write(n); err != nil {
		return fmt.Errorf("%s trigger: %w", ch, err)
	}
	log.ModDMA.DebugZ("trigger").Stringer("ch", ch).Hex32("len", n).End()
	return nil
}

// Status reads the status register of ch.
func (e *Engine) Status(ch Channel) (Status, error) {
	regs, err := e.regs(ch)
	if err != nil {
		return 0, err
	}

	v, err := regs.Status.Read()
	if err != nil {
		return 0, fmt.Errorf("%s status: %w", ch, err)
	}
	return Status(v), nil
}

// PollIdle reads the status of ch every PollInterval until the idle bit is
// set, and returns the last status read. It fails with a *StatusError
// wrapping ErrTransfer as soon as the error bit is seen, or wrapping
// ErrTimeout if the channel is not idle after Timeout.
//
// Waiting can't be interrupted. If PollIdle fails, the channel is left in
// whatever state it was and must be reset before any further use.
func (e *Engine) PollIdle(ch Channel) (Status, error) {
	regs, err := e.regs(ch)
	if err != nil {
		return 0, err
	}

	start := time.Now()
	deadline := start.Add(e.cfg.Timeout)
	npolls := 0
	for {
		v, err := regs.Status.Read()
		if err != nil {
			return 0, fmt.Errorf("%s status: %w", ch, err)
		}
		sr := Status(v)
		npolls++

		if sr.Err() {
			return sr, &StatusError{
				Channel: ch,
				Reg:     regs.Status.Offset,
				Status:  sr,
				Elapsed: time.Since(start),
				Err:     ErrTransfer,
			}
		}
		if sr.Idle() {
			log.ModDMA.DebugZ("idle").
				Stringer("ch", ch).
				Hex32("status", v).
				Int("polls", npolls).
				Duration("elapsed", time.Since(start)).
				End()
			return sr, nil
		}

		now := time.Now()
		if !now.Before(deadline) {
			return sr, &StatusError{
				Channel: ch,
				Reg:     regs.Status.Offset,
				Status:  sr,
				Elapsed: now.Sub(start),
				Err:     ErrTimeout,
			}
		}
		time.Sleep(min(e.cfg.PollInterval, deadline.Sub(now)))
	}
}
