package axidma

import (
	"fmt"
	"time"

	"axiloop/hw/udmabuf"
	"axiloop/log"
)

// Transfer describes a loopback transfer of Len bytes from the physical
// address Src to the physical address Dst.
type Transfer struct {
	Src uint64
	Dst uint64
	Len uint32
}

// Validate checks the transfer length against the number of bytes available
// in the source and destination buffers, from the transfer addresses.
func (t Transfer) Validate(srcAvail, dstAvail int64) error {
	switch {
	case t.Len == 0:
		return fmt.Errorf("%w: 0", ErrInvalidLength)
	case int64(t.Len) > srcAvail:
		return fmt.Errorf("%w: %d bytes, source has %d", ErrInvalidLength, t.Len, max(srcAvail, 0))
	case int64(t.Len) > dstAvail:
		return fmt.Errorf("%w: %d bytes, destination has %d", ErrInvalidLength, t.Len, max(dstAvail, 0))
	}
	return nil
}

// Run performs a loopback transfer: the Send channel reads t.Len bytes at
// t.Src and the Receive channel writes what it gets back at t.Dst. The engine
// provides no flow control, so the receive channel is armed first: anything
// sent before it is ready would be silently dropped.
//
// Run stops at the first failure, without retrying: channel state is
// undefined after an error or a timeout, and the destination may be partially
// written. Run never looks at the transferred data.
func (e *Engine) Run(t Transfer) error {
	if t.Len == 0 {
		return fmt.Errorf("%w: 0", ErrInvalidLength)
	}

	log.ModDMA.DebugZ("loopback").
		Hex64("src", t.Src).
		Hex64("dst", t.Dst).
		Hex32("len", t.Len).
		End()

	start := time.Now()
	if err := e.Reset(); err != nil {
		return err
	}

	// Receive side must be armed before the send side starts pushing.
	if err := e.Start(Receive); err != nil {
		return err
	}
	if err := e.ProgramAddress(Receive, t.Dst); err != nil {
		return err
	}
	if err := e.Start(Send); err != nil {
		return err
	}
	if err := e.ProgramAddress(Send, t.Src); err != nil {
		return err
	}

	if err := e.Trigger(Receive, t.Len); err != nil {
		return err
	}
	if err := e.Trigger(Send, t.Len); err != nil {
		return err
	}

	if _, err := e.PollIdle(Send); err != nil {
		return err
	}
	if _, err := e.PollIdle(Receive); err != nil {
		return err
	}

	log.ModDMA.DebugZ("loopback done").Duration("elapsed", time.Since(start)).End()
	return nil
}

// Loopback transfers the first n bytes of src to the start of dst.
func (e *Engine) Loopback(src, dst *udmabuf.Buffer, n uint32) error {
	return e.LoopbackAt(src, 0, dst, 0, n)
}

// LoopbackAt transfers n bytes at srcOff in src to dstOff in dst.
func (e *Engine) LoopbackAt(src *udmabuf.Buffer, srcOff int64, dst *udmabuf.Buffer, dstOff int64, n uint32) error {
	if srcOff < 0 || dstOff < 0 {
		return fmt.Errorf("%w: negative buffer offset", ErrInvalidLength)
	}

	t := Transfer{
		Src: src.PhysAddr + uint64(srcOff),
		Dst: dst.PhysAddr + uint64(dstOff),
		Len: n,
	}
	if err := t.Validate(int64(src.Size)-srcOff, int64(dst.Size)-dstOff); err != nil {
		return err
	}
	return e.Run(t)
}

// Stream transfers total bytes from src to dst as a sequence of loopback
// transfers of chunk bytes (the last one may be shorter), each chunk landing
// at the same offset in dst as in src. done, if not nil, is called after each
// completed chunk with the chunk index and offset; returning an error stops
// the stream.
func (e *Engine) Stream(src, dst *udmabuf.Buffer, total, chunk uint32, done func(i int, off int64) error) error {
	if chunk == 0 || total == 0 {
		return fmt.Errorf("%w: total %d, chunk %d", ErrInvalidLength, total, chunk)
	}
	if err := (Transfer{Len: total}).Validate(int64(src.Size), int64(dst.Size)); err != nil {
		return err
	}

	for i, off := 0, int64(0); off < int64(total); i, off = i+1, off+int64(chunk) {
		n := min(chunk, total-uint32(off))
		if err := e.LoopbackAt(src, off, dst, off, n); err != nil {
			return fmt.Errorf("chunk %d (offset %#x): %w", i, off, err)
		}
		if done != nil {
			if err := done(i, off); err != nil {
				return err
			}
		}
	}
	return nil
}
