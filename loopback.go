package main

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"time"

	"axiloop/hw/axidma"
	"axiloop/hw/udmabuf"
)

// MismatchError reports the first value read back that differs from the
// value sent.
type MismatchError struct {
	Index int
	Sent  uint32
	Got   uint32
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("mismatch at index %d: sent %d, received %d", e.Index, e.Sent, e.Got)
}

// pattern is the data sent by a loopback run: count values of width bytes,
// each value being its own index (truncated to width).
type pattern struct {
	width int // 1 or 4
	count int
}

func (p pattern) size() int { return p.width * p.count }

func (p pattern) fill(buf *udmabuf.Buffer) ([]uint32, error) {
	vals := make([]uint32, p.count)
	for i := range vals {
		switch p.width {
		case 1:
			vals[i] = uint32(i % 256)
			if _, err := buf.WriteAt([]byte{byte(vals[i])}, int64(i)); err != nil {
				return nil, err
			}
		case 4:
			vals[i] = uint32(i)
			if err := buf.Write32(int64(4*i), vals[i]); err != nil {
				return nil, err
			}
		}
	}
	return vals, nil
}

func (p pattern) read(buf *udmabuf.Buffer) ([]uint32, error) {
	raw, err := buf.Bytes(0, p.size())
	if err != nil {
		return nil, err
	}

	vals := make([]uint32, p.count)
	for i := range vals {
		switch p.width {
		case 1:
			vals[i] = uint32(raw[i])
		case 4:
			v, err := buf.Read32(int64(4 * i))
			if err != nil {
				return nil, err
			}
			vals[i] = v
		}
	}
	return vals, nil
}

func patternOf(args Loopback) (pattern, error) {
	p := pattern{width: 4, count: args.Count}
	if args.Bytes != 0 {
		p = pattern{width: 1, count: args.Bytes}
	}
	if p.count <= 0 {
		return pattern{}, fmt.Errorf("invalid transfer size %d, must be greater than 0", p.count)
	}
	return p, nil
}

func firstMismatch(tx, rx []uint32) error {
	for i := range tx {
		if i >= len(rx) {
			return &MismatchError{Index: i, Sent: tx[i]}
		}
		if tx[i] != rx[i] {
			return &MismatchError{Index: i, Sent: tx[i], Got: rx[i]}
		}
	}
	return nil
}

func printValues(w io.Writer, prefix string, vals []uint32) {
	var buf bytes.Buffer
	buf.WriteString(prefix)
	buf.WriteString(": [")
	for i, v := range vals {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(strconv.FormatUint(uint64(v), 10))
	}
	buf.WriteString("]\n")
	w.Write(buf.Bytes())
}

// runLoopback fills src with the pattern, transfers it to dst and checks what
// was received. Sent and received values are printed on out.
func runLoopback(eng *axidma.Engine, src, dst *udmabuf.Buffer, p pattern, out io.Writer) (*runReport, error) {
	rep := &runReport{Command: "loopback", Src: src, Dst: dst, Len: uint32(p.size()), Chunks: 1}
	if p.size() > src.Size || p.size() > dst.Size {
		rep.Err = fmt.Errorf("%w: %d bytes, buffers hold %d and %d", axidma.ErrInvalidLength, p.size(), src.Size, dst.Size)
		return rep, rep.Err
	}

	tx, err := p.fill(src)
	if err != nil {
		rep.Err = err
		return rep, err
	}

	// Clear the destination first.
	if _, err := dst.WriteAt(make([]byte, p.size()), 0); err != nil {
		rep.Err = err
		return rep, err
	}

	start := time.Now()
	err = eng.Loopback(src, dst, uint32(p.size()))
	rep.Elapsed = time.Since(start)
	if err != nil {
		rep.Err = err
		return rep, err
	}

	rx, err := p.read(dst)
	if err != nil {
		rep.Err = err
		return rep, err
	}

	printValues(out, "TX", tx)
	printValues(out, "RX", rx)

	rep.Err = firstMismatch(tx, rx)
	return rep, rep.Err
}

// runStream sends payload through the loopback in chunks, then checks the
// destination holds the payload.
func runStream(eng *axidma.Engine, src, dst *udmabuf.Buffer, payload []byte, chunk uint32, out io.Writer) (*runReport, error) {
	rep := &runReport{Command: "stream", Src: src, Dst: dst, Len: uint32(len(payload))}
	fail := func(err error) (*runReport, error) {
		rep.Err = err
		return rep, err
	}

	if len(payload) == 0 {
		return fail(fmt.Errorf("%w: empty payload", axidma.ErrInvalidLength))
	}
	if len(payload) > src.Size || len(payload) > dst.Size {
		return fail(fmt.Errorf("%w: payload is %d bytes, buffers hold %d and %d", axidma.ErrInvalidLength, len(payload), src.Size, dst.Size))
	}
	if _, err := src.WriteAt(payload, 0); err != nil {
		return fail(err)
	}
	if _, err := dst.WriteAt(make([]byte, len(payload)), 0); err != nil {
		return fail(err)
	}

	start := time.Now()
	err := eng.Stream(src, dst, uint32(len(payload)), chunk, func(i int, off int64) error {
		rep.Chunks++
		n := min(int64(chunk), int64(len(payload))-off)
		fmt.Fprintf(out, "chunk %d: %d bytes at offset %#x\n", i, n, off)
		return nil
	})
	rep.Elapsed = time.Since(start)
	if err != nil {
		return fail(err)
	}

	got, err := dst.Bytes(0, len(payload))
	if err != nil {
		return fail(err)
	}
	for i := range payload {
		if payload[i] != got[i] {
			return fail(&MismatchError{Index: i, Sent: uint32(payload[i]), Got: uint32(got[i])})
		}
	}
	fmt.Fprintf(out, "%d bytes streamed in %d chunks, destination matches\n", len(payload), rep.Chunks)
	return rep, nil
}
