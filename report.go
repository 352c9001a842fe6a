package main

import (
	"errors"
	"io"
	"time"

	"github.com/go-faster/jx"

	"axiloop/hw/axidma"
	"axiloop/hw/udmabuf"
)

// runReport summarizes a loopback or stream run.
type runReport struct {
	Command string
	Src     *udmabuf.Buffer
	Dst     *udmabuf.Buffer
	Len     uint32
	Chunks  int
	Elapsed time.Duration
	Err     error
}

func encodeBuffer(e *jx.Encoder, b *udmabuf.Buffer) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("name", func(e *jx.Encoder) { e.Str(b.Name) })
		e.Field("phys_addr", func(e *jx.Encoder) { e.UInt64(b.PhysAddr) })
		e.Field("size", func(e *jx.Encoder) { e.Int(b.Size) })
	})
}

func (r *runReport) Encode(e *jx.Encoder) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("command", func(e *jx.Encoder) { e.Str(r.Command) })
		e.Field("src", func(e *jx.Encoder) { encodeBuffer(e, r.Src) })
		e.Field("dst", func(e *jx.Encoder) { encodeBuffer(e, r.Dst) })
		e.Field("len", func(e *jx.Encoder) { e.UInt32(r.Len) })
		e.Field("chunks", func(e *jx.Encoder) { e.Int(r.Chunks) })
		e.Field("elapsed_us", func(e *jx.Encoder) { e.Int64(r.Elapsed.Microseconds()) })
		e.Field("ok", func(e *jx.Encoder) { e.Bool(r.Err == nil) })
		if r.Err == nil {
			return
		}

		e.Field("error", func(e *jx.Encoder) { e.Str(r.Err.Error()) })

		var serr *axidma.StatusError
		if errors.As(r.Err, &serr) {
			e.Field("status", func(e *jx.Encoder) {
				e.Obj(func(e *jx.Encoder) {
					e.Field("channel", func(e *jx.Encoder) { e.Str(serr.Channel.String()) })
					e.Field("reg", func(e *jx.Encoder) { e.UInt32(serr.Reg) })
					e.Field("value", func(e *jx.Encoder) { e.UInt32(uint32(serr.Status)) })
					e.Field("state", func(e *jx.Encoder) { e.Str(serr.Status.State().String()) })
					e.Field("timeout", func(e *jx.Encoder) { e.Bool(errors.Is(serr, axidma.ErrTimeout)) })
				})
			})
		}

		var merr *MismatchError
		if errors.As(r.Err, &merr) {
			e.Field("mismatch", func(e *jx.Encoder) {
				e.Obj(func(e *jx.Encoder) {
					e.Field("index", func(e *jx.Encoder) { e.Int(merr.Index) })
					e.Field("sent", func(e *jx.Encoder) { e.UInt32(merr.Sent) })
					e.Field("got", func(e *jx.Encoder) { e.UInt32(merr.Got) })
				})
			})
		}
	})
}

func writeReport(w io.Writer, r *runReport) error {
	var e jx.Encoder
	e.SetIdent(2)
	r.Encode(&e)
	_, err := w.Write(append(e.Bytes(), '\n'))
	return err
}
