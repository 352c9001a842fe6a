package view

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"time"

	"golang.org/x/image/draw"

	"axiloop/frame"
	"axiloop/log"
)

// SingleConfig configures a SingleViewer.
type SingleConfig struct {
	Order frame.BitOrder
	Scale int
	Tick  time.Duration

	// Out receives the step mode messages. Nil discards them.
	Out io.Writer
}

// SingleViewer shows one frame of a buffer at a time. The user steps through
// frames with Next and Prev: stepping stops at the first and last frames.
type SingleViewer struct {
	codec   *frame.Codec
	src     io.ReaderAt
	nframes int
	index   int
	cfg     SingleConfig

	raw []byte
	img *image.RGBA
	out *image.RGBA

	// Renders counts frame redraws.
	Renders int
}

// NewSingleViewer returns a viewer of the frames in src, which holds size
// bytes.
func NewSingleViewer(src io.ReaderAt, size int, codec *frame.Codec, cfg SingleConfig) (*SingleViewer, error) {
	n := codec.Frames(size)
	if n == 0 {
		return nil, fmt.Errorf("buffer size is %d bytes, need at least %d for one frame", size, codec.Stride())
	}
	if cfg.Scale <= 0 {
		return nil, fmt.Errorf("invalid scale %d", cfg.Scale)
	}
	if cfg.Tick <= 0 {
		return nil, fmt.Errorf("invalid tick %v", cfg.Tick)
	}
	if cfg.Out == nil {
		cfg.Out = io.Discard
	}

	g := codec.Geometry
	return &SingleViewer{
		codec:   codec,
		src:     src,
		nframes: n,
		cfg:     cfg,
		raw:     make([]byte, codec.Stride()),
		img:     image.NewRGBA(g.Bounds()),
		out:     image.NewRGBA(image.Rect(0, 0, g.W*cfg.Scale, g.H*cfg.Scale)),
	}, nil
}

func (v *SingleViewer) Index() int            { return v.index }
func (v *SingleViewer) Frames() int           { return v.nframes }
func (v *SingleViewer) Order() frame.BitOrder { return v.cfg.Order }

// Handle processes a key. It reports whether the displayed frame changed,
// and whether the viewer should quit.
func (v *SingleViewer) Handle(k Key) (changed, quit bool) {
	switch k {
	case KeyQuit:
		return false, true
	case KeyBitBig, KeyBitLittle, KeyBitToggle:
		o := frame.Big
		switch k {
		case KeyBitLittle:
			o = frame.Little
		case KeyBitToggle:
			o = v.cfg.Order.Toggle()
		}
		changed = o != v.cfg.Order
		v.cfg.Order = o
		fmt.Fprintf(v.cfg.Out, "bitorder=%s\n", o)
		return changed, false
	case KeyNext:
		if v.index < v.nframes-1 {
			v.index++
			changed = true
		} else {
			fmt.Fprintln(v.cfg.Out, "Already at last frame.")
		}
	case KeyPrev:
		if v.index > 0 {
			v.index--
			changed = true
		} else {
			fmt.Fprintln(v.cfg.Out, "Already at first frame.")
		}
	default:
		return false, false
	}

	fmt.Fprintf(v.cfg.Out, "frame %d/%d (offset %d bytes)\n", v.index+1, v.nframes, v.index*v.codec.Stride())
	return changed, false
}

// Render decodes and presents the current frame.
func (v *SingleViewer) Render(screen Screen) error {
	if err := v.codec.ReadRecord(v.src, v.index, v.raw); err != nil {
		return err
	}
	if err := v.codec.DecodeInto(v.img, v.raw, v.cfg.Order); err != nil {
		return err
	}
	draw.NearestNeighbor.Scale(v.out, v.out.Bounds(), v.img, v.img.Bounds(), draw.Src, nil)

	v.Renders++
	return screen.Present(v.out)
}

// render is Render for the event loop: a frame that can't be read entirely
// leaves the previous image on screen.
func (v *SingleViewer) render(screen Screen) error {
	err := v.Render(screen)
	if errors.Is(err, frame.ErrShortFrame) {
		log.ModView.WarnZ("skipping frame").Int("index", v.index).Error("err", err).End()
		return nil
	}
	return err
}

// Run renders the first frame then processes keys every tick, re-rendering
// when the frame or bit order changes. It returns when the user quits, the
// screen is closed or ctx is done.
func (v *SingleViewer) Run(ctx context.Context, screen Screen) error {
	if err := v.render(screen); err != nil {
		return err
	}

	ticker := time.NewTicker(v.cfg.Tick)
	defer ticker.Stop()

	for {
		redraw := false
		for _, k := range screen.PollKeys() {
			changed, quit := v.Handle(k)
			if quit {
				return nil
			}
			redraw = redraw || changed
		}
		if screen.Closed() {
			return nil
		}
		if redraw {
			if err := v.render(screen); err != nil {
				return err
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
