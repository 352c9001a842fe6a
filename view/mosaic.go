package view

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"time"

	"axiloop/frame"
	"axiloop/log"
)

// MosaicConfig configures a MosaicViewer.
type MosaicConfig struct {
	Layout     frame.Layout
	Style      frame.Style
	Order      frame.BitOrder
	Target     image.Point // letterboxed output size
	Background color.RGBA  // letterbox padding
	Tick       time.Duration
}

func DefaultMosaicConfig(g frame.Geometry) MosaicConfig {
	const rows, cols, divider = 2, 4, 10
	target := image.Pt(1920, 1080)
	return MosaicConfig{
		Layout: frame.Layout{
			Rows:    rows,
			Cols:    cols,
			Divider: divider,
			Scale:   frame.FitScale(g, rows, cols, divider, target),
		},
		Style:      frame.DefaultStyle(),
		Order:      frame.Big,
		Target:     target,
		Background: color.RGBA{0, 0, 0, 0xFF},
		Tick:       10 * time.Millisecond,
	}
}

// MosaicViewer shows the first frames of a buffer as a mosaic, redrawn only
// when a refresh is requested.
type MosaicViewer struct {
	codec   *frame.Codec
	src     io.ReaderAt
	refresh *Refresh
	cfg     MosaicConfig
	mosaic  *frame.Mosaic

	raw []byte
	img *image.RGBA

	// Renders counts mosaic redraws.
	Renders int
}

// NewMosaicViewer returns a viewer of the frames in src. Tiles are redrawn
// each time refresh is taken.
func NewMosaicViewer(src io.ReaderAt, codec *frame.Codec, refresh *Refresh, cfg MosaicConfig) (*MosaicViewer, error) {
	if cfg.Tick <= 0 {
		return nil, fmt.Errorf("invalid tick %v", cfg.Tick)
	}
	m, err := frame.NewMosaic(codec.Geometry, cfg.Layout, cfg.Style)
	if err != nil {
		return nil, err
	}
	if sz := cfg.Layout.Size(codec.Geometry); sz.X > cfg.Target.X || sz.Y > cfg.Target.Y {
		return nil, fmt.Errorf("%w: %v mosaic in %v output", frame.ErrTooLarge, sz, cfg.Target)
	}

	return &MosaicViewer{
		codec:   codec,
		src:     src,
		refresh: refresh,
		cfg:     cfg,
		mosaic:  m,
		raw:     make([]byte, codec.Stride()),
		img:     image.NewRGBA(codec.Bounds()),
	}, nil
}

func (v *MosaicViewer) Order() frame.BitOrder { return v.cfg.Order }

// Mosaic returns the mosaic image, as of the last render.
func (v *MosaicViewer) Mosaic() *image.RGBA { return v.mosaic.Image() }

// Handle processes a key and reports whether the viewer should quit.
func (v *MosaicViewer) Handle(k Key) (quit bool) {
	switch k {
	case KeyQuit:
		return true
	case KeyBitBig:
		v.setOrder(frame.Big)
	case KeyBitLittle:
		v.setOrder(frame.Little)
	case KeyBitToggle:
		v.setOrder(v.cfg.Order.Toggle())
	}
	return false
}

func (v *MosaicViewer) setOrder(o frame.BitOrder) {
	v.cfg.Order = o
	v.refresh.Request()
	log.ModView.InfoZ("bit order").Stringer("order", o).End()
}

// Render redraws every tile then presents the letterboxed mosaic. A tile
// whose frame can't be read entirely keeps its previous content.
func (v *MosaicViewer) Render(screen Screen) error {
	for i := range v.cfg.Layout.Cells() {
		if err := v.codec.ReadRecord(v.src, i, v.raw); err != nil {
			if errors.Is(err, frame.ErrShortFrame) {
				log.ModView.WarnZ("skipping tile").Int("tile", i).Error("err", err).End()
				continue
			}
			return err
		}
		if err := v.codec.DecodeInto(v.img, v.raw, v.cfg.Order); err != nil {
			return err
		}
		if err := v.mosaic.Blit(i, v.img); err != nil {
			return err
		}
	}

	out, err := frame.Letterbox(v.mosaic.Image(), v.cfg.Target.X, v.cfg.Target.Y, v.cfg.Background)
	if err != nil {
		return err
	}
	v.Renders++
	log.ModView.DebugZ("render").Int("n", v.Renders).Stringer("order", v.cfg.Order).End()
	return screen.Present(out)
}

// Step runs one iteration of the render loop: it processes pending keys
// then renders if a refresh was requested. It reports whether the viewer
// should stop.
func (v *MosaicViewer) Step(screen Screen) (done bool, err error) {
	for _, k := range screen.PollKeys() {
		if v.Handle(k) {
			return true, nil
		}
	}
	if screen.Closed() {
		return true, nil
	}
	if v.refresh.Take() {
		if err := v.Render(screen); err != nil {
			return true, err
		}
	}
	return false, nil
}

// Run runs the render loop until the user quits, the screen is closed or
// ctx is done.
func (v *MosaicViewer) Run(ctx context.Context, screen Screen) error {
	ticker := time.NewTicker(v.cfg.Tick)
	defer ticker.Stop()

	for ctx.Err() == nil {
		if done, err := v.Step(screen); done {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
	return nil
}
