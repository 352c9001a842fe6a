package frame

import (
	"errors"
	"fmt"
	"image"
	"io"
)

var (
	ErrMalformedFrame = errors.New("malformed frame")
	ErrShortFrame     = errors.New("short frame read")
)

// SizeError is returned when decoding a frame of the wrong length.
type SizeError struct {
	Got, Want int
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("%s: %d bytes, want %d", ErrMalformedFrame, e.Got, e.Want)
}

func (e *SizeError) Unwrap() error { return ErrMalformedFrame }

// Geometry is the size of a frame in pixels.
type Geometry struct {
	W int `toml:"width"`
	H int `toml:"height"`
}

// DefaultGeometry is the frame size of the capture pipeline.
var DefaultGeometry = Geometry{W: 128, H: 128}

func (g Geometry) Pixels() int { return g.W * g.H }

// ChannelBytes is the size of one bit plane.
func (g Geometry) ChannelBytes() int { return (g.Pixels() + 7) / 8 }

// Stride is the size of a frame: both bit planes.
func (g Geometry) Stride() int { return 2 * g.ChannelBytes() }

// Frames returns the number of complete frames in size bytes.
func (g Geometry) Frames(size int) int {
	if g.Stride() == 0 {
		return 0
	}
	return size / g.Stride()
}

func (g Geometry) Bounds() image.Rectangle { return image.Rect(0, 0, g.W, g.H) }

func (g Geometry) Validate() error {
	if g.W <= 0 || g.H <= 0 {
		return fmt.Errorf("invalid frame geometry %dx%d", g.W, g.H)
	}
	return nil
}

func (g Geometry) String() string { return fmt.Sprintf("%dx%d", g.W, g.H) }

// Codec decodes frames of a given geometry.
type Codec struct {
	Geometry
}

func NewCodec(g Geometry) (*Codec, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return &Codec{Geometry: g}, nil
}

// Decode decodes a frame into a new image. Channel 0 is rendered in blue,
// channel 1 in red: a pixel with both bits set is magenta.
func (c *Codec) Decode(raw []byte, order BitOrder) (*image.RGBA, error) {
	img := image.NewRGBA(c.Bounds())
	if err := c.DecodeInto(img, raw, order); err != nil {
		return nil, err
	}
	return img, nil
}

// DecodeInto decodes a frame into dst, which must have the frame bounds.
func (c *Codec) DecodeInto(dst *image.RGBA, raw []byte, order BitOrder) error {
	if len(raw) != c.Stride() {
		return &SizeError{Got: len(raw), Want: c.Stride()}
	}
	if dst.Bounds() != c.Bounds() {
		return fmt.Errorf("frame: destination bounds %v, want %v", dst.Bounds(), c.Bounds())
	}

	ch0 := raw[:c.ChannelBytes()]
	ch1 := raw[c.ChannelBytes():]
	for y := range c.H {
		pix := dst.Pix[y*dst.Stride:]
		for x := range c.W {
			n := y*c.W + x
			var r, b uint8
			if Bit(ch1, n, order) {
				r = 0xFF
			}
			if Bit(ch0, n, order) {
				b = 0xFF
			}
			p := pix[4*x : 4*x+4 : 4*x+4]
			p[0], p[1], p[2], p[3] = r, 0, b, 0xFF
		}
	}
	return nil
}

// ReadRecord reads frame i from r into buf, which must be Stride bytes long.
// A frame that can't be read completely fails with ErrShortFrame.
func (c *Codec) ReadRecord(r io.ReaderAt, i int, buf []byte) error {
	if len(buf) != c.Stride() {
		return &SizeError{Got: len(buf), Want: c.Stride()}
	}
	if i < 0 {
		return fmt.Errorf("%w: frame %d", ErrShortFrame, i)
	}

	off := int64(i) * int64(c.Stride())
	n, err := r.ReadAt(buf, off)
	if n < len(buf) {
		if err == nil || err == io.EOF {
			return fmt.Errorf("%w: frame %d: %d of %d bytes", ErrShortFrame, i, n, len(buf))
		}
		return fmt.Errorf("%w: frame %d: %w", ErrShortFrame, i, err)
	}
	return nil
}
