package frame

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strconv"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"axiloop/log"
)

var ErrTooLarge = errors.New("image larger than target")

// Layout is a grid of Rows x Cols tiles, each a frame scaled by Scale and
// separated from its neighbors by a Divider pixels wide gutter.
type Layout struct {
	Rows    int `toml:"rows"`
	Cols    int `toml:"cols"`
	Scale   int `toml:"scale"`
	Divider int `toml:"divider"`
}

func (l Layout) Cells() int { return l.Rows * l.Cols }

func (l Layout) Validate() error {
	if l.Rows <= 0 || l.Cols <= 0 || l.Scale <= 0 || l.Divider < 0 {
		return fmt.Errorf("invalid mosaic layout %+v", l)
	}
	return nil
}

// TileSize is the size of a scaled frame.
func (l Layout) TileSize(g Geometry) image.Point {
	return image.Pt(g.W*l.Scale, g.H*l.Scale)
}

// Size is the size of the whole mosaic.
func (l Layout) Size(g Geometry) image.Point {
	t := l.TileSize(g)
	return image.Pt(
		l.Cols*t.X+(l.Cols-1)*l.Divider,
		l.Rows*t.Y+(l.Rows-1)*l.Divider,
	)
}

// TileRect is the area of tile i. Tiles are placed row-major.
func (l Layout) TileRect(g Geometry, i int) image.Rectangle {
	t := l.TileSize(g)
	r, c := i/l.Cols, i%l.Cols
	org := image.Pt(c*(t.X+l.Divider), r*(t.Y+l.Divider))
	return image.Rectangle{Min: org, Max: org.Add(t)}
}

// FitScale returns the largest integer scale at which a rows x cols mosaic of
// frames fits in target, and at least 1. It is 1 for an empty grid or
// frame geometry.
func FitScale(g Geometry, rows, cols, divider int, target image.Point) int {
	if rows <= 0 || cols <= 0 || g.W <= 0 || g.H <= 0 {
		return 1
	}
	sw := (target.X - (cols-1)*divider) / (cols * g.W)
	sh := (target.Y - (rows-1)*divider) / (rows * g.H)
	return max(1, min(sw, sh))
}

// Style holds the mosaic colors.
type Style struct {
	Background   color.RGBA // empty cells
	Divider      color.RGBA
	Border       color.RGBA
	LabelFill    color.RGBA
	LabelOutline color.RGBA
}

func DefaultStyle() Style {
	return Style{
		Background:   color.RGBA{40, 40, 40, 0xFF},
		Divider:      color.RGBA{40, 40, 40, 0xFF},
		Border:       color.RGBA{120, 120, 120, 0xFF},
		LabelFill:    color.RGBA{0xFF, 0xFF, 0xFF, 0xFF},
		LabelOutline: color.RGBA{0, 0, 0, 0xFF},
	}
}

// Label position, relative to the tile origin. Y is the text baseline.
var labelOrigin = image.Pt(8, 24)

// Mosaic is a persistent mosaic image. Tiles are drawn individually: a tile
// that is not redrawn keeps its previous content.
type Mosaic struct {
	geom   Geometry
	layout Layout
	style  Style
	img    *image.RGBA
}

// NewMosaic returns a mosaic with all cells empty.
func NewMosaic(g Geometry, l Layout, s Style) (*Mosaic, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}

	m := &Mosaic{
		geom:   g,
		layout: l,
		style:  s,
		img:    image.NewRGBA(image.Rectangle{Max: l.Size(g)}),
	}
	m.Clear()
	return m, nil
}

func (m *Mosaic) Layout() Layout     { return m.layout }
func (m *Mosaic) Image() *image.RGBA { return m.img }

// Clear empties all cells.
func (m *Mosaic) Clear() {
	fill(m.img, m.img.Bounds(), m.style.Divider)
	for i := range m.layout.Cells() {
		fill(m.img, m.layout.TileRect(m.geom, i), m.style.Background)
	}
}

// Blit draws src, which must have the frame size, in tile i, with its border
// and index label.
func (m *Mosaic) Blit(i int, src image.Image) error {
	if i < 0 || i >= m.layout.Cells() {
		return fmt.Errorf("frame: tile %d out of %dx%d mosaic", i, m.layout.Rows, m.layout.Cols)
	}
	if sz := src.Bounds().Size(); sz != m.geom.Bounds().Size() {
		return fmt.Errorf("frame: tile %d: image is %v, want %v", i, sz, m.geom)
	}

	r := m.layout.TileRect(m.geom, i)
	draw.NearestNeighbor.Scale(m.img, r, src, src.Bounds(), draw.Src, nil)
	outline(m.img, r, m.style.Border)
	m.label(r.Min.Add(labelOrigin), strconv.Itoa(i))

	log.ModFrame.DebugZ("blit").Int("tile", i).Stringer("rect", r).End()
	return nil
}

// label draws s with a 1 pixel outline around each glyph.
func (m *Mosaic) label(at image.Point, s string) {
	d := font.Drawer{
		Dst:  m.img,
		Face: basicfont.Face7x13,
	}

	d.Src = image.NewUniform(m.style.LabelOutline)
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			d.Dot = fixed.P(at.X+dx, at.Y+dy)
			d.DrawString(s)
		}
	}

	d.Src = image.NewUniform(m.style.LabelFill)
	d.Dot = fixed.P(at.X, at.Y)
	d.DrawString(s)
}

// Compose returns a new mosaic image of frames, placed row-major. Cells past
// the last frame are left empty.
func Compose(g Geometry, frames []*image.RGBA, l Layout, s Style) (*image.RGBA, error) {
	m, err := NewMosaic(g, l, s)
	if err != nil {
		return nil, err
	}
	if len(frames) > l.Cells() {
		return nil, fmt.Errorf("frame: %d frames for %d mosaic cells", len(frames), l.Cells())
	}

	for i, f := range frames {
		if err := m.Blit(i, f); err != nil {
			return nil, err
		}
	}
	return m.img, nil
}

// Letterbox returns img centered in a w x h image filled with bg.
func Letterbox(img image.Image, w, h int, bg color.Color) (*image.RGBA, error) {
	sz := img.Bounds().Size()
	if sz.X > w || sz.Y > h {
		return nil, fmt.Errorf("%w: %v in %dx%d", ErrTooLarge, sz, w, h)
	}

	out := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(out, out.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	org := image.Pt((w-sz.X)/2, (h-sz.Y)/2)
	draw.Draw(out, image.Rectangle{Min: org, Max: org.Add(sz)}, img, img.Bounds().Min, draw.Src)
	return out, nil
}

func fill(dst *image.RGBA, r image.Rectangle, c color.RGBA) {
	draw.Draw(dst, r, image.NewUniform(c), image.Point{}, draw.Src)
}

// outline draws the 1 pixel border of r.
func outline(dst *image.RGBA, r image.Rectangle, c color.RGBA) {
	fill(dst, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+1), c)
	fill(dst, image.Rect(r.Min.X, r.Max.Y-1, r.Max.X, r.Max.Y), c)
	fill(dst, image.Rect(r.Min.X, r.Min.Y, r.Min.X+1, r.Max.Y), c)
	fill(dst, image.Rect(r.Max.X-1, r.Min.Y, r.Max.X, r.Max.Y), c)
}
