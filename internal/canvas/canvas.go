// Package canvas defines the drawing surface the layer and content trees
// render into.
package canvas

import (
	"image"

	"github.com/inamate/motion/internal/geom"
)

// Canvas is a 2D drawing surface with a matrix and clip stack and
// offscreen layers.
type Canvas interface {
	Save()
	// Restore pops the state pushed by the matching Save or SaveLayer. A
	// layer is composited back onto the surface below it.
	Restore()
	// SaveLayer pushes an offscreen layer limited to bounds, given in the
	// current coordinate space. On Restore it is composited with the
	// alpha and blend mode of paint. A nil paint means opaque source-over.
	SaveLayer(bounds geom.Rect, paint *Paint)

	ClipRect(r geom.Rect)
	Concat(m geom.Matrix)
	Translate(dx, dy float64)
	Scale(sx, sy float64)

	DrawPath(p *geom.Path, paint *Paint)
	DrawRect(r geom.Rect, paint *Paint)
	// DrawBitmap draws the src region of img into dst.
	DrawBitmap(img image.Image, src, dst geom.Rect, paint *Paint)
	// DrawGlyph draws g at the origin and returns its advance width.
	DrawGlyph(g Glyph, paint *Paint) float64

	// Width and Height are the surface size in device pixels.
	Width() float64
	Height() float64
}

// Glyph is a run of text drawn with a host font.
type Glyph struct {
	Text   string
	Family string
	Style  string
	Size   float64
}

// WithLayer runs fn inside a SaveLayer/Restore pair. The layer is
// restored even when fn fails.
func WithLayer(c Canvas, bounds geom.Rect, paint *Paint, fn func() error) error {
	c.SaveLayer(bounds, paint)
	defer c.Restore()
	return fn()
}

// Bounds returns the device rect of c.
func Bounds(c Canvas) geom.Rect {
	return geom.Rect{Width: c.Width(), Height: c.Height()}
}

// Measurer is implemented by canvases that can size text before drawing
// it.
type Measurer interface {
	MeasureGlyph(g Glyph) float64
}

// MeasureGlyph returns the advance of g on c. Canvases that cannot measure
// are estimated at 0.6 em per rune.
func MeasureGlyph(c Canvas, g Glyph) float64 {
	if m, ok := c.(Measurer); ok {
		return m.MeasureGlyph(g)
	}
	return estimateAdvance(g)
}

func estimateAdvance(g Glyph) float64 {
	return float64(len([]rune(g.Text))) * g.Size * 0.6
}
