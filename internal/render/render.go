// Package render rasterizes engine frames.
package render

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"math"

	"github.com/inamate/motion/internal/canvas/raster"
	"github.com/inamate/motion/internal/engine"
)

// Renderer draws the current frame of an engine into a reused canvas
// sized to the composition at the engine scale. It is not safe for
// concurrent use.
type Renderer struct {
	e *engine.Engine
	c *raster.Canvas
}

func New(e *engine.Engine, opts ...raster.Option) (*Renderer, error) {
	w, h := e.Size()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("render: empty composition size %vx%v", w, h)
	}
	c, err := raster.New(int(math.Ceil(w)), int(math.Ceil(h)), opts...)
	if err != nil {
		return nil, err
	}
	return &Renderer{e: e, c: c}, nil
}

// Frame draws the current frame. The image is overwritten by the next
// call.
func (r *Renderer) Frame() (*image.RGBA, error) {
	r.c.Reset()
	if err := r.e.Draw(r.c); err != nil {
		return nil, fmt.Errorf("draw frame: %w", err)
	}
	return r.c.Image(), nil
}

// PNG draws the current frame and writes it to w.
func (r *Renderer) PNG(w io.Writer) error {
	if _, err := r.Frame(); err != nil {
		return err
	}
	return r.c.EncodePNG(w)
}

// PNGBytes is PNG into memory.
func (r *Renderer) PNGBytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := r.PNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
