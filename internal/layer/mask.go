package layer

import (
	"github.com/inamate/motion/internal/canvas"
	"github.com/inamate/motion/internal/geom"
	"github.com/inamate/motion/internal/keyframe"
	"github.com/inamate/motion/internal/model"
)

type mask struct {
	mode     model.MaskMode
	inverted bool
	shape    keyframe.Value[*geom.Path]
	opacity  keyframe.Value[int]
	path     *geom.Path
}

func newMask(t *Tree, m *model.Mask) *mask {
	mk := &mask{mode: m.Mode, inverted: m.Inverted, path: geom.NewPath()}
	if m.Path != nil {
		mk.shape = m.Path.Create(t.log)
	}
	if m.Opacity != nil {
		mk.opacity = m.Opacity.Create()
	}
	return mk
}

func (mk *mask) steppers() []keyframe.Stepper {
	var out []keyframe.Stepper
	if mk.shape != nil {
		out = append(out, mk.shape)
	}
	if mk.opacity != nil {
		out = append(out, mk.opacity)
	}
	return out
}

// transformed returns the mask path mapped by m, or nil without a shape.
func (mk *mask) transformed(m geom.Matrix) (*geom.Path, error) {
	if mk.shape == nil {
		return nil, nil
	}
	src, err := mk.shape.Value()
	if err != nil {
		return nil, err
	}
	mk.path.Reset()
	mk.path.AddPath(src, m)
	return mk.path, nil
}

// alpha converts the mask opacity percentage to a byte.
func (mk *mask) alpha() (uint8, error) {
	if mk.opacity == nil {
		return 255, nil
	}
	op, err := mk.opacity.Value()
	if err != nil {
		return 0, err
	}
	return uint8(geom.Clamp(float64(op)*2.55, 0, 255)), nil
}

func allNone(masks []*mask) bool {
	for _, mk := range masks {
		if mk.mode != model.MaskNone {
			return false
		}
	}
	return true
}

// MaskShape is the bounds-relevant part of one mask.
type MaskShape struct {
	Mode     model.MaskMode
	Inverted bool
	Bounds   geom.Rect
}

// MaskBounds returns the rect a set of masks confines drawing to: the
// union of the add masks. A subtract, intersect, none or inverted mask
// can extend past its own path, so any of them disables narrowing and
// full is returned with ok false.
func MaskBounds(masks []MaskShape, full geom.Rect) (r geom.Rect, ok bool) {
	if len(masks) == 0 {
		return full, false
	}
	for i, m := range masks {
		if m.Mode != model.MaskAdd || m.Inverted {
			return full, false
		}
		if i == 0 {
			r = m.Bounds
		} else {
			r = r.Union(m.Bounds)
		}
	}
	return r, true
}

func (l *Layer) maskBounds(m geom.Matrix, full geom.Rect) (geom.Rect, error) {
	shapes := make([]MaskShape, 0, len(l.masks))
	for _, mk := range l.masks {
		p, err := mk.transformed(m)
		if err != nil {
			return geom.Rect{}, err
		}
		if p == nil {
			continue
		}
		shapes = append(shapes, MaskShape{Mode: mk.mode, Inverted: mk.inverted, Bounds: p.Bounds()})
	}
	r, _ := MaskBounds(shapes, full)
	return r, nil
}

var (
	opaque       = geom.ARGB(255, 0, 0, 0)
	dstIn        = canvas.BlendPaint(canvas.BlendDstIn)
	dstOut       = canvas.BlendPaint(canvas.BlendDstOut)
	contentPaint = canvas.AlphaPaint(255)
)

func fillPaint(a uint8) *canvas.Paint {
	p := canvas.NewPaint(canvas.Fill)
	p.Color = opaque.WithAlpha(a)
	return p
}

func dstOutPaint(a uint8) *canvas.Paint {
	p := canvas.NewPaint(canvas.Fill)
	p.Color = opaque.WithAlpha(a)
	p.Blend = canvas.BlendDstOut
	return p
}

// applyMasks composites the masks onto the layer content drawn in the
// current offscreen layer. Add masks accumulate coverage, subtract masks
// punch it out and intersect masks multiply it.
func (l *Layer) applyMasks(c canvas.Canvas, m geom.Matrix, rect geom.Rect) error {
	return canvas.WithLayer(c, rect, dstIn, func() error {
		for i, mk := range l.masks {
			if mk.mode == model.MaskNone {
				continue
			}
			path, err := mk.transformed(m)
			if err != nil {
				return err
			}
			if path == nil {
				continue
			}
			a, err := mk.alpha()
			if err != nil {
				return err
			}
			switch mk.mode {
			case model.MaskAdd:
				if !mk.inverted {
					c.DrawPath(path, fillPaint(a))
					continue
				}
				err = canvas.WithLayer(c, rect, contentPaint, func() error {
					c.DrawRect(rect, fillPaint(255))
					c.DrawPath(path, dstOutPaint(a))
					return nil
				})
			case model.MaskSubtract:
				if i == 0 {
					c.DrawRect(rect, fillPaint(255))
				}
				if !mk.inverted {
					c.DrawPath(path, dstOutPaint(a))
					continue
				}
				err = canvas.WithLayer(c, rect, dstOut, func() error {
					c.DrawRect(rect, fillPaint(255))
					c.DrawPath(path, dstOutPaint(a))
					return nil
				})
			case model.MaskIntersect:
				err = canvas.WithLayer(c, rect, dstIn, func() error {
					if mk.inverted {
						c.DrawRect(rect, fillPaint(255))
						c.DrawPath(path, dstOutPaint(a))
					} else {
						c.DrawPath(path, fillPaint(a))
					}
					return nil
				})
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}
