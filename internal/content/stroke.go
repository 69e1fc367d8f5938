package content

import (
	"github.com/inamate/motion/internal/canvas"
	"github.com/inamate/motion/internal/geom"
	"github.com/inamate/motion/internal/keyframe"
	"github.com/inamate/motion/internal/keypath"
	"github.com/inamate/motion/internal/model"
)

// pathGroup is a run of paths sharing one individual trim, or none.
type pathGroup struct {
	trim  *TrimPath
	paths []PathContent
}

// strokeBase strokes the paths after it. Paths are mapped to device space
// before stroking, so widths and dashes are scaled by the parent matrix.
type strokeBase struct {
	env    *Env
	name   string
	hidden bool

	width      keyframe.Value[float64]
	opacity    keyframe.Value[int]
	cap        canvas.Cap
	join       canvas.Join
	miterLimit float64
	dashes     []keyframe.Value[float64]
	dashOffset keyframe.Value[float64]
	filter     colorFilter

	groups  []pathGroup
	path    *geom.Path
	scratch *geom.Path
}

func newStrokeBase(env *Env, name string, hidden bool, s model.StrokeStyle) strokeBase {
	b := strokeBase{
		env:        env,
		name:       name,
		hidden:     hidden,
		cap:        canvas.Cap(s.Cap),
		join:       canvas.Join(s.Join),
		miterLimit: s.MiterLimit,
		path:       geom.NewPath(),
		scratch:    geom.NewPath(),
		filter:     colorFilter{env: env},
	}
	b.width = floatValue(env, s.Width, nil)
	b.opacity = intValue(env, s.Opacity, nil)
	for _, d := range s.Dashes {
		if v := floatValue(env, d, nil); v != nil {
			b.dashes = append(b.dashes, v)
		}
	}
	b.dashOffset = floatValue(env, s.DashOffset, nil)
	return b
}

func (b *strokeBase) Name() string { return b.name }

// SetContents splits the paths after the stroke into groups at every
// individual trim. Paths before the first such trim take the earliest
// individual trim listed before the stroke.
func (b *strokeBase) SetContents(before, after []Content) {
	var inherited *TrimPath
	for i := len(before) - 1; i >= 0; i-- {
		if t, ok := before[i].(*TrimPath); ok && t.Kind() == model.TrimIndividually {
			inherited = t
		}
	}

	var cur *pathGroup
	for i := len(after) - 1; i >= 0; i-- {
		c := after[i]
		if t, ok := c.(*TrimPath); ok && t.Kind() == model.TrimIndividually {
			if cur != nil {
				b.groups = append(b.groups, *cur)
			}
			cur = &pathGroup{trim: t}
			continue
		}
		if pc, ok := c.(PathContent); ok {
			if cur == nil {
				cur = &pathGroup{trim: inherited}
			}
			cur.paths = append(cur.paths, pc)
		}
	}
	if cur != nil {
		b.groups = append(b.groups, *cur)
	}
}

// Groups returns the path groups, for inspection.
func (b *strokeBase) Groups() []pathGroup { return b.groups }

func (b *strokeBase) addPaths(dst *geom.Path, g pathGroup, parent geom.Matrix) error {
	for j := len(g.paths) - 1; j >= 0; j-- {
		p, err := g.paths[j].Path()
		if err != nil {
			return err
		}
		dst.AddPath(p, parent)
	}
	return nil
}

func (b *strokeBase) Bounds(parent geom.Matrix) (geom.Rect, error) {
	b.path.Reset()
	for _, g := range b.groups {
		if err := b.addPaths(b.path, g, parent); err != nil {
			return geom.Rect{}, err
		}
	}
	r := b.path.Bounds()
	w, err := valueOr(b.width, 1)
	if err != nil {
		return geom.Rect{}, err
	}
	return r.Outset(w / 2).Outset(1), nil
}

// paint prepares the stroke paint. It returns nil when nothing should be
// drawn under parent.
func (b *strokeBase) paint(parent geom.Matrix, alpha uint8) (*canvas.Paint, error) {
	if parent.HasZeroScaleAxis() {
		return nil, nil
	}
	op, err := valueOr(b.opacity, 100)
	if err != nil {
		return nil, err
	}
	w, err := valueOr(b.width, 1)
	if err != nil {
		return nil, err
	}
	scale := parent.ScaleFactor()
	p := canvas.NewPaint(canvas.Stroke)
	p.SetAlpha(alphaOf(alpha, op))
	p.StrokeWidth = w * scale
	if p.StrokeWidth <= 0 {
		return nil, nil
	}
	p.Cap = b.cap
	p.Join = b.join
	p.MiterLimit = b.miterLimit

	if len(b.dashes) > 0 {
		p.Dash = make([]float64, len(b.dashes))
		for i, d := range b.dashes {
			v, err := d.Value()
			if err != nil {
				return nil, err
			}
			if i%2 == 0 {
				v = max(v, 1)
			} else {
				v = max(v, 0.1)
			}
			p.Dash[i] = v * scale
		}
		off, err := valueOr(b.dashOffset, 0)
		if err != nil {
			return nil, err
		}
		p.DashPhase = off * scale
	}
	if err := b.filter.apply(p); err != nil {
		return nil, err
	}
	return p, nil
}

func (b *strokeBase) stroke(c canvas.Canvas, parent geom.Matrix, paint *canvas.Paint) error {
	for _, g := range b.groups {
		if g.trim != nil {
			if err := b.strokeTrimmed(c, g, parent, paint); err != nil {
				return err
			}
			continue
		}
		b.path.Reset()
		if err := b.addPaths(b.path, g, parent); err != nil {
			return err
		}
		c.DrawPath(b.path, paint)
	}
	return nil
}

// strokeTrimmed applies an individual trim across the paths of g as if they
// were one path, wrapping past the end back to the first path.
func (b *strokeBase) strokeTrimmed(c canvas.Canvas, g pathGroup, parent geom.Matrix, paint *canvas.Paint) error {
	b.path.Reset()
	if err := b.addPaths(b.path, g, parent); err != nil {
		return err
	}
	start, end, offset, err := g.trim.Values()
	if err != nil {
		return err
	}
	if start < 0.01 && end > 0.99 {
		c.DrawPath(b.path, paint)
		return nil
	}

	total := geom.NewPathMeasure(b.path).Length()
	offLen := total * offset
	startLen := total*start + offLen
	endLen := min(total*end+offLen, startLen+total-1)

	cur := 0.0
	for j := len(g.paths) - 1; j >= 0; j-- {
		p, err := g.paths[j].Path()
		if err != nil {
			return err
		}
		b.scratch.Reset()
		b.scratch.AddPath(p, parent)
		length := geom.NewPathMeasure(b.scratch).Length()

		switch {
		case endLen > total && endLen-total < cur+length && cur < endLen-total:
			s := 0.0
			if startLen > total {
				s = (startLen - total) / length
			}
			e := min((endLen-total)/length, 1)
			geom.Trim(b.scratch, s, e, 0)
			c.DrawPath(b.scratch, paint)
		case cur+length < startLen || cur > endLen:
		case cur+length <= endLen && startLen < cur:
			c.DrawPath(b.scratch, paint)
		default:
			s, e := 0.0, 1.0
			if startLen >= cur {
				s = (startLen - cur) / length
			}
			if endLen <= cur+length {
				e = (endLen - cur) / length
			}
			geom.Trim(b.scratch, s, e, 0)
			c.DrawPath(b.scratch, paint)
		}
		cur += length
	}
	return nil
}

func (b *strokeBase) applyValueCallback(prop keypath.Property, cb any) bool {
	switch prop {
	case keypath.Opacity:
		return bind(b.env, &b.opacity, nil, cb)
	case keypath.StrokeWidth:
		return bind(b.env, &b.width, nil, cb)
	case keypath.ColorFilter:
		return b.filter.bind(cb)
	}
	return false
}

// Stroke outlines the paths after it with a solid color.
type Stroke struct {
	strokeBase
	color keyframe.Value[geom.Color]
}

func newStroke(env *Env, m *model.Stroke) *Stroke {
	s := &Stroke{strokeBase: newStrokeBase(env, m.Name, m.Hidden, m.StrokeStyle)}
	s.color = colorValue(env, m.Color, nil)
	return s
}

func (s *Stroke) Draw(c canvas.Canvas, parent geom.Matrix, alpha uint8) error {
	if s.hidden {
		return nil
	}
	paint, err := s.paint(parent, alpha)
	if paint == nil || err != nil {
		return err
	}
	color, err := valueOr(s.color, geom.ARGB(255, 0, 0, 0))
	if err != nil {
		return err
	}
	paint.Color = color.WithAlpha(paint.Alpha())
	return s.stroke(c, parent, paint)
}

func (s *Stroke) ResolveKeyPath(kp keypath.KeyPath, depth int, acc *[]keypath.KeyPath, partial keypath.KeyPath) {
	resolveLeaf(s, s.name, kp, depth, acc, partial)
}

func (s *Stroke) ApplyValueCallback(prop keypath.Property, cb any) bool {
	if prop == keypath.StrokeColor || prop == keypath.Color {
		return bind(s.env, &s.color, nil, cb)
	}
	return s.applyValueCallback(prop, cb)
}

// GradientStroke outlines the paths after it with a gradient.
type GradientStroke struct {
	strokeBase
	gradient *gradient
}

func newGradientStroke(env *Env, m *model.GradientStroke) *GradientStroke {
	s := &GradientStroke{strokeBase: newStrokeBase(env, m.Name, m.Hidden, m.StrokeStyle)}
	s.gradient = newGradient(env, m.GradientPaint, nil)
	return s
}

func (s *GradientStroke) Draw(c canvas.Canvas, parent geom.Matrix, alpha uint8) error {
	if s.hidden {
		return nil
	}
	paint, err := s.paint(parent, alpha)
	if paint == nil || err != nil {
		return err
	}
	sh, err := s.gradient.shader(parent)
	if err != nil {
		return err
	}
	paint.Shader = sh
	return s.stroke(c, parent, paint)
}

func (s *GradientStroke) ResolveKeyPath(kp keypath.KeyPath, depth int, acc *[]keypath.KeyPath, partial keypath.KeyPath) {
	resolveLeaf(s, s.name, kp, depth, acc, partial)
}

func (s *GradientStroke) ApplyValueCallback(prop keypath.Property, cb any) bool {
	if prop == keypath.GradientColor {
		return s.gradient.bindColors(cb)
	}
	return s.applyValueCallback(prop, cb)
}
