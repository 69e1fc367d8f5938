package content

import (
	"github.com/inamate/motion/internal/canvas"
	"github.com/inamate/motion/internal/geom"
	"github.com/inamate/motion/internal/keyframe"
	"github.com/inamate/motion/internal/keypath"
	"github.com/inamate/motion/internal/model"
)

// fillBase collects the paths listed after a fill and paints them.
type fillBase struct {
	env      *Env
	name     string
	hidden   bool
	fillType geom.FillType
	opacity  keyframe.Value[int]
	filter   colorFilter
	paths    []PathContent
	path     *geom.Path
}

func newFillBase(env *Env, name string, hidden bool, fillType geom.FillType) fillBase {
	return fillBase{env: env, name: name, hidden: hidden, fillType: fillType, filter: colorFilter{env: env}, path: geom.NewPath()}
}

func (f *fillBase) Name() string { return f.name }

func (f *fillBase) SetContents(_, after []Content) {
	for _, c := range after {
		if pc, ok := c.(PathContent); ok {
			f.paths = append(f.paths, pc)
		}
	}
}

// gather rebuilds the combined path in the space of parent.
func (f *fillBase) gather(parent geom.Matrix) (*geom.Path, error) {
	f.path.Reset()
	for _, pc := range f.paths {
		p, err := pc.Path()
		if err != nil {
			return nil, err
		}
		f.path.AddPath(p, parent)
	}
	f.path.SetFillType(f.fillType)
	return f.path, nil
}

func (f *fillBase) Bounds(parent geom.Matrix) (geom.Rect, error) {
	p, err := f.gather(parent)
	if err != nil {
		return geom.Rect{}, err
	}
	return p.Bounds().Outset(1), nil
}

func (f *fillBase) alpha(parent uint8) (uint8, error) {
	op, err := valueOr(f.opacity, 100)
	if err != nil {
		return 0, err
	}
	return alphaOf(parent, op), nil
}

// Fill paints the paths after it with a solid color.
type Fill struct {
	fillBase
	color keyframe.Value[geom.Color]
}

func newFill(env *Env, m *model.Fill) *Fill {
	f := &Fill{fillBase: newFillBase(env, m.Name, m.Hidden, m.FillType)}
	f.color = colorValue(env, m.Color, nil)
	f.opacity = intValue(env, m.Opacity, nil)
	return f
}

func (f *Fill) Draw(c canvas.Canvas, parent geom.Matrix, alpha uint8) error {
	if f.hidden {
		return nil
	}
	color, err := valueOr(f.color, geom.ARGB(255, 0, 0, 0))
	if err != nil {
		return err
	}
	a, err := f.alpha(alpha)
	if err != nil {
		return err
	}
	paint := canvas.NewPaint(canvas.Fill)
	paint.Color = color.WithAlpha(a)
	if err := f.filter.apply(paint); err != nil {
		return err
	}
	p, err := f.gather(parent)
	if err != nil {
		return err
	}
	c.DrawPath(p, paint)
	return nil
}

func (f *Fill) ResolveKeyPath(kp keypath.KeyPath, depth int, acc *[]keypath.KeyPath, partial keypath.KeyPath) {
	resolveLeaf(f, f.name, kp, depth, acc, partial)
}

func (f *Fill) ApplyValueCallback(prop keypath.Property, cb any) bool {
	switch prop {
	case keypath.Color:
		return bind(f.env, &f.color, nil, cb)
	case keypath.Opacity:
		return bind(f.env, &f.opacity, nil, cb)
	case keypath.ColorFilter:
		return f.filter.bind(cb)
	}
	return false
}

// GradientFill paints the paths after it with a linear or radial gradient.
type GradientFill struct {
	fillBase
	gradient *gradient
}

func newGradientFill(env *Env, m *model.GradientFill) *GradientFill {
	f := &GradientFill{fillBase: newFillBase(env, m.Name, m.Hidden, m.FillType)}
	f.gradient = newGradient(env, m.GradientPaint, nil)
	f.opacity = intValue(env, m.Opacity, nil)
	return f
}

func (f *GradientFill) Draw(c canvas.Canvas, parent geom.Matrix, alpha uint8) error {
	if f.hidden {
		return nil
	}
	p, err := f.gather(parent)
	if err != nil {
		return err
	}
	sh, err := f.gradient.shader(parent)
	if err != nil {
		return err
	}
	a, err := f.alpha(alpha)
	if err != nil {
		return err
	}
	paint := canvas.NewPaint(canvas.Fill)
	paint.Shader = sh
	paint.SetAlpha(a)
	if err := f.filter.apply(paint); err != nil {
		return err
	}
	c.DrawPath(p, paint)
	return nil
}

func (f *GradientFill) ResolveKeyPath(kp keypath.KeyPath, depth int, acc *[]keypath.KeyPath, partial keypath.KeyPath) {
	resolveLeaf(f, f.name, kp, depth, acc, partial)
}

func (f *GradientFill) ApplyValueCallback(prop keypath.Property, cb any) bool {
	switch prop {
	case keypath.Opacity:
		return bind(f.env, &f.opacity, nil, cb)
	case keypath.GradientColor:
		return f.gradient.bindColors(cb)
	case keypath.ColorFilter:
		return f.filter.bind(cb)
	}
	return false
}
