package keyframe

import (
	"log/slog"
	"math"

	"github.com/inamate/motion/internal/geom"
)

// NewFloat interpolates scalars linearly.
func NewFloat(kfs []*Keyframe[float64]) *Animation[float64, float64] {
	return NewAnimation(kfs, func(s Sample[float64]) (float64, error) {
		return geom.Lerp(s.Keyframe.StartValue, s.Keyframe.EndValue, s.Interpolated), nil
	})
}

// NewInt interpolates integers linearly, truncating toward zero.
func NewInt(kfs []*Keyframe[int]) *Animation[int, int] {
	return NewAnimation(kfs, func(s Sample[int]) (int, error) {
		a, b := float64(s.Keyframe.StartValue), float64(s.Keyframe.EndValue)
		return int(geom.Lerp(a, b, s.Interpolated)), nil
	})
}

// NewColor interpolates colors in linear light.
func NewColor(kfs []*Keyframe[geom.Color]) *Animation[geom.Color, geom.Color] {
	return NewAnimation(kfs, func(s Sample[geom.Color]) (geom.Color, error) {
		t := geom.Clamp(s.Interpolated, 0, 1)
		return geom.LerpColor(s.Keyframe.StartValue, s.Keyframe.EndValue, t), nil
	})
}

// NewPoint interpolates points per axis. It is also used for scale values,
// where 1 means 100%.
func NewPoint(kfs []*Keyframe[geom.Point]) *Animation[geom.Point, geom.Point] {
	return NewAnimation(kfs, func(s Sample[geom.Point]) (geom.Point, error) {
		a, b := s.Keyframe.StartValue, s.Keyframe.EndValue
		return geom.Point{X: geom.Lerp(a.X, b.X, s.X), Y: geom.Lerp(a.Y, b.Y, s.Y)}, nil
	})
}

// NewPathPoint moves a point along the motion path described by each
// keyframe's spatial tangents, parametrized by arc length.
func NewPathPoint(kfs []*Keyframe[geom.Point]) *Animation[geom.Point, geom.Point] {
	paths := make(map[*Keyframe[geom.Point]]*geom.PathMeasure, len(kfs))
	return NewAnimation(kfs, func(s Sample[geom.Point]) (geom.Point, error) {
		kf := s.Keyframe
		pm, ok := paths[kf]
		if !ok {
			pm = motionPath(kf)
			paths[kf] = pm
		}
		if pm == nil {
			return kf.StartValue, nil
		}
		pos, _, _ := pm.PosTan(s.Interpolated * pm.Length())
		return pos, nil
	})
}

func motionPath(kf *Keyframe[geom.Point]) *geom.PathMeasure {
	start, end := kf.StartValue, kf.EndValue
	if start == end {
		return nil
	}
	p := geom.NewPath()
	p.MoveTo(start.X, start.Y)
	if !kf.PathCP1.IsZero() || !kf.PathCP2.IsZero() {
		c1 := start.Add(kf.PathCP1)
		c2 := end.Add(kf.PathCP2)
		p.CubicTo(c1.X, c1.Y, c2.X, c2.Y, end.X, end.Y)
	} else {
		p.LineTo(end.X, end.Y)
	}
	return geom.NewPathMeasure(p)
}

// NewShape morphs bezier shapes vertex by vertex and emits a path. The
// returned path is scratch storage reused on the next evaluation.
func NewShape(kfs []*Keyframe[*geom.ShapeData], log *slog.Logger) *Animation[*geom.ShapeData, *geom.Path] {
	if log == nil {
		log = slog.Default()
	}
	var scratch geom.ShapeData
	path := geom.NewPath()
	warned := false
	return NewAnimation(kfs, func(s Sample[*geom.ShapeData]) (*geom.Path, error) {
		kf := s.Keyframe
		out := path
		if s.Fresh {
			out = geom.NewPath()
		}
		out.Reset()
		if kf.StartValue == nil || kf.EndValue == nil {
			return out, ErrMissingValue
		}
		if scratch.Interpolate(kf.StartValue, kf.EndValue, s.Interpolated) && !warned {
			warned = true
			log.Warn("shape keyframes differ in vertex count",
				"start", len(kf.StartValue.Curves), "end", len(kf.EndValue.Curves))
		}
		scratch.AppendTo(out)
		return out, nil
	})
}

// NewGradient interpolates gradient stops.
func NewGradient(kfs []*Keyframe[geom.Gradient]) *Animation[geom.Gradient, geom.Gradient] {
	return NewAnimation(kfs, func(s Sample[geom.Gradient]) (geom.Gradient, error) {
		return geom.LerpGradient(s.Keyframe.StartValue, s.Keyframe.EndValue, s.Interpolated), nil
	})
}

// NewDiscrete holds the start value of each keyframe, switching to the end
// value only once the final keyframe completes.
func NewDiscrete[T any](kfs []*Keyframe[T]) *Animation[T, T] {
	return NewAnimation(kfs, func(s Sample[T]) (T, error) {
		if s.Linear >= 1 {
			return s.Keyframe.EndValue, nil
		}
		return s.Keyframe.StartValue, nil
	})
}

// Callback returns a keyframe-less value driven only by cb. It is used when
// a host overrides a property the source never animated.
func Callback[A any](cb ValueCallback[A]) *Animation[A, A] {
	a := NewAnimation[A, A](nil, nil)
	a.callback = cb
	return a
}

// SplitDimension combines two scalar animations into a point.
type SplitDimension struct {
	x, y     Value[float64]
	progress float64
	changed  Signal
	callback ValueCallback[geom.Point]
}

// NewSplitDimension joins x and y.
func NewSplitDimension(x, y Value[float64]) *SplitDimension {
	return &SplitDimension{x: x, y: y}
}

func (d *SplitDimension) X() Value[float64] { return d.x }
func (d *SplitDimension) Y() Value[float64] { return d.y }

func (d *SplitDimension) OnChange(fn func()) { d.changed.Connect(fn) }
func (d *SplitDimension) Progress() float64  { return d.progress }

func (d *SplitDimension) SetProgress(p float64) bool {
	cx := d.x.SetProgress(p)
	cy := d.y.SetProgress(p)
	d.progress = p
	if cx || cy {
		d.changed.Emit()
		return true
	}
	return false
}

func (d *SplitDimension) SetValueCallback(cb ValueCallback[geom.Point]) {
	d.callback = cb
	d.changed.Emit()
}

func (d *SplitDimension) Value() (geom.Point, error) {
	x, err := d.x.Value()
	if err != nil {
		return geom.Point{}, err
	}
	y, err := d.y.Value()
	if err != nil {
		return geom.Point{}, err
	}
	pt := geom.Point{X: x, Y: y}
	if d.callback != nil {
		return d.callback(FrameInfo[geom.Point]{
			StartValue:           pt,
			EndValue:             pt,
			LinearProgress:       d.progress,
			InterpolatedProgress: d.progress,
			OverallProgress:      d.progress,
		}), nil
	}
	return pt, nil
}

// powScale compounds a per-step scale factor.
func powScale(s, amount float64) float64 {
	return math.Pow(s, amount)
}
