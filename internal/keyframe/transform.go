package keyframe

import (
	"github.com/inamate/motion/internal/geom"
	"github.com/inamate/motion/internal/keypath"
)

// Transform aggregates the animations of a layer or group transform. Any
// field may be nil when the source omits it.
type Transform struct {
	Anchor   Value[geom.Point]
	Position Value[geom.Point]
	// Scale factors, 1 meaning 100%.
	Scale    Value[geom.Point]
	Rotation Value[float64]
	// Opacity in percent.
	Opacity Value[int]

	// StartOpacity and EndOpacity are only set on repeaters.
	StartOpacity Value[float64]
	EndOpacity   Value[float64]

	created func(Stepper)
}

// OnCreate registers fn to receive values created by ApplyValueCallback
// for properties the source never animated. The owner tracks them so they
// follow the progress of the rest of the transform.
func (t *Transform) OnCreate(fn func(Stepper)) {
	t.created = fn
}

// Steppers returns the non-nil sub-animations.
func (t *Transform) Steppers() []Stepper {
	var out []Stepper
	for _, s := range []Stepper{t.Anchor, t.Position, t.Scale, t.Rotation, t.Opacity, t.StartOpacity, t.EndOpacity} {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

// SetProgress advances every sub-animation and reports whether any changed.
func (t *Transform) SetProgress(p float64) bool {
	changed := false
	for _, s := range t.Steppers() {
		if s.SetProgress(p) {
			changed = true
		}
	}
	return changed
}

// OnChange registers fn on every sub-animation.
func (t *Transform) OnChange(fn func()) {
	for _, s := range t.Steppers() {
		s.OnChange(fn)
	}
}

// OpacityValue returns the opacity in percent, 100 when not animated.
func (t *Transform) OpacityValue() (int, error) {
	if t.Opacity == nil {
		return 100, nil
	}
	return t.Opacity.Value()
}

// Matrix evaluates T(position) * R(rotation) * S(scale) * T(-anchor).
func (t *Transform) Matrix() (geom.Matrix, error) {
	var pos, anchor geom.Point
	scale := geom.Pt(1, 1)
	var rot float64
	var err error
	if t.Position != nil {
		if pos, err = t.Position.Value(); err != nil {
			return geom.Identity(), err
		}
	}
	if t.Rotation != nil {
		if rot, err = t.Rotation.Value(); err != nil {
			return geom.Identity(), err
		}
	}
	if t.Scale != nil {
		if scale, err = t.Scale.Value(); err != nil {
			return geom.Identity(), err
		}
	}
	if t.Anchor != nil {
		if anchor, err = t.Anchor.Value(); err != nil {
			return geom.Identity(), err
		}
	}
	return geom.FromTransform(pos.X, pos.Y, scale.X, scale.Y, rot, anchor.X, anchor.Y), nil
}

// MatrixForRepeater evaluates the transform of copy number amount:
// position and rotation scale linearly with amount, scale compounds as
// scale^amount and rotation pivots on the anchor point.
func (t *Transform) MatrixForRepeater(amount float64) (geom.Matrix, error) {
	m := geom.Identity()
	if t.Position != nil {
		p, err := t.Position.Value()
		if err != nil {
			return m, err
		}
		m = m.Multiply(geom.Translate(p.X*amount, p.Y*amount))
	}
	if t.Scale != nil {
		s, err := t.Scale.Value()
		if err != nil {
			return m, err
		}
		m = m.Multiply(geom.Scale(powScale(s.X, amount), powScale(s.Y, amount)))
	}
	if t.Rotation != nil {
		r, err := t.Rotation.Value()
		if err != nil {
			return m, err
		}
		var anchor geom.Point
		if t.Anchor != nil {
			if anchor, err = t.Anchor.Value(); err != nil {
				return m, err
			}
		}
		m = m.Multiply(geom.RotateAbout(r*amount, anchor.X, anchor.Y))
	}
	return m, nil
}

// ApplyValueCallback routes a transform property override. Properties the
// source never animated get a callback-only value.
func (t *Transform) ApplyValueCallback(prop keypath.Property, cb any) bool {
	switch prop {
	case keypath.TransformAnchor:
		return bindNew(t, &t.Anchor, cb)
	case keypath.TransformPosition:
		return bindNew(t, &t.Position, cb)
	case keypath.TransformPositionX, keypath.TransformPositionY:
		split, ok := t.Position.(*SplitDimension)
		if !ok {
			return false
		}
		if prop == keypath.TransformPositionX {
			return Bind(split.X(), cb)
		}
		return Bind(split.Y(), cb)
	case keypath.TransformScale:
		return bindNew(t, &t.Scale, cb)
	case keypath.TransformRotation:
		return bindNew(t, &t.Rotation, cb)
	case keypath.TransformOpacity:
		return bindNew(t, &t.Opacity, cb)
	case keypath.TransformStartOpacity:
		return bindNew(t, &t.StartOpacity, cb)
	case keypath.TransformEndOpacity:
		return bindNew(t, &t.EndOpacity, cb)
	}
	return false
}

// bindNew installs cb on *v, creating a callback-only value when the
// property is not animated.
func bindNew[A any](t *Transform, v *Value[A], cb any) bool {
	if *v != nil {
		return Bind(*v, cb)
	}
	f, ok := cb.(ValueCallback[A])
	if !ok {
		return false
	}
	a := Callback(f)
	*v = a
	if t.created != nil {
		t.created(a)
	}
	return true
}
