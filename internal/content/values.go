package content

import (
	"github.com/inamate/motion/internal/geom"
	"github.com/inamate/motion/internal/keyframe"
	"github.com/inamate/motion/internal/model"
)

// tracked registers v with env and connects onChange. It returns v for
// chaining into a field assignment.
func tracked[A any](env *Env, v keyframe.Value[A], onChange func()) keyframe.Value[A] {
	if v == nil {
		return nil
	}
	env.Track(v)
	if onChange != nil {
		v.OnChange(onChange)
	}
	return v
}

func floatValue(env *Env, a *model.AnimatableFloat, onChange func()) keyframe.Value[float64] {
	if a == nil {
		return nil
	}
	return tracked[float64](env, a.Create(), onChange)
}

func intValue(env *Env, a *model.AnimatableInt, onChange func()) keyframe.Value[int] {
	if a == nil {
		return nil
	}
	return tracked[int](env, a.Create(), onChange)
}

func colorValue(env *Env, a *model.AnimatableColor, onChange func()) keyframe.Value[geom.Color] {
	if a == nil {
		return nil
	}
	return tracked[geom.Color](env, a.Create(), onChange)
}

func pointValue(env *Env, a *model.AnimatablePoint, onChange func()) keyframe.Value[geom.Point] {
	if a == nil {
		return nil
	}
	return tracked[geom.Point](env, a.Create(), onChange)
}

func positionValue(env *Env, a model.AnimatablePosition, onChange func()) keyframe.Value[geom.Point] {
	if a == nil {
		return nil
	}
	return tracked(env, a.CreatePosition(), onChange)
}

// valueOr evaluates v, or returns def when v is nil.
func valueOr[A any](v keyframe.Value[A], def A) (A, error) {
	if v == nil {
		return def, nil
	}
	return v.Value()
}

// bind installs cb on *v. A property the source never animated gets a
// callback-only value tracked by env and connected to onChange.
func bind[A any](env *Env, v *keyframe.Value[A], onChange func(), cb any) bool {
	if *v != nil {
		return keyframe.Bind(*v, cb)
	}
	var f keyframe.ValueCallback[A]
	switch c := cb.(type) {
	case keyframe.ValueCallback[A]:
		f = c
	case func(keyframe.FrameInfo[A]) A:
		f = c
	default:
		return false
	}
	a := keyframe.Callback(f)
	if onChange != nil {
		a.OnChange(onChange)
	}
	*v = a
	env.Track(a)
	return true
}
