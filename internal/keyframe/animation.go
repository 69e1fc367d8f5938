package keyframe

import (
	"errors"
	"fmt"
)

var (
	// ErrNoKeyframes is returned when an animation without keyframes or a
	// value callback is evaluated.
	ErrNoKeyframes = errors.New("animation has no keyframes")
	// ErrMissingValue is returned when the current keyframe lacks its start
	// or end value.
	ErrMissingValue = errors.New("keyframe is missing a start or end value")
)

// Stepper is anything driven by composition progress.
type Stepper interface {
	// SetProgress moves to p and reports whether the clamped progress changed.
	SetProgress(p float64) bool
	Progress() float64
	// OnChange registers fn to run whenever progress changes.
	OnChange(fn func())
}

// Value is a progress-driven property producing values of type A.
type Value[A any] interface {
	Stepper
	Value() (A, error)
	SetValueCallback(cb ValueCallback[A])
}

// Signal fans a change notification out to its listeners.
type Signal struct {
	fns []func()
}

func (s *Signal) Connect(fn func()) {
	s.fns = append(s.fns, fn)
}

func (s *Signal) Emit() {
	for _, fn := range s.fns {
		fn()
	}
}

// FrameInfo is the interpolation context handed to a value callback.
type FrameInfo[A any] struct {
	StartFrame           float64
	EndFrame             float64
	StartValue           A
	EndValue             A
	LinearProgress       float64
	InterpolatedProgress float64
	OverallProgress      float64
}

// ValueCallback overrides the computed value of a property.
type ValueCallback[A any] func(info FrameInfo[A]) A

// Constant returns a callback that always yields v.
func Constant[A any](v A) ValueCallback[A] {
	return func(FrameInfo[A]) A { return v }
}

// Sample is the evaluation input for one keyframe.
type Sample[K any] struct {
	Keyframe     *Keyframe[K]
	Linear       float64
	Interpolated float64
	// X and Y are the per-axis interpolated progress. They equal
	// Interpolated unless the keyframe has split interpolators.
	X, Y float64
	// Fresh asks for a result that does not share scratch storage.
	Fresh bool
}

// Evaluator computes the typed value of a keyframe sample.
type Evaluator[K, A any] func(s Sample[K]) (A, error)

// Animation walks a sorted keyframe list and evaluates it at the current
// progress.
type Animation[K, A any] struct {
	keyframes []*Keyframe[K]
	eval      Evaluator[K, A]
	progress  float64
	current   *Keyframe[K]
	changed   Signal
	callback  ValueCallback[A]

	cached     A
	cacheValid bool
}

// NewAnimation returns an animation over kfs using eval.
func NewAnimation[K, A any](kfs []*Keyframe[K], eval Evaluator[K, A]) *Animation[K, A] {
	return &Animation[K, A]{keyframes: kfs, eval: eval}
}

// Keyframes returns the keyframe list.
func (a *Animation[K, A]) Keyframes() []*Keyframe[K] {
	return a.keyframes
}

func (a *Animation[K, A]) OnChange(fn func()) {
	a.changed.Connect(fn)
}

func (a *Animation[K, A]) Progress() float64 {
	return a.progress
}

// SetProgress clamps p to the range covered by the keyframes. Setting an
// unchanged progress is a no-op and notifies nobody.
func (a *Animation[K, A]) SetProgress(p float64) bool {
	p = max(a.startDelayProgress(), min(p, a.endProgress()))
	if p == a.progress {
		return false
	}
	a.progress = p
	a.cacheValid = false
	a.changed.Emit()
	return true
}

// SetValueCallback installs or, with nil, removes a value override.
func (a *Animation[K, A]) SetValueCallback(cb ValueCallback[A]) {
	a.callback = cb
	a.cacheValid = false
	a.changed.Emit()
}

func (a *Animation[K, A]) startDelayProgress() float64 {
	if len(a.keyframes) == 0 {
		return 0
	}
	return a.keyframes[0].StartProgress()
}

func (a *Animation[K, A]) endProgress() float64 {
	if len(a.keyframes) == 0 {
		return 1
	}
	return a.keyframes[len(a.keyframes)-1].EndProgress()
}

func (a *Animation[K, A]) currentKeyframe() *Keyframe[K] {
	if a.current != nil && a.current.ContainsProgress(a.progress) {
		return a.current
	}
	kf := a.keyframes[len(a.keyframes)-1]
	if a.progress < kf.StartProgress() {
		for i := len(a.keyframes) - 1; i >= 0; i-- {
			kf = a.keyframes[i]
			if kf.ContainsProgress(a.progress) {
				break
			}
		}
	}
	a.current = kf
	return kf
}

// LinearProgress returns the un-eased progress within the current keyframe.
func (a *Animation[K, A]) LinearProgress() float64 {
	if len(a.keyframes) == 0 {
		return 0
	}
	return a.linear(a.currentKeyframe())
}

func (a *Animation[K, A]) linear(kf *Keyframe[K]) float64 {
	if kf.IsStatic() {
		return 0
	}
	span := kf.EndProgress() - kf.StartProgress()
	if span <= 0 {
		return 0
	}
	return (a.progress - kf.StartProgress()) / span
}

// Value evaluates the animation at its current progress.
func (a *Animation[K, A]) Value() (A, error) {
	var zero A
	if len(a.keyframes) == 0 {
		if a.callback != nil {
			return a.callback(FrameInfo[A]{OverallProgress: a.progress}), nil
		}
		return zero, ErrNoKeyframes
	}
	if a.cacheValid && a.callback == nil {
		return a.cached, nil
	}

	kf := a.currentKeyframe()
	if !kf.HasStartValue || !kf.HasEndValue {
		return zero, fmt.Errorf("frame %v: %w", kf.StartFrame, ErrMissingValue)
	}

	lin := a.linear(kf)
	s := Sample[K]{Keyframe: kf, Linear: lin}
	if !kf.IsStatic() && kf.Interpolator != nil {
		s.Interpolated = kf.Interpolator.Interpolate(lin)
	}
	s.X, s.Y = s.Interpolated, s.Interpolated
	if !kf.IsStatic() {
		if kf.XInterpolator != nil {
			s.X = kf.XInterpolator.Interpolate(lin)
		}
		if kf.YInterpolator != nil {
			s.Y = kf.YInterpolator.Interpolate(lin)
		}
	}

	if a.callback != nil {
		start, err := a.eval(Sample[K]{Keyframe: kf, Fresh: true})
		if err != nil {
			return zero, err
		}
		end, err := a.eval(Sample[K]{Keyframe: kf, Linear: 1, Interpolated: 1, X: 1, Y: 1, Fresh: true})
		if err != nil {
			return zero, err
		}
		return a.callback(FrameInfo[A]{
			StartFrame:           kf.StartFrame,
			EndFrame:             kf.EndFrame,
			StartValue:           start,
			EndValue:             end,
			LinearProgress:       lin,
			InterpolatedProgress: s.Interpolated,
			OverallProgress:      a.progress,
		}), nil
	}

	v, err := a.eval(s)
	if err != nil {
		return zero, err
	}
	a.cached = v
	a.cacheValid = true
	return v, nil
}

// Bind installs cb on v if cb has v's callback type. A nil cb clears the
// callback. It reports whether the callback was accepted.
func Bind[A any](v Value[A], cb any) bool {
	if v == nil {
		return false
	}
	switch f := cb.(type) {
	case nil:
		v.SetValueCallback(nil)
	case ValueCallback[A]:
		v.SetValueCallback(f)
	case func(FrameInfo[A]) A:
		v.SetValueCallback(f)
	default:
		return false
	}
	return true
}
