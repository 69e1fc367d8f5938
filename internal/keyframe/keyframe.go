// Package keyframe evaluates keyframed property values over composition
// progress.
package keyframe

import (
	"math"

	"github.com/inamate/motion/internal/geom"
)

// Timing is the frame range of a composition. Keyframes convert their
// frames to progress through it.
type Timing struct {
	StartFrame float64
	EndFrame   float64
	FrameRate  float64
}

// DurationFrames returns the number of frames spanned.
func (t *Timing) DurationFrames() float64 {
	return t.EndFrame - t.StartFrame
}

// Keyframe is one segment of an animated value, from StartFrame to EndFrame.
type Keyframe[T any] struct {
	StartValue    T
	EndValue      T
	HasStartValue bool
	HasEndValue   bool

	StartFrame float64
	// EndFrame is NaN until SetEndFrames fills it in.
	EndFrame float64

	// Interpolator shapes progress within the keyframe. A nil interpolator
	// marks the keyframe static.
	Interpolator Interpolator
	// XInterpolator and YInterpolator replace Interpolator per axis for
	// two-dimensional values.
	XInterpolator Interpolator
	YInterpolator Interpolator

	// PathCP1 and PathCP2 are the spatial tangents of a motion path, relative
	// to the start and end values.
	PathCP1 geom.Point
	PathCP2 geom.Point

	Timing *Timing

	startProgress float64
	endProgress   float64
	cached        bool
}

// New returns a keyframe starting at frame with the given start value.
func New[T any](timing *Timing, frame float64, start T) *Keyframe[T] {
	return &Keyframe[T]{
		StartValue:    start,
		HasStartValue: true,
		StartFrame:    frame,
		EndFrame:      math.NaN(),
		Timing:        timing,
	}
}

// Static returns a keyframe covering all progress with a constant value.
func Static[T any](v T) *Keyframe[T] {
	return &Keyframe[T]{
		StartValue:    v,
		EndValue:      v,
		HasStartValue: true,
		HasEndValue:   true,
		EndFrame:      math.NaN(),
	}
}

// Hold returns a keyframe whose value stays at v until end.
func Hold[T any](timing *Timing, start, end float64, v T) *Keyframe[T] {
	kf := &Keyframe[T]{
		StartValue:    v,
		EndValue:      v,
		HasStartValue: true,
		HasEndValue:   true,
		StartFrame:    start,
		EndFrame:      end,
		Interpolator:  HoldInterpolator{},
		Timing:        timing,
	}
	kf.Seal()
	return kf
}

// StartProgress returns the keyframe start as a fraction of the composition.
func (k *Keyframe[T]) StartProgress() float64 {
	if k.cached {
		return k.startProgress
	}
	if k.Timing == nil {
		return 0
	}
	return (k.StartFrame - k.Timing.StartFrame) / k.Timing.DurationFrames()
}

// EndProgress returns the keyframe end as a fraction of the composition.
func (k *Keyframe[T]) EndProgress() float64 {
	if k.cached {
		return k.endProgress
	}
	if k.Timing == nil || math.IsNaN(k.EndFrame) {
		return 1
	}
	return k.StartProgress() + (k.EndFrame-k.StartFrame)/k.Timing.DurationFrames()
}

// Seal caches the start and end progress. Sealed keyframes are read-only
// and may be shared between animations on different goroutines.
func (k *Keyframe[T]) Seal() {
	k.cached = false
	k.startProgress = k.StartProgress()
	k.endProgress = k.EndProgress()
	k.cached = true
}

// IsStatic reports whether the keyframe holds a single value.
func (k *Keyframe[T]) IsStatic() bool {
	return k.Interpolator == nil && k.XInterpolator == nil && k.YInterpolator == nil
}

// ContainsProgress reports whether p falls within [start, end).
func (k *Keyframe[T]) ContainsProgress(p float64) bool {
	return p >= k.StartProgress() && p < k.EndProgress()
}

// SetEndFrames links each keyframe to the next one: its end frame becomes
// the next start frame, and a missing end value is taken from the next start
// value. A trailing keyframe without a value pair is dropped when more than
// one keyframe exists. The surviving keyframes are sealed.
func SetEndFrames[T any](kfs []*Keyframe[T]) []*Keyframe[T] {
	n := len(kfs)
	for i := 0; i < n-1; i++ {
		kf, next := kfs[i], kfs[i+1]
		kf.EndFrame = next.StartFrame
		if !kf.HasEndValue && next.HasStartValue {
			kf.EndValue = next.StartValue
			kf.HasEndValue = true
		}
	}
	if n > 1 {
		last := kfs[n-1]
		if !last.HasStartValue || !last.HasEndValue {
			kfs = kfs[:n-1]
		}
	}
	for _, kf := range kfs {
		kf.Seal()
	}
	return kfs
}
