// Package animator turns elapsed time into a composition frame, honoring
// play bounds, speed and repetition.
package animator

import (
	"math"
	"time"
)

// RepeatMode selects what happens when playback reaches a bound with
// repeats left.
type RepeatMode int

const (
	// Restart jumps back to the opposite bound.
	Restart RepeatMode = iota
	// Reverse flips the play direction.
	Reverse
)

func (m RepeatMode) String() string {
	if m == Reverse {
		return "reverse"
	}
	return "restart"
}

// Infinite repeats forever.
const Infinite = -1

// Animator tracks the current frame of one composition. It is not safe
// for concurrent use.
type Animator struct {
	compStart, compEnd float64
	frameRate          float64

	frame    float64
	minFrame float64
	maxFrame float64

	speed       float64
	repeatCount int
	repeatMode  RepeatMode
	repeated    int
	running     bool

	onUpdate []func()
	onRepeat []func()
	onEnd    []func()
}

// New returns a paused animator over [start, end] at frameRate.
func New(start, end, frameRate float64) *Animator {
	a := &Animator{speed: 1}
	a.SetComposition(start, end, frameRate)
	return a
}

// SetComposition replaces the composition range. Play bounds reset to the
// full range and the current frame is clamped into it.
func (a *Animator) SetComposition(start, end, frameRate float64) {
	a.compStart, a.compEnd, a.frameRate = start, end, frameRate
	a.minFrame, a.maxFrame = start, end
	a.setFrame(a.frame)
}

func (a *Animator) OnUpdate(fn func()) { a.onUpdate = append(a.onUpdate, fn) }
func (a *Animator) OnRepeat(fn func()) { a.onRepeat = append(a.onRepeat, fn) }
func (a *Animator) OnEnd(fn func())    { a.onEnd = append(a.onEnd, fn) }

func emit(fns []func()) {
	for _, fn := range fns {
		fn()
	}
}

// MinFrame returns the lower play bound.
func (a *Animator) MinFrame() float64 { return a.minFrame }

// MaxFrame returns the upper play bound.
func (a *Animator) MaxFrame() float64 { return a.maxFrame }

// SetMinAndMaxFrames narrows playback to [lo, hi], clamped to the
// composition range.
func (a *Animator) SetMinAndMaxFrames(lo, hi float64) {
	if lo > hi {
		lo, hi = hi, lo
	}
	a.minFrame = clamp(lo, a.compStart, a.compEnd)
	a.maxFrame = clamp(hi, a.compStart, a.compEnd)
	a.setFrame(a.frame)
}

func (a *Animator) SetMinFrame(f float64) { a.SetMinAndMaxFrames(f, a.maxFrame) }
func (a *Animator) SetMaxFrame(f float64) { a.SetMinAndMaxFrames(a.minFrame, f) }

// SetMinAndMaxProgress narrows playback by fractions of the composition.
func (a *Animator) SetMinAndMaxProgress(lo, hi float64) {
	d := a.compEnd - a.compStart
	a.SetMinAndMaxFrames(a.compStart+lo*d, a.compStart+hi*d)
}

func (a *Animator) Speed() float64 { return a.speed }

// SetSpeed sets the playback rate. Negative speeds play backwards.
func (a *Animator) SetSpeed(s float64) { a.speed = s }

func (a *Animator) RepeatCount() int { return a.repeatCount }

// SetRepeatCount sets how many times playback repeats after the first
// pass, or Infinite.
func (a *Animator) SetRepeatCount(n int) { a.repeatCount = n }

func (a *Animator) RepeatMode() RepeatMode     { return a.repeatMode }
func (a *Animator) SetRepeatMode(m RepeatMode) { a.repeatMode = m }

// Repeated returns the repeats done since the last Play.
func (a *Animator) Repeated() int { return a.repeated }

func (a *Animator) Running() bool { return a.running }

func (a *Animator) reversed() bool { return a.speed < 0 }

// Play starts from the bound the play direction begins at.
func (a *Animator) Play() {
	a.running = true
	a.repeated = 0
	if a.reversed() {
		a.SetFrame(a.maxFrame)
	} else {
		a.SetFrame(a.minFrame)
	}
}

// Resume continues from the current frame.
func (a *Animator) Resume() {
	a.running = true
	if a.reversed() && a.frame == a.minFrame {
		a.SetFrame(a.maxFrame)
	} else if !a.reversed() && a.frame == a.maxFrame {
		a.SetFrame(a.minFrame)
	}
}

func (a *Animator) Pause() { a.running = false }

// Frame returns the current frame.
func (a *Animator) Frame() float64 { return a.frame }

// SetFrame moves to f, clamped to the play bounds.
func (a *Animator) SetFrame(f float64) {
	if a.setFrame(f) {
		emit(a.onUpdate)
	}
}

func (a *Animator) setFrame(f float64) bool {
	f = clamp(f, a.minFrame, a.maxFrame)
	if f == a.frame {
		return false
	}
	a.frame = f
	return true
}

// SetProgress moves to the frame at fraction p of the composition.
func (a *Animator) SetProgress(p float64) {
	a.SetFrame(a.compStart + p*(a.compEnd-a.compStart))
}

// Progress is the absolute position of the current frame in the
// composition, regardless of play bounds and direction.
func (a *Animator) Progress() float64 {
	d := a.compEnd - a.compStart
	if d <= 0 {
		return 0
	}
	return (a.frame - a.compStart) / d
}

// AnimatedFraction is the position within the play bounds in the play
// direction: 0 where playback starts and 1 where it ends.
func (a *Animator) AnimatedFraction() float64 {
	d := a.maxFrame - a.minFrame
	if d <= 0 {
		return 0
	}
	if a.reversed() {
		return (a.maxFrame - a.frame) / d
	}
	return (a.frame - a.minFrame) / d
}

// FrameDuration is the wall time one frame lasts at the current speed.
func (a *Animator) FrameDuration() time.Duration {
	if a.frameRate <= 0 || a.speed == 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / (a.frameRate * math.Abs(a.speed)))
}

// Tick advances playback by elapsed and reports whether the frame
// changed. Crossing a bound either repeats or ends playback at the bound.
func (a *Animator) Tick(elapsed time.Duration) bool {
	if !a.running || elapsed <= 0 || a.frameRate <= 0 {
		return false
	}
	before := a.frame
	next := a.frame + elapsed.Seconds()*a.frameRate*a.speed
	ended := next < a.minFrame || next > a.maxFrame
	a.frame = clamp(next, a.minFrame, a.maxFrame)

	if ended {
		if a.repeatCount != Infinite && a.repeated >= a.repeatCount {
			if a.reversed() {
				a.frame = a.minFrame
			} else {
				a.frame = a.maxFrame
			}
			a.running = false
			emit(a.onUpdate)
			emit(a.onEnd)
			return true
		}
		emit(a.onRepeat)
		a.repeated++
		if a.repeatMode == Reverse {
			a.speed = -a.speed
		} else if a.reversed() {
			a.frame = a.maxFrame
		} else {
			a.frame = a.minFrame
		}
	}
	if a.frame != before {
		emit(a.onUpdate)
		return true
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
