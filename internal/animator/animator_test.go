package animator

import (
	"math"
	"testing"
	"time"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

// frames converts a frame count at 30 fps into elapsed time.
func frames(n float64) time.Duration {
	return time.Duration(n * float64(time.Second) / 30)
}

func TestTick(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(a *Animator)
		ticks   []float64
		frame   float64
		speed   float64
		running bool
		repeats int
	}{
		{
			name:    "plays forward",
			ticks:   []float64{10, 5},
			frame:   15,
			speed:   1,
			running: true,
		},
		{
			name:  "ends clamped at max",
			ticks: []float64{50, 20},
			frame: 60,
			speed: 1,
		},
		{
			name:    "restart repeats from min",
			setup:   func(a *Animator) { a.SetRepeatCount(Infinite) },
			ticks:   []float64{50, 20},
			frame:   0,
			speed:   1,
			running: true,
			repeats: 1,
		},
		{
			name: "reverse flips direction at the bound",
			setup: func(a *Animator) {
				a.SetRepeatCount(2)
				a.SetRepeatMode(Reverse)
			},
			ticks:   []float64{50, 20, 10},
			frame:   50,
			speed:   -1,
			running: true,
			repeats: 1,
		},
		{
			name:  "negative speed plays backwards from max",
			setup: func(a *Animator) { a.SetSpeed(-2) },
			ticks: []float64{10},
			frame: 40,
			speed: -2,

			running: true,
		},
		{
			name:  "repeat count exhausted",
			setup: func(a *Animator) { a.SetRepeatCount(1) },
			ticks: []float64{61, 61, 61},
			frame: 60,
			speed: 1,

			repeats: 1,
		},
		{
			name:    "bounds narrow playback",
			setup:   func(a *Animator) { a.SetMinAndMaxFrames(20, 30) },
			ticks:   []float64{5},
			frame:   25,
			speed:   1,
			running: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New(0, 60, 30)
			if tt.setup != nil {
				tt.setup(a)
			}
			a.Play()
			for _, n := range tt.ticks {
				a.Tick(frames(n))
			}
			if !near(a.Frame(), tt.frame) {
				t.Errorf("frame = %v, want %v", a.Frame(), tt.frame)
			}
			if a.Speed() != tt.speed {
				t.Errorf("speed = %v, want %v", a.Speed(), tt.speed)
			}
			if a.Running() != tt.running {
				t.Errorf("running = %v, want %v", a.Running(), tt.running)
			}
			if a.Repeated() != tt.repeats {
				t.Errorf("repeats = %d, want %d", a.Repeated(), tt.repeats)
			}
		})
	}
}

func TestTickPaused(t *testing.T) {
	a := New(0, 60, 30)
	if a.Tick(frames(10)) {
		t.Fatal("paused animator advanced")
	}
	if a.Frame() != 0 {
		t.Fatalf("frame = %v", a.Frame())
	}
}

func TestListeners(t *testing.T) {
	a := New(0, 60, 30)
	a.SetRepeatCount(1)
	var updates, repeats, ends int
	a.OnUpdate(func() { updates++ })
	a.OnRepeat(func() { repeats++ })
	a.OnEnd(func() { ends++ })

	a.Play()
	a.Tick(frames(30))
	a.Tick(frames(40))
	a.Tick(frames(70))
	if repeats != 1 || ends != 1 {
		t.Fatalf("repeats = %d ends = %d", repeats, ends)
	}
	if updates < 3 {
		t.Fatalf("updates = %d", updates)
	}
}

func TestProgressAndFraction(t *testing.T) {
	tests := []struct {
		name     string
		min, max float64
		speed    float64
		frame    float64
		progress float64
		fraction float64
	}{
		{"full range", 0, 60, 1, 15, 0.25, 0.25},
		{"narrowed", 30, 60, 1, 45, 0.75, 0.5},
		{"reversed", 0, 60, -1, 15, 0.25, 0.75},
		{"narrowed reversed", 20, 40, -1, 25, 25.0 / 60, 0.75},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New(0, 60, 30)
			a.SetMinAndMaxFrames(tt.min, tt.max)
			a.SetSpeed(tt.speed)
			a.SetFrame(tt.frame)
			if !near(a.Progress(), tt.progress) {
				t.Errorf("progress = %v, want %v", a.Progress(), tt.progress)
			}
			if !near(a.AnimatedFraction(), tt.fraction) {
				t.Errorf("fraction = %v, want %v", a.AnimatedFraction(), tt.fraction)
			}
		})
	}
}

func TestBounds(t *testing.T) {
	a := New(10, 70, 30)
	a.SetMinAndMaxFrames(80, 0)
	if a.MinFrame() != 10 || a.MaxFrame() != 70 {
		t.Fatalf("bounds = %v..%v", a.MinFrame(), a.MaxFrame())
	}
	a.SetMinAndMaxProgress(0.5, 1)
	if a.MinFrame() != 40 || a.Frame() != 40 {
		t.Fatalf("min = %v frame = %v", a.MinFrame(), a.Frame())
	}
	a.SetComposition(0, 30, 24)
	if a.MinFrame() != 0 || a.MaxFrame() != 30 || a.Frame() != 30 {
		t.Fatalf("after swap: %v..%v at %v", a.MinFrame(), a.MaxFrame(), a.Frame())
	}
	if d := a.FrameDuration(); d != time.Second/24 {
		t.Fatalf("frame duration = %v", d)
	}
}
