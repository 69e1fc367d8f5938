package model

import (
	"testing"
	"time"

	"github.com/inamate/motion/internal/keyframe"
)

func TestCompositionTiming(t *testing.T) {
	c := &Composition{Timing: &keyframe.Timing{StartFrame: 10, EndFrame: 70, FrameRate: 30}}
	if got := c.Duration(); got != 2*time.Second {
		t.Fatalf("duration = %v", got)
	}
	tests := []struct {
		frame, progress float64
	}{
		{10, 0},
		{40, 0.5},
		{70, 1},
		{100, 1},
		{0, 0},
	}
	for _, tt := range tests {
		if got := c.ProgressForFrame(tt.frame); got != tt.progress {
			t.Errorf("ProgressForFrame(%v) = %v, want %v", tt.frame, got, tt.progress)
		}
	}
	if got := c.FrameForProgress(0.5); got != 40 {
		t.Fatalf("FrameForProgress(0.5) = %v", got)
	}
}

func TestMarkerLookup(t *testing.T) {
	c := &Composition{Markers: []Marker{{Name: "intro\r", StartFrame: 0, DurationFrames: 10}, {Name: "loop", StartFrame: 10}}}
	if m, ok := c.Marker("intro"); !ok || m.DurationFrames != 10 {
		t.Fatalf("intro = %+v, %v", m, ok)
	}
	if _, ok := c.Marker("outro"); ok {
		t.Fatal("unexpected marker")
	}
}

func TestWarningsDeduplicate(t *testing.T) {
	var ws Warnings
	ws.Addf(WarnExpression, "layer %q uses expressions", "a")
	ws.Addf(WarnEffects, "layer %q has effects", "a")
	ws.Addf(WarnExpression, "layer %q uses expressions", "a")
	list := ws.List()
	if len(list) != 2 || list[0].Code != WarnExpression || list[1].Code != WarnEffects {
		t.Fatalf("warnings = %v", list)
	}
}
