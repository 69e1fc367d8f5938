package sample

import (
	"testing"

	"github.com/inamate/motion/internal/engine"
)

func TestComposition(t *testing.T) {
	comp, err := Composition()
	if err != nil {
		t.Fatal(err)
	}
	if comp.Bounds.Width != width || comp.Bounds.Height != height {
		t.Errorf("bounds = %v", comp.Bounds)
	}
	if comp.DurationFrames() != frames || comp.FrameRate() != fps {
		t.Errorf("frames %v fps %v", comp.DurationFrames(), comp.FrameRate())
	}
	if len(comp.Layers) != 5 {
		t.Errorf("layers = %d", len(comp.Layers))
	}
	if _, ok := comp.Marker("spin"); !ok {
		t.Error("missing spin marker")
	}
}

func TestSpinnerRotates(t *testing.T) {
	comp, err := Composition()
	if err != nil {
		t.Fatal(err)
	}
	e := engine.New()
	if err := e.SetComposition(comp); err != nil {
		t.Fatal(err)
	}
	e.SetFrame(0)
	first, err := e.Commands(e.Progress())
	if err != nil {
		t.Fatal(err)
	}
	e.SetFrame(6)
	quarter, err := e.Commands(e.Progress())
	if err != nil {
		t.Fatal(err)
	}
	a, err := engine.CommandsToJSON(first)
	if err != nil {
		t.Fatal(err)
	}
	b, err := engine.CommandsToJSON(quarter)
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Fatal("frame 6 draws the same as frame 0")
	}
}

func TestColor(t *testing.T) {
	got := color("#ff8000")
	if got[0] != 1 || got[1] != float64(0x80)/255 || got[2] != 0 || got[3] != 1 {
		t.Fatalf("color = %v", got)
	}
}
