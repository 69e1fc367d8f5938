package geom

import (
	"math"
	"testing"
)

func square(size float64) *Path {
	p := NewPath()
	p.MoveTo(0, 0)
	p.LineTo(size, 0)
	p.LineTo(size, size)
	p.LineTo(0, size)
	p.Close()
	return p
}

func TestPathMeasureSquare(t *testing.T) {
	pm := NewPathMeasure(square(10))
	if !near(pm.Length(), 40, 1e-9) {
		t.Fatalf("length = %v, want 40", pm.Length())
	}
	if len(pm.Contours()) != 1 || !pm.Contours()[0].Closed() {
		t.Fatalf("contours = %d", len(pm.Contours()))
	}
	pos, tan, ok := pm.PosTan(15)
	if !ok || !near(pos.X, 10, 1e-9) || !near(pos.Y, 5, 1e-9) {
		t.Fatalf("pos = %v", pos)
	}
	if !near(tan.X, 0, 1e-9) || !near(tan.Y, 1, 1e-9) {
		t.Fatalf("tan = %v", tan)
	}
}

func TestPathMeasureArcCircle(t *testing.T) {
	p := NewPath()
	p.ArcTo(Rect{X: -10, Y: -10, Width: 20, Height: 20}, 0, 360, true)
	p.Close()
	want := 2 * math.Pi * 10
	if got := NewPathMeasure(p).Length(); !near(got, want, 0.05) {
		t.Fatalf("circumference = %v, want %v", got, want)
	}
}

func TestSegmentRange(t *testing.T) {
	pm := NewPathMeasure(square(10))
	out := NewPath()
	if !pm.Segment(5, 15, out) {
		t.Fatal("segment empty")
	}
	if got := NewPathMeasure(out).Length(); !near(got, 10, 1e-9) {
		t.Fatalf("segment length = %v", got)
	}
	if first := out.Segments()[0]; first.Verb != MoveTo || first.Pts[0] != Pt(5, 0) {
		t.Fatalf("first segment = %+v", first)
	}
}

func TestTrimDegenerate(t *testing.T) {
	t.Run("full range is a no-op", func(t *testing.T) {
		p := square(10)
		want := p.Clone()
		Trim(p, 0, 1, 0)
		if len(p.Segments()) != len(want.Segments()) {
			t.Fatalf("segments changed: %d vs %d", len(p.Segments()), len(want.Segments()))
		}
		for i := range p.Segments() {
			if p.Segments()[i] != want.Segments()[i] {
				t.Fatalf("segment %d changed", i)
			}
		}
	})
	for _, v := range []float64{0, 0.3, 0.5, 1} {
		p := square(10)
		Trim(p, v, v, 0)
		if !p.IsEmpty() {
			t.Fatalf("start=end=%v left %d segments", v, len(p.Segments()))
		}
	}
}

func TestTrimHalfAndWrap(t *testing.T) {
	p := square(10)
	Trim(p, 0, 0.5, 0)
	if got := NewPathMeasure(p).Length(); !near(got, 20, 1e-6) {
		t.Fatalf("half trim length = %v", got)
	}

	p = square(10)
	Trim(p, 0.5, 1, 0.25)
	if got := NewPathMeasure(p).Length(); !near(got, 20, 1e-6) {
		t.Fatalf("wrapped trim length = %v", got)
	}
}

func TestShapeInterpolate(t *testing.T) {
	a := &ShapeData{Initial: Pt(0, 0), Curves: []CubicCurve{{Pt(0, 0), Pt(10, 0), Pt(10, 0)}}}
	b := &ShapeData{Initial: Pt(0, 10), Curves: []CubicCurve{{Pt(0, 10), Pt(10, 10), Pt(10, 10)}}}
	var s ShapeData
	if s.Interpolate(a, b, 0.5) {
		t.Fatal("unexpected mismatch")
	}
	if s.Initial != Pt(0, 5) || s.Curves[0].Vertex != Pt(10, 5) {
		t.Fatalf("got %+v", s)
	}
	p := NewPath()
	s.AppendTo(p)
	if p.Segments()[1].Verb != LineTo {
		t.Fatalf("degenerate cubic should be a line, got %v", p.Segments()[1].Verb)
	}

	c := &ShapeData{Curves: []CubicCurve{{}, {}}}
	if !s.Interpolate(a, c, 0.5) {
		t.Fatal("expected mismatch")
	}
}

func TestTransformExpandsArcs(t *testing.T) {
	p := NewPath()
	p.ArcTo(Rect{X: 0, Y: 0, Width: 10, Height: 10}, 0, 90, true)
	p.Transform(Translate(5, 5))
	for _, s := range p.Segments() {
		if s.Verb == ArcTo {
			t.Fatal("arc survived transform")
		}
	}
	b := p.Bounds()
	if b.X < 5 || b.Y < 5 {
		t.Fatalf("bounds = %+v", b)
	}
}
