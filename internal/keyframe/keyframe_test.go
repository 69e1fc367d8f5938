package keyframe

import (
	"errors"
	"math"
	"testing"

	"github.com/inamate/motion/internal/geom"
	"github.com/inamate/motion/internal/keypath"
)

func near(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func timing() *Timing {
	return &Timing{StartFrame: 0, EndFrame: 100, FrameRate: 30}
}

func linearFloats(tm *Timing, frames []float64, values []float64) []*Keyframe[float64] {
	kfs := make([]*Keyframe[float64], len(frames))
	for i := range frames {
		kfs[i] = New(tm, frames[i], values[i])
		kfs[i].Interpolator = Linear{}
	}
	return SetEndFrames(kfs)
}

func TestSetEndFrames(t *testing.T) {
	tm := timing()
	kfs := []*Keyframe[float64]{
		New(tm, 0, 1.0),
		New(tm, 10, 2.0),
		New(tm, 40, 3.0),
		{StartFrame: 60, EndFrame: math.NaN(), Timing: tm},
	}
	got := SetEndFrames(kfs)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3 (dangling keyframe dropped)", len(got))
	}
	for i := 0; i < len(got)-1; i++ {
		if got[i].EndFrame != got[i+1].StartFrame {
			t.Fatalf("kf %d end %v != next start %v", i, got[i].EndFrame, got[i+1].StartFrame)
		}
		if !got[i].HasEndValue || got[i].EndValue != got[i+1].StartValue {
			t.Fatalf("kf %d end value %v", i, got[i].EndValue)
		}
	}

	single := SetEndFrames([]*Keyframe[float64]{New(tm, 0, 5.0)})
	if len(single) != 1 {
		t.Fatal("a lone keyframe must be kept")
	}
}

func TestKeyframeProgress(t *testing.T) {
	tm := &Timing{StartFrame: 10, EndFrame: 110}
	kf := New(tm, 35, 0.0)
	kf.EndFrame = 60
	if !near(kf.StartProgress(), 0.25, 1e-12) || !near(kf.EndProgress(), 0.5, 1e-12) {
		t.Fatalf("progress = [%v, %v)", kf.StartProgress(), kf.EndProgress())
	}
	if !kf.ContainsProgress(0.3) || kf.ContainsProgress(0.5) {
		t.Fatal("containment is half-open")
	}
}

func TestFloatMonotonicWithinKeyframe(t *testing.T) {
	anim := NewFloat(linearFloats(timing(), []float64{0, 50, 100}, []float64{10, 90, 20}))
	prev := math.Inf(-1)
	for p := 0.0; p < 0.5; p += 0.01 {
		anim.SetProgress(p)
		v, err := anim.Value()
		if err != nil {
			t.Fatal(err)
		}
		if v < prev {
			t.Fatalf("value decreased at p=%v: %v < %v", p, v, prev)
		}
		if v < 10 || v > 90 {
			t.Fatalf("value %v outside keyframe range", v)
		}
		prev = v
	}
	anim.SetProgress(0.25)
	if v, _ := anim.Value(); !near(v, 50, 1e-9) {
		t.Fatalf("midpoint = %v, want 50", v)
	}
}

func TestSetProgressChangeSignal(t *testing.T) {
	anim := NewFloat(linearFloats(timing(), []float64{20, 80}, []float64{0, 1}))
	calls := 0
	anim.OnChange(func() { calls++ })

	if !anim.SetProgress(0.5) {
		t.Fatal("first change not reported")
	}
	if anim.SetProgress(0.5) {
		t.Fatal("unchanged progress reported as change")
	}
	// Both clamp to the first keyframe start.
	anim.SetProgress(0.1)
	if anim.SetProgress(0.05) {
		t.Fatal("clamped progress reported as change")
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

func TestHoldKeyframe(t *testing.T) {
	tm := timing()
	kfs := []*Keyframe[float64]{New(tm, 0, 1.0), New(tm, 50, 2.0)}
	kfs[0].Interpolator = HoldInterpolator{}
	anim := NewFloat(SetEndFrames(kfs))
	anim.SetProgress(0.49)
	if v, _ := anim.Value(); v != 1 {
		t.Fatalf("hold value = %v, want 1", v)
	}
}

func TestBezierAgainstNewton(t *testing.T) {
	b := NewBezier(0.42, 0, 0.58, 1)
	for x := 0.05; x < 1; x += 0.05 {
		// Solve x(t) = x by Newton iteration for the reference.
		tt := x
		for i := 0; i < 20; i++ {
			fx := bezierCoord(tt, b.X1, b.X2) - x
			mt := 1 - tt
			d := 3*mt*mt*b.X1 + 6*mt*tt*(b.X2-b.X1) + 3*tt*tt*(1-b.X2)
			tt -= fx / d
		}
		want := bezierCoord(tt, b.Y1, b.Y2)
		if got := b.Interpolate(x); !near(got, want, 1e-3) {
			t.Fatalf("x=%v: got %v want %v", x, got, want)
		}
	}
}

func TestCacheSharesCurves(t *testing.T) {
	c := NewCache(0)
	a := c.Bezier(0.1, 0.2, 0.3, 0.9)
	b := c.Bezier(0.1, 0.2, 0.3, 0.9)
	if a != b || c.Len() != 1 {
		t.Fatal("identical curves not shared")
	}
	if _, ok := c.Bezier(0.5, 0.5, 0.7, 0.7).(Linear); !ok {
		t.Fatal("diagonal control points should collapse to linear")
	}
}

func TestValueErrors(t *testing.T) {
	if _, err := NewFloat(nil).Value(); !errors.Is(err, ErrNoKeyframes) {
		t.Fatalf("err = %v", err)
	}
	kf := New(timing(), 0, 1.0)
	kf.Interpolator = Linear{}
	if _, err := NewFloat([]*Keyframe[float64]{kf}).Value(); !errors.Is(err, ErrMissingValue) {
		t.Fatalf("err = %v", err)
	}
}

func TestValueCallback(t *testing.T) {
	anim := NewFloat(linearFloats(timing(), []float64{0, 100}, []float64{0, 10}))
	var got FrameInfo[float64]
	anim.SetValueCallback(func(info FrameInfo[float64]) float64 {
		got = info
		return 42
	})
	anim.SetProgress(0.5)
	v, err := anim.Value()
	if err != nil {
		t.Fatal(err)
	}
	if v != 42 {
		t.Fatalf("value = %v, want callback result", v)
	}
	if got.StartValue != 0 || got.EndValue != 10 || !near(got.LinearProgress, 0.5, 1e-12) || !near(got.OverallProgress, 0.5, 1e-12) {
		t.Fatalf("frame info = %+v", got)
	}

	anim.SetValueCallback(nil)
	if v, _ := anim.Value(); !near(v, 5, 1e-9) {
		t.Fatalf("after clearing callback value = %v", v)
	}

	if v, err := Callback(Constant(7.0)).Value(); err != nil || v != 7 {
		t.Fatalf("callback-only value = %v, %v", v, err)
	}
}

func TestColorAnimationGamma(t *testing.T) {
	tm := timing()
	kfs := []*Keyframe[geom.Color]{New(tm, 0, geom.ARGB(255, 0, 0, 0)), New(tm, 100, geom.ARGB(255, 255, 255, 255))}
	kfs[0].Interpolator = Linear{}
	anim := NewColor(SetEndFrames(kfs))
	anim.SetProgress(0.5)
	c, err := anim.Value()
	if err != nil {
		t.Fatal(err)
	}
	if c.R() != 188 {
		t.Fatalf("mid red = %d, want 188", c.R())
	}
}

func TestPathPointFollowsArcLength(t *testing.T) {
	tm := timing()
	kf := New(tm, 0, geom.Pt(0, 0))
	kf.EndValue, kf.HasEndValue, kf.EndFrame = geom.Pt(100, 0), true, 100
	kf.Interpolator = Linear{}
	anim := NewPathPoint([]*Keyframe[geom.Point]{kf})
	anim.SetProgress(0.25)
	p, err := anim.Value()
	if err != nil {
		t.Fatal(err)
	}
	if !near(p.X, 25, 1e-6) || !near(p.Y, 0, 1e-6) {
		t.Fatalf("point = %v", p)
	}
}

func TestSplitDimension(t *testing.T) {
	x := NewFloat(linearFloats(timing(), []float64{0, 100}, []float64{0, 100}))
	y := NewFloat([]*Keyframe[float64]{Static(7.0)})
	d := NewSplitDimension(x, y)
	if !d.SetProgress(0.3) {
		t.Fatal("change not reported")
	}
	p, err := d.Value()
	if err != nil {
		t.Fatal(err)
	}
	if !near(p.X, 30, 1e-9) || p.Y != 7 {
		t.Fatalf("point = %v", p)
	}
}

func TestRepeaterMatrixCompounds(t *testing.T) {
	tr := &Transform{
		Position: NewPoint([]*Keyframe[geom.Point]{Static(geom.Pt(10, 0))}),
		Scale:    NewPoint([]*Keyframe[geom.Point]{Static(geom.Pt(2, 2))}),
	}
	for i := 0; i < 3; i++ {
		m, err := tr.MatrixForRepeater(float64(i))
		if err != nil {
			t.Fatal(err)
		}
		want := geom.Translate(10*float64(i), 0).Multiply(geom.Scale(math.Pow(2, float64(i)), math.Pow(2, float64(i))))
		if m != want {
			t.Fatalf("copy %d: %v want %v", i, m, want)
		}
	}

	m, _ := tr.MatrixForRepeater(2)
	if p := m.Map(geom.Pt(0, 0)); p != geom.Pt(20, 0) {
		t.Fatalf("origin maps to %v, want (20,0)", p)
	}
	if got := m.Map(geom.Pt(1, 0)).X - 20; got != 4 {
		t.Fatalf("scale = %v, want 4", got)
	}
}

func TestTransformMatrixOrder(t *testing.T) {
	tr := &Transform{
		Anchor:   NewPoint([]*Keyframe[geom.Point]{Static(geom.Pt(5, 5))}),
		Position: NewPoint([]*Keyframe[geom.Point]{Static(geom.Pt(50, 50))}),
		Scale:    NewPoint([]*Keyframe[geom.Point]{Static(geom.Pt(2, 2))}),
		Rotation: NewFloat([]*Keyframe[float64]{Static(90.0)}),
	}
	m, err := tr.Matrix()
	if err != nil {
		t.Fatal(err)
	}
	want := geom.FromTransform(50, 50, 2, 2, 90, 5, 5)
	for i := range m {
		if !near(m[i], want[i], 1e-9) {
			t.Fatalf("matrix = %v want %v", m, want)
		}
	}
	if op, _ := tr.OpacityValue(); op != 100 {
		t.Fatalf("default opacity = %d", op)
	}
}

func TestTransformMatrixDefaults(t *testing.T) {
	pt := func(x, y float64) Value[geom.Point] {
		return NewPoint([]*Keyframe[geom.Point]{Static(geom.Pt(x, y))})
	}
	tests := []struct {
		name string
		tr   *Transform
		want geom.Matrix
	}{
		{"empty", &Transform{}, geom.Identity()},
		{"position only", &Transform{Position: pt(3, 4)}, geom.Translate(3, 4)},
		{"scale about anchor", &Transform{Anchor: pt(10, 0), Scale: pt(2, 3)}, geom.FromTransform(0, 0, 2, 3, 0, 10, 0)},
		{"rotation only", &Transform{Rotation: NewFloat([]*Keyframe[float64]{Static(30.0)})}, geom.RotateDegrees(30)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := tt.tr.Matrix()
			if err != nil {
				t.Fatal(err)
			}
			for i := range m {
				if !near(m[i], tt.want[i], 1e-9) {
					t.Fatalf("matrix = %v want %v", m, tt.want)
				}
			}
		})
	}
}

func TestTransformOnCreate(t *testing.T) {
	tests := []struct {
		name    string
		tr      *Transform
		prop    keypath.Property
		cb      any
		created int
	}{
		{"missing rotation", &Transform{}, keypath.TransformRotation, Constant(45.0), 1},
		{"missing opacity", &Transform{}, keypath.TransformOpacity, Constant(50), 1},
		{"animated rotation", &Transform{Rotation: NewFloat([]*Keyframe[float64]{Static(10.0)})}, keypath.TransformRotation, Constant(45.0), 0},
		{"wrong type", &Transform{}, keypath.TransformRotation, Constant("x"), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []Stepper
			tt.tr.OnCreate(func(s Stepper) { got = append(got, s) })
			tt.tr.ApplyValueCallback(tt.prop, tt.cb)
			if len(got) != tt.created {
				t.Fatalf("created %d values, want %d", len(got), tt.created)
			}
			for _, s := range got {
				s.SetProgress(0.5)
				if s.Progress() != 0.5 {
					t.Fatalf("progress = %v", s.Progress())
				}
			}
		})
	}
}
