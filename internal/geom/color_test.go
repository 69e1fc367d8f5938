package geom

import "testing"

func TestLerpColorEqualEndpoints(t *testing.T) {
	c := ARGB(200, 12, 99, 240)
	for _, f := range []float64{0, 0.25, 0.5, 0.9, 1} {
		if got := LerpColor(c, c, f); got != c {
			t.Fatalf("t=%v: got %08x want %08x", f, uint32(got), uint32(c))
		}
	}
}

func TestLerpColorIsGammaAware(t *testing.T) {
	black := ARGB(255, 0, 0, 0)
	white := ARGB(255, 255, 255, 255)
	mid := LerpColor(black, white, 0.5)

	if mid.R() == 128 || mid.R() == 127 {
		t.Fatalf("mid gray %d matches naive lerp", mid.R())
	}
	if mid.R() != 188 || mid.G() != 188 || mid.B() != 188 {
		t.Fatalf("mid gray = %d,%d,%d want 188", mid.R(), mid.G(), mid.B())
	}
	if mid.A() != 255 {
		t.Fatalf("alpha = %d", mid.A())
	}
}

func TestLerpColorEndpoints(t *testing.T) {
	a := ARGB(255, 255, 0, 0)
	b := ARGB(0, 0, 0, 255)
	if got := LerpColor(a, b, 0); got != a {
		t.Fatalf("t=0 got %08x", uint32(got))
	}
	if got := LerpColor(a, b, 1); got != b {
		t.Fatalf("t=1 got %08x", uint32(got))
	}
}

func TestLerpGradientResamples(t *testing.T) {
	a := Gradient{Positions: []float64{0, 1}, Colors: []Color{ARGB(255, 0, 0, 0), ARGB(255, 255, 255, 255)}}
	b := Gradient{Positions: []float64{0, 0.5, 1}, Colors: []Color{ARGB(255, 0, 0, 0), ARGB(255, 0, 0, 0), ARGB(255, 0, 0, 0)}}
	got := LerpGradient(a, b, 1)
	if got.Len() != 3 {
		t.Fatalf("len = %d, want 3", got.Len())
	}
	for i, c := range got.Colors {
		if c != ARGB(255, 0, 0, 0) {
			t.Fatalf("stop %d = %08x", i, uint32(c))
		}
	}
}
