package geom

import (
	"fmt"
	"math"
)

// Color is a packed 0xAARRGGBB color.
type Color uint32

// ARGB packs four 8-bit channels.
func ARGB(a, r, g, b uint8) Color {
	return Color(uint32(a)<<24 | uint32(r)<<16 | uint32(g)<<8 | uint32(b))
}

func (c Color) A() uint8 { return uint8(c >> 24) }
func (c Color) R() uint8 { return uint8(c >> 16) }
func (c Color) G() uint8 { return uint8(c >> 8) }
func (c Color) B() uint8 { return uint8(c) }

// WithAlpha replaces the alpha channel.
func (c Color) WithAlpha(a uint8) Color {
	return Color(uint32(c)&0x00FFFFFF | uint32(a)<<24)
}

// RGBA returns the color as non-premultiplied float channels in [0, 1].
func (c Color) RGBA() (r, g, b, a float64) {
	return float64(c.R()) / 255, float64(c.G()) / 255, float64(c.B()) / 255, float64(c.A()) / 255
}

// Hex formats the color as #rrggbbaa.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R(), c.G(), c.B(), c.A())
}

// EOCF converts an sRGB encoded channel in [0, 1] to linear light.
func EOCF(s float64) float64 {
	if s <= 0.04045 {
		return s / 12.92
	}
	return math.Pow((s+0.055)/1.055, 2.4)
}

// OECF converts a linear channel in [0, 1] back to sRGB encoding.
func OECF(l float64) float64 {
	if l <= 0.0031308 {
		return l * 12.92
	}
	return 1.055*math.Pow(l, 1.0/2.4) - 0.055
}

// LerpColor interpolates two colors in linear light. Alpha is interpolated
// linearly. Equal endpoints return start unchanged.
func LerpColor(start, end Color, t float64) Color {
	if start == end {
		return start
	}

	sa, sr, sg, sb := float64(start.A())/255, float64(start.R())/255, float64(start.G())/255, float64(start.B())/255
	ea, er, eg, eb := float64(end.A())/255, float64(end.R())/255, float64(end.G())/255, float64(end.B())/255

	sr, sg, sb = EOCF(sr), EOCF(sg), EOCF(sb)
	er, eg, eb = EOCF(er), EOCF(eg), EOCF(eb)

	a := Lerp(sa, ea, t)
	r := OECF(Lerp(sr, er, t))
	g := OECF(Lerp(sg, eg, t))
	b := OECF(Lerp(sb, eb, t))

	return ARGB(channel(a), channel(r), channel(g), channel(b))
}

func channel(v float64) uint8 {
	return uint8(math.Round(Clamp(v, 0, 1) * 255))
}

// Gradient is a list of color stops. Positions are ascending fractions.
type Gradient struct {
	Positions []float64
	Colors    []Color
}

// Len returns the number of stops.
func (g Gradient) Len() int {
	return len(g.Colors)
}

// ColorAt samples the gradient at position p, clamping outside the stops.
func (g Gradient) ColorAt(p float64) Color {
	n := len(g.Colors)
	switch {
	case n == 0:
		return 0
	case n == 1 || p <= g.Positions[0]:
		return g.Colors[0]
	case p >= g.Positions[n-1]:
		return g.Colors[n-1]
	}
	for i := 1; i < n; i++ {
		if p <= g.Positions[i] {
			span := g.Positions[i] - g.Positions[i-1]
			if span <= 0 {
				return g.Colors[i]
			}
			return LerpColor(g.Colors[i-1], g.Colors[i], (p-g.Positions[i-1])/span)
		}
	}
	return g.Colors[n-1]
}

// LerpGradient interpolates two gradients stop by stop. Gradients with a
// different number of stops are first resampled onto the union of their
// positions.
func LerpGradient(a, b Gradient, t float64) Gradient {
	if a.Len() != b.Len() {
		positions := mergePositions(a.Positions, b.Positions)
		a = resample(a, positions)
		b = resample(b, positions)
	}
	out := Gradient{
		Positions: make([]float64, a.Len()),
		Colors:    make([]Color, a.Len()),
	}
	for i := range a.Colors {
		out.Positions[i] = Lerp(a.Positions[i], b.Positions[i], t)
		out.Colors[i] = LerpColor(a.Colors[i], b.Colors[i], t)
	}
	return out
}

func resample(g Gradient, positions []float64) Gradient {
	out := Gradient{Positions: positions, Colors: make([]Color, len(positions))}
	for i, p := range positions {
		out.Colors[i] = g.ColorAt(p)
	}
	return out
}

func mergePositions(a, b []float64) []float64 {
	out := make([]float64, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		var next float64
		switch {
		case j >= len(b) || (i < len(a) && a[i] < b[j]):
			next = a[i]
			i++
		case i >= len(a) || b[j] < a[i]:
			next = b[j]
			j++
		default:
			next = a[i]
			i++
			j++
		}
		if len(out) == 0 || out[len(out)-1] != next {
			out = append(out, next)
		}
	}
	return out
}
