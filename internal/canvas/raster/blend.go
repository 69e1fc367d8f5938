package raster

import (
	"image"
	"math"

	"github.com/inamate/motion/internal/canvas"
)

// pixel is a premultiplied color with channels in [0, 1].
type pixel struct{ r, g, b, a float64 }

func load(img *image.RGBA, i int) pixel {
	p := img.Pix[i : i+4 : i+4]
	return pixel{float64(p[0]) / 255, float64(p[1]) / 255, float64(p[2]) / 255, float64(p[3]) / 255}
}

func store(img *image.RGBA, i int, c pixel) {
	p := img.Pix[i : i+4 : i+4]
	p[0], p[1], p[2], p[3] = unit(c.r), unit(c.g), unit(c.b), unit(c.a)
}

func unit(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
}

func (c pixel) scale(k float64) pixel {
	return pixel{c.r * k, c.g * k, c.b * k, c.a * k}
}

func (c pixel) add(o pixel) pixel {
	return pixel{c.r + o.r, c.g + o.g, c.b + o.b, c.a + o.a}
}

// blendImage composites src onto dst within r, with the source scaled by
// alpha. Both images share the same bounds.
func blendImage(dst, src *image.RGBA, r image.Rectangle, mode canvas.BlendMode, alpha uint8) {
	r = r.Intersect(dst.Bounds()).Intersect(src.Bounds())
	k := float64(alpha) / 255
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			i := dst.PixOffset(x, y)
			s := load(src, src.PixOffset(x, y))
			if k != 1 {
				s = s.scale(k)
			}
			// Transparent sources only change the destination for dstIn.
			if s.a == 0 && mode != canvas.BlendDstIn {
				continue
			}
			store(dst, i, blendPixel(load(dst, i), s, mode))
		}
	}
}

// blendPixel composites premultiplied s over d.
func blendPixel(d, s pixel, mode canvas.BlendMode) pixel {
	switch mode {
	case canvas.BlendSrcOver:
		return s.add(d.scale(1 - s.a))
	case canvas.BlendSrcAtop:
		o := s.scale(d.a).add(d.scale(1 - s.a))
		o.a = d.a
		return o
	case canvas.BlendDstIn:
		return d.scale(s.a)
	case canvas.BlendDstOut, canvas.BlendClear:
		return d.scale(1 - s.a)
	case canvas.BlendPlus:
		return pixel{math.Min(1, s.r+d.r), math.Min(1, s.g+d.g), math.Min(1, s.b+d.b), math.Min(1, s.a+d.a)}
	}

	f := separable(mode)
	if f == nil {
		return s.add(d.scale(1 - s.a))
	}
	ch := func(sc, dc float64) float64 {
		var b float64
		if s.a > 0 && d.a > 0 {
			b = f(dc/d.a, sc/s.a)
		}
		return sc*(1-d.a) + dc*(1-s.a) + s.a*d.a*b
	}
	return pixel{ch(s.r, d.r), ch(s.g, d.g), ch(s.b, d.b), s.a + d.a - s.a*d.a}
}

// separable returns the per channel function of a blend mode, applied to
// unpremultiplied backdrop and source values.
func separable(mode canvas.BlendMode) func(d, s float64) float64 {
	switch mode {
	case canvas.BlendMultiply:
		return func(d, s float64) float64 { return d * s }
	case canvas.BlendScreen:
		return screen
	case canvas.BlendOverlay:
		return func(d, s float64) float64 { return hardLight(s, d) }
	case canvas.BlendDarken:
		return math.Min
	case canvas.BlendLighten:
		return math.Max
	}
	return nil
}

func screen(d, s float64) float64 {
	return d + s - d*s
}

// hardLight with the roles of the operands swapped is overlay.
func hardLight(d, s float64) float64 {
	if s <= 0.5 {
		return d * 2 * s
	}
	return screen(d, 2*s-1)
}
