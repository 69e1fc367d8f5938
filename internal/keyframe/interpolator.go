package keyframe

import (
	"fmt"
	"math"
	"sync"
)

// Interpolator maps linear progress within a keyframe to eased progress.
type Interpolator interface {
	Interpolate(t float64) float64
}

// Linear passes progress through unchanged.
type Linear struct{}

func (Linear) Interpolate(t float64) float64 { return t }

// HoldInterpolator keeps the start value for the whole keyframe.
type HoldInterpolator struct{}

func (HoldInterpolator) Interpolate(float64) float64 { return 0 }

const bezierSamples = 256

// Bezier is a cubic-bezier easing curve from (0,0) to (1,1), evaluated
// through a sampled look-up table.
type Bezier struct {
	X1, Y1, X2, Y2 float64

	xs [bezierSamples + 1]float64
	ys [bezierSamples + 1]float64
}

// NewBezier samples the curve with control points (x1, y1) and (x2, y2).
func NewBezier(x1, y1, x2, y2 float64) *Bezier {
	b := &Bezier{X1: x1, Y1: y1, X2: x2, Y2: y2}
	for i := 0; i <= bezierSamples; i++ {
		t := float64(i) / bezierSamples
		b.xs[i] = bezierCoord(t, x1, x2)
		b.ys[i] = bezierCoord(t, y1, y2)
	}
	return b
}

func bezierCoord(t, p1, p2 float64) float64 {
	mt := 1 - t
	return 3*mt*mt*t*p1 + 3*mt*t*t*p2 + t*t*t
}

// Interpolate finds the sample bracketing x and interpolates its y.
func (b *Bezier) Interpolate(x float64) float64 {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}
	lo, hi := 0, bezierSamples
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if b.xs[mid] <= x {
			lo = mid
		} else {
			hi = mid
		}
	}
	span := b.xs[hi] - b.xs[lo]
	if span <= 0 {
		return b.ys[lo]
	}
	return b.ys[lo] + (x-b.xs[lo])/span*(b.ys[hi]-b.ys[lo])
}

// Cache shares bezier look-up tables between keyframes with the same
// control points. It is owned by one parse and safe for concurrent use.
type Cache struct {
	mu    sync.Mutex
	items map[string]*Bezier
	limit int
}

// NewCache returns a cache holding at most limit curves. A limit of zero
// means unbounded.
func NewCache(limit int) *Cache {
	return &Cache{items: make(map[string]*Bezier), limit: limit}
}

// Bezier returns a shared interpolator for the control points. X
// coordinates are clamped to [0, 1] and Y to [-100, 100].
func (c *Cache) Bezier(x1, y1, x2, y2 float64) Interpolator {
	x1 = clamp(x1, 0, 1)
	x2 = clamp(x2, 0, 1)
	y1 = clamp(y1, -100, 100)
	y2 = clamp(y2, -100, 100)
	if x1 == y1 && x2 == y2 {
		return Linear{}
	}
	if c == nil {
		return NewBezier(x1, y1, x2, y2)
	}

	key := fmt.Sprintf("%.4f,%.4f,%.4f,%.4f", x1, y1, x2, y2)
	c.mu.Lock()
	defer c.mu.Unlock()
	if b, ok := c.items[key]; ok {
		return b
	}
	b := NewBezier(x1, y1, x2, y2)
	if c.limit == 0 || len(c.items) < c.limit {
		c.items[key] = b
	}
	return b
}

// Len returns the number of cached curves.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
