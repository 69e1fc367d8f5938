package content

import (
	"math"

	"github.com/inamate/motion/internal/canvas"
	"github.com/inamate/motion/internal/geom"
	"github.com/inamate/motion/internal/keyframe"
	"github.com/inamate/motion/internal/keypath"
	"github.com/inamate/motion/internal/model"
)

// gradient evaluates the shader of a gradient fill or stroke. Shaders are
// cached per bucket of composition progress.
type gradient struct {
	env        *Env
	kind       canvas.GradientKind
	colors     keyframe.Value[geom.Gradient]
	start, end keyframe.Value[geom.Point]
	steps      int
	cache      map[int]*canvas.Shader
}

func newGradient(env *Env, m model.GradientPaint, onChange func()) *gradient {
	g := &gradient{env: env, steps: env.CacheSteps, cache: make(map[int]*canvas.Shader)}
	if m.Type == model.GradientRadial {
		g.kind = canvas.Radial
	}
	if m.Colors != nil {
		g.colors = tracked[geom.Gradient](env, m.Colors.Create(), onChange)
	}
	g.start = pointValue(env, m.Start, onChange)
	g.end = pointValue(env, m.End, onChange)
	return g
}

func bucket(v keyframe.Stepper, steps int) int {
	if v == nil {
		return 0
	}
	return int(math.Round(v.Progress() * float64(steps)))
}

// hash identifies the current progress bucket of the three animations.
func (g *gradient) hash() int {
	h := 17
	for _, s := range []keyframe.Stepper{g.start, g.end, g.colors} {
		if b := bucket(s, g.steps); b != 0 {
			h = h * 31 * b
		}
	}
	return h
}

// shader returns a copy of the cached shader for the current progress,
// mapped by m.
func (g *gradient) shader(m geom.Matrix) (*canvas.Shader, error) {
	key := g.hash()
	sh, ok := g.cache[key]
	if !ok {
		start, err := valueOr(g.start, geom.Point{})
		if err != nil {
			return nil, err
		}
		end, err := valueOr(g.end, geom.Point{})
		if err != nil {
			return nil, err
		}
		stops, err := valueOr(g.colors, geom.Gradient{})
		if err != nil {
			return nil, err
		}
		sh = &canvas.Shader{Kind: g.kind, Start: start, End: end, Stops: stops}
		if g.kind == canvas.Radial {
			sh.Radius = math.Hypot(end.X-start.X, end.Y-start.Y)
			if sh.Radius <= 0 {
				sh.Radius = 0.001
			}
		}
		g.cache[key] = sh
	}
	out := *sh
	out.Matrix = m
	return &out, nil
}

func (g *gradient) bindColors(cb any) bool {
	clear(g.cache)
	return bind(g.env, &g.colors, func() { clear(g.cache) }, cb)
}

// colorFilter is the optional host override applied to a paint.
type colorFilter struct {
	env *Env
	v   keyframe.Value[*canvas.ColorFilter]
}

func (f *colorFilter) apply(p *canvas.Paint) error {
	if f.v == nil {
		return nil
	}
	cf, err := f.v.Value()
	if err != nil {
		return err
	}
	p.ColorFilter = cf
	return nil
}

func (f *colorFilter) bind(cb any) bool {
	return bind(f.env, &f.v, nil, cb)
}

// resolveLeaf is shared by the paint nodes.
func resolveLeaf(el keypath.Element, name string, kp keypath.KeyPath, depth int, acc *[]keypath.KeyPath, partial keypath.KeyPath) {
	keypath.ResolveLeaf(kp, depth, acc, partial, name, el)
}
