package content

import (
	"math"

	"github.com/inamate/motion/internal/geom"
	"github.com/inamate/motion/internal/keyframe"
	"github.com/inamate/motion/internal/keypath"
	"github.com/inamate/motion/internal/model"
)

const (
	// ellipseControl is the bezier handle length of a quarter circle.
	ellipseControl = 0.55228
	starControl    = 0.47829
	polygonControl = 0.25
)

// geometry is the part shared by every path-producing leaf: a cached path
// rebuilt on change and the simultaneous trims before it.
type geometry struct {
	env    *Env
	name   string
	hidden bool
	path   *geom.Path
	valid  bool
	trims  compoundTrim
}

func newGeometry(env *Env, name string, hidden bool) geometry {
	return geometry{env: env, name: name, hidden: hidden, path: geom.NewPath()}
}

func (g *geometry) Name() string { return g.name }

func (g *geometry) invalidate() { g.valid = false }

func (g *geometry) SetContents(before, _ []Content) {
	g.trims.collect(before, g.invalidate)
}

// rebuild returns the cached path, calling build to refill it when stale.
func (g *geometry) rebuild(build func(p *geom.Path) error) (*geom.Path, error) {
	if g.valid {
		return g.path, nil
	}
	g.path.Reset()
	if g.hidden {
		g.valid = true
		return g.path, nil
	}
	if err := build(g.path); err != nil {
		return nil, err
	}
	if err := g.trims.apply(g.path); err != nil {
		return nil, err
	}
	g.valid = true
	return g.path, nil
}

// ShapePath is a bezier path from the source, possibly morphing.
type ShapePath struct {
	geometry
	shape keyframe.Value[*geom.Path]
}

func newShapePath(env *Env, m *model.ShapePath) *ShapePath {
	s := &ShapePath{geometry: newGeometry(env, m.Name, m.Hidden)}
	if m.Shape != nil {
		s.shape = tracked[*geom.Path](env, m.Shape.Create(env.Log), s.invalidate)
	}
	return s
}

func (s *ShapePath) Path() (*geom.Path, error) {
	return s.rebuild(func(p *geom.Path) error {
		if s.shape == nil {
			return nil
		}
		src, err := s.shape.Value()
		if err != nil {
			return err
		}
		if src != nil {
			p.Set(src)
		}
		p.SetFillType(geom.EvenOdd)
		return nil
	})
}

func (s *ShapePath) ResolveKeyPath(kp keypath.KeyPath, depth int, acc *[]keypath.KeyPath, partial keypath.KeyPath) {
	keypath.ResolveLeaf(kp, depth, acc, partial, s.name, s)
}

func (s *ShapePath) ApplyValueCallback(prop keypath.Property, cb any) bool {
	if prop == keypath.Path {
		return bind(s.env, &s.shape, s.invalidate, cb)
	}
	return false
}

// Ellipse is an axis-aligned ellipse centered on its position.
type Ellipse struct {
	geometry
	reversed bool
	position keyframe.Value[geom.Point]
	size     keyframe.Value[geom.Point]
}

func newEllipse(env *Env, m *model.Ellipse) *Ellipse {
	e := &Ellipse{geometry: newGeometry(env, m.Name, m.Hidden), reversed: m.Reversed}
	e.position = positionValue(env, m.Position, e.invalidate)
	e.size = pointValue(env, m.Size, e.invalidate)
	return e
}

func (e *Ellipse) Path() (*geom.Path, error) {
	return e.rebuild(func(p *geom.Path) error {
		size, err := valueOr(e.size, geom.Point{})
		if err != nil {
			return err
		}
		pos, err := valueOr(e.position, geom.Point{})
		if err != nil {
			return err
		}
		hw, hh := size.X/2, size.Y/2
		cw, ch := hw*ellipseControl, hh*ellipseControl

		p.MoveTo(0, -hh)
		if e.reversed {
			p.CubicTo(-cw, -hh, -hw, -ch, -hw, 0)
			p.CubicTo(-hw, ch, -cw, hh, 0, hh)
			p.CubicTo(cw, hh, hw, ch, hw, 0)
			p.CubicTo(hw, -ch, cw, -hh, 0, -hh)
		} else {
			p.CubicTo(cw, -hh, hw, -ch, hw, 0)
			p.CubicTo(hw, ch, cw, hh, 0, hh)
			p.CubicTo(-cw, hh, -hw, ch, -hw, 0)
			p.CubicTo(-hw, -ch, -cw, -hh, 0, -hh)
		}
		p.Offset(pos.X, pos.Y)
		p.Close()
		return nil
	})
}

func (e *Ellipse) ResolveKeyPath(kp keypath.KeyPath, depth int, acc *[]keypath.KeyPath, partial keypath.KeyPath) {
	keypath.ResolveLeaf(kp, depth, acc, partial, e.name, e)
}

func (e *Ellipse) ApplyValueCallback(prop keypath.Property, cb any) bool {
	switch prop {
	case keypath.Size:
		return bind(e.env, &e.size, e.invalidate, cb)
	case keypath.Position:
		return bind(e.env, &e.position, e.invalidate, cb)
	}
	return false
}

// Rect is a rectangle centered on its position with optionally rounded
// corners.
type Rect struct {
	geometry
	reversed bool
	position keyframe.Value[geom.Point]
	size     keyframe.Value[geom.Point]
	radius   keyframe.Value[float64]
}

func newRect(env *Env, m *model.Rectangle) *Rect {
	r := &Rect{geometry: newGeometry(env, m.Name, m.Hidden), reversed: m.Reversed}
	r.position = positionValue(env, m.Position, r.invalidate)
	r.size = pointValue(env, m.Size, r.invalidate)
	r.radius = floatValue(env, m.Radius, r.invalidate)
	return r
}

func (r *Rect) Path() (*geom.Path, error) {
	return r.rebuild(func(p *geom.Path) error {
		size, err := valueOr(r.size, geom.Point{})
		if err != nil {
			return err
		}
		pos, err := valueOr(r.position, geom.Point{})
		if err != nil {
			return err
		}
		rad, err := valueOr(r.radius, 0)
		if err != nil {
			return err
		}
		hw, hh := size.X/2, size.Y/2
		rad = max(0, min(rad, hw, hh))
		left, top := pos.X-hw, pos.Y-hh
		right, bottom := pos.X+hw, pos.Y+hh
		d := 2 * rad

		corner := func(l, t float64, start, sweep float64) {
			if rad > 0 {
				p.ArcTo(geom.Rect{X: l, Y: t, Width: d, Height: d}, start, sweep, false)
			}
		}

		if !r.reversed {
			p.MoveTo(right, top+rad)
			p.LineTo(right, bottom-rad)
			corner(right-d, bottom-d, 0, 90)
			p.LineTo(left+rad, bottom)
			corner(left, bottom-d, 90, 90)
			p.LineTo(left, top+rad)
			corner(left, top, 180, 90)
			p.LineTo(right-rad, top)
			corner(right-d, top, 270, 90)
		} else {
			p.MoveTo(right, top+rad)
			corner(right-d, top, 0, -90)
			p.LineTo(left+rad, top)
			corner(left, top, 270, -90)
			p.LineTo(left, bottom-rad)
			corner(left, bottom-d, 180, -90)
			p.LineTo(right-rad, bottom)
			corner(right-d, bottom-d, 90, -90)
		}
		p.Close()
		return nil
	})
}

func (r *Rect) ResolveKeyPath(kp keypath.KeyPath, depth int, acc *[]keypath.KeyPath, partial keypath.KeyPath) {
	keypath.ResolveLeaf(kp, depth, acc, partial, r.name, r)
}

func (r *Rect) ApplyValueCallback(prop keypath.Property, cb any) bool {
	switch prop {
	case keypath.Size:
		return bind(r.env, &r.size, r.invalidate, cb)
	case keypath.Position:
		return bind(r.env, &r.position, r.invalidate, cb)
	case keypath.CornerRadius:
		return bind(r.env, &r.radius, r.invalidate, cb)
	}
	return false
}

// Polystar is a star or regular polygon around its position.
type Polystar struct {
	geometry
	kind     model.StarType
	reversed bool

	points         keyframe.Value[float64]
	position       keyframe.Value[geom.Point]
	rotation       keyframe.Value[float64]
	outerRadius    keyframe.Value[float64]
	outerRoundness keyframe.Value[float64]
	innerRadius    keyframe.Value[float64]
	innerRoundness keyframe.Value[float64]
}

func newPolystar(env *Env, m *model.Polystar) *Polystar {
	s := &Polystar{geometry: newGeometry(env, m.Name, m.Hidden), kind: m.Kind, reversed: m.Reversed}
	s.points = floatValue(env, m.Points, s.invalidate)
	s.position = positionValue(env, m.Position, s.invalidate)
	s.rotation = floatValue(env, m.Rotation, s.invalidate)
	s.outerRadius = floatValue(env, m.OuterRadius, s.invalidate)
	s.outerRoundness = floatValue(env, m.OuterRoundness, s.invalidate)
	if m.Kind == model.StarTypeStar {
		s.innerRadius = floatValue(env, m.InnerRadius, s.invalidate)
		s.innerRoundness = floatValue(env, m.InnerRoundness, s.invalidate)
	}
	return s
}

func (s *Polystar) Path() (*geom.Path, error) {
	return s.rebuild(func(p *geom.Path) error {
		var err error
		if s.kind == model.StarTypePolygon {
			err = s.polygon(p)
		} else {
			err = s.star(p)
		}
		if err != nil {
			return err
		}
		pos, err := valueOr(s.position, geom.Point{})
		if err != nil {
			return err
		}
		p.Offset(pos.X, pos.Y)
		p.Close()
		return nil
	})
}

// starValues evaluates every scalar property at once.
func (s *Polystar) starValues() (points, rotation, outer, outerRound, inner, innerRound float64, err error) {
	for _, v := range []struct {
		dst *float64
		src keyframe.Value[float64]
	}{
		{&points, s.points}, {&rotation, s.rotation},
		{&outer, s.outerRadius}, {&outerRound, s.outerRoundness},
		{&inner, s.innerRadius}, {&innerRound, s.innerRoundness},
	} {
		if *v.dst, err = valueOr(v.src, 0); err != nil {
			return
		}
	}
	return
}

func (s *Polystar) star(p *geom.Path) error {
	points, rotation, outerRadius, outerRound, innerRadius, innerRound, err := s.starValues()
	if err != nil {
		return err
	}
	if points <= 0 {
		return nil
	}
	innerRound /= 100
	outerRound /= 100

	angle := (rotation - 90) * math.Pi / 180
	perPoint := 2 * math.Pi / points
	if s.reversed {
		perPoint = -perPoint
	}
	half := perPoint / 2
	partial := points - math.Trunc(points)
	if partial != 0 {
		angle += half * (1 - partial)
	}

	var x, y, partialRadius float64
	if partial != 0 {
		partialRadius = innerRadius + partial*(outerRadius-innerRadius)
		x, y = partialRadius*math.Cos(angle), partialRadius*math.Sin(angle)
		p.MoveTo(x, y)
		angle += perPoint * partial / 2
	} else {
		x, y = outerRadius*math.Cos(angle), outerRadius*math.Sin(angle)
		p.MoveTo(x, y)
		angle += half
	}

	long := false
	n := int(math.Ceil(points)) * 2
	for i := 0; i < n; i++ {
		radius := innerRadius
		if long {
			radius = outerRadius
		}
		dTheta := half
		if partialRadius != 0 && i == n-2 {
			dTheta = perPoint * partial / 2
		}
		if partialRadius != 0 && i == n-1 {
			radius = partialRadius
		}
		px, py := x, y
		x, y = radius*math.Cos(angle), radius*math.Sin(angle)

		if innerRound == 0 && outerRound == 0 {
			p.LineTo(x, y)
		} else {
			cp1 := math.Atan2(py, px) - math.Pi/2
			cp2 := math.Atan2(y, x) - math.Pi/2

			r1, round1 := outerRadius, outerRound
			r2, round2 := innerRadius, innerRound
			if long {
				r1, round1 = innerRadius, innerRound
				r2, round2 = outerRadius, outerRound
			}
			c1x := r1 * round1 * starControl * math.Cos(cp1)
			c1y := r1 * round1 * starControl * math.Sin(cp1)
			c2x := r2 * round2 * starControl * math.Cos(cp2)
			c2y := r2 * round2 * starControl * math.Sin(cp2)
			if partial != 0 {
				switch i {
				case 0:
					c1x *= partial
					c1y *= partial
				case n - 1:
					c2x *= partial
					c2y *= partial
				}
			}
			p.CubicTo(px-c1x, py-c1y, x+c2x, y+c2y, x, y)
		}
		angle += dTheta
		long = !long
	}
	return nil
}

func (s *Polystar) polygon(p *geom.Path) error {
	points, rotation, radius, round, _, _, err := s.starValues()
	if err != nil {
		return err
	}
	points = math.Floor(points)
	if points <= 0 {
		return nil
	}
	round /= 100

	angle := (rotation - 90) * math.Pi / 180
	perPoint := 2 * math.Pi / points
	if s.reversed {
		perPoint = -perPoint
	}
	x, y := radius*math.Cos(angle), radius*math.Sin(angle)
	p.MoveTo(x, y)
	angle += perPoint

	for i := 0; i < int(points); i++ {
		px, py := x, y
		x, y = radius*math.Cos(angle), radius*math.Sin(angle)
		if round != 0 {
			cp1 := math.Atan2(py, px) - math.Pi/2
			cp2 := math.Atan2(y, x) - math.Pi/2
			k := radius * round * polygonControl
			p.CubicTo(px-k*math.Cos(cp1), py-k*math.Sin(cp1), x+k*math.Cos(cp2), y+k*math.Sin(cp2), x, y)
		} else {
			p.LineTo(x, y)
		}
		angle += perPoint
	}
	return nil
}

func (s *Polystar) ResolveKeyPath(kp keypath.KeyPath, depth int, acc *[]keypath.KeyPath, partial keypath.KeyPath) {
	keypath.ResolveLeaf(kp, depth, acc, partial, s.name, s)
}

func (s *Polystar) ApplyValueCallback(prop keypath.Property, cb any) bool {
	switch prop {
	case keypath.PolystarPoints:
		return bind(s.env, &s.points, s.invalidate, cb)
	case keypath.Position:
		return bind(s.env, &s.position, s.invalidate, cb)
	case keypath.PolystarRotation:
		return bind(s.env, &s.rotation, s.invalidate, cb)
	case keypath.PolystarOuterRadius:
		return bind(s.env, &s.outerRadius, s.invalidate, cb)
	case keypath.PolystarOuterRoundedness:
		return bind(s.env, &s.outerRoundness, s.invalidate, cb)
	case keypath.PolystarInnerRadius:
		if s.kind == model.StarTypeStar {
			return bind(s.env, &s.innerRadius, s.invalidate, cb)
		}
	case keypath.PolystarInnerRoundedness:
		if s.kind == model.StarTypeStar {
			return bind(s.env, &s.innerRoundness, s.invalidate, cb)
		}
	}
	return false
}
