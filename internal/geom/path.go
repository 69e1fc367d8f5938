package geom

import "math"

// Verb identifies a contour segment kind.
type Verb uint8

const (
	MoveTo Verb = iota
	LineTo
	CubicTo
	ArcTo
	Close
)

// FillType selects the rule used to decide interior points.
type FillType uint8

const (
	Winding FillType = iota
	EvenOdd
)

// Arc is an elliptical arc inscribed in Oval. Angles are in degrees,
// measured clockwise from the positive x axis.
type Arc struct {
	Oval        Rect
	StartAngle  float64
	SweepAngle  float64
	ForceMoveTo bool
}

// Segment is one contour instruction. Pts holds the end point for
// MoveTo/LineTo and (c1, c2, end) for CubicTo.
type Segment struct {
	Verb Verb
	Pts  [3]Point
	Arc  Arc
}

// End returns the segment end point. Close and ArcTo have no stored end.
func (s Segment) End() Point {
	switch s.Verb {
	case MoveTo, LineTo:
		return s.Pts[0]
	case CubicTo:
		return s.Pts[2]
	}
	return Point{}
}

// Path is a mutable sequence of contours. Nodes reuse a Path across frames by
// calling Reset and rebuilding it.
type Path struct {
	segs []Segment
	fill FillType
}

// NewPath returns an empty path.
func NewPath() *Path {
	return &Path{}
}

// Reset clears the path, keeping its storage.
func (p *Path) Reset() {
	p.segs = p.segs[:0]
	p.fill = Winding
}

// Set replaces the contents of p with a copy of other.
func (p *Path) Set(other *Path) {
	p.segs = append(p.segs[:0], other.segs...)
	p.fill = other.fill
}

// Clone returns a deep copy.
func (p *Path) Clone() *Path {
	c := &Path{}
	c.Set(p)
	return c
}

func (p *Path) FillType() FillType     { return p.fill }
func (p *Path) SetFillType(f FillType) { p.fill = f }
func (p *Path) Segments() []Segment    { return p.segs }
func (p *Path) IsEmpty() bool          { return len(p.segs) == 0 }

func (p *Path) MoveTo(x, y float64) {
	p.segs = append(p.segs, Segment{Verb: MoveTo, Pts: [3]Point{{x, y}}})
}

func (p *Path) LineTo(x, y float64) {
	p.ensureStart()
	p.segs = append(p.segs, Segment{Verb: LineTo, Pts: [3]Point{{x, y}}})
}

func (p *Path) CubicTo(c1x, c1y, c2x, c2y, x, y float64) {
	p.ensureStart()
	p.segs = append(p.segs, Segment{Verb: CubicTo, Pts: [3]Point{{c1x, c1y}, {c2x, c2y}, {x, y}}})
}

// ArcTo appends an arc of oval. Unless forceMoveTo is set, a line joins the
// current point to the arc start.
func (p *Path) ArcTo(oval Rect, startAngle, sweepAngle float64, forceMoveTo bool) {
	p.segs = append(p.segs, Segment{Verb: ArcTo, Arc: Arc{
		Oval:        oval,
		StartAngle:  startAngle,
		SweepAngle:  sweepAngle,
		ForceMoveTo: forceMoveTo || len(p.segs) == 0,
	}})
}

func (p *Path) Close() {
	if len(p.segs) == 0 || p.segs[len(p.segs)-1].Verb == Close {
		return
	}
	p.segs = append(p.segs, Segment{Verb: Close})
}

func (p *Path) ensureStart() {
	if len(p.segs) == 0 {
		p.MoveTo(0, 0)
	}
}

// Offset translates every point of the path.
func (p *Path) Offset(dx, dy float64) {
	if dx == 0 && dy == 0 {
		return
	}
	p.Transform(Translate(dx, dy))
}

// Transform maps the path through m in place. Arcs are converted to cubics
// first because an ellipse under a general affine map is no longer axis
// aligned.
func (p *Path) Transform(m Matrix) {
	if m.IsIdentity() {
		return
	}
	p.expandArcs()
	for i := range p.segs {
		s := &p.segs[i]
		switch s.Verb {
		case MoveTo, LineTo:
			s.Pts[0] = m.Map(s.Pts[0])
		case CubicTo:
			s.Pts[0] = m.Map(s.Pts[0])
			s.Pts[1] = m.Map(s.Pts[1])
			s.Pts[2] = m.Map(s.Pts[2])
		}
	}
}

// AddPath appends src transformed by m. src's contours keep their own
// starting move.
func (p *Path) AddPath(src *Path, m Matrix) {
	if src == nil || src.IsEmpty() {
		return
	}
	start := len(p.segs)
	for _, s := range src.segs {
		if s.Verb == ArcTo && start == len(p.segs) {
			s.Arc.ForceMoveTo = true
		}
		p.segs = append(p.segs, s)
	}
	if m.IsIdentity() {
		return
	}
	tail := &Path{segs: p.segs[start:]}
	tail.Transform(m)
	p.segs = append(p.segs[:start], tail.segs...)
}

// Normalized returns the path's segments with arcs replaced by cubic
// approximations, so consumers only see MoveTo, LineTo, CubicTo and Close.
func (p *Path) Normalized() []Segment {
	hasArc := false
	for _, s := range p.segs {
		if s.Verb == ArcTo {
			hasArc = true
			break
		}
	}
	if !hasArc {
		return p.segs
	}
	c := p.Clone()
	c.expandArcs()
	return c.segs
}

func (p *Path) expandArcs() {
	hasArc := false
	for _, s := range p.segs {
		if s.Verb == ArcTo {
			hasArc = true
			break
		}
	}
	if !hasArc {
		return
	}
	out := make([]Segment, 0, len(p.segs)+8)
	for _, s := range p.segs {
		if s.Verb != ArcTo {
			out = append(out, s)
			continue
		}
		start, cubics := arcToCubics(s.Arc)
		verb := LineTo
		if s.Arc.ForceMoveTo {
			verb = MoveTo
		}
		out = append(out, Segment{Verb: verb, Pts: [3]Point{start}})
		out = append(out, cubics...)
	}
	p.segs = out
}

// arcToCubics splits an arc into cubic segments of at most 90 degrees.
func arcToCubics(a Arc) (Point, []Segment) {
	cx, cy := a.Oval.Center()
	rx, ry := a.Oval.Width/2, a.Oval.Height/2
	at := func(deg float64) Point {
		rad := deg * math.Pi / 180
		return Point{cx + rx*math.Cos(rad), cy + ry*math.Sin(rad)}
	}

	start := at(a.StartAngle)
	n := int(math.Ceil(math.Abs(a.SweepAngle) / 90))
	if n == 0 {
		return start, nil
	}
	step := a.SweepAngle / float64(n)
	k := 4.0 / 3.0 * math.Tan(step*math.Pi/180/4)

	segs := make([]Segment, 0, n)
	angle := a.StartAngle
	for i := 0; i < n; i++ {
		a0 := angle * math.Pi / 180
		a1 := (angle + step) * math.Pi / 180
		p0 := Point{cx + rx*math.Cos(a0), cy + ry*math.Sin(a0)}
		p3 := Point{cx + rx*math.Cos(a1), cy + ry*math.Sin(a1)}
		c1 := Point{p0.X - k*rx*math.Sin(a0), p0.Y + k*ry*math.Cos(a0)}
		c2 := Point{p3.X + k*rx*math.Sin(a1), p3.Y - k*ry*math.Cos(a1)}
		segs = append(segs, Segment{Verb: CubicTo, Pts: [3]Point{c1, c2, p3}})
		angle += step
	}
	return start, segs
}

// Bounds returns the bounding box of all points, including control points.
func (p *Path) Bounds() Rect {
	first := true
	var minX, minY, maxX, maxY float64
	add := func(pt Point) {
		if first {
			minX, maxX, minY, maxY = pt.X, pt.X, pt.Y, pt.Y
			first = false
			return
		}
		minX = min(minX, pt.X)
		maxX = max(maxX, pt.X)
		minY = min(minY, pt.Y)
		maxY = max(maxY, pt.Y)
	}
	for _, s := range p.Normalized() {
		switch s.Verb {
		case MoveTo, LineTo:
			add(s.Pts[0])
		case CubicTo:
			add(s.Pts[0])
			add(s.Pts[1])
			add(s.Pts[2])
		}
	}
	if first {
		return Rect{}
	}
	return LTRB(minX, minY, maxX, maxY)
}
