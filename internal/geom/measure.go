package geom

const cubicSamples = 32

type piece struct {
	cubic  bool
	p      [4]Point
	length float64
	// cumulative polyline length at t = i/cubicSamples
	lut []float64
}

func newLine(a, b Point) piece {
	return piece{p: [4]Point{a, b}, length: b.Sub(a).Len()}
}

func newCubic(p0, p1, p2, p3 Point) piece {
	pc := piece{cubic: true, p: [4]Point{p0, p1, p2, p3}, lut: make([]float64, cubicSamples+1)}
	prev := p0
	for i := 1; i <= cubicSamples; i++ {
		pt := cubicAt(pc.p, float64(i)/cubicSamples)
		pc.lut[i] = pc.lut[i-1] + pt.Sub(prev).Len()
		prev = pt
	}
	pc.length = pc.lut[cubicSamples]
	return pc
}

// tAt maps a distance along the piece to its curve parameter.
func (pc *piece) tAt(d float64) float64 {
	if pc.length <= 0 {
		return 0
	}
	if !pc.cubic {
		return Clamp(d/pc.length, 0, 1)
	}
	if d <= 0 {
		return 0
	}
	if d >= pc.length {
		return 1
	}
	lo, hi := 0, cubicSamples
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if pc.lut[mid] <= d {
			lo = mid
		} else {
			hi = mid
		}
	}
	span := pc.lut[hi] - pc.lut[lo]
	frac := 0.0
	if span > 0 {
		frac = (d - pc.lut[lo]) / span
	}
	return (float64(lo) + frac) / cubicSamples
}

func (pc *piece) pointAt(t float64) Point {
	if pc.cubic {
		return cubicAt(pc.p, t)
	}
	return LerpPoint(pc.p[0], pc.p[1], t)
}

func (pc *piece) tangentAt(t float64) Point {
	if !pc.cubic {
		return pc.p[1].Sub(pc.p[0])
	}
	mt := 1 - t
	a := pc.p[1].Sub(pc.p[0]).Mul(3 * mt * mt)
	b := pc.p[2].Sub(pc.p[1]).Mul(6 * mt * t)
	c := pc.p[3].Sub(pc.p[2]).Mul(3 * t * t)
	return a.Add(b).Add(c)
}

// appendRange writes the [t0, t1] sub-piece to dst.
func (pc *piece) appendRange(dst *Path, t0, t1 float64) {
	if !pc.cubic {
		end := LerpPoint(pc.p[0], pc.p[1], t1)
		dst.LineTo(end.X, end.Y)
		return
	}
	c := subCubic(pc.p, t0, t1)
	dst.CubicTo(c[1].X, c[1].Y, c[2].X, c[2].Y, c[3].X, c[3].Y)
}

func cubicAt(p [4]Point, t float64) Point {
	mt := 1 - t
	a := mt * mt * mt
	b := 3 * mt * mt * t
	c := 3 * mt * t * t
	d := t * t * t
	return Point{
		a*p[0].X + b*p[1].X + c*p[2].X + d*p[3].X,
		a*p[0].Y + b*p[1].Y + c*p[2].Y + d*p[3].Y,
	}
}

// splitCubic splits at t and returns both halves.
func splitCubic(p [4]Point, t float64) (left, right [4]Point) {
	p01 := LerpPoint(p[0], p[1], t)
	p12 := LerpPoint(p[1], p[2], t)
	p23 := LerpPoint(p[2], p[3], t)
	p012 := LerpPoint(p01, p12, t)
	p123 := LerpPoint(p12, p23, t)
	mid := LerpPoint(p012, p123, t)
	return [4]Point{p[0], p01, p012, mid}, [4]Point{mid, p123, p23, p[3]}
}

func subCubic(p [4]Point, t0, t1 float64) [4]Point {
	if t1 < 1 {
		p, _ = splitCubic(p, t1)
	}
	if t0 > 0 && t1 > 0 {
		_, p = splitCubic(p, t0/t1)
	}
	return p
}

// Contour is one measured sub-path.
type Contour struct {
	pieces []piece
	length float64
	closed bool
}

func (c *Contour) Length() float64 { return c.length }
func (c *Contour) Closed() bool    { return c.closed }

// locate returns the piece index containing distance d and the distance
// into that piece.
func (c *Contour) locate(d float64) (int, float64) {
	for i := range c.pieces {
		if d <= c.pieces[i].length || i == len(c.pieces)-1 {
			return i, d
		}
		d -= c.pieces[i].length
	}
	return 0, 0
}

// PosTan returns the point and unit tangent at distance d, clamped to the
// contour.
func (c *Contour) PosTan(d float64) (pos, tan Point, ok bool) {
	if len(c.pieces) == 0 {
		return Point{}, Point{}, false
	}
	d = Clamp(d, 0, c.length)
	i, local := c.locate(d)
	pc := &c.pieces[i]
	t := pc.tAt(local)
	tan = pc.tangentAt(t)
	if l := tan.Len(); l > 0 {
		tan = tan.Mul(1 / l)
	}
	return pc.pointAt(t), tan, true
}

// Segment appends the part of the contour between distances start and stop
// to dst. It returns false when the range is empty.
func (c *Contour) Segment(start, stop float64, dst *Path, startWithMoveTo bool) bool {
	start = max(start, 0)
	stop = min(stop, c.length)
	if start >= stop || len(c.pieces) == 0 {
		return false
	}

	i, local := c.locate(start)
	t0 := c.pieces[i].tAt(local)
	p := c.pieces[i].pointAt(t0)
	if startWithMoveTo {
		dst.MoveTo(p.X, p.Y)
	} else {
		dst.LineTo(p.X, p.Y)
	}

	remaining := stop - start
	for ; i < len(c.pieces) && remaining > 0; i++ {
		pc := &c.pieces[i]
		avail := pc.length - local
		if remaining <= avail {
			pc.appendRange(dst, t0, pc.tAt(local+remaining))
			return true
		}
		pc.appendRange(dst, t0, 1)
		remaining -= avail
		local, t0 = 0, 0
	}
	return true
}

// PathMeasure measures the arc length of every contour of a path.
type PathMeasure struct {
	contours []*Contour
	length   float64
}

// NewPathMeasure measures p. Zero-length contours are skipped.
func NewPathMeasure(p *Path) *PathMeasure {
	m := &PathMeasure{}
	if p == nil {
		return m
	}

	var cur *Contour
	var start, last Point
	finish := func() {
		if cur != nil && cur.length > 0 {
			m.contours = append(m.contours, cur)
			m.length += cur.length
		}
		cur = nil
	}
	add := func(pc piece) {
		if cur == nil {
			cur = &Contour{}
		}
		cur.pieces = append(cur.pieces, pc)
		cur.length += pc.length
	}

	for _, s := range p.Normalized() {
		switch s.Verb {
		case MoveTo:
			finish()
			start, last = s.Pts[0], s.Pts[0]
		case LineTo:
			add(newLine(last, s.Pts[0]))
			last = s.Pts[0]
		case CubicTo:
			add(newCubic(last, s.Pts[0], s.Pts[1], s.Pts[2]))
			last = s.Pts[2]
		case Close:
			if cur != nil {
				if last != start {
					add(newLine(last, start))
				}
				cur.closed = true
			}
			finish()
			last = start
		}
	}
	finish()
	return m
}

// Length returns the combined length of all contours.
func (m *PathMeasure) Length() float64 { return m.length }

// Contours returns the measured contours in path order.
func (m *PathMeasure) Contours() []*Contour { return m.contours }

// Segment appends the range [start, stop] of the combined length to dst.
// Each contour touched by the range starts with a move.
func (m *PathMeasure) Segment(start, stop float64, dst *Path) bool {
	start = max(start, 0)
	stop = min(stop, m.length)
	if start >= stop {
		return false
	}
	wrote := false
	offset := 0.0
	for _, c := range m.contours {
		lo, hi := start-offset, stop-offset
		if hi > 0 && lo < c.length {
			if c.Segment(lo, hi, dst, true) {
				wrote = true
			}
		}
		offset += c.length
		if offset >= stop {
			break
		}
	}
	return wrote
}

// PosTan returns the position and tangent at distance d along the first
// contour.
func (m *PathMeasure) PosTan(d float64) (Point, Point, bool) {
	if len(m.contours) == 0 {
		return Point{}, Point{}, false
	}
	return m.contours[0].PosTan(d)
}
