package geom

// CubicCurve is one cubic span of a shape: two control points and the
// vertex it ends on.
type CubicCurve struct {
	C1     Point
	C2     Point
	Vertex Point
}

// ShapeData is the morphable vertex form of a bezier shape.
type ShapeData struct {
	Closed  bool
	Initial Point
	Curves  []CubicCurve
}

// Clone returns a deep copy.
func (s *ShapeData) Clone() *ShapeData {
	c := &ShapeData{Closed: s.Closed, Initial: s.Initial}
	c.Curves = append([]CubicCurve(nil), s.Curves...)
	return c
}

// Interpolate sets s to the blend of a and b at t. Shapes must share a
// topology; when their curve counts differ the shorter count is used and
// mismatched is true.
func (s *ShapeData) Interpolate(a, b *ShapeData, t float64) (mismatched bool) {
	s.Closed = a.Closed || b.Closed
	n := len(a.Curves)
	if len(b.Curves) != n {
		mismatched = true
		n = min(n, len(b.Curves))
	}
	if cap(s.Curves) < n {
		s.Curves = make([]CubicCurve, n)
	}
	s.Curves = s.Curves[:n]

	s.Initial = LerpPoint(a.Initial, b.Initial, t)
	for i := 0; i < n; i++ {
		ca, cb := a.Curves[i], b.Curves[i]
		s.Curves[i] = CubicCurve{
			C1:     LerpPoint(ca.C1, cb.C1, t),
			C2:     LerpPoint(ca.C2, cb.C2, t),
			Vertex: LerpPoint(ca.Vertex, cb.Vertex, t),
		}
	}
	return mismatched
}

// AppendTo writes the shape into dst. Curves whose control points sit on
// their endpoints are emitted as lines.
func (s *ShapeData) AppendTo(dst *Path) {
	dst.MoveTo(s.Initial.X, s.Initial.Y)
	prev := s.Initial
	for _, c := range s.Curves {
		if c.C1 == prev && c.C2 == c.Vertex {
			dst.LineTo(c.Vertex.X, c.Vertex.Y)
		} else {
			dst.CubicTo(c.C1.X, c.C1.Y, c.C2.X, c.C2.Y, c.Vertex.X, c.Vertex.Y)
		}
		prev = c.Vertex
	}
	if s.Closed {
		dst.Close()
	}
}
