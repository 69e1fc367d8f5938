package content

import (
	"errors"
	"math"
	"testing"

	"github.com/inamate/motion/internal/canvas"
	"github.com/inamate/motion/internal/geom"
	"github.com/inamate/motion/internal/keyframe"
	"github.com/inamate/motion/internal/keypath"
	"github.com/inamate/motion/internal/model"
)

func meta(name string) model.ShapeMeta { return model.ShapeMeta{Name: name} }

func ellipse(name string, x, y, size float64) *model.Ellipse {
	return &model.Ellipse{
		ShapeMeta: meta(name),
		Position:  model.StaticPoint(geom.Pt(x, y)),
		Size:      model.StaticPoint(geom.Pt(size, size)),
	}
}

func fill(name string, c geom.Color, opacity int) *model.Fill {
	return &model.Fill{ShapeMeta: meta(name), Color: model.StaticColor(c), Opacity: model.StaticInt(opacity)}
}

func trim(kind model.TrimKind, start, end, offset float64) *model.TrimPath {
	return &model.TrimPath{
		ShapeMeta: meta("Trim"),
		Kind:      kind,
		Start:     model.StaticFloat(start),
		End:       model.StaticFloat(end),
		Offset:    model.StaticFloat(offset),
	}
}

func root(env *Env, shapes ...model.Shape) *Group {
	g := newGroupOf(keypath.Container, false, Build(env, shapes))
	g.SetContents(nil, nil)
	return g
}

func names(list []Content) []string {
	out := make([]string, len(list))
	for i, c := range list {
		out[i] = c.Name()
	}
	return out
}

func near(a, b, eps float64) bool { return math.Abs(a-b) <= eps }

func TestBuildGreedy(t *testing.T) {
	tests := []struct {
		name   string
		shapes []model.Shape
		top    []string
		check  func(t *testing.T, list []Content)
	}{
		{
			name: "repeater claims everything before it",
			shapes: []model.Shape{
				ellipse("A", 0, 0, 10),
				fill("F", geom.ARGB(255, 0, 0, 0), 100),
				&model.Repeater{ShapeMeta: meta("R"), Copies: model.StaticFloat(3)},
				ellipse("B", 0, 0, 10),
			},
			top: []string{"R", "B"},
			check: func(t *testing.T, list []Content) {
				r := list[0].(*Repeater)
				if got := names(r.Group().Contents()); len(got) != 2 || got[0] != "A" || got[1] != "F" {
					t.Fatalf("repeated = %v", got)
				}
				if r.Group().Name() != RepeaterGroupName {
					t.Fatalf("group name = %q", r.Group().Name())
				}
			},
		},
		{
			name: "merge claims only path content",
			shapes: []model.Shape{
				ellipse("A", 0, 0, 10),
				fill("F", geom.ARGB(255, 0, 0, 0), 100),
				ellipse("B", 0, 0, 10),
				&model.MergePaths{ShapeMeta: meta("M")},
				ellipse("C", 0, 0, 10),
			},
			top: []string{"F", "M", "C"},
			check: func(t *testing.T, list []Content) {
				m := list[1].(*MergePaths)
				if got := names(pathsAsContent(m.paths)); len(got) != 2 || got[0] != "B" || got[1] != "A" {
					t.Fatalf("merged = %v, want nearest first", got)
				}
			},
		},
		{
			name: "unknown shapes are skipped",
			shapes: []model.Shape{
				ellipse("A", 0, 0, 10),
				nil,
			},
			top: []string{"A"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list := Build(NewEnv(nil, nil), tt.shapes)
			got := names(list)
			if len(got) != len(tt.top) {
				t.Fatalf("top = %v, want %v", got, tt.top)
			}
			for i := range got {
				if got[i] != tt.top[i] {
					t.Fatalf("top = %v, want %v", got, tt.top)
				}
			}
			if tt.check != nil {
				tt.check(t, list)
			}
		})
	}
}

func pathsAsContent(ps []PathContent) []Content {
	out := make([]Content, len(ps))
	for i, p := range ps {
		out[i] = p
	}
	return out
}

func TestEllipseGeometry(t *testing.T) {
	env := NewEnv(nil, nil)
	e := newEllipse(env, ellipse("E", 50, 40, 100))
	p, err := e.Path()
	if err != nil {
		t.Fatal(err)
	}
	b := p.Bounds()
	if !near(b.Left(), 0, 1e-9) || !near(b.Top(), -10, 1e-9) || !near(b.Right(), 100, 1e-9) || !near(b.Bottom(), 90, 1e-9) {
		t.Fatalf("bounds = %+v", b)
	}
	segs := p.Segments()
	if segs[0].Verb != geom.MoveTo || segs[0].Pts[0] != geom.Pt(50, -10) {
		t.Fatalf("start = %+v, want top of circle", segs[0])
	}
	if segs[len(segs)-1].Verb != geom.Close {
		t.Fatal("ellipse not closed")
	}
	if l := geom.NewPathMeasure(p).Length(); !near(l, 2*math.Pi*50, math.Pi) {
		t.Fatalf("length = %v", l)
	}
}

func TestRectRadiusClamped(t *testing.T) {
	tests := []struct {
		name     string
		radius   float64
		reversed bool
		arcs     int
	}{
		{"square corners", 0, false, 0},
		{"rounded", 5, false, 4},
		{"clamped to half side", 500, false, 4},
		{"reversed", 5, true, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRect(NewEnv(nil, nil), &model.Rectangle{
				ShapeMeta: meta("R"),
				Position:  model.StaticPoint(geom.Pt(0, 0)),
				Size:      model.StaticPoint(geom.Pt(40, 20)),
				Radius:    model.StaticFloat(tt.radius),
				Reversed:  tt.reversed,
			})
			p, err := r.Path()
			if err != nil {
				t.Fatal(err)
			}
			arcs := 0
			for _, s := range p.Segments() {
				if s.Verb == geom.ArcTo {
					arcs++
					if s.Arc.Oval.Width > 20 {
						t.Fatalf("corner oval %v exceeds the short side", s.Arc.Oval)
					}
				}
			}
			if arcs != tt.arcs {
				t.Fatalf("arcs = %d, want %d", arcs, tt.arcs)
			}
			b := p.Bounds()
			if !near(b.Width, 40, 1e-6) || !near(b.Height, 20, 1e-6) {
				t.Fatalf("bounds = %+v", b)
			}
		})
	}
}

func TestPolystar(t *testing.T) {
	tests := []struct {
		name  string
		kind  model.StarType
		pts   float64
		lines int
	}{
		{"five point star", model.StarTypeStar, 5, 10},
		{"hexagon", model.StarTypePolygon, 6, 6},
		{"polygon floors points", model.StarTypePolygon, 4.7, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newPolystar(NewEnv(nil, nil), &model.Polystar{
				ShapeMeta:   meta("S"),
				Kind:        tt.kind,
				Points:      model.StaticFloat(tt.pts),
				Position:    model.StaticPoint(geom.Pt(10, 10)),
				OuterRadius: model.StaticFloat(20),
				InnerRadius: model.StaticFloat(10),
			})
			p, err := s.Path()
			if err != nil {
				t.Fatal(err)
			}
			lines := 0
			for _, seg := range p.Segments() {
				if seg.Verb == geom.LineTo {
					lines++
				}
			}
			if lines != tt.lines {
				t.Fatalf("lines = %d, want %d", lines, tt.lines)
			}
			// The first vertex points straight up from the center.
			if first := p.Segments()[0].Pts[0]; !near(first.X, 10, 1e-9) || !near(first.Y, -10, 1e-9) {
				t.Fatalf("first vertex = %v", first)
			}
		})
	}
}

func TestSimultaneousTrim(t *testing.T) {
	tests := []struct {
		name       string
		start, end float64
		frac       float64
	}{
		{"half", 0, 50, 0.5},
		{"full range untouched", 0, 100, 1},
		{"empty", 30, 30, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := NewEnv(nil, nil)
			g := root(env,
				ellipse("E", 0, 0, 100),
				trim(model.TrimSimultaneously, tt.start, tt.end, 0),
			)
			p, err := g.contents[0].(PathContent).Path()
			if err != nil {
				t.Fatal(err)
			}
			full := 2 * math.Pi * 50
			if l := geom.NewPathMeasure(p).Length(); !near(l, full*tt.frac, full*0.01) {
				t.Fatalf("length = %v, want %v", l, full*tt.frac)
			}
		})
	}
}

func TestTrimInvalidatesShape(t *testing.T) {
	env := NewEnv(nil, nil)
	g := root(env,
		ellipse("E", 0, 0, 100),
		trim(model.TrimSimultaneously, 0, 100, 0),
	)
	e := g.contents[0].(*Ellipse)
	tp := g.contents[1].(*TrimPath)
	if _, err := e.Path(); err != nil {
		t.Fatal(err)
	}
	if !tp.ApplyValueCallback(keypath.TrimEnd, keyframe.Constant(25.0)) {
		t.Fatal("trim end callback rejected")
	}
	p, err := e.Path()
	if err != nil {
		t.Fatal(err)
	}
	full := 2 * math.Pi * 50
	if l := geom.NewPathMeasure(p).Length(); !near(l, full/4, full*0.01) {
		t.Fatalf("length after callback = %v", l)
	}
}

func TestFillDraw(t *testing.T) {
	tests := []struct {
		name      string
		parent    uint8
		opacity   int
		groupOp   int
		wantAlpha uint8
	}{
		{"opaque", 255, 100, 100, 255},
		{"fill opacity", 255, 50, 100, 127},
		{"group and parent", 128, 100, 50, 64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := NewEnv(nil, nil)
			red := geom.ARGB(255, 255, 0, 0)
			g := root(env, &model.ShapeGroup{
				ShapeMeta: meta("G"),
				Items: []model.Shape{
					ellipse("E", 0, 0, 10),
					fill("F", red, tt.opacity),
				},
				Transform: &model.AnimatableTransform{
					Position: model.StaticPoint(geom.Pt(5, 5)),
					Opacity:  model.StaticInt(tt.groupOp),
				},
			})
			rec := canvas.NewRecorder(20, 20)
			if err := g.Draw(rec, geom.Identity(), tt.parent); err != nil {
				t.Fatal(err)
			}
			paths := rec.Paths()
			if len(paths) != 1 {
				t.Fatalf("draws = %d, want 1", len(paths))
			}
			if a := paths[0].Paint.Alpha(); a < tt.wantAlpha-1 || a > tt.wantAlpha+1 {
				t.Fatalf("alpha = %d, want %d", a, tt.wantAlpha)
			}
			if paths[0].Paint.Color.R() != 255 {
				t.Fatalf("color = %s", paths[0].Paint.Color.Hex())
			}
			if b := paths[0].Shape.Bounds(); !near(b.Left(), 0, 1e-9) || !near(b.Right(), 10, 1e-9) {
				t.Fatalf("path not mapped through the group transform: %+v", b)
			}
		})
	}
}

func TestStrokeDraw(t *testing.T) {
	env := NewEnv(nil, nil)
	g := root(env,
		ellipse("E", 0, 0, 10),
		&model.Stroke{
			ShapeMeta: meta("S"),
			Color:     model.StaticColor(geom.ARGB(255, 0, 0, 255)),
			StrokeStyle: model.StrokeStyle{
				Width:   model.StaticFloat(2),
				Opacity: model.StaticInt(100),
				Dashes:  []*model.AnimatableFloat{model.StaticFloat(0), model.StaticFloat(0)},
			},
		},
	)
	rec := canvas.NewRecorder(20, 20)
	if err := g.Draw(rec, geom.Scale(2, 2), 255); err != nil {
		t.Fatal(err)
	}
	paths := rec.Paths()
	if len(paths) != 1 {
		t.Fatalf("draws = %d", len(paths))
	}
	p := paths[0].Paint
	if !near(p.StrokeWidth, 4, 1e-9) {
		t.Fatalf("width = %v, want scaled to 4", p.StrokeWidth)
	}
	if len(p.Dash) != 2 || !near(p.Dash[0], 2, 1e-9) || !near(p.Dash[1], 0.2, 1e-9) {
		t.Fatalf("dash = %v, want minimums scaled", p.Dash)
	}

	rec.Reset()
	if err := g.Draw(rec, geom.Scale(0, 1), 255); err != nil {
		t.Fatal(err)
	}
	if len(rec.Paths()) != 0 {
		t.Fatal("stroke drawn under a collapsed axis")
	}
}

func TestIndividualTrimGroups(t *testing.T) {
	env := NewEnv(nil, nil)
	g := root(env,
		ellipse("A", 0, 0, 10),
		trim(model.TrimIndividually, 0, 50, 0),
		ellipse("B", 0, 0, 10),
		&model.Stroke{ShapeMeta: meta("S"), Color: model.StaticColor(0xff000000)},
	)
	s := g.contents[3].(*Stroke)
	groups := s.Groups()
	if len(groups) != 2 {
		t.Fatalf("groups = %d, want 2", len(groups))
	}
	if groups[0].trim != nil || len(groups[0].paths) != 1 || groups[0].paths[0].Name() != "B" {
		t.Fatalf("first group = %+v", groups[0])
	}
	if groups[1].trim == nil || groups[1].paths[0].Name() != "A" {
		t.Fatalf("second group = %+v", groups[1])
	}
}

func TestRepeaterDraw(t *testing.T) {
	env := NewEnv(nil, nil)
	g := root(env,
		ellipse("E", 0, 0, 10),
		fill("F", geom.ARGB(255, 0, 0, 0), 100),
		&model.Repeater{
			ShapeMeta: meta("R"),
			Copies:    model.StaticFloat(3),
			Offset:    model.StaticFloat(0),
			Transform: &model.AnimatableTransform{
				Position:     model.StaticPoint(geom.Pt(10, 0)),
				StartOpacity: model.StaticFloat(100),
				EndOpacity:   model.StaticFloat(0),
			},
		},
	)
	rec := canvas.NewRecorder(100, 100)
	if err := g.Draw(rec, geom.Identity(), 255); err != nil {
		t.Fatal(err)
	}
	paths := rec.Paths()
	if len(paths) != 3 {
		t.Fatalf("copies drawn = %d, want 3", len(paths))
	}
	// Copies are drawn last first with fading alpha.
	wantX := []float64{20, 10, 0}
	wantA := []uint8{85, 170, 255}
	for i, p := range paths {
		cx, _ := p.Shape.Bounds().Center()
		if !near(cx, wantX[i], 1e-9) {
			t.Fatalf("copy %d center = %v, want %v", i, cx, wantX[i])
		}
		if a := p.Paint.Alpha(); a < wantA[i]-1 || a > wantA[i]+1 {
			t.Fatalf("copy %d alpha = %d, want %d", i, a, wantA[i])
		}
	}
}

type unionAll struct{ calls int }

func (u *unionAll) Op(_ geom.BoolOp, first, rest *geom.Path) (*geom.Path, error) {
	u.calls++
	out := first.Clone()
	out.AddPath(rest, geom.Identity())
	return out, nil
}

type failing struct{}

func (failing) Op(geom.BoolOp, *geom.Path, *geom.Path) (*geom.Path, error) {
	return nil, errors.New("boom")
}

func TestMergePaths(t *testing.T) {
	shapes := func(mode model.MergeMode) []model.Shape {
		return []model.Shape{
			ellipse("A", 0, 0, 10),
			ellipse("B", 20, 0, 10),
			&model.MergePaths{ShapeMeta: meta("M"), Mode: mode},
		}
	}

	t.Run("merge without booleaner", func(t *testing.T) {
		env := NewEnv(nil, nil)
		g := root(env, shapes(model.MergeMerge)...)
		p, err := g.contents[0].(PathContent).Path()
		if err != nil {
			t.Fatal(err)
		}
		if b := p.Bounds(); !near(b.Width, 30, 1e-9) {
			t.Fatalf("bounds = %+v", b)
		}
		if env.Warnings.Len() != 0 {
			t.Fatal("plain merge warned")
		}
	})

	t.Run("boolean falls back with warning", func(t *testing.T) {
		env := NewEnv(nil, nil)
		root(env, shapes(model.MergeSubtract)...)
		if ws := env.Warnings.List(); len(ws) != 1 || ws[0].Code != model.WarnMergePaths {
			t.Fatalf("warnings = %v", ws)
		}
	})

	t.Run("boolean uses booleaner", func(t *testing.T) {
		env := NewEnv(nil, nil)
		b := &unionAll{}
		env.Booleaner = b
		g := root(env, shapes(model.MergeAdd)...)
		if _, err := g.contents[0].(PathContent).Path(); err != nil {
			t.Fatal(err)
		}
		if b.calls != 1 {
			t.Fatalf("booleaner calls = %d", b.calls)
		}
	})

	t.Run("booleaner error surfaces", func(t *testing.T) {
		env := NewEnv(nil, nil)
		env.Booleaner = failing{}
		g := root(env, shapes(model.MergeIntersect)...)
		if _, err := g.contents[0].(PathContent).Path(); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestGradientShaderCache(t *testing.T) {
	env := NewEnv(nil, nil)
	env.CacheSteps = 10
	g := root(env,
		ellipse("E", 0, 0, 10),
		&model.GradientFill{
			ShapeMeta: meta("G"),
			GradientPaint: model.GradientPaint{
				Type:  model.GradientRadial,
				Start: model.StaticPoint(geom.Pt(0, 0)),
				End:   model.StaticPoint(geom.Pt(3, 4)),
				Colors: &model.AnimatableGradient{Keyframes: []*keyframe.Keyframe[geom.Gradient]{
					keyframe.Static(geom.Gradient{
						Positions: []float64{0, 1},
						Colors:    []geom.Color{0xffff0000, 0xff0000ff},
					}),
				}},
			},
			Opacity: model.StaticInt(100),
		},
	)
	rec := canvas.NewRecorder(10, 10)
	for range 2 {
		if err := g.Draw(rec, geom.Translate(1, 1), 255); err != nil {
			t.Fatal(err)
		}
	}
	gf := g.contents[1].(*GradientFill)
	if len(gf.gradient.cache) != 1 {
		t.Fatalf("cache entries = %d, want 1", len(gf.gradient.cache))
	}
	sh := rec.Paths()[0].Paint.Shader
	if sh == nil || sh.Kind != canvas.Radial || !near(sh.Radius, 5, 1e-9) {
		t.Fatalf("shader = %+v", sh)
	}
	if sh.Matrix != geom.Translate(1, 1) {
		t.Fatalf("shader matrix = %v", sh.Matrix)
	}
}

func TestKeyPathResolution(t *testing.T) {
	env := NewEnv(nil, nil)
	g := root(env, &model.ShapeGroup{
		ShapeMeta: meta("Group"),
		Items: []model.Shape{
			ellipse("Ellipse", 0, 0, 10),
			fill("Fill 1", geom.ARGB(255, 0, 0, 0), 100),
		},
	})
	tests := []struct {
		path string
		want int
	}{
		{"Group.Fill 1", 1},
		{"Group.*", 2},
		{"**.Fill 1", 1},
		{"Group", 1},
		{"Nope.Fill 1", 0},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			var acc []keypath.KeyPath
			g.ResolveKeyPath(keypath.Parse(tt.path), 0, &acc, keypath.KeyPath{})
			if len(acc) != tt.want {
				t.Fatalf("resolved %d, want %d: %v", len(acc), tt.want, acc)
			}
		})
	}

	var acc []keypath.KeyPath
	g.ResolveKeyPath(keypath.Parse("Group.Fill 1"), 0, &acc, keypath.KeyPath{})
	if !acc[0].Element().ApplyValueCallback(keypath.Color, keyframe.Constant(geom.ARGB(255, 0, 255, 0))) {
		t.Fatal("color callback rejected")
	}
	rec := canvas.NewRecorder(10, 10)
	if err := g.Draw(rec, geom.Identity(), 255); err != nil {
		t.Fatal(err)
	}
	if c := rec.Paths()[0].Paint.Color; c.G() != 255 || c.R() != 0 {
		t.Fatalf("color = %s, want green", c.Hex())
	}
}
