package layer

import (
	"errors"
	"image"
	"math"
	"testing"

	"github.com/inamate/motion/internal/canvas"
	"github.com/inamate/motion/internal/geom"
	"github.com/inamate/motion/internal/keyframe"
	"github.com/inamate/motion/internal/keypath"
	"github.com/inamate/motion/internal/model"
)

func composition(layers ...*model.Layer) *model.Composition {
	return &model.Composition{
		Bounds:   geom.Rect{Width: 100, Height: 100},
		Timing:   &keyframe.Timing{StartFrame: 0, EndFrame: 60, FrameRate: 30},
		Layers:   layers,
		Precomps: map[string][]*model.Layer{},
		Images:   map[string]*model.ImageAsset{},
		Fonts:    map[string]*model.Font{},
	}
}

func circle(name string, x, y, size float64) []model.Shape {
	return []model.Shape{
		&model.Ellipse{
			ShapeMeta: model.ShapeMeta{Name: name},
			Position:  model.StaticPoint(geom.Pt(x, y)),
			Size:      model.StaticPoint(geom.Pt(size, size)),
		},
		&model.Fill{
			ShapeMeta: model.ShapeMeta{Name: "Fill"},
			Color:     model.StaticColor(geom.ARGB(255, 255, 0, 0)),
			Opacity:   model.StaticInt(100),
		},
	}
}

func shapeLayer(name string, id int64, shapes ...model.Shape) *model.Layer {
	return &model.Layer{
		Name:        name,
		ID:          id,
		ParentID:    -1,
		Type:        model.LayerShape,
		Transform:   &model.AnimatableTransform{},
		TimeStretch: 1,
		Shapes:      shapes,
	}
}

func rectMask(mode model.MaskMode, x, y, w, h float64) *model.Mask {
	sd := &geom.ShapeData{
		Closed:  true,
		Initial: geom.Pt(x, y),
		Curves: []geom.CubicCurve{
			{C1: geom.Pt(x, y), C2: geom.Pt(x+w, y), Vertex: geom.Pt(x+w, y)},
			{C1: geom.Pt(x+w, y), C2: geom.Pt(x+w, y+h), Vertex: geom.Pt(x+w, y+h)},
			{C1: geom.Pt(x+w, y+h), C2: geom.Pt(x, y+h), Vertex: geom.Pt(x, y+h)},
		},
	}
	return &model.Mask{
		Mode:    mode,
		Path:    &model.AnimatableShape{Keyframes: []*keyframe.Keyframe[*geom.ShapeData]{keyframe.Static(sd)}},
		Opacity: model.StaticInt(100),
	}
}

func build(t *testing.T, comp *model.Composition, opts Options) *Tree {
	t.Helper()
	tree, err := Build(comp, opts)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return tree
}

func hasWarning(tree *Tree, code string) bool {
	for _, w := range tree.Warnings() {
		if w.Code == code {
			return true
		}
	}
	return false
}

func ops(r *canvas.Recorder, op string) []canvas.Command {
	var out []canvas.Command
	for _, c := range r.Commands() {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

func TestBuildNilComposition(t *testing.T) {
	if _, err := Build(nil, Options{}); !errors.Is(err, ErrNoComposition) {
		t.Fatalf("err = %v", err)
	}
}

func TestBuildMattes(t *testing.T) {
	matte := shapeLayer("Matte", 1, circle("E", 50, 50, 20)...)
	matte.IsMatte = true
	matted := shapeLayer("Content", 2, circle("E", 50, 50, 80)...)
	matted.MatteType = model.MatteAdd
	other := shapeLayer("Other", 3)

	tree := build(t, composition(matte, matted, other), Options{})
	top := tree.Layers()
	if len(top) != 2 || top[0].Name() != "Content" || top[1].Name() != "Other" {
		t.Fatalf("top = %v", layerNames(top))
	}
	if m := top[0].Matte(); m == nil || m.Name() != "Matte" {
		t.Fatalf("matte = %v", m)
	}
	if top[1].Matte() != nil {
		t.Fatal("unmatted layer has a matte")
	}
	if tree.Len() != 4 {
		t.Fatalf("Len = %d", tree.Len())
	}
}

func layerNames(ls []*Layer) []string {
	out := make([]string, len(ls))
	for i, l := range ls {
		out[i] = l.Name()
	}
	return out
}

func TestBuildParents(t *testing.T) {
	tests := []struct {
		name    string
		parents map[int64]int64
		warning string
		chain   map[string][]string
	}{
		{
			name:    "chain",
			parents: map[int64]int64{1: 2, 2: 3},
			chain:   map[string][]string{"L1": {"L2", "L3"}, "L2": {"L3"}, "L3": nil},
		},
		{
			name:    "cycle is cut",
			parents: map[int64]int64{1: 2, 2: 1},
			warning: model.WarnParentCycle,
			chain:   map[string][]string{"L1": {"L2"}, "L2": nil},
		},
		{
			name:    "missing parent",
			parents: map[int64]int64{1: 9},
			warning: model.WarnMissingParent,
			chain:   map[string][]string{"L1": nil},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var layers []*model.Layer
			for i := int64(1); i <= int64(len(tt.chain)); i++ {
				l := shapeLayer("L"+string(rune('0'+i)), i)
				if p, ok := tt.parents[i]; ok {
					l.ParentID = p
				}
				layers = append(layers, l)
			}
			tree := build(t, composition(layers...), Options{})
			if tt.warning != "" && !hasWarning(tree, tt.warning) {
				t.Fatalf("missing warning %s in %v", tt.warning, tree.Warnings())
			}
			for _, l := range tree.Layers() {
				var got []string
				for p := l.Parent(); p != nil; p = p.Parent() {
					got = append(got, p.Name())
				}
				want := tt.chain[l.Name()]
				if len(got) != len(want) {
					t.Fatalf("%s chain = %v, want %v", l.Name(), got, want)
				}
				for i := range got {
					if got[i] != want[i] {
						t.Fatalf("%s chain = %v, want %v", l.Name(), got, want)
					}
				}
			}
		})
	}
}

func TestMaskBounds(t *testing.T) {
	full := geom.Rect{Width: 100, Height: 100}
	a := geom.Rect{X: 10, Y: 10, Width: 10, Height: 10}
	b := geom.Rect{X: 40, Y: 40, Width: 20, Height: 20}
	tests := []struct {
		name   string
		masks  []MaskShape
		want   geom.Rect
		narrow bool
	}{
		{name: "none", want: full},
		{
			name:   "add union",
			masks:  []MaskShape{{Mode: model.MaskAdd, Bounds: a}, {Mode: model.MaskAdd, Bounds: b}},
			want:   geom.Rect{X: 10, Y: 10, Width: 50, Height: 50},
			narrow: true,
		},
		{
			name:  "subtract disables narrowing",
			masks: []MaskShape{{Mode: model.MaskAdd, Bounds: a}, {Mode: model.MaskSubtract, Bounds: b}},
			want:  full,
		},
		{
			name:  "inverted add",
			masks: []MaskShape{{Mode: model.MaskAdd, Inverted: true, Bounds: a}},
			want:  full,
		},
		{
			name:  "intersect",
			masks: []MaskShape{{Mode: model.MaskIntersect, Bounds: a}},
			want:  full,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MaskBounds(tt.masks, full)
			if got != tt.want || ok != tt.narrow {
				t.Fatalf("MaskBounds = %+v, %v; want %+v, %v", got, ok, tt.want, tt.narrow)
			}
		})
	}
}

func TestVisibility(t *testing.T) {
	l := shapeLayer("L", 1, circle("E", 50, 50, 20)...)
	l.InFrame, l.OutFrame = 10, 20
	tree := build(t, composition(l), Options{})

	tests := []struct {
		progress float64
		visible  bool
	}{
		{0, false},
		{0.1, false},
		{10.0 / 60, true},
		{0.25, true},
		{20.0 / 60, false},
		{0.9, false},
	}
	for _, tt := range tests {
		tree.SetProgress(tt.progress)
		got, err := tree.Layers()[0].Visible()
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.visible {
			t.Errorf("progress %v: visible = %v", tt.progress, got)
		}
		rec := canvas.NewRecorder(100, 100)
		if err := tree.Draw(rec, geom.Identity(), 255); err != nil {
			t.Fatal(err)
		}
		if n := len(rec.Paths()); (n == 1) != tt.visible {
			t.Errorf("progress %v: %d paths drawn", tt.progress, n)
		}
	}
}

func TestDrawSimple(t *testing.T) {
	l := shapeLayer("L", 1, circle("E", 0, 0, 20)...)
	l.Transform.Position = model.StaticPoint(geom.Pt(30, 40))
	l.Transform.Opacity = model.StaticInt(50)
	tree := build(t, composition(l), Options{})

	rec := canvas.NewRecorder(100, 100)
	if err := tree.Draw(rec, geom.Identity(), 255); err != nil {
		t.Fatal(err)
	}
	if n := len(ops(rec, "saveLayer")); n != 0 {
		t.Fatalf("%d offscreen layers for a plain layer", n)
	}
	paths := rec.Paths()
	if len(paths) != 1 {
		t.Fatalf("%d paths", len(paths))
	}
	b := paths[0].Shape.Bounds()
	if cx, cy := b.Center(); math.Abs(cx-30) > 1e-9 || math.Abs(cy-40) > 1e-9 {
		t.Fatalf("center = %v, %v", cx, cy)
	}
	if a := paths[0].Paint.Alpha(); a != 127 {
		t.Fatalf("alpha = %d", a)
	}
}

func TestDrawMasked(t *testing.T) {
	tests := []struct {
		name   string
		masks  []*model.Mask
		layers int
		paths  int
	}{
		{name: "add", masks: []*model.Mask{rectMask(model.MaskAdd, 0, 0, 50, 50)}, layers: 2, paths: 2},
		{name: "none only", masks: []*model.Mask{rectMask(model.MaskNone, 0, 0, 50, 50)}, layers: 0, paths: 1},
		{
			name:   "subtract",
			masks:  []*model.Mask{rectMask(model.MaskSubtract, 0, 0, 50, 50)},
			layers: 2,
			paths:  2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := shapeLayer("L", 1, circle("E", 50, 50, 80)...)
			l.Masks = tt.masks
			tree := build(t, composition(l), Options{})
			rec := canvas.NewRecorder(100, 100)
			if err := tree.Draw(rec, geom.Identity(), 255); err != nil {
				t.Fatal(err)
			}
			if n := len(ops(rec, "saveLayer")); n != tt.layers {
				t.Errorf("saveLayer = %d, want %d", n, tt.layers)
			}
			if n := len(rec.Paths()); n != tt.paths {
				t.Errorf("paths = %d, want %d", n, tt.paths)
			}
			if n, m := len(ops(rec, "save"))+len(ops(rec, "saveLayer")), len(ops(rec, "restore")); n != m {
				t.Errorf("unbalanced: %d saves, %d restores", n, m)
			}
		})
	}
}

func TestDrawMatte(t *testing.T) {
	tests := []struct {
		kind  model.MatteType
		blend string
	}{
		{model.MatteAdd, "dstIn"},
		{model.MatteInvert, "dstOut"},
		{model.MatteLuma, "dstIn"},
		{model.MatteLumaInverted, "dstOut"},
	}
	for _, tt := range tests {
		t.Run(tt.blend, func(t *testing.T) {
			matte := shapeLayer("Matte", 1, circle("E", 50, 50, 20)...)
			matte.IsMatte = true
			matted := shapeLayer("Content", 2, circle("E", 50, 50, 80)...)
			matted.MatteType = tt.kind
			tree := build(t, composition(matte, matted), Options{})
			rec := canvas.NewRecorder(100, 100)
			if err := tree.Draw(rec, geom.Identity(), 255); err != nil {
				t.Fatal(err)
			}
			layers := ops(rec, "saveLayer")
			if len(layers) != 2 || layers[1].Blend != tt.blend {
				t.Fatalf("layers = %+v", layers)
			}
			if n := len(rec.Paths()); n != 2 {
				t.Fatalf("paths = %d", n)
			}
			if tt.kind == model.MatteAdd && layers[0].Rect.Width > 22.5 {
				t.Fatalf("matte did not narrow the layer: %+v", layers[0].Rect)
			}
		})
	}
}

func TestPrecomp(t *testing.T) {
	inner := shapeLayer("Inner", 1, circle("E", 10, 10, 10)...)
	inner.InFrame, inner.OutFrame = 0, 30
	pre := &model.Layer{
		Name: "Pre", ID: 1, ParentID: -1, Type: model.LayerPrecomp, RefID: "p",
		Transform: &model.AnimatableTransform{}, TimeStretch: 1, StartFrame: 30,
		InFrame: 30, PrecompWidth: 50, PrecompHeight: 50,
	}
	comp := composition(pre)
	comp.Precomps["p"] = []*model.Layer{inner}
	tree := build(t, comp, Options{})

	children := tree.Layers()[0].Children()
	if len(children) != 1 || children[0].Name() != "Inner" {
		t.Fatalf("children = %v", layerNames(children))
	}
	// The precomp starts at frame 30, so the inner layer is visible from
	// there until frame 60.
	for _, tt := range []struct {
		progress float64
		visible  bool
	}{{0.25, false}, {0.75, true}} {
		tree.SetProgress(tt.progress)
		rec := canvas.NewRecorder(100, 100)
		if err := tree.Draw(rec, geom.Identity(), 255); err != nil {
			t.Fatal(err)
		}
		if got := len(rec.Paths()) == 1; got != tt.visible {
			t.Errorf("progress %v: visible = %v", tt.progress, got)
		}
	}
}

func TestPrecompSelfReference(t *testing.T) {
	pre := &model.Layer{
		Name: "Pre", ID: 1, ParentID: -1, Type: model.LayerPrecomp, RefID: "p",
		Transform: &model.AnimatableTransform{}, TimeStretch: 1,
	}
	comp := composition(pre)
	comp.Precomps["p"] = []*model.Layer{pre}
	tree := build(t, comp, Options{})
	if !hasWarning(tree, model.WarnMissingPrecomp) {
		t.Fatalf("warnings = %v", tree.Warnings())
	}
	if tree.Len() != 3 {
		t.Fatalf("Len = %d", tree.Len())
	}
}

func TestSolid(t *testing.T) {
	l := &model.Layer{
		Name: "S", ID: 1, ParentID: -1, Type: model.LayerSolid, TimeStretch: 1,
		Transform:  &model.AnimatableTransform{Opacity: model.StaticInt(50)},
		SolidWidth: 20, SolidHeight: 10, SolidColor: geom.ARGB(128, 255, 0, 0),
	}
	tree := build(t, composition(l), Options{})
	rec := canvas.NewRecorder(100, 100)
	if err := tree.Draw(rec, geom.Scale(2, 2), 255); err != nil {
		t.Fatal(err)
	}
	paths := rec.Paths()
	if len(paths) != 1 {
		t.Fatalf("paths = %d", len(paths))
	}
	if a := paths[0].Paint.Alpha(); a != 63 {
		t.Fatalf("alpha = %d", a)
	}
	if b := paths[0].Shape.Bounds(); b.Width != 40 || b.Height != 20 {
		t.Fatalf("bounds = %+v", b)
	}
}

func TestImage(t *testing.T) {
	newComp := func() *model.Composition {
		l := &model.Layer{
			Name: "I", ID: 1, ParentID: -1, Type: model.LayerImage, RefID: "img",
			Transform: &model.AnimatableTransform{}, TimeStretch: 1,
		}
		comp := composition(l)
		comp.Images["img"] = &model.ImageAsset{ID: "img", Width: 8, Height: 8}
		return comp
	}

	t.Run("provided", func(t *testing.T) {
		calls := 0
		images := ImageProviderFunc(func(*model.ImageAsset) (image.Image, error) {
			calls++
			return image.NewRGBA(image.Rect(0, 0, 4, 4)), nil
		})
		tree := build(t, newComp(), Options{Images: images})
		for range 2 {
			rec := canvas.NewRecorder(100, 100)
			if err := tree.Draw(rec, geom.Identity(), 255); err != nil {
				t.Fatal(err)
			}
			bm := ops(rec, "bitmap")
			if len(bm) != 1 || bm[0].Rect.Width != 8 || bm[0].ImageWidth != 4 {
				t.Fatalf("bitmaps = %+v", bm)
			}
		}
		if calls != 1 {
			t.Fatalf("provider called %d times", calls)
		}
	})

	t.Run("no provider", func(t *testing.T) {
		tree := build(t, newComp(), Options{})
		rec := canvas.NewRecorder(100, 100)
		if err := tree.Draw(rec, geom.Identity(), 255); err != nil {
			t.Fatal(err)
		}
		if len(ops(rec, "bitmap")) != 0 || !hasWarning(tree, model.WarnMissingImage) {
			t.Fatalf("commands = %+v warnings = %v", rec.Commands(), tree.Warnings())
		}
	})
}

func TestTextFontMode(t *testing.T) {
	doc := model.DocumentData{
		Text: "ab\rcd", FontName: "Sans", Size: 10, Justification: model.JustifyCenter,
		FillColor: geom.ARGB(255, 255, 0, 0),
	}
	l := &model.Layer{
		Name: "T", ID: 1, ParentID: -1, Type: model.LayerText, TimeStretch: 1,
		Transform: &model.AnimatableTransform{},
		Text:      &model.AnimatableText{Keyframes: []*keyframe.Keyframe[model.DocumentData]{keyframe.Static(doc)}},
	}
	tree := build(t, composition(l), Options{})
	rec := canvas.NewRecorder(100, 100)
	if err := tree.Draw(rec, geom.Identity(), 255); err != nil {
		t.Fatal(err)
	}
	glyphs := ops(rec, "glyph")
	if len(glyphs) != 2 || glyphs[0].Text != "ab" || glyphs[1].Text != "cd" {
		t.Fatalf("glyphs = %+v", glyphs)
	}
	// Centered: "ab" is 12 wide at 0.6 em.
	if x := glyphs[0].Transform[4]; x != -6 {
		t.Fatalf("x = %v", x)
	}
	if y := glyphs[1].Transform[5]; y != 12 {
		t.Fatalf("second line y = %v", y)
	}
	if !hasWarning(tree, model.WarnMissingFont) {
		t.Fatal("expected a missing font warning")
	}

	if !tree.Layers()[0].ApplyValueCallback(keypath.Color, keyframe.Constant(geom.ARGB(255, 0, 0, 255))) {
		t.Fatal("color callback rejected")
	}
	rec.Reset()
	if err := tree.Draw(rec, geom.Identity(), 255); err != nil {
		t.Fatal(err)
	}
	if c := ops(rec, "glyph")[0].Paint.Color; c != geom.ARGB(255, 0, 0, 255) {
		t.Fatalf("color = %s", c.Hex())
	}
}

func TestResolveKeyPath(t *testing.T) {
	a := shapeLayer("A", 1, circle("E", 50, 50, 20)...)
	b := shapeLayer("B", 2, circle("E", 50, 50, 20)...)
	tree := build(t, composition(a, b), Options{})

	tests := []struct {
		path string
		want int
	}{
		{"A", 1},
		{"*", 2},
		{"A.E", 1},
		{"*.Fill", 2},
		{"**.Fill", 2},
		{"C", 0},
	}
	for _, tt := range tests {
		if got := tree.ResolveKeyPath(keypath.Parse(tt.path)); len(got) != tt.want {
			t.Errorf("%s resolved %d, want %d", tt.path, len(got), tt.want)
		}
	}

	res := tree.ResolveKeyPath(keypath.Parse("A"))
	if !res[0].Element().ApplyValueCallback(keypath.TransformOpacity, keyframe.Constant(50)) {
		t.Fatal("opacity callback rejected")
	}
	rec := canvas.NewRecorder(100, 100)
	if err := tree.Draw(rec, geom.Identity(), 255); err != nil {
		t.Fatal(err)
	}
	var alphas []uint8
	for _, p := range rec.Paths() {
		alphas = append(alphas, p.Paint.Alpha())
	}
	if len(alphas) != 2 || alphas[0] != 255 || alphas[1] != 127 {
		t.Fatalf("alphas = %v", alphas)
	}
}
