package parse

import (
	"encoding/json"
	"fmt"

	"github.com/inamate/motion/internal/geom"
	"github.com/inamate/motion/internal/model"
)

type rawShapeHeader struct {
	Type   string   `json:"ty"`
	Name   string   `json:"nm"`
	Hidden flexBool `json:"hd"`
}

func (h rawShapeHeader) meta() model.ShapeMeta {
	return model.ShapeMeta{Name: h.Name, Hidden: bool(h.Hidden)}
}

type rawGroup struct {
	Items []json.RawMessage `json:"it"`
}

type rawPath struct {
	Shape *rawProp `json:"ks"`
	Index int      `json:"ind"`
}

type rawFill struct {
	Color   *rawProp `json:"c"`
	Opacity *rawProp `json:"o"`
	Rule    int      `json:"r"`
}

type rawDash struct {
	Kind  string  `json:"n"`
	Value rawProp `json:"v"`
}

type rawStrokeStyle struct {
	Width      *rawProp  `json:"w"`
	Opacity    *rawProp  `json:"o"`
	Cap        int       `json:"lc"`
	Join       int       `json:"lj"`
	MiterLimit float64   `json:"ml"`
	Dashes     []rawDash `json:"d"`
}

type rawStroke struct {
	rawStrokeStyle
	Color *rawProp `json:"c"`
}

type rawGradientPaint struct {
	Type            int          `json:"t"`
	Colors          *rawGradient `json:"g"`
	Start           *rawProp     `json:"s"`
	End             *rawProp     `json:"e"`
	HighlightLength *rawProp     `json:"h"`
	HighlightAngle  *rawProp     `json:"a"`
}

type rawGradientFill struct {
	rawGradientPaint
	Opacity *rawProp `json:"o"`
	Rule    int      `json:"r"`
}

type rawGradientStroke struct {
	rawGradientPaint
	rawStrokeStyle
}

type rawEllipse struct {
	Position  *rawProp `json:"p"`
	Size      *rawProp `json:"s"`
	Direction int      `json:"d"`
}

type rawRect struct {
	Position  *rawProp `json:"p"`
	Size      *rawProp `json:"s"`
	Radius    *rawProp `json:"r"`
	Direction int      `json:"d"`
}

type rawPolystar struct {
	Kind           int      `json:"sy"`
	Points         *rawProp `json:"pt"`
	Position       *rawProp `json:"p"`
	Rotation       *rawProp `json:"r"`
	OuterRadius    *rawProp `json:"or"`
	OuterRoundness *rawProp `json:"os"`
	InnerRadius    *rawProp `json:"ir"`
	InnerRoundness *rawProp `json:"is"`
	Direction      int      `json:"d"`
}

type rawRepeater struct {
	Copies    *rawProp      `json:"c"`
	Offset    *rawProp      `json:"o"`
	Transform *rawTransform `json:"tr"`
}

type rawMerge struct {
	Mode int `json:"mm"`
}

type rawTrim struct {
	Start  *rawProp `json:"s"`
	End    *rawProp `json:"e"`
	Offset *rawProp `json:"o"`
	Mode   int      `json:"m"`
}

// shapes parses a content list. Group transforms ("tr") are returned
// separately; a list may carry at most one that matters, the last.
func (p *parser) shapes(raws []json.RawMessage) ([]model.Shape, error) {
	items, _, err := p.shapeItems(raws)
	return items, err
}

func (p *parser) shapeItems(raws []json.RawMessage) ([]model.Shape, *model.AnimatableTransform, error) {
	var (
		out []model.Shape
		tr  *model.AnimatableTransform
	)
	for i, raw := range raws {
		var h rawShapeHeader
		if err := json.Unmarshal(raw, &h); err != nil {
			return nil, nil, fmt.Errorf("shape %d: %w", i, err)
		}
		if h.Type == "tr" {
			var rt rawTransform
			if err := json.Unmarshal(raw, &rt); err != nil {
				return nil, nil, fmt.Errorf("shape %d transform: %w", i, err)
			}
			t, err := p.transform(h.Name, &rt)
			if err != nil {
				return nil, nil, err
			}
			tr = t
			continue
		}
		s, err := p.shapeItem(h, raw)
		if err != nil {
			return nil, nil, fmt.Errorf("shape %q: %w", h.Name, err)
		}
		if s != nil {
			out = append(out, s)
		}
	}
	return out, tr, nil
}

func (p *parser) shapeItem(h rawShapeHeader, raw json.RawMessage) (model.Shape, error) {
	meta := h.meta()
	switch h.Type {
	case "gr":
		var r rawGroup
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, err
		}
		items, tr, err := p.shapeItems(r.Items)
		if err != nil {
			return nil, err
		}
		return &model.ShapeGroup{ShapeMeta: meta, Items: items, Transform: tr}, nil

	case "sh":
		var r rawPath
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, err
		}
		s, err := p.shape(h.Name, r.Shape)
		if err != nil {
			return nil, err
		}
		if s == nil {
			return nil, fmt.Errorf("path without vertices")
		}
		return &model.ShapePath{ShapeMeta: meta, Index: r.Index, Shape: s}, nil

	case "fl":
		var r rawFill
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, err
		}
		f := &model.Fill{ShapeMeta: meta, FillType: fillType(r.Rule)}
		var err error
		if f.Color, err = p.color(h.Name+".color", r.Color); err != nil {
			return nil, err
		}
		if f.Opacity, err = p.integer(h.Name+".opacity", r.Opacity); err != nil {
			return nil, err
		}
		if f.Color == nil {
			f.Color = model.StaticColor(geom.ARGB(255, 0, 0, 0))
		}
		if f.Opacity == nil {
			f.Opacity = model.StaticInt(100)
		}
		return f, nil

	case "st":
		var r rawStroke
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, err
		}
		s := &model.Stroke{ShapeMeta: meta}
		var err error
		if s.StrokeStyle, err = p.strokeStyle(h.Name, &r.rawStrokeStyle); err != nil {
			return nil, err
		}
		if s.Color, err = p.color(h.Name+".color", r.Color); err != nil {
			return nil, err
		}
		if s.Color == nil {
			s.Color = model.StaticColor(geom.ARGB(255, 0, 0, 0))
		}
		return s, nil

	case "gf":
		var r rawGradientFill
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, err
		}
		g := &model.GradientFill{ShapeMeta: meta, FillType: fillType(r.Rule)}
		var err error
		if g.GradientPaint, err = p.gradientPaint(h.Name, &r.rawGradientPaint); err != nil {
			return nil, err
		}
		if g.Opacity, err = p.integer(h.Name+".opacity", r.Opacity); err != nil {
			return nil, err
		}
		if g.Opacity == nil {
			g.Opacity = model.StaticInt(100)
		}
		return g, nil

	case "gs":
		var r rawGradientStroke
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, err
		}
		g := &model.GradientStroke{ShapeMeta: meta}
		var err error
		if g.GradientPaint, err = p.gradientPaint(h.Name, &r.rawGradientPaint); err != nil {
			return nil, err
		}
		if g.StrokeStyle, err = p.strokeStyle(h.Name, &r.rawStrokeStyle); err != nil {
			return nil, err
		}
		return g, nil

	case "el":
		var r rawEllipse
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, err
		}
		e := &model.Ellipse{ShapeMeta: meta, Reversed: r.Direction == 3}
		var err error
		if e.Position, err = p.position(h.Name+".position", r.Position); err != nil {
			return nil, err
		}
		if e.Size, err = p.point(h.Name+".size", r.Size); err != nil {
			return nil, err
		}
		if e.Size == nil {
			return nil, fmt.Errorf("ellipse without size")
		}
		return e, nil

	case "rc":
		var r rawRect
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, err
		}
		rc := &model.Rectangle{ShapeMeta: meta, Reversed: r.Direction == 3}
		var err error
		if rc.Position, err = p.position(h.Name+".position", r.Position); err != nil {
			return nil, err
		}
		if rc.Size, err = p.point(h.Name+".size", r.Size); err != nil {
			return nil, err
		}
		if rc.Radius, err = p.float(h.Name+".radius", r.Radius); err != nil {
			return nil, err
		}
		if rc.Size == nil {
			return nil, fmt.Errorf("rectangle without size")
		}
		return rc, nil

	case "sr":
		var r rawPolystar
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, err
		}
		ps := &model.Polystar{ShapeMeta: meta, Kind: model.StarTypeStar, Reversed: r.Direction == 3}
		if r.Kind == 2 {
			ps.Kind = model.StarTypePolygon
		}
		var err error
		if ps.Points, err = p.float(h.Name+".points", r.Points); err != nil {
			return nil, err
		}
		if ps.Position, err = p.position(h.Name+".position", r.Position); err != nil {
			return nil, err
		}
		if ps.Rotation, err = p.float(h.Name+".rotation", r.Rotation); err != nil {
			return nil, err
		}
		if ps.OuterRadius, err = p.float(h.Name+".outerRadius", r.OuterRadius); err != nil {
			return nil, err
		}
		if ps.OuterRoundness, err = p.float(h.Name+".outerRoundness", r.OuterRoundness); err != nil {
			return nil, err
		}
		if ps.Kind == model.StarTypeStar {
			if ps.InnerRadius, err = p.float(h.Name+".innerRadius", r.InnerRadius); err != nil {
				return nil, err
			}
			if ps.InnerRoundness, err = p.float(h.Name+".innerRoundness", r.InnerRoundness); err != nil {
				return nil, err
			}
		}
		if ps.Points == nil || ps.OuterRadius == nil {
			return nil, fmt.Errorf("polystar without points or radius")
		}
		return ps, nil

	case "rp":
		var r rawRepeater
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, err
		}
		rp := &model.Repeater{ShapeMeta: meta}
		var err error
		if rp.Copies, err = p.float(h.Name+".copies", r.Copies); err != nil {
			return nil, err
		}
		if rp.Offset, err = p.float(h.Name+".offset", r.Offset); err != nil {
			return nil, err
		}
		if r.Transform != nil {
			if rp.Transform, err = p.transform(h.Name, r.Transform); err != nil {
				return nil, err
			}
		}
		if rp.Copies == nil {
			rp.Copies = model.StaticFloat(1)
		}
		if rp.Offset == nil {
			rp.Offset = model.StaticFloat(0)
		}
		if rp.Transform == nil {
			rp.Transform = &model.AnimatableTransform{}
		}
		return rp, nil

	case "mm":
		var r rawMerge
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, err
		}
		mode := model.MergeMerge
		if r.Mode >= 1 && r.Mode <= 5 {
			mode = model.MergeMode(r.Mode - 1)
		}
		return &model.MergePaths{ShapeMeta: meta, Mode: mode}, nil

	case "tm":
		var r rawTrim
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, err
		}
		t := &model.TrimPath{ShapeMeta: meta, Kind: model.TrimSimultaneously}
		if r.Mode == 2 {
			t.Kind = model.TrimIndividually
		}
		var err error
		if t.Start, err = p.float(h.Name+".start", r.Start); err != nil {
			return nil, err
		}
		if t.End, err = p.float(h.Name+".end", r.End); err != nil {
			return nil, err
		}
		if t.Offset, err = p.float(h.Name+".offset", r.Offset); err != nil {
			return nil, err
		}
		if t.Start == nil {
			t.Start = model.StaticFloat(0)
		}
		if t.End == nil {
			t.End = model.StaticFloat(100)
		}
		if t.Offset == nil {
			t.Offset = model.StaticFloat(0)
		}
		return t, nil
	}

	p.warn(model.WarnUnknownShape, "unsupported shape type %q (%s)", h.Type, h.Name)
	return nil, nil
}

func fillType(rule int) geom.FillType {
	if rule == 2 {
		return geom.EvenOdd
	}
	return geom.Winding
}

func (p *parser) strokeStyle(name string, r *rawStrokeStyle) (model.StrokeStyle, error) {
	s := model.StrokeStyle{MiterLimit: r.MiterLimit}
	switch r.Cap {
	case 2:
		s.Cap = model.CapRound
	case 3:
		s.Cap = model.CapSquare
	default:
		s.Cap = model.CapButt
	}
	switch r.Join {
	case 2:
		s.Join = model.JoinRound
	case 3:
		s.Join = model.JoinBevel
	default:
		s.Join = model.JoinMiter
	}
	if s.MiterLimit == 0 {
		s.MiterLimit = 4
	}

	var err error
	if s.Width, err = p.float(name+".width", r.Width); err != nil {
		return s, err
	}
	if s.Opacity, err = p.integer(name+".opacity", r.Opacity); err != nil {
		return s, err
	}
	if s.Width == nil {
		s.Width = model.StaticFloat(1)
	}
	if s.Opacity == nil {
		s.Opacity = model.StaticInt(100)
	}

	for i := range r.Dashes {
		d := &r.Dashes[i]
		v, err := p.float(fmt.Sprintf("%s.dash.%d", name, i), &d.Value)
		if err != nil {
			return s, err
		}
		if v == nil {
			continue
		}
		switch d.Kind {
		case "o":
			s.DashOffset = v
		case "d", "g":
			s.Dashes = append(s.Dashes, v)
		}
	}
	// A lone dash length doubles as its gap.
	if len(s.Dashes) == 1 {
		s.Dashes = append(s.Dashes, s.Dashes[0])
	}
	return s, nil
}

func (p *parser) gradientPaint(name string, r *rawGradientPaint) (model.GradientPaint, error) {
	g := model.GradientPaint{Type: model.GradientLinear}
	if r.Type == 2 {
		g.Type = model.GradientRadial
	}
	var err error
	if g.Colors, err = p.gradient(name+".colors", r.Colors); err != nil {
		return g, err
	}
	if g.Start, err = p.point(name+".start", r.Start); err != nil {
		return g, err
	}
	if g.End, err = p.point(name+".end", r.End); err != nil {
		return g, err
	}
	if g.HighlightLength, err = p.float(name+".highlightLength", r.HighlightLength); err != nil {
		return g, err
	}
	if g.HighlightAngle, err = p.float(name+".highlightAngle", r.HighlightAngle); err != nil {
		return g, err
	}
	if g.Colors == nil || g.Start == nil || g.End == nil {
		return g, fmt.Errorf("gradient needs colors, start and end")
	}
	return g, nil
}
