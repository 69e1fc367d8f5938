package parse

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/inamate/motion/internal/geom"
	"github.com/inamate/motion/internal/model"
)

type rawLayer struct {
	Name        string            `json:"nm"`
	Index       *int64            `json:"ind"`
	Parent      *int64            `json:"parent"`
	Type        int               `json:"ty"`
	RefID       string            `json:"refId"`
	Transform   *rawTransform     `json:"ks"`
	Masks       []rawMask         `json:"masksProperties"`
	MatteType   int               `json:"tt"`
	IsMatte     flexBool          `json:"td"`
	Shapes      []json.RawMessage `json:"shapes"`
	TimeStretch *float64          `json:"sr"`
	StartFrame  float64           `json:"st"`
	InPoint     float64           `json:"ip"`
	OutPoint    float64           `json:"op"`
	Width       float64           `json:"w"`
	Height      float64           `json:"h"`
	SolidWidth  float64           `json:"sw"`
	SolidHeight float64           `json:"sh"`
	SolidColor  string            `json:"sc"`
	Text        *rawText          `json:"t"`
	TimeRemap   *rawProp          `json:"tm"`
	Hidden      flexBool          `json:"hd"`
	BlendMode   int               `json:"bm"`
	Effects     []json.RawMessage `json:"ef"`
	Class       string            `json:"cl"`
}

type rawTransform struct {
	Anchor       *rawProp `json:"a"`
	Position     *rawProp `json:"p"`
	Scale        *rawProp `json:"s"`
	Rotation     *rawProp `json:"r"`
	RotationZ    *rawProp `json:"rz"`
	Opacity      *rawProp `json:"o"`
	StartOpacity *rawProp `json:"so"`
	EndOpacity   *rawProp `json:"eo"`
	Skew         *rawProp `json:"sk"`
}

type rawMask struct {
	Mode     string   `json:"mode"`
	Path     *rawProp `json:"pt"`
	Opacity  *rawProp `json:"o"`
	Inverted flexBool `json:"inv"`
}

func (p *parser) layer(data json.RawMessage) (*model.Layer, error) {
	var r rawLayer
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	l := &model.Layer{
		Name:          r.Name,
		ID:            -1,
		ParentID:      -1,
		RefID:         r.RefID,
		IsMatte:       bool(r.IsMatte),
		Hidden:        bool(r.Hidden),
		TimeStretch:   1,
		StartFrame:    r.StartFrame,
		PrecompWidth:  r.Width,
		PrecompHeight: r.Height,
		SolidWidth:    r.SolidWidth,
		SolidHeight:   r.SolidHeight,
	}
	if r.Index != nil {
		l.ID = *r.Index
	}
	if r.Parent != nil {
		l.ParentID = *r.Parent
	}
	if r.TimeStretch != nil && *r.TimeStretch != 0 {
		l.TimeStretch = *r.TimeStretch
	}
	// In and out points arrive pre-scaled by the time stretch, which the
	// layer tree applies again.
	l.InFrame = r.InPoint / l.TimeStretch
	l.OutFrame = r.OutPoint / l.TimeStretch

	switch r.Type {
	case 0:
		l.Type = model.LayerPrecomp
	case 1:
		l.Type = model.LayerSolid
	case 2:
		l.Type = model.LayerImage
	case 3:
		l.Type = model.LayerNull
	case 4:
		l.Type = model.LayerShape
	case 5:
		l.Type = model.LayerText
	default:
		l.Type = model.LayerUnknown
		p.warn(model.WarnUnknownLayer, "layer %q has unsupported type %d", r.Name, r.Type)
	}

	if strings.HasSuffix(r.Name, ".ai") || r.Class == "ai" {
		p.warn(model.WarnIllustratorLayer, "layer %q is an Illustrator layer; convert it to a shape layer", r.Name)
	}
	if len(r.Effects) > 0 {
		p.warn(model.WarnEffects, "layer %q has effects, which are not supported", r.Name)
	}

	if r.SolidColor != "" {
		c, err := parseHexColor(r.SolidColor)
		if err != nil {
			return nil, fmt.Errorf("layer %q solid color: %w", r.Name, err)
		}
		l.SolidColor = c
	}

	switch r.MatteType {
	case 0:
	case 1:
		l.MatteType = model.MatteAdd
	case 2:
		l.MatteType = model.MatteInvert
	case 3:
		l.MatteType = model.MatteLuma
		p.warn(model.WarnLumaMatte, "layer %q uses a luma matte, drawn as an alpha matte", r.Name)
	case 4:
		l.MatteType = model.MatteLumaInverted
		p.warn(model.WarnLumaMatte, "layer %q uses an inverted luma matte, drawn as an inverted alpha matte", r.Name)
	default:
		l.MatteType = model.MatteUnknown
	}

	if r.BlendMode >= 0 && r.BlendMode <= int(model.BlendHardMix) {
		l.BlendMode = model.BlendMode(r.BlendMode)
	}

	var err error
	if r.Transform == nil {
		p.warn(model.WarnMissingTransform, "layer %q has no transform", r.Name)
		l.Transform = &model.AnimatableTransform{}
	} else if l.Transform, err = p.transform(r.Name, r.Transform); err != nil {
		return nil, fmt.Errorf("layer %q: %w", r.Name, err)
	}

	for i, m := range r.Masks {
		mask, err := p.mask(r.Name, m)
		if err != nil {
			return nil, fmt.Errorf("layer %q mask %d: %w", r.Name, i, err)
		}
		l.Masks = append(l.Masks, mask)
	}

	if l.Shapes, err = p.shapes(r.Shapes); err != nil {
		return nil, fmt.Errorf("layer %q: %w", r.Name, err)
	}

	if l.TimeRemap, err = p.float(r.Name+".timeRemap", r.TimeRemap); err != nil {
		return nil, err
	}

	if r.Text != nil {
		if err := p.text(l, r.Text); err != nil {
			return nil, fmt.Errorf("layer %q: %w", r.Name, err)
		}
	}
	return l, nil
}

func (p *parser) transform(name string, r *rawTransform) (*model.AnimatableTransform, error) {
	t := &model.AnimatableTransform{}
	var err error
	if t.Anchor, err = p.position(name+".anchor", r.Anchor); err != nil {
		return nil, err
	}
	if t.Position, err = p.position(name+".position", r.Position); err != nil {
		return nil, err
	}
	if t.Scale, err = p.scale(name+".scale", r.Scale); err != nil {
		return nil, err
	}
	rot := r.Rotation
	if rot == nil {
		rot = r.RotationZ
	}
	if t.Rotation, err = p.float(name+".rotation", rot); err != nil {
		return nil, err
	}
	if t.Opacity, err = p.integer(name+".opacity", r.Opacity); err != nil {
		return nil, err
	}
	if t.StartOpacity, err = p.float(name+".startOpacity", r.StartOpacity); err != nil {
		return nil, err
	}
	if t.EndOpacity, err = p.float(name+".endOpacity", r.EndOpacity); err != nil {
		return nil, err
	}

	skew, err := p.float(name+".skew", r.Skew)
	if err != nil {
		return nil, err
	}
	if skew != nil && !staticZero(skew) {
		p.warn(model.WarnSkew, "%s: skew is not supported", name)
	}
	return t, nil
}

func staticZero(a *model.AnimatableFloat) bool {
	if len(a.Keyframes) != 1 {
		return false
	}
	kf := a.Keyframes[0]
	return kf.IsStatic() && kf.StartValue == 0
}

func (p *parser) mask(layer string, r rawMask) (*model.Mask, error) {
	m := &model.Mask{Inverted: bool(r.Inverted)}
	switch r.Mode {
	case "a":
		m.Mode = model.MaskAdd
	case "s":
		m.Mode = model.MaskSubtract
	case "i":
		m.Mode = model.MaskIntersect
	case "n":
		m.Mode = model.MaskNone
	default:
		p.warn(model.WarnMaskMode, "layer %q: unsupported mask mode %q, using add", layer, r.Mode)
		m.Mode = model.MaskAdd
	}
	var err error
	if m.Path, err = p.shape(layer+".mask", r.Path); err != nil {
		return nil, err
	}
	if m.Path == nil {
		return nil, fmt.Errorf("mask without path")
	}
	if m.Opacity, err = p.integer(layer+".mask.opacity", r.Opacity); err != nil {
		return nil, err
	}
	if m.Opacity == nil {
		m.Opacity = model.StaticInt(100)
	}
	return m, nil
}

// parseHexColor reads #rrggbb or #aarrggbb.
func parseHexColor(s string) (geom.Color, error) {
	h := strings.TrimPrefix(s, "#")
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("color %q: %w", s, err)
	}
	switch len(h) {
	case 6:
		return geom.Color(0xff000000 | uint32(v)), nil
	case 8:
		return geom.Color(uint32(v)), nil
	}
	return 0, fmt.Errorf("color %q: want 6 or 8 hex digits", s)
}
