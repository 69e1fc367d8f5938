package parse

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/inamate/motion/internal/geom"
	"github.com/inamate/motion/internal/keyframe"
	"github.com/inamate/motion/internal/model"
)

type rawText struct {
	Document struct {
		Keyframes []struct {
			Start rawDocument `json:"s"`
			Time  float64     `json:"t"`
		} `json:"k"`
	} `json:"d"`
	Animators []struct {
		Properties struct {
			FillColor   *rawProp `json:"fc"`
			StrokeColor *rawProp `json:"sc"`
			StrokeWidth *rawProp `json:"sw"`
			Tracking    *rawProp `json:"t"`
		} `json:"a"`
	} `json:"a"`
}

type rawDocument struct {
	Text           string    `json:"t"`
	Font           string    `json:"f"`
	Size           float64   `json:"s"`
	Justification  int       `json:"j"`
	Tracking       float64   `json:"tr"`
	LineHeight     float64   `json:"lh"`
	BaselineShift  float64   `json:"ls"`
	FillColor      []float64 `json:"fc"`
	StrokeColor    []float64 `json:"sc"`
	StrokeWidth    float64   `json:"sw"`
	StrokeOverFill flexBool  `json:"of"`
}

type rawFont struct {
	Family string  `json:"fFamily"`
	Name   string  `json:"fName"`
	Style  string  `json:"fStyle"`
	Ascent float64 `json:"ascent"`
}

func (f rawFont) model() *model.Font {
	return &model.Font{Family: f.Family, Name: f.Name, Style: f.Style, Ascent: f.Ascent}
}

type rawChar struct {
	Char   string  `json:"ch"`
	Size   float64 `json:"size"`
	Width  float64 `json:"w"`
	Style  string  `json:"style"`
	Family string  `json:"fFamily"`
	Data   struct {
		Shapes []json.RawMessage `json:"shapes"`
	} `json:"data"`
}

func (p *parser) text(l *model.Layer, r *rawText) error {
	kfs := make([]*keyframe.Keyframe[model.DocumentData], 0, len(r.Document.Keyframes))
	for _, k := range r.Document.Keyframes {
		doc := k.Start.model()
		kf := keyframe.New(p.timing, k.Time, doc)
		kf.EndValue, kf.HasEndValue = doc, true
		kf.Interpolator = keyframe.HoldInterpolator{}
		kfs = append(kfs, kf)
	}
	if len(kfs) == 0 {
		return fmt.Errorf("text layer without a document")
	}
	l.Text = &model.AnimatableText{Keyframes: keyframe.SetEndFrames(kfs)}

	if len(r.Animators) == 0 {
		return nil
	}
	a := r.Animators[0].Properties
	props := &model.TextProperties{}
	var err error
	if props.Color, err = p.color(l.Name+".text.fill", a.FillColor); err != nil {
		return err
	}
	if props.Stroke, err = p.color(l.Name+".text.stroke", a.StrokeColor); err != nil {
		return err
	}
	if props.StrokeWidth, err = p.float(l.Name+".text.strokeWidth", a.StrokeWidth); err != nil {
		return err
	}
	if props.Tracking, err = p.float(l.Name+".text.tracking", a.Tracking); err != nil {
		return err
	}
	l.TextProperties = props
	return nil
}

func (d rawDocument) model() model.DocumentData {
	doc := model.DocumentData{
		Text:           d.Text,
		FontName:       d.Font,
		Size:           d.Size,
		Tracking:       d.Tracking,
		LineHeight:     d.LineHeight,
		BaselineShift:  d.BaselineShift,
		StrokeWidth:    d.StrokeWidth,
		StrokeOverFill: bool(d.StrokeOverFill),
		FillColor:      rgbColor(d.FillColor),
		StrokeColor:    rgbColor(d.StrokeColor),
	}
	switch d.Justification {
	case 1:
		doc.Justification = model.JustifyRight
	case 2:
		doc.Justification = model.JustifyCenter
	default:
		doc.Justification = model.JustifyLeft
	}
	return doc
}

// rgbColor reads an opaque [r, g, b] color with channels in 0..1. A missing
// color is transparent.
func rgbColor(c []float64) geom.Color {
	if len(c) < 3 {
		return 0
	}
	ch := func(v float64) uint8 { return uint8(geom.Clamp(math.Round(v*255), 0, 255)) }
	return geom.ARGB(255, ch(c[0]), ch(c[1]), ch(c[2]))
}

func (p *parser) character(r rawChar) (*model.FontCharacter, error) {
	c := &model.FontCharacter{Char: r.Char, Size: r.Size, Width: r.Width, Style: r.Style, Family: r.Family}
	items, err := p.shapes(r.Data.Shapes)
	if err != nil {
		return nil, fmt.Errorf("character %q: %w", r.Char, err)
	}
	for _, s := range items {
		if g, ok := s.(*model.ShapeGroup); ok {
			c.Shapes = append(c.Shapes, g)
		}
	}
	return c, nil
}
