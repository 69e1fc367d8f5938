package model

import (
	"github.com/inamate/motion/internal/geom"
	"github.com/inamate/motion/internal/keyframe"
)

type Justification int

const (
	JustifyLeft Justification = iota
	JustifyRight
	JustifyCenter
)

// DocumentData is the text and styling of a text layer at one keyframe.
type DocumentData struct {
	Text           string
	FontName       string
	Size           float64
	Justification  Justification
	Tracking       float64
	LineHeight     float64
	BaselineShift  float64
	FillColor      geom.Color
	StrokeColor    geom.Color
	StrokeWidth    float64
	StrokeOverFill bool
}

// AnimatableText swaps whole documents at keyframe boundaries.
type AnimatableText struct {
	Keyframes []*keyframe.Keyframe[DocumentData]
}

func (a *AnimatableText) Create() *keyframe.Animation[DocumentData, DocumentData] {
	return keyframe.NewDiscrete(a.Keyframes)
}

// TextProperties are the animated overrides of a text animator. Any field
// may be nil.
type TextProperties struct {
	Color       *AnimatableColor
	Stroke      *AnimatableColor
	StrokeWidth *AnimatableFloat
	Tracking    *AnimatableFloat
}

type Font struct {
	Family string
	Name   string
	Style  string
	Ascent float64
}

// CharKey identifies a glyph outline.
type CharKey struct {
	Char   string
	Family string
	Style  string
}

// FontCharacter is a glyph drawn from vector shapes.
type FontCharacter struct {
	Shapes []*ShapeGroup
	Char   string
	Size   float64
	Width  float64
	Style  string
	Family string
}

func (c *FontCharacter) Key() CharKey {
	return CharKey{Char: c.Char, Family: c.Family, Style: c.Style}
}
