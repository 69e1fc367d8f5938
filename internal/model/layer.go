package model

import "github.com/inamate/motion/internal/geom"

type LayerType int

const (
	LayerPrecomp LayerType = iota
	LayerSolid
	LayerImage
	LayerNull
	LayerShape
	LayerText
	LayerUnknown
)

var layerTypeNames = [...]string{"precomp", "solid", "image", "null", "shape", "text", "unknown"}

func (t LayerType) String() string {
	if t < 0 || int(t) >= len(layerTypeNames) {
		return "unknown"
	}
	return layerTypeNames[t]
}

type MatteType int

const (
	MatteNone MatteType = iota
	MatteAdd
	MatteInvert
	MatteLuma
	MatteLumaInverted
	MatteUnknown
)

// BlendMode is the layer blend mode as authored.
type BlendMode int

const (
	BlendNormal BlendMode = iota
	BlendMultiply
	BlendScreen
	BlendOverlay
	BlendDarken
	BlendLighten
	BlendColorDodge
	BlendColorBurn
	BlendHardLight
	BlendSoftLight
	BlendDifference
	BlendExclusion
	BlendHue
	BlendSaturation
	BlendColor
	BlendLuminosity
	BlendAdd
	BlendHardMix
)

type Layer struct {
	Name     string
	ID       int64
	ParentID int64
	Type     LayerType
	// RefID names the precomp or image asset this layer draws.
	RefID string

	Transform *AnimatableTransform
	Masks     []*Mask
	MatteType MatteType
	// IsMatte marks a layer that only serves as the matte of the next one.
	IsMatte   bool
	BlendMode BlendMode
	Hidden    bool

	Shapes []Shape

	TimeStretch float64
	StartFrame  float64
	// InFrame and OutFrame are already divided by TimeStretch.
	InFrame  float64
	OutFrame float64

	PrecompWidth  float64
	PrecompHeight float64
	TimeRemap     *AnimatableFloat

	SolidWidth  float64
	SolidHeight float64
	SolidColor  geom.Color

	Text           *AnimatableText
	TextProperties *TextProperties
}

// HasMasks reports whether any mask will be applied.
func (l *Layer) HasMasks() bool {
	return len(l.Masks) > 0
}

type MaskMode int

const (
	MaskAdd MaskMode = iota
	MaskSubtract
	MaskIntersect
	MaskNone
)

func (m MaskMode) String() string {
	switch m {
	case MaskAdd:
		return "add"
	case MaskSubtract:
		return "subtract"
	case MaskIntersect:
		return "intersect"
	}
	return "none"
}

type Mask struct {
	Mode     MaskMode
	Path     *AnimatableShape
	Opacity  *AnimatableInt
	Inverted bool
}
