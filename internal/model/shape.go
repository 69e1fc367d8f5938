package model

import "github.com/inamate/motion/internal/geom"

// Shape is one entry of a shape layer's content list.
type Shape interface {
	ShapeName() string
	IsHidden() bool
}

// ShapeMeta carries the fields every shape has.
type ShapeMeta struct {
	Name   string
	Hidden bool
}

func (m ShapeMeta) ShapeName() string { return m.Name }
func (m ShapeMeta) IsHidden() bool    { return m.Hidden }

type ShapeGroup struct {
	ShapeMeta
	Items     []Shape
	Transform *AnimatableTransform
}

type ShapePath struct {
	ShapeMeta
	Index int
	Shape *AnimatableShape
}

type Fill struct {
	ShapeMeta
	FillType geom.FillType
	Color    *AnimatableColor
	Opacity  *AnimatableInt
}

type LineCap int

const (
	CapButt LineCap = iota
	CapRound
	CapSquare
)

type LineJoin int

const (
	JoinMiter LineJoin = iota
	JoinRound
	JoinBevel
)

// StrokeStyle is shared by solid and gradient strokes.
type StrokeStyle struct {
	Width      *AnimatableFloat
	Opacity    *AnimatableInt
	Cap        LineCap
	Join       LineJoin
	MiterLimit float64
	// Dashes alternates dash and gap lengths.
	Dashes     []*AnimatableFloat
	DashOffset *AnimatableFloat
}

type Stroke struct {
	ShapeMeta
	StrokeStyle
	Color *AnimatableColor
}

type GradientType int

const (
	GradientLinear GradientType = iota
	GradientRadial
)

// GradientPaint describes the shader of a gradient fill or stroke.
type GradientPaint struct {
	Type   GradientType
	Colors *AnimatableGradient
	Start  *AnimatablePoint
	End    *AnimatablePoint
	// HighlightLength and HighlightAngle move the focal point of radial
	// gradients.
	HighlightLength *AnimatableFloat
	HighlightAngle  *AnimatableFloat
}

type GradientFill struct {
	ShapeMeta
	GradientPaint
	FillType geom.FillType
	Opacity  *AnimatableInt
}

type GradientStroke struct {
	ShapeMeta
	GradientPaint
	StrokeStyle
}

type Ellipse struct {
	ShapeMeta
	Position AnimatablePosition
	Size     *AnimatablePoint
	Reversed bool
}

type Rectangle struct {
	ShapeMeta
	Position AnimatablePosition
	Size     *AnimatablePoint
	Radius   *AnimatableFloat
	Reversed bool
}

type StarType int

const (
	StarTypeStar StarType = iota
	StarTypePolygon
)

type Polystar struct {
	ShapeMeta
	Kind           StarType
	Points         *AnimatableFloat
	Position       AnimatablePosition
	Rotation       *AnimatableFloat
	OuterRadius    *AnimatableFloat
	OuterRoundness *AnimatableFloat
	// InnerRadius and InnerRoundness are nil for polygons.
	InnerRadius    *AnimatableFloat
	InnerRoundness *AnimatableFloat
	Reversed       bool
}

type Repeater struct {
	ShapeMeta
	Copies    *AnimatableFloat
	Offset    *AnimatableFloat
	Transform *AnimatableTransform
}

type MergeMode int

const (
	MergeMerge MergeMode = iota
	MergeAdd
	MergeSubtract
	MergeIntersect
	MergeExclude
)

func (m MergeMode) String() string {
	switch m {
	case MergeAdd:
		return "add"
	case MergeSubtract:
		return "subtract"
	case MergeIntersect:
		return "intersect"
	case MergeExclude:
		return "exclude"
	}
	return "merge"
}

type MergePaths struct {
	ShapeMeta
	Mode MergeMode
}

type TrimKind int

const (
	TrimSimultaneously TrimKind = iota
	TrimIndividually
)

type TrimPath struct {
	ShapeMeta
	Kind   TrimKind
	Start  *AnimatableFloat
	End    *AnimatableFloat
	Offset *AnimatableFloat
}
