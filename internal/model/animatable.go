package model

import (
	"log/slog"

	"github.com/inamate/motion/internal/geom"
	"github.com/inamate/motion/internal/keyframe"
)

// Each Animatable type owns sealed keyframes and creates a fresh animation
// per layer tree. Animations carry progress and are never shared.

type AnimatableFloat struct {
	Keyframes []*keyframe.Keyframe[float64]
}

// StaticFloat returns a constant value.
func StaticFloat(v float64) *AnimatableFloat {
	return &AnimatableFloat{Keyframes: []*keyframe.Keyframe[float64]{keyframe.Static(v)}}
}

func (a *AnimatableFloat) Create() *keyframe.Animation[float64, float64] {
	return keyframe.NewFloat(a.Keyframes)
}

type AnimatableInt struct {
	Keyframes []*keyframe.Keyframe[int]
}

func StaticInt(v int) *AnimatableInt {
	return &AnimatableInt{Keyframes: []*keyframe.Keyframe[int]{keyframe.Static(v)}}
}

func (a *AnimatableInt) Create() *keyframe.Animation[int, int] {
	return keyframe.NewInt(a.Keyframes)
}

type AnimatableColor struct {
	Keyframes []*keyframe.Keyframe[geom.Color]
}

func StaticColor(c geom.Color) *AnimatableColor {
	return &AnimatableColor{Keyframes: []*keyframe.Keyframe[geom.Color]{keyframe.Static(c)}}
}

func (a *AnimatableColor) Create() *keyframe.Animation[geom.Color, geom.Color] {
	return keyframe.NewColor(a.Keyframes)
}

// AnimatablePosition is a point that may follow a motion path or be split
// into separately animated axes.
type AnimatablePosition interface {
	CreatePosition() keyframe.Value[geom.Point]
}

// AnimatablePoint interpolates per axis. Scale values use it with 1 as
// 100%.
type AnimatablePoint struct {
	Keyframes []*keyframe.Keyframe[geom.Point]
}

func StaticPoint(p geom.Point) *AnimatablePoint {
	return &AnimatablePoint{Keyframes: []*keyframe.Keyframe[geom.Point]{keyframe.Static(p)}}
}

func (a *AnimatablePoint) Create() *keyframe.Animation[geom.Point, geom.Point] {
	return keyframe.NewPoint(a.Keyframes)
}

func (a *AnimatablePoint) CreatePosition() keyframe.Value[geom.Point] {
	return a.Create()
}

// AnimatablePathPoint moves along the spatial tangents of its keyframes.
type AnimatablePathPoint struct {
	Keyframes []*keyframe.Keyframe[geom.Point]
}

func (a *AnimatablePathPoint) CreatePosition() keyframe.Value[geom.Point] {
	return keyframe.NewPathPoint(a.Keyframes)
}

// AnimatableSplit animates x and y independently.
type AnimatableSplit struct {
	X *AnimatableFloat
	Y *AnimatableFloat
}

func (a *AnimatableSplit) CreatePosition() keyframe.Value[geom.Point] {
	return keyframe.NewSplitDimension(a.X.Create(), a.Y.Create())
}

type AnimatableShape struct {
	Keyframes []*keyframe.Keyframe[*geom.ShapeData]
}

func (a *AnimatableShape) Create(log *slog.Logger) *keyframe.Animation[*geom.ShapeData, *geom.Path] {
	return keyframe.NewShape(a.Keyframes, log)
}

type AnimatableGradient struct {
	Keyframes []*keyframe.Keyframe[geom.Gradient]
}

func (a *AnimatableGradient) Create() *keyframe.Animation[geom.Gradient, geom.Gradient] {
	return keyframe.NewGradient(a.Keyframes)
}

// AnimatableTransform groups the transform properties of a layer, group or
// repeater. Any property may be nil.
type AnimatableTransform struct {
	Anchor       AnimatablePosition
	Position     AnimatablePosition
	Scale        *AnimatablePoint
	Rotation     *AnimatableFloat
	Opacity      *AnimatableInt
	StartOpacity *AnimatableFloat
	EndOpacity   *AnimatableFloat
}

// Create builds a transform animation.
func (a *AnimatableTransform) Create() *keyframe.Transform {
	t := &keyframe.Transform{}
	if a == nil {
		return t
	}
	if a.Anchor != nil {
		t.Anchor = a.Anchor.CreatePosition()
	}
	if a.Position != nil {
		t.Position = a.Position.CreatePosition()
	}
	if a.Scale != nil {
		t.Scale = a.Scale.Create()
	}
	if a.Rotation != nil {
		t.Rotation = a.Rotation.Create()
	}
	if a.Opacity != nil {
		t.Opacity = a.Opacity.Create()
	}
	if a.StartOpacity != nil {
		t.StartOpacity = a.StartOpacity.Create()
	}
	if a.EndOpacity != nil {
		t.EndOpacity = a.EndOpacity.Create()
	}
	return t
}
