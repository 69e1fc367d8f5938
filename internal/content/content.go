// Package content builds and draws the content tree of shape layers.
//
// Nodes own their animations and scratch paths. A path returned by Path is
// borrowed: it stays valid until the node next rebuilds its geometry and
// must not be modified by the caller.
package content

import (
	"log/slog"

	"github.com/inamate/motion/internal/canvas"
	"github.com/inamate/motion/internal/geom"
	"github.com/inamate/motion/internal/keyframe"
	"github.com/inamate/motion/internal/keypath"
	"github.com/inamate/motion/internal/model"
)

// Content is a node of a content tree.
type Content interface {
	Name() string
	// SetContents is called once the tree is built. before holds the
	// siblings drawn earlier, after the siblings drawn later.
	SetContents(before, after []Content)
}

// Drawing content paints into a canvas.
type Drawing interface {
	Content
	Draw(c canvas.Canvas, parent geom.Matrix, alpha uint8) error
	// Bounds returns the bounds of the content under parent.
	Bounds(parent geom.Matrix) (geom.Rect, error)
}

// PathContent produces geometry for fills, strokes and merges.
type PathContent interface {
	Content
	Path() (*geom.Path, error)
}

// Greedy content claims siblings listed before it once the list is built.
// It returns the remaining list.
type Greedy interface {
	Content
	Absorb(list []Content, self int) []Content
}

// Element is content addressable by key path.
type Element interface {
	Content
	keypath.Element
}

// Env is what content needs from the layer that owns it.
type Env struct {
	Log       *slog.Logger
	Warnings  *model.Warnings
	Booleaner geom.Booleaner
	// CacheSteps is the number of gradient cache buckets across the
	// composition.
	CacheSteps int

	steppers []keyframe.Stepper
	sink     func(...keyframe.Stepper)
}

// NewEnv returns an env with defaults for nil fields.
func NewEnv(log *slog.Logger, warnings *model.Warnings) *Env {
	if log == nil {
		log = slog.Default()
	}
	if warnings == nil {
		warnings = &model.Warnings{}
	}
	return &Env{Log: log, Warnings: warnings}
}

// Track registers animations to be advanced with the layer.
func (e *Env) Track(steppers ...keyframe.Stepper) {
	if e == nil {
		return
	}
	start := len(e.steppers)
	for _, s := range steppers {
		if s != nil {
			e.steppers = append(e.steppers, s)
		}
	}
	if e.sink != nil && len(e.steppers) > start {
		e.sink(e.steppers[start:]...)
	}
}

// Forward passes everything tracked so far to fn, and every later
// addition as it is tracked. Values created for value callbacks after the
// tree is built reach the owning layer this way.
func (e *Env) Forward(fn func(...keyframe.Stepper)) {
	if len(e.steppers) > 0 {
		fn(e.steppers...)
	}
	e.sink = fn
}

// Steppers returns everything tracked so far.
func (e *Env) Steppers() []keyframe.Stepper {
	return e.steppers
}

// FromShape creates the node for one shape model. Hidden shapes are built
// but draw nothing; unknown models yield nil.
func FromShape(env *Env, s model.Shape) Content {
	switch m := s.(type) {
	case *model.ShapeGroup:
		return NewGroup(env, m.Name, m.Hidden, m.Items, m.Transform)
	case *model.ShapePath:
		return newShapePath(env, m)
	case *model.Fill:
		return newFill(env, m)
	case *model.Stroke:
		return newStroke(env, m)
	case *model.GradientFill:
		return newGradientFill(env, m)
	case *model.GradientStroke:
		return newGradientStroke(env, m)
	case *model.Ellipse:
		return newEllipse(env, m)
	case *model.Rectangle:
		return newRect(env, m)
	case *model.Polystar:
		return newPolystar(env, m)
	case *model.Repeater:
		return newRepeater(env, m)
	case *model.MergePaths:
		return newMergePaths(env, m)
	case *model.TrimPath:
		return newTrimPath(env, m)
	}
	return nil
}

// Build creates the node list for shapes in two passes: first every node is
// created in list order, then greedy nodes, in ascending index, claim the
// unclaimed nodes listed before them.
func Build(env *Env, shapes []model.Shape) []Content {
	list := make([]Content, 0, len(shapes))
	for _, s := range shapes {
		if c := FromShape(env, s); c != nil {
			list = append(list, c)
		}
	}

	var greedy []Greedy
	for _, c := range list {
		if g, ok := c.(Greedy); ok {
			greedy = append(greedy, g)
		}
	}
	for _, g := range greedy {
		for i, c := range list {
			if c == Content(g) {
				list = g.Absorb(list, i)
				break
			}
		}
	}
	return list
}

// alphaOf computes parentAlpha/255 * opacity/100 as a byte.
func alphaOf(parent uint8, opacity int) uint8 {
	a := float64(parent) / 255 * float64(opacity) / 100 * 255
	return uint8(geom.Clamp(a, 0, 255))
}

// invalidator returns a signal handler that clears *valid.
func invalidator(valid *bool) func() {
	return func() { *valid = false }
}
