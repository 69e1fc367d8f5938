package content

import (
	"github.com/inamate/motion/internal/canvas"
	"github.com/inamate/motion/internal/geom"
	"github.com/inamate/motion/internal/keyframe"
	"github.com/inamate/motion/internal/keypath"
	"github.com/inamate/motion/internal/model"
)

// RepeaterGroupName names the group a repeater wraps its claimed
// siblings in.
const RepeaterGroupName = "Repeater"

// Repeater draws the siblings listed before it several times, each copy
// offset by a compounding transform.
type Repeater struct {
	env    *Env
	name   string
	hidden bool

	copies    keyframe.Value[float64]
	offset    keyframe.Value[float64]
	transform *keyframe.Transform

	group *Group
	path  *geom.Path
}

func newRepeater(env *Env, m *model.Repeater) *Repeater {
	r := &Repeater{env: env, name: m.Name, hidden: m.Hidden, path: geom.NewPath()}
	r.copies = floatValue(env, m.Copies, nil)
	r.offset = floatValue(env, m.Offset, nil)
	r.transform = m.Transform.Create()
	env.Track(r.transform.Steppers()...)
	r.transform.OnCreate(func(s keyframe.Stepper) { env.Track(s) })
	r.group = newGroupOf(RepeaterGroupName, m.Hidden, nil)
	return r
}

func (r *Repeater) Name() string { return r.name }

// Absorb claims every node listed before the repeater, keeping their
// order.
func (r *Repeater) Absorb(list []Content, self int) []Content {
	claimed := append([]Content(nil), list[:self]...)
	r.group = newGroupOf(RepeaterGroupName, r.hidden, claimed)
	return append([]Content(nil), list[self:]...)
}

// Group returns the group holding the repeated content.
func (r *Repeater) Group() *Group { return r.group }

func (r *Repeater) SetContents(before, after []Content) {
	r.group.SetContents(before, after)
}

func (r *Repeater) values() (copies, offset, startOp, endOp float64, err error) {
	if copies, err = valueOr(r.copies, 1); err != nil {
		return
	}
	if offset, err = valueOr(r.offset, 0); err != nil {
		return
	}
	if startOp, err = valueOr(r.transform.StartOpacity, 100); err != nil {
		return
	}
	if endOp, err = valueOr(r.transform.EndOpacity, 100); err != nil {
		return
	}
	return copies, offset, startOp / 100, endOp / 100, nil
}

func (r *Repeater) Draw(c canvas.Canvas, parent geom.Matrix, alpha uint8) error {
	if r.hidden {
		return nil
	}
	copies, offset, startOp, endOp, err := r.values()
	if err != nil {
		return err
	}
	for i := int(copies) - 1; i >= 0; i-- {
		m, err := r.transform.MatrixForRepeater(float64(i) + offset)
		if err != nil {
			return err
		}
		a := float64(alpha) * geom.Lerp(startOp, endOp, float64(i)/copies)
		if err := r.group.Draw(c, parent.Multiply(m), uint8(geom.Clamp(a, 0, 255))); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repeater) Bounds(parent geom.Matrix) (geom.Rect, error) {
	return r.group.Bounds(parent)
}

// Path repeats the group path once per copy.
func (r *Repeater) Path() (*geom.Path, error) {
	src, err := r.group.Path()
	if err != nil {
		return nil, err
	}
	r.path.Reset()
	copies, offset, _, _, err := r.values()
	if err != nil {
		return nil, err
	}
	for i := int(copies) - 1; i >= 0; i-- {
		m, err := r.transform.MatrixForRepeater(float64(i) + offset)
		if err != nil {
			return nil, err
		}
		r.path.AddPath(src, m)
	}
	return r.path, nil
}

// ResolveKeyPath matches the repeater and its repeated children as leaves
// at the same depth.
func (r *Repeater) ResolveKeyPath(kp keypath.KeyPath, depth int, acc *[]keypath.KeyPath, partial keypath.KeyPath) {
	keypath.ResolveLeaf(kp, depth, acc, partial, r.name, r)
	for _, c := range r.group.Contents() {
		if el, ok := c.(keypath.Element); ok {
			keypath.ResolveLeaf(kp, depth, acc, partial, c.Name(), el)
		}
	}
}

func (r *Repeater) ApplyValueCallback(prop keypath.Property, cb any) bool {
	switch prop {
	case keypath.RepeaterCopies:
		return bind(r.env, &r.copies, nil, cb)
	case keypath.RepeaterOffset:
		return bind(r.env, &r.offset, nil, cb)
	}
	return r.transform.ApplyValueCallback(prop, cb)
}
