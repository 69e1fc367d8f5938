package layer

import (
	"math"

	"github.com/inamate/motion/internal/canvas"
	"github.com/inamate/motion/internal/geom"
	"github.com/inamate/motion/internal/keyframe"
	"github.com/inamate/motion/internal/keypath"
	"github.com/inamate/motion/internal/model"
)

// kind is the behavior specific to one layer type.
type kind interface {
	// draw paints the layer content under m, which already includes the
	// layer transform.
	draw(c canvas.Canvas, m geom.Matrix, alpha uint8) error
	bounds(m geom.Matrix) (geom.Rect, error)
	// setProgress forwards progress to nested layers.
	setProgress(p float64)
	resolveChildren(kp keypath.KeyPath, depth int, acc *[]keypath.KeyPath, partial keypath.KeyPath)
	applyValueCallback(prop keypath.Property, cb any) bool
}

// Layer is the runtime node of one model layer.
type Layer struct {
	tree  *Tree
	model *model.Layer
	index int
	kind  kind

	transform *keyframe.Transform
	masks     []*mask
	inOut     keyframe.Value[bool]
	blend     canvas.BlendMode
	steppers  []keyframe.Stepper

	// parent and matte are arena indexes, -1 when absent. chain caches the
	// ancestors, nearest first.
	parent int
	matte  int
	chain  []int
}

// newLayer creates the runtime layer for m, or nil for unsupported types.
func (t *Tree) newLayer(m *model.Layer, stack []string) *Layer {
	l := &Layer{tree: t, model: m, index: len(t.arena), parent: -1, matte: -1}

	switch m.Type {
	case model.LayerShape:
		l.kind = newShapeKind(t, l)
	case model.LayerSolid:
		l.kind = &solidKind{l: l}
	case model.LayerImage:
		l.kind = newImageKind(t, l)
	case model.LayerNull:
		l.kind = nullKind{}
	case model.LayerText:
		l.kind = newTextKind(t, l)
	case model.LayerPrecomp:
		// Reserve the slot before the children so the parent sits first.
		t.arena = append(t.arena, l)
		l.init()
		l.kind = newPrecompKind(t, l, stack)
		return l
	default:
		return nil
	}
	t.arena = append(t.arena, l)
	l.init()
	return l
}

func (l *Layer) init() {
	m := l.model
	l.transform = m.Transform.Create()
	l.track(l.transform.Steppers()...)
	l.transform.OnCreate(func(s keyframe.Stepper) { l.track(s) })

	for _, mm := range m.Masks {
		mk := newMask(l.tree, mm)
		l.masks = append(l.masks, mk)
		l.track(mk.steppers()...)
	}
	if allNone(l.masks) {
		l.masks = nil
	}

	if m.Name != model.ContainerName {
		l.inOut = inOutAnimation(l.tree.comp, m)
		l.track(l.inOut)
	}

	l.blend = blendMode(m.BlendMode)
	if l.blend < 0 {
		l.tree.warnings.Addf(model.WarnBlendMode, "layer %q: blend mode %d drawn as normal", m.Name, m.BlendMode)
		l.blend = canvas.BlendSrcOver
	}
}

func (l *Layer) track(steppers ...keyframe.Stepper) {
	for _, s := range steppers {
		if s != nil {
			l.steppers = append(l.steppers, s)
		}
	}
}

// inOutAnimation holds the layer visible from its in frame up to its out
// frame.
func inOutAnimation(comp *model.Composition, m *model.Layer) keyframe.Value[bool] {
	out := m.OutFrame
	if out <= 0 {
		out = comp.EndFrame()
	}
	var kfs []*keyframe.Keyframe[bool]
	if m.InFrame > 0 {
		kfs = append(kfs, keyframe.Hold(comp.Timing, 0, m.InFrame, false))
	}
	kfs = append(kfs,
		keyframe.Hold(comp.Timing, m.InFrame, out, true),
		keyframe.Hold(comp.Timing, out, math.MaxFloat32, false),
	)
	return keyframe.NewDiscrete(kfs)
}

func blendMode(b model.BlendMode) canvas.BlendMode {
	switch b {
	case model.BlendNormal:
		return canvas.BlendSrcOver
	case model.BlendMultiply:
		return canvas.BlendMultiply
	case model.BlendScreen:
		return canvas.BlendScreen
	case model.BlendOverlay:
		return canvas.BlendOverlay
	case model.BlendDarken:
		return canvas.BlendDarken
	case model.BlendLighten:
		return canvas.BlendLighten
	case model.BlendAdd:
		return canvas.BlendPlus
	}
	return -1
}

func (l *Layer) Name() string { return l.model.Name }

// Model returns the static layer this node was built from.
func (l *Layer) Model() *model.Layer { return l.model }

// Parent returns the transform parent, or nil.
func (l *Layer) Parent() *Layer {
	if l.parent < 0 {
		return nil
	}
	return l.tree.arena[l.parent]
}

// Matte returns the layer whose alpha masks this one, or nil.
func (l *Layer) Matte() *Layer {
	if l.matte < 0 {
		return nil
	}
	return l.tree.arena[l.matte]
}

// Children returns the nested layers of a precomp, top first.
func (l *Layer) Children() []*Layer {
	pk, ok := l.kind.(*precompKind)
	if !ok {
		return nil
	}
	out := make([]*Layer, len(pk.children))
	for i, idx := range pk.children {
		out[i] = l.tree.arena[idx]
	}
	return out
}

func (l *Layer) setProgress(p float64) {
	if l.matte >= 0 {
		l.tree.arena[l.matte].setProgress(p)
	}
	for _, s := range l.steppers {
		s.SetProgress(p)
	}
	l.kind.setProgress(p)
}

// Visible reports whether the current progress lies between the in and
// out frames and the layer is not hidden.
func (l *Layer) Visible() (bool, error) {
	if l.model.Hidden {
		return false, nil
	}
	if l.inOut == nil {
		return true, nil
	}
	return l.inOut.Value()
}

// chainMatrix applies the ancestor transforms, outermost first.
func (l *Layer) chainMatrix(m geom.Matrix) (geom.Matrix, error) {
	for i := len(l.chain) - 1; i >= 0; i-- {
		pm, err := l.tree.arena[l.chain[i]].transform.Matrix()
		if err != nil {
			return m, err
		}
		m = m.Multiply(pm)
	}
	return m, nil
}

// Draw draws the layer. Layers without masks, matte or blend mode draw
// straight into c; the others are composited through offscreen layers
// limited to the narrowest bounds that can change.
func (l *Layer) Draw(c canvas.Canvas, parent geom.Matrix, alpha uint8) error {
	visible, err := l.Visible()
	if err != nil || !visible {
		return err
	}
	m, err := l.chainMatrix(parent)
	if err != nil {
		return err
	}
	op, err := l.transform.OpacityValue()
	if err != nil {
		return err
	}
	a := alphaOf(alpha, op)
	own, err := l.transform.Matrix()
	if err != nil {
		return err
	}
	m = m.Multiply(own)

	if l.matte < 0 && len(l.masks) == 0 && l.blend == canvas.BlendSrcOver {
		return l.kind.draw(c, m, a)
	}

	rect, err := l.kind.bounds(m)
	if err != nil {
		return err
	}
	if rect, err = l.intersectMatte(rect, parent); err != nil {
		return err
	}
	full := canvas.Bounds(c)
	if len(l.masks) > 0 {
		mb, err := l.maskBounds(m, full)
		if err != nil {
			return err
		}
		rect = intersectOrEmpty(rect, mb)
	}
	rect = intersectOrEmpty(rect, full)
	if rect.Width < 1 || rect.Height < 1 {
		return nil
	}

	return canvas.WithLayer(c, rect, canvas.BlendPaint(l.blend), func() error {
		if err := l.kind.draw(c, m, a); err != nil {
			return err
		}
		if len(l.masks) > 0 {
			if err := l.applyMasks(c, m, rect); err != nil {
				return err
			}
		}
		if l.matte >= 0 {
			matte := l.tree.arena[l.matte]
			mode := canvas.BlendDstIn
			if inverted(l.model.MatteType) {
				mode = canvas.BlendDstOut
			}
			return canvas.WithLayer(c, rect, canvas.BlendPaint(mode), func() error {
				return matte.Draw(c, parent, a)
			})
		}
		return nil
	})
}

func inverted(t model.MatteType) bool {
	return t == model.MatteInvert || t == model.MatteLumaInverted
}

// intersectMatte narrows rect to the matte bounds. Inverted mattes can
// reveal anything outside themselves and leave rect unchanged.
func (l *Layer) intersectMatte(rect geom.Rect, parent geom.Matrix) (geom.Rect, error) {
	if l.matte < 0 || inverted(l.model.MatteType) {
		return rect, nil
	}
	mb, err := l.tree.arena[l.matte].Bounds(parent, true)
	if err != nil {
		return rect, err
	}
	return intersectOrEmpty(rect, mb), nil
}

func intersectOrEmpty(a, b geom.Rect) geom.Rect {
	r, ok := a.Intersect(b)
	if !ok {
		return geom.Rect{}
	}
	return r
}

// Bounds returns the layer bounds under parent. With applyParents the
// ancestor transforms are applied first. Hidden layers have empty bounds.
func (l *Layer) Bounds(parent geom.Matrix, applyParents bool) (geom.Rect, error) {
	visible, err := l.Visible()
	if err != nil || !visible {
		return geom.Rect{}, err
	}
	m := parent
	if applyParents {
		if m, err = l.chainMatrix(parent); err != nil {
			return geom.Rect{}, err
		}
	}
	own, err := l.transform.Matrix()
	if err != nil {
		return geom.Rect{}, err
	}
	return l.kind.bounds(m.Multiply(own))
}

// ResolveKeyPath matches the matte first, then the layer and its content.
func (l *Layer) ResolveKeyPath(kp keypath.KeyPath, depth int, acc *[]keypath.KeyPath, partial keypath.KeyPath) {
	name := l.Name()
	if l.matte >= 0 {
		matte := l.tree.arena[l.matte]
		mp := partial.AddKey(matte.Name())
		if kp.FullyResolvesTo(matte.Name(), depth) {
			*acc = append(*acc, mp.Resolve(matte))
		}
		if kp.PropagateToChildren(name, depth) {
			next := depth + kp.IncrementDepthBy(matte.Name(), depth)
			matte.kind.resolveChildren(kp, next, acc, mp)
		}
	}

	if !kp.Matches(name, depth) {
		return
	}
	if name != keypath.Container {
		partial = partial.AddKey(name)
		if kp.FullyResolvesTo(name, depth) {
			*acc = append(*acc, partial.Resolve(l))
		}
	}
	if kp.PropagateToChildren(name, depth) {
		next := depth + kp.IncrementDepthBy(name, depth)
		l.kind.resolveChildren(kp, next, acc, partial)
	}
}

// ApplyValueCallback overrides a transform property or a property of the
// layer kind.
func (l *Layer) ApplyValueCallback(prop keypath.Property, cb any) bool {
	if l.transform.ApplyValueCallback(prop, cb) {
		return true
	}
	return l.kind.applyValueCallback(prop, cb)
}

// alphaOf computes parent/255 * opacity/100 as a byte.
func alphaOf(parent uint8, opacity int) uint8 {
	return uint8(geom.Clamp(float64(parent)/255*float64(opacity)/100*255, 0, 255))
}
