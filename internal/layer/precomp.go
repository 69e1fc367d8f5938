package layer

import (
	"slices"

	"github.com/inamate/motion/internal/canvas"
	"github.com/inamate/motion/internal/geom"
	"github.com/inamate/motion/internal/keyframe"
	"github.com/inamate/motion/internal/keypath"
	"github.com/inamate/motion/internal/model"
)

// precompKind nests a list of layers with their own time line. The root
// container of a tree is a precomp too.
type precompKind struct {
	t        *Tree
	l        *Layer
	children []int
	remap    keyframe.Value[float64]
	// err holds the last time remap failure until the next draw reports it.
	err error
}

func newPrecompKind(t *Tree, l *Layer, stack []string) *precompKind {
	k := &precompKind{t: t, l: l}
	m := l.model
	if m.TimeRemap != nil {
		k.remap = m.TimeRemap.Create()
	}
	if m.Name == model.ContainerName {
		return k
	}
	if slices.Contains(stack, m.RefID) {
		t.warnf(model.WarnMissingPrecomp, "layer %q: precomp %q references itself", m.Name, m.RefID)
		return k
	}
	layers, ok := t.comp.Precomps[m.RefID]
	if !ok {
		t.warnf(model.WarnMissingPrecomp, "layer %q: precomp %q not found", m.Name, m.RefID)
		return k
	}
	k.children = t.buildList(layers, append(stack, m.RefID))
	return k
}

func (k *precompKind) isContainer() bool {
	return k.l.model.Name == model.ContainerName
}

// setProgress maps the parent progress onto the nested time line. A time
// remap replaces it outright with the remapped seconds.
func (k *precompKind) setProgress(p float64) {
	comp := k.t.comp
	dur := comp.DurationFrames()
	m := k.l.model
	if k.remap != nil {
		k.remap.SetProgress(p)
		v, err := k.remap.Value()
		if err != nil {
			k.err = err
			return
		}
		k.err = nil
		p = (v*comp.FrameRate() - comp.StartFrame()) / (dur + 0.01)
	} else if dur > 0 {
		p -= m.StartFrame / dur
	}
	if !k.isContainer() && m.TimeStretch != 0 {
		p /= m.TimeStretch
	}
	for i := len(k.children) - 1; i >= 0; i-- {
		k.t.arena[k.children[i]].setProgress(p)
	}
}

func (k *precompKind) size() geom.Rect {
	return geom.Rect{Width: k.l.model.PrecompWidth, Height: k.l.model.PrecompHeight}
}

func (k *precompKind) draw(c canvas.Canvas, m geom.Matrix, alpha uint8) error {
	if k.err != nil {
		return k.err
	}
	c.Save()
	defer c.Restore()
	if clip := k.size(); !clip.IsEmpty() {
		c.ClipRect(m.TransformRect(clip))
	}

	draw := func(a uint8) error {
		for i := len(k.children) - 1; i >= 0; i-- {
			if err := k.t.arena[k.children[i]].Draw(c, m, a); err != nil {
				return err
			}
		}
		return nil
	}
	if k.t.opts.OpacityLayers && len(k.children) > 1 && alpha != 255 {
		b, err := k.bounds(m)
		if err != nil {
			return err
		}
		if b = intersectOrEmpty(b, canvas.Bounds(c)); b.IsEmpty() {
			return nil
		}
		return canvas.WithLayer(c, b, canvas.AlphaPaint(alpha), func() error {
			return draw(255)
		})
	}
	return draw(alpha)
}

func (k *precompKind) bounds(m geom.Matrix) (geom.Rect, error) {
	var out geom.Rect
	for _, idx := range k.children {
		b, err := k.t.arena[idx].Bounds(m, true)
		if err != nil {
			return geom.Rect{}, err
		}
		out = out.Union(b)
	}
	if clip := k.size(); !k.isContainer() && !clip.IsEmpty() {
		out = intersectOrEmpty(out, m.TransformRect(clip))
	}
	return out, nil
}

func (k *precompKind) resolveChildren(kp keypath.KeyPath, depth int, acc *[]keypath.KeyPath, partial keypath.KeyPath) {
	for _, idx := range k.children {
		k.t.arena[idx].ResolveKeyPath(kp, depth, acc, partial)
	}
}

func (k *precompKind) applyValueCallback(prop keypath.Property, cb any) bool {
	if prop != keypath.TimeRemap {
		return false
	}
	if k.remap != nil {
		return keyframe.Bind(k.remap, cb)
	}
	f, ok := cb.(keyframe.ValueCallback[float64])
	if !ok {
		fn, ok := cb.(func(keyframe.FrameInfo[float64]) float64)
		if !ok {
			return false
		}
		f = fn
	}
	k.remap = keyframe.Callback(f)
	return true
}
