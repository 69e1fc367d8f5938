package content

import (
	"github.com/inamate/motion/internal/geom"
	"github.com/inamate/motion/internal/keyframe"
	"github.com/inamate/motion/internal/keypath"
	"github.com/inamate/motion/internal/model"
)

// TrimPath cuts the paths drawn alongside it. It draws nothing itself;
// shapes and strokes listen to it and apply it to their geometry.
type TrimPath struct {
	env    *Env
	name   string
	hidden bool
	kind   model.TrimKind

	// start and end are percentages, offset is in degrees.
	start, end, offset keyframe.Value[float64]

	changed keyframe.Signal
}

func newTrimPath(env *Env, m *model.TrimPath) *TrimPath {
	t := &TrimPath{env: env, name: m.Name, hidden: m.Hidden, kind: m.Kind}
	t.start = floatValue(env, m.Start, t.changed.Emit)
	t.end = floatValue(env, m.End, t.changed.Emit)
	t.offset = floatValue(env, m.Offset, t.changed.Emit)
	return t
}

func (t *TrimPath) Name() string               { return t.name }
func (t *TrimPath) SetContents(_, _ []Content) {}

// Kind reports whether the trim spans all paths or each one separately.
func (t *TrimPath) Kind() model.TrimKind { return t.kind }

// OnChange registers fn for any change of the trim values.
func (t *TrimPath) OnChange(fn func()) { t.changed.Connect(fn) }

// Values returns start and end as fractions of the path length and the
// offset as a fraction of a turn.
func (t *TrimPath) Values() (start, end, offset float64, err error) {
	if start, err = valueOr(t.start, 0); err != nil {
		return
	}
	if end, err = valueOr(t.end, 100); err != nil {
		return
	}
	if offset, err = valueOr(t.offset, 0); err != nil {
		return
	}
	return start / 100, end / 100, offset / 360, nil
}

// Apply trims path in place. Hidden trims leave it untouched.
func (t *TrimPath) Apply(path *geom.Path) error {
	if t == nil || t.hidden {
		return nil
	}
	s, e, o, err := t.Values()
	if err != nil {
		return err
	}
	geom.Trim(path, s, e, o)
	return nil
}

func (t *TrimPath) ResolveKeyPath(kp keypath.KeyPath, depth int, acc *[]keypath.KeyPath, partial keypath.KeyPath) {
	keypath.ResolveLeaf(kp, depth, acc, partial, t.name, t)
}

func (t *TrimPath) ApplyValueCallback(prop keypath.Property, cb any) bool {
	switch prop {
	case keypath.TrimStart:
		return bind(t.env, &t.start, t.changed.Emit, cb)
	case keypath.TrimEnd:
		return bind(t.env, &t.end, t.changed.Emit, cb)
	case keypath.TrimOffset:
		return bind(t.env, &t.offset, t.changed.Emit, cb)
	}
	return false
}

// compoundTrim applies the simultaneous trims listed before a shape.
type compoundTrim []*TrimPath

// collect gathers the simultaneous trims in before and subscribes
// onChange to them.
func (c *compoundTrim) collect(before []Content, onChange func()) {
	for _, b := range before {
		if t, ok := b.(*TrimPath); ok && t.kind == model.TrimSimultaneously {
			*c = append(*c, t)
			t.OnChange(onChange)
		}
	}
}

func (c compoundTrim) apply(path *geom.Path) error {
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i].Apply(path); err != nil {
			return err
		}
	}
	return nil
}
