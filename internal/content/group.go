package content

import (
	"github.com/inamate/motion/internal/canvas"
	"github.com/inamate/motion/internal/geom"
	"github.com/inamate/motion/internal/keyframe"
	"github.com/inamate/motion/internal/keypath"
	"github.com/inamate/motion/internal/model"
)

// Group draws its children under its own transform. Children are listed
// top first and drawn last to first.
type Group struct {
	env       *Env
	name      string
	hidden    bool
	contents  []Content
	transform *keyframe.Transform

	path *geom.Path
	// pathContents caches the PathContent children.
	pathContents []PathContent
}

// NewGroup builds a group over shapes. A nil transform leaves children
// untransformed.
func NewGroup(env *Env, name string, hidden bool, shapes []model.Shape, tr *model.AnimatableTransform) *Group {
	g := newGroupOf(name, hidden, Build(env, shapes))
	g.env = env
	if tr != nil {
		g.transform = tr.Create()
		env.Track(g.transform.Steppers()...)
		g.transform.OnCreate(func(s keyframe.Stepper) { env.Track(s) })
	}
	return g
}

func newGroupOf(name string, hidden bool, contents []Content) *Group {
	g := &Group{name: name, hidden: hidden, contents: contents, path: geom.NewPath()}
	for _, c := range contents {
		if pc, ok := c.(PathContent); ok {
			g.pathContents = append(g.pathContents, pc)
		}
	}
	return g
}

func (g *Group) Name() string { return g.name }

// Contents returns the children, top first.
func (g *Group) Contents() []Content { return g.contents }

// SetContents hands each child the siblings drawn before it, including
// those of the enclosing groups, and the siblings drawn after it.
func (g *Group) SetContents(before, _ []Content) {
	mine := make([]Content, 0, len(before)+len(g.contents))
	mine = append(mine, before...)
	for i := len(g.contents) - 1; i >= 0; i-- {
		c := g.contents[i]
		c.SetContents(mine[:len(mine):len(mine)], g.contents[:i:i])
		mine = append(mine, c)
	}
}

// Matrix returns the group transform.
func (g *Group) Matrix() (geom.Matrix, error) {
	if g.transform == nil {
		return geom.Identity(), nil
	}
	return g.transform.Matrix()
}

func (g *Group) Draw(c canvas.Canvas, parent geom.Matrix, alpha uint8) error {
	if g.hidden {
		return nil
	}
	m := parent
	if g.transform != nil {
		own, err := g.transform.Matrix()
		if err != nil {
			return err
		}
		m = parent.Multiply(own)
		op, err := g.transform.OpacityValue()
		if err != nil {
			return err
		}
		alpha = alphaOf(alpha, op)
	}
	for i := len(g.contents) - 1; i >= 0; i-- {
		if d, ok := g.contents[i].(Drawing); ok {
			if err := d.Draw(c, m, alpha); err != nil {
				return err
			}
		}
	}
	return nil
}

func (g *Group) Bounds(parent geom.Matrix) (geom.Rect, error) {
	m := parent
	if g.transform != nil {
		own, err := g.transform.Matrix()
		if err != nil {
			return geom.Rect{}, err
		}
		m = parent.Multiply(own)
	}
	var out geom.Rect
	for i := len(g.contents) - 1; i >= 0; i-- {
		d, ok := g.contents[i].(Drawing)
		if !ok {
			continue
		}
		r, err := d.Bounds(m)
		if err != nil {
			return geom.Rect{}, err
		}
		out = out.Union(r)
	}
	return out, nil
}

// Path concatenates the children's paths under the group transform.
func (g *Group) Path() (*geom.Path, error) {
	g.path.Reset()
	if g.hidden {
		return g.path, nil
	}
	m, err := g.Matrix()
	if err != nil {
		return nil, err
	}
	for i := len(g.pathContents) - 1; i >= 0; i-- {
		p, err := g.pathContents[i].Path()
		if err != nil {
			return nil, err
		}
		g.path.AddPath(p, m)
	}
	return g.path, nil
}

// PathContents returns the children that produce paths.
func (g *Group) PathContents() []PathContent { return g.pathContents }

func (g *Group) ResolveKeyPath(kp keypath.KeyPath, depth int, acc *[]keypath.KeyPath, partial keypath.KeyPath) {
	if !kp.Matches(g.name, depth) && g.name != keypath.Container {
		return
	}
	if g.name != keypath.Container {
		partial = partial.AddKey(g.name)
		if kp.FullyResolvesTo(g.name, depth) {
			*acc = append(*acc, partial.Resolve(g))
		}
	}
	if kp.PropagateToChildren(g.name, depth) {
		next := depth + kp.IncrementDepthBy(g.name, depth)
		for _, c := range g.contents {
			if el, ok := c.(keypath.Element); ok {
				el.ResolveKeyPath(kp, next, acc, partial)
			}
		}
	}
}

func (g *Group) ApplyValueCallback(prop keypath.Property, cb any) bool {
	if g.transform == nil {
		g.transform = &keyframe.Transform{}
		if g.env != nil {
			env := g.env
			g.transform.OnCreate(func(s keyframe.Stepper) { env.Track(s) })
		}
	}
	return g.transform.ApplyValueCallback(prop, cb)
}
