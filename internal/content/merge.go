package content

import (
	"github.com/inamate/motion/internal/geom"
	"github.com/inamate/motion/internal/model"
)

// MergePaths combines the paths listed before it into one. Boolean modes
// need a Booleaner; without one they fall back to plain merging.
type MergePaths struct {
	name      string
	hidden    bool
	mode      model.MergeMode
	op        geom.BoolOp
	booleaner geom.Booleaner

	// paths is nearest first.
	paths       []PathContent
	path, first *geom.Path
	rest        *geom.Path
}

func newMergePaths(env *Env, m *model.MergePaths) *MergePaths {
	mp := &MergePaths{
		name:      m.Name,
		hidden:    m.Hidden,
		mode:      m.Mode,
		booleaner: env.Booleaner,
		path:      geom.NewPath(),
		first:     geom.NewPath(),
		rest:      geom.NewPath(),
	}
	switch m.Mode {
	case model.MergeAdd:
		mp.op = geom.OpUnion
	case model.MergeSubtract:
		mp.op = geom.OpReverseDifference
	case model.MergeIntersect:
		mp.op = geom.OpIntersect
	case model.MergeExclude:
		mp.op = geom.OpXor
	}
	if m.Mode != model.MergeMerge && mp.booleaner == nil {
		env.Warnings.Addf(model.WarnMergePaths, "merge mode %s needs path booleans, merging instead", m.Mode)
		mp.mode = model.MergeMerge
	}
	return mp
}

func (m *MergePaths) Name() string { return m.name }

// Absorb claims the path nodes listed before the merge, nearest first.
func (m *MergePaths) Absorb(list []Content, self int) []Content {
	out := make([]Content, 0, len(list))
	for i := self - 1; i >= 0; i-- {
		if pc, ok := list[i].(PathContent); ok {
			m.paths = append(m.paths, pc)
		}
	}
	for i, c := range list {
		if _, ok := c.(PathContent); ok && i < self {
			continue
		}
		out = append(out, c)
	}
	return out
}

func (m *MergePaths) SetContents(before, after []Content) {
	for _, p := range m.paths {
		p.SetContents(before, after)
	}
}

func (m *MergePaths) Path() (*geom.Path, error) {
	m.path.Reset()
	if m.hidden || len(m.paths) == 0 {
		return m.path, nil
	}
	if m.mode == model.MergeMerge {
		for _, pc := range m.paths {
			p, err := pc.Path()
			if err != nil {
				return nil, err
			}
			m.path.AddPath(p, geom.Identity())
		}
		return m.path, nil
	}

	m.first.Reset()
	m.rest.Reset()
	for i := len(m.paths) - 1; i >= 1; i-- {
		if err := addFlattened(m.rest, m.paths[i]); err != nil {
			return nil, err
		}
	}
	if err := addFlattened(m.first, m.paths[0]); err != nil {
		return nil, err
	}
	out, err := m.booleaner.Op(m.op, m.first, m.rest)
	if err != nil {
		return nil, err
	}
	m.path.Set(out)
	return m.path, nil
}

// addFlattened appends pc to dst. Groups contribute each child path under
// the group transform.
func addFlattened(dst *geom.Path, pc PathContent) error {
	g, ok := pc.(*Group)
	if !ok {
		p, err := pc.Path()
		if err != nil {
			return err
		}
		dst.AddPath(p, geom.Identity())
		return nil
	}
	mat, err := g.Matrix()
	if err != nil {
		return err
	}
	list := g.PathContents()
	for j := len(list) - 1; j >= 0; j-- {
		p, err := list[j].Path()
		if err != nil {
			return err
		}
		dst.AddPath(p, mat)
	}
	return nil
}
