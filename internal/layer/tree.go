// Package layer is the runtime layer tree of a composition. It pushes
// progress into layer and content animations and draws every frame,
// compositing masks and mattes through offscreen layers.
package layer

import (
	"errors"
	"image"
	"log/slog"
	"time"

	"github.com/inamate/motion/internal/canvas"
	"github.com/inamate/motion/internal/content"
	"github.com/inamate/motion/internal/geom"
	"github.com/inamate/motion/internal/keypath"
	"github.com/inamate/motion/internal/model"
)

// ErrNoComposition is returned by Build when given a nil composition.
var ErrNoComposition = errors.New("layer: nil composition")

// gradientStep is the progress granularity of cached gradient shaders.
const gradientStep = 32 * time.Millisecond

// ImageProvider resolves image assets to bitmaps.
type ImageProvider interface {
	Image(asset *model.ImageAsset) (image.Image, error)
}

// ImageProviderFunc adapts a function to ImageProvider.
type ImageProviderFunc func(asset *model.ImageAsset) (image.Image, error)

func (f ImageProviderFunc) Image(asset *model.ImageAsset) (image.Image, error) { return f(asset) }

// Options configure a layer tree. The zero value is usable.
type Options struct {
	Log       *slog.Logger
	Images    ImageProvider
	Booleaner geom.Booleaner
	// FontFamily maps a composition font to the family name handed to the
	// canvas. The font family is used when nil.
	FontFamily func(f *model.Font) string
	// OpacityLayers draws translucent precomps through one offscreen layer
	// so overlapping children do not show through each other.
	OpacityLayers bool
}

// Tree owns every runtime layer of one composition in a flat arena.
// Layers refer to their parent and matte by arena index.
type Tree struct {
	comp     *model.Composition
	opts     Options
	log      *slog.Logger
	warnings model.Warnings

	arena    []*Layer
	root     int
	progress float64
}

// Build creates the layer tree for comp. Matte sources are paired with
// the layer listed right after them and parent chains are resolved once.
// Unsupported constructs are recorded as warnings.
func Build(comp *model.Composition, opts Options) (*Tree, error) {
	if comp == nil {
		return nil, ErrNoComposition
	}
	t := &Tree{comp: comp, opts: opts, log: opts.Log, progress: -1}
	if t.log == nil {
		t.log = slog.Default()
	}
	root := t.newLayer(comp.Root(), nil)
	t.root = root.index
	root.kind.(*precompKind).children = t.buildList(comp.Layers, nil)
	return t, nil
}

// buildList creates the layers of one precomp or of the composition.
// stack holds the precomp ids being built, to stop self reference. It
// returns the draw list, top first.
func (t *Tree) buildList(models []*model.Layer, stack []string) []int {
	byID := make(map[int64]int, len(models))
	built := make(map[*model.Layer]int, len(models))
	var order []int
	matted := -1
	for i := len(models) - 1; i >= 0; i-- {
		m := models[i]
		l := t.newLayer(m, stack)
		if l == nil {
			continue
		}
		byID[m.ID] = l.index
		built[m] = l.index
		if matted >= 0 {
			t.arena[matted].matte = l.index
			matted = -1
			continue
		}
		order = append(order, l.index)
		switch m.MatteType {
		case model.MatteAdd, model.MatteInvert, model.MatteLuma, model.MatteLumaInverted:
			matted = l.index
		}
	}
	// order was collected bottom first.
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}

	for _, m := range models {
		idx, ok := built[m]
		if !ok || m.ParentID < 0 {
			continue
		}
		p, ok := byID[m.ParentID]
		if !ok {
			t.warnings.Addf(model.WarnMissingParent, "layer %q: parent %d not found", m.Name, m.ParentID)
			continue
		}
		t.arena[idx].parent = p
	}
	for _, m := range models {
		if idx, ok := built[m]; ok {
			t.resolveChain(t.arena[idx])
		}
	}
	return order
}

// resolveChain caches l's ancestors, nearest first. A link that closes a
// cycle is cut.
func (t *Tree) resolveChain(l *Layer) {
	seen := map[int]bool{l.index: true}
	var chain []int
	cur := l
	for cur.parent >= 0 {
		if seen[cur.parent] {
			t.warnings.Addf(model.WarnParentCycle, "layer %q: parent %q forms a cycle",
				cur.model.Name, t.arena[cur.parent].model.Name)
			cur.parent = -1
			break
		}
		seen[cur.parent] = true
		chain = append(chain, cur.parent)
		cur = t.arena[cur.parent]
	}
	l.chain = chain
}

func (t *Tree) contentEnv() *content.Env {
	env := content.NewEnv(t.log, &t.warnings)
	env.Booleaner = t.opts.Booleaner
	env.CacheSteps = int(t.comp.Duration() / gradientStep)
	return env
}

// Composition returns the composition the tree was built from.
func (t *Tree) Composition() *model.Composition { return t.comp }

// Root returns the container layer hosting the top level layers.
func (t *Tree) Root() *Layer { return t.arena[t.root] }

// Layers returns the top level layers, top first.
func (t *Tree) Layers() []*Layer {
	return t.Root().Children()
}

// Len returns the number of runtime layers, mattes and precomp children
// included.
func (t *Tree) Len() int { return len(t.arena) }

// SetProgress moves every animation to p, the fraction of the composition
// duration.
func (t *Tree) SetProgress(p float64) {
	t.progress = p
	t.Root().setProgress(p)
}

func (t *Tree) Progress() float64 { return max(t.progress, 0) }

// Draw draws the current frame under m.
func (t *Tree) Draw(c canvas.Canvas, m geom.Matrix, alpha uint8) error {
	if t.progress < 0 {
		t.SetProgress(0)
	}
	return t.Root().Draw(c, m, alpha)
}

// Bounds returns the bounds of all visible layers under m.
func (t *Tree) Bounds(m geom.Matrix) (geom.Rect, error) {
	return t.Root().Bounds(m, true)
}

// ResolveKeyPath returns every element kp addresses.
func (t *Tree) ResolveKeyPath(kp keypath.KeyPath) []keypath.KeyPath {
	var acc []keypath.KeyPath
	t.Root().ResolveKeyPath(kp, 0, &acc, keypath.KeyPath{})
	return acc
}

// Warnings returns the parse warnings of the composition followed by those
// raised while building and drawing the tree.
func (t *Tree) Warnings() []model.Warning {
	return append(t.comp.Warnings.List(), t.warnings.List()...)
}

func (t *Tree) warnf(code, format string, args ...any) {
	before := t.warnings.Len()
	t.warnings.Addf(code, format, args...)
	if t.warnings.Len() > before {
		ws := t.warnings.List()
		t.log.Warn("layer tree", "code", code, "message", ws[len(ws)-1].Message)
	}
}
