// Package engine drives one composition: it owns the layer tree and the
// animator and draws frames into a canvas.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/inamate/motion/internal/animator"
	"github.com/inamate/motion/internal/canvas"
	"github.com/inamate/motion/internal/geom"
	"github.com/inamate/motion/internal/keyframe"
	"github.com/inamate/motion/internal/keypath"
	"github.com/inamate/motion/internal/layer"
	"github.com/inamate/motion/internal/model"
)

var (
	// ErrNoComposition is returned by operations that need a composition
	// before one is set.
	ErrNoComposition = errors.New("engine: no composition")
	// ErrUnresolved is returned when a key path matches nothing in the
	// current composition. The callback is still kept for later ones.
	ErrUnresolved = errors.New("engine: key path matched nothing")
	// ErrMarkerNotFound is returned for unknown marker names.
	ErrMarkerNotFound = errors.New("engine: marker not found")
)

// Option configures an Engine.
type Option func(*Engine)

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithImages sets the provider image layers draw from.
func WithImages(p layer.ImageProvider) Option {
	return func(e *Engine) { e.layerOpts.Images = p }
}

// WithFontFamily maps composition fonts to canvas font families.
func WithFontFamily(fn func(f *model.Font) string) Option {
	return func(e *Engine) { e.layerOpts.FontFamily = fn }
}

// WithBooleaner enables boolean merge path modes.
func WithBooleaner(b geom.Booleaner) Option {
	return func(e *Engine) { e.layerOpts.Booleaner = b }
}

// WithScale fixes the draw scale. By default frames are scaled to fit the
// canvas.
func WithScale(s float64) Option {
	return func(e *Engine) { e.scale = s }
}

// WithOpacityLayers draws translucent precomps through one offscreen layer.
func WithOpacityLayers(on bool) Option {
	return func(e *Engine) { e.layerOpts.OpacityLayers = on }
}

type valueCallback struct {
	kp   keypath.KeyPath
	prop keypath.Property
	cb   any
}

// Engine is safe for concurrent use. Every method holds one lock, so a
// composition swap never interleaves with a draw.
type Engine struct {
	mu sync.Mutex

	log       *slog.Logger
	layerOpts layer.Options
	scale     float64

	comp      *model.Composition
	tree      *layer.Tree
	anim      *animator.Animator
	callbacks []valueCallback
}

// New returns an engine without a composition.
func New(opts ...Option) *Engine {
	e := &Engine{anim: animator.New(0, 0, 0)}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = slog.Default()
	}
	e.layerOpts.Log = e.log
	return e
}

// SetComposition builds the layer tree for c and replaces the current one.
// Play bounds reset to the full composition and registered value callbacks
// are applied to the new tree.
func (e *Engine) SetComposition(c *model.Composition) error {
	tree, err := layer.Build(c, e.layerOpts)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.comp, e.tree = c, tree
	e.anim.SetComposition(c.StartFrame(), c.EndFrame(), c.FrameRate())
	for _, vc := range e.callbacks {
		e.applyCallback(vc)
	}
	e.tree.SetProgress(e.anim.Progress())
	for _, w := range c.Warnings.List() {
		e.log.Warn("composition", "code", w.Code, "message", w.Message)
	}
	return nil
}

// Composition returns the current composition, or nil.
func (e *Engine) Composition() *model.Composition {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.comp
}

// Warnings returns the parse and build warnings of the current
// composition.
func (e *Engine) Warnings() []model.Warning {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.tree == nil {
		return nil
	}
	return e.tree.Warnings()
}

// Animator returns the animator. Callers must not use it concurrently with
// the engine.
func (e *Engine) Animator() *animator.Animator { return e.anim }

// sync pushes the animator position into the tree.
func (e *Engine) sync() {
	if e.tree != nil {
		e.tree.SetProgress(e.anim.Progress())
	}
}

// SetProgress moves to fraction p of the composition.
func (e *Engine) SetProgress(p float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.anim.SetProgress(p)
	e.sync()
}

// SetFrame moves to frame f.
func (e *Engine) SetFrame(f float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.anim.SetFrame(f)
	e.sync()
}

func (e *Engine) Progress() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.anim.Progress()
}

func (e *Engine) Frame() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.anim.Frame()
}

// Play starts playback from the first frame of the play range.
func (e *Engine) Play() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.anim.Play()
	e.sync()
}

// Resume continues playback from the current frame.
func (e *Engine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.anim.Resume()
}

func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.anim.Pause()
}

// TogglePlay pauses a running engine and resumes a paused one.
func (e *Engine) TogglePlay() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.anim.Running() {
		e.anim.Pause()
	} else {
		e.anim.Resume()
	}
}

// SetSpeed sets the playback rate. Negative speeds play backwards.
func (e *Engine) SetSpeed(s float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.anim.SetSpeed(s)
}

// SetRepeat sets the repeat count and mode.
func (e *Engine) SetRepeat(count int, mode animator.RepeatMode) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.anim.SetRepeatCount(count)
	e.anim.SetRepeatMode(mode)
}

// SetMinAndMaxFrames narrows playback to [lo, hi].
func (e *Engine) SetMinAndMaxFrames(lo, hi float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.anim.SetMinAndMaxFrames(lo, hi)
	e.sync()
}

// SetMarker narrows playback to the frames of the named marker.
func (e *Engine) SetMarker(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.comp == nil {
		return ErrNoComposition
	}
	m, ok := e.comp.Marker(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrMarkerNotFound, name)
	}
	e.anim.SetMinAndMaxFrames(m.StartFrame, m.StartFrame+m.DurationFrames)
	e.sync()
	return nil
}

// Tick advances playback by elapsed and reports whether the frame
// changed.
func (e *Engine) Tick(elapsed time.Duration) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.tree == nil {
		return false, ErrNoComposition
	}
	if !e.anim.Tick(elapsed) {
		return false, nil
	}
	e.sync()
	return true, nil
}

// matrix scales the composition onto a w by h surface.
func (e *Engine) matrix(w, h float64) geom.Matrix {
	s := e.scale
	if s <= 0 {
		b := e.comp.Bounds
		if b.Width <= 0 || b.Height <= 0 {
			return geom.Identity()
		}
		s = min(w/b.Width, h/b.Height)
	}
	return geom.Scale(s, s)
}

// Draw draws the current frame scaled to c.
func (e *Engine) Draw(c canvas.Canvas) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draw(c)
}

func (e *Engine) draw(c canvas.Canvas) error {
	if e.tree == nil {
		return ErrNoComposition
	}
	return e.tree.Draw(c, e.matrix(c.Width(), c.Height()), 255)
}

// Size returns the composition size at the engine scale.
func (e *Engine) Size() (float64, float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.comp == nil {
		return 0, 0
	}
	s := e.scale
	if s <= 0 {
		s = 1
	}
	return e.comp.Bounds.Width * s, e.comp.Bounds.Height * s
}

// Commands records the frame at progress p. The engine stays at p.
func (e *Engine) Commands(p float64) ([]canvas.Command, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.tree == nil {
		return nil, ErrNoComposition
	}
	e.anim.SetProgress(p)
	e.sync()
	s := e.scale
	if s <= 0 {
		s = 1
	}
	rec := canvas.NewRecorder(e.comp.Bounds.Width*s, e.comp.Bounds.Height*s)
	if err := e.draw(rec); err != nil {
		return nil, err
	}
	return rec.Commands(), nil
}

// ResolveKeyPath returns the elements kp addresses in the current
// composition.
func (e *Engine) ResolveKeyPath(kp keypath.KeyPath) []keypath.KeyPath {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.tree == nil {
		return nil
	}
	return e.tree.ResolveKeyPath(kp)
}

// AddValueCallback overrides prop on every element kp resolves to. The
// callback is kept and applied again whenever the composition changes.
// cb must be a keyframe.ValueCallback of the property's value type.
func (e *Engine) AddValueCallback(kp keypath.KeyPath, prop keypath.Property, cb any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	vc := valueCallback{kp: kp, prop: prop, cb: cb}
	e.callbacks = append(e.callbacks, vc)
	if e.tree == nil {
		return nil
	}
	if e.applyCallback(vc) == 0 {
		return fmt.Errorf("%w: %s", ErrUnresolved, kp)
	}
	return nil
}

// SetValueCallback is the typed form of AddValueCallback.
func SetValueCallback[T any](e *Engine, kp keypath.KeyPath, prop keypath.Property, cb keyframe.ValueCallback[T]) error {
	return e.AddValueCallback(kp, prop, cb)
}

func (e *Engine) applyCallback(vc valueCallback) int {
	applied := 0
	for _, r := range e.tree.ResolveKeyPath(vc.kp) {
		if el := r.Element(); el != nil && el.ApplyValueCallback(vc.prop, vc.cb) {
			applied++
		}
	}
	// Values created for a callback start out at progress zero.
	e.tree.SetProgress(e.anim.Progress())
	if applied == 0 {
		e.log.Warn("value callback not applied", "keypath", vc.kp.String(), "property", vc.prop.String())
	}
	return applied
}

// HitTest returns the name of the topmost visible layer whose bounds
// contain the device point (x, y) on a w by h surface, or "".
func (e *Engine) HitTest(x, y, w, h float64) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.tree == nil {
		return "", ErrNoComposition
	}
	m := e.matrix(w, h)
	for _, l := range e.tree.Layers() {
		b, err := l.Bounds(m, true)
		if err != nil {
			return "", err
		}
		if x >= b.Left() && x < b.Right() && y >= b.Top() && y < b.Bottom() {
			return l.Name(), nil
		}
	}
	return "", nil
}
