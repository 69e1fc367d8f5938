// Package model holds the static scene graph of a parsed composition.
//
// Nothing in this package changes after parsing finishes, so a Composition
// may be shared by any number of engines.
package model

import (
	"math"
	"time"

	"github.com/inamate/motion/internal/geom"
	"github.com/inamate/motion/internal/keyframe"
)

type Composition struct {
	Name    string
	Version string
	Bounds  geom.Rect
	Timing  *keyframe.Timing

	Layers    []*Layer
	LayerByID map[int64]*Layer
	Precomps  map[string][]*Layer

	Images     map[string]*ImageAsset
	Fonts      map[string]*Font
	Characters map[CharKey]*FontCharacter
	Markers    []Marker

	Warnings Warnings
}

// StartFrame returns the first frame of the composition.
func (c *Composition) StartFrame() float64 { return c.Timing.StartFrame }

// EndFrame returns the frame the composition ends on.
func (c *Composition) EndFrame() float64 { return c.Timing.EndFrame }

func (c *Composition) FrameRate() float64 { return c.Timing.FrameRate }

func (c *Composition) DurationFrames() float64 { return c.Timing.DurationFrames() }

// Duration returns the wall-clock playing time at speed 1.
func (c *Composition) Duration() time.Duration {
	if c.Timing.FrameRate <= 0 {
		return 0
	}
	return time.Duration(c.DurationFrames() / c.Timing.FrameRate * float64(time.Second))
}

// FrameForProgress maps a progress in [0, 1] to a frame number.
func (c *Composition) FrameForProgress(p float64) float64 {
	return geom.Lerp(c.Timing.StartFrame, c.Timing.EndFrame, p)
}

// ProgressForFrame maps a frame number to progress, clamped to [0, 1].
func (c *Composition) ProgressForFrame(f float64) float64 {
	d := c.DurationFrames()
	if d == 0 {
		return 0
	}
	return geom.Clamp((f-c.Timing.StartFrame)/d, 0, 1)
}

// Marker looks a marker up by name. Trailing carriage returns exported by
// some tools are ignored.
func (c *Composition) Marker(name string) (Marker, bool) {
	for _, m := range c.Markers {
		if m.Matches(name) {
			return m, true
		}
	}
	return Marker{}, false
}

// Root returns the synthetic container layer that hosts the top level
// layers.
func (c *Composition) Root() *Layer {
	return &Layer{
		Name:          ContainerName,
		ID:            -1,
		ParentID:      -1,
		Type:          LayerPrecomp,
		Transform:     &AnimatableTransform{},
		TimeStretch:   1,
		OutFrame:      math.MaxFloat64,
		PrecompWidth:  c.Bounds.Width,
		PrecompHeight: c.Bounds.Height,
	}
}

// ContainerName names the root layer.
const ContainerName = "__container"

type Marker struct {
	Name           string  `json:"name"`
	StartFrame     float64 `json:"startFrame"`
	DurationFrames float64 `json:"durationFrames"`
}

// Matches reports whether the marker has the given name.
func (m Marker) Matches(name string) bool {
	if m.Name == name {
		return true
	}
	n := len(m.Name)
	return n > 0 && m.Name[n-1] == '\r' && m.Name[:n-1] == name
}

type ImageAsset struct {
	ID       string
	FileName string
	Dir      string
	Width    int
	Height   int
	// Data holds embedded image bytes, decoded from a data URI.
	Data []byte
}
