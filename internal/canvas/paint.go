package canvas

import "github.com/inamate/motion/internal/geom"

type Style int

const (
	Fill Style = iota
	Stroke
)

// BlendMode is the compositing operator of a draw or a layer.
type BlendMode int

const (
	BlendSrcOver BlendMode = iota
	BlendSrcAtop
	BlendDstIn
	BlendDstOut
	BlendClear
	BlendMultiply
	BlendScreen
	BlendOverlay
	BlendDarken
	BlendLighten
	BlendPlus
)

var blendNames = [...]string{
	"srcOver", "srcAtop", "dstIn", "dstOut", "clear",
	"multiply", "screen", "overlay", "darken", "lighten", "plus",
}

func (b BlendMode) String() string {
	if b < 0 || int(b) >= len(blendNames) {
		return "unknown"
	}
	return blendNames[b]
}

type Cap int

const (
	CapButt Cap = iota
	CapRound
	CapSquare
)

func (c Cap) String() string {
	switch c {
	case CapRound:
		return "round"
	case CapSquare:
		return "square"
	}
	return "butt"
}

type Join int

const (
	JoinMiter Join = iota
	JoinRound
	JoinBevel
)

func (j Join) String() string {
	switch j {
	case JoinRound:
		return "round"
	case JoinBevel:
		return "bevel"
	}
	return "miter"
}

// ColorFilter tints everything drawn with the paint: Color is composited
// onto each source pixel with Mode.
type ColorFilter struct {
	Color geom.Color
	Mode  BlendMode
}

type GradientKind int

const (
	Linear GradientKind = iota
	Radial
)

// Shader is a gradient in local coordinates. Matrix maps it into the
// coordinate space of the draw.
type Shader struct {
	Kind GradientKind
	// Start and End are the linear endpoints. Radial gradients are centered
	// on Start.
	Start  geom.Point
	End    geom.Point
	Radius float64
	Stops  geom.Gradient
	Matrix geom.Matrix
}

// Paint is the state applied to a draw. The alpha of Color is the paint
// alpha, also for shaded draws.
type Paint struct {
	Style       Style
	Color       geom.Color
	StrokeWidth float64
	MiterLimit  float64
	Cap         Cap
	Join        Join
	// Dash alternates on and off lengths. Empty means solid.
	Dash        []float64
	DashPhase   float64
	ColorFilter *ColorFilter
	Shader      *Shader
	Blend       BlendMode
}

// NewPaint returns an opaque black paint.
func NewPaint(style Style) *Paint {
	return &Paint{Style: style, Color: geom.ARGB(255, 0, 0, 0), StrokeWidth: 1, MiterLimit: 4}
}

func (p *Paint) Alpha() uint8 {
	if p == nil {
		return 255
	}
	return p.Color.A()
}

func (p *Paint) SetAlpha(a uint8) {
	p.Color = p.Color.WithAlpha(a)
}

// AlphaPaint returns a source-over paint that only carries alpha.
func AlphaPaint(a uint8) *Paint {
	return &Paint{Color: geom.ARGB(a, 0, 0, 0)}
}

// BlendPaint returns an opaque paint with the given blend mode.
func BlendPaint(b BlendMode) *Paint {
	return &Paint{Color: geom.ARGB(255, 0, 0, 0), Blend: b}
}
