package canvas

import (
	"encoding/json"
	"image"

	"github.com/inamate/motion/internal/geom"
)

// Command is one recorded canvas operation, serializable for thin clients
// that replay it on their own 2D context.
type Command struct {
	// Op is one of save, restore, saveLayer, clip, concat, path, rect,
	// bitmap and glyph.
	Op        string        `json:"op"`
	Transform []float64     `json:"transform,omitempty"` // [a, b, c, d, e, f]
	Path      []PathCommand `json:"path,omitempty"`
	FillRule  string        `json:"fillRule,omitempty"`
	Rect      *geom.Rect    `json:"rect,omitempty"`
	Src       *geom.Rect    `json:"src,omitempty"`

	Fill        string    `json:"fill,omitempty"`
	Stroke      string    `json:"stroke,omitempty"`
	StrokeWidth float64   `json:"strokeWidth,omitempty"`
	LineCap     string    `json:"lineCap,omitempty"`
	LineJoin    string    `json:"lineJoin,omitempty"`
	MiterLimit  float64   `json:"miterLimit,omitempty"`
	Dash        []float64 `json:"dash,omitempty"`
	DashOffset  float64   `json:"dashOffset,omitempty"`
	Opacity     float64   `json:"opacity,omitempty"`
	Blend       string    `json:"blend,omitempty"`
	Gradient    *Gradient `json:"gradient,omitempty"`
	ColorFilter string    `json:"colorFilter,omitempty"`

	Text     string  `json:"text,omitempty"`
	Font     string  `json:"font,omitempty"`
	FontSize float64 `json:"fontSize,omitempty"`

	ImageWidth  int `json:"imageWidth,omitempty"`
	ImageHeight int `json:"imageHeight,omitempty"`

	// Geometry and paint as drawn, for in-process inspection.
	Shape *geom.Path `json:"-"`
	Paint Paint      `json:"-"`
}

// PathCommand is a path segment in Canvas2D form: ["M", x, y],
// ["L", x, y], ["C", x1, y1, x2, y2, x, y] or ["Z"].
type PathCommand []interface{}

// Gradient is the serialized form of a Shader.
type Gradient struct {
	Kind      string    `json:"kind"`
	Start     []float64 `json:"start"`
	End       []float64 `json:"end,omitempty"`
	Radius    float64   `json:"radius,omitempty"`
	Offsets   []float64 `json:"offsets"`
	Colors    []string  `json:"colors"`
	Transform []float64 `json:"transform"`
}

// Recorder is a Canvas that records operations instead of drawing them.
type Recorder struct {
	width, height float64
	matrix        geom.Matrix
	stack         []geom.Matrix
	commands      []Command
}

// NewRecorder returns a recorder for a width by height surface.
func NewRecorder(width, height float64) *Recorder {
	return &Recorder{width: width, height: height, matrix: geom.Identity()}
}

// Commands returns the recorded operations.
func (r *Recorder) Commands() []Command {
	return r.commands
}

// Reset drops recorded operations and the state stack.
func (r *Recorder) Reset() {
	r.commands = r.commands[:0]
	r.stack = r.stack[:0]
	r.matrix = geom.Identity()
}

// Paths returns the path draws in order.
func (r *Recorder) Paths() []Command {
	var out []Command
	for _, c := range r.commands {
		if c.Op == "path" {
			out = append(out, c)
		}
	}
	return out
}

// MarshalJSON serializes the recorded operations.
func (r *Recorder) MarshalJSON() ([]byte, error) {
	if r.commands == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(r.commands)
}

func (r *Recorder) Width() float64  { return r.width }
func (r *Recorder) Height() float64 { return r.height }

func (r *Recorder) Save() {
	r.stack = append(r.stack, r.matrix)
	r.commands = append(r.commands, Command{Op: "save"})
}

func (r *Recorder) SaveLayer(bounds geom.Rect, paint *Paint) {
	r.stack = append(r.stack, r.matrix)
	cmd := Command{Op: "saveLayer", Rect: &bounds, Transform: r.matrix.ToSlice(), Opacity: float64(paint.Alpha()) / 255}
	if paint != nil {
		cmd.Blend = paint.Blend.String()
		cmd.Paint = *paint
	}
	r.commands = append(r.commands, cmd)
}

// Restore is a no-op on an empty stack.
func (r *Recorder) Restore() {
	n := len(r.stack)
	if n == 0 {
		return
	}
	r.matrix = r.stack[n-1]
	r.stack = r.stack[:n-1]
	r.commands = append(r.commands, Command{Op: "restore"})
}

func (r *Recorder) ClipRect(rect geom.Rect) {
	p := geom.NewPath()
	p.MoveTo(rect.Left(), rect.Top())
	p.LineTo(rect.Right(), rect.Top())
	p.LineTo(rect.Right(), rect.Bottom())
	p.LineTo(rect.Left(), rect.Bottom())
	p.Close()
	r.commands = append(r.commands, Command{Op: "clip", Transform: r.matrix.ToSlice(), Rect: &rect, Path: PathCommands(p)})
}

func (r *Recorder) Concat(m geom.Matrix) {
	r.matrix = r.matrix.Multiply(m)
	r.commands = append(r.commands, Command{Op: "concat", Transform: m.ToSlice()})
}

func (r *Recorder) Translate(dx, dy float64) { r.Concat(geom.Translate(dx, dy)) }
func (r *Recorder) Scale(sx, sy float64)     { r.Concat(geom.Scale(sx, sy)) }

// Matrix returns the current transform.
func (r *Recorder) Matrix() geom.Matrix { return r.matrix }

func (r *Recorder) DrawPath(p *geom.Path, paint *Paint) {
	cmd := r.paintCommand("path", paint)
	cmd.Shape = p.Clone()
	cmd.Path = PathCommands(p)
	if p.FillType() == geom.EvenOdd {
		cmd.FillRule = "evenodd"
	} else {
		cmd.FillRule = "nonzero"
	}
	r.commands = append(r.commands, cmd)
}

func (r *Recorder) DrawRect(rect geom.Rect, paint *Paint) {
	cmd := r.paintCommand("rect", paint)
	cmd.Rect = &rect
	r.commands = append(r.commands, cmd)
}

func (r *Recorder) DrawBitmap(img image.Image, src, dst geom.Rect, paint *Paint) {
	cmd := r.paintCommand("bitmap", paint)
	cmd.Src, cmd.Rect = &src, &dst
	if img != nil {
		b := img.Bounds()
		cmd.ImageWidth, cmd.ImageHeight = b.Dx(), b.Dy()
	}
	r.commands = append(r.commands, cmd)
}

// DrawGlyph records the run and estimates its advance as 0.6 em per rune.
func (r *Recorder) DrawGlyph(g Glyph, paint *Paint) float64 {
	cmd := r.paintCommand("glyph", paint)
	cmd.Text, cmd.Font, cmd.FontSize = g.Text, g.Family, g.Size
	r.commands = append(r.commands, cmd)
	return estimateAdvance(g)
}

func (r *Recorder) MeasureGlyph(g Glyph) float64 { return estimateAdvance(g) }

func (r *Recorder) paintCommand(op string, paint *Paint) Command {
	cmd := Command{Op: op, Transform: r.matrix.ToSlice()}
	if paint == nil {
		paint = NewPaint(Fill)
	}
	cmd.Paint = *paint
	cmd.Opacity = float64(paint.Alpha()) / 255
	if paint.Blend != BlendSrcOver {
		cmd.Blend = paint.Blend.String()
	}
	color := paint.Color.WithAlpha(255).Hex()
	if paint.Style == Stroke {
		cmd.Stroke = color
		cmd.StrokeWidth = paint.StrokeWidth
		cmd.LineCap = paint.Cap.String()
		cmd.LineJoin = paint.Join.String()
		cmd.MiterLimit = paint.MiterLimit
		cmd.Dash = append([]float64(nil), paint.Dash...)
		cmd.DashOffset = paint.DashPhase
	} else {
		cmd.Fill = color
	}
	if s := paint.Shader; s != nil {
		cmd.Gradient = serializeShader(s)
	}
	if f := paint.ColorFilter; f != nil {
		cmd.ColorFilter = f.Color.Hex()
	}
	return cmd
}

func serializeShader(s *Shader) *Gradient {
	g := &Gradient{
		Kind:      "linear",
		Start:     []float64{s.Start.X, s.Start.Y},
		Offsets:   append([]float64(nil), s.Stops.Positions...),
		Transform: s.Matrix.ToSlice(),
	}
	if s.Kind == Radial {
		g.Kind = "radial"
		g.Radius = s.Radius
	} else {
		g.End = []float64{s.End.X, s.End.Y}
	}
	for _, c := range s.Stops.Colors {
		g.Colors = append(g.Colors, c.Hex())
	}
	return g
}

// PathCommands converts p to Canvas2D segments. Arcs become cubics.
func PathCommands(p *geom.Path) []PathCommand {
	segs := p.Normalized()
	out := make([]PathCommand, 0, len(segs))
	for _, s := range segs {
		switch s.Verb {
		case geom.MoveTo:
			out = append(out, PathCommand{"M", s.Pts[0].X, s.Pts[0].Y})
		case geom.LineTo:
			out = append(out, PathCommand{"L", s.Pts[0].X, s.Pts[0].Y})
		case geom.CubicTo:
			out = append(out, PathCommand{"C", s.Pts[0].X, s.Pts[0].Y, s.Pts[1].X, s.Pts[1].Y, s.Pts[2].X, s.Pts[2].Y})
		case geom.Close:
			out = append(out, PathCommand{"Z"})
		}
	}
	return out
}
