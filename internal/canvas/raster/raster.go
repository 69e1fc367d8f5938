// Package raster renders into pixels with gg.
//
// gg rasterizes single draws into a scratch context. The matrix, clip and
// layer stacks are kept here, and every draw is composited onto the
// current surface with the Porter-Duff and separable blend modes of the
// canvas package, which gg layers do not all support.
//
// Clips are axis aligned in device space: a rotated ClipRect clips to its
// bounding box. Bitmaps are drawn axis aligned for the same reason.
package raster

import (
	"fmt"
	"image"
	"image/draw"
	"io"
	"log/slog"
	"math"
	"strings"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/inamate/motion/internal/canvas"
	"github.com/inamate/motion/internal/geom"
)

// Canvas is a canvas.Canvas backed by an RGBA image.
type Canvas struct {
	width, height int
	log           *slog.Logger

	fonts   map[string]*text.FontSource
	regular *text.FontSource
	bold    *text.FontSource
	faces   map[faceKey]text.Face

	scratch *gg.Context
	layers  []*surface
	state   state
	stack   []state
}

type state struct {
	m     geom.Matrix
	clip  image.Rectangle
	layer bool
}

// surface is an offscreen layer, composited onto the one below it on
// Restore.
type surface struct {
	img   *image.RGBA
	clip  image.Rectangle
	alpha uint8
	blend canvas.BlendMode
}

type faceKey struct {
	family string
	bold   bool
	size   float64
}

type options struct {
	log   *slog.Logger
	fonts map[string][]byte
}

// Option configures a Canvas.
type Option func(*options)

// WithLogger sets the logger for draws that fail to rasterize.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithFont registers TrueType or OpenType data for a font family. Families
// without a registered font are drawn with Go Regular or Go Bold.
func WithFont(family string, data []byte) Option {
	return func(o *options) {
		if o.fonts == nil {
			o.fonts = make(map[string][]byte)
		}
		o.fonts[family] = data
	}
}

// New returns a transparent width by height canvas.
func New(width, height int, opts ...Option) (*Canvas, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("raster: invalid size %dx%d", width, height)
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = slog.Default()
	}
	c := &Canvas{
		width:   width,
		height:  height,
		log:     o.log,
		fonts:   make(map[string]*text.FontSource, len(o.fonts)),
		faces:   make(map[faceKey]text.Face),
		scratch: gg.NewContext(width, height),
	}
	var err error
	if c.regular, err = text.NewFontSource(goregular.TTF); err != nil {
		return nil, fmt.Errorf("raster: load fallback font: %w", err)
	}
	if c.bold, err = text.NewFontSource(gobold.TTF); err != nil {
		return nil, fmt.Errorf("raster: load fallback font: %w", err)
	}
	for family, data := range o.fonts {
		src, err := text.NewFontSource(data)
		if err != nil {
			return nil, fmt.Errorf("raster: load font %q: %w", family, err)
		}
		c.fonts[family] = src
	}
	c.Reset()
	return c, nil
}

// Reset clears the surface and drops the state stack.
func (c *Canvas) Reset() {
	full := image.Rect(0, 0, c.width, c.height)
	c.layers = []*surface{{img: image.NewRGBA(full), clip: full, alpha: 255}}
	c.state = state{m: geom.Identity(), clip: full}
	c.stack = c.stack[:0]
}

// Image returns the base surface. Layers still open are not included.
func (c *Canvas) Image() *image.RGBA {
	return c.layers[0].img
}

// EncodePNG writes the base surface as PNG.
func (c *Canvas) EncodePNG(w io.Writer) error {
	return gg.NewContextForImage(c.Image()).EncodePNG(w)
}

func (c *Canvas) Width() float64  { return float64(c.width) }
func (c *Canvas) Height() float64 { return float64(c.height) }

// Matrix returns the current transform.
func (c *Canvas) Matrix() geom.Matrix { return c.state.m }

func (c *Canvas) Save() {
	c.stack = append(c.stack, c.state)
	c.state.layer = false
}

func (c *Canvas) SaveLayer(bounds geom.Rect, paint *canvas.Paint) {
	c.stack = append(c.stack, c.state)
	clip := c.state.clip.Intersect(deviceRect(c.state.m.TransformRect(bounds)))
	s := &surface{img: image.NewRGBA(image.Rect(0, 0, c.width, c.height)), clip: clip, alpha: paint.Alpha()}
	if paint != nil {
		s.blend = paint.Blend
	}
	c.layers = append(c.layers, s)
	c.state.clip = clip
	c.state.layer = true
}

// Restore is a no-op on an empty stack.
func (c *Canvas) Restore() {
	n := len(c.stack)
	if n == 0 {
		return
	}
	if c.state.layer {
		top := c.layers[len(c.layers)-1]
		c.layers = c.layers[:len(c.layers)-1]
		blendImage(c.top().img, top.img, top.clip, top.blend, top.alpha)
	}
	c.state = c.stack[n-1]
	c.stack = c.stack[:n-1]
}

func (c *Canvas) ClipRect(r geom.Rect) {
	c.state.clip = c.state.clip.Intersect(deviceRect(c.state.m.TransformRect(r)))
}

func (c *Canvas) Concat(m geom.Matrix) {
	c.state.m = c.state.m.Multiply(m)
}

func (c *Canvas) Translate(dx, dy float64) { c.Concat(geom.Translate(dx, dy)) }
func (c *Canvas) Scale(sx, sy float64)     { c.Concat(geom.Scale(sx, sy)) }

func (c *Canvas) top() *surface {
	return c.layers[len(c.layers)-1]
}

func (c *Canvas) DrawRect(r geom.Rect, paint *canvas.Paint) {
	p := geom.NewPath()
	p.MoveTo(r.Left(), r.Top())
	p.LineTo(r.Right(), r.Top())
	p.LineTo(r.Right(), r.Bottom())
	p.LineTo(r.Left(), r.Bottom())
	p.Close()
	c.DrawPath(p, paint)
}

func (c *Canvas) DrawPath(p *geom.Path, paint *canvas.Paint) {
	if paint == nil {
		paint = canvas.NewPaint(canvas.Fill)
	}
	if paint.Alpha() == 0 || p.IsEmpty() {
		return
	}
	m := c.state.m
	scale := m.ScaleFactor()
	area := m.TransformRect(p.Bounds())
	if paint.Style == canvas.Stroke {
		area = area.Outset(paint.StrokeWidth*scale/2*math.Max(paint.MiterLimit, 1) + 1)
	} else {
		area = area.Outset(1)
	}

	c.rasterize(paint, area, func(dc *gg.Context) error {
		for _, s := range p.Normalized() {
			switch s.Verb {
			case geom.MoveTo:
				pt := m.Map(s.Pts[0])
				dc.MoveTo(pt.X, pt.Y)
			case geom.LineTo:
				pt := m.Map(s.Pts[0])
				dc.LineTo(pt.X, pt.Y)
			case geom.CubicTo:
				c1, c2, pt := m.Map(s.Pts[0]), m.Map(s.Pts[1]), m.Map(s.Pts[2])
				dc.CubicTo(c1.X, c1.Y, c2.X, c2.Y, pt.X, pt.Y)
			case geom.Close:
				dc.ClosePath()
			}
		}
		if p.FillType() == geom.EvenOdd {
			dc.SetFillRule(gg.FillRuleEvenOdd)
		} else {
			dc.SetFillRule(gg.FillRuleNonZero)
		}
		if paint.Style == canvas.Fill {
			return dc.Fill()
		}
		setStroke(dc, paint, scale)
		return dc.Stroke()
	})
}

func setStroke(dc *gg.Context, paint *canvas.Paint, scale float64) {
	dc.SetLineWidth(paint.StrokeWidth * scale)
	dc.SetMiterLimit(paint.MiterLimit)
	switch paint.Cap {
	case canvas.CapRound:
		dc.SetLineCap(gg.LineCapRound)
	case canvas.CapSquare:
		dc.SetLineCap(gg.LineCapSquare)
	default:
		dc.SetLineCap(gg.LineCapButt)
	}
	switch paint.Join {
	case canvas.JoinRound:
		dc.SetLineJoin(gg.LineJoinRound)
	case canvas.JoinBevel:
		dc.SetLineJoin(gg.LineJoinBevel)
	default:
		dc.SetLineJoin(gg.LineJoinMiter)
	}
	if len(paint.Dash) == 0 {
		dc.ClearDash()
		return
	}
	dash := make([]float64, len(paint.Dash))
	for i, d := range paint.Dash {
		dash[i] = d * scale
	}
	dc.SetDash(dash...)
	dc.SetDashOffset(paint.DashPhase * scale)
}

// DrawBitmap maps dst through the current matrix and draws src into its
// device bounds.
func (c *Canvas) DrawBitmap(img image.Image, src, dst geom.Rect, paint *canvas.Paint) {
	alpha := paint.Alpha()
	if img == nil || alpha == 0 || src.IsEmpty() || dst.IsEmpty() {
		return
	}
	d := c.state.m.TransformRect(dst)
	b := img.Bounds()
	sr := image.Rect(
		b.Min.X+int(math.Floor(src.Left())), b.Min.Y+int(math.Floor(src.Top())),
		b.Min.X+int(math.Ceil(src.Right())), b.Min.Y+int(math.Ceil(src.Bottom())),
	).Intersect(b)
	if sr.Empty() {
		return
	}
	blend := canvas.BlendSrcOver
	if paint != nil {
		blend = paint.Blend
	}
	c.composite(blend, d, func(dc *gg.Context) error {
		dc.DrawImageEx(gg.ImageBufFromImage(img), gg.DrawImageOptions{
			X:         d.X,
			Y:         d.Y,
			DstWidth:  d.Width,
			DstHeight: d.Height,
			SrcRect:   &sr,
			Opacity:   float64(alpha) / 255,
		})
		return nil
	}, nil)
}

// DrawGlyph draws g with its baseline origin at the current origin. Text
// is not rotated or skewed by the matrix, only placed and scaled.
func (c *Canvas) DrawGlyph(g canvas.Glyph, paint *canvas.Paint) float64 {
	adv := c.MeasureGlyph(g)
	if paint == nil {
		paint = canvas.NewPaint(canvas.Fill)
	}
	if paint.Alpha() == 0 || g.Text == "" || g.Size <= 0 {
		return adv
	}
	m := c.state.m
	scale := m.ScaleFactor()
	face := c.face(g, g.Size*scale)
	origin := m.Map(geom.Point{})
	area := geom.Rect{X: origin.X, Y: origin.Y - g.Size*scale*1.5, Width: adv*scale + g.Size*scale, Height: g.Size * scale * 2}

	c.rasterize(paint, area, func(dc *gg.Context) error {
		dc.SetFont(face)
		dc.DrawString(g.Text, origin.X, origin.Y)
		return nil
	})
	return adv
}

// MeasureGlyph returns the advance of g in its own units.
func (c *Canvas) MeasureGlyph(g canvas.Glyph) float64 {
	if g.Text == "" || g.Size <= 0 {
		return 0
	}
	dc := c.scratch
	dc.SetFont(c.face(g, g.Size))
	w, _ := dc.MeasureString(g.Text)
	return w
}

func (c *Canvas) face(g canvas.Glyph, size float64) text.Face {
	key := faceKey{family: g.Family, bold: strings.Contains(strings.ToLower(g.Style), "bold"), size: size}
	if f, ok := c.faces[key]; ok {
		return f
	}
	src, ok := c.fonts[g.Family]
	switch {
	case ok:
	case key.bold:
		src = c.bold
	default:
		src = c.regular
	}
	f := src.Face(size)
	c.faces[key] = f
	return f
}

// rasterize draws the coverage of fn with paint and composites it onto the
// current surface.
func (c *Canvas) rasterize(paint *canvas.Paint, area geom.Rect, fn func(dc *gg.Context) error) {
	if s := paint.Shader; s != nil {
		c.composite(paint.Blend, area, func(dc *gg.Context) error {
			dc.SetRGBA(1, 1, 1, 1)
			return fn(dc)
		}, func(img *image.RGBA, r image.Rectangle) {
			c.shade(img, r, s, paint.Alpha())
		})
		return
	}
	col := paint.Color
	if f := paint.ColorFilter; f != nil {
		col = filter(col, f)
	}
	c.composite(paint.Blend, area, func(dc *gg.Context) error {
		dc.SetRGBA(float64(col.R())/255, float64(col.G())/255, float64(col.B())/255, float64(col.A())/255)
		return fn(dc)
	}, nil)
}

// composite runs fn on the cleared scratch context and blends the result
// onto the current surface within the clip. Modes that keep the
// destination where nothing was drawn are limited to area. post, when
// set, rewrites the drawn pixels before blending.
func (c *Canvas) composite(mode canvas.BlendMode, area geom.Rect, fn func(dc *gg.Context) error, post func(img *image.RGBA, r image.Rectangle)) {
	r := c.state.clip
	if mode != canvas.BlendDstIn {
		r = r.Intersect(deviceRect(area))
	}
	if r.Empty() {
		return
	}
	dc := c.scratch
	dc.ClearPath()
	dc.Clear()
	dc.Identity()
	if err := fn(dc); err != nil {
		c.log.Debug("raster: draw failed", "error", err)
		return
	}
	if err := dc.FlushGPU(); err != nil {
		c.log.Debug("raster: flush failed", "error", err)
	}
	img := toRGBA(dc.Image())
	if post != nil {
		post(img, r)
	}
	blendImage(c.top().img, img, r, mode, 255)
}

// shade replaces the white coverage in img with the gradient s.
func (c *Canvas) shade(img *image.RGBA, r image.Rectangle, s *canvas.Shader, alpha uint8) {
	inv, ok := c.state.m.Multiply(s.Matrix).Invert()
	if !ok {
		return
	}
	pa := float64(alpha) / 255
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			i := img.PixOffset(x, y)
			cov := float64(img.Pix[i+3]) / 255
			if cov == 0 {
				continue
			}
			p := inv.Map(geom.Point{X: float64(x) + 0.5, Y: float64(y) + 0.5})
			col := s.Stops.ColorAt(gradientPosition(s, p))
			a := float64(col.A()) / 255 * pa * cov
			img.Pix[i+0] = uint8(float64(col.R())*a + 0.5)
			img.Pix[i+1] = uint8(float64(col.G())*a + 0.5)
			img.Pix[i+2] = uint8(float64(col.B())*a + 0.5)
			img.Pix[i+3] = uint8(a*255 + 0.5)
		}
	}
}

// gradientPosition projects p, in shader space, onto the gradient.
func gradientPosition(s *canvas.Shader, p geom.Point) float64 {
	switch s.Kind {
	case canvas.Radial:
		if s.Radius <= 0 {
			return 1
		}
		return math.Hypot(p.X-s.Start.X, p.Y-s.Start.Y) / s.Radius
	default:
		dx, dy := s.End.X-s.Start.X, s.End.Y-s.Start.Y
		l := dx*dx + dy*dy
		if l == 0 {
			return 0
		}
		return ((p.X-s.Start.X)*dx + (p.Y-s.Start.Y)*dy) / l
	}
}

// filter applies a color filter to a solid color. The source alpha is
// kept.
func filter(src geom.Color, f *canvas.ColorFilter) geom.Color {
	d := pixel{float64(src.R()) / 255, float64(src.G()) / 255, float64(src.B()) / 255, 1}
	fa := float64(f.Color.A()) / 255
	s := pixel{float64(f.Color.R()) / 255 * fa, float64(f.Color.G()) / 255 * fa, float64(f.Color.B()) / 255 * fa, fa}
	o := blendPixel(d, s, f.Mode)
	if o.a > 0 {
		o.r, o.g, o.b = o.r/o.a, o.g/o.a, o.b/o.a
	}
	return geom.ARGB(src.A(), unit(o.r), unit(o.g), unit(o.b))
}

// deviceRect rounds r outwards to whole pixels.
func deviceRect(r geom.Rect) image.Rectangle {
	if r.IsEmpty() || math.IsNaN(r.X) || math.IsNaN(r.Y) {
		return image.Rectangle{}
	}
	return image.Rect(
		int(math.Floor(math.Max(r.Left(), math.MinInt32))),
		int(math.Floor(math.Max(r.Top(), math.MinInt32))),
		int(math.Ceil(math.Min(r.Right(), math.MaxInt32))),
		int(math.Ceil(math.Min(r.Bottom(), math.MaxInt32))),
	)
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(b)
	draw.Draw(rgba, b, img, b.Min, draw.Src)
	return rgba
}
