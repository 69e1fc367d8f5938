package layer

import (
	"strings"

	"github.com/inamate/motion/internal/canvas"
	"github.com/inamate/motion/internal/content"
	"github.com/inamate/motion/internal/geom"
	"github.com/inamate/motion/internal/keyframe"
	"github.com/inamate/motion/internal/keypath"
	"github.com/inamate/motion/internal/model"
)

// textKind draws a text document, either from the vector glyphs bundled
// with the composition or through the canvas fonts.
type textKind struct {
	t *Tree
	l *Layer

	doc         keyframe.Value[model.DocumentData]
	color       keyframe.Value[geom.Color]
	stroke      keyframe.Value[geom.Color]
	strokeWidth keyframe.Value[float64]
	tracking    keyframe.Value[float64]

	glyphs map[model.CharKey]*content.Group
}

func newTextKind(t *Tree, l *Layer) *textKind {
	k := &textKind{t: t, l: l, glyphs: make(map[model.CharKey]*content.Group)}
	m := l.model
	if m.Text != nil {
		k.doc = m.Text.Create()
		l.track(k.doc)
	}
	if tp := m.TextProperties; tp != nil {
		if tp.Color != nil {
			k.color = tp.Color.Create()
		}
		if tp.Stroke != nil {
			k.stroke = tp.Stroke.Create()
		}
		if tp.StrokeWidth != nil {
			k.strokeWidth = tp.StrokeWidth.Create()
		}
		if tp.Tracking != nil {
			k.tracking = tp.Tracking.Create()
		}
		l.track(k.color, k.stroke, k.strokeWidth, k.tracking)
	}
	return k
}

// style is the document with the animated overrides applied.
type style struct {
	doc         model.DocumentData
	fill        geom.Color
	stroke      geom.Color
	strokeWidth float64
	tracking    float64
}

func (k *textKind) style() (style, error) {
	var s style
	if k.doc == nil {
		return s, nil
	}
	doc, err := k.doc.Value()
	if err != nil {
		return s, err
	}
	s = style{doc: doc, fill: doc.FillColor, stroke: doc.StrokeColor, strokeWidth: doc.StrokeWidth, tracking: doc.Tracking}
	if k.color != nil {
		if s.fill, err = k.color.Value(); err != nil {
			return s, err
		}
	}
	if k.stroke != nil {
		if s.stroke, err = k.stroke.Value(); err != nil {
			return s, err
		}
	}
	if k.strokeWidth != nil {
		if s.strokeWidth, err = k.strokeWidth.Value(); err != nil {
			return s, err
		}
	}
	if k.tracking != nil {
		t, err := k.tracking.Value()
		if err != nil {
			return s, err
		}
		s.tracking += t
	}
	return s, nil
}

// paints returns the fill and stroke paints in draw order. Fully
// transparent paints are left out.
func (s style) paints(alpha uint8, scale float64) []*canvas.Paint {
	var fill, stroke *canvas.Paint
	if a := mulAlpha(alpha, s.fill.A()); a > 0 {
		fill = canvas.NewPaint(canvas.Fill)
		fill.Color = s.fill.WithAlpha(a)
	}
	if a := mulAlpha(alpha, s.stroke.A()); a > 0 && s.strokeWidth > 0 {
		stroke = canvas.NewPaint(canvas.Stroke)
		stroke.Color = s.stroke.WithAlpha(a)
		stroke.StrokeWidth = s.strokeWidth * scale
	}
	order := []*canvas.Paint{stroke, fill}
	if s.doc.StrokeOverFill {
		order = []*canvas.Paint{fill, stroke}
	}
	out := order[:0]
	for _, p := range order {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

func mulAlpha(a, b uint8) uint8 {
	return uint8(int(a) * int(b) / 255)
}

// lines splits text on carriage returns and newlines.
func lines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\r")
	return strings.FieldsFunc(text, func(r rune) bool { return r == '\r' || r == '\n' || r == '\u0003' })
}

func (s style) lineHeight() float64 {
	if s.doc.LineHeight > 0 {
		return s.doc.LineHeight
	}
	return s.doc.Size * 1.2
}

// trackingPx converts tracking, in thousandths of an em, to pixels.
func (s style) trackingPx() float64 {
	return s.tracking * s.doc.Size / 1000
}

func (s style) justify(width float64) float64 {
	switch s.doc.Justification {
	case model.JustifyRight:
		return -width
	case model.JustifyCenter:
		return -width / 2
	}
	return 0
}

func (k *textKind) draw(c canvas.Canvas, m geom.Matrix, alpha uint8) error {
	s, err := k.style()
	if err != nil || s.doc.Text == "" || s.doc.Size <= 0 {
		return err
	}
	font := k.t.comp.Fonts[s.doc.FontName]
	if font == nil {
		k.t.warnf(model.WarnMissingFont, "layer %q: font %q not found", k.l.model.Name, s.doc.FontName)
		font = &model.Font{Family: s.doc.FontName, Name: s.doc.FontName}
	}
	paints := s.paints(alpha, m.ScaleFactor())
	if len(paints) == 0 {
		return nil
	}
	if len(k.t.comp.Characters) > 0 {
		return k.drawGlyphs(c, m, s, font, paints)
	}
	k.drawFont(c, m, s, font, paints)
	return nil
}

func (k *textKind) drawFont(c canvas.Canvas, m geom.Matrix, s style, font *model.Font, paints []*canvas.Paint) {
	tracking := s.trackingPx()
	family := font.Family
	if k.t.opts.FontFamily != nil {
		family = k.t.opts.FontFamily(font)
	}
	glyph := func(text string) canvas.Glyph {
		return canvas.Glyph{Text: text, Family: family, Style: font.Style, Size: s.doc.Size}
	}
	y := -s.doc.BaselineShift
	for _, line := range lines(s.doc.Text) {
		runes := []rune(line)
		var width float64
		for _, r := range runes {
			width += canvas.MeasureGlyph(c, glyph(string(r))) + tracking
		}
		x := s.justify(width)

		// Runs are drawn whole unless tracking spreads the characters.
		if tracking == 0 {
			k.drawRun(c, m.Multiply(geom.Translate(x, y)), glyph(line), paints)
		} else {
			for _, r := range runes {
				adv := k.drawRun(c, m.Multiply(geom.Translate(x, y)), glyph(string(r)), paints)
				x += adv + tracking
			}
		}
		y += s.lineHeight()
	}
}

func (k *textKind) drawRun(c canvas.Canvas, m geom.Matrix, g canvas.Glyph, paints []*canvas.Paint) float64 {
	c.Save()
	defer c.Restore()
	c.Concat(m)
	var adv float64
	for _, p := range paints {
		adv = c.DrawGlyph(g, p)
	}
	return adv
}

func (k *textKind) drawGlyphs(c canvas.Canvas, m geom.Matrix, s style, font *model.Font, paints []*canvas.Paint) error {
	scale := s.doc.Size / 100
	tracking := s.trackingPx()
	y := -s.doc.BaselineShift
	for _, line := range lines(s.doc.Text) {
		var width float64
		for _, r := range line {
			if fc := k.character(r, font); fc != nil {
				width += fc.Width*scale + tracking
			}
		}
		x := s.justify(width)
		for _, r := range line {
			fc := k.character(r, font)
			if fc == nil {
				continue
			}
			g, err := k.glyph(fc)
			if err != nil {
				return err
			}
			p, err := g.Path()
			if err != nil {
				return err
			}
			gm := m.Multiply(geom.Translate(x, y)).Multiply(geom.Scale(scale, scale))
			path := geom.NewPath()
			path.AddPath(p, gm)
			for _, paint := range paints {
				c.DrawPath(path, paint)
			}
			x += fc.Width*scale + tracking
		}
		y += s.lineHeight()
	}
	return nil
}

func (k *textKind) character(r rune, font *model.Font) *model.FontCharacter {
	key := model.CharKey{Char: string(r), Family: font.Family, Style: font.Style}
	fc := k.t.comp.Characters[key]
	if fc == nil {
		k.t.warnf(model.WarnMissingFont, "layer %q: no glyph for %q in %s %s", k.l.model.Name, key.Char, key.Family, key.Style)
	}
	return fc
}

// glyph builds the content of fc on first use and brings its animations to
// the layer progress.
func (k *textKind) glyph(fc *model.FontCharacter) (*content.Group, error) {
	if g, ok := k.glyphs[fc.Key()]; ok {
		return g, nil
	}
	shapes := make([]model.Shape, len(fc.Shapes))
	for i, sg := range fc.Shapes {
		shapes[i] = sg
	}
	env := k.t.contentEnv()
	g := content.NewGroup(env, fc.Char, false, shapes, nil)
	g.SetContents(nil, nil)
	p := k.t.Progress()
	for _, st := range env.Steppers() {
		st.SetProgress(p)
	}
	env.Forward(k.l.track)
	k.glyphs[fc.Key()] = g
	return g, nil
}

// bounds covers the composition, since text metrics are only known while
// drawing.
func (k *textKind) bounds(m geom.Matrix) (geom.Rect, error) {
	return m.TransformRect(k.t.comp.Bounds), nil
}

func (k *textKind) setProgress(float64) {}

func (k *textKind) resolveChildren(keypath.KeyPath, int, *[]keypath.KeyPath, keypath.KeyPath) {}

func (k *textKind) applyValueCallback(prop keypath.Property, cb any) bool {
	switch prop {
	case keypath.Text:
		return k.doc != nil && keyframe.Bind(k.doc, cb)
	case keypath.Color:
		return bindValue(&k.color, k.l.track, cb)
	case keypath.StrokeColor:
		return bindValue(&k.stroke, k.l.track, cb)
	case keypath.StrokeWidth:
		return bindValue(&k.strokeWidth, k.l.track, cb)
	case keypath.TextTracking:
		return bindValue(&k.tracking, k.l.track, cb)
	}
	return false
}

// bindValue installs cb on *v, creating a callback value when the property
// is not animated. Created values are passed to track.
func bindValue[A any](v *keyframe.Value[A], track func(...keyframe.Stepper), cb any) bool {
	if *v != nil {
		return keyframe.Bind(*v, cb)
	}
	var f keyframe.ValueCallback[A]
	switch c := cb.(type) {
	case keyframe.ValueCallback[A]:
		f = c
	case func(keyframe.FrameInfo[A]) A:
		f = c
	default:
		return false
	}
	a := keyframe.Callback(f)
	*v = a
	track(a)
	return true
}
