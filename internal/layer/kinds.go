package layer

import (
	"image"

	"github.com/inamate/motion/internal/canvas"
	"github.com/inamate/motion/internal/content"
	"github.com/inamate/motion/internal/geom"
	"github.com/inamate/motion/internal/keyframe"
	"github.com/inamate/motion/internal/keypath"
	"github.com/inamate/motion/internal/model"
)

// shapeKind draws the content tree of a shape layer.
type shapeKind struct {
	group *content.Group
}

func newShapeKind(t *Tree, l *Layer) *shapeKind {
	env := t.contentEnv()
	g := content.NewGroup(env, keypath.Container, false, l.model.Shapes, nil)
	g.SetContents(nil, nil)
	env.Forward(l.track)
	return &shapeKind{group: g}
}

func (k *shapeKind) draw(c canvas.Canvas, m geom.Matrix, alpha uint8) error {
	return k.group.Draw(c, m, alpha)
}

func (k *shapeKind) bounds(m geom.Matrix) (geom.Rect, error) {
	return k.group.Bounds(m)
}

func (k *shapeKind) setProgress(float64) {}

func (k *shapeKind) resolveChildren(kp keypath.KeyPath, depth int, acc *[]keypath.KeyPath, partial keypath.KeyPath) {
	k.group.ResolveKeyPath(kp, depth, acc, partial)
}

func (k *shapeKind) applyValueCallback(keypath.Property, any) bool { return false }

// solidKind fills the layer rect with a flat color.
type solidKind struct {
	l      *Layer
	filter keyframe.Value[*canvas.ColorFilter]
}

func (k *solidKind) rect() geom.Rect {
	return geom.Rect{Width: k.l.model.SolidWidth, Height: k.l.model.SolidHeight}
}

func (k *solidKind) draw(c canvas.Canvas, m geom.Matrix, alpha uint8) error {
	color := k.l.model.SolidColor
	if color.A() == 0 {
		return nil
	}
	a := uint8(float64(alpha) * float64(color.A()) / 255)
	if a == 0 {
		return nil
	}
	r := k.rect()
	p := geom.NewPath()
	for i, pt := range []geom.Point{
		{X: r.Left(), Y: r.Top()}, {X: r.Right(), Y: r.Top()},
		{X: r.Right(), Y: r.Bottom()}, {X: r.Left(), Y: r.Bottom()},
	} {
		pt = m.Map(pt)
		if i == 0 {
			p.MoveTo(pt.X, pt.Y)
		} else {
			p.LineTo(pt.X, pt.Y)
		}
	}
	p.Close()
	paint := canvas.NewPaint(canvas.Fill)
	paint.Color = color.WithAlpha(a)
	if err := applyFilter(k.filter, paint); err != nil {
		return err
	}
	c.DrawPath(p, paint)
	return nil
}

func (k *solidKind) bounds(m geom.Matrix) (geom.Rect, error) {
	return m.TransformRect(k.rect()), nil
}

func (k *solidKind) setProgress(float64) {}

func (k *solidKind) resolveChildren(keypath.KeyPath, int, *[]keypath.KeyPath, keypath.KeyPath) {}

func (k *solidKind) applyValueCallback(prop keypath.Property, cb any) bool {
	if prop == keypath.ColorFilter {
		return bindValue(&k.filter, k.l.track, cb)
	}
	return false
}

// imageKind draws a bitmap asset at its authored size.
type imageKind struct {
	t      *Tree
	l      *Layer
	asset  *model.ImageAsset
	img    image.Image
	loaded bool
	filter keyframe.Value[*canvas.ColorFilter]
}

func newImageKind(t *Tree, l *Layer) *imageKind {
	k := &imageKind{t: t, l: l, asset: t.comp.Images[l.model.RefID]}
	if k.asset == nil {
		t.warnf(model.WarnMissingImage, "layer %q: image asset %q not found", l.model.Name, l.model.RefID)
	}
	return k
}

// image loads the bitmap once. Failures are warned about and leave the
// layer empty.
func (k *imageKind) image() image.Image {
	if k.loaded {
		return k.img
	}
	k.loaded = true
	if k.asset == nil {
		return nil
	}
	if k.t.opts.Images == nil {
		k.t.warnf(model.WarnMissingImage, "image %q: no image provider", k.asset.ID)
		return nil
	}
	img, err := k.t.opts.Images.Image(k.asset)
	if err != nil || img == nil {
		k.t.warnf(model.WarnMissingImage, "image %q: %v", k.asset.ID, err)
		return nil
	}
	k.img = img
	return img
}

// size is the drawn size: the asset size when authored, else the bitmap
// size.
func (k *imageKind) size(img image.Image) (float64, float64) {
	if k.asset != nil && k.asset.Width > 0 && k.asset.Height > 0 {
		return float64(k.asset.Width), float64(k.asset.Height)
	}
	if img == nil {
		return 0, 0
	}
	b := img.Bounds()
	return float64(b.Dx()), float64(b.Dy())
}

func (k *imageKind) draw(c canvas.Canvas, m geom.Matrix, alpha uint8) error {
	img := k.image()
	if img == nil {
		return nil
	}
	paint := canvas.AlphaPaint(alpha)
	if err := applyFilter(k.filter, paint); err != nil {
		return err
	}
	b := img.Bounds()
	w, h := k.size(img)
	c.Save()
	defer c.Restore()
	c.Concat(m)
	c.DrawBitmap(img,
		geom.Rect{X: float64(b.Min.X), Y: float64(b.Min.Y), Width: float64(b.Dx()), Height: float64(b.Dy())},
		geom.Rect{Width: w, Height: h}, paint)
	return nil
}

func (k *imageKind) bounds(m geom.Matrix) (geom.Rect, error) {
	w, h := k.size(k.image())
	return m.TransformRect(geom.Rect{Width: w, Height: h}), nil
}

func (k *imageKind) setProgress(float64) {}

func (k *imageKind) resolveChildren(keypath.KeyPath, int, *[]keypath.KeyPath, keypath.KeyPath) {}

func (k *imageKind) applyValueCallback(prop keypath.Property, cb any) bool {
	if prop == keypath.ColorFilter {
		return bindValue(&k.filter, k.l.track, cb)
	}
	return false
}

// nullKind only carries a transform for its children.
type nullKind struct{}

func (nullKind) draw(canvas.Canvas, geom.Matrix, uint8) error  { return nil }
func (nullKind) bounds(geom.Matrix) (geom.Rect, error)         { return geom.Rect{}, nil }
func (nullKind) setProgress(float64)                           {}
func (nullKind) applyValueCallback(keypath.Property, any) bool { return false }

func (nullKind) resolveChildren(keypath.KeyPath, int, *[]keypath.KeyPath, keypath.KeyPath) {}

func applyFilter(v keyframe.Value[*canvas.ColorFilter], p *canvas.Paint) error {
	if v == nil {
		return nil
	}
	cf, err := v.Value()
	if err != nil {
		return err
	}
	p.ColorFilter = cf
	return nil
}
