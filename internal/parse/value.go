package parse

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/inamate/motion/internal/geom"
	"github.com/inamate/motion/internal/keyframe"
	"github.com/inamate/motion/internal/model"
)

// rawProp is an animatable property: a static value or keyframes in "k".
type rawProp struct {
	K json.RawMessage `json:"k"`
	// X holds an expression string. Split positions reuse the key for the
	// x channel.
	X     json.RawMessage `json:"x"`
	Y     json.RawMessage `json:"y"`
	Split flexBool        `json:"s"`
}

func (r *rawProp) hasExpression() bool {
	x := bytes.TrimSpace(r.X)
	return len(x) > 0 && x[0] == '"'
}

type rawTangent struct {
	X json.RawMessage `json:"x"`
	Y json.RawMessage `json:"y"`
}

type rawKeyframe struct {
	Time float64         `json:"t"`
	S    json.RawMessage `json:"s"`
	E    json.RawMessage `json:"e"`
	I    *rawTangent     `json:"i"`
	O    *rawTangent     `json:"o"`
	Hold flexBool        `json:"h"`
	TI   []float64       `json:"ti"`
	TO   []float64       `json:"to"`
}

func present(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && string(raw) != "null"
}

func missing(prop *rawProp) bool {
	return prop == nil || !present(prop.K)
}

// isKeyframed reports whether k holds a keyframe list rather than a value.
func isKeyframed(k json.RawMessage) bool {
	k = bytes.TrimSpace(k)
	if len(k) == 0 || k[0] != '[' {
		return false
	}
	rest := bytes.TrimSpace(k[1:])
	if len(rest) == 0 || rest[0] != '{' {
		return false
	}
	var probe []struct {
		T *float64 `json:"t"`
	}
	if err := json.Unmarshal(k, &probe); err != nil || len(probe) == 0 {
		return false
	}
	return probe[0].T != nil
}

type valueFunc[T any] func(raw json.RawMessage) (T, error)

// keyframes decodes a property into sealed keyframes. multiDim enables per
// axis easing; spatial reads motion path tangents.
func keyframes[T any](p *parser, name string, prop *rawProp, decode valueFunc[T], multiDim, spatial bool) ([]*keyframe.Keyframe[T], error) {
	if prop.hasExpression() {
		p.warn(model.WarnExpression, "expressions are not supported (%s)", name)
	}
	if !isKeyframed(prop.K) {
		v, err := decode(prop.K)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return []*keyframe.Keyframe[T]{keyframe.Static(v)}, nil
	}

	var raws []rawKeyframe
	if err := json.Unmarshal(prop.K, &raws); err != nil {
		return nil, fmt.Errorf("%s keyframes: %w", name, err)
	}
	kfs := make([]*keyframe.Keyframe[T], 0, len(raws))
	for i, r := range raws {
		kf := &keyframe.Keyframe[T]{StartFrame: r.Time, EndFrame: math.NaN(), Timing: p.timing}
		if present(r.S) {
			v, err := decode(r.S)
			if err != nil {
				return nil, fmt.Errorf("%s keyframe %d start: %w", name, i, err)
			}
			kf.StartValue, kf.HasStartValue = v, true
		}
		if present(r.E) {
			v, err := decode(r.E)
			if err != nil {
				return nil, fmt.Errorf("%s keyframe %d end: %w", name, i, err)
			}
			kf.EndValue, kf.HasEndValue = v, true
		}

		switch {
		case bool(r.Hold):
			kf.EndValue, kf.HasEndValue = kf.StartValue, kf.HasStartValue
			kf.Interpolator = keyframe.HoldInterpolator{}
		case r.I != nil && r.O != nil:
			if err := easing(p, kf, r.O, r.I, multiDim); err != nil {
				return nil, fmt.Errorf("%s keyframe %d easing: %w", name, i, err)
			}
		default:
			kf.Interpolator = keyframe.Linear{}
		}

		if spatial {
			if len(r.TO) >= 2 {
				kf.PathCP1 = geom.Pt(r.TO[0], r.TO[1])
			}
			if len(r.TI) >= 2 {
				kf.PathCP2 = geom.Pt(r.TI[0], r.TI[1])
			}
		}
		kfs = append(kfs, kf)
	}
	return keyframe.SetEndFrames(kfs), nil
}

// easing installs bezier interpolators from the out tangent of the start
// and the in tangent of the end.
func easing[T any](p *parser, kf *keyframe.Keyframe[T], o, in *rawTangent, multiDim bool) error {
	ox, err := floats(o.X)
	if err != nil {
		return err
	}
	oy, err := floats(o.Y)
	if err != nil {
		return err
	}
	ix, err := floats(in.X)
	if err != nil {
		return err
	}
	iy, err := floats(in.Y)
	if err != nil {
		return err
	}
	if len(ox) == 0 || len(oy) == 0 || len(ix) == 0 || len(iy) == 0 {
		kf.Interpolator = keyframe.Linear{}
		return nil
	}
	if multiDim && len(ox) > 1 && len(oy) > 1 && len(ix) > 1 && len(iy) > 1 {
		kf.XInterpolator = p.cache.Bezier(ox[0], oy[0], ix[0], iy[0])
		kf.YInterpolator = p.cache.Bezier(ox[1], oy[1], ix[1], iy[1])
		return nil
	}
	kf.Interpolator = p.cache.Bezier(ox[0], oy[0], ix[0], iy[0])
	return nil
}

// floats decodes a number or an array of numbers.
func floats(raw json.RawMessage) ([]float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	if raw[0] == '[' {
		var out []float64
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("numbers %s: %w", truncate(raw), err)
		}
		return out, nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("number %s: %w", truncate(raw), err)
	}
	return []float64{f}, nil
}

func truncate(raw []byte) string {
	if len(raw) > 32 {
		return string(raw[:32]) + "..."
	}
	return string(raw)
}

func decodeFloat(raw json.RawMessage) (float64, error) {
	fs, err := floats(raw)
	if err != nil {
		return 0, err
	}
	if len(fs) == 0 {
		return 0, fmt.Errorf("empty number")
	}
	return fs[0], nil
}

func decodeInt(raw json.RawMessage) (int, error) {
	f, err := decodeFloat(raw)
	return int(math.Round(f)), err
}

func decodePoint(raw json.RawMessage) (geom.Point, error) {
	fs, err := floats(raw)
	if err != nil {
		return geom.Point{}, err
	}
	switch len(fs) {
	case 0:
		return geom.Point{}, fmt.Errorf("empty point")
	case 1:
		return geom.Pt(fs[0], fs[0]), nil
	}
	return geom.Pt(fs[0], fs[1]), nil
}

// decodeScale reads percentages as factors.
func decodeScale(raw json.RawMessage) (geom.Point, error) {
	pt, err := decodePoint(raw)
	return pt.Mul(0.01), err
}

// decodeColor reads [r, g, b, a] in 0..1, or in 0..255 when any channel
// exceeds 1.
func decodeColor(raw json.RawMessage) (geom.Color, error) {
	fs, err := floats(raw)
	if err != nil {
		return 0, err
	}
	if len(fs) < 3 {
		return 0, fmt.Errorf("color needs 3 channels, got %d", len(fs))
	}
	if len(fs) == 3 {
		fs = append(fs, 1)
	}
	scale := 255.0
	for _, c := range fs[:4] {
		if c > 1 {
			scale = 1
		}
	}
	ch := func(v float64) uint8 { return uint8(geom.Clamp(math.Round(v*scale), 0, 255)) }
	return geom.ARGB(ch(fs[3]), ch(fs[0]), ch(fs[1]), ch(fs[2])), nil
}

type rawShape struct {
	Closed bool        `json:"c"`
	In     [][]float64 `json:"i"`
	Out    [][]float64 `json:"o"`
	V      [][]float64 `json:"v"`
}

// decodeShape reads vertex data. Keyframe values wrap it in an array.
func decodeShape(raw json.RawMessage) (*geom.ShapeData, error) {
	raw = bytes.TrimSpace(raw)
	var rs rawShape
	if len(raw) > 0 && raw[0] == '[' {
		var list []rawShape
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("shape: %w", err)
		}
		if len(list) == 0 {
			return &geom.ShapeData{}, nil
		}
		rs = list[0]
	} else if err := json.Unmarshal(raw, &rs); err != nil {
		return nil, fmt.Errorf("shape: %w", err)
	}

	pt := func(list [][]float64, i int) geom.Point {
		if i >= len(list) || len(list[i]) < 2 {
			return geom.Point{}
		}
		return geom.Pt(list[i][0], list[i][1])
	}
	sd := &geom.ShapeData{Closed: rs.Closed}
	n := len(rs.V)
	if n == 0 {
		return sd, nil
	}
	sd.Initial = pt(rs.V, 0)
	for i := 1; i < n; i++ {
		prev, v := pt(rs.V, i-1), pt(rs.V, i)
		sd.Curves = append(sd.Curves, geom.CubicCurve{
			C1:     prev.Add(pt(rs.Out, i-1)),
			C2:     v.Add(pt(rs.In, i)),
			Vertex: v,
		})
	}
	if rs.Closed {
		last, first := pt(rs.V, n-1), pt(rs.V, 0)
		sd.Curves = append(sd.Curves, geom.CubicCurve{
			C1:     last.Add(pt(rs.Out, n-1)),
			C2:     first.Add(pt(rs.In, 0)),
			Vertex: first,
		})
	}
	return sd, nil
}

// gradientDecoder reads count color stops followed by optional opacity
// stops. Opacity is interpolated onto the color stop positions.
func gradientDecoder(count int) valueFunc[geom.Gradient] {
	return func(raw json.RawMessage) (geom.Gradient, error) {
		fs, err := floats(raw)
		if err != nil {
			return geom.Gradient{}, err
		}
		if count <= 0 {
			count = len(fs) / 4
		}
		if len(fs) < count*4 {
			return geom.Gradient{}, fmt.Errorf("gradient needs %d values, got %d", count*4, len(fs))
		}
		g := geom.Gradient{Positions: make([]float64, count), Colors: make([]geom.Color, count)}
		opacity := fs[count*4:]
		for i := 0; i < count; i++ {
			pos := fs[i*4]
			a := opacityAt(opacity, pos)
			ch := func(v float64) uint8 { return uint8(geom.Clamp(math.Round(v*255), 0, 255)) }
			g.Positions[i] = pos
			g.Colors[i] = geom.ARGB(ch(a), ch(fs[i*4+1]), ch(fs[i*4+2]), ch(fs[i*4+3]))
		}
		return g, nil
	}
}

// opacityAt samples (position, alpha) pairs at pos.
func opacityAt(stops []float64, pos float64) float64 {
	n := len(stops) / 2
	if n == 0 {
		return 1
	}
	if pos <= stops[0] {
		return stops[1]
	}
	for i := 1; i < n; i++ {
		p0, a0 := stops[(i-1)*2], stops[(i-1)*2+1]
		p1, a1 := stops[i*2], stops[i*2+1]
		if pos <= p1 {
			if p1 == p0 {
				return a1
			}
			return geom.Lerp(a0, a1, (pos-p0)/(p1-p0))
		}
	}
	return stops[n*2-1]
}

func (p *parser) float(name string, prop *rawProp) (*model.AnimatableFloat, error) {
	if missing(prop) {
		return nil, nil
	}
	kfs, err := keyframes(p, name, prop, decodeFloat, false, false)
	if err != nil {
		return nil, err
	}
	return &model.AnimatableFloat{Keyframes: kfs}, nil
}

func (p *parser) integer(name string, prop *rawProp) (*model.AnimatableInt, error) {
	if missing(prop) {
		return nil, nil
	}
	kfs, err := keyframes(p, name, prop, decodeInt, false, false)
	if err != nil {
		return nil, err
	}
	return &model.AnimatableInt{Keyframes: kfs}, nil
}

func (p *parser) color(name string, prop *rawProp) (*model.AnimatableColor, error) {
	if missing(prop) {
		return nil, nil
	}
	kfs, err := keyframes(p, name, prop, decodeColor, false, false)
	if err != nil {
		return nil, err
	}
	return &model.AnimatableColor{Keyframes: kfs}, nil
}

func (p *parser) point(name string, prop *rawProp) (*model.AnimatablePoint, error) {
	if missing(prop) {
		return nil, nil
	}
	kfs, err := keyframes(p, name, prop, decodePoint, true, false)
	if err != nil {
		return nil, err
	}
	return &model.AnimatablePoint{Keyframes: kfs}, nil
}

func (p *parser) scale(name string, prop *rawProp) (*model.AnimatablePoint, error) {
	if missing(prop) {
		return nil, nil
	}
	kfs, err := keyframes(p, name, prop, decodeScale, true, false)
	if err != nil {
		return nil, err
	}
	return &model.AnimatablePoint{Keyframes: kfs}, nil
}

// position reads a motion path point or a split x/y pair.
func (p *parser) position(name string, prop *rawProp) (model.AnimatablePosition, error) {
	if prop == nil {
		return nil, nil
	}
	if prop.Split {
		var x, y rawProp
		if err := json.Unmarshal(prop.X, &x); err != nil {
			return nil, fmt.Errorf("%s x: %w", name, err)
		}
		if err := json.Unmarshal(prop.Y, &y); err != nil {
			return nil, fmt.Errorf("%s y: %w", name, err)
		}
		ax, err := p.float(name+".x", &x)
		if err != nil {
			return nil, err
		}
		ay, err := p.float(name+".y", &y)
		if err != nil {
			return nil, err
		}
		if ax == nil || ay == nil {
			return nil, fmt.Errorf("%s: split position needs x and y", name)
		}
		return &model.AnimatableSplit{X: ax, Y: ay}, nil
	}
	if missing(prop) {
		return nil, nil
	}
	if !isKeyframed(prop.K) {
		pt, err := p.point(name, prop)
		if err != nil {
			return nil, err
		}
		return pt, nil
	}
	kfs, err := keyframes(p, name, prop, decodePoint, false, true)
	if err != nil {
		return nil, err
	}
	return &model.AnimatablePathPoint{Keyframes: kfs}, nil
}

func (p *parser) shape(name string, prop *rawProp) (*model.AnimatableShape, error) {
	if missing(prop) {
		return nil, nil
	}
	kfs, err := keyframes(p, name, prop, decodeShape, false, false)
	if err != nil {
		return nil, err
	}
	return &model.AnimatableShape{Keyframes: kfs}, nil
}

type rawGradient struct {
	Count int     `json:"p"`
	K     rawProp `json:"k"`
}

func (p *parser) gradient(name string, g *rawGradient) (*model.AnimatableGradient, error) {
	if g == nil || missing(&g.K) {
		return nil, nil
	}
	kfs, err := keyframes(p, name, &g.K, gradientDecoder(g.Count), false, false)
	if err != nil {
		return nil, err
	}
	return &model.AnimatableGradient{Keyframes: kfs}, nil
}
