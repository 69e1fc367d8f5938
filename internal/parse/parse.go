// Package parse decodes composition JSON and zip bundles into the static
// model. Unsupported constructs are recorded as warnings on the composition
// and skipped.
package parse

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/inamate/motion/internal/geom"
	"github.com/inamate/motion/internal/keyframe"
	"github.com/inamate/motion/internal/model"
)

var (
	ErrInvalidComposition = errors.New("invalid composition")
	ErrNoComposition      = errors.New("no composition in bundle")
)

type Option func(*parser)

// WithInterpolatorCache shares bezier curves across parses. By default each
// parse owns a fresh cache.
func WithInterpolatorCache(c *keyframe.Cache) Option {
	return func(p *parser) { p.cache = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(p *parser) { p.log = l }
}

type parser struct {
	cache  *keyframe.Cache
	log    *slog.Logger
	timing *keyframe.Timing
	comp   *model.Composition
}

func newParser(opts []Option) *parser {
	p := &parser{}
	for _, o := range opts {
		o(p)
	}
	if p.cache == nil {
		p.cache = keyframe.NewCache(0)
	}
	if p.log == nil {
		p.log = slog.Default()
	}
	return p
}

func (p *parser) warn(code, format string, args ...any) {
	p.comp.Warnings.Addf(code, format, args...)
}

type rawComposition struct {
	Name      string            `json:"nm"`
	Version   string            `json:"v"`
	Width     float64           `json:"w"`
	Height    float64           `json:"h"`
	InPoint   float64           `json:"ip"`
	OutPoint  float64           `json:"op"`
	FrameRate float64           `json:"fr"`
	Layers    []json.RawMessage `json:"layers"`
	Assets    []rawAsset        `json:"assets"`
	Fonts     *struct {
		List []rawFont `json:"list"`
	} `json:"fonts"`
	Chars   []rawChar   `json:"chars"`
	Markers []rawMarker `json:"markers"`
}

type rawAsset struct {
	ID       string            `json:"id"`
	Width    int               `json:"w"`
	Height   int               `json:"h"`
	Path     string            `json:"p"`
	Dir      string            `json:"u"`
	Embedded flexBool          `json:"e"`
	Layers   []json.RawMessage `json:"layers"`
}

type rawMarker struct {
	Comment  string  `json:"cm"`
	Time     float64 `json:"tm"`
	Duration float64 `json:"dr"`
}

// JSON parses a composition document.
func JSON(data []byte, opts ...Option) (*model.Composition, error) {
	return newParser(opts).composition(data)
}

// Reader parses a composition document read from r.
func Reader(r io.Reader, opts ...Option) (*model.Composition, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read composition: %w", err)
	}
	return JSON(data, opts...)
}

func (p *parser) composition(data []byte) (*model.Composition, error) {
	var raw rawComposition
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidComposition, err)
	}
	if raw.FrameRate <= 0 {
		return nil, fmt.Errorf("%w: frame rate %v", ErrInvalidComposition, raw.FrameRate)
	}
	if raw.OutPoint <= raw.InPoint {
		return nil, fmt.Errorf("%w: out point %v before in point %v", ErrInvalidComposition, raw.OutPoint, raw.InPoint)
	}

	p.timing = &keyframe.Timing{StartFrame: raw.InPoint, EndFrame: raw.OutPoint, FrameRate: raw.FrameRate}
	p.comp = &model.Composition{
		Name:       raw.Name,
		Version:    raw.Version,
		Bounds:     geom.Rect{Width: raw.Width, Height: raw.Height},
		Timing:     p.timing,
		LayerByID:  make(map[int64]*model.Layer),
		Precomps:   make(map[string][]*model.Layer),
		Images:     make(map[string]*model.ImageAsset),
		Fonts:      make(map[string]*model.Font),
		Characters: make(map[model.CharKey]*model.FontCharacter),
	}

	for _, a := range raw.Assets {
		if err := p.asset(a); err != nil {
			return nil, err
		}
	}
	if raw.Fonts != nil {
		for _, f := range raw.Fonts.List {
			font := f.model()
			p.comp.Fonts[font.Name] = font
		}
	}
	for _, c := range raw.Chars {
		ch, err := p.character(c)
		if err != nil {
			return nil, err
		}
		p.comp.Characters[ch.Key()] = ch
	}

	layers, err := p.layers(raw.Layers)
	if err != nil {
		return nil, err
	}
	p.comp.Layers = layers
	for _, l := range layers {
		p.comp.LayerByID[l.ID] = l
	}

	for _, m := range raw.Markers {
		p.comp.Markers = append(p.comp.Markers, model.Marker{Name: m.Comment, StartFrame: m.Time, DurationFrames: m.Duration})
	}

	if n := p.comp.Warnings.Len(); n > 0 {
		p.log.Warn("composition parsed with warnings", "name", raw.Name, "count", n)
	}
	return p.comp, nil
}

func (p *parser) layers(raws []json.RawMessage) ([]*model.Layer, error) {
	out := make([]*model.Layer, 0, len(raws))
	for i, r := range raws {
		l, err := p.layer(r)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		out = append(out, l)
	}
	return out, nil
}

func (p *parser) asset(a rawAsset) error {
	if a.Layers != nil {
		layers, err := p.layers(a.Layers)
		if err != nil {
			return fmt.Errorf("precomp %q: %w", a.ID, err)
		}
		p.comp.Precomps[a.ID] = layers
		return nil
	}
	if a.Path == "" {
		return nil
	}
	img := &model.ImageAsset{ID: a.ID, FileName: a.Path, Dir: a.Dir, Width: a.Width, Height: a.Height}
	if data, ok := decodeDataURI(a.Path); ok {
		img.Data = data
		img.FileName = ""
	}
	p.comp.Images[a.ID] = img
	return nil
}

// decodeDataURI decodes "data:<mime>;base64,<payload>".
func decodeDataURI(s string) ([]byte, bool) {
	if !strings.HasPrefix(s, "data:") {
		return nil, false
	}
	i := strings.Index(s, "base64,")
	if i < 0 {
		return nil, false
	}
	data, err := base64.StdEncoding.DecodeString(s[i+len("base64,"):])
	if err != nil {
		return nil, false
	}
	return data, true
}

// flexBool accepts true/false and 0/1.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "true", "1":
		*b = true
	case "false", "0", "null":
		*b = false
	default:
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return fmt.Errorf("flag %s: %w", data, err)
		}
		*b = f != 0
	}
	return nil
}
