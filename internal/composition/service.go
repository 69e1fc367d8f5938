// Package composition serves uploaded compositions over HTTP: upload,
// metadata, rendered frames, draw commands, embedded images and video
// export.
package composition

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/inamate/motion/internal/asset"
	"github.com/inamate/motion/internal/engine"
	"github.com/inamate/motion/internal/loader"
	"github.com/inamate/motion/internal/model"
	"github.com/inamate/motion/internal/parse"
	"github.com/inamate/motion/internal/store"
	"github.com/inamate/motion/internal/typeid"
)

var (
	ErrNotFound = errors.New("composition not found")
	ErrInvalid  = errors.New("invalid composition")
)

type Service struct {
	store      store.Store
	loader     *loader.Loader
	log        *slog.Logger
	engineOpts []engine.Option
}

// NewService keeps sources in s and parses them through l. engineOpts
// apply to every engine the service builds.
func NewService(s store.Store, l *loader.Loader, log *slog.Logger, engineOpts ...engine.Option) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: s, loader: l, log: log, engineOpts: engineOpts}
}

// Info describes a stored composition.
type Info struct {
	store.Record
	Layers   int             `json:"layers"`
	Markers  []string        `json:"markers"`
	Images   int             `json:"images"`
	Warnings []model.Warning `json:"warnings"`
}

func newInfo(rec store.Record, comp *model.Composition) *Info {
	info := &Info{
		Record:   rec,
		Layers:   len(comp.Layers),
		Markers:  []string{},
		Images:   len(comp.Images),
		Warnings: comp.Warnings.List(),
	}
	for _, m := range comp.Markers {
		info.Markers = append(info.Markers, m.Name)
	}
	return info
}

// Create parses data, JSON or a zip bundle, and stores it. An empty name
// falls back to the composition name.
func (s *Service) Create(ctx context.Context, name string, data []byte) (*Info, error) {
	comp, err := loader.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if name == "" {
		name = comp.Name
	}
	format := store.FormatJSON
	if parse.IsZip(data) {
		format = store.FormatZip
	}
	rec := store.Record{
		ID:        typeid.NewCompositionID(),
		Name:      name,
		Format:    format,
		Width:     comp.Bounds.Width,
		Height:    comp.Bounds.Height,
		FrameRate: comp.FrameRate(),
		Frames:    comp.DurationFrames(),
		CreatedAt: time.Now().UTC(),
		Data:      data,
	}
	if err := s.store.Put(ctx, &rec); err != nil {
		return nil, fmt.Errorf("store composition: %w", err)
	}
	s.log.Info("composition created", "id", rec.ID, "name", name, "format", format, "warnings", comp.Warnings.Len())
	return newInfo(rec, comp), nil
}

func (s *Service) Get(ctx context.Context, id string) (*Info, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, mapErr(err)
	}
	comp, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	rec.Data = nil
	return newInfo(*rec, comp), nil
}

func (s *Service) List(ctx context.Context) ([]store.Record, error) {
	recs, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list compositions: %w", err)
	}
	return recs, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return mapErr(err)
	}
	s.loader.Evict(loader.Stored(s.store, id))
	return nil
}

// Load returns the parsed composition with the given id.
func (s *Service) Load(ctx context.Context, id string) (*model.Composition, error) {
	comp, err := s.loader.Load(ctx, loader.Stored(s.store, id))
	if err != nil {
		return nil, mapErr(err)
	}
	return comp, nil
}

// Engine returns a new engine on composition id. A scale of zero or less
// keeps the engine default.
func (s *Service) Engine(ctx context.Context, id string, scale float64) (*engine.Engine, error) {
	comp, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	opts := append([]engine.Option{
		engine.WithLogger(s.log),
		engine.WithImages(asset.NewProvider("", s.log)),
	}, s.engineOpts...)
	if scale > 0 {
		opts = append(opts, engine.WithScale(scale))
	}
	e := engine.New(opts...)
	if err := e.SetComposition(comp); err != nil {
		return nil, fmt.Errorf("build composition: %w", err)
	}
	return e, nil
}

// Image returns the image asset assetID of composition id.
func (s *Service) Image(ctx context.Context, id, assetID string) (*model.ImageAsset, error) {
	comp, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	img, ok := comp.Images[assetID]
	if !ok || img.Data == nil {
		return nil, ErrNotFound
	}
	return img, nil
}

func mapErr(err error) error {
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, loader.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
