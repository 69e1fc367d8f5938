// Package loader acquires parsed compositions. Concurrent loads of one
// source share a single fetch and parse, and results are kept in a
// bounded cache. Parsed compositions are immutable and safe to share.
package loader

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/inamate/motion/internal/model"
	"github.com/inamate/motion/internal/parse"
)

var ErrNotFound = errors.New("loader: composition not found")

const defaultSize = 32

// Loader is safe for concurrent use.
type Loader struct {
	log       *slog.Logger
	parseOpts []parse.Option
	size      int

	group singleflight.Group

	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List // front is most recently used
}

type entry struct {
	key  string
	comp *model.Composition
}

type Option func(*Loader)

func WithLogger(log *slog.Logger) Option {
	return func(l *Loader) { l.log = log }
}

// WithCacheSize bounds the number of cached compositions. Zero or less
// disables caching.
func WithCacheSize(n int) Option {
	return func(l *Loader) { l.size = n }
}

func WithParseOptions(opts ...parse.Option) Option {
	return func(l *Loader) { l.parseOpts = append(l.parseOpts, opts...) }
}

func New(opts ...Option) *Loader {
	l := &Loader{
		log:     slog.Default(),
		size:    defaultSize,
		entries: make(map[string]*list.Element),
		order:   list.New(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load returns the composition of src. A canceled ctx abandons the wait
// but not the shared load, which still completes for other callers.
func (l *Loader) Load(ctx context.Context, src Source) (*model.Composition, error) {
	key := src.Key()
	if comp, ok := l.cached(key); ok {
		return comp, nil
	}

	ch := l.group.DoChan(key, func() (any, error) {
		if comp, ok := l.cached(key); ok {
			return comp, nil
		}
		data, err := src.Fetch(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		comp, err := Parse(data, l.parseOpts...)
		if err != nil {
			return nil, err
		}
		l.log.Debug("composition loaded", "key", key[:min(12, len(key))], "layers", len(comp.Layers), "warnings", comp.Warnings.Len())
		l.put(key, comp)
		return comp, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*model.Composition), nil
	}
}

// Parse decodes a zip bundle or composition JSON.
func Parse(data []byte, opts ...parse.Option) (*model.Composition, error) {
	if parse.IsZip(data) {
		comp, err := parse.Zip(data, opts...)
		if err != nil {
			return nil, fmt.Errorf("parse bundle: %w", err)
		}
		return comp, nil
	}
	comp, err := parse.JSON(data, opts...)
	if err != nil {
		return nil, fmt.Errorf("parse composition: %w", err)
	}
	return comp, nil
}

// Evict drops the cached composition of src.
func (l *Loader) Evict(src Source) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if el, ok := l.entries[src.Key()]; ok {
		l.order.Remove(el)
		delete(l.entries, src.Key())
	}
}

// Len returns the number of cached compositions.
func (l *Loader) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.order.Len()
}

func (l *Loader) cached(key string) (*model.Composition, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	el, ok := l.entries[key]
	if !ok {
		return nil, false
	}
	l.order.MoveToFront(el)
	return el.Value.(*entry).comp, true
}

func (l *Loader) put(key string, comp *model.Composition) {
	if l.size <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if el, ok := l.entries[key]; ok {
		el.Value.(*entry).comp = comp
		l.order.MoveToFront(el)
		return
	}
	l.entries[key] = l.order.PushFront(&entry{key: key, comp: comp})
	for l.order.Len() > l.size {
		last := l.order.Back()
		l.order.Remove(last)
		delete(l.entries, last.Value.(*entry).key)
	}
}
