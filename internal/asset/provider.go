// Package asset decodes the image assets of a composition.
package asset

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "golang.org/x/image/webp"

	"github.com/inamate/motion/internal/model"
)

var (
	ErrNoData      = errors.New("asset has no image data")
	ErrOutsideRoot = errors.New("asset path escapes the asset directory")
)

// Decode decodes PNG, JPEG or WebP data and returns the format name.
func Decode(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	return img, format, nil
}

// Provider resolves image assets from embedded data, or from files under
// a root directory. Decoded images are cached by asset id.
type Provider struct {
	root string
	log  *slog.Logger

	mu    sync.Mutex
	cache map[string]image.Image
}

// NewProvider returns a provider reading files below root. An empty root
// only serves embedded data.
func NewProvider(root string, log *slog.Logger) *Provider {
	if log == nil {
		log = slog.Default()
	}
	return &Provider{root: root, log: log, cache: make(map[string]image.Image)}
}

func (p *Provider) Image(a *model.ImageAsset) (image.Image, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if img, ok := p.cache[a.ID]; ok {
		return img, nil
	}

	data := a.Data
	if data == nil {
		var err error
		if data, err = p.read(a); err != nil {
			return nil, err
		}
	}
	img, format, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("asset %q: %w", a.ID, err)
	}
	if b := img.Bounds(); a.Width > 0 && (b.Dx() != a.Width || b.Dy() != a.Height) {
		p.log.Debug("asset size differs from declared size", "asset", a.ID, "format", format,
			"width", b.Dx(), "height", b.Dy(), "declaredWidth", a.Width, "declaredHeight", a.Height)
	}
	p.cache[a.ID] = img
	return img, nil
}

func (p *Provider) read(a *model.ImageAsset) ([]byte, error) {
	if p.root == "" || a.FileName == "" {
		return nil, fmt.Errorf("asset %q: %w", a.ID, ErrNoData)
	}
	root, err := filepath.Abs(p.root)
	if err != nil {
		return nil, fmt.Errorf("resolve asset root: %w", err)
	}
	path := filepath.Join(root, filepath.FromSlash(a.Dir), filepath.FromSlash(a.FileName))
	if path != root && !strings.HasPrefix(path, root+string(filepath.Separator)) {
		return nil, fmt.Errorf("asset %q: %w", a.ID, ErrOutsideRoot)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("asset %q: %w", a.ID, err)
	}
	return data, nil
}
