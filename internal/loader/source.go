package loader

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"golang.org/x/crypto/blake2b"

	"github.com/inamate/motion/internal/store"
)

// Source produces the raw bytes of a composition, JSON or a zip bundle.
type Source interface {
	// Key identifies the composition for caching and de-duplication.
	Key() string
	Fetch(ctx context.Context) ([]byte, error)
}

// cacheKey hashes the parts into a fixed-size key.
func cacheKey(parts ...[]byte) string {
	h, _ := blake2b.New256(nil)
	for _, p := range parts {
		h.Write(p)
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

type bytesSource struct {
	key  string
	data []byte
}

// Bytes is an in-memory source keyed by the hash of its content.
func Bytes(data []byte) Source {
	return &bytesSource{key: cacheKey([]byte("bytes"), data), data: data}
}

func (s *bytesSource) Key() string { return s.key }

func (s *bytesSource) Fetch(ctx context.Context) ([]byte, error) {
	return s.data, ctx.Err()
}

type fileSource struct {
	path string
}

// File reads a JSON or zip file. It is keyed by path.
func File(path string) Source {
	return fileSource{path: path}
}

func (s fileSource) Key() string { return cacheKey([]byte("file"), []byte(s.path)) }

func (s fileSource) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", s.path, ErrNotFound)
		}
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	return data, nil
}

type storeSource struct {
	store store.Store
	id    string
}

// Stored loads an uploaded composition by id.
func Stored(s store.Store, id string) Source {
	return storeSource{store: s, id: id}
}

func (s storeSource) Key() string { return cacheKey([]byte("store"), []byte(s.id)) }

func (s storeSource) Fetch(ctx context.Context) ([]byte, error) {
	rec, err := s.store.Get(ctx, s.id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", s.id, ErrNotFound)
		}
		return nil, err
	}
	return rec.Data, nil
}
