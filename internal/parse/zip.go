package parse

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/inamate/motion/internal/model"
)

// Zip parses a bundle holding one composition JSON and its images. Image
// assets are resolved against the bundle by file name.
func Zip(data []byte, opts ...Option) (*model.Composition, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open bundle: %w", err)
	}

	var (
		comp  *model.Composition
		files = make(map[string]*zip.File)
	)
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || strings.HasPrefix(f.Name, "__MACOSX") {
			continue
		}
		files[path.Clean(f.Name)] = f
		files[path.Base(f.Name)] = f
		if comp != nil || !strings.HasSuffix(strings.ToLower(f.Name), ".json") {
			continue
		}
		b, err := readZipFile(f)
		if err != nil {
			return nil, err
		}
		// Manifests and other metadata fail the composition check.
		if comp, err = JSON(b, opts...); err != nil {
			comp = nil
		}
	}
	if comp == nil {
		return nil, ErrNoComposition
	}

	for _, img := range comp.Images {
		if img.Data != nil {
			continue
		}
		f, ok := files[path.Clean(path.Join(img.Dir, img.FileName))]
		if !ok {
			f, ok = files[img.FileName]
		}
		if !ok {
			continue
		}
		if img.Data, err = readZipFile(f); err != nil {
			return nil, err
		}
	}
	return comp, nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Name, err)
	}
	return b, nil
}

// IsZip reports whether data starts with a zip signature.
func IsZip(data []byte) bool {
	return len(data) >= 4 && data[0] == 'P' && data[1] == 'K' && data[2] == 3 && data[3] == 4
}
