package asset

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/inamate/motion/internal/model"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDecode(t *testing.T) {
	img, format, err := Decode(pngBytes(t, 3, 2))
	if err != nil {
		t.Fatal(err)
	}
	if format != "png" || img.Bounds().Dx() != 3 {
		t.Fatalf("format %q bounds %v", format, img.Bounds())
	}
	if _, _, err := Decode([]byte("nope")); err == nil {
		t.Fatal("want error for garbage")
	}
}

func TestProvider(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "images"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "images", "a.png"), pngBytes(t, 4, 4), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		root  string
		asset *model.ImageAsset
		width int
		err   error
	}{
		{"embedded", "", &model.ImageAsset{ID: "e", Data: pngBytes(t, 2, 2)}, 2, nil},
		{"file", dir, &model.ImageAsset{ID: "f", Dir: "images/", FileName: "a.png"}, 4, nil},
		{"no root", "", &model.ImageAsset{ID: "n", FileName: "a.png"}, 0, ErrNoData},
		{"escape", dir, &model.ImageAsset{ID: "x", Dir: "../", FileName: "etc"}, 0, ErrOutsideRoot},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProvider(tt.root, nil)
			img, err := p.Image(tt.asset)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("err = %v, want %v", err, tt.err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if img.Bounds().Dx() != tt.width {
				t.Fatalf("width = %d, want %d", img.Bounds().Dx(), tt.width)
			}
		})
	}
}

func TestProviderCaches(t *testing.T) {
	p := NewProvider("", nil)
	a := &model.ImageAsset{ID: "c", Data: pngBytes(t, 1, 1)}
	first, err := p.Image(a)
	if err != nil {
		t.Fatal(err)
	}
	a.Data = []byte("corrupt")
	second, err := p.Image(a)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Fatal("second lookup decoded again")
	}
}
