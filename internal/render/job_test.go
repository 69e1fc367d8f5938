package render

import (
	"context"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/inamate/motion/internal/geom"
	"github.com/inamate/motion/internal/parse"
)

const fillJSON = `{
  "v": "5.7.4", "fr": 10, "ip": 0, "op": 10, "w": 10, "h": 10,
  "layers": [{
    "ty": 4, "nm": "Box", "ind": 1, "ip": 0, "op": 10, "st": 0, "sr": 1,
    "ks": {"a": {"a": 0, "k": [0, 0, 0]}, "p": {"a": 0, "k": [0, 0, 0]}, "s": {"a": 0, "k": [100, 100, 100]}, "r": {"a": 0, "k": 0}, "o": {"a": 0, "k": 100}},
    "shapes": [
      {"ty": "rc", "nm": "Rect", "p": {"a": 0, "k": [5, 5]}, "s": {"a": 0, "k": [10, 10]}, "r": {"a": 0, "k": 0}, "d": 1},
      {"ty": "fl", "nm": "Fill", "c": {"a": 0, "k": [1, 0, 0, 1]}, "o": {"a": 0, "k": 100}, "r": 1}
    ]
  }]
}`

func TestJobRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.yaml")
	want := &Job{Input: "in.json", Output: "out", From: 2, To: 8, Scale: 2, Workers: 3, Colors: map[string]string{"Box.Fill": "#00ff00"}}
	if err := WriteJob(want, path); err != nil {
		t.Fatal(err)
	}
	got, err := ReadJob(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Input != want.Input || got.To != 8 || got.Workers != 3 || got.Colors["Box.Fill"] != "#00ff00" {
		t.Fatalf("job = %+v", got)
	}
}

func TestReadJobInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.yaml")
	if err := os.WriteFile(path, []byte("from: [oops"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadJob(path); err == nil {
		t.Fatal("want parse error")
	}
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		in   string
		want geom.Color
		err  bool
	}{
		{"#ff0000", geom.ARGB(255, 255, 0, 0), false},
		{"00ff0080", geom.ARGB(0x80, 0, 255, 0), false},
		{"#fff", 0, true},
		{"#zzzzzz", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseHex(tt.in)
		if (err != nil) != tt.err {
			t.Errorf("%s: err = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%s: got %s, want %s", tt.in, got.Hex(), tt.want.Hex())
		}
	}
}

func TestRun(t *testing.T) {
	comp, err := parse.JSON([]byte(fillJSON))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		job     Job
		frames  int
		width   int
		wantRed bool
	}{
		{"whole composition", Job{Workers: 3}, 10, 10, true},
		{"range", Job{From: 2, To: 4, Workers: 8}, 3, 10, true},
		{"scaled", Job{From: 0, To: 1, Scale: 2}, 2, 20, true},
		{"recolored", Job{From: 3, To: 3, Colors: map[string]string{"Box.Fill": "#0000ff"}}, 1, 10, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := tt.job
			job.Output = t.TempDir()
			n, err := Run(context.Background(), comp, &job)
			if err != nil {
				t.Fatal(err)
			}
			if n != tt.frames {
				t.Fatalf("frames = %d, want %d", n, tt.frames)
			}
			f, err := os.Open(FramePath(job.Output, n-1))
			if err != nil {
				t.Fatal(err)
			}
			defer f.Close()
			img, err := png.Decode(f)
			if err != nil {
				t.Fatal(err)
			}
			if w := img.Bounds().Dx(); w != tt.width {
				t.Fatalf("width = %d, want %d", w, tt.width)
			}
			r, _, b, _ := img.At(tt.width/2, tt.width/2).RGBA()
			if red := r>>8 == 255 && b == 0; red != tt.wantRed {
				t.Fatalf("center pixel = %v", img.At(tt.width/2, tt.width/2))
			}
		})
	}
}

func TestRunUnresolvedColor(t *testing.T) {
	comp, err := parse.JSON([]byte(fillJSON))
	if err != nil {
		t.Fatal(err)
	}
	job := &Job{Output: t.TempDir(), To: 1, Colors: map[string]string{"Nope.Fill": "#ffffff"}}
	if _, err := Run(context.Background(), comp, job); err == nil {
		t.Fatal("want error for unresolved key path")
	}
}

func TestDefaultWorkers(t *testing.T) {
	if n := DefaultWorkers(); n < 1 {
		t.Fatalf("workers = %d", n)
	}
}
