package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v3/cpu"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/inamate/motion/internal/engine"
	"github.com/inamate/motion/internal/geom"
	"github.com/inamate/motion/internal/keyframe"
	"github.com/inamate/motion/internal/keypath"
	"github.com/inamate/motion/internal/model"
)

// Job describes a batch render of a composition to numbered PNG frames.
type Job struct {
	Input  string `yaml:"input"`
	Output string `yaml:"output"`
	// From and To are inclusive absolute frames. Both zero renders the
	// whole composition.
	From    float64 `yaml:"from"`
	To      float64 `yaml:"to"`
	Scale   float64 `yaml:"scale"`
	Workers int     `yaml:"workers"`
	// Video, when set to mp4, gif or webm, encodes the frames afterwards.
	Video string  `yaml:"video"`
	FPS   float64 `yaml:"fps"`
	// Colors overrides fill colors, keyed by dotted key path.
	Colors map[string]string `yaml:"colors"`
}

// ReadJob reads a job from a YAML file.
func ReadJob(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var job Job
	if err := yaml.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("parse job %s: %w", path, err)
	}
	return &job, nil
}

// WriteJob writes a job to a YAML file.
func WriteJob(job *Job, path string) error {
	data, err := yaml.Marshal(job)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Frames returns the inclusive frame range of the job in comp.
func (j *Job) Frames(comp *model.Composition) (from, to float64) {
	if j.From == 0 && j.To == 0 {
		return comp.StartFrame(), comp.EndFrame() - 1
	}
	return j.From, j.To
}

// FramePath names frame n of the output sequence.
func FramePath(dir string, n int) string {
	return filepath.Join(dir, fmt.Sprintf("frame_%04d.png", n))
}

// ParseHex parses "#rrggbb" or "#rrggbbaa".
func ParseHex(s string) (geom.Color, error) {
	s = strings.TrimPrefix(s, "#")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil || (len(s) != 6 && len(s) != 8) {
		return 0, fmt.Errorf("invalid color %q", s)
	}
	if len(s) == 6 {
		return geom.ARGB(0xff, uint8(v>>16), uint8(v>>8), uint8(v)), nil
	}
	return geom.ARGB(uint8(v), uint8(v>>24), uint8(v>>16), uint8(v>>8)), nil
}

// DefaultWorkers returns the number of physical cores, or the logical
// CPU count when that is unknown.
func DefaultWorkers() int {
	if n, err := cpu.Counts(false); err == nil && n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// Run renders the frames of job from comp into job.Output with
// job.Workers goroutines, each driving its own engine. It returns the
// number of frames written.
func Run(ctx context.Context, comp *model.Composition, job *Job, opts ...engine.Option) (int, error) {
	if job.Output == "" {
		return 0, errors.New("render: job has no output directory")
	}
	if err := os.MkdirAll(job.Output, 0755); err != nil {
		return 0, fmt.Errorf("create output dir: %w", err)
	}
	colors := make(map[string]geom.Color, len(job.Colors))
	for kp, hex := range job.Colors {
		c, err := ParseHex(hex)
		if err != nil {
			return 0, fmt.Errorf("color for %s: %w", kp, err)
		}
		colors[kp] = c
	}

	from, to := job.Frames(comp)
	if to < from {
		return 0, nil
	}
	total := int(to-from) + 1
	workers := max(job.Workers, 1)
	if workers > total {
		workers = total
	}
	if job.Scale > 0 {
		opts = append(opts, engine.WithScale(job.Scale))
	}

	g, ctx := errgroup.WithContext(ctx)
	for w := range workers {
		g.Go(func() error {
			e := engine.New(opts...)
			if err := e.SetComposition(comp); err != nil {
				return err
			}
			for kp, c := range colors {
				if err := engine.SetValueCallback(e, keypath.Parse(kp), keypath.Color, keyframe.Constant(c)); err != nil {
					return err
				}
			}
			rd, err := New(e)
			if err != nil {
				return err
			}
			// Worker w takes every workers-th frame starting at w.
			for n := w; n < total; n += workers {
				if err := ctx.Err(); err != nil {
					return err
				}
				e.SetFrame(from + float64(n))
				if err := WritePNG(rd, FramePath(job.Output, n)); err != nil {
					return fmt.Errorf("frame %d: %w", n, err)
				}
			}
			slog.Debug("render worker done", "worker", w)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return total, nil
}

// WritePNG draws the current frame of rd into a new file at path.
func WritePNG(rd *Renderer, path string) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := rd.PNG(out); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
