// Package export renders frame sequences and encodes them to video with
// ffmpeg.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/inamate/motion/internal/engine"
	"github.com/inamate/motion/internal/render"
)

var ErrFormat = errors.New("invalid format: must be mp4, gif, or webm")

// framePattern names rendered frames in the order ffmpeg reads them.
const framePattern = "frame_%04d.png"

// Range selects frames From to To inclusive. A zero range covers the
// whole composition.
type Range struct {
	From, To float64
}

// RenderFrames writes every frame of r into dir as numbered PNG files and
// returns how many were written.
func RenderFrames(ctx context.Context, e *engine.Engine, r Range, dir string) (int, error) {
	rd, err := render.New(e)
	if err != nil {
		return 0, err
	}
	from, to := r.From, r.To
	if from == 0 && to == 0 {
		comp := e.Composition()
		from, to = comp.StartFrame(), comp.EndFrame()-1
	}
	n := 0
	for f := from; f <= to; f++ {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		e.SetFrame(f)
		if err := render.WritePNG(rd, filepath.Join(dir, fmt.Sprintf(framePattern, n))); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// ContentType returns the MIME type of an output format.
func ContentType(format string) (string, error) {
	switch format {
	case "mp4":
		return "video/mp4", nil
	case "gif":
		return "image/gif", nil
	case "webm":
		return "video/webm", nil
	}
	return "", ErrFormat
}

type Encoder struct {
	ffmpegPath string
}

func NewEncoder(ffmpegPath string) *Encoder {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Encoder{ffmpegPath: ffmpegPath}
}

// Available reports whether the ffmpeg binary can be found.
func (enc *Encoder) Available() bool {
	_, err := exec.LookPath(enc.ffmpegPath)
	return err == nil
}

// Encode turns the frames in dir into a video of format and returns the
// output path, inside dir.
func (enc *Encoder) Encode(ctx context.Context, dir string, fps float64, format string) (string, error) {
	if _, err := ContentType(format); err != nil {
		return "", err
	}
	passes := encodeArgs(dir, fps, format)
	for _, args := range passes {
		if err := enc.run(ctx, args...); err != nil {
			return "", err
		}
	}
	return filepath.Join(dir, "output."+format), nil
}

// encodeArgs returns the ffmpeg argument lists, one per pass.
func encodeArgs(dir string, fps float64, format string) [][]string {
	if fps <= 0 || math.IsNaN(fps) {
		fps = 24
	}
	rate := strconv.FormatFloat(fps, 'f', -1, 64)
	input := filepath.Join(dir, framePattern)
	output := filepath.Join(dir, "output."+format)

	switch format {
	case "mp4":
		return [][]string{{
			"-framerate", rate,
			"-i", input,
			"-c:v", "libx264",
			"-pix_fmt", "yuv420p",
			"-crf", "18",
			"-preset", "fast",
			"-movflags", "+faststart",
			output,
		}}
	case "gif":
		// Two-pass GIF: generate palette then apply
		palette := filepath.Join(dir, "palette.png")
		return [][]string{{
			"-framerate", rate,
			"-i", input,
			"-vf", "palettegen=stats_mode=diff",
			palette,
		}, {
			"-framerate", rate,
			"-i", input,
			"-i", palette,
			"-lavfi", "paletteuse=dither=bayer:bayer_scale=5:diff_mode=rectangle",
			output,
		}}
	case "webm":
		return [][]string{{
			"-framerate", rate,
			"-i", input,
			"-c:v", "libvpx-vp9",
			"-crf", "30",
			"-b:v", "0",
			"-pix_fmt", "yuva420p",
			output,
		}}
	}
	return nil
}

func (enc *Encoder) run(ctx context.Context, args ...string) error {
	fullArgs := append([]string{"-y", "-hide_banner", "-loglevel", "error"}, args...)
	cmd := exec.CommandContext(ctx, enc.ffmpegPath, fullArgs...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		slog.Error("ffmpeg failed", "error", err, "stderr", stderr.String())
		return fmt.Errorf("ffmpeg: %w: %s", err, stderr.String())
	}
	return nil
}
