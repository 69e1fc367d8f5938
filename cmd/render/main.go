// Command render writes the frames of a composition as PNG files and can
// encode them to video.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/inamate/motion/internal/asset"
	"github.com/inamate/motion/internal/engine"
	"github.com/inamate/motion/internal/export"
	"github.com/inamate/motion/internal/loader"
	"github.com/inamate/motion/internal/model"
	"github.com/inamate/motion/internal/render"
	"github.com/inamate/motion/internal/sample"
)

func main() {
	var (
		jobPath = flag.String("job", "", "YAML job file; flags override its fields")
		in      = flag.String("in", "", "composition JSON or zip bundle")
		out     = flag.String("out", "", "output directory for frames")
		from    = flag.Float64("from", 0, "first frame")
		to      = flag.Float64("to", 0, "last frame, inclusive")
		scale   = flag.Float64("scale", 0, "render scale")
		workers = flag.Int("workers", render.DefaultWorkers(), "parallel renderers")
		video   = flag.String("video", "", "encode to mp4, gif or webm")
		fps     = flag.Float64("fps", 0, "video frame rate; defaults to the composition rate")
		ffmpeg  = flag.String("ffmpeg", "ffmpeg", "ffmpeg binary")
		useDemo = flag.Bool("sample", false, "render the built-in sample composition")
		verbose = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	job := &render.Job{}
	if *jobPath != "" {
		j, err := render.ReadJob(*jobPath)
		if err != nil {
			fatal("read job", err)
		}
		job = j
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "in":
			job.Input = *in
		case "out":
			job.Output = *out
		case "from":
			job.From = *from
		case "to":
			job.To = *to
		case "scale":
			job.Scale = *scale
		case "workers":
			job.Workers = *workers
		case "video":
			job.Video = *video
		case "fps":
			job.FPS = *fps
		}
	})
	if job.Workers == 0 {
		job.Workers = *workers
	}
	if job.Output == "" || (job.Input == "" && !*useDemo) {
		fmt.Fprintln(os.Stderr, "usage: render -in composition.json -out frames/ [-from N -to M] [-video mp4]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	comp, err := load(ctx, job, *useDemo)
	if err != nil {
		fatal("load composition", err)
	}
	for _, w := range comp.Warnings.List() {
		slog.Warn("composition warning", "code", w.Code, "message", w.Message)
	}

	opts := []engine.Option{engine.WithLogger(slog.Default())}
	if job.Input != "" {
		opts = append(opts, engine.WithImages(asset.NewProvider(filepath.Dir(job.Input), slog.Default())))
	}

	start := time.Now()
	n, err := render.Run(ctx, comp, job, opts...)
	if err != nil {
		fatal("render", err)
	}
	slog.Info("frames written", "count", n, "dir", job.Output, "elapsed", time.Since(start).Round(time.Millisecond))

	if job.Video == "" {
		return
	}
	rate := job.FPS
	if rate <= 0 {
		rate = comp.FrameRate()
	}
	path, err := export.NewEncoder(*ffmpeg).Encode(ctx, job.Output, rate, job.Video)
	if err != nil {
		fatal("encode video", err)
	}
	slog.Info("video written", "path", path)
}

func load(ctx context.Context, job *render.Job, useDemo bool) (*model.Composition, error) {
	if useDemo && job.Input == "" {
		return sample.Composition()
	}
	return loader.New(loader.WithLogger(slog.Default())).Load(ctx, loader.File(job.Input))
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
