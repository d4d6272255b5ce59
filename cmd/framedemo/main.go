// Command framedemo drives an animated scene through a frame task and
// reports frame timings.
//
// Usage:
//
//	framedemo [-config framedemo.yaml] [-frames N] [-output last.png] [-v]
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/gogpu/framesync"
	"github.com/gogpu/framesync/render"
	"github.com/gogpu/framesync/renderthread"
	"github.com/gogpu/gputypes"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML config file")
		frames     = flag.Int("frames", 0, "number of frames (overrides config)")
		output     = flag.String("output", "", "PNG file for the last frame (overrides config)")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	framesync.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg, err := Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *frames > 0 {
		cfg.Frames = *frames
	}
	if *output != "" {
		cfg.Output = *output
	}

	if err := run(cfg, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// stats collects frame timings from the render goroutine.
type stats struct {
	mu      sync.Mutex
	frames  int
	skipped int
	sync    time.Duration
	total   time.Duration
	worst   time.Duration
}

func (s *stats) observe(fi framesync.FrameInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames++
	if fi.HasFlag(framesync.FrameFlagSkipped) {
		s.skipped++
	}
	s.sync += fi.Duration(framesync.FrameInfoSyncStart, framesync.FrameInfoSyncEnd)
	total := fi.Duration(framesync.FrameInfoSyncQueued, framesync.FrameInfoFrameCompleted)
	s.total += total
	s.worst = max(s.worst, total)
}

// result counts SubmitFrame outcomes on the producer side.
type result struct {
	submitted int
	dropped   int
	redraws   int
	lost      int
	presented int
}

func run(cfg Config, out io.Writer) error {
	var st stats
	rt := renderthread.New(renderthread.WithName("framedemo"), lockOption(cfg.LockOSThread))
	defer rt.Close()

	surface := render.NewSurface(cfg.Width, cfg.Height, gputypes.TextureFormatUndefined)
	opts := []render.ContextOption{render.WithTextureBudget(cfg.TextureBudget)}
	if cfg.SkipUnchanged {
		opts = append(opts, render.WithSkipUnchanged())
	}
	ctx := render.NewSoftwareContext(surface, opts...)
	scene := render.NewScene(surface.Bounds())

	task := framesync.NewTask(framesync.WithFrameObserver(st.observe))
	if err := task.Setup(rt, ctx, scene); err != nil {
		return fmt.Errorf("framedemo: %w", err)
	}
	task.SetBufferParams(framesync.BufferParams{
		Format:     surface.Format(),
		Usage:      render.DefaultBufferUsage,
		ClearColor: gputypes.Color{R: 0.1, G: 0.1, B: 0.15, A: 1},
	})

	layers := makeLayers(cfg)
	defer func() {
		for _, l := range layers {
			l.Destroy()
		}
	}()

	interval := time.Second / time.Duration(cfg.FPS)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var res result
	var completed sync.WaitGroup
	start := time.Now()
	for i := range cfg.Frames {
		vsync := <-ticker.C
		task.SetFrameTimeline(framesync.FrameTimeline{
			VsyncID:       int64(i),
			IntendedVsync: framesync.Now(),
			Vsync:         framesync.Now(),
			Deadline:      framesync.Now() + int64(interval),
			Interval:      interval,
		})

		if cfg.LoseSurfaceAt > 0 {
			switch i {
			case cfg.LoseSurfaceAt:
				surface.Lose()
			case cfg.LoseSurfaceAt + 2:
				surface.Reclaim()
			}
		}

		buildFrame(scene, layers, task, i, cfg.Frames)

		_ = task.SetFrameCommitCallback(func(ok bool) {
			if ok {
				res.presented++
			}
		})
		completed.Add(1)
		if err := task.SetFrameCompleteCallback(completed.Done); err != nil {
			completed.Done()
		}

		r := task.SubmitFrame()
		res.submitted++
		if r.Has(framesync.FrameDropped) {
			res.dropped++
		}
		if r.Has(framesync.UIRedrawRequired) {
			res.redraws++
		}
		if r.Has(framesync.LostSurfaceRewardIfFound) {
			res.lost++
		}
		if !r.Retryable() {
			framesync.Logger().Warn("framedemo: context stopped", "frame", i, "vsync", vsync)
			break
		}
	}
	completed.Wait()
	elapsed := time.Since(start)

	report(out, cfg, &st, res, ctx.Stats(), elapsed)

	if cfg.Output != "" {
		if err := writePNG(cfg.Output, surface.Image()); err != nil {
			return err
		}
		fmt.Fprintf(out, "last frame saved to %s\n", cfg.Output)
	}
	return nil
}

func lockOption(lock bool) renderthread.Option {
	if lock {
		return renderthread.WithLockOSThread()
	}
	return func(*renderthread.Thread) {}
}

// makeLayers creates the sprite layers, each a filled square.
func makeLayers(cfg Config) []*render.Layer {
	palette := []color.RGBA{
		{230, 80, 80, 220},
		{80, 200, 120, 220},
		{90, 140, 240, 220},
		{240, 200, 60, 220},
	}
	size := max(4, min(cfg.Width, cfg.Height)/8)
	layers := make([]*render.Layer, cfg.Layers)
	for i := range layers {
		c := palette[i%len(palette)]
		l := render.NewLayer(i+1, size, size)
		l.SetZ(i)
		l.Update(func(img *image.RGBA) {
			for y := range size {
				for x := range size {
					img.SetRGBA(x, y, c)
				}
			}
		})
		layers[i] = l
	}
	return layers
}

// buildFrame updates the scene and moves the layers for frame i.
func buildFrame(scene *render.Scene, layers []*render.Layer, task *framesync.Task, i, frames int) {
	b := scene.Bounds()
	if i == 0 {
		scene.Reset()
		scene.Clear(color.RGBA{25, 25, 38, 255})
		scene.FillRect(image.Rect(0, b.Dy()-b.Dy()/6, b.Dx(), b.Dy()), color.RGBA{40, 60, 40, 255})
	}

	// A bar growing across the top shows progress.
	w := b.Dx() * (i + 1) / frames
	scene.FillRect(image.Rect(0, 0, w, 4), color.RGBA{200, 200, 200, 255})
	scene.SetAnimating(i+1 < frames)

	for n, l := range layers {
		size := l.Bounds().Dx()
		span := max(1, b.Dx()-size)
		x := (i*(3+n) + n*size) % (2 * span)
		if x > span {
			x = 2*span - x
		}
		y := b.Dy()/4 + n*size
		l.SetOrigin(image.Pt(x, y))
		task.PushLayerUpdate(l)
	}
}

func report(out io.Writer, cfg Config, st *stats, res result, cs render.ContextStats, elapsed time.Duration) {
	tag, err := language.Parse(cfg.Language)
	if err != nil {
		tag = language.English
	}
	p := message.NewPrinter(tag)

	st.mu.Lock()
	defer st.mu.Unlock()

	var avgSync, avgTotal time.Duration
	if st.frames > 0 {
		avgSync = st.sync / time.Duration(st.frames)
		avgTotal = st.total / time.Duration(st.frames)
	}

	p.Fprintf(out, "frames submitted: %d, presented: %d, dropped: %d (observed %d, skipped %d)\n",
		res.submitted, res.presented, res.dropped, st.frames, st.skipped)
	p.Fprintf(out, "redraw requests: %d, lost surface: %d\n", res.redraws, res.lost)
	p.Fprintf(out, "sync avg: %v, frame avg: %v, worst: %v\n", avgSync, avgTotal, st.worst)
	p.Fprintf(out, "layer uploads: %d (deferred %d), texture bytes: %d\n", cs.Uploads, cs.Deferred, cs.TextureBytes)
	p.Fprintf(out, "elapsed: %v\n", elapsed.Round(time.Millisecond))
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("framedemo: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("framedemo: encode %s: %w", path, err)
	}
	return f.Close()
}
