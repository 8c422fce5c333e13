package studio

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/attractor/internal/attractor"
	"github.com/san-kum/attractor/internal/jobs"
	"github.com/san-kum/attractor/internal/kernel"
	"github.com/san-kum/attractor/internal/palette"
	"github.com/san-kum/attractor/internal/render"
	"github.com/san-kum/attractor/internal/storage"
)

// gutter fills grid cells whose tile failed
var gutter = color.RGBA{0x7f, 0x7f, 0x7f, 0xff}

// Layout returns the column and row count of a grid of n tiles.
func Layout(n int) (cols, rows int) {
	if n <= 0 {
		return 0, 0
	}
	cols = int(math.Ceil(math.Sqrt(float64(n))))
	rows = (n + cols - 1) / cols
	return cols, rows
}

// tileFunc produces the configuration of tile i.
type tileFunc func(i int, rng *rand.Rand) (attractor.Config, error)

// grid renders n tiles into one image. Tiles are independent: a failed tile
// is logged and left grey. The returned labels hold the coefficients of each
// tile, or "" where it failed.
func (s *Studio) grid(ctx context.Context, n int, tile tileFunc) (*image.RGBA, []string, int, error) {
	if n <= 0 {
		return nil, nil, 0, ErrEmpty
	}
	if err := s.Render.Validate(); err != nil {
		return nil, nil, 0, err
	}

	cols, rows := Layout(n)
	w, h := s.Render.Width, s.Render.Height
	out := image.NewRGBA(image.Rect(0, 0, cols*w, rows*h))
	draw.Draw(out, out.Bounds(), &image.Uniform{gutter}, image.Point{}, draw.Src)

	labels := make([]string, n)
	var failed atomic.Int64

	onError := func(i int, err error) {
		failed.Add(1)
		s.warn(logrus.Fields{"tile": i + 1}, "tile %d: %v", i+1, err)
	}

	err := jobs.Run(ctx, n, s.Workers,
		func() *render.Scratch { return render.NewScratch(s.Render) },
		func(_ context.Context, i int, sc *render.Scratch) error {
			cfg, err := tile(i, s.rng(i))
			if err != nil {
				return err
			}
			img, _, err := render.Render(&cfg, s.Render, sc)
			if err != nil {
				return err
			}
			at := image.Pt((i%cols)*w, (i/cols)*h)
			draw.Draw(out, image.Rectangle{Min: at, Max: at.Add(image.Pt(w, h))}, img, image.Point{}, draw.Src)
			labels[i] = attractor.Format(cfg)
			return nil
		},
		s.opts(onError)...)
	if err != nil {
		return nil, nil, 0, err
	}
	return out, labels, int(failed.Load()), nil
}

// writeGrid stores the grid image and a sidecar listing one line per tile.
// notes, when given, are appended to the comment of each line.
func (s *Studio) writeGrid(name string, img *image.RGBA, labels, notes []string) ([]string, error) {
	png, err := s.Store.WritePNG(name+".png", img)
	if err != nil {
		return nil, err
	}

	lines := make([]string, len(labels))
	for i, l := range labels {
		note := ""
		if i < len(notes) {
			note = " " + notes[i]
		}
		if l == "" {
			lines[i] = fmt.Sprintf("# %d failed%s", i+1, note)
			continue
		}
		lines[i] = fmt.Sprintf("%s# %d%s", l, i+1, note)
	}
	txt, err := s.Store.WriteSidecar(name+".txt", lines)
	if err != nil {
		return nil, err
	}
	return []string{png, txt}, nil
}

// Samples searches n random configurations and renders them as a grid.
// Tile i is searched with seed Seed+i.
func (s *Studio) Samples(ctx context.Context, n int) (Result, error) {
	start := time.Now()
	img, labels, failed, err := s.grid(ctx, n, func(i int, rng *rand.Rand) (attractor.Config, error) {
		return s.Find("", rng)
	})
	if err != nil {
		return Result{}, err
	}
	return s.finishGrid("samples", "samples", start, img, labels, nil, failed)
}

// Batch renders coefficient sets read from a params file as a grid. Sets
// that are not chaotic are logged and left grey.
func (s *Studio) Batch(ctx context.Context, coefs []kernel.Coef) (Result, error) {
	start := time.Now()
	img, labels, failed, err := s.grid(ctx, len(coefs), func(i int, rng *rand.Rand) (attractor.Config, error) {
		cfg := attractor.New(s.Family)
		cfg.Coef = coefs[i]
		cfg.Colour = s.Colour
		if !attractor.Classify(&cfg, s.Search, rng) {
			return cfg, fmt.Errorf("%w (lyapunov %.3f)", attractor.ErrNotChaotic, cfg.Lyapunov)
		}
		return cfg, nil
	})
	if err != nil {
		return Result{}, err
	}
	return s.finishGrid("batch", "batch", start, img, labels, nil, failed)
}

// ColourPreview renders one configuration once per colour policy.
func (s *Studio) ColourPreview(ctx context.Context, params string) (Result, error) {
	start := time.Now()
	base, err := s.Find(params, s.rng(0))
	if err != nil {
		return Result{}, err
	}

	policies := palette.All()
	img, labels, failed, err := s.grid(ctx, len(policies), func(i int, _ *rand.Rand) (attractor.Config, error) {
		cfg := base
		cfg.Colour = policies[i]
		return cfg, nil
	})
	if err != nil {
		return Result{}, err
	}
	notes := make([]string, len(policies))
	for i, p := range policies {
		notes[i] = p.String()
	}
	return s.finishGrid("colours", FileName(base)+"_colours", start, img, labels, notes, failed)
}

func (s *Studio) finishGrid(mode, name string, start time.Time, img *image.RGBA, labels, notes []string, failed int) (Result, error) {
	paths, err := s.writeGrid(name, img, labels, notes)
	if err != nil {
		return Result{}, err
	}

	s.Log.WithFields(logrus.Fields{
		"file":   paths[0],
		"tiles":  len(labels),
		"failed": failed,
	}).Info("grid written")

	res := Result{Artifacts: paths, Failed: failed}
	res.RunID = s.record(mode, start, res, func(m *storage.RunMetadata) {
		for _, l := range labels {
			if l != "" {
				m.Params = append(m.Params, l)
			}
		}
	})
	return res, nil
}
