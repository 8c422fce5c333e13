// Package studio drives search, rendering and output for every top-level
// behaviour: single images, sample grids, colour previews and videos.
package studio

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/attractor/internal/attractor"
	"github.com/san-kum/attractor/internal/jobs"
	"github.com/san-kum/attractor/internal/kernel"
	"github.com/san-kum/attractor/internal/palette"
	"github.com/san-kum/attractor/internal/render"
	"github.com/san-kum/attractor/internal/storage"
)

var (
	ErrNoValidFrames = errors.New("studio: no frame of the sweep is chaotic")
	ErrEmpty         = errors.New("studio: nothing to render")
)

// Studio holds the settings shared by every operation.
type Studio struct {
	Render      render.Settings
	Search      attractor.Params
	Family      kernel.Family
	Colour      palette.Policy
	Workers     int
	Seed        int64
	MaxAttempts int // 0 searches until found
	ScanSteps   int // 0 scans until unstable
	Encoder     string

	Store *storage.Store
	Log   *logrus.Logger

	// Progress and Note are optional observers, called from worker
	// goroutines.
	Progress func(done, total int)
	Note     func(msg string)
}

// Result lists what an operation wrote.
type Result struct {
	RunID     string
	Artifacts []string
	Failed    int
}

// FileName turns the encoded coefficients of cfg into a file name stem.
func FileName(cfg attractor.Config) string {
	return strings.Join(strings.Fields(attractor.Format(cfg)), "_")
}

func (s *Studio) rng(i int) *rand.Rand {
	return rand.New(rand.NewSource(s.Seed + int64(i)))
}

func (s *Studio) opts(onError func(int, error)) []jobs.Option {
	opts := []jobs.Option{}
	if s.Progress != nil {
		opts = append(opts, jobs.OnProgress(s.Progress))
	}
	if onError != nil {
		opts = append(opts, jobs.OnError(onError))
	}
	return opts
}

func (s *Studio) warn(fields logrus.Fields, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	s.Log.WithFields(fields).Warn(msg)
	if s.Note != nil {
		s.Note(msg)
	}
}

// Find returns a classified configuration: a random one when params is
// empty, otherwise the parsed params.
func (s *Studio) Find(params string, rng *rand.Rand) (attractor.Config, error) {
	var (
		cfg      attractor.Config
		err      error
		attempts = 1
	)
	if params == "" {
		cfg, attempts, err = attractor.Random(s.Family, s.Search, rng, s.MaxAttempts)
	} else {
		cfg, err = attractor.FromString(params, s.Family, s.Search, rng)
	}
	if err != nil {
		return cfg, err
	}
	cfg.Colour = s.Colour

	s.Log.WithFields(logrus.Fields{
		"type":     cfg.Family,
		"attempts": attempts,
		"lyapunov": fmt.Sprintf("%.3f", cfg.Lyapunov),
	}).Debug("attractor found")
	return cfg, nil
}

// Image renders one configuration to <coefficients>.png.
func (s *Studio) Image(ctx context.Context, params string) (Result, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	cfg, err := s.Find(params, s.rng(0))
	if err != nil {
		return Result{}, err
	}

	img, stats, err := render.Render(&cfg, s.Render, nil)
	if err != nil {
		return Result{}, err
	}
	path, err := s.Store.WritePNG(FileName(cfg)+".png", img)
	if err != nil {
		return Result{}, err
	}

	s.Log.WithFields(logrus.Fields{
		"file":     path,
		"distinct": stats.Distinct,
		"density":  fmt.Sprintf("%.1f", stats.Density),
	}).Info("image written")

	res := Result{Artifacts: []string{path}}
	res.RunID = s.record("image", start, res, func(m *storage.RunMetadata) {
		m.Params = []string{attractor.Format(cfg)}
		m.Stats = map[string]float64{
			"lyapunov": cfg.Lyapunov,
			"density":  stats.Density,
			"distinct": float64(stats.Distinct),
		}
	})
	return res, nil
}

// record saves run metadata. A failure to record is logged, not returned.
func (s *Studio) record(mode string, start time.Time, res Result, fill func(*storage.RunMetadata)) string {
	meta := &storage.RunMetadata{
		Mode:      mode,
		Seed:      s.Seed,
		Family:    s.Family.String(),
		Colour:    s.Colour.String(),
		Width:     s.Render.Width,
		Height:    s.Render.Height,
		Quality:   s.Render.Quality,
		Artifacts: res.Artifacts,
		Failed:    res.Failed,
		Elapsed:   time.Since(start),
	}
	if fill != nil {
		fill(meta)
	}
	id, err := s.Store.SaveRun(meta)
	if err != nil {
		s.Log.WithError(err).Warn("run metadata not saved")
		return ""
	}
	return id
}
