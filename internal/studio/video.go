package studio

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/attractor/internal/attractor"
	"github.com/san-kum/attractor/internal/jobs"
	"github.com/san-kum/attractor/internal/render"
	"github.com/san-kum/attractor/internal/storage"
	"github.com/san-kum/attractor/internal/vec"
)

// Sweep animates one coefficient of Base across Interval.
type Sweep struct {
	Base     attractor.Config
	Cell     attractor.Cell
	Interval attractor.Interval
}

// Scan resolves the animation interval of cell. Bounds given by the caller
// are kept; only the missing sides are scanned.
func (s *Studio) Scan(base attractor.Config, cell attractor.Cell, start, end *float64) (attractor.Interval, error) {
	if err := cell.Check(base.Family); err != nil {
		return attractor.Interval{}, err
	}

	var iv attractor.Interval
	scan := func(dir float64, given *float64, bound *float64) error {
		if given != nil {
			*bound = *given
			return nil
		}
		off, err := attractor.PerturbSide(base, cell, dir, s.Search, s.rng(0), s.ScanSteps)
		if err != nil {
			return fmt.Errorf("scan %s: %w", cell, err)
		}
		*bound = off
		return nil
	}
	if err := scan(-1, start, &iv.Start); err != nil {
		return iv, err
	}
	if err := scan(+1, end, &iv.End); err != nil {
		return iv, err
	}
	if !(iv.End > iv.Start) {
		return iv, fmt.Errorf("studio: empty interval [%g, %g]", iv.Start, iv.End)
	}

	if start == nil || end == nil {
		s.Log.WithFields(logrus.Fields{
			"coefficient": cell,
			"start":       fmt.Sprintf("%.4f", iv.Start),
			"end":         fmt.Sprintf("%.4f", iv.End),
		}).Info("stable interval found")
	}
	return iv, nil
}

// ScanAny tries the used coefficients of base in random order and returns
// the first one whose interval can be resolved. Coefficients that are
// chaotic only at their exact value, or never leave the chaotic regime,
// are skipped with a warning.
func (s *Studio) ScanAny(base attractor.Config, rng *rand.Rand, start, end *float64) (Sweep, error) {
	rows := base.Rows()
	var last error
	for _, k := range rng.Perm(2 * rows) {
		cell := attractor.Cell{Row: k % rows, Axis: k / rows}
		iv, err := s.Scan(base, cell, start, end)
		if err == nil {
			return Sweep{Base: base, Cell: cell, Interval: iv}, nil
		}
		if !errors.Is(err, attractor.ErrNoStableOffset) && !errors.Is(err, attractor.ErrNoInstability) {
			return Sweep{}, err
		}
		s.warn(logrus.Fields{"coefficient": cell}, "%v, trying another coefficient", err)
		last = err
	}
	return Sweep{}, fmt.Errorf("studio: no coefficient can be animated: %w", last)
}

// Frames builds the n configurations of sw, classifies them in parallel and
// gives every frame the union of the valid frames' extents so the framing
// holds still. Frames that do not classify are kept, with a warning.
func (s *Studio) Frames(ctx context.Context, sw Sweep, n int) ([]attractor.Config, int, error) {
	if n <= 0 {
		return nil, 0, ErrEmpty
	}

	frames := make([]attractor.Config, n)
	valid := make([]bool, n)

	err := jobs.Run(ctx, n, s.Workers, func() struct{} { return struct{}{} },
		func(_ context.Context, i int, _ struct{}) error {
			cfg := sw.Base.With(sw.Cell, sw.Interval.At(i, n))
			valid[i] = attractor.Classify(&cfg, s.Search, s.rng(i))
			frames[i] = cfg
			return nil
		})
	if err != nil {
		return nil, 0, err
	}

	var (
		lo, hi, vmax vec.Vec
		first        = true
		invalid      int
	)
	for i := range frames {
		if !valid[i] {
			invalid++
			s.warn(logrus.Fields{"frame": i}, "frame %d is not chaotic (lyapunov %.3f)", i, frames[i].Lyapunov)
			continue
		}
		if first {
			lo, hi, vmax = frames[i].XMin, frames[i].XMax, frames[i].VMax
			first = false
			continue
		}
		lo = vec.Min(lo, frames[i].XMin)
		hi = vec.Max(hi, frames[i].XMax)
		vmax = vec.Max(vmax, frames[i].VMax)
	}
	if first {
		return nil, invalid, ErrNoValidFrames
	}

	for i := range frames {
		frames[i].XMin, frames[i].XMax, frames[i].VMax = lo, hi, vmax
		frames[i].Colour = s.Colour
	}
	return frames, invalid, nil
}

// Video renders sw over frames frames and streams them to an encoder,
// alongside a thumbnail of the base configuration. Any failure removes the
// partial video.
func (s *Studio) Video(ctx context.Context, sw Sweep, frames, fps int, lossless bool) (Result, error) {
	start := time.Now()
	name := FileName(sw.Base)

	base := sw.Base
	base.Colour = s.Colour
	thumb, _, err := render.Render(&base, s.Render, nil)
	if err != nil {
		return Result{}, err
	}
	thumbPath, err := s.Store.WritePNG(name+".png", thumb)
	if err != nil {
		return Result{}, err
	}

	cfgs, invalid, err := s.Frames(ctx, sw, frames)
	if err != nil {
		return Result{}, err
	}

	vw, err := s.Store.NewVideo(name+".mp4", storage.VideoOptions{
		Width:    s.Render.Width,
		Height:   s.Render.Height,
		FPS:      fps,
		Lossless: lossless,
		Encoder:  s.Encoder,
	})
	if err != nil {
		return Result{}, err
	}

	s.Log.WithFields(logrus.Fields{
		"frames":      frames,
		"coefficient": sw.Cell,
		"file":        vw.Path(),
	}).Info("rendering video")

	err = jobs.RunOrdered(ctx, frames, s.Workers,
		func() *render.Scratch { return render.NewScratch(s.Render) },
		func(_ context.Context, i int, sc *render.Scratch) (*image.RGBA, error) {
			img, _, err := render.Render(&cfgs[i], s.Render, sc)
			return img, err
		},
		func(i int, img *image.RGBA) error {
			s.Log.WithField("frame", i).Debug("frame written")
			return vw.WriteFrame(img)
		},
		s.opts(nil)...)
	if err != nil {
		vw.Abort()
		return Result{}, err
	}
	if err := vw.Close(); err != nil {
		return Result{}, err
	}

	res := Result{Artifacts: []string{thumbPath, vw.Path()}, Failed: invalid}
	res.RunID = s.record("video", start, res, func(m *storage.RunMetadata) {
		m.Params = []string{attractor.Format(sw.Base)}
		m.Coefficient = sw.Cell.String()
		m.Interval = []float64{sw.Interval.Start, sw.Interval.End}
		m.Frames = frames
	})

	s.Log.WithFields(logrus.Fields{
		"file":    vw.Path(),
		"invalid": invalid,
		"elapsed": time.Since(start).Round(time.Millisecond),
	}).Info("video written")
	return res, nil
}

// VideoPreview renders n evenly spaced frames of sw as a grid instead of a
// video.
func (s *Studio) VideoPreview(ctx context.Context, sw Sweep, n int) (Result, error) {
	start := time.Now()
	cfgs, invalid, err := s.Frames(ctx, sw, n)
	if err != nil {
		return Result{}, err
	}

	img, labels, failed, err := s.grid(ctx, n, func(i int, _ *rand.Rand) (attractor.Config, error) {
		return cfgs[i], nil
	})
	if err != nil {
		return Result{}, err
	}

	notes := make([]string, n)
	for i := range notes {
		notes[i] = fmt.Sprintf("%s%+.4f", sw.Cell, sw.Interval.At(i, n))
	}
	return s.finishGrid("preview", FileName(sw.Base)+"_preview", start, img, labels, notes, failed+invalid)
}
