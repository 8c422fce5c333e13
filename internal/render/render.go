// Package render turns a classified attractor configuration into pixels.
//
// A render replays the trajectory from the origin, discards the warm-up
// steps, and rasterises every remaining point into a [Field] of hit counts
// and directional channels. The field is then converted to sRGB through the
// configuration's colour policy and optionally box-filtered down from the
// supersampled resolution.
//
// Buffers live in a [Scratch] so that a worker rendering many frames
// allocates them only once.
package render

import (
	"fmt"
	"image"
	"math"

	"github.com/san-kum/attractor/internal/attractor"
	"github.com/san-kum/attractor/internal/kernel"
	"github.com/san-kum/attractor/internal/palette"
	"github.com/san-kum/attractor/internal/vec"
)

// Stats summarises one accumulation pass.
type Stats struct {
	Samples  int64   // steps taken after warm-up
	InFrame  int64   // samples that landed inside the frame
	Distinct int     // cells with at least one hit
	Density  float64 // Iterations / Distinct
}

// unit vectors at 90°, 210° and 330°
var triaxial = [3]vec.Vec{
	{0, 1},
	{-math.Sqrt(3) / 2, -0.5},
	{math.Sqrt(3) / 2, -0.5},
}

// Render draws cfg. sc may be nil, in which case buffers are allocated for
// this call only. The returned image belongs to sc and is overwritten by the
// next Render on the same scratch.
func Render(cfg *attractor.Config, s Settings, sc *Scratch) (*image.RGBA, Stats, error) {
	if err := s.Validate(); err != nil {
		return nil, Stats{}, err
	}
	if sc == nil {
		sc = NewScratch(s)
	} else {
		sc.fit(s)
	}

	stats, err := accumulate(cfg, s, sc.field)
	if err != nil {
		return nil, stats, err
	}

	paint(sc.img, sc.field, cfg, s, stats.Density)

	if s.Downscale > 1 {
		downscaleInto(sc.out, sc.img)
		return sc.out, stats, nil
	}
	return sc.img, stats, nil
}

// frame maps attractor coordinates onto field rows and columns. The longer
// axis of the bounding box runs along the width.
type frame struct {
	o          int // axis mapped to columns
	min        vec.Vec
	rowScale   float64
	colScale   float64
	rowOffset  float64
	colOffset  float64
	rows, cols float64
}

func newFrame(cfg *attractor.Config, s Settings, w, h int) (frame, error) {
	rng := vec.Sub(cfg.XMax, cfg.XMin)
	if !(rng[0] > 0 && rng[1] > 0) || !vec.IsFinite(rng) {
		return frame{}, fmt.Errorf("%w: range %v", ErrEmptyExtent, rng)
	}

	f := frame{min: cfg.XMin, rows: float64(h), cols: float64(w)}
	if rng[0] < rng[1] {
		f.o = 1
	}
	p := 1 - f.o

	f.colScale = float64(w-1) / rng[f.o] * (1 - s.Border)
	f.rowScale = float64(h-1) / rng[p] * (1 - s.Border)
	if !s.Stretch {
		sc := math.Min(f.colScale, f.rowScale)
		f.colScale, f.rowScale = sc, sc
	}
	f.rowOffset = (f.rows - rng[p]*f.rowScale) / 2
	f.colOffset = (f.cols - rng[f.o]*f.colScale) / 2
	return f, nil
}

// locate returns the cell of x, or ok == false when it falls outside.
func (f *frame) locate(x vec.Vec) (i, j int, ok bool) {
	p := 1 - f.o
	fi := math.Floor(f.rowOffset + (x[p]-f.min[p])*f.rowScale)
	fj := math.Floor(f.colOffset + (x[f.o]-f.min[f.o])*f.colScale)
	if !(fi >= 0 && fi < f.rows && fj >= 0 && fj < f.cols) {
		return 0, 0, false
	}
	return int(fi), int(fj), true
}

func accumulate(cfg *attractor.Config, s Settings, fld *Field) (Stats, error) {
	fld.Reset()

	fr, err := newFrame(cfg, s, fld.W, fld.H)
	if err != nil {
		return Stats{}, err
	}

	step := kernel.Lookup(cfg.Family).Step
	c := &cfg.Coef
	cutoff := s.cutoff()
	total := s.Iterations()

	var x vec.Vec
	for n := 0; n < cutoff; n++ {
		x = step(c, x)
	}

	vmax := cfg.VMax
	for i := range vmax {
		if !(vmax[i] > 0) {
			vmax[i] = 1
		}
	}
	channels := cfg.Colour.Channels()

	stats := Stats{}
	for n := int64(cutoff); n < total; n++ {
		last := x
		x = step(c, x)
		stats.Samples++

		i, j, ok := fr.locate(x)
		if !ok {
			continue
		}
		stats.InFrame++

		cell := fld.hit(i, j)
		v := vec.Sub(x, last)
		u := vec.Vec{v[0] / vmax[0], v[1] / vmax[1]}

		switch channels {
		case palette.Direction:
			cell.A += u[1]
			cell.B += u[0]
		case palette.Sign:
			cell.A += math.Max(0, u[0])
			cell.B += math.Max(0, -u[0])
			cell.C += math.Abs(u[1])
		case palette.Triaxial:
			cell.A += math.Max(0, vec.Dot(u, triaxial[0]))
			cell.B += math.Max(0, vec.Dot(u, triaxial[1]))
			cell.C += math.Max(0, vec.Dot(u, triaxial[2]))
		}
	}

	stats.Distinct = fld.Distinct()
	if stats.Distinct > 0 {
		stats.Density = float64(total) / float64(stats.Distinct)
	}
	return stats, nil
}
