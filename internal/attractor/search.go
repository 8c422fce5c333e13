package attractor

import (
	"fmt"
	"math/rand"

	"github.com/san-kum/attractor/internal/kernel"
)

const (
	// ScanStep is the coefficient increment of a perturbation scan.
	ScanStep = 1e-2

	// coefficient sampling range is [-coefRange, coefRange]
	coefRange = 2.0

	// how many times a scan halves its step before giving up on a side
	refineHalvings = 8
)

// Random draws coefficients uniformly from [-2, 2] until one classifies as
// chaotic. maxAttempts <= 0 means no limit. The number of attempts made is
// returned alongside the config.
func Random(f kernel.Family, p Params, rng *rand.Rand, maxAttempts int) (Config, int, error) {
	rows := f.Rows()
	cfg := New(f)

	for attempt := 1; maxAttempts <= 0 || attempt <= maxAttempts; attempt++ {
		cfg.Coef = kernel.Coef{}
		for i := 0; i < 2; i++ {
			for j := 0; j < rows; j++ {
				cfg.Coef[j][i] = rng.Float64()*2*coefRange - coefRange
			}
		}
		if Classify(&cfg, p, rng) {
			return cfg, attempt, nil
		}
	}

	return Config{}, maxAttempts, fmt.Errorf("%w: %d attempts for %s", ErrSearchExhausted, maxAttempts, f)
}

// FromString parses a coefficient string and classifies it. A parse failure
// returns a *ParseError; a well-formed but non-chaotic set returns the
// config together with ErrNotChaotic.
func FromString(s string, f kernel.Family, p Params, rng *rand.Rand) (Config, error) {
	coef, err := ParseCoef(s, f)
	if err != nil {
		return Config{}, err
	}
	cfg := New(f)
	cfg.Coef = coef
	if !Classify(&cfg, p, rng) {
		return cfg, fmt.Errorf("%w (lyapunov %.3f)", ErrNotChaotic, cfg.Lyapunov)
	}
	return cfg, nil
}

// Interval is a range of offsets around a base coefficient value.
type Interval struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

func (iv Interval) Width() float64 { return iv.End - iv.Start }

// At returns the offset of frame i out of n, sweeping linearly from Start.
func (iv Interval) At(i, n int) float64 {
	if n <= 0 {
		return iv.Start
	}
	return iv.Start + iv.Width()*float64(i)/float64(n)
}

// Perturb walks the coefficient at cell away from its base value in steps of
// ScanStep, first downwards then upwards, until classification fails. The
// returned bounds are the last offsets that still classified as chaotic, so
// Start < 0 < End whenever the error is nil. maxSteps bounds each direction
// (<= 0 means no limit); reaching it yields ErrNoInstability together with
// the bounds reached so far. A side with no valid non-zero offset at all
// yields ErrNoStableOffset.
func Perturb(base Config, cell Cell, p Params, rng *rand.Rand, maxSteps int) (Interval, error) {
	start, err := PerturbSide(base, cell, -1, p, rng, maxSteps)
	if err != nil {
		return Interval{Start: start}, fmt.Errorf("below %s: %w", cell, err)
	}
	end, err := PerturbSide(base, cell, +1, p, rng, maxSteps)
	if err != nil {
		return Interval{Start: start, End: end}, fmt.Errorf("above %s: %w", cell, err)
	}
	return Interval{Start: start, End: end}, nil
}

// PerturbSide scans one direction of Perturb: dir < 0 walks down, dir > 0
// walks up. The returned offset has the sign of dir and is never zero when
// the error is nil.
func PerturbSide(base Config, cell Cell, dir float64, p Params, rng *rand.Rand, maxSteps int) (float64, error) {
	if err := cell.Check(base.Family); err != nil {
		return 0, err
	}
	if dir < 0 {
		dir = -1
	} else {
		dir = 1
	}

	last := 0.0
	for n := 1; maxSteps <= 0 || n <= maxSteps; n++ {
		off := dir * float64(n) * ScanStep
		trial := base.With(cell, off)
		if !Classify(&trial, p, rng) {
			if last != 0 {
				return last, nil
			}
			if h, ok := refine(base, cell, dir, p, rng); ok {
				return h, nil
			}
			return 0, fmt.Errorf("%w: nothing valid within %g", ErrNoStableOffset, ScanStep)
		}
		last = off
	}
	return last, ErrNoInstability
}

// refine looks for a non-zero valid offset below the first step.
func refine(base Config, cell Cell, dir float64, p Params, rng *rand.Rand) (float64, bool) {
	h := ScanStep
	for k := 0; k < refineHalvings; k++ {
		h /= 2
		trial := base.With(cell, dir*h)
		if Classify(&trial, p, rng) {
			return dir * h, true
		}
	}
	return 0, false
}
