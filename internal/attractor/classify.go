package attractor

import (
	"math"
	"math/rand"

	"github.com/san-kum/attractor/internal/kernel"
	"github.com/san-kum/attractor/internal/vec"
)

// Classify runs 2*Cutoff iterations of cfg from the origin together with a
// shadow trajectory offset by less than 1e-3, and reports whether the map is
// a bounded, non-degenerate chaotic attractor.
//
// Extents are recorded for steps n > Cutoff. The log separation is summed
// over every step and divided by Cutoff. cfg is mutated even on rejection.
func Classify(cfg *Config, p Params, rng *rand.Rand) bool {
	p = p.resolve(cfg.Family)
	step := kernel.Lookup(cfg.Family).Step
	c := &cfg.Coef

	var x, xe vec.Vec
	d0 := 0.0
	for d0 <= 0 {
		for i := range xe {
			xe[i] = x[i] + (rng.Float64()-0.5)/1000
		}
		d0 = vec.Dist(x, xe)
	}

	cfg.XMin = vec.Vec{maxMagnitude, maxMagnitude}
	cfg.XMax = vec.Vec{-maxMagnitude, -maxMagnitude}
	cfg.VMax = vec.Vec{}
	cfg.Lyapunov = 0

	lyapunov := 0.0
	for n := 0; n < 2*p.Cutoff; n++ {
		last := x
		x = step(c, x)
		xe = step(c, xe)

		// converge, diverge
		if escaped(x) {
			return false
		}

		if n > p.Cutoff {
			v := vec.Sub(x, last)
			cfg.XMin = vec.Min(cfg.XMin, x)
			cfg.XMax = vec.Max(cfg.XMax, x)
			cfg.VMax = vec.Max(cfg.VMax, vec.Vec{math.Abs(v[0]), math.Abs(v[1])})
		}

		lyapunov += math.Log(math.Abs(vec.Dist(x, xe) / d0))
	}

	cfg.Lyapunov = lyapunov / float64(p.Cutoff)
	if math.IsNaN(cfg.Lyapunov) || math.IsInf(cfg.Lyapunov, 0) {
		return false
	}
	return cfg.Lyapunov > p.Threshold
}

func escaped(x vec.Vec) bool {
	for _, xi := range x {
		a := math.Abs(xi)
		if a > maxMagnitude || a < minMagnitude || math.IsNaN(a) {
			return true
		}
	}
	return false
}
