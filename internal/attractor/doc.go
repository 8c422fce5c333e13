// Package attractor finds and describes chaotic coefficient sets.
//
// The package covers three concerns:
//
//   - [Classify]: runs a trajectory plus a shadow trajectory, records the
//     bounding box and step extrema and estimates the Lyapunov exponent
//   - [Random], [FromString], [Perturb]: build classified [Config] values by
//     rejection sampling, by parsing the coefficient text encoding, or by
//     walking one coefficient until the map stops being chaotic
//   - [Format], [ParseCoef], [ReadParams]: the fixed-width text encoding
//
// # Chaos Detection
//
// A coefficient set is accepted when the trajectory stays inside
// (1e-10, 1e10) in every coordinate and the accumulated log separation,
// divided by the warm-up length, exceeds the family threshold:
//
//	cfg := attractor.New(kernel.Poly)
//	cfg.Coef = coef
//	if attractor.Classify(&cfg, attractor.DefaultParams(), rng) {
//	    // cfg.XMin, cfg.XMax and cfg.VMax are now populated
//	}
//
// # Thread Safety
//
// Config values are plain data and safe to copy across goroutines. A
// *rand.Rand is not safe for concurrent use, so each goroutine needs its own.
package attractor
