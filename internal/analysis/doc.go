// Package analysis provides inspection tools for attractor configurations.
//
//   - [Sweep]: Lyapunov estimate across a range of one coefficient
//   - [Window]: the contiguous chaotic range around the base value
//   - [Plot]: terminal chart of a sweep
//   - [Sketch]: coarse character rendering of an attractor
//
// # Chaos Windows
//
// A sweep shows where a coefficient can move without the map collapsing
// or escaping, which is the range a video can animate through:
//
//	pts, _ := analysis.Sweep(ctx, cfg, cell, -0.5, 0.5, 60, params, seed, 0)
//	fmt.Println(analysis.Plot(pts, threshold, 80, 15))
package analysis
