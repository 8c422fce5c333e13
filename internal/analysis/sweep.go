package analysis

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/attractor/internal/attractor"
	"github.com/san-kum/attractor/internal/jobs"
)

// Point is one sample of a sweep.
type Point struct {
	Offset   float64
	Lyapunov float64
	Valid    bool
}

// Sweep classifies base with the coefficient at cell moved to every one of
// steps evenly spaced offsets in [from, to]. Item i uses its own generator
// seeded with seed+i, so results do not depend on scheduling.
func Sweep(ctx context.Context, base attractor.Config, cell attractor.Cell, from, to float64,
	steps int, p attractor.Params, seed int64, workers int) ([]Point, error) {

	if err := cell.Check(base.Family); err != nil {
		return nil, err
	}
	if steps < 2 {
		steps = 2 // both ends
	}
	if !(to > from) {
		return nil, fmt.Errorf("analysis: empty sweep range [%g, %g]", from, to)
	}

	dx := (to - from) / float64(steps-1)
	points := make([]Point, steps)

	err := jobs.Run(ctx, steps, workers, func() struct{} { return struct{}{} },
		func(_ context.Context, i int, _ struct{}) error {
			off := from + float64(i)*dx
			trial := base.With(cell, off)
			rng := rand.New(rand.NewSource(seed + int64(i)))
			ok := attractor.Classify(&trial, p, rng)
			points[i] = Point{Offset: off, Lyapunov: trial.Lyapunov, Valid: ok}
			return nil
		})
	if err != nil {
		return nil, err
	}
	return points, nil
}

// Window returns the widest run of valid points containing the offset
// closest to zero. ok is false when that point is itself invalid.
func Window(points []Point) (iv attractor.Interval, ok bool) {
	if len(points) == 0 {
		return iv, false
	}
	mid := 0
	for i, pt := range points {
		if math.Abs(pt.Offset) < math.Abs(points[mid].Offset) {
			mid = i
		}
	}
	if !points[mid].Valid {
		return iv, false
	}

	lo, hi := mid, mid
	for lo > 0 && points[lo-1].Valid {
		lo--
	}
	for hi < len(points)-1 && points[hi+1].Valid {
		hi++
	}
	return attractor.Interval{Start: points[lo].Offset, End: points[hi].Offset}, true
}

// Plot draws the Lyapunov estimates against the acceptance threshold.
// Rejected samples whose estimate is not finite are drawn at zero.
func Plot(points []Point, threshold float64, width, height int) string {
	if len(points) == 0 {
		return ""
	}

	lyap := make([]float64, len(points))
	line := make([]float64, len(points))
	for i, pt := range points {
		v := pt.Lyapunov
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = 0
		}
		lyap[i] = v
		line[i] = threshold
	}

	caption := fmt.Sprintf("lyapunov over offset [%.3f, %.3f], threshold %.1f",
		points[0].Offset, points[len(points)-1].Offset, threshold)

	return asciigraph.PlotMany([][]float64{lyap, line},
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.SeriesColors(asciigraph.Green, asciigraph.Red),
		asciigraph.Caption(caption),
	)
}
