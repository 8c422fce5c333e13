package analysis

import (
	"strings"

	"github.com/san-kum/attractor/internal/attractor"
	"github.com/san-kum/attractor/internal/kernel"
	"github.com/san-kum/attractor/internal/vec"
)

var shades = []rune(" .:-=+*#%@")

// Sketch renders cfg as width x height characters, darker glyphs for denser
// cells. cfg must have been classified so its extents are known.
func Sketch(cfg *attractor.Config, width, height, samples, cutoff int) string {
	if width <= 0 || height <= 0 || samples <= 0 {
		return ""
	}
	rng := vec.Sub(cfg.XMax, cfg.XMin)
	if !(rng[0] > 0 && rng[1] > 0) {
		return ""
	}

	counts := make([]int, width*height)
	step := kernel.Lookup(cfg.Family).Step

	var x vec.Vec
	for n := 0; n < cutoff; n++ {
		x = step(&cfg.Coef, x)
	}

	peak := 0
	for n := 0; n < samples; n++ {
		x = step(&cfg.Coef, x)
		col := int((x[0] - cfg.XMin[0]) / rng[0] * float64(width-1))
		row := height - 1 - int((x[1]-cfg.XMin[1])/rng[1]*float64(height-1))
		if row < 0 || row >= height || col < 0 || col >= width {
			continue
		}
		k := row*width + col
		counts[k]++
		peak = max(peak, counts[k])
	}

	var sb strings.Builder
	sb.Grow((width + 1) * height)
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			c := counts[row*width+col]
			idx := 0
			if c > 0 {
				idx = 1 + (c*(len(shades)-2))/peak
			}
			sb.WriteRune(shades[idx])
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
