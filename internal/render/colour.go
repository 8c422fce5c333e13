package render

import (
	"image"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/san-kum/attractor/internal/attractor"
	"github.com/san-kum/attractor/internal/palette"
)

// paint converts fld into sRGB pixels of img using the colour policy of cfg.
func paint(img *image.RGBA, fld *Field, cfg *attractor.Config, s Settings, density float64) {
	var bg uint8
	if s.Light {
		bg = 0xff
	}

	k := 0.0
	if density > 0 {
		k = s.Intensity / density / 255
	}
	policy := cfg.Colour
	grad := palette.GradientFor(policy)

	for i := 0; i < fld.H; i++ {
		row := img.Pix[i*img.Stride:]
		for j := 0; j < fld.W; j++ {
			px := row[j*4 : j*4+4 : j*4+4]
			cell := fld.At(i, j)
			if cell.Hits == 0 {
				px[0], px[1], px[2], px[3] = bg, bg, bg, 0xff
				continue
			}

			r, g, b := shade(policy, grad, cell, k)
			r8, g8, b8 := colorful.LinearRgb(r, g, b).Clamped().RGB255()
			if s.Light {
				r8, g8, b8 = 0xff-r8, 0xff-g8, 0xff-b8
			}
			px[0], px[1], px[2], px[3] = r8, g8, b8, 0xff
		}
	}
}

// shade returns the linear colour of one hit cell.
func shade(policy palette.Policy, grad *palette.Gradient, c *Cell, k float64) (r, g, b float64) {
	hits := float64(c.Hits)
	level := math.Min(1, k*hits)

	switch policy {
	case palette.BW:
		return level, level, level
	case palette.HSV, palette.HSL:
		h := math.Mod(180+math.Atan2(c.A, c.B)*180/math.Pi, 360)
		sat := math.Min(1, math.Hypot(c.A, c.B)/hits)
		var col colorful.Color
		if policy == palette.HSV {
			col = colorful.Hsv(h, sat, level)
		} else {
			col = colorful.Hsl(h, sat, level/2)
		}
		return col.R, col.G, col.B
	case palette.RGB, palette.Mix:
		return math.Min(1, k*c.A), math.Min(1, k*c.B), math.Min(1, k*c.C)
	}

	if grad != nil {
		return grad.At(level)
	}
	return level, level, level
}
