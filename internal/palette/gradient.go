package palette

import (
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Gradient is a piecewise-linear colour ramp. Stops are evenly spaced over
// [0, 1] and stored in linear RGB so interpolation happens in linear light.
type Gradient struct {
	stops [][3]float64
}

// NewGradient decodes sRGB hex stops. At least two stops are required.
func NewGradient(hex ...string) (*Gradient, error) {
	if len(hex) < 2 {
		return nil, fmt.Errorf("palette: gradient needs at least 2 stops, got %d", len(hex))
	}
	g := &Gradient{stops: make([][3]float64, len(hex))}
	for i, h := range hex {
		c, err := colorful.Hex(h)
		if err != nil {
			return nil, fmt.Errorf("palette: stop %d: %w", i, err)
		}
		r, gg, b := c.LinearRgb()
		g.stops[i] = [3]float64{r, gg, b}
	}
	return g, nil
}

func mustGradient(hex ...string) *Gradient {
	g, err := NewGradient(hex...)
	if err != nil {
		panic(err)
	}
	return g
}

// At returns the linear RGB colour at t, clamped to [0, 1].
func (g *Gradient) At(t float64) (r, gr, b float64) {
	if math.IsNaN(t) || t <= 0 {
		s := g.stops[0]
		return s[0], s[1], s[2]
	}
	n := len(g.stops) - 1
	if t >= 1 {
		s := g.stops[n]
		return s[0], s[1], s[2]
	}
	pos := t * float64(n)
	i := int(pos)
	frac := pos - float64(i)
	a, z := g.stops[i], g.stops[i+1]
	return a[0] + (z[0]-a[0])*frac,
		a[1] + (z[1]-a[1])*frac,
		a[2] + (z[2]-a[2])*frac
}

// Len is the number of stops.
func (g *Gradient) Len() int { return len(g.stops) }

// Stop tables, sampled from the published colour maps.
var gradients = map[Policy]*Gradient{
	Kindlmann: mustGradient("#000000", "#2b0a5c", "#0a3b9e", "#06738a", "#0c9a4e", "#4dbb0a", "#d0c70c", "#fbd8c8", "#ffffff"),
	Inferno:   mustGradient("#000004", "#1b0c41", "#4a0c6b", "#781c6d", "#a52c60", "#cf4446", "#ed6925", "#fb9b06", "#f7d13d", "#fcffa4"),
	Blackbody: mustGradient("#000000", "#4a0a0a", "#8f1a0c", "#c8400a", "#e5771a", "#f0a83a", "#f5d373", "#ffffff"),
	Viridis:   mustGradient("#440154", "#482878", "#3e4a89", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6dcd59", "#b4de2c", "#fde725"),
	Plasma:    mustGradient("#0d0887", "#46039f", "#7201a8", "#9c179e", "#bd3786", "#d8576b", "#ed7953", "#fb9f3a", "#fdca26", "#f0f921"),
}

// GradientFor returns the table of a gradient policy, or nil.
func GradientFor(p Policy) *Gradient {
	return gradients[p]
}
