package attractor

import (
	"fmt"
	"strconv"

	"github.com/san-kum/attractor/internal/kernel"
	"github.com/san-kum/attractor/internal/palette"
	"github.com/san-kum/attractor/internal/vec"
)

const (
	DefaultCutoff = 10000

	// divergence and degeneracy bounds on any coordinate
	maxMagnitude = 1e10
	minMagnitude = 1e-10
)

// Config is a coefficient table plus the statistics of its classification.
// XMin, XMax and VMax are only meaningful after Classify accepted it.
type Config struct {
	Family   kernel.Family
	Coef     kernel.Coef
	XMin     vec.Vec
	XMax     vec.Vec
	VMax     vec.Vec
	Lyapunov float64
	Colour   palette.Policy
}

func New(f kernel.Family) Config {
	return Config{Family: f, Colour: palette.BW}
}

func (c *Config) Rows() int { return c.Family.Rows() }

// Params controls classification.
type Params struct {
	Cutoff    int     `yaml:"cutoff"`
	Threshold float64 `yaml:"threshold"` // 0 selects the family default
}

func DefaultParams() Params {
	return Params{Cutoff: DefaultCutoff}
}

func (p Params) resolve(f kernel.Family) Params {
	if p.Cutoff <= 0 {
		p.Cutoff = DefaultCutoff
	}
	if p.Threshold == 0 {
		p.Threshold = kernel.Lookup(f).Threshold
	}
	return p
}

// Cell addresses one coefficient: Row within the table and Axis 0 (x) or 1 (y).
type Cell struct {
	Row  int
	Axis int
}

func (c Cell) String() string {
	return fmt.Sprintf("%c%d", "xy"[c.Axis&1], c.Row)
}

// ParseCell reads the "[xy]N" form.
func ParseCell(s string) (Cell, error) {
	if len(s) < 2 || (s[0] != 'x' && s[0] != 'y') {
		return Cell{}, fmt.Errorf("attractor: coefficient %q: expected regex [xy]\\d", s)
	}
	row, err := strconv.Atoi(s[1:])
	if err != nil || row < 0 {
		return Cell{}, fmt.Errorf("attractor: coefficient %q: expected regex [xy]\\d", s)
	}
	axis := 0
	if s[0] == 'y' {
		axis = 1
	}
	return Cell{Row: row, Axis: axis}, nil
}

// Set implements pflag.Value.
func (c *Cell) Set(s string) error {
	v, err := ParseCell(s)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Type implements pflag.Value.
func (c *Cell) Type() string { return "coefficient" }

// Check reports whether c lies inside the table of family f.
func (c Cell) Check(f kernel.Family) error {
	if c.Row < 0 || c.Row >= f.Rows() || c.Axis < 0 || c.Axis > 1 {
		return fmt.Errorf("%w: %s for %s (%d rows)", ErrBadCell, c, f, f.Rows())
	}
	return nil
}

// Get returns the coefficient at cell.
func (c *Config) Get(cell Cell) float64 {
	return c.Coef[cell.Row][cell.Axis]
}

// With returns a copy whose coefficient at cell is moved by offset. The
// classification statistics are carried over unchanged.
func (c Config) With(cell Cell, offset float64) Config {
	c.Coef[cell.Row][cell.Axis] += offset
	return c
}
