package render

import (
	"fmt"

	"github.com/san-kum/attractor/internal/attractor"
)

// Settings describes one rendered frame.
type Settings struct {
	Width     int     `yaml:"width"`
	Height    int     `yaml:"height"`
	Quality   int     `yaml:"quality"`
	Border    float64 `yaml:"border"`
	Intensity float64 `yaml:"intensity"`
	Downscale int     `yaml:"downscale"`
	Light     bool    `yaml:"light"`
	Stretch   bool    `yaml:"stretch"`
	Cutoff    int     `yaml:"cutoff"`
}

func DefaultSettings() Settings {
	return Settings{
		Width:     1280,
		Height:    720,
		Quality:   25,
		Border:    0.05,
		Intensity: 50,
		Downscale: 1,
		Cutoff:    attractor.DefaultCutoff,
	}
}

// Validate reports the first unusable value.
func (s Settings) Validate() error {
	switch {
	case s.Width <= 0 || s.Height <= 0:
		return fmt.Errorf("%w: %dx%d", ErrBadSize, s.Width, s.Height)
	case s.Quality <= 0:
		return fmt.Errorf("%w: quality %d", ErrBadSize, s.Quality)
	case s.Downscale < 1:
		return fmt.Errorf("%w: downscale %d", ErrBadSize, s.Downscale)
	case s.Border < 0 || s.Border >= 1:
		return fmt.Errorf("%w: border %g not in [0, 1)", ErrBadSize, s.Border)
	case s.Intensity <= 0:
		return fmt.Errorf("%w: intensity %g", ErrBadSize, s.Intensity)
	}
	return nil
}

// Internal returns the supersampled resolution the field is accumulated at.
func (s Settings) Internal() (w, h int) {
	d := s.Downscale
	if d < 1 {
		d = 1
	}
	return s.Width * d, s.Height * d
}

// Iterations is the total iteration budget, warm-up included.
func (s Settings) Iterations() int64 {
	w, h := s.Internal()
	return int64(w) * int64(h) * int64(s.Quality)
}

func (s Settings) cutoff() int {
	if s.Cutoff <= 0 {
		return attractor.DefaultCutoff
	}
	return s.Cutoff
}

func (s Settings) String() string {
	return fmt.Sprintf("%dx%d q%d border %.2f intensity %g downscale %d", s.Width, s.Height, s.Quality, s.Border, s.Intensity, s.Downscale)
}
