package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/attractor/internal/kernel"
	"github.com/san-kum/attractor/internal/palette"
	"github.com/san-kum/attractor/internal/render"
)

const (
	DefaultDuration  = 15.0
	DefaultFPS       = 24
	DefaultScanSteps = 1000
	DefaultOut       = "out"
)

// Config is everything a run can be told through a settings file.
type Config struct {
	Family  kernel.Family   `yaml:"type"`
	Colour  palette.Policy  `yaml:"colour"`
	Render  render.Settings `yaml:"render"`
	Search  SearchConfig    `yaml:"search"`
	Video   VideoConfig     `yaml:"video"`
	Threads int             `yaml:"threads"`
	Seed    int64           `yaml:"seed"`
	Out     string          `yaml:"out"`
}

type SearchConfig struct {
	Threshold float64 `yaml:"threshold"`
	Attempts  int     `yaml:"attempts"`
	ScanSteps int     `yaml:"scan_steps"`
}

type VideoConfig struct {
	Duration float64 `yaml:"duration"`
	FPS      int     `yaml:"fps"`
	Lossless bool    `yaml:"lossless"`
}

func DefaultConfig() *Config {
	return &Config{
		Family: kernel.Poly,
		Colour: palette.BW,
		Render: render.DefaultSettings(),
		Search: SearchConfig{ScanSteps: DefaultScanSteps},
		Video: VideoConfig{
			Duration: DefaultDuration,
			FPS:      DefaultFPS,
		},
		Out: DefaultOut,
	}
}

// Frames is the number of video frames the duration and rate call for.
func (c *Config) Frames() int {
	return int(c.Video.Duration * float64(c.Video.FPS))
}

func (c *Config) Validate() error {
	if err := c.Render.Validate(); err != nil {
		return err
	}
	if c.Video.FPS <= 0 || c.Video.Duration <= 0 {
		return fmt.Errorf("config: video needs positive duration and fps, got %gs at %d", c.Video.Duration, c.Video.FPS)
	}
	if c.Search.Attempts < 0 || c.Search.ScanSteps < 0 {
		return fmt.Errorf("config: negative search bound")
	}
	return nil
}

// Load reads a yaml file on top of the defaults.
func Load(path string) (*Config, error) {
	return LoadOver(path, DefaultConfig())
}

// LoadOver reads a yaml file on top of base, which is modified in place.
// Keys missing from the file keep their value in base.
func LoadOver(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, base); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return base, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
