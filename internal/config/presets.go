package config

import (
	"sort"

	"github.com/san-kum/attractor/internal/palette"
)

// Presets are named starting points; flags still override them.
var Presets = map[string]*Config{
	"draft": preset(func(c *Config) {
		c.Render.Width, c.Render.Height, c.Render.Quality = 640, 360, 5
	}),
	"hd": preset(func(c *Config) {
		c.Render.Width, c.Render.Height = 1920, 1080
	}),
	"4k": preset(func(c *Config) {
		c.Render.Width, c.Render.Height = 3840, 2160
	}),
	"smooth": preset(func(c *Config) {
		c.Render.Downscale = 2
		c.Render.Quality = 10
	}),
	"square": preset(func(c *Config) {
		c.Render.Width, c.Render.Height = 1080, 1080
	}),
	"print": preset(func(c *Config) {
		c.Render.Width, c.Render.Height, c.Render.Quality = 2480, 3508, 40
		c.Render.Light = true
	}),
	"loop": preset(func(c *Config) {
		c.Render.Quality = 10
		c.Colour = palette.HSV
		c.Video.Duration, c.Video.FPS = 10, 30
	}),
}

func preset(apply func(*Config)) *Config {
	c := DefaultConfig()
	apply(c)
	return c
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	c := *p
	return &c
}

// ListPresets returns the preset names in order.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
