package main

import (
	"fmt"
	"os"

	yaml "github.com/goccy/go-yaml"
)

// Config mirrors framedemo.yaml.
type Config struct {
	Width         int    `yaml:"width"`          // 320 (by default)
	Height        int    `yaml:"height"`         // 240 (by default)
	Frames        int    `yaml:"frames"`         // 120 (by default)
	FPS           int    `yaml:"fps"`            // 60 (by default)
	Layers        int    `yaml:"layers"`         // 3 (by default)
	TextureBudget int    `yaml:"texture_budget"` // bytes; 0 = unlimited
	SkipUnchanged bool   `yaml:"skip_unchanged"`
	LockOSThread  bool   `yaml:"lock_os_thread"`
	LoseSurfaceAt int    `yaml:"lose_surface_at"` // frame index; 0 = never
	Output        string `yaml:"output"`          // PNG of the last frame; empty = none
	Language      string `yaml:"language"`        // BCP 47 tag for the report
}

func defaultConfig() Config {
	return Config{
		Width:    320,
		Height:   240,
		Frames:   120,
		FPS:      60,
		Layers:   3,
		Language: "en",
	}
}

// Load reads YAML and overrides defaults; empty path = defaults only.
func Load(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("framedemo: read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("framedemo: parse %s: %w", path, err)
	}
	cfg.clamp()
	return cfg, nil
}

// clamp replaces nonsensical values with defaults.
func (c *Config) clamp() {
	def := defaultConfig()
	if c.Width <= 0 {
		c.Width = def.Width
	}
	if c.Height <= 0 {
		c.Height = def.Height
	}
	if c.Frames <= 0 {
		c.Frames = def.Frames
	}
	if c.FPS <= 0 || c.FPS > 1000 {
		c.FPS = def.FPS
	}
	if c.Layers < 0 {
		c.Layers = 0
	}
	if c.LoseSurfaceAt < 0 {
		c.LoseSurfaceAt = 0
	}
	if c.Language == "" {
		c.Language = def.Language
	}
}
