package config

import (
	"sort"
	"time"
)

var Presets = map[string]*Config{
	"calm": preset(func(c *Config) {
		c.Bodies = 8
		c.MaxSpeed = 1.5
	}),
	"crowded": preset(func(c *Config) {
		c.Bodies = 120
		c.Diameter = DiameterConfig{Min: 8, Max: 24}
	}),
	"giants": preset(func(c *Config) {
		c.Bodies = 12
		c.Diameter = DiameterConfig{Min: 60, Max: 110}
		c.MaxSpeed = 2
	}),
	"billiards": preset(func(c *Config) {
		c.Bodies = 16
		c.Diameter = DiameterConfig{Min: 30, Max: 30}
		c.MaxSpeed = 6
	}),
	"frantic": preset(func(c *Config) {
		c.Bodies = 40
		c.MaxSpeed = 9
		c.FrameInterval = 8 * time.Millisecond
	}),
}

func preset(apply func(*Config)) *Config {
	cfg := DefaultConfig()
	apply(cfg)
	return cfg
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	out := *cfg
	return &out
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
