package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/ballsim/internal/physics"
	"github.com/san-kum/ballsim/internal/sim"
)

const (
	DefaultBodies    = 20
	DefaultFrames    = 600
	DefaultDataDir   = ".ballsim"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"
)

type Config struct {
	Bodies        int            `yaml:"bodies"`
	Frames        int            `yaml:"frames"`
	Seed          int64          `yaml:"seed"`
	Arena         ArenaConfig    `yaml:"arena"`
	Diameter      DiameterConfig `yaml:"diameter"`
	Density       float64        `yaml:"density"`
	MaxSpeed      float64        `yaml:"max_speed"`
	FrameInterval time.Duration  `yaml:"frame_interval"`
	Epsilon       float64        `yaml:"epsilon"`
	DataDir       string         `yaml:"data_dir"`
	Log           LogConfig      `yaml:"log"`
}

type ArenaConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

type DiameterConfig struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func DefaultConfig() *Config {
	return &Config{
		Bodies: DefaultBodies,
		Frames: DefaultFrames,
		Arena: ArenaConfig{
			Width:  sim.DefaultWidth,
			Height: sim.DefaultHeight,
		},
		Diameter: DiameterConfig{
			Min: sim.DefaultMinDiameter,
			Max: sim.DefaultMaxDiameter,
		},
		Density:       sim.DefaultDensity,
		MaxSpeed:      sim.DefaultMaxSpeed,
		FrameInterval: sim.DefaultFrameInterval,
		Epsilon:       physics.DefaultEpsilon,
		DataDir:       DefaultDataDir,
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// Load reads a YAML file over the defaults. Keys missing from the file keep
// their default value.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Sim converts the file configuration into engine parameters.
func (c *Config) Sim() sim.Config {
	cfg := sim.DefaultConfig()
	cfg.Arena = physics.Arena{Width: c.Arena.Width, Height: c.Arena.Height}
	cfg.MinDiameter = c.Diameter.Min
	cfg.MaxDiameter = c.Diameter.Max
	cfg.Density = c.Density
	cfg.MaxSpeed = c.MaxSpeed
	cfg.FrameInterval = c.FrameInterval
	cfg.Epsilon = c.Epsilon
	return cfg
}

func (c *Config) Validate() error {
	if c.Bodies < 0 {
		return fmt.Errorf("bodies must not be negative, got %d", c.Bodies)
	}
	if c.Frames < 0 {
		return fmt.Errorf("frames must not be negative, got %d", c.Frames)
	}
	return c.Sim().Validate()
}
