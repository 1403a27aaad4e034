package automation

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/ballsim/internal/config"
)

// Scenario is a scripted sequence of runs loaded from YAML.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep starts from a preset (or the defaults) and overrides the
// fields that are set.
type ScenarioStep struct {
	Name     string        `yaml:"name"`
	Preset   string        `yaml:"preset"`
	Bodies   *int          `yaml:"bodies"`
	Frames   int           `yaml:"frames"`
	Seed     int64         `yaml:"seed"`
	MaxSpeed float64       `yaml:"max_speed"`
	Interval time.Duration `yaml:"interval"`
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %s has no steps", path)
	}
	return &scenario, nil
}

// Trial resolves the step against its preset.
func (s ScenarioStep) Trial() (Trial, error) {
	cfg := config.DefaultConfig()
	if s.Preset != "" {
		if cfg = config.GetPreset(s.Preset); cfg == nil {
			return Trial{}, fmt.Errorf("unknown preset: %s", s.Preset)
		}
	}
	if s.Bodies != nil {
		cfg.Bodies = *s.Bodies
	}
	if s.Frames > 0 {
		cfg.Frames = s.Frames
	}
	if s.MaxSpeed > 0 {
		cfg.MaxSpeed = s.MaxSpeed
	}
	if s.Interval > 0 {
		cfg.FrameInterval = s.Interval
	}
	if err := cfg.Validate(); err != nil {
		return Trial{}, err
	}

	seed := s.Seed
	if seed == 0 {
		seed = 1
	}
	name := s.Name
	if name == "" {
		name = s.Preset
	}
	return Trial{Name: name, Config: cfg.Sim(), Bodies: cfg.Bodies, Frames: cfg.Frames, Seed: seed}, nil
}

// RunScenario executes the steps in order and stops at the first failure.
func RunScenario(ctx context.Context, scenario *Scenario, logger *zap.Logger) ([]Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	results := make([]Result, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		trial, err := step.Trial()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		logger.Info("scenario step",
			zap.String("scenario", scenario.Name),
			zap.Int("step", i+1),
			zap.String("name", trial.Name),
			zap.Int("bodies", trial.Bodies),
			zap.Int("frames", trial.Frames),
		)

		res, err := Run(ctx, trial, withLogger(logger))
		results = append(results, res)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}
	}

	return results, nil
}
