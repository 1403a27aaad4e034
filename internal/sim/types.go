package sim

import (
	"fmt"
	"math"
	"time"

	"github.com/san-kum/ballsim/internal/dynamo"
	"github.com/san-kum/ballsim/internal/physics"
)

const (
	DefaultWidth         = 792.0
	DefaultHeight        = 592.0
	DefaultMinDiameter   = 10
	DefaultMaxDiameter   = 50
	DefaultDensity       = 10.0
	DefaultMaxSpeed      = 3.0
	DefaultFrameInterval = 16 * time.Millisecond
	DefaultMaxBodies     = 1024
)

// CreatedFunc is called once per body, in creation order, from Start.
type CreatedFunc func(position dynamo.Vector, body *physics.Body, diameter float64)

// Frame is a consistent snapshot taken after every body moved in a frame and
// before any body starts computing the next one.
type Frame struct {
	Number uint64
	Bodies []physics.State
}

type FrameObserver interface {
	OnFrame(f Frame)
}

// FrameObserverFunc adapts a function to [FrameObserver].
type FrameObserverFunc func(f Frame)

func (fn FrameObserverFunc) OnFrame(f Frame) { fn(f) }

type Config struct {
	Arena         physics.Arena
	MinDiameter   int
	MaxDiameter   int
	Density       float64
	MaxSpeed      float64
	FrameInterval time.Duration
	Epsilon       float64
	MaxBodies     int
}

func DefaultConfig() Config {
	return Config{
		Arena:         physics.Arena{Width: DefaultWidth, Height: DefaultHeight},
		MinDiameter:   DefaultMinDiameter,
		MaxDiameter:   DefaultMaxDiameter,
		Density:       DefaultDensity,
		MaxSpeed:      DefaultMaxSpeed,
		FrameInterval: DefaultFrameInterval,
		Epsilon:       physics.DefaultEpsilon,
		MaxBodies:     DefaultMaxBodies,
	}
}

func (c Config) Validate() error {
	if c.Arena.Width <= 0 || c.Arena.Height <= 0 {
		return fmt.Errorf("%w: arena must be positive, got %.1fx%.1f", dynamo.ErrInvalidArgument, c.Arena.Width, c.Arena.Height)
	}
	if c.MinDiameter <= 0 || c.MaxDiameter < c.MinDiameter {
		return fmt.Errorf("%w: diameter range [%d, %d] is empty", dynamo.ErrInvalidArgument, c.MinDiameter, c.MaxDiameter)
	}
	if float64(c.MaxDiameter) > math.Min(c.Arena.Width, c.Arena.Height) {
		return fmt.Errorf("%w: diameter %d does not fit the arena", dynamo.ErrInvalidArgument, c.MaxDiameter)
	}
	if c.Density <= 0 {
		return fmt.Errorf("%w: density must be positive, got %f", dynamo.ErrInvalidArgument, c.Density)
	}
	if c.MaxSpeed <= 0 {
		return fmt.Errorf("%w: max speed must be positive, got %f", dynamo.ErrInvalidArgument, c.MaxSpeed)
	}
	if c.FrameInterval < 0 || c.Epsilon < 0 {
		return fmt.Errorf("%w: frame interval and epsilon must not be negative", dynamo.ErrInvalidArgument)
	}
	if c.MaxBodies <= 0 {
		return fmt.Errorf("%w: max bodies must be positive, got %d", dynamo.ErrInvalidArgument, c.MaxBodies)
	}
	return nil
}
