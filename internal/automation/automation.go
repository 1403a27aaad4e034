package automation

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/san-kum/ballsim/internal/dynamo"
	"github.com/san-kum/ballsim/internal/metrics"
	"github.com/san-kum/ballsim/internal/physics"
	"github.com/san-kum/ballsim/internal/sim"
)

// Trial is one headless engine run.
type Trial struct {
	Name   string
	Config sim.Config
	Bodies int
	Frames int
	Seed   int64
}

type Result struct {
	Trial      Trial
	Frames     uint64
	Collisions uint64
	Elapsed    time.Duration
	Metrics    map[string]float64
	Stable     bool // every body stayed inside the arena on every frame
}

// FramesPerSecond is the achieved frame rate of the run.
func (r Result) FramesPerSecond() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Frames) / r.Elapsed.Seconds()
}

// FrameLimit returns an observer that closes done once n frames completed.
func FrameLimit(n uint64) (sim.FrameObserver, <-chan struct{}) {
	done := make(chan struct{})
	var once sync.Once
	return sim.FrameObserverFunc(func(f sim.Frame) {
		if f.Number >= n {
			once.Do(func() { close(done) })
		}
	}), done
}

// Run starts an engine for t, waits for t.Frames frames and disposes it.
// A worker fault is returned as the error together with the partial result.
func Run(ctx context.Context, t Trial, opts ...sim.Option) (Result, error) {
	rec := metrics.NewRecorder(0, metrics.Default(t.Config)...)
	limit, done := FrameLimit(uint64(t.Frames))

	opts = append([]sim.Option{sim.WithRand(rand.New(rand.NewSource(t.Seed)))}, opts...)
	engine := sim.New(t.Config, opts...)
	engine.AddObserver(rec)
	engine.AddObserver(limit)

	start := time.Now()
	if err := engine.Start(t.Bodies, func(dynamo.Vector, *physics.Body, float64) {}); err != nil {
		return Result{Trial: t}, err
	}

	if t.Bodies > 0 && t.Frames > 0 {
		select {
		case <-done:
		case <-engine.Done():
		case <-ctx.Done():
		}
	}

	err := engine.Dispose()
	res := Result{
		Trial:      t,
		Frames:     engine.Frame(),
		Collisions: engine.Collisions(),
		Elapsed:    time.Since(start),
		Metrics:    rec.Values(),
	}
	if err != nil {
		return res, err
	}

	res.Stable = res.Frames == 0 || res.Metrics["containment"] == 1
	return res, ctx.Err()
}
