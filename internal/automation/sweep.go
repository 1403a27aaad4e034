package automation

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/ballsim/internal/sim"
)

func withLogger(logger *zap.Logger) sim.Option {
	if logger == nil {
		logger = zap.NewNop()
	}
	return sim.WithLogger(logger)
}

// RunSweep repeats base once per body count, one run at a time so that
// timings are not skewed by concurrent engines.
func RunSweep(ctx context.Context, base Trial, counts []int, logger *zap.Logger) ([]Result, error) {
	results := make([]Result, 0, len(counts))

	for _, n := range counts {
		t := base
		t.Bodies = n
		res, err := Run(ctx, t, withLogger(logger))
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}

	return results, nil
}

type MonteCarloConfig struct {
	Base     Trial
	Trials   int
	Parallel int // concurrent engines; values below 1 mean one
}

// RunMonteCarlo runs the base trial with seeds Base.Seed, Base.Seed+1, ...
// Results are indexed by trial. A worker fault in any trial cancels the rest.
func RunMonteCarlo(ctx context.Context, cfg MonteCarloConfig, logger *zap.Logger) ([]Result, error) {
	results := make([]Result, cfg.Trials)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Parallel, 1))

	for i := 0; i < cfg.Trials; i++ {
		i := i
		t := cfg.Base
		t.Seed = cfg.Base.Seed + int64(i)
		g.Go(func() error {
			res, err := Run(ctx, t, withLogger(logger))
			results[i] = res
			return err
		})
	}

	return results, g.Wait()
}

// MonteCarloStats counts stable and unstable trials.
func MonteCarloStats(results []Result) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}
