package main

import (
	"fmt"
	"math/rand"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/ballsim/internal/automation"
	"github.com/san-kum/ballsim/internal/config"
	"github.com/san-kum/ballsim/internal/dynamo"
	"github.com/san-kum/ballsim/internal/logging"
	"github.com/san-kum/ballsim/internal/metrics"
	"github.com/san-kum/ballsim/internal/monitor"
	"github.com/san-kum/ballsim/internal/physics"
	"github.com/san-kum/ballsim/internal/sim"
	"github.com/san-kum/ballsim/internal/storage"
)

const historyCapacity = 600

func parseInterval(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid interval %q: %w", s, err)
	}
	return d, nil
}

func resolveSeed(cfg *config.Config) int64 {
	if cfg.Seed != 0 {
		return cfg.Seed
	}
	return time.Now().UnixNano()
}

func logCreated(logger *zap.Logger) sim.CreatedFunc {
	return func(pos dynamo.Vector, b *physics.Body, d float64) {
		logger.Debug("body created",
			zap.Int("body", b.ID()),
			zap.Stringer("position", pos),
			zap.Stringer("velocity", b.Velocity()),
			zap.Float64("diameter", d),
			zap.Float64("mass", b.Mass()),
		)
	}
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer logger.Sync()

	st := storage.New(cfg.DataDir)
	if err := st.Init(); err != nil {
		return err
	}

	runID := storage.NewRunID()
	sink, err := st.Create(runID)
	if err != nil {
		return err
	}

	simCfg := cfg.Sim()
	runSeed := resolveSeed(cfg)
	logger = logger.With(zap.String("run", runID))

	rec := metrics.NewRecorder(historyCapacity, metrics.Default(simCfg)...)
	engine := sim.New(simCfg,
		sim.WithSink(sink),
		sim.WithLogger(logger),
		sim.WithRand(rand.New(rand.NewSource(runSeed))),
	)
	engine.AddObserver(rec)
	limit, done := automation.FrameLimit(uint64(cfg.Frames))
	engine.AddObserver(limit)

	ctx := cmd.Context()
	fmt.Printf("running %d bodies for %d frames...\n", cfg.Bodies, cfg.Frames)
	start := time.Now()
	if err := engine.Start(cfg.Bodies, logCreated(logger)); err != nil {
		sink.Close()
		return err
	}

	if cfg.Bodies > 0 && cfg.Frames > 0 {
		select {
		case <-done:
		case <-engine.Done():
		case <-ctx.Done():
			logger.Warn("interrupted", zap.Uint64("frames", engine.Frame()))
		}
	}

	runErr := engine.Dispose()
	elapsed := time.Since(start)
	if err := sink.Close(); err != nil {
		logger.Error("closing diagnostics log", zap.Error(err))
	}

	meta := storage.RunMetadata{
		ID:            runID,
		Preset:        preset,
		Timestamp:     start,
		Seed:          runSeed,
		Bodies:        cfg.Bodies,
		Width:         simCfg.Arena.Width,
		Height:        simCfg.Arena.Height,
		FrameInterval: simCfg.FrameInterval,
		Frames:        engine.Frame(),
		Collisions:    engine.Collisions(),
		Elapsed:       elapsed,
	}
	if err := st.SaveMetadata(meta); err != nil {
		return err
	}
	if runErr != nil {
		return fmt.Errorf("run %s: %w", runID, runErr)
	}

	fmt.Printf("completed in %v\n", elapsed.Round(time.Millisecond))
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("seed: %d\n", runSeed)
	fmt.Printf("frames: %d\n", meta.Frames)
	fmt.Printf("collisions: %d\n", meta.Collisions)
	fmt.Printf("lines written: %d\n", sink.Written())

	last := rec.Last()
	p := metrics.Momentum(last.Bodies)
	fmt.Printf("kinetic energy: %.4f\n", metrics.KineticEnergy(last.Bodies))
	fmt.Printf("momentum: (%.4f, %.4f)\n", p.X, p.Y)

	fmt.Println("\nmetrics:")
	values := rec.Values()
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, values[name])
	}

	if hist := rec.History(); len(hist) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(hist,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("kinetic energy per frame"),
		))
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// The monitor owns the terminal, so only errors reach stderr.
	if !cmd.Flags().Changed("log-level") {
		cfg.Log.Level = "error"
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer logger.Sync()

	simCfg := cfg.Sim()
	rec := metrics.NewRecorder(historyCapacity, metrics.Default(simCfg)...)
	engine := sim.New(simCfg,
		sim.WithLogger(logger),
		sim.WithRand(rand.New(rand.NewSource(resolveSeed(cfg)))),
	)
	engine.AddObserver(rec)

	if err := engine.Start(cfg.Bodies, logCreated(logger)); err != nil {
		return err
	}

	refresh := monitor.DefaultRefresh
	if refreshRate > 0 {
		refresh = time.Second / time.Duration(refreshRate)
	}
	p := tea.NewProgram(monitor.NewModel(engine, rec, refresh), tea.WithAltScreen())
	_, uiErr := p.Run()

	if err := engine.Dispose(); err != nil {
		return err
	}
	return uiErr
}

func benchEngine(cmd *cobra.Command, args []string) error {
	cfg := sim.DefaultConfig()
	cfg.FrameInterval = 0
	base := automation.Trial{Name: "bench", Config: cfg, Frames: benchFrames, Seed: benchSeed}

	fmt.Printf("benchmarking %d frames per run\n\n", benchFrames)
	results, err := automation.RunSweep(cmd.Context(), base, []int{1, 10, 50, 100, 250}, nil)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BODIES\tFRAMES\tTIME\tFRAMES/SEC\tCOLLISIONS")
	for _, r := range results {
		fmt.Fprintf(w, "%d\t%d\t%v\t%.0f\t%d\n",
			r.Trial.Bodies, r.Frames, r.Elapsed.Round(time.Microsecond), r.FramesPerSecond(), r.Collisions)
	}
	return w.Flush()
}

func runScenario(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	logger, err := logging.New(logLevel, logFormat)
	if err != nil {
		return err
	}
	defer logger.Sync()

	fmt.Printf("scenario: %s\n", scenario.Name)
	if scenario.Description != "" {
		fmt.Printf("%s\n", scenario.Description)
	}
	fmt.Println()

	results, runErr := automation.RunScenario(cmd.Context(), scenario, logger)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tBODIES\tFRAMES\tCOLLISIONS\tFRAMES/SEC\tDRIFT\tSTABLE")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%.0f\t%.2e\t%v\n",
			r.Trial.Name, r.Trial.Bodies, r.Frames, r.Collisions, r.FramesPerSecond(), r.Metrics["energy_drift"], r.Stable)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return runErr
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer logger.Sync()

	simCfg := cfg.Sim()
	simCfg.FrameInterval = 0
	mc := automation.MonteCarloConfig{
		Base:     automation.Trial{Name: "montecarlo", Config: simCfg, Bodies: cfg.Bodies, Frames: cfg.Frames, Seed: resolveSeed(cfg)},
		Trials:   trials,
		Parallel: parallel,
	}

	fmt.Printf("running %d trials of %d bodies for %d frames...\n", mc.Trials, mc.Base.Bodies, mc.Base.Frames)
	results, err := automation.RunMonteCarlo(cmd.Context(), mc, logger)
	if err != nil {
		return err
	}

	stable, unstable := automation.MonteCarloStats(results)
	worst := 0.0
	for _, r := range results {
		worst = max(worst, r.Metrics["max_penetration"])
	}
	fmt.Printf("stable: %d\n", stable)
	fmt.Printf("unstable: %d\n", unstable)
	fmt.Printf("worst penetration: %.4f\n", worst)
	return nil
}
