package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/ballsim/internal/analysis"
	"github.com/san-kum/ballsim/internal/diagnostics"
	"github.com/san-kum/ballsim/internal/storage"
)

// openStore resolves the data directory the same way run does.
func openStore(cmd *cobra.Command) (*storage.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return storage.New(cfg.DataDir), nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tBODIES\tFRAMES\tCOLLISIONS\tELAPSED")

	for _, run := range runs {
		name := run.Preset
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%v\n",
			run.ID,
			name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Bodies,
			run.Frames,
			run.Collisions,
			run.Elapsed.Round(time.Millisecond),
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	records, err := st.LoadRecords(runID)
	if err != nil {
		return err
	}
	grouped := diagnostics.Frames(records)
	if len(grouped) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("bodies: %d\n", meta.Bodies)
	fmt.Printf("frames: %d\n\n", len(grouped))

	mean := make([]float64, len(grouped))
	var body []float64
	for i, frame := range grouped {
		sum := 0.0
		for _, r := range frame {
			speed := r.Velocity.Len()
			sum += speed
			if r.ID == bodyID {
				body = append(body, speed)
			}
		}
		mean[i] = sum / float64(len(frame))
	}

	fmt.Println(asciigraph.Plot(mean,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("mean speed per frame"),
	))
	fmt.Println()

	if len(body) < 2 {
		return fmt.Errorf("body %d has no samples in run %s", bodyID, runID)
	}
	fmt.Println(asciigraph.Plot(body,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("speed of body %d", bodyID)),
	))
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	records, err := st.LoadRecords(runID)
	if err != nil {
		return err
	}

	xs := analysis.Series(records, bodyID, analysis.PositionX)
	if len(xs) < 4 {
		return fmt.Errorf("not enough samples for body %d", bodyID)
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("body: %d\n\n", bodyID)

	ps := analysis.PowerSpectrum(xs)
	fmt.Println(asciigraph.Plot(ps[:max(len(ps)/4, 2)],
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption("power spectrum (x position)"),
	))
	fmt.Println()

	fmt.Printf("bounces and impacts on x: %d\n", analysis.WallHits(xs))
	if period, ok := analysis.DominantPeriod(xs); ok {
		fmt.Printf("dominant period: %.1f frames\n", period)
		if meta.FrameInterval > 0 {
			fmt.Printf("period: %v\n", time.Duration(period*float64(meta.FrameInterval)).Round(time.Millisecond))
		}
	} else {
		fmt.Println("no dominant period")
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	return st.ExportJSON(os.Stdout, args[0])
}
