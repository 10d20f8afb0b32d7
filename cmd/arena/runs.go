package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/jaxs-ribs/arena-sub001/internal/scene"
	"github.com/jaxs-ribs/arena-sub001/internal/storage"
)

func runScene(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	exp, err := scene.New(cfg, log)
	if err != nil {
		return err
	}
	defer exp.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("running %s for %d ticks...\n", cfg.Scene, cfg.Steps)
	start := time.Now()
	result, err := exp.Run(ctx, every)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	s := exp.Sim()
	runID, err := st.Save(storage.RunMetadata{
		Scene:      cfg.Scene,
		Preset:     preset,
		Seed:       cfg.Seed,
		Dt:         cfg.Dt,
		Steps:      cfg.Steps,
		Integrator: cfg.Integrator,
		Backend:    s.Backend().Name(),
		Pipeline:   s.Params().Pipeline.String(),
		Controller: exp.Controller().Name(),
		Bodies:     s.BodyCount(),
	}, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("samples: %d\n", len(result.Samples))
	fmt.Println("\nmetrics:")
	names := make([]string, 0, len(result.Metrics))
	for name := range result.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, result.Metrics[name])
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENE\tTIME\tSTEPS\tDT\tBACKEND\tPIPELINE\tCTRL")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.4fs\t%s\t%s\t%s\n",
			run.ID,
			run.Scene,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Steps,
			run.Dt,
			run.Backend,
			run.Pipeline,
			run.Controller,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no data to plot")
	}

	idx := body
	if idx < 0 {
		idx = samples[0].Body
	}
	var ys, vys []float64
	for _, smp := range samples {
		if smp.Body != idx {
			continue
		}
		ys = append(ys, smp.Position.Y())
		vys = append(vys, smp.Velocity.Y())
	}
	if len(ys) == 0 {
		return fmt.Errorf("no samples for body %d", idx)
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scene: %s\n", meta.Scene)
	fmt.Printf("body: %d (%d samples)\n\n", idx, len(ys))
	for _, series := range []struct {
		data    []float64
		caption string
	}{
		{ys, "height"},
		{vys, "vertical velocity"},
	} {
		fmt.Println(asciigraph.Plot(series.data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(series.caption),
		))
		fmt.Println()
	}
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	samples, err := storage.New(dataDir).LoadSamples(args[0])
	if err != nil {
		return err
	}
	out, done, err := output()
	if err != nil {
		return err
	}
	defer done()
	return storage.WriteCSV(out, samples)
}
