package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jaxs-ribs/arena-sub001/internal/analysis"
	"github.com/jaxs-ribs/arena-sub001/internal/automation"
	"github.com/jaxs-ribs/arena-sub001/internal/config"
	"github.com/jaxs-ribs/arena-sub001/internal/export"
	"github.com/jaxs-ribs/arena-sub001/internal/optim"
	"github.com/jaxs-ribs/arena-sub001/internal/storage"
)

var (
	axes        []string
	svgSize     []int
	tuneParams  []string
	tuneMetric  string
	sweepParam  string
	sweepMin    float64
	sweepMax    float64
	sweepPoints int
	saveRuns    bool
)

func addToolCommands(root *cobra.Command) {
	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "dominant oscillation frequency of a body",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().IntVar(&body, "body", -1, "body index (default: first recorded body)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "draw a run's trajectories as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")
	exportSVGCmd.Flags().StringSliceVar(&axes, "axes", []string{"x", "y"}, "horizontal and vertical axis")
	exportSVGCmd.Flags().IntSliceVar(&svgSize, "size", []int{800, 600}, "width and height")

	tuneCmd := &cobra.Command{
		Use:   "tune [scene]",
		Short: "grid search settings minimizing a metric",
		Args:  cobra.MaximumNArgs(1),
		RunE:  tuneScene,
	}
	addSceneFlags(tuneCmd)
	tuneCmd.Flags().StringArrayVar(&tuneParams, "param", nil, "name=v1,v2,... (repeatable)")
	tuneCmd.Flags().StringVar(&tuneMetric, "metric", "max_penetration", "metric to minimize")

	sweepCmd := &cobra.Command{
		Use:   "sweep [scene]",
		Short: "run a scene across evenly spaced values of one setting",
		Args:  cobra.MaximumNArgs(1),
		RunE:  sweepScene,
	}
	addSceneFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "height", "setting to vary")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 1, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 10, "last value")
	sweepCmd.Flags().IntVar(&sweepPoints, "n", 5, "number of values")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a yaml scenario of scenes",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	scenarioCmd.Flags().BoolVar(&saveRuns, "save", true, "store steps marked save")

	root.AddCommand(analyzeCmd, exportJSONCmd, exportSVGCmd, tuneCmd, sweepCmd, scenarioCmd)
}

// output returns stdout or the --out file.
func output() (*os.File, func(), error) {
	if outFile == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(outFile)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(args[0])
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no data to analyze")
	}
	idx := body
	if idx < 0 {
		idx = samples[0].Body
	}

	var times []float64
	var series [3][]float64
	for _, smp := range samples {
		if smp.Body != idx {
			continue
		}
		times = append(times, smp.Time)
		for a := 0; a < 3; a++ {
			series[a] = append(series[a], smp.Position[a])
		}
	}
	if len(times) < 4 {
		return fmt.Errorf("body %d has %d samples, need at least 4", idx, len(times))
	}
	sampleDt := (times[len(times)-1] - times[0]) / float64(len(times)-1)

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("scene: %s, body %d, %d samples every %.4fs\n\n", meta.Scene, idx, len(times), sampleDt)
	for a, name := range []string{"x", "y", "z"} {
		freq := analysis.DominantFrequency(series[a], sampleDt)
		if freq == 0 {
			fmt.Printf("%s: no oscillation\n", name)
			continue
		}
		fmt.Printf("%s: dominant frequency %.3f hz, period %.3f s\n", name, freq, 1/freq)
	}
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	out, done, err := output()
	if err != nil {
		return err
	}
	defer done()
	return storage.New(dataDir).ExportJSON(out, args[0])
}

func exportSVG(cmd *cobra.Command, args []string) error {
	if len(axes) != 2 || len(svgSize) != 2 {
		return fmt.Errorf("--axes and --size take two values each")
	}
	h, err := export.ParseAxis(axes[0])
	if err != nil {
		return err
	}
	v, err := export.ParseAxis(axes[1])
	if err != nil {
		return err
	}
	samples, err := storage.New(dataDir).LoadSamples(args[0])
	if err != nil {
		return err
	}

	out, done, err := output()
	if err != nil {
		return err
	}
	defer done()
	return export.TrajectorySVG(out, samples, h, v, svgSize[0], svgSize[1])
}

// parseParam reads "name=v1,v2,...".
func parseParam(s string) (string, []float64, error) {
	name, list, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return "", nil, fmt.Errorf("parameter %q: want name=v1,v2", s)
	}
	var vals []float64
	for _, f := range strings.Split(list, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return "", nil, fmt.Errorf("parameter %s: %w", name, err)
		}
		vals = append(vals, v)
	}
	return name, vals, nil
}

func tuneScene(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	if len(tuneParams) == 0 {
		return fmt.Errorf("at least one --param is required (known: %s)", strings.Join(config.ParamNames(), ", "))
	}
	var names []string
	var ranges [][]float64
	for _, p := range tuneParams {
		name, vals, err := parseParam(p)
		if err != nil {
			return err
		}
		names = append(names, name)
		ranges = append(ranges, vals)
	}

	g, err := optim.NewGridSearch(names, ranges, quietLogger())
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	best, trials, err := g.Search(ctx, cfg, tuneMetric)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", strings.ToUpper(strings.Join(names, "\t")), strings.ToUpper(tuneMetric))
	for _, tr := range trials {
		for _, n := range names {
			fmt.Fprintf(w, "%g\t", tr.Params[n])
		}
		if tr.Err != nil {
			fmt.Fprintf(w, "error: %v\n", tr.Err)
		} else {
			fmt.Fprintf(w, "%.6g\n", tr.Value)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	keys := make([]string, 0, len(best.Params))
	for k := range best.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%g", k, best.Params[k])
	}
	fmt.Printf("\nbest: %s (%s = %.6g)\n", strings.Join(parts, " "), tuneMetric, best.Value)
	return nil
}

func sweepScene(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, err := automation.RunSweep(ctx, &automation.ParameterSweep{
		Base:  cfg,
		Param: sweepParam,
		Min:   sweepMin,
		Max:   sweepMax,
		Count: sweepPoints,
	}, quietLogger())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tFINAL Y\tFINAL VY\tKINETIC\tMAX DEPTH\n", strings.ToUpper(sweepParam))
	for _, r := range results {
		fmt.Fprintf(w, "%g\t%.4f\t%.4f\t%.4g\t%.4g\n",
			r.ParamValue, r.Final.Position.Y(), r.Final.Velocity.Y(),
			r.Metrics["kinetic_energy"], r.Metrics["max_penetration"])
	}
	return w.Flush()
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("scenario %s: %s\n", sc.Name, sc.Description)

	var st *storage.Store
	if saveRuns {
		st = storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, err := automation.RunScenario(ctx, sc, st, newLogger(&config.Config{Debug: debug}))
	for _, r := range results {
		id := r.RunID
		if id == "" {
			id = "-"
		}
		fmt.Printf("  step %d.%d %-10s %s\n", r.Step+1, r.Repeat+1, r.Scene, id)
	}
	return err
}
