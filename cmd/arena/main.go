package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jaxs-ribs/arena-sub001/internal/config"
	"github.com/jaxs-ribs/arena-sub001/internal/logging"
	"github.com/jaxs-ribs/arena-sub001/internal/scene"
)

var (
	dataDir    string
	configFile string
	preset     string
	debug      bool

	dt         float64
	steps      int
	seed       int64
	backend    string
	pipeline   string
	integrator string
	controller string
	kp         float64
	ki         float64
	kd         float64
	target     float64
	count      int
	height     float64

	every     int
	frameRate int
	perFrame  int
	addr      string
	body      int
	outFile   string
	parityN   int
	instances int
	reps      int
	members   int
)

// main registers the arena commands and exits with status 1 on error.
func main() {
	rootCmd := &cobra.Command{
		Use:           "arena",
		Short:         "rigid-body simulation arena",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".arena", "data directory")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run [scene]",
		Short: "run a scene and store its trajectories",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScene,
	}
	addSceneFlags(runCmd)
	runCmd.Flags().IntVar(&every, "every", 1, "record every n-th tick")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a body's height and vertical velocity",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&body, "body", -1, "body index (default: first recorded body)")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run trajectories to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets [scene]",
		Short: "list scenes or the presets of one scene",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	backendsCmd := &cobra.Command{
		Use:   "backends",
		Short: "check every backend's kernels against the cpu reference",
		Args:  cobra.NoArgs,
		RunE:  checkBackends,
	}
	backendsCmd.Flags().IntVar(&parityN, "n", 256, "elements per kernel")

	benchCmd := &cobra.Command{
		Use:   "bench [scene]",
		Short: "benchmark pipelines, ensembles and kernel throughput",
		Args:  cobra.MaximumNArgs(1),
		RunE:  benchScene,
	}
	addSceneFlags(benchCmd)
	benchCmd.Flags().IntVar(&instances, "instances", 4096, "body records expanded for the kernel benchmark")
	benchCmd.Flags().IntVar(&reps, "reps", 100, "kernel dispatches")
	benchCmd.Flags().IntVar(&members, "ensemble", 8, "ensemble members")

	serveCmd := &cobra.Command{
		Use:   "serve [scene]",
		Short: "stream a running scene over websocket",
		Args:  cobra.MaximumNArgs(1),
		RunE:  serveScene,
	}
	addSceneFlags(serveCmd)
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	serveCmd.Flags().IntVar(&frameRate, "fps", 30, "frames per second sent to clients")

	watchCmd := &cobra.Command{
		Use:   "watch [scene]",
		Short: "watch a scene in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  watchScene,
	}
	addSceneFlags(watchCmd)
	watchCmd.Flags().IntVar(&frameRate, "fps", 30, "frame rate")
	watchCmd.Flags().IntVar(&perFrame, "ticks", 2, "ticks per frame")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCSVCmd, presetsCmd, backendsCmd, benchCmd, serveCmd, watchCmd)
	addToolCommands(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addSceneFlags(cmd *cobra.Command) {
	defaults := config.DefaultConfig()
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "scene preset")
	cmd.Flags().Float64Var(&dt, "dt", defaults.Dt, "timestep")
	cmd.Flags().IntVar(&steps, "steps", defaults.Steps, "ticks to simulate")
	cmd.Flags().Int64Var(&seed, "seed", defaults.Seed, "random seed")
	cmd.Flags().StringVar(&backend, "backend", defaults.Backend, "compute backend (auto, cpu, wgpu)")
	cmd.Flags().StringVar(&pipeline, "pipeline", defaults.Pipeline, "step pipeline (direct, kernels)")
	cmd.Flags().StringVar(&integrator, "integrator", defaults.Integrator, "integrator")
	cmd.Flags().StringVar(&controller, "controller", defaults.Controller.Kind, "controller (none, pid, manual)")
	cmd.Flags().Float64Var(&kp, "kp", defaults.Controller.Kp, "pid kp")
	cmd.Flags().Float64Var(&ki, "ki", defaults.Controller.Ki, "pid ki")
	cmd.Flags().Float64Var(&kd, "kd", defaults.Controller.Kd, "pid kd")
	cmd.Flags().Float64Var(&target, "target", defaults.Controller.Target, "pid target height")
	cmd.Flags().IntVar(&count, "count", defaults.Params.Count, "scene body count")
	cmd.Flags().Float64Var(&height, "height", defaults.Params.Height, "scene drop height")
}

// resolveConfig layers defaults, preset, config file and changed flags, in
// that order.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if len(args) > 0 {
		cfg.Scene = args[0]
	}

	if preset != "" {
		p := config.GetPreset(cfg.Scene, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset %q for scene %s (available: %s)",
				preset, cfg.Scene, strings.Join(config.ListPresets(cfg.Scene), ", "))
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		if len(args) > 0 {
			loaded.Scene = args[0]
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("steps") {
		cfg.Steps = steps
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("backend") {
		cfg.Backend = backend
	}
	if flags.Changed("pipeline") {
		cfg.Pipeline = pipeline
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("controller") {
		cfg.Controller.Kind = controller
	}
	if flags.Changed("kp") {
		cfg.Controller.Kp = kp
	}
	if flags.Changed("ki") {
		cfg.Controller.Ki = ki
	}
	if flags.Changed("kd") {
		cfg.Controller.Kd = kd
	}
	if flags.Changed("target") {
		cfg.Controller.Target = target
	}
	if flags.Changed("count") {
		cfg.Params.Count = count
	}
	if flags.Changed("height") {
		cfg.Params.Height = height
	}
	if debug {
		cfg.Debug = true
	}
	return cfg, cfg.Validate()
}

func newLogger(cfg *config.Config) logging.Logger {
	return logging.New("arena", cfg.Debug)
}

// quietLogger keeps log lines off a terminal owned by the TUI.
func quietLogger() logging.Logger {
	return logging.NewWithWriters("arena", false, io.Discard, io.Discard)
}

func listPresets(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		fmt.Println("scenes:")
		for _, name := range scene.Names() {
			fmt.Printf("  %-10s %s\n", name, strings.Join(config.ListPresets(name), ", "))
		}
		return nil
	}
	presets := config.ListPresets(args[0])
	if len(presets) == 0 {
		fmt.Printf("no presets for scene: %s\n", args[0])
		return nil
	}
	fmt.Printf("presets for %s:\n", args[0])
	for _, p := range presets {
		fmt.Printf("  %s\n", p)
	}
	return nil
}
