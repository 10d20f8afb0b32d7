package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/jaxs-ribs/arena-sub001/internal/compute"
	"github.com/jaxs-ribs/arena-sub001/internal/config"
	"github.com/jaxs-ribs/arena-sub001/internal/scene"
	"github.com/jaxs-ribs/arena-sub001/internal/sim"
)

func checkBackends(cmd *cobra.Command, args []string) error {
	log := quietLogger()
	if debug {
		log = newLogger(&config.Config{Debug: true})
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()
	for _, name := range []string{"cpu", "wgpu"} {
		b, err := compute.New(name, log)
		if err != nil || !b.Available() {
			fmt.Fprintf(w, "%s\tunavailable\t%v\n", name, err)
			continue
		}
		fmt.Fprintf(w, "%s\n", b.Name())
		fmt.Fprintln(w, "  KERNEL\tMAX DIFF\tSTATUS")
		for _, res := range compute.Parity(b, parityN) {
			switch {
			case res.Skipped:
				fmt.Fprintf(w, "  %s\t-\tcpu fallback\n", res.Kernel)
			case res.Err != nil:
				fmt.Fprintf(w, "  %s\t-\t%v\n", res.Kernel, res.Err)
			default:
				fmt.Fprintf(w, "  %s\t%.3g\tok\n", res.Kernel, res.MaxDiff)
			}
		}
		b.Close()
	}
	return nil
}

func benchScene(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	log := quietLogger()
	ctx := context.Background()

	fmt.Printf("benchmarking %s\n\n", cfg.Scene)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PIPELINE\tBODIES\tSTEPS\tTIME\tSTEPS/SEC")
	for _, p := range []string{"direct", "kernels"} {
		c := cfg.Clone()
		c.Pipeline = p
		exp, err := scene.New(c, log)
		if err != nil {
			return err
		}
		start := time.Now()
		_, err = exp.Sim().RunContext(ctx, c.Dt, c.Steps)
		elapsed := time.Since(start)
		exp.Close()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%v\t%.0f\n",
			p, exp.Sim().BodyCount(), c.Steps, elapsed, float64(c.Steps)/elapsed.Seconds())
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if members > 0 {
		if err := benchEnsemble(ctx, cfg); err != nil {
			return err
		}
	}
	return benchKernels(cfg)
}

func benchEnsemble(ctx context.Context, cfg *config.Config) error {
	var exps []*scene.Experiment
	defer func() {
		for _, e := range exps {
			e.Close()
		}
	}()
	ens, err := sim.NewEnsemble(members, func(i int) (*sim.Simulation, error) {
		c := cfg.Clone()
		c.Seed += int64(i)
		exp, err := scene.New(c, quietLogger())
		if err != nil {
			return nil, err
		}
		exps = append(exps, exp)
		return exp.Sim(), nil
	})
	if err != nil {
		return err
	}

	start := time.Now()
	if _, err := ens.Run(ctx, cfg.Dt, cfg.Steps); err != nil {
		return err
	}
	elapsed := time.Since(start)
	total := ens.Size() * cfg.Steps
	fmt.Printf("\nensemble: %d members x %d steps in %v (%.0f steps/sec)\n",
		ens.Size(), cfg.Steps, elapsed, float64(total)/elapsed.Seconds())
	return nil
}

// benchKernels expands a template body into instances records on the
// backend, then times repeated integrate_bodies dispatches over them.
func benchKernels(cfg *config.Config) error {
	b, err := compute.New(cfg.Backend, quietLogger())
	if err != nil {
		return err
	}
	defer b.Close()

	expand := compute.Fixture(compute.KernelExpandInstances, instances)
	out, err := b.Dispatch(compute.KernelExpandInstances, expand, compute.Workgroups(instances))
	if err != nil {
		return err
	}
	bodies := compute.NewView(out[0], []int{instances, compute.BodyStride}, 4)
	params := compute.Vec4Config(float32(cfg.Gravity[0]), float32(cfg.Gravity[1]), float32(cfg.Gravity[2]), float32(cfg.Dt))

	start := time.Now()
	for i := 0; i < reps; i++ {
		out, err = b.Dispatch(compute.KernelIntegrateBodies, []compute.View{bodies, params}, compute.Workgroups(instances))
		if err != nil {
			return err
		}
		bodies = compute.NewView(out[0], []int{instances, compute.BodyStride}, 4)
	}
	elapsed := time.Since(start)

	fmt.Printf("\nkernels on %s: %d x integrate_bodies over %d records in %v (%.3g records/sec)\n",
		b.Name(), reps, instances, elapsed, float64(reps*instances)/elapsed.Seconds())
	return nil
}
