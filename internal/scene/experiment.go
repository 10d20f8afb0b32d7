package scene

import (
	"context"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/jaxs-ribs/arena-sub001/internal/compute"
	"github.com/jaxs-ribs/arena-sub001/internal/config"
	"github.com/jaxs-ribs/arena-sub001/internal/control"
	"github.com/jaxs-ribs/arena-sub001/internal/integrators"
	"github.com/jaxs-ribs/arena-sub001/internal/logging"
	"github.com/jaxs-ribs/arena-sub001/internal/metrics"
	"github.com/jaxs-ribs/arena-sub001/internal/physics"
	"github.com/jaxs-ribs/arena-sub001/internal/sim"
)

// Experiment is a configured simulation with its controller, metrics and
// recorder.
type Experiment struct {
	cfg        *config.Config
	simulator  *sim.Simulation
	backend    compute.Backend
	controller control.Controller
	recorder   *sim.Recorder
}

// New resolves every name in cfg, builds the scene and attaches the
// default metrics. Extra options are applied after the config's.
func New(cfg *config.Config, log logging.Logger, extra ...sim.Option) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log = logging.OrNop(log)

	integ, err := integrators.New(cfg.Integrator)
	if err != nil {
		return nil, err
	}
	pipeline, err := sim.ParsePipeline(cfg.Pipeline)
	if err != nil {
		return nil, err
	}
	ctrl, err := control.New(cfg.Controller.Kind, cfg.Controller.Body,
		cfg.Controller.Kp, cfg.Controller.Ki, cfg.Controller.Kd, cfg.Controller.Target)
	if err != nil {
		return nil, err
	}
	backend, err := compute.New(cfg.Backend, log)
	if err != nil {
		return nil, err
	}

	rec := sim.NewRecorder(1)
	opts := []sim.Option{
		sim.WithBackend(backend),
		sim.WithLogger(log),
		sim.WithIntegrator(integ),
		sim.WithPipeline(pipeline),
		sim.WithGravity(mgl64.Vec3(cfg.Gravity)),
		sim.WithDt(cfg.Dt),
		sim.WithGrid(cfg.Grid.CellSize, physics.AABB{
			Min: mgl64.Vec3(cfg.Grid.Min),
			Max: mgl64.Vec3(cfg.Grid.Max),
		}),
		sim.WithSolver(physics.ContactSolver{
			Slop:               cfg.Solver.Slop,
			CorrectionPercent:  cfg.Solver.CorrectionPercent,
			PositionIterations: cfg.Solver.PositionIterations,
		}),
		sim.WithObserver(rec),
	}
	if cfg.Solver.StrictContacts {
		opts = append(opts, sim.WithStrictContacts())
	}
	for _, m := range metrics.Default(-cfg.Gravity[1]) {
		opts = append(opts, sim.WithMetric(m))
	}
	s := sim.New(append(opts, extra...)...)

	if err := Build(cfg.Scene, s, cfg.Params, cfg.Seed); err != nil {
		backend.Close()
		return nil, err
	}
	log.Infof("scene %s: %d bodies, %d joints on %s (%s pipeline)",
		cfg.Scene, s.BodyCount(), s.JointCount(), backend.Name(), pipeline)

	return &Experiment{
		cfg:        cfg,
		simulator:  s,
		backend:    backend,
		controller: ctrl,
		recorder:   rec,
	}, nil
}

func (e *Experiment) Config() *config.Config         { return e.cfg }
func (e *Experiment) Sim() *sim.Simulation           { return e.simulator }
func (e *Experiment) Controller() control.Controller { return e.controller }

// Step applies the controller and advances one tick.
func (e *Experiment) Step() error {
	if err := e.controller.Apply(e.simulator); err != nil {
		return fmt.Errorf("controller %s: %w", e.controller.Name(), err)
	}
	return e.simulator.Step()
}

// Run advances the configured number of ticks, recording every
// every-th one, and returns the recording.
func (e *Experiment) Run(ctx context.Context, every int) (*sim.Result, error) {
	e.recorder.Reset()
	e.recorder.Stride = max(every, 1)
	for i := 0; i < e.cfg.Steps; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		if err := e.Step(); err != nil {
			return nil, err
		}
	}
	return e.recorder.Result(e.simulator.Metrics()), nil
}

// Reset restores the scene's initial state and clears controller memory.
func (e *Experiment) Reset() {
	e.simulator.Reset()
	e.controller.Reset()
	e.recorder.Reset()
}

func (e *Experiment) Close() {
	e.backend.Close()
}
