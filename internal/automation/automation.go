// Package automation runs scripted sequences of scenes and parameter
// sweeps.
package automation

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jaxs-ribs/arena-sub001/internal/config"
	"github.com/jaxs-ribs/arena-sub001/internal/logging"
	"github.com/jaxs-ribs/arena-sub001/internal/scene"
	"github.com/jaxs-ribs/arena-sub001/internal/sim"
	"github.com/jaxs-ribs/arena-sub001/internal/storage"
)

// Scenario is a scripted simulation sequence.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is one run. Empty fields keep the preset's (or default)
// value; Params are applied last by name.
type ScenarioStep struct {
	Scene      string             `yaml:"scene"`
	Preset     string             `yaml:"preset"`
	Backend    string             `yaml:"backend"`
	Pipeline   string             `yaml:"pipeline"`
	Controller string             `yaml:"controller"`
	Steps      int                `yaml:"steps"`
	Seed       int64              `yaml:"seed"`
	Repeat     int                `yaml:"repeat"`
	Params     map[string]float64 `yaml:"params"`
	Save       bool               `yaml:"save"`
}

// StepResult is the outcome of one repetition of a step.
type StepResult struct {
	Step    int
	Repeat  int
	Scene   string
	RunID   string
	Metrics map[string]float64
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %s has no steps", path)
	}
	return &scenario, nil
}

// Config resolves the step into a full configuration.
func (s ScenarioStep) Config() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if s.Scene != "" {
		cfg.Scene = s.Scene
	}
	if s.Preset != "" {
		p := config.GetPreset(cfg.Scene, s.Preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset %q for scene %s", s.Preset, cfg.Scene)
		}
		cfg = p
	}
	if s.Backend != "" {
		cfg.Backend = s.Backend
	}
	if s.Pipeline != "" {
		cfg.Pipeline = s.Pipeline
	}
	if s.Controller != "" {
		cfg.Controller.Kind = s.Controller
	}
	if s.Steps > 0 {
		cfg.Steps = s.Steps
	}
	if s.Seed != 0 {
		cfg.Seed = s.Seed
	}
	for name, v := range s.Params {
		if err := cfg.Set(name, v); err != nil {
			return nil, err
		}
	}
	return cfg, cfg.Validate()
}

// RunScenario executes every step in order, stopping at the first
// failure. Steps with Save are stored when st is non-nil. Repetitions
// advance the seed by one each.
func RunScenario(ctx context.Context, scenario *Scenario, st *storage.Store, log logging.Logger) ([]StepResult, error) {
	log = logging.OrNop(log)
	var results []StepResult

	for i, step := range scenario.Steps {
		cfg, err := step.Config()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		for r := 0; r < max(step.Repeat, 1); r++ {
			c := cfg.Clone()
			c.Seed += int64(r)
			log.Infof("step %d/%d: %s (repeat %d)", i+1, len(scenario.Steps), c.Scene, r+1)

			res, meta, err := run(ctx, c, log)
			if err != nil {
				return results, fmt.Errorf("step %d: %w", i+1, err)
			}
			out := StepResult{Step: i, Repeat: r, Scene: c.Scene, Metrics: res.Metrics}
			if step.Save && st != nil {
				meta.Preset = step.Preset
				if out.RunID, err = st.Save(meta, res); err != nil {
					return results, fmt.Errorf("step %d save: %w", i+1, err)
				}
			}
			results = append(results, out)
		}
	}
	return results, nil
}

func run(ctx context.Context, cfg *config.Config, log logging.Logger) (*sim.Result, storage.RunMetadata, error) {
	exp, err := scene.New(cfg, log)
	if err != nil {
		return nil, storage.RunMetadata{}, err
	}
	defer exp.Close()

	res, err := exp.Run(ctx, 1)
	if err != nil {
		return nil, storage.RunMetadata{}, err
	}
	s := exp.Sim()
	return res, storage.RunMetadata{
		Scene:      cfg.Scene,
		Seed:       cfg.Seed,
		Dt:         cfg.Dt,
		Steps:      cfg.Steps,
		Integrator: cfg.Integrator,
		Backend:    s.Backend().Name(),
		Pipeline:   s.Params().Pipeline.String(),
		Controller: exp.Controller().Name(),
		Bodies:     s.BodyCount(),
	}, nil
}

// ParameterSweep runs Base with Param stepped evenly from Min to Max.
type ParameterSweep struct {
	Base  *config.Config
	Param string
	Min   float64
	Max   float64
	Count int
}

// SweepResult holds one sweep point: the metrics and the designated
// body's final state.
type SweepResult struct {
	ParamValue float64
	Metrics    map[string]float64
	Final      sim.BodySnapshot
}

func RunSweep(ctx context.Context, sweep *ParameterSweep, log logging.Logger) ([]SweepResult, error) {
	if sweep.Count < 1 {
		return nil, fmt.Errorf("sweep of %s needs at least one point", sweep.Param)
	}
	log = logging.OrNop(log)
	step := 0.0
	if sweep.Count > 1 {
		step = (sweep.Max - sweep.Min) / float64(sweep.Count-1)
	}

	results := make([]SweepResult, 0, sweep.Count)
	for i := 0; i < sweep.Count; i++ {
		val := sweep.Min + float64(i)*step
		cfg := sweep.Base.Clone()
		if err := cfg.Set(sweep.Param, val); err != nil {
			return nil, err
		}

		exp, err := scene.New(cfg, log)
		if err != nil {
			return results, fmt.Errorf("%s=%g: %w", sweep.Param, val, err)
		}
		res, err := exp.Run(ctx, max(cfg.Steps, 1))
		if err != nil {
			exp.Close()
			return results, fmt.Errorf("%s=%g: %w", sweep.Param, val, err)
		}
		final, _ := exp.Sim().Snapshot(exp.Sim().Designated())
		exp.Close()

		results = append(results, SweepResult{ParamValue: val, Metrics: res.Metrics, Final: final})
		log.Infof("sweep %d/%d: %s=%.4g", i+1, sweep.Count, sweep.Param, val)
	}
	return results, nil
}
