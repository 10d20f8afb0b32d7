package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultDt       = 0.01
	DefaultSteps    = 500
	DefaultGravity  = -9.81
	DefaultCellSize = 2.0
	DefaultBound    = 100.0
	DefaultHeight   = 5.0
	DefaultRadius   = 0.5
	DefaultMass     = 1.0
	DefaultSpacing  = 1.0
	DefaultCount    = 8
	DefaultKp       = 40.0
	DefaultKi       = 2.0
	DefaultKd       = 12.0
)

var ErrInvalidConfig = errors.New("config: invalid")

type Config struct {
	Scene      string           `yaml:"scene"`
	Backend    string           `yaml:"backend"`
	Pipeline   string           `yaml:"pipeline"`
	Integrator string           `yaml:"integrator"`
	Dt         float64          `yaml:"dt"`
	Steps      int              `yaml:"steps"`
	Seed       int64            `yaml:"seed"`
	Debug      bool             `yaml:"debug"`
	Gravity    [3]float64       `yaml:"gravity,flow"`
	Grid       GridConfig       `yaml:"grid"`
	Solver     SolverConfig     `yaml:"solver"`
	Params     SceneParams      `yaml:"scene_params"`
	Controller ControllerConfig `yaml:"controller"`
}

// GridConfig sizes the broad phase. Bodies outside Min/Max are clamped into
// the border cells.
type GridConfig struct {
	CellSize float64    `yaml:"cell_size"`
	Min      [3]float64 `yaml:"min,flow"`
	Max      [3]float64 `yaml:"max,flow"`
}

type SolverConfig struct {
	Slop               float64 `yaml:"slop"`
	CorrectionPercent  float64 `yaml:"correction_percent"`
	PositionIterations int     `yaml:"position_iterations"`
	// StrictContacts fails a run on the first shape pair without a
	// contact test.
	StrictContacts bool `yaml:"strict_contacts"`
}

// SceneParams are read by scene builders; each scene documents which
// fields it uses.
type SceneParams struct {
	Count   int     `yaml:"count"`
	Height  float64 `yaml:"height"`
	Spacing float64 `yaml:"spacing"`
	Radius  float64 `yaml:"radius"`
	Mass    float64 `yaml:"mass"`
}

type ControllerConfig struct {
	Kind   string  `yaml:"kind"`
	Body   int     `yaml:"body"`
	Kp     float64 `yaml:"kp"`
	Ki     float64 `yaml:"ki"`
	Kd     float64 `yaml:"kd"`
	Target float64 `yaml:"target"`
}

func DefaultConfig() *Config {
	return &Config{
		Scene:      "drop",
		Backend:    "cpu",
		Pipeline:   "direct",
		Integrator: "semi-implicit-euler",
		Dt:         DefaultDt,
		Steps:      DefaultSteps,
		Gravity:    [3]float64{0, DefaultGravity, 0},
		Grid: GridConfig{
			CellSize: DefaultCellSize,
			Min:      [3]float64{-DefaultBound, -DefaultBound, -DefaultBound},
			Max:      [3]float64{DefaultBound, DefaultBound, DefaultBound},
		},
		Solver: SolverConfig{
			Slop:               0.01,
			CorrectionPercent:  0.8,
			PositionIterations: 20,
		},
		Params: SceneParams{
			Count:   DefaultCount,
			Height:  DefaultHeight,
			Spacing: DefaultSpacing,
			Radius:  DefaultRadius,
			Mass:    DefaultMass,
		},
		Controller: ControllerConfig{
			Kind:   "none",
			Body:   -1,
			Kp:     DefaultKp,
			Ki:     DefaultKi,
			Kd:     DefaultKd,
			Target: 2,
		},
	}
}

// Load reads a YAML file over the defaults, so omitted keys keep their
// default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks numeric ranges. Names (scene, backend, integrator) are
// checked by the registries that resolve them.
func (c *Config) Validate() error {
	switch {
	case c.Dt <= 0:
		return fmt.Errorf("%w: dt %v must be positive", ErrInvalidConfig, c.Dt)
	case c.Steps < 0:
		return fmt.Errorf("%w: steps %d", ErrInvalidConfig, c.Steps)
	case c.Grid.CellSize <= 0:
		return fmt.Errorf("%w: grid cell size %v", ErrInvalidConfig, c.Grid.CellSize)
	case c.Solver.Slop < 0:
		return fmt.Errorf("%w: slop %v", ErrInvalidConfig, c.Solver.Slop)
	case c.Solver.CorrectionPercent <= 0 || c.Solver.CorrectionPercent > 1:
		return fmt.Errorf("%w: correction percent %v outside (0, 1]", ErrInvalidConfig, c.Solver.CorrectionPercent)
	case c.Solver.PositionIterations < 1:
		return fmt.Errorf("%w: position iterations %d", ErrInvalidConfig, c.Solver.PositionIterations)
	case c.Params.Count < 0:
		return fmt.Errorf("%w: scene count %d", ErrInvalidConfig, c.Params.Count)
	}
	for i := 0; i < 3; i++ {
		if c.Grid.Min[i] >= c.Grid.Max[i] {
			return fmt.Errorf("%w: grid bounds %v..%v", ErrInvalidConfig, c.Grid.Min, c.Grid.Max)
		}
	}
	return nil
}

// Duration is the simulated time covered by Steps ticks.
func (c *Config) Duration() float64 {
	return float64(c.Steps) * c.Dt
}
