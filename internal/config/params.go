package config

import (
	"fmt"
	"sort"
)

var ErrUnknownParam = fmt.Errorf("%w: unknown parameter", ErrInvalidConfig)

// setters maps the numeric settings that sweeps and searches may vary.
var setters = map[string]func(c *Config, v float64){
	"dt":                  func(c *Config, v float64) { c.Dt = v },
	"gravity":             func(c *Config, v float64) { c.Gravity[1] = v },
	"cell_size":           func(c *Config, v float64) { c.Grid.CellSize = v },
	"slop":                func(c *Config, v float64) { c.Solver.Slop = v },
	"correction_percent":  func(c *Config, v float64) { c.Solver.CorrectionPercent = v },
	"position_iterations": func(c *Config, v float64) { c.Solver.PositionIterations = int(v) },
	"count":               func(c *Config, v float64) { c.Params.Count = int(v) },
	"height":              func(c *Config, v float64) { c.Params.Height = v },
	"spacing":             func(c *Config, v float64) { c.Params.Spacing = v },
	"radius":              func(c *Config, v float64) { c.Params.Radius = v },
	"mass":                func(c *Config, v float64) { c.Params.Mass = v },
	"kp":                  func(c *Config, v float64) { c.Controller.Kp = v },
	"ki":                  func(c *Config, v float64) { c.Controller.Ki = v },
	"kd":                  func(c *Config, v float64) { c.Controller.Kd = v },
	"target":              func(c *Config, v float64) { c.Controller.Target = v },
}

// Set assigns a numeric setting by name. Integer settings truncate.
func (c *Config) Set(name string, v float64) error {
	set, ok := setters[name]
	if !ok {
		return fmt.Errorf("%w %q (known: %v)", ErrUnknownParam, name, ParamNames())
	}
	set(c, v)
	return nil
}

func ParamNames() []string {
	names := make([]string, 0, len(setters))
	for name := range setters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a copy that shares no state with c.
func (c *Config) Clone() *Config {
	out := *c
	return &out
}
