package config

import (
	"sort"
)

type presetFunc func(*Config)

var Presets = map[string]map[string]presetFunc{
	"drop": {
		"low": func(c *Config) {
			c.Params.Height = 2
			c.Steps = 200
		},
		"high": func(c *Config) {
			c.Params.Height = 20
			c.Steps = 400
		},
		"bouncy": func(c *Config) {
			c.Params.Height = 5
			c.Steps = 600
			c.Dt = 0.005
		},
		"hover": func(c *Config) {
			c.Params.Height = 1
			c.Steps = 800
			c.Controller.Kind = "pid"
			c.Controller.Target = 3
		},
	},
	"chain": {
		"short": func(c *Config) {
			c.Params.Count = 5
			c.Steps = 300
		},
		"long": func(c *Config) {
			c.Params.Count = 20
			c.Params.Spacing = 0.5
			c.Params.Radius = 0.1
			c.Steps = 600
		},
	},
	"stack": {
		"tower": func(c *Config) {
			c.Params.Count = 5
			c.Params.Radius = 0.5
			c.Steps = 400
		},
	},
	"pile": {
		"small": func(c *Config) {
			c.Params.Count = 20
			c.Steps = 400
		},
		"large": func(c *Config) {
			c.Params.Count = 200
			c.Params.Radius = 0.3
			c.Pipeline = "kernels"
			c.Steps = 600
		},
	},
	"mixed": {
		"default": func(c *Config) {
			c.Steps = 400
		},
	},
	"pendulum": {
		"swing": func(c *Config) {
			c.Params.Count = 4
			c.Params.Spacing = 1
			c.Steps = 1000
		},
		"stiff": func(c *Config) {
			c.Params.Count = 8
			c.Params.Spacing = 0.5
			c.Dt = 0.002
			c.Steps = 2500
		},
	},
}

// GetPreset returns a fresh config for the scene with the preset applied
// over the defaults, or nil when either name is unknown.
func GetPreset(scene, preset string) *Config {
	scenePresets, ok := Presets[scene]
	if !ok {
		return nil
	}
	apply, ok := scenePresets[preset]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.Scene = scene
	apply(cfg)
	return cfg
}

func ListPresets(scene string) []string {
	scenePresets, ok := Presets[scene]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(scenePresets))
	for name := range scenePresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
