// Package scene builds named body layouts into a simulation and wires a
// simulation, controller and metrics from a config.
package scene

import (
	"fmt"
	"sort"

	"github.com/jaxs-ribs/arena-sub001/internal/config"
	"github.com/jaxs-ribs/arena-sub001/internal/sim"
)

// Builder adds a scene's bodies and joints to an empty simulation and
// designates the body the scene is about.
type Builder func(s *sim.Simulation, p config.SceneParams, seed int64) error

var registry = map[string]Builder{
	"drop":     buildDrop,
	"chain":    buildChain,
	"stack":    buildStack,
	"pile":     buildPile,
	"mixed":    buildMixed,
	"pendulum": buildPendulum,
}

// Register adds or replaces a named builder.
func Register(name string, b Builder) {
	registry[name] = b
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func Build(name string, s *sim.Simulation, p config.SceneParams, seed int64) error {
	b, ok := registry[name]
	if !ok {
		return fmt.Errorf("unknown scene: %s", name)
	}
	if err := b(s, p, seed); err != nil {
		return fmt.Errorf("scene %s: %w", name, err)
	}
	return nil
}
