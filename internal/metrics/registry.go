package metrics

import (
	"github.com/jaxs-ribs/arena-sub001/internal/sim"
)

// Default is the metric set attached to every run.
func Default(gravity float64) []sim.Metric {
	return []sim.Metric{
		NewKineticEnergy(),
		NewEnergyDrift(gravity),
		NewMaxPenetration(),
		NewContactRate(),
		NewUnsupported(),
		NewStability(1e4),
		NewControlEffort(),
	}
}

// Values collects metric values by name.
func Values(ms []sim.Metric) map[string]float64 {
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		out[m.Name()] = m.Value()
	}
	return out
}
