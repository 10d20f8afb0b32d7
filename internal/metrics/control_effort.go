package metrics

import (
	"github.com/jaxs-ribs/arena-sub001/internal/sim"
)

// ControlEffort is the mean over ticks of the summed magnitude of applied
// forces.
type ControlEffort struct {
	name    string
	total   float64
	samples int
}

func NewControlEffort() *ControlEffort {
	return &ControlEffort{name: "control_effort"}
}

func (c *ControlEffort) Name() string { return c.name }

func (c *ControlEffort) Observe(f sim.Frame) {
	for _, b := range f.Bodies {
		c.total += b.Force.Len()
	}
	c.samples++
}

func (c *ControlEffort) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.total / float64(c.samples)
}

func (c *ControlEffort) Reset() {
	c.total = 0
	c.samples = 0
}
