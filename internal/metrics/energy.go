package metrics

import (
	"math"

	"github.com/jaxs-ribs/arena-sub001/internal/sim"
)

// KineticEnergy is the mean over ticks of the total translational kinetic
// energy of all moving bodies.
type KineticEnergy struct {
	name    string
	samples int
	total   float64
	last    float64
}

func NewKineticEnergy() *KineticEnergy {
	return &KineticEnergy{name: "kinetic_energy"}
}

func (k *KineticEnergy) Name() string { return k.name }

func (k *KineticEnergy) Observe(f sim.Frame) {
	k.last = kinetic(f.Bodies)
	k.total += k.last
	k.samples++
}

func (k *KineticEnergy) Value() float64 {
	if k.samples == 0 {
		return 0
	}
	return k.total / float64(k.samples)
}

// Last is the kinetic energy at the latest observed tick.
func (k *KineticEnergy) Last() float64 { return k.last }

func (k *KineticEnergy) Reset() {
	k.samples = 0
	k.total = 0
	k.last = 0
}

// EnergyDrift tracks the largest relative change of mechanical energy
// (kinetic plus potential under a uniform gravity) from the first observed
// tick.
type EnergyDrift struct {
	name     string
	gravity  float64
	initial  float64
	maxDrift float64
	samples  int
}

// NewEnergyDrift takes the magnitude of gravity along -y.
func NewEnergyDrift(gravity float64) *EnergyDrift {
	return &EnergyDrift{name: "energy_drift", gravity: gravity}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(f sim.Frame) {
	energy := Mechanical(f.Bodies, e.gravity)
	if e.samples == 0 {
		e.initial = energy
	}
	e.samples++
	if e.initial != 0 {
		e.maxDrift = math.Max(e.maxDrift, math.Abs(energy-e.initial)/math.Abs(e.initial))
	}
}

func (e *EnergyDrift) Value() float64 { return e.maxDrift }

func (e *EnergyDrift) Reset() {
	e.initial = 0
	e.maxDrift = 0
	e.samples = 0
}

// Mechanical sums kinetic and potential energy of moving bodies.
func Mechanical(bodies []sim.BodySnapshot, gravity float64) float64 {
	total := kinetic(bodies)
	for _, b := range bodies {
		if b.Static {
			continue
		}
		total += b.Mass * gravity * b.Position.Y()
	}
	return total
}

func kinetic(bodies []sim.BodySnapshot) float64 {
	total := 0.0
	for _, b := range bodies {
		if b.Static {
			continue
		}
		total += 0.5 * b.Mass * b.Velocity.LenSqr()
	}
	return total
}
