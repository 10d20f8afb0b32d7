package integrators

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/jaxs-ribs/arena-sub001/internal/physics"
)

// Verlet is velocity Verlet with the acceleration held over the step, which
// is exact for constant forces.
type Verlet struct{}

func NewVerlet() *Verlet {
	return &Verlet{}
}

func (v *Verlet) Step(b *physics.Body, gravity, force mgl64.Vec3, dt float64) {
	a := acceleration(b, gravity, force)
	b.Position = b.Position.Add(b.Velocity.Mul(dt)).Add(a.Mul(0.5 * dt * dt))
	b.Velocity = b.Velocity.Add(a.Mul(dt))
	spin(b, dt)
}
