package integrators

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/jaxs-ribs/arena-sub001/internal/physics"
)

// SemiImplicitEuler updates velocity first and moves with the new velocity.
// After N steps from rest a body has fallen g*dt*dt*N*(N+1)/2.
type SemiImplicitEuler struct{}

func NewSemiImplicitEuler() *SemiImplicitEuler {
	return &SemiImplicitEuler{}
}

func (e *SemiImplicitEuler) Step(b *physics.Body, gravity, force mgl64.Vec3, dt float64) {
	b.Velocity = b.Velocity.Add(acceleration(b, gravity, force).Mul(dt))
	b.Position = b.Position.Add(b.Velocity.Mul(dt))
	spin(b, dt)
}

// Euler is the explicit scheme: position moves with the old velocity.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(b *physics.Body, gravity, force mgl64.Vec3, dt float64) {
	v := b.Velocity
	b.Velocity = v.Add(acceleration(b, gravity, force).Mul(dt))
	b.Position = b.Position.Add(v.Mul(dt))
	spin(b, dt)
}
