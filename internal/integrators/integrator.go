// Package integrators advances rigid bodies through one timestep.
package integrators

import (
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/jaxs-ribs/arena-sub001/internal/physics"
)

// Integrator moves one dynamic body forward by dt under gravity and an
// applied force. Static bodies must not be passed in.
type Integrator interface {
	Step(b *physics.Body, gravity, force mgl64.Vec3, dt float64)
}

var registry = map[string]func() Integrator{
	"semi-implicit-euler": func() Integrator { return NewSemiImplicitEuler() },
	"euler":               func() Integrator { return NewEuler() },
	"verlet":              func() Integrator { return NewVerlet() },
}

const Default = "semi-implicit-euler"

func New(name string) (Integrator, error) {
	if name == "" {
		name = Default
	}
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("integrators: unknown integrator %q", name)
	}
	return f(), nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func acceleration(b *physics.Body, gravity, force mgl64.Vec3) mgl64.Vec3 {
	return gravity.Add(force.Mul(b.InverseMass()))
}

// spin composes the orientation with the rotation of angular velocity w
// over dt and renormalizes.
func spin(b *physics.Body, dt float64) {
	w := b.AngularVelocity
	speed := w.Len()
	if speed == 0 {
		b.Orientation = b.Orientation.Normalize()
		return
	}
	dq := mgl64.QuatRotate(speed*dt, w.Mul(1/speed))
	b.Orientation = dq.Mul(b.Orientation).Normalize()
}
