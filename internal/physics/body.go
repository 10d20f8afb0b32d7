package physics

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Material coefficients are combined per contact by geometric mean.
type Material struct {
	Friction    float64 `json:"friction" yaml:"friction"`
	Restitution float64 `json:"restitution" yaml:"restitution"`
}

func DefaultMaterial() Material {
	return Material{Friction: 0.5, Restitution: 0}
}

func CombineMaterials(a, b Material) Material {
	return Material{
		Friction:    math.Sqrt(a.Friction * b.Friction),
		Restitution: math.Sqrt(a.Restitution * b.Restitution),
	}
}

// Body is a rigid body. A body with Mass <= 0, and every plane, is static:
// it has zero inverse mass and is never moved by integration or solvers.
type Body struct {
	Shape           Shape
	Position        mgl64.Vec3
	Velocity        mgl64.Vec3
	AngularVelocity mgl64.Vec3
	Orientation     mgl64.Quat
	Mass            float64
	Material        Material
}

func NewBody(shape Shape, pos mgl64.Vec3, mass float64) Body {
	return Body{
		Shape:       shape,
		Position:    pos,
		Orientation: mgl64.QuatIdent(),
		Mass:        mass,
		Material:    DefaultMaterial(),
	}
}

func (b *Body) Kind() Kind { return b.Shape.Kind() }

func (b *Body) Static() bool {
	return b.Mass <= 0 || b.Shape.Kind() == KindPlane
}

func (b *Body) InverseMass() float64 {
	if b.Static() {
		return 0
	}
	return 1 / b.Mass
}

func (b *Body) Bounds() AABB {
	return b.Shape.Bounds(b.Position, b.Orientation)
}

// Validate checks the shape and that every state component is finite.
func (b *Body) Validate() error {
	if b.Shape == nil {
		return fmt.Errorf("%w: no shape", ErrInvalidBody)
	}
	if err := b.Shape.Validate(); err != nil {
		return err
	}
	if !finiteVec(b.Position) || !finiteVec(b.Velocity) || !finiteVec(b.AngularVelocity) {
		return fmt.Errorf("%w: non-finite state", ErrInvalidBody)
	}
	if !finite(b.Mass) {
		return fmt.Errorf("%w: mass %v", ErrInvalidBody, b.Mass)
	}
	if l := b.Orientation.Len(); l < 1e-9 || !finite(l) {
		return fmt.Errorf("%w: orientation %v", ErrInvalidBody, b.Orientation)
	}
	if b.Material.Friction < 0 || b.Material.Restitution < 0 ||
		!finite(b.Material.Friction) || !finite(b.Material.Restitution) {
		return fmt.Errorf("%w: material %+v", ErrInvalidBody, b.Material)
	}
	return nil
}

// KineticEnergy is the translational kinetic energy; static bodies have none.
func (b *Body) KineticEnergy() float64 {
	if b.Static() {
		return 0
	}
	return 0.5 * b.Mass * b.Velocity.LenSqr()
}
