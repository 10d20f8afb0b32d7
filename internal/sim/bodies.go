package sim

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/jaxs-ribs/arena-sub001/internal/physics"
)

// AddBody validates b and appends it, returning its index. Indices are
// issued densely from 0 and never reused.
func (s *Simulation) AddBody(b physics.Body) (int, error) {
	if b.Shape == nil {
		return -1, fmt.Errorf("%w: nil shape", ErrInvalidBody)
	}
	if b.Orientation == (mgl64.Quat{}) {
		b.Orientation = mgl64.QuatIdent()
	}
	if err := b.Validate(); err != nil {
		return -1, fmt.Errorf("%w: %w", ErrInvalidBody, err)
	}
	s.bodies = append(s.bodies, b)
	s.initial = append(s.initial, b)
	s.forces = append(s.forces, mgl64.Vec3{})
	return len(s.bodies) - 1, nil
}

func (s *Simulation) add(shape physics.Shape, pos mgl64.Vec3, mass float64, opts []BodyOption) (int, error) {
	b := physics.NewBody(shape, pos, mass)
	for _, opt := range opts {
		opt(&b)
	}
	return s.AddBody(b)
}

// AddSphere adds a sphere. Mass <= 0 makes it static.
func (s *Simulation) AddSphere(pos mgl64.Vec3, radius, mass float64, opts ...BodyOption) (int, error) {
	return s.add(physics.Sphere{Radius: radius}, pos, mass, opts)
}

func (s *Simulation) AddBox(pos, halfExtents mgl64.Vec3, mass float64, opts ...BodyOption) (int, error) {
	return s.add(physics.Box{HalfExtents: halfExtents}, pos, mass, opts)
}

// AddCylinder adds a cylinder whose axis is its local Y.
func (s *Simulation) AddCylinder(pos mgl64.Vec3, radius, halfHeight, mass float64, opts ...BodyOption) (int, error) {
	return s.add(physics.Cylinder{Radius: radius, HalfHeight: halfHeight}, pos, mass, opts)
}

// AddPlane adds the static half-space boundary normal·x = offset. The
// normal is normalized.
func (s *Simulation) AddPlane(normal mgl64.Vec3, offset float64, opts ...BodyOption) (int, error) {
	if normal.Len() == 0 {
		return -1, fmt.Errorf("%w: zero plane normal", ErrInvalidBody)
	}
	return s.add(physics.Plane{Normal: normal.Normalize(), Offset: offset}, mgl64.Vec3{}, 0, opts)
}

// AddJoint validates j and appends it. Fixed and prismatic joints capture
// the current relative orientation of their bodies. Joints may not attach
// to planes.
func (s *Simulation) AddJoint(j physics.Joint) (int, error) {
	if err := j.Validate(len(s.bodies)); err != nil {
		return -1, fmt.Errorf("%w: %w", ErrInvalidJoint, err)
	}
	a, b := &s.bodies[j.A], &s.bodies[j.B]
	if a.Kind() == physics.KindPlane || b.Kind() == physics.KindPlane {
		return -1, fmt.Errorf("%w: joint %d-%d attaches to a plane", ErrInvalidJoint, j.A, j.B)
	}
	if j.Kind == physics.JointFixed || j.Kind == physics.JointPrismatic {
		j.RestOrientation = a.Orientation.Conjugate().Mul(b.Orientation).Normalize()
	}
	if j.Axis.Len() > 0 {
		j.Axis = j.Axis.Normalize()
	}
	s.jointList = append(s.jointList, j)
	return len(s.jointList) - 1, nil
}

// AddDistanceJoint keeps the centers of a and b rest apart.
func (s *Simulation) AddDistanceJoint(a, b int, rest float64) (int, error) {
	return s.AddJoint(physics.Joint{Kind: physics.JointDistance, A: a, B: b, RestLength: rest})
}

// AddSoftDistanceJoint is AddDistanceJoint with XPBD compliance.
func (s *Simulation) AddSoftDistanceJoint(a, b int, rest, compliance float64) (int, error) {
	return s.AddJoint(physics.Joint{Kind: physics.JointDistance, A: a, B: b, RestLength: rest, Compliance: compliance})
}

func (s *Simulation) AddBallJoint(a, b int, anchorA, anchorB mgl64.Vec3) (int, error) {
	return s.AddJoint(physics.Joint{Kind: physics.JointBall, A: a, B: b, AnchorA: anchorA, AnchorB: anchorB})
}

func (s *Simulation) AddRevoluteJoint(a, b int, anchorA, anchorB, axis mgl64.Vec3) (int, error) {
	return s.AddJoint(physics.Joint{Kind: physics.JointRevolute, A: a, B: b, AnchorA: anchorA, AnchorB: anchorB, Axis: axis})
}

func (s *Simulation) AddPrismaticJoint(a, b int, anchorA, anchorB, axis mgl64.Vec3) (int, error) {
	return s.AddJoint(physics.Joint{Kind: physics.JointPrismatic, A: a, B: b, AnchorA: anchorA, AnchorB: anchorB, Axis: axis})
}

func (s *Simulation) AddFixedJoint(a, b int, anchorA, anchorB mgl64.Vec3) (int, error) {
	return s.AddJoint(physics.Joint{Kind: physics.JointFixed, A: a, B: b, AnchorA: anchorA, AnchorB: anchorB})
}
