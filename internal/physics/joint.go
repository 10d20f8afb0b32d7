package physics

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

type JointKind int

const (
	JointDistance JointKind = iota
	JointRevolute
	JointPrismatic
	JointBall
	JointFixed
)

func (k JointKind) String() string {
	switch k {
	case JointDistance:
		return "distance"
	case JointRevolute:
		return "revolute"
	case JointPrismatic:
		return "prismatic"
	case JointBall:
		return "ball"
	case JointFixed:
		return "fixed"
	default:
		return fmt.Sprintf("joint(%d)", int(k))
	}
}

// Joint links bodies A and B. Anchors are in each body's local frame; Axis
// is in A's local frame. RestOrientation is B's orientation relative to A,
// captured when the joint is created, and is held by fixed and prismatic
// joints.
type Joint struct {
	Kind            JointKind
	A, B            int
	AnchorA         mgl64.Vec3
	AnchorB         mgl64.Vec3
	Axis            mgl64.Vec3
	RestLength      float64
	Compliance      float64
	RestOrientation mgl64.Quat
}

// Validate checks the joint against a body count.
func (j *Joint) Validate(bodies int) error {
	if j.A < 0 || j.A >= bodies || j.B < 0 || j.B >= bodies {
		return fmt.Errorf("%w: bodies (%d, %d) outside [0, %d)", ErrInvalidJoint, j.A, j.B, bodies)
	}
	if j.A == j.B {
		return fmt.Errorf("%w: body %d joined to itself", ErrInvalidJoint, j.A)
	}
	if !finiteVec(j.AnchorA) || !finiteVec(j.AnchorB) || !finite(j.RestLength) || !finite(j.Compliance) {
		return fmt.Errorf("%w: non-finite parameters", ErrInvalidJoint)
	}
	if j.RestLength < 0 || j.Compliance < 0 {
		return fmt.Errorf("%w: rest length %v compliance %v", ErrInvalidJoint, j.RestLength, j.Compliance)
	}
	if (j.Kind == JointRevolute || j.Kind == JointPrismatic) && (j.Axis.Len() < epsilon || !finiteVec(j.Axis)) {
		return fmt.Errorf("%w: %s joint needs an axis", ErrInvalidJoint, j.Kind)
	}
	if j.Kind < JointDistance || j.Kind > JointFixed {
		return fmt.Errorf("%w: kind %d", ErrInvalidJoint, int(j.Kind))
	}
	return nil
}

// JointSolver makes one position projection per joint per tick, in joint
// order. It is a single PBD iteration, not a converged solve: long chains
// only approximately keep their length.
type JointSolver struct{}

func (JointSolver) Solve(bodies []Body, joints []Joint, dt float64) {
	for i := range joints {
		project(bodies, &joints[i], dt)
	}
}

func project(bodies []Body, j *Joint, dt float64) {
	a, b := &bodies[j.A], &bodies[j.B]
	wa, wb := a.InverseMass(), b.InverseMass()
	w := wa + wb
	if w == 0 {
		return
	}

	pa := a.Position.Add(a.Orientation.Rotate(j.AnchorA))
	pb := b.Position.Add(b.Orientation.Rotate(j.AnchorB))
	delta := pb.Sub(pa)

	var corr mgl64.Vec3
	switch j.Kind {
	case JointDistance:
		dist := delta.Len()
		if dist < epsilon {
			return
		}
		denom := w
		if dt > 0 {
			denom += j.Compliance / (dt * dt)
		}
		corr = delta.Mul((dist - j.RestLength) / dist * w / denom)
	case JointPrismatic:
		axis := a.Orientation.Rotate(j.Axis).Normalize()
		corr = delta.Sub(axis.Mul(delta.Dot(axis)))
	default:
		corr = delta
	}
	a.Position = a.Position.Add(corr.Mul(wa / w))
	b.Position = b.Position.Sub(corr.Mul(wb / w))

	switch j.Kind {
	case JointRevolute:
		alignAxes(a, b, j.Axis, wa/w, wb/w)
	case JointFixed, JointPrismatic:
		holdOrientation(a, b, j.RestOrientation, wa/w, wb/w)
	}
}

// alignAxes rotates both bodies so the joint axis agrees in world space,
// splitting the rotation by inverse mass.
func alignAxes(a, b *Body, axis mgl64.Vec3, fa, fb float64) {
	inA := a.Orientation.Rotate(axis)
	inB := b.Orientation.Rotate(axis)
	r := mgl64.QuatBetweenVectors(inB, inA)
	rotateShare(a, r.Conjugate(), fa)
	rotateShare(b, r, fb)
}

// holdOrientation drives B's orientation relative to A back to rest.
func holdOrientation(a, b *Body, rest mgl64.Quat, fa, fb float64) {
	target := a.Orientation.Mul(rest)
	e := target.Mul(b.Orientation.Conjugate())
	if e.W < 0 {
		e = e.Scale(-1)
	}
	rotateShare(a, e.Conjugate(), fa)
	rotateShare(b, e, fb)
}

func rotateShare(body *Body, r mgl64.Quat, share float64) {
	if share == 0 {
		return
	}
	part := mgl64.QuatSlerp(mgl64.QuatIdent(), r, share)
	body.Orientation = part.Mul(body.Orientation).Normalize()
}
