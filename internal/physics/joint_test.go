package physics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistanceJointExactAtZeroDt(t *testing.T) {
	tests := []struct {
		name   string
		b      mgl64.Vec3
		length float64
	}{
		{"stretched", mgl64.Vec3{3, 4, 0}, 1},
		{"compressed", mgl64.Vec3{0.1, 0, 0}, 2},
		{"diagonal", mgl64.Vec3{1, 1, 1}, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bodies := []Body{sphereAt(0, 0, 0, 0.1), NewBody(Sphere{Radius: 0.1}, tt.b, 2)}
			joints := []Joint{{Kind: JointDistance, A: 0, B: 1, RestLength: tt.length, Compliance: 5}}
			JointSolver{}.Solve(bodies, joints, 0)

			got := bodies[1].Position.Sub(bodies[0].Position).Len()
			assert.InDelta(t, tt.length, got, 1e-5)
		})
	}
}

func TestDistanceJointCompliance(t *testing.T) {
	bodies := []Body{sphereAt(0, 0, 0, 0.1), sphereAt(2, 0, 0, 0.1)}
	joints := []Joint{{Kind: JointDistance, A: 0, B: 1, RestLength: 1, Compliance: 2e-4}}
	JointSolver{}.Solve(bodies, joints, 0.01)

	// alpha = 2e-4 / 1e-4 = 2 halves the correction for w = 2
	got := bodies[1].Position.Sub(bodies[0].Position).Len()
	assert.InDelta(t, 1.5, got, 1e-9)
}

func TestBallJointPinsToStaticAnchor(t *testing.T) {
	anchor := NewBody(Sphere{Radius: 0.1}, mgl64.Vec3{0, 5, 0}, 0)
	bob := sphereAt(1, 3, 0, 0.1)
	bodies := []Body{anchor, bob}
	joints := []Joint{{Kind: JointBall, A: 0, B: 1, AnchorA: mgl64.Vec3{0, -1, 0}}}
	JointSolver{}.Solve(bodies, joints, 0.01)

	assertVec(t, mgl64.Vec3{0, 5, 0}, bodies[0].Position, 0)
	assertVec(t, mgl64.Vec3{0, 4, 0}, bodies[1].Position, 1e-12)
}

func TestPrismaticJointKeepsAxisMotion(t *testing.T) {
	bodies := []Body{NewBody(Box{HalfExtents: mgl64.Vec3{1, 1, 1}}, mgl64.Vec3{}, 0), sphereAt(3, 0.5, -0.2, 0.1)}
	joints := []Joint{{Kind: JointPrismatic, A: 0, B: 1, Axis: mgl64.Vec3{1, 0, 0}, RestOrientation: mgl64.QuatIdent()}}
	JointSolver{}.Solve(bodies, joints, 0.01)

	assertVec(t, mgl64.Vec3{3, 0, 0}, bodies[1].Position, 1e-12)
}

func TestRevoluteJointAlignsAxis(t *testing.T) {
	base := NewBody(Box{HalfExtents: mgl64.Vec3{1, 1, 1}}, mgl64.Vec3{}, 0)
	arm := sphereAt(0, 0, 0, 0.1)
	arm.Orientation = mgl64.QuatRotate(0.4, mgl64.Vec3{1, 0, 0})
	bodies := []Body{base, arm}
	joints := []Joint{{Kind: JointRevolute, A: 0, B: 1, Axis: mgl64.Vec3{0, 0, 1}}}
	JointSolver{}.Solve(bodies, joints, 0.01)

	axis := bodies[1].Orientation.Rotate(mgl64.Vec3{0, 0, 1})
	assertVec(t, mgl64.Vec3{0, 0, 1}, axis, 1e-9)
}

func TestFixedJointRestoresRelativeOrientation(t *testing.T) {
	base := NewBody(Box{HalfExtents: mgl64.Vec3{1, 1, 1}}, mgl64.Vec3{}, 0)
	part := sphereAt(0, 2, 0, 0.1)
	part.Orientation = mgl64.QuatRotate(math.Pi/3, mgl64.Vec3{0, 1, 0})
	bodies := []Body{base, part}
	joints := []Joint{{Kind: JointFixed, A: 0, B: 1, AnchorA: mgl64.Vec3{0, 1, 0}, AnchorB: mgl64.Vec3{0, -1, 0}, RestOrientation: mgl64.QuatIdent()}}
	JointSolver{}.Solve(bodies, joints, 0.01)

	q := bodies[1].Orientation
	assert.InDelta(t, 1.0, math.Abs(q.W), 1e-9)
	assertVec(t, mgl64.Vec3{0, 2, 0}, bodies[1].Position, 1e-12)
}

func TestJointValidate(t *testing.T) {
	tests := []struct {
		name  string
		joint Joint
		ok    bool
	}{
		{"distance", Joint{Kind: JointDistance, A: 0, B: 1, RestLength: 1}, true},
		{"out of range", Joint{Kind: JointDistance, A: 0, B: 2}, false},
		{"self", Joint{Kind: JointBall, A: 1, B: 1}, false},
		{"negative length", Joint{Kind: JointDistance, A: 0, B: 1, RestLength: -1}, false},
		{"revolute without axis", Joint{Kind: JointRevolute, A: 0, B: 1}, false},
		{"unknown kind", Joint{Kind: JointKind(9), A: 0, B: 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.joint.Validate(2)
			if tt.ok {
				require.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidJoint)
		})
	}
}
