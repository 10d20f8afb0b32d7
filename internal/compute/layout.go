package compute

import "math"

// Record layouts shared by the physics kernels. Every field is f32.
//
// Body (BodyStride floats):
//
//	[0:3]   position        [3]  inverse mass (0 = static)
//	[4:7]   velocity        [7]  shape code
//	[8:11]  applied force   [11] radius
//	[12:15] angular vel.    [15] half height
//	[16:20] orientation quaternion x, y, z, w
//	[20:23] half extents    [23] unused
//	[24]    friction        [25] restitution
//
// Contact (ContactStride floats): [0] body index or -1, [1] penetration,
// [4:7] normal.
//
// Joint (JointStride floats): [0] body a, [1] body b, [2] joint code,
// [3] rest length, [4:7] anchor a, [7] compliance, [8:11] anchor b,
// [12:15] axis, [16:20] rest orientation of b relative to a (x, y, z, w;
// all zero reads as identity).
const (
	BodyStride    = 28
	ContactStride = 8
	JointStride   = 20

	BodyPosition        = 0
	BodyInvMass         = 3
	BodyVelocity        = 4
	BodyShape           = 7
	BodyForce           = 8
	BodyRadius          = 11
	BodyAngularVelocity = 12
	BodyHalfHeight      = 15
	BodyOrientation     = 16
	BodyHalfExtents     = 20
	BodyFriction        = 24
	BodyRestitution     = 25

	ContactBody   = 0
	ContactDepth  = 1
	ContactNormal = 4

	JointBodyA      = 0
	JointBodyB      = 1
	JointCode       = 2
	JointRest       = 3
	JointAnchorA    = 4
	JointCompliance = 7
	JointAnchorB    = 8
	JointAxis       = 12
	JointRestOrient = 16
)

// Shape codes stored in BodyShape.
const (
	ShapeSphere   = 0
	ShapeBox      = 1
	ShapeCylinder = 2
)

// Joint codes stored in JointCode.
const (
	JointDistance  = 0
	JointRevolute  = 1
	JointPrismatic = 2
	JointBall      = 3
	JointFixed     = 4
)

// RandomConfig builds the config binding of RandomUniform and RandomNormal.
// The seed travels as raw bits.
func RandomConfig(seed uint32, a, b float32) View {
	return ViewFromFloat32([]float32{math.Float32frombits(seed), a, b, 0})
}

// ExpandConfig builds the config binding of ExpandInstances.
func ExpandConfig(count int, dx, dy, dz float32) View {
	return ViewFromFloat32([]float32{float32(count), dx, dy, dz})
}

// Vec4Config packs four scalars, the shape of every physics kernel's
// parameter binding.
func Vec4Config(a, b, c, d float32) View {
	return ViewFromFloat32([]float32{a, b, c, d})
}
