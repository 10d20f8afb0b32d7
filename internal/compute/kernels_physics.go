package compute

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// body is a decoded view onto one record of a flat body buffer.
type body []float32

func (b body) vec(off int) mgl32.Vec3 { return mgl32.Vec3{b[off], b[off+1], b[off+2]} }

func (b body) setVec(off int, v mgl32.Vec3) {
	b[off], b[off+1], b[off+2] = v[0], v[1], v[2]
}

func (b body) quat() mgl32.Quat {
	o := BodyOrientation
	return mgl32.Quat{W: b[o+3], V: mgl32.Vec3{b[o], b[o+1], b[o+2]}}
}

func (b body) setQuat(q mgl32.Quat) {
	o := BodyOrientation
	b[o], b[o+1], b[o+2], b[o+3] = q.V[0], q.V[1], q.V[2], q.W
}

func records(data []float32) int { return len(data) / BodyStride }

func record(data []float32, i int) body {
	return body(data[i*BodyStride : (i+1)*BodyStride])
}

// cpuIntegrate advances every dynamic body by one semi-implicit Euler step:
// velocity first, then position from the new velocity, then orientation by
// the exponential map of angular velocity.
func cpuIntegrate(c *CPUBackend, _ Kernel, b []View) []byte {
	data := b[0].Float32s()
	p := b[1].Float32s()
	gravity, dt := mgl32.Vec3{p[0], p[1], p[2]}, p[3]
	c.each(records(data), func(i int) {
		r := record(data, i)
		inv := r[BodyInvMass]
		if inv <= 0 {
			return
		}
		v := r.vec(BodyVelocity).Add(gravity.Add(r.vec(BodyForce).Mul(inv)).Mul(dt))
		r.setVec(BodyVelocity, v)
		r.setVec(BodyPosition, r.vec(BodyPosition).Add(v.Mul(dt)))

		w := r.vec(BodyAngularVelocity)
		if speed := w.Len(); speed > 0 {
			dq := mgl32.QuatRotate(speed*dt, w.Mul(1/speed))
			r.setQuat(dq.Mul(r.quat()).Normalize())
		}
	})
	return Float32Bytes(data)
}

// supportDepth is how far a body's surface reaches below its center along
// -n.
func supportDepth(r body, n mgl32.Vec3) float32 {
	switch int(r[BodyShape]) {
	case ShapeBox:
		q := r.quat()
		he := r.vec(BodyHalfExtents)
		var s float32
		for axis := 0; axis < 3; axis++ {
			var e mgl32.Vec3
			e[axis] = 1
			s += he[axis] * abs32(q.Rotate(e).Dot(n))
		}
		return s
	case ShapeCylinder:
		along := r.quat().Rotate(mgl32.Vec3{0, 1, 0}).Dot(n)
		radial := float32(math.Sqrt(float64(max(0, 1-along*along))))
		return abs32(along)*r[BodyHalfHeight] + radial*r[BodyRadius]
	default:
		return r[BodyRadius]
	}
}

// cpuDetect writes one contact slot per body: the plane penetration of its
// deepest point, or index -1 when the body is clear of the plane.
func cpuDetect(c *CPUBackend, _ Kernel, b []View) []byte {
	data := b[0].Float32s()
	pl := b[1].Float32s()
	n, d := mgl32.Vec3{pl[0], pl[1], pl[2]}, pl[3]
	out := make([]float32, records(data)*ContactStride)
	c.each(records(data), func(i int) {
		slot := out[i*ContactStride : (i+1)*ContactStride]
		slot[ContactBody] = -1
		r := record(data, i)
		if r[BodyInvMass] <= 0 {
			return
		}
		pen := supportDepth(r, n) - (r.vec(BodyPosition).Dot(n) - d)
		if pen <= 0 {
			return
		}
		slot[ContactBody] = float32(i)
		slot[ContactDepth] = pen
		slot[ContactNormal], slot[ContactNormal+1], slot[ContactNormal+2] = n[0], n[1], n[2]
	})
	return Float32Bytes(out)
}

// cpuSolveContacts pushes each contacting body out along the contact normal
// by percent of its penetration beyond slop, removes approaching normal
// velocity with restitution and damps tangential velocity by friction.
func cpuSolveContacts(c *CPUBackend, _ Kernel, b []View) []byte {
	data := b[0].Float32s()
	contacts := b[1].Float32s()
	p := b[2].Float32s()
	slop, percent, planeFriction, planeRestitution := p[0], p[1], p[2], p[3]
	c.each(records(data), func(i int) {
		slot := contacts[i*ContactStride : (i+1)*ContactStride]
		idx := int(slot[ContactBody])
		if slot[ContactBody] < 0 || idx != i {
			return
		}
		r := record(data, i)
		if r[BodyInvMass] <= 0 {
			return
		}
		n := mgl32.Vec3{slot[ContactNormal], slot[ContactNormal+1], slot[ContactNormal+2]}
		if corr := max(slot[ContactDepth]-slop, 0) * percent; corr > 0 {
			r.setVec(BodyPosition, r.vec(BodyPosition).Add(n.Mul(corr)))
		}

		v := r.vec(BodyVelocity)
		vn := v.Dot(n)
		if vn >= 0 {
			return
		}
		e := float32(math.Sqrt(float64(r[BodyRestitution] * planeRestitution)))
		mu := float32(math.Sqrt(float64(r[BodyFriction] * planeFriction)))
		dvn := -(1 + e) * vn
		tangent := v.Sub(n.Mul(vn))
		v = v.Add(n.Mul(dvn))
		if tl := tangent.Len(); tl > 0 {
			v = v.Sub(tangent.Mul(min(1, mu*dvn/tl)))
		}
		r.setVec(BodyVelocity, v)
	})
	return Float32Bytes(data)
}

// cpuSolveJoints makes one ordered projection pass over the joints. Each
// joint sees the positions left by the joints before it. Revolute joints
// then align their axes; fixed and prismatic joints restore the rest
// orientation, split by inverse mass.
func cpuSolveJoints(_ *CPUBackend, _ Kernel, b []View) []byte {
	data := b[0].Float32s()
	joints := b[1].Float32s()
	dt := b[2].Float32s()[0]
	for j := 0; j+JointStride <= len(joints); j += JointStride {
		jt := joints[j : j+JointStride]
		ra := record(data, int(jt[JointBodyA]))
		rb := record(data, int(jt[JointBodyB]))
		wa, wb := ra[BodyInvMass], rb[BodyInvMass]
		if wa+wb <= 0 {
			continue
		}
		anchorA := mgl32.Vec3{jt[JointAnchorA], jt[JointAnchorA+1], jt[JointAnchorA+2]}
		anchorB := mgl32.Vec3{jt[JointAnchorB], jt[JointAnchorB+1], jt[JointAnchorB+2]}
		pa := ra.vec(BodyPosition).Add(ra.quat().Rotate(anchorA))
		pb := rb.vec(BodyPosition).Add(rb.quat().Rotate(anchorB))
		delta := pb.Sub(pa)

		var corr mgl32.Vec3
		w := wa + wb
		switch int(jt[JointCode]) {
		case JointDistance:
			dist := delta.Len()
			if dist == 0 {
				continue
			}
			if dt > 0 {
				w += jt[JointCompliance] / (dt * dt)
			}
			corr = delta.Mul((dist - jt[JointRest]) / dist)
		case JointPrismatic:
			axis := ra.quat().Rotate(mgl32.Vec3{jt[JointAxis], jt[JointAxis+1], jt[JointAxis+2]})
			if l := axis.Len(); l > 0 {
				axis = axis.Mul(1 / l)
			}
			corr = delta.Sub(axis.Mul(delta.Dot(axis)))
		default:
			corr = delta
		}
		ra.setVec(BodyPosition, ra.vec(BodyPosition).Add(corr.Mul(wa/w)))
		rb.setVec(BodyPosition, rb.vec(BodyPosition).Sub(corr.Mul(wb/w)))

		fa, fb := wa/(wa+wb), wb/(wa+wb)
		switch int(jt[JointCode]) {
		case JointRevolute:
			axis := mgl32.Vec3{jt[JointAxis], jt[JointAxis+1], jt[JointAxis+2]}
			r := mgl32.QuatBetweenVectors(rb.quat().Rotate(axis), ra.quat().Rotate(axis))
			rotateShare(ra, r.Conjugate(), fa)
			rotateShare(rb, r, fb)
		case JointFixed, JointPrismatic:
			e := ra.quat().Mul(restOrientation(jt)).Mul(rb.quat().Conjugate())
			if e.W < 0 {
				e = e.Scale(-1)
			}
			rotateShare(ra, e.Conjugate(), fa)
			rotateShare(rb, e, fb)
		}
	}
	return Float32Bytes(data)
}

func restOrientation(jt []float32) mgl32.Quat {
	o := JointRestOrient
	q := mgl32.Quat{W: jt[o+3], V: mgl32.Vec3{jt[o], jt[o+1], jt[o+2]}}
	if q.Len() == 0 {
		return mgl32.QuatIdent()
	}
	return q.Normalize()
}

// rotateShare turns a record by share of rotation r.
func rotateShare(r body, q mgl32.Quat, share float32) {
	if share == 0 {
		return
	}
	part := mgl32.QuatSlerp(mgl32.QuatIdent(), q, share)
	r.setQuat(part.Mul(r.quat()).Normalize())
}

func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
