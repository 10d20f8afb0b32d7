package sim

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/jaxs-ribs/arena-sub001/internal/compute"
	"github.com/jaxs-ribs/arena-sub001/internal/physics"
)

// stepKernels runs one tick as backend dispatches over packed f32 records:
// integrate_bodies, then detect_contacts_sdf and solve_contacts_pbd once
// per plane, then grid and impulse solve for body-body pairs, then
// solve_joints_pbd. The integrator option does not apply here; the
// integrate kernel is semi-implicit Euler.
func (s *Simulation) stepKernels() error {
	var moving, planes []int
	for i := range s.bodies {
		if s.bodies[i].Kind() == physics.KindPlane {
			planes = append(planes, i)
		} else {
			moving = append(moving, i)
		}
	}
	if len(moving) == 0 {
		return nil
	}

	recs := s.pack(moving)
	defer s.buffers.put(recs)
	bodies := compute.ViewFromFloat32(recs, len(moving), compute.BodyStride)

	g, dt := s.params.Gravity, float32(s.params.Dt)
	out, err := s.dispatch(compute.KernelIntegrateBodies,
		bodies, compute.Vec4Config(float32(g[0]), float32(g[1]), float32(g[2]), dt))
	if err != nil {
		return err
	}
	bodies = recordView(out, len(moving))

	for _, pi := range planes {
		if bodies, err = s.planeContacts(bodies, moving, pi); err != nil {
			return err
		}
	}
	s.unpack(bodies.Float32s(), moving)

	s.collide(false)

	if len(s.jointList) == 0 {
		return nil
	}
	slot := make(map[int]int, len(moving))
	for r, i := range moving {
		slot[i] = r
	}
	repacked := s.pack(moving)
	defer s.buffers.put(repacked)
	joints := s.packJoints(slot)
	defer s.buffers.put(joints)
	out, err = s.dispatch(compute.KernelSolveJointsPBD,
		compute.ViewFromFloat32(repacked, len(moving), compute.BodyStride),
		compute.ViewFromFloat32(joints, len(s.jointList), compute.JointStride),
		compute.ViewFromFloat32([]float32{dt}))
	if err != nil {
		return err
	}
	s.unpack(compute.BytesFloat32(out), moving)
	return nil
}

func (s *Simulation) planeContacts(bodies compute.View, moving []int, pi int) (compute.View, error) {
	pl := s.bodies[pi].Shape.(physics.Plane)
	n := len(moving)
	out, err := s.dispatch(compute.KernelDetectContactsSDF, bodies,
		compute.Vec4Config(float32(pl.Normal[0]), float32(pl.Normal[1]), float32(pl.Normal[2]), float32(pl.Offset)),
		compute.Placeholder(n, compute.ContactStride))
	if err != nil {
		return compute.View{}, err
	}
	contacts := compute.BytesFloat32(out)
	recs := bodies.Float32s()
	hits := 0
	for r := 0; r < n; r++ {
		c := contacts[r*compute.ContactStride : (r+1)*compute.ContactStride]
		if c[compute.ContactBody] < 0 {
			continue
		}
		hits++
		depth := float64(c[compute.ContactDepth])
		body := &s.bodies[moving[r]]
		pos := getVec(recs[r*compute.BodyStride:], compute.BodyPosition)
		mat := physics.CombineMaterials(s.bodies[pi].Material, body.Material)
		s.report.Contacts = append(s.report.Contacts, physics.Contact{
			A: pi, B: moving[r],
			Normal:      pl.Normal,
			Depth:       depth,
			Point:       pos.Sub(pl.Normal.Mul(pl.SignedDistance(pos))),
			Friction:    mat.Friction,
			Restitution: mat.Restitution,
		})
		if depth > s.report.MaxDepth {
			s.report.MaxDepth = depth
		}
	}
	s.report.Candidates += n
	if hits == 0 {
		return bodies, nil
	}
	cs, m := s.contacts, s.bodies[pi].Material
	out, err = s.dispatch(compute.KernelSolveContactsPBD, bodies,
		compute.ViewFromFloat32(contacts, n, compute.ContactStride),
		compute.Vec4Config(float32(cs.Slop), float32(cs.CorrectionPercent), float32(m.Friction), float32(m.Restitution)))
	if err != nil {
		return compute.View{}, err
	}
	return recordView(out, n), nil
}

// dispatch runs k on the simulation backend, or on the CPU reference when
// the backend does not implement k.
func (s *Simulation) dispatch(k compute.Kernel, bindings ...compute.View) ([]byte, error) {
	b := s.backend
	if !compute.Supports(b, k) {
		if s.fallback == nil {
			s.fallback = compute.NewCPUBackend()
			s.fellBack = make(map[compute.Kernel]bool)
		}
		if !s.fellBack[k] {
			s.fellBack[k] = true
			s.log.Debugf("%s does not implement %s, using cpu", b.Name(), k)
		}
		b = s.fallback
	}
	rows := bindings[0].Rows()
	out, err := b.Dispatch(k, bindings, compute.Workgroups(rows))
	if err != nil {
		return nil, &BackendError{Op: k.String(), Err: err}
	}
	return out[0], nil
}

func recordView(data []byte, n int) compute.View {
	return compute.NewView(data, []int{n, compute.BodyStride}, 4)
}

// pack writes the listed bodies into pooled body records.
func (s *Simulation) pack(idx []int) []float32 {
	recs := s.buffers.get(len(idx) * compute.BodyStride)
	for r, i := range idx {
		packBody(recs[r*compute.BodyStride:(r+1)*compute.BodyStride], &s.bodies[i], s.forces[i])
	}
	return recs
}

// unpack copies moving state back out of records. Static bodies are left
// untouched so they do not drift through f32 rounding.
func (s *Simulation) unpack(recs []float32, idx []int) {
	for r, i := range idx {
		b := &s.bodies[i]
		if b.Static() {
			continue
		}
		unpackBody(recs[r*compute.BodyStride:(r+1)*compute.BodyStride], b)
	}
}

func (s *Simulation) packJoints(slot map[int]int) []float32 {
	recs := s.buffers.get(len(s.jointList) * compute.JointStride)
	for i := range s.jointList {
		j := &s.jointList[i]
		r := recs[i*compute.JointStride : (i+1)*compute.JointStride]
		r[compute.JointBodyA] = float32(slot[j.A])
		r[compute.JointBodyB] = float32(slot[j.B])
		r[compute.JointCode] = float32(j.Kind)
		r[compute.JointRest] = float32(j.RestLength)
		r[compute.JointCompliance] = float32(j.Compliance)
		putVec(r, compute.JointAnchorA, j.AnchorA)
		putVec(r, compute.JointAnchorB, j.AnchorB)
		putVec(r, compute.JointAxis, j.Axis)
		q := j.RestOrientation
		o := compute.JointRestOrient
		r[o], r[o+1], r[o+2], r[o+3] = float32(q.V[0]), float32(q.V[1]), float32(q.V[2]), float32(q.W)
	}
	return recs
}

func packBody(r []float32, b *physics.Body, force mgl64.Vec3) {
	putVec(r, compute.BodyPosition, b.Position)
	putVec(r, compute.BodyVelocity, b.Velocity)
	putVec(r, compute.BodyForce, force)
	putVec(r, compute.BodyAngularVelocity, b.AngularVelocity)
	q := b.Orientation
	r[compute.BodyOrientation] = float32(q.V[0])
	r[compute.BodyOrientation+1] = float32(q.V[1])
	r[compute.BodyOrientation+2] = float32(q.V[2])
	r[compute.BodyOrientation+3] = float32(q.W)
	r[compute.BodyInvMass] = float32(b.InverseMass())
	r[compute.BodyFriction] = float32(b.Material.Friction)
	r[compute.BodyRestitution] = float32(b.Material.Restitution)
	switch sh := b.Shape.(type) {
	case physics.Sphere:
		r[compute.BodyShape] = compute.ShapeSphere
		r[compute.BodyRadius] = float32(sh.Radius)
	case physics.Box:
		r[compute.BodyShape] = compute.ShapeBox
		putVec(r, compute.BodyHalfExtents, sh.HalfExtents)
	case physics.Cylinder:
		r[compute.BodyShape] = compute.ShapeCylinder
		r[compute.BodyRadius] = float32(sh.Radius)
		r[compute.BodyHalfHeight] = float32(sh.HalfHeight)
	}
}

func unpackBody(r []float32, b *physics.Body) {
	b.Position = getVec(r, compute.BodyPosition)
	b.Velocity = getVec(r, compute.BodyVelocity)
	b.AngularVelocity = getVec(r, compute.BodyAngularVelocity)
	o := compute.BodyOrientation
	b.Orientation = mgl64.Quat{
		W: float64(r[o+3]),
		V: mgl64.Vec3{float64(r[o]), float64(r[o+1]), float64(r[o+2])},
	}.Normalize()
}

func putVec(r []float32, at int, v mgl64.Vec3) {
	r[at], r[at+1], r[at+2] = float32(v[0]), float32(v[1]), float32(v[2])
}

func getVec(r []float32, at int) mgl64.Vec3 {
	return mgl64.Vec3{float64(r[at]), float64(r[at+1]), float64(r[at+2])}
}
