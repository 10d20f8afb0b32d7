package compute

import (
	"fmt"
	"math"
)

// Fixture returns deterministic bindings for k sized for n elements, or n
// body records for the physics kernels. Values are positive so that log
// and sqrt stay finite.
func Fixture(k Kernel, n int) []View {
	n = max(n, 1)
	ramp := func(count int, base float32) []float32 {
		out := make([]float32, count)
		for i := range out {
			out[i] = base + float32(i%17)*0.25
		}
		return out
	}

	switch k {
	case KernelAdd, KernelSub, KernelMul, KernelDiv, KernelMax, KernelMin:
		return []View{ViewFromFloat32(ramp(n, 0.5)), ViewFromFloat32(ramp(n, 1)), Placeholder(n)}
	case KernelScale:
		return []View{ViewFromFloat32(ramp(n, 0.5)), Placeholder(n), ViewFromFloat32([]float32{2.5})}
	case KernelReduceSum, KernelReduceMean, KernelReduceMax:
		return []View{ViewFromFloat32(ramp(n*4, 0.5), n, 4), Placeholder(n)}
	case KernelMatMul:
		side := max(int(math.Sqrt(float64(n))), 1)
		return []View{
			ViewFromFloat32(ramp(side*side, 0.5), side, side),
			ViewFromFloat32(ramp(side*side, 1), side, side),
			Placeholder(side, side),
		}
	case KernelRandomUniform:
		return []View{Placeholder(n), RandomConfig(7, -1, 1)}
	case KernelRandomNormal:
		return []View{Placeholder(n), RandomConfig(7, 0, 1)}
	case KernelExpandInstances:
		return []View{
			ViewFromFloat32(fixtureBodies(1), 1, BodyStride),
			Placeholder(n, BodyStride),
			ExpandConfig(n, 1.5, 0, 0),
		}
	case KernelIntegrateBodies:
		return []View{ViewFromFloat32(fixtureBodies(n), n, BodyStride), Vec4Config(0, -9.81, 0, 0.01)}
	case KernelDetectContactsSDF:
		return []View{
			ViewFromFloat32(fixtureBodies(n), n, BodyStride),
			Vec4Config(0, 1, 0, 0),
			Placeholder(n * ContactStride),
		}
	case KernelSolveContactsPBD:
		bodies := fixtureBodies(n)
		contacts := make([]float32, n*ContactStride)
		for i := 0; i < n; i++ {
			c := contacts[i*ContactStride:]
			c[ContactBody] = -1
			if depth := 0.5 - bodies[i*BodyStride+1]; depth > 0 {
				c[ContactBody] = float32(i)
				c[ContactDepth] = depth
				c[ContactNormal+1] = 1
			}
		}
		return []View{
			ViewFromFloat32(bodies, n, BodyStride),
			ViewFromFloat32(contacts),
			Vec4Config(0.01, 0.8, 0.5, 0),
		}
	case KernelSolveJointsPBD:
		joints := make([]float32, 0, (n-1)*JointStride)
		for i := 0; i+1 < n; i++ {
			j := make([]float32, JointStride)
			j[JointBodyA], j[JointBodyB] = float32(i), float32(i+1)
			j[JointCode] = JointDistance
			j[JointRest] = 1
			joints = append(joints, j...)
		}
		return []View{
			ViewFromFloat32(fixtureBodies(n), n, BodyStride),
			ViewFromFloat32(joints),
			ViewFromFloat32([]float32{0.01}),
		}
	default:
		if k >= 0 && k < kernelCount {
			return []View{ViewFromFloat32(ramp(n, 0.5)), Placeholder(n)}
		}
		return nil
	}
}

// fixtureBodies lays n unit spheres along x, alternating between resting
// slightly inside the ground plane and falling.
func fixtureBodies(n int) []float32 {
	data := make([]float32, n*BodyStride)
	for i := 0; i < n; i++ {
		r := data[i*BodyStride : (i+1)*BodyStride]
		r[BodyPosition] = float32(i) * 1.2
		r[BodyPosition+1] = 0.45 + float32(i%2)
		r[BodyInvMass] = 1
		r[BodyVelocity+1] = -1
		r[BodyShape] = ShapeSphere
		r[BodyRadius] = 0.5
		r[BodyOrientation+3] = 1
		r[BodyFriction] = 0.5
	}
	return data
}

// ParityResult compares one kernel between a backend and the reference.
type ParityResult struct {
	Kernel  Kernel
	MaxDiff float64
	Skipped bool
	Err     error
}

// Compare dispatches k with the same bindings on ref and b and returns the
// largest absolute difference over every output element.
func Compare(ref, b Backend, k Kernel, bindings []View) (float64, error) {
	wg := Workgroups(bindings[0].Len())
	want, err := ref.Dispatch(k, bindings, wg)
	if err != nil {
		return 0, fmt.Errorf("%s on %s: %w", k, ref.Name(), err)
	}
	got, err := b.Dispatch(k, bindings, wg)
	if err != nil {
		return 0, fmt.Errorf("%s on %s: %w", k, b.Name(), err)
	}
	if len(got) != len(want) {
		return 0, fmt.Errorf("%s: %s returned %d outputs, %s returned %d", k, b.Name(), len(got), ref.Name(), len(want))
	}

	var diff float64
	for i := range want {
		w, g := BytesFloat32(want[i]), BytesFloat32(got[i])
		if len(w) != len(g) {
			return 0, fmt.Errorf("%s: output %d holds %d floats, want %d", k, i, len(g), len(w))
		}
		for j := range w {
			diff = math.Max(diff, math.Abs(float64(w[j])-float64(g[j])))
		}
	}
	return diff, nil
}

// Parity runs every catalog kernel on b and on the CPU reference. Kernels
// b does not support, or every kernel when b is unavailable, are marked
// Skipped.
func Parity(b Backend, n int) []ParityResult {
	ref := NewCPUBackend()
	out := make([]ParityResult, 0, kernelCount)
	for _, k := range Catalog() {
		res := ParityResult{Kernel: k}
		if !b.Available() || !Supports(b, k) {
			res.Skipped = true
		} else {
			res.MaxDiff, res.Err = Compare(ref, b, k, Fixture(k, n))
		}
		out = append(out, res)
	}
	return out
}
