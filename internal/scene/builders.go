package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/jaxs-ribs/arena-sub001/internal/compute"
	"github.com/jaxs-ribs/arena-sub001/internal/config"
	"github.com/jaxs-ribs/arena-sub001/internal/physics"
	"github.com/jaxs-ribs/arena-sub001/internal/sim"
)

var up = mgl64.Vec3{0, 1, 0}

func ground(s *sim.Simulation) error {
	_, err := s.AddPlane(up, 0)
	return err
}

// buildDrop: one sphere of Radius and Mass at Height over the ground.
func buildDrop(s *sim.Simulation, p config.SceneParams, _ int64) error {
	if err := ground(s); err != nil {
		return err
	}
	i, err := s.AddSphere(mgl64.Vec3{0, p.Height, 0}, p.Radius, p.Mass)
	if err != nil {
		return err
	}
	return s.Designate(i)
}

// buildChain: Count spheres along x at Height, Spacing apart, linked by
// distance joints of length Spacing, falling onto the ground.
func buildChain(s *sim.Simulation, p config.SceneParams, _ int64) error {
	if err := ground(s); err != nil {
		return err
	}
	prev := -1
	for i := 0; i < max(p.Count, 1); i++ {
		idx, err := s.AddSphere(mgl64.Vec3{float64(i) * p.Spacing, p.Height, 0}, p.Radius, p.Mass)
		if err != nil {
			return err
		}
		if prev >= 0 {
			if _, err := s.AddDistanceJoint(prev, idx, p.Spacing); err != nil {
				return err
			}
		} else if err := s.Designate(idx); err != nil {
			return err
		}
		prev = idx
	}
	return nil
}

// buildStack: Count cubes of half extent Radius resting on each other. The
// top cube is designated.
func buildStack(s *sim.Simulation, p config.SceneParams, _ int64) error {
	if err := ground(s); err != nil {
		return err
	}
	h := p.Radius
	top := -1
	for i := 0; i < max(p.Count, 1); i++ {
		y := h + float64(i)*(2*h+0.01)
		idx, err := s.AddBox(mgl64.Vec3{0, y, 0}, mgl64.Vec3{h, h, h}, p.Mass)
		if err != nil {
			return err
		}
		top = idx
	}
	return s.Designate(top)
}

// buildPile: Count spheres in layers over the ground, laid out by the
// backend's expand_instances kernel and jittered in x and z by its
// random_uniform kernel, so the layout follows seed.
func buildPile(s *sim.Simulation, p config.SceneParams, seed int64) error {
	if err := ground(s); err != nil {
		return err
	}
	n := max(p.Count, 1)
	side := int(math.Ceil(math.Cbrt(float64(n))))
	layers := (n + side*side - 1) / (side * side)
	pitch := 2*p.Radius + 0.1

	layer := make([]float32, 0, side*side*3)
	for z := 0; z < side; z++ {
		for x := 0; x < side; x++ {
			layer = append(layer, float32(float64(x)*pitch), float32(p.Height), float32(float64(z)*pitch))
		}
	}
	b := s.Backend()
	out, err := dispatch(b, compute.KernelExpandInstances,
		compute.ViewFromFloat32(layer, side*side, 3),
		compute.Placeholder(layers*side*side, 3),
		compute.ExpandConfig(layers, 0, float32(pitch), 0))
	if err != nil {
		return err
	}
	positions := compute.BytesFloat32(out)

	jitter := 0.05 * float32(p.Radius)
	out, err = dispatch(b, compute.KernelRandomUniform,
		compute.Placeholder(n, 2),
		compute.RandomConfig(uint32(seed), -jitter, jitter))
	if err != nil {
		return err
	}
	offsets := compute.BytesFloat32(out)

	for i := 0; i < n; i++ {
		pos := mgl64.Vec3{
			float64(positions[3*i] + offsets[2*i]),
			float64(positions[3*i+1]),
			float64(positions[3*i+2] + offsets[2*i+1]),
		}
		if _, err := s.AddSphere(pos, p.Radius, p.Mass); err != nil {
			return err
		}
	}
	return nil
}

// buildMixed: one of every primitive, a static obstacle, and a box touching
// a cylinder, a pair with no contact test.
func buildMixed(s *sim.Simulation, p config.SceneParams, _ int64) error {
	if err := ground(s); err != nil {
		return err
	}
	ball, err := s.AddSphere(mgl64.Vec3{0, p.Height, 0}, p.Radius, p.Mass)
	if err != nil {
		return err
	}
	if _, err := s.AddBox(mgl64.Vec3{0, 0.5, 0}, mgl64.Vec3{1, 0.5, 1}, 0); err != nil {
		return err
	}
	if _, err := s.AddBox(mgl64.Vec3{3, p.Height, 0}, mgl64.Vec3{0.5, 0.5, 0.5}, p.Mass); err != nil {
		return err
	}
	if _, err := s.AddCylinder(mgl64.Vec3{-3, p.Height, 0}, 0.4, 0.6, p.Mass); err != nil {
		return err
	}
	tilted := sim.WithOrientation(mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 0, 1}))
	if _, err := s.AddCylinder(mgl64.Vec3{-3, p.Height + 2, 0}, 0.3, 0.8, p.Mass, tilted); err != nil {
		return err
	}
	if _, err := s.AddBox(mgl64.Vec3{6, 0.5, 0}, mgl64.Vec3{0.5, 0.5, 0.5}, p.Mass); err != nil {
		return err
	}
	if _, err := s.AddCylinder(mgl64.Vec3{6.9, 0.5, 0}, 0.5, 0.5, p.Mass,
		sim.WithMaterial(physics.Material{Friction: 0.8, Restitution: 0.2})); err != nil {
		return err
	}
	return s.Designate(ball)
}

// buildPendulum: a static anchor at Height with Count links hanging off it
// horizontally, joined end to end by ball joints Spacing apart.
func buildPendulum(s *sim.Simulation, p config.SceneParams, _ int64) error {
	if err := ground(s); err != nil {
		return err
	}
	r := 0.3 * math.Min(p.Radius, p.Spacing)
	prev, err := s.AddSphere(mgl64.Vec3{0, p.Height, 0}, r, 0)
	if err != nil {
		return err
	}
	half := mgl64.Vec3{p.Spacing / 2, 0, 0}
	for i := 1; i <= max(p.Count, 1); i++ {
		idx, err := s.AddSphere(mgl64.Vec3{float64(i) * p.Spacing, p.Height, 0}, r, p.Mass)
		if err != nil {
			return err
		}
		if _, err := s.AddBallJoint(prev, idx, half, half.Mul(-1)); err != nil {
			return err
		}
		prev = idx
	}
	return s.Designate(prev)
}

func dispatch(b compute.Backend, k compute.Kernel, bindings ...compute.View) ([]byte, error) {
	if !compute.Supports(b, k) {
		b = compute.NewCPUBackend()
	}
	out, err := b.Dispatch(k, bindings, compute.Workgroups(bindings[0].Len()))
	if err != nil {
		return nil, err
	}
	return out[0], nil
}
