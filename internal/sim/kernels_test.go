package sim

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaxs-ribs/arena-sub001/internal/compute"
	"github.com/jaxs-ribs/arena-sub001/internal/physics"
)

// partialBackend implements no kernels, so every dispatch falls back.
type partialBackend struct {
	compute.Backend
	calls int
}

func (p *partialBackend) Name() string                 { return "partial" }
func (p *partialBackend) Supports(compute.Kernel) bool { return false }

func (p *partialBackend) Dispatch(compute.Kernel, []compute.View, [3]uint32) ([][]byte, error) {
	p.calls++
	return nil, errors.New("should not be called")
}

type failingBackend struct {
	compute.Backend
}

func (failingBackend) Name() string { return "failing" }

func (failingBackend) Dispatch(compute.Kernel, []compute.View, [3]uint32) ([][]byte, error) {
	return nil, compute.ErrBackendUnavailable
}

func TestKernelPipelineMatchesDirectFreeFall(t *testing.T) {
	direct, err := NewWithSingleSphere(10)
	require.NoError(t, err)
	kernels, err := NewWithSingleSphere(10, WithPipeline(PipelineKernels))
	require.NoError(t, err)

	want, err := direct.Run(0.01, 100)
	require.NoError(t, err)
	got, err := kernels.Run(0.01, 100)
	require.NoError(t, err)

	assert.InDelta(t, want.Position.Y(), got.Position.Y(), 1e-3)
	assert.InDelta(t, want.Velocity.Y(), got.Velocity.Y(), 1e-3)
	assert.Equal(t, 1, kernels.LastReport().Candidates)
}

func TestKernelPipelineDistanceJoint(t *testing.T) {
	s := New(WithPipeline(PipelineKernels), WithGravity(mgl64.Vec3{}))
	a, err := s.AddSphere(mgl64.Vec3{0, 0, 0}, 0.1, 1)
	require.NoError(t, err)
	b, err := s.AddSphere(mgl64.Vec3{3, 0, 0}, 0.1, 1)
	require.NoError(t, err)
	_, err = s.AddDistanceJoint(a, b, 2)
	require.NoError(t, err)

	_, err = s.Run(0, 1)
	require.NoError(t, err)
	pa, pb := s.bodies[a].Position, s.bodies[b].Position
	assert.InDelta(t, 2, pb.Sub(pa).Len(), 1e-5)
}

func TestKernelPipelineMatchesDirectJoints(t *testing.T) {
	tests := []struct {
		name string
		add  func(s *Simulation, a, b int) (int, error)
	}{
		{"fixed", func(s *Simulation, a, b int) (int, error) {
			return s.AddFixedJoint(a, b, mgl64.Vec3{1.5, 0, 0}, mgl64.Vec3{-1.5, 0, 0})
		}},
		{"revolute", func(s *Simulation, a, b int) (int, error) {
			return s.AddRevoluteJoint(a, b, mgl64.Vec3{1.5, 0, 0}, mgl64.Vec3{-1.5, 0, 0}, mgl64.Vec3{0, 1, 0})
		}},
		{"prismatic", func(s *Simulation, a, b int) (int, error) {
			return s.AddPrismaticJoint(a, b, mgl64.Vec3{1.5, 0, 0}, mgl64.Vec3{-1.5, 0, 0}, mgl64.Vec3{1, 0, 0})
		}},
	}
	build := func(t *testing.T, p Pipeline, add func(s *Simulation, a, b int) (int, error)) (*Simulation, int) {
		s := New(WithPipeline(p), WithGravity(mgl64.Vec3{}))
		a, err := s.AddBox(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0.5, 0.5, 0.5}, 0)
		require.NoError(t, err)
		b, err := s.AddBox(mgl64.Vec3{3, 0, 0}, mgl64.Vec3{0.5, 0.5, 0.5}, 1,
			WithAngularVelocity(mgl64.Vec3{4, 2, 0}))
		require.NoError(t, err)
		_, err = add(s, a, b)
		require.NoError(t, err)
		return s, b
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			direct, b := build(t, PipelineDirect, tt.add)
			kernels, _ := build(t, PipelineKernels, tt.add)
			for i := 0; i < 50; i++ {
				require.NoError(t, direct.Step())
				require.NoError(t, kernels.Step())
			}
			want, got := direct.bodies[b], kernels.bodies[b]
			assert.InDelta(t, 1.0, math.Abs(want.Orientation.Dot(got.Orientation)), 1e-4)
			for i := 0; i < 3; i++ {
				assert.InDelta(t, want.Position[i], got.Position[i], 1e-3)
			}
		})
	}
}

func TestKernelPipelinePlaneContactPointAfterIntegration(t *testing.T) {
	s := New(WithPipeline(PipelineKernels))
	_, err := s.AddPlane(mgl64.Vec3{0, 1, 0}, 0)
	require.NoError(t, err)
	_, err = s.AddSphere(mgl64.Vec3{0, 0.45, 0}, 0.5, 1, WithVelocity(mgl64.Vec3{10, 0, 0}))
	require.NoError(t, err)

	require.NoError(t, s.Step())
	contacts := s.LastReport().Contacts
	require.Len(t, contacts, 1)
	assert.InDelta(t, 0.1, contacts[0].Point.X(), 1e-5)
	assert.InDelta(t, 0, contacts[0].Point.Y(), 1e-6)
}

func TestKernelPipelineLeavesStaticBodies(t *testing.T) {
	s := New(WithPipeline(PipelineKernels))
	anchor, err := s.AddSphere(mgl64.Vec3{0.1, 5.3, 0.7}, 0.2, 0)
	require.NoError(t, err)
	_, err = s.AddSphere(mgl64.Vec3{0.1, 4, 0.7}, 0.2, 1)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		require.NoError(t, s.Step())
	}
	assert.Equal(t, mgl64.Vec3{0.1, 5.3, 0.7}, s.bodies[anchor].Position)
}

func TestKernelPipelineFallsBackToCPU(t *testing.T) {
	backend := &partialBackend{}
	s, err := NewWithSingleSphere(2, WithPipeline(PipelineKernels), WithBackend(backend))
	require.NoError(t, err)

	_, err = s.Run(0.01, 10)
	require.NoError(t, err)
	assert.Zero(t, backend.calls)
	assert.Len(t, s.fellBack, 2)
}

func TestKernelPipelineWrapsBackendErrors(t *testing.T) {
	s, err := NewWithSingleSphere(2, WithPipeline(PipelineKernels), WithBackend(failingBackend{}))
	require.NoError(t, err)

	err = s.Step()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBackend)
	assert.ErrorIs(t, err, compute.ErrBackendUnavailable)

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Zero(t, stepErr.Tick)
	var backendErr *BackendError
	require.ErrorAs(t, err, &backendErr)
	assert.Equal(t, "integrate_bodies", backendErr.Op)
	assert.Zero(t, s.Tick())
}

func TestPackBodyRoundTrip(t *testing.T) {
	b := physics.NewBody(physics.Box{HalfExtents: mgl64.Vec3{1, 2, 3}}, mgl64.Vec3{4, 5, 6}, 2)
	b.Velocity = mgl64.Vec3{-1, 0.5, 0}
	b.AngularVelocity = mgl64.Vec3{0, 1, 0}
	b.Orientation = mgl64.QuatRotate(0.3, mgl64.Vec3{0, 1, 0})
	b.Material = physics.Material{Friction: 0.25, Restitution: 0.5}

	r := make([]float32, compute.BodyStride)
	packBody(r, &b, mgl64.Vec3{7, 8, 9})
	assert.Equal(t, float32(compute.ShapeBox), r[compute.BodyShape])
	assert.Equal(t, float32(0.5), r[compute.BodyInvMass])
	assert.Equal(t, float32(3), r[compute.BodyHalfExtents+2])
	assert.Equal(t, float32(8), r[compute.BodyForce+1])
	assert.Equal(t, float32(0.25), r[compute.BodyFriction])

	var out physics.Body
	unpackBody(r, &out)
	assert.InDelta(t, 5, out.Position.Y(), 1e-6)
	assert.InDelta(t, -1, out.Velocity.X(), 1e-6)
	assert.InDelta(t, 1, out.AngularVelocity.Y(), 1e-6)
	assert.InDelta(t, b.Orientation.W, out.Orientation.W, 1e-6)
	assert.InDelta(t, b.Orientation.V.Y(), out.Orientation.V.Y(), 1e-6)
}

func TestBufferPoolZeroes(t *testing.T) {
	var p bufferPool
	buf := p.get(8)
	for i := range buf {
		buf[i] = 1
	}
	p.put(buf)
	again := p.get(4)
	assert.Len(t, again, 4)
	for _, v := range again {
		assert.Zero(t, v)
	}
}

func TestParsePipeline(t *testing.T) {
	p, err := ParsePipeline("kernels")
	require.NoError(t, err)
	assert.Equal(t, PipelineKernels, p)
	p, err = ParsePipeline("")
	require.NoError(t, err)
	assert.Equal(t, PipelineDirect, p)
	_, err = ParsePipeline("warp")
	assert.ErrorIs(t, err, ErrInvalidParams)
}
