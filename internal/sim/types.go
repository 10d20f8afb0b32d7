package sim

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/jaxs-ribs/arena-sub001/internal/physics"
)

// Pipeline selects how a tick is computed.
type Pipeline int

const (
	// PipelineDirect runs integration, detection and both solvers on
	// physics.Body values in float64.
	PipelineDirect Pipeline = iota
	// PipelineKernels packs bodies into f32 records and runs integration,
	// plane contacts and joints as backend kernel dispatches. Body-body
	// contacts still go through the grid and the impulse solver.
	PipelineKernels
)

func (p Pipeline) String() string {
	if p == PipelineKernels {
		return "kernels"
	}
	return "direct"
}

func ParsePipeline(name string) (Pipeline, error) {
	switch name {
	case "", "direct":
		return PipelineDirect, nil
	case "kernels":
		return PipelineKernels, nil
	default:
		return 0, fmt.Errorf("%w: unknown pipeline %q", ErrInvalidParams, name)
	}
}

// Params are the global simulation parameters.
type Params struct {
	Gravity  mgl64.Vec3
	Dt       float64
	CellSize float64
	Bounds   physics.AABB
	Pipeline Pipeline
}

func DefaultParams() Params {
	return Params{
		Gravity:  mgl64.Vec3{0, -9.81, 0},
		Dt:       0.01,
		CellSize: 2,
		Bounds: physics.AABB{
			Min: mgl64.Vec3{-100, -100, -100},
			Max: mgl64.Vec3{100, 100, 100},
		},
		Pipeline: PipelineDirect,
	}
}

// BodySnapshot is a read-only copy of one body, shaped for renderers and
// serialization. Shape dimensions that do not apply to the kind are zero.
type BodySnapshot struct {
	Index           int        `json:"index"`
	Kind            string     `json:"kind"`
	Static          bool       `json:"static"`
	Mass            float64    `json:"mass"`
	Position        mgl64.Vec3 `json:"position"`
	Velocity        mgl64.Vec3 `json:"velocity"`
	AngularVelocity mgl64.Vec3 `json:"angular_velocity"`
	Force           mgl64.Vec3 `json:"force"`
	Orientation     [4]float64 `json:"orientation"`
	Radius          float64    `json:"radius,omitempty"`
	HalfHeight      float64    `json:"half_height,omitempty"`
	HalfExtents     mgl64.Vec3 `json:"half_extents"`
	Normal          mgl64.Vec3 `json:"normal"`
	Offset          float64    `json:"offset,omitempty"`
}

func snapshot(i int, b *physics.Body, force mgl64.Vec3) BodySnapshot {
	s := BodySnapshot{
		Index:           i,
		Kind:            b.Kind().String(),
		Static:          b.Static(),
		Mass:            b.Mass,
		Position:        b.Position,
		Velocity:        b.Velocity,
		AngularVelocity: b.AngularVelocity,
		Force:           force,
		Orientation:     [4]float64{b.Orientation.V[0], b.Orientation.V[1], b.Orientation.V[2], b.Orientation.W},
	}
	switch sh := b.Shape.(type) {
	case physics.Sphere:
		s.Radius = sh.Radius
	case physics.Box:
		s.HalfExtents = sh.HalfExtents
	case physics.Cylinder:
		s.Radius, s.HalfHeight = sh.Radius, sh.HalfHeight
	case physics.Plane:
		s.Normal, s.Offset = sh.Normal, sh.Offset
	}
	return s
}

// UnsupportedPair is a broad-phase candidate the narrow phase could not
// test.
type UnsupportedPair struct {
	A, B  int
	KindA physics.Kind
	KindB physics.Kind
}

// StepReport summarizes the collision work of the last tick.
type StepReport struct {
	Tick        int
	Time        float64
	Candidates  int
	Contacts    []physics.Contact
	Unsupported []UnsupportedPair
	// MaxDepth is the deepest penetration found before resolution.
	MaxDepth float64
}

// Frame is what observers see after every tick.
type Frame struct {
	Tick   int
	Time   float64
	Bodies []BodySnapshot
	Report StepReport
}

type Observer interface {
	OnStep(f Frame)
}

type Metric interface {
	Name() string
	Observe(f Frame)
	Value() float64
	Reset()
}
