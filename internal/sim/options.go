package sim

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/jaxs-ribs/arena-sub001/internal/compute"
	"github.com/jaxs-ribs/arena-sub001/internal/integrators"
	"github.com/jaxs-ribs/arena-sub001/internal/logging"
	"github.com/jaxs-ribs/arena-sub001/internal/physics"
)

// Option configures a Simulation at construction.
type Option func(*Simulation)

// WithBackend sets the compute backend. Without it the CPU backend is used.
func WithBackend(b compute.Backend) Option {
	return func(s *Simulation) { s.backend = b }
}

func WithLogger(l logging.Logger) Option {
	return func(s *Simulation) { s.log = logging.OrNop(l) }
}

func WithIntegrator(i integrators.Integrator) Option {
	return func(s *Simulation) { s.integrator = i }
}

// WithStrictContacts makes Step fail on any candidate pair the narrow
// phase has no test for, instead of counting it in the report.
func WithStrictContacts() Option {
	return func(s *Simulation) { s.strict = true }
}

func WithGravity(g mgl64.Vec3) Option {
	return func(s *Simulation) { s.params.Gravity = g }
}

func WithDt(dt float64) Option {
	return func(s *Simulation) { s.params.Dt = dt }
}

// WithGrid sets the broad-phase cell size and world bounds.
func WithGrid(cellSize float64, bounds physics.AABB) Option {
	return func(s *Simulation) {
		s.params.CellSize = cellSize
		s.params.Bounds = bounds
	}
}

func WithSolver(cs physics.ContactSolver) Option {
	return func(s *Simulation) { s.contacts = cs }
}

func WithPipeline(p Pipeline) Option {
	return func(s *Simulation) { s.params.Pipeline = p }
}

func WithParams(p Params) Option {
	return func(s *Simulation) { s.params = p }
}

func WithObserver(o Observer) Option {
	return func(s *Simulation) { s.observers = append(s.observers, o) }
}

func WithMetric(m Metric) Option {
	return func(s *Simulation) { s.metrics = append(s.metrics, m) }
}

// BodyOption adjusts a body before it is added.
type BodyOption func(*physics.Body)

func WithVelocity(v mgl64.Vec3) BodyOption {
	return func(b *physics.Body) { b.Velocity = v }
}

func WithAngularVelocity(w mgl64.Vec3) BodyOption {
	return func(b *physics.Body) { b.AngularVelocity = w }
}

func WithOrientation(q mgl64.Quat) BodyOption {
	return func(b *physics.Body) { b.Orientation = q.Normalize() }
}

func WithMaterial(m physics.Material) BodyOption {
	return func(b *physics.Body) { b.Material = m }
}
