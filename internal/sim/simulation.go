package sim

import (
	"context"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/jaxs-ribs/arena-sub001/internal/broadphase"
	"github.com/jaxs-ribs/arena-sub001/internal/compute"
	"github.com/jaxs-ribs/arena-sub001/internal/integrators"
	"github.com/jaxs-ribs/arena-sub001/internal/logging"
	"github.com/jaxs-ribs/arena-sub001/internal/physics"
)

// Simulation owns a set of bodies and joints and advances them one fixed
// tick at a time: integrate, broad phase, narrow phase, contact solve,
// joint projection.
//
// A Simulation is not safe for concurrent use. Run independent
// simulations in parallel with an Ensemble.
type Simulation struct {
	params     Params
	backend    compute.Backend
	log        logging.Logger
	integrator integrators.Integrator
	contacts   physics.ContactSolver
	joints     physics.JointSolver
	grid       *broadphase.Grid

	bodies     []physics.Body
	initial    []physics.Body
	forces     []mgl64.Vec3
	jointList  []physics.Joint
	designated int

	tick   int
	time   float64
	report StepReport
	warned map[[2]physics.Kind]bool

	strict    bool
	observers []Observer
	metrics   []Metric

	fallback compute.Backend
	fellBack map[compute.Kernel]bool
	buffers  bufferPool
}

// New creates an empty simulation.
func New(opts ...Option) *Simulation {
	s := &Simulation{
		params:     DefaultParams(),
		log:        logging.NewNop(),
		integrator: integrators.NewSemiImplicitEuler(),
		contacts:   physics.NewContactSolver(),
		designated: -1,
		warned:     make(map[[2]physics.Kind]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.backend == nil {
		s.backend = compute.NewCPUBackend()
	}
	if s.params.CellSize <= 0 {
		s.params.CellSize = DefaultParams().CellSize
	}
	s.grid = broadphase.New(s.params.CellSize, s.params.Bounds)
	s.log.Debugf("simulation ready: backend=%s pipeline=%s integrator=%T dt=%g",
		s.backend.Name(), s.params.Pipeline, s.integrator, s.params.Dt)
	return s
}

// NewWithSingleSphere builds the canonical drop scene: a ground plane at
// y=0 and a unit-mass sphere of radius 0.5 at the given height.
func NewWithSingleSphere(height float64, opts ...Option) (*Simulation, error) {
	s := New(opts...)
	if _, err := s.AddPlane(mgl64.Vec3{0, 1, 0}, 0); err != nil {
		return nil, err
	}
	i, err := s.AddSphere(mgl64.Vec3{0, height, 0}, 0.5, 1)
	if err != nil {
		return nil, err
	}
	if err := s.Designate(i); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Simulation) Params() Params { return s.params }

// ContactSolver returns the solver settings in use.
func (s *Simulation) ContactSolver() physics.ContactSolver { return s.contacts }

func (s *Simulation) Backend() compute.Backend { return s.backend }
func (s *Simulation) Logger() logging.Logger   { return s.log }
func (s *Simulation) Tick() int                { return s.tick }
func (s *Simulation) Time() float64            { return s.time }
func (s *Simulation) BodyCount() int           { return len(s.bodies) }
func (s *Simulation) JointCount() int          { return len(s.jointList) }
func (s *Simulation) LastReport() StepReport   { return s.report }
func (s *Simulation) Metrics() []Metric        { return s.metrics }
func (s *Simulation) AddObserver(o Observer)   { s.observers = append(s.observers, o) }
func (s *Simulation) AddMetric(m Metric)       { s.metrics = append(s.metrics, m) }

func (s *Simulation) Joints() []physics.Joint {
	return append([]physics.Joint(nil), s.jointList...)
}

// Step advances the simulation by one tick of Params().Dt. A simulation
// with no bodies is left untouched: no clock advance, no observers. With
// dt == 0 nothing integrates and the tick reduces to contact and joint
// projection.
//
// With WithStrictContacts, a tick that met a pair without a contact test
// still completes, then returns a *StepError wrapping
// *physics.UnsupportedPairError.
func (s *Simulation) Step() error {
	if len(s.bodies) == 0 {
		return nil
	}
	if s.params.Dt < 0 {
		return fmt.Errorf("%w: dt %v", ErrInvalidParams, s.params.Dt)
	}
	s.report = StepReport{Tick: s.tick + 1, Time: s.time + s.params.Dt}
	var err error
	if s.params.Pipeline == PipelineKernels {
		err = s.stepKernels()
	} else {
		s.stepDirect()
	}
	if err != nil {
		return &StepError{Tick: s.tick, Time: s.time, Err: err}
	}
	s.tick++
	s.time += s.params.Dt
	s.notify()
	if s.strict && len(s.report.Unsupported) > 0 {
		u := s.report.Unsupported[0]
		return &StepError{Tick: s.report.Tick, Time: s.report.Time, Err: fmt.Errorf("bodies %d and %d: %w",
			u.A, u.B, &physics.UnsupportedPairError{A: u.KindA, B: u.KindB})}
	}
	return nil
}

func (s *Simulation) stepDirect() {
	dt := s.params.Dt
	for i := range s.bodies {
		b := &s.bodies[i]
		if b.Static() {
			continue
		}
		s.integrator.Step(b, s.params.Gravity, s.forces[i], dt)
	}
	s.collide(true)
	s.joints.Solve(s.bodies, s.jointList, dt)
}

// collide runs broad and narrow phase and resolves what it finds. With
// planes false, plane pairs are left to the caller.
func (s *Simulation) collide(planes bool) {
	pairs := s.candidates(planes)
	s.report.Candidates += len(pairs)
	var contacts []physics.Contact
	for _, p := range pairs {
		a, b := &s.bodies[p.A], &s.bodies[p.B]
		c, out := physics.Collide(a, b)
		switch out {
		case physics.Hit:
			c.A, c.B = p.A, p.B
			contacts = append(contacts, c)
			if c.Depth > s.report.MaxDepth {
				s.report.MaxDepth = c.Depth
			}
		case physics.Unsupported:
			s.unsupported(p.A, p.B)
		}
	}
	s.contacts.Solve(s.bodies, contacts)
	s.report.Contacts = append(s.report.Contacts, contacts...)
}

// candidates lists the pairs handed to the narrow phase: grid pairs with at
// least one moving body, then every moving body against every plane.
func (s *Simulation) candidates(planes bool) []broadphase.Pair {
	s.grid.Clear()
	var planeIdx []int
	for i := range s.bodies {
		b := &s.bodies[i]
		if b.Kind() == physics.KindPlane {
			planeIdx = append(planeIdx, i)
			continue
		}
		s.grid.Insert(i, b.Bounds())
	}
	var pairs []broadphase.Pair
	for _, p := range s.grid.Pairs() {
		if s.bodies[p.A].Static() && s.bodies[p.B].Static() {
			continue
		}
		if !s.bodies[p.A].Bounds().Overlaps(s.bodies[p.B].Bounds()) {
			continue
		}
		pairs = append(pairs, p)
	}
	if !planes {
		return pairs
	}
	for _, pl := range planeIdx {
		for i := range s.bodies {
			if s.bodies[i].Static() {
				continue
			}
			a, b := pl, i
			if b < a {
				a, b = b, a
			}
			pairs = append(pairs, broadphase.Pair{A: a, B: b})
		}
	}
	return pairs
}

func (s *Simulation) unsupported(a, b int) {
	ka, kb := s.bodies[a].Kind(), s.bodies[b].Kind()
	s.report.Unsupported = append(s.report.Unsupported, UnsupportedPair{A: a, B: b, KindA: ka, KindB: kb})
	key := [2]physics.Kind{min(ka, kb), max(ka, kb)}
	if s.warned[key] {
		return
	}
	s.warned[key] = true
	s.log.Warnf("no contact test for %s-%s pairs, skipping (first seen: bodies %d and %d)", key[0], key[1], a, b)
}

func (s *Simulation) notify() {
	if len(s.observers) == 0 && len(s.metrics) == 0 {
		return
	}
	f := Frame{Tick: s.tick, Time: s.time, Bodies: s.Snapshots(), Report: s.report}
	for _, m := range s.metrics {
		m.Observe(f)
	}
	for _, o := range s.observers {
		o.OnStep(f)
	}
}

// Run sets the timestep to dt, advances steps ticks and returns the
// designated body.
func (s *Simulation) Run(dt float64, steps int) (BodySnapshot, error) {
	return s.RunContext(context.Background(), dt, steps)
}

// RunContext is Run with cancellation, checked between ticks.
func (s *Simulation) RunContext(ctx context.Context, dt float64, steps int) (BodySnapshot, error) {
	if dt < 0 || steps < 0 {
		return BodySnapshot{}, fmt.Errorf("%w: dt %v steps %d", ErrInvalidParams, dt, steps)
	}
	if len(s.bodies) == 0 {
		return BodySnapshot{}, ErrNoBodies
	}
	s.params.Dt = dt
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return BodySnapshot{}, ctx.Err()
		default:
		}
		if err := s.Step(); err != nil {
			return BodySnapshot{}, err
		}
	}
	return s.Snapshot(s.Designated())
}

// Designate marks the body reported by Run and Observation.
func (s *Simulation) Designate(i int) error {
	if err := s.check(i); err != nil {
		return err
	}
	s.designated = i
	return nil
}

// Designated returns the designated body, defaulting to the first moving
// body, then to body 0. It returns -1 for an empty simulation.
func (s *Simulation) Designated() int {
	if s.designated >= 0 {
		return s.designated
	}
	for i := range s.bodies {
		if !s.bodies[i].Static() {
			return i
		}
	}
	if len(s.bodies) > 0 {
		return 0
	}
	return -1
}

func (s *Simulation) check(i int) error {
	if i < 0 || i >= len(s.bodies) {
		return fmt.Errorf("%w: %d (have %d)", ErrIndexOutOfRange, i, len(s.bodies))
	}
	return nil
}

func (s *Simulation) Snapshot(i int) (BodySnapshot, error) {
	if len(s.bodies) == 0 {
		return BodySnapshot{}, ErrNoBodies
	}
	if err := s.check(i); err != nil {
		return BodySnapshot{}, err
	}
	return snapshot(i, &s.bodies[i], s.forces[i]), nil
}

func (s *Simulation) Snapshots() []BodySnapshot {
	out := make([]BodySnapshot, len(s.bodies))
	for i := range s.bodies {
		out[i] = snapshot(i, &s.bodies[i], s.forces[i])
	}
	return out
}

// Body returns a copy of body i.
func (s *Simulation) Body(i int) (physics.Body, error) {
	if err := s.check(i); err != nil {
		return physics.Body{}, err
	}
	return s.bodies[i], nil
}

// Observation flattens position then velocity of every moving body, in
// index order, into one vector.
func (s *Simulation) Observation() []float64 {
	out := make([]float64, 0, 6*len(s.bodies))
	for i := range s.bodies {
		b := &s.bodies[i]
		if b.Static() {
			continue
		}
		out = append(out, b.Position[0], b.Position[1], b.Position[2],
			b.Velocity[0], b.Velocity[1], b.Velocity[2])
	}
	return out
}

// SetForce sets the external force applied to body i on every following
// tick until changed.
func (s *Simulation) SetForce(i int, f mgl64.Vec3) error {
	if err := s.check(i); err != nil {
		return err
	}
	s.forces[i] = f
	return nil
}

func (s *Simulation) Force(i int) (mgl64.Vec3, error) {
	if err := s.check(i); err != nil {
		return mgl64.Vec3{}, err
	}
	return s.forces[i], nil
}

func (s *Simulation) ClearForces() {
	for i := range s.forces {
		s.forces[i] = mgl64.Vec3{}
	}
}

// Reset restores every body to the state it was added with, clears forces,
// the clock and all metrics. Bodies and joints stay.
func (s *Simulation) Reset() {
	copy(s.bodies, s.initial)
	s.ClearForces()
	s.tick, s.time = 0, 0
	s.report = StepReport{}
	for _, m := range s.metrics {
		m.Reset()
	}
}
