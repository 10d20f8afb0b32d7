package control

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/jaxs-ribs/arena-sub001/internal/sim"
)

// Manual applies a force set from another goroutine, for interactive
// pushing. The force persists until changed or released.
type Manual struct {
	// Body is the pushed body; negative means the designated body.
	Body int

	mu    sync.Mutex
	force mgl64.Vec3
}

func NewManual() *Manual {
	return &Manual{Body: -1}
}

func (m *Manual) Name() string { return "manual" }

// Push adds f to the held force.
func (m *Manual) Push(f mgl64.Vec3) {
	m.mu.Lock()
	m.force = m.force.Add(f)
	m.mu.Unlock()
}

// Release drops the held force.
func (m *Manual) Release() {
	m.mu.Lock()
	m.force = mgl64.Vec3{}
	m.mu.Unlock()
}

func (m *Manual) Force() mgl64.Vec3 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.force
}

func (m *Manual) Apply(s *sim.Simulation) error {
	body := m.Body
	if body < 0 {
		body = s.Designated()
	}
	return s.SetForce(body, m.Force())
}

func (m *Manual) Reset() { m.Release() }
