package control

import (
	"fmt"

	"github.com/jaxs-ribs/arena-sub001/internal/sim"
)

// Controller acts on a simulation once per tick, before Step.
type Controller interface {
	Name() string
	Apply(s *sim.Simulation) error
	Reset()
}

// New builds a controller by name acting on body.
func New(kind string, body int, kp, ki, kd, target float64) (Controller, error) {
	switch kind {
	case "", "none":
		return NewNone(), nil
	case "pid":
		p := NewPID(kp, ki, kd, target)
		p.Body = body
		return p, nil
	case "manual":
		m := NewManual()
		m.Body = body
		return m, nil
	default:
		return nil, fmt.Errorf("control: unknown controller %q", kind)
	}
}
