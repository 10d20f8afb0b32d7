package control

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/jaxs-ribs/arena-sub001/internal/sim"
)

// PID holds Body at height Target by writing a vertical force. The output
// is an acceleration, scaled by mass and added to gravity compensation.
// The derivative term acts on measured velocity rather than on the error,
// so setpoint changes do not kick.
type PID struct {
	Kp     float64
	Ki     float64
	Kd     float64
	Target float64
	// Body is the controlled body; negative means the designated body.
	Body int

	integral float64
}

func NewPID(kp, ki, kd, target float64) *PID {
	return &PID{
		Kp:     kp,
		Ki:     ki,
		Kd:     kd,
		Target: target,
		Body:   -1,
	}
}

func (p *PID) Name() string { return "pid" }

func (p *PID) Apply(s *sim.Simulation) error {
	body := p.Body
	if body < 0 {
		body = s.Designated()
	}
	b, err := s.Snapshot(body)
	if err != nil {
		return err
	}
	if b.Static {
		return nil
	}
	dt := s.Params().Dt
	e := p.Target - b.Position.Y()
	p.integral += e * dt
	accel := p.Kp*e + p.Ki*p.integral - p.Kd*b.Velocity.Y()
	lift := -s.Params().Gravity.Y() + accel
	return s.SetForce(body, mgl64.Vec3{0, b.Mass * lift, 0})
}

// Reset clears the integral term.
func (p *PID) Reset() {
	p.integral = 0
}

// GetParams returns tunable parameters for live adjustment
func (p *PID) GetParams() map[string]float64 {
	return map[string]float64{
		"Kp":     p.Kp,
		"Ki":     p.Ki,
		"Kd":     p.Kd,
		"Target": p.Target,
	}
}

// SetParam adjusts a PID parameter
func (p *PID) SetParam(name string, value float64) {
	switch name {
	case "Kp":
		p.Kp = value
	case "Ki":
		p.Ki = value
	case "Kd":
		p.Kd = value
	case "Target":
		p.Target = value
	}
}
