package physics

import (
	"math"
)

const (
	DefaultSlop               = 0.01
	DefaultCorrectionPercent  = 0.8
	DefaultPositionIterations = 20
)

// ContactSolver resolves contacts with one velocity impulse per contact
// followed by Baumgarte position correction.
//
// Each position pass moves every pair by CorrectionPercent of its
// penetration beyond Slop. Passes after the first re-run the pair's
// detector, and passes stop once every pair is within Slop or
// PositionIterations is reached.
type ContactSolver struct {
	Slop               float64
	CorrectionPercent  float64
	PositionIterations int
}

func NewContactSolver() ContactSolver {
	return ContactSolver{
		Slop:               DefaultSlop,
		CorrectionPercent:  DefaultCorrectionPercent,
		PositionIterations: DefaultPositionIterations,
	}
}

// Solve applies impulses and position correction for contacts in order.
// Contact indices refer into bodies.
func (s ContactSolver) Solve(bodies []Body, contacts []Contact) {
	for i := range contacts {
		s.applyImpulse(bodies, &contacts[i])
	}
	s.correctPositions(bodies, contacts)
}

func (s ContactSolver) applyImpulse(bodies []Body, c *Contact) {
	a, b := &bodies[c.A], &bodies[c.B]
	wa, wb := a.InverseMass(), b.InverseMass()
	w := wa + wb
	if w == 0 {
		return
	}

	rv := b.Velocity.Sub(a.Velocity)
	vn := rv.Dot(c.Normal)
	if vn > 0 {
		return
	}

	j := -(1 + c.Restitution) * vn / w
	impulse := c.Normal.Mul(j)
	a.Velocity = a.Velocity.Sub(impulse.Mul(wa))
	b.Velocity = b.Velocity.Add(impulse.Mul(wb))

	rv = b.Velocity.Sub(a.Velocity)
	tangent := rv.Sub(c.Normal.Mul(rv.Dot(c.Normal)))
	tl := tangent.Len()
	if tl < epsilon {
		return
	}
	// The impulse that stops sliding outright, capped by Coulomb's cone.
	jt := math.Min(tl/w, c.Friction*math.Abs(j))
	friction := tangent.Mul(jt / tl)
	a.Velocity = a.Velocity.Add(friction.Mul(wa))
	b.Velocity = b.Velocity.Sub(friction.Mul(wb))
}

func (s ContactSolver) correctPositions(bodies []Body, contacts []Contact) {
	passes := max(s.PositionIterations, 1)
	for pass := 0; pass < passes; pass++ {
		moved := false
		for i := range contacts {
			c := contacts[i]
			a, b := &bodies[c.A], &bodies[c.B]
			if pass > 0 {
				fresh, out := Collide(a, b)
				if out != Hit {
					continue
				}
				c.Normal, c.Depth = fresh.Normal, fresh.Depth
			}
			wa, wb := a.InverseMass(), b.InverseMass()
			w := wa + wb
			excess := c.Depth - s.Slop
			if w == 0 || excess <= 0 {
				continue
			}
			corr := c.Normal.Mul(excess * s.CorrectionPercent / w)
			a.Position = a.Position.Sub(corr.Mul(wa))
			b.Position = b.Position.Add(corr.Mul(wb))
			moved = true
		}
		if !moved {
			return
		}
	}
}
