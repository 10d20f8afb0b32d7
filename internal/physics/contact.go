package physics

import "github.com/go-gl/mathgl/mgl64"

// Contact is one touching point between bodies A and B. Normal is unit
// length and points from A to B; Depth is the penetration, never negative.
type Contact struct {
	A, B        int
	Point       mgl64.Vec3
	Normal      mgl64.Vec3
	Depth       float64
	Friction    float64
	Restitution float64
}

// Outcome is the result of one narrow-phase test.
type Outcome int

const (
	// Miss means the shapes do not touch.
	Miss Outcome = iota
	// Hit means the returned contact is valid.
	Hit
	// Unsupported means no detector covers this pair of kinds.
	Unsupported
)

func (o Outcome) String() string {
	switch o {
	case Miss:
		return "miss"
	case Hit:
		return "hit"
	default:
		return "unsupported"
	}
}
