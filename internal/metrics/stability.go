package metrics

import (
	"math"

	"github.com/jaxs-ribs/arena-sub001/internal/sim"
)

// MaxPenetration is the deepest contact seen before resolution, over all
// observed ticks.
type MaxPenetration struct {
	name  string
	depth float64
}

func NewMaxPenetration() *MaxPenetration {
	return &MaxPenetration{name: "max_penetration"}
}

func (m *MaxPenetration) Name() string { return m.name }

func (m *MaxPenetration) Observe(f sim.Frame) {
	m.depth = math.Max(m.depth, f.Report.MaxDepth)
}

func (m *MaxPenetration) Value() float64 { return m.depth }
func (m *MaxPenetration) Reset()         { m.depth = 0 }

// ContactRate is the mean number of resolved contacts per tick.
type ContactRate struct {
	name     string
	contacts int
	samples  int
}

func NewContactRate() *ContactRate {
	return &ContactRate{name: "contact_rate"}
}

func (c *ContactRate) Name() string { return c.name }

func (c *ContactRate) Observe(f sim.Frame) {
	c.contacts += len(f.Report.Contacts)
	c.samples++
}

func (c *ContactRate) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return float64(c.contacts) / float64(c.samples)
}

func (c *ContactRate) Reset() {
	c.contacts = 0
	c.samples = 0
}

// Unsupported counts candidate pairs skipped for lack of a detector.
type Unsupported struct {
	name  string
	count int
}

func NewUnsupported() *Unsupported {
	return &Unsupported{name: "unsupported_pairs"}
}

func (u *Unsupported) Name() string { return u.name }

func (u *Unsupported) Observe(f sim.Frame) {
	u.count += len(f.Report.Unsupported)
}

func (u *Unsupported) Value() float64 { return float64(u.count) }
func (u *Unsupported) Reset()         { u.count = 0 }

// Stability is the fraction of ticks in which every moving body stayed
// finite and within threshold of the origin.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(f sim.Frame) {
	s.samples++
	for _, b := range f.Bodies {
		if b.Static {
			continue
		}
		d := b.Position.Len()
		if math.IsNaN(d) || d > s.threshold {
			s.violations++
			break
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
