package control

import "github.com/jaxs-ribs/arena-sub001/internal/sim"

type None struct{}

func NewNone() *None {
	return &None{}
}

func (*None) Name() string                { return "none" }
func (*None) Apply(*sim.Simulation) error { return nil }
func (*None) Reset()                      {}
