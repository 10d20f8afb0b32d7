package sim

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Ensemble steps independent simulations side by side, one goroutine per
// member per tick. Members share nothing but may share a stateless
// backend.
type Ensemble struct {
	members []*Simulation
}

// NewEnsemble builds n members with build(i); i is typically folded into a
// scene seed.
func NewEnsemble(n int, build func(i int) (*Simulation, error)) (*Ensemble, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: ensemble size %d", ErrInvalidParams, n)
	}
	e := &Ensemble{members: make([]*Simulation, n)}
	for i := range e.members {
		s, err := build(i)
		if err != nil {
			return nil, fmt.Errorf("ensemble member %d: %w", i, err)
		}
		e.members[i] = s
	}
	return e, nil
}

func (e *Ensemble) Size() int                { return len(e.members) }
func (e *Ensemble) Member(i int) *Simulation { return e.members[i] }
func (e *Ensemble) Members() []*Simulation   { return e.members }

// Step advances every member by one tick.
func (e *Ensemble) Step(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var g errgroup.Group
	for i, s := range e.members {
		i, s := i, s
		g.Go(func() error {
			if err := s.Step(); err != nil {
				return fmt.Errorf("ensemble member %d: %w", i, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Run runs every member for steps ticks of dt and returns each member's
// designated body.
func (e *Ensemble) Run(ctx context.Context, dt float64, steps int) ([]BodySnapshot, error) {
	out := make([]BodySnapshot, len(e.members))
	g, ctx := errgroup.WithContext(ctx)
	for i, s := range e.members {
		i, s := i, s
		g.Go(func() error {
			snap, err := s.RunContext(ctx, dt, steps)
			if err != nil {
				return fmt.Errorf("ensemble member %d: %w", i, err)
			}
			out[i] = snap
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Observations returns every member's observation vector.
func (e *Ensemble) Observations() [][]float64 {
	out := make([][]float64, len(e.members))
	for i, s := range e.members {
		out[i] = s.Observation()
	}
	return out
}

func (e *Ensemble) Reset() {
	for _, s := range e.members {
		s.Reset()
	}
}
