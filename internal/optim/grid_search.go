// Package optim searches scene settings for the values that minimize a
// run metric.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/jaxs-ribs/arena-sub001/internal/config"
	"github.com/jaxs-ribs/arena-sub001/internal/logging"
	"github.com/jaxs-ribs/arena-sub001/internal/scene"
)

var ErrUnknownMetric = errors.New("optim: unknown metric")

// Trial is one evaluated combination.
type Trial struct {
	Params map[string]float64
	Value  float64
	Err    error
}

// GridSearch evaluates every combination of the given values.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	log        logging.Logger
}

func NewGridSearch(params []string, ranges [][]float64, log logging.Logger) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("optim: %d parameters but %d value lists", len(params), len(ranges))
	}
	scratch := config.DefaultConfig()
	for i, name := range params {
		if err := scratch.Set(name, 0); err != nil {
			return nil, err
		}
		if len(ranges[i]) == 0 {
			return nil, fmt.Errorf("optim: no values for %s", name)
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges, log: logging.OrNop(log)}, nil
}

// Search runs base with every combination applied and returns the trial
// with the smallest metric value plus every trial in evaluation order.
// Combinations whose config is invalid or whose run fails are recorded
// with Err and never win.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, metric string) (Trial, []Trial, error) {
	best := Trial{Value: math.Inf(1)}
	var trials []Trial
	err := g.searchRecursive(ctx, 0, make(map[string]float64), base, metric, &best, &trials)
	if err != nil {
		return Trial{}, trials, err
	}
	if best.Params == nil {
		return best, trials, fmt.Errorf("optim: every one of %d trials failed", len(trials))
	}
	return best, trials, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	base *config.Config,
	metric string,
	best *Trial,
	trials *[]Trial,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth == len(g.paramNames) {
		trial, err := g.evaluate(ctx, current, base, metric)
		if err != nil {
			return err
		}
		*trials = append(*trials, trial)
		if trial.Err == nil && trial.Value < best.Value {
			*best = trial
		}
		return nil
	}

	name := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		next := make(map[string]float64, len(current)+1)
		for k, v := range current {
			next[k] = v
		}
		next[name] = val
		if err := g.searchRecursive(ctx, depth+1, next, base, metric, best, trials); err != nil {
			return err
		}
	}
	return nil
}

// evaluate returns an error only for an unknown metric or a cancelled
// context; run failures land in Trial.Err.
func (g *GridSearch) evaluate(ctx context.Context, params map[string]float64, base *config.Config, metric string) (Trial, error) {
	trial := Trial{Params: params, Value: math.Inf(1)}
	cfg := base.Clone()
	for name, v := range params {
		if err := cfg.Set(name, v); err != nil {
			return trial, err
		}
	}

	exp, err := scene.New(cfg, g.log)
	if err != nil {
		trial.Err = err
		return trial, nil
	}
	defer exp.Close()

	result, err := exp.Run(ctx, max(cfg.Steps, 1))
	if err != nil {
		if ctx.Err() != nil {
			return trial, ctx.Err()
		}
		trial.Err = err
		return trial, nil
	}
	val, ok := result.Metrics[metric]
	if !ok {
		return trial, fmt.Errorf("%w: %q", ErrUnknownMetric, metric)
	}
	trial.Value = val
	g.log.Debugf("trial %v: %s = %.6g", params, metric, val)
	return trial, nil
}
