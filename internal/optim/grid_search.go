package optim

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/orbitsim/internal/config"
	"github.com/san-kum/orbitsim/internal/experiment"
)

// GridSearch evaluates every combination of run parameters (dt, rtol, ...)
// and keeps the one minimizing a result metric.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("%d parameters but %d ranges", len(params), len(ranges))
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, fmt.Errorf("parameter %s has no values", params[i])
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Point is one evaluated combination. Err is set when the run failed; such
// points never win.
type Point struct {
	Params map[string]float64
	Value  float64
	Err    error
}

// Search runs base with each parameter combination applied. metric names a
// result metric, or "energy_drift" for the relative energy drift.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, metric string, opts ...experiment.Option) (best Point, all []Point, err error) {
	best = Point{Value: math.Inf(1)}

	err = g.searchRecursive(ctx, 0, make(map[string]float64), func(params map[string]float64) error {
		p := Point{Params: params, Value: math.Inf(1)}
		p.Value, p.Err = g.evaluate(ctx, base, params, metric, opts)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		all = append(all, p)
		if p.Err == nil && p.Value < best.Value {
			best = p
		}
		return nil
	})
	if err != nil {
		return best, all, err
	}
	if best.Params == nil {
		return best, all, fmt.Errorf("no parameter combination completed")
	}
	return best, all, nil
}

func (g *GridSearch) evaluate(ctx context.Context, base *config.Config, params map[string]float64, metric string, opts []experiment.Option) (float64, error) {
	cfg := base.Clone()
	for _, name := range sortedKeys(params) {
		if err := cfg.SetParam(name, params[name]); err != nil {
			return 0, err
		}
	}

	exp := experiment.New(cfg, opts...)
	if err := exp.Setup(); err != nil {
		return 0, err
	}
	result, err := exp.Run(ctx)
	if err != nil {
		return 0, err
	}
	if result.Diverged {
		return 0, fmt.Errorf("run diverged at sample %d", result.FirstNonFinite)
	}

	if metric == "energy_drift" {
		return result.EnergyDrift, nil
	}
	v, ok := result.Metrics[metric]
	if !ok {
		return 0, fmt.Errorf("result has no metric %q", metric)
	}
	return v, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	visit func(map[string]float64) error,
) error {
	if depth == len(g.paramNames) {
		return visit(current)
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, visit); err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
