package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/orbitsim/internal/dynamo"
	"github.com/san-kum/orbitsim/internal/integrators"
	"github.com/san-kum/orbitsim/internal/metrics"
	"github.com/san-kum/orbitsim/internal/sim"
)

type metricFactory func(sys dynamo.System, escapeRadius float64) (dynamo.Metric, error)

// Registry resolves method and metric names for experiments.
type Registry struct {
	metrics map[string]metricFactory
}

func NewRegistry() *Registry {
	r := &Registry{metrics: make(map[string]metricFactory)}

	r.metrics["energy"] = func(sys dynamo.System, _ float64) (dynamo.Metric, error) {
		h, ok := sys.(dynamo.Hamiltonian)
		if !ok {
			return nil, fmt.Errorf("metric energy: system has no energy")
		}
		return metrics.NewEnergy(h), nil
	}
	r.metrics["energy_drift"] = func(sys dynamo.System, _ float64) (dynamo.Metric, error) {
		h, ok := sys.(dynamo.Hamiltonian)
		if !ok {
			return nil, fmt.Errorf("metric energy_drift: system has no energy")
		}
		return metrics.NewEnergyDrift(h), nil
	}
	r.metrics["momentum_drift"] = func(sys dynamo.System, _ float64) (dynamo.Metric, error) {
		c, ok := sys.(dynamo.Conserved)
		if !ok {
			return nil, fmt.Errorf("metric momentum_drift: system has no momentum")
		}
		return metrics.NewMomentumDrift(c), nil
	}
	r.metrics["angular_momentum_drift"] = func(sys dynamo.System, _ float64) (dynamo.Metric, error) {
		c, ok := sys.(dynamo.Conserved)
		if !ok {
			return nil, fmt.Errorf("metric angular_momentum_drift: system has no angular momentum")
		}
		return metrics.NewAngularMomentumDrift(c), nil
	}
	r.metrics["min_separation"] = func(dynamo.System, float64) (dynamo.Metric, error) {
		return metrics.NewMinSeparation(), nil
	}
	r.metrics["stability"] = func(_ dynamo.System, radius float64) (dynamo.Metric, error) {
		if radius <= 0 {
			return nil, fmt.Errorf("metric stability: escape radius must be positive")
		}
		return metrics.NewStability(radius), nil
	}

	return r
}

func (r *Registry) GetMetric(name string, sys dynamo.System, escapeRadius float64) (dynamo.Metric, error) {
	fn, ok := r.metrics[name]
	if !ok {
		return nil, fmt.Errorf("unknown metric: %s", name)
	}
	return fn(sys, escapeRadius)
}

func (r *Registry) ListMetrics() []string {
	names := make([]string, 0, len(r.metrics))
	for name := range r.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) DefaultMetrics(sys dynamo.System, escapeRadius float64) []dynamo.Metric {
	return metrics.Defaults(sys, escapeRadius)
}

// StrategyFor picks the driver for a method name: adaptive pairs run
// continuously, everything else as a fixed-step stepper.
func (r *Registry) StrategyFor(method string) (string, error) {
	if _, err := integrators.LookupTableau(method); err == nil {
		return sim.StrategyAdaptive, nil
	}
	if _, err := integrators.NewStepper(method); err != nil {
		return "", err
	}
	return sim.StrategyFixed, nil
}

// ListMethods returns every fixed stepper and adaptive pair name.
func (r *Registry) ListMethods() []string {
	seen := make(map[string]bool)
	var names []string
	for _, n := range append(integrators.Steppers(), integrators.AdaptiveMethods()...) {
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names
}
