package experiment

import (
	"context"
	"testing"

	"github.com/san-kum/orbitsim/internal/config"
	"github.com/san-kum/orbitsim/internal/sim"
)

func binary(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.GetPreset("two-body", "binary")
	if cfg == nil {
		t.Fatal("binary preset missing")
	}
	cfg.Duration = 5
	cfg.Dt = 0.25
	return cfg
}

func TestExperimentRun(t *testing.T) {
	calls := 0
	exp := New(binary(t), WithProgress(func(step, total int, tm float64) { calls++ }))
	if err := exp.Setup("energy"); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	res, err := exp.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Trajectory.Len() != 21 {
		t.Errorf("expected 21 samples, got %d", res.Trajectory.Len())
	}
	if res.EnergyDrift > 1e-6 {
		t.Errorf("energy drift too large: %g", res.EnergyDrift)
	}
	for _, name := range []string{"energy", "energy_drift", "momentum_drift", "min_separation"} {
		if _, ok := res.Metrics[name]; !ok {
			t.Errorf("missing metric %s", name)
		}
	}
	if calls == 0 {
		t.Error("progress callback never called")
	}
}

func TestExperimentFixedStrategyUsesStepper(t *testing.T) {
	cfg := binary(t)
	if cfg.Method != "rk45" {
		t.Fatalf("binary preset method = %q, want rk45", cfg.Method)
	}
	cfg.Strategy = sim.StrategyFixed

	exp := New(cfg)
	if err := exp.Setup(); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	res, err := exp.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Method != "symplectic-euler" {
		t.Errorf("fixed run used method %q, want symplectic-euler", res.Method)
	}
	if res.Trajectory.Len() != 20 {
		t.Errorf("expected 20 pre-step rows, got %d", res.Trajectory.Len())
	}
}

func TestExperimentNotSetup(t *testing.T) {
	exp := New(binary(t))
	if _, err := exp.Run(context.Background()); err == nil {
		t.Error("expected error before Setup")
	}
	if _, err := exp.Compare(context.Background(), []string{"rk4"}); err == nil {
		t.Error("expected error before Setup")
	}
}

func TestExperimentCancelled(t *testing.T) {
	exp := New(binary(t))
	if err := exp.Setup(); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := exp.Run(ctx); err == nil {
		t.Error("expected context error")
	}
}

func TestExperimentUnknownMetric(t *testing.T) {
	exp := New(binary(t))
	if err := exp.Setup("entropy"); err == nil {
		t.Error("expected unknown metric error")
	}
}

func TestExperimentCompare(t *testing.T) {
	exp := New(binary(t))
	if err := exp.Setup(); err != nil {
		t.Fatal(err)
	}

	methods := []string{"rk45", "leapfrog", "euler"}
	results, err := exp.Compare(context.Background(), methods)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if len(results) != len(methods) {
		t.Fatalf("expected %d results, got %d", len(methods), len(results))
	}
	for i, res := range results {
		if res.Method != methods[i] {
			t.Errorf("result %d: method %s, want %s", i, res.Method, methods[i])
		}
	}
	if results[2].EnergyDrift <= results[1].EnergyDrift {
		t.Errorf("explicit Euler should drift more than leapfrog: %g vs %g",
			results[2].EnergyDrift, results[1].EnergyDrift)
	}
}

func TestRegistryStrategyFor(t *testing.T) {
	r := NewRegistry()
	tests := []struct {
		method string
		want   string
	}{
		{"rk45", sim.StrategyAdaptive},
		{"rk23", sim.StrategyAdaptive},
		{"leapfrog", sim.StrategyFixed},
		{"symplectic-euler", sim.StrategyFixed},
	}
	for _, tt := range tests {
		got, err := r.StrategyFor(tt.method)
		if err != nil || got != tt.want {
			t.Errorf("StrategyFor(%s) = %s, %v; want %s", tt.method, got, err, tt.want)
		}
	}
	if _, err := r.StrategyFor("rk99"); err == nil {
		t.Error("expected error for unknown method")
	}
}

func TestRegistryLists(t *testing.T) {
	r := NewRegistry()
	if len(r.ListMethods()) != 7 {
		t.Errorf("expected 7 methods, got %v", r.ListMethods())
	}
	if len(r.ListMetrics()) != 6 {
		t.Errorf("expected 6 metrics, got %v", r.ListMetrics())
	}
	if _, err := r.GetMetric("stability", nil, 0); err == nil {
		t.Error("stability without radius should fail")
	}
}
