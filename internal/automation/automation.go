package automation

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"time"

	"gonum.org/v1/gonum/spatial/r2"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/orbitsim/internal/config"
	"github.com/san-kum/orbitsim/internal/experiment"
	"github.com/san-kum/orbitsim/internal/logging"
	"github.com/san-kum/orbitsim/internal/metrics"
	"github.com/san-kum/orbitsim/internal/sim"
	"github.com/san-kum/orbitsim/internal/storage"
)

// Scenario defines a scripted sequence of runs.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep starts from a preset or an inline config and applies numeric
// overrides by parameter name.
type ScenarioStep struct {
	Preset    string             `yaml:"preset,omitempty"`
	Config    *config.Config     `yaml:"config,omitempty"`
	Overrides map[string]float64 `yaml:"overrides,omitempty"`
	Method    string             `yaml:"method,omitempty"`
	Strategy  string             `yaml:"strategy,omitempty"`
	SaveAs    string             `yaml:"save_as,omitempty"`
}

// StepResult pairs a step with its outcome. RunID is empty unless the step
// was saved.
type StepResult struct {
	Name   string
	Result *sim.Result
	RunID  string
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", scenario.Name)
	}
	return &scenario, nil
}

func (s ScenarioStep) resolve() (*config.Config, error) {
	var cfg *config.Config
	switch {
	case s.Config != nil:
		cfg = s.Config.Clone()
	case s.Preset != "":
		cfg, _ = config.FindPreset(s.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset %q", s.Preset)
		}
	default:
		return nil, fmt.Errorf("step needs a preset or a config")
	}

	for name, v := range s.Overrides {
		if err := cfg.SetParam(name, v); err != nil {
			return nil, err
		}
	}
	if s.Strategy != "" {
		if err := cfg.SetStrategy(s.Strategy); err != nil {
			return nil, err
		}
	}
	if s.Method != "" {
		if err := cfg.SetMethod(s.Method); err != nil {
			return nil, err
		}
	}
	if s.SaveAs != "" {
		cfg.Name = s.SaveAs
	}
	return cfg, nil
}

// RunScenario executes the steps in order and stops at the first failure.
// Steps with SaveAs are written to st when st is non-nil.
func RunScenario(ctx context.Context, scenario *Scenario, cat *config.Catalog, st *storage.Store) ([]StepResult, error) {
	log := logging.Log.WithName("scenario").WithValues("scenario", scenario.Name)
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		cfg, err := step.resolve()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		log.Info("running step", "step", i+1, "of", len(scenario.Steps), "name", cfg.Name)

		exp := experiment.New(cfg, experiment.WithCatalog(cat))
		if err := exp.Setup(); err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}

		result, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		sr := StepResult{Name: cfg.Name, Result: result}
		if step.SaveAs != "" && st != nil {
			sys := exp.System()
			meta := storage.NewMetadata(cfg.Name, cfg.Strategy, sys.Gravity.G, sys.Names, sys.Masses, cfg.SimConfig(), result)
			if sr.RunID, err = st.Save(meta, result.Trajectory); err != nil {
				return results, fmt.Errorf("step %d save: %w", i+1, err)
			}
		}
		results = append(results, sr)
	}

	return results, nil
}

// MonteCarloConfig perturbs the initial velocities of a config to measure how
// robust its orbits are.
type MonteCarloConfig struct {
	Base *config.Config
	// Perturbation is the relative velocity perturbation; each component is
	// scaled by a factor drawn uniformly from [1-p, 1+p].
	Perturbation float64
	NumTrials    int
	// EscapeRadius bounds a stable trial. Zero uses three times the widest
	// initial distance from the origin.
	EscapeRadius float64
	Seed         int64
}

type MonteCarloResult struct {
	TrialID     int
	EnergyDrift float64
	MaxRadius   float64
	Stable      bool
}

func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig, cat *config.Catalog) ([]MonteCarloResult, error) {
	if cfg.NumTrials < 1 {
		return nil, fmt.Errorf("need at least one trial")
	}
	if cat == nil {
		cat = config.DefaultCatalog()
	}

	base, err := cfg.Base.Build(cat)
	if err != nil {
		return nil, err
	}
	nb, err := base.NBody()
	if err != nil {
		return nil, err
	}

	radius := cfg.EscapeRadius
	if radius <= 0 {
		for i := range base.Names {
			radius = math.Max(radius, r2.Norm(base.State.Position(i)))
		}
		radius *= 3
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	log := logging.Log.WithName("montecarlo")

	results := make([]MonteCarloResult, 0, cfg.NumTrials)
	for trial := 0; trial < cfg.NumTrials; trial++ {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		x0 := base.State.Clone()
		for i := range base.Names {
			v := x0.Velocity(i)
			v.X *= 1 + (rng.Float64()-0.5)*2*cfg.Perturbation
			v.Y *= 1 + (rng.Float64()-0.5)*2*cfg.Perturbation
			x0.SetVelocity(i, v)
		}

		stability := metrics.NewStability(radius)
		s := sim.New(nb)
		s.AddMetric(stability)

		res, err := s.Run(cfg.Base.Strategy, x0, cfg.Base.SimConfig())
		if err != nil {
			return results, fmt.Errorf("trial %d: %w", trial, err)
		}

		results = append(results, MonteCarloResult{
			TrialID:     trial,
			EnergyDrift: res.EnergyDrift,
			MaxRadius:   stability.MaxRadius(),
			Stable:      stability.Value() == 1 && !res.Diverged,
		})

		if (trial+1)%10 == 0 {
			log.V(logging.DEBUG).Info("trials complete", "done", trial+1, "total", cfg.NumTrials)
		}
	}

	return results, nil
}

func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}
