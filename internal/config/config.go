package config

import (
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/spatial/r2"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/orbitsim/internal/dynamo"
	"github.com/san-kum/orbitsim/internal/integrators"
	"github.com/san-kum/orbitsim/internal/physics"
	"github.com/san-kum/orbitsim/internal/sim"
)

const (
	DefaultDt       = 86400.0
	DefaultDuration = 3.156e7
	DefaultStrategy = sim.StrategyAdaptive
)

type Config struct {
	Name          string       `yaml:"name,omitempty"`
	Strategy      string       `yaml:"strategy"`
	Method        string       `yaml:"method"`
	G             float64      `yaml:"g,omitempty"`
	T0            float64      `yaml:"t0"`
	Duration      float64      `yaml:"duration"`
	Dt            float64      `yaml:"dt"`
	RTol          float64      `yaml:"rtol,omitempty"`
	ATol          float64      `yaml:"atol,omitempty"`
	MaxSteps      int          `yaml:"max_steps,omitempty"`
	ProgressEvery int          `yaml:"progress_every,omitempty"`
	EscapeRadius  float64      `yaml:"escape_radius,omitempty"`
	Bodies        []BodyConfig `yaml:"bodies"`
}

// BodyConfig places one body either by an explicit state or by an orbit
// around another body of the same config. A zero Mass is looked up in the
// catalog by Name.
type BodyConfig struct {
	Name     string       `yaml:"name"`
	Mass     float64      `yaml:"mass,omitempty"`
	Position [2]float64   `yaml:"position,flow"`
	Velocity [2]float64   `yaml:"velocity,flow"`
	Orbit    *OrbitConfig `yaml:"orbit,omitempty"`
}

// OrbitConfig starts a body at perihelion on the +x side of Central, moving
// in +y at the vis-viva speed. Zero distances take the catalog orbit of the
// body.
type OrbitConfig struct {
	Central    string  `yaml:"central"`
	Perihelion float64 `yaml:"perihelion,omitempty"`
	Aphelion   float64 `yaml:"aphelion,omitempty"`
	Unit       string  `yaml:"unit,omitempty"`
}

func DefaultConfig() *Config {
	return GetPreset("two-body", "earth-sun")
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{
		Strategy: DefaultStrategy,
		Dt:       DefaultDt,
		Duration: DefaultDuration,
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Gravity() physics.Gravity {
	if c.G > 0 {
		return physics.NewGravity(c.G)
	}
	return physics.DefaultGravity()
}

func (c *Config) Validate() error {
	switch c.Strategy {
	case sim.StrategyAdaptive, sim.StrategyFixed:
	default:
		return fmt.Errorf("%w: unknown strategy %q", dynamo.ErrConfiguration, c.Strategy)
	}
	if c.Strategy == sim.StrategyAdaptive {
		if _, err := integrators.LookupTableau(c.StepMethod()); err != nil {
			return err
		}
	} else if _, err := integrators.NewStepper(c.StepMethod()); err != nil {
		return err
	}
	if !(c.Dt > 0) || math.IsInf(c.Dt, 0) {
		return &dynamo.ConfigurationError{Field: "dt", Value: c.Dt, Reason: "must be positive and finite"}
	}
	if !(c.Duration > 0) || math.IsInf(c.Duration, 0) {
		return &dynamo.ConfigurationError{Field: "duration", Value: c.Duration, Reason: "must be positive and finite"}
	}
	if c.G < 0 || math.IsNaN(c.G) || math.IsInf(c.G, 0) {
		return &dynamo.ConfigurationError{Field: "G", Value: c.G, Reason: "must be positive and finite"}
	}
	if len(c.Bodies) == 0 {
		return fmt.Errorf("%w: no bodies", dynamo.ErrConfiguration)
	}
	seen := make(map[string]bool, len(c.Bodies))
	for i, b := range c.Bodies {
		if b.Name == "" {
			return fmt.Errorf("%w: body %d has no name", dynamo.ErrConfiguration, i)
		}
		if seen[b.Name] {
			return fmt.Errorf("%w: duplicate body %q", dynamo.ErrConfiguration, b.Name)
		}
		seen[b.Name] = true
	}
	for _, b := range c.Bodies {
		if b.Orbit != nil && !seen[b.Orbit.Central] {
			return fmt.Errorf("%w: body %q orbits unknown body %q", dynamo.ErrConfiguration, b.Name, b.Orbit.Central)
		}
		if b.Orbit != nil && b.Orbit.Central == b.Name {
			return fmt.Errorf("%w: body %q orbits itself", dynamo.ErrConfiguration, b.Name)
		}
	}
	return nil
}

// StepMethod is the method the driver runs. An empty Method takes the
// strategy's default. A fixed-step run never integrates with an adaptive
// pair: a pair name left over from an adaptive config, as after switching
// an adaptive preset to fixed, falls back to the default stepper.
func (c *Config) StepMethod() string {
	if c.Strategy == sim.StrategyFixed {
		if _, err := integrators.LookupTableau(c.Method); err == nil || c.Method == "" {
			return integrators.DefaultStepper
		}
		return c.Method
	}
	if c.Method == "" {
		return integrators.DormandPrince.Name
	}
	return c.Method
}

// SetStrategy switches between the adaptive and fixed drivers. Switching to
// fixed drops an adaptive pair name so the default stepper runs.
func (c *Config) SetStrategy(strategy string) error {
	switch strategy {
	case sim.StrategyAdaptive, sim.StrategyFixed:
		c.Strategy = strategy
		if strategy == sim.StrategyFixed {
			if _, err := integrators.LookupTableau(c.Method); err == nil {
				c.Method = ""
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown strategy %q", dynamo.ErrConfiguration, strategy)
	}
}

// SetMethod selects an integration method for the current strategy. An
// adaptive pair is rejected for a fixed-step run.
func (c *Config) SetMethod(method string) error {
	if c.Strategy == sim.StrategyFixed {
		if _, err := integrators.LookupTableau(method); err == nil {
			return fmt.Errorf("%w: method %q is adaptive and cannot drive a fixed-step run", dynamo.ErrConfiguration, method)
		}
	}
	c.Method = method
	return nil
}

// SimConfig converts the run section to a sim.Config, falling back to the
// simulator defaults for unset tolerances and limits.
func (c *Config) SimConfig() sim.Config {
	sc := sim.DefaultConfig()
	sc.T0 = c.T0
	sc.T1 = c.T0 + c.Duration
	sc.Dt = c.Dt
	sc.Method = c.StepMethod()
	if c.RTol > 0 {
		sc.RTol = c.RTol
	}
	if c.ATol > 0 {
		sc.ATol = c.ATol
	}
	if c.MaxSteps > 0 {
		sc.MaxSteps = c.MaxSteps
	}
	if c.ProgressEvery > 0 {
		sc.ProgressEvery = c.ProgressEvery
	}
	return sc
}

// System is a config resolved to masses and an initial state.
type System struct {
	Names   []string
	Masses  []float64
	State   dynamo.State
	Gravity physics.Gravity
}

func (s *System) NBody() (*physics.NBody, error) {
	return physics.NewNBody(s.Masses, physics.WithGravity(s.Gravity), physics.WithNames(s.Names...))
}

// Build resolves masses and orbits against cat. Orbiting bodies are placed
// relative to their central body, so chains like moon -> planet -> star
// resolve in dependency order regardless of listing order.
func (c *Config) Build(cat *Catalog) (*System, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if cat == nil {
		cat = DefaultCatalog()
	}

	n := len(c.Bodies)
	g := c.Gravity()
	sys := &System{
		Names:   make([]string, n),
		Masses:  make([]float64, n),
		State:   dynamo.NewState(n),
		Gravity: g,
	}

	index := make(map[string]int, n)
	for i, b := range c.Bodies {
		index[b.Name] = i
		sys.Names[i] = b.Name

		m := b.Mass
		if m == 0 {
			var err error
			if m, err = cat.Mass(b.Name); err != nil {
				return nil, err
			}
		}
		sys.Masses[i] = m
	}
	if err := dynamo.ValidateMasses(sys.Masses); err != nil {
		return nil, err
	}

	placed := make([]bool, n)
	for i, b := range c.Bodies {
		if b.Orbit == nil {
			sys.State.SetPosition(i, vec(b.Position))
			sys.State.SetVelocity(i, vec(b.Velocity))
			placed[i] = true
		}
	}

	for remaining := countFalse(placed); remaining > 0; {
		progress := false
		for i, b := range c.Bodies {
			if placed[i] {
				continue
			}
			ci := index[b.Orbit.Central]
			if !placed[ci] {
				continue
			}

			params, err := c.orbitParams(cat, b)
			if err != nil {
				return nil, err
			}
			pos, vel := physics.PerihelionState(g, sys.Masses[ci], params.Perihelion, params.Aphelion)
			sys.State.SetPosition(i, r2.Add(pos, sys.State.Position(ci)))
			sys.State.SetVelocity(i, r2.Add(vel, sys.State.Velocity(ci)))
			placed[i] = true
			remaining--
			progress = true
		}
		if !progress {
			return nil, fmt.Errorf("%w: orbit references form a cycle", dynamo.ErrConfiguration)
		}
	}

	return sys, nil
}

func (c *Config) orbitParams(cat *Catalog, b BodyConfig) (OrbitalParams, error) {
	o := b.Orbit
	if o.Perihelion == 0 && o.Aphelion == 0 {
		return cat.Orbit(b.Name)
	}
	aphelion := o.Aphelion
	if aphelion == 0 {
		aphelion = o.Perihelion
	}
	p, err := OrbitalParams{Perihelion: o.Perihelion, Aphelion: aphelion, Unit: o.Unit}.Normalize()
	if err != nil {
		return p, fmt.Errorf("orbit of %s: %w", b.Name, err)
	}
	return p, nil
}

func countFalse(bs []bool) int {
	n := 0
	for _, b := range bs {
		if !b {
			n++
		}
	}
	return n
}

func vec(xy [2]float64) r2.Vec { return r2.Vec{X: xy[0], Y: xy[1]} }

// SetParam sets a numeric run parameter by its yaml name.
func (c *Config) SetParam(name string, v float64) error {
	switch name {
	case "dt":
		c.Dt = v
	case "duration":
		c.Duration = v
	case "t0":
		c.T0 = v
	case "rtol":
		c.RTol = v
	case "atol":
		c.ATol = v
	case "g":
		c.G = v
	case "escape_radius":
		c.EscapeRadius = v
	case "max_steps":
		c.MaxSteps = int(v)
	default:
		return fmt.Errorf("%w: unknown parameter %q", dynamo.ErrConfiguration, name)
	}
	return nil
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config { return c.clone() }
