package config

import (
	_ "embed"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/orbitsim/internal/dynamo"
)

// AstronomicalUnit in meters.
const AstronomicalUnit = 1.495978707e11

var unitScale = map[string]float64{
	"":   1,
	"m":  1,
	"km": 1e3,
	"au": AstronomicalUnit,
}

//go:embed catalog.yaml
var defaultCatalog []byte

type OrbitalParams struct {
	Perihelion float64 `yaml:"perihelion" json:"perihelion"`
	Aphelion   float64 `yaml:"aphelion" json:"aphelion"`
	// Period is in seconds.
	Period float64 `yaml:"period" json:"period"`
	// Unit of Perihelion and Aphelion: m, km or au. Empty means meters.
	Unit string `yaml:"unit,omitempty" json:"unit,omitempty"`
}

// Normalize returns the parameters with distances in meters.
func (p OrbitalParams) Normalize() (OrbitalParams, error) {
	unit := strings.ToLower(strings.TrimSpace(p.Unit))
	scale, ok := unitScale[unit]
	if !ok {
		return p, fmt.Errorf("%w: unknown distance unit %q", dynamo.ErrConfiguration, p.Unit)
	}

	out := OrbitalParams{
		Perihelion: p.Perihelion * scale,
		Aphelion:   p.Aphelion * scale,
		Period:     p.Period,
		Unit:       "m",
	}
	if err := out.validate(); err != nil {
		return p, err
	}
	return out, nil
}

func (p OrbitalParams) validate() error {
	if !(p.Perihelion > 0) || math.IsInf(p.Perihelion, 0) {
		return &dynamo.ConfigurationError{Field: "perihelion", Value: p.Perihelion, Reason: "must be positive"}
	}
	if !(p.Aphelion >= p.Perihelion) || math.IsInf(p.Aphelion, 0) {
		return &dynamo.ConfigurationError{Field: "aphelion", Value: p.Aphelion, Reason: "must not be below perihelion"}
	}
	if p.Period < 0 {
		return &dynamo.ConfigurationError{Field: "period", Value: p.Period, Reason: "must not be negative"}
	}
	return nil
}

// Catalog maps body names to masses and orbital parameters. Orbits held by a
// Catalog are always normalized to meters.
type Catalog struct {
	Masses map[string]float64       `yaml:"masses" json:"masses"`
	Orbits map[string]OrbitalParams `yaml:"orbits" json:"orbits"`
}

// ParseCatalog reads a YAML or JSON catalog and normalizes its orbits.
func ParseCatalog(data []byte) (*Catalog, error) {
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if cat.Masses == nil {
		cat.Masses = make(map[string]float64)
	}
	if cat.Orbits == nil {
		cat.Orbits = make(map[string]OrbitalParams)
	}

	for name, m := range cat.Masses {
		if !(m > 0) || math.IsInf(m, 0) {
			return nil, &dynamo.ConfigurationError{Field: "mass of " + name, Value: m, Reason: "must be positive and finite"}
		}
	}
	for name, p := range cat.Orbits {
		np, err := p.Normalize()
		if err != nil {
			return nil, fmt.Errorf("orbit of %s: %w", name, err)
		}
		cat.Orbits[name] = np
	}
	return &cat, nil
}

func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseCatalog(data)
}

// DefaultCatalog returns a fresh copy of the built-in solar system catalog.
func DefaultCatalog() *Catalog {
	cat, err := ParseCatalog(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("built-in catalog is invalid: %v", err))
	}
	return cat
}

func (c *Catalog) Mass(name string) (float64, error) {
	m, ok := c.Masses[name]
	if !ok {
		return 0, fmt.Errorf("%w: no mass for body %q", dynamo.ErrConfiguration, name)
	}
	return m, nil
}

func (c *Catalog) Orbit(name string) (OrbitalParams, error) {
	p, ok := c.Orbits[name]
	if !ok {
		return OrbitalParams{}, fmt.Errorf("%w: no orbit for body %q", dynamo.ErrConfiguration, name)
	}
	return p, nil
}

func (c *Catalog) Bodies() []string {
	names := make([]string, 0, len(c.Masses))
	for name := range c.Masses {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
