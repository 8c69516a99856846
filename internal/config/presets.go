package config

import "sort"

const (
	earthYear   = 31558118.4
	day         = 86400.0
	earthMass   = 5.972e24
	sunMass     = 1.989e30
	earthPeri   = 1.471e11
	earthPeriV  = 30286.4
	figure8Time = 6.32591398
)

var Presets = map[string]map[string]*Config{
	"two-body": {
		"earth-sun": {
			Name: "earth-sun", Strategy: "adaptive", Method: "rk45", Dt: day, Duration: 3.156e7,
			Bodies: []BodyConfig{
				{Name: "earth", Mass: earthMass, Position: [2]float64{earthPeri, 0}, Velocity: [2]float64{0, earthPeriV}},
				{Name: "sun", Mass: sunMass},
			},
		},
		"earth-sun-fixed": {
			Name: "earth-sun-fixed", Strategy: "fixed", Method: "symplectic-euler", Dt: 3600, Duration: 3 * earthYear,
			Bodies: []BodyConfig{
				{Name: "earth", Orbit: &OrbitConfig{Central: "sun"}},
				{Name: "sun"},
			},
		},
		"binary": {
			Name: "binary", Strategy: "adaptive", Method: "rk45", G: 1, Dt: 0.01, Duration: 20,
			Bodies: []BodyConfig{
				{Name: "a", Mass: 1, Position: [2]float64{-0.5, 0}, Velocity: [2]float64{0, -0.70710678}},
				{Name: "b", Mass: 1, Position: [2]float64{0.5, 0}, Velocity: [2]float64{0, 0.70710678}},
			},
		},
	},
	"three-body": {
		"sun-earth-jupiter": {
			Name: "sun-earth-jupiter", Strategy: "adaptive", Method: "rk45", Dt: day, Duration: 36 * earthYear,
			Bodies: []BodyConfig{
				{Name: "earth", Orbit: &OrbitConfig{Central: "sun"}},
				{Name: "jupiter", Orbit: &OrbitConfig{Central: "sun"}},
				{Name: "sun"},
			},
		},
		"figure-eight": {
			Name: "figure-eight", Strategy: "adaptive", Method: "rk45", G: 1, Dt: 0.01, Duration: 3 * figure8Time,
			RTol: 1e-10, ATol: 1e-10,
			Bodies: []BodyConfig{
				{Name: "a", Mass: 1, Position: [2]float64{0.97000436, -0.24308753}, Velocity: [2]float64{0.466203685, 0.43236573}},
				{Name: "b", Mass: 1, Position: [2]float64{-0.97000436, 0.24308753}, Velocity: [2]float64{0.466203685, 0.43236573}},
				{Name: "c", Mass: 1, Velocity: [2]float64{-0.93240737, -0.86473146}},
			},
		},
	},
	"solar": {
		"inner-planets": {
			Name: "inner-planets", Strategy: "fixed", Method: "leapfrog", Dt: 3600, Duration: 2 * earthYear,
			Bodies: []BodyConfig{
				{Name: "sun"},
				{Name: "mercury", Orbit: &OrbitConfig{Central: "sun"}},
				{Name: "venus", Orbit: &OrbitConfig{Central: "sun"}},
				{Name: "earth", Orbit: &OrbitConfig{Central: "sun"}},
				{Name: "mars", Orbit: &OrbitConfig{Central: "sun"}},
			},
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(model, preset string) *Config {
	presets, ok := Presets[model]
	if !ok {
		return nil
	}
	cfg, ok := presets[preset]
	if !ok {
		return nil
	}
	return cfg.clone()
}

func ListPresets(model string) []string {
	presets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func ListModels() []string {
	models := make([]string, 0, len(Presets))
	for m := range Presets {
		models = append(models, m)
	}
	sort.Strings(models)
	return models
}

// FindPreset looks a preset up by name across all models.
func FindPreset(name string) (*Config, string) {
	for _, model := range ListModels() {
		if cfg := GetPreset(model, name); cfg != nil {
			return cfg, model
		}
	}
	return nil, ""
}

func (c *Config) clone() *Config {
	out := *c
	out.Bodies = make([]BodyConfig, len(c.Bodies))
	for i, b := range c.Bodies {
		out.Bodies[i] = b
		if b.Orbit != nil {
			o := *b.Orbit
			out.Bodies[i].Orbit = &o
		}
	}
	return &out
}
