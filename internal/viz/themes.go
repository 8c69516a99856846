package viz

import (
	"sort"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the colors of terminal and SVG output.
type Theme struct {
	Name       string
	Background lipgloss.Color
	Text       lipgloss.Color
	Muted      lipgloss.Color
	Accent     lipgloss.Color
	// Bodies is cycled by body index.
	Bodies []lipgloss.Color
}

var (
	ThemeDeepSpace = Theme{
		Name:       "deep-space",
		Background: lipgloss.Color("#0a0a14"),
		Text:       lipgloss.Color("#e0e0ff"),
		Muted:      lipgloss.Color("#666688"),
		Accent:     lipgloss.Color("#00ffff"),
		Bodies: []lipgloss.Color{
			"#4da6ff", "#ffcc00", "#ff6666", "#66ff99", "#cc99ff", "#ff9933",
		},
	}

	ThemeRetroGreen = Theme{
		Name:       "retro",
		Background: lipgloss.Color("#001100"),
		Text:       lipgloss.Color("#00ff00"),
		Muted:      lipgloss.Color("#006600"),
		Accent:     lipgloss.Color("#88ff88"),
		Bodies: []lipgloss.Color{
			"#00ff00", "#88ff88", "#00cc00", "#ccffcc",
		},
	}

	ThemeMonochrome = Theme{
		Name:       "mono",
		Background: lipgloss.Color("#000000"),
		Text:       lipgloss.Color("#ffffff"),
		Muted:      lipgloss.Color("#808080"),
		Accent:     lipgloss.Color("#ffffff"),
		Bodies: []lipgloss.Color{
			"#ffffff", "#c0c0c0", "#909090",
		},
	}
)

var themes = map[string]Theme{
	ThemeDeepSpace.Name:  ThemeDeepSpace,
	ThemeRetroGreen.Name: ThemeRetroGreen,
	ThemeMonochrome.Name: ThemeMonochrome,
}

// GetTheme returns the named theme, falling back to deep-space.
func GetTheme(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return ThemeDeepSpace
}

func ListThemes() []string {
	names := make([]string, 0, len(themes))
	for n := range themes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (t Theme) BodyColor(i int) lipgloss.Color {
	if len(t.Bodies) == 0 {
		return t.Text
	}
	return t.Bodies[i%len(t.Bodies)]
}
