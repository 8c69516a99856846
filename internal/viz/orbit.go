package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/orbitsim/internal/dynamo"
)

var components = map[string]int{"x": 0, "y": 1, "vx": 2, "vy": 3}

// RenderOrbits draws every body's path on a w x h cell canvas sharing one
// square scale. Cells touched by several bodies take the lowest body's color.
func RenderOrbits(tr *dynamo.Trajectory, names []string, w, h int, theme Theme) (string, error) {
	n := tr.NumBodies()
	if n == 0 {
		return "", fmt.Errorf("empty trajectory")
	}

	xs := make([][]float64, n)
	ys := make([][]float64, n)
	var bounds Bounds
	found := false
	for i := 0; i < n; i++ {
		xs[i], ys[i] = tr.Positions(i)
		b, ok := BoundsOf(xs[i], ys[i])
		if !ok {
			continue
		}
		if found {
			bounds = bounds.Union(b)
		} else {
			bounds, found = b, true
		}
	}
	if !found {
		return "", fmt.Errorf("trajectory has no finite positions")
	}
	bounds = bounds.Square(0.05)

	layers := make([]*Canvas, n)
	for i := range layers {
		layers[i] = NewCanvas(w, h)
		layers[i].Plot(bounds, xs[i], ys[i])
	}

	styles := make([]lipgloss.Style, n)
	for i := range styles {
		styles[i] = lipgloss.NewStyle().Foreground(theme.BodyColor(i))
	}

	var b strings.Builder
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			cell := rune(brailleBlank)
			owner := -1
			for i, layer := range layers {
				r := layer.Grid[row][col]
				if r == brailleBlank {
					continue
				}
				cell |= r
				if owner < 0 {
					owner = i
				}
			}
			if owner < 0 {
				b.WriteRune(cell)
				continue
			}
			b.WriteString(styles[owner].Render(string(cell)))
		}
		b.WriteByte('\n')
	}

	b.WriteString(legend(names, n, styles))
	return b.String(), nil
}

func legend(names []string, n int, styles []lipgloss.Style) string {
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("body%d", i)
		if i < len(names) && names[i] != "" {
			name = names[i]
		}
		parts[i] = styles[i].Render("●") + " " + name
	}
	return strings.Join(parts, "  ") + "\n"
}

// PositionChart plots one state component (x, y, vx or vy) of a body against
// sample index with asciigraph.
func PositionChart(tr *dynamo.Trajectory, body int, component string, name string, w, h int) (string, error) {
	off, ok := components[component]
	if !ok {
		return "", fmt.Errorf("unknown component %q, want x, y, vx or vy", component)
	}
	if body < 0 || body >= tr.NumBodies() {
		return "", fmt.Errorf("body %d out of range [0, %d)", body, tr.NumBodies())
	}

	series := tr.Series(dynamo.PositionIndex(body) + off)
	finiteSeries := make([]float64, 0, len(series))
	for _, v := range series {
		if finite(v) {
			finiteSeries = append(finiteSeries, v)
		}
	}
	if len(finiteSeries) < 2 {
		return "", fmt.Errorf("not enough finite samples to plot")
	}

	if name == "" {
		name = fmt.Sprintf("body%d", body)
	}
	caption := fmt.Sprintf("%s %s, t = %.4g .. %.4g", name, component, tr.Times[0], tr.Times[tr.Len()-1])
	return asciigraph.Plot(finiteSeries,
		asciigraph.Width(w),
		asciigraph.Height(h),
		asciigraph.Caption(caption),
	), nil
}

// SeriesChart plots an arbitrary series such as energy over time.
func SeriesChart(series []float64, caption string, w, h int) string {
	if len(series) < 2 {
		return ""
	}
	return asciigraph.Plot(series, asciigraph.Width(w), asciigraph.Height(h), asciigraph.Caption(caption))
}
