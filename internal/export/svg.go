package export

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/san-kum/orbitsim/internal/dynamo"
	"github.com/san-kum/orbitsim/internal/viz"
)

// CanvasToSVG converts a Braille canvas to SVG, one circle per lit dot.
func CanvasToSVG(canvas *viz.Canvas, scale float64, theme viz.Theme) string {
	if canvas == nil {
		return ""
	}

	width := float64(canvas.Width) * scale * 2
	height := float64(canvas.Height) * scale * 4

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
<g fill="%s">
`, width, height, width, height, theme.Background, theme.BodyColor(0))

	dotRadius := scale * 0.4
	for y := 0; y < canvas.Height*4; y++ {
		for x := 0; x < canvas.Width*2; x++ {
			if !canvas.IsSet(x, y) {
				continue
			}
			cx := float64(x)*scale + scale/2
			cy := float64(y)*scale + scale/2
			fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n", cx, cy, dotRadius)
		}
	}

	sb.WriteString("</g>\n</svg>\n")
	return sb.String()
}

// OrbitsToSVG draws one path per body on a shared square scale, with a dot
// at each body's last finite position and a name legend.
func OrbitsToSVG(tr *dynamo.Trajectory, names []string, size int, theme viz.Theme) (string, error) {
	n := tr.NumBodies()
	if n == 0 || tr.Len() < 2 {
		return "", fmt.Errorf("trajectory needs at least two samples")
	}

	xs := make([][]float64, n)
	ys := make([][]float64, n)
	var bounds viz.Bounds
	found := false
	for i := 0; i < n; i++ {
		xs[i], ys[i] = tr.Positions(i)
		if b, ok := viz.BoundsOf(xs[i], ys[i]); ok {
			if found {
				bounds = bounds.Union(b)
			} else {
				bounds, found = b, true
			}
		}
	}
	if !found {
		return "", fmt.Errorf("trajectory has no finite positions")
	}
	bounds = bounds.Square(0.1)

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, size, size, size, size, theme.Background)

	for i := 0; i < n; i++ {
		color := theme.BodyColor(i)
		fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="`, color)

		move := true
		lastX, lastY, have := 0.0, 0.0, false
		for k := range xs[i] {
			if !finite(xs[i][k]) || !finite(ys[i][k]) {
				move = true
				continue
			}
			px, py := bounds.Project(xs[i][k], ys[i][k], size, size)
			cmd := "L"
			if move {
				cmd = "M"
				move = false
			}
			fmt.Fprintf(&sb, "%s%.1f,%.1f ", cmd, px, py)
			lastX, lastY, have = px, py, true
		}
		sb.WriteString("\"/>\n")

		if have {
			fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"4\" fill=\"%s\"/>\n", lastX, lastY, color)
		}
		fmt.Fprintf(&sb, "<text x=\"10\" y=\"%d\" fill=\"%s\" font-family=\"monospace\" font-size=\"12\">%s</text>\n",
			20+16*i, color, escape(bodyName(names, i)))
	}

	sb.WriteString("</svg>\n")
	return sb.String(), nil
}

func SaveSVG(path, svg string) error {
	return os.WriteFile(path, []byte(svg), 0644)
}

func bodyName(names []string, i int) string {
	if i < len(names) && names[i] != "" {
		return names[i]
	}
	return fmt.Sprintf("body%d", i)
}

var xmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func escape(s string) string { return xmlEscaper.Replace(s) }

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
