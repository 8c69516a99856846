package tui

import (
	"fmt"
	"io"
	"time"

	"github.com/san-kum/orbitsim/internal/dynamo"
	"github.com/san-kum/orbitsim/internal/viz"
)

const (
	clearScreen = "\033[2J\033[H"
	hideCursor  = "\033[?25l"
	showCursor  = "\033[?25h"
)

// LiveRenderer replays samples as braille frames. It implements
// dynamo.Observer; every Stride-th sample draws a frame of the last Trail
// positions per body inside fixed world bounds.
type LiveRenderer struct {
	out    io.Writer
	bounds viz.Bounds
	width  int
	height int
	Stride int
	Trail  int
	Delay  time.Duration

	trails [][][2]float64
	frames int
}

func NewLiveRenderer(out io.Writer, bounds viz.Bounds, width, height int) *LiveRenderer {
	return &LiveRenderer{
		out:    out,
		bounds: bounds,
		width:  width,
		height: height,
		Stride: 1,
		Trail:  200,
	}
}

func (r *LiveRenderer) OnSample(k int, t float64, x dynamo.State) {
	n := x.NumBodies()
	if len(r.trails) != n {
		r.trails = make([][][2]float64, n)
	}
	for i := 0; i < n; i++ {
		p := x.Position(i)
		r.trails[i] = append(r.trails[i], [2]float64{p.X, p.Y})
		if len(r.trails[i]) > r.Trail {
			r.trails[i] = r.trails[i][1:]
		}
	}

	stride := r.Stride
	if stride < 1 {
		stride = 1
	}
	if k%stride != 0 {
		return
	}
	r.render(t)
	if r.Delay > 0 {
		time.Sleep(r.Delay)
	}
}

func (r *LiveRenderer) render(t float64) {
	c := viz.NewCanvas(r.width, r.height)
	for _, trail := range r.trails {
		xs := make([]float64, len(trail))
		ys := make([]float64, len(trail))
		for j, p := range trail {
			xs[j], ys[j] = p[0], p[1]
		}
		c.Plot(r.bounds, xs, ys)
	}

	if r.frames == 0 {
		fmt.Fprint(r.out, hideCursor)
	}
	fmt.Fprint(r.out, clearScreen)
	fmt.Fprint(r.out, c.String())
	fmt.Fprintln(r.out, dim.Render(fmt.Sprintf("t = %.6g", t)))
	r.frames++
}

// Close restores the cursor.
func (r *LiveRenderer) Close() {
	if r.frames > 0 {
		fmt.Fprint(r.out, showCursor)
	}
}

func (r *LiveRenderer) Frames() int { return r.frames }
