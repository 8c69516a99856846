package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/orbitsim/internal/dynamo"
	"github.com/san-kum/orbitsim/internal/sim"
)

var (
	cyan  = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim   = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	green = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	red   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

const barWidth = 40

type progressMsg struct {
	step, total int
	t           float64
}

type doneMsg struct {
	result *sim.Result
	err    error
}

// ProgressModel shows the progress of one running simulation.
type ProgressModel struct {
	title   string
	step    int
	total   int
	simTime float64
	started time.Time

	done   bool
	result *sim.Result
	err    error
}

func NewProgressModel(title string) ProgressModel {
	return ProgressModel{title: title, started: time.Now()}
}

func (m ProgressModel) Init() tea.Cmd { return nil }

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case progressMsg:
		m.step, m.total, m.simTime = msg.step, msg.total, msg.t
		return m, nil
	case doneMsg:
		m.done = true
		m.result, m.err = msg.result, msg.err
		if m.err == nil && m.total > 0 {
			m.step = m.total
		}
		return m, tea.Quit
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m ProgressModel) Fraction() float64 {
	if m.total <= 0 {
		return 0
	}
	f := float64(m.step) / float64(m.total)
	if f > 1 {
		f = 1
	}
	return f
}

func (m ProgressModel) View() string {
	var b strings.Builder
	b.WriteString(cyan.Render(m.title) + "\n\n")

	filled := int(m.Fraction() * barWidth)
	bar := green.Render(strings.Repeat("█", filled)) + dim.Render(strings.Repeat("░", barWidth-filled))
	b.WriteString(bar + white.Render(fmt.Sprintf(" %5.1f%%", 100*m.Fraction())) + "\n")
	b.WriteString(dim.Render(fmt.Sprintf("step %d/%d  t=%.6g  elapsed %s",
		m.step, m.total, m.simTime, time.Since(m.started).Round(time.Millisecond))) + "\n")

	switch {
	case m.done && m.err != nil:
		b.WriteString(red.Render("failed: "+m.err.Error()) + "\n")
	case m.done:
		b.WriteString(green.Render(fmt.Sprintf("done: %d samples", m.result.Trajectory.Len())) + "\n")
	default:
		b.WriteString(dim.Render("q to detach") + "\n")
	}
	return b.String()
}

// RunFunc executes a simulation, reporting through progress.
type RunFunc func(progress dynamo.ProgressFunc) (*sim.Result, error)

// RunWithProgress runs fn in the background while a bubbletea program renders
// its progress to out. Detaching with q leaves the run going; the call still
// waits for its result.
func RunWithProgress(title string, out io.Writer, fn RunFunc) (*sim.Result, error) {
	p := tea.NewProgram(NewProgressModel(title), tea.WithOutput(out), tea.WithInput(nil))

	type outcome struct {
		res *sim.Result
		err error
	}
	finished := make(chan outcome, 1)
	go func() {
		res, err := fn(func(step, total int, t float64) {
			p.Send(progressMsg{step: step, total: total, t: t})
		})
		p.Send(doneMsg{result: res, err: err})
		finished <- outcome{res, err}
	}()

	if _, err := p.Run(); err != nil {
		return nil, err
	}
	o := <-finished
	return o.res, o.err
}
