package viz

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/cumd/internal/atoms"
	"github.com/san-kum/cumd/internal/config"
	"github.com/san-kum/cumd/internal/energy"
	"github.com/san-kum/cumd/internal/md"
)

const (
	canvasWidth     = 40
	canvasHeight    = 20
	historyCapacity = 600
)

// ReportMsg carries one energy report and a copy of the positions at
// that step.
type ReportMsg struct {
	Step      int
	Report    energy.Report
	Positions []r3.Vec
	Cell      r3.Vec
}

// DoneMsg is sent when the driver returns.
type DoneMsg struct {
	Summary *md.Summary
	Err     error
}

// Model is the live view of one run.
type Model struct {
	title  string
	total  int
	step   int
	last   energy.Report
	etot   []float64
	temp   []float64
	pos    []r3.Vec
	cell   r3.Vec
	canvas *Canvas
	camera *Camera
	bar    progress.Model
	drift  *md.EnergyDrift
	theme  int
	done   bool
	err    error
	cancel context.CancelFunc
}

// NewModel prepares a view for cfg. cancel is called when the user quits.
func NewModel(cfg *config.Config, cancel context.CancelFunc) Model {
	return Model{
		title:  fmt.Sprintf("%s fcc %dx%dx%d  %s/%s", cfg.Symbol, cfg.Size, cfg.Size, cfg.Size, cfg.Potential, cfg.Integrator),
		total:  cfg.TotalSteps(),
		canvas: NewCanvas(canvasWidth, canvasHeight),
		camera: NewCamera(),
		bar:    progress.New(progress.WithDefaultGradient(), progress.WithWidth(canvasWidth)),
		drift:  md.NewEnergyDrift(),
		cancel: cancel,
	}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		case "x":
			m.camera.RotateX(0.1)
		case "X":
			m.camera.RotateX(-0.1)
		case "y":
			m.camera.RotateY(0.1)
		case "Y":
			m.camera.RotateY(-0.1)
		case "+", "=":
			m.camera.ZoomIn()
		case "-", "_":
			m.camera.ZoomOut()
		case "t":
			m.theme = (m.theme + 1) % len(themes)
		}
		m.draw()
	case tea.WindowSizeMsg:
		m.bar.Width = max(10, min(msg.Width-50, 60))
	case ReportMsg:
		m.step = msg.Step
		m.last = msg.Report
		m.pos, m.cell = msg.Positions, msg.Cell
		m.etot = appendCapped(m.etot, msg.Report.Total)
		m.temp = appendCapped(m.temp, msg.Report.Temperature)
		m.drift.Observe(msg.Report)
		m.draw()
	case DoneMsg:
		m.done = true
		m.err = msg.Err
	}
	return m, nil
}

func appendCapped(h []float64, v float64) []float64 {
	h = append(h, v)
	if len(h) > historyCapacity {
		h = h[len(h)-historyCapacity:]
	}
	return h
}

func (m *Model) draw() {
	if m.pos == nil {
		return
	}
	DrawCrystal(m.canvas, m.camera, m.pos, m.cell)
}

func (m Model) View() string {
	th := themes[m.theme]
	header := th.header.Render(strings.ToUpper(m.title))

	var s strings.Builder
	status := th.running.Render("RUNNING")
	switch {
	case m.err != nil:
		status = th.failed.Render("FAILED: " + m.err.Error())
	case m.done:
		status = th.running.Render("DONE")
	}
	s.WriteString(status + "\n\n")

	row := func(label, value string) {
		s.WriteString(th.label.Render(label) + th.value.Render(value) + "\n")
	}
	row("Step", fmt.Sprintf("%d / %d", m.step, m.total))
	row("Epot", fmt.Sprintf("%.4f eV", m.last.Potential))
	row("Ekin", fmt.Sprintf("%.4f eV", m.last.Kinetic))
	row("T", fmt.Sprintf("%.0f K", m.last.Temperature))
	row("Etot", fmt.Sprintf("%.4f eV", m.last.Total))
	row("Drift", fmt.Sprintf("%.2e eV", m.drift.Value()))

	if len(m.etot) > 1 {
		s.WriteString("\n" + asciigraph.Plot(m.etot, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Etot (eV/atom)")) + "\n")
		s.WriteString("\n" + asciigraph.Plot(m.temp, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("T (K)")) + "\n")
	}

	frac := 0.0
	if m.total > 0 {
		frac = float64(m.step) / float64(m.total)
	}
	left := lipgloss.JoinVertical(lipgloss.Left,
		th.canvas.Render(m.canvas.String()),
		"  "+m.bar.ViewAs(frac),
	)
	main := lipgloss.JoinHorizontal(lipgloss.Top, left, th.stats.Render(s.String()))
	help := th.help.Render("q:quit  x/y:rotate  +/-:zoom  t:theme (" + th.name + ")")
	return lipgloss.JoinVertical(lipgloss.Left, header, main, help)
}

// Run executes cfg through d while showing the live view. Quitting the
// view cancels the run.
func Run(ctx context.Context, cfg *config.Config, d *md.Driver, opts ...tea.ProgramOption) (*md.Summary, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewModel(cfg, cancel), opts...)

	drv := *d
	next := d.OnReport
	drv.OnReport = func(step int, r energy.Report, a *atoms.Atoms) {
		if next != nil {
			next(step, r, a)
		}
		pos := make([]r3.Vec, a.Len())
		copy(pos, a.Positions())
		p.Send(ReportMsg{Step: step, Report: r, Positions: pos, Cell: a.Cell})
	}

	type result struct {
		sum *md.Summary
		err error
	}
	done := make(chan result, 1)
	go func() {
		sum, err := drv.Run(ctx, cfg)
		p.Send(DoneMsg{Summary: sum, Err: err})
		done <- result{sum, err}
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-done
		return nil, err
	}
	cancel()
	res := <-done
	return res.sum, res.err
}
