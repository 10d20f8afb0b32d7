package viz

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/guptarohit/asciigraph"

	"github.com/jaxs-ribs/arena-sub001/internal/control"
	"github.com/jaxs-ribs/arena-sub001/internal/metrics"
	"github.com/jaxs-ribs/arena-sub001/internal/scene"
)

const (
	canvasWidth     = 60
	canvasHeight    = 20
	historyCapacity = 300
	tableRows       = 8
	pushForce       = 5.0
)

type TickMsg time.Time

// Model steps an experiment on a ticker and draws it.
type Model struct {
	exp      *scene.Experiment
	manual   *control.Manual
	camera   *Camera
	canvas   *Canvas
	styles   styles
	theme    int
	fps      int
	perFrame int
	running  bool
	showHelp bool
	heights  []float64
	err      error
}

// NewModel watches exp at fps frames per second, advancing perFrame ticks
// per frame.
func NewModel(exp *scene.Experiment, fps, perFrame int) Model {
	m := Model{
		exp:      exp,
		camera:   NewCamera(),
		canvas:   NewCanvas(canvasWidth, canvasHeight),
		styles:   stylesFor(Themes[0]),
		fps:      max(fps, 1),
		perFrame: max(perFrame, 1),
		running:  true,
		heights:  make([]float64, 0, historyCapacity),
	}
	m.manual, _ = exp.Controller().(*control.Manual)
	m.camera.Fit(exp.Sim().Snapshots())
	m.record()
	return m
}

func (m Model) Running() bool { return m.running }
func (m Model) Err() error    { return m.err }

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd { return m.tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case ".":
			if !m.running {
				m.advance(1)
			}
		case "r":
			m.exp.Reset()
			m.err = nil
			m.heights = m.heights[:0]
			m.record()
		case "up":
			m.push(mgl64.Vec3{0, pushForce, 0})
		case "down":
			m.push(mgl64.Vec3{0, -pushForce, 0})
		case "left":
			m.push(mgl64.Vec3{-pushForce, 0, 0})
		case "right":
			m.push(mgl64.Vec3{pushForce, 0, 0})
		case "x":
			if m.manual != nil {
				m.manual.Release()
			}
		case "a":
			m.camera.Orbit(-0.1)
		case "d":
			m.camera.Orbit(0.1)
		case "w":
			m.camera.Tilt(0.1)
		case "s":
			m.camera.Tilt(-0.1)
		case "+", "=":
			m.camera.ZoomIn()
		case "-", "_":
			m.camera.ZoomOut()
		case "f":
			m.camera.Fit(m.exp.Sim().Snapshots())
		case "t":
			m.theme = (m.theme + 1) % len(Themes)
			m.styles = stylesFor(Themes[m.theme])
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			m.advance(m.perFrame)
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *Model) push(f mgl64.Vec3) {
	if m.manual != nil {
		m.manual.Push(f)
	}
}

// advance steps n ticks, pausing on the first error.
func (m *Model) advance(n int) {
	for i := 0; i < n; i++ {
		if err := m.exp.Step(); err != nil {
			m.err = err
			m.running = false
			return
		}
	}
	m.record()
}

func (m *Model) record() {
	s := m.exp.Sim()
	snap, err := s.Snapshot(s.Designated())
	if err != nil {
		return
	}
	if len(m.heights) == historyCapacity {
		copy(m.heights, m.heights[1:])
		m.heights = m.heights[:historyCapacity-1]
	}
	m.heights = append(m.heights, snap.Position.Y())
}

func (m Model) View() string {
	s := m.exp.Sim()
	st := m.styles
	bodies := s.Snapshots()

	m.canvas.Clear()
	Render(m.canvas, m.camera, bodies)

	status := st.running.Render("RUNNING")
	if m.err != nil {
		status = st.err.Render("ERROR")
	} else if !m.running {
		status = st.paused.Render("PAUSED")
	}

	cfg := m.exp.Config()
	report := s.LastReport()
	var panel strings.Builder
	panel.WriteString(st.header.Render(fmt.Sprintf("%s  %s", strings.ToUpper(cfg.Scene), status)))
	panel.WriteString("\n" + st.row("Backend", "%s (%s)", s.Backend().Name(), s.Params().Pipeline))
	panel.WriteString("\n" + st.row("Tick", "%d", s.Tick()))
	panel.WriteString("\n" + st.row("Time", "%.3f s", s.Time()))
	panel.WriteString("\n" + st.row("Bodies", "%d (%d joints)", s.BodyCount(), s.JointCount()))
	panel.WriteString("\n" + st.row("Contacts", "%d", len(report.Contacts)))
	panel.WriteString("\n" + st.row("Max depth", "%.4f", report.MaxDepth))
	if len(report.Unsupported) > 0 {
		panel.WriteString("\n" + st.row("Unsupported", "%d pairs", len(report.Unsupported)))
	}
	if m.manual != nil {
		f := m.manual.Force()
		panel.WriteString("\n" + st.row("Push", "(%.1f, %.1f, %.1f)", f.X(), f.Y(), f.Z()))
	}

	values := metrics.Values(s.Metrics())
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	panel.WriteString("\n")
	for _, name := range names {
		panel.WriteString("\n" + st.row(name, "%.4f", values[name]))
	}
	panel.WriteString("\n\n" + st.bodyTable(bodies, s.Designated(), tableRows))
	if m.err != nil {
		panel.WriteString("\n\n" + st.err.Render(m.err.Error()))
	}

	left := st.canvas.Render(m.canvas.String())
	if len(m.heights) > 1 {
		graph := asciigraph.Plot(m.heights,
			asciigraph.Height(6),
			asciigraph.Width(canvasWidth-10),
			asciigraph.Caption(fmt.Sprintf("body %d height", s.Designated())))
		left = lipgloss.JoinVertical(lipgloss.Left, left, st.graph.Render(graph))
	}

	view := lipgloss.JoinHorizontal(lipgloss.Top, left, st.panel.Render(panel.String()))
	if m.showHelp {
		return view + "\n" + st.keys(
			"space", "pause", ".", "step", "r", "reset",
			"arrows", "push", "x", "release",
			"a/d", "orbit", "w/s", "tilt", "+/-", "zoom", "f", "fit",
			"t", "theme:"+Themes[m.theme].Name, "q", "quit")
	}
	return view + "\n" + st.keys("space", "pause", "r", "reset", "?", "help", "q", "quit")
}
