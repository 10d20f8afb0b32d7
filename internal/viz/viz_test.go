package viz

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaxs-ribs/arena-sub001/internal/config"
	"github.com/jaxs-ribs/arena-sub001/internal/scene"
	"github.com/jaxs-ribs/arena-sub001/internal/sim"
)

func TestCanvasSetAndString(t *testing.T) {
	c := NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(3, 3)
	c.Set(-1, 0)
	c.Set(4, 0)
	assert.Equal(t, string([]rune{0x2801, 0x2880}), c.String())

	c.Clear()
	assert.Equal(t, string([]rune{blank, blank}), c.String())
}

func TestCanvasCircleDraws(t *testing.T) {
	c := NewCanvas(10, 5)
	c.Circle(10, 10, 6)
	w, h := c.Dots()
	assert.Equal(t, 20, w)
	assert.Equal(t, 20, h)
	assert.NotEqual(t, NewCanvas(10, 5).String(), c.String())
}

func TestCameraProjectsCenterToMiddle(t *testing.T) {
	cam := NewCamera()
	cam.Center = mgl64.Vec3{1, 2, 3}
	x, y, scale, ok := cam.Project(mgl64.Vec3{1, 2, 3}, 100, 80)
	require.True(t, ok)
	assert.Equal(t, 50, x)
	assert.Equal(t, 40, y)
	assert.Greater(t, scale, 0.0)
}

func TestCameraFitIgnoresPlanes(t *testing.T) {
	cam := NewCamera()
	cam.Fit([]sim.BodySnapshot{
		{Kind: "plane", Normal: mgl64.Vec3{0, 1, 0}},
		{Kind: "sphere", Position: mgl64.Vec3{0, 4, 0}, Radius: 1},
	})
	assert.InDelta(t, 4.0, cam.Center.Y(), 1e-9)
}

func TestRenderDrawsEveryKind(t *testing.T) {
	bodies := []sim.BodySnapshot{
		{Kind: "plane", Normal: mgl64.Vec3{0, 1, 0}, Orientation: [4]float64{0, 0, 0, 1}},
		{Kind: "sphere", Position: mgl64.Vec3{0, 1, 0}, Radius: 0.5, Orientation: [4]float64{0, 0, 0, 1}},
		{Kind: "box", Position: mgl64.Vec3{2, 1, 0}, HalfExtents: mgl64.Vec3{0.5, 0.5, 0.5}, Orientation: [4]float64{0, 0, 0, 1}},
		{Kind: "cylinder", Position: mgl64.Vec3{-2, 1, 0}, Radius: 0.4, HalfHeight: 0.6, Orientation: [4]float64{0, 0, 0, 1}},
	}
	for _, b := range bodies {
		c := NewCanvas(40, 20)
		cam := NewCamera()
		cam.Fit(bodies)
		Render(c, cam, []sim.BodySnapshot{b})
		assert.NotEqual(t, NewCanvas(40, 20).String(), c.String(), b.Kind)
	}
}

func newModel(t *testing.T, controller string) Model {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Controller.Kind = controller
	exp, err := scene.New(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(exp.Close)
	return NewModel(exp, 30, 2)
}

func key(s string) tea.KeyMsg {
	switch s {
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModelTickAdvances(t *testing.T) {
	m := newModel(t, "none")
	next, cmd := m.Update(TickMsg{})
	assert.NotNil(t, cmd)
	assert.Equal(t, 2, next.(Model).exp.Sim().Tick())
}

func TestModelPauseAndStep(t *testing.T) {
	m := newModel(t, "none")
	next, _ := m.Update(key(" "))
	m = next.(Model)
	assert.False(t, m.Running())

	next, _ = m.Update(TickMsg{})
	m = next.(Model)
	assert.Equal(t, 0, m.exp.Sim().Tick())

	next, _ = m.Update(key("."))
	m = next.(Model)
	assert.Equal(t, 1, m.exp.Sim().Tick())
}

func TestModelReset(t *testing.T) {
	m := newModel(t, "none")
	next, _ := m.Update(TickMsg{})
	next, _ = next.Update(key("r"))
	m = next.(Model)
	assert.Equal(t, 0, m.exp.Sim().Tick())
	assert.Len(t, m.heights, 1)
}

func TestModelPushesWithManualController(t *testing.T) {
	m := newModel(t, "manual")
	require.NotNil(t, m.manual)
	m.Update(key("up"))
	assert.Equal(t, mgl64.Vec3{0, pushForce, 0}, m.manual.Force())
	m.Update(key("x"))
	assert.Equal(t, mgl64.Vec3{}, m.manual.Force())
}

func TestModelView(t *testing.T) {
	m := newModel(t, "none")
	next, _ := m.Update(TickMsg{})
	view := next.View()
	assert.True(t, strings.Contains(view, "DROP"))
	assert.Contains(t, view, "RUNNING")
	assert.Contains(t, view, "height")
}
