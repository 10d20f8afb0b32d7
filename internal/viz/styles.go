package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jaxs-ribs/arena-sub001/internal/sim"
)

type styles struct {
	canvas  lipgloss.Style
	panel   lipgloss.Style
	header  lipgloss.Style
	label   lipgloss.Style
	value   lipgloss.Style
	running lipgloss.Style
	paused  lipgloss.Style
	err     lipgloss.Style
	graph   lipgloss.Style
	help    lipgloss.Style
	key     lipgloss.Style
}

func stylesFor(t Theme) styles {
	return styles{
		canvas: lipgloss.NewStyle().Foreground(t.Primary).Padding(1, 2),
		panel: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(t.Muted).
			Padding(1, 2).
			Width(48),
		header:  lipgloss.NewStyle().Foreground(t.Primary).Bold(true).MarginBottom(1),
		label:   lipgloss.NewStyle().Foreground(t.Muted).Width(14),
		value:   lipgloss.NewStyle().Foreground(t.Text),
		running: lipgloss.NewStyle().Foreground(t.Success).Bold(true),
		paused:  lipgloss.NewStyle().Foreground(t.Warning).Bold(true),
		err:     lipgloss.NewStyle().Foreground(t.Error).Bold(true),
		graph:   lipgloss.NewStyle().Foreground(t.Accent).Padding(1, 0),
		help:    lipgloss.NewStyle().Foreground(t.Muted).MarginTop(1),
		key:     lipgloss.NewStyle().Foreground(t.Accent).Bold(true),
	}
}

func (s styles) row(label string, format string, args ...any) string {
	return s.label.Render(label) + s.value.Render(fmt.Sprintf(format, args...))
}

// bodyTable lists up to limit moving bodies.
func (s styles) bodyTable(bodies []sim.BodySnapshot, designated, limit int) string {
	var b strings.Builder
	b.WriteString(s.label.Render("body") + s.value.Render(fmt.Sprintf("%8s %8s %8s", "x", "y", "vy")))
	shown := 0
	for _, body := range bodies {
		if body.Static {
			continue
		}
		if shown == limit {
			b.WriteString("\n" + s.label.Render("..."))
			break
		}
		name := fmt.Sprintf("%d %s", body.Index, body.Kind)
		if body.Index == designated {
			name = "*" + name
		}
		b.WriteString("\n" + s.label.Render(name) +
			s.value.Render(fmt.Sprintf("%8.3f %8.3f %8.3f", body.Position.X(), body.Position.Y(), body.Velocity.Y())))
		shown++
	}
	return b.String()
}

func (s styles) keys(pairs ...string) string {
	parts := make([]string, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		parts = append(parts, s.key.Render(pairs[i])+" "+pairs[i+1])
	}
	return s.help.Render(strings.Join(parts, "  "))
}
