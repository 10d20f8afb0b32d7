// Package export renders recorded trajectories as standalone SVG.
package export

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/jaxs-ribs/arena-sub001/internal/sim"
)

var palette = []string{"#00ffff", "#ff00ff", "#ffff00", "#00ff88", "#ff8800", "#8888ff"}

// Axis picks the world coordinate drawn on one side of the plot.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func ParseAxis(s string) (Axis, error) {
	switch strings.ToLower(s) {
	case "x":
		return AxisX, nil
	case "y":
		return AxisY, nil
	case "z":
		return AxisZ, nil
	}
	return 0, fmt.Errorf("export: unknown axis %q", s)
}

// TrajectorySVG draws one path per body, projecting positions onto the
// (h, v) plane. Bodies with fewer than two samples are skipped.
func TrajectorySVG(w io.Writer, samples []sim.Sample, h, v Axis, width, height int) error {
	paths := make(map[int][][2]float64)
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, s := range samples {
		p := [2]float64{s.Position[h], s.Position[v]}
		paths[s.Body] = append(paths[s.Body], p)
		minX, maxX = math.Min(minX, p[0]), math.Max(maxX, p[0])
		minY, maxY = math.Min(minY, p[1]), math.Max(maxY, p[1])
	}
	if len(samples) == 0 {
		return fmt.Errorf("export: no samples")
	}

	rangeX, rangeY := maxX-minX, maxY-minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	minY -= rangeY * 0.1
	rangeX *= 1.2
	rangeY *= 1.2

	bodies := make([]int, 0, len(paths))
	for b := range paths {
		bodies = append(bodies, b)
	}
	sort.Ints(bodies)

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)

	for i, b := range bodies {
		pts := paths[b]
		if len(pts) < 2 {
			continue
		}
		fmt.Fprintf(&sb, `<path id="body-%d" fill="none" stroke="%s" stroke-width="1.5" d="M`, b, palette[i%len(palette)])
		for j, p := range pts {
			x := (p[0] - minX) / rangeX * float64(width)
			y := float64(height) - (p[1]-minY)/rangeY*float64(height)
			if j == 0 {
				fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
			} else {
				fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
			}
		}
		sb.WriteString("\"/>\n")
	}
	sb.WriteString("</svg>\n")

	_, err := io.WriteString(w, sb.String())
	return err
}
