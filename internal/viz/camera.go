package viz

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/jaxs-ribs/arena-sub001/internal/sim"
)

const (
	cameraDistance = 50.0
	planeExtent    = 6.0
	cylinderSides  = 8
)

// Camera orbits Center at Yaw/Pitch radians. Zoom is dots per world unit
// relative to the smaller canvas side.
type Camera struct {
	Center     mgl64.Vec3
	Yaw, Pitch float64
	Zoom       float64
}

func NewCamera() *Camera {
	return &Camera{Pitch: 0.25, Zoom: 0.1}
}

func (c *Camera) Orbit(a float64) { c.Yaw += a }
func (c *Camera) Tilt(a float64) {
	c.Pitch = mgl64.Clamp(c.Pitch+a, -math.Pi/2, math.Pi/2)
}
func (c *Camera) ZoomIn()  { c.Zoom = math.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut() { c.Zoom = math.Max(0.005, c.Zoom/1.2) }

// Fit centers on the non-plane bodies and zooms so they fill the view.
func (c *Camera) Fit(bodies []sim.BodySnapshot) {
	lo := mgl64.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	hi := lo.Mul(-1)
	n := 0
	for _, b := range bodies {
		if b.Kind == "plane" {
			continue
		}
		r := extent(b)
		for i := 0; i < 3; i++ {
			lo[i] = math.Min(lo[i], b.Position[i]-r)
			hi[i] = math.Max(hi[i], b.Position[i]+r)
		}
		n++
	}
	if n == 0 {
		return
	}
	c.Center = lo.Add(hi).Mul(0.5)
	span := math.Max(hi.Sub(lo).Len(), 1)
	c.Zoom = 0.9 / span
}

func extent(b sim.BodySnapshot) float64 {
	switch b.Kind {
	case "sphere":
		return b.Radius
	case "box":
		return b.HalfExtents.Len()
	case "cylinder":
		return math.Hypot(b.Radius, b.HalfHeight)
	}
	return 0
}

func (c *Camera) view(p mgl64.Vec3) mgl64.Vec3 {
	q := mgl64.QuatRotate(-c.Pitch, mgl64.Vec3{1, 0, 0}).
		Mul(mgl64.QuatRotate(-c.Yaw, mgl64.Vec3{0, 1, 0}))
	return q.Rotate(p.Sub(c.Center))
}

// Project maps a world point to canvas dots of a w x h dot canvas. scale
// is dots per world unit at the point's depth; ok is false behind the
// camera.
func (c *Camera) Project(p mgl64.Vec3, w, h int) (x, y int, scale float64, ok bool) {
	v := c.view(p)
	if v.Z() >= cameraDistance-0.1 {
		return 0, 0, 0, false
	}
	persp := cameraDistance / (cameraDistance - v.Z())
	scale = float64(min(w, h)) * c.Zoom * persp
	x = int(math.Round(v.X()*scale)) + w/2
	y = int(math.Round(-v.Y()*scale)) + h/2
	return x, y, scale, true
}

// Render draws every body as a wireframe.
func Render(cv *Canvas, cam *Camera, bodies []sim.BodySnapshot) {
	w, h := cv.Dots()
	seg := func(a, b mgl64.Vec3) {
		x0, y0, _, ok0 := cam.Project(a, w, h)
		x1, y1, _, ok1 := cam.Project(b, w, h)
		if ok0 && ok1 {
			cv.Line(x0, y0, x1, y1)
		}
	}

	for _, b := range bodies {
		q := mgl64.Quat{W: b.Orientation[3], V: mgl64.Vec3{b.Orientation[0], b.Orientation[1], b.Orientation[2]}}
		switch b.Kind {
		case "sphere":
			if x, y, s, ok := cam.Project(b.Position, w, h); ok {
				cv.Circle(x, y, int(math.Round(b.Radius*s)))
			}
		case "box":
			drawBox(seg, b.Position, q, b.HalfExtents)
		case "cylinder":
			drawCylinder(seg, b.Position, q, b.Radius, b.HalfHeight)
		case "plane":
			drawPlane(seg, cam.Center, b.Normal, b.Offset)
		}
	}
}

var boxEdges = [12][2]int{
	{0, 1}, {1, 3}, {3, 2}, {2, 0},
	{4, 5}, {5, 7}, {7, 6}, {6, 4},
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

func drawBox(seg func(a, b mgl64.Vec3), pos mgl64.Vec3, q mgl64.Quat, he mgl64.Vec3) {
	var corners [8]mgl64.Vec3
	for i := range corners {
		local := mgl64.Vec3{he[0], he[1], he[2]}
		for axis := 0; axis < 3; axis++ {
			if i&(1<<axis) == 0 {
				local[axis] = -local[axis]
			}
		}
		corners[i] = pos.Add(q.Rotate(local))
	}
	for _, e := range boxEdges {
		seg(corners[e[0]], corners[e[1]])
	}
}

func drawCylinder(seg func(a, b mgl64.Vec3), pos mgl64.Vec3, q mgl64.Quat, r, hh float64) {
	var top, bottom [cylinderSides]mgl64.Vec3
	for i := 0; i < cylinderSides; i++ {
		a := 2 * math.Pi * float64(i) / cylinderSides
		x, z := r*math.Cos(a), r*math.Sin(a)
		top[i] = pos.Add(q.Rotate(mgl64.Vec3{x, hh, z}))
		bottom[i] = pos.Add(q.Rotate(mgl64.Vec3{x, -hh, z}))
	}
	for i := 0; i < cylinderSides; i++ {
		j := (i + 1) % cylinderSides
		seg(top[i], top[j])
		seg(bottom[i], bottom[j])
		if i%2 == 0 {
			seg(top[i], bottom[i])
		}
	}
}

// drawPlane draws a cross-hatched patch around the point of the plane
// nearest the camera center.
func drawPlane(seg func(a, b mgl64.Vec3), center, n mgl64.Vec3, offset float64) {
	if n.Len() == 0 {
		return
	}
	n = n.Normalize()
	p0 := center.Sub(n.Mul(n.Dot(center) - offset))
	ref := mgl64.Vec3{1, 0, 0}
	if math.Abs(n.X()) > 0.9 {
		ref = mgl64.Vec3{0, 0, 1}
	}
	t1 := n.Cross(ref).Normalize()
	t2 := n.Cross(t1)
	for i := -2; i <= 2; i++ {
		o := float64(i) * planeExtent / 2
		seg(p0.Add(t1.Mul(-planeExtent)).Add(t2.Mul(o)), p0.Add(t1.Mul(planeExtent)).Add(t2.Mul(o)))
		seg(p0.Add(t2.Mul(-planeExtent)).Add(t1.Mul(o)), p0.Add(t2.Mul(planeExtent)).Add(t1.Mul(o)))
	}
}
