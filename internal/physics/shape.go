package physics

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Kind tags the primitive carried by a body.
type Kind int

const (
	KindSphere Kind = iota
	KindBox
	KindCylinder
	KindPlane
)

func (k Kind) String() string {
	switch k {
	case KindSphere:
		return "sphere"
	case KindBox:
		return "box"
	case KindCylinder:
		return "cylinder"
	case KindPlane:
		return "plane"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// AABB is an axis-aligned bounding box in world space.
type AABB struct {
	Min, Max mgl64.Vec3
}

func (b AABB) Overlaps(o AABB) bool {
	for i := 0; i < 3; i++ {
		if b.Max[i] < o.Min[i] || o.Max[i] < b.Min[i] {
			return false
		}
	}
	return true
}

// Shape is one of Sphere, Box, Cylinder or Plane.
type Shape interface {
	Kind() Kind
	// Bounds is the world-space AABB of the shape placed at pos with the
	// given orientation.
	Bounds(pos mgl64.Vec3, orient mgl64.Quat) AABB
	Validate() error
}

type Sphere struct {
	Radius float64
}

func (Sphere) Kind() Kind { return KindSphere }

func (s Sphere) Bounds(pos mgl64.Vec3, _ mgl64.Quat) AABB {
	r := mgl64.Vec3{s.Radius, s.Radius, s.Radius}
	return AABB{Min: pos.Sub(r), Max: pos.Add(r)}
}

func (s Sphere) Validate() error {
	if !positive(s.Radius) {
		return fmt.Errorf("%w: sphere radius %v", ErrInvalidShape, s.Radius)
	}
	return nil
}

// Box is centered on the body position; HalfExtents are along the body's
// local axes.
type Box struct {
	HalfExtents mgl64.Vec3
}

func (Box) Kind() Kind { return KindBox }

func (b Box) Bounds(pos mgl64.Vec3, orient mgl64.Quat) AABB {
	var ext mgl64.Vec3
	for j := 0; j < 3; j++ {
		axis := orient.Rotate(unitAxis(j)).Mul(b.HalfExtents[j])
		for i := 0; i < 3; i++ {
			ext[i] += math.Abs(axis[i])
		}
	}
	return AABB{Min: pos.Sub(ext), Max: pos.Add(ext)}
}

func (b Box) Validate() error {
	for i := 0; i < 3; i++ {
		if !positive(b.HalfExtents[i]) {
			return fmt.Errorf("%w: box half extents %v", ErrInvalidShape, b.HalfExtents)
		}
	}
	return nil
}

// Cylinder's axis is the body's local Y; it spans ±HalfHeight along it.
type Cylinder struct {
	Radius     float64
	HalfHeight float64
}

func (Cylinder) Kind() Kind { return KindCylinder }

func (c Cylinder) Bounds(pos mgl64.Vec3, orient mgl64.Quat) AABB {
	axis := orient.Rotate(mgl64.Vec3{0, 1, 0})
	var ext mgl64.Vec3
	for i := 0; i < 3; i++ {
		ext[i] = math.Abs(axis[i])*c.HalfHeight + c.Radius*math.Sqrt(math.Max(0, 1-axis[i]*axis[i]))
	}
	return AABB{Min: pos.Sub(ext), Max: pos.Add(ext)}
}

func (c Cylinder) Validate() error {
	if !positive(c.Radius) || !positive(c.HalfHeight) {
		return fmt.Errorf("%w: cylinder radius %v half height %v", ErrInvalidShape, c.Radius, c.HalfHeight)
	}
	return nil
}

// Plane bounds the free half-space dot(p, Normal) >= Offset; everything on
// the other side is solid. Planes are static. Normal is kept unit length by
// the constructors that build plane bodies.
type Plane struct {
	Normal mgl64.Vec3
	Offset float64
}

func (Plane) Kind() Kind { return KindPlane }

func (Plane) Bounds(mgl64.Vec3, mgl64.Quat) AABB {
	inf := math.Inf(1)
	return AABB{Min: mgl64.Vec3{-inf, -inf, -inf}, Max: mgl64.Vec3{inf, inf, inf}}
}

func (p Plane) Validate() error {
	if l := p.Normal.Len(); l < 1e-9 || !finite(l) || !finite(p.Offset) {
		return fmt.Errorf("%w: plane normal %v offset %v", ErrInvalidShape, p.Normal, p.Offset)
	}
	return nil
}

// SignedDistance is the distance of point above the plane surface.
func (p Plane) SignedDistance(point mgl64.Vec3) float64 {
	return point.Dot(p.Normal) - p.Offset
}

func unitAxis(i int) mgl64.Vec3 {
	var v mgl64.Vec3
	v[i] = 1
	return v
}

func positive(x float64) bool { return x > 0 && finite(x) }

func finite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }

func finiteVec(v mgl64.Vec3) bool { return finite(v[0]) && finite(v[1]) && finite(v[2]) }
