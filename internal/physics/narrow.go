package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const epsilon = 1e-9

var up = mgl64.Vec3{0, 1, 0}

func sphereSphere(a, b *Body) (Contact, Outcome) {
	ra := a.Shape.(Sphere).Radius
	rb := b.Shape.(Sphere).Radius
	d := b.Position.Sub(a.Position)
	dist := d.Len()
	if dist >= ra+rb {
		return Contact{}, Miss
	}
	n := up
	if dist > epsilon {
		n = d.Mul(1 / dist)
	}
	depth := ra + rb - dist
	return Contact{
		Point:  a.Position.Add(n.Mul(ra - depth/2)),
		Normal: n,
		Depth:  depth,
	}, Hit
}

func planeSphere(a, b *Body) (Contact, Outcome) {
	pl := a.Shape.(Plane)
	r := b.Shape.(Sphere).Radius
	dist := pl.SignedDistance(b.Position)
	if dist >= r {
		return Contact{}, Miss
	}
	return Contact{
		Point:  b.Position.Sub(pl.Normal.Mul(dist)),
		Normal: pl.Normal,
		Depth:  r - dist,
	}, Hit
}

// boxSphere finds the point of the box closest to the sphere center in the
// box frame. A center inside the box is pushed out through the nearest
// face.
func boxSphere(a, b *Body) (Contact, Outcome) {
	he := a.Shape.(Box).HalfExtents
	r := b.Shape.(Sphere).Radius
	inv := a.Orientation.Conjugate()
	local := inv.Rotate(b.Position.Sub(a.Position))

	var closest mgl64.Vec3
	inside := true
	for i := 0; i < 3; i++ {
		closest[i] = mgl64.Clamp(local[i], -he[i], he[i])
		if closest[i] != local[i] {
			inside = false
		}
	}

	var normal, surface mgl64.Vec3
	var depth float64
	if inside {
		axis, pen := 0, math.Inf(1)
		for i := 0; i < 3; i++ {
			if p := he[i] - math.Abs(local[i]); p < pen {
				axis, pen = i, p
			}
		}
		s := sign(local[axis])
		normal = unitAxis(axis).Mul(s)
		surface = local
		surface[axis] = s * he[axis]
		depth = r + pen
	} else {
		diff := local.Sub(closest)
		dist := diff.Len()
		if dist >= r {
			return Contact{}, Miss
		}
		normal = diff.Mul(1 / dist)
		surface = closest
		depth = r - dist
	}
	return Contact{
		Point:  a.Position.Add(a.Orientation.Rotate(surface)),
		Normal: a.Orientation.Rotate(normal),
		Depth:  depth,
	}, Hit
}

// cylinderSphere clamps the sphere center's height into the cylinder's span,
// then projects radially onto the curved surface or keeps the point on an
// end cap. Centers inside the solid exit through the nearer of the side and
// the caps.
func cylinderSphere(a, b *Body) (Contact, Outcome) {
	cy := a.Shape.(Cylinder)
	r := b.Shape.(Sphere).Radius
	local := a.Orientation.Conjugate().Rotate(b.Position.Sub(a.Position))

	radial := mgl64.Vec3{local[0], 0, local[2]}
	rl := radial.Len()
	y := local[1]

	var normal, surface mgl64.Vec3
	var depth float64
	if rl <= cy.Radius && math.Abs(y) <= cy.HalfHeight {
		sidePen := cy.Radius - rl
		capPen := cy.HalfHeight - math.Abs(y)
		if capPen <= sidePen {
			normal = mgl64.Vec3{0, sign(y), 0}
			surface = mgl64.Vec3{local[0], sign(y) * cy.HalfHeight, local[2]}
			depth = r + capPen
		} else {
			dir := mgl64.Vec3{1, 0, 0}
			if rl > epsilon {
				dir = radial.Mul(1 / rl)
			}
			normal = dir
			surface = dir.Mul(cy.Radius).Add(mgl64.Vec3{0, y, 0})
			depth = r + sidePen
		}
	} else {
		closest := mgl64.Vec3{local[0], mgl64.Clamp(y, -cy.HalfHeight, cy.HalfHeight), local[2]}
		if rl > cy.Radius {
			rim := radial.Mul(cy.Radius / rl)
			closest[0], closest[2] = rim[0], rim[2]
		}
		diff := local.Sub(closest)
		dist := diff.Len()
		if dist >= r {
			return Contact{}, Miss
		}
		normal = diff.Mul(1 / dist)
		surface = closest
		depth = r - dist
	}
	return Contact{
		Point:  a.Position.Add(a.Orientation.Rotate(surface)),
		Normal: a.Orientation.Rotate(normal),
		Depth:  depth,
	}, Hit
}

// boxBox separates two boxes along the world axis of least overlap. Only
// axis-aligned boxes are handled; a rotated box reports Unsupported.
func boxBox(a, b *Body) (Contact, Outcome) {
	if !axisAligned(a.Orientation) || !axisAligned(b.Orientation) {
		return Contact{}, Unsupported
	}
	ha := a.Shape.(Box).HalfExtents
	hb := b.Shape.(Box).HalfExtents
	d := b.Position.Sub(a.Position)

	axis, depth := -1, math.Inf(1)
	var point mgl64.Vec3
	for i := 0; i < 3; i++ {
		overlap := ha[i] + hb[i] - math.Abs(d[i])
		if overlap <= 0 {
			return Contact{}, Miss
		}
		if overlap < depth {
			axis, depth = i, overlap
		}
		lo := math.Max(a.Position[i]-ha[i], b.Position[i]-hb[i])
		hi := math.Min(a.Position[i]+ha[i], b.Position[i]+hb[i])
		point[i] = (lo + hi) / 2
	}
	return Contact{
		Point:  point,
		Normal: unitAxis(axis).Mul(sign(d[axis])),
		Depth:  depth,
	}, Hit
}

// planeBox tests the box corner deepest below the plane.
func planeBox(a, b *Body) (Contact, Outcome) {
	pl := a.Shape.(Plane)
	he := b.Shape.(Box).HalfExtents
	corner := b.Position
	for i := 0; i < 3; i++ {
		axis := b.Orientation.Rotate(unitAxis(i))
		corner = corner.Sub(axis.Mul(he[i] * sign(axis.Dot(pl.Normal))))
	}
	dist := pl.SignedDistance(corner)
	if dist >= 0 {
		return Contact{}, Miss
	}
	return Contact{Point: corner, Normal: pl.Normal, Depth: -dist}, Hit
}

// planeCylinder tests the point of the cylinder deepest below the plane: the
// lower cap center pushed out to the rim against the plane normal. An
// upright cylinder reduces to its bottom cap.
func planeCylinder(a, b *Body) (Contact, Outcome) {
	pl := a.Shape.(Plane)
	cy := b.Shape.(Cylinder)
	axis := b.Orientation.Rotate(up)
	along := axis.Dot(pl.Normal)

	support := b.Position.Sub(axis.Mul(cy.HalfHeight * sign(along)))
	if radial := pl.Normal.Sub(axis.Mul(along)); radial.Len() > epsilon {
		support = support.Sub(radial.Normalize().Mul(cy.Radius))
	}
	dist := pl.SignedDistance(support)
	if dist >= 0 {
		return Contact{}, Miss
	}
	return Contact{Point: support, Normal: pl.Normal, Depth: -dist}, Hit
}

func planePlane(_, _ *Body) (Contact, Outcome) {
	return Contact{}, Miss
}

func sign(x float64) float64 {
	if x < 0 {
		return -1
	}
	return 1
}

func axisAligned(q mgl64.Quat) bool {
	return q.V.Len() < 1e-6
}
