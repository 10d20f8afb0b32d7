package physics

// detector tests two bodies of known kinds. The contact's A/B indices are
// filled in by the caller.
type detector func(a, b *Body) (Contact, Outcome)

type pairKey struct {
	a, b Kind
}

// detectors holds one entry per supported ordered pair. The reversed order
// is served by swapping the arguments and flipping the normal.
var detectors = map[pairKey]detector{
	{KindSphere, KindSphere}:   sphereSphere,
	{KindPlane, KindSphere}:    planeSphere,
	{KindBox, KindSphere}:      boxSphere,
	{KindCylinder, KindSphere}: cylinderSphere,
	{KindBox, KindBox}:         boxBox,
	{KindPlane, KindBox}:       planeBox,
	{KindPlane, KindCylinder}:  planeCylinder,
	{KindPlane, KindPlane}:     planePlane,
}

// Collide runs the narrow-phase test for a and b. The contact normal points
// from a to b and carries the combined material. Pairs without a detector,
// such as box-cylinder, report Unsupported.
func Collide(a, b *Body) (Contact, Outcome) {
	ka, kb := a.Kind(), b.Kind()
	if d, ok := detectors[pairKey{ka, kb}]; ok {
		c, out := d(a, b)
		return finish(c, out, a, b)
	}
	if d, ok := detectors[pairKey{kb, ka}]; ok {
		c, out := d(b, a)
		c.Normal = c.Normal.Mul(-1)
		return finish(c, out, a, b)
	}
	return Contact{}, Unsupported
}

// Supported reports whether a detector exists for the two kinds in either
// order. A supported pair may still report Unsupported for some poses, such
// as rotated boxes.
func Supported(a, b Kind) bool {
	_, ok := detectors[pairKey{a, b}]
	if !ok {
		_, ok = detectors[pairKey{b, a}]
	}
	return ok
}

func finish(c Contact, out Outcome, a, b *Body) (Contact, Outcome) {
	if out != Hit {
		return Contact{}, out
	}
	m := CombineMaterials(a.Material, b.Material)
	c.Friction, c.Restitution = m.Friction, m.Restitution
	return c, Hit
}
