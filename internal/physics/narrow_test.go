package physics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sphereAt(x, y, z, r float64) Body {
	return NewBody(Sphere{Radius: r}, mgl64.Vec3{x, y, z}, 1)
}

func ground() Body {
	return NewBody(Plane{Normal: mgl64.Vec3{0, 1, 0}}, mgl64.Vec3{}, 0)
}

func assertVec(t *testing.T, want, got mgl64.Vec3, delta float64) {
	t.Helper()
	for i := 0; i < 3; i++ {
		assert.InDelta(t, want[i], got[i], delta, "component %d of %v", i, got)
	}
}

func TestCollideOutcomes(t *testing.T) {
	tilted := NewBody(Box{HalfExtents: mgl64.Vec3{1, 1, 1}}, mgl64.Vec3{0, 1.5, 0}, 1)
	tilted.Orientation = mgl64.QuatRotate(0.3, mgl64.Vec3{0, 0, 1})

	tests := []struct {
		name string
		a, b Body
		want Outcome
	}{
		{"spheres apart", sphereAt(0, 0, 0, 1), sphereAt(3, 0, 0, 1), Miss},
		{"spheres touching exactly", sphereAt(0, 0, 0, 1), sphereAt(2, 0, 0, 1), Miss},
		{"spheres overlapping", sphereAt(0, 0, 0, 1), sphereAt(1.5, 0, 0, 1), Hit},
		{"sphere above ground", sphereAt(0, 2, 0, 0.5), ground(), Miss},
		{"sphere in ground", sphereAt(0, 0.4, 0, 0.5), ground(), Hit},
		{"box on box", NewBody(Box{HalfExtents: mgl64.Vec3{1, 1, 1}}, mgl64.Vec3{}, 1), NewBody(Box{HalfExtents: mgl64.Vec3{1, 1, 1}}, mgl64.Vec3{0, 1.5, 0}, 1), Hit},
		{"rotated box on box", NewBody(Box{HalfExtents: mgl64.Vec3{1, 1, 1}}, mgl64.Vec3{}, 1), tilted, Unsupported},
		{"box and cylinder", NewBody(Box{HalfExtents: mgl64.Vec3{1, 1, 1}}, mgl64.Vec3{}, 1), NewBody(Cylinder{Radius: 1, HalfHeight: 1}, mgl64.Vec3{}, 1), Unsupported},
		{"cylinder and cylinder", NewBody(Cylinder{Radius: 1, HalfHeight: 1}, mgl64.Vec3{}, 1), NewBody(Cylinder{Radius: 1, HalfHeight: 1}, mgl64.Vec3{}, 1), Unsupported},
		{"two planes", ground(), ground(), Miss},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, got := Collide(&tt.a, &tt.b)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSphereSphereContact(t *testing.T) {
	a, b := sphereAt(0, 0, 0, 1), sphereAt(1.5, 0, 0, 1)
	c, out := Collide(&a, &b)
	require.Equal(t, Hit, out)
	assertVec(t, mgl64.Vec3{1, 0, 0}, c.Normal, 1e-12)
	assert.InDelta(t, 0.5, c.Depth, 1e-12)
	assertVec(t, mgl64.Vec3{0.75, 0, 0}, c.Point, 1e-12)
}

func TestSphereSphereCoincidentCenters(t *testing.T) {
	a, b := sphereAt(1, 1, 1, 1), sphereAt(1, 1, 1, 0.5)
	c, out := Collide(&a, &b)
	require.Equal(t, Hit, out)
	assertVec(t, mgl64.Vec3{0, 1, 0}, c.Normal, 0)
	assert.InDelta(t, 1.5, c.Depth, 1e-12)
}

func TestReversedPairFlipsNormal(t *testing.T) {
	s, g := sphereAt(0, 0.3, 0, 0.5), ground()

	c1, out := Collide(&g, &s)
	require.Equal(t, Hit, out)
	assertVec(t, mgl64.Vec3{0, 1, 0}, c1.Normal, 0)
	assert.InDelta(t, 0.2, c1.Depth, 1e-12)

	c2, out := Collide(&s, &g)
	require.Equal(t, Hit, out)
	assertVec(t, mgl64.Vec3{0, -1, 0}, c2.Normal, 0)
	assert.InDelta(t, c1.Depth, c2.Depth, 0)
}

func TestSphereBox(t *testing.T) {
	box := NewBody(Box{HalfExtents: mgl64.Vec3{1, 0.5, 1}}, mgl64.Vec3{}, 1)

	t.Run("outside face", func(t *testing.T) {
		s := sphereAt(0, 0.8, 0, 0.5)
		c, out := Collide(&box, &s)
		require.Equal(t, Hit, out)
		assertVec(t, mgl64.Vec3{0, 1, 0}, c.Normal, 1e-12)
		assert.InDelta(t, 0.2, c.Depth, 1e-12)
		assertVec(t, mgl64.Vec3{0, 0.5, 0}, c.Point, 1e-12)
	})

	t.Run("near corner misses", func(t *testing.T) {
		s := sphereAt(1.4, 0.9, 1.4, 0.5)
		_, out := Collide(&box, &s)
		assert.Equal(t, Miss, out)
	})

	t.Run("center inside exits nearest face", func(t *testing.T) {
		s := sphereAt(0.9, 0.1, 0, 0.2)
		c, out := Collide(&s, &box)
		require.Equal(t, Hit, out)
		// from sphere to box: against the +x face normal
		assertVec(t, mgl64.Vec3{-1, 0, 0}, c.Normal, 1e-12)
		assert.InDelta(t, 0.3, c.Depth, 1e-12)
	})

	t.Run("rotated box", func(t *testing.T) {
		rot := box
		rot.Orientation = mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 0, 1})
		s := sphereAt(0.8, 0, 0, 0.5)
		c, out := Collide(&rot, &s)
		require.Equal(t, Hit, out)
		assertVec(t, mgl64.Vec3{1, 0, 0}, c.Normal, 1e-9)
		assert.InDelta(t, 0.2, c.Depth, 1e-9)
	})
}

func TestSphereCylinder(t *testing.T) {
	cyl := NewBody(Cylinder{Radius: 1, HalfHeight: 2}, mgl64.Vec3{}, 1)

	tests := []struct {
		name   string
		sphere Body
		normal mgl64.Vec3
		depth  float64
	}{
		{"curved side", sphereAt(1.3, 0.5, 0, 0.5), mgl64.Vec3{1, 0, 0}, 0.2},
		{"top cap", sphereAt(0.2, 2.4, 0, 0.5), mgl64.Vec3{0, 1, 0}, 0.1},
		{"bottom cap", sphereAt(0, -2.25, 0.3, 0.5), mgl64.Vec3{0, -1, 0}, 0.25},
		{"inside near side", sphereAt(0, 0, 0.9, 0.1), mgl64.Vec3{0, 0, 1}, 0.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, out := Collide(&cyl, &tt.sphere)
			require.Equal(t, Hit, out)
			assertVec(t, tt.normal, c.Normal, 1e-9)
			assert.InDelta(t, tt.depth, c.Depth, 1e-9)
		})
	}

	t.Run("past the rim", func(t *testing.T) {
		s := sphereAt(1.4, 2.4, 0, 0.5)
		_, out := Collide(&cyl, &s)
		assert.Equal(t, Miss, out)
	})
}

func TestBoxBox(t *testing.T) {
	a := NewBody(Box{HalfExtents: mgl64.Vec3{1, 1, 1}}, mgl64.Vec3{}, 1)
	b := NewBody(Box{HalfExtents: mgl64.Vec3{0.5, 0.5, 0.5}}, mgl64.Vec3{0.2, 1.3, 0}, 1)

	c, out := Collide(&a, &b)
	require.Equal(t, Hit, out)
	assertVec(t, mgl64.Vec3{0, 1, 0}, c.Normal, 0)
	assert.InDelta(t, 0.2, c.Depth, 1e-12)
	assert.InDelta(t, 0.9, c.Point[1], 1e-12)

	c, out = Collide(&b, &a)
	require.Equal(t, Hit, out)
	assertVec(t, mgl64.Vec3{0, -1, 0}, c.Normal, 0)
}

func TestPlaneBox(t *testing.T) {
	box := NewBody(Box{HalfExtents: mgl64.Vec3{1, 1, 1}}, mgl64.Vec3{0, 1.2, 0}, 1)
	g := ground()

	_, out := Collide(&g, &box)
	assert.Equal(t, Miss, out)

	box.Orientation = mgl64.QuatRotate(math.Pi/4, mgl64.Vec3{0, 0, 1})
	c, out := Collide(&g, &box)
	require.Equal(t, Hit, out)
	assert.InDelta(t, math.Sqrt2-1.2, c.Depth, 1e-9)
	assert.InDelta(t, -(math.Sqrt2 - 1.2), c.Point[1], 1e-9)
}

func TestPlaneCylinder(t *testing.T) {
	g := ground()

	upright := NewBody(Cylinder{Radius: 0.5, HalfHeight: 1}, mgl64.Vec3{0, 0.9, 0}, 1)
	c, out := Collide(&g, &upright)
	require.Equal(t, Hit, out)
	assert.InDelta(t, 0.1, c.Depth, 1e-12)
	assertVec(t, mgl64.Vec3{0, 1, 0}, c.Normal, 0)

	lying := NewBody(Cylinder{Radius: 0.5, HalfHeight: 1}, mgl64.Vec3{0, 0.45, 0}, 1)
	lying.Orientation = mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{1, 0, 0})
	c, out = Collide(&g, &lying)
	require.Equal(t, Hit, out)
	assert.InDelta(t, 0.05, c.Depth, 1e-9)

	lying.Position[1] = 0.6
	_, out = Collide(&g, &lying)
	assert.Equal(t, Miss, out)
}

func TestContactCarriesCombinedMaterial(t *testing.T) {
	a, b := sphereAt(0, 0, 0, 1), sphereAt(1, 0, 0, 1)
	a.Material = Material{Friction: 0.25, Restitution: 0.81}
	b.Material = Material{Friction: 1, Restitution: 0.25}

	c, out := Collide(&a, &b)
	require.Equal(t, Hit, out)
	assert.InDelta(t, 0.5, c.Friction, 1e-12)
	assert.InDelta(t, 0.45, c.Restitution, 1e-12)
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported(KindSphere, KindPlane))
	assert.True(t, Supported(KindCylinder, KindPlane))
	assert.True(t, Supported(KindBox, KindSphere))
	assert.False(t, Supported(KindBox, KindCylinder))
	assert.False(t, Supported(KindCylinder, KindCylinder))
}

func TestBounds(t *testing.T) {
	box := NewBody(Box{HalfExtents: mgl64.Vec3{1, 2, 3}}, mgl64.Vec3{1, 1, 1}, 1)
	b := box.Bounds()
	assertVec(t, mgl64.Vec3{0, -1, -2}, b.Min, 1e-12)
	assertVec(t, mgl64.Vec3{2, 3, 4}, b.Max, 1e-12)

	box.Orientation = mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 0, 1})
	b = box.Bounds()
	assertVec(t, mgl64.Vec3{-1, 0, -2}, b.Min, 1e-9)
	assertVec(t, mgl64.Vec3{3, 2, 4}, b.Max, 1e-9)

	cyl := NewBody(Cylinder{Radius: 0.5, HalfHeight: 2}, mgl64.Vec3{}, 1)
	b = cyl.Bounds()
	assertVec(t, mgl64.Vec3{-0.5, -2, -0.5}, b.Min, 1e-12)

	assert.True(t, AABB{Max: mgl64.Vec3{1, 1, 1}}.Overlaps(AABB{Min: mgl64.Vec3{1, 1, 1}, Max: mgl64.Vec3{2, 2, 2}}))
	assert.False(t, AABB{Max: mgl64.Vec3{1, 1, 1}}.Overlaps(AABB{Min: mgl64.Vec3{1.1, 0, 0}, Max: mgl64.Vec3{2, 2, 2}}))
}
