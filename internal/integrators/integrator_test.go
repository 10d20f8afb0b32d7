package integrators

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/jaxs-ribs/arena-sub001/internal/physics"
)

var gravity = mgl64.Vec3{0, -9.81, 0}

func dropped(h float64) physics.Body {
	return physics.NewBody(physics.Sphere{Radius: 0.5}, mgl64.Vec3{0, h, 0}, 1)
}

func TestFreeFall(t *testing.T) {
	const (
		h0    = 10.0
		dt    = 0.01
		steps = 100
		g     = 9.81
	)
	n := float64(steps)
	tm := dt * n

	tests := []struct {
		name     string
		integ    Integrator
		expected float64
	}{
		{"semi-implicit euler", NewSemiImplicitEuler(), h0 - g*dt*dt*n*(n+1)/2},
		{"explicit euler", NewEuler(), h0 - g*dt*dt*n*(n-1)/2},
		{"verlet", NewVerlet(), h0 - 0.5*g*tm*tm},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := dropped(h0)
			for i := 0; i < steps; i++ {
				tt.integ.Step(&b, gravity, mgl64.Vec3{}, dt)
			}
			if math.Abs(b.Position[1]-tt.expected) > 1e-9 {
				t.Errorf("expected height %.9f, got %.9f", tt.expected, b.Position[1])
			}
			if math.Abs(b.Velocity[1]+g*tm) > 1e-9 {
				t.Errorf("expected velocity %.6f, got %.6f", -g*tm, b.Velocity[1])
			}
		})
	}
}

func TestSemiImplicitMatchesContinuousWithinOneStep(t *testing.T) {
	b := dropped(10)
	for i := 0; i < 100; i++ {
		NewSemiImplicitEuler().Step(&b, gravity, mgl64.Vec3{}, 0.01)
	}
	continuous := 10 - 0.5*9.81*1.0*1.0
	// The scheme runs ahead of the continuous solution by g*dt*T/2.
	if diff := continuous - b.Position[1]; math.Abs(diff-0.5*9.81*0.01) > 1e-9 {
		t.Errorf("expected lead of %.6f, got %.6f", 0.5*9.81*0.01, diff)
	}
}

func TestForceScalesWithInverseMass(t *testing.T) {
	light := dropped(0)
	heavy := dropped(0)
	heavy.Mass = 4

	force := mgl64.Vec3{8, 0, 0}
	NewSemiImplicitEuler().Step(&light, mgl64.Vec3{}, force, 0.5)
	NewSemiImplicitEuler().Step(&heavy, mgl64.Vec3{}, force, 0.5)

	if math.Abs(light.Velocity[0]-4) > 1e-12 {
		t.Errorf("expected light velocity 4, got %v", light.Velocity[0])
	}
	if math.Abs(heavy.Velocity[0]-1) > 1e-12 {
		t.Errorf("expected heavy velocity 1, got %v", heavy.Velocity[0])
	}
}

func TestOrientationStaysUnit(t *testing.T) {
	b := dropped(0)
	b.AngularVelocity = mgl64.Vec3{3, -2, 7}
	integ := NewSemiImplicitEuler()
	for i := 0; i < 10000; i++ {
		integ.Step(&b, mgl64.Vec3{}, mgl64.Vec3{}, 0.01)
	}
	if l := b.Orientation.Len(); math.Abs(l-1) > 1e-9 {
		t.Errorf("expected unit quaternion, got length %v", l)
	}
}

func TestSpinQuarterTurn(t *testing.T) {
	b := dropped(0)
	b.AngularVelocity = mgl64.Vec3{0, math.Pi / 2, 0}
	NewSemiImplicitEuler().Step(&b, mgl64.Vec3{}, mgl64.Vec3{}, 1)

	got := b.Orientation.Rotate(mgl64.Vec3{1, 0, 0})
	if math.Abs(got[2]+1) > 1e-9 {
		t.Errorf("expected x axis to turn to -z, got %v", got)
	}
}

func TestNew(t *testing.T) {
	for _, name := range Names() {
		if _, err := New(name); err != nil {
			t.Errorf("New(%q): %v", name, err)
		}
	}
	if _, err := New(""); err != nil {
		t.Errorf("expected default integrator, got %v", err)
	}
	if _, err := New("rk4"); err == nil {
		t.Error("expected error for unknown integrator")
	}
}

func BenchmarkSemiImplicitEuler(b *testing.B) {
	bodies := make([]physics.Body, 1000)
	for i := range bodies {
		bodies[i] = dropped(float64(i))
		bodies[i].AngularVelocity = mgl64.Vec3{0, 1, 0}
	}
	integ := NewSemiImplicitEuler()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for j := range bodies {
			integ.Step(&bodies[j], gravity, mgl64.Vec3{}, 0.001)
		}
	}
}
