package body

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/grabsim/internal/geom"
	"github.com/san-kum/grabsim/internal/grab"
	"github.com/san-kum/grabsim/internal/integrators"
)

func newBody(t *testing.T, mutate func(*Config)) *Body {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Ground = false
	cfg.AngularDrag = 0
	if mutate != nil {
		mutate(&cfg)
	}
	b, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return b
}

func TestFreeFall(t *testing.T) {
	for _, name := range integrators.Names() {
		t.Run(name, func(t *testing.T) {
			b := newBody(t, func(c *Config) { c.Integrator = name })
			for i := 0; i < 100; i++ {
				b.Step(0.01)
			}
			if got := b.Velocity().Y(); math.Abs(got+DefaultGravity) > 1e-9 {
				t.Errorf("vy = %f, want %f", got, -DefaultGravity)
			}
			wantY := 1 - 0.5*DefaultGravity
			if got := b.Pose().Position.Y(); math.Abs(got-wantY) > 0.06 {
				t.Errorf("y = %f, want ~%f", got, wantY)
			}
		})
	}
}

func TestNoGravity(t *testing.T) {
	b := newBody(t, func(c *Config) { c.UseGravity = false })
	b.SetVelocity(mgl64.Vec3{1, 0, 0})
	for i := 0; i < 10; i++ {
		b.Step(0.1)
	}
	if got := b.Pose().Position; math.Abs(got.X()-1) > 1e-9 || got.Y() != 1 {
		t.Errorf("position = %v, want (1, 1, 0)", got)
	}
}

func TestKinematicMoves(t *testing.T) {
	b := newBody(t, func(c *Config) { c.Kinematic = true })
	target := mgl64.Vec3{2, 3, 4}
	turn := mgl64.QuatRotate(1, mgl64.Vec3{0, 1, 0})

	b.MovePosition(target)
	b.MoveRotation(turn)
	if b.Pose().Position == target {
		t.Fatal("move applied before Step")
	}

	b.Step(0.02)
	if b.Pose().Position != target {
		t.Errorf("position = %v, want %v", b.Pose().Position, target)
	}
	if !geom.RotationsEqual(b.Pose().Rotation, turn, 1e-12) {
		t.Errorf("rotation = %v, want %v", b.Pose().Rotation, turn)
	}

	b.Step(0.02)
	if b.Pose().Position != target {
		t.Error("kinematic body fell")
	}
}

func TestDrag(t *testing.T) {
	b := newBody(t, func(c *Config) {
		c.UseGravity = false
		c.Drag = 1
	})
	b.SetVelocity(mgl64.Vec3{0, 0, 2})
	b.Step(1)
	if got := b.Velocity().Z(); math.Abs(got-1) > 1e-12 {
		t.Errorf("vz = %f, want 1", got)
	}
}

func TestAngularVelocity(t *testing.T) {
	b := newBody(t, func(c *Config) { c.UseGravity = false })
	b.SetAngularVelocity(mgl64.Vec3{0, math.Pi, 0})
	for i := 0; i < 50; i++ {
		b.Step(0.01)
	}

	want := mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 1, 0})
	if !geom.RotationsEqual(b.Pose().Rotation, want, 1e-9) {
		t.Errorf("rotation = %v, want %v", b.Pose().Rotation, want)
	}
}

func TestGround(t *testing.T) {
	b := newBody(t, func(c *Config) { c.Ground = true })
	b.SetVelocity(mgl64.Vec3{1, 0, 0})
	for i := 0; i < 200; i++ {
		b.Step(0.01)
	}
	if !b.Resting() {
		t.Fatalf("expected body at rest, at %v moving %v", b.Pose().Position, b.Velocity())
	}
	if b.Pose().Position.X() <= 0 {
		t.Error("body should have travelled before landing")
	}
}

func TestWorldCenterOfMass(t *testing.T) {
	b := newBody(t, func(c *Config) {
		c.Position = [3]float64{1, 0, 0}
		c.CenterOfMass = [3]float64{0, 0, 1}
	})
	b.SetPose(geom.NewPose(b.Pose().Position, mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 1, 0})))

	got := b.WorldCenterOfMass()
	want := mgl64.Vec3{2, 0, 0}
	if got.Sub(want).Len() > 1e-12 {
		t.Errorf("center of mass = %v, want %v", got, want)
	}
}

func TestPhysicsStateRoundTrip(t *testing.T) {
	b := newBody(t, nil)
	b.SetVelocity(mgl64.Vec3{1, 2, 3})
	b.SetAngularVelocity(mgl64.Vec3{0, 1, 0})

	s := grab.PhysicsState{Kinematic: true, Drag: 3}
	b.SetPhysicsState(s)
	if b.PhysicsState() != s {
		t.Errorf("state = %+v, want %+v", b.PhysicsState(), s)
	}
	if b.Velocity() != (mgl64.Vec3{}) || b.AngularVelocity() != (mgl64.Vec3{}) {
		t.Error("body kept moving after turning kinematic")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero mass", func(c *Config) { c.Mass = 0 }},
		{"negative drag", func(c *Config) { c.Drag = -1 }},
		{"negative angular drag", func(c *Config) { c.AngularDrag = -1 }},
		{"unknown integrator", func(c *Config) { c.Integrator = "magic" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if _, err := New(cfg); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestKineticEnergy(t *testing.T) {
	b := newBody(t, func(c *Config) { c.Mass = 2 })
	b.SetVelocity(mgl64.Vec3{3, 4, 0})
	if got := b.KineticEnergy(); got != 25 {
		t.Errorf("kinetic energy = %f, want 25", got)
	}
	if got := b.Speed(); got != 5 {
		t.Errorf("speed = %f, want 5", got)
	}
}
