package metrics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/grabsim/internal/sim"
)

func held(pos, target mgl64.Vec3) sim.Sample {
	return sim.Sample{Position: pos, Target: target, Held: true}
}

func TestEnergy(t *testing.T) {
	m := NewEnergy()
	m.Observe(sim.Sample{KineticEnergy: 2})
	m.Observe(sim.Sample{KineticEnergy: 4})
	if m.Value() != 3 {
		t.Errorf("mean energy = %v, want 3", m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero energy after reset")
	}
}

func TestPeakSpeed(t *testing.T) {
	m := NewPeakSpeed()
	for _, v := range []mgl64.Vec3{{1, 0, 0}, {0, 3, 4}, {0, 0, 2}} {
		m.Observe(sim.Sample{Velocity: v})
	}
	if m.Value() != 5 {
		t.Errorf("peak speed = %v, want 5", m.Value())
	}
}

func TestReleaseSpeed(t *testing.T) {
	m := NewReleaseSpeed()
	m.Observe(sim.Sample{Velocity: mgl64.Vec3{9, 0, 0}})
	m.Observe(sim.Sample{Held: true, Velocity: mgl64.Vec3{1, 0, 0}})
	m.Observe(sim.Sample{Velocity: mgl64.Vec3{0, 2, 0}})
	m.Observe(sim.Sample{Velocity: mgl64.Vec3{0, 7, 0}})
	if m.Value() != 2 {
		t.Errorf("release speed = %v, want 2", m.Value())
	}

	m.Reset()
	m.Observe(sim.Sample{Held: true})
	if m.Value() != 0 {
		t.Errorf("never released, got %v", m.Value())
	}
}

func TestTrackingError(t *testing.T) {
	mean, peak := NewTrackingError(), NewMaxTrackingError()
	samples := []sim.Sample{
		held(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 0, 0}),
		held(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 3, 0}),
		{Position: mgl64.Vec3{100, 0, 0}},
	}
	for _, s := range samples {
		mean.Observe(s)
		peak.Observe(s)
	}
	if mean.Value() != 2 {
		t.Errorf("mean = %v, want 2", mean.Value())
	}
	if peak.Value() != 3 {
		t.Errorf("max = %v, want 3", peak.Value())
	}
}

func TestStability(t *testing.T) {
	tests := []struct {
		name    string
		samples []sim.Sample
		want    float64
	}{
		{"empty", nil, 1},
		{"inside", []sim.Sample{{Position: mgl64.Vec3{1, 2, 3}}}, 1},
		{"far", []sim.Sample{{Position: mgl64.Vec3{0, 0, 0}}, {Position: mgl64.Vec3{0, -20, 0}}}, 0.5},
		{"fast", []sim.Sample{{Velocity: mgl64.Vec3{11, 0, 0}}}, 0},
		{"nan", []sim.Sample{{Position: mgl64.Vec3{math.NaN(), 0, 0}}}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewStability(10)
			for _, s := range tt.samples {
				m.Observe(s)
			}
			if got := m.Value(); got != tt.want {
				t.Errorf("Value() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestByName(t *testing.T) {
	for _, name := range Names() {
		m, err := ByName(name)
		if err != nil {
			t.Fatalf("ByName(%q): %v", name, err)
		}
		if m.Name() != name {
			t.Errorf("ByName(%q).Name() = %q", name, m.Name())
		}
	}
	if _, err := ByName("jerk"); err == nil {
		t.Error("expected error for unknown metric")
	}
	if len(All()) != len(Names()) {
		t.Error("All and Names disagree")
	}
}
