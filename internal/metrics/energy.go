package metrics

import (
	"math"

	"github.com/san-kum/grabsim/internal/sim"
)

// Energy is the mean translational kinetic energy over the run.
type Energy struct {
	name        string
	samples     int
	totalEnergy float64
}

func NewEnergy() *Energy {
	return &Energy{name: "energy"}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(s sim.Sample) {
	e.totalEnergy += s.KineticEnergy
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.totalEnergy / float64(e.samples)
}

func (e *Energy) Reset() {
	e.totalEnergy = 0
	e.samples = 0
}

// PeakSpeed is the highest body speed seen.
type PeakSpeed struct {
	name string
	peak float64
}

func NewPeakSpeed() *PeakSpeed {
	return &PeakSpeed{name: "peak_speed"}
}

func (p *PeakSpeed) Name() string { return p.name }

func (p *PeakSpeed) Observe(s sim.Sample) {
	p.peak = math.Max(p.peak, s.Speed())
}

func (p *PeakSpeed) Value() float64 { return p.peak }

func (p *PeakSpeed) Reset() { p.peak = 0 }

// ReleaseSpeed is the body speed on the first frame after it was let go,
// or zero if it never was.
type ReleaseSpeed struct {
	name     string
	wasHeld  bool
	released bool
	speed    float64
}

func NewReleaseSpeed() *ReleaseSpeed {
	return &ReleaseSpeed{name: "release_speed"}
}

func (r *ReleaseSpeed) Name() string { return r.name }

func (r *ReleaseSpeed) Observe(s sim.Sample) {
	if r.released {
		return
	}
	if r.wasHeld && !s.Held {
		r.speed = s.Speed()
		r.released = true
	}
	r.wasHeld = s.Held
}

func (r *ReleaseSpeed) Value() float64 { return r.speed }

func (r *ReleaseSpeed) Reset() {
	r.wasHeld = false
	r.released = false
	r.speed = 0
}
