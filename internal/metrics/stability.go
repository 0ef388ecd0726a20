package metrics

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/grabsim/internal/sim"
)

// Stability is the fraction of frames where the body stayed finite, within
// threshold metres of where it was first seen and under threshold m/s.
type Stability struct {
	threshold float64
	origin    mgl64.Vec3
	frames    int
	escaped   int
}

func NewStability(threshold float64) *Stability {
	return &Stability{threshold: threshold}
}

func (s *Stability) Name() string { return "stability" }

func (s *Stability) Observe(smp sim.Sample) {
	if s.frames == 0 {
		s.origin = smp.Position
	}
	s.frames++

	drift := smp.Position.Sub(s.origin).Len()
	// Negated so NaN counts as escaped.
	if !(drift <= s.threshold && smp.Speed() <= s.threshold) {
		s.escaped++
	}
}

func (s *Stability) Value() float64 {
	if s.frames == 0 {
		return 1
	}
	return 1 - float64(s.escaped)/float64(s.frames)
}

func (s *Stability) Reset() { *s = Stability{threshold: s.threshold} }
