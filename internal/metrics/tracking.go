package metrics

import (
	"math"

	"github.com/san-kum/grabsim/internal/sim"
)

// TrackingError averages how far the held body trails its target. Frames
// where nothing holds the body are ignored.
type TrackingError struct {
	name    string
	sum     float64
	max     float64
	samples int
	peak    bool
}

func NewTrackingError() *TrackingError {
	return &TrackingError{name: "tracking_error"}
}

// NewMaxTrackingError reports the worst frame instead of the mean.
func NewMaxTrackingError() *TrackingError {
	return &TrackingError{name: "max_tracking_error", peak: true}
}

func (e *TrackingError) Name() string { return e.name }

func (e *TrackingError) Observe(s sim.Sample) {
	if !s.Held {
		return
	}
	d := s.TrackingError()
	e.sum += d
	e.max = math.Max(e.max, d)
	e.samples++
}

func (e *TrackingError) Value() float64 {
	if e.peak {
		return e.max
	}
	if e.samples == 0 {
		return 0
	}
	return e.sum / float64(e.samples)
}

func (e *TrackingError) Reset() {
	e.sum = 0
	e.max = 0
	e.samples = 0
}
