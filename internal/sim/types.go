package sim

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/grabsim/internal/geom"
	"github.com/san-kum/grabsim/internal/grab"
)

var (
	// ErrInvalidConfig indicates frame timing the loop cannot run with.
	ErrInvalidConfig = errors.New("sim: invalid config")

	// ErrUnknownHand indicates a scripted action naming a hand the scenario
	// does not have.
	ErrUnknownHand = errors.New("sim: unknown hand")

	// ErrDiverged indicates the body state became NaN or Inf.
	ErrDiverged = errors.New("sim: body state diverged")
)

const (
	DefaultDt            = 1.0 / 90
	DefaultFixedDt       = 0.02
	DefaultMaxFixedSteps = 8
)

// Config is the frame timing. Dt is the render frame, FixedDt the physics
// step. A zero Duration runs until the scenario has settled.
type Config struct {
	Dt            float64 `yaml:"dt"`
	FixedDt       float64 `yaml:"fixed_dt"`
	Duration      float64 `yaml:"duration"`
	MaxFixedSteps int     `yaml:"max_fixed_steps"`
}

func DefaultConfig() Config {
	return Config{
		Dt:            DefaultDt,
		FixedDt:       DefaultFixedDt,
		MaxFixedSteps: DefaultMaxFixedSteps,
	}
}

// Sample is the recorded state at the end of one frame. Hand and Target
// are zero while nothing holds the body.
type Sample struct {
	Time            float64
	Position        mgl64.Vec3
	Rotation        mgl64.Quat
	Velocity        mgl64.Vec3
	AngularVelocity mgl64.Vec3
	Hand            mgl64.Vec3
	Target          mgl64.Vec3
	Held            bool
	KineticEnergy   float64
}

func (s Sample) Speed() float64 { return s.Velocity.Len() }

// TrackingError is how far the body trails its solved target.
func (s Sample) TrackingError() float64 {
	if !s.Held {
		return 0
	}
	return s.Position.Sub(s.Target).Len()
}

func (s Sample) valid() bool {
	return geom.IsFinite(s.Position) && geom.IsFinite(s.Velocity) && !math.IsNaN(s.Rotation.W)
}

type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

type Observer interface {
	OnFrame(s Sample)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Sample)

func (f ObserverFunc) OnFrame(s Sample) { f(s) }

// Release is the throw handed to the body when it was let go.
type Release struct {
	Time            float64
	Velocity        mgl64.Vec3
	AngularVelocity mgl64.Vec3
}

type Result struct {
	Samples    []Sample
	Events     []grab.Event
	Release    *Release
	Metrics    map[string]float64
	Frames     int
	FixedSteps int
	Errors     []error
}

// Series names understood by Result.Series.
var SeriesNames = []string{
	"x", "y", "z", "speed", "energy", "hand_x", "hand_y", "hand_z", "tracking_error",
}

// Series extracts one scalar per sample.
func (r *Result) Series(name string) ([]float64, error) {
	var pick func(Sample) float64
	switch name {
	case "x", "y", "z":
		i := int(name[0] - 'x')
		pick = func(s Sample) float64 { return s.Position[i] }
	case "hand_x", "hand_y", "hand_z":
		i := int(name[5] - 'x')
		pick = func(s Sample) float64 { return s.Hand[i] }
	case "speed":
		pick = Sample.Speed
	case "energy":
		pick = func(s Sample) float64 { return s.KineticEnergy }
	case "tracking_error":
		pick = Sample.TrackingError
	default:
		return nil, fmt.Errorf("sim: unknown series %q", name)
	}

	out := make([]float64, len(r.Samples))
	for i, s := range r.Samples {
		out[i] = pick(s)
	}
	return out, nil
}

func (r *Result) Times() []float64 {
	out := make([]float64, len(r.Samples))
	for i, s := range r.Samples {
		out[i] = s.Time
	}
	return out
}

// SimError places an error at a frame of the run.
type SimError struct {
	Frame   int
	Time    float64
	Wrapped error
}

func (e *SimError) Error() string {
	return fmt.Sprintf("frame %d (t=%.4f): %v", e.Frame, e.Time, e.Wrapped)
}

func (e *SimError) Unwrap() error { return e.Wrapped }
