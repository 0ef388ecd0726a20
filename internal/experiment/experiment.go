// Package experiment turns a config into a ready simulator and runs it,
// alone or as a parameter sweep.
package experiment

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/grabsim/internal/body"
	"github.com/san-kum/grabsim/internal/config"
	"github.com/san-kum/grabsim/internal/grab"
	"github.com/san-kum/grabsim/internal/scenario"
	"github.com/san-kum/grabsim/internal/sim"
	"go.uber.org/zap"
)

var (
	ErrNotSetup     = errors.New("experiment: not set up")
	ErrUnknownParam = errors.New("experiment: unknown parameter")
)

// BodyID names the single grabbable every experiment simulates.
const BodyID grab.BodyID = "body"

type Experiment struct {
	cfg       *config.Config
	registry  *Registry
	logger    *zap.Logger
	simulator *sim.Simulator
}

func New(cfg *config.Config, logger *zap.Logger) *Experiment {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Experiment{cfg: cfg, registry: NewRegistry(), logger: logger}
}

func (e *Experiment) Config() *config.Config { return e.cfg }

// Setup validates the config and builds the body, grabbable, scenario and
// simulator it describes.
func (e *Experiment) Setup() error {
	s, err := Build(e.cfg, e.registry, e.logger)
	if err != nil {
		return err
	}
	e.simulator = s
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.simulator == nil {
		return nil, ErrNotSetup
	}
	return e.simulator.Run(ctx, e.cfg.Sim)
}

// GetSimulator returns the underlying simulator for adding observers.
func (e *Experiment) GetSimulator() *sim.Simulator {
	return e.simulator
}

// Build assembles a simulator from cfg.
func Build(cfg *config.Config, r *Registry, logger *zap.Logger) (*sim.Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	b, err := body.New(cfg.Body)
	if err != nil {
		return nil, err
	}
	g, err := grab.New(BodyID, b, cfg.Grab, grab.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	sc, err := scenario.Build(cfg.Scenario, mgl64.Vec3(cfg.Body.Position), cfg.Options)
	if err != nil {
		return nil, err
	}

	s := sim.New(g, b, sc, logger)
	ms, err := r.Metrics(cfg.Metrics)
	if err != nil {
		return nil, err
	}
	for _, m := range ms {
		s.AddMetric(m)
	}
	return s, nil
}

// Point is one member of a sweep.
type Point struct {
	Value  float64
	Result *sim.Result
}

// Sweep runs base once per value of the named parameter, concurrently,
// and returns the points in the order of values.
func Sweep(ctx context.Context, base *config.Config, param string, values []float64, logger *zap.Logger) ([]Point, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := NewRegistry()
	if err := r.SetParam(config.DefaultConfig(), param, 0); err != nil {
		return nil, err
	}

	factory := func(i int64) (*sim.Simulator, error) {
		cfg := *base
		cfg.Metrics = append([]string(nil), base.Metrics...)
		v := values[i]
		if err := r.SetParam(&cfg, param, v); err != nil {
			return nil, err
		}
		s, err := Build(&cfg, r, logger.With(zap.Float64(param, v)))
		if err != nil {
			return nil, fmt.Errorf("%s=%g: %w", param, v, err)
		}
		return s, nil
	}

	results, err := sim.NewEnsemble(factory, len(values), 0).Run(ctx, base.Sim)
	if err != nil {
		return nil, err
	}

	points := make([]Point, len(values))
	for i, res := range results {
		points[i] = Point{Value: values[i], Result: res}
	}
	return points, nil
}

// Range returns n evenly spaced values from lo to hi inclusive.
func Range(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + step*float64(i)
	}
	out[n-1] = hi
	return out
}
