package sim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/grabsim/internal/body"
	"github.com/san-kum/grabsim/internal/grab"
	"github.com/san-kum/grabsim/internal/scenario"
	"go.uber.org/zap"
)

// Simulator drives one grabbable body through a scripted scenario, running
// the host frame: scripted actions, fixed physics steps, then the dynamic,
// before-render and late phases.
type Simulator struct {
	grabbable *grab.Grabbable
	body      *body.Body
	scenario  *scenario.Scenario
	metrics   []Metric
	observers []Observer
	logger    *zap.Logger

	events  []grab.Event
	release *Release
}

func New(g *grab.Grabbable, b *body.Body, sc *scenario.Scenario, logger *zap.Logger) *Simulator {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Simulator{
		grabbable: g,
		body:      b,
		scenario:  sc,
		logger:    logger.With(zap.String("scenario", sc.Name)),
	}
	g.AddObserver(s.record)
	return s
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Grabbable() *grab.Grabbable   { return s.grabbable }
func (s *Simulator) Body() *body.Body             { return s.body }
func (s *Simulator) Scenario() *scenario.Scenario { return s.scenario }

func (s *Simulator) record(ev grab.Event) {
	s.events = append(s.events, ev)
	if ev.Kind == grab.EventDetached {
		s.release = &Release{Time: ev.Time, Velocity: ev.Velocity, AngularVelocity: ev.AngularVelocity}
	}
}

// Run simulates the whole scenario and returns every frame's sample. A
// diverged body ends the run early with the error recorded in the result.
func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	return s.run(ctx, cfg, true, nil)
}

// RunWithCallback runs without keeping samples, handing each one to fn.
// Returning false from fn stops the run.
func (s *Simulator) RunWithCallback(ctx context.Context, cfg Config, fn func(Sample) bool) error {
	_, err := s.run(ctx, cfg, false, fn)
	return err
}

func (s *Simulator) run(ctx context.Context, cfg Config, keep bool, fn func(Sample) bool) (*Result, error) {
	st, err := s.Start(cfg)
	if err != nil {
		return nil, err
	}
	if !keep {
		st.keep, st.result.Samples = false, nil
	}

	for !st.Done() {
		select {
		case <-ctx.Done():
			return st.Result(), ctx.Err()
		default:
		}

		smp, err := st.Step()
		if errors.Is(err, ErrDiverged) {
			break
		}
		if err != nil {
			return st.Result(), err
		}
		if fn != nil && !fn(smp) {
			break
		}
	}
	return st.Result(), nil
}

// Start prepares a frame-by-frame run. Metrics are reset and the event
// record cleared.
func (s *Simulator) Start(cfg Config) (*Stepper, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	end := cfg.Duration
	if end == 0 {
		end = s.scenario.End()
	}
	frames := int(math.Ceil(end/cfg.Dt - 1e-9))

	for _, m := range s.metrics {
		m.Reset()
	}
	s.events, s.release = nil, nil

	s.logger.Debug("run started",
		zap.Int("frames", frames),
		zap.Float64("dt", cfg.Dt),
		zap.Float64("fixed_dt", cfg.FixedDt))

	return &Stepper{
		sim:    s,
		cfg:    cfg,
		frames: frames,
		prev:   math.Inf(-1),
		keep:   true,
		result: &Result{Metrics: make(map[string]float64), Samples: make([]Sample, 0, frames)},
	}, nil
}

// Stepper advances a simulator one host frame at a time.
type Stepper struct {
	sim    *Simulator
	cfg    Config
	frames int
	i      int
	prev   float64
	acc    float64
	keep   bool
	done   bool
	result *Result
}

func (st *Stepper) Done() bool { return st.done || st.i >= st.frames }

// Frames is the number of frames the run will take.
func (st *Stepper) Frames() int { return st.frames }

// Step runs one frame: scripted actions, fixed physics steps, then the
// dynamic, before-render and late phases.
func (st *Stepper) Step() (Sample, error) {
	if st.Done() {
		return Sample{}, nil
	}
	s, cfg := st.sim, st.cfg

	// Time starts at one frame in; zero marks unwritten throw samples.
	t := float64(st.i+1) * cfg.Dt
	s.scenario.Update(t)
	for _, a := range s.scenario.Due(st.prev, t) {
		if err := s.apply(a, t); err != nil {
			st.done = true
			return Sample{}, &SimError{Frame: st.i, Time: t, Wrapped: err}
		}
	}
	st.prev = t

	st.acc += cfg.Dt
	n := 0
	for st.acc >= cfg.FixedDt-1e-12 && n < cfg.MaxFixedSteps {
		s.grabbable.Process(grab.PhaseFixed, grab.Frame{Dt: cfg.FixedDt, Time: t})
		s.body.Step(cfg.FixedDt)
		st.acc -= cfg.FixedDt
		n++
	}
	if n == cfg.MaxFixedSteps {
		st.acc = 0
	}
	st.result.FixedSteps += n

	frame := grab.Frame{Dt: cfg.Dt, Time: t}
	s.grabbable.Process(grab.PhaseDynamic, frame)
	s.grabbable.Process(grab.PhaseBeforeRender, frame)
	s.grabbable.Process(grab.PhaseLate, frame)

	smp := s.sample(t)
	st.result.Frames++
	st.i++
	if !smp.valid() {
		err := &SimError{Frame: st.i - 1, Time: t, Wrapped: ErrDiverged}
		st.result.Errors = append(st.result.Errors, err)
		st.done = true
		s.logger.Warn("body diverged", zap.Float64("t", t))
		return smp, err
	}

	for _, m := range s.metrics {
		m.Observe(smp)
	}
	for _, o := range s.observers {
		o.OnFrame(smp)
	}
	if st.keep {
		st.result.Samples = append(st.result.Samples, smp)
	}
	return smp, nil
}

// Result collects what the run has produced so far.
func (st *Stepper) Result() *Result {
	s := st.sim
	st.result.Events = s.events
	st.result.Release = s.release
	for _, m := range s.metrics {
		st.result.Metrics[m.Name()] = m.Value()
	}

	s.logger.Debug("run finished",
		zap.Int("frames", st.result.Frames),
		zap.Int("fixed_steps", st.result.FixedSteps),
		zap.Int("events", len(st.result.Events)))
	return st.result
}

func (s *Simulator) apply(a scenario.Action, t float64) error {
	var hand *scenario.Hand
	switch a.Kind {
	case scenario.ActionSelect, scenario.ActionRelease, scenario.ActionDestroy:
		h, ok := s.scenario.Hand(a.Hand)
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownHand, a.Hand)
		}
		hand = h
	}

	s.logger.Debug("action",
		zap.Stringer("kind", a.Kind),
		zap.String("hand", a.Hand),
		zap.Float64("t", t))

	switch a.Kind {
	case scenario.ActionSelect:
		s.grabbable.SelectEnter(hand)
	case scenario.ActionRelease:
		s.grabbable.SelectExit(hand)
	case scenario.ActionDestroy:
		hand.Destroy()
	case scenario.ActionTeleport:
		s.scenario.Rig.Teleport(a.Origin)
		s.scenario.Update(t)
	case scenario.ActionSetMovement:
		s.grabbable.SetMovementType(a.Movement)
	default:
		return fmt.Errorf("sim: unknown action %v", a.Kind)
	}
	return nil
}

func (s *Simulator) sample(t float64) Sample {
	pose := s.body.Pose()
	smp := Sample{
		Time:            t,
		Position:        pose.Position,
		Rotation:        pose.Rotation,
		Velocity:        s.body.Velocity(),
		AngularVelocity: s.body.AngularVelocity(),
		KineticEnergy:   s.body.KineticEnergy(),
	}
	if sess := s.grabbable.Session(); sess != nil && !sess.Released {
		smp.Held = true
		smp.Target = sess.TargetPosition
		if ip, ok := sess.Interactor.AttachPose(); ok {
			smp.Hand = ip.Position
		}
	}
	return smp
}

func validateConfig(cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %f", ErrInvalidConfig, cfg.Dt)
	}
	if cfg.FixedDt <= 0 {
		return fmt.Errorf("%w: fixed_dt must be positive, got %f", ErrInvalidConfig, cfg.FixedDt)
	}
	if cfg.Duration < 0 {
		return fmt.Errorf("%w: duration must not be negative, got %f", ErrInvalidConfig, cfg.Duration)
	}
	if cfg.MaxFixedSteps < 1 {
		return fmt.Errorf("%w: max_fixed_steps must be at least 1, got %d", ErrInvalidConfig, cfg.MaxFixedSteps)
	}
	return nil
}

// Validate reports whether the loop can run with cfg.
func (c Config) Validate() error { return validateConfig(c) }
