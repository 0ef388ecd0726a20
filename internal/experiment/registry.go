package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/grabsim/internal/config"
	"github.com/san-kum/grabsim/internal/grab"
	"github.com/san-kum/grabsim/internal/integrators"
	"github.com/san-kum/grabsim/internal/metrics"
	"github.com/san-kum/grabsim/internal/scenario"
	"github.com/san-kum/grabsim/internal/sim"
)

// Registry lists what a config may name.
type Registry struct {
	params map[string]func(*config.Config, float64)
}

func NewRegistry() *Registry {
	r := &Registry{params: make(map[string]func(*config.Config, float64))}

	r.params["throw_velocity_scale"] = func(c *config.Config, v float64) { c.Grab.ThrowVelocityScale = v }
	r.params["throw_angular_velocity_scale"] = func(c *config.Config, v float64) { c.Grab.ThrowAngularVelocityScale = v }
	r.params["throw_smoothing_duration"] = func(c *config.Config, v float64) { c.Grab.ThrowSmoothingDuration = v }
	r.params["attach_ease_in_time"] = func(c *config.Config, v float64) { c.Grab.AttachEaseInTime = v }
	r.params["smooth_position_amount"] = func(c *config.Config, v float64) {
		c.Grab.SmoothPosition = true
		c.Grab.SmoothPositionAmount = v
	}
	r.params["tighten_position"] = func(c *config.Config, v float64) { c.Grab.TightenPosition = v }
	r.params["velocity_damping"] = func(c *config.Config, v float64) { c.Grab.VelocityDamping = v }
	r.params["mass"] = func(c *config.Config, v float64) { c.Body.Mass = v }
	r.params["drag"] = func(c *config.Config, v float64) { c.Body.Drag = v }
	r.params["speed"] = func(c *config.Config, v float64) { c.Options.Speed = v }
	r.params["radius"] = func(c *config.Config, v float64) { c.Options.Radius = v }
	r.params["jitter"] = func(c *config.Config, v float64) { c.Options.Jitter = v }
	r.params["seed"] = func(c *config.Config, v float64) { c.Options.Seed = int64(v) }
	r.params["fixed_dt"] = func(c *config.Config, v float64) { c.Sim.FixedDt = v }

	return r
}

func (r *Registry) ListScenarios() []string   { return scenario.Names() }
func (r *Registry) ListIntegrators() []string { return integrators.Names() }
func (r *Registry) ListCurves() []string      { return grab.CurveNames() }
func (r *Registry) ListMetrics() []string     { return metrics.Names() }

func (r *Registry) ListMovements() []string {
	return []string{
		grab.MovementInstantaneous.String(),
		grab.MovementKinematic.String(),
		grab.MovementVelocityTracking.String(),
	}
}

// ListParams names the settings a sweep can vary.
func (r *Registry) ListParams() []string {
	names := make([]string, 0, len(r.params))
	for name := range r.params {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetParam writes v into the named setting of cfg.
func (r *Registry) SetParam(cfg *config.Config, name string, v float64) error {
	set, ok := r.params[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownParam, name)
	}
	set(cfg, v)
	return nil
}

// Metrics builds fresh instances of the named metrics.
func (r *Registry) Metrics(names []string) ([]sim.Metric, error) {
	out := make([]sim.Metric, 0, len(names))
	for _, name := range names {
		m, err := metrics.ByName(name)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
