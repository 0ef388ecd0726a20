// Package metrics holds the per-run measurements a simulator can collect.
package metrics

import (
	"fmt"
	"sort"

	"github.com/san-kum/grabsim/internal/sim"
)

// DefaultStabilityThreshold bounds position and speed for Stability.
const DefaultStabilityThreshold = 100.0

var constructors = map[string]func() sim.Metric{
	"energy":             func() sim.Metric { return NewEnergy() },
	"peak_speed":         func() sim.Metric { return NewPeakSpeed() },
	"release_speed":      func() sim.Metric { return NewReleaseSpeed() },
	"tracking_error":     func() sim.Metric { return NewTrackingError() },
	"max_tracking_error": func() sim.Metric { return NewMaxTrackingError() },
	"stability":          func() sim.Metric { return NewStability(DefaultStabilityThreshold) },
}

// ByName returns a fresh metric.
func ByName(name string) (sim.Metric, error) {
	c, ok := constructors[name]
	if !ok {
		return nil, fmt.Errorf("metrics: unknown metric %q", name)
	}
	return c(), nil
}

func Names() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns one fresh instance of every metric.
func All() []sim.Metric {
	out := make([]sim.Metric, 0, len(constructors))
	for _, name := range Names() {
		out = append(out, constructors[name]())
	}
	return out
}
