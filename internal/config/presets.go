package config

import (
	"sort"

	"github.com/san-kum/grabsim/internal/grab"
)

// Presets holds named tweaks of the defaults, per scenario.
var Presets = map[string]map[string]func(*Config){
	"hold": {
		"default":  func(*Config) {},
		"smoothed": func(c *Config) { c.Grab.SmoothPosition, c.Grab.SmoothRotation = true, true },
		"legacy": func(c *Config) {
			c.Grab.AttachCompat = grab.AttachLegacy
			c.Body.CenterOfMass = [3]float64{0, 0.1, 0}
		},
		"jittery": func(c *Config) { c.Options.Jitter = 0.002 },
	},
	"throw": {
		"soft": func(c *Config) { c.Options.Speed = 2 },
		"hard": func(c *Config) {
			c.Options.Speed = 6
			c.Grab.ThrowVelocityScale = 2
		},
		"tracked":   func(c *Config) { c.Grab.MovementType = grab.MovementVelocityTracking },
		"kinematic": func(c *Config) { c.Grab.MovementType = grab.MovementKinematic },
		"recent": func(c *Config) {
			c.Grab.ThrowSmoothingCurve = "in_quad"
			c.Grab.ThrowSmoothingDuration = 0.1
		},
	},
	"swing": {
		"wide": func(c *Config) { c.Options.Radius = 1 },
		"fast": func(c *Config) { c.Options.Speed = 6 },
		"heavy": func(c *Config) {
			c.Body.Mass = 5
			c.Body.Drag = 0.5
			c.Grab.MovementType = grab.MovementVelocityTracking
		},
	},
	"teleport": {
		"default": func(*Config) {},
		"far":     func(c *Config) { c.Options.TeleportOffset = [3]float64{20, 0, 0} },
		// Velocity tracking chases the jump within one fixed step, so the hop
		// is kept short enough for that chase to stay a bounded speed.
		"tracked": func(c *Config) {
			c.Grab.MovementType = grab.MovementVelocityTracking
			c.Options.TeleportOffset = [3]float64{1, 0, 0}
		},
	},
	"handoff": {
		"static": func(*Config) {},
		"dynamic_attach": func(c *Config) {
			c.Grab.UseDynamicAttach = true
			c.Grab.MatchAttachRotation = false
		},
	},
	"lost_tracking": {
		"default": func(*Config) {},
		"tracked": func(c *Config) { c.Grab.MovementType = grab.MovementVelocityTracking },
	},
	"switch": {
		"default":  func(*Config) {},
		"no_throw": func(c *Config) { c.Grab.ThrowOnDetach = false },
	},
}

// GetPreset returns the defaults with the named preset applied, or nil.
func GetPreset(scenarioName, preset string) *Config {
	scenarioPresets, ok := Presets[scenarioName]
	if !ok {
		return nil
	}
	apply, ok := scenarioPresets[preset]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.Scenario = scenarioName
	apply(cfg)
	return cfg
}

func ListPresets(scenarioName string) []string {
	scenarioPresets, ok := Presets[scenarioName]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(scenarioPresets))
	for name := range scenarioPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
