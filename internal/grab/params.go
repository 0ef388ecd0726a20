package grab

import "fmt"

// Params is the configuration surface of a grabbable. Every field is plain
// data so the whole set can be loaded from a config file.
type Params struct {
	MovementType MovementType `yaml:"movement_type"`
	AttachCompat AttachCompat `yaml:"attach_compat"`

	TrackPosition bool `yaml:"track_position"`
	TrackRotation bool `yaml:"track_rotation"`

	SmoothPosition       bool    `yaml:"smooth_position"`
	SmoothPositionAmount float64 `yaml:"smooth_position_amount"`
	TightenPosition      float64 `yaml:"tighten_position"`
	SmoothRotation       bool    `yaml:"smooth_rotation"`
	SmoothRotationAmount float64 `yaml:"smooth_rotation_amount"`
	TightenRotation      float64 `yaml:"tighten_rotation"`

	AttachEaseInTime float64 `yaml:"attach_ease_in_time"`

	VelocityDamping        float64 `yaml:"velocity_damping"`
	VelocityScale          float64 `yaml:"velocity_scale"`
	AngularVelocityDamping float64 `yaml:"angular_velocity_damping"`
	AngularVelocityScale   float64 `yaml:"angular_velocity_scale"`

	ThrowOnDetach             bool    `yaml:"throw_on_detach"`
	ThrowSmoothingDuration    float64 `yaml:"throw_smoothing_duration"`
	ThrowSmoothingCurve       string  `yaml:"throw_smoothing_curve"`
	ThrowVelocityScale        float64 `yaml:"throw_velocity_scale"`
	ThrowAngularVelocityScale float64 `yaml:"throw_angular_velocity_scale"`

	ForceGravityOnDetach bool `yaml:"force_gravity_on_detach"`

	UseDynamicAttach    bool `yaml:"use_dynamic_attach"`
	MatchAttachPosition bool `yaml:"match_attach_position"`
	MatchAttachRotation bool `yaml:"match_attach_rotation"`
}

const (
	DefaultAttachEaseInTime          = 0.15
	DefaultSmoothAmount              = 5.0
	DefaultTighten                   = 0.5
	DefaultThrowSmoothingDuration    = 0.25
	DefaultThrowVelocityScale        = 1.5
	DefaultThrowAngularVelocityScale = 1.0

	MaxSmoothAmount = 20.0
	MaxThrowScale   = 10.0
)

func DefaultParams() Params {
	return Params{
		MovementType:              MovementInstantaneous,
		AttachCompat:              AttachDefault,
		TrackPosition:             true,
		TrackRotation:             true,
		SmoothPositionAmount:      DefaultSmoothAmount,
		TightenPosition:           DefaultTighten,
		SmoothRotationAmount:      DefaultSmoothAmount,
		TightenRotation:           DefaultTighten,
		AttachEaseInTime:          DefaultAttachEaseInTime,
		VelocityDamping:           1,
		VelocityScale:             1,
		AngularVelocityDamping:    1,
		AngularVelocityScale:      1,
		ThrowOnDetach:             true,
		ThrowSmoothingDuration:    DefaultThrowSmoothingDuration,
		ThrowSmoothingCurve:       "linear",
		ThrowVelocityScale:        DefaultThrowVelocityScale,
		ThrowAngularVelocityScale: DefaultThrowAngularVelocityScale,
		MatchAttachPosition:       true,
		MatchAttachRotation:       true,
	}
}

func (p Params) Validate() error {
	ranges := []struct {
		field    string
		v        float64
		min, max float64
	}{
		{"smooth_position_amount", p.SmoothPositionAmount, 0, MaxSmoothAmount},
		{"tighten_position", p.TightenPosition, 0, 1},
		{"smooth_rotation_amount", p.SmoothRotationAmount, 0, MaxSmoothAmount},
		{"tighten_rotation", p.TightenRotation, 0, 1},
		{"velocity_damping", p.VelocityDamping, 0, 1},
		{"angular_velocity_damping", p.AngularVelocityDamping, 0, 1},
		{"velocity_scale", p.VelocityScale, 0, MaxThrowScale},
		{"angular_velocity_scale", p.AngularVelocityScale, 0, MaxThrowScale},
		{"throw_velocity_scale", p.ThrowVelocityScale, 0, MaxThrowScale},
		{"throw_angular_velocity_scale", p.ThrowAngularVelocityScale, 0, MaxThrowScale},
	}
	for _, r := range ranges {
		if !(r.v >= r.min && r.v <= r.max) {
			return &ParamError{Field: r.field, Value: r.v, Min: r.min, Max: r.max}
		}
	}

	if !(p.AttachEaseInTime >= 0) {
		return fmt.Errorf("%w: attach_ease_in_time must not be negative, got %g", ErrInvalidParams, p.AttachEaseInTime)
	}
	if p.ThrowOnDetach && !(p.ThrowSmoothingDuration > 0) {
		return fmt.Errorf("%w: throw_smoothing_duration must be positive, got %g", ErrInvalidParams, p.ThrowSmoothingDuration)
	}
	if _, ok := movementNames[p.MovementType]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownMovementType, int(p.MovementType))
	}
	if p.AttachCompat != AttachDefault && p.AttachCompat != AttachLegacy {
		return fmt.Errorf("%w: %d", ErrUnknownAttachCompat, int(p.AttachCompat))
	}
	if _, err := CurveByName(p.ThrowSmoothingCurve); err != nil {
		return err
	}
	return nil
}

func (p Params) solverParams() SolverParams {
	return SolverParams{
		TrackRotation:        p.TrackRotation,
		EaseInTime:           p.AttachEaseInTime,
		SmoothPosition:       p.SmoothPosition,
		SmoothPositionAmount: p.SmoothPositionAmount,
		TightenPosition:      p.TightenPosition,
		SmoothRotation:       p.SmoothRotation,
		SmoothRotationAmount: p.SmoothRotationAmount,
		TightenRotation:      p.TightenRotation,
	}
}

func (p Params) motionParams() MotionParams {
	return MotionParams{
		TrackPosition:          p.TrackPosition,
		TrackRotation:          p.TrackRotation,
		AttachCompat:           p.AttachCompat,
		VelocityDamping:        p.VelocityDamping,
		VelocityScale:          p.VelocityScale,
		AngularVelocityDamping: p.AngularVelocityDamping,
		AngularVelocityScale:   p.AngularVelocityScale,
	}
}
