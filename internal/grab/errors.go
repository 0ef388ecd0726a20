package grab

import (
	"errors"
	"fmt"
)

// Configuration errors. Frame processing itself never fails.
var (
	// ErrInvalidParams indicates a parameter outside its valid range.
	ErrInvalidParams = errors.New("grab: invalid parameters")

	// ErrUnknownCurve indicates a weighting curve name with no registered curve.
	ErrUnknownCurve = errors.New("grab: unknown weighting curve")

	// ErrUnknownMovementType indicates an unrecognised movement type name.
	ErrUnknownMovementType = errors.New("grab: unknown movement type")

	// ErrUnknownAttachCompat indicates an unrecognised attach compatibility mode.
	ErrUnknownAttachCompat = errors.New("grab: unknown attach compatibility mode")

	// ErrNilBody indicates a grabbable constructed without a body.
	ErrNilBody = errors.New("grab: nil rigid body")
)

// ParamError reports the offending field of an invalid parameter set.
type ParamError struct {
	Field string
	Value float64
	Min   float64
	Max   float64
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("grab: %s=%g outside [%g, %g]", e.Field, e.Value, e.Min, e.Max)
}

func (e *ParamError) Unwrap() error {
	return ErrInvalidParams
}
