package grab

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/grabsim/internal/geom"
)

// SolverParams is the subset of Params used by ComputeTargetPose. Position
// tracking is not part of it: the raw target is always solved and the
// MotionApplier decides which axes to apply.
type SolverParams struct {
	TrackRotation bool
	EaseInTime    float64

	SmoothPosition       bool
	SmoothPositionAmount float64
	TightenPosition      float64
	SmoothRotation       bool
	SmoothRotationAmount float64
	TightenRotation      float64
}

// Session is the state of one continuous grab of a body by its driving
// interactor.
type Session struct {
	Interactor Interactor
	Movement   MovementType

	// LocalPosition and LocalRotation are the body's offset from its attach
	// point, expressed in the attach frame.
	LocalPosition mgl64.Vec3
	LocalRotation mgl64.Quat

	TargetPosition mgl64.Vec3
	TargetRotation mgl64.Quat
	EaseElapsed    float64

	// Released is set between the select exit and the end of the frame.
	Released bool

	physics PhysicsState
}

// NewSession starts a grab with the target at the body's current pose.
func NewSession(interactor Interactor, movement MovementType, body geom.Pose, centerOfMass mgl64.Vec3, compat AttachCompat) *Session {
	s := &Session{
		Interactor:     interactor,
		Movement:       movement,
		TargetPosition: body.Position,
		TargetRotation: body.Rotation,
	}
	if compat == AttachLegacy {
		s.TargetPosition = centerOfMass
	}
	return s
}

// UpdateLocalPose measures the body's offset from its world attach pose.
// Legacy mode measures the position from the center of mass instead of the
// body origin.
func (s *Session) UpdateLocalPose(body, bodyAttach geom.Pose, centerOfMass mgl64.Vec3, compat AttachCompat) {
	origin := body.Position
	if compat == AttachLegacy {
		origin = centerOfMass
	}
	s.LocalPosition = bodyAttach.InverseTransformDirection(origin.Sub(bodyAttach.Position))
	s.LocalRotation = bodyAttach.Rotation.Inverse().Mul(body.Rotation).Normalize()
}

// PhysicsSnapshot returns the body state captured when the grab began.
func (s *Session) PhysicsSnapshot() PhysicsState {
	return s.physics
}

// RawTargetPose is the unsmoothed pose that puts the body's attach point on
// the interactor's attach point.
func RawTargetPose(interactorAttach, bodyAttach geom.Pose, s *Session, trackRotation bool) (mgl64.Vec3, mgl64.Quat) {
	if trackRotation {
		pos := interactorAttach.Rotation.Rotate(s.LocalPosition).Add(interactorAttach.Position)
		rot := interactorAttach.Rotation.Mul(s.LocalRotation).Normalize()
		return pos, rot
	}
	pos := interactorAttach.Position.Add(bodyAttach.Rotation.Rotate(s.LocalPosition))
	return pos, s.TargetRotation
}

// ComputeTargetPose advances the session target one step toward the raw
// target. During the ease-in window the target catches up linearly with the
// elapsed fraction; afterwards each axis is either snapped or smoothed and
// then tightened.
func ComputeTargetPose(interactorAttach, bodyAttach geom.Pose, s *Session, p SolverParams, dt float64) (mgl64.Vec3, mgl64.Quat) {
	rawPos, rawRot := RawTargetPose(interactorAttach, bodyAttach, s, p.TrackRotation)

	if p.EaseInTime > 0 && s.EaseElapsed <= p.EaseInTime {
		f := s.EaseElapsed / p.EaseInTime
		s.TargetPosition = geom.Lerp(s.TargetPosition, rawPos, f)
		s.TargetRotation = geom.Slerp(s.TargetRotation, rawRot, f)
		s.EaseElapsed += dt
		return s.TargetPosition, s.TargetRotation
	}

	if p.SmoothPosition {
		s.TargetPosition = geom.Lerp(s.TargetPosition, rawPos, p.SmoothPositionAmount*dt)
		s.TargetPosition = geom.Lerp(s.TargetPosition, rawPos, p.TightenPosition)
	} else {
		s.TargetPosition = rawPos
	}

	if p.SmoothRotation {
		s.TargetRotation = geom.Slerp(s.TargetRotation, rawRot, p.SmoothRotationAmount*dt)
		s.TargetRotation = geom.Slerp(s.TargetRotation, rawRot, p.TightenRotation)
	} else {
		s.TargetRotation = rawRot
	}

	return s.TargetPosition, s.TargetRotation
}
