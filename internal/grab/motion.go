package grab

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/grabsim/internal/geom"
)

type MotionParams struct {
	TrackPosition bool
	TrackRotation bool
	AttachCompat  AttachCompat

	VelocityDamping        float64
	VelocityScale          float64
	AngularVelocityDamping float64
	AngularVelocityScale   float64
}

// MotionApplier moves a held body toward its target pose.
type MotionApplier struct {
	params MotionParams
}

func NewMotionApplier(p MotionParams) *MotionApplier {
	return &MotionApplier{params: p}
}

func (a *MotionApplier) Params() MotionParams { return a.params }

func (a *MotionApplier) SetParams(p MotionParams) { a.params = p }

// PhaseAllows reports whether mode may move a body during phase.
func PhaseAllows(mode MovementType, phase Phase) bool {
	switch mode {
	case MovementInstantaneous:
		return phase == PhaseDynamic || phase == PhaseBeforeRender
	case MovementKinematic, MovementVelocityTracking:
		return phase == PhaseFixed
	}
	return false
}

// Apply moves body toward the target with mode. Calls outside the mode's
// phase do nothing and report false.
func (a *MotionApplier) Apply(phase Phase, mode MovementType, body RigidBody, targetPos mgl64.Vec3, targetRot mgl64.Quat, dt float64) bool {
	if !PhaseAllows(mode, phase) {
		return false
	}
	switch mode {
	case MovementInstantaneous:
		a.instantaneous(body, targetPos, targetRot)
	case MovementKinematic:
		a.kinematic(body, targetPos, targetRot)
	case MovementVelocityTracking:
		a.velocityTracking(body, targetPos, targetRot, dt)
	}
	return true
}

// bodyPosition converts a target expressed for the attach origin into the
// position the body origin must take.
func (a *MotionApplier) bodyPosition(body RigidBody, target mgl64.Vec3) mgl64.Vec3 {
	if a.params.AttachCompat == AttachLegacy {
		return target.Sub(body.WorldCenterOfMass()).Add(body.Pose().Position)
	}
	return target
}

func (a *MotionApplier) instantaneous(body RigidBody, targetPos mgl64.Vec3, targetRot mgl64.Quat) {
	pose := body.Pose()
	if a.params.TrackPosition {
		pose.Position = a.bodyPosition(body, targetPos)
	}
	if a.params.TrackRotation {
		pose.Rotation = targetRot
	}
	body.SetPose(pose)
}

func (a *MotionApplier) kinematic(body RigidBody, targetPos mgl64.Vec3, targetRot mgl64.Quat) {
	if a.params.TrackPosition {
		body.SetVelocity(mgl64.Vec3{})
		body.MovePosition(a.bodyPosition(body, targetPos))
	}
	if a.params.TrackRotation {
		body.SetAngularVelocity(mgl64.Vec3{})
		body.MoveRotation(targetRot)
	}
}

func (a *MotionApplier) velocityTracking(body RigidBody, targetPos mgl64.Vec3, targetRot mgl64.Quat, dt float64) {
	if a.params.TrackPosition {
		v := body.Velocity().Mul(1 - a.params.VelocityDamping)
		current := body.Pose().Position
		if a.params.AttachCompat == AttachLegacy {
			current = body.WorldCenterOfMass()
		}
		desired := targetPos.Sub(current).Mul(1 / dt)
		if geom.IsFinite(desired) {
			v = v.Add(desired.Mul(a.params.VelocityScale))
		}
		body.SetVelocity(v)
	}

	if a.params.TrackRotation {
		w := body.AngularVelocity().Mul(1 - a.params.AngularVelocityDamping)
		delta := geom.RotationDelta(body.Pose().Rotation, targetRot)
		angle, axis := geom.ToAngleAxis(delta)
		if angle > 180 {
			angle -= 360
		}
		if math.Abs(angle) > geom.AngleEpsilon {
			desired := axis.Mul(mgl64.DegToRad(angle) / dt)
			if geom.IsFinite(desired) {
				w = w.Add(desired.Mul(a.params.AngularVelocityScale))
			}
		}
		body.SetAngularVelocity(w)
	}
}

// GrabSetup snapshots the body's physics state and configures it for mode:
// no gravity, no drag, and kinematic unless the body is velocity tracked.
func GrabSetup(body RigidBody, mode MovementType) PhysicsState {
	snapshot := body.PhysicsState()
	body.SetPhysicsState(PhysicsState{
		Kinematic:   mode == MovementKinematic || mode == MovementInstantaneous,
		UseGravity:  false,
		Drag:        0,
		AngularDrag: 0,
	})
	return snapshot
}

// DropRestore puts back the state captured by GrabSetup. forceGravity turns
// gravity on regardless of the snapshot; callers pass it only once nothing
// else is holding the body.
func DropRestore(body RigidBody, snapshot PhysicsState, forceGravity bool) {
	restored := snapshot
	restored.UseGravity = restored.UseGravity || forceGravity
	body.SetPhysicsState(restored)
}
