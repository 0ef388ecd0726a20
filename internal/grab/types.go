package grab

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/grabsim/internal/geom"
)

// MovementType selects how a held body follows its target pose.
type MovementType int

const (
	// MovementVelocityTracking drives the body through its velocities in the
	// fixed phase, so it keeps colliding with the world.
	MovementVelocityTracking MovementType = iota
	// MovementKinematic sweeps a kinematic body in the fixed phase.
	MovementKinematic
	// MovementInstantaneous writes the pose directly every frame.
	MovementInstantaneous
)

var movementNames = map[MovementType]string{
	MovementVelocityTracking: "velocity_tracking",
	MovementKinematic:        "kinematic",
	MovementInstantaneous:    "instantaneous",
}

func (m MovementType) String() string {
	if s, ok := movementNames[m]; ok {
		return s
	}
	return fmt.Sprintf("movement(%d)", int(m))
}

func ParseMovementType(s string) (MovementType, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for m, name := range movementNames {
		if name == key {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMovementType, s)
}

func (m MovementType) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *MovementType) UnmarshalText(text []byte) error {
	v, err := ParseMovementType(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// AttachCompat selects how the attach offset is measured.
type AttachCompat int

const (
	// AttachDefault measures the offset from the body origin.
	AttachDefault AttachCompat = iota
	// AttachLegacy measures it from the world center of mass. Kept only so
	// older content behaves as it used to.
	AttachLegacy
)

func (c AttachCompat) String() string {
	switch c {
	case AttachDefault:
		return "default"
	case AttachLegacy:
		return "legacy"
	}
	return fmt.Sprintf("compat(%d)", int(c))
}

func ParseAttachCompat(s string) (AttachCompat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "default", "":
		return AttachDefault, nil
	case "legacy":
		return AttachLegacy, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAttachCompat, s)
}

func (c AttachCompat) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *AttachCompat) UnmarshalText(text []byte) error {
	v, err := ParseAttachCompat(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Phase is one step of the host frame.
type Phase int

const (
	PhaseFixed Phase = iota
	PhaseDynamic
	PhaseBeforeRender
	PhaseLate
)

func (p Phase) String() string {
	switch p {
	case PhaseFixed:
		return "fixed"
	case PhaseDynamic:
		return "dynamic"
	case PhaseBeforeRender:
		return "before_render"
	case PhaseLate:
		return "late"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Frame carries the clock of the phase being processed. Dt is the fixed step
// in PhaseFixed and the frame delta elsewhere; Time is monotonic seconds.
type Frame struct {
	Dt   float64
	Time float64
}

// PhysicsState is the part of a body's configuration a grab overrides and
// a drop restores.
type PhysicsState struct {
	Kinematic   bool
	UseGravity  bool
	Drag        float64
	AngularDrag float64
}

// RigidBody is the host's physics body.
type RigidBody interface {
	Pose() geom.Pose
	// SetPose teleports the body transform.
	SetPose(p geom.Pose)
	// MovePosition and MoveRotation sweep a kinematic body during the next
	// physics step.
	MovePosition(p mgl64.Vec3)
	MoveRotation(q mgl64.Quat)

	Velocity() mgl64.Vec3
	SetVelocity(v mgl64.Vec3)
	AngularVelocity() mgl64.Vec3
	SetAngularVelocity(w mgl64.Vec3)

	WorldCenterOfMass() mgl64.Vec3

	PhysicsState() PhysicsState
	SetPhysicsState(s PhysicsState)
}

type InteractorID string

// BodyID identifies a grabbable within a scene.
type BodyID string

// Capabilities is the closed set of behaviours an interactor can declare.
type Capabilities struct {
	// ProvidesMovementOverride makes the grab use MovementOverride instead of
	// the grabbable's own movement type.
	ProvidesMovementOverride bool
	MovementOverride         MovementType
	// ForcesStaticAttachPose disables matching a dynamic attach point to this
	// interactor's pose.
	ForcesStaticAttachPose bool
}

// Interactor is the agent holding a body.
type Interactor interface {
	ID() InteractorID
	// AttachPose reports the current world attach pose. ok is false once the
	// interactor has been destroyed.
	AttachPose() (pose geom.Pose, ok bool)
	Capabilities() Capabilities
	// TeleportSource returns the teleport notifications of the rig the
	// interactor belongs to, or nil.
	TeleportSource() TeleportSource
}

type TeleportPhase int

const (
	TeleportBegin TeleportPhase = iota
	TeleportEnd
)

// TeleportEvent carries the tracking origin's world pose at one edge of a
// teleport.
type TeleportEvent struct {
	Phase  TeleportPhase
	Origin geom.Pose
}

type TeleportSource interface {
	Subscribe(fn func(TeleportEvent)) (unsubscribe func())
}
