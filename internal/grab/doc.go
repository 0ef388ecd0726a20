// Package grab implements the pose and throw logic of a grabbable rigid body
// driven by an XR interactor.
//
// The package is host-agnostic. The host owns the frame loop, the physics
// engine and the tracked devices, and reaches the core through a few small
// interfaces:
//
//   - [RigidBody]: the physics body being held
//   - [Interactor]: the hand, controller or ray doing the holding
//   - [TeleportSource]: origin teleport notifications for an interactor
//   - [Frame]: the clock values of the phase being processed
//
// The building blocks can be used on their own:
//
//   - [ComputeTargetPose]: attach pose solver with ease-in and smoothing
//   - [MotionApplier]: moves a body toward a target in a legal phase
//   - [ThrowEstimator]: recency-weighted release velocity from a sample ring
//   - [TeleportCompensator]: re-bases the sample history on teleports
//   - [AttachPool]: reusable per-interactor attach points
//
// [Grabbable] composes them into the full select / process / detach
// lifecycle.
//
// # Frame phases
//
// A host calls [Grabbable.Process] once per phase, in the order Fixed (zero
// or more times), Dynamic, BeforeRender, Late. Kinematic and velocity
// tracking movement act in Fixed, instantaneous movement acts in Dynamic and
// BeforeRender, and a released body receives its throw in Late.
//
// # Thread Safety
//
// Nothing in this package is safe for concurrent use. A host drives every
// grabbable, pool and compensator from a single logical thread.
package grab
