package scenario

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/grabsim/internal/geom"
	"github.com/san-kum/grabsim/internal/grab"
)

// Path is a scripted attach pose in tracking space at time t.
type Path func(t float64) geom.Pose

// Still holds a fixed pose.
func Still(p geom.Pose) Path {
	return func(float64) geom.Pose { return p }
}

// Accelerate holds start until t0, then moves along dir with constant
// acceleration so that the speed reaches speed at t1. After t1 it coasts.
func Accelerate(start geom.Pose, dir mgl64.Vec3, speed, t0, t1 float64) Path {
	dir = dir.Normalize()
	accel := speed / (t1 - t0)
	return func(t float64) geom.Pose {
		p := start
		switch {
		case t <= t0:
		case t <= t1:
			d := t - t0
			p.Position = start.Position.Add(dir.Mul(0.5 * accel * d * d))
		default:
			d := t1 - t0
			reached := 0.5 * accel * d * d
			p.Position = start.Position.Add(dir.Mul(reached + speed*(t-t1)))
		}
		return p
	}
}

// Arc swings around center in the horizontal plane at omega rad/s, starting
// at angle 0 on +X, and turns the hand with the swing.
func Arc(center mgl64.Vec3, radius, omega, t0 float64) Path {
	return func(t float64) geom.Pose {
		a := 0.0
		if t > t0 {
			a = omega * (t - t0)
		}
		offset := mgl64.Vec3{radius * math.Cos(a), 0, -radius * math.Sin(a)}
		return geom.NewPose(center.Add(offset), mgl64.QuatRotate(a, mgl64.Vec3{0, 1, 0}))
	}
}

// Hand is a scripted interactor. Its world pose is the rig origin composed
// with the path's tracking-space pose.
type Hand struct {
	id   grab.InteractorID
	path Path
	rig  *Rig
	caps grab.Capabilities

	pose      geom.Pose
	destroyed bool
}

var _ grab.Interactor = (*Hand)(nil)

func NewHand(id string, path Path, rig *Rig) *Hand {
	h := &Hand{id: grab.InteractorID(id), path: path, rig: rig}
	h.Update(0)
	return h
}

func (h *Hand) ID() grab.InteractorID { return h.id }

func (h *Hand) AttachPose() (geom.Pose, bool) { return h.pose, !h.destroyed }

func (h *Hand) Capabilities() grab.Capabilities { return h.caps }

func (h *Hand) SetCapabilities(c grab.Capabilities) { h.caps = c }

func (h *Hand) TeleportSource() grab.TeleportSource {
	if h.rig == nil {
		return nil
	}
	return h.rig
}

// Update moves the hand to its scripted pose at t.
func (h *Hand) Update(t float64) {
	local := h.path(t)
	if h.rig == nil {
		h.pose = local
		return
	}
	h.pose = h.rig.Origin().Mul(local)
}

// Pose is the last computed world pose, even once destroyed.
func (h *Hand) Pose() geom.Pose { return h.pose }

func (h *Hand) Destroy() { h.destroyed = true }

func (h *Hand) Destroyed() bool { return h.destroyed }
