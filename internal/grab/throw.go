package grab

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/grabsim/internal/geom"
)

// ThrowSampleCount is the capacity of a SampleRing.
const ThrowSampleCount = 20

// ThrowSample is the interactor motion of one frame. A zero Time marks a
// slot that has never been written.
type ThrowSample struct {
	Time    float64
	Linear  mgl64.Vec3
	Angular mgl64.Vec3
}

// SampleRing is a fixed ring of the most recent throw samples.
type SampleRing struct {
	samples [ThrowSampleCount]ThrowSample
	next    int
}

func (r *SampleRing) Reset() {
	*r = SampleRing{}
}

func (r *SampleRing) Push(s ThrowSample) {
	r.samples[r.next] = s
	r.next = (r.next + 1) % ThrowSampleCount
}

// At returns the sample back writes before the newest one; At(0) is the
// newest. ok is false past the capacity or on an unwritten slot.
func (r *SampleRing) At(back int) (ThrowSample, bool) {
	if back < 0 || back >= ThrowSampleCount {
		return ThrowSample{}, false
	}
	idx := ((r.next-back-1)%ThrowSampleCount + ThrowSampleCount) % ThrowSampleCount
	s := r.samples[idx]
	return s, s.Time != 0
}

// Len counts the written slots.
func (r *SampleRing) Len() int {
	n := 0
	for _, s := range r.samples {
		if s.Time != 0 {
			n++
		}
	}
	return n
}

// RotateLinear re-expresses every written linear sample through q.
func (r *SampleRing) RotateLinear(q mgl64.Quat) {
	for i := range r.samples {
		if r.samples[i].Time == 0 {
			continue
		}
		r.samples[i].Linear = q.Rotate(r.samples[i].Linear)
	}
}

// SampleVelocity is the finite-difference motion between two poses. The
// angular part is the per-axis Euler delta in radians per second.
func SampleVelocity(current, previous geom.Pose, dt float64) (linear, angular mgl64.Vec3) {
	linear = current.Position.Sub(previous.Position).Mul(1 / dt)
	delta := current.Rotation.Mul(previous.Rotation.Inverse())
	angular = geom.EulerDeltaRadians(delta).Mul(1 / dt)
	return linear, angular
}

// RecordSample writes the motion from previous to current at now. Frames
// without elapsed time are not recorded.
func RecordSample(r *SampleRing, current, previous geom.Pose, dt, now float64) bool {
	if dt <= 0 {
		return false
	}
	lin, ang := SampleVelocity(current, previous, dt)
	r.Push(ThrowSample{Time: now, Linear: lin, Angular: ang})
	return true
}

// EstimateReleaseVelocity averages the ring from newest to oldest, weighting
// each sample by curve evaluated at its recency within duration. The walk
// ends at the first unwritten slot or the first sample older than duration.
// With nothing to average the result is zero.
func EstimateReleaseVelocity(r *SampleRing, curve Curve, duration, now float64) (linear, angular mgl64.Vec3) {
	var total float64
	for back := 0; back < ThrowSampleCount; back++ {
		s, ok := r.At(back)
		if !ok {
			break
		}
		age := now - s.Time
		if age > duration {
			break
		}
		w := curve.Evaluate(geom.Clamp01(1 - age/duration))
		linear = linear.Add(s.Linear.Mul(w))
		angular = angular.Add(s.Angular.Mul(w))
		total += w
	}
	if !(total > 0) {
		return mgl64.Vec3{}, mgl64.Vec3{}
	}
	return linear.Mul(1 / total), angular.Mul(1 / total)
}

// ThrowEstimator tracks an interactor's motion during a grab.
type ThrowEstimator struct {
	ring SampleRing
	last geom.Pose
}

// Begin clears the history and starts measuring from pose.
func (e *ThrowEstimator) Begin(pose geom.Pose) {
	e.ring.Reset()
	e.last = pose
}

// RecordSample samples the motion since the previous call and remembers
// current as the new reference pose.
func (e *ThrowEstimator) RecordSample(current geom.Pose, f Frame) {
	RecordSample(&e.ring, current, e.last, f.Dt, f.Time)
	e.last = current
}

func (e *ThrowEstimator) Estimate(curve Curve, duration, now float64) (linear, angular mgl64.Vec3) {
	return EstimateReleaseVelocity(&e.ring, curve, duration, now)
}

// Rebase carries the history through a rigid jump of the tracking space
// from before to after. The reference pose keeps its offset from the origin,
// so a hand held away from the pivot does not swing through the turn.
func (e *ThrowEstimator) Rebase(before, after geom.Pose) {
	rotation := geom.RotationDelta(before.Rotation, after.Rotation)
	e.ring.RotateLinear(rotation)
	offset := rotation.Rotate(e.last.Position.Sub(before.Position))
	e.last.Position = after.Position.Add(offset)
	e.last.Rotation = rotation.Mul(e.last.Rotation).Normalize()
}

func (e *ThrowEstimator) Ring() *SampleRing { return &e.ring }

func (e *ThrowEstimator) LastPose() geom.Pose { return e.last }
