package grab

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/gomega"
	"github.com/san-kum/grabsim/internal/geom"
)

func expectVec(g *WithT, got, want mgl64.Vec3, tol float64) {
	for i := range want {
		g.Expect(got[i]).To(BeNumerically("~", want[i], tol), "component %d of %v", i, got)
	}
}

func expectRot(g *WithT, got, want mgl64.Quat, tol float64) {
	g.Expect(geom.RotationsEqual(got, want, tol)).To(BeTrue(), "rotation %v, want %v", got, want)
}

func TestComputeTargetPose_EaseInConverges(t *testing.T) {
	g := NewWithT(t)

	body := geom.NewPose(mgl64.Vec3{0, 0, 0}, mgl64.QuatIdent())
	s := NewSession(nil, MovementInstantaneous, body, body.Position, AttachDefault)
	s.UpdateLocalPose(body, body, body.Position, AttachDefault)

	hand := geom.NewPose(mgl64.Vec3{1, 2, 3}, mgl64.QuatRotate(0.8, mgl64.Vec3{0, 1, 0}))
	p := SolverParams{TrackRotation: true, EaseInTime: 0.15}

	dt := 0.01
	elapsed := 0.0
	var pos mgl64.Vec3
	var rot mgl64.Quat
	for elapsed <= p.EaseInTime+dt {
		pos, rot = ComputeTargetPose(hand, body, s, p, dt)
		elapsed += dt
	}

	rawPos, rawRot := RawTargetPose(hand, body, s, true)
	expectVec(g, pos, rawPos, 1e-9)
	expectRot(g, rot, rawRot, 1e-9)
}

func TestComputeTargetPose_EaseStartsFromPreviousTarget(t *testing.T) {
	g := NewWithT(t)

	body := geom.NewPose(mgl64.Vec3{5, 0, 0}, mgl64.QuatIdent())
	s := NewSession(nil, MovementInstantaneous, body, body.Position, AttachDefault)
	s.UpdateLocalPose(body, body, body.Position, AttachDefault)

	hand := geom.NewPose(mgl64.Vec3{0, 0, 0}, mgl64.QuatIdent())
	p := SolverParams{TrackRotation: true, EaseInTime: 0.2}

	pos, _ := ComputeTargetPose(hand, body, s, p, 0.05)
	expectVec(g, pos, mgl64.Vec3{5, 0, 0}, 1e-12)
	g.Expect(s.EaseElapsed).To(BeNumerically("~", 0.05, 1e-12))

	pos, _ = ComputeTargetPose(hand, body, s, p, 0.05)
	expectVec(g, pos, mgl64.Vec3{3.75, 0, 0}, 1e-9)
}

func TestComputeTargetPose_TightenOneHasNoLag(t *testing.T) {
	g := NewWithT(t)

	body := geom.Identity()
	s := NewSession(nil, MovementInstantaneous, body, body.Position, AttachDefault)
	s.UpdateLocalPose(body, body, body.Position, AttachDefault)

	p := SolverParams{
		TrackRotation:        true,
		SmoothPosition:       true,
		SmoothPositionAmount: 0.5,
		TightenPosition:      1,
		SmoothRotation:       true,
		SmoothRotationAmount: 0.5,
		TightenRotation:      1,
	}

	for frame := 0; frame < 30; frame++ {
		angle := 0.1 * float64(frame)
		hand := geom.NewPose(mgl64.Vec3{angle, -angle, 2 * angle}, mgl64.QuatRotate(angle, mgl64.Vec3{1, 0, 0}))
		pos, rot := ComputeTargetPose(hand, body, s, p, 1.0/90)
		rawPos, rawRot := RawTargetPose(hand, body, s, true)
		g.Expect(pos).To(Equal(rawPos))
		expectRot(g, rot, rawRot, 1e-12)
	}
}

func TestComputeTargetPose_SmoothingLags(t *testing.T) {
	g := NewWithT(t)

	body := geom.Identity()
	s := NewSession(nil, MovementInstantaneous, body, body.Position, AttachDefault)
	s.UpdateLocalPose(body, body, body.Position, AttachDefault)

	p := SolverParams{TrackRotation: true, SmoothPosition: true, SmoothPositionAmount: 5, TightenPosition: 0.5}
	hand := geom.NewPose(mgl64.Vec3{1, 0, 0}, mgl64.QuatIdent())

	pos, _ := ComputeTargetPose(hand, body, s, p, 0.1)
	// 0 -> 0.5 by smoothing, then halfway to 1 by tightening.
	expectVec(g, pos, mgl64.Vec3{0.75, 0, 0}, 1e-12)
}

func TestComputeTargetPose_WithoutRotationTracking(t *testing.T) {
	g := NewWithT(t)

	bodyRot := mgl64.QuatRotate(mgl64.DegToRad(90), mgl64.Vec3{0, 1, 0})
	body := geom.NewPose(mgl64.Vec3{0, 0, 0}, bodyRot)
	attach := body.Mul(geom.NewPose(mgl64.Vec3{0, 0, 1}, mgl64.QuatIdent()))

	s := NewSession(nil, MovementInstantaneous, body, body.Position, AttachDefault)
	s.UpdateLocalPose(body, attach, body.Position, AttachDefault)

	hand := geom.NewPose(mgl64.Vec3{10, 0, 0}, mgl64.QuatRotate(1.2, mgl64.Vec3{0, 0, 1}))
	pos, rot := ComputeTargetPose(hand, attach, s, SolverParams{}, 0.01)

	// The body sits so its attach point lands on the hand, ignoring the
	// hand's orientation.
	expectVec(g, pos, hand.Position.Sub(attach.Position.Sub(body.Position)), 1e-9)
	expectRot(g, rot, bodyRot, 1e-12)
}

func TestUpdateLocalPose_AttachLandsOnInteractor(t *testing.T) {
	g := NewWithT(t)

	body := geom.NewPose(mgl64.Vec3{1, 1, 1}, mgl64.QuatRotate(0.4, mgl64.Vec3{0, 0, 1}))
	attachLocal := geom.NewPose(mgl64.Vec3{0.2, 0, -0.1}, mgl64.QuatRotate(-0.3, mgl64.Vec3{1, 0, 0}))
	attach := body.Mul(attachLocal)

	s := NewSession(nil, MovementInstantaneous, body, body.Position, AttachDefault)
	s.UpdateLocalPose(body, attach, body.Position, AttachDefault)

	hand := geom.NewPose(mgl64.Vec3{-2, 3, 0.5}, mgl64.QuatRotate(2.1, mgl64.Vec3{0, 1, 0}))
	pos, rot := RawTargetPose(hand, attach, s, true)

	moved := geom.NewPose(pos, rot).Mul(attachLocal)
	g.Expect(moved.ApproxEqual(hand, 1e-9)).To(BeTrue(), "attach at %+v, hand at %+v", moved, hand)
}

func TestSession_LegacyMeasuresFromCenterOfMass(t *testing.T) {
	g := NewWithT(t)

	body := geom.NewPose(mgl64.Vec3{0, 0, 0}, mgl64.QuatIdent())
	com := mgl64.Vec3{0, 0.5, 0}

	s := NewSession(nil, MovementKinematic, body, com, AttachLegacy)
	expectVec(g, s.TargetPosition, com, 0)

	s.UpdateLocalPose(body, body, com, AttachLegacy)
	expectVec(g, s.LocalPosition, com, 1e-12)
}
