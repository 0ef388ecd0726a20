package grab

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/grabsim/internal/geom"
)

type fakeBody struct {
	pose     geom.Pose
	vel      mgl64.Vec3
	angVel   mgl64.Vec3
	state    PhysicsState
	comLocal mgl64.Vec3

	moves     int
	rotations int
}

func newFakeBody(pos mgl64.Vec3) *fakeBody {
	return &fakeBody{
		pose:  geom.NewPose(pos, mgl64.QuatIdent()),
		state: PhysicsState{UseGravity: true, Drag: 0.1, AngularDrag: 0.05},
	}
}

func (b *fakeBody) Pose() geom.Pose                 { return b.pose }
func (b *fakeBody) SetPose(p geom.Pose)             { b.pose = p }
func (b *fakeBody) MovePosition(p mgl64.Vec3)       { b.pose.Position = p; b.moves++ }
func (b *fakeBody) MoveRotation(q mgl64.Quat)       { b.pose.Rotation = q; b.rotations++ }
func (b *fakeBody) Velocity() mgl64.Vec3            { return b.vel }
func (b *fakeBody) SetVelocity(v mgl64.Vec3)        { b.vel = v }
func (b *fakeBody) AngularVelocity() mgl64.Vec3     { return b.angVel }
func (b *fakeBody) SetAngularVelocity(w mgl64.Vec3) { b.angVel = w }
func (b *fakeBody) PhysicsState() PhysicsState      { return b.state }
func (b *fakeBody) SetPhysicsState(s PhysicsState)  { b.state = s }
func (b *fakeBody) WorldCenterOfMass() mgl64.Vec3   { return b.pose.TransformPoint(b.comLocal) }

type fakeInteractor struct {
	id   InteractorID
	pose geom.Pose
	dead bool
	caps Capabilities
	rig  TeleportSource
}

func newFakeInteractor(id string, pos mgl64.Vec3) *fakeInteractor {
	return &fakeInteractor{id: InteractorID(id), pose: geom.NewPose(pos, mgl64.QuatIdent())}
}

func (i *fakeInteractor) ID() InteractorID              { return i.id }
func (i *fakeInteractor) AttachPose() (geom.Pose, bool) { return i.pose, !i.dead }
func (i *fakeInteractor) Capabilities() Capabilities    { return i.caps }
func (i *fakeInteractor) TeleportSource() TeleportSource {
	if i.rig == nil {
		return nil
	}
	return i.rig
}

// fakeRig delivers teleport events. With leaky set, unsubscribing does not
// remove the handler, like a source that fires a stale copy of its list.
type fakeRig struct {
	handlers map[int]func(TeleportEvent)
	next     int
	leaky    bool
}

func newFakeRig() *fakeRig {
	return &fakeRig{handlers: make(map[int]func(TeleportEvent))}
}

func (r *fakeRig) Subscribe(fn func(TeleportEvent)) func() {
	id := r.next
	r.next++
	r.handlers[id] = fn
	return func() {
		if !r.leaky {
			delete(r.handlers, id)
		}
	}
}

func (r *fakeRig) fire(ev TeleportEvent) {
	for _, fn := range r.handlers {
		fn(ev)
	}
}

// runFrame drives one frame with a single fixed step, as a host would.
func runFrame(g *Grabbable, f Frame) {
	g.Process(PhaseFixed, f)
	g.Process(PhaseDynamic, f)
	g.Process(PhaseBeforeRender, f)
	g.Process(PhaseLate, f)
}
