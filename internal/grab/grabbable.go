package grab

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/grabsim/internal/geom"
	"go.uber.org/zap"
)

type EventKind int

const (
	EventSelectEntered EventKind = iota
	EventSelectExited
	EventDetached
)

func (k EventKind) String() string {
	switch k {
	case EventSelectEntered:
		return "select_entered"
	case EventSelectExited:
		return "select_exited"
	case EventDetached:
		return "detached"
	}
	return fmt.Sprintf("event(%d)", int(k))
}

// Event is delivered to observers of a Grabbable. Velocities are set on
// EventDetached only.
type Event struct {
	Kind            EventKind
	Body            BodyID
	Interactor      Interactor
	Time            float64
	Velocity        mgl64.Vec3
	AngularVelocity mgl64.Vec3
}

type Option func(*Grabbable)

func WithLogger(l *zap.Logger) Option {
	return func(g *Grabbable) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithAttachPoint sets the static attach point, relative to the body.
func WithAttachPoint(local geom.Pose) Option {
	return func(g *Grabbable) { g.attach = local }
}

// WithPool shares an attach pool between grabbables of a scene.
func WithPool(p *AttachPool) Option {
	return func(g *Grabbable) { g.pool = p }
}

func WithObserver(fn func(Event)) Option {
	return func(g *Grabbable) { g.observers = append(g.observers, fn) }
}

// Grabbable is a rigid body that interactors can pick up, carry and throw.
// The first interactor to select it drives it; others wait their turn.
type Grabbable struct {
	id     BodyID
	body   RigidBody
	params Params
	curve  Curve
	attach geom.Pose

	pool     *AttachPool
	motion   *MotionApplier
	throw    ThrowEstimator
	teleport *TeleportCompensator

	selectors []Interactor
	session   *Session

	detachPending  bool
	detachVelocity mgl64.Vec3
	detachAngular  mgl64.Vec3
	now            float64

	observers []func(Event)
	logger    *zap.Logger
}

func New(id BodyID, body RigidBody, params Params, opts ...Option) (*Grabbable, error) {
	if body == nil {
		return nil, ErrNilBody
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	curve, err := CurveByName(params.ThrowSmoothingCurve)
	if err != nil {
		return nil, err
	}

	g := &Grabbable{
		id:     id,
		body:   body,
		params: params,
		curve:  curve,
		attach: geom.Identity(),
		motion: NewMotionApplier(params.motionParams()),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.pool == nil {
		g.pool = NewAttachPool(g.logger)
	}
	g.logger = g.logger.With(zap.String("body", string(id)))
	g.teleport = NewTeleportCompensator(&g.throw, g.logger)
	return g, nil
}

func (g *Grabbable) ID() BodyID { return g.id }

func (g *Grabbable) Body() RigidBody { return g.body }

func (g *Grabbable) Params() Params { return g.params }

// SetCurve replaces the throw weighting curve, e.g. with a KeyframeCurve.
func (g *Grabbable) SetCurve(c Curve) {
	if c != nil {
		g.curve = c
	}
}

// AddObserver registers fn for every later event.
func (g *Grabbable) AddObserver(fn func(Event)) {
	g.observers = append(g.observers, fn)
}

func (g *Grabbable) IsSelected() bool { return len(g.selectors) > 0 }

func (g *Grabbable) Selectors() []Interactor {
	out := make([]Interactor, len(g.selectors))
	copy(out, g.selectors)
	return out
}

// Session is the current grab, or the released one until the end of the
// frame it was released in. Nil when the body is free.
func (g *Grabbable) Session() *Session { return g.session }

func (g *Grabbable) DetachVelocity() (linear, angular mgl64.Vec3) {
	return g.detachVelocity, g.detachAngular
}

func (g *Grabbable) ThrowEstimator() *ThrowEstimator { return &g.throw }

func (g *Grabbable) Teleport() *TeleportCompensator { return g.teleport }

func (g *Grabbable) Pool() *AttachPool { return g.pool }

// SetMovementType changes the configured movement type. While held, the body
// is restored for the old mode and set up again for the new one at once.
func (g *Grabbable) SetMovementType(mt MovementType) {
	g.params.MovementType = mt
	if !g.IsSelected() || g.session == nil {
		return
	}

	s := g.session
	old := s.Movement
	DropRestore(g.body, s.physics, false)
	s.Movement = g.resolveMovement(s.Interactor)
	s.physics = GrabSetup(g.body, s.Movement)

	g.logger.Debug("movement type switched",
		zap.Stringer("from", old),
		zap.Stringer("to", s.Movement))
}

func (g *Grabbable) resolveMovement(i Interactor) MovementType {
	caps := i.Capabilities()
	if caps.ProvidesMovementOverride {
		return caps.MovementOverride
	}
	return g.params.MovementType
}

func (g *Grabbable) attachKey(i Interactor) AttachKey {
	return AttachKey{Body: g.id, Interactor: i.ID()}
}

// attachLocal is the attach point used for i, relative to the body.
func (g *Grabbable) attachLocal(i Interactor) geom.Pose {
	if g.params.UseDynamicAttach {
		if h, ok := g.pool.Lookup(g.attachKey(i)); ok {
			return h.Local
		}
	}
	return g.attach
}

func (g *Grabbable) SelectEnter(i Interactor) {
	for _, s := range g.selectors {
		if s.ID() == i.ID() {
			return
		}
	}
	g.selectors = append(g.selectors, i)

	if g.params.UseDynamicAttach {
		g.initDynamicAttach(i)
	}
	if len(g.selectors) == 1 {
		g.grab(i)
	}
	g.emit(Event{Kind: EventSelectEntered, Interactor: i})
}

func (g *Grabbable) initDynamicAttach(i Interactor) {
	h := g.pool.Borrow(g.attachKey(i))
	bodyPose := g.body.Pose()
	world := bodyPose.Mul(g.attach)

	if !i.Capabilities().ForcesStaticAttachPose {
		if ip, ok := i.AttachPose(); ok {
			if g.params.MatchAttachPosition {
				world.Position = ip.Position
			}
			if g.params.MatchAttachRotation {
				world.Rotation = ip.Rotation
			}
		}
	}
	h.Local = bodyPose.Local(world)
}

func (g *Grabbable) grab(i Interactor) {
	mode := g.resolveMovement(i)
	snapshot := GrabSetup(g.body, mode)

	bodyPose := g.body.Pose()
	com := g.body.WorldCenterOfMass()
	s := NewSession(i, mode, bodyPose, com, g.params.AttachCompat)
	s.physics = snapshot
	s.UpdateLocalPose(bodyPose, bodyPose.Mul(g.attachLocal(i)), com, g.params.AttachCompat)
	g.session = s

	start := bodyPose
	if ip, ok := i.AttachPose(); ok {
		start = ip
	}
	g.throw.Begin(start)
	g.teleport.Bind(i.TeleportSource())
	g.detachPending = false

	g.logger.Debug("grabbed",
		zap.String("interactor", string(i.ID())),
		zap.Stringer("movement", mode))
}

func (g *Grabbable) SelectExit(i Interactor) {
	idx := -1
	for k, s := range g.selectors {
		if s.ID() == i.ID() {
			idx = k
			break
		}
	}
	if idx < 0 {
		return
	}
	g.selectors = append(g.selectors[:idx], g.selectors[idx+1:]...)

	if g.params.UseDynamicAttach {
		g.pool.Return(g.attachKey(i))
	}

	driving := g.session != nil && !g.session.Released && g.session.Interactor.ID() == i.ID()
	if driving {
		if g.IsSelected() {
			DropRestore(g.body, g.session.physics, false)
			g.grab(g.selectors[0])
		} else {
			g.drop()
		}
	}
	g.emit(Event{Kind: EventSelectExited, Interactor: i})
}

func (g *Grabbable) drop() {
	s := g.session
	DropRestore(g.body, s.physics, g.params.ForceGravityOnDetach && !g.IsSelected())
	g.teleport.Unbind()

	g.detachVelocity, g.detachAngular = mgl64.Vec3{}, mgl64.Vec3{}
	if g.params.ThrowOnDetach {
		lin, ang := g.throw.Estimate(g.curve, g.params.ThrowSmoothingDuration, g.now)
		g.detachVelocity = lin.Mul(g.params.ThrowVelocityScale)
		g.detachAngular = ang.Mul(g.params.ThrowAngularVelocityScale)
	}

	s.Released = true
	g.detachPending = true

	g.logger.Debug("dropped",
		zap.String("interactor", string(s.Interactor.ID())),
		zap.Float64s("velocity", g.detachVelocity[:]))
}

// Process runs the grabbable's work for one phase of the frame.
func (g *Grabbable) Process(phase Phase, f Frame) {
	g.now = f.Time

	switch phase {
	case PhaseFixed:
		if g.holding() {
			g.motion.Apply(phase, g.session.Movement, g.body, g.session.TargetPosition, g.session.TargetRotation, f.Dt)
		}
	case PhaseDynamic:
		if g.holding() {
			if ip, ok := g.updateTarget(f.Dt); ok {
				g.throw.RecordSample(ip, f)
				g.motion.Apply(phase, g.session.Movement, g.body, g.session.TargetPosition, g.session.TargetRotation, f.Dt)
			}
		}
	case PhaseBeforeRender:
		if g.holding() {
			if _, ok := g.updateTarget(f.Dt); ok {
				g.motion.Apply(phase, g.session.Movement, g.body, g.session.TargetPosition, g.session.TargetRotation, f.Dt)
			}
		}
	case PhaseLate:
		if g.detachPending {
			g.detachPending = false
			if !g.IsSelected() {
				g.detach()
				g.session = nil
			}
		}
	}
}

func (g *Grabbable) holding() bool {
	return g.IsSelected() && g.session != nil && !g.session.Released
}

// updateTarget moves the session target toward the driving interactor and
// returns the interactor pose it used. A destroyed interactor skips the
// update.
func (g *Grabbable) updateTarget(dt float64) (geom.Pose, bool) {
	s := g.session
	ip, ok := s.Interactor.AttachPose()
	if !ok {
		return geom.Pose{}, false
	}

	bodyPose := g.body.Pose()
	bodyAttach := bodyPose.Mul(g.attachLocal(s.Interactor))
	if g.params.AttachCompat == AttachDefault {
		s.UpdateLocalPose(bodyPose, bodyAttach, g.body.WorldCenterOfMass(), AttachDefault)
	}
	ComputeTargetPose(ip, bodyAttach, s, g.params.solverParams(), dt)
	return ip, true
}

func (g *Grabbable) detach() {
	if g.params.ThrowOnDetach {
		if g.body.PhysicsState().Kinematic {
			g.logger.Debug("kinematic body released, throw not applied")
		} else {
			g.body.SetVelocity(g.detachVelocity)
			g.body.SetAngularVelocity(g.detachAngular)
		}
	}

	var i Interactor
	if g.session != nil {
		i = g.session.Interactor
	}
	g.emit(Event{
		Kind:            EventDetached,
		Interactor:      i,
		Velocity:        g.detachVelocity,
		AngularVelocity: g.detachAngular,
	})
}

func (g *Grabbable) emit(ev Event) {
	ev.Body = g.id
	ev.Time = g.now
	for _, fn := range g.observers {
		fn(ev)
	}
}
