package body

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/grabsim/internal/geom"
	"github.com/san-kum/grabsim/internal/grab"
	"github.com/san-kum/grabsim/internal/integrators"
)

const (
	DefaultMass    = 1.0
	DefaultGravity = 9.81
)

// ErrInvalidConfig indicates a body configuration that cannot be simulated.
var ErrInvalidConfig = errors.New("body: invalid config")

type Config struct {
	Mass         float64    `yaml:"mass"`
	Position     [3]float64 `yaml:"position"`
	CenterOfMass [3]float64 `yaml:"center_of_mass"`
	Drag         float64    `yaml:"drag"`
	AngularDrag  float64    `yaml:"angular_drag"`
	UseGravity   bool       `yaml:"use_gravity"`
	Kinematic    bool       `yaml:"kinematic"`
	Gravity      float64    `yaml:"gravity"`
	Ground       bool       `yaml:"ground"`
	Integrator   string     `yaml:"integrator"`
}

func DefaultConfig() Config {
	return Config{
		Mass:        DefaultMass,
		Position:    [3]float64{0, 1, 0},
		Drag:        0,
		AngularDrag: 0.05,
		UseGravity:  true,
		Gravity:     DefaultGravity,
		Ground:      true,
		Integrator:  "semi_implicit",
	}
}

func (c Config) Validate() error {
	if c.Mass <= 0 {
		return fmt.Errorf("%w: mass must be positive, got %g", ErrInvalidConfig, c.Mass)
	}
	if c.Drag < 0 || c.AngularDrag < 0 {
		return fmt.Errorf("%w: drag must not be negative", ErrInvalidConfig)
	}
	if _, err := integrators.ByName(c.Integrator); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Body is a single simulated rigid body. It moves under gravity and drag
// when dynamic, and only through MovePosition/MoveRotation or SetPose when
// kinematic. Queued moves take effect on the next Step.
type Body struct {
	pose     geom.Pose
	vel      mgl64.Vec3
	angVel   mgl64.Vec3
	state    grab.PhysicsState
	mass     float64
	comLocal mgl64.Vec3
	gravity  float64
	ground   bool

	integrator integrators.Integrator
	time       float64

	movePos *mgl64.Vec3
	moveRot *mgl64.Quat
}

var _ grab.RigidBody = (*Body)(nil)

func New(cfg Config) (*Body, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	integ, err := integrators.ByName(cfg.Integrator)
	if err != nil {
		return nil, err
	}
	return &Body{
		pose:     geom.NewPose(mgl64.Vec3(cfg.Position), mgl64.QuatIdent()),
		mass:     cfg.Mass,
		comLocal: mgl64.Vec3(cfg.CenterOfMass),
		gravity:  cfg.Gravity,
		ground:   cfg.Ground,
		state: grab.PhysicsState{
			Kinematic:   cfg.Kinematic,
			UseGravity:  cfg.UseGravity,
			Drag:        cfg.Drag,
			AngularDrag: cfg.AngularDrag,
		},
		integrator: integ,
	}, nil
}

func (b *Body) Pose() geom.Pose     { return b.pose }
func (b *Body) SetPose(p geom.Pose) { b.pose = p }

func (b *Body) MovePosition(p mgl64.Vec3) { b.movePos = &p }
func (b *Body) MoveRotation(q mgl64.Quat) { b.moveRot = &q }

func (b *Body) Velocity() mgl64.Vec3            { return b.vel }
func (b *Body) SetVelocity(v mgl64.Vec3)        { b.vel = v }
func (b *Body) AngularVelocity() mgl64.Vec3     { return b.angVel }
func (b *Body) SetAngularVelocity(w mgl64.Vec3) { b.angVel = w }

func (b *Body) PhysicsState() grab.PhysicsState { return b.state }

// SetPhysicsState replaces the body's physics settings. Turning a dynamic
// body kinematic stops it.
func (b *Body) SetPhysicsState(s grab.PhysicsState) {
	if s.Kinematic && !b.state.Kinematic {
		b.vel, b.angVel = mgl64.Vec3{}, mgl64.Vec3{}
	}
	b.state = s
}

func (b *Body) WorldCenterOfMass() mgl64.Vec3 {
	return b.pose.TransformPoint(b.comLocal)
}

func (b *Body) Mass() float64 { return b.mass }

func (b *Body) Speed() float64 { return b.vel.Len() }

// KineticEnergy is the translational kinetic energy.
func (b *Body) KineticEnergy() float64 {
	return 0.5 * b.mass * b.vel.Dot(b.vel)
}

// Derive implements integrators.System over (position, velocity).
func (b *Body) Derive(x integrators.State, t float64) integrators.State {
	var ay float64
	if b.state.UseGravity {
		ay = -b.gravity
	}
	return integrators.State{x[3], x[4], x[5], 0, ay, 0}
}

// Step advances the body by dt. Pending kinematic moves are applied first;
// a kinematic body does nothing else.
func (b *Body) Step(dt float64) {
	if b.movePos != nil {
		b.pose.Position = *b.movePos
		b.movePos = nil
	}
	if b.moveRot != nil {
		b.pose.Rotation = b.moveRot.Normalize()
		b.moveRot = nil
	}
	b.time += dt
	if b.state.Kinematic || dt <= 0 {
		return
	}

	p, v := b.pose.Position, b.vel
	x := b.integrator.Step(b, integrators.State{p[0], p[1], p[2], v[0], v[1], v[2]}, b.time-dt, dt)
	if !x.IsValid() {
		return
	}
	b.pose.Position = mgl64.Vec3{x[0], x[1], x[2]}
	b.vel = mgl64.Vec3{x[3], x[4], x[5]}.Mul(1 / (1 + b.state.Drag*dt))

	b.angVel = b.angVel.Mul(1 / (1 + b.state.AngularDrag*dt))
	if w := b.angVel.Len(); w > 0 {
		turn := mgl64.QuatRotate(w*dt, b.angVel.Mul(1/w))
		b.pose.Rotation = turn.Mul(b.pose.Rotation).Normalize()
	}

	if b.ground && b.pose.Position.Y() < 0 {
		b.pose.Position[1] = 0
		b.vel = mgl64.Vec3{}
		b.angVel = mgl64.Vec3{}
	}
}

// Resting reports whether a dynamic body has come to rest on the ground.
func (b *Body) Resting() bool {
	return b.ground && !b.state.Kinematic && b.pose.Position.Y() == 0 && b.vel.Len() == 0
}
