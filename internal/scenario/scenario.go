package scenario

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/grabsim/internal/geom"
	"github.com/san-kum/grabsim/internal/grab"
)

var (
	ErrUnknownScenario = errors.New("scenario: unknown scenario")
	ErrInvalidOptions  = errors.New("scenario: invalid options")
)

type ActionKind int

const (
	ActionSelect ActionKind = iota
	ActionRelease
	ActionTeleport
	ActionSetMovement
	ActionDestroy
)

func (k ActionKind) String() string {
	switch k {
	case ActionSelect:
		return "select"
	case ActionRelease:
		return "release"
	case ActionTeleport:
		return "teleport"
	case ActionSetMovement:
		return "set_movement"
	case ActionDestroy:
		return "destroy"
	}
	return fmt.Sprintf("action(%d)", int(k))
}

// Action is one scripted event. Hand names the interactor for select,
// release and destroy; Origin is the rig target of a teleport.
type Action struct {
	At       float64
	Kind     ActionKind
	Hand     string
	Origin   geom.Pose
	Movement grab.MovementType
}

type Options struct {
	GrabAt         float64    `yaml:"grab_at"`
	ReleaseAt      float64    `yaml:"release_at"`
	Speed          float64    `yaml:"speed"`
	Radius         float64    `yaml:"radius"`
	TeleportOffset [3]float64 `yaml:"teleport_offset"`
	Jitter         float64    `yaml:"jitter"`
	Seed           int64      `yaml:"seed"`
}

func DefaultOptions() Options {
	return Options{
		GrabAt:         0.1,
		ReleaseAt:      1.0,
		Speed:          3,
		Radius:         0.5,
		TeleportOffset: [3]float64{5, 0, 0},
	}
}

func (o Options) Validate() error {
	if o.GrabAt < 0 || o.ReleaseAt <= o.GrabAt {
		return fmt.Errorf("%w: need 0 <= grab_at < release_at, got %g and %g", ErrInvalidOptions, o.GrabAt, o.ReleaseAt)
	}
	if o.Speed < 0 {
		return fmt.Errorf("%w: speed must not be negative, got %g", ErrInvalidOptions, o.Speed)
	}
	if o.Radius <= 0 {
		return fmt.Errorf("%w: radius must be positive, got %g", ErrInvalidOptions, o.Radius)
	}
	if o.Jitter < 0 {
		return fmt.Errorf("%w: jitter must not be negative, got %g", ErrInvalidOptions, o.Jitter)
	}
	return nil
}

// Scenario is a scripted session: hands parented to a rig and the actions
// applied to them over time.
type Scenario struct {
	Name        string
	Description string
	Hands       []*Hand
	Rig         *Rig
	Actions     []Action
	// Settle is how long to keep simulating after the last action.
	Settle float64
}

func (s *Scenario) Hand(id string) (*Hand, bool) {
	for _, h := range s.Hands {
		if string(h.ID()) == id {
			return h, true
		}
	}
	return nil, false
}

// Update moves every hand to its pose at t.
func (s *Scenario) Update(t float64) {
	for _, h := range s.Hands {
		h.Update(t)
	}
}

// Due returns the actions scheduled in (from, to], in order.
func (s *Scenario) Due(from, to float64) []Action {
	var due []Action
	for _, a := range s.Actions {
		if a.At > from && a.At <= to {
			due = append(due, a)
		}
	}
	return due
}

// End is the time of the last action plus the settle time.
func (s *Scenario) End() float64 {
	end := 0.0
	for _, a := range s.Actions {
		if a.At > end {
			end = a.At
		}
	}
	return end + s.Settle
}

type builder struct {
	description string
	build       func(anchor mgl64.Vec3, o Options, rng *rand.Rand) *Scenario
}

var builders = map[string]builder{
	"hold": {
		description: "grab a body and hold it still, then let go",
		build:       buildHold,
	},
	"throw": {
		description: "accelerate the hand forward and release at speed",
		build:       buildThrow,
	},
	"swing": {
		description: "carry the body around a horizontal arc and release",
		build:       buildSwing,
	},
	"teleport": {
		description: "hold still while the tracking origin teleports",
		build:       buildTeleport,
	},
	"handoff": {
		description: "pass the body from the left hand to the right",
		build:       buildHandoff,
	},
	"lost_tracking": {
		description: "the holding hand loses tracking mid-grab",
		build:       buildLostTracking,
	},
	"switch": {
		description: "change the movement type while the body is held",
		build:       buildSwitch,
	},
}

// Build creates the named scenario with its hands placed around anchor,
// usually the body's starting position.
func Build(name string, anchor mgl64.Vec3, o Options) (*Scenario, error) {
	b, ok := builders[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScenario, name)
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(o.Seed))
	s := b.build(anchor, o, rng)
	s.Name = name
	s.Description = b.description
	if s.Settle == 0 {
		s.Settle = 1
	}
	sort.SliceStable(s.Actions, func(i, j int) bool { return s.Actions[i].At < s.Actions[j].At })
	return s, nil
}

func Names() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func Describe(name string) (string, bool) {
	b, ok := builders[name]
	return b.description, ok
}

// jittered adds uniform tracking noise of up to amp metres per axis.
func jittered(p Path, amp float64, rng *rand.Rand) Path {
	if amp == 0 {
		return p
	}
	return func(t float64) geom.Pose {
		pose := p(t)
		noise := mgl64.Vec3{rng.Float64()*2 - 1, rng.Float64()*2 - 1, rng.Float64()*2 - 1}
		pose.Position = pose.Position.Add(noise.Mul(amp))
		return pose
	}
}

func single(path Path, o Options, rng *rand.Rand) *Scenario {
	rig := NewRig(geom.Identity())
	h := NewHand("right", jittered(path, o.Jitter, rng), rig)
	return &Scenario{Hands: []*Hand{h}, Rig: rig}
}

func grabAndRelease(hand string, o Options) []Action {
	return []Action{
		{At: o.GrabAt, Kind: ActionSelect, Hand: hand},
		{At: o.ReleaseAt, Kind: ActionRelease, Hand: hand},
	}
}

func buildHold(anchor mgl64.Vec3, o Options, rng *rand.Rand) *Scenario {
	start := geom.NewPose(anchor.Add(mgl64.Vec3{0.05, 0.1, 0}), mgl64.QuatIdent())
	s := single(Still(start), o, rng)
	s.Actions = grabAndRelease("right", o)
	return s
}

func buildThrow(anchor mgl64.Vec3, o Options, rng *rand.Rand) *Scenario {
	windup := o.GrabAt + 0.5*(o.ReleaseAt-o.GrabAt)
	path := Accelerate(geom.NewPose(anchor, mgl64.QuatIdent()), mgl64.Vec3{0, 0.5, 1}, o.Speed, windup, o.ReleaseAt)
	s := single(path, o, rng)
	s.Actions = grabAndRelease("right", o)
	s.Settle = 2
	return s
}

func buildSwing(anchor mgl64.Vec3, o Options, rng *rand.Rand) *Scenario {
	center := anchor.Sub(mgl64.Vec3{o.Radius, 0, 0})
	path := Arc(center, o.Radius, o.Speed/o.Radius, o.GrabAt+0.2)
	s := single(path, o, rng)
	s.Actions = grabAndRelease("right", o)
	s.Settle = 2
	return s
}

func buildTeleport(anchor mgl64.Vec3, o Options, rng *rand.Rand) *Scenario {
	s := single(Still(geom.NewPose(anchor, mgl64.QuatIdent())), o, rng)
	mid := o.GrabAt + 0.5*(o.ReleaseAt-o.GrabAt)
	to := geom.NewPose(mgl64.Vec3(o.TeleportOffset), mgl64.QuatIdent())
	s.Actions = append(grabAndRelease("right", o), Action{At: mid, Kind: ActionTeleport, Origin: to})
	return s
}

func buildHandoff(anchor mgl64.Vec3, o Options, rng *rand.Rand) *Scenario {
	rig := NewRig(geom.Identity())
	left := NewHand("left", jittered(Still(geom.NewPose(anchor, mgl64.QuatIdent())), o.Jitter, rng), rig)
	right := NewHand("right", jittered(Still(geom.NewPose(anchor.Add(mgl64.Vec3{0.4, 0, 0}), mgl64.QuatIdent())), o.Jitter, rng), rig)

	span := o.ReleaseAt - o.GrabAt
	return &Scenario{
		Hands: []*Hand{left, right},
		Rig:   rig,
		Actions: []Action{
			{At: o.GrabAt, Kind: ActionSelect, Hand: "left"},
			{At: o.GrabAt + 0.25*span, Kind: ActionSelect, Hand: "right"},
			{At: o.GrabAt + 0.5*span, Kind: ActionRelease, Hand: "left"},
			{At: o.ReleaseAt, Kind: ActionRelease, Hand: "right"},
		},
	}
}

func buildLostTracking(anchor mgl64.Vec3, o Options, rng *rand.Rand) *Scenario {
	path := Accelerate(geom.NewPose(anchor, mgl64.QuatIdent()), mgl64.Vec3{0, 1, 0}, o.Speed, o.GrabAt, o.ReleaseAt)
	s := single(path, o, rng)
	mid := o.GrabAt + 0.5*(o.ReleaseAt-o.GrabAt)
	s.Actions = append(grabAndRelease("right", o), Action{At: mid, Kind: ActionDestroy, Hand: "right"})
	return s
}

func buildSwitch(anchor mgl64.Vec3, o Options, rng *rand.Rand) *Scenario {
	s := single(Arc(anchor.Sub(mgl64.Vec3{o.Radius, 0, 0}), o.Radius, o.Speed/o.Radius, o.GrabAt), o, rng)
	mid := o.GrabAt + 0.5*(o.ReleaseAt-o.GrabAt)
	s.Actions = append(grabAndRelease("right", o), Action{At: mid, Kind: ActionSetMovement, Movement: grab.MovementVelocityTracking})
	return s
}
