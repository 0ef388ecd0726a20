package grab

import (
	"github.com/san-kum/grabsim/internal/geom"
	"go.uber.org/zap"
)

// TeleportCompensator keeps a teleport of the tracking origin from reading
// as hand motion. It snapshots the origin when a teleport begins and, when it
// ends, moves the estimator's history by the same rigid delta.
type TeleportCompensator struct {
	estimator *ThrowEstimator
	logger    *zap.Logger

	pending bool
	before  geom.Pose

	unsubscribe func()
	generation  uint64
}

func NewTeleportCompensator(estimator *ThrowEstimator, logger *zap.Logger) *TeleportCompensator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeleportCompensator{estimator: estimator, logger: logger}
}

// Bind subscribes to src, dropping any previous subscription. A nil source
// leaves the compensator unbound.
func (c *TeleportCompensator) Bind(src TeleportSource) {
	c.Unbind()
	if src == nil {
		return
	}
	gen := c.generation
	c.unsubscribe = src.Subscribe(func(ev TeleportEvent) {
		if gen != c.generation {
			return
		}
		c.Handle(ev)
	})
}

// Unbind ends the current subscription. Events still delivered through it
// afterwards are ignored.
func (c *TeleportCompensator) Unbind() {
	c.generation++
	c.pending = false
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
}

func (c *TeleportCompensator) Bound() bool { return c.unsubscribe != nil }

func (c *TeleportCompensator) Pending() bool { return c.pending }

func (c *TeleportCompensator) Handle(ev TeleportEvent) {
	switch ev.Phase {
	case TeleportBegin:
		c.Begin(ev.Origin)
	case TeleportEnd:
		c.End(ev.Origin)
	}
}

func (c *TeleportCompensator) Begin(origin geom.Pose) {
	c.before = origin
	c.pending = true
}

// End applies the origin delta since Begin. Without a pending Begin it does
// nothing.
func (c *TeleportCompensator) End(origin geom.Pose) {
	if !c.pending {
		return
	}
	c.pending = false

	c.estimator.Rebase(c.before, origin)

	translation := origin.Position.Sub(c.before.Position)
	rotation := geom.RotationDelta(c.before.Rotation, origin.Rotation)

	c.logger.Debug("teleport compensated",
		zap.Float64s("translation", translation[:]),
		zap.Float64("rotation_w", rotation.W))
}
