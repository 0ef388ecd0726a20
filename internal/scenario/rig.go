package scenario

import (
	"sort"

	"github.com/san-kum/grabsim/internal/geom"
	"github.com/san-kum/grabsim/internal/grab"
)

// Rig is the tracking-space origin that scripted hands are parented to.
// Teleporting it moves every hand rigidly and notifies subscribers before
// and after the jump.
type Rig struct {
	origin   geom.Pose
	handlers map[int]func(grab.TeleportEvent)
	next     int
}

var _ grab.TeleportSource = (*Rig)(nil)

func NewRig(origin geom.Pose) *Rig {
	return &Rig{origin: origin, handlers: make(map[int]func(grab.TeleportEvent))}
}

func (r *Rig) Origin() geom.Pose { return r.origin }

func (r *Rig) Subscribe(fn func(grab.TeleportEvent)) func() {
	id := r.next
	r.next++
	r.handlers[id] = fn
	return func() { delete(r.handlers, id) }
}

func (r *Rig) Subscribers() int { return len(r.handlers) }

// Teleport moves the origin to to.
func (r *Rig) Teleport(to geom.Pose) {
	r.notify(grab.TeleportEvent{Phase: grab.TeleportBegin, Origin: r.origin})
	r.origin = to
	r.notify(grab.TeleportEvent{Phase: grab.TeleportEnd, Origin: r.origin})
}

func (r *Rig) notify(ev grab.TeleportEvent) {
	ids := make([]int, 0, len(r.handlers))
	for id := range r.handlers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		if fn, ok := r.handlers[id]; ok {
			fn(ev)
		}
	}
}
