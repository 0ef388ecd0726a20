package grab

import (
	"github.com/san-kum/grabsim/internal/geom"
	"go.uber.org/zap"
)

// AttachKey identifies the dynamic attach point of one interactor on one
// body.
type AttachKey struct {
	Body       BodyID
	Interactor InteractorID
}

// AttachHandle is a reusable attach point. Local is its pose relative to the
// body that borrowed it.
type AttachHandle struct {
	Local geom.Pose

	id        uint64
	destroyed bool
	pooled    bool
}

func (h *AttachHandle) ID() uint64 { return h.id }

// Destroy marks the handle as torn down by its owner. The pool never hands
// a destroyed handle out again.
func (h *AttachHandle) Destroy() { h.destroyed = true }

func (h *AttachHandle) Alive() bool { return h != nil && !h.destroyed }

// AttachPool lends attach handles per (body, interactor) and keeps returned
// ones for reuse. It is owned by a scene and passed to each grabbable.
type AttachPool struct {
	free      []*AttachHandle
	borrowed  map[AttachKey]*AttachHandle
	nextID    uint64
	allocated int
	logger    *zap.Logger
}

func NewAttachPool(logger *zap.Logger) *AttachPool {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttachPool{
		borrowed: make(map[AttachKey]*AttachHandle),
		logger:   logger,
	}
}

// Borrow returns the live handle lent to key, lending a pooled or newly
// allocated one when there is none. The handle starts at the identity pose.
func (p *AttachPool) Borrow(key AttachKey) *AttachHandle {
	if h, ok := p.borrowed[key]; ok {
		if h.Alive() {
			return h
		}
		delete(p.borrowed, key)
	}

	h := p.popFree()
	if h == nil {
		p.nextID++
		p.allocated++
		h = &AttachHandle{id: p.nextID}
		p.logger.Debug("attach handle allocated", zap.Uint64("id", h.id), zap.Int("allocated", p.allocated))
	}
	h.pooled = false
	h.Local = geom.Identity()
	p.borrowed[key] = h
	return h
}

func (p *AttachPool) popFree() *AttachHandle {
	for len(p.free) > 0 {
		h := p.free[len(p.free)-1]
		p.free[len(p.free)-1] = nil
		p.free = p.free[:len(p.free)-1]
		if h.Alive() {
			return h
		}
		p.logger.Debug("dropping destroyed attach handle", zap.Uint64("id", h.id))
	}
	return nil
}

// Lookup returns the handle currently lent to key, if it is still alive.
func (p *AttachPool) Lookup(key AttachKey) (*AttachHandle, bool) {
	h, ok := p.borrowed[key]
	if !ok || !h.Alive() {
		return nil, false
	}
	return h, true
}

// Return gives key's handle back. Returning twice, or returning a destroyed
// handle, does not add anything to the pool.
func (p *AttachPool) Return(key AttachKey) bool {
	h, ok := p.borrowed[key]
	if !ok {
		return false
	}
	delete(p.borrowed, key)
	if !h.Alive() || h.pooled {
		return false
	}
	h.pooled = true
	p.free = append(p.free, h)
	return true
}

// Available counts pooled handles, including ones destroyed while pooled.
func (p *AttachPool) Available() int { return len(p.free) }

func (p *AttachPool) Borrowed() int { return len(p.borrowed) }

// Allocated counts every handle ever created.
func (p *AttachPool) Allocated() int { return p.allocated }
