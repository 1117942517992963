package viewport

import (
	"sync"

	"github.com/aretw0/flowcanvas/pkg/domain"
)

// ListenerHost is the surface that delivers global pointer events.
// Install registers handlers for pointer move and pointer up and returns a
// function removing both.
type ListenerHost interface {
	Install(onMove, onUp func(pointer domain.Position)) (remove func())
}

// Viewport holds the ephemeral pan/zoom state of one editor.
type Viewport struct {
	mu sync.Mutex
	t  Transform

	host      ListenerHost
	remove    func()
	dragStart domain.Position
	initial   Transform
}

// New creates a viewport at identity. host may be nil when panning is driven
// by calling Move and End directly.
func New(host ListenerHost) *Viewport {
	return &Viewport{t: Identity(), host: host}
}

// Transform returns the current transform.
func (v *Viewport) Transform() Transform {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.t
}

// SetTransform replaces the transform, e.g. after Fit.
func (v *Viewport) SetTransform(t Transform) {
	v.mu.Lock()
	defer v.mu.Unlock()
	t.Scale = clampScale(t.Scale)
	v.t = t
}

// ZoomIn applies one zoom step and returns the new transform.
func (v *Viewport) ZoomIn() Transform {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.t = v.t.ZoomIn()
	return v.t
}

// ZoomOut applies one zoom-out step and returns the new transform.
func (v *Viewport) ZoomOut() Transform {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.t = v.t.ZoomOut()
	return v.t
}

// Reset returns to identity.
func (v *Viewport) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.t = Identity()
}

// BeginPan starts a drag at pointer. Drags starting over a node are not pans
// and are ignored. Global listeners are installed on the host for the
// duration of the drag only.
func (v *Viewport) BeginPan(pointer domain.Position, overNode bool) bool {
	if overNode {
		return false
	}
	v.mu.Lock()
	if v.remove != nil {
		v.mu.Unlock()
		return false
	}
	v.dragStart = pointer
	v.initial = v.t
	v.remove = func() {}
	host := v.host
	v.mu.Unlock()

	if host != nil {
		remove := host.Install(v.Move, v.End)
		v.mu.Lock()
		if v.remove != nil {
			v.remove = remove
			v.mu.Unlock()
		} else {
			// released before install returned
			v.mu.Unlock()
			remove()
		}
	}
	return true
}

// Move updates the translation while a pan is active.
func (v *Viewport) Move(pointer domain.Position) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.remove == nil {
		return
	}
	v.t.X = v.initial.X + (pointer.X - v.dragStart.X)
	v.t.Y = v.initial.Y + (pointer.Y - v.dragStart.Y)
}

// End finishes the pan and removes the global listeners.
func (v *Viewport) End(domain.Position) {
	v.mu.Lock()
	remove := v.remove
	v.remove = nil
	v.mu.Unlock()
	if remove != nil {
		remove()
	}
}

// Panning reports whether a drag is in progress.
func (v *Viewport) Panning() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.remove != nil
}

// ScreenToCanvas converts a screen point using the current transform.
func (v *Viewport) ScreenToCanvas(screen, origin domain.Position) domain.Position {
	return v.Transform().ScreenToCanvas(screen, origin)
}
