package controller

import "sync"

// InterruptGuard temporarily replaces the interrupt mask. Release puts back
// the mask that was in place when the guard was created; use it with defer
// so the mask is restored on every return path.
//
// Guards restore a snapshot, not a change, so overlapping guards must be
// released in the reverse order of their creation. Released in any other
// order, the last guard released wins and the mask may match neither
// guard's intent.
type InterruptGuard struct {
	targetState Mask
	controller  *Controller
	once        sync.Once
}

func newInterruptGuard(c *Controller, enabled Mask) *InterruptGuard {
	targetState := c.interruptsEnabledMask()
	c.enableInterrupts(enabled)
	return &InterruptGuard{
		targetState: targetState,
		controller:  c,
	}
}

// Release restores the interrupt mask captured when the guard was created.
// Calls after the first have no effect.
func (g *InterruptGuard) Release() {
	g.once.Do(func() {
		g.controller.enableInterrupts(g.targetState)
	})
}
