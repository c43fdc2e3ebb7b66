package mock

import "github.com/fwojciec/interpret/bubbletea"

// Interface compliance check.
var _ bubbletea.Controller = (*Controller)(nil)

// Controller is a test double for bubbletea.Controller. Unset fields are
// no-ops.
type Controller struct {
	CancelFn func()
	CloseFn  func()
}

// Cancel delegates to CancelFn.
func (c *Controller) Cancel() {
	if c.CancelFn != nil {
		c.CancelFn()
	}
}

// Close delegates to CloseFn.
func (c *Controller) Close() {
	if c.CloseFn != nil {
		c.CloseFn()
	}
}
