package bridge

import (
	"errors"
	"sync/atomic"
)

// ErrConnectionLimit is returned when the connection ceiling is reached.
var ErrConnectionLimit = errors.New("connection limit reached")

// AdmissionController tracks concurrently active client connections against
// a fixed ceiling. It is the sole load-shedding mechanism: rejected sockets
// are simply dropped, never serviced.
type AdmissionController struct {
	limit  int32
	active atomic.Int32
}

// NewAdmissionController creates a controller with the given ceiling.
// Non-positive limits fall back to 1.
func NewAdmissionController(limit int) *AdmissionController {
	if limit < 1 {
		limit = 1
	}
	return &AdmissionController{limit: int32(limit)}
}

// TryAdmit claims one connection slot. The compare-and-swap loop makes the
// check and increment a single atomic step, so concurrent accepts can never
// admit past the ceiling.
func (a *AdmissionController) TryAdmit() error {
	for {
		current := a.active.Load()
		if current >= a.limit {
			return ErrConnectionLimit
		}
		if a.active.CompareAndSwap(current, current+1) {
			return nil
		}
	}
}

// Release frees a previously admitted slot.
func (a *AdmissionController) Release() {
	if a.active.Add(-1) < 0 {
		// Unbalanced release; pin at zero rather than poisoning the count.
		a.active.Store(0)
	}
}

// Active returns the number of admitted, not-yet-released connections.
func (a *AdmissionController) Active() int {
	return int(a.active.Load())
}

// Limit returns the configured ceiling.
func (a *AdmissionController) Limit() int {
	return int(a.limit)
}
