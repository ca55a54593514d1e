// Package compositor exposes the input-stack surface the bridge injects
// into: seats with keyboard/pointer/touch handles, and a shell registry of
// outputs and window stacking read through snapshots.
package compositor

import (
	"github.com/bnema/seatbridge/internal/display"
)

// Target identifies the interactive window under a position, with the
// position translated into the window's local coordinate space.
type Target struct {
	Window string
	X, Y   float64
}

// Keyboard injects key events for one seat.
type Keyboard interface {
	Key(code uint32, pressed bool, serial uint32, timeMs uint32) error
}

// Pointer injects pointer events for one seat. Motion carries the resolved
// focus target; Frame commits a batch of pointer events.
type Pointer interface {
	Location() (x, y float64)
	Motion(x, y float64, target *Target, serial uint32, timeMs uint32) error
	Button(code uint32, pressed bool, serial uint32, timeMs uint32) error
	Axis(horizontal, vertical float64, timeMs uint32) error
	Frame() error
}

// Touch injects touch events for one seat, correlated by slot id.
type Touch interface {
	Down(slot uint32, x, y float64, target *Target, serial uint32, timeMs uint32) error
	Motion(slot uint32, x, y float64, timeMs uint32) error
	Up(slot uint32, serial uint32, timeMs uint32) error
	Cancel() error
	Frame() error
}

// Seat aggregates the input handles for one logical user. Any handle may be
// nil when the seat lacks that capability.
type Seat interface {
	Name() string
	Keyboard() Keyboard
	Pointer() Pointer
	Touch() Touch
	ActiveOutput() display.Output
}
