package bridge

import "math"

// Bounds for untrusted client event fields.
const (
	// MaxEvdevKeycode is KEY_MAX from linux/input-event-codes.h. Button
	// codes share the same evdev code space.
	MaxEvdevKeycode = 0x2FF

	// DefaultMaxTouchID is a generous slot ceiling; real devices rarely
	// exceed 20 contacts.
	DefaultMaxTouchID = 256
)

// KeycodeInRange reports whether a keycode fits the evdev code space.
func KeycodeInRange(code, max uint32) bool {
	return code <= max
}

// ButtonInRange reports whether a button code fits the evdev code space.
func ButtonInRange(code, max uint32) bool {
	return code <= max
}

// TouchIDInRange reports whether a touch slot id is below the slot ceiling.
func TouchIDInRange(id, max uint32) bool {
	return id <= max
}

// FiniteCoords reports whether both components are finite. NaN and ±Inf
// must never reach an injection call.
func FiniteCoords(x, y float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0) &&
		!math.IsNaN(y) && !math.IsInf(y, 0)
}
