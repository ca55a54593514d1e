package bridge

import (
	"github.com/bnema/seatbridge/internal/compositor"
	"github.com/bnema/seatbridge/internal/display"
)

// resolved is the outcome of mapping a global coordinate against live
// geometry: the covering output, the (possibly clamped) position, and the
// topmost window target under it.
type resolved struct {
	output display.Output
	x, y   float64
	target *compositor.Target
}

// resolveClamped finds the output covering a position, falling back to the
// seat's active output, then clamps the position componentwise into the
// output's rectangle. Clamping keeps accumulated relative motion from
// walking the pointer off every display.
func resolveClamped(snap *compositor.Snapshot, x, y float64) resolved {
	out := snap.OutputAt(x, y)
	cx := out.ClampX(x)
	cy := out.ClampY(y)
	return resolved{
		output: out,
		x:      cx,
		y:      cy,
		target: snap.WindowUnder(cx, cy),
	}
}

// resolveAbsolute resolves an absolute position without clamping. Clients
// are expected to send valid absolute coordinates; out-of-bounds ones are
// still delivered as-is for fidelity, against the active-output fallback.
func resolveAbsolute(snap *compositor.Snapshot, x, y float64) resolved {
	return resolved{
		output: snap.OutputAt(x, y),
		x:      x,
		y:      y,
		target: snap.WindowUnder(x, y),
	}
}

// resolveTouch finds the window target for a touch position. Unlike pointer
// resolution there is no fallback output: a touch outside every output has
// no target.
func resolveTouch(snap *compositor.Snapshot, x, y float64) *compositor.Target {
	if display.OutputAt(snap.Outputs, x, y) == nil {
		return nil
	}
	return snap.WindowUnder(x, y)
}
