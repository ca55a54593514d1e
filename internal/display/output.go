// Package display models outputs (monitors) in the compositor's global
// coordinate space.
package display

// Output represents one display with a geometry rectangle in global space.
type Output struct {
	Name   string
	X      int32 // Position in global coordinate space
	Y      int32
	Width  int32
	Height int32
	Scale  float64
}

// Bounds returns the output's boundaries as x1, y1, x2, y2.
func (o *Output) Bounds() (x1, y1, x2, y2 int32) {
	return o.X, o.Y, o.X + o.Width, o.Y + o.Height
}

// Contains checks if a global-space point is within this output.
func (o *Output) Contains(x, y float64) bool {
	return x >= float64(o.X) && x < float64(o.X+o.Width) &&
		y >= float64(o.Y) && y < float64(o.Y+o.Height)
}

// ClampX clamps a global x coordinate into [X, X+Width-1].
func (o *Output) ClampX(x float64) float64 {
	return clamp(x, float64(o.X), float64(o.X+o.Width-1))
}

// ClampY clamps a global y coordinate into [Y, Y+Height-1].
func (o *Output) ClampY(y float64) float64 {
	return clamp(y, float64(o.Y), float64(o.Y+o.Height-1))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// OutputAt returns the first output containing the given point, or nil.
func OutputAt(outputs []Output, x, y float64) *Output {
	for i := range outputs {
		if outputs[i].Contains(x, y) {
			return &outputs[i]
		}
	}
	return nil
}
