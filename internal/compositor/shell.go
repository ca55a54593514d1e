package compositor

import (
	"sync"

	"github.com/bnema/seatbridge/internal/display"
)

// Window is one entry in the stacking order, with global-space geometry.
type Window struct {
	ID     string
	X, Y   float64
	Width  float64
	Height float64
}

// Contains checks if a global-space point is within this window.
func (w *Window) Contains(x, y float64) bool {
	return x >= w.X && x < w.X+w.Width && y >= w.Y && y < w.Y+w.Height
}

// Shell is the guarded registry of live outputs, window stacking and seats.
// Readers take a Snapshot and must release implicitly (the snapshot copies
// everything out) before making injection calls; injection may re-enter the
// shell's write path internally.
type Shell struct {
	mu         sync.RWMutex
	outputs    []display.Output
	windows    []Window // topmost first
	seats      []Seat
	lastActive int
}

// NewShell creates an empty shell registry.
func NewShell() *Shell {
	return &Shell{}
}

// AddOutput registers an output.
func (s *Shell) AddOutput(o display.Output) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outputs = append(s.outputs, o)
}

// RemoveOutput drops an output by name.
func (s *Shell) RemoveOutput(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.outputs {
		if s.outputs[i].Name == name {
			s.outputs = append(s.outputs[:i], s.outputs[i+1:]...)
			return
		}
	}
}

// AddSeat registers a seat. The first seat added becomes the last-active
// seat until SetLastActiveSeat says otherwise.
func (s *Shell) AddSeat(seat Seat) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seats = append(s.seats, seat)
}

// SetLastActiveSeat marks the seat that most recently saw interactive
// input. Unknown names are ignored.
func (s *Shell) SetLastActiveSeat(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, seat := range s.seats {
		if seat.Name() == name {
			s.lastActive = i
			return
		}
	}
}

// SetWindows replaces the stacking order, topmost first.
func (s *Shell) SetWindows(windows []Window) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.windows = append([]Window(nil), windows...)
}

// RaiseWindow moves a window to the top of the stack.
func (s *Shell) RaiseWindow(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.windows {
		if s.windows[i].ID == id {
			w := s.windows[i]
			s.windows = append(s.windows[:i], s.windows[i+1:]...)
			s.windows = append([]Window{w}, s.windows...)
			return
		}
	}
}

// Snapshot is an immutable view of the shell taken under the read lock.
// By the time a caller holds it, the lock is already released, so it is
// safe to make injection calls while consulting it.
type Snapshot struct {
	Outputs []display.Output
	Windows []Window
	Seat    Seat
}

// Snapshot copies the live state out under the read lock and releases it
// before returning. Returns false when no seat is registered.
func (s *Shell) Snapshot() (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.seats) == 0 {
		return Snapshot{}, false
	}
	return Snapshot{
		Outputs: append([]display.Output(nil), s.outputs...),
		Windows: append([]Window(nil), s.windows...),
		Seat:    s.seats[s.lastActive],
	}, true
}

// WindowUnder returns the topmost window target under a global position,
// with the position mapped into window-local space.
func (snap *Snapshot) WindowUnder(x, y float64) *Target {
	for i := range snap.Windows {
		if snap.Windows[i].Contains(x, y) {
			return &Target{
				Window: snap.Windows[i].ID,
				X:      x - snap.Windows[i].X,
				Y:      y - snap.Windows[i].Y,
			}
		}
	}
	return nil
}

// OutputAt returns the output containing a global position, or the seat's
// active output when the position lies outside every output.
func (snap *Snapshot) OutputAt(x, y float64) display.Output {
	if o := display.OutputAt(snap.Outputs, x, y); o != nil {
		return *o
	}
	return snap.Seat.ActiveOutput()
}
