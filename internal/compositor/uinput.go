package compositor

import (
	"fmt"
	"sync"

	"github.com/ThomasT75/uinput"
	"github.com/bnema/seatbridge/internal/display"
)

// Evdev button codes handled by the uinput pointer.
const (
	btnLeft   = 0x110
	btnRight  = 0x111
	btnMiddle = 0x112
)

// UinputSeat is a seat backed by uinput virtual devices. uinput only speaks
// relative pointer motion, so absolute positions are turned into deltas
// against a tracked cursor position, and touch contacts collapse onto the
// primary pointer.
type UinputSeat struct {
	name  string
	mouse uinput.Mouse
	kbd   uinput.Keyboard

	mu       sync.Mutex
	x, y     float64
	touching bool
	active   display.Output
}

// NewUinputSeat creates the virtual mouse and keyboard devices for a seat.
// The active output seeds the tracked cursor position at its center.
func NewUinputSeat(name string, active display.Output) (*UinputSeat, error) {
	mouse, err := uinput.CreateMouse("/dev/uinput", []byte(name+" virtual pointer"))
	if err != nil {
		return nil, fmt.Errorf("failed to create virtual mouse: %w", err)
	}
	kbd, err := uinput.CreateKeyboard("/dev/uinput", []byte(name+" virtual keyboard"))
	if err != nil {
		_ = mouse.Close()
		return nil, fmt.Errorf("failed to create virtual keyboard: %w", err)
	}
	return &UinputSeat{
		name:   name,
		mouse:  mouse,
		kbd:    kbd,
		x:      float64(active.X + active.Width/2),
		y:      float64(active.Y + active.Height/2),
		active: active,
	}, nil
}

// Close releases the virtual devices.
func (s *UinputSeat) Close() error {
	err := s.mouse.Close()
	if e := s.kbd.Close(); e != nil && err == nil {
		err = e
	}
	return err
}

func (s *UinputSeat) Name() string                 { return s.name }
func (s *UinputSeat) Keyboard() Keyboard           { return (*uinputKeyboard)(s) }
func (s *UinputSeat) Pointer() Pointer             { return (*uinputPointer)(s) }
func (s *UinputSeat) Touch() Touch                 { return (*uinputTouch)(s) }
func (s *UinputSeat) ActiveOutput() display.Output { return s.active }

// SetActiveOutput updates the fallback output for out-of-bounds positions.
func (s *UinputSeat) SetActiveOutput(o display.Output) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = o
}

type uinputKeyboard UinputSeat

func (k *uinputKeyboard) Key(code uint32, pressed bool, serial uint32, timeMs uint32) error {
	if pressed {
		return k.kbd.KeyDown(int(code))
	}
	return k.kbd.KeyUp(int(code))
}

type uinputPointer UinputSeat

func (p *uinputPointer) Location() (float64, float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.x, p.y
}

func (p *uinputPointer) Motion(x, y float64, target *Target, serial uint32, timeMs uint32) error {
	return (*UinputSeat)(p).moveTo(x, y)
}

func (p *uinputPointer) Button(code uint32, pressed bool, serial uint32, timeMs uint32) error {
	switch code {
	case btnLeft:
		if pressed {
			return p.mouse.LeftPress()
		}
		return p.mouse.LeftRelease()
	case btnRight:
		if pressed {
			return p.mouse.RightPress()
		}
		return p.mouse.RightRelease()
	case btnMiddle:
		if pressed {
			return p.mouse.MiddlePress()
		}
		return p.mouse.MiddleRelease()
	}
	return fmt.Errorf("unsupported button code: %#x", code)
}

func (p *uinputPointer) Axis(horizontal, vertical float64, timeMs uint32) error {
	if vertical != 0 {
		if err := p.mouse.Wheel(false, int32(vertical)); err != nil {
			return err
		}
	}
	if horizontal != 0 {
		if err := p.mouse.Wheel(true, int32(horizontal)); err != nil {
			return err
		}
	}
	return nil
}

func (p *uinputPointer) Frame() error { return nil }

type uinputTouch UinputSeat

func (t *uinputTouch) Down(slot uint32, x, y float64, target *Target, serial uint32, timeMs uint32) error {
	if err := (*UinputSeat)(t).moveTo(x, y); err != nil {
		return err
	}
	t.mu.Lock()
	already := t.touching
	t.touching = true
	t.mu.Unlock()
	if already {
		// Secondary contacts ride along with the primary one.
		return nil
	}
	return t.mouse.LeftPress()
}

func (t *uinputTouch) Motion(slot uint32, x, y float64, timeMs uint32) error {
	return (*UinputSeat)(t).moveTo(x, y)
}

func (t *uinputTouch) Up(slot uint32, serial uint32, timeMs uint32) error {
	t.mu.Lock()
	was := t.touching
	t.touching = false
	t.mu.Unlock()
	if !was {
		return nil
	}
	return t.mouse.LeftRelease()
}

func (t *uinputTouch) Cancel() error {
	t.mu.Lock()
	was := t.touching
	t.touching = false
	t.mu.Unlock()
	if !was {
		return nil
	}
	return t.mouse.LeftRelease()
}

func (t *uinputTouch) Frame() error { return nil }

// moveTo emits the relative motion needed to land the tracked cursor on an
// absolute global position.
func (s *UinputSeat) moveTo(x, y float64) error {
	s.mu.Lock()
	dx := int32(x - s.x)
	dy := int32(y - s.y)
	s.x = x
	s.y = y
	s.mu.Unlock()
	if dx == 0 && dy == 0 {
		return nil
	}
	return s.mouse.Move(dx, dy)
}
