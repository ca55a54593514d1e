package bridge

import (
	"bytes"
	"net"
	"sync"
	"time"

	"github.com/bnema/seatbridge/internal/compositor"
	"github.com/bnema/seatbridge/internal/display"
)

// injection records one call against the fake seat's handles.
type injection struct {
	kind    string // "key", "motion", "button", "axis", "frame", "touch_down", ...
	code    uint32
	pressed bool
	x, y    float64
	slot    uint32
	target  *compositor.Target
	serial  uint32
	time    uint32
}

// fakeSeat implements compositor.Seat and records every injection call in
// order.
type fakeSeat struct {
	mu     sync.Mutex
	name   string
	active display.Output
	x, y   float64
	calls  []injection

	noKeyboard bool
	noPointer  bool
	noTouch    bool
}

func newFakeSeat(active display.Output) *fakeSeat {
	return &fakeSeat{name: "seat0", active: active}
}

func (s *fakeSeat) Name() string { return s.name }

func (s *fakeSeat) Keyboard() compositor.Keyboard {
	if s.noKeyboard {
		return nil
	}
	return (*fakeKeyboard)(s)
}

func (s *fakeSeat) Pointer() compositor.Pointer {
	if s.noPointer {
		return nil
	}
	return (*fakePointer)(s)
}

func (s *fakeSeat) Touch() compositor.Touch {
	if s.noTouch {
		return nil
	}
	return (*fakeTouch)(s)
}

func (s *fakeSeat) ActiveOutput() display.Output { return s.active }

func (s *fakeSeat) record(call injection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
}

func (s *fakeSeat) recorded() []injection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]injection(nil), s.calls...)
}

func (s *fakeSeat) kinds() []string {
	var kinds []string
	for _, c := range s.recorded() {
		kinds = append(kinds, c.kind)
	}
	return kinds
}

type fakeKeyboard fakeSeat

func (k *fakeKeyboard) Key(code uint32, pressed bool, serial uint32, timeMs uint32) error {
	(*fakeSeat)(k).record(injection{kind: "key", code: code, pressed: pressed, serial: serial, time: timeMs})
	return nil
}

type fakePointer fakeSeat

func (p *fakePointer) Location() (float64, float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.x, p.y
}

func (p *fakePointer) Motion(x, y float64, target *compositor.Target, serial uint32, timeMs uint32) error {
	p.mu.Lock()
	p.x, p.y = x, y
	p.mu.Unlock()
	(*fakeSeat)(p).record(injection{kind: "motion", x: x, y: y, target: target, serial: serial, time: timeMs})
	return nil
}

func (p *fakePointer) Button(code uint32, pressed bool, serial uint32, timeMs uint32) error {
	(*fakeSeat)(p).record(injection{kind: "button", code: code, pressed: pressed, serial: serial, time: timeMs})
	return nil
}

func (p *fakePointer) Axis(horizontal, vertical float64, timeMs uint32) error {
	(*fakeSeat)(p).record(injection{kind: "axis", x: horizontal, y: vertical, time: timeMs})
	return nil
}

func (p *fakePointer) Frame() error {
	(*fakeSeat)(p).record(injection{kind: "frame"})
	return nil
}

type fakeTouch fakeSeat

func (t *fakeTouch) Down(slot uint32, x, y float64, target *compositor.Target, serial uint32, timeMs uint32) error {
	(*fakeSeat)(t).record(injection{kind: "touch_down", slot: slot, x: x, y: y, target: target, serial: serial, time: timeMs})
	return nil
}

func (t *fakeTouch) Motion(slot uint32, x, y float64, timeMs uint32) error {
	(*fakeSeat)(t).record(injection{kind: "touch_motion", slot: slot, x: x, y: y, time: timeMs})
	return nil
}

func (t *fakeTouch) Up(slot uint32, serial uint32, timeMs uint32) error {
	(*fakeSeat)(t).record(injection{kind: "touch_up", slot: slot, serial: serial, time: timeMs})
	return nil
}

func (t *fakeTouch) Cancel() error {
	(*fakeSeat)(t).record(injection{kind: "touch_cancel"})
	return nil
}

func (t *fakeTouch) Frame() error {
	(*fakeSeat)(t).record(injection{kind: "touch_frame"})
	return nil
}

// fakeAddr and fakeConn give connection tests a writable net.Conn without
// real sockets.
type fakeAddr string

func (a fakeAddr) Network() string { return "fake" }
func (a fakeAddr) String() string  { return string(a) }

type fakeConn struct {
	mu     sync.Mutex
	out    bytes.Buffer
	addr   string
	closed bool
}

func (c *fakeConn) Read(p []byte) (int, error) { return 0, net.ErrClosed }

func (c *fakeConn) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.out.Write(p)
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) LocalAddr() net.Addr                { return fakeAddr("local") }
func (c *fakeConn) RemoteAddr() net.Addr               { return fakeAddr(c.addr) }
func (c *fakeConn) SetDeadline(t time.Time) error      { return nil }
func (c *fakeConn) SetReadDeadline(t time.Time) error  { return nil }
func (c *fakeConn) SetWriteDeadline(t time.Time) error { return nil }
