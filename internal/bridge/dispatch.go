package bridge

import (
	"time"

	"github.com/bnema/seatbridge/internal/compositor"
	"github.com/bnema/seatbridge/internal/logger"
	"github.com/bnema/seatbridge/internal/protocol"
)

// Dispatcher translates decoded requests into compositor injection calls.
// It keeps no cross-request state: touch contacts are correlated purely by
// the slot id carried in the protocol, and every request is processed to
// completion before the next one.
type Dispatcher struct {
	shell   *compositor.Shell
	serials *compositor.SerialCounter

	maxKeycode uint32
	maxTouchID uint32
	deviceName string

	// now returns a millisecond timestamp; swapped out in tests.
	now func() uint32
}

// NewDispatcher creates a dispatcher against a shell registry. Zero bounds
// fall back to the evdev/touch defaults.
func NewDispatcher(shell *compositor.Shell, maxKeycode, maxTouchID uint32) *Dispatcher {
	if maxKeycode == 0 {
		maxKeycode = MaxEvdevKeycode
	}
	if maxTouchID == 0 {
		maxTouchID = DefaultMaxTouchID
	}
	return &Dispatcher{
		shell:      shell,
		serials:    &compositor.SerialCounter{},
		maxKeycode: maxKeycode,
		maxTouchID: maxTouchID,
		deviceName: "remote-input",
		now: func() uint32 {
			return uint32(time.Now().UnixMilli())
		},
	}
}

// Dispatch processes one decoded request: validate, resolve, inject,
// frame-commit. Returns true when the request ends the connection.
// Validation failures drop the single request and never the connection.
func (d *Dispatcher) Dispatch(conn *Connection, req protocol.Request) bool {
	// One clock read per request keeps a request's emitted events
	// internally consistent in time.
	timeMs := d.now()

	switch r := req.(type) {
	case protocol.KeyboardKey:
		d.keyboardKey(r, timeMs)
	case protocol.PointerMotion:
		d.pointerMotion(r, timeMs)
	case protocol.PointerMotionAbsolute:
		d.pointerMotionAbsolute(r, timeMs)
	case protocol.Button:
		d.button(r, timeMs)
	case protocol.ScrollDelta:
		d.scroll(r, timeMs)
	case protocol.TouchDown:
		d.touchDown(r, timeMs)
	case protocol.TouchMotion:
		d.touchMotion(r, timeMs)
	case protocol.TouchUp:
		d.touchUp(r, timeMs)
	case protocol.TouchCancel:
		d.touchCancel()
	case protocol.Bind:
		d.bind(conn, r)
	case protocol.Disconnect:
		logger.Info("Client disconnected", "client", conn.Name())
		return true
	case protocol.DeviceStartEmulating, protocol.DeviceStopEmulating, protocol.Frame:
		// Acknowledged, not forwarded.
	default:
		logger.Debug("Unhandled request", "type", protocol.Name(req))
	}
	return false
}

func (d *Dispatcher) keyboardKey(r protocol.KeyboardKey, timeMs uint32) {
	if !KeycodeInRange(r.Key, d.maxKeycode) {
		logger.Warn("Rejecting keyboard event: keycode out of range", "keycode", r.Key)
		return
	}
	snap, ok := d.shell.Snapshot()
	if !ok {
		return
	}
	kbd := snap.Seat.Keyboard()
	if kbd == nil {
		return
	}
	serial := d.serials.Next()
	if err := kbd.Key(r.Key, r.Pressed, serial, timeMs); err != nil {
		logger.Errorf("Key injection failed: %v", err)
	}
}

func (d *Dispatcher) pointerMotion(r protocol.PointerMotion, timeMs uint32) {
	if !FiniteCoords(r.DX, r.DY) {
		logger.Warn("Rejecting pointer motion: non-finite delta")
		return
	}
	snap, ok := d.shell.Snapshot()
	if !ok {
		return
	}
	ptr := snap.Seat.Pointer()
	if ptr == nil {
		return
	}
	x, y := ptr.Location()
	res := resolveClamped(&snap, x+r.DX, y+r.DY)
	serial := d.serials.Next()
	if err := ptr.Motion(res.x, res.y, res.target, serial, timeMs); err != nil {
		logger.Errorf("Pointer motion injection failed: %v", err)
		return
	}
	d.frame(ptr)
}

func (d *Dispatcher) pointerMotionAbsolute(r protocol.PointerMotionAbsolute, timeMs uint32) {
	if !FiniteCoords(r.X, r.Y) {
		logger.Warn("Rejecting absolute pointer motion: non-finite coordinates")
		return
	}
	snap, ok := d.shell.Snapshot()
	if !ok {
		return
	}
	ptr := snap.Seat.Pointer()
	if ptr == nil {
		return
	}
	res := resolveAbsolute(&snap, r.X, r.Y)
	serial := d.serials.Next()
	if err := ptr.Motion(res.x, res.y, res.target, serial, timeMs); err != nil {
		logger.Errorf("Pointer motion injection failed: %v", err)
		return
	}
	d.frame(ptr)
}

func (d *Dispatcher) button(r protocol.Button, timeMs uint32) {
	if !ButtonInRange(r.Button, d.maxKeycode) {
		logger.Warn("Rejecting button event: code out of range", "button", r.Button)
		return
	}
	snap, ok := d.shell.Snapshot()
	if !ok {
		return
	}
	ptr := snap.Seat.Pointer()
	if ptr == nil {
		return
	}
	serial := d.serials.Next()
	if err := ptr.Button(r.Button, r.Pressed, serial, timeMs); err != nil {
		logger.Errorf("Button injection failed: %v", err)
		return
	}
	d.frame(ptr)
}

func (d *Dispatcher) scroll(r protocol.ScrollDelta, timeMs uint32) {
	if !FiniteCoords(r.DX, r.DY) {
		logger.Warn("Rejecting scroll event: non-finite delta")
		return
	}
	snap, ok := d.shell.Snapshot()
	if !ok {
		return
	}
	ptr := snap.Seat.Pointer()
	if ptr == nil {
		return
	}
	if err := ptr.Axis(r.DX, r.DY, timeMs); err != nil {
		logger.Errorf("Axis injection failed: %v", err)
		return
	}
	d.frame(ptr)
}

func (d *Dispatcher) touchDown(r protocol.TouchDown, timeMs uint32) {
	if !TouchIDInRange(r.TouchID, d.maxTouchID) {
		logger.Warn("Rejecting touch down: ID out of range", "touch_id", r.TouchID)
		return
	}
	if !FiniteCoords(r.X, r.Y) {
		logger.Warn("Rejecting touch down: non-finite coordinates")
		return
	}
	snap, ok := d.shell.Snapshot()
	if !ok {
		return
	}
	touch := snap.Seat.Touch()
	if touch == nil {
		return
	}
	target := resolveTouch(&snap, r.X, r.Y)
	serial := d.serials.Next()
	if err := touch.Down(r.TouchID, r.X, r.Y, target, serial, timeMs); err != nil {
		logger.Errorf("Touch down injection failed: %v", err)
		return
	}
	d.touchFrame(touch)
}

func (d *Dispatcher) touchMotion(r protocol.TouchMotion, timeMs uint32) {
	if !TouchIDInRange(r.TouchID, d.maxTouchID) {
		logger.Warn("Rejecting touch motion: ID out of range", "touch_id", r.TouchID)
		return
	}
	if !FiniteCoords(r.X, r.Y) {
		logger.Warn("Rejecting touch motion: non-finite coordinates")
		return
	}
	snap, ok := d.shell.Snapshot()
	if !ok {
		return
	}
	touch := snap.Seat.Touch()
	if touch == nil {
		return
	}
	if err := touch.Motion(r.TouchID, r.X, r.Y, timeMs); err != nil {
		logger.Errorf("Touch motion injection failed: %v", err)
		return
	}
	d.touchFrame(touch)
}

func (d *Dispatcher) touchUp(r protocol.TouchUp, timeMs uint32) {
	snap, ok := d.shell.Snapshot()
	if !ok {
		return
	}
	touch := snap.Seat.Touch()
	if touch == nil {
		return
	}
	serial := d.serials.Next()
	if err := touch.Up(r.TouchID, serial, timeMs); err != nil {
		logger.Errorf("Touch up injection failed: %v", err)
		return
	}
	d.touchFrame(touch)
}

func (d *Dispatcher) touchCancel() {
	snap, ok := d.shell.Snapshot()
	if !ok {
		return
	}
	touch := snap.Seat.Touch()
	if touch == nil {
		return
	}
	if err := touch.Cancel(); err != nil {
		logger.Errorf("Touch cancel failed: %v", err)
		return
	}
	d.touchFrame(touch)
}

func (d *Dispatcher) bind(conn *Connection, r protocol.Bind) {
	caps := protocol.DecodeCapabilities(r.Capabilities)
	logger.Debug("Client bound", "client", conn.Name(),
		"capabilities", protocol.CapabilityNames(caps))
	if _, err := conn.addDevice(d.deviceName, caps); err != nil {
		logger.Warnf("Failed to announce virtual device: %v", err)
	}
}

func (d *Dispatcher) frame(ptr compositor.Pointer) {
	if err := ptr.Frame(); err != nil {
		logger.Errorf("Pointer frame commit failed: %v", err)
	}
}

func (d *Dispatcher) touchFrame(touch compositor.Touch) {
	if err := touch.Frame(); err != nil {
		logger.Errorf("Touch frame commit failed: %v", err)
	}
}
