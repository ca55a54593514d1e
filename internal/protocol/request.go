// Package protocol defines the decoded requests exchanged with emulated-input
// clients and the length-prefixed framing that carries them. The bridge core
// only ever sees the decoded forms; framing stays inside this package.
package protocol

// Request is one decoded client request. Variants are plain structs; the
// dispatcher switches on the concrete type.
type Request interface {
	requestName() string
}

// KeyboardKey is a key press or release carrying a raw evdev keycode.
type KeyboardKey struct {
	Key     uint32 `json:"key"`
	Pressed bool   `json:"pressed"`
}

// PointerMotion is a relative pointer movement.
type PointerMotion struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

// PointerMotionAbsolute is an absolute pointer position in global space.
type PointerMotionAbsolute struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Button is a pointer button press or release (evdev button code).
type Button struct {
	Button  uint32 `json:"button"`
	Pressed bool   `json:"pressed"`
}

// ScrollDelta is a two-axis scroll step.
type ScrollDelta struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

// TouchDown starts a touch contact identified by its slot id.
type TouchDown struct {
	TouchID uint32  `json:"touch_id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

// TouchMotion moves an existing touch contact.
type TouchMotion struct {
	TouchID uint32  `json:"touch_id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

// TouchUp ends a touch contact.
type TouchUp struct {
	TouchID uint32 `json:"touch_id"`
}

// TouchCancel aborts the active touch sequence.
type TouchCancel struct{}

// Bind negotiates device capabilities for the connection.
type Bind struct {
	Capabilities uint64 `json:"capabilities"`
}

// DeviceStartEmulating and DeviceStopEmulating bracket an emulation run.
// The bridge acknowledges them but does not forward anything.
type DeviceStartEmulating struct {
	Sequence uint32 `json:"sequence"`
}

type DeviceStopEmulating struct{}

// Frame marks the end of a logical event group on the wire.
type Frame struct{}

// Disconnect is the client's orderly goodbye.
type Disconnect struct{}

// Unknown is any request type this version does not understand. It is
// carried through so the dispatcher can log and ignore it.
type Unknown struct {
	Type string
}

func (KeyboardKey) requestName() string           { return "keyboard_key" }
func (PointerMotion) requestName() string         { return "pointer_motion" }
func (PointerMotionAbsolute) requestName() string { return "pointer_motion_absolute" }
func (Button) requestName() string                { return "button" }
func (ScrollDelta) requestName() string           { return "scroll_delta" }
func (TouchDown) requestName() string             { return "touch_down" }
func (TouchMotion) requestName() string           { return "touch_motion" }
func (TouchUp) requestName() string               { return "touch_up" }
func (TouchCancel) requestName() string           { return "touch_cancel" }
func (Bind) requestName() string                  { return "bind" }
func (DeviceStartEmulating) requestName() string  { return "device_start_emulating" }
func (DeviceStopEmulating) requestName() string   { return "device_stop_emulating" }
func (Frame) requestName() string                 { return "frame" }
func (Disconnect) requestName() string            { return "disconnect" }
func (u Unknown) requestName() string             { return u.Type }

// Name returns the wire name of a request, mainly for logging.
func Name(r Request) string {
	if r == nil {
		return "<nil>"
	}
	return r.requestName()
}

// SeatAnnounce is sent server-to-client after connect, advertising the seat
// and the full capability set available for binding.
type SeatAnnounce struct {
	Seat         string   `json:"seat"`
	Capabilities []string `json:"capabilities"`
}

// DeviceAnnounce is sent server-to-client after a successful Bind.
type DeviceAnnounce struct {
	Name         string   `json:"name"`
	Kind         string   `json:"kind"`
	Capabilities []string `json:"capabilities"`
}
