package protocol

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// MaxFrameSize bounds a single wire frame. Input events are tiny; anything
// larger is a malformed or hostile stream.
const MaxFrameSize = 4096

// ErrFrameTooLarge is returned when a frame's length prefix exceeds
// MaxFrameSize.
var ErrFrameTooLarge = errors.New("protocol: frame too large")

// envelope is the JSON wrapper around every message in both directions.
type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Decoder reads length-prefixed request frames from a client stream.
type Decoder struct {
	r io.Reader
}

// NewDecoder creates a decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r}
}

// ReadRequest reads and decodes the next request frame. Unknown request
// types decode to Unknown rather than an error; malformed framing or JSON
// is a protocol error and should tear the connection down.
func (d *Decoder) ReadRequest() (Request, error) {
	var lengthBuf [4]byte
	if _, err := io.ReadFull(d.r, lengthBuf[:]); err != nil {
		return nil, err
	}
	length := binary.BigEndian.Uint32(lengthBuf[:])
	if length == 0 || length > MaxFrameSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, length)
	}

	frame := make([]byte, length)
	if _, err := io.ReadFull(d.r, frame); err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("malformed frame: %w", err)
	}
	return decodeRequest(env)
}

func decodeRequest(env envelope) (Request, error) {
	var req Request
	switch env.Type {
	case "keyboard_key":
		req = &KeyboardKey{}
	case "pointer_motion":
		req = &PointerMotion{}
	case "pointer_motion_absolute":
		req = &PointerMotionAbsolute{}
	case "button":
		req = &Button{}
	case "scroll_delta":
		req = &ScrollDelta{}
	case "touch_down":
		req = &TouchDown{}
	case "touch_motion":
		req = &TouchMotion{}
	case "touch_up":
		req = &TouchUp{}
	case "touch_cancel":
		return TouchCancel{}, nil
	case "bind":
		req = &Bind{}
	case "device_start_emulating":
		req = &DeviceStartEmulating{}
	case "device_stop_emulating":
		return DeviceStopEmulating{}, nil
	case "frame":
		return Frame{}, nil
	case "disconnect":
		return Disconnect{}, nil
	default:
		return Unknown{Type: env.Type}, nil
	}

	if len(env.Payload) > 0 {
		if err := json.Unmarshal(env.Payload, req); err != nil {
			return nil, fmt.Errorf("malformed %s payload: %w", env.Type, err)
		}
	}
	return deref(req), nil
}

// deref returns the value form so the dispatcher can switch without
// pointer cases.
func deref(r Request) Request {
	switch v := r.(type) {
	case *KeyboardKey:
		return *v
	case *PointerMotion:
		return *v
	case *PointerMotionAbsolute:
		return *v
	case *Button:
		return *v
	case *ScrollDelta:
		return *v
	case *TouchDown:
		return *v
	case *TouchMotion:
		return *v
	case *TouchUp:
		return *v
	case *Bind:
		return *v
	case *DeviceStartEmulating:
		return *v
	}
	return r
}

// Encoder writes length-prefixed server messages to a client stream.
type Encoder struct {
	w io.Writer
}

// NewEncoder creates an encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// WriteMessage marshals and frames one server-to-client message.
func (e *Encoder) WriteMessage(msgType string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", msgType, err)
	}
	frame, err := json.Marshal(envelope{Type: msgType, Payload: raw})
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}
	if len(frame) > MaxFrameSize {
		return ErrFrameTooLarge
	}

	var lengthBuf [4]byte
	binary.BigEndian.PutUint32(lengthBuf[:], uint32(len(frame)))
	if _, err := e.w.Write(lengthBuf[:]); err != nil {
		return fmt.Errorf("failed to write length: %w", err)
	}
	if _, err := e.w.Write(frame); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}

	// Force flush if the writer supports it
	if flusher, ok := e.w.(interface{ Flush() error }); ok {
		_ = flusher.Flush()
	}
	return nil
}

// WriteSeatAnnounce advertises the seat and its capability set.
func (e *Encoder) WriteSeatAnnounce(seat string, caps []Capability) error {
	return e.WriteMessage("seat", SeatAnnounce{
		Seat:         seat,
		Capabilities: CapabilityNames(caps),
	})
}

// WriteDeviceAnnounce advertises a virtual device created by a Bind.
func (e *Encoder) WriteDeviceAnnounce(name string, caps []Capability) error {
	return e.WriteMessage("device", DeviceAnnounce{
		Name:         name,
		Kind:         "virtual",
		Capabilities: CapabilityNames(caps),
	})
}
