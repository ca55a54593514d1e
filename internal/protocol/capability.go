package protocol

// Capability is one input capability a virtual device can declare.
type Capability uint8

const (
	CapPointer Capability = iota
	CapPointerAbsolute
	CapKeyboard
	CapTouch
	CapScroll
	CapButton
)

// AllCapabilities lists every capability this bridge understands, in bit
// order.
var AllCapabilities = []Capability{
	CapPointer,
	CapPointerAbsolute,
	CapKeyboard,
	CapTouch,
	CapScroll,
	CapButton,
}

func (c Capability) String() string {
	switch c {
	case CapPointer:
		return "pointer"
	case CapPointerAbsolute:
		return "pointer_absolute"
	case CapKeyboard:
		return "keyboard"
	case CapTouch:
		return "touch"
	case CapScroll:
		return "scroll"
	case CapButton:
		return "button"
	}
	return "unknown"
}

// capabilityBit returns the wire bitmask for a capability. The protocol
// assigns capability n to bit n+1, so the mask is 2 << n rather than 1 << n.
func capabilityBit(c Capability) uint64 {
	return 2 << uint64(c)
}

// DecodeCapabilities extracts the known capabilities present in a wire
// bitmask. Unknown bits are ignored, not rejected, so newer clients keep
// working against this server.
func DecodeCapabilities(mask uint64) []Capability {
	var caps []Capability
	for _, c := range AllCapabilities {
		if mask&capabilityBit(c) != 0 {
			caps = append(caps, c)
		}
	}
	return caps
}

// EncodeCapabilities builds the wire bitmask for a capability list.
func EncodeCapabilities(caps []Capability) uint64 {
	var mask uint64
	for _, c := range caps {
		mask |= capabilityBit(c)
	}
	return mask
}

// CapabilityNames renders a capability list as wire strings for
// announcements and status output.
func CapabilityNames(caps []Capability) []string {
	names := make([]string, len(caps))
	for i, c := range caps {
		names[i] = c.String()
	}
	return names
}
