package bridge

import (
	"net"
	"sync"

	"github.com/bnema/seatbridge/internal/protocol"
)

// maxClientNameLen truncates client identities so a hostile name cannot
// flood the log.
const maxClientNameLen = 128

// VirtualDevice is one emulated input source announced by a connection
// after capability negotiation. It lives until the connection closes.
type VirtualDevice struct {
	Name         string
	Capabilities []protocol.Capability
}

// Connection is one admitted client session: its identity, negotiated
// capabilities and the virtual devices it has bound.
type Connection struct {
	name string
	conn net.Conn
	enc  *protocol.Encoder
	dec  *protocol.Decoder

	mu      sync.Mutex
	devices []*VirtualDevice
	closed  bool
}

func newConnection(conn net.Conn) *Connection {
	name := "<unknown>"
	if addr := conn.RemoteAddr(); addr != nil && addr.String() != "" {
		name = addr.String()
	}
	if len(name) > maxClientNameLen {
		name = name[:maxClientNameLen]
	}
	return &Connection{
		name: name,
		conn: conn,
		enc:  protocol.NewEncoder(conn),
		dec:  protocol.NewDecoder(conn),
	}
}

// Name returns the connection's display identity, length-bounded.
func (c *Connection) Name() string {
	return c.name
}

// announceSeat advertises the seat with the full capability set and flushes.
func (c *Connection) announceSeat(seat string) error {
	return c.enc.WriteSeatAnnounce(seat, protocol.AllCapabilities)
}

// addDevice creates a virtual device with the given capability set and
// announces it to the client.
func (c *Connection) addDevice(name string, caps []protocol.Capability) (*VirtualDevice, error) {
	dev := &VirtualDevice{Name: name, Capabilities: caps}
	c.mu.Lock()
	c.devices = append(c.devices, dev)
	c.mu.Unlock()
	return dev, c.enc.WriteDeviceAnnounce(name, caps)
}

// Devices returns a copy of the connection's virtual devices.
func (c *Connection) Devices() []*VirtualDevice {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*VirtualDevice(nil), c.devices...)
}

// close tears down the socket and drops device state. Safe to call more
// than once; reports whether this call did the teardown.
func (c *Connection) close() bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	c.closed = true
	c.devices = nil
	c.mu.Unlock()
	_ = c.conn.Close()
	return true
}
