package bridge

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/seatbridge/internal/compositor"
	"github.com/bnema/seatbridge/internal/display"
	"github.com/bnema/seatbridge/internal/protocol"
)

func newTestBridge(t *testing.T, opts Options) (*Bridge, *fakeSeat) {
	t.Helper()
	out := display.Output{Name: "OUT-1", Width: 1920, Height: 1080, Scale: 1.0}
	seat := newFakeSeat(out)
	shell := compositor.NewShell()
	shell.AddOutput(out)
	shell.AddSeat(seat)

	b := New(shell, opts)
	b.Start(context.Background())
	t.Cleanup(b.Stop)
	return b, seat
}

// connect attaches one end of a pipe to the bridge and drains everything
// the bridge sends, recording the message names seen.
func connect(t *testing.T, b *Bridge) (*protocol.Encoder, net.Conn, <-chan string) {
	t.Helper()
	client, server := net.Pipe()
	t.Cleanup(func() { _ = client.Close() })

	received := make(chan string, 16)
	go func() {
		dec := protocol.NewDecoder(client)
		for {
			req, err := dec.ReadRequest()
			if err != nil {
				close(received)
				return
			}
			received <- protocol.Name(req)
		}
	}()

	b.AddConnection(server)
	return protocol.NewEncoder(client), client, received
}

func TestBridge_SeatAnnouncement(t *testing.T) {
	b, _ := newTestBridge(t, Options{})

	_, _, received := connect(t, b)

	select {
	case name := <-received:
		assert.Equal(t, "seat", name)
	case <-time.After(2 * time.Second):
		t.Fatal("no seat announcement received")
	}
}

func TestBridge_RequestInjection(t *testing.T) {
	b, seat := newTestBridge(t, Options{})
	enc, _, _ := connect(t, b)

	require.NoError(t, enc.WriteMessage("keyboard_key", protocol.KeyboardKey{Key: 30, Pressed: true}))

	require.Eventually(t, func() bool {
		return len(seat.recorded()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	call := seat.recorded()[0]
	assert.Equal(t, "key", call.kind)
	assert.Equal(t, uint32(30), call.code)
}

func TestBridge_ConnectionCeiling(t *testing.T) {
	b, _ := newTestBridge(t, Options{MaxConnections: 2})

	_, _, _ = connect(t, b)
	_, _, _ = connect(t, b)

	// Third connection is over the ceiling: the socket is dropped without
	// any protocol-level goodbye.
	client, server := net.Pipe()
	defer client.Close()
	b.AddConnection(server)

	buf := make([]byte, 1)
	_ = client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err := client.Read(buf)
	assert.Error(t, err, "rejected socket should be closed, not serviced")

	active, limit, _ := b.Status()
	assert.Equal(t, 2, active)
	assert.Equal(t, 2, limit)
}

func TestBridge_BindThenDisconnectLeavesNothing(t *testing.T) {
	b, _ := newTestBridge(t, Options{})
	enc, _, _ := connect(t, b)

	mask := protocol.EncodeCapabilities([]protocol.Capability{protocol.CapPointer, protocol.CapKeyboard})
	require.NoError(t, enc.WriteMessage("bind", protocol.Bind{Capabilities: mask}))

	require.Eventually(t, func() bool {
		_, _, conns := b.Status()
		return len(conns) == 1 && conns[0].Devices == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, enc.WriteMessage("disconnect", protocol.Disconnect{}))

	require.Eventually(t, func() bool {
		active, _, conns := b.Status()
		return active == 0 && len(conns) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestBridge_ProtocolErrorTearsDownOnlyThatConnection(t *testing.T) {
	b, seat := newTestBridge(t, Options{})
	good, _, _ := connect(t, b)
	_, badConn, _ := connect(t, b)

	require.Eventually(t, func() bool {
		active, _, _ := b.Status()
		return active == 2
	}, 2*time.Second, 10*time.Millisecond)

	// Oversized length prefix is a framing violation.
	_, err := badConn.Write([]byte{0xFF, 0xFF, 0xFF, 0xFF})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		active, _, _ := b.Status()
		return active == 1
	}, 2*time.Second, 10*time.Millisecond)

	// The surviving connection keeps injecting.
	require.NoError(t, good.WriteMessage("button", protocol.Button{Button: 0x110, Pressed: true}))
	require.Eventually(t, func() bool {
		return len(seat.recorded()) == 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestBridge_ReleasedSlotIsReusable(t *testing.T) {
	b, _ := newTestBridge(t, Options{MaxConnections: 1})
	enc, _, _ := connect(t, b)

	require.NoError(t, enc.WriteMessage("disconnect", protocol.Disconnect{}))
	require.Eventually(t, func() bool {
		active, _, _ := b.Status()
		return active == 0
	}, 2*time.Second, 10*time.Millisecond)

	_, _, received := connect(t, b)
	select {
	case name := <-received:
		assert.Equal(t, "seat", name)
	case <-time.After(2 * time.Second):
		t.Fatal("readmitted connection was not serviced")
	}
}
