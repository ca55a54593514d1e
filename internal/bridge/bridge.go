// Package bridge is the core of the remote input injection path: it admits
// client connections, validates and sanitizes their decoded requests, and
// translates them into compositor injection calls on a single dispatch
// loop.
package bridge

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"

	"github.com/bnema/seatbridge/internal/compositor"
	"github.com/bnema/seatbridge/internal/logger"
	"github.com/bnema/seatbridge/internal/protocol"
)

// Options configures a Bridge. Zero fields take the reference defaults.
type Options struct {
	MaxConnections int    // connection ceiling, default 8
	SeatName       string // announced seat name, default "seat0"
	MaxKeycode     uint32 // evdev code ceiling, default 0x2FF
	MaxTouchID     uint32 // touch slot ceiling, default 256
}

// DefaultMaxConnections is the reference connection ceiling.
const DefaultMaxConnections = 8

// sourceEvent is one notification from a connection source: either the
// connected handshake, a decoded request, or a terminal error.
type sourceEvent struct {
	conn      *Connection
	req       protocol.Request
	err       error
	connected bool
}

// Bridge multiplexes all admitted connections onto one dispatch goroutine.
// A request is processed to completion (validation, resolution, injection,
// frame commit) before the next one is looked at, so gestures from one
// connection are never interleaved mid-request with another's.
type Bridge struct {
	seatName   string
	admission  *AdmissionController
	dispatcher *Dispatcher

	events chan sourceEvent

	mu    sync.Mutex
	conns map[*Connection]struct{}

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a bridge injecting into the given shell.
func New(shell *compositor.Shell, opts Options) *Bridge {
	if opts.MaxConnections == 0 {
		opts.MaxConnections = DefaultMaxConnections
	}
	if opts.SeatName == "" {
		opts.SeatName = "seat0"
	}
	return &Bridge{
		seatName:   opts.SeatName,
		admission:  NewAdmissionController(opts.MaxConnections),
		dispatcher: NewDispatcher(shell, opts.MaxKeycode, opts.MaxTouchID),
		events:     make(chan sourceEvent),
		conns:      make(map[*Connection]struct{}),
		stop:       make(chan struct{}),
	}
}

// Start runs the dispatch loop until ctx is done or Stop is called.
func (b *Bridge) Start(ctx context.Context) {
	b.wg.Add(1)
	go b.dispatchLoop(ctx)
}

// Stop tears down every connection and stops the dispatch loop.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		close(b.stop)
		b.mu.Lock()
		for conn := range b.conns {
			conn.close()
		}
		b.mu.Unlock()
		b.wg.Wait()
	})
}

// AddConnection admits a raw client connection. Over the ceiling the socket
// is dropped without a protocol-level goodbye; the rejection is only
// visible in the log. Admission failures never affect other connections.
func (b *Bridge) AddConnection(raw net.Conn) {
	if raw == nil {
		logger.Error("Rejecting connection: nil handle")
		return
	}
	if err := b.admission.TryAdmit(); err != nil {
		logger.Warn("Rejecting connection: limit reached",
			"active", b.admission.Active(), "max", b.admission.Limit())
		_ = raw.Close()
		return
	}
	logger.Info("Accepting client connection", "active", b.admission.Active())

	conn := newConnection(raw)
	b.mu.Lock()
	b.conns[conn] = struct{}{}
	b.mu.Unlock()

	b.wg.Add(1)
	go b.readLoop(conn)
}

// readLoop feeds one connection's decoded requests into the dispatch loop.
// It only reads and decodes; all processing happens on the loop goroutine.
func (b *Bridge) readLoop(conn *Connection) {
	defer b.wg.Done()

	if !b.post(sourceEvent{conn: conn, connected: true}) {
		b.teardown(conn)
		return
	}
	for {
		req, err := conn.dec.ReadRequest()
		if err != nil {
			b.post(sourceEvent{conn: conn, err: err})
			return
		}
		if !b.post(sourceEvent{conn: conn, req: req}) {
			return
		}
	}
}

func (b *Bridge) post(ev sourceEvent) bool {
	select {
	case b.events <- ev:
		return true
	case <-b.stop:
		return false
	}
}

func (b *Bridge) dispatchLoop(ctx context.Context) {
	defer b.wg.Done()
	for {
		select {
		case <-b.stop:
			return
		case <-ctx.Done():
			return
		case ev := <-b.events:
			b.handle(ev)
		}
	}
}

func (b *Bridge) handle(ev sourceEvent) {
	switch {
	case ev.connected:
		logger.Debug("Client connected", "client", ev.conn.Name())
		if err := ev.conn.announceSeat(b.seatName); err != nil {
			logger.Warnf("Failed to flush seat announcement: %v", err)
		}
	case ev.err != nil:
		if !errors.Is(ev.err, io.EOF) && !errors.Is(ev.err, net.ErrClosed) {
			logger.Warnf("Protocol error: %v", ev.err)
		}
		b.teardown(ev.conn)
	default:
		if b.dispatcher.Dispatch(ev.conn, ev.req) {
			b.teardown(ev.conn)
		}
	}
}

// teardown closes a connection and releases its admission slot exactly
// once, even when a disconnect request races the reader's EOF.
func (b *Bridge) teardown(conn *Connection) {
	if !conn.close() {
		return
	}
	b.mu.Lock()
	delete(b.conns, conn)
	b.mu.Unlock()
	b.admission.Release()
	logger.Debug("Connection torn down",
		"client", conn.Name(), "active", b.admission.Active())
}

// ConnectionStatus is a point-in-time view of one connection for the
// status IPC.
type ConnectionStatus struct {
	Name         string   `json:"name"`
	Capabilities []string `json:"capabilities"`
	Devices      int      `json:"devices"`
}

// Status reports the admission state and per-connection summaries.
func (b *Bridge) Status() (active, limit int, conns []ConnectionStatus) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for conn := range b.conns {
		var caps []string
		devices := conn.Devices()
		for _, dev := range devices {
			caps = append(caps, protocol.CapabilityNames(dev.Capabilities)...)
		}
		conns = append(conns, ConnectionStatus{
			Name:         conn.Name(),
			Capabilities: caps,
			Devices:      len(devices),
		})
	}
	return b.admission.Active(), b.admission.Limit(), conns
}
