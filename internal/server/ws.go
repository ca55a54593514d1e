package server

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bnema/seatbridge/internal/bridge"
	"github.com/bnema/seatbridge/internal/logger"
)

// WSServer accepts clients over WebSocket, for portal frontends that cannot
// pass a unix socket fd. Binary messages carry the same length-prefixed
// frames as the unix transport; the connection is adapted to net.Conn and
// admitted through the bridge like any other.
type WSServer struct {
	addr     string
	bridge   *bridge.Bridge
	server   *http.Server
	upgrader websocket.Upgrader

	stopOnce sync.Once
}

// NewWSServer creates a WebSocket listener on addr.
func NewWSServer(addr string, b *bridge.Bridge) *WSServer {
	return &WSServer{
		addr:   addr,
		bridge: b,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Start begins serving WebSocket upgrades on /input.
func (s *WSServer) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/input", s.handleUpgrade)
	s.server = &http.Server{Addr: s.addr, Handler: mux}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.Errorf("WebSocket server error: %v", err)
		}
	}()
	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	logger.Info("WebSocket input bridge listening", "addr", s.addr)
	return nil
}

// Stop shuts the HTTP server down.
func (s *WSServer) Stop() {
	s.stopOnce.Do(func() {
		if s.server != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = s.server.Shutdown(shutdownCtx)
		}
	})
}

func (s *WSServer) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warnf("WebSocket upgrade failed: %v", err)
		return
	}
	s.bridge.AddConnection(&wsConn{ws: ws})
}

// wsConn adapts a websocket connection to net.Conn. Reads drain binary
// messages in order; writes emit one binary message per call, which keeps
// each length-prefixed frame intact on the wire.
type wsConn struct {
	ws     *websocket.Conn
	reader io.Reader
	mu     sync.Mutex
}

func (c *wsConn) Read(p []byte) (int, error) {
	for {
		if c.reader == nil {
			msgType, r, err := c.ws.NextReader()
			if err != nil {
				return 0, err
			}
			if msgType != websocket.BinaryMessage {
				continue
			}
			c.reader = r
		}
		n, err := c.reader.Read(p)
		if err == io.EOF {
			c.reader = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (c *wsConn) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ws.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *wsConn) Close() error {
	return c.ws.Close()
}

func (c *wsConn) LocalAddr() net.Addr  { return c.ws.LocalAddr() }
func (c *wsConn) RemoteAddr() net.Addr { return c.ws.RemoteAddr() }

func (c *wsConn) SetDeadline(t time.Time) error {
	if err := c.ws.SetReadDeadline(t); err != nil {
		return err
	}
	return c.ws.SetWriteDeadline(t)
}

func (c *wsConn) SetReadDeadline(t time.Time) error  { return c.ws.SetReadDeadline(t) }
func (c *wsConn) SetWriteDeadline(t time.Time) error { return c.ws.SetWriteDeadline(t) }
