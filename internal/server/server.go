// Package server owns the transport edge: listeners that accept raw client
// connections and hand them to the bridge for admission.
package server

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"

	"github.com/bnema/seatbridge/internal/bridge"
	"github.com/bnema/seatbridge/internal/logger"
)

// Server accepts emulated-input client connections on a unix socket.
type Server struct {
	socketPath string
	bridge     *bridge.Bridge
	listener   net.Listener

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a server handing accepted connections to b.
func New(socketPath string, b *bridge.Bridge) *Server {
	return &Server{
		socketPath: socketPath,
		bridge:     b,
		stop:       make(chan struct{}),
	}
}

// Start begins listening. A stale socket file from a previous run is
// removed first.
func (s *Server) Start(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(s.socketPath), 0o755); err != nil {
		return fmt.Errorf("failed to create socket directory: %w", err)
	}
	if err := os.RemoveAll(s.socketPath); err != nil {
		return fmt.Errorf("failed to remove stale socket: %w", err)
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	if err := os.Chmod(s.socketPath, 0o600); err != nil {
		_ = listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}
	s.listener = listener

	s.wg.Add(1)
	go s.acceptLoop()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	logger.Info("Input bridge listening", "socket", s.socketPath)
	return nil
}

// Stop shuts down the listener.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
		if s.listener != nil {
			_ = s.listener.Close()
		}
		s.wg.Wait()
		_ = os.Remove(s.socketPath)
	})
}

// Address returns the listening socket path.
func (s *Server) Address() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.stop:
				return
			default:
				logger.Warnf("Accept failed: %v", err)
				continue
			}
		}
		s.bridge.AddConnection(conn)
	}
}
