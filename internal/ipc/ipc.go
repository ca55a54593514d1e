// Package ipc provides the local status channel: a user-scoped unix socket
// speaking newline-delimited JSON, used by the status command.
package ipc

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bnema/seatbridge/internal/bridge"
	"github.com/bnema/seatbridge/internal/logger"
)

// Message is one IPC request or response.
type Message struct {
	Type   string          `json:"type"`
	Status *StatusResponse `json:"status,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusResponse reports the bridge's admission state and connections.
type StatusResponse struct {
	Active      int                       `json:"active"`
	Limit       int                       `json:"limit"`
	Connections []bridge.ConnectionStatus `json:"connections,omitempty"`
}

// StatusFunc supplies the current status on demand.
type StatusFunc func() StatusResponse

// SocketServer answers status queries over the IPC socket.
type SocketServer struct {
	socketPath string
	status     StatusFunc

	mu       sync.Mutex
	listener net.Listener
	running  bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewSocketServer creates an IPC server at the default socket path.
func NewSocketServer(status StatusFunc) *SocketServer {
	return &SocketServer{
		socketPath: SocketPath(),
		status:     status,
	}
}

// Start starts accepting IPC connections.
func (s *SocketServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.socketPath), 0o755); err != nil {
		return fmt.Errorf("failed to create socket directory: %w", err)
	}
	if err := os.RemoveAll(s.socketPath); err != nil {
		return fmt.Errorf("failed to remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create socket listener: %w", err)
	}
	if err := os.Chmod(s.socketPath, 0o600); err != nil {
		_ = listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.listener = listener
	s.running = true

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go s.acceptConnections(ctx)

	logger.Debug("IPC socket server started", "socket", s.socketPath)
	return nil
}

// Stop stops the server and removes the socket.
func (s *SocketServer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.cancel()
	_ = s.listener.Close()
	s.wg.Wait()
	_ = os.Remove(s.socketPath)
	s.running = false
}

func (s *SocketServer) acceptConnections(ctx context.Context) {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
				logger.Debugf("IPC accept failed: %v", err)
				continue
			}
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(conn)
		}()
	}
}

func (s *SocketServer) handleConnection(conn net.Conn) {
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(5 * time.Second))

	dec := json.NewDecoder(conn)
	enc := json.NewEncoder(conn)

	var msg Message
	if err := dec.Decode(&msg); err != nil {
		return
	}
	switch msg.Type {
	case "status":
		status := s.status()
		_ = enc.Encode(Message{Type: "status_response", Status: &status})
	default:
		_ = enc.Encode(Message{Type: "error", Error: fmt.Sprintf("unknown message type: %s", msg.Type)})
	}
}

// QueryStatus connects to a running bridge's IPC socket and fetches its
// status.
func QueryStatus() (*StatusResponse, error) {
	conn, err := net.DialTimeout("unix", SocketPath(), 2*time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to IPC socket (is the bridge running?): %w", err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(5 * time.Second))

	if err := json.NewEncoder(conn).Encode(Message{Type: "status"}); err != nil {
		return nil, fmt.Errorf("failed to send status query: %w", err)
	}
	var resp Message
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to read status response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("status query rejected: %s", resp.Error)
	}
	if resp.Status == nil {
		return nil, fmt.Errorf("empty status response")
	}
	return resp.Status, nil
}

// SocketPath returns the user-scoped IPC socket path.
func SocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "seatbridge", "ipc.sock")
	}
	return fmt.Sprintf("/tmp/seatbridge-%d/ipc.sock", os.Getuid())
}
