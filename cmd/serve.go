package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bnema/seatbridge/internal/bridge"
	"github.com/bnema/seatbridge/internal/compositor"
	"github.com/bnema/seatbridge/internal/config"
	"github.com/bnema/seatbridge/internal/display"
	"github.com/bnema/seatbridge/internal/ipc"
	"github.com/bnema/seatbridge/internal/logger"
	"github.com/bnema/seatbridge/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the input bridge",
	Long: `Starts the bridge: listens for emulated-input clients on the unix
socket (and optionally WebSocket), and injects their events through a
virtual seat backed by uinput.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func runServe() error {
	cfg := config.Get()

	shell := compositor.NewShell()
	var active display.Output
	for i, oc := range cfg.Outputs {
		out := display.Output{
			Name:   oc.Name,
			X:      oc.X,
			Y:      oc.Y,
			Width:  oc.Width,
			Height: oc.Height,
			Scale:  oc.Scale,
		}
		if out.Scale == 0 {
			out.Scale = 1.0
		}
		shell.AddOutput(out)
		if i == 0 {
			active = out
		}
		logger.Debug("Registered output", "name", out.Name,
			"geometry", fmt.Sprintf("%dx%d+%d+%d", out.Width, out.Height, out.X, out.Y))
	}

	seat, err := compositor.NewUinputSeat(cfg.Bridge.SeatName, active)
	if err != nil {
		return fmt.Errorf("failed to create virtual seat (is /dev/uinput accessible?): %w", err)
	}
	defer seat.Close()
	shell.AddSeat(seat)

	b := bridge.New(shell, bridge.Options{
		MaxConnections: cfg.Bridge.MaxConnections,
		SeatName:       cfg.Bridge.SeatName,
		MaxKeycode:     cfg.Bridge.MaxKeycode,
		MaxTouchID:     cfg.Bridge.MaxTouchID,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	b.Start(ctx)
	defer b.Stop()

	srv := server.New(cfg.SocketPath(), b)
	if err := srv.Start(ctx); err != nil {
		return err
	}
	defer srv.Stop()

	if cfg.Server.WSAddress != "" {
		ws := server.NewWSServer(cfg.Server.WSAddress, b)
		if err := ws.Start(ctx); err != nil {
			return err
		}
		defer ws.Stop()
	}

	ipcServer := ipc.NewSocketServer(func() ipc.StatusResponse {
		active, limit, conns := b.Status()
		return ipc.StatusResponse{Active: active, Limit: limit, Connections: conns}
	})
	if err := ipcServer.Start(); err != nil {
		logger.Warnf("IPC server unavailable: %v", err)
	} else {
		defer ipcServer.Stop()
	}

	logger.Info("Bridge running", "seat", cfg.Bridge.SeatName,
		"max_connections", cfg.Bridge.MaxConnections)
	<-ctx.Done()
	logger.Info("Shutting down")
	return nil
}
