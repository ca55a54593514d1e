package cmd

import (
	"github.com/spf13/cobra"

	"github.com/bnema/seatbridge/internal/config"
	"github.com/bnema/seatbridge/internal/logger"
)

var (
	// Version is set during build
	Version = "0.1.0-dev"

	rootCmd = &cobra.Command{
		Use:   "seatbridge",
		Short: "seatbridge - remote input injection bridge",
		Long: `Seatbridge accepts connections from emulated-input clients (such as
remote-desktop portals), validates the event stream against untrusted-input
risks, resolves coordinates against the live display layout, and injects the
events into the local input stack with hardware-equivalent ordering.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Init(); err != nil {
				return err
			}
			if level := config.Get().Logging.LogLevel; level != "" {
				logger.SetLevel(level)
			}
			return nil
		},
	}
)

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s\n" .Version}}`)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
}
