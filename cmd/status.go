package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/bnema/seatbridge/internal/ipc"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the running bridge's connections",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := ipc.QueryStatus()
		if err != nil {
			return err
		}

		fmt.Println(titleStyle.Render("seatbridge"))
		fmt.Printf("%s %s\n",
			labelStyle.Render("connections:"),
			valueStyle.Render(fmt.Sprintf("%d / %d", status.Active, status.Limit)))

		if len(status.Connections) == 0 {
			fmt.Println(warnStyle.Render("no clients connected"))
			return nil
		}
		for _, conn := range status.Connections {
			caps := "none"
			if len(conn.Capabilities) > 0 {
				caps = strings.Join(conn.Capabilities, ", ")
			}
			fmt.Printf("  %s %s (%d devices, caps: %s)\n",
				labelStyle.Render("-"),
				valueStyle.Render(conn.Name),
				conn.Devices, caps)
		}
		return nil
	},
}
