package cmd

import (
	"github.com/spf13/cobra"

	"github.com/manav03panchal/timeblock/internal/tui"
)

// dashboardCmd represents the dashboard command.
var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	Aliases: []string{"dash", "tui"},
	Short:   "Open the interactive TUI dashboard",
	Long: `Open an interactive terminal dashboard of your time blocks.

The dashboard shows:
  - The next upcoming reminder with a live countdown
  - Every block with its weekday strip

Keyboard Controls:
  j/k, ↑/↓ - Move selection
  d        - Delete the selected block (asks to confirm)
  t        - Switch to the next theme
  r        - Refresh
  q        - Quit dashboard

Examples:
  timeblock dashboard
  timeblock tui`,
	Args: cobra.NoArgs,
	RunE: runDashboard,
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}

func runDashboard(cmd *cobra.Command, args []string) error {
	return tui.Run(tui.DashboardConfig{
		Store:  ctx.Store,
		Themes: ctx.Themes,
		Now:    now,
	})
}
