package cmd

import (
	"github.com/spf13/cobra"
)

// serveCmd runs the daemon in the foreground together with the HTTP API.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the daemon and HTTP API in the foreground",
	Long: `Run the reminder daemon in the foreground and serve the block API on
api.listen (default 127.0.0.1:8787). While it runs it holds the database, so
use the API or stop it before running other commands.

Endpoints:
  GET    /health
  GET    /blocks
  POST   /blocks
  GET    /blocks/:id
  PUT    /blocks/:id
  DELETE /blocks/:id
  GET    /agenda?days=7
  GET    /calendar.ics

Examples:
  timeblock serve
  TIMEBLOCK_API_LISTEN=:8080 timeblock serve`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{noRuntime: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDaemonForeground(cmd, true)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
