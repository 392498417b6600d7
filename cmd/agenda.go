package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/timeblock/internal/export"
	"github.com/manav03panchal/timeblock/internal/validate"
)

// maxAgendaDays bounds the agenda window.
const maxAgendaDays = 62

// Agenda command flags.
var agendaFlagDays int

// agendaCmd lists upcoming occurrences.
var agendaCmd = &cobra.Command{
	Use:     "agenda",
	Aliases: []string{"next", "upcoming", "today"},
	Short:   "Show upcoming reminders",
	Long: `Show every occurrence of your time blocks in the coming days, grouped by day.

Examples:
  timeblock agenda
  timeblock agenda --days 1
  timeblock agenda --days 14 -f json`,
	Args: cobra.NoArgs,
	RunE: runAgenda,
}

func init() {
	agendaCmd.Flags().IntVarP(&agendaFlagDays, "days", "d", 7, "Number of days to show")
	rootCmd.AddCommand(agendaCmd)
}

func runAgenda(cmd *cobra.Command, args []string) error {
	if err := validate.InRange("--days", agendaFlagDays, 1, maxAgendaDays); err != nil {
		return err
	}

	from := now()
	to := from.Add(time.Duration(agendaFlagDays) * 24 * time.Hour)
	entries, err := export.Upcoming(ctx.Store.List(), from, to)
	if err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintAgenda(entries, from, to)
	}
	ctx.CLIFormatter().PrintAgenda(entries)
	return nil
}
