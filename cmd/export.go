package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/timeblock/internal/errors"
	"github.com/manav03panchal/timeblock/internal/export"
	"github.com/manav03panchal/timeblock/internal/output"
	"github.com/manav03panchal/timeblock/internal/storage"
)

// Export command flags.
var (
	exportFlagFormat   string
	exportFlagOutput   string
	exportFlagName     string
	exportFlagDuration time.Duration
	exportFlagNoAlarm  bool
)

// exportCmd represents the export command.
var exportCmd = &cobra.Command{
	Use:     "export",
	Aliases: []string{"ex", "x", "dump"},
	Short:   "Export time blocks",
	Long: `Export time blocks as an iCalendar file with one weekly event per block,
or as JSON that 'timeblock import' can read back.

Examples:
  timeblock export -o blocks.ics
  timeblock export --duration 1h --no-alarm
  timeblock export --as json -o backup.json`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	// --as because -f/--format is the global output flag
	exportCmd.Flags().StringVar(&exportFlagFormat, "as", "ics", "Export format: ics, json")
	exportCmd.Flags().StringVarP(&exportFlagOutput, "output", "o", "", "Output file (stdout if omitted)")
	exportCmd.Flags().StringVar(&exportFlagName, "name", export.DefaultCalendarOptions().Name, "Calendar name")
	exportCmd.Flags().DurationVar(&exportFlagDuration, "duration", export.DefaultCalendarOptions().Duration, "Event length")
	exportCmd.Flags().BoolVar(&exportFlagNoAlarm, "no-alarm", false, "Omit the reminder alarm")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	var w io.Writer = cmd.OutOrStdout()
	var file *os.File
	if exportFlagOutput != "" {
		if err := storage.CheckDiskSpace(exportFlagOutput); err != nil {
			return err
		}
		f, err := os.Create(exportFlagOutput)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		file = f
		w = f
	}

	blocks := ctx.Store.List()
	var err error
	switch exportFlagFormat {
	case "ics", "ical":
		err = export.WriteCalendar(w, blocks, now(), export.CalendarOptions{
			Name:     exportFlagName,
			Duration: exportFlagDuration,
			Alarm:    !exportFlagNoAlarm,
		})
	case "json":
		f := output.NewFormatter()
		f.Writer = w
		f.Format = output.FormatJSON
		err = f.JSON(output.NewBlocksResponse(blocks, now()))
	default:
		err = errors.NewUserErrorWithField("as", exportFlagFormat,
			"unknown export format", "Use --as ics or --as json.")
	}

	if file != nil {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}
	if err != nil {
		return err
	}

	if file != nil && !ctx.IsJSON() {
		ctx.CLIFormatter().Success(fmt.Sprintf("Exported %d blocks to %s", len(blocks), exportFlagOutput))
	}
	return nil
}
