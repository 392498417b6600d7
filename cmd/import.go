package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/timeblock/internal/errors"
	"github.com/manav03panchal/timeblock/internal/model"
	"github.com/manav03panchal/timeblock/internal/output"
	"github.com/manav03panchal/timeblock/internal/parser"
)

// Import command flags.
var (
	importFlagDryRun bool
	importFlagForce  bool
)

// importCmd represents the import command.
var importCmd = &cobra.Command{
	Use:     "import FILE",
	Aliases: []string{"imp", "restore"},
	Short:   "Import time blocks from a JSON export",
	Long: `Import time blocks written by 'timeblock export --as json'. Each block is
created anew, with a new ID and freshly armed reminders. Blocks that match an
existing one (same label, time and days) are skipped unless --force is given.

Examples:
  timeblock import backup.json
  timeblock import backup.json --dry-run
  timeblock import backup.json --force`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().BoolVar(&importFlagDryRun, "dry-run", false, "Preview import without making changes")
	importCmd.Flags().BoolVar(&importFlagForce, "force", false, "Import duplicates too")

	rootCmd.AddCommand(importCmd)
}

// ImportResult summarizes an import.
type ImportResult struct {
	Status   string   `json:"status"`
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
	DryRun   bool     `json:"dry_run"`
}

func runImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var backup output.BlocksResponse
	if err := json.Unmarshal(data, &backup); err != nil {
		return errors.NewUserErrorWithField("file", args[0], "not a timeblock JSON export",
			"Create one with 'timeblock export --as json -o FILE'.")
	}

	existing := make(map[string]bool)
	for _, b := range ctx.Store.List() {
		existing[blockSignature(b.Label, b.Time, b.Days)] = true
	}

	result := ImportResult{Status: "ok", DryRun: importFlagDryRun}
	for i, in := range backup.Blocks {
		tod, err := parser.ParseClock(in.Time)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("block %d: %v", i+1, err))
			continue
		}
		days, err := parser.ParseWeekdayCodes(in.Days)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("block %d: %v", i+1, err))
			continue
		}

		sig := blockSignature(in.Label, tod, days)
		if existing[sig] && !importFlagForce {
			result.Skipped++
			continue
		}
		existing[sig] = true

		if importFlagDryRun {
			result.Imported++
			continue
		}
		if _, err := ctx.Store.Create(cmd.Context(), in.Label, tod, days); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("block %d: %v", i+1, err))
			if errors.IsPermissionError(err) || errors.IsStorageError(err) {
				break
			}
			continue
		}
		result.Imported++
	}
	if len(result.Errors) > 0 {
		result.Status = "partial"
	}

	if ctx.IsJSON() {
		return ctx.Formatter.JSON(result)
	}

	cli := ctx.CLIFormatter()
	verb := "Imported"
	if importFlagDryRun {
		verb = "Would import"
	}
	cli.Success(fmt.Sprintf("%s %d blocks", verb, result.Imported))
	if result.Skipped > 0 {
		cli.Muted(fmt.Sprintf("Skipped %d duplicates (use --force to import them)", result.Skipped))
	}
	for _, e := range result.Errors {
		cli.Warning(e)
	}
	return nil
}

func blockSignature(label string, t model.TimeOfDay, days model.WeekdaySet) string {
	return fmt.Sprintf("%s|%s|%d", label, t, days)
}
