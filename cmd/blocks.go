package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/manav03panchal/timeblock/internal/errors"
	"github.com/manav03panchal/timeblock/internal/model"
	"github.com/manav03panchal/timeblock/internal/parser"
)

// Blocks command flags.
var (
	blocksAddFlagAt   string
	blocksAddFlagDays string

	blocksEditFlagLabel string
	blocksEditFlagAt    string
	blocksEditFlagDays  string

	blocksDeleteFlagForce bool
)

// blocksCmd represents the blocks command.
var blocksCmd = &cobra.Command{
	Use:     "blocks",
	Aliases: []string{"block", "blk", "b"},
	Short:   "List your time blocks",
	Long: `List your time blocks with their schedule and next occurrence.

Examples:
  timeblock blocks
  timeblock blocks add "Stand-up" --at 9:30 --days weekdays
  timeblock blocks show 3f2a
  timeblock blocks rm 3f2a`,
	Args: cobra.NoArgs,
	RunE: runBlocksList,
}

// blocksListCmd is an explicit alias for listing.
var blocksListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List your time blocks",
	Args:    cobra.NoArgs,
	RunE:    runBlocksList,
}

// blocksAddCmd creates a block.
var blocksAddCmd = &cobra.Command{
	Use:     "add [LABEL]",
	Aliases: []string{"new", "create"},
	Short:   "Create a time block and arm its reminders",
	Long: `Create a recurring time block. One weekly reminder is armed per selected day.

Time accepts 24-hour HH:MM or natural phrases like "9:30pm" or "noon".
Days accept codes (sun..sat), full names, or the shortcuts daily, weekdays
and weekends.

Examples:
  timeblock blocks add "Stand-up" --at 09:30 --days mon,tue,wed,thu,fri
  timeblock blocks add Gym --at 6pm --days weekdays
  timeblock blocks add --at 21:00 --days daily`,
	RunE: runBlocksAdd,
}

// blocksShowCmd shows one block.
var blocksShowCmd = &cobra.Command{
	Use:               "show BLOCK_ID",
	Short:             "Show a time block",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeBlockIDs,
	RunE:              runBlocksShow,
}

// blocksEditCmd replaces a block.
var blocksEditCmd = &cobra.Command{
	Use:   "edit BLOCK_ID",
	Short: "Edit a time block",
	Long: `Edit a time block. The block is deleted and created again with the new
values, so it gets a new ID and freshly armed reminders. Values you do not
pass are kept.

Examples:
  timeblock blocks edit 3f2a --at 10:00
  timeblock blocks edit 3f2a --label "Deep work" --days weekdays`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeBlockIDs,
	RunE:              runBlocksEdit,
}

// blocksDeleteCmd deletes a block.
var blocksDeleteCmd = &cobra.Command{
	Use:     "rm BLOCK_ID",
	Aliases: []string{"delete", "remove"},
	Short:   "Delete a time block and cancel its reminders",
	Long: `Delete a time block permanently. On a terminal you are asked to confirm
unless --force is given.

Examples:
  timeblock blocks rm 3f2a
  timeblock blocks rm 3f2a --force`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeBlockIDs,
	RunE:              runBlocksDelete,
}

func init() {
	blocksAddCmd.Flags().StringVarP(&blocksAddFlagAt, "at", "t", "", "Time of day (HH:MM or e.g. 9:30pm)")
	blocksAddCmd.Flags().StringVarP(&blocksAddFlagDays, "days", "d", "", "Days (mon,wed or daily, weekdays, weekends)")
	blocksAddCmd.MarkFlagRequired("at")
	blocksAddCmd.RegisterFlagCompletionFunc("days", completeDays)

	blocksEditCmd.Flags().StringVarP(&blocksEditFlagLabel, "label", "l", "", "New label")
	blocksEditCmd.Flags().StringVarP(&blocksEditFlagAt, "at", "t", "", "New time of day")
	blocksEditCmd.Flags().StringVarP(&blocksEditFlagDays, "days", "d", "", "New days")
	blocksEditCmd.RegisterFlagCompletionFunc("days", completeDays)

	// Long form only to avoid conflict with global -f flag
	blocksDeleteCmd.Flags().BoolVar(&blocksDeleteFlagForce, "force", false, "Skip confirmation prompt")

	blocksCmd.AddCommand(blocksListCmd)
	blocksCmd.AddCommand(blocksAddCmd)
	blocksCmd.AddCommand(blocksShowCmd)
	blocksCmd.AddCommand(blocksEditCmd)
	blocksCmd.AddCommand(blocksDeleteCmd)

	rootCmd.AddCommand(blocksCmd)
}

func runBlocksList(cmd *cobra.Command, args []string) error {
	blocks := ctx.Store.List()
	t := now()

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintBlocks(blocks, t)
	}
	ctx.CLIFormatter().PrintBlocks(blocks, t)
	return nil
}

func runBlocksAdd(cmd *cobra.Command, args []string) error {
	label := strings.Join(args, " ")

	t := now()
	tod, err := parser.ParseClockInput(blocksAddFlagAt, t)
	if err != nil {
		return err
	}
	days, err := parser.ParseWeekdays(blocksAddFlagDays)
	if err != nil {
		return err
	}

	block, err := ctx.Store.Create(cmd.Context(), label, tod, days)
	return reportBlock("created", "Block created", block, err)
}

func runBlocksShow(cmd *cobra.Command, args []string) error {
	block, err := ctx.Store.Find(args[0])
	if err != nil {
		return err
	}
	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintBlock("ok", block, now(), "")
	}
	ctx.CLIFormatter().PrintBlock(block, now())
	return nil
}

func runBlocksEdit(cmd *cobra.Command, args []string) error {
	old, err := ctx.Store.Find(args[0])
	if err != nil {
		return err
	}

	label := old.Label
	if cmd.Flags().Changed("label") {
		label = blocksEditFlagLabel
	}
	tod := old.Time
	if cmd.Flags().Changed("at") {
		if tod, err = parser.ParseClockInput(blocksEditFlagAt, now()); err != nil {
			return err
		}
	}
	days := old.Days
	if cmd.Flags().Changed("days") {
		if days, err = parser.ParseWeekdays(blocksEditFlagDays); err != nil {
			return err
		}
	}

	block, err := ctx.Store.Edit(cmd.Context(), old.ID, label, tod, days)
	return reportBlock("updated", "Block updated", block, err)
}

// reportBlock prints the outcome of a create or edit. A block returned
// together with a storage error exists and is armed but was not saved.
func reportBlock(status, message string, block *model.TimeBlock, err error) error {
	if block == nil {
		return err
	}

	var warning string
	if err != nil {
		warning = "reminders are armed but the block was not saved"
	}

	if ctx.IsJSON() {
		if jerr := ctx.JSONFormatter().PrintBlock(status, block, now(), warning); jerr != nil {
			return jerr
		}
		return err
	}

	cli := ctx.CLIFormatter()
	cli.Success(message)
	cli.PrintBlock(block, now())
	if warning != "" {
		cli.Warning(strings.ToUpper(warning[:1]) + warning[1:])
	}
	return err
}

func runBlocksDelete(cmd *cobra.Command, args []string) error {
	block, err := ctx.Store.Find(args[0])
	if err != nil {
		return err
	}

	// Confirm deletion unless --force is used or nobody can answer
	if !blocksDeleteFlagForce && !ctx.IsJSON() && term.IsTerminal(int(os.Stdin.Fd())) {
		cli := ctx.CLIFormatter()
		cli.PrintBlock(block, now())

		confirmed, err := promptConfirmation(cmd, "Delete this block? (y/N): ")
		if err != nil {
			return err
		}
		if !confirmed {
			cli.Muted("Cancelled")
			return nil
		}
	}

	return reportDeleted(block, ctx.Store.Delete(cmd.Context(), block.ID))
}

// reportDeleted prints the outcome of a delete. In JSON mode errors are left
// to the caller so stdout carries a single JSON document.
func reportDeleted(block *model.TimeBlock, err error) error {
	if err != nil {
		if errors.IsStorageError(err) && !ctx.IsJSON() {
			ctx.CLIFormatter().Warning("Deleted, but the change was not saved")
		}
		return err
	}

	if ctx.IsJSON() {
		return ctx.Formatter.JSON(map[string]string{
			"status":   "deleted",
			"block_id": block.ID,
		})
	}

	ctx.CLIFormatter().Success(fmt.Sprintf("Deleted %s", block.DisplayLabel()))
	return nil
}

// promptConfirmation prompts the user for a yes/no confirmation.
func promptConfirmation(cmd *cobra.Command, prompt string) (bool, error) {
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	response, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && response == "" {
		// Empty input means no
		return false, nil
	}
	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes", nil
}
