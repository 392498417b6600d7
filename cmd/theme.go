package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/timeblock/internal/errors"
	"github.com/manav03panchal/timeblock/internal/output"
	"github.com/manav03panchal/timeblock/internal/theme"
)

// themeCmd represents the theme command.
var themeCmd = &cobra.Command{
	Use:     "theme",
	Aliases: []string{"themes"},
	Short:   "Show or change the color theme",
	Long: `Show or change the color theme used by the CLI and the dashboard.
The choice is stored with your blocks.

Examples:
  timeblock theme
  timeblock theme list
  timeblock theme set velvet
  timeblock theme next`,
	Args: cobra.NoArgs,
	RunE: runThemeShow,
}

var themeListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List available themes",
	Args:    cobra.NoArgs,
	RunE:    runThemeList,
}

var themeShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current theme",
	Args:  cobra.NoArgs,
	RunE:  runThemeShow,
}

var themeSetCmd = &cobra.Command{
	Use:               "set THEME",
	Short:             "Switch to a theme",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeThemes,
	RunE:              runThemeSet,
}

var themeNextCmd = &cobra.Command{
	Use:   "next",
	Short: "Switch to the next theme",
	Args:  cobra.NoArgs,
	RunE:  runThemeNext,
}

func init() {
	themeCmd.AddCommand(themeListCmd)
	themeCmd.AddCommand(themeShowCmd)
	themeCmd.AddCommand(themeSetCmd)
	themeCmd.AddCommand(themeNextCmd)

	rootCmd.AddCommand(themeCmd)
}

func runThemeList(cmd *cobra.Command, args []string) error {
	current := ctx.Themes.Current().Key
	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintThemes(theme.All(), current)
	}
	ctx.CLIFormatter().PrintThemes(theme.All(), current)
	return nil
}

func runThemeShow(cmd *cobra.Command, args []string) error {
	p := ctx.Themes.Current()
	if ctx.IsJSON() {
		return ctx.Formatter.JSON(output.NewThemeOutput(p, p.Key))
	}
	cli := ctx.CLIFormatter()
	cli.Title(p.Name)
	cli.Muted(fmt.Sprintf("key %s, accent %s", p.Key, p.Accent))
	return nil
}

func runThemeSet(cmd *cobra.Command, args []string) error {
	p, err := ctx.Themes.Set(cmd.Context(), args[0])
	return reportTheme(p, err)
}

func runThemeNext(cmd *cobra.Command, args []string) error {
	p, err := ctx.Themes.Cycle(cmd.Context())
	return reportTheme(p, err)
}

// reportTheme prints a theme switch. A storage error means the theme
// applies to this run only.
func reportTheme(p theme.Palette, err error) error {
	if err != nil && !errors.IsStorageError(err) {
		return err
	}
	if ctx.IsJSON() {
		if jerr := ctx.Formatter.JSON(output.NewThemeOutput(p, p.Key)); jerr != nil {
			return jerr
		}
		return err
	}
	// Rebuilt so the message already uses the new palette
	cli := ctx.CLIFormatter()
	cli.Success("Theme: " + p.Name)
	if err != nil {
		cli.Warning("The theme could not be saved and applies to this run only")
	}
	return err
}
