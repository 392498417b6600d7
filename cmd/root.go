// Package cmd provides the CLI commands for Timeblock.
//
// This software is a derivative work based on Zeit (https://github.com/mrusme/zeit)
// Original work copyright (c) マリウス (mrusme)
// Modifications copyright (c) Manav Panchal
//
// Licensed under the SEGV License, Version 1.0
// See LICENSE file for full license text.
package cmd

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/timeblock/internal/config"
	"github.com/manav03panchal/timeblock/internal/logging"
	"github.com/manav03panchal/timeblock/internal/output"
	"github.com/manav03panchal/timeblock/internal/runtime"
	"github.com/manav03panchal/timeblock/internal/theme"
)

// Version information (set at build time via ldflags).
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Global flags.
var (
	flagFormat string
	flagColor  string
	flagDebug  bool
	flagConfig string
)

// ctx is the shared runtime context.
var ctx *runtime.Context

// noRuntime marks commands that must not open the database, either because
// they only touch files or because a running daemon may hold the lock.
const noRuntime = "no-runtime"

// now is the clock used by commands.
var now = time.Now

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "timeblock",
	Short: "Recurring time-block reminders",
	Long: `Timeblock lets you define recurring time blocks (a label, a time of day and
a set of weekdays) and reminds you at every occurrence.

Examples:
  timeblock blocks add "Stand-up" --at 9:30 --days weekdays
  timeblock blocks
  timeblock agenda
  timeblock daemon start
  timeblock dashboard`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		initLogging()

		// Skip initialization for completion and help commands (but allow __complete for dynamic completions)
		if cmd.Name() == "completion" || cmd.Name() == "help" || skipsRuntime(cmd) {
			return nil
		}
		if err := openRuntime(); err != nil {
			return err
		}
		ctx.Formatter.Writer = cmd.OutOrStdout()
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeRuntime()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: show the block list
		return runBlocksList(cmd, args)
	},
}

// Execute runs the root command and prints any error.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		var f *output.Formatter
		if ctx != nil {
			f = ctx.Formatter
		} else {
			f = newFormatter()
		}
		runtime.PrintError(f, rootCmd.ErrOrStderr(), err)
		closeRuntime()
	}
	return err
}

// ExitCode maps an error returned by Execute to a process exit status.
func ExitCode(err error) int {
	return runtime.ExitCode(err)
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&flagFormat, "format", "f", "cli",
		"Output format: cli, json, plain")
	rootCmd.PersistentFlags().StringVar(&flagColor, "color", "auto",
		"Color output: auto, always, never")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false,
		"Enable debug output")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "",
		"Config file (default "+config.DefaultPath()+")")

	rootCmd.AddCommand(versionCmd)
}

// versionCmd shows version information.
var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Print version information",
	Annotations: map[string]string{noRuntime: "true"},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("timeblock %s\n", Version)
		cmd.Printf("  commit: %s\n", Commit)
		cmd.Printf("  built: %s\n", BuildTime)
		cmd.Println("")
		cmd.Println("Based on Zeit (https://github.com/mrusme/zeit)")
		cmd.Println("Licensed under SEGV License v1.0")
	},
}

func skipsRuntime(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[noRuntime] == "true" {
			return true
		}
	}
	return false
}

func initLogging() {
	if flagDebug {
		logging.Init(logging.DebugConfig())
		return
	}
	logging.Init(logging.DefaultConfig())
}

func outputFormat() output.Format {
	switch flagFormat {
	case "json":
		return output.FormatJSON
	case "plain":
		return output.FormatPlain
	default:
		return output.FormatCLI
	}
}

func colorMode() output.ColorMode {
	switch flagColor {
	case "always":
		return output.ColorAlways
	case "never":
		return output.ColorNever
	default:
		return output.ColorAuto
	}
}

// newFormatter builds a formatter for commands that run without a runtime.
func newFormatter() *output.Formatter {
	f := output.NewFormatter()
	f.Writer = rootCmd.OutOrStdout()
	f.Format = outputFormat()
	f.ColorMode = colorMode()
	return f
}

func configPath() string {
	if flagConfig != "" {
		return flagConfig
	}
	if p := os.Getenv("TIMEBLOCK_CONFIG"); p != "" {
		return p
	}
	return config.DefaultPath()
}

// openRuntime creates the shared runtime context once.
func openRuntime() error {
	if ctx != nil {
		return nil
	}
	opts := runtime.DefaultOptions()
	opts.ConfigPath = configPath()
	opts.Format = outputFormat()
	opts.ColorMode = colorMode()
	opts.Debug = flagDebug

	c, err := runtime.New(opts)
	if err != nil {
		return err
	}
	ctx = c
	return nil
}

func closeRuntime() error {
	if ctx == nil {
		return nil
	}
	err := ctx.Close()
	ctx = nil
	return err
}

// defaultCLI wraps f in the default palette for commands that run without a
// runtime and so cannot read the stored theme.
func defaultCLI(f *output.Formatter) *output.CLIFormatter {
	p, _ := theme.Get(theme.Default)
	return output.NewCLIFormatter(f, p)
}
