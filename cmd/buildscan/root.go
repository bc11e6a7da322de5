// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for buildscan.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/malterlib/buildscan/internal/issue"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &rootFlagValues{}

	rootCmd := &cobra.Command{
		Use:   "buildscan",
		Short: "Scan and watch generated build system metadata",
		Long: TitleStyle.Render("buildscan") + SubtitleStyle.Render(" - Scan and watch generated build system metadata") + `

buildscan reads the JSON descriptors a build system generator writes under
BuildSystem/<generator>/ConfigStore and builds the tree of generators,
workspaces, targets and configurations. It keeps the tree current while
files change and picks default selections when asked.

` + SubtitleStyle.Render("Examples:") + `
  buildscan scan                 Print the tree for the current directory
  buildscan scan --format json   Print the tree as JSON
  buildscan defaults             Show the default generator, workspace and targets
  buildscan report               Render a Markdown summary
  buildscan watch                Rescan on change
  buildscan config show          Show current configuration`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default is $HOME/.config/buildscan/config.cue)")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn or error")

	rootCmd.AddCommand(
		newScanCommand(app, flags),
		newDefaultsCommand(app, flags),
		newReportCommand(app, flags),
		newWatchCommand(app, flags),
		newConfigCommand(app, flags),
	)

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute builds the production App and runs the root command.
// This is called by main.main().
func Execute() {
	app, err := NewApp(Dependencies{})
	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+err.Error())
		os.Exit(1)
	}

	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// fail prints err for the user and converts it into an ExitError so fang
// does not print it a second time. Errors that already carry an exit code
// keep it.
func (a *App) fail(cmd *cobra.Command, flags *rootFlagValues, err error) error {
	if err == nil {
		return nil
	}
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	code := 1
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.Code
		if exitErr.Err == nil {
			return err
		}
	}

	stderr := cmd.ErrOrStderr()
	fmt.Fprintln(stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, flags.verbose))

	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		if catalog := ae.CatalogIssue(); catalog != nil {
			if rendered, renderErr := catalog.Render(a.glamourStyle()); renderErr == nil {
				fmt.Fprint(stderr, rendered)
			}
		}
	}

	return &ExitError{Code: code}
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
