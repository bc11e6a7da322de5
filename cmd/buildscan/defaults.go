// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/malterlib/buildscan/internal/issue"
	"github.com/malterlib/buildscan/internal/selection"
)

type (
	// defaultsReport is the document printed by defaults --format json|toml.
	defaultsReport struct {
		selection.Path
		BuildTarget  string   `json:"buildTarget,omitempty" toml:"build_target,omitempty"`
		DebugTargets []string `json:"debugTargets" toml:"debug_targets"`
	}
)

func newDefaultsCommand(app *App, flags *rootFlagValues) *cobra.Command {
	var (
		hints  selection.Hints
		format string
	)

	cmd := &cobra.Command{
		Use:   "defaults [root]",
		Short: "Show the default generator, workspace, configuration and targets",
		Long: `Pick the default generator of a project, then its default workspace, and
within that workspace the default configuration and target. A level with a
single candidate picks it. Otherwise the name given by the matching flag wins
when it exists, then the highest explicit priority.

The default build target and debug targets come from the workspace-level
configuration that was picked.

Exits with status 2 when no generator can be picked.`,
		Example: `  buildscan defaults
  buildscan defaults --generator Ninja --configuration Debug`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(format); err != nil {
				return app.fail(cmd, flags, err)
			}

			s, err := app.newSession(cmd.Context(), flags, args, sessionOptions{})
			if err != nil {
				return app.fail(cmd, flags, err)
			}
			if err := s.scan(cmd.Context()); err != nil {
				return app.fail(cmd, flags, err)
			}

			report, err := resolveDefaults(s, hints)
			if err != nil {
				return app.fail(cmd, flags, err)
			}

			out := cmd.OutOrStdout()
			switch format {
			case formatJSON:
				err = writeJSON(out, report)
			case formatTOML:
				err = writeTOML(out, report)
			default:
				writeDefaults(out, report)
			}
			return app.fail(cmd, flags, err)
		},
	}

	cmd.Flags().StringVar(&hints.Generator, "generator", "", "preferred generator name")
	cmd.Flags().StringVar(&hints.Workspace, "workspace", "", "preferred workspace name")
	cmd.Flags().StringVar(&hints.Configuration, "configuration", "", "preferred configuration name")
	cmd.Flags().StringVar(&hints.Target, "target", "", "preferred target name")
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "output format: text, json or toml")

	return cmd
}

// resolveDefaults runs the auto-selection for the session root.
func resolveDefaults(s *session, hints selection.Hints) (defaultsReport, error) {
	path := selection.AutoSelect(s.scanner, s.root, hints)
	if path.Generator == nil {
		return defaultsReport{}, &ExitError{
			Code: exitNoDefault,
			Err: issue.NewErrorContext().
				WithOperation("select default generator").
				WithResource(s.root).
				WithIssue(issue.NoDefaultSelectionId).
				WithSuggestion("Pass --generator with one of the scanned generators").
				Wrap(errors.New("no generator has a higher priority than the others")).
				BuildError(),
		}
	}

	report := defaultsReport{Path: path, DebugTargets: []string{}}
	if path.Workspace != nil && path.Configuration != nil {
		if t, ok := selection.DefaultBuildTarget(s.scanner, path.Workspace.Path, path.Configuration.Name); ok {
			report.BuildTarget = t
		}
		report.DebugTargets = selection.DefaultDebugTargets(s.scanner, path.Workspace.Path, path.Configuration.Name)
	}
	s.logger.Debug("defaults resolved", "generator", path.Generator.Name, "buildTarget", report.BuildTarget)
	return report, nil
}

func writeDefaults(w io.Writer, r defaultsReport) {
	none := VerboseStyle.Render("(none)")
	line := func(label, value string) {
		if value == "" {
			value = none
		}
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render(fmt.Sprintf("%-14s", label+":")), value)
	}

	line("Generator", r.Generator.Name)
	if r.Workspace != nil {
		line("Workspace", r.Workspace.Name)
	} else {
		line("Workspace", "")
	}
	if r.Configuration != nil {
		line("Configuration", r.Configuration.Name)
	} else {
		line("Configuration", "")
	}
	if r.Target != nil {
		line("Target", r.Target.Name)
	} else {
		line("Target", "")
	}
	line("Build target", r.BuildTarget)
	line("Debug targets", strings.Join(r.DebugTargets, ", "))
}
