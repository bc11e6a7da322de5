// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/malterlib/buildscan/internal/selection"
)

func newReportCommand(app *App, flags *rootFlagValues) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "report [root]",
		Short: "Render a Markdown summary of a project's build system",
		Long: `Scan a project and render a Markdown summary: one section per generator with
a table of its workspaces and targets, followed by the default selection.

The rendering style follows ui.color_scheme. Use --raw to print the Markdown
source instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.newSession(cmd.Context(), flags, args, sessionOptions{})
			if err != nil {
				return app.fail(cmd, flags, err)
			}
			if err := s.scan(cmd.Context()); err != nil {
				return app.fail(cmd, flags, err)
			}

			md := buildMarkdownReport(s)
			out := cmd.OutOrStdout()
			if raw {
				fmt.Fprint(out, md)
				return nil
			}

			rendered, err := glamour.Render(md, s.cfg.UI.ColorScheme.GlamourStyle())
			if err != nil {
				return app.fail(cmd, flags, fmt.Errorf("render report: %w", err))
			}
			fmt.Fprint(out, rendered)
			return nil
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "print Markdown without rendering")

	return cmd
}

// buildMarkdownReport summarizes the scanned tree of the session root.
func buildMarkdownReport(s *session) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Build system of `%s`\n\n", s.root)
	fmt.Fprintf(&sb, "Digest: `%s`\n", formatDigest(s.scanner.Digest()))

	for _, gen := range s.scanner.Generators(s.root) {
		fmt.Fprintf(&sb, "\n## %s\n\n", gen.Name)
		if gen.GeneratorFamily != "" || gen.OutputDir != "" {
			fmt.Fprintf(&sb, "- Family: %s\n- Output: `%s`\n\n", orDash(gen.GeneratorFamily), orDash(gen.OutputDir))
		}

		sb.WriteString("| Workspace | Target | Configurations |\n")
		sb.WriteString("|---|---|---|\n")
		for _, ws := range s.scanner.Workspaces(gen.Path) {
			targets := s.scanner.Targets(ws.Path)
			if len(targets) == 0 {
				fmt.Fprintf(&sb, "| %s | - | - |\n", ws.Name)
				continue
			}
			for _, t := range targets {
				fmt.Fprintf(&sb, "| %s | %s | %s |\n", ws.Name, t.Name, orDash(strings.Join(t.ConfigurationNames(), ", ")))
			}
		}
	}

	path := selection.AutoSelect(s.scanner, s.root, selection.Hints{})
	sb.WriteString("\n## Defaults\n\n")
	fmt.Fprintf(&sb, "- Generator: %s\n", nameOrDash(path.Generator))
	fmt.Fprintf(&sb, "- Workspace: %s\n", nameOrDash(path.Workspace))
	fmt.Fprintf(&sb, "- Configuration: %s\n", nameOrDash(path.Configuration))
	fmt.Fprintf(&sb, "- Target: %s\n", nameOrDash(path.Target))

	return sb.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// nameOrDash returns the Name of a selected record, or "-" when nothing was
// selected.
func nameOrDash[T interface{ SortName() string }](p *T) string {
	if p == nil {
		return "-"
	}
	return (*p).SortName()
}
