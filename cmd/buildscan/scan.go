// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/malterlib/buildscan/internal/issue"
	"github.com/malterlib/buildscan/pkg/buildsystem"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatTOML = "toml"
)

type (
	// scanReport is the document printed by scan --format json|toml.
	scanReport struct {
		Root       string          `json:"root" toml:"root"`
		Digest     string          `json:"digest" toml:"digest"`
		Generators []generatorNode `json:"generators" toml:"generators"`
	}

	generatorNode struct {
		buildsystem.Generator
		Workspaces []workspaceNode `json:"workspaces" toml:"workspaces"`
	}

	workspaceNode struct {
		buildsystem.Workspace
		Targets []buildsystem.Target `json:"targets" toml:"targets"`
	}
)

func newScanCommand(app *App, flags *rootFlagValues) *cobra.Command {
	var (
		format     string
		digestOnly bool
	)

	cmd := &cobra.Command{
		Use:   "scan [root]",
		Short: "Scan a project and print its build system tree",
		Long: `Scan the BuildSystem directory of a project root and print the generators,
workspaces, targets and configurations found there.

The root defaults to the current directory.`,
		Example: `  buildscan scan
  buildscan scan ~/src/project --format json
  buildscan scan --digest`,
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

			out := cmd.OutOrStdout()
			if digestOnly {
				fmt.Fprintln(out, formatDigest(s.scanner.Digest()))
				return nil
			}

			report := buildScanReport(s)
			switch format {
			case formatJSON:
				err = writeJSON(out, report)
			case formatTOML:
				err = writeTOML(out, report)
			default:
				writeTree(out, report)
			}
			return app.fail(cmd, flags, err)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatText, "output format: text, json or toml")
	cmd.Flags().BoolVar(&digestOnly, "digest", false, "print only the cache digest")

	return cmd
}

func validateFormat(format string) error {
	switch format {
	case formatText, formatJSON, formatTOML:
		return nil
	default:
		ae := issue.NewActionableError("select output format")
		ae.Cause = fmt.Errorf("unknown format %q", format)
		ae.Suggestions = []string{"Use --format text, json or toml"}
		return ae
	}
}

func formatDigest(d uint64) string {
	return fmt.Sprintf("%016x", d)
}

// buildScanReport collects the scanned tree in display order.
func buildScanReport(s *session) scanReport {
	report := scanReport{
		Root:       s.root,
		Digest:     formatDigest(s.scanner.Digest()),
		Generators: []generatorNode{},
	}
	for _, gen := range s.scanner.Generators(s.root) {
		gn := generatorNode{Generator: gen, Workspaces: []workspaceNode{}}
		for _, ws := range s.scanner.Workspaces(gen.Path) {
			gn.Workspaces = append(gn.Workspaces, workspaceNode{
				Workspace: ws,
				Targets:   s.scanner.Targets(ws.Path),
			})
		}
		report.Generators = append(report.Generators, gn)
	}
	return report
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

func writeTOML(w io.Writer, v any) error {
	enc := toml.NewEncoder(w)
	enc.SetIndentTables(true)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode toml: %w", err)
	}
	return nil
}

// writeTree prints the report as an indented tree.
func writeTree(w io.Writer, report scanReport) {
	fmt.Fprintln(w, TitleStyle.Render(report.Root))
	fmt.Fprintln(w, SubtitleStyle.Render("digest "+report.Digest))

	for _, gen := range report.Generators {
		fmt.Fprintf(w, "%s%s\n", treeGeneratorStyle.Render(gen.Name), details(priorityDetail(gen.Priority), gen.GeneratorFamily))
		for _, ws := range gen.Workspaces {
			fmt.Fprintf(w, "  %s%s\n", treeWorkspaceStyle.Render(ws.Name), details(priorityDetail(ws.Priority)))
			for _, t := range ws.Targets {
				fmt.Fprintf(w, "    %s%s\n", treeTargetStyle.Render(t.Name), details(priorityDetail(t.Priority)))
				for _, name := range t.ConfigurationNames() {
					c := t.Configurations[name]
					fmt.Fprintf(w, "      %s%s\n", treeConfigStyle.Render(c.Name),
						details(platformDetail(c.Platform, c.Architecture, c.Configuration)))
				}
			}
		}
	}
}

// details renders non-empty parts as a muted parenthesized suffix.
func details(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return ""
	}
	return " " + treeDetailStyle.Render("("+strings.Join(kept, ", ")+")")
}

func priorityDetail(p *int) string {
	if p == nil {
		return ""
	}
	return fmt.Sprintf("priority %d", *p)
}

func platformDetail(platform, arch, configuration string) string {
	return strings.Join(strings.Fields(platform+" "+arch+" "+configuration), " ")
}
