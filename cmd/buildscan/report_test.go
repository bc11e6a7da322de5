// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"strings"
	"testing"
)

func TestReportRaw(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	res := runCLI(t, defaultProvider(), "report", f.tree.Root, "--raw")
	if res.err != nil {
		t.Fatalf("report error: %v\nstderr: %s", res.err, res.stderr)
	}

	for _, want := range []string{
		"# Build system of `" + f.tree.Root + "`",
		"## Ninja",
		"- Family: Ninja",
		"- Output: `/out/ninja`",
		"| Main | App | Debug, Release |",
		"| Main | Lib | Debug |",
		"## Xcode",
		"- Generator: Ninja",
		"- Workspace: Main",
		"- Configuration: Debug",
		"- Target: App",
	} {
		if !strings.Contains(res.stdout, want) {
			t.Errorf("report missing %q:\n%s", want, res.stdout)
		}
	}
}

func TestReportRendered(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	res := runCLI(t, defaultProvider(), "report", f.tree.Root)
	if res.err != nil {
		t.Fatalf("report error: %v\nstderr: %s", res.err, res.stderr)
	}

	for _, want := range []string{"Ninja", "Main", "Defaults"} {
		if !strings.Contains(res.stdout, want) {
			t.Errorf("rendered report missing %q:\n%s", want, res.stdout)
		}
	}
}

func TestOrDash(t *testing.T) {
	t.Parallel()

	if got := orDash(""); got != "-" {
		t.Errorf(`orDash("") = %q, want "-"`, got)
	}
	if got := orDash("x"); got != "x" {
		t.Errorf(`orDash("x") = %q, want "x"`, got)
	}
}
