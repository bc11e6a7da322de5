// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/malterlib/buildscan/internal/config"
	"github.com/malterlib/buildscan/internal/issue"
	"github.com/malterlib/buildscan/internal/testutil/buildsystemtest"
	"github.com/malterlib/buildscan/pkg/buildsystem"
)

type (
	stubProvider struct {
		cfg *config.Config
		err error
	}

	cliResult struct {
		stdout string
		stderr string
		err    error
	}

	// fixture is a scanned project with two generators. Ninja outranks Xcode
	// and holds one workspace with the targets App and Lib.
	fixture struct {
		tree      *buildsystemtest.Tree
		ninja     string
		xcode     string
		workspace string
		app       string
		lib       string
	}
)

func (p stubProvider) Load(_ context.Context, _ config.LoadOptions) (*config.Config, error) {
	if p.err != nil {
		return nil, p.err
	}
	cfg := *p.cfg
	return &cfg, nil
}

func defaultProvider() stubProvider {
	return stubProvider{cfg: config.DefaultConfig()}
}

func runCLI(t *testing.T, provider ConfigProvider, args ...string) cliResult {
	t.Helper()

	var stdout, stderr bytes.Buffer
	app, err := NewApp(Dependencies{Config: provider, Stdout: &stdout, Stderr: &stderr})
	if err != nil {
		t.Fatalf("NewApp() error: %v", err)
	}

	root := NewRootCommand(app)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err = root.ExecuteContext(t.Context())

	return cliResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	tr := buildsystemtest.New(t)
	f := &fixture{tree: tr}

	f.ninja = tr.Generator("Ninja", buildsystemtest.WithDescriptor(buildsystemtest.JSON{
		"priority":        10,
		"generatorFamily": "Ninja",
		"outputDir":       "/out/ninja",
	}))
	f.xcode = tr.Generator("Xcode", buildsystemtest.WithDescriptor(buildsystemtest.JSON{"priority": 1}))

	f.workspace = tr.Workspace(f.ninja, "Main", buildsystemtest.JSON{})
	tr.WorkspaceConfig(f.workspace, "Debug", buildsystemtest.JSON{
		"platform":              "macOS",
		"architecture":          "arm64",
		"configuration":         "Debug",
		"configurationPriority": 5,
		"defaultBuildTarget":    "App",
	})
	tr.WorkspaceConfig(f.workspace, "Release", buildsystemtest.JSON{
		"platform":              "macOS",
		"architecture":          "arm64",
		"configuration":         "Release",
		"configurationPriority": 1,
	})

	f.app = tr.Target(f.workspace, "App", buildsystemtest.JSON{"priority": 2})
	tr.TargetConfig(f.app, "Debug", buildsystemtest.JSON{
		"platform":      "macOS",
		"architecture":  "arm64",
		"configuration": "Debug",
		"debugPriority": 3,
	})
	tr.TargetConfig(f.app, "Release", buildsystemtest.JSON{
		"platform":      "macOS",
		"architecture":  "arm64",
		"configuration": "Release",
		"debugPriority": 1,
	})

	f.lib = tr.Target(f.workspace, "Lib", buildsystemtest.JSON{})
	tr.TargetConfig(f.lib, "Debug", buildsystemtest.JSON{"debugPriority": 1})

	return f
}

func (f *fixture) addMarker() {
	f.tree.Write(filepath.Join(f.tree.Root, "Project"+buildsystem.ProjectMarkerSuffix), "")
}

func exitCode(t *testing.T, err error) int {
	t.Helper()

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("error = %v (%T), want *ExitError", err, err)
	}
	return exitErr.Code
}

func TestRootCommandHelp(t *testing.T) {
	t.Parallel()

	res := runCLI(t, defaultProvider(), "--help")
	if res.err != nil {
		t.Fatalf("--help error: %v", res.err)
	}
	for _, want := range []string{"scan", "defaults", "report", "watch", "config"} {
		if !strings.Contains(res.stdout, want) {
			t.Errorf("help output missing %q:\n%s", want, res.stdout)
		}
	}
}

func TestRootCommandInvalidLogLevel(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	res := runCLI(t, defaultProvider(), "scan", f.tree.Root, "--log-level", "loud")

	if code := exitCode(t, res.err); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	for _, want := range []string{"failed to apply --log-level", `invalid log level "loud"`} {
		if !strings.Contains(res.stderr, want) {
			t.Errorf("stderr = %q, want %q", res.stderr, want)
		}
	}
}

func TestConfigLoadFailureRendersCatalogIssue(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	loadErr := issue.NewErrorContext().
		WithOperation("load configuration").
		WithResource("/etc/buildscan.cue").
		Wrap(errors.New("syntax error")).
		BuildError()

	res := runCLI(t, stubProvider{err: loadErr}, "scan", f.tree.Root)

	if code := exitCode(t, res.err); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(res.stderr, "failed to load configuration: /etc/buildscan.cue: syntax error") {
		t.Errorf("stderr missing formatted error:\n%s", res.stderr)
	}
	if !strings.Contains(res.stderr, "Failed to load the configuration") {
		t.Errorf("stderr missing catalog guidance:\n%s", res.stderr)
	}
}

func TestVerboseShowsErrorChain(t *testing.T) {
	t.Parallel()

	empty := t.TempDir()
	res := runCLI(t, defaultProvider(), "scan", empty, "--verbose")

	if res.err == nil {
		t.Fatal("scan of empty root succeeded, want error")
	}
	if !strings.Contains(res.stderr, "Error chain:") {
		t.Errorf("verbose stderr missing error chain:\n%s", res.stderr)
	}
}

func TestFormatErrorForDisplay(t *testing.T) {
	t.Parallel()

	plain := errors.New("plain failure")
	actionable := issue.NewErrorContext().
		WithOperation("scan build system").
		WithSuggestion("try again").
		Wrap(plain).
		BuildError()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "plain error", err: plain, want: "plain failure"},
		{name: "actionable error", err: actionable, want: "failed to scan build system: plain failure\n\n  • try again"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := formatErrorForDisplay(tt.err, false); got != tt.want {
				t.Errorf("formatErrorForDisplay() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExitError(t *testing.T) {
	t.Parallel()

	inner := errors.New("inner")
	tests := []struct {
		name string
		err  *ExitError
		want string
	}{
		{name: "with cause", err: &ExitError{Code: 2, Err: inner}, want: "inner"},
		{name: "code only", err: &ExitError{Code: 3}, want: "exit status 3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
			if got := errors.Unwrap(tt.err); got != tt.err.Err {
				t.Errorf("Unwrap() = %v, want %v", got, tt.err.Err)
			}
		})
	}
}

func TestResolveRoot(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "file.txt")
	tr := buildsystemtest.New(t)
	tr.Write(file, "x")

	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{name: "directory", args: []string{dir}},
		{name: "missing", args: []string{filepath.Join(dir, "missing")}, wantErr: true},
		{name: "file", args: []string{file}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := resolveRoot(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Errorf("resolveRoot(%v) = %q, want error", tt.args, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("resolveRoot(%v) error: %v", tt.args, err)
			}
			if !filepath.IsAbs(got) {
				t.Errorf("resolveRoot(%v) = %q, want absolute path", tt.args, got)
			}
		})
	}
}
