// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/malterlib/buildscan/internal/config"
	"github.com/malterlib/buildscan/internal/issue"
	"github.com/malterlib/buildscan/internal/logging"
	"github.com/malterlib/buildscan/internal/project"
	"github.com/malterlib/buildscan/internal/scanner"
	"github.com/malterlib/buildscan/internal/taskqueue"
	"github.com/malterlib/buildscan/pkg/descriptor"
)

type (
	// App wires CLI services and shared dependencies. Every command handler
	// receives the App and reaches configuration and output through it.
	App struct {
		Config   ConfigProvider
		Registry *prometheus.Registry
		stdout   io.Writer
		stderr   io.Writer

		// colorScheme is set once configuration has loaded.
		colorScheme config.ColorScheme
	}

	// Dependencies defines the injection points for building an App. Nil fields are
	// replaced with production defaults by NewApp.
	Dependencies struct {
		Config   ConfigProvider
		Registry *prometheus.Registry
		Stdout   io.Writer
		Stderr   io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// rootFlagValues holds the persistent flags shared by every command.
	rootFlagValues struct {
		configPath string
		verbose    bool
		logLevel   string
	}

	// session is the per-command state: effective configuration, logger and
	// a scanner for one project root.
	session struct {
		root    string
		cfg     *config.Config
		logger  *log.Logger
		scanner *scanner.Scanner
	}

	sessionOptions struct {
		// timestamps adds times to log lines, for long-running commands.
		timestamps bool
		// metrics registers scan queue collectors with the App registry.
		metrics bool
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) (*App, error) {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Registry == nil {
		deps.Registry = prometheus.NewRegistry()
	}

	return &App{
		Config:   deps.Config,
		Registry: deps.Registry,
		stdout:   deps.Stdout,
		stderr:   deps.Stderr,
	}, nil
}

// loadConfig loads configuration for the --config flag and applies flag
// overrides.
func (a *App) loadConfig(ctx context.Context, flags *rootFlagValues) (*config.Config, error) {
	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: flags.configPath})
	if err != nil {
		var ae *issue.ActionableError
		if errors.As(err, &ae) && ae.Issue == 0 {
			ae.Issue = issue.ConfigLoadFailedId
		}
		return nil, err
	}

	if flags.verbose {
		cfg.UI.Verbose = true
	}
	if flags.logLevel != "" {
		level := config.LogLevel(flags.logLevel)
		if valid, errs := level.IsValid(); !valid {
			return nil, issue.WrapWithOperation(errs[0], "apply --log-level")
		}
		cfg.LogLevel = level
	}
	a.colorScheme = cfg.UI.ColorScheme
	return cfg, nil
}

// glamourStyle returns the Markdown style for the loaded color scheme.
func (a *App) glamourStyle() string {
	return a.colorScheme.GlamourStyle()
}

func (a *App) newLogger(cfg *config.Config, timestamps bool) *log.Logger {
	return logging.New(a.stderr, logging.Options{
		Level:      cfg.LogLevel.Level(),
		Verbose:    cfg.UI.Verbose,
		Timestamps: timestamps,
	})
}

// newSession resolves root, loads configuration and creates a scanner.
func (a *App) newSession(ctx context.Context, flags *rootFlagValues, args []string, opts sessionOptions) (*session, error) {
	root, err := resolveRoot(args)
	if err != nil {
		return nil, err
	}

	cfg, err := a.loadConfig(ctx, flags)
	if err != nil {
		return nil, err
	}
	logger := a.newLogger(cfg, opts.timestamps)

	reader, err := descriptor.NewReader(descriptor.Config{
		CacheSize: cfg.DescriptorCacheSize,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create descriptor reader: %w", err)
	}

	var metrics *taskqueue.Metrics
	if opts.metrics {
		metrics = taskqueue.NewMetrics("scanner")
		if err := metrics.Register(a.Registry); err != nil {
			return nil, fmt.Errorf("register scanner metrics: %w", err)
		}
	}

	sc, err := scanner.New(scanner.Config{
		Reader:  reader,
		Logger:  logger,
		Metrics: metrics,
		Context: ctx,
	})
	if err != nil {
		return nil, err
	}

	return &session{root: root, cfg: cfg, logger: logger, scanner: sc}, nil
}

// scan runs a full BuildSystem scan of the session root and waits for it.
// A root without generators is an error.
func (s *session) scan(ctx context.Context) error {
	if s.cfg.RequireProjectMarker && !project.HasMarker(s.root) {
		return issue.NewErrorContext().
			WithOperation("scan build system").
			WithResource(s.root).
			WithIssue(issue.BuildSystemNotFoundId).
			WithSuggestions(
				"Add a *.MBuildSystem marker to the project root",
				"Or set require_project_marker: false in the configuration",
			).
			Wrap(errors.New("no project marker")).
			BuildError()
	}

	s.scanner.QueueBuildSystem(s.root)
	if err := s.scanner.Drain(ctx); err != nil {
		return err
	}

	if len(s.scanner.Generators(s.root)) == 0 {
		return issue.NewErrorContext().
			WithOperation("scan build system").
			WithResource(s.root).
			WithIssue(issue.BuildSystemNotFoundId).
			WithSuggestions(
				"Generate the build system for this project first",
				"Pass the project root as the first argument",
			).
			Wrap(errors.New("no generators found")).
			BuildError()
	}
	s.logger.Debug("scan complete", "root", s.root, "generators", len(s.scanner.Generators(s.root)))
	return nil
}

// resolveRoot returns the absolute project root from the optional argument.
func resolveRoot(args []string) (string, error) {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve root %s: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", issue.WrapWithContext(err, "open project root", abs)
	}
	if !info.IsDir() {
		return "", issue.WrapWithContext(errors.New("not a directory"), "open project root", abs)
	}
	return abs, nil
}
