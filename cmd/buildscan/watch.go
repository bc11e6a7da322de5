// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/malterlib/buildscan/internal/issue"
	"github.com/malterlib/buildscan/internal/project"
	"github.com/malterlib/buildscan/internal/scanner"
	"github.com/malterlib/buildscan/internal/taskqueue"
	"github.com/malterlib/buildscan/internal/watch"
	"github.com/malterlib/buildscan/pkg/buildsystem"
)

const metricsShutdownTimeout = 5 * time.Second

type (
	// watchSession routes watcher triggers to the project detector and the
	// scanner, and reports scan results.
	watchSession struct {
		root          string
		requireMarker bool
		scanner       *scanner.Scanner
		detector      *project.Detector
		logger        *log.Logger
		out           io.Writer

		// lastDigest is only touched by scanner listeners, which run one at
		// a time on the scan queue.
		lastDigest uint64
	}
)

func newWatchCommand(app *App, flags *rootFlagValues) *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "watch [root]",
		Short: "Rescan a project whenever its build system changes",
		Long: `Scan a project once, then watch it and rescan the affected part of the
hierarchy whenever a descriptor changes. Every finished scan is printed with
the resulting cache digest.

With require_project_marker set, scanning starts only once a *.MBuildSystem
marker is present in the root and stops reacting when it is removed.

Prometheus metrics for the scan and detection queues are served on
--metrics-addr (or metrics.address) under /metrics.`,
		Example: `  buildscan watch
  buildscan watch ~/src/project --metrics-addr :9090`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.fail(cmd, flags, app.runWatch(cmd, flags, args, metricsAddr))
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	return cmd
}

func (a *App) runWatch(cmd *cobra.Command, flags *rootFlagValues, args []string, metricsAddr string) error {
	ctx := cmd.Context()

	s, err := a.newSession(ctx, flags, args, sessionOptions{timestamps: true, metrics: true})
	if err != nil {
		return err
	}
	if metricsAddr == "" {
		metricsAddr = s.cfg.Metrics.Address
	}

	detectorMetrics := taskqueue.NewMetrics("project")
	if err := detectorMetrics.Register(a.Registry); err != nil {
		return fmt.Errorf("register project metrics: %w", err)
	}

	ws := &watchSession{
		root:          s.root,
		requireMarker: s.cfg.RequireProjectMarker,
		scanner:       s.scanner,
		detector: project.New(project.Config{
			Logger:  s.logger,
			Metrics: detectorMetrics,
			Context: ctx,
		}),
		logger: s.logger,
		out:    cmd.OutOrStdout(),
	}
	ws.detector.OnChange(ws.onProjectChange)
	s.scanner.OnScan(ws.onScan)

	if err := ws.start(ctx); err != nil {
		return err
	}

	watcher, err := watch.New(watch.Config{
		Root:     s.root,
		Ignore:   s.cfg.Watch.Ignore,
		Debounce: s.cfg.Watch.Debounce,
		Notifier: ws,
		Logger:   s.logger,
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	if metricsAddr != "" {
		g.Go(func() error {
			return serveMetrics(gctx, metricsAddr, a.Registry, s.logger)
		})
	}
	g.Go(func() error {
		s.logger.Info("watching", "root", s.root)
		if err := watcher.Run(gctx); err != nil {
			return issue.NewErrorContext().
				WithOperation("watch project").
				WithResource(s.root).
				WithIssue(issue.WatchFailedId).
				Wrap(err).
				BuildError()
		}
		return nil
	})
	return g.Wait()
}

// start checks the root for a project marker and runs the initial scan.
func (w *watchSession) start(ctx context.Context) error {
	w.detector.Queue(w.root)
	if err := w.detector.Drain(ctx); err != nil {
		return err
	}
	if w.requireMarker && !w.detector.IsProject(w.root) {
		w.logger.Warn("no project marker, waiting for one", "root", w.root)
		return nil
	}
	w.scanner.QueueBuildSystem(w.root)
	return w.scanner.Drain(ctx)
}

// Notify implements watch.Notifier.
func (w *watchSession) Notify(_ context.Context, t watch.Trigger) {
	if t.Kind == watch.KindProject {
		w.detector.Queue(t.Path)
		return
	}
	if w.requireMarker && !w.detector.IsProject(w.root) {
		w.logger.Debug("ignoring change outside a project", "trigger", t.String())
		return
	}
	w.scanner.Notify(buildsystem.Level(t.Kind), t.Path)
}

func (w *watchSession) onProjectChange(_ context.Context, ch project.Change) error {
	if !ch.Changed {
		return nil
	}
	if ch.IsProject {
		w.logger.Info("project marker found", "root", ch.Root)
		w.scanner.QueueBuildSystem(ch.Root)
		return nil
	}
	w.logger.Info("project marker removed", "root", ch.Root)
	if w.requireMarker {
		w.scanner.Forget(ch.Root)
	}
	return nil
}

func (w *watchSession) onScan(_ context.Context, ev scanner.Event) error {
	digest := w.scanner.Digest()
	changed := digest != w.lastDigest
	w.lastDigest = digest

	w.logger.Debug("scan finished", "event", ev.String(), "changed", changed)
	marker := VerboseStyle.Render("=")
	if changed {
		marker = VerboseHighlightStyle.Render("→")
	}
	fmt.Fprintf(w.out, "%s %s %s\n", marker, ev.Level.Event(), VerboseStyle.Render(ev.Path+" "+formatDigest(digest)))
	return nil
}

// serveMetrics serves reg on addr until ctx is done.
func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, logger *log.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving metrics", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), metricsShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shut down metrics server: %w", err)
		}
		return nil
	}
}
