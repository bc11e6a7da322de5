// SPDX-License-Identifier: MPL-2.0

// Package project detects which roots are build-system projects.
//
// A root is a project when it directly contains an entry whose name ends in
// ".MBuildSystem". Detection runs on its own serialized task queue, so bursts
// of marker changes collapse into one check per root.
package project

import (
	"context"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/malterlib/buildscan/internal/taskqueue"
	"github.com/malterlib/buildscan/pkg/buildsystem"
)

// TaskKind is the queue task kind for a root check.
const TaskKind = "folder"

type (
	// Change reports the detection result for one root after a check.
	Change struct {
		Root      string
		IsProject bool
		// Changed is true when the root entered or left the project set.
		Changed bool
	}

	// Listener receives detection results.
	Listener func(ctx context.Context, ch Change) error

	// Config configures a Detector.
	Config struct {
		// Logger receives detection diagnostics. Nil discards them.
		Logger *log.Logger
		// Metrics records queue activity when set.
		Metrics *taskqueue.Metrics
		// Context is passed to listeners. Default is context.Background().
		Context context.Context
	}

	// Detector tracks project roots.
	Detector struct {
		projects *xsync.MapOf[string, struct{}]
		queue    *taskqueue.Queue
		logger   *log.Logger

		// last holds the most recent check per root for listeners. Forget
		// removes the entry.
		last *xsync.MapOf[string, checkResult]
	}

	checkResult struct {
		isProject bool
		changed   bool
	}
)

// New creates a Detector with no known projects.
func New(cfg Config) *Detector {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	d := &Detector{
		projects: xsync.NewMapOf[string, struct{}](),
		logger:   logger,
		last:     xsync.NewMapOf[string, checkResult](),
	}
	d.queue = taskqueue.New(d.check,
		taskqueue.WithLogger(logger),
		taskqueue.WithMetrics(cfg.Metrics),
		taskqueue.WithContext(cfg.Context),
	)
	return d
}

// Queue schedules a check of root.
func (d *Detector) Queue(root string) bool {
	return d.queue.Enqueue(taskqueue.Task{Kind: TaskKind, Path: root})
}

// Forget drops root without checking it, as when the root is no longer of
// interest.
func (d *Detector) Forget(root string) {
	d.projects.Delete(root)
	d.last.Delete(root)
}

// IsProject reports whether root was a project at its last check.
func (d *Detector) IsProject(root string) bool {
	_, ok := d.projects.Load(root)
	return ok
}

// Projects returns every known project root in sorted order.
func (d *Detector) Projects() []string {
	roots := make([]string, 0, d.projects.Size())
	d.projects.Range(func(root string, _ struct{}) bool {
		roots = append(roots, root)
		return true
	})
	slices.Sort(roots)
	return roots
}

// Drain waits until every check queued before the call has finished and its
// listeners returned.
func (d *Detector) Drain(ctx context.Context) error {
	return d.queue.Drain(ctx)
}

// OnChange registers a listener called after every check.
func (d *Detector) OnChange(l Listener) (remove func()) {
	return d.queue.OnComplete(func(ctx context.Context, task taskqueue.Task) error {
		res, _ := d.last.Load(task.Path)
		return l(ctx, Change{Root: task.Path, IsProject: res.isProject, Changed: res.changed})
	})
}

func (d *Detector) check(_ context.Context, task taskqueue.Task) error {
	root := task.Path
	isProject := HasMarker(root)

	d.last.Store(root, checkResult{isProject: isProject, changed: d.IsProject(root) != isProject})

	if isProject {
		d.projects.Store(root, struct{}{})
	} else {
		d.projects.Delete(root)
	}
	d.logger.Debug("checked project root", "root", root, "project", isProject)
	return nil
}

// HasMarker reports whether dir directly contains a project marker. An
// unreadable directory has none.
func HasMarker(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	return slices.ContainsFunc(entries, func(e os.DirEntry) bool {
		return strings.HasSuffix(e.Name(), buildsystem.ProjectMarkerSuffix)
	})
}
