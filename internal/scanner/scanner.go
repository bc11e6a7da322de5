// SPDX-License-Identifier: MPL-2.0

// Package scanner discovers the build-system hierarchy on disk and keeps the
// cache up to date.
//
// All scanning runs on one task queue. A scan at some level rescans every
// level below it within the same task and stores the children before the
// parent, so listeners and readers never see a fresh parent with stale
// children. Queries read the cache only and never touch the filesystem.
package scanner

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/malterlib/buildscan/internal/cache"
	"github.com/malterlib/buildscan/internal/taskqueue"
	"github.com/malterlib/buildscan/pkg/buildsystem"
	"github.com/malterlib/buildscan/pkg/descriptor"
)

// forgetKind is the task kind that drops a root from the cache. It never
// reaches scan listeners.
const forgetKind = "forget"

type (
	// Event is delivered to scan listeners after a level scan finished and
	// every descendant entry was refreshed.
	Event struct {
		Level buildsystem.Level
		Path  string
	}

	// Listener receives scan events.
	Listener func(ctx context.Context, ev Event) error

	// Config configures a Scanner.
	Config struct {
		// Reader loads descriptors. Nil creates a reader with the default cache size.
		Reader *descriptor.Reader
		// Logger receives scan diagnostics. Nil discards them.
		Logger *log.Logger
		// Metrics records queue activity when set.
		Metrics *taskqueue.Metrics
		// Context is passed to scans and listeners. Default is context.Background().
		Context context.Context
	}

	// Scanner owns the cache and the scan queue for any number of project roots.
	Scanner struct {
		store  *cache.Store
		reader *descriptor.Reader
		queue  *taskqueue.Queue
		logger *log.Logger
	}
)

// New creates a Scanner with an empty cache.
func New(cfg Config) (*Scanner, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	reader := cfg.Reader
	if reader == nil {
		var err error
		reader, err = descriptor.NewReader(descriptor.Config{
			CacheSize: descriptor.DefaultCacheSize,
			Logger:    logger,
		})
		if err != nil {
			return nil, err
		}
	}

	s := &Scanner{
		store:  cache.New(),
		reader: reader,
		logger: logger,
	}
	s.queue = taskqueue.New(s.handle,
		taskqueue.WithLogger(logger),
		taskqueue.WithMetrics(cfg.Metrics),
		taskqueue.WithContext(cfg.Context),
	)
	return s, nil
}

// String renders an event as level(path).
func (e Event) String() string {
	return fmt.Sprintf("%s(%s)", e.Level, e.Path)
}

// QueueBuildSystem schedules a full rescan of a project root.
func (s *Scanner) QueueBuildSystem(root string) bool {
	return s.Notify(buildsystem.LevelBuildSystem, root)
}

// QueueWorkspaces schedules a rescan of a generator's workspaces.
func (s *Scanner) QueueWorkspaces(generatorPath string) bool {
	return s.Notify(buildsystem.LevelWorkspaces, generatorPath)
}

// QueueTargets schedules a rescan of a workspace's targets.
func (s *Scanner) QueueTargets(workspacePath string) bool {
	return s.Notify(buildsystem.LevelTargets, workspacePath)
}

// QueueConfigurations schedules a rescan of a target's configurations.
func (s *Scanner) QueueConfigurations(targetPath string) bool {
	return s.Notify(buildsystem.LevelConfigurations, targetPath)
}

// Notify schedules a rescan of path at level. It reports whether a new task
// was queued; false means an identical rescan is already waiting or the
// level is unknown.
func (s *Scanner) Notify(level buildsystem.Level, path string) bool {
	if err := level.Validate(); err != nil {
		s.logger.Warn("ignoring change notification", "path", path, "error", err)
		return false
	}
	return s.queue.Enqueue(taskqueue.Task{Kind: level.String(), Path: path})
}

// Forget schedules removal of root and everything cached below it. It
// reports whether a new task was queued.
func (s *Scanner) Forget(root string) bool {
	return s.queue.Enqueue(taskqueue.Task{Kind: forgetKind, Path: root})
}

// Drain waits until every rescan queued before the call has finished and its
// listeners returned.
func (s *Scanner) Drain(ctx context.Context) error {
	return s.queue.Drain(ctx)
}

// Idle reports whether no rescan is running or waiting.
func (s *Scanner) Idle() bool {
	return s.queue.Idle()
}

// OnScan registers a listener for scan events.
func (s *Scanner) OnScan(l Listener) (remove func()) {
	return s.queue.OnComplete(func(ctx context.Context, task taskqueue.Task) error {
		if task.Kind == forgetKind {
			return nil
		}
		return l(ctx, Event{Level: buildsystem.Level(task.Kind), Path: task.Path})
	})
}

func (s *Scanner) handle(_ context.Context, task taskqueue.Task) error {
	if task.Kind == forgetKind {
		s.forgetRoot(task.Path)
		return nil
	}
	level := buildsystem.Level(task.Kind)
	switch level {
	case buildsystem.LevelBuildSystem:
		s.scanBuildSystem(task.Path)
	case buildsystem.LevelWorkspaces:
		s.scanWorkspaces(task.Path)
	case buildsystem.LevelTargets:
		s.scanTargets(task.Path)
	case buildsystem.LevelConfigurations:
		s.scanConfigurations(task.Path)
	default:
		return level.Validate()
	}
	return nil
}
