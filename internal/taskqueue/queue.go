// SPDX-License-Identifier: MPL-2.0

// Package taskqueue runs keyed tasks one at a time in FIFO order.
//
// Enqueueing a task that is already waiting is a no-op, so a burst of change
// notifications for the same path collapses into one run. Drain lets a caller
// wait until everything enqueued before it has finished, listeners included.
package taskqueue

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

type (
	// Task identifies one unit of work. Two tasks with the same Kind and Path
	// are the same task for deduplication.
	Task struct {
		Kind string
		Path string
	}

	// Handler performs a task.
	Handler func(ctx context.Context, task Task) error

	// Listener is notified after a task's handler succeeded.
	Listener func(ctx context.Context, task Task) error

	// Option configures a Queue.
	Option func(*Queue)

	// Queue is a single-consumer task queue. The worker goroutine exists only
	// while there is work; an idle queue holds no goroutines.
	Queue struct {
		handler Handler
		ctx     context.Context
		logger  *log.Logger
		metrics *Metrics

		mu        sync.Mutex
		pending   []entry
		queued    map[Task]struct{}
		running   bool
		listeners map[uint64]Listener
		nextID    uint64
	}

	// entry is a task or, when barrier is set, a drain barrier.
	entry struct {
		task    Task
		barrier chan struct{}
	}
)

// String renders a task as kind(path).
func (t Task) String() string {
	return fmt.Sprintf("%s(%s)", t.Kind, t.Path)
}

// WithLogger sets the logger for handler and listener failures.
func WithLogger(logger *log.Logger) Option {
	return func(q *Queue) {
		if logger != nil {
			q.logger = logger
		}
	}
}

// WithMetrics records queue activity in m.
func WithMetrics(m *Metrics) Option {
	return func(q *Queue) {
		q.metrics = m
	}
}

// WithContext sets the context passed to handlers and listeners.
// Default is context.Background().
func WithContext(ctx context.Context) Option {
	return func(q *Queue) {
		if ctx != nil {
			q.ctx = ctx
		}
	}
}

// New creates a Queue that runs handler for every task.
func New(handler Handler, opts ...Option) *Queue {
	q := &Queue{
		handler:   handler,
		ctx:       context.Background(),
		logger:    log.New(io.Discard),
		queued:    make(map[Task]struct{}),
		listeners: make(map[uint64]Listener),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue appends task unless an identical task is still waiting. It reports
// whether the task was added. Enqueue never blocks on task execution.
func (q *Queue) Enqueue(task Task) bool {
	q.mu.Lock()
	if _, dup := q.queued[task]; dup {
		q.mu.Unlock()
		q.metrics.coalesced(task.Kind)
		return false
	}
	q.queued[task] = struct{}{}
	q.pending = append(q.pending, entry{task: task})
	q.startLocked()
	q.mu.Unlock()

	q.metrics.enqueued(task.Kind)
	return true
}

// Drain waits until every task enqueued before the call has finished,
// listeners included. It returns at once when the queue is idle. A cancelled
// ctx abandons the wait only; queued work still runs.
func (q *Queue) Drain(ctx context.Context) error {
	q.mu.Lock()
	if !q.running && len(q.pending) == 0 {
		q.mu.Unlock()
		return nil
	}
	done := make(chan struct{})
	q.pending = append(q.pending, entry{barrier: done})
	q.startLocked()
	q.mu.Unlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("drain task queue: %w", ctx.Err())
	}
}

// OnComplete registers a listener and returns a function that removes it.
func (q *Queue) OnComplete(l Listener) (remove func()) {
	q.mu.Lock()
	defer q.mu.Unlock()

	id := q.nextID
	q.nextID++
	q.listeners[id] = l

	return func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		delete(q.listeners, id)
	}
}

// Idle reports whether no task is running or waiting.
func (q *Queue) Idle() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return !q.running && len(q.pending) == 0
}

// Pending returns the number of waiting tasks, barriers excluded.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.queued)
}

// startLocked starts the worker if it is not running. q.mu must be held.
func (q *Queue) startLocked() {
	if q.running {
		return
	}
	q.running = true
	go q.run()
}

func (q *Queue) run() {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.running = false
			q.mu.Unlock()
			return
		}
		e := q.pending[0]
		q.pending[0] = entry{}
		q.pending = q.pending[1:]
		if e.barrier == nil {
			delete(q.queued, e.task)
		}
		q.mu.Unlock()

		if e.barrier != nil {
			close(e.barrier)
			continue
		}
		q.process(e.task)
	}
}

func (q *Queue) process(task Task) {
	q.metrics.started()
	start := time.Now()

	outcome := q.runHandler(task)
	if outcome == outcomeOK {
		q.notify(task)
	}

	q.metrics.completed(task.Kind, outcome, time.Since(start))
}

func (q *Queue) runHandler(task Task) (outcome string) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("task panicked", "task", task, "panic", r)
			outcome = outcomePanicked
		}
	}()

	if err := q.handler(q.ctx, task); err != nil {
		q.logger.Error("task failed", "task", task, "error", err)
		return outcomeFailed
	}
	return outcomeOK
}

// notify runs every listener concurrently and waits for all of them.
// Listener failures are logged and never reach the other listeners.
func (q *Queue) notify(task Task) {
	q.mu.Lock()
	ids := slices.Sorted(maps.Keys(q.listeners))
	listeners := make([]Listener, 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, q.listeners[id])
	}
	q.mu.Unlock()

	if len(listeners) == 0 {
		return
	}

	var g errgroup.Group
	for _, l := range listeners {
		g.Go(func() error {
			q.callListener(l, task)
			return nil
		})
	}
	_ = g.Wait()
}

func (q *Queue) callListener(l Listener, task Task) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("listener panicked", "task", task, "panic", r)
		}
	}()

	if err := l(q.ctx, task); err != nil {
		q.logger.Warn("listener failed", "task", task, "error", err)
	}
}
