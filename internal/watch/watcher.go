// SPDX-License-Identifier: MPL-2.0

// Package watch turns filesystem events under a project root into scan
// triggers.
//
// The watcher observes the root itself (non-recursively, for project markers
// and the BuildSystem directory) and every directory below BuildSystem. Each
// event is classified by its path relative to the root into a Trigger naming
// the level to rescan and the directory to rescan it at. Triggers collected
// during the debounce window are delivered together, one Notify call each.
package watch

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/malterlib/buildscan/pkg/buildsystem"
)

// KindProject is the trigger kind asking for a project marker check of the root.
const KindProject = "folder"

const defaultDebounce = 200 * time.Millisecond

var (
	// ErrInvalidWatchConfig is the sentinel wrapped by InvalidWatchConfigError.
	ErrInvalidWatchConfig = errors.New("invalid watch config")

	// ErrAlreadyRunning is returned when Run is called on a running Watcher.
	ErrAlreadyRunning = errors.New("watcher is already running")

	defaultIgnores = []string{
		"**/.git/**",
		"**/.DS_Store",
		"**/*.swp",
		"**/*.swx",
		"**/*~",
		"**/.#*",
		"**/#*#",
		"**/*.tmp",
	}

	// rules are tried in order; the first match decides. depth is the number
	// of leading path elements, after the root, that make up the trigger path.
	rules = []rule{
		{pattern: "*" + buildsystem.ProjectMarkerSuffix, kind: KindProject},
		{pattern: "BuildSystem", kind: string(buildsystem.LevelBuildSystem)},
		{pattern: "BuildSystem/*", kind: string(buildsystem.LevelBuildSystem)},
		{pattern: "BuildSystem/*/ConfigStore", kind: string(buildsystem.LevelBuildSystem)},
		{pattern: "BuildSystem/*/ConfigStore/{Generator.json,BuildTarget.sh,BuildWorkspace.sh}", kind: string(buildsystem.LevelBuildSystem)},
		{pattern: "BuildSystem/*/ConfigStore/*", kind: string(buildsystem.LevelWorkspaces), depth: 2},
		{pattern: "BuildSystem/*/ConfigStore/*/Workspace.json", kind: string(buildsystem.LevelWorkspaces), depth: 2},
		{pattern: "BuildSystem/*/ConfigStore/*/Configs", kind: string(buildsystem.LevelWorkspaces), depth: 2},
		{pattern: "BuildSystem/*/ConfigStore/*/Configs/**", kind: string(buildsystem.LevelWorkspaces), depth: 2},
		{pattern: "BuildSystem/*/ConfigStore/*/Targets", kind: string(buildsystem.LevelTargets), depth: 4},
		{pattern: "BuildSystem/*/ConfigStore/*/Targets/*", kind: string(buildsystem.LevelTargets), depth: 4},
		{pattern: "BuildSystem/*/ConfigStore/*/Targets/*/Configs", kind: string(buildsystem.LevelTargets), depth: 4},
		{pattern: "BuildSystem/*/ConfigStore/*/Targets/*/Configs/*", kind: string(buildsystem.LevelTargets), depth: 4},
	}

	kindOrder = []string{
		KindProject,
		string(buildsystem.LevelBuildSystem),
		string(buildsystem.LevelWorkspaces),
		string(buildsystem.LevelTargets),
		string(buildsystem.LevelConfigurations),
	}
)

type (
	// Trigger asks for a rescan. Kind is KindProject or a buildsystem.Level.
	Trigger struct {
		Kind string
		Path string
	}

	// Notifier receives the triggers of one debounce window.
	Notifier interface {
		Notify(ctx context.Context, t Trigger)
	}

	// NotifierFunc adapts a function to Notifier.
	NotifierFunc func(ctx context.Context, t Trigger)

	// Config configures a Watcher.
	Config struct {
		// Root is the project root to watch.
		Root string
		// Ignore holds extra doublestar patterns, relative to Root, whose
		// events are dropped. DefaultIgnores always apply.
		Ignore []string
		// Debounce is the quiet period before pending triggers are flushed.
		// Zero means 200ms.
		Debounce time.Duration
		// Notifier receives the triggers. Required for Run.
		Notifier Notifier
		// Logger receives watcher diagnostics. Nil discards them.
		Logger *log.Logger
	}

	// InvalidWatchConfigError lists every problem found by Config.Validate.
	InvalidWatchConfigError struct {
		FieldErrors []error
	}

	// Watcher watches one project root.
	Watcher struct {
		cfg     Config
		ignores []string
		logger  *log.Logger

		mu      sync.Mutex
		running bool
	}

	rule struct {
		pattern string
		kind    string
		depth   int
	}
)

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, t Trigger) {
	f(ctx, t)
}

// String returns "kind:path".
func (t Trigger) String() string {
	return t.Kind + ":" + t.Path
}

// Error implements the error interface.
func (e *InvalidWatchConfigError) Error() string {
	msgs := make([]string, 0, len(e.FieldErrors))
	for _, err := range e.FieldErrors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("invalid watch config: %d field error(s): %s", len(e.FieldErrors), strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidWatchConfig for errors.Is() compatibility.
func (e *InvalidWatchConfigError) Unwrap() error {
	return ErrInvalidWatchConfig
}

// Validate checks the root and ignore patterns. A zero Config is valid.
func (c Config) Validate() error {
	var errs []error
	if c.Root != "" && strings.TrimSpace(c.Root) == "" {
		errs = append(errs, errors.New("root: must not be blank"))
	}
	if c.Debounce < 0 {
		errs = append(errs, fmt.Errorf("debounce: must not be negative, got %s", c.Debounce))
	}
	for i, p := range c.Ignore {
		switch {
		case p == "":
			errs = append(errs, fmt.Errorf("ignore[%d]: empty pattern", i))
		case !doublestar.ValidatePattern(p):
			errs = append(errs, fmt.Errorf("ignore[%d]: invalid pattern %q", i, p))
		}
	}
	if len(errs) > 0 {
		return &InvalidWatchConfigError{FieldErrors: errs}
	}
	return nil
}

// DefaultIgnores returns a copy of the patterns that are always ignored.
func DefaultIgnores() []string {
	return slices.Clone(defaultIgnores)
}

// Classify maps a slash-separated path relative to root to the trigger it
// causes. ok is false for paths no scan depends on.
func Classify(root, rel string) (Trigger, bool) {
	rel = filepath.ToSlash(rel)
	for _, r := range rules {
		if matched, err := doublestar.Match(r.pattern, rel); err != nil || !matched {
			continue
		}
		path := root
		if r.depth > 0 {
			parts := strings.Split(rel, "/")
			path = filepath.Join(append([]string{root}, parts[:r.depth]...)...)
		}
		return Trigger{Kind: r.kind, Path: path}, true
	}
	return Trigger{}, false
}

// New validates cfg and returns a Watcher for cfg.Root. An empty Root means
// the working directory.
func New(cfg Config) (*Watcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolve working directory: %w", err)
		}
		cfg.Root = wd
	}
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %s: %w", cfg.Root, err)
	}
	cfg.Root = root
	if cfg.Debounce == 0 {
		cfg.Debounce = defaultDebounce
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &Watcher{
		cfg:     cfg,
		ignores: append(DefaultIgnores(), cfg.Ignore...),
		logger:  logger,
	}, nil
}

// Root returns the absolute root being watched.
func (w *Watcher) Root() string {
	return w.cfg.Root
}

// Run watches until ctx is cancelled, which returns nil, or a fatal watcher
// error occurs. Pending triggers are dropped on return.
func (w *Watcher) Run(ctx context.Context) error {
	if w.cfg.Notifier == nil {
		return &InvalidWatchConfigError{FieldErrors: []error{errors.New("notifier: required")}}
	}

	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return ErrAlreadyRunning
	}
	w.running = true
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.cfg.Root); err != nil {
		return fmt.Errorf("watch %s: %w", w.cfg.Root, err)
	}
	if err := w.addTree(fsw, buildsystem.BuildSystemPath(w.cfg.Root)); err != nil {
		return err
	}
	w.logger.Debug("watching", "root", w.cfg.Root, "watches", len(fsw.WatchList()))

	var (
		mu      sync.Mutex
		pending = make(map[Trigger]struct{})
		timer   *time.Timer
	)

	flush := func() {
		mu.Lock()
		batch := make([]Trigger, 0, len(pending))
		for t := range pending {
			batch = append(batch, t)
		}
		clear(pending)
		mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		sortTriggers(batch)
		for _, t := range batch {
			w.logger.Debug("trigger", "kind", t.Kind, "path", t.Path)
			w.cfg.Notifier.Notify(ctx, t)
		}
	}

	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename|fsnotify.Write) == 0 {
				continue
			}
			rel, relErr := filepath.Rel(w.cfg.Root, ev.Name)
			if relErr != nil || w.isIgnored(rel) {
				continue
			}
			if ev.Op&fsnotify.Create != 0 {
				w.maybeAddDir(fsw, ev.Name, rel)
			}
			t, matched := Classify(w.cfg.Root, rel)
			if !matched {
				continue
			}

			mu.Lock()
			pending[t] = struct{}{}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.cfg.Debounce, flush)
			mu.Unlock()

		case werr, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			if isFatalFsnotifyError(werr) {
				return fmt.Errorf("file watcher failed: %w", werr)
			}
			w.logger.Warn("watcher error", "err", werr)
		}
	}
}

// addTree watches dir and every directory below it. A missing dir is fine;
// its creation shows up as an event on the parent.
func (w *Watcher) addTree(fsw *fsnotify.Watcher, dir string) error {
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			w.logger.Debug("skipping unreadable path", "path", path, "err", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if rel, relErr := filepath.Rel(w.cfg.Root, path); relErr == nil && w.isIgnored(rel) {
			return fs.SkipDir
		}
		if addErr := fsw.Add(path); addErr != nil {
			if isFatalFsnotifyError(addErr) {
				return fmt.Errorf("watch %s: %w", path, addErr)
			}
			w.logger.Warn("cannot watch directory", "path", path, "err", addErr)
		}
		return nil
	})
	if errors.Is(err, fs.SkipAll) {
		return nil
	}
	return err
}

// maybeAddDir starts watching a directory created inside BuildSystem, along
// with anything created inside it before the watch was in place.
func (w *Watcher) maybeAddDir(fsw *fsnotify.Watcher, path, rel string) {
	rel = filepath.ToSlash(rel)
	if rel != buildsystem.BuildSystemDir && !strings.HasPrefix(rel, buildsystem.BuildSystemDir+"/") {
		return
	}
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	if err := w.addTree(fsw, path); err != nil {
		w.logger.Warn("cannot watch new directory", "path", path, "err", err)
	}
}

func (w *Watcher) isIgnored(rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, p := range w.ignores {
		if matched, err := doublestar.Match(p, rel); err == nil && matched {
			return true
		}
	}
	return false
}

// sortTriggers orders triggers from the outermost level inwards, then by path.
func sortTriggers(ts []Trigger) {
	slices.SortFunc(ts, func(a, b Trigger) int {
		return cmp.Or(
			cmp.Compare(slices.Index(kindOrder, a.Kind), slices.Index(kindOrder, b.Kind)),
			strings.Compare(a.Path, b.Path),
		)
	})
}
