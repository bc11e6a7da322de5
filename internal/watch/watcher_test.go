// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/malterlib/buildscan/pkg/buildsystem"
)

type recorder struct {
	mu       sync.Mutex
	triggers []Trigger
	signal   chan struct{}
}

func newRecorder() *recorder {
	return &recorder{signal: make(chan struct{}, 64)}
}

func (r *recorder) Notify(_ context.Context, t Trigger) {
	r.mu.Lock()
	r.triggers = append(r.triggers, t)
	r.mu.Unlock()
	select {
	case r.signal <- struct{}{}:
	default:
	}
}

func (r *recorder) snapshot() []Trigger {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.triggers)
}

// waitFor blocks until want has been notified or the deadline passes.
func (r *recorder) waitFor(t *testing.T, want Trigger) {
	t.Helper()

	deadline := time.After(5 * time.Second)
	for {
		if slices.Contains(r.snapshot(), want) {
			return
		}
		select {
		case <-r.signal:
		case <-deadline:
			t.Fatalf("trigger %v not notified, got %v", want, r.snapshot())
		}
	}
}

func startWatcher(t *testing.T, cfg Config) {
	t.Helper()

	w, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		if err := <-errCh; err != nil {
			t.Errorf("Run() error: %v", err)
		}
	})
	// Let Run install its watches before the test touches the tree.
	time.Sleep(100 * time.Millisecond)
}

func mkdir(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatal(err)
	}
}

func write(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	root := filepath.FromSlash("/p")
	gen := filepath.Join(root, "BuildSystem", "Ninja")
	ws := filepath.Join(gen, "ConfigStore", "Main")

	tests := []struct {
		rel  string
		want Trigger
		ok   bool
	}{
		{rel: "Malterlib.MBuildSystem", want: Trigger{KindProject, root}, ok: true},
		{rel: "BuildSystem", want: Trigger{string(buildsystem.LevelBuildSystem), root}, ok: true},
		{rel: "BuildSystem/Ninja", want: Trigger{string(buildsystem.LevelBuildSystem), root}, ok: true},
		{rel: "BuildSystem/Ninja/ConfigStore", want: Trigger{string(buildsystem.LevelBuildSystem), root}, ok: true},
		{rel: "BuildSystem/Ninja/ConfigStore/Generator.json", want: Trigger{string(buildsystem.LevelBuildSystem), root}, ok: true},
		{rel: "BuildSystem/Ninja/ConfigStore/BuildTarget.sh", want: Trigger{string(buildsystem.LevelBuildSystem), root}, ok: true},
		{rel: "BuildSystem/Ninja/ConfigStore/BuildWorkspace.sh", want: Trigger{string(buildsystem.LevelBuildSystem), root}, ok: true},
		{rel: "BuildSystem/Ninja/ConfigStore/Main", want: Trigger{string(buildsystem.LevelWorkspaces), gen}, ok: true},
		{rel: "BuildSystem/Ninja/ConfigStore/Main/Workspace.json", want: Trigger{string(buildsystem.LevelWorkspaces), gen}, ok: true},
		{rel: "BuildSystem/Ninja/ConfigStore/Main/Configs", want: Trigger{string(buildsystem.LevelWorkspaces), gen}, ok: true},
		{rel: "BuildSystem/Ninja/ConfigStore/Main/Configs/Debug.json", want: Trigger{string(buildsystem.LevelWorkspaces), gen}, ok: true},
		{rel: "BuildSystem/Ninja/ConfigStore/Main/Targets", want: Trigger{string(buildsystem.LevelTargets), ws}, ok: true},
		{rel: "BuildSystem/Ninja/ConfigStore/Main/Targets/App.json", want: Trigger{string(buildsystem.LevelTargets), ws}, ok: true},
		{rel: "BuildSystem/Ninja/ConfigStore/Main/Targets/App", want: Trigger{string(buildsystem.LevelTargets), ws}, ok: true},
		{rel: "BuildSystem/Ninja/ConfigStore/Main/Targets/App/Configs", want: Trigger{string(buildsystem.LevelTargets), ws}, ok: true},
		{rel: "BuildSystem/Ninja/ConfigStore/Main/Targets/App/Configs/Debug.json", want: Trigger{string(buildsystem.LevelTargets), ws}, ok: true},
		{rel: "README.md"},
		{rel: "Source/main.cpp"},
		{rel: "BuildSystem/Ninja/Output/build.ninja"},
		{rel: "BuildSystem/Ninja/ConfigStore/Main/Notes.txt"},
		{rel: "BuildSystem/Ninja/ConfigStore/Main/Targets/App/Cache/x"},
		{rel: "Sub/Other.MBuildSystem"},
	}

	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			t.Parallel()

			got, ok := Classify(root, tt.rel)
			if ok != tt.ok || got != tt.want {
				t.Errorf("Classify(%q) = %v, %v; want %v, %v", tt.rel, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestDefaultIgnores(t *testing.T) {
	t.Parallel()

	w, err := New(Config{Root: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		path    string
		ignored bool
	}{
		{".git/config", true},
		{"BuildSystem/.git/HEAD", true},
		{"BuildSystem/Ninja/ConfigStore/Main/Workspace.json.swp", true},
		{"BuildSystem/Ninja/ConfigStore/Main/Workspace.json~", true},
		{".DS_Store", true},
		{"BuildSystem/Ninja/.DS_Store", true},
		{"BuildSystem/Ninja/ConfigStore/Main/Workspace.json", false},
		{"Malterlib.MBuildSystem", false},
		{".gitignore", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			if got := w.isIgnored(tt.path); got != tt.ignored {
				t.Errorf("isIgnored(%q) = %v, want %v", tt.path, got, tt.ignored)
			}
		})
	}
}

func TestSortTriggers(t *testing.T) {
	t.Parallel()

	got := []Trigger{
		{string(buildsystem.LevelTargets), "/p/b"},
		{string(buildsystem.LevelWorkspaces), "/p/z"},
		{string(buildsystem.LevelTargets), "/p/a"},
		{string(buildsystem.LevelBuildSystem), "/p"},
		{KindProject, "/p"},
	}
	sortTriggers(got)

	want := []Trigger{
		{KindProject, "/p"},
		{string(buildsystem.LevelBuildSystem), "/p"},
		{string(buildsystem.LevelWorkspaces), "/p/z"},
		{string(buildsystem.LevelTargets), "/p/a"},
		{string(buildsystem.LevelTargets), "/p/b"},
	}
	if !slices.Equal(got, want) {
		t.Errorf("sortTriggers() = %v, want %v", got, want)
	}
}

func TestWatcherProjectMarker(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	rec := newRecorder()
	startWatcher(t, Config{Root: root, Debounce: 50 * time.Millisecond, Notifier: rec})

	write(t, filepath.Join(root, "Malterlib.MBuildSystem"))
	rec.waitFor(t, Trigger{KindProject, root})
}

func TestWatcherNewTree(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	rec := newRecorder()
	startWatcher(t, Config{Root: root, Debounce: 50 * time.Millisecond, Notifier: rec})

	store := filepath.Join(root, "BuildSystem", "Ninja", "ConfigStore")
	mkdir(t, store)
	rec.waitFor(t, Trigger{string(buildsystem.LevelBuildSystem), root})

	// The new tree is watched once created, so deeper changes classify too.
	time.Sleep(100 * time.Millisecond)
	ws := filepath.Join(store, "Main")
	mkdir(t, ws)
	write(t, filepath.Join(ws, "Workspace.json"))
	rec.waitFor(t, Trigger{string(buildsystem.LevelWorkspaces), filepath.Join(root, "BuildSystem", "Ninja")})
}

func TestWatcherDebounce(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	ws := filepath.Join(root, "BuildSystem", "Ninja", "ConfigStore", "Main")
	targets := filepath.Join(ws, "Targets")
	mkdir(t, targets)

	rec := newRecorder()
	startWatcher(t, Config{Root: root, Debounce: 200 * time.Millisecond, Notifier: rec})

	for _, name := range []string{"A.json", "B.json", "C.json"} {
		write(t, filepath.Join(targets, name))
		time.Sleep(10 * time.Millisecond)
	}
	want := Trigger{string(buildsystem.LevelTargets), ws}
	rec.waitFor(t, want)

	// Allow a stray late flush to show up before counting.
	time.Sleep(300 * time.Millisecond)
	n := 0
	for _, got := range rec.snapshot() {
		if got == want {
			n++
		}
	}
	if n != 1 {
		t.Errorf("trigger %v notified %d times, want 1", want, n)
	}
}

func TestWatcherIgnore(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	configs := filepath.Join(root, "BuildSystem", "Ninja", "ConfigStore", "Main", "Configs")
	mkdir(t, configs)

	rec := newRecorder()
	startWatcher(t, Config{
		Root:     root,
		Debounce: 50 * time.Millisecond,
		Ignore:   []string{"**/Configs/*.json"},
		Notifier: rec,
	})

	write(t, filepath.Join(configs, "Debug.json"))
	write(t, filepath.Join(root, "Malterlib.MBuildSystem"))
	rec.waitFor(t, Trigger{KindProject, root})

	for _, got := range rec.snapshot() {
		if got.Kind == string(buildsystem.LevelWorkspaces) {
			t.Errorf("ignored path produced %v", got)
		}
	}
}

func TestWatcherContextCancel(t *testing.T) {
	t.Parallel()

	w, err := New(Config{Root: t.TempDir(), Notifier: newRecorder()})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Run() returned error on cancel: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after context cancellation")
	}
}

func TestWatcherDoubleRunError(t *testing.T) {
	t.Parallel()

	w, err := New(Config{Root: t.TempDir(), Notifier: newRecorder()})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)

	if err := w.Run(ctx); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Run() error = %v, want ErrAlreadyRunning", err)
	}
	cancel()
	if err := <-errCh; err != nil {
		t.Errorf("first Run() error: %v", err)
	}
}

func TestWatcherRequiresNotifier(t *testing.T) {
	t.Parallel()

	w, err := New(Config{Root: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Run(context.Background()); !errors.Is(err, ErrInvalidWatchConfig) {
		t.Errorf("Run() error = %v, want ErrInvalidWatchConfig", err)
	}
}
