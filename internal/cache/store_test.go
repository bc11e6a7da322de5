// SPDX-License-Identifier: MPL-2.0

package cache

import (
	"slices"
	"sync"
	"testing"

	"github.com/malterlib/buildscan/pkg/buildsystem"
)

func TestMissingEntryIsEmptyNotNil(t *testing.T) {
	t.Parallel()

	s := New()
	if got := s.Generators("/nope"); got == nil || len(got) != 0 {
		t.Errorf("Generators() = %#v, want empty non-nil", got)
	}
	if got := s.Workspaces("/nope"); got == nil {
		t.Error("Workspaces() = nil")
	}
	if got := s.Targets("/nope"); got == nil {
		t.Error("Targets() = nil")
	}
	if got := s.Configurations("/nope"); got == nil {
		t.Error("Configurations() = nil")
	}
}

func TestReadersGetCopies(t *testing.T) {
	t.Parallel()

	s := New()
	input := []buildsystem.Target{{Name: "App", Priority: buildsystem.IntPtr(1)}}
	s.SetTargets("/ws", input)

	// Mutating the caller's slice after the store must not leak in.
	input[0].Name = "Changed"

	got := s.Targets("/ws")
	if got[0].Name != "App" {
		t.Fatalf("stored name = %q, want App", got[0].Name)
	}

	*got[0].Priority = 42
	got[0].Name = "Mutated"
	again := s.Targets("/ws")
	if again[0].Name != "App" || *again[0].Priority != 1 {
		t.Errorf("reader mutation leaked into store: %+v", again[0])
	}
}

func TestSetReplacesWholeEntry(t *testing.T) {
	t.Parallel()

	s := New()
	s.SetConfigurations("/t", []buildsystem.Configuration{{Name: "A"}, {Name: "B"}})
	s.SetConfigurations("/t", []buildsystem.Configuration{{Name: "C"}})

	got := s.Configurations("/t")
	if len(got) != 1 || got[0].Name != "C" {
		t.Errorf("Configurations() = %+v, want only C", got)
	}
}

func TestDeleteAndHas(t *testing.T) {
	t.Parallel()

	s := New()
	s.SetTargets("/ws", nil)
	if !s.HasTargets("/ws") {
		t.Fatal("HasTargets() = false after storing an empty list")
	}
	s.DeleteTargets("/ws")
	if s.HasTargets("/ws") {
		t.Error("HasTargets() = true after delete")
	}
}

func TestFindWorkspace(t *testing.T) {
	t.Parallel()

	s := New()
	s.SetWorkspaces("/g1", []buildsystem.Workspace{{Name: "A", Path: "/g1/A"}})
	s.SetWorkspaces("/g2", []buildsystem.Workspace{{Name: "B", Path: "/g2/B"}})

	ws, ok := s.FindWorkspace("/g2/B")
	if !ok || ws.Name != "B" {
		t.Errorf("FindWorkspace(/g2/B) = %+v, %v", ws, ok)
	}
	if _, ok := s.FindWorkspace("/g3/C"); ok {
		t.Error("FindWorkspace of unknown path should fail")
	}
}

func TestDigest(t *testing.T) {
	t.Parallel()

	build := func(order []string) *Store {
		s := New()
		for _, root := range order {
			s.SetGenerators(root, []buildsystem.Generator{{Name: "G", Path: root + "/G"}})
		}
		return s
	}

	a := build([]string{"/r1", "/r2"})
	b := build([]string{"/r2", "/r1"})
	if a.Digest() != b.Digest() {
		t.Error("digest depends on insertion order")
	}

	empty := New().Digest()
	if a.Digest() == empty {
		t.Error("digest of populated store equals empty digest")
	}

	before := a.Digest()
	a.SetTargets("/r1/G/ws", []buildsystem.Target{{Name: "T"}})
	if a.Digest() == before {
		t.Error("digest did not change after a write")
	}

	// An empty entry differs from no entry.
	c := New()
	c.SetTargets("/ws", nil)
	if c.Digest() == empty {
		t.Error("empty entry should affect the digest")
	}
}

func TestKeys(t *testing.T) {
	t.Parallel()

	s := New()
	s.SetTargets("/b", nil)
	s.SetTargets("/a", nil)

	got := s.Keys()["targets"]
	if !slices.Equal(got, []string{"/a", "/b"}) {
		t.Errorf("Keys()[targets] = %v", got)
	}
	if len(s.Keys()["generators"]) != 0 {
		t.Error("generators should have no keys")
	}
}

func TestConcurrentReadersSeeWholeLists(t *testing.T) {
	t.Parallel()

	s := New()
	full := []buildsystem.Configuration{{Name: "A"}, {Name: "B"}, {Name: "C"}}
	s.SetConfigurations("/t", full)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := range 500 {
			if i%2 == 0 {
				s.SetConfigurations("/t", full)
			} else {
				s.SetConfigurations("/t", full[:1])
			}
		}
	}()
	go func() {
		defer wg.Done()
		for range 500 {
			if n := len(s.Configurations("/t")); n != 1 && n != 3 {
				t.Errorf("observed partial list of length %d", n)
				return
			}
		}
	}()
	wg.Wait()
}
