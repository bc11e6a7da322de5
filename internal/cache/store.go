// SPDX-License-Identifier: MPL-2.0

// Package cache holds the scanned build-system hierarchy as four maps keyed
// by directory path. Every entry is replaced whole with a single store, and
// readers get deep copies, so a reader never sees a partially written list.
package cache

import (
	"encoding/json"
	"slices"

	"github.com/cespare/xxhash/v2"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/malterlib/buildscan/pkg/buildsystem"
)

type (
	// Store is the four-level cache. The zero value is not usable; use New.
	Store struct {
		generators     *level[buildsystem.Generator]
		workspaces     *level[buildsystem.Workspace]
		targets        *level[buildsystem.Target]
		configurations *level[buildsystem.Configuration]
	}

	cloner[T any] interface {
		Clone() T
	}

	level[T cloner[T]] struct {
		name    string
		entries *xsync.MapOf[string, []T]
	}
)

// New returns an empty Store.
func New() *Store {
	return &Store{
		generators:     newLevel[buildsystem.Generator]("generators"),
		workspaces:     newLevel[buildsystem.Workspace]("workspaces"),
		targets:        newLevel[buildsystem.Target]("targets"),
		configurations: newLevel[buildsystem.Configuration]("configurations"),
	}
}

func newLevel[T cloner[T]](name string) *level[T] {
	return &level[T]{name: name, entries: xsync.NewMapOf[string, []T]()}
}

func cloneList[T cloner[T]](list []T) []T {
	out := make([]T, len(list))
	for i, item := range list {
		out[i] = item.Clone()
	}
	return out
}

func (l *level[T]) set(path string, list []T) {
	l.entries.Store(path, cloneList(list))
}

func (l *level[T]) get(path string) []T {
	list, ok := l.entries.Load(path)
	if !ok {
		return []T{}
	}
	return cloneList(list)
}

func (l *level[T]) has(path string) bool {
	_, ok := l.entries.Load(path)
	return ok
}

func (l *level[T]) delete(path string) {
	l.entries.Delete(path)
}

func (l *level[T]) keys() []string {
	keys := make([]string, 0, l.entries.Size())
	l.entries.Range(func(k string, _ []T) bool {
		keys = append(keys, k)
		return true
	})
	slices.Sort(keys)
	return keys
}

// SetGenerators replaces the generator list of a project root.
func (s *Store) SetGenerators(root string, list []buildsystem.Generator) {
	s.generators.set(root, list)
}

// Generators returns the generators cached for root, empty when unknown.
func (s *Store) Generators(root string) []buildsystem.Generator {
	return s.generators.get(root)
}

// DeleteGenerators drops the entry for root.
func (s *Store) DeleteGenerators(root string) {
	s.generators.delete(root)
}

// SetWorkspaces replaces the workspace list of a generator.
func (s *Store) SetWorkspaces(generatorPath string, list []buildsystem.Workspace) {
	s.workspaces.set(generatorPath, list)
}

// Workspaces returns the workspaces cached for a generator, empty when unknown.
func (s *Store) Workspaces(generatorPath string) []buildsystem.Workspace {
	return s.workspaces.get(generatorPath)
}

// DeleteWorkspaces drops the entry for a generator.
func (s *Store) DeleteWorkspaces(generatorPath string) {
	s.workspaces.delete(generatorPath)
}

// SetTargets replaces the target list of a workspace.
func (s *Store) SetTargets(workspacePath string, list []buildsystem.Target) {
	s.targets.set(workspacePath, list)
}

// Targets returns the targets cached for a workspace, empty when unknown.
func (s *Store) Targets(workspacePath string) []buildsystem.Target {
	return s.targets.get(workspacePath)
}

// DeleteTargets drops the entry for a workspace.
func (s *Store) DeleteTargets(workspacePath string) {
	s.targets.delete(workspacePath)
}

// SetConfigurations replaces the flattened configuration list of a target.
func (s *Store) SetConfigurations(targetPath string, list []buildsystem.Configuration) {
	s.configurations.set(targetPath, list)
}

// Configurations returns the configurations cached for a target, empty when unknown.
func (s *Store) Configurations(targetPath string) []buildsystem.Configuration {
	return s.configurations.get(targetPath)
}

// DeleteConfigurations drops the entry for a target.
func (s *Store) DeleteConfigurations(targetPath string) {
	s.configurations.delete(targetPath)
}

// HasTargets reports whether an entry exists for the workspace, even an empty one.
func (s *Store) HasTargets(workspacePath string) bool {
	return s.targets.has(workspacePath)
}

// FindWorkspace searches every cached generator entry for the workspace at path.
func (s *Store) FindWorkspace(path string) (buildsystem.Workspace, bool) {
	var (
		found buildsystem.Workspace
		ok    bool
	)
	s.workspaces.entries.Range(func(_ string, list []buildsystem.Workspace) bool {
		for _, ws := range list {
			if ws.Path == path {
				found, ok = ws.Clone(), true
				return false
			}
		}
		return true
	})
	return found, ok
}

// Keys returns the sorted entry keys of every level, keyed by level name.
func (s *Store) Keys() map[string][]string {
	return map[string][]string{
		s.generators.name:     s.generators.keys(),
		s.workspaces.name:     s.workspaces.keys(),
		s.targets.name:        s.targets.keys(),
		s.configurations.name: s.configurations.keys(),
	}
}

// Digest hashes a canonical rendering of every entry. Two stores with the same
// content have the same digest regardless of insertion order.
func (s *Store) Digest() uint64 {
	d := xxhash.New()
	writeLevel(d, s.generators)
	writeLevel(d, s.workspaces)
	writeLevel(d, s.targets)
	writeLevel(d, s.configurations)
	return d.Sum64()
}

func writeLevel[T cloner[T]](d *xxhash.Digest, l *level[T]) {
	_, _ = d.WriteString(l.name)
	_, _ = d.Write([]byte{0})
	for _, key := range l.keys() {
		list, ok := l.entries.Load(key)
		if !ok {
			continue
		}
		_, _ = d.WriteString(key)
		_, _ = d.Write([]byte{0})
		// Records are plain data and encoding/json sorts map keys, so the
		// rendering is canonical.
		data, err := json.Marshal(list)
		if err != nil {
			continue
		}
		_, _ = d.Write(data)
		_, _ = d.Write([]byte{0})
	}
}
