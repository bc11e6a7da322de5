// SPDX-License-Identifier: MPL-2.0

package scanner

import (
	"maps"
	"slices"

	"github.com/malterlib/buildscan/pkg/buildsystem"
)

// Generators returns the generators of root in display order.
func (s *Scanner) Generators(root string) []buildsystem.Generator {
	return buildsystem.SortByPriority(s.store.Generators(root))
}

// Workspaces returns the workspaces of a generator in display order.
func (s *Scanner) Workspaces(generatorPath string) []buildsystem.Workspace {
	return buildsystem.SortByPriority(s.store.Workspaces(generatorPath))
}

// Targets returns the targets of a workspace in display order.
func (s *Scanner) Targets(workspacePath string) []buildsystem.Target {
	return buildsystem.SortByPriority(s.store.Targets(workspacePath))
}

// Configurations returns the flattened configurations of a target ordered by
// debug priority.
func (s *Scanner) Configurations(targetPath string) []buildsystem.Configuration {
	return buildsystem.SortByPriority(s.store.Configurations(targetPath))
}

// WorkspaceConfigurations returns every configuration offered by any target
// of the workspace, one per name, ordered by debug priority. When targets
// disagree on a configuration, the last target in display order wins.
func (s *Scanner) WorkspaceConfigurations(workspacePath string) []buildsystem.Configuration {
	byName := map[string]buildsystem.Configuration{}
	for _, t := range s.Targets(workspacePath) {
		for _, c := range s.store.Configurations(t.Path) {
			byName[c.Name] = c
		}
	}
	return buildsystem.SortByPriority(slices.Collect(maps.Values(byName)))
}

// WorkspaceLevelConfigurations returns the workspace's own configurations
// ordered by configuration priority.
func (s *Scanner) WorkspaceLevelConfigurations(workspacePath string) []buildsystem.WorkspaceConfig {
	ws, ok := s.store.FindWorkspace(workspacePath)
	if !ok {
		return []buildsystem.WorkspaceConfig{}
	}
	return buildsystem.SortByPriority(slices.Collect(maps.Values(ws.Configurations)))
}

// WorkspaceConfiguration returns one workspace-level configuration by name.
func (s *Scanner) WorkspaceConfiguration(workspacePath, name string) (buildsystem.WorkspaceConfig, bool) {
	ws, ok := s.store.FindWorkspace(workspacePath)
	if !ok {
		return buildsystem.WorkspaceConfig{}, false
	}
	cfg, ok := ws.Configurations[name]
	return cfg, ok
}

// TargetConfigurations returns the configuration records of the named target
// in the workspace, in name order.
func (s *Scanner) TargetConfigurations(workspacePath, targetName string) []buildsystem.TargetConfig {
	for _, t := range s.store.Targets(workspacePath) {
		if t.Name != targetName {
			continue
		}
		out := make([]buildsystem.TargetConfig, 0, len(t.Configurations))
		for _, name := range t.ConfigurationNames() {
			out = append(out, t.Configurations[name])
		}
		return out
	}
	return []buildsystem.TargetConfig{}
}

// Digest fingerprints the whole cache.
func (s *Scanner) Digest() uint64 {
	return s.store.Digest()
}
