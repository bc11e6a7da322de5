// SPDX-License-Identifier: MPL-2.0

// Package selection picks default generators, workspaces, configurations and
// targets from scanned build-system data.
//
// Every function is pure over a read-only Source and never fails: when no
// default can be chosen the result reports ok == false (or an empty list).
package selection

import (
	"slices"

	"github.com/malterlib/buildscan/pkg/buildsystem"
)

type (
	// Source is the read-only view of the scanned hierarchy. Lists come back
	// in display order (descending priority, then name).
	Source interface {
		Generators(root string) []buildsystem.Generator
		Workspaces(generatorPath string) []buildsystem.Workspace
		Targets(workspacePath string) []buildsystem.Target
		Configurations(targetPath string) []buildsystem.Configuration
		WorkspaceConfigurations(workspacePath string) []buildsystem.Configuration
		WorkspaceLevelConfigurations(workspacePath string) []buildsystem.WorkspaceConfig
		WorkspaceConfiguration(workspacePath, name string) (buildsystem.WorkspaceConfig, bool)
	}

	// Hints are optional per-level fallback names for AutoSelect.
	Hints struct {
		Generator     string
		Workspace     string
		Configuration string
		Target        string
	}

	// Path is the result of AutoSelect. A nil field means no default could be
	// chosen at that level, which also stops the descent.
	Path struct {
		Generator     *buildsystem.Generator     `json:"generator,omitempty" toml:"generator,omitempty"`
		Workspace     *buildsystem.Workspace     `json:"workspace,omitempty" toml:"workspace,omitempty"`
		Configuration *buildsystem.Configuration `json:"configuration,omitempty" toml:"configuration,omitempty"`
		Target        *buildsystem.Target        `json:"target,omitempty" toml:"target,omitempty"`
	}
)

// SortByPriority returns items in display order without modifying the input.
func SortByPriority[T buildsystem.Ranked](items []T) []T {
	return buildsystem.SortByPriority(items)
}

// PickDefault chooses one item from candidates, which must be in display order:
//
//  1. no candidates: none
//  2. exactly one: that one
//  3. an item named fallback: that one
//  4. the first item carrying the highest explicit priority
//  5. otherwise none
func PickDefault[T buildsystem.Ranked](candidates []T, fallback string) (T, bool) {
	var zero T
	switch len(candidates) {
	case 0:
		return zero, false
	case 1:
		return candidates[0], true
	}
	if item, ok := byName(candidates, fallback); ok {
		return item, true
	}
	return highestExplicit(candidates)
}

func byName[T buildsystem.Ranked](candidates []T, name string) (T, bool) {
	var zero T
	if name == "" {
		return zero, false
	}
	i := slices.IndexFunc(candidates, func(c T) bool { return c.SortName() == name })
	if i < 0 {
		return zero, false
	}
	return candidates[i], true
}

// highestExplicit returns the first candidate whose explicit priority is
// strictly greater than every earlier explicit one. Candidates without a
// priority never win.
func highestExplicit[T buildsystem.Ranked](candidates []T) (T, bool) {
	var (
		best  T
		found bool
	)
	for _, c := range candidates {
		p := c.SortPriority()
		if p == nil {
			continue
		}
		if !found || *p > buildsystem.PriorityOf(best) {
			best, found = c, true
		}
	}
	return best, found
}

// DefaultGenerator picks the default generator of a project root.
func DefaultGenerator(src Source, root, fallback string) (buildsystem.Generator, bool) {
	return PickDefault(src.Generators(root), fallback)
}

// DefaultWorkspace picks the default workspace of a generator.
func DefaultWorkspace(src Source, generatorPath, fallback string) (buildsystem.Workspace, bool) {
	return PickDefault(src.Workspaces(generatorPath), fallback)
}

// DefaultTarget picks the default target of a workspace.
func DefaultTarget(src Source, workspacePath, fallback string) (buildsystem.Target, bool) {
	return PickDefault(src.Targets(workspacePath), fallback)
}

// DefaultConfiguration picks the default configuration of a workspace from
// the configurations its targets offer. After the usual single and fallback
// rules, the workspace's own top-ranked configuration wins when some target
// offers it; otherwise the highest debug priority decides.
func DefaultConfiguration(src Source, workspacePath, fallback string) (buildsystem.Configuration, bool) {
	configs := src.WorkspaceConfigurations(workspacePath)
	switch len(configs) {
	case 0:
		return buildsystem.Configuration{}, false
	case 1:
		return configs[0], true
	}
	if c, ok := byName(configs, fallback); ok {
		return c, true
	}

	if level := src.WorkspaceLevelConfigurations(workspacePath); len(level) > 0 {
		if c, ok := byName(configs, level[0].Name); ok {
			return c, true
		}
	}
	return highestExplicit(configs)
}

// DefaultBuildTarget returns the workspace configuration's defaultBuildTarget.
func DefaultBuildTarget(src Source, workspacePath, configuration string) (string, bool) {
	cfg, ok := src.WorkspaceConfiguration(workspacePath, configuration)
	if !ok || cfg.DefaultBuildTarget == "" {
		return "", false
	}
	return cfg.DefaultBuildTarget, true
}

// DefaultDebugTargets returns the targets to debug for a configuration. An
// explicit defaultDebugTargets list is returned as is. Otherwise the single
// target whose matching configuration has the highest debug priority is
// returned, the alphabetically first on ties.
func DefaultDebugTargets(src Source, workspacePath, configuration string) []string {
	if cfg, ok := src.WorkspaceConfiguration(workspacePath, configuration); ok && len(cfg.DefaultDebugTargets) > 0 {
		return slices.Clone(cfg.DefaultDebugTargets)
	}

	var (
		best  []string
		top   int
		found bool
	)
	for _, t := range src.Targets(workspacePath) {
		configs := src.Configurations(t.Path)
		i := slices.IndexFunc(configs, func(c buildsystem.Configuration) bool {
			return c.Name == configuration
		})
		if i < 0 || configs[i].DebugPriority == nil {
			continue
		}
		p := *configs[i].DebugPriority
		switch {
		case !found || p > top:
			best, top, found = []string{t.Name}, p, true
		case p == top:
			best = append(best, t.Name)
		}
	}
	if !found {
		return []string{}
	}
	slices.Sort(best)
	return best[:1]
}

// AutoSelect resolves the default generator, then its default workspace, then
// the workspace's default configuration and default target. The descent stops
// at the first of generator or workspace that has no default.
func AutoSelect(src Source, root string, hints Hints) Path {
	var path Path

	gen, ok := DefaultGenerator(src, root, hints.Generator)
	if !ok {
		return path
	}
	path.Generator = &gen

	ws, ok := DefaultWorkspace(src, gen.Path, hints.Workspace)
	if !ok {
		return path
	}
	path.Workspace = &ws

	if cfg, ok := DefaultConfiguration(src, ws.Path, hints.Configuration); ok {
		path.Configuration = &cfg
	}
	if t, ok := DefaultTarget(src, ws.Path, hints.Target); ok {
		path.Target = &t
	}
	return path
}
