// SPDX-License-Identifier: MPL-2.0

package scanner

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"syscall"

	"github.com/malterlib/buildscan/pkg/buildsystem"
	"github.com/malterlib/buildscan/pkg/descriptor"
)

// unknownPart fills platform, architecture or configuration when neither the
// configuration name nor its descriptor provides one.
const unknownPart = "Unknown"

func (s *Scanner) scanBuildSystem(root string) {
	entries := s.readDir(buildsystem.BuildSystemPath(root))

	generators := []buildsystem.Generator{}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		genPath := filepath.Join(buildsystem.BuildSystemPath(root), e.Name())
		configStore := buildsystem.ConfigStorePath(genPath)
		if !isDir(configStore) {
			continue
		}

		doc := s.load(filepath.Join(configStore, buildsystem.GeneratorFile), descriptor.KindGenerator)
		g := descriptor.DecodeGenerator(doc)
		g.Name = e.Name()
		g.Path = genPath
		g.ConfigStorePath = configStore
		if p := filepath.Join(configStore, buildsystem.BuildTargetScript); isFile(p) {
			g.BuildTargetScript = p
		}
		if p := filepath.Join(configStore, buildsystem.BuildWorkspaceScript); isFile(p) {
			g.BuildWorkspaceScript = p
		}

		s.scanWorkspaces(genPath)
		generators = append(generators, g)
	}

	previous := s.store.Generators(root)
	s.store.SetGenerators(root, generators)
	for _, p := range removed(previous, generators, pathOfGenerator) {
		s.pruneGenerator(p)
	}
	s.logger.Debug("scanned build system", "root", root, "generators", len(generators))
}

func (s *Scanner) scanWorkspaces(generatorPath string) {
	configStore := buildsystem.ConfigStorePath(generatorPath)
	entries := s.readDir(configStore)

	workspaces := []buildsystem.Workspace{}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		wsPath := filepath.Join(configStore, e.Name())
		marker := filepath.Join(wsPath, buildsystem.WorkspaceFile)
		if !exists(marker) {
			continue
		}

		ws := descriptor.DecodeWorkspace(s.load(marker, descriptor.KindWorkspace))
		ws.Name = e.Name()
		ws.Path = wsPath
		ws.TargetsPath = buildsystem.TargetsPath(wsPath)
		ws.Configurations = s.scanWorkspaceConfigs(wsPath)

		s.scanTargets(wsPath)
		workspaces = append(workspaces, ws)
	}

	previous := s.store.Workspaces(generatorPath)
	s.store.SetWorkspaces(generatorPath, workspaces)
	for _, p := range removed(previous, workspaces, pathOfWorkspace) {
		s.pruneWorkspace(p)
	}
	s.logger.Debug("scanned workspaces", "generator", generatorPath, "workspaces", len(workspaces))
}

// scanWorkspaceConfigs keeps entries whose descriptor failed to parse; they
// appear with empty fields.
func (s *Scanner) scanWorkspaceConfigs(workspacePath string) map[string]buildsystem.WorkspaceConfig {
	configsPath := buildsystem.ConfigsPath(workspacePath)

	configs := map[string]buildsystem.WorkspaceConfig{}
	for _, name := range s.descriptorNames(configsPath) {
		p := filepath.Join(configsPath, name)
		cfg := descriptor.DecodeWorkspaceConfig(s.load(p, descriptor.KindWorkspaceConfig))
		cfg.Name = buildsystem.NameFromDescriptor(name)
		cfg.Path = p
		configs[cfg.Name] = cfg
	}
	return configs
}

func (s *Scanner) scanTargets(workspacePath string) {
	targetsPath := buildsystem.TargetsPath(workspacePath)

	targets := []buildsystem.Target{}
	for _, name := range s.descriptorNames(targetsPath) {
		targetName := buildsystem.NameFromDescriptor(name)
		targetPath := filepath.Join(targetsPath, targetName)

		t := descriptor.DecodeTarget(s.load(filepath.Join(targetsPath, name), descriptor.KindTarget))
		t.Name = targetName
		t.Path = targetPath
		t.ConfigsPath = buildsystem.ConfigsPath(targetPath)
		t.Configurations = s.scanTargetConfigs(targetPath)

		s.scanConfigurations(targetPath)
		targets = append(targets, t)
	}

	previous := s.store.Targets(workspacePath)
	s.store.SetTargets(workspacePath, targets)
	for _, p := range removed(previous, targets, pathOfTarget) {
		s.store.DeleteConfigurations(p)
	}
	s.logger.Debug("scanned targets", "workspace", workspacePath, "targets", len(targets))
}

// scanTargetConfigs skips entries whose descriptor failed to parse.
func (s *Scanner) scanTargetConfigs(targetPath string) map[string]buildsystem.TargetConfig {
	configsPath := buildsystem.ConfigsPath(targetPath)

	configs := map[string]buildsystem.TargetConfig{}
	for _, name := range s.descriptorNames(configsPath) {
		p := filepath.Join(configsPath, name)
		doc := s.load(p, descriptor.KindTargetConfig)
		if !doc.OK() {
			continue
		}
		cfg := descriptor.DecodeTargetConfig(doc)
		cfg.Name = buildsystem.NameFromDescriptor(name)
		cfg.Path = p
		configs[cfg.Name] = cfg
	}
	return configs
}

func (s *Scanner) scanConfigurations(targetPath string) {
	configsPath := buildsystem.ConfigsPath(targetPath)

	configurations := []buildsystem.Configuration{}
	for _, name := range s.descriptorNames(configsPath) {
		p := filepath.Join(configsPath, name)
		c := nameDefaults(buildsystem.NameFromDescriptor(name))
		c.Path = p

		doc := s.load(p, descriptor.KindTargetConfig)
		c.DebugPriority = doc.Int("debugPriority")
		if v := doc.String("platform"); v != "" {
			c.Platform = v
		}
		if v := doc.String("architecture"); v != "" {
			c.Architecture = v
		}
		if v := doc.String("configuration"); v != "" {
			c.Configuration = v
		}
		configurations = append(configurations, c)
	}

	slices.SortFunc(configurations, func(a, b buildsystem.Configuration) int {
		return strings.Compare(a.Name, b.Name)
	})
	s.store.SetConfigurations(targetPath, configurations)
}

// nameDefaults splits "<platform> <architecture> <configuration...>".
func nameDefaults(name string) buildsystem.Configuration {
	c := buildsystem.Configuration{
		Name:          name,
		Platform:      unknownPart,
		Architecture:  unknownPart,
		Configuration: unknownPart,
	}
	parts := strings.Split(name, " ")
	if len(parts) >= 3 {
		c.Platform = parts[0]
		c.Architecture = parts[1]
		c.Configuration = strings.Join(parts[2:], " ")
	}
	return c
}

func (s *Scanner) load(path string, kind descriptor.Kind) *descriptor.Document {
	doc := s.reader.Load(path)
	if err := doc.Check(kind); err != nil {
		s.logger.Warn("descriptor does not match schema", "path", path, "error", err)
	}
	return doc
}

// readDir lists dir sorted by name. A missing directory is an empty listing;
// any other failure is logged and also treated as empty.
func (s *Scanner) readDir(dir string) []os.DirEntry {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) && !errors.Is(err, syscall.ENOTDIR) {
			s.logger.Error("cannot list directory", "path", dir, "error", err)
		}
		return nil
	}
	return entries
}

// descriptorNames returns the regular *.json file names in dir.
func (s *Scanner) descriptorNames(dir string) []string {
	var names []string
	for _, e := range s.readDir(dir) {
		if e.Type().IsRegular() && buildsystem.IsDescriptorName(e.Name()) {
			names = append(names, e.Name())
		}
	}
	return names
}

func (s *Scanner) forgetRoot(root string) {
	for _, g := range s.store.Generators(root) {
		s.pruneGenerator(g.Path)
	}
	s.store.DeleteGenerators(root)
	s.logger.Debug("forgot build system", "root", root)
}

func (s *Scanner) pruneGenerator(generatorPath string) {
	for _, ws := range s.store.Workspaces(generatorPath) {
		s.pruneWorkspace(ws.Path)
	}
	s.store.DeleteWorkspaces(generatorPath)
}

func (s *Scanner) pruneWorkspace(workspacePath string) {
	for _, t := range s.store.Targets(workspacePath) {
		s.store.DeleteConfigurations(t.Path)
	}
	s.store.DeleteTargets(workspacePath)
}

// removed returns the paths of previous that are absent from current.
func removed[T any](previous, current []T, path func(T) string) []string {
	keep := make(map[string]struct{}, len(current))
	for _, c := range current {
		keep[path(c)] = struct{}{}
	}
	var gone []string
	for _, p := range previous {
		if _, ok := keep[path(p)]; !ok {
			gone = append(gone, path(p))
		}
	}
	return gone
}

func pathOfGenerator(g buildsystem.Generator) string { return g.Path }
func pathOfWorkspace(w buildsystem.Workspace) string { return w.Path }
func pathOfTarget(t buildsystem.Target) string       { return t.Path }

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
