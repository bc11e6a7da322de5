// SPDX-License-Identifier: MPL-2.0

package buildsystemtest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/malterlib/buildscan/pkg/buildsystem"
)

type (
	// Tree is a project root under t.TempDir().
	Tree struct {
		t    testing.TB
		Root string
	}

	// JSON is a descriptor object. Descriptor arguments also accept plain
	// strings, which are written verbatim and so may be malformed.
	JSON map[string]any

	// GeneratorOption configures a generator directory.
	GeneratorOption func(*generatorSpec)

	generatorSpec struct {
		descriptor      any
		buildTarget     bool
		buildWorkspace  bool
		skipConfigStore bool
	}
)

// New creates an empty project root.
func New(t testing.TB) *Tree {
	t.Helper()
	return &Tree{t: t, Root: t.TempDir()}
}

// WithDescriptor writes Generator.json with the given content.
func WithDescriptor(content any) GeneratorOption {
	return func(s *generatorSpec) {
		s.descriptor = content
	}
}

// WithScripts creates BuildTarget.sh and BuildWorkspace.sh.
func WithScripts() GeneratorOption {
	return func(s *generatorSpec) {
		s.buildTarget = true
		s.buildWorkspace = true
	}
}

// WithoutConfigStore leaves out the ConfigStore directory, so the generator
// directory is not recognized.
func WithoutConfigStore() GeneratorOption {
	return func(s *generatorSpec) {
		s.skipConfigStore = true
	}
}

// Generator creates BuildSystem/<name> and returns its path.
func (tr *Tree) Generator(name string, opts ...GeneratorOption) string {
	tr.t.Helper()

	var spec generatorSpec
	for _, opt := range opts {
		opt(&spec)
	}

	genPath := filepath.Join(buildsystem.BuildSystemPath(tr.Root), name)
	if spec.skipConfigStore {
		tr.Mkdir(genPath)
		return genPath
	}

	configStore := buildsystem.ConfigStorePath(genPath)
	tr.Mkdir(configStore)
	if spec.descriptor != nil {
		tr.Write(filepath.Join(configStore, buildsystem.GeneratorFile), spec.descriptor)
	}
	if spec.buildTarget {
		tr.Write(filepath.Join(configStore, buildsystem.BuildTargetScript), "#!/bin/sh\n")
	}
	if spec.buildWorkspace {
		tr.Write(filepath.Join(configStore, buildsystem.BuildWorkspaceScript), "#!/bin/sh\n")
	}
	return genPath
}

// Workspace creates ConfigStore/<name>/Workspace.json and returns the workspace path.
func (tr *Tree) Workspace(generatorPath, name string, descriptor any) string {
	tr.t.Helper()

	wsPath := filepath.Join(buildsystem.ConfigStorePath(generatorPath), name)
	tr.Write(filepath.Join(wsPath, buildsystem.WorkspaceFile), descriptor)
	return wsPath
}

// WorkspaceConfig creates <workspace>/Configs/<name>.json and returns its path.
func (tr *Tree) WorkspaceConfig(workspacePath, name string, descriptor any) string {
	tr.t.Helper()

	p := filepath.Join(buildsystem.ConfigsPath(workspacePath), name+buildsystem.DescriptorExt)
	tr.Write(p, descriptor)
	return p
}

// Target creates Targets/<name>.json and returns the target path Targets/<name>.
func (tr *Tree) Target(workspacePath, name string, descriptor any) string {
	tr.t.Helper()

	targets := buildsystem.TargetsPath(workspacePath)
	tr.Write(filepath.Join(targets, name+buildsystem.DescriptorExt), descriptor)
	return filepath.Join(targets, name)
}

// TargetConfig creates <target>/Configs/<name>.json and returns its path.
func (tr *Tree) TargetConfig(targetPath, name string, descriptor any) string {
	tr.t.Helper()

	p := filepath.Join(buildsystem.ConfigsPath(targetPath), name+buildsystem.DescriptorExt)
	tr.Write(p, descriptor)
	return p
}

// Write writes content to path, creating parent directories. Content may be
// a string, a []byte or anything encoding/json can marshal.
func (tr *Tree) Write(path string, content any) {
	tr.t.Helper()

	var data []byte
	switch c := content.(type) {
	case string:
		data = []byte(c)
	case []byte:
		data = c
	default:
		var err error
		data, err = json.Marshal(c)
		if err != nil {
			tr.t.Fatalf("marshal %s: %v", path, err)
		}
	}

	tr.Mkdir(filepath.Dir(path))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		tr.t.Fatalf("write %s: %v", path, err)
	}
}

// Mkdir creates path and its parents.
func (tr *Tree) Mkdir(path string) {
	tr.t.Helper()

	if err := os.MkdirAll(path, 0o755); err != nil {
		tr.t.Fatalf("mkdir %s: %v", path, err)
	}
}

// Remove deletes path and everything under it.
func (tr *Tree) Remove(path string) {
	tr.t.Helper()

	if err := os.RemoveAll(path); err != nil {
		tr.t.Fatalf("remove %s: %v", path, err)
	}
}

// Rel returns path relative to the root, for readable failure messages.
func (tr *Tree) Rel(path string) string {
	rel, err := filepath.Rel(tr.Root, path)
	if err != nil {
		return fmt.Sprintf("<%s>", path)
	}
	return filepath.ToSlash(rel)
}
