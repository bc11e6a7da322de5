// SPDX-License-Identifier: MPL-2.0

package buildsystem

import (
	"path/filepath"
	"strings"
)

const (
	// BuildSystemDir is the directory under a project root holding all generators.
	BuildSystemDir = "BuildSystem"
	// ConfigStoreDir marks a generator directory as valid.
	ConfigStoreDir = "ConfigStore"
	// TargetsDir holds target descriptors inside a workspace.
	TargetsDir = "Targets"
	// ConfigsDir holds configuration descriptors for a workspace or a target.
	ConfigsDir = "Configs"

	// GeneratorFile is the optional generator descriptor inside ConfigStore.
	GeneratorFile = "Generator.json"
	// WorkspaceFile marks a ConfigStore subdirectory as a workspace.
	WorkspaceFile = "Workspace.json"
	// BuildTargetScript is the optional "build one target" script inside ConfigStore.
	BuildTargetScript = "BuildTarget.sh"
	// BuildWorkspaceScript is the optional "build whole workspace" script inside ConfigStore.
	BuildWorkspaceScript = "BuildWorkspace.sh"

	// DescriptorExt is the extension of every descriptor file.
	DescriptorExt = ".json"
	// ProjectMarkerSuffix identifies a project root by a file directly inside it.
	ProjectMarkerSuffix = ".MBuildSystem"
)

// BuildSystemPath returns <root>/BuildSystem.
func BuildSystemPath(root string) string {
	return filepath.Join(root, BuildSystemDir)
}

// ConfigStorePath returns the ConfigStore directory of a generator.
func ConfigStorePath(generatorPath string) string {
	return filepath.Join(generatorPath, ConfigStoreDir)
}

// TargetsPath returns the Targets directory of a workspace.
func TargetsPath(workspacePath string) string {
	return filepath.Join(workspacePath, TargetsDir)
}

// ConfigsPath returns the Configs directory of a workspace or a target.
func ConfigsPath(dir string) string {
	return filepath.Join(dir, ConfigsDir)
}

// IsDescriptorName reports whether a directory entry name is a JSON descriptor.
func IsDescriptorName(name string) bool {
	return strings.HasSuffix(name, DescriptorExt)
}

// NameFromDescriptor strips the descriptor extension from a file name.
func NameFromDescriptor(name string) string {
	return strings.TrimSuffix(name, DescriptorExt)
}
