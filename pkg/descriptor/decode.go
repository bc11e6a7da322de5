// SPDX-License-Identifier: MPL-2.0

package descriptor

import "github.com/malterlib/buildscan/pkg/buildsystem"

// The decoders fill only the fields a descriptor carries. Name and path
// fields are the caller's business, since they come from the directory layout.

// DecodeGenerator extracts the Generator.json fields.
func DecodeGenerator(d *Document) buildsystem.Generator {
	return buildsystem.Generator{
		Priority:            d.Int("priority"),
		BuildSystemBasePath: d.String("buildSystemBasePath"),
		BuildSystemFile:     d.String("buildSystemFile"),
		Generator:           d.String("generator"),
		GeneratorFamily:     d.String("generatorFamily"),
		OutputDir:           d.String("outputDir"),
	}
}

// DecodeWorkspace extracts the Workspace.json fields.
func DecodeWorkspace(d *Document) buildsystem.Workspace {
	return buildsystem.Workspace{Priority: d.Int("priority")}
}

// DecodeWorkspaceConfig extracts the workspace-level configuration fields.
func DecodeWorkspaceConfig(d *Document) buildsystem.WorkspaceConfig {
	return buildsystem.WorkspaceConfig{
		Platform:              d.String("platform"),
		Architecture:          d.String("architecture"),
		Configuration:         d.String("configuration"),
		ConfigurationPriority: d.Int("configurationPriority"),
		DefaultBuildTarget:    d.String("defaultBuildTarget"),
		DefaultDebugTargets:   d.Strings("defaultDebugTargets"),
	}
}

// DecodeTarget extracts the Targets/<name>.json fields.
func DecodeTarget(d *Document) buildsystem.Target {
	return buildsystem.Target{Priority: d.Int("priority")}
}

// DecodeTargetConfig extracts the target-level configuration fields.
func DecodeTargetConfig(d *Document) buildsystem.TargetConfig {
	return buildsystem.TargetConfig{
		Platform:                       d.String("platform"),
		Architecture:                   d.String("architecture"),
		Configuration:                  d.String("configuration"),
		DebugPriority:                  d.Int("debugPriority"),
		DebuggerCommandArguments:       d.Strings("debuggerCommandArguments"),
		LocalDebuggerCommand:           d.String("localDebuggerCommand"),
		LocalDebuggerWorkingDirectory:  d.String("localDebuggerWorkingDirectory"),
		RemoteDebuggerCommand:          d.String("remoteDebuggerCommand"),
		RemoteDebuggerWorkingDirectory: d.String("remoteDebuggerWorkingDirectory"),
	}
}
