// SPDX-License-Identifier: MPL-2.0

package buildsystem

import (
	"maps"
	"slices"
)

type (
	// Generator is a build-system backend root under BuildSystem/<name>.
	Generator struct {
		Name            string `json:"name" toml:"name"`
		Path            string `json:"path" toml:"path"`
		ConfigStorePath string `json:"configStorePath" toml:"config_store_path"`
		Priority        *int   `json:"priority,omitempty" toml:"priority,omitempty"`

		BuildSystemBasePath string `json:"buildSystemBasePath,omitempty" toml:"build_system_base_path,omitempty"`
		BuildSystemFile     string `json:"buildSystemFile,omitempty" toml:"build_system_file,omitempty"`
		Generator           string `json:"generator,omitempty" toml:"generator,omitempty"`
		GeneratorFamily     string `json:"generatorFamily,omitempty" toml:"generator_family,omitempty"`
		OutputDir           string `json:"outputDir,omitempty" toml:"output_dir,omitempty"`

		// BuildTargetScript and BuildWorkspaceScript are absolute paths to the
		// helper scripts, empty when the script does not exist.
		BuildTargetScript    string `json:"buildTargetScript,omitempty" toml:"build_target_script,omitempty"`
		BuildWorkspaceScript string `json:"buildWorkspaceScript,omitempty" toml:"build_workspace_script,omitempty"`
	}

	// WorkspaceConfig is a workspace-level configuration (<workspace>/Configs/<name>.json).
	WorkspaceConfig struct {
		Name                  string   `json:"name" toml:"name"`
		Path                  string   `json:"path" toml:"path"`
		Platform              string   `json:"platform" toml:"platform"`
		Architecture          string   `json:"architecture" toml:"architecture"`
		Configuration         string   `json:"configuration" toml:"configuration"`
		ConfigurationPriority *int     `json:"configurationPriority,omitempty" toml:"configuration_priority,omitempty"`
		DefaultBuildTarget    string   `json:"defaultBuildTarget,omitempty" toml:"default_build_target,omitempty"`
		DefaultDebugTargets   []string `json:"defaultDebugTargets,omitempty" toml:"default_debug_targets,omitempty"`
	}

	// Workspace is a ConfigStore subdirectory that contains Workspace.json.
	Workspace struct {
		Name           string                     `json:"name" toml:"name"`
		Path           string                     `json:"path" toml:"path"`
		TargetsPath    string                     `json:"targetsPath" toml:"targets_path"`
		Priority       *int                       `json:"priority,omitempty" toml:"priority,omitempty"`
		Configurations map[string]WorkspaceConfig `json:"configurations,omitempty" toml:"configurations,omitempty"`
	}

	// TargetConfig is a target-level configuration (Targets/<target>/Configs/<name>.json).
	TargetConfig struct {
		Name                           string   `json:"name" toml:"name"`
		Path                           string   `json:"path" toml:"path"`
		Platform                       string   `json:"platform" toml:"platform"`
		Architecture                   string   `json:"architecture" toml:"architecture"`
		Configuration                  string   `json:"configuration" toml:"configuration"`
		DebugPriority                  *int     `json:"debugPriority,omitempty" toml:"debug_priority,omitempty"`
		DebuggerCommandArguments       []string `json:"debuggerCommandArguments,omitempty" toml:"debugger_command_arguments,omitempty"`
		LocalDebuggerCommand           string   `json:"localDebuggerCommand,omitempty" toml:"local_debugger_command,omitempty"`
		LocalDebuggerWorkingDirectory  string   `json:"localDebuggerWorkingDirectory,omitempty" toml:"local_debugger_working_directory,omitempty"`
		RemoteDebuggerCommand          string   `json:"remoteDebuggerCommand,omitempty" toml:"remote_debugger_command,omitempty"`
		RemoteDebuggerWorkingDirectory string   `json:"remoteDebuggerWorkingDirectory,omitempty" toml:"remote_debugger_working_directory,omitempty"`
	}

	// Target is a Targets/<name>.json descriptor with its sibling <name> directory.
	Target struct {
		Name           string                  `json:"name" toml:"name"`
		Path           string                  `json:"path" toml:"path"`
		ConfigsPath    string                  `json:"configsPath" toml:"configs_path"`
		Priority       *int                    `json:"priority,omitempty" toml:"priority,omitempty"`
		Configurations map[string]TargetConfig `json:"configurations,omitempty" toml:"configurations,omitempty"`
	}

	// Configuration is the flattened per-target view of a configuration, used
	// for workspace-wide listing and selection.
	Configuration struct {
		Name          string `json:"name" toml:"name"`
		Path          string `json:"path" toml:"path"`
		Platform      string `json:"platform" toml:"platform"`
		Architecture  string `json:"architecture" toml:"architecture"`
		Configuration string `json:"configuration" toml:"configuration"`
		DebugPriority *int   `json:"debugPriority,omitempty" toml:"debug_priority,omitempty"`
	}
)

// IntPtr returns a pointer to v. Handy for building records in tests and fixtures.
func IntPtr(v int) *int {
	return &v
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Clone returns a deep copy of the generator.
func (g Generator) Clone() Generator {
	g.Priority = cloneInt(g.Priority)
	return g
}

// Clone returns a deep copy of the workspace configuration.
func (c WorkspaceConfig) Clone() WorkspaceConfig {
	c.ConfigurationPriority = cloneInt(c.ConfigurationPriority)
	c.DefaultDebugTargets = slices.Clone(c.DefaultDebugTargets)
	return c
}

// Clone returns a deep copy of the workspace including its configurations.
func (w Workspace) Clone() Workspace {
	w.Priority = cloneInt(w.Priority)
	if w.Configurations != nil {
		configs := make(map[string]WorkspaceConfig, len(w.Configurations))
		for name, c := range w.Configurations {
			configs[name] = c.Clone()
		}
		w.Configurations = configs
	}
	return w
}

// Clone returns a deep copy of the target configuration.
func (c TargetConfig) Clone() TargetConfig {
	c.DebugPriority = cloneInt(c.DebugPriority)
	c.DebuggerCommandArguments = slices.Clone(c.DebuggerCommandArguments)
	return c
}

// Clone returns a deep copy of the target including its configurations.
func (t Target) Clone() Target {
	t.Priority = cloneInt(t.Priority)
	if t.Configurations != nil {
		configs := make(map[string]TargetConfig, len(t.Configurations))
		for name, c := range t.Configurations {
			configs[name] = c.Clone()
		}
		t.Configurations = configs
	}
	return t
}

// Clone returns a deep copy of the configuration.
func (c Configuration) Clone() Configuration {
	c.DebugPriority = cloneInt(c.DebugPriority)
	return c
}

// ConfigurationNames returns the workspace configuration names in ascending order.
func (w Workspace) ConfigurationNames() []string {
	return slices.Sorted(maps.Keys(w.Configurations))
}

// ConfigurationNames returns the target configuration names in ascending order.
func (t Target) ConfigurationNames() []string {
	return slices.Sorted(maps.Keys(t.Configurations))
}
