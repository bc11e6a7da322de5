// SPDX-License-Identifier: MPL-2.0

package buildsystem

import (
	"errors"
	"fmt"
)

const (
	// LevelBuildSystem scans the generators of a project root.
	LevelBuildSystem Level = "buildSystem"
	// LevelWorkspaces scans the workspaces of a generator.
	LevelWorkspaces Level = "workspaces"
	// LevelTargets scans the targets of a workspace.
	LevelTargets Level = "targets"
	// LevelConfigurations scans the configurations of a target.
	LevelConfigurations Level = "configurations"
)

// ErrInvalidLevel is returned when a Level value is not one of the defined levels.
var ErrInvalidLevel = errors.New("invalid level")

type (
	// Level identifies one tier of the build-system hierarchy. It doubles as
	// the kind of a scan task and the name of the event fired after the scan.
	Level string

	// InvalidLevelError is returned when a Level value is not recognized.
	// It wraps ErrInvalidLevel for errors.Is() compatibility.
	InvalidLevelError struct {
		Value Level
	}
)

// Levels returns all levels from the outermost to the innermost.
func Levels() []Level {
	return []Level{LevelBuildSystem, LevelWorkspaces, LevelTargets, LevelConfigurations}
}

// String returns the level name.
func (l Level) String() string {
	return string(l)
}

// Event returns the name of the cache that a scan at this level refreshes.
func (l Level) Event() string {
	if l == LevelBuildSystem {
		return "generators"
	}
	return string(l)
}

// Validate returns nil if the Level is one of the defined levels.
func (l Level) Validate() error {
	switch l {
	case LevelBuildSystem, LevelWorkspaces, LevelTargets, LevelConfigurations:
		return nil
	default:
		return &InvalidLevelError{Value: l}
	}
}

// Error implements the error interface for InvalidLevelError.
func (e *InvalidLevelError) Error() string {
	return fmt.Sprintf("invalid level %q (valid: buildSystem, workspaces, targets, configurations)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidLevelError) Unwrap() error {
	return ErrInvalidLevel
}
