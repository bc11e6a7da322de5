// SPDX-License-Identifier: MPL-2.0

// Package buildsystem defines the records that describe a scanned build system:
// generators, workspaces, targets and their configurations.
//
// Records are plain values. The scanner builds them once per scan and the cache
// hands out deep copies (see the Clone methods), so a record obtained by a
// consumer can never be mutated by a later scan or vice versa.
//
// The on-disk layout the records are derived from is:
//
//	<root>/BuildSystem/<generator>/ConfigStore/Generator.json
//	<root>/BuildSystem/<generator>/ConfigStore/<workspace>/Workspace.json
//	<root>/BuildSystem/<generator>/ConfigStore/<workspace>/Configs/<config>.json
//	<root>/BuildSystem/<generator>/ConfigStore/<workspace>/Targets/<target>.json
//	<root>/BuildSystem/<generator>/ConfigStore/<workspace>/Targets/<target>/Configs/<config>.json
package buildsystem
