// SPDX-License-Identifier: MPL-2.0

// Package buildsystemtest builds build-system descriptor trees on disk for tests.
//
// # Usage
//
//	tree := buildsystemtest.New(t)
//	gen := tree.Generator("Ninja", buildsystemtest.WithDescriptor(`{"priority": 2}`))
//	ws := tree.Workspace(gen, "Main", `{}`)
//	app := tree.Target(ws, "App", `{"priority": 1}`)
//	tree.TargetConfig(app, "Linux x64 Debug", buildsystemtest.JSON{"debugPriority": 5})
package buildsystemtest
