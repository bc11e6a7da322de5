// SPDX-License-Identifier: MPL-2.0

package buildsystem

import (
	"cmp"
	"slices"
)

// Ranked is implemented by every record that takes part in priority ordering.
// SortPriority returns nil when the record carries no explicit priority.
type Ranked interface {
	SortName() string
	SortPriority() *int
}

// SortName implements Ranked.
func (g Generator) SortName() string { return g.Name }

// SortPriority implements Ranked.
func (g Generator) SortPriority() *int { return g.Priority }

// SortName implements Ranked.
func (w Workspace) SortName() string { return w.Name }

// SortPriority implements Ranked.
func (w Workspace) SortPriority() *int { return w.Priority }

// SortName implements Ranked.
func (t Target) SortName() string { return t.Name }

// SortPriority implements Ranked.
func (t Target) SortPriority() *int { return t.Priority }

// SortName implements Ranked.
func (c Configuration) SortName() string { return c.Name }

// SortPriority implements Ranked using the debug priority.
func (c Configuration) SortPriority() *int { return c.DebugPriority }

// SortName implements Ranked.
func (c WorkspaceConfig) SortName() string { return c.Name }

// SortPriority implements Ranked using the configuration priority.
func (c WorkspaceConfig) SortPriority() *int { return c.ConfigurationPriority }

// PriorityOf returns the explicit priority of r, or 0 when it has none.
func PriorityOf(r Ranked) int {
	if p := r.SortPriority(); p != nil {
		return *p
	}
	return 0
}

// ComparePriority orders by descending priority (missing counts as 0) and then
// by ascending, case-sensitive name.
func ComparePriority[T Ranked](a, b T) int {
	if c := cmp.Compare(PriorityOf(b), PriorityOf(a)); c != 0 {
		return c
	}
	return cmp.Compare(a.SortName(), b.SortName())
}

// SortByPriority returns a sorted copy of items. The input is left untouched.
func SortByPriority[T Ranked](items []T) []T {
	sorted := slices.Clone(items)
	if sorted == nil {
		sorted = []T{}
	}
	slices.SortStableFunc(sorted, ComparePriority[T])
	return sorted
}
