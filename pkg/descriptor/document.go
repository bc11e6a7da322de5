// SPDX-License-Identifier: MPL-2.0

package descriptor

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/malterlib/buildscan/pkg/cueutil"
)

const (
	// KindGenerator checks a Generator.json descriptor.
	KindGenerator Kind = "#Generator"
	// KindWorkspace checks a Workspace.json descriptor.
	KindWorkspace Kind = "#Workspace"
	// KindWorkspaceConfig checks a workspace-level Configs/<name>.json descriptor.
	KindWorkspaceConfig Kind = "#WorkspaceConfig"
	// KindTarget checks a Targets/<name>.json descriptor.
	KindTarget Kind = "#Target"
	// KindTargetConfig checks a target-level Configs/<name>.json descriptor.
	KindTargetConfig Kind = "#TargetConfig"
)

type (
	// Kind names a schema definition in schema.cue.
	Kind string

	// Document is one parsed descriptor. The zero-field document (missing or
	// malformed file) answers every accessor with "absent".
	Document struct {
		path   string
		reader *Reader
		exists bool
		err    error
		value  cue.Value
	}
)

// Path returns the file path the document was loaded from.
func (d *Document) Path() string { return d.path }

// Exists reports whether the file was present when loaded.
func (d *Document) Exists() bool { return d.exists }

// Err returns the read or parse error, if any.
func (d *Document) Err() error { return d.err }

// OK reports whether the file exists and parsed as JSON.
func (d *Document) OK() bool { return d.exists && d.err == nil }

func (d *Document) lookup(name string) (cue.Value, bool) {
	if !d.OK() {
		return cue.Value{}, false
	}
	v := d.value.LookupPath(cue.MakePath(cue.Str(name)))
	if !v.Exists() || v.IsNull() {
		return cue.Value{}, false
	}
	return v, true
}

// Int returns the integer field name, or nil when it is absent or not an integer.
func (d *Document) Int(name string) *int {
	d.reader.mu.Lock()
	defer d.reader.mu.Unlock()

	v, ok := d.lookup(name)
	if !ok {
		return nil
	}
	n, err := v.Int64()
	if err != nil {
		d.reader.logger.Debug("ignoring non-integer field", "path", d.path, "field", name, "error", err)
		return nil
	}
	i := int(n)
	return &i
}

// String returns the string field name, or "" when it is absent or not a string.
func (d *Document) String(name string) string {
	d.reader.mu.Lock()
	defer d.reader.mu.Unlock()

	v, ok := d.lookup(name)
	if !ok {
		return ""
	}
	s, err := v.String()
	if err != nil {
		d.reader.logger.Debug("ignoring non-string field", "path", d.path, "field", name, "error", err)
		return ""
	}
	return s
}

// Strings returns the string-list field name, or nil when it is absent or not
// a list. Non-string elements are skipped.
func (d *Document) Strings(name string) []string {
	d.reader.mu.Lock()
	defer d.reader.mu.Unlock()

	v, ok := d.lookup(name)
	if !ok {
		return nil
	}
	iter, err := v.List()
	if err != nil {
		d.reader.logger.Debug("ignoring non-list field", "path", d.path, "field", name, "error", err)
		return nil
	}
	out := []string{}
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			d.reader.logger.Debug("ignoring non-string element", "path", d.path, "field", name, "error", err)
			continue
		}
		out = append(out, s)
	}
	return out
}

// Check validates the document against the schema for kind. Missing and
// malformed documents are not checked.
func (d *Document) Check(kind Kind) error {
	if !d.OK() {
		return nil
	}
	d.reader.mu.Lock()
	defer d.reader.mu.Unlock()

	if d.value.IncompleteKind() != cue.StructKind {
		return fmt.Errorf("%s: expected a JSON object", d.path)
	}
	return cueutil.Validate(d.reader.schema, string(kind), d.value, d.path)
}
