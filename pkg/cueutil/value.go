// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"

	"cuelang.org/go/cue"
	cuejson "cuelang.org/go/encoding/json"
)

// ExtractJSON parses data as strict JSON and builds it into a value owned by
// ctx. Syntax errors are returned through FormatError.
func ExtractJSON(ctx *cue.Context, data []byte, filename string) (cue.Value, error) {
	if err := CheckFileSize(data, DefaultMaxFileSize, filename); err != nil {
		return cue.Value{}, err
	}

	expr, err := cuejson.Extract(filename, data)
	if err != nil {
		return cue.Value{}, FormatError(err, filename)
	}

	v := ctx.BuildExpr(expr, cue.Filename(filename))
	if v.Err() != nil {
		return cue.Value{}, FormatError(v.Err(), filename)
	}
	return v, nil
}

// Validate unifies v with the named definition of schema and validates the
// result without requiring concrete values, so optional fields may be absent.
func Validate(schema cue.Value, definition string, v cue.Value, filename string) error {
	def := schema.LookupPath(cue.ParsePath(definition))
	if !def.Exists() {
		return fmt.Errorf("internal error: schema definition %s not found", definition)
	}
	if err := def.Unify(v).Validate(cue.Concrete(false)); err != nil {
		return FormatError(err, filename)
	}
	return nil
}
