// SPDX-License-Identifier: MPL-2.0

// Package descriptor reads build-system JSON descriptors.
//
// Reading is best effort. A Reader never fails a Load: a missing file yields
// an empty Document, a malformed one yields an empty Document carrying the
// parse error, and each field accessor treats a value of the wrong type as
// absent. Descriptors are parsed as strict JSON through CUE so that the same
// value can be checked against the embedded schema (schema.cue) for warnings.
package descriptor
