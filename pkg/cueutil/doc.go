// SPDX-License-Identifier: MPL-2.0

// Package cueutil provides shared CUE helpers for descriptor and configuration
// loading.
//
// Both users follow the same flow:
//
//  1. Guard the input size (CheckFileSize)
//  2. Turn the bytes into a cue.Value (ExtractJSON for descriptors, CompileBytes for config)
//  3. Unify with an embedded schema definition and validate (Validate)
//
// Errors coming out of CUE are rewritten by FormatError into
// "<file>: <json-path>: <message>" so they read well in logs and CLI output.
package cueutil
