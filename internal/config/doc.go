// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/buildscan/config.cue (or XDG equivalent on Linux,
// ~/Library/Application Support/buildscan/config.cue on macOS, %APPDATA%\buildscan\config.cue
// on Windows), or from an explicit file. Values are validated against the embedded
// config_schema.cue, then merged over the defaults. Environment variables prefixed with
// BUILDSCAN_ override file values, with "." in a key replaced by "_" (BUILDSCAN_WATCH_DEBOUNCE).
package config
