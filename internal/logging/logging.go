// SPDX-License-Identifier: MPL-2.0

// Package logging builds the charmbracelet/log logger shared by every
// buildscan component.
package logging

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// Prefix tags every log line.
const Prefix = "buildscan"

// Options configures New.
type Options struct {
	// Level is the minimum level written.
	Level log.Level
	// Verbose forces debug level and caller reporting.
	Verbose bool
	// Timestamps adds a time to every line, for long-running commands.
	Timestamps bool
}

// New returns a logger writing to w. A nil w discards everything.
func New(w io.Writer, opts Options) *log.Logger {
	if w == nil {
		w = io.Discard
	}
	level := opts.Level
	if opts.Verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		Prefix:          Prefix,
		Level:           level,
		ReportTimestamp: opts.Timestamps,
		TimeFormat:      time.TimeOnly,
		ReportCaller:    opts.Verbose,
	})
}

// Discard returns a logger that drops every message.
func Discard() *log.Logger {
	return log.New(io.Discard)
}
