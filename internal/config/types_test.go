// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"testing"

	"github.com/charmbracelet/log"
)

func TestLogLevel_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value LogLevel
		want  bool
		level log.Level
	}{
		{LogLevelDebug, true, log.DebugLevel},
		{LogLevelInfo, true, log.InfoLevel},
		{LogLevelWarn, true, log.WarnLevel},
		{LogLevelError, true, log.ErrorLevel},
		{"trace", false, log.InfoLevel},
		{"", false, log.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(string(tt.value), func(t *testing.T) {
			t.Parallel()

			valid, errs := tt.value.IsValid()
			if valid != tt.want {
				t.Errorf("IsValid() = %v, want %v", valid, tt.want)
			}
			if !valid && (len(errs) != 1 || !errors.Is(errs[0], ErrInvalidLogLevel)) {
				t.Errorf("errors = %v, want one ErrInvalidLogLevel", errs)
			}
			if got := tt.value.Level(); got != tt.level {
				t.Errorf("Level() = %v, want %v", got, tt.level)
			}
		})
	}
}

func TestColorScheme_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value ColorScheme
		want  bool
		style string
	}{
		{ColorSchemeAuto, true, "auto"},
		{ColorSchemeDark, true, "dark"},
		{ColorSchemeLight, true, "light"},
		{"neon", false, "auto"},
	}

	for _, tt := range tests {
		t.Run(string(tt.value), func(t *testing.T) {
			t.Parallel()

			valid, errs := tt.value.IsValid()
			if valid != tt.want {
				t.Errorf("IsValid() = %v, want %v", valid, tt.want)
			}
			if !valid && !errors.Is(errs[0], ErrInvalidColorScheme) {
				t.Errorf("error = %v, want ErrInvalidColorScheme", errs[0])
			}
			if got := tt.value.GlamourStyle(); got != tt.style {
				t.Errorf("GlamourStyle() = %q, want %q", got, tt.style)
			}
		})
	}
}

func TestConfig_IsValid_CollectsFieldErrors(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.LogLevel = "loud"
	cfg.DescriptorCacheSize = -1
	cfg.Watch.Debounce = -1
	cfg.Watch.Ignore = []string{" "}
	cfg.UI.ColorScheme = "neon"

	valid, errs := cfg.IsValid()
	if valid {
		t.Fatal("expected invalid config")
	}
	var cfgErr *InvalidConfigError
	if !errors.As(errs[0], &cfgErr) {
		t.Fatalf("error should be *InvalidConfigError, got %T", errs[0])
	}
	// log level, cache size, watch (one wrapped error), color scheme
	if len(cfgErr.FieldErrors) != 4 {
		t.Errorf("got %d field errors, want 4: %v", len(cfgErr.FieldErrors), cfgErr.FieldErrors)
	}
	if !errors.Is(errs[0], ErrInvalidConfig) {
		t.Error("error should wrap ErrInvalidConfig")
	}

	var watchErr *InvalidWatchConfigError
	if !errors.As(cfgErr.FieldErrors[2], &watchErr) || len(watchErr.FieldErrors) != 2 {
		t.Errorf("watch error = %v, want two field errors", cfgErr.FieldErrors[2])
	}
}
