// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"errors"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "zero value", cfg: Config{}},
		{
			name: "all fields",
			cfg: Config{
				Root:     "/work/project",
				Ignore:   []string{"**/*.bak", "BuildSystem/*/Cache/**"},
				Debounce: time.Second,
			},
		},
		{name: "blank root", cfg: Config{Root: "   "}, wantErr: true},
		{name: "negative debounce", cfg: Config{Debounce: -time.Millisecond}, wantErr: true},
		{name: "empty ignore pattern", cfg: Config{Ignore: []string{""}}, wantErr: true},
		{name: "unterminated class", cfg: Config{Ignore: []string{"[abc"}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidWatchConfig) {
				t.Errorf("error should wrap ErrInvalidWatchConfig, got: %v", err)
			}
		})
	}
}

func TestConfigValidate_MultipleFieldErrors(t *testing.T) {
	t.Parallel()

	cfg := Config{
		Root:     " ",
		Ignore:   []string{"", "[x"},
		Debounce: -1,
	}

	var configErr *InvalidWatchConfigError
	if !errors.As(cfg.Validate(), &configErr) {
		t.Fatal("expected *InvalidWatchConfigError")
	}
	if len(configErr.FieldErrors) != 4 {
		t.Errorf("expected 4 field errors, got %d: %v", len(configErr.FieldErrors), configErr.FieldErrors)
	}
	if configErr.Error() == "" {
		t.Error("Error() returned empty string")
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{Ignore: []string{""}}); !errors.Is(err, ErrInvalidWatchConfig) {
		t.Errorf("New() error = %v, want ErrInvalidWatchConfig", err)
	}
}

func TestNewDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w, err := New(Config{Root: dir})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if w.Root() != dir {
		t.Errorf("Root() = %q, want %q", w.Root(), dir)
	}
	if w.cfg.Debounce != defaultDebounce {
		t.Errorf("Debounce = %v, want %v", w.cfg.Debounce, defaultDebounce)
	}
}
