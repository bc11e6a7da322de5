// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"strings"
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

func TestFormatError(t *testing.T) {
	t.Parallel()

	t.Run("nil error returns nil", func(t *testing.T) {
		t.Parallel()

		if err := FormatError(nil, "Workspace.json"); err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})

	t.Run("non-CUE error is wrapped with filepath", func(t *testing.T) {
		t.Parallel()

		originalErr := errors.New("some error")
		err := FormatError(originalErr, "Workspace.json")
		if err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(err.Error(), "Workspace.json") {
			t.Errorf("error should contain filepath, got: %v", err)
		}
		if !errors.Is(err, originalErr) {
			t.Errorf("error should wrap the original, got: %v", err)
		}
	})
}

func TestFormatPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		path     []string
		expected string
	}{
		{name: "empty path", path: []string{}, expected: ""},
		{name: "single element", path: []string{"priority"}, expected: "priority"},
		{name: "nested path", path: []string{"watch", "debounce"}, expected: "watch.debounce"},
		{name: "array index", path: []string{"defaultDebugTargets", "0"}, expected: "defaultDebugTargets[0]"},
		{name: "nested arrays", path: []string{"items", "0", "values", "1"}, expected: "items[0].values[1]"},
		{name: "leading digits stay a field", path: []string{"0", "name"}, expected: "0.name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := formatPath(tt.path); got != tt.expected {
				t.Errorf("formatPath(%v) = %q, want %q", tt.path, got, tt.expected)
			}
		})
	}
}

func TestCheckFileSize(t *testing.T) {
	t.Parallel()

	if err := CheckFileSize(make([]byte, 10), 10, "Target.json"); err != nil {
		t.Errorf("at limit: unexpected error %v", err)
	}

	err := CheckFileSize(make([]byte, 11), 10, "Target.json")
	if err == nil {
		t.Fatal("over limit: expected error")
	}
	if !strings.Contains(err.Error(), "Target.json") || !strings.Contains(err.Error(), "exceeds maximum") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestExtractJSON(t *testing.T) {
	t.Parallel()

	t.Run("valid object", func(t *testing.T) {
		t.Parallel()

		ctx := cuecontext.New()

		v, err := ExtractJSON(ctx, []byte(`{"priority": 3, "platform": "Linux"}`), "Config.json")
		if err != nil {
			t.Fatalf("ExtractJSON() error = %v", err)
		}
		got, err := v.LookupPath(cue.ParsePath("priority")).Int64()
		if err != nil || got != 3 {
			t.Errorf("priority = %d, %v; want 3", got, err)
		}
	})

	t.Run("malformed JSON", func(t *testing.T) {
		t.Parallel()

		ctx := cuecontext.New()

		_, err := ExtractJSON(ctx, []byte(`{"priority": `), "Broken.json")
		if err == nil {
			t.Fatal("expected error for malformed JSON")
		}
		if !strings.Contains(err.Error(), "Broken.json") {
			t.Errorf("error should name the file, got: %v", err)
		}
	})

	t.Run("oversize input", func(t *testing.T) {
		t.Parallel()

		ctx := cuecontext.New()

		data := []byte(`"` + strings.Repeat("x", int(DefaultMaxFileSize)) + `"`)
		if _, err := ExtractJSON(ctx, data, "Huge.json"); err == nil {
			t.Fatal("expected size error")
		}
	})
}

func TestValidate(t *testing.T) {
	t.Parallel()

	ctx := cuecontext.New()
	schema := ctx.CompileString(`#Thing: { priority?: int, ... }`)

	good, err := ExtractJSON(ctx, []byte(`{"priority": 1, "extra": true}`), "good.json")
	if err != nil {
		t.Fatal(err)
	}
	if err := Validate(schema, "#Thing", good, "good.json"); err != nil {
		t.Errorf("Validate(good) = %v, want nil", err)
	}

	bad, err := ExtractJSON(ctx, []byte(`{"priority": "high"}`), "bad.json")
	if err != nil {
		t.Fatal(err)
	}
	err = Validate(schema, "#Thing", bad, "bad.json")
	if err == nil {
		t.Fatal("Validate(bad) = nil, want error")
	}
	if !strings.Contains(err.Error(), "bad.json") || !strings.Contains(err.Error(), "priority") {
		t.Errorf("error should name file and field, got: %v", err)
	}

	if err := Validate(schema, "#Missing", good, "good.json"); err == nil {
		t.Error("Validate with unknown definition should fail")
	}
}
