package main

import (
	"bytes"
	"strings"
	"testing"
)

// TestGetVersion tests version string resolution.
func TestGetVersion(t *testing.T) {
	t.Run("returns ldflags version when set", func(t *testing.T) {
		orig := version
		t.Cleanup(func() { version = orig })

		version = "1.2.3"
		if got := getVersion(); got != "1.2.3" {
			t.Errorf("getVersion() = %q, want 1.2.3", got)
		}
	})

	t.Run("never returns empty", func(t *testing.T) {
		orig := version
		t.Cleanup(func() { version = orig })

		version = ""
		if got := getVersion(); got == "" {
			t.Error("getVersion() returned empty string")
		}
	})
}

// TestVersionCmd tests the version command output.
func TestVersionCmd(t *testing.T) {
	var buf bytes.Buffer
	cmd := NewVersionCmd()
	cmd.SetOut(&buf)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "nexus version") {
		t.Errorf("expected version header, got %q", output)
	}
	if !strings.Contains(output, "commit:") {
		t.Error("expected commit line")
	}
	if !strings.Contains(output, "built:") {
		t.Error("expected build date line")
	}
}
