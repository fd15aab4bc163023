package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

// TestSecureHandlerMasksSensitiveKeys tests redaction by attribute key.
func TestSecureHandlerMasksSensitiveKeys(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		key  string
		want bool // want masked
	}{
		{"authorization header", "authorization", true},
		{"bearer token key", "bearer_token", true},
		{"credential key", "credential", true},
		{"embedded token keyword", "oauth_token_value", true},
		{"auth keyword", "auth_header", true},
		{"actor id is not masked", "actor_id", false},
		{"seed actor id is not masked", "seed_actor_id", false},
		{"follower count is not masked", "follower_count", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := slog.New(NewSecureHandler(slog.NewTextHandler(&buf, nil)))

			logger.Info("test", tt.key, "1234567890")

			got := strings.Contains(buf.String(), MaskValue)
			if got != tt.want {
				t.Errorf("key %q: masked = %v, want %v (output: %s)",
					tt.key, got, tt.want, buf.String())
			}
		})
	}
}

// TestSecureHandlerMasksSensitiveValues tests redaction by value pattern.
func TestSecureHandlerMasksSensitiveValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{
			name:  "bearer prefixed value",
			value: "Bearer AAAAAAAAAAAAAAAAAAAAA",
			want:  true,
		},
		{
			name:  "jwt value",
			value: "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxIn0.abc",
			want:  true,
		},
		{
			name:  "long opaque oauth credential",
			value: strings.Repeat("A", 25) + "%3D" + strings.Repeat("b", 25),
			want:  true,
		},
		{
			name:  "numeric actor id",
			value: "1234567890123456789",
			want:  false,
		},
		{
			name:  "handle",
			value: "some_handle",
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := slog.New(NewSecureHandler(slog.NewTextHandler(&buf, nil)))

			logger.Info("test", "value", tt.value)

			got := strings.Contains(buf.String(), MaskValue)
			if got != tt.want {
				t.Errorf("value %q: masked = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

// TestSecureHandlerGroups tests that attributes inside groups are sanitized.
func TestSecureHandlerGroups(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewSecureHandler(slog.NewTextHandler(&buf, nil)))

	logger.Info("test",
		slog.Group("request",
			slog.String("authorization", "Bearer abc"),
			slog.String("actor_id", "42"),
		),
	)

	out := buf.String()
	if !strings.Contains(out, MaskValue) {
		t.Error("expected authorization inside group to be masked")
	}
	if strings.Contains(out, "Bearer abc") {
		t.Error("credential leaked through group attribute")
	}
	if !strings.Contains(out, "42") {
		t.Error("non-sensitive group attribute should pass through")
	}
}

// TestSecureHandlerWithAttrs tests that pre-bound attributes are sanitized.
func TestSecureHandlerWithAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewSecureHandler(slog.NewTextHandler(&buf, nil)))

	bound := logger.With("credential", "super-secret-value")
	bound.Info("test")

	if strings.Contains(buf.String(), "super-secret-value") {
		t.Error("credential leaked through With()")
	}
}

// TestNewSecureLogger tests the convenience constructor levels.
func TestNewSecureLogger(t *testing.T) {
	t.Parallel()

	t.Run("default level suppresses info", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewSecureLogger(&buf, false)

		logger.Info("should not appear")
		if buf.Len() != 0 {
			t.Errorf("expected no output at info level, got %q", buf.String())
		}
	})

	t.Run("verbose enables debug", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewSecureLogger(&buf, true)

		logger.Debug("debug message")
		if !strings.Contains(buf.String(), "debug message") {
			t.Error("expected debug output in verbose mode")
		}
	})
}
