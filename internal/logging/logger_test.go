package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"", slog.LevelInfo},
		{"INFO", slog.LevelInfo},
		{" warn ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if err != nil {
			t.Errorf("ParseLevel(%q): unexpected error %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q): expected %v, got %v", tt.in, tt.want, got)
		}
	}

	if _, err := ParseLevel("chatty"); err == nil {
		t.Error("Expected error for unknown level")
	}
}

func TestNewFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelWarn)

	logger.Info("[Test] hidden")
	logger.Warn("[Test] shown", slog.Int("chunk", 3))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("Info message should be filtered at warn level, got %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "chunk=3") {
		t.Errorf("Expected warn message with attribute, got %q", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("Non-terminal writer should not get color codes, got %q", out)
	}
}
