package logging

import (
	"log/slog"
	"testing"

	"github.com/lockbridge/lockbridge/internal/infrastructure/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"nonsense", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNew(t *testing.T) {
	log := New(config.LoggingConfig{
		Level:  "debug",
		Format: "text",
		Output: "stderr",
	}, "test")

	if log == nil || log.Logger == nil {
		t.Fatal("New() returned nil logger")
	}

	if !log.Enabled(nil, slog.LevelDebug) {
		t.Error("debug level should be enabled")
	}
}

func TestNewFiltersBelowLevel(t *testing.T) {
	log := New(config.LoggingConfig{
		Level:  "error",
		Format: "json",
		Output: "stdout",
	}, "test")

	if log.Enabled(nil, slog.LevelInfo) {
		t.Error("info level should be filtered at error level")
	}
	if !log.Enabled(nil, slog.LevelError) {
		t.Error("error level should be enabled")
	}
}

func TestWith(t *testing.T) {
	log := Default()
	child := log.With("component", "network")

	if child == nil || child.Logger == nil {
		t.Fatal("With() returned nil logger")
	}
	if child == log {
		t.Error("With() should return a new logger")
	}
}

func TestDefault(t *testing.T) {
	log := Default()
	if log == nil {
		t.Fatal("Default() returned nil")
	}
	if !log.Enabled(nil, slog.LevelInfo) {
		t.Error("default logger should log at info level")
	}
}
