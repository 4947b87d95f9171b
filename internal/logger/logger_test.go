package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"weaponcam/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"warn", LevelWarning},
		{"warning", LevelWarning},
		{"error", LevelError},
		{"", LevelInfo},
		{"verbose", LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.expected {
			t.Errorf("ParseLevel(%q) = %d, expected %d", tt.input, got, tt.expected)
		}
	}
}

func TestNew_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelWarning)

	l.Debug("debug %d", 1)
	l.Info("info %d", 2)
	l.Warning("warning %d", 3)
	l.Error("error %d", 4)

	out := buf.String()
	if strings.Contains(out, "debug 1") || strings.Contains(out, "info 2") {
		t.Errorf("Expected debug/info to be filtered, got: %s", out)
	}
	if !strings.Contains(out, "warning 3") || !strings.Contains(out, "error 4") {
		t.Errorf("Expected warning and error entries, got: %s", out)
	}
}

func TestNewLogger_WritesAndCleansFiles(t *testing.T) {
	dir := t.TempDir()
	l := NewLogger(&config.Config{LogDirectory: dir, LogLevel: "info"})

	l.Error("camera exploded")

	errorLog := filepath.Join(dir, "error.log")
	data, err := os.ReadFile(errorLog)
	if err != nil {
		t.Fatalf("Failed to read error log: %v", err)
	}
	if !strings.Contains(string(data), "camera exploded") {
		t.Errorf("Expected entry in error.log, got: %s", data)
	}

	l.CleanLogs("error.log")

	data, err = os.ReadFile(errorLog)
	if err != nil {
		t.Fatalf("Failed to read error log: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("Expected error.log to be truncated, got %d bytes", len(data))
	}
}
