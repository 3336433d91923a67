package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/wonny/holdwatch/pkg/config"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse log output %q: %v", buf.String(), err)
	}
	return entry
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"invalid", zerolog.InfoLevel}, // Default
		{"", zerolog.InfoLevel},        // Default
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLogLevel(tt.input); got != tt.want {
				t.Errorf("parseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewWithWriter_LevelAndFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, &config.Config{Env: "development", LogLevel: "warn", LogFormat: "json"})

	log.Info("filtered out")
	if buf.Len() != 0 {
		t.Fatalf("Expected info to be filtered at warn level, got %q", buf.String())
	}

	log.Warn("kept")
	entry := decodeLine(t, &buf)
	if entry["message"] != "kept" {
		t.Errorf("Expected message 'kept', got %v", entry["message"])
	}
	if entry["env"] != "development" {
		t.Errorf("Expected env field, got %v", entry["env"])
	}
	if entry["service"] != "holdwatch" {
		t.Errorf("Expected service field, got %v", entry["service"])
	}
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, &config.Config{Env: "development", LogLevel: "info", LogFormat: "console"})
	log.Info("human readable")

	if !strings.Contains(buf.String(), "human readable") {
		t.Errorf("Expected console output to contain message, got %q", buf.String())
	}
}

func TestWithFieldsAndComponent(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, &config.Config{Env: "development", LogLevel: "debug"})

	log.Component("attribution").WithFields(map[string]interface{}{
		"code":   "AAPL",
		"active": 0.42,
	}).WithField("date", "2026-01-16").Debug("row classified")

	entry := decodeLine(t, &buf)
	if entry["component"] != "attribution" {
		t.Errorf("Expected component attribution, got %v", entry["component"])
	}
	if entry["code"] != "AAPL" {
		t.Errorf("Expected code AAPL, got %v", entry["code"])
	}
	if entry["active"] != 0.42 {
		t.Errorf("Expected active 0.42, got %v", entry["active"])
	}
	if entry["date"] != "2026-01-16" {
		t.Errorf("Expected date, got %v", entry["date"])
	}
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, &config.Config{Env: "development", LogLevel: "info"})

	log.WithError(errors.New("history file corrupt")).Errorf("load failed: %s", "history.json")

	entry := decodeLine(t, &buf)
	if entry["error"] != "history file corrupt" {
		t.Errorf("Expected error field, got %v", entry["error"])
	}
	if entry["message"] != "load failed: history.json" {
		t.Errorf("Expected formatted message, got %v", entry["message"])
	}
}

func TestNewNop(t *testing.T) {
	log := NewNop()
	// must not panic
	log.WithField("k", "v").Info("discarded")
	log.Warnf("discarded %d", 1)
}
