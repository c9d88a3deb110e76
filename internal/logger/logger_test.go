package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"unknown": slog.LevelInfo,
	}

	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer

	log := New(Options{Writer: &buf, Level: "warn"})
	log.Info("hidden")
	log.Warn("shown", "source", "SEC")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("Expected info message to be filtered, got %q", out)
	}

	if !strings.Contains(out, "shown") || !strings.Contains(out, "source=SEC") {
		t.Errorf("Expected warn message with attribute, got %q", out)
	}

	buf.Reset()
	log.SetLevel("debug")
	log.Debug("now visible")

	if !strings.Contains(buf.String(), "now visible") {
		t.Errorf("Expected debug message after SetLevel, got %q", buf.String())
	}
}

func TestLogger_JSONFormatWith(t *testing.T) {
	var buf bytes.Buffer

	log := New(Options{Writer: &buf, Level: "info", Format: "json"}).With("run_id", "abc")
	log.Info("batch complete", "documents", 3)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Expected JSON log line, got %q: %v", buf.String(), err)
	}

	if entry["run_id"] != "abc" || entry["msg"] != "batch complete" {
		t.Errorf("Unexpected entry: %v", entry)
	}
}
