package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestSetup_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Setup("debug", "json", &buf); err != nil {
		t.Fatalf("Setup: %v", err)
	}

	slog.Debug("hello", "key", "value")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, buf.String())
	}
	if line["msg"] != "hello" || line["key"] != "value" {
		t.Errorf("log line = %v", line)
	}
}

func TestSetup_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	if err := Setup("warn", "json", &buf); err != nil {
		t.Fatalf("Setup: %v", err)
	}

	slog.Info("suppressed")
	if buf.Len() != 0 {
		t.Errorf("info line leaked through warn level: %s", buf.String())
	}

	slog.Warn("kept")
	if buf.Len() == 0 {
		t.Error("warn line missing")
	}
}

func TestSetup_Pretty(t *testing.T) {
	var buf bytes.Buffer
	if err := Setup("info", "pretty", &buf); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	slog.Info("colorful")
	if buf.Len() == 0 {
		t.Error("pretty handler wrote nothing")
	}
}

func TestSetup_Invalid(t *testing.T) {
	var buf bytes.Buffer
	if err := Setup("loud", "json", &buf); err == nil {
		t.Error("expected error for unknown level")
	}
	if err := Setup("info", "xml", &buf); err == nil {
		t.Error("expected error for unknown format")
	}
}
