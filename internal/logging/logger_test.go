package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestConsoleHandlerFormatsComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "debug", Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	NewComponentLogger(logger, "identify").Info("provider attempt failed",
		String(FieldProvider, "acrcloud"),
		Int(FieldSegment, 4),
		Error(errors.New("timed out")),
	)

	got := buf.String()
	if !strings.Contains(got, "INFO identify: provider attempt failed") {
		t.Fatalf("missing component prefix:\n%s", got)
	}
	if !strings.Contains(got, "provider=acrcloud") || !strings.Contains(got, "segment=4") {
		t.Fatalf("missing fields:\n%s", got)
	}
	if !strings.Contains(got, `error="timed out"`) {
		t.Fatalf("missing quoted error:\n%s", got)
	}
}

func TestConsoleHandlerHonorsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "warn", Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("hidden")
	logger.Warn("visible")

	got := buf.String()
	if strings.Contains(got, "hidden") {
		t.Fatalf("info line emitted at warn level:\n%s", got)
	}
	if !strings.Contains(got, "visible") {
		t.Fatalf("warn line missing:\n%s", got)
	}
}

func TestJSONHandlerEmitsStructuredRecords(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	NewComponentLogger(logger, "pipeline").Info("run started", Int("segments", 12))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if record["msg"] != "run started" {
		t.Fatalf("msg %v, want run started", record["msg"])
	}
	if record["level"] != "info" {
		t.Fatalf("level %v, want info", record["level"])
	}
	if record[FieldComponent] != "pipeline" {
		t.Fatalf("component %v, want pipeline", record[FieldComponent])
	}
	if record["segments"] != float64(12) {
		t.Fatalf("segments %v, want 12", record["segments"])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := NewNop()
	// Must not panic and must stay disabled at every level.
	logger.Error("dropped", Error(nil))
	if logger.Enabled(context.Background(), 0) {
		t.Fatal("nop logger reports enabled")
	}
}
