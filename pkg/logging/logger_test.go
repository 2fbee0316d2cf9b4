package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"DEBUG", DebugLevel},
		{"debug", DebugLevel},
		{" info ", InfoLevel},
		{"WARN", WarnLevel},
		{"warning", WarnLevel},
		{"error", ErrorLevel},
		{"verbose", InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []LogEntry {
	t.Helper()
	var entries []LogEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var e LogEntry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			t.Fatalf("invalid JSON line %q: %v", line, err)
		}
		entries = append(entries, e)
	}
	return entries
}

func TestJSONLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, WarnLevel)

	logger.Debug("parsed record")
	logger.Info("instance done")
	logger.Warn("record skipped", Instance("instance_3"), Line(42), Token("1.2.3"))
	logger.Error("instance aborted", Error(errors.New("empty trace")))

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Level != "WARN" || entries[0].Message != "record skipped" {
		t.Errorf("unexpected first entry: %+v", entries[0])
	}
	if entries[0].Fields["instance"] != "instance_3" {
		t.Errorf("instance field = %v", entries[0].Fields["instance"])
	}
	if entries[0].Fields["line"] != float64(42) {
		t.Errorf("line field = %v", entries[0].Fields["line"])
	}
	if entries[1].Fields["error"] != "empty trace" {
		t.Errorf("error field = %v", entries[1].Fields["error"])
	}
}

func TestJSONLogger_With(t *testing.T) {
	var buf bytes.Buffer
	parent := NewJSONLogger(&buf, DebugLevel)
	child := parent.With(Component("pipeline"), RunID("r-1"))

	child.Info("start", Count(3))
	parent.Info("plain")

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Fields["component"] != "pipeline" || entries[0].Fields["run_id"] != "r-1" {
		t.Errorf("child fields missing: %+v", entries[0].Fields)
	}
	if entries[0].Fields["count"] != float64(3) {
		t.Errorf("count field = %v", entries[0].Fields["count"])
	}
	if entries[1].Fields != nil {
		t.Errorf("parent should not inherit child fields: %+v", entries[1].Fields)
	}
}

func TestTimedOperation(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	op := StartTimer(logger, "build trace", Instance("instance_1"))
	time.Sleep(time.Millisecond)
	op.End(NodeID(7))

	entries := decodeLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if _, ok := entries[0].Fields["latency"]; !ok {
		t.Error("latency field missing")
	}
	if entries[0].Fields["node_id"] != float64(7) {
		t.Errorf("node_id = %v", entries[0].Fields["node_id"])
	}
}

func TestOrDefault(t *testing.T) {
	nop := NewNopLogger()
	if OrDefault(nop) != nop {
		t.Error("OrDefault should keep a non-nil logger")
	}
	if OrDefault(nil) == nil {
		t.Error("OrDefault(nil) should return the default logger")
	}
}
