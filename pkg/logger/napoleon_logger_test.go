package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := stdOut
	stdOut = &buf
	t.Cleanup(func() { stdOut = prev })
	return &buf
}

func decodeLine(t *testing.T, line string) map[string]any {
	t.Helper()
	var event map[string]any
	if err := json.Unmarshal([]byte(line), &event); err != nil {
		t.Fatalf("log line is not valid JSON: %v\n%s", err, line)
	}
	return event
}

func TestLevelFiltering(t *testing.T) {
	buf := captureOutput(t)
	l := &Logger{level: LevelWarn, service: "test"}

	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("visible")
	l.Error("visible too")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), buf.String())
	}
	if event := decodeLine(t, lines[0]); event["level"] != "WARN" {
		t.Errorf("level = %v, want WARN", event["level"])
	}
}

func TestBoundFieldsAtTopLevel(t *testing.T) {
	buf := captureOutput(t)
	l := &Logger{level: LevelDebug, service: "test"}

	l.WithField("message_id", 42).
		WithFields(map[string]any{"user_id": "u-1"}).
		Info("processed %d of %d", 3, 5)

	event := decodeLine(t, strings.TrimSpace(buf.String()))
	if event["msg"] != "processed 3 of 5" {
		t.Errorf("msg = %v", event["msg"])
	}
	if event["message_id"] != float64(42) {
		t.Errorf("message_id = %v, want 42", event["message_id"])
	}
	if event["user_id"] != "u-1" {
		t.Errorf("user_id = %v, want u-1", event["user_id"])
	}
	if event["service"] != "test" {
		t.Errorf("service = %v, want test", event["service"])
	}
}

func TestWithFieldDoesNotMutateParent(t *testing.T) {
	buf := captureOutput(t)
	parent := &Logger{level: LevelDebug, service: "test"}

	parent.WithField("scoped", true)
	parent.Info("plain")

	event := decodeLine(t, strings.TrimSpace(buf.String()))
	if _, ok := event["scoped"]; ok {
		t.Error("field bound on a child leaked into the parent logger")
	}
}

func TestWithError(t *testing.T) {
	buf := captureOutput(t)
	l := &Logger{level: LevelDebug, service: "test"}

	l.WithError(errors.New("boom")).Warn("store write failed")
	event := decodeLine(t, strings.TrimSpace(buf.String()))
	if event["error"] != "boom" {
		t.Errorf("error = %v, want boom", event["error"])
	}

	buf.Reset()
	l.WithError(nil).Warn("no error attached")
	event = decodeLine(t, strings.TrimSpace(buf.String()))
	if _, ok := event["error"]; ok {
		t.Error("nil error must not bind an error field")
	}
}

func TestErrorLinesCarryCaller(t *testing.T) {
	buf := captureOutput(t)
	l := &Logger{level: LevelDebug, service: "test"}

	l.Info("info line")
	l.Error("error line")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if _, ok := decodeLine(t, lines[0])["caller"]; ok {
		t.Error("info lines should not carry a caller")
	}
	caller, ok := decodeLine(t, lines[1])["caller"].(string)
	if !ok || !strings.Contains(caller, "napoleon_logger_test.go:") {
		t.Errorf("caller = %v, want this test file with a line number", caller)
	}
}
