package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitDiscardWithoutDirOrDebug(t *testing.T) {
	Init(Config{})
	defer Shutdown()

	// Must not panic; output goes nowhere
	Logger().Info("dropped")
	ForComponent(CompEngine).Warn("also dropped")
}

func TestInitWritesJSONWithComponent(t *testing.T) {
	dir := t.TempDir()
	Init(Config{LogDir: dir, Level: "debug", Debug: true})
	defer Shutdown()

	ForComponent(CompFetch).Info("fetch_done", "status", 200)

	data, err := os.ReadFile(filepath.Join(dir, "debug.log"))
	if err != nil {
		t.Fatalf("Read log: %v", err)
	}
	line := strings.TrimSpace(string(data))
	var record map[string]any
	if err := json.Unmarshal([]byte(strings.Split(line, "\n")[0]), &record); err != nil {
		t.Fatalf("Log line is not JSON: %v", err)
	}
	if record["component"] != CompFetch {
		t.Errorf("Expected component %q, got %v", CompFetch, record["component"])
	}
	if record["msg"] != "fetch_done" {
		t.Errorf("Expected msg fetch_done, got %v", record["msg"])
	}
}

func TestComponentLoggerCreatedBeforeInit(t *testing.T) {
	// Package-level pattern: logger exists before Init runs
	early := ForComponent(CompUI)

	dir := t.TempDir()
	Init(Config{LogDir: dir, Debug: true})
	defer Shutdown()

	early.Info("late_bound")

	data, err := os.ReadFile(filepath.Join(dir, "debug.log"))
	if err != nil {
		t.Fatalf("Read log: %v", err)
	}
	if !strings.Contains(string(data), "late_bound") {
		t.Error("Pre-Init component logger should use the post-Init handler")
	}
}

func TestDumpRingBuffer(t *testing.T) {
	dir := t.TempDir()
	Init(Config{LogDir: dir, Debug: true})
	defer Shutdown()

	Logger().Info("crash_context")

	dumpPath := filepath.Join(dir, "crash.log")
	if err := DumpRingBuffer(dumpPath); err != nil {
		t.Fatalf("DumpRingBuffer: %v", err)
	}
	data, err := os.ReadFile(dumpPath)
	if err != nil {
		t.Fatalf("Read dump: %v", err)
	}
	if !strings.Contains(string(data), "crash_context") {
		t.Error("Dump should contain recent log output")
	}
}

func TestTextFormat(t *testing.T) {
	dir := t.TempDir()
	Init(Config{LogDir: dir, Format: "text", Debug: true})
	defer Shutdown()

	Logger().Info("hello")

	data, _ := os.ReadFile(filepath.Join(dir, "debug.log"))
	if strings.HasPrefix(strings.TrimSpace(string(data)), "{") {
		t.Error("Text format should not emit JSON")
	}
}
