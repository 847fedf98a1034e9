package logging

import (
	"os"
	"path/filepath"
	"testing"
)

func writeLoggingConfig(t *testing.T, ws, content string) {
	t.Helper()
	dir := filepath.Join(ws, ".focusroom")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestInitializeWithoutConfigIsSilent(t *testing.T) {
	ws := t.TempDir()
	if err := Initialize(ws); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	defer CloseAll()

	if IsDebugMode() {
		t.Error("debug mode should be off without a config file")
	}

	// Logging must be a no-op, not a crash.
	Room("room event %d", 1)
	Engine("engine event")

	if _, err := os.Stat(filepath.Join(ws, ".focusroom", "logs")); !os.IsNotExist(err) {
		t.Error("logs directory should not be created in production mode")
	}
}

func TestInitializeDebugModeWritesCategoryFiles(t *testing.T) {
	ws := t.TempDir()
	writeLoggingConfig(t, ws, "logging:\n  debug_mode: true\n  level: debug\n")

	if err := Initialize(ws); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	defer CloseAll()

	if !IsDebugMode() {
		t.Fatal("debug mode should be on")
	}

	Session("persisted %d exchanges", 4)
	CloseAll()

	matches, err := filepath.Glob(filepath.Join(ws, ".focusroom", "logs", "*_session.log"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("session log not written (matches=%v, err=%v)", matches, err)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatal(err)
	}
	if len(data) == 0 {
		t.Error("session log is empty")
	}
}

func TestCategoryGating(t *testing.T) {
	ws := t.TempDir()
	writeLoggingConfig(t, ws, `logging:
  debug_mode: true
  categories:
    engine: false
    room: true
`)

	if err := Initialize(ws); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	defer CloseAll()

	if IsCategoryEnabled(CategoryEngine) {
		t.Error("engine category should be disabled")
	}
	if !IsCategoryEnabled(CategoryRoom) {
		t.Error("room category should be enabled")
	}
	if !IsCategoryEnabled(CategoryImage) {
		t.Error("unlisted categories default to enabled")
	}
}

func TestTimerStopDoesNotPanicWhenDisabled(t *testing.T) {
	ws := t.TempDir()
	if err := Initialize(ws); err != nil {
		t.Fatal(err)
	}
	defer CloseAll()

	timer := StartTimer(CategoryEngine, "turn")
	if d := timer.Stop(); d < 0 {
		t.Error("negative duration")
	}
}
