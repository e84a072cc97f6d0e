package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInit_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flowdsl.log")
	if err := Init(path, "debug"); err != nil {
		t.Fatalf("Init: %v", err)
	}

	Info("converted %d flows", 2)
	Warn("hint %s did not match", "Integration")
	Debug("probe %s", "Kamelet")
	Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	for _, want := range []string{"converted 2 flows", "hint Integration did not match", "probe Kamelet"} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q:\n%s", want, out)
		}
	}
}

func TestInit_LevelFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flowdsl.log")
	if err := Init(path, "warn"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	Info("hidden")
	Error("shown")
	Close()

	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "hidden") {
		t.Errorf("info message should be filtered at warn level")
	}
	if !strings.Contains(string(data), "shown") {
		t.Errorf("error message should be logged")
	}
}

func TestInit_InvalidLevel(t *testing.T) {
	if err := Init("", "loud"); err == nil {
		t.Error("expected error for invalid level")
	}
}
