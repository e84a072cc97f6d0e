package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/devicelab-dev/flowdsl/pkg/core"
)

func TestLoad_ValidConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")

	content := `
dsl: Kamelet Binding
catalogDirs:
  - ./steps
include:
  - "*.yaml"
exclude:
  - "*.draft.yaml"
logFile: flowdsl.log
logLevel: debug
metricsFile: flowdsl.prom
parallel: 4
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.DSL != "Kamelet Binding" {
		t.Errorf("expected dsl 'Kamelet Binding', got %q", cfg.DSL)
	}
	if len(cfg.CatalogDirs) != 1 || cfg.CatalogDirs[0] != "./steps" {
		t.Errorf("expected catalogDirs [./steps], got %v", cfg.CatalogDirs)
	}
	if len(cfg.Include) != 1 || cfg.Include[0] != "*.yaml" {
		t.Errorf("expected include [*.yaml], got %v", cfg.Include)
	}
	if len(cfg.Exclude) != 1 || cfg.Exclude[0] != "*.draft.yaml" {
		t.Errorf("expected exclude [*.draft.yaml], got %v", cfg.Exclude)
	}
	if cfg.LogFile != "flowdsl.log" || cfg.LogLevel != "debug" {
		t.Errorf("unexpected log settings %q %q", cfg.LogFile, cfg.LogLevel)
	}
	if cfg.MetricsFile != "flowdsl.prom" {
		t.Errorf("expected metricsFile flowdsl.prom, got %s", cfg.MetricsFile)
	}
	if cfg.Parallel != 4 {
		t.Errorf("expected parallel 4, got %d", cfg.Parallel)
	}
}

func TestLoad_NonExistentFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")

	content := `include: [invalid yaml`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"log level", "logLevel: loud"},
		{"parallel", "parallel: -1"},
		{"pattern", "include: ['[']"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(configPath, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := Load(configPath)
			if !errors.Is(err, core.ErrInvalidConfig) {
				t.Errorf("Load() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestLoad_EmptyConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(configPath, []byte(``), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cfg.Include) != 0 {
		t.Errorf("expected empty include, got %v", cfg.Include)
	}
}

func TestLoadFromDir_ConfigYaml(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`dsl: Integration`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.DSL != "Integration" {
		t.Errorf("expected dsl Integration, got %s", cfg.DSL)
	}
}

func TestLoadFromDir_ConfigYml(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yml"), []byte(`dsl: Kamelet`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.DSL != "Kamelet" {
		t.Errorf("expected dsl Kamelet, got %s", cfg.DSL)
	}
}

func TestLoadFromDir_NoConfig(t *testing.T) {
	cfg, err := LoadFromDir(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Should return empty config
	if cfg.DSL != "" {
		t.Errorf("expected empty dsl, got %s", cfg.DSL)
	}
}

func TestLoadFromDir_PrefersYamlOverYml(t *testing.T) {
	dir := t.TempDir()

	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`dsl: Integration`), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yml"), []byte(`dsl: Kamelet`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Should prefer config.yaml
	if cfg.DSL != "Integration" {
		t.Errorf("expected dsl Integration (from config.yaml), got %s", cfg.DSL)
	}
}

func TestSelects(t *testing.T) {
	cfg := &Config{Include: []string{"*.yaml"}, Exclude: []string{"*.draft.yaml"}}

	tests := []struct {
		name string
		want bool
	}{
		{"flows/binding.yaml", true},
		{"flows/binding.draft.yaml", false},
		{"flows/notes.txt", false},
	}
	for _, tt := range tests {
		if got := cfg.Selects(tt.name); got != tt.want {
			t.Errorf("Selects(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}

	if !(&Config{}).Selects("anything.yml") {
		t.Error("empty include should select everything")
	}
}
