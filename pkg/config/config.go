// Package config handles workspace configuration for flowdsl.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/devicelab-dev/flowdsl/pkg/core"
)

// Config represents the workspace configuration (config.yaml).
type Config struct {
	// Home directory holding catalog/ and reports/, see ResolveHome
	Home string `yaml:"home"`

	// Conversion
	DSL         string   `yaml:"dsl"`         // Default dialect hint
	CatalogDirs []string `yaml:"catalogDirs"` // Extra step catalog directories

	// File selection for batch commands
	Include []string `yaml:"include"` // Glob patterns matched against file names
	Exclude []string `yaml:"exclude"` // Glob patterns to skip

	// Output
	LogFile     string `yaml:"logFile"`
	LogLevel    string `yaml:"logLevel"`
	MetricsFile string `yaml:"metricsFile"` // Prometheus textfile export
	Parallel    int    `yaml:"parallel"`    // Batch worker limit, 0 = GOMAXPROCS

	dir string // Directory of the loaded file
}

// Load loads configuration from a file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided config file
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.dir = filepath.Dir(path)
	return &cfg, nil
}

// LoadFromDir looks for config.yaml or config.yml in the directory.
func LoadFromDir(dir string) (*Config, error) {
	// Try config.yaml first
	configPath := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(configPath); err == nil {
		return Load(configPath)
	}

	// Try config.yml
	configPath = filepath.Join(dir, "config.yml")
	if _, err := os.Stat(configPath); err == nil {
		return Load(configPath)
	}

	// No config file found, return empty config
	return &Config{}, nil
}

// Validate checks values that cannot be fixed up by defaults.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		return core.ErrInvalidConfig.WithMessage(fmt.Sprintf("unknown logLevel %q", c.LogLevel))
	}
	if c.Parallel < 0 {
		return core.ErrInvalidConfig.WithMessage(fmt.Sprintf("parallel must be >= 0, got %d", c.Parallel))
	}
	for _, p := range append(append([]string{}, c.Include...), c.Exclude...) {
		if _, err := filepath.Match(p, ""); err != nil {
			return core.ErrInvalidConfig.WithMessage(fmt.Sprintf("bad pattern %q", p)).WithCause(err)
		}
	}
	return nil
}

// Selects reports whether a file name passes the include/exclude patterns.
// An empty include list selects everything.
func (c *Config) Selects(name string) bool {
	base := filepath.Base(name)
	for _, p := range c.Exclude {
		if ok, _ := filepath.Match(p, base); ok {
			return false
		}
	}
	if len(c.Include) == 0 {
		return true
	}
	for _, p := range c.Include {
		if ok, _ := filepath.Match(p, base); ok {
			return true
		}
	}
	return false
}
