package config

import (
	"os"
	"path/filepath"
)

const envHome = "FLOWDSL_HOME"

// Home is the flowdsl home directory. It holds extra step catalogs under
// catalog/ and check reports under reports/.
type Home struct {
	Dir string
}

// ResolveHome finds the home directory. The first of these wins:
//  1. the config's home setting, relative to the config file
//  2. $FLOWDSL_HOME
//  3. <prefix> when the binary runs from <prefix>/bin
//  4. <user config dir>/flowdsl, when it exists
//  5. the current working directory
func ResolveHome(cfg *Config) Home {
	if cfg != nil && cfg.Home != "" {
		dir := cfg.Home
		if !filepath.IsAbs(dir) && cfg.dir != "" {
			dir = filepath.Join(cfg.dir, dir)
		}
		return Home{Dir: filepath.Clean(dir)}
	}
	if env := os.Getenv(envHome); env != "" {
		return Home{Dir: env}
	}
	if dir, ok := binaryPrefix(); ok {
		return Home{Dir: dir}
	}
	if base, err := os.UserConfigDir(); err == nil {
		dir := filepath.Join(base, "flowdsl")
		if isDir(dir) {
			return Home{Dir: dir}
		}
	}
	if cwd, err := os.Getwd(); err == nil {
		return Home{Dir: cwd}
	}
	return Home{Dir: "."}
}

// CatalogDir returns <home>/catalog.
func (h Home) CatalogDir() string {
	return filepath.Join(h.Dir, "catalog")
}

// ReportsDir returns <home>/reports, the default location of check reports.
func (h Home) ReportsDir() string {
	return filepath.Join(h.Dir, "reports")
}

// CatalogDirs returns the step catalog directories to load: the home
// catalog when it exists, then extra in order.
func (h Home) CatalogDirs(extra []string) []string {
	var dirs []string
	if isDir(h.CatalogDir()) {
		dirs = append(dirs, h.CatalogDir())
	}
	return append(dirs, extra...)
}

func binaryPrefix() (string, bool) {
	execPath, err := os.Executable()
	if err != nil {
		return "", false
	}
	if resolved, err := filepath.EvalSymlinks(execPath); err == nil {
		execPath = resolved
	}
	binDir := filepath.Dir(execPath)
	if filepath.Base(binDir) != "bin" {
		return "", false
	}
	return filepath.Dir(binDir), true
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
