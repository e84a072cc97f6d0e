package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileName is the name of the report index inside the output directory.
const FileName = "report.json"

// Write stores the index as report.json under outputDir and returns its
// path. The directory is created if needed.
func Write(outputDir string, index *Index) (string, error) {
	if err := ensureDir(outputDir); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	path := filepath.Join(outputDir, FileName)
	if err := atomicWriteJSON(path, index); err != nil {
		return "", fmt.Errorf("write index: %w", err)
	}
	return path, nil
}

// ReadIndex loads a report index.
func ReadIndex(path string) (*Index, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- report path from caller
	if err != nil {
		return nil, err
	}
	var index Index
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &index, nil
}

func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

// atomicWriteJSON writes to a temp file in the same directory and renames
// it over path.
func atomicWriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".report-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
