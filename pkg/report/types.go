// Package report writes the JSON report of a round-trip check run.
//
// The report is a single report.json index: run status, per-dialect
// summary and one entry per checked file. It is written atomically so
// consumers polling the file never see a partial document.
package report

import "time"

// Version is the report schema version.
const Version = "1.0.0"

// Status represents the outcome of a check.
type Status string

// Status values.
const (
	StatusPassed Status = "passed"
	StatusFailed Status = "failed"
)

// IsTerminal returns true if the status is a final state.
func (s Status) IsTerminal() bool {
	return s == StatusPassed || s == StatusFailed
}

// Index is the report file.
type Index struct {
	Version   string      `json:"version"`
	Status    Status      `json:"status"`
	StartTime time.Time   `json:"startTime"`
	EndTime   *time.Time  `json:"endTime,omitempty"`
	Runner    RunnerInfo  `json:"runner"`
	Source    string      `json:"source"` // File or directory that was checked
	Hint      string      `json:"hint,omitempty"`
	Summary   Summary     `json:"summary"`
	Files     []FileEntry `json:"files"`
	Errors    []string    `json:"errors,omitempty"` // Run-level errors not tied to a file
}

// RunnerInfo identifies the tool that produced the report.
type RunnerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Summary contains aggregated counts.
type Summary struct {
	Total        int            `json:"total"`
	Passed       int            `json:"passed"`
	Failed       int            `json:"failed"`
	Unrecognized int            `json:"unrecognized"`
	HintMismatch int            `json:"hintMismatch"`
	Flows        int            `json:"flows"`
	ByDialect    map[string]int `json:"byDialect"`
}

// FileEntry is the report entry for one checked file.
type FileEntry struct {
	Index        int     `json:"index"` // Position in discovery order
	File         string  `json:"file"`
	DSL          string  `json:"dsl,omitempty"`
	Flows        int     `json:"flows"`
	HintMismatch bool    `json:"hintMismatch,omitempty"`
	Status       Status  `json:"status"`
	Duration     int64   `json:"duration"` // milliseconds
	Similarity   float64 `json:"similarity"`
	Error        *string `json:"error,omitempty"`
	Diff         string  `json:"diff,omitempty"`
}
