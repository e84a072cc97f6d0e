package report

import (
	"time"

	"github.com/devicelab-dev/flowdsl/pkg/validator"
)

// BuilderConfig holds run information not present in the check result.
type BuilderConfig struct {
	Source        string
	Hint          string
	RunnerName    string
	RunnerVersion string
	StartTime     time.Time
	EndTime       time.Time
}

// Build creates the report index of a check run.
func Build(result *validator.Result, cfg BuilderConfig) *Index {
	index := &Index{
		Version:   Version,
		StartTime: cfg.StartTime,
		Runner: RunnerInfo{
			Name:    cfg.RunnerName,
			Version: cfg.RunnerVersion,
		},
		Source: cfg.Source,
		Hint:   cfg.Hint,
		Files:  make([]FileEntry, 0, len(result.Checks)),
	}
	if !cfg.EndTime.IsZero() {
		end := cfg.EndTime
		index.EndTime = &end
	}

	for i, c := range result.Checks {
		index.Files = append(index.Files, buildEntry(i, c))
	}

	// Errors not attached to a checked file, such as an unreadable path.
	attached := make(map[error]bool)
	for _, c := range result.Checks {
		if c.Err != nil {
			attached[c.Err] = true
		}
	}
	for _, err := range result.Errors {
		if !attached[err] {
			index.Errors = append(index.Errors, err.Error())
		}
	}

	index.Summary = computeSummary(index.Files)
	index.Status = computeRunStatus(index)
	return index
}

func buildEntry(i int, c validator.FileResult) FileEntry {
	e := FileEntry{
		Index:        i,
		File:         c.File,
		DSL:          c.DSL,
		Flows:        c.Flows,
		HintMismatch: c.HintMismatch,
		Status:       StatusPassed,
		Duration:     c.Duration.Milliseconds(),
		Similarity:   c.Similarity,
	}
	if c.Err != nil {
		e.Status = StatusFailed
		msg := c.Err.Message
		e.Error = &msg
		e.Diff = c.Err.Diff
	}
	return e
}

// computeSummary calculates summary from file entries.
func computeSummary(files []FileEntry) Summary {
	s := Summary{ByDialect: make(map[string]int)}
	for _, f := range files {
		s.Total++
		s.Flows += f.Flows
		switch f.Status {
		case StatusPassed:
			s.Passed++
		case StatusFailed:
			s.Failed++
		}
		if f.DSL == "" {
			s.Unrecognized++
		} else {
			s.ByDialect[f.DSL]++
		}
		if f.HintMismatch {
			s.HintMismatch++
		}
	}
	return s
}

// computeRunStatus determines overall run status.
func computeRunStatus(index *Index) Status {
	if len(index.Errors) > 0 || index.Summary.Failed > 0 {
		return StatusFailed
	}
	return StatusPassed
}
