package report

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/devicelab-dev/flowdsl/pkg/validator"
)

func sampleResult() *validator.Result {
	failure := &validator.ValidationError{File: "b.yaml", Message: "rendered text differs from source", Diff: "- a\n+ b\n"}
	unknown := &validator.ValidationError{File: "c.yaml", Message: "no dialect accepts this file"}
	return &validator.Result{
		Files: []string{"a.yaml", "b.yaml", "c.yaml"},
		Checks: []validator.FileResult{
			{File: "a.yaml", DSL: "Kamelet Binding", Flows: 1, Similarity: 1, Duration: 3 * time.Millisecond},
			{File: "b.yaml", DSL: "Integration", Flows: 2, HintMismatch: true, Similarity: 0.9, Err: failure},
			{File: "c.yaml", Err: unknown},
		},
		Errors: []error{failure, unknown},
	}
}

func TestBuild(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	index := Build(sampleResult(), BuilderConfig{
		Source:        "flows/",
		Hint:          "Integration",
		RunnerName:    "flowdsl",
		RunnerVersion: "dev",
		StartTime:     start,
		EndTime:       start.Add(time.Second),
	})

	if index.Version != Version {
		t.Errorf("Version = %q", index.Version)
	}
	if index.Status != StatusFailed {
		t.Errorf("Status = %q, want failed", index.Status)
	}
	if index.EndTime == nil || !index.EndTime.Equal(start.Add(time.Second)) {
		t.Errorf("EndTime = %v", index.EndTime)
	}
	if len(index.Errors) != 0 {
		t.Errorf("file errors should not be repeated at run level: %v", index.Errors)
	}

	s := index.Summary
	if s.Total != 3 || s.Passed != 1 || s.Failed != 2 {
		t.Errorf("Summary counts = %+v", s)
	}
	if s.Unrecognized != 1 || s.HintMismatch != 1 || s.Flows != 3 {
		t.Errorf("Summary details = %+v", s)
	}
	if s.ByDialect["Kamelet Binding"] != 1 || s.ByDialect["Integration"] != 1 {
		t.Errorf("ByDialect = %v", s.ByDialect)
	}

	b := index.Files[1]
	if b.Status != StatusFailed || b.Error == nil || *b.Error != "rendered text differs from source" {
		t.Errorf("entry b = %+v", b)
	}
	if b.Diff == "" {
		t.Error("entry b should carry the diff")
	}
	if index.Files[0].Duration != 3 {
		t.Errorf("Duration = %d, want 3", index.Files[0].Duration)
	}
}

func TestBuild_RunLevelError(t *testing.T) {
	result := &validator.Result{Errors: []error{errors.New("missing: cannot access")}}
	index := Build(result, BuilderConfig{Source: "missing"})

	if index.Status != StatusFailed {
		t.Errorf("Status = %q, want failed", index.Status)
	}
	if len(index.Errors) != 1 {
		t.Errorf("Errors = %v", index.Errors)
	}
	if index.EndTime != nil {
		t.Error("EndTime should be omitted when not set")
	}
}

func TestBuild_AllPassed(t *testing.T) {
	result := &validator.Result{
		Files:  []string{"a.yaml"},
		Checks: []validator.FileResult{{File: "a.yaml", DSL: "Kamelet", Flows: 1, Similarity: 1}},
	}
	if index := Build(result, BuilderConfig{}); index.Status != StatusPassed {
		t.Errorf("Status = %q, want passed", index.Status)
	}
}

func TestWriteAndRead(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports", "run-1")
	index := Build(sampleResult(), BuilderConfig{Source: "flows/", StartTime: time.Now().UTC()})

	path, err := Write(dir, index)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if filepath.Base(path) != FileName {
		t.Errorf("path = %s", path)
	}

	got, err := ReadIndex(path)
	if err != nil {
		t.Fatalf("ReadIndex: %v", err)
	}
	if got.Summary.Total != 3 || len(got.Files) != 3 {
		t.Errorf("round trip lost entries: %+v", got.Summary)
	}
	if *got.Files[2].Error != "no dialect accepts this file" {
		t.Errorf("entry c error = %q", *got.Files[2].Error)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("expected only %s in %s, found %d entries", FileName, dir, len(entries))
	}
}

func TestReadIndex_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadIndex(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestStatus_IsTerminal(t *testing.T) {
	for _, s := range []Status{StatusPassed, StatusFailed} {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	if Status("running").IsTerminal() {
		t.Error("running should not be terminal")
	}
}
