// Package validator checks flow files by converting them to the canonical
// model and rendering them back. A file is valid when some dialect accepts
// it, it parses, and rendering reproduces it after normalization.
package validator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/devicelab-dev/flowdsl/pkg/converter"
	"github.com/devicelab-dev/flowdsl/pkg/dsl"
	"github.com/devicelab-dev/flowdsl/pkg/flow"
)

// ValidationError represents a validation error with context.
type ValidationError struct {
	File    string
	Message string
	Diff    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}

// FileResult is the outcome of checking one file.
type FileResult struct {
	File         string
	DSL          string
	Flows        int
	HintMismatch bool
	Similarity   float64 // 1 when the round trip is exact
	Duration     time.Duration
	Err          *ValidationError
}

// Passed reports whether the file survived the round trip.
func (r FileResult) Passed() bool {
	return r.Err == nil
}

// Result contains the validation result.
type Result struct {
	// Files is the list of checked file paths in discovery order.
	Files []string
	// Checks holds one entry per file, aligned with Files.
	Checks []FileResult
	// Errors contains all validation errors found.
	Errors []error
}

// IsValid returns true if there are no validation errors.
func (r *Result) IsValid() bool {
	return len(r.Errors) == 0
}

// Validator checks flow files.
type Validator struct {
	converter *converter.Converter
	hint      string
	selects   func(name string) bool
	parallel  int
	logger    *zap.Logger
}

// Option configures a Validator.
type Option func(*Validator)

// WithHint sets the dialect hint passed to every conversion.
func WithHint(hint string) Option {
	return func(v *Validator) { v.hint = hint }
}

// WithFilter restricts directory scans to files the predicate selects.
func WithFilter(selects func(name string) bool) Option {
	return func(v *Validator) {
		if selects != nil {
			v.selects = selects
		}
	}
}

// WithParallel bounds the number of files checked at once. Zero or less
// removes the bound.
func WithParallel(n int) Option {
	return func(v *Validator) { v.parallel = n }
}

// WithLogger sets the validator's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(v *Validator) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// New creates a new Validator.
func New(conv *converter.Converter, opts ...Option) *Validator {
	v := &Validator{
		converter: conv,
		selects:   func(string) bool { return true },
		parallel:  1,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(v)
	}
	v.logger = v.logger.With(zap.String("component", "validator"))
	return v
}

// Validate checks a file or every YAML file under a directory.
func (v *Validator) Validate(ctx context.Context, path string) *Result {
	result := &Result{}

	info, err := os.Stat(path)
	if err != nil {
		result.Errors = append(result.Errors, &ValidationError{
			File:    path,
			Message: fmt.Sprintf("cannot access: %v", err),
		})
		return result
	}

	var files []string
	if info.IsDir() {
		files, err = v.collectFlowFiles(path)
		if err != nil {
			result.Errors = append(result.Errors, &ValidationError{
				File:    path,
				Message: fmt.Sprintf("failed to scan directory: %v", err),
			})
			return result
		}
	} else {
		files = []string{path}
	}

	checks := make([]FileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	if v.parallel > 0 {
		g.SetLimit(v.parallel)
	}
	for i, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			checks[i] = v.ValidateFile(file)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		result.Errors = append(result.Errors, &ValidationError{File: path, Message: err.Error()})
		return result
	}

	result.Files = files
	result.Checks = checks
	for _, c := range checks {
		if c.Err != nil {
			result.Errors = append(result.Errors, c.Err)
		}
	}
	return result
}

// collectFlowFiles finds all selected .yaml/.yml files in a directory.
func (v *Validator) collectFlowFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if (ext == ".yaml" || ext == ".yml") && v.selects(path) {
			files = append(files, path)
		}
		return nil
	})

	return files, err
}

// ValidateFile checks a single file.
func (v *Validator) ValidateFile(path string) FileResult {
	data, err := os.ReadFile(path) //#nosec G304 -- user-supplied flow file
	if err != nil {
		return FileResult{File: path, Err: &ValidationError{File: path, Message: fmt.Sprintf("read error: %v", err)}}
	}
	return v.ValidateText(path, string(data))
}

// ValidateText checks text as if read from the named file.
func (v *Validator) ValidateText(name, text string) FileResult {
	start := time.Now()
	res := v.check(name, text)
	res.Duration = time.Since(start)

	if res.Err != nil {
		v.logger.Debug("round trip failed", zap.String("file", name), zap.String("reason", res.Err.Message))
	} else {
		v.logger.Debug("round trip ok", zap.String("file", name), zap.String("dialect", res.DSL))
	}
	return res
}

func (v *Validator) check(name, text string) FileResult {
	res := FileResult{File: name}
	fail := func(format string, args ...any) FileResult {
		res.Err = &ValidationError{File: name, Message: fmt.Sprintf(format, args...)}
		return res
	}

	doc, err := v.converter.Convert(text, v.hint)
	if err != nil {
		return fail("parse error: %v", err)
	}
	res.DSL = doc.DSL
	res.Flows = len(doc.Flows)
	res.HintMismatch = doc.HintMismatch
	if !doc.Recognized() {
		return fail("no dialect accepts this file")
	}

	out, err := v.converter.Render(doc)
	if err != nil {
		return fail("render error: %v", err)
	}

	want, got := dsl.Normalize(text), dsl.Normalize(out)
	res.Similarity = similarity(want, got)
	if want != got {
		res.Err = &ValidationError{
			File:    name,
			Message: "rendered text differs from source",
			Diff:    lineDiff(want, got),
		}
		return res
	}

	again, err := v.converter.Convert(out, doc.DSL)
	if err != nil {
		return fail("rendered text does not parse: %v", err)
	}
	if i, ok := sameSteps(doc.Flows, again.Flows); !ok {
		return fail("flow %d changed steps after round trip", i)
	}
	return res
}

// sameSteps compares step classification flow by flow. On mismatch it
// returns the index of the first differing flow.
func sameSteps(a, b []*flow.Flow) (int, bool) {
	if len(a) != len(b) {
		return min(len(a), len(b)), false
	}
	for i := range a {
		if len(a[i].Steps) != len(b[i].Steps) {
			return i, false
		}
		for j := range a[i].Steps {
			if !a[i].Steps[j].Equal(b[i].Steps[j]) {
				return i, false
			}
		}
	}
	return 0, true
}
