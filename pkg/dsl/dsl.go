// Package dsl defines the contracts every flow dialect implements and the
// registry that dispatches text to the dialect that accepts it.
package dsl

import (
	"github.com/devicelab-dev/flowdsl/pkg/catalog"
	"github.com/devicelab-dev/flowdsl/pkg/flow"
)

// Parameters through which a dialect records how the source text was laid
// out. They carry no flow data; generators of other dialects skip them.
const (
	// ParamLayout names the flow layout the parser found.
	ParamLayout = "layout"
	// ParamOmitted lists optional document keys the source text left out.
	ParamOmitted = "omitted"
)

// Structural reports whether a parameter key is one of the layout
// parameters above.
func Structural(key string) bool {
	return key == ParamLayout || key == ParamOmitted
}

// Omits reports whether params list key under ParamOmitted.
func Omits(params *flow.Map, key string) bool {
	v, ok := params.Get(ParamOmitted)
	if !ok {
		return false
	}
	list, ok := v.([]any)
	if !ok {
		return false
	}
	for _, item := range list {
		if s, ok := item.(string); ok && s == key {
			return true
		}
	}
	return false
}

// Parser turns dialect text into canonical parse results.
type Parser interface {
	// AppliesTo is a cheap structural check. It never panics on malformed
	// input; it returns false instead.
	AppliesTo(text string) bool

	// DeepParse parses a single flow, with any document header merged into
	// its metadata. Text of the wrong shape yields a core.ErrFormat error.
	DeepParse(text string) (flow.ParseResult, error)

	// ParsedFlows returns an optional metadata-only header followed by one
	// result per flow. Flow metadata inherits header values as defaults.
	ParsedFlows(text string) ([]flow.ParseResult, error)
}

// Generator turns canonical flows back into dialect text.
type Generator interface {
	// Generate renders one flow. An empty step list renders the dialect's
	// minimal skeleton.
	Generate(steps []flow.Step, metadata, parameters *flow.Map) (string, error)

	// GenerateFlows is the inverse of Parser.ParsedFlows.
	GenerateFlows(results []flow.ParseResult) (string, error)
}

// Specification binds a dialect identifier to its parser and generator.
type Specification struct {
	Identifier  string
	Description string
	MultiFlow   bool // Several flows share one document
	Parser      Parser
	Generator   Generator
}

// StepLookup is the read-only view of the step catalog used by parsers.
type StepLookup interface {
	ByID(id string) (catalog.Step, bool)
	ByName(name string) []catalog.Step
}

// Describe finds the descriptor for a step name usable in dsl, preferring
// the given kinds in order. A nil lookup finds nothing.
func Describe(lookup StepLookup, dsl, name string, kinds ...string) (catalog.Step, bool) {
	if lookup == nil {
		return catalog.Step{}, false
	}
	candidates := lookup.ByName(name)
	for _, kind := range kinds {
		for _, s := range candidates {
			if s.Kind == kind && s.SupportsDSL(dsl) {
				return s, true
			}
		}
	}
	for _, s := range candidates {
		if s.SupportsDSL(dsl) {
			return s, true
		}
	}
	return catalog.Step{}, false
}
