// Package flow holds the dialect-independent representation of integration
// flows: steps, flows, parse results and converted documents.
package flow

import "strings"

// Conventional metadata keys.
const (
	KeyName        = "name"
	KeyDescription = "description"
)

// ParseResult is one unit extracted from a document.
//
// A nil Steps slice marks a metadata-only unit carrying the document header;
// a non-nil slice (possibly empty) is a full flow.
type ParseResult struct {
	Steps      []Step `json:"steps"`
	Metadata   *Map   `json:"metadata"`
	Parameters *Map   `json:"parameters"`
}

// Header builds a metadata-only result.
func Header(metadata, parameters *Map) ParseResult {
	return ParseResult{Metadata: orEmpty(metadata), Parameters: orEmpty(parameters)}
}

// Unit builds a full flow result. A nil steps slice is replaced by an empty one.
func Unit(steps []Step, metadata, parameters *Map) ParseResult {
	if steps == nil {
		steps = []Step{}
	}
	return ParseResult{Steps: steps, Metadata: orEmpty(metadata), Parameters: orEmpty(parameters)}
}

// IsMetadataOnly reports whether the result carries no flow.
func (r ParseResult) IsMetadataOnly() bool {
	return r.Steps == nil
}

// NameAssignment records a name given to a flow by batch normalization and
// the value it replaced, so rendering can reproduce the source document.
type NameAssignment struct {
	Name        string `json:"name"`
	Previous    any    `json:"previous,omitempty"`
	HadPrevious bool   `json:"hadPrevious,omitempty"`
}

// Flow is one converted pipeline.
type Flow struct {
	Steps      []Step          `json:"steps"`
	Metadata   *Map            `json:"metadata"`
	Parameters *Map            `json:"parameters"`
	DSL        string          `json:"dsl"`
	Assigned   *NameAssignment `json:"nameAssignment,omitempty"`
}

// Name returns the flow's name metadata, or "".
func (f *Flow) Name() string {
	return f.Metadata.String(KeyName)
}

// Clone returns a deep copy of the flow.
func (f *Flow) Clone() *Flow {
	out := &Flow{
		Steps:      CloneSteps(f.Steps),
		Metadata:   f.Metadata.Clone(),
		Parameters: f.Parameters.Clone(),
		DSL:        f.DSL,
	}
	if out.Steps == nil {
		out.Steps = []Step{}
	}
	if f.Assigned != nil {
		a := *f.Assigned
		out.Assigned = &a
	}
	return out
}

// Result converts the flow back into a parse result.
func (f *Flow) Result() ParseResult {
	return Unit(CloneSteps(f.Steps), f.Metadata.Clone(), f.Parameters.Clone())
}

// Document is the canonical form of one converted text.
//
// An empty DSL marks an unrecognized input: no dialect accepted it and the
// document carries no flows.
type Document struct {
	Flows        []*Flow `json:"flows"`
	Metadata     *Map    `json:"metadata"`
	Parameters   *Map    `json:"parameters"`
	DSL          string  `json:"dsl,omitempty"`
	Hint         string  `json:"hint,omitempty"`
	HintMismatch bool    `json:"hintMismatch,omitempty"`
}

// NewDocument returns an empty, unrecognized document.
func NewDocument() *Document {
	return &Document{Flows: []*Flow{}, Metadata: NewMap(), Parameters: NewMap()}
}

// Recognized reports whether a dialect accepted the source text.
func (d *Document) Recognized() bool {
	return d.DSL != ""
}

// Header returns the document's shared metadata as a metadata-only result.
func (d *Document) Header() ParseResult {
	return Header(d.Metadata.Clone(), d.Parameters.Clone())
}

// Inherit returns local metadata with header entries filled in as defaults.
// Local values win on conflicts; description is document-scoped and never
// inherited.
func Inherit(header, local *Map) *Map {
	out := local.Clone()
	header.Range(func(k string, v any) bool {
		if k != KeyDescription {
			out.SetDefault(k, cloneValue(v))
		}
		return true
	})
	return out
}

// Merge returns base with overlay entries applied on top, overlay winning.
func Merge(base, overlay *Map) *Map {
	out := base.Clone()
	overlay.Range(func(k string, v any) bool {
		out.Set(k, cloneValue(v))
		return true
	})
	return out
}

// LocalOnly returns the entries of local that differ from the header, i.e.
// the values a generator must write for the flow itself.
func LocalOnly(header, local *Map) *Map {
	out := NewMap()
	local.Range(func(k string, v any) bool {
		if hv, ok := header.Get(k); !ok || !ValuesEqual(hv, v) {
			out.Set(k, cloneValue(v))
		}
		return true
	})
	return out
}

// SplitResults separates a parse result sequence into the merged header and
// the full flow units. The first metadata-only entry wins on key conflicts.
func SplitResults(results []ParseResult) (ParseResult, []ParseResult) {
	header := Header(nil, nil)
	var units []ParseResult
	for _, r := range results {
		if !r.IsMetadataOnly() {
			units = append(units, r)
			continue
		}
		r.Metadata.Range(func(k string, v any) bool {
			header.Metadata.SetDefault(k, cloneValue(v))
			return true
		})
		r.Parameters.Range(func(k string, v any) bool {
			header.Parameters.SetDefault(k, cloneValue(v))
			return true
		})
	}
	return header, units
}

// NormalizeIdentifier lowercases a dialect identifier and strips spaces,
// as used in synthesized flow names.
func NormalizeIdentifier(id string) string {
	return strings.ReplaceAll(strings.ToLower(id), " ", "")
}

func orEmpty(m *Map) *Map {
	if m == nil {
		return NewMap()
	}
	return m
}
