// Package converter is the entry point for turning dialect text into
// canonical documents and back.
//
// Convert dispatches text through the dialect registry, parses it and
// gives every flow a usable name. Render is its inverse. Both are pure
// functions of their input, the registry and the suffix source, and are
// safe for concurrent use.
package converter

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"go.uber.org/zap"

	"github.com/devicelab-dev/flowdsl/pkg/core"
	"github.com/devicelab-dev/flowdsl/pkg/dsl"
	"github.com/devicelab-dev/flowdsl/pkg/flow"
	"github.com/devicelab-dev/flowdsl/pkg/metrics"
)

// Converter converts between dialect text and canonical documents.
type Converter struct {
	registry *dsl.Registry
	logger   *zap.Logger
	metrics  *metrics.Collector
	suffix   func() string
}

// Option configures a Converter.
type Option func(*Converter)

// WithLogger sets the converter's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Converter) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics records conversions on the given collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(c *Converter) {
		c.metrics = m
	}
}

// WithSuffix replaces the source of name suffixes. It must be safe for
// concurrent use when the converter is.
func WithSuffix(fn func() string) Option {
	return func(c *Converter) {
		if fn != nil {
			c.suffix = fn
		}
	}
}

// RandomSuffix returns a two-digit pseudo-random suffix.
func RandomSuffix() string {
	return fmt.Sprintf("%02d", rand.IntN(99))
}

// New creates a converter over a registry.
func New(registry *dsl.Registry, opts ...Option) *Converter {
	c := &Converter{
		registry: registry,
		logger:   zap.NewNop(),
		suffix:   RandomSuffix,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(zap.String("component", "converter"))
	return c
}

// Registry returns the converter's dialect registry.
func (c *Converter) Registry() *dsl.Registry {
	return c.registry
}

// Convert parses text into a document. The hint names the expected
// dialect; content that contradicts it is still converted, by the dialect
// that accepts it, and the document is flagged.
//
// Text no dialect accepts yields an unrecognized document and no error.
// Only a parse failure in the chosen dialect is returned, as a
// core.ErrFormat error.
func (c *Converter) Convert(text, hint string) (*flow.Document, error) {
	res := c.registry.Resolve(hint, text)

	doc := flow.NewDocument()
	doc.Hint = hint
	doc.HintMismatch = res.Mismatch
	if res.Spec == nil {
		c.logger.Debug("no dialect accepts input", zap.String("hint", hint))
		c.metrics.RecordConversion(metrics.DirectionParse, "", metrics.ResultUnrecognized)
		return doc, nil
	}
	id := res.Spec.Identifier

	results, err := res.Spec.Parser.ParsedFlows(text)
	if err != nil {
		c.metrics.RecordConversion(metrics.DirectionParse, id, metrics.ResultError)
		var ce *core.ConversionError
		if !errors.As(err, &ce) {
			err = core.ErrFormat.WithDialect(id).WithCause(err)
		}
		return nil, err
	}

	header, units := flow.SplitResults(results)
	doc.DSL = id
	doc.Metadata = header.Metadata
	doc.Parameters = header.Parameters
	for _, u := range units {
		doc.Flows = append(doc.Flows, &flow.Flow{
			Steps:      u.Steps,
			Metadata:   flow.Inherit(header.Metadata, u.Metadata),
			Parameters: u.Parameters,
			DSL:        id,
		})
	}
	c.normalizeNames(doc.Flows)

	c.metrics.RecordConversion(metrics.DirectionParse, id, metrics.ResultOK)
	c.logger.Debug("converted",
		zap.String("dialect", id),
		zap.Int("flows", len(doc.Flows)),
		zap.Bool("hint_mismatch", doc.HintMismatch))
	return doc, nil
}

type group struct {
	dsl   string
	flows []*flow.Flow
}

// Render writes a document back to dialect text. Flows are grouped by
// dialect in order of first appearance; a multi-flow dialect renders each
// group as one document, other dialects render one document per flow.
// Documents are separated by `---`.
//
// Names given by Convert are reverted to what the source text had, so
// Render(Convert(t)) reproduces t. A flow naming an unregistered dialect
// is a contract violation and fails with core.ErrUnknownDialect.
func (c *Converter) Render(doc *flow.Document) (string, error) {
	if doc == nil {
		return "", nil
	}

	flows := make([]*flow.Flow, len(doc.Flows))
	revert := make([]bool, len(doc.Flows))
	for i, f := range doc.Flows {
		flows[i] = f.Clone()
		if a := flows[i].Assigned; a != nil && flows[i].Name() == a.Name {
			revert[i] = true
		} else {
			flows[i].Assigned = nil
		}
	}
	c.normalizeNames(flows)
	for i, f := range flows {
		if revert[i] {
			revertName(f)
		}
	}

	var groups []*group
	byDSL := make(map[string]*group)
	for _, f := range flows {
		key := strings.ToLower(f.DSL)
		g, ok := byDSL[key]
		if !ok {
			g = &group{dsl: f.DSL}
			byDSL[key] = g
			groups = append(groups, g)
		}
		g.flows = append(g.flows, f)
	}
	if len(groups) == 0 && doc.Recognized() {
		groups = append(groups, &group{dsl: doc.DSL})
	}

	var docs []string
	for _, g := range groups {
		out, err := c.renderGroup(doc, g)
		if err != nil {
			c.metrics.RecordConversion(metrics.DirectionGenerate, g.dsl, metrics.ResultError)
			return "", err
		}
		c.metrics.RecordConversion(metrics.DirectionGenerate, g.dsl, metrics.ResultOK)
		docs = append(docs, out...)
	}
	return dsl.JoinDocuments(docs), nil
}

func (c *Converter) renderGroup(doc *flow.Document, g *group) ([]string, error) {
	spec, ok := c.registry.Lookup(g.dsl)
	if !ok {
		return nil, core.ErrUnknownDialect.WithDialect(g.dsl)
	}

	header := flow.Header(nil, nil)
	if !doc.Recognized() || strings.EqualFold(doc.DSL, g.dsl) {
		header = doc.Header()
	}

	var batches [][]flow.ParseResult
	switch {
	case len(g.flows) == 0:
		batches = append(batches, []flow.ParseResult{header})
	case spec.MultiFlow:
		batch := []flow.ParseResult{header}
		for _, f := range g.flows {
			batch = append(batch, f.Result())
		}
		batches = append(batches, batch)
	default:
		for _, f := range g.flows {
			batches = append(batches, []flow.ParseResult{header, f.Result()})
		}
	}

	out := make([]string, 0, len(batches))
	for _, b := range batches {
		text, err := spec.Generator.GenerateFlows(b)
		if err != nil {
			return nil, err
		}
		out = append(out, text)
	}
	return out, nil
}
