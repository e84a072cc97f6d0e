package dsl

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/devicelab-dev/flowdsl/pkg/core"
)

// Probe is the outcome of asking one dialect whether it accepts a text.
type Probe struct {
	Identifier string
	Outcome    core.ProbeOutcome
	Fault      error // Set when Outcome is OutcomeFaulted
}

// UnknownHint stands in for a hint that names no registered dialect.
const UnknownHint = "unknown"

// ProbeObserver receives every probe made during dispatch.
type ProbeObserver interface {
	ObserveProbe(p Probe)
	// ObserveHintMismatch gets the hinted dialect's identifier, or
	// UnknownHint, and the identifier resolved from content.
	ObserveHintMismatch(hint, resolved string)
}

// Resolution is the result of dispatching a text.
type Resolution struct {
	Spec     *Specification // nil when no dialect accepted the text
	Hint     string
	Mismatch bool // A hint was given and the text contradicted it
	Probes   []Probe
}

// Registry holds the dialect specifications in registration order.
// It is immutable after construction and safe for concurrent use.
type Registry struct {
	specs    []Specification
	logger   *zap.Logger
	observer ProbeObserver
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for dispatch faults and hint mismatches.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithObserver sets a probe observer, typically a metrics collector.
func WithObserver(o ProbeObserver) Option {
	return func(r *Registry) {
		r.observer = o
	}
}

// NewRegistry builds a registry. Identifiers must be unique ignoring case
// and every specification needs a parser and a generator.
func NewRegistry(specs []Specification, opts ...Option) (*Registry, error) {
	r := &Registry{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(zap.String("component", "registry"))

	seen := make(map[string]bool)
	for _, s := range specs {
		key := strings.ToLower(s.Identifier)
		switch {
		case s.Identifier == "":
			return nil, fmt.Errorf("dialect without identifier")
		case seen[key]:
			return nil, fmt.Errorf("duplicate dialect %q", s.Identifier)
		case s.Parser == nil || s.Generator == nil:
			return nil, fmt.Errorf("dialect %q needs a parser and a generator", s.Identifier)
		}
		seen[key] = true
		r.specs = append(r.specs, s)
	}
	return r, nil
}

// Specifications returns the registered dialects in registration order.
func (r *Registry) Specifications() []Specification {
	return append([]Specification(nil), r.specs...)
}

// Lookup finds a dialect by identifier, ignoring case.
func (r *Registry) Lookup(identifier string) (*Specification, bool) {
	for i := range r.specs {
		if strings.EqualFold(r.specs[i].Identifier, identifier) {
			s := r.specs[i]
			return &s, true
		}
	}
	return nil, false
}

// Probe asks one dialect whether it accepts text. A panicking predicate is
// recovered and reported as a faulted, non-matching probe.
func (r *Registry) Probe(spec Specification, text string) (p Probe) {
	p.Identifier = spec.Identifier
	defer func() {
		if rec := recover(); rec != nil {
			p.Outcome = core.OutcomeFaulted
			p.Fault = core.ErrParserFault.WithDialect(spec.Identifier).WithCause(fmt.Errorf("%v", rec))
			r.logger.Warn("dialect probe faulted",
				zap.String("dialect", spec.Identifier),
				zap.Error(p.Fault))
		}
		if r.observer != nil {
			r.observer.ObserveProbe(p)
		}
	}()

	if spec.Parser.AppliesTo(text) {
		p.Outcome = core.OutcomeMatch
	} else {
		p.Outcome = core.OutcomeNoMatch
	}
	return p
}

// Identify returns the first dialect, in registration order, that accepts
// text, along with every probe made.
func (r *Registry) Identify(text string) (*Specification, []Probe) {
	var probes []Probe
	for i := range r.specs {
		p := r.Probe(r.specs[i], text)
		probes = append(probes, p)
		if p.Outcome.IsMatch() {
			s := r.specs[i]
			return &s, probes
		}
	}
	return nil, probes
}

// Resolve dispatches text, trying the hinted dialect first. When the hint
// is unknown or rejects the text, every dialect is scanned and the
// resolution is flagged as a mismatch.
func (r *Registry) Resolve(hint, text string) Resolution {
	res := Resolution{Hint: hint}
	if hint != "" {
		if spec, ok := r.Lookup(hint); ok {
			p := r.Probe(*spec, text)
			res.Probes = append(res.Probes, p)
			if p.Outcome.IsMatch() {
				res.Spec = spec
				return res
			}
		}
		res.Mismatch = true
	}

	spec, probes := r.Identify(text)
	res.Spec = spec
	res.Probes = append(res.Probes, probes...)

	if res.Mismatch {
		resolved := ""
		if spec != nil {
			resolved = spec.Identifier
		}
		r.logger.Warn("dialect hint does not match content",
			zap.String("hint", hint),
			zap.String("resolved", resolved))
		if r.observer != nil {
			label := UnknownHint
			if hinted, ok := r.Lookup(hint); ok {
				label = hinted.Identifier
			}
			r.observer.ObserveHintMismatch(label, resolved)
		}
	}
	return res
}
