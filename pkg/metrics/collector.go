// Package metrics collects dispatch and conversion counters with
// Prometheus.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/devicelab-dev/flowdsl/pkg/dsl"
)

// Conversion directions.
const (
	DirectionParse    = "parse"
	DirectionGenerate = "generate"
)

// Conversion results.
const (
	ResultOK           = "ok"
	ResultUnrecognized = "unrecognized"
	ResultError        = "error"
)

// Collector holds the flowdsl counters on its own registry. A nil
// *Collector is valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	probesTotal         *prometheus.CounterVec
	conversionsTotal    *prometheus.CounterVec
	hintMismatchesTotal *prometheus.CounterVec
	namesAssignedTotal  *prometheus.CounterVec

	mu       sync.RWMutex
	dialects map[string]bool

	logger *zap.Logger
}

// NewCollector creates a collector registering its metrics under namespace.
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Collector{
		registry: prometheus.NewRegistry(),
		logger:   logger.With(zap.String("component", "metrics")),
	}

	c.probesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dialect_probes_total",
			Help:      "Dialect applicability probes by outcome",
		},
		[]string{"dialect", "outcome"},
	)

	c.conversionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversions_total",
			Help:      "Conversions by direction, dialect and result",
		},
		[]string{"direction", "dialect", "result"},
	)

	c.hintMismatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hint_mismatches_total",
			Help:      "Dialect hints contradicted by the document content",
		},
		[]string{"hint", "resolved"},
	)

	c.namesAssignedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flow_names_assigned_total",
			Help:      "Flow names synthesized or suffixed by normalization",
		},
		[]string{"dialect", "reason"}, // reason: missing, duplicate
	)

	c.registry.MustRegister(c.probesTotal, c.conversionsTotal, c.hintMismatchesTotal, c.namesAssignedTotal)
	return c
}

// SetDialects declares the dialect identifiers allowed as hint labels.
func (c *Collector) SetDialects(ids ...string) {
	if c == nil {
		return
	}
	known := make(map[string]bool, len(ids))
	for _, id := range ids {
		known[id] = true
	}
	c.mu.Lock()
	c.dialects = known
	c.mu.Unlock()
}

func (c *Collector) knownHint(hint string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dialects[hint]
}

// Registry returns the Prometheus registry holding the collector's metrics.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// ObserveProbe records one dispatch probe.
func (c *Collector) ObserveProbe(p dsl.Probe) {
	if c == nil {
		return
	}
	c.probesTotal.WithLabelValues(p.Identifier, p.Outcome.String()).Inc()
}

// ObserveHintMismatch records a hint contradicted by content. Hints the
// collector has not been told about count as dsl.UnknownHint.
func (c *Collector) ObserveHintMismatch(hint, resolved string) {
	if c == nil {
		return
	}
	if !c.knownHint(hint) {
		hint = dsl.UnknownHint
	}
	c.hintMismatchesTotal.WithLabelValues(hint, resolved).Inc()
}

// RecordConversion records a parse or generate call.
func (c *Collector) RecordConversion(direction, dialect, result string) {
	if c == nil {
		return
	}
	c.conversionsTotal.WithLabelValues(direction, dialect, result).Inc()
}

// RecordNameAssigned records a flow name set by normalization.
func (c *Collector) RecordNameAssigned(dialect, reason string) {
	if c == nil {
		return
	}
	c.namesAssignedTotal.WithLabelValues(dialect, reason).Inc()
}

// WriteTextfile writes the current values in the Prometheus text format,
// for node_exporter's textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	if c == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		c.logger.Error("failed to write metrics", zap.String("path", path), zap.Error(err))
		return err
	}
	c.logger.Debug("metrics written", zap.String("path", path))
	return nil
}
