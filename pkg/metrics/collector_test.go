package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/devicelab-dev/flowdsl/pkg/core"
	"github.com/devicelab-dev/flowdsl/pkg/dsl"
)

func TestCollector_Counters(t *testing.T) {
	c := NewCollector("flowdsl", zap.NewNop())
	c.SetDialects("Integration", "Kamelet")

	c.ObserveProbe(dsl.Probe{Identifier: "Kamelet Binding", Outcome: core.OutcomeMatch})
	c.ObserveProbe(dsl.Probe{Identifier: "Kamelet Binding", Outcome: core.OutcomeMatch})
	c.ObserveProbe(dsl.Probe{Identifier: "Integration", Outcome: core.OutcomeFaulted})
	c.ObserveHintMismatch("Integration", "Kamelet")
	c.RecordConversion(DirectionParse, "Kamelet", ResultOK)
	c.RecordNameAssigned("Integration", "duplicate")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.probesTotal.WithLabelValues("Kamelet Binding", "match")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.probesTotal.WithLabelValues("Integration", "faulted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.hintMismatchesTotal.WithLabelValues("Integration", "Kamelet")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.conversionsTotal.WithLabelValues("parse", "Kamelet", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.namesAssignedTotal.WithLabelValues("Integration", "duplicate")))
}

func TestCollector_HintLabelsAreBounded(t *testing.T) {
	c := NewCollector("flowdsl", nil)
	c.SetDialects("Integration", "Kamelet")

	c.ObserveHintMismatch("Integration", "Kamelet")
	for i := 0; i < 50; i++ {
		c.ObserveHintMismatch(fmt.Sprintf("typo-%d", i), "Kamelet")
	}
	c.ObserveHintMismatch(dsl.UnknownHint, "")

	n, err := testutil.GatherAndCount(c.Registry(), "flowdsl_hint_mismatches_total")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 50.0, testutil.ToFloat64(c.hintMismatchesTotal.WithLabelValues(dsl.UnknownHint, "Kamelet")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.hintMismatchesTotal.WithLabelValues(dsl.UnknownHint, "")))
}

func TestCollector_NilIsNoop(t *testing.T) {
	var c *Collector
	c.SetDialects("x")
	c.ObserveProbe(dsl.Probe{})
	c.ObserveHintMismatch("a", "b")
	c.RecordConversion(DirectionGenerate, "x", ResultError)
	c.RecordNameAssigned("x", "missing")
	assert.Nil(t, c.Registry())
	assert.NoError(t, c.WriteTextfile("/nonexistent/dir/metrics.prom"))
}

func TestCollector_WriteTextfile(t *testing.T) {
	c := NewCollector("flowdsl", nil)
	c.RecordConversion(DirectionParse, "Integration", ResultOK)

	path := filepath.Join(t.TempDir(), "flowdsl.prom")
	require.NoError(t, c.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `flowdsl_conversions_total{dialect="Integration",direction="parse",result="ok"} 1`), string(data))
}
