package converter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devicelab-dev/flowdsl/pkg/catalog"
	"github.com/devicelab-dev/flowdsl/pkg/core"
	"github.com/devicelab-dev/flowdsl/pkg/dialects"
	"github.com/devicelab-dev/flowdsl/pkg/dsl"
	"github.com/devicelab-dev/flowdsl/pkg/flow"
	"github.com/devicelab-dev/flowdsl/pkg/metrics"
)

func fixedSuffix() string { return "07" }

func newConverter(t testing.TB, opts ...Option) *Converter {
	t.Helper()
	c, err := catalog.Load(context.Background(), nil)
	require.NoError(t, err)
	reg, err := dialects.NewRegistry(c)
	require.NoError(t, err)
	return New(reg, append([]Option{WithSuffix(fixedSuffix)}, opts...)...)
}

func readFixture(t testing.TB, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(data)
}

func fixtures(t *testing.T) []string {
	t.Helper()
	files, err := filepath.Glob(filepath.Join("testdata", "*.yaml"))
	require.NoError(t, err)
	var names []string
	for _, f := range files {
		if base := filepath.Base(f); !strings.HasPrefix(base, "bad-") {
			names = append(names, base)
		}
	}
	require.NotEmpty(t, names)
	return names
}

func dialectOf(file string) string {
	switch {
	case strings.HasSuffix(file, ".binding.yaml"):
		return "Kamelet Binding"
	case strings.HasSuffix(file, ".integration.yaml"):
		return "Integration"
	default:
		return "Kamelet"
	}
}

func TestConvert_Dispatch(t *testing.T) {
	c := newConverter(t)

	for _, file := range fixtures(t) {
		t.Run(file, func(t *testing.T) {
			doc, err := c.Convert(readFixture(t, file), "")
			require.NoError(t, err)
			assert.Equal(t, dialectOf(file), doc.DSL)
			assert.False(t, doc.HintMismatch)
			require.NotEmpty(t, doc.Flows)
			for _, f := range doc.Flows {
				assert.Equal(t, doc.DSL, f.DSL)
				assert.NotEmpty(t, f.Name())
			}
		})
	}
}

func TestConvert_Twitter(t *testing.T) {
	c := newConverter(t)

	doc, err := c.Convert(readFixture(t, "twitter-search-source.binding.yaml"), "Kamelet Binding")
	require.NoError(t, err)
	require.Len(t, doc.Flows, 1)

	f := doc.Flows[0]
	assert.Equal(t, "twitter-search-source-binding", f.Name())
	assert.Nil(t, f.Assigned)
	require.Len(t, f.Steps, 3)

	want := []struct {
		name string
		kind string
		role flow.Role
	}{
		{"twitter-search-source", flow.KindKamelet, flow.Start},
		{"json-deserialize-action", flow.KindKamelet, flow.Middle},
		{"knative", flow.KindKnative, flow.End},
	}
	for i, w := range want {
		assert.Equal(t, w.name, f.Steps[i].Name, "step %d", i)
		assert.Equal(t, w.kind, f.Steps[i].Kind, "step %d", i)
		assert.Equal(t, w.role, f.Steps[i].Role, "step %d", i)
	}
	keywords, _ := f.Steps[0].Params().Get("keywords")
	assert.Equal(t, "Apache Camel", keywords)
}

func TestConvert_HeaderAndDescription(t *testing.T) {
	c := newConverter(t)

	doc, err := c.Convert(readFixture(t, "name-desc.binding.yaml"), "")
	require.NoError(t, err)
	assert.Equal(t, "kamelet-binding-name", doc.Metadata.String(flow.KeyName))
	assert.Equal(t, "Moves timer ticks to the log", doc.Metadata.String(flow.KeyDescription))

	require.Len(t, doc.Flows, 1)
	assert.Equal(t, "kamelet-binding-name", doc.Flows[0].Name())
	assert.False(t, doc.Flows[0].Metadata.Has(flow.KeyDescription))
}

func TestConvert_SharedHeader(t *testing.T) {
	c := newConverter(t)

	doc, err := c.Convert(readFixture(t, "shared-header.integration.yaml"), "Integration")
	require.NoError(t, err)
	require.Len(t, doc.Flows, 2)

	assert.True(t, doc.Parameters.Has("traits"))
	assert.Equal(t, "shared-header", doc.Flows[0].Name())
	assert.Equal(t, "shared-header07", doc.Flows[1].Name())
	require.NotNil(t, doc.Flows[1].Assigned)
	assert.Equal(t, "shared-header", doc.Flows[1].Assigned.Previous)
	assert.True(t, doc.Flows[1].Assigned.HadPrevious)
}

func TestConvert_MissingNames(t *testing.T) {
	c := newConverter(t)

	doc, err := c.Convert(readFixture(t, "null-from.integration.yaml"), "")
	require.NoError(t, err)
	require.Len(t, doc.Flows, 2)
	assert.Equal(t, "integration07", doc.Flows[0].Name())
	assert.False(t, doc.Flows[0].Assigned.HadPrevious)
	assert.Equal(t, "named", doc.Flows[1].Name())
	assert.Empty(t, doc.Flows[0].Steps)

	doc, err = c.Convert(readFixture(t, "minimal.kamelet.yaml"), "")
	require.NoError(t, err)
	require.Len(t, doc.Flows, 1)
	assert.Equal(t, "kamelet07", doc.Flows[0].Name())
}

func TestConvert_AbsentRoles(t *testing.T) {
	c := newConverter(t)

	doc, err := c.Convert(readFixture(t, "null-source.binding.yaml"), "")
	require.NoError(t, err)
	require.Len(t, doc.Flows, 1)
	require.Len(t, doc.Flows[0].Steps, 1)
	assert.Equal(t, flow.End, doc.Flows[0].Steps[0].Role)
	assert.Equal(t, "log-sink", doc.Flows[0].Steps[0].Name)
}

func TestConvert_HintFallback(t *testing.T) {
	c := newConverter(t)
	text := readFixture(t, "uri.binding.yaml")

	tests := []struct {
		hint     string
		mismatch bool
	}{
		{"", false},
		{"Kamelet Binding", false},
		{"kamelet binding", false},
		{"Integration", true},
		{"Camel Route", true},
	}
	for _, tt := range tests {
		t.Run(tt.hint, func(t *testing.T) {
			doc, err := c.Convert(text, tt.hint)
			require.NoError(t, err)
			assert.Equal(t, "Kamelet Binding", doc.DSL)
			assert.Equal(t, tt.hint, doc.Hint)
			assert.Equal(t, tt.mismatch, doc.HintMismatch)
		})
	}
}

func TestConvert_Unrecognized(t *testing.T) {
	c := newConverter(t)

	for _, text := range []string{"", "hello: world", "- a\n- b", "not yaml: ["} {
		doc, err := c.Convert(text, "Integration")
		require.NoError(t, err, "text %q", text)
		assert.False(t, doc.Recognized())
		assert.Empty(t, doc.Flows)
		assert.True(t, doc.HintMismatch)

		out, err := c.Render(doc)
		require.NoError(t, err)
		assert.Empty(t, out)
	}
}

func TestConvert_FormatError(t *testing.T) {
	c := newConverter(t)

	doc, err := c.Convert(readFixture(t, "bad-endpoint.binding.yaml"), "")
	require.Error(t, err)
	assert.Nil(t, doc)
	assert.True(t, errors.Is(err, core.ErrFormat), "got %v", err)

	var ce *core.ConversionError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "Kamelet Binding", ce.Dialect)
}

func TestRender_RoundTrip(t *testing.T) {
	c := newConverter(t)

	for _, file := range fixtures(t) {
		t.Run(file, func(t *testing.T) {
			text := readFixture(t, file)
			doc, err := c.Convert(text, "")
			require.NoError(t, err)

			out, err := c.Render(doc)
			require.NoError(t, err)
			assert.Equal(t, dsl.Normalize(text), dsl.Normalize(out))

			again, err := c.Convert(out, "")
			require.NoError(t, err)
			require.Len(t, again.Flows, len(doc.Flows))
			for i := range doc.Flows {
				assert.Equal(t, doc.Flows[i].Name(), again.Flows[i].Name())
				require.Len(t, again.Flows[i].Steps, len(doc.Flows[i].Steps))
				for j := range doc.Flows[i].Steps {
					assert.True(t, doc.Flows[i].Steps[j].Equal(again.Flows[i].Steps[j]), "flow %d step %d", i, j)
				}
			}
		})
	}
}

func TestRender_DoesNotMutateDocument(t *testing.T) {
	c := newConverter(t)

	doc, err := c.Convert(readFixture(t, "shared-header.integration.yaml"), "")
	require.NoError(t, err)
	before := doc.Flows[1].Name()

	_, err = c.Render(doc)
	require.NoError(t, err)
	assert.Equal(t, before, doc.Flows[1].Name())
	assert.NotNil(t, doc.Flows[1].Assigned)
}

func TestRender_RenamedFlowKeepsNewName(t *testing.T) {
	c := newConverter(t)

	doc, err := c.Convert(readFixture(t, "minimal.kamelet.yaml"), "")
	require.NoError(t, err)
	doc.Flows[0].Metadata.Set(flow.KeyName, "renamed")

	out, err := c.Render(doc)
	require.NoError(t, err)
	assert.Contains(t, out, "id: renamed")
}

func TestRender_SynthesizedFlowGetsName(t *testing.T) {
	c := newConverter(t)

	doc := flow.NewDocument()
	doc.DSL = "Kamelet"
	doc.Flows = append(doc.Flows, &flow.Flow{
		DSL:      "Kamelet",
		Metadata: flow.NewMap(),
		Steps: []flow.Step{
			{Name: "timer", Kind: flow.KindConnector, Role: flow.Start, URI: "timer:x"},
		},
	})

	out, err := c.Render(doc)
	require.NoError(t, err)
	assert.Contains(t, out, "id: kamelet07")
	assert.Equal(t, "", doc.Flows[0].Name())
}

func TestRender_MixedDialects(t *testing.T) {
	c := newConverter(t)

	binding, err := c.Convert(readFixture(t, "uri.binding.yaml"), "")
	require.NoError(t, err)
	integ, err := c.Convert(readFixture(t, "routes.integration.yaml"), "")
	require.NoError(t, err)

	doc := flow.NewDocument()
	doc.DSL = binding.DSL
	doc.Metadata = binding.Metadata
	doc.Flows = append(doc.Flows, binding.Flows...)
	doc.Flows = append(doc.Flows, integ.Flows...)

	out, err := c.Render(doc)
	require.NoError(t, err)
	parts := strings.Split(out, "---\n")
	require.Len(t, parts, 2)
	assert.Contains(t, parts[0], "kind: KameletBinding")
	assert.Contains(t, parts[1], "kind: Integration")
	assert.Contains(t, parts[1], "id: ingest")
	assert.Contains(t, parts[1], "id: routes")
	assert.NotContains(t, parts[1], "timer-to-http")
}

func TestRender_SingleFlowDialectSplitsDocuments(t *testing.T) {
	c := newConverter(t)

	a, err := c.Convert(readFixture(t, "uri.binding.yaml"), "")
	require.NoError(t, err)
	b, err := c.Convert(readFixture(t, "knative.binding.yaml"), "")
	require.NoError(t, err)

	doc := flow.NewDocument()
	doc.DSL = a.DSL
	doc.Flows = []*flow.Flow{a.Flows[0], b.Flows[0]}

	out, err := c.Render(doc)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "kind: KameletBinding"))
	assert.Contains(t, out, "name: timer-to-http")
	assert.Contains(t, out, "name: knative-to-log")
}

func TestRender_LayoutStaysInItsDialect(t *testing.T) {
	c := newConverter(t)

	doc, err := c.Convert(readFixture(t, "template.kamelet.yaml"), "")
	require.NoError(t, err)
	require.True(t, doc.Flows[0].Parameters.Has(dsl.ParamLayout))
	doc.Flows[0].DSL = "Integration"

	out, err := c.Render(doc)
	require.NoError(t, err)
	assert.Contains(t, out, "kind: Integration")
	assert.NotContains(t, out, dsl.ParamLayout+":")

	doc, err = c.Convert(readFixture(t, "route-layouts.integration.yaml"), "")
	require.NoError(t, err)
	for _, f := range doc.Flows {
		f.DSL = "Kamelet Binding"
	}
	out, err = c.Render(doc)
	require.NoError(t, err)
	assert.NotContains(t, out, dsl.ParamLayout+":")
}

func TestRender_EmptyRecognizedDocument(t *testing.T) {
	c := newConverter(t)

	doc := flow.NewDocument()
	doc.DSL = "Integration"
	doc.Metadata.Set(flow.KeyName, "empty")

	out, err := c.Render(doc)
	require.NoError(t, err)
	assert.Equal(t, "apiVersion: camel.apache.org/v1\nkind: Integration\nmetadata:\nname: empty\nspec:\nflows: []", dsl.Normalize(out))
}

func TestRender_UnknownDialect(t *testing.T) {
	c := newConverter(t)

	doc := flow.NewDocument()
	doc.DSL = "Camel Route"
	doc.Flows = append(doc.Flows, &flow.Flow{DSL: "Camel Route", Metadata: flow.MapOf(flow.KeyName, "r")})

	_, err := c.Render(doc)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrUnknownDialect), "got %v", err)
}

func TestRender_Nil(t *testing.T) {
	out, err := newConverter(t).Render(nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestNormalizeNames(t *testing.T) {
	c := newConverter(t)

	tests := []struct {
		name  string
		dsl   string
		input []string
		want  []string
	}{
		{"unique names untouched", "Integration", []string{"a", "b"}, []string{"a", "b"}},
		{"missing name", "Kamelet Binding", []string{""}, []string{"kameletbinding07"}},
		{"duplicate", "Integration", []string{"a", "a"}, []string{"a", "a07"}},
		{"suffixed duplicate is suffixed again", "Integration", []string{"a", "a", "a07"}, []string{"a", "a07", "a0707"}},
		// Single pass: a generated name can collide with a later flow.
		{"collision after suffix", "Integration", []string{"a", "a07", "a"}, []string{"a", "a07", "a07"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var flows []*flow.Flow
			for _, n := range tt.input {
				meta := flow.NewMap()
				if n != "" {
					meta.Set(flow.KeyName, n)
				}
				flows = append(flows, &flow.Flow{DSL: tt.dsl, Metadata: meta})
			}
			c.normalizeNames(flows)

			var got []string
			for _, f := range flows {
				got = append(got, f.Name())
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConvert_RecordsMetrics(t *testing.T) {
	m := metrics.NewCollector("flowdsl", nil)
	c := newConverter(t, WithMetrics(m))

	_, err := c.Convert(readFixture(t, "shared-header.integration.yaml"), "")
	require.NoError(t, err)
	_, err = c.Convert("hello: world", "")
	require.NoError(t, err)

	var series int
	for _, name := range []string{"flowdsl_conversions_total", "flowdsl_flow_names_assigned_total"} {
		n, err := testutil.GatherAndCount(m.Registry(), name)
		require.NoError(t, err)
		series += n
	}
	assert.Equal(t, 3, series)
}

func TestConvert_Concurrent(t *testing.T) {
	c := newConverter(t)
	files := fixtures(t)
	texts := make([]string, len(files))
	for i, f := range files {
		texts[i] = readFixture(t, f)
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(texts)*8)
	for n := 0; n < 8; n++ {
		for i, text := range texts {
			wg.Add(1)
			go func() {
				defer wg.Done()
				doc, err := c.Convert(text, "")
				if err != nil {
					errs <- err
					return
				}
				out, err := c.Render(doc)
				if err != nil {
					errs <- err
					return
				}
				if dsl.Normalize(out) != dsl.Normalize(text) {
					errs <- fmt.Errorf("%s: round trip differs", files[i])
				}
			}()
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
