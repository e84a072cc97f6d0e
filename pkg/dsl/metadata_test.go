package dsl

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/devicelab-dev/flowdsl/pkg/flow"
)

func TestLiftDescription(t *testing.T) {
	meta := flow.MapOf(
		"name", "flow",
		"annotations", flow.MapOf("description", "Moves tweets", "owner", "team"),
	)

	out, desc := LiftDescription(meta)
	assert.Equal(t, "Moves tweets", desc)
	ann, _ := out.Get("annotations")
	assert.Equal(t, []string{"owner"}, ann.(*flow.Map).Keys())

	// Input is untouched.
	orig, _ := meta.Get("annotations")
	assert.Equal(t, 2, orig.(*flow.Map).Len())
}

func TestLiftDescription_DropsEmptyAnnotations(t *testing.T) {
	out, desc := LiftDescription(flow.MapOf("name", "x", "annotations", flow.MapOf("description", "d")))
	assert.Equal(t, "d", desc)
	assert.Equal(t, []string{"name"}, out.Keys())

	out, desc = LiftDescription(flow.MapOf("annotations", flow.NewMap()))
	assert.Empty(t, desc)
	assert.Equal(t, []string{"annotations"}, out.Keys())
}

func TestEmbedDescription(t *testing.T) {
	meta := flow.MapOf("name", "x", "annotations", flow.MapOf("owner", "team"), "labels", flow.NewMap())

	out := EmbedDescription(meta, "d")
	assert.Equal(t, []string{"name", "annotations", "labels"}, out.Keys())
	ann, _ := out.Get("annotations")
	assert.Equal(t, []string{"description", "owner"}, ann.(*flow.Map).Keys())

	out = EmbedDescription(flow.MapOf("name", "x"), "d")
	assert.Equal(t, []string{"name", "annotations"}, out.Keys())

	assert.True(t, EmbedDescription(meta, "").Equal(meta))
}

func TestWithName(t *testing.T) {
	out := WithName(flow.MapOf("labels", flow.NewMap()), "n")
	assert.Equal(t, []string{"name", "labels"}, out.Keys())

	out = WithName(flow.MapOf("labels", flow.NewMap(), "name", "own"), "n")
	assert.Equal(t, "own", out.String("name"))
	assert.Equal(t, []string{"labels", "name"}, out.Keys())
}

func TestHeaderValue(t *testing.T) {
	header := flow.MapOf("name", "h")
	assert.Equal(t, "h", HeaderValue(header, flow.NewMap(), "name"))
	assert.Equal(t, "l", HeaderValue(header, flow.MapOf("name", "l"), "name"))
	assert.Empty(t, HeaderValue(nil, nil, "name"))
}

func TestHeaderEntry(t *testing.T) {
	header := flow.MapOf("name", 7)

	v, ok := HeaderEntry(header, flow.NewMap(), "name")
	assert.True(t, ok)
	assert.Equal(t, 7, v)

	v, ok = HeaderEntry(header, flow.MapOf("name", false), "name")
	assert.True(t, ok)
	assert.Equal(t, false, v)

	_, ok = HeaderEntry(nil, flow.MapOf("name", ""), "name")
	assert.False(t, ok)
}

func TestOmits(t *testing.T) {
	params := flow.MapOf(ParamOmitted, []any{"metadata"})
	assert.True(t, Omits(params, "metadata"))
	assert.False(t, Omits(params, "flows"))
	assert.False(t, Omits(flow.MapOf(ParamOmitted, "metadata"), "metadata"))
	assert.False(t, Omits(nil, "metadata"))

	assert.True(t, Structural(ParamLayout))
	assert.True(t, Structural(ParamOmitted))
	assert.False(t, Structural("traits"))
}
