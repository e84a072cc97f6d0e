package integration

import (
	"gopkg.in/yaml.v3"

	"github.com/devicelab-dev/flowdsl/pkg/dsl"
	"github.com/devicelab-dev/flowdsl/pkg/dsl/route"
	"github.com/devicelab-dev/flowdsl/pkg/flow"
)

// Generator writes Integration resources.
type Generator struct {
	codec route.Codec
}

// Generate renders a single-flow integration. Metadata and parameters
// become the resource header and the flow is written as a bare `from`.
func (g *Generator) Generate(steps []flow.Step, metadata, parameters *flow.Map) (string, error) {
	return g.GenerateFlows([]flow.ParseResult{
		flow.Header(metadata, parameters),
		flow.Unit(steps, metadata.Without(flow.KeyDescription), nil),
	})
}

// GenerateFlows renders all flows into one resource. A flow is wrapped in
// a `route` when it has metadata of its own, route options, or a recorded
// route layout. Resource metadata and spec.flows are left out only when
// the header records them as omitted and there is nothing to write.
func (g *Generator) GenerateFlows(results []flow.ParseResult) (string, error) {
	header, units := flow.SplitResults(results)

	root := dsl.Mapping(
		keyAPIVersion, dsl.String(APIVersion),
		keyKind, dsl.String(Kind),
	)

	meta := header.Metadata.Without(flow.KeyDescription)
	description := header.Metadata.String(flow.KeyDescription)
	if meta.Len() > 0 || description != "" || !dsl.Omits(header.Parameters, keyMetadata) {
		metaNode, err := flow.ValueNode(dsl.EmbedDescription(meta, description))
		if err != nil {
			return "", err
		}
		dsl.Put(root, keyMetadata, metaNode)
	}

	spec := dsl.Mapping()
	if len(units) > 0 || !dsl.Omits(header.Parameters, keyFlows) {
		flows := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, u := range units {
			n, err := g.flowNode(header.Metadata, u)
			if err != nil {
				return "", err
			}
			flows.Content = append(flows.Content, n)
		}
		dsl.Put(spec, keyFlows, flows)
	}

	var err error
	header.Parameters.Range(func(k string, v any) bool {
		if dsl.Structural(k) {
			return true
		}
		var n *yaml.Node
		if n, err = flow.ValueNode(v); err != nil {
			return false
		}
		dsl.Put(spec, k, n)
		return true
	})
	if err != nil {
		return "", err
	}
	dsl.Put(root, keySpec, spec)

	return dsl.Encode(root)
}

func (g *Generator) flowNode(header *flow.Map, u flow.ParseResult) (*yaml.Node, error) {
	from, err := g.codec.From(u.Steps)
	if err != nil {
		return nil, err
	}

	layout := u.Parameters.String(dsl.ParamLayout)
	local := flow.LocalOnly(header, u.Metadata)
	if layout == LayoutRouteID {
		local = u.Metadata
	}
	name, hasName := entry(local, flow.KeyName)
	description, hasDesc := entry(local, flow.KeyDescription)
	options := u.Parameters.Without(dsl.ParamLayout, dsl.ParamOmitted)

	wrap := hasName || hasDesc || options.Len() > 0 ||
		layout == LayoutRoute || layout == LayoutRouteID
	if !wrap {
		return dsl.Mapping(route.KeyFrom, from), nil
	}

	r := dsl.Mapping()
	for _, f := range []struct {
		key   string
		value any
		ok    bool
	}{
		{keyID, name, hasName},
		{keyDesc, description, hasDesc},
	} {
		if !f.ok {
			continue
		}
		n, err := flow.ValueNode(f.value)
		if err != nil {
			return nil, err
		}
		dsl.Put(r, f.key, n)
	}
	options.Range(func(k string, v any) bool {
		var n *yaml.Node
		if n, err = flow.ValueNode(v); err != nil {
			return false
		}
		dsl.Put(r, k, n)
		return true
	})
	if err != nil {
		return nil, err
	}
	dsl.Put(r, route.KeyFrom, from)
	return dsl.Mapping(keyRoute, r), nil
}

// entry returns a metadata value unless it formats as "".
func entry(m *flow.Map, key string) (any, bool) {
	if m.String(key) == "" {
		return nil, false
	}
	return m.Get(key)
}
