package kamelet

import (
	"gopkg.in/yaml.v3"

	"github.com/devicelab-dev/flowdsl/pkg/dsl"
	"github.com/devicelab-dev/flowdsl/pkg/dsl/route"
	"github.com/devicelab-dev/flowdsl/pkg/flow"
)

// Generator writes Kamelet templates.
type Generator struct {
	codec route.Codec
}

// Generate renders one template. The layout parameter selects between the
// template and legacy flow layouts, defaulting to template.
func (g *Generator) Generate(steps []flow.Step, metadata, parameters *flow.Map) (string, error) {
	return g.GenerateFlows([]flow.ParseResult{flow.Unit(steps, metadata, parameters)})
}

// GenerateFlows renders one template document per flow. Header metadata
// fills in a missing id or description.
func (g *Generator) GenerateFlows(results []flow.ParseResult) (string, error) {
	header, units := flow.SplitResults(results)
	if len(units) == 0 {
		units = []flow.ParseResult{flow.Unit(nil, nil, nil)}
	}

	docs := make([]string, 0, len(units))
	for _, u := range units {
		node, err := g.document(header.Metadata, u)
		if err != nil {
			return "", err
		}
		out, err := dsl.Encode(node)
		if err != nil {
			return "", err
		}
		docs = append(docs, out)
	}
	return dsl.JoinDocuments(docs), nil
}

func (g *Generator) document(header *flow.Map, u flow.ParseResult) (*yaml.Node, error) {
	l := u.Parameters.String(ParamLayout)
	if l != LayoutFlow {
		l = LayoutTemplate
	}

	body := dsl.Mapping()
	for _, f := range []struct{ key, meta string }{
		{keyID, flow.KeyName},
		{keyDescription, flow.KeyDescription},
	} {
		v, ok := dsl.HeaderEntry(header, u.Metadata, f.meta)
		if !ok {
			continue
		}
		n, err := flow.ValueNode(v)
		if err != nil {
			return nil, err
		}
		dsl.Put(body, f.key, n)
	}

	root := dsl.Mapping()
	var err error
	u.Parameters.Range(func(k string, v any) bool {
		if dsl.Structural(k) {
			return true
		}
		var n *yaml.Node
		if n, err = flow.ValueNode(v); err != nil {
			return false
		}
		if k == ParamBeans && l == LayoutFlow {
			dsl.Put(root, k, n)
		} else {
			dsl.Put(body, k, n)
		}
		return true
	})
	if err != nil {
		return nil, err
	}

	from, err := g.codec.From(u.Steps)
	if err != nil {
		return nil, err
	}
	dsl.Put(body, route.KeyFrom, from)
	dsl.Put(root, l, body)
	return root, nil
}
