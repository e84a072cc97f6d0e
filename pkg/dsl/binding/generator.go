package binding

import (
	"gopkg.in/yaml.v3"

	"github.com/devicelab-dev/flowdsl/pkg/dsl"
	"github.com/devicelab-dev/flowdsl/pkg/flow"
)

// Generator writes Kamelet Binding resources.
type Generator struct{}

// NewGenerator creates a generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// Generate renders one binding. Metadata may carry the description, which
// is written as an annotation.
func (g *Generator) Generate(steps []flow.Step, metadata, parameters *flow.Map) (string, error) {
	return g.GenerateFlows([]flow.ParseResult{flow.Unit(steps, metadata, parameters)})
}

// GenerateFlows renders one binding per flow, each carrying the header's
// name and description unless the flow overrides them. A header without
// flows renders an empty binding.
func (g *Generator) GenerateFlows(results []flow.ParseResult) (string, error) {
	header, units := flow.SplitResults(results)
	if len(units) == 0 {
		units = []flow.ParseResult{flow.Unit(nil, nil, nil)}
	}

	docs := make([]string, 0, len(units))
	for _, u := range units {
		node, err := g.resource(header.Metadata, u)
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

func (g *Generator) resource(header *flow.Map, u flow.ParseResult) (*yaml.Node, error) {
	description := dsl.HeaderValue(header, u.Metadata, flow.KeyDescription)
	meta := dsl.WithName(u.Metadata.Without(flow.KeyDescription), header.String(flow.KeyName))
	metaNode, err := flow.ValueNode(dsl.EmbedDescription(meta, description))
	if err != nil {
		return nil, err
	}

	spec, err := g.spec(u.Steps, u.Parameters)
	if err != nil {
		return nil, err
	}

	return dsl.Mapping(
		keyAPIVersion, dsl.String(APIVersion),
		keyKind, dsl.String(Kind),
		keyMetadata, metaNode,
		keySpec, spec,
	), nil
}

func (g *Generator) spec(steps []flow.Step, params *flow.Map) (*yaml.Node, error) {
	source, middle, sink := placeByRole(steps)

	sourceNode, err := endpointNode(source)
	if err != nil {
		return nil, err
	}
	sinkNode, err := endpointNode(sink)
	if err != nil {
		return nil, err
	}

	spec := dsl.Mapping(keySource, sourceNode)
	if len(middle) > 0 {
		seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for i := range middle {
			n, err := endpointNode(&middle[i])
			if err != nil {
				return nil, err
			}
			seq.Content = append(seq.Content, n)
		}
		dsl.Put(spec, keySteps, seq)
	}
	dsl.Put(spec, keySink, sinkNode)

	params.Range(func(k string, v any) bool {
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
		return nil, err
	}
	return spec, nil
}

// placeByRole assigns steps to the binding slots. START and END steps take
// the source and sink; unclassified steps fall back to their position.
func placeByRole(steps []flow.Step) (source *flow.Step, middle []flow.Step, sink *flow.Step) {
	hasStart, hasEnd := false, false
	for _, s := range steps {
		hasStart = hasStart || s.Role == flow.Start
		hasEnd = hasEnd || s.Role == flow.End
	}

	last := len(steps) - 1
	for i, s := range steps {
		switch {
		case source == nil && (s.Role == flow.Start || (s.Role == flow.Unclassified && i == 0 && !hasStart)):
			source = &s
		case sink == nil && (s.Role == flow.End || (s.Role == flow.Unclassified && i == last && !hasEnd)):
			sink = &s
		default:
			middle = append(middle, s)
		}
	}
	return source, middle, sink
}

func endpointNode(s *flow.Step) (*yaml.Node, error) {
	if s == nil {
		return flow.NullNode(), nil
	}

	var node *yaml.Node
	switch {
	case s.URI != "":
		node = dsl.Mapping(keyURI, dsl.String(s.URI))
	case s.Kind == flow.KindKamelet:
		node = dsl.Mapping(keyRef, dsl.Mapping(
			keyKind, dsl.String(kindKamelet),
			keyAPIVersion, dsl.String(APIVersion),
			keyName, dsl.String(s.Name),
		))
	default:
		return flow.ValueNode(s.Params())
	}

	if s.Params().Len() > 0 {
		props, err := flow.ValueNode(s.Params())
		if err != nil {
			return nil, err
		}
		dsl.Put(node, keyProperties, props)
	}
	return node, nil
}
