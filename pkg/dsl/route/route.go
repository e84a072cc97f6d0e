// Package route converts Camel route bodies, a `from` endpoint with its
// nested `steps`, to and from canonical steps. It is shared by the dialects
// that embed routes.
package route

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/devicelab-dev/flowdsl/pkg/dsl"
	"github.com/devicelab-dev/flowdsl/pkg/flow"
)

// Route body keys.
const (
	KeyFrom  = "from"
	KeyURI   = "uri"
	KeySteps = "steps"
)

// uriSteps take an endpoint URI, either as a scalar or under `uri`.
var uriSteps = map[string]bool{
	"to":         true,
	"toD":        true,
	"wireTap":    true,
	"enrich":     true,
	"pollEnrich": true,
}

// Codec converts route bodies for one dialect.
type Codec struct {
	Dialect string
	Steps   dsl.StepLookup
}

// ParseFrom converts a `from` node into a START step followed by one MIDDLE
// step per entry of its `steps` sequence. A null node yields no steps.
func (c Codec) ParseFrom(node *yaml.Node) ([]flow.Step, error) {
	steps := []flow.Step{}
	if flow.IsNull(node) {
		return steps, nil
	}
	if !dsl.IsMapping(node) {
		return nil, c.formatError(node, "from must be a mapping")
	}

	uri := dsl.Field(node, KeyURI)
	if uri == nil || uri.Kind != yaml.ScalarNode || flow.IsNull(uri) {
		return nil, c.formatError(node, "from requires a uri")
	}

	params := flow.NewMap()
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		if key == KeyURI || key == KeySteps {
			continue
		}
		v, err := flow.NodeValue(node.Content[i+1])
		if err != nil {
			return nil, c.formatError(node.Content[i+1], err.Error())
		}
		params.Set(key, v)
	}
	steps = append(steps, dsl.EndpointStep(c.Steps, c.Dialect, uri.Value, flow.Start, params))

	body := dsl.Field(node, KeySteps)
	if flow.IsNull(body) {
		return steps, nil
	}
	if body.Kind != yaml.SequenceNode {
		return nil, c.formatError(body, "steps must be a sequence")
	}
	for _, item := range body.Content {
		s, err := c.parseStep(item)
		if err != nil {
			return nil, err
		}
		steps = append(steps, s)
	}
	return steps, nil
}

func (c Codec) parseStep(item *yaml.Node) (flow.Step, error) {
	if !dsl.IsMapping(item) || len(item.Content) != 2 {
		return flow.Step{}, c.formatError(item, "step must be a single-key mapping")
	}
	key, value := item.Content[0].Value, item.Content[1]

	step := flow.Step{Name: key, Kind: flow.KindEIP, Role: flow.Middle, Parameters: flow.NewMap()}
	d, known := dsl.Describe(c.Steps, c.Dialect, key, flow.KindEIP)
	if known {
		step.ID = d.ID
		step.Kind = d.Kind
	}

	switch {
	case flow.IsNull(value):
	case value.Kind == yaml.ScalarNode:
		v, err := flow.NodeValue(value)
		if err != nil {
			return flow.Step{}, c.formatError(value, err.Error())
		}
		switch {
		case uriSteps[key]:
			step.URI = value.Value
		case d.Shorthand != "":
			step.Parameters.Set(d.Shorthand, v)
		default:
			return flow.Step{}, c.formatError(value, fmt.Sprintf("step %q does not accept a scalar value", key))
		}
	case value.Kind == yaml.MappingNode:
		params, err := flow.NodeMap(value)
		if err != nil {
			return flow.Step{}, c.formatError(value, err.Error())
		}
		if uriSteps[key] {
			if u, ok := params.Get(KeyURI); ok {
				if s, ok := u.(string); ok {
					step.URI = s
					params.Delete(KeyURI)
				}
			}
		}
		step.Parameters = params
	default:
		return flow.Step{}, c.formatError(value, fmt.Sprintf("step %q must be a mapping or a scalar", key))
	}
	return step, nil
}

// From renders steps as a `from` node. The first step is the endpoint and
// the rest become its `steps`; no steps render as null.
func (c Codec) From(steps []flow.Step) (*yaml.Node, error) {
	if len(steps) == 0 {
		return flow.NullNode(), nil
	}
	start := steps[0]

	node := dsl.Mapping(KeyURI, dsl.String(endpointURI(start)))
	var err error
	start.Params().Range(func(k string, v any) bool {
		var child *yaml.Node
		if child, err = flow.ValueNode(v); err != nil {
			return false
		}
		dsl.Put(node, k, child)
		return true
	})
	if err != nil {
		return nil, err
	}

	if len(steps) > 1 {
		seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, s := range steps[1:] {
			child, err := c.stepNode(s)
			if err != nil {
				return nil, err
			}
			seq.Content = append(seq.Content, child)
		}
		dsl.Put(node, KeySteps, seq)
	}
	return node, nil
}

func (c Codec) stepNode(s flow.Step) (*yaml.Node, error) {
	params := s.Params()

	if uriSteps[s.Name] && s.URI != "" {
		if params.Len() == 0 {
			return dsl.Mapping(s.Name, dsl.String(s.URI)), nil
		}
		withURI := flow.NewMap()
		withURI.Set(KeyURI, s.URI)
		params.Range(func(k string, v any) bool {
			withURI.Set(k, v)
			return true
		})
		params = withURI
	} else if v, ok := c.shorthandValue(s); ok {
		value, err := flow.ValueNode(v)
		if err != nil {
			return nil, err
		}
		return dsl.Mapping(s.Name, value), nil
	}

	value, err := flow.ValueNode(params)
	if err != nil {
		return nil, err
	}
	return dsl.Mapping(s.Name, value), nil
}

// shorthandValue returns the scalar a step compacts to when its only
// parameter is the descriptor's shorthand parameter.
func (c Codec) shorthandValue(s flow.Step) (any, bool) {
	d, ok := dsl.Describe(c.Steps, c.Dialect, s.Name, flow.KindEIP)
	if !ok || d.Shorthand == "" || s.Params().Len() != 1 {
		return nil, false
	}
	v, ok := s.Params().Get(d.Shorthand)
	if !ok {
		return nil, false
	}
	switch v.(type) {
	case *flow.Map, []any, nil:
		return nil, false
	}
	return v, true
}

func endpointURI(s flow.Step) string {
	switch {
	case s.URI != "":
		return s.URI
	case s.Kind == flow.KindKamelet:
		return "kamelet:" + s.Name
	default:
		return s.Name + ":default"
	}
}

func (c Codec) formatError(node *yaml.Node, reason string) error {
	return dsl.FormatError(c.Dialect, node, reason)
}
