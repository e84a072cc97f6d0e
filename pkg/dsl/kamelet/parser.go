package kamelet

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/devicelab-dev/flowdsl/pkg/dsl"
	"github.com/devicelab-dev/flowdsl/pkg/dsl/route"
	"github.com/devicelab-dev/flowdsl/pkg/flow"
)

// Parser reads Kamelet templates.
type Parser struct {
	codec route.Codec
}

// AppliesTo reports whether text is a bare Kamelet template.
func (p *Parser) AppliesTo(text string) bool {
	root, err := dsl.DecodeMapping(text)
	if err != nil {
		return false
	}
	_, body := layout(root)
	return body != nil
}

// layout finds the template body. Resources with apiVersion or kind are
// never templates.
func layout(root *yaml.Node) (string, *yaml.Node) {
	if dsl.Field(root, keyAPIVersion) != nil || dsl.Field(root, keyKind) != nil {
		return "", nil
	}
	for _, l := range []string{LayoutTemplate, LayoutFlow} {
		body := dsl.Field(root, l)
		if dsl.IsMapping(body) && dsl.Field(body, route.KeyFrom) != nil {
			return l, body
		}
	}
	return "", nil
}

// DeepParse returns the template's flow.
func (p *Parser) DeepParse(text string) (flow.ParseResult, error) {
	results, err := p.ParsedFlows(text)
	if err != nil {
		return flow.ParseResult{}, err
	}
	return results[0], nil
}

// ParsedFlows returns the template's single flow. Templates carry no
// shared header.
func (p *Parser) ParsedFlows(text string) ([]flow.ParseResult, error) {
	root, err := dsl.DecodeMapping(text)
	if err != nil {
		return nil, p.formatError(nil, err.Error())
	}
	l, body := layout(root)
	if body == nil {
		return nil, p.formatError(root, "no template with a from endpoint")
	}

	meta, params := flow.NewMap(), flow.MapOf(ParamLayout, l)

	for _, k := range dsl.Keys(root) {
		switch {
		case k == l:
		case k == ParamBeans && l == LayoutFlow:
			if err := p.setValue(params, ParamBeans, dsl.Field(root, k)); err != nil {
				return nil, err
			}
		default:
			return nil, p.formatError(root, fmt.Sprintf("unexpected top-level key %q", k))
		}
	}

	var steps []flow.Step
	for i := 0; i+1 < len(body.Content); i += 2 {
		k, v := body.Content[i].Value, body.Content[i+1]
		switch k {
		case keyID, keyDescription:
			if v.Kind != yaml.ScalarNode || flow.IsNull(v) {
				return nil, p.formatError(v, fmt.Sprintf("%s must be a scalar", k))
			}
			key := flow.KeyDescription
			if k == keyID {
				key = flow.KeyName
			}
			if err := p.setValue(meta, key, v); err != nil {
				return nil, err
			}
		case route.KeyFrom:
			if steps, err = p.codec.ParseFrom(v); err != nil {
				return nil, err
			}
		case ParamBeans:
			if l == LayoutFlow {
				return nil, p.formatError(v, "beans belong at the top level of a flow layout")
			}
			if err := p.setValue(params, ParamBeans, v); err != nil {
				return nil, err
			}
		case dsl.ParamLayout, dsl.ParamOmitted:
			return nil, p.formatError(v, fmt.Sprintf("unsupported template key %q", k))
		default:
			if err := p.setValue(params, k, v); err != nil {
				return nil, err
			}
		}
	}
	return []flow.ParseResult{flow.Unit(steps, meta, params)}, nil
}

func (p *Parser) setValue(params *flow.Map, key string, node *yaml.Node) error {
	v, err := flow.NodeValue(node)
	if err != nil {
		return p.formatError(node, err.Error())
	}
	params.Set(key, v)
	return nil
}

func (p *Parser) formatError(node *yaml.Node, reason string) error {
	return dsl.FormatError(Identifier, node, reason)
}
