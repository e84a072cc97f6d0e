package integration

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/devicelab-dev/flowdsl/pkg/dsl"
	"github.com/devicelab-dev/flowdsl/pkg/dsl/route"
	"github.com/devicelab-dev/flowdsl/pkg/flow"
)

// Parser reads Integration resources.
type Parser struct {
	codec route.Codec
}

// AppliesTo reports whether text is an Integration resource.
func (p *Parser) AppliesTo(text string) bool {
	root, err := dsl.DecodeMapping(text)
	if err != nil {
		return false
	}
	return applies(root)
}

func applies(root *yaml.Node) bool {
	return dsl.ScalarField(root, keyAPIVersion) == APIVersion &&
		dsl.ScalarField(root, keyKind) == Kind &&
		dsl.IsMapping(dsl.Field(root, keySpec))
}

// DeepParse returns the first flow with the resource header merged into
// its metadata and parameters. An integration without flows yields an
// empty flow.
func (p *Parser) DeepParse(text string) (flow.ParseResult, error) {
	results, err := p.ParsedFlows(text)
	if err != nil {
		return flow.ParseResult{}, err
	}
	header, units := flow.SplitResults(results)
	unit := flow.Unit(nil, nil, nil)
	if len(units) > 0 {
		unit = units[0]
	}
	meta := unit.Metadata.Clone()
	header.Metadata.Range(func(k string, v any) bool {
		meta.SetDefault(k, v)
		return true
	})
	return flow.Unit(unit.Steps, meta, flow.Merge(header.Parameters, unit.Parameters)), nil
}

// ParsedFlows returns the resource header, when there is one, followed by
// one result per entry of spec.flows.
func (p *Parser) ParsedFlows(text string) ([]flow.ParseResult, error) {
	root, err := dsl.DecodeMapping(text)
	if err != nil {
		return nil, p.formatError(nil, err.Error())
	}
	if !applies(root) {
		return nil, p.formatError(root, "not an "+Kind+" resource")
	}

	metaNode := dsl.Field(root, keyMetadata)
	if !flow.IsNull(metaNode) && !dsl.IsMapping(metaNode) {
		return nil, p.formatError(metaNode, "metadata must be a mapping")
	}
	meta, err := flow.NodeMap(metaNode)
	if err != nil {
		return nil, p.formatError(metaNode, err.Error())
	}
	headerMeta, description := dsl.LiftDescription(meta)
	if description != "" {
		headerMeta.Set(flow.KeyDescription, description)
	}

	headerParams := flow.NewMap()
	var flows *yaml.Node
	spec := dsl.Field(root, keySpec)
	for i := 0; i+1 < len(spec.Content); i += 2 {
		key, value := spec.Content[i].Value, spec.Content[i+1]
		switch {
		case key == keyFlows:
			flows = value
			continue
		case dsl.Structural(key):
			return nil, p.formatError(value, fmt.Sprintf("unsupported spec key %q", key))
		}
		v, err := flow.NodeValue(value)
		if err != nil {
			return nil, p.formatError(value, err.Error())
		}
		headerParams.Set(key, v)
	}

	var omitted []any
	if metaNode == nil {
		omitted = append(omitted, keyMetadata)
	}
	if dsl.Field(spec, keyFlows) == nil {
		omitted = append(omitted, keyFlows)
	}
	if len(omitted) > 0 {
		headerParams.Set(dsl.ParamOmitted, omitted)
	}

	var results []flow.ParseResult
	if headerMeta.Len() > 0 || headerParams.Len() > 0 {
		results = append(results, flow.Header(headerMeta, headerParams))
	}

	if flow.IsNull(flows) {
		return results, nil
	}
	if flows.Kind != yaml.SequenceNode {
		return nil, p.formatError(flows, "spec.flows must be a sequence")
	}
	for _, item := range flows.Content {
		unit, wrapped, err := p.parseFlow(item)
		if err != nil {
			return nil, err
		}
		hasID := unit.Metadata.Has(flow.KeyName)
		unit.Metadata = flow.Inherit(headerMeta, unit.Metadata)
		if wrapped {
			if l := routeLayout(headerMeta, unit, hasID); l != "" {
				unit.Parameters.Set(dsl.ParamLayout, l)
			}
		}
		results = append(results, unit)
	}
	return results, nil
}

// parseFlow reads one spec.flows entry: a bare `from`, or a `route`
// wrapper carrying id, description and other route options.
func (p *Parser) parseFlow(item *yaml.Node) (flow.ParseResult, bool, error) {
	if !dsl.IsMapping(item) || len(item.Content) != 2 {
		return flow.ParseResult{}, false, p.formatError(item, "flow must be a single-key mapping")
	}
	key, value := item.Content[0].Value, item.Content[1]

	switch key {
	case route.KeyFrom:
		steps, err := p.codec.ParseFrom(value)
		if err != nil {
			return flow.ParseResult{}, false, err
		}
		return flow.Unit(steps, nil, nil), false, nil

	case keyRoute:
		if !dsl.IsMapping(value) {
			return flow.ParseResult{}, false, p.formatError(value, "route must be a mapping")
		}
		meta, params := flow.NewMap(), flow.NewMap()
		var steps []flow.Step
		for i := 0; i+1 < len(value.Content); i += 2 {
			k, v := value.Content[i].Value, value.Content[i+1]
			switch {
			case k == keyID || k == keyDesc:
				if v.Kind != yaml.ScalarNode || flow.IsNull(v) {
					return flow.ParseResult{}, false, p.formatError(v, fmt.Sprintf("route %s must be a scalar", k))
				}
				val, err := flow.NodeValue(v)
				if err != nil {
					return flow.ParseResult{}, false, p.formatError(v, err.Error())
				}
				if k == keyID {
					meta.Set(flow.KeyName, val)
				} else {
					meta.Set(flow.KeyDescription, val)
				}
			case k == route.KeyFrom:
				parsed, err := p.codec.ParseFrom(v)
				if err != nil {
					return flow.ParseResult{}, false, err
				}
				steps = parsed
			case dsl.Structural(k):
				return flow.ParseResult{}, false, p.formatError(v, fmt.Sprintf("unsupported route key %q", k))
			default:
				val, err := flow.NodeValue(v)
				if err != nil {
					return flow.ParseResult{}, false, p.formatError(v, err.Error())
				}
				params.Set(k, val)
			}
		}
		return flow.Unit(steps, meta, params), true, nil

	default:
		return flow.ParseResult{}, false, p.formatError(item, fmt.Sprintf("unsupported flow %q", key))
	}
}

// routeLayout returns the layout a route wrapper needs recorded: one whose
// id repeats the resource name, or one with nothing of its own.
func routeLayout(header *flow.Map, unit flow.ParseResult, hasID bool) string {
	if hasID {
		id, _ := unit.Metadata.Get(flow.KeyName)
		if name, ok := header.Get(flow.KeyName); ok && flow.ValuesEqual(name, id) {
			return LayoutRouteID
		}
		return ""
	}
	if !unit.Metadata.Has(flow.KeyDescription) && unit.Parameters.Len() == 0 {
		return LayoutRoute
	}
	return ""
}

func (p *Parser) formatError(node *yaml.Node, reason string) error {
	return dsl.FormatError(Identifier, node, reason)
}
