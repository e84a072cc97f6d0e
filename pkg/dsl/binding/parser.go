package binding

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/devicelab-dev/flowdsl/pkg/dsl"
	"github.com/devicelab-dev/flowdsl/pkg/flow"
)

// Parser reads Kamelet Binding resources.
type Parser struct {
	steps dsl.StepLookup
}

// NewParser creates a parser classifying steps through the catalog.
func NewParser(steps dsl.StepLookup) *Parser {
	return &Parser{steps: steps}
}

// AppliesTo reports whether text is a KameletBinding resource.
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

// DeepParse returns the binding's flow with the name and description
// header merged into its metadata.
func (p *Parser) DeepParse(text string) (flow.ParseResult, error) {
	header, unit, err := p.parse(text)
	if err != nil {
		return flow.ParseResult{}, err
	}
	if header != nil {
		header.Metadata.Range(func(k string, v any) bool {
			unit.Metadata.SetDefault(k, v)
			return true
		})
	}
	return unit, nil
}

// ParsedFlows returns a name/description header, when the binding has
// one, followed by its single flow.
func (p *Parser) ParsedFlows(text string) ([]flow.ParseResult, error) {
	header, unit, err := p.parse(text)
	if err != nil {
		return nil, err
	}
	if header == nil {
		return []flow.ParseResult{unit}, nil
	}
	return []flow.ParseResult{*header, unit}, nil
}

func (p *Parser) parse(text string) (*flow.ParseResult, flow.ParseResult, error) {
	var unit flow.ParseResult

	root, err := dsl.DecodeMapping(text)
	if err != nil {
		return nil, unit, dsl.FormatError(Identifier, nil, err.Error())
	}
	if !applies(root) {
		return nil, unit, dsl.FormatError(Identifier, root, "not a "+Kind+" resource")
	}

	metaNode := dsl.Field(root, keyMetadata)
	if !flow.IsNull(metaNode) && !dsl.IsMapping(metaNode) {
		return nil, unit, dsl.FormatError(Identifier, metaNode, "metadata must be a mapping")
	}
	meta, err := flow.NodeMap(metaNode)
	if err != nil {
		return nil, unit, dsl.FormatError(Identifier, metaNode, err.Error())
	}
	meta, description := dsl.LiftDescription(meta)

	steps := []flow.Step{}
	params := flow.NewMap()
	spec := dsl.Field(root, keySpec)
	for i := 0; i+1 < len(spec.Content); i += 2 {
		key, value := spec.Content[i].Value, spec.Content[i+1]
		switch key {
		case keySource, keySink:
			role := flow.Start
			if key == keySink {
				role = flow.End
			}
			s, err := p.endpoint(value, role)
			if err != nil {
				return nil, unit, err
			}
			if s != nil {
				steps = append(steps, *s)
			}
		case keySteps:
			if flow.IsNull(value) {
				continue
			}
			if value.Kind != yaml.SequenceNode {
				return nil, unit, dsl.FormatError(Identifier, value, "spec.steps must be a sequence")
			}
			for _, item := range value.Content {
				s, err := p.endpoint(item, flow.Middle)
				if err != nil {
					return nil, unit, err
				}
				if s == nil {
					return nil, unit, dsl.FormatError(Identifier, item, "spec.steps entries cannot be null")
				}
				steps = append(steps, *s)
			}
		case dsl.ParamLayout, dsl.ParamOmitted:
			return nil, unit, dsl.FormatError(Identifier, value, fmt.Sprintf("unsupported spec key %q", key))
		default:
			v, err := flow.NodeValue(value)
			if err != nil {
				return nil, unit, dsl.FormatError(Identifier, value, err.Error())
			}
			params.Set(key, v)
		}
	}
	steps = orderByRole(steps)

	var header *flow.ParseResult
	name := meta.String(flow.KeyName)
	if name != "" || description != "" {
		h := flow.Header(nil, nil)
		if name != "" {
			h.Metadata.Set(flow.KeyName, name)
		}
		if description != "" {
			h.Metadata.Set(flow.KeyDescription, description)
		}
		header = &h
	}

	local := meta
	if header != nil {
		local = flow.Inherit(header.Metadata, meta)
	}
	unit = flow.Unit(steps, local, params)
	return header, unit, nil
}

// orderByRole puts the source first and the sink last, whatever the key
// order of the `spec` mapping.
func orderByRole(steps []flow.Step) []flow.Step {
	out := make([]flow.Step, 0, len(steps))
	for _, role := range []flow.Role{flow.Start, flow.Middle, flow.End} {
		for _, s := range steps {
			if s.Role == role {
				out = append(out, s)
			}
		}
	}
	return out
}

// endpoint converts a source, sink or step endpoint. A null endpoint
// yields no step.
func (p *Parser) endpoint(node *yaml.Node, role flow.Role) (*flow.Step, error) {
	if flow.IsNull(node) {
		return nil, nil
	}
	if !dsl.IsMapping(node) {
		return nil, dsl.FormatError(Identifier, node, "endpoint must be a mapping")
	}
	for _, k := range dsl.Keys(node) {
		switch k {
		case keyRef, keyURI, keyProperties:
		default:
			return nil, dsl.FormatError(Identifier, node, fmt.Sprintf("unsupported endpoint key %q", k))
		}
	}

	propsNode := dsl.Field(node, keyProperties)
	if !flow.IsNull(propsNode) && !dsl.IsMapping(propsNode) {
		return nil, dsl.FormatError(Identifier, propsNode, "properties must be a mapping")
	}
	props, err := flow.NodeMap(propsNode)
	if err != nil {
		return nil, dsl.FormatError(Identifier, propsNode, err.Error())
	}

	ref, uri := dsl.Field(node, keyRef), dsl.Field(node, keyURI)
	switch {
	case ref != nil && uri != nil:
		return nil, dsl.FormatError(Identifier, node, "endpoint has both ref and uri")
	case uri != nil:
		if uri.Kind != yaml.ScalarNode || flow.IsNull(uri) {
			return nil, dsl.FormatError(Identifier, uri, "uri must be a string")
		}
		s := dsl.EndpointStep(p.steps, Identifier, uri.Value, role, props)
		return &s, nil
	case ref != nil:
		if !dsl.IsMapping(ref) {
			return nil, dsl.FormatError(Identifier, ref, "ref must be a mapping")
		}
		if isKameletRef(ref) {
			s := flow.Step{
				Name:       dsl.ScalarField(ref, keyName),
				Kind:       flow.KindKamelet,
				Role:       role,
				Parameters: props,
			}
			if d, ok := dsl.Describe(p.steps, Identifier, s.Name, flow.KindKamelet); ok {
				s.ID = d.ID
			}
			return &s, nil
		}
		return p.refStep(node, ref, role)
	default:
		return nil, dsl.FormatError(Identifier, node, "endpoint needs a ref or a uri")
	}
}

// isKameletRef reports whether ref is exactly what the generator writes
// for a Kamelet step. Anything else is kept verbatim.
func isKameletRef(ref *yaml.Node) bool {
	if dsl.ScalarField(ref, keyKind) != kindKamelet || dsl.ScalarField(ref, keyName) == "" {
		return false
	}
	if dsl.ScalarField(ref, keyAPIVersion) != APIVersion {
		return false
	}
	for _, k := range dsl.Keys(ref) {
		switch k {
		case keyKind, keyAPIVersion, keyName:
		default:
			return false
		}
	}
	return true
}

// refStep keeps a non-Kamelet reference verbatim as step parameters.
func (p *Parser) refStep(node, ref *yaml.Node, role flow.Role) (*flow.Step, error) {
	params, err := flow.NodeMap(node)
	if err != nil {
		return nil, dsl.FormatError(Identifier, node, err.Error())
	}

	s := flow.Step{Role: role, Kind: flow.KindRef, Parameters: params}
	group, _, _ := strings.Cut(dsl.ScalarField(ref, keyAPIVersion), "/")
	if kind := dsl.ScalarField(ref, keyKind); kind == kindKamelet && dsl.ScalarField(ref, keyName) != "" {
		// Kamelet of another API version: named after the Kamelet, but the
		// step stays a ref so the endpoint is written back as read.
		s.Name = dsl.ScalarField(ref, keyName)
		if d, ok := dsl.Describe(p.steps, Identifier, s.Name, flow.KindKamelet); ok {
			s.ID = d.ID
		}
		return &s, nil
	}
	if strings.HasSuffix(group, "knative.dev") {
		s.Name = "knative"
		s.Kind = flow.KindKnative
	} else {
		s.Name = strings.ToLower(dsl.ScalarField(ref, keyKind))
	}
	if d, ok := dsl.Describe(p.steps, Identifier, s.Name, s.Kind); ok {
		s.ID = d.ID
		s.Kind = d.Kind
	}
	return &s, nil
}
