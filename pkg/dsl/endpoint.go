package dsl

import (
	"strings"

	"github.com/devicelab-dev/flowdsl/pkg/flow"
)

const kameletScheme = "kamelet"

// EndpointName derives a step name and kind from an endpoint URI.
// kamelet:<name>[/...][?...] names the kamelet itself; any other URI is
// named after its scheme.
func EndpointName(uri string) (name, kind string) {
	scheme, rest, ok := strings.Cut(uri, ":")
	if !ok {
		return uri, flow.KindConnector
	}
	if scheme != kameletScheme {
		return scheme, flow.KindConnector
	}
	if i := strings.IndexAny(rest, "/?"); i >= 0 {
		rest = rest[:i]
	}
	if rest == "" {
		return scheme, flow.KindConnector
	}
	return rest, flow.KindKamelet
}

// EndpointStep builds a step for a URI endpoint, classified through the
// catalog.
func EndpointStep(lookup StepLookup, dsl, uri string, role flow.Role, params *flow.Map) flow.Step {
	name, kind := EndpointName(uri)
	step := flow.Step{Name: name, Kind: kind, Role: role, URI: uri, Parameters: params}
	if d, ok := Describe(lookup, dsl, name, kind); ok {
		step.ID = d.ID
		step.Kind = d.Kind
	}
	return step
}
