// Package integration implements the Camel K Integration dialect. One
// resource holds any number of routes under spec.flows, sharing the
// resource metadata as their header.
package integration

import (
	"github.com/devicelab-dev/flowdsl/pkg/dsl"
	"github.com/devicelab-dev/flowdsl/pkg/dsl/route"
)

// Dialect constants.
const (
	Identifier = "Integration"
	APIVersion = "camel.apache.org/v1"
	Kind       = "Integration"
)

// Flow layouts, recorded in the flow parameter dsl.ParamLayout when the
// default rules would not write a route wrapper back as read.
const (
	// LayoutRoute is a wrapper with no id, description or options of its own.
	LayoutRoute = "route"
	// LayoutRouteID is a wrapper whose id repeats the resource name.
	LayoutRouteID = "route-id"
)

const (
	keyAPIVersion = "apiVersion"
	keyKind       = "kind"
	keyMetadata   = "metadata"
	keySpec       = "spec"
	keyFlows      = "flows"
	keyRoute      = "route"
	keyID         = "id"
	keyDesc       = "description"
)

// Specification returns the dialect specification backed by the given
// step catalog.
func Specification(steps dsl.StepLookup) dsl.Specification {
	codec := route.Codec{Dialect: Identifier, Steps: steps}
	return dsl.Specification{
		Identifier:  Identifier,
		Description: "Camel K Integration custom resource (spec.flows)",
		MultiFlow:   true,
		Parser:      &Parser{codec: codec},
		Generator:   &Generator{codec: codec},
	}
}

// NewParser creates a parser classifying steps through the catalog.
func NewParser(steps dsl.StepLookup) *Parser {
	return &Parser{codec: route.Codec{Dialect: Identifier, Steps: steps}}
}

// NewGenerator creates a generator using the catalog for shorthand steps.
func NewGenerator(steps dsl.StepLookup) *Generator {
	return &Generator{codec: route.Codec{Dialect: Identifier, Steps: steps}}
}
