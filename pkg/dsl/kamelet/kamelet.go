// Package kamelet implements the Kamelet template dialect: a single route
// under a top-level `template` key, or under the legacy `flow` key with
// its beans declared alongside.
package kamelet

import (
	"github.com/devicelab-dev/flowdsl/pkg/dsl"
	"github.com/devicelab-dev/flowdsl/pkg/dsl/route"
)

// Identifier names the dialect.
const Identifier = "Kamelet"

// Document layouts, recorded in the flow parameter ParamLayout.
const (
	LayoutTemplate = "template"
	LayoutFlow     = "flow"
)

// Flow parameters set by the parser.
const (
	ParamLayout = dsl.ParamLayout
	ParamBeans  = "beans"
)

const (
	keyID          = "id"
	keyDescription = "description"
	keyAPIVersion  = "apiVersion"
	keyKind        = "kind"
)

// Specification returns the dialect specification backed by the given
// step catalog.
func Specification(steps dsl.StepLookup) dsl.Specification {
	return dsl.Specification{
		Identifier:  Identifier,
		Description: "Kamelet template (template or flow with beans)",
		Parser:      NewParser(steps),
		Generator:   NewGenerator(steps),
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
