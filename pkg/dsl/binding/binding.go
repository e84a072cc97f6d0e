// Package binding implements the Kamelet Binding dialect: a single flow
// connecting a source endpoint, optional intermediate steps and a sink.
package binding

import (
	"github.com/devicelab-dev/flowdsl/pkg/dsl"
)

// Dialect constants.
const (
	Identifier = "Kamelet Binding"
	APIVersion = "camel.apache.org/v1alpha1"
	Kind       = "KameletBinding"
)

// Resource and endpoint keys.
const (
	keyAPIVersion = "apiVersion"
	keyKind       = "kind"
	keyMetadata   = "metadata"
	keySpec       = "spec"
	keySource     = "source"
	keySteps      = "steps"
	keySink       = "sink"
	keyRef        = "ref"
	keyURI        = "uri"
	keyProperties = "properties"
	keyName       = "name"

	kindKamelet = "Kamelet"
)

// Specification returns the dialect specification backed by the given
// step catalog.
func Specification(steps dsl.StepLookup) dsl.Specification {
	return dsl.Specification{
		Identifier:  Identifier,
		Description: "Kamelet Binding custom resource (source, steps, sink)",
		Parser:      NewParser(steps),
		Generator:   NewGenerator(),
	}
}
