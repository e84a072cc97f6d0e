// Package dialects wires the built-in flow dialects into a registry.
package dialects

import (
	"github.com/devicelab-dev/flowdsl/pkg/dsl"
	"github.com/devicelab-dev/flowdsl/pkg/dsl/binding"
	"github.com/devicelab-dev/flowdsl/pkg/dsl/integration"
	"github.com/devicelab-dev/flowdsl/pkg/dsl/kamelet"
)

// Specifications returns the built-in dialects in dispatch order.
func Specifications(steps dsl.StepLookup) []dsl.Specification {
	return []dsl.Specification{
		binding.Specification(steps),
		integration.Specification(steps),
		kamelet.Specification(steps),
	}
}

// NewRegistry builds a registry holding the built-in dialects.
func NewRegistry(steps dsl.StepLookup, opts ...dsl.Option) (*dsl.Registry, error) {
	return dsl.NewRegistry(Specifications(steps), opts...)
}
