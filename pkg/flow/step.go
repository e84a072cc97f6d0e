package flow

import (
	"fmt"
	"strings"
)

// Role classifies a step by the dialect slot it was read from.
type Role int

// Role constants. The zero value is Unclassified.
const (
	Unclassified Role = iota
	Start
	Middle
	End
)

// String returns the role name as it appears in canonical documents.
func (r Role) String() string {
	switch r {
	case Start:
		return "START"
	case Middle:
		return "MIDDLE"
	case End:
		return "END"
	default:
		return "UNCLASSIFIED"
	}
}

// ParseRole parses a role name case-insensitively. Unknown names map to
// Unclassified.
func ParseRole(s string) Role {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "START":
		return Start
	case "MIDDLE":
		return Middle
	case "END":
		return End
	default:
		return Unclassified
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Role) UnmarshalText(text []byte) error {
	*r = ParseRole(string(text))
	return nil
}

// Step kinds used across dialects.
const (
	KindKamelet   = "Kamelet"
	KindConnector = "Camel-Connector"
	KindEIP       = "EIP"
	KindKnative   = "Knative"
	KindRef       = "Ref"
)

// Step is one dialect-independent pipeline step.
type Step struct {
	ID         string `json:"id,omitempty"`   // Catalog descriptor id
	Name       string `json:"name"`           // Catalog step name or dialect key
	Kind       string `json:"kind,omitempty"` // Kamelet, Camel-Connector, EIP, ...
	Role       Role   `json:"type"`
	URI        string `json:"uri,omitempty"` // Endpoint URI for uri-bearing steps
	Parameters *Map   `json:"parameters,omitempty"`
}

// Params returns the step parameters, never nil.
func (s Step) Params() *Map {
	if s.Parameters == nil {
		return NewMap()
	}
	return s.Parameters
}

// Clone returns a deep copy of the step.
func (s Step) Clone() Step {
	out := s
	if s.Parameters != nil {
		out.Parameters = s.Parameters.Clone()
	}
	return out
}

// Describe returns a short human-readable description.
func (s Step) Describe() string {
	if s.URI != "" {
		return fmt.Sprintf("%s %s(%s)", s.Role, s.Name, s.URI)
	}
	return fmt.Sprintf("%s %s", s.Role, s.Name)
}

// Equal compares two steps including parameters.
func (s Step) Equal(other Step) bool {
	return s.ID == other.ID &&
		s.Name == other.Name &&
		s.Kind == other.Kind &&
		s.Role == other.Role &&
		s.URI == other.URI &&
		s.Params().Equal(other.Params())
}

// CloneSteps deep-copies a step slice, preserving nil.
func CloneSteps(steps []Step) []Step {
	if steps == nil {
		return nil
	}
	out := make([]Step, len(steps))
	for i, s := range steps {
		out[i] = s.Clone()
	}
	return out
}
