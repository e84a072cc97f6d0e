package dsl

import "github.com/devicelab-dev/flowdsl/pkg/flow"

// KeyAnnotations is the resource metadata key holding annotations.
const KeyAnnotations = "annotations"

// LiftDescription splits resource metadata into a copy without the
// description annotation and the description itself. Empty annotations
// left behind are dropped.
func LiftDescription(meta *flow.Map) (*flow.Map, string) {
	out := meta.Clone()
	v, ok := out.Get(KeyAnnotations)
	if !ok {
		return out, ""
	}
	annotations, ok := v.(*flow.Map)
	if !ok {
		return out, ""
	}
	desc, ok := annotations.Get(flow.KeyDescription)
	s, isString := desc.(string)
	if !ok || !isString {
		return out, ""
	}
	annotations.Delete(flow.KeyDescription)
	if annotations.Len() == 0 {
		out.Delete(KeyAnnotations)
	}
	return out, s
}

// EmbedDescription is the inverse of LiftDescription: the description
// becomes the first annotation.
func EmbedDescription(meta *flow.Map, description string) *flow.Map {
	out := meta.Clone()
	if description == "" {
		return out
	}
	annotations := flow.MapOf(flow.KeyDescription, description)
	if v, ok := out.Get(KeyAnnotations); ok {
		if existing, ok := v.(*flow.Map); ok {
			existing.Range(func(k string, v any) bool {
				annotations.Set(k, v)
				return true
			})
		}
	}
	out.Set(KeyAnnotations, annotations)
	return out
}

// WithName returns meta with name as its first entry when meta has none.
func WithName(meta *flow.Map, name string) *flow.Map {
	if name == "" || meta.Has(flow.KeyName) {
		return meta.Clone()
	}
	out := flow.MapOf(flow.KeyName, name)
	meta.Range(func(k string, v any) bool {
		out.Set(k, v)
		return true
	})
	return out.Clone()
}

// HeaderEntry returns a metadata value with its type kept, falling back to
// the header. Values formatting as "" count as unset.
func HeaderEntry(header, local *flow.Map, key string) (any, bool) {
	if local.String(key) != "" {
		return local.Get(key)
	}
	if header.String(key) != "" {
		return header.Get(key)
	}
	return nil, false
}

// HeaderValue returns a metadata value, falling back to the header.
func HeaderValue(header, local *flow.Map, key string) string {
	if v := local.String(key); v != "" {
		return v
	}
	return header.String(key)
}
