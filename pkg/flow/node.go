package flow

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// NodeValue converts a YAML node into a canonical value. Mappings become
// *Map (keeping key order), sequences become []any and scalars decode to
// their resolved Go type.
func NodeValue(node *yaml.Node) (any, error) {
	if node == nil {
		return nil, nil
	}
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return nil, nil
		}
		return NodeValue(node.Content[0])
	case yaml.AliasNode:
		return NodeValue(node.Alias)
	case yaml.MappingNode:
		m := NewMap()
		for i := 0; i+1 < len(node.Content); i += 2 {
			val, err := NodeValue(node.Content[i+1])
			if err != nil {
				return nil, err
			}
			m.Set(node.Content[i].Value, val)
		}
		return m, nil
	case yaml.SequenceNode:
		out := make([]any, 0, len(node.Content))
		for _, item := range node.Content {
			val, err := NodeValue(item)
			if err != nil {
				return nil, err
			}
			out = append(out, val)
		}
		return out, nil
	case yaml.ScalarNode:
		var v any
		if err := node.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", node.Line, err)
		}
		return v, nil
	}
	return nil, fmt.Errorf("line %d: unsupported node kind %d", node.Line, node.Kind)
}

// NodeMap converts a mapping node into a *Map. A null or missing node yields
// an empty Map.
func NodeMap(node *yaml.Node) (*Map, error) {
	if IsNull(node) {
		return NewMap(), nil
	}
	v, err := NodeValue(node)
	if err != nil {
		return nil, err
	}
	m, ok := v.(*Map)
	if !ok {
		return nil, fmt.Errorf("line %d: expected a mapping", node.Line)
	}
	return m, nil
}

// ValueNode converts a canonical value into a YAML node.
func ValueNode(v any) (*yaml.Node, error) {
	switch val := v.(type) {
	case nil:
		return NullNode(), nil
	case *yaml.Node:
		return val, nil
	case *Map:
		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		var err error
		val.Range(func(k string, item any) bool {
			var key, value *yaml.Node
			if key, err = scalarNode(k); err != nil {
				return false
			}
			if value, err = ValueNode(item); err != nil {
				return false
			}
			node.Content = append(node.Content, key, value)
			return true
		})
		if err != nil {
			return nil, err
		}
		return node, nil
	case []any:
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range val {
			child, err := ValueNode(item)
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, child)
		}
		return node, nil
	default:
		return scalarNode(v)
	}
}

func scalarNode(v any) (*yaml.Node, error) {
	node := &yaml.Node{}
	if err := node.Encode(v); err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	return node, nil
}

// NullNode returns an explicit YAML null.
func NullNode() *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
}

// IsNull reports whether node is absent or an explicit null.
func IsNull(node *yaml.Node) bool {
	if node == nil {
		return true
	}
	if node.Kind == yaml.AliasNode {
		return IsNull(node.Alias)
	}
	return node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null"
}
