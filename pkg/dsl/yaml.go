package dsl

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/devicelab-dev/flowdsl/pkg/core"
	"github.com/devicelab-dev/flowdsl/pkg/flow"
)

// DecodeMapping decodes text whose root must be a mapping.
func DecodeMapping(text string) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("empty document")
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: document root is not a mapping", root.Line)
	}
	return root, nil
}

// Field returns the value node stored under key in a mapping node, or nil.
func Field(node *yaml.Node, key string) *yaml.Node {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

// ScalarField returns the string value of a scalar field, or "".
func ScalarField(node *yaml.Node, key string) string {
	v := Field(node, key)
	if v == nil || v.Kind != yaml.ScalarNode || flow.IsNull(v) {
		return ""
	}
	return v.Value
}

// Keys returns the keys of a mapping node in document order.
func Keys(node *yaml.Node) []string {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	keys := make([]string, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keys = append(keys, node.Content[i].Value)
	}
	return keys
}

// IsMapping reports whether node is a mapping.
func IsMapping(node *yaml.Node) bool {
	return node != nil && node.Kind == yaml.MappingNode
}

// Mapping builds a mapping node from alternating key and value nodes.
// Nil values are skipped.
func Mapping(pairs ...any) *yaml.Node {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for i := 0; i+1 < len(pairs); i += 2 {
		value, _ := pairs[i+1].(*yaml.Node)
		if value == nil {
			continue
		}
		Put(node, pairs[i].(string), value)
	}
	return node
}

// Put appends a key/value pair to a mapping node.
func Put(node *yaml.Node, key string, value *yaml.Node) {
	node.Content = append(node.Content, String(key), value)
}

// String returns a string scalar node.
func String(s string) *yaml.Node {
	n := &yaml.Node{}
	_ = n.Encode(s)
	return n
}

// Encode renders a node as YAML with two-space indentation.
func Encode(node *yaml.Node) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return "", core.ErrGenerate.WithCause(err)
	}
	if err := enc.Close(); err != nil {
		return "", core.ErrGenerate.WithCause(err)
	}
	return buf.String(), nil
}

// JoinDocuments joins rendered documents with a YAML document separator.
func JoinDocuments(docs []string) string {
	return strings.Join(docs, "---\n")
}

// Normalize trims every line, drops blank lines and a leading document
// separator, so texts can be compared modulo whitespace.
func Normalize(text string) string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(out) == 0 && line == "---" {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// FormatError reports text that does not match the dialect's structure,
// pointing at node when known.
func FormatError(dialect string, node *yaml.Node, reason string) *core.ConversionError {
	line := 0
	if node != nil {
		line = node.Line
	}
	return core.NewFormatError(dialect, line, reason)
}
