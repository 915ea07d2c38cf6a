/*
   Copyright The hoprd-config-generator Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package tags

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"
)

const (
	mergeKeyTag  = "!!merge"
	maxNodeDepth = 100
)

var ErrUnsupportedNode = errors.New("unsupported yaml node")

// Unmarshal decodes a YAML document into ordered mappings, sequences and
// scalars, resolving custom tags through r. An empty document decodes to nil.
func (r *Registry) Unmarshal(data []byte) (any, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	if node.Kind == 0 {
		return nil, nil
	}
	return r.Decode(&node)
}

// Decode converts a yaml.v3 node tree. Mappings become
// *orderedmap.OrderedMap[string, any], sequences []any, and nodes carrying a
// local tag ("!Name") are resolved with Resolve.
func (r *Registry) Decode(node *yaml.Node) (any, error) {
	return r.decode(node, 0)
}

func (r *Registry) decode(node *yaml.Node, depth int) (any, error) {
	if node == nil {
		return nil, nil
	}
	if depth > maxNodeDepth {
		return nil, fmt.Errorf("line %d: exceeded maximum nesting depth of %d", node.Line, maxNodeDepth)
	}

	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return nil, nil
		}
		return r.decode(node.Content[0], depth+1)
	case yaml.AliasNode:
		return r.decode(node.Alias, depth+1)
	case yaml.MappingNode:
		m, err := r.decodeMapping(node, depth)
		if err != nil {
			return nil, err
		}
		return r.resolveNode(node, m)
	case yaml.SequenceNode:
		seq := make([]any, 0, len(node.Content))
		for _, child := range node.Content {
			v, err := r.decode(child, depth+1)
			if err != nil {
				return nil, err
			}
			seq = append(seq, v)
		}
		return r.resolveNode(node, seq)
	case yaml.ScalarNode:
		if isLocalTag(node.Tag) {
			return r.resolveNode(node, taggedScalar(node))
		}
		var v any
		if err := node.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", node.Line, err)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("line %d: %w kind %d", node.Line, ErrUnsupportedNode, node.Kind)
	}
}

func (r *Registry) decodeMapping(node *yaml.Node, depth int) (*orderedmap.OrderedMap[string, any], error) {
	m := orderedmap.New[string, any](len(node.Content) / 2)
	var merged []*orderedmap.OrderedMap[string, any]

	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]
		if keyNode.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: %w: mapping keys must be scalars", keyNode.Line, ErrUnsupportedNode)
		}

		v, err := r.decode(valNode, depth+1)
		if err != nil {
			return nil, err
		}

		if keyNode.Tag == mergeKeyTag {
			switch mv := v.(type) {
			case *orderedmap.OrderedMap[string, any]:
				merged = append(merged, mv)
			case []any:
				for _, e := range mv {
					em, ok := e.(*orderedmap.OrderedMap[string, any])
					if !ok {
						return nil, fmt.Errorf("line %d: %w: merge key expects mappings", keyNode.Line, ErrUnsupportedNode)
					}
					merged = append(merged, em)
				}
			default:
				return nil, fmt.Errorf("line %d: %w: merge key expects mappings", keyNode.Line, ErrUnsupportedNode)
			}
			continue
		}
		m.Set(keyNode.Value, v)
	}

	// Explicit keys take precedence over merged ones.
	for _, src := range merged {
		for pair := src.Oldest(); pair != nil; pair = pair.Next() {
			if _, present := m.Get(pair.Key); !present {
				m.Set(pair.Key, pair.Value)
			}
		}
	}
	return m, nil
}

func (r *Registry) resolveNode(node *yaml.Node, payload any) (any, error) {
	if !isLocalTag(node.Tag) {
		return payload, nil
	}
	v, err := r.Resolve(node.Tag, payload)
	if err != nil {
		return nil, fmt.Errorf("line %d: %w", node.Line, err)
	}
	return v, nil
}

// taggedScalar is the payload of a scalar node with a local tag: its literal
// text, which the kind's fields interpret. An empty plain scalar carries no
// payload.
func taggedScalar(node *yaml.Node) any {
	if node.Value == "" && node.Style&(yaml.SingleQuotedStyle|yaml.DoubleQuotedStyle) == 0 {
		return nil
	}
	return node.Value
}

func isLocalTag(tag string) bool {
	return strings.HasPrefix(tag, "!") && !strings.HasPrefix(tag, "!!")
}

// Marshal encodes v as a YAML document, keeping mapping order and writing
// tagged values in their tagged form.
func (r *Registry) Marshal(v any) ([]byte, error) {
	node, err := r.Encode(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode is the inverse of Decode.
func (r *Registry) Encode(v any) (*yaml.Node, error) {
	switch val := v.(type) {
	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	case *orderedmap.OrderedMap[string, any]:
		node := &yaml.Node{Kind: yaml.MappingNode}
		if val == nil {
			return node, nil
		}
		for pair := val.Oldest(); pair != nil; pair = pair.Next() {
			if err := r.appendPair(node, pair.Key, pair.Value); err != nil {
				return nil, err
			}
		}
		return node, nil
	case map[string]any:
		node := &yaml.Node{Kind: yaml.MappingNode}
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := r.appendPair(node, k, val[k]); err != nil {
				return nil, err
			}
		}
		return node, nil
	case []any:
		node := &yaml.Node{Kind: yaml.SequenceNode}
		for _, e := range val {
			child, err := r.Encode(e)
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, child)
		}
		return node, nil
	case Value:
		tag, payload, err := r.Serialize(val)
		if err != nil {
			return nil, err
		}
		node, err := r.Encode(payload)
		if err != nil {
			return nil, err
		}
		node.Tag = tag
		return node, nil
	default:
		node := &yaml.Node{}
		if err := node.Encode(val); err != nil {
			return nil, err
		}
		return node, nil
	}
}

func (r *Registry) appendPair(node *yaml.Node, key string, value any) error {
	keyNode := &yaml.Node{}
	if err := keyNode.Encode(key); err != nil {
		return err
	}
	valNode, err := r.Encode(value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	node.Content = append(node.Content, keyNode, valNode)
	return nil
}
