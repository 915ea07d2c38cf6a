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

// Package tags implements the typed tag registry: structured values such as
// addresses, tokens and strategy markers that travel through YAML as tagged
// nodes (for example `!IPv4 1.2.3.4`) and are bound onto Go structs.
//
// A Registry is built once per run and handed to everything that decodes or
// encodes configuration; there is no package level registry.
package tags

import (
	"errors"
	"fmt"
	"sort"

	"github.com/hoprnet/hoprd-config-generator/internal/merge"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// GenericField is the field name a terse, single value payload is stored
// under before it is renamed to the kind's primary field.
const GenericField = "value"

var (
	ErrDuplicateTag   = errors.New("tag already registered")
	ErrInvalidKind    = errors.New("invalid tag kind")
	ErrInvalidPayload = errors.New("invalid tag payload")
)

// Value is a tagged value. Implementations are pointers to structs whose
// fields carry toml annotations naming the payload fields.
type Value interface {
	// Tag returns the canonical tag, including the leading "!".
	Tag() string
}

// validator is implemented by values with a parse rule beyond field binding.
type validator interface {
	Validate() error
}

// Kind describes how a tag is constructed.
type Kind struct {
	// Tag is the canonical tag identifier, e.g. "!IPv4".
	Tag string
	// PrimaryField receives a terse single value payload.
	PrimaryField string
	// New returns a pointer to a zero value of the variant.
	New func() Value
}

// Registry maps tags to kinds.
type Registry struct {
	kinds map[string]Kind
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{kinds: make(map[string]Kind)}
}

// Register associates kind.Tag with kind.
func (r *Registry) Register(kind Kind) error {
	if kind.Tag == "" || kind.New == nil {
		return fmt.Errorf("%w: tag and constructor are required", ErrInvalidKind)
	}
	if _, ok := r.kinds[kind.Tag]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateTag, kind.Tag)
	}
	r.kinds[kind.Tag] = kind
	return nil
}

// Tags returns the registered tags, sorted.
func (r *Registry) Tags() []string {
	tags := make([]string, 0, len(r.kinds))
	for tag := range r.kinds {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Lookup returns the kind registered for tag.
func (r *Registry) Lookup(tag string) (Kind, bool) {
	kind, ok := r.kinds[tag]
	return kind, ok
}

// Resolve constructs the value registered for tag from payload. A payload is
// either a mapping of field names to values or a single scalar. A scalar, or
// a mapping whose only entry is "value", populates the kind's primary field.
func (r *Registry) Resolve(tag string, payload any) (Value, error) {
	kind, ok := r.Lookup(tag)
	if !ok {
		return nil, &UnknownTagError{Tag: tag}
	}

	fields, err := payloadFields(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", tag, err)
	}
	if generic, ok := fields[GenericField]; ok && len(fields) == 1 && kind.PrimaryField != "" && kind.PrimaryField != GenericField {
		if _, present := fields[kind.PrimaryField]; !present {
			fields = map[string]any{kind.PrimaryField: generic}
		}
	}

	v := kind.New()
	if err := merge.Merge(v, fields); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", tag, ErrInvalidPayload, err)
	}
	if val, ok := v.(validator); ok {
		if err := val.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w: %w", tag, ErrInvalidPayload, err)
		}
	}
	return v, nil
}

// Serialize returns the tag and payload of v such that Resolve(Serialize(v))
// reproduces v. Kinds with a single field serialize to the terse scalar form.
func (r *Registry) Serialize(v Value) (string, any, error) {
	if v == nil {
		return "", nil, fmt.Errorf("%w: nil value", ErrInvalidPayload)
	}
	tag := v.Tag()
	if _, ok := r.kinds[tag]; !ok {
		return "", nil, &UnknownTagError{Tag: tag}
	}

	fields, err := merge.Fields(v)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", tag, err)
	}
	if len(fields) == 1 {
		return tag, fields[0].Value, nil
	}

	payload := orderedmap.New[string, any]()
	for _, f := range fields {
		if f.Value == nil {
			continue
		}
		payload.Set(f.Name, f.Value)
	}
	return tag, payload, nil
}

// Fields returns the fields of v as an ordered mapping. Unset optional fields
// are present with a nil value.
func Fields(v Value) (*orderedmap.OrderedMap[string, any], error) {
	fields, err := merge.Fields(v)
	if err != nil {
		return nil, err
	}
	m := orderedmap.New[string, any](len(fields))
	for _, f := range fields {
		m.Set(f.Name, f.Value)
	}
	return m, nil
}

func payloadFields(payload any) (map[string]any, error) {
	switch p := payload.(type) {
	case *orderedmap.OrderedMap[string, any]:
		if p == nil {
			return map[string]any{}, nil
		}
		return toPlainMap(p), nil
	case map[string]any:
		fields := make(map[string]any, len(p))
		for k, v := range p {
			fields[k] = toPlain(v)
		}
		return fields, nil
	case nil:
		return map[string]any{}, nil
	case Value:
		return nil, fmt.Errorf("%w: nested tagged value %s", ErrInvalidPayload, p.Tag())
	default:
		return map[string]any{GenericField: toPlain(p)}, nil
	}
}

func toPlainMap(m *orderedmap.OrderedMap[string, any]) map[string]any {
	out := make(map[string]any, m.Len())
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		out[pair.Key] = toPlain(pair.Value)
	}
	return out
}

func toPlain(v any) any {
	switch val := v.(type) {
	case *orderedmap.OrderedMap[string, any]:
		return toPlainMap(val)
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = toPlain(e)
		}
		return out
	default:
		return v
	}
}
