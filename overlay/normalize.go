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

package overlay

import (
	"fmt"

	"github.com/hoprnet/hoprd-config-generator/tags"
)

// Normalize returns a copy of v in which every tagged value is replaced by a
// mapping of its fields. Unset fields of a tagged value become nil, so Prune
// must run after Normalize.
func Normalize(v any) (any, error) {
	switch val := v.(type) {
	case tags.Value:
		fields, err := tags.Fields(val)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", val.Tag(), err)
		}
		return normalizeMapping(fields)
	case *Mapping:
		if val == nil {
			return nil, nil
		}
		return normalizeMapping(val)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			n, err := Normalize(e)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out[k] = n
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			n, err := Normalize(e)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = n
		}
		return out, nil
	default:
		return v, nil
	}
}

func normalizeMapping(m *Mapping) (*Mapping, error) {
	out := NewMapping()
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		n, err := Normalize(pair.Value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", pair.Key, err)
		}
		out.Set(pair.Key, n)
	}
	return out, nil
}

// NormalizeMapping is Normalize for a mapping root.
func NormalizeMapping(m *Mapping) (*Mapping, error) {
	if m == nil {
		return NewMapping(), nil
	}
	return normalizeMapping(m)
}

// Prune returns a copy of v without nil entries in mappings and sequences.
// Empty containers are kept. Prune is idempotent.
func Prune(v any) any {
	switch val := v.(type) {
	case *Mapping:
		if val == nil {
			return nil
		}
		return pruneMapping(val)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			if p := Prune(e); p != nil {
				out[k] = p
			}
		}
		return out
	case []any:
		out := make([]any, 0, len(val))
		for _, e := range val {
			if p := Prune(e); p != nil {
				out = append(out, p)
			}
		}
		return out
	default:
		return v
	}
}

func pruneMapping(m *Mapping) *Mapping {
	out := NewMapping()
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		if p := Prune(pair.Value); p != nil {
			out.Set(pair.Key, p)
		}
	}
	return out
}

// PruneMapping is Prune for a mapping root.
func PruneMapping(m *Mapping) *Mapping {
	if m == nil {
		return NewMapping()
	}
	return pruneMapping(m)
}
