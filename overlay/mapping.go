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

// Package overlay implements the nested configuration structures used to
// build node configs: ordered mappings, path access, deep merge,
// normalization, null pruning and shared-config extraction.
//
// Values are *Mapping, map[string]any, []any, tags.Value or scalars. The
// null marker is an untyped nil.
package overlay

import (
	"reflect"
	"sort"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Mapping is an insertion-ordered string keyed mapping.
type Mapping = orderedmap.OrderedMap[string, any]

// NewMapping returns an empty Mapping.
func NewMapping() *Mapping {
	return orderedmap.New[string, any]()
}

// FromMap converts m, and any plain maps nested in it, to Mappings. Keys are
// inserted in sorted order.
func FromMap(m map[string]any) *Mapping {
	out := orderedmap.New[string, any](len(m))
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out.Set(k, fromPlain(m[k]))
	}
	return out
}

func fromPlain(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return FromMap(val)
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = fromPlain(e)
		}
		return out
	default:
		return v
	}
}

// asMapping reports whether v is a mapping, converting plain maps.
func asMapping(v any) (*Mapping, bool) {
	switch val := v.(type) {
	case *Mapping:
		if val == nil {
			return nil, false
		}
		return val, true
	case map[string]any:
		return FromMap(val), true
	default:
		return nil, false
	}
}

// DeepCopy copies every mapping and sequence reachable from v. Scalars and
// tagged values are shared; neither is mutated by this package.
func DeepCopy(v any) any {
	switch val := v.(type) {
	case *Mapping:
		return copyMapping(val)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = DeepCopy(e)
		}
		return out
	case []any:
		if val == nil {
			return val
		}
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = DeepCopy(e)
		}
		return out
	default:
		return v
	}
}

func copyMapping(m *Mapping) *Mapping {
	if m == nil {
		return NewMapping()
	}
	out := orderedmap.New[string, any](m.Len())
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		out.Set(pair.Key, DeepCopy(pair.Value))
	}
	return out
}

// Keys returns the keys of m in order.
func Keys(m *Mapping) []string {
	if m == nil {
		return nil
	}
	keys := make([]string, 0, m.Len())
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Equal reports whether a and b hold the same structure, comparing mapping
// key order as well as values.
func Equal(a, b any) bool {
	switch av := a.(type) {
	case *Mapping:
		bv, ok := b.(*Mapping)
		if !ok || av.Len() != bv.Len() {
			return false
		}
		for pa, pb := av.Oldest(), bv.Oldest(); pa != nil; pa, pb = pa.Next(), pb.Next() {
			if pa.Key != pb.Key || !Equal(pa.Value, pb.Value) {
				return false
			}
		}
		return true
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			w, ok := bv[k]
			if !ok || !Equal(v, w) {
				return false
			}
		}
		return true
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		return reflect.DeepEqual(a, b)
	}
}
