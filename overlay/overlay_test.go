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
	"testing"

	"github.com/hoprnet/hoprd-config-generator/tags"
)

// m builds a Mapping from alternating keys and values.
func m(kv ...any) *Mapping {
	out := NewMapping()
	for i := 0; i+1 < len(kv); i += 2 {
		out.Set(kv[i].(string), kv[i+1])
	}
	return out
}

func dump(t *testing.T, v any) string {
	t.Helper()
	out, err := tags.NewDefaultRegistry().Marshal(v)
	if err != nil {
		t.Fatalf("failed to render %v: %v", v, err)
	}
	return string(out)
}

func requireEqual(t *testing.T, expected, actual any) {
	t.Helper()
	if !Equal(expected, actual) {
		t.Fatalf("unexpected result\nexpected:\n%s\nactual:\n%s", dump(t, expected), dump(t, actual))
	}
}

func TestFromMap(t *testing.T) {
	got := FromMap(map[string]any{
		"b": 1,
		"a": map[string]any{"y": []any{map[string]any{"z": true}}, "x": nil},
	})
	expected := m(
		"a", m("x", nil, "y", []any{m("z", true)}),
		"b", 1,
	)
	requireEqual(t, expected, got)
}

func TestDeepCopy(t *testing.T) {
	src := m("a", m("b", []any{1, m("c", 2)}))
	cp := DeepCopy(src).(*Mapping)
	requireEqual(t, src, cp)

	inner := cp.Value("a").(*Mapping)
	inner.Set("new", true)
	inner.Value("b").([]any)[1].(*Mapping).Set("c", 3)

	requireEqual(t, m("a", m("b", []any{1, m("c", 2)})), src)
}

func TestEqual(t *testing.T) {
	for _, test := range []struct {
		name     string
		a, b     any
		expected bool
	}{
		{name: "same", a: m("a", 1, "b", 2), b: m("a", 1, "b", 2), expected: true},
		{name: "order differs", a: m("a", 1, "b", 2), b: m("b", 2, "a", 1), expected: false},
		{name: "value differs", a: m("a", 1), b: m("a", 2), expected: false},
		{name: "plain maps", a: map[string]any{"a": []any{1}}, b: map[string]any{"a": []any{1}}, expected: true},
		{name: "mapping vs plain map", a: m("a", 1), b: map[string]any{"a": 1}, expected: false},
		{name: "tagged values", a: &tags.IPv4{Address: "1.2.3.4"}, b: &tags.IPv4{Address: "1.2.3.4"}, expected: true},
		{name: "nil", a: nil, b: nil, expected: true},
	} {
		t.Run(test.name, func(t *testing.T) {
			if got := Equal(test.a, test.b); got != test.expected {
				t.Fatalf("expected %v, got %v", test.expected, got)
			}
		})
	}
}
