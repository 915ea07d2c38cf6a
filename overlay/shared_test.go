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
)

func TestExtractShared(t *testing.T) {
	for _, test := range []struct {
		name     string
		cfg      *Mapping
		paths    [][]string
		expected *Mapping
	}{
		{
			name:     "removes emptied ancestor",
			cfg:      m("identity", m("password", "x")),
			paths:    [][]string{{"identity", "password"}},
			expected: m(),
		},
		{
			name:     "keeps non-empty ancestor",
			cfg:      m("identity", m("password", "x", "keep", 1)),
			paths:    [][]string{{"identity", "password"}},
			expected: m("identity", m("keep", 1)),
		},
		{
			name:     "stops at first non-empty ancestor",
			cfg:      m("hopr", m("safe_module", m("safe_address", "0x1"), "db", m("path", "/db"))),
			paths:    [][]string{{"hopr", "safe_module", "safe_address"}},
			expected: m("hopr", m("db", m("path", "/db"))),
		},
		{
			name:     "missing intermediate is a no-op",
			cfg:      m("api", m("auth", m())),
			paths:    [][]string{{"hopr", "host", "address"}},
			expected: m("api", m("auth", m())),
		},
		{
			name:     "non-mapping intermediate is a no-op",
			cfg:      m("hopr", "flat"),
			paths:    [][]string{{"hopr", "host", "address"}},
			expected: m("hopr", "flat"),
		},
		{
			name:     "missing leaf leaves existing empty mappings",
			cfg:      m("identity", m()),
			paths:    [][]string{{"identity", "password"}},
			expected: m("identity", m()),
		},
		{
			name:     "unrelated empty mappings survive",
			cfg:      m("api", m("auth", m("token", "t"), "cors", m())),
			paths:    [][]string{{"api", "auth", "token"}},
			expected: m("api", m("cors", m())),
		},
		{
			name: "several paths",
			cfg: m(
				"hopr", m("host", m("address", "1.2.3.4", "port", 9091), "chain", m("network", "rotsee")),
				"identity", m("file", "/id", "password", "p"),
				"api", m("auth", m("token", "t"), "host", m("port", 3001)),
			),
			paths: [][]string{
				{"hopr", "host", "address"},
				{"hopr", "host", "port"},
				{"identity", "file"},
				{"identity", "password"},
				{"api", "auth", "token"},
			},
			expected: m(
				"hopr", m("chain", m("network", "rotsee")),
				"api", m("host", m("port", 3001)),
			),
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			before := DeepCopy(test.cfg)
			got := ExtractShared(test.cfg, test.paths)
			requireEqual(t, test.expected, got)
			requireEqual(t, before, test.cfg)
		})
	}
}

// Every path of the shared config that is not a removed path or one of its
// ancestors must hold the same value as in the full config.
func TestExtractSharedNonInterference(t *testing.T) {
	cfg := m(
		"hopr", m(
			"host", m("address", "1.2.3.4", "port", 9091),
			"safe_module", m("safe_address", "0xs", "module_address", "0xm"),
			"strategy", m("on_fail_continue", true, "strategies", []any{m("a", 1)}),
		),
		"identity", m("file", "/id", "password", "p"),
		"db", m(),
	)
	paths := [][]string{
		{"hopr", "host", "address"},
		{"hopr", "safe_module", "safe_address"},
		{"hopr", "safe_module", "module_address"},
		{"identity", "file"},
	}
	shared := ExtractShared(cfg, paths)

	var walk func(node *Mapping, prefix []string)
	walk = func(node *Mapping, prefix []string) {
		for pair := node.Oldest(); pair != nil; pair = pair.Next() {
			path := append(append([]string{}, prefix...), pair.Key)
			expected, err := Get(cfg, path)
			if err != nil {
				t.Fatalf("shared config holds %q which is absent from the full config", FormatPath(path))
			}
			if sub, ok := pair.Value.(*Mapping); ok {
				walk(sub, path)
				continue
			}
			requireEqual(t, expected, pair.Value)
		}
	}
	walk(shared, nil)

	for _, kept := range [][]string{
		{"hopr", "host", "port"},
		{"hopr", "strategy", "strategies"},
		{"identity", "password"},
		{"db"},
	} {
		if _, err := Get(shared, kept); err != nil {
			t.Fatalf("expected %q to survive: %v", FormatPath(kept), err)
		}
	}
	for _, removed := range [][]string{
		{"hopr", "host", "address"},
		{"hopr", "safe_module"},
		{"identity", "file"},
	} {
		if _, err := Get(shared, removed); err == nil {
			t.Fatalf("expected %q to be removed", FormatPath(removed))
		}
	}
}
