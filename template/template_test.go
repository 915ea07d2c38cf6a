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

package template

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hoprnet/hoprd-config-generator/overlay"
	"github.com/hoprnet/hoprd-config-generator/tags"
)

func keysAt(t *testing.T, m *overlay.Mapping, path ...string) []string {
	t.Helper()
	v, err := overlay.Get(m, path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sub, ok := v.(*overlay.Mapping)
	if !ok {
		t.Fatalf("expected mapping at %v, got %T", path, v)
	}
	return overlay.Keys(sub)
}

func TestFromTOMLKeepsOrder(t *testing.T) {
	doc := `
zeta = 1
alpha = "a"

[table]
y = 2
x = { b = 1, a = 2 }
dotted.second = 1
dotted.first = 2

[[table.list]]
z = 1
c = 2

[[table.list]]
c = 3
d = 4

[another]
k = [1, 2]
`
	m, err := FromTOML([]byte(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, test := range []struct {
		path     []string
		expected []string
	}{
		{path: nil, expected: []string{"zeta", "alpha", "table", "another"}},
		{path: []string{"table"}, expected: []string{"y", "x", "dotted", "list"}},
		{path: []string{"table", "x"}, expected: []string{"b", "a"}},
		{path: []string{"table", "dotted"}, expected: []string{"second", "first"}},
	} {
		if diff := cmp.Diff(test.expected, keysAt(t, m, test.path...)); diff != "" {
			t.Fatalf("unexpected keys at %v; diff = %v", test.path, diff)
		}
	}

	list, err := overlay.Get(m, []string{"table", "list"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	elems := list.([]any)
	if len(elems) != 2 {
		t.Fatalf("expected 2 elements, got %d", len(elems))
	}
	if diff := cmp.Diff([]string{"z", "c"}, overlay.Keys(elems[0].(*overlay.Mapping))); diff != "" {
		t.Fatalf("unexpected keys in first element; diff = %v", diff)
	}
	if diff := cmp.Diff([]string{"c", "d"}, overlay.Keys(elems[1].(*overlay.Mapping))); diff != "" {
		t.Fatalf("unexpected keys in second element; diff = %v", diff)
	}

	v, _ := overlay.Get(m, []string{"zeta"})
	if v != int64(1) {
		t.Fatalf("expected int64 1, got %T %v", v, v)
	}
}

func TestFromTOMLInvalid(t *testing.T) {
	if _, err := FromTOML([]byte("[table\nkey = 1")); err == nil {
		t.Fatal("expected error for malformed document")
	}
}

func TestDefault(t *testing.T) {
	m, err := Default()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"hopr", "identity", "inbox", "api"}, overlay.Keys(m)); diff != "" {
		t.Fatalf("unexpected top-level keys; diff = %v", diff)
	}
	if diff := cmp.Diff([]string{"variance", "interval", "threshold"}, keysAt(t, m, "hopr", "heartbeat")); diff != "" {
		t.Fatalf("unexpected keys; diff = %v", diff)
	}
	for _, path := range [][]string{
		{"api", "auth", "token"},
		{"api", "host", "port"},
		{"hopr", "chain", "network"},
		{"hopr", "host", "address"},
		{"hopr", "safe_module", "safe_address"},
		{"identity", "file"},
	} {
		if _, err := overlay.Get(m, path); err != nil {
			t.Fatalf("expected %v in the default template: %v", path, err)
		}
	}
}

func TestFromYAML(t *testing.T) {
	r := tags.NewDefaultRegistry()

	m, err := FromYAML([]byte("hopr:\n  host:\n    address: !IPv4 1.2.3.4\n    port: 9091\napi:\n  enable: true\n"), r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"hopr", "api"}, overlay.Keys(m)); diff != "" {
		t.Fatalf("unexpected keys; diff = %v", diff)
	}
	addr, err := overlay.Get(m, []string{"hopr", "host", "address"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(&tags.IPv4{Address: "1.2.3.4"}, addr); diff != "" {
		t.Fatalf("unexpected address; diff = %v", diff)
	}

	if _, err := FromYAML([]byte("- a\n- b\n"), r); !errors.Is(err, ErrInvalidTemplate) {
		t.Fatalf("expected ErrInvalidTemplate, got %v", err)
	}
	empty, err := FromYAML(nil, r)
	if err != nil || empty.Len() != 0 {
		t.Fatalf("expected empty template, got %v, %v", empty, err)
	}
}

func TestLoad(t *testing.T) {
	r := tags.NewDefaultRegistry()
	dir := t.TempDir()

	files := map[string]string{
		"node.toml": "[api]\nenable = true\n",
		"node.yaml": "api:\n  enable: true\n",
		"node.yml":  "api:\n  enable: true\n",
		"node.json": "{}",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0600); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}

	for _, name := range []string{"node.toml", "node.yaml", "node.yml"} {
		t.Run(name, func(t *testing.T) {
			m, err := Load(filepath.Join(dir, name), r)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			v, err := overlay.Get(m, []string{"api", "enable"})
			if err != nil || v != true {
				t.Fatalf("expected api.enable = true, got %v, %v", v, err)
			}
		})
	}

	t.Run("unsupported extension", func(t *testing.T) {
		if _, err := Load(filepath.Join(dir, "node.json"), r); !errors.Is(err, ErrUnsupportedFormat) {
			t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := Load(filepath.Join(dir, "missing.toml"), r); !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("expected os.ErrNotExist, got %v", err)
		}
	})

	t.Run("built-in", func(t *testing.T) {
		m, err := Load("", r)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if m.Len() == 0 {
			t.Fatal("expected the built-in template")
		}
	})
}
