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

// Package template loads node configuration templates. Templates are TOML or
// YAML documents; mapping key order is kept as written.
package template

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/containerd/log"
	"github.com/hoprnet/hoprd-config-generator/overlay"
	"github.com/hoprnet/hoprd-config-generator/tags"
	"github.com/pelletier/go-toml/v2"
	"github.com/pelletier/go-toml/v2/unstable"
)

//go:embed node.toml
var defaultTemplate []byte

var (
	ErrUnsupportedFormat = errors.New("unsupported template format")
	ErrInvalidTemplate   = errors.New("template root must be a mapping")
)

// Default returns the built-in node template.
func Default() (*overlay.Mapping, error) {
	return FromTOML(defaultTemplate)
}

// Load reads the template at path. The format is chosen by file extension:
// ".toml", or ".yaml"/".yml". Custom tags in YAML templates are resolved with
// r. An empty path loads the built-in template.
func Load(path string, r *tags.Registry) (*overlay.Mapping, error) {
	if path == "" {
		log.L.Debug("using built-in node template")
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template: %w", err)
	}
	tmpl, err := Parse(filepath.Ext(path), data, r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", path, err)
	}
	log.L.WithField("path", path).Debug("loaded node template")
	return tmpl, nil
}

// Parse decodes data according to the file extension ext.
func Parse(ext string, data []byte, r *tags.Registry) (*overlay.Mapping, error) {
	switch strings.ToLower(ext) {
	case ".toml":
		return FromTOML(data)
	case ".yaml", ".yml":
		return FromYAML(data, r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// FromYAML decodes a YAML template.
func FromYAML(data []byte, r *tags.Registry) (*overlay.Mapping, error) {
	v, err := r.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	switch root := v.(type) {
	case nil:
		return overlay.NewMapping(), nil
	case *overlay.Mapping:
		return root, nil
	default:
		return nil, fmt.Errorf("%w, got %T", ErrInvalidTemplate, v)
	}
}

// FromTOML decodes a TOML template.
func FromTOML(data []byte) (*overlay.Mapping, error) {
	order, err := tomlKeyOrder(data)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return order.build(doc, nil), nil
}

// keyOrder records, per table path, the keys in the order they first appear
// in the document. Elements of an array share the path of the array.
type keyOrder struct {
	keys map[string][]string
	seen map[string]bool
}

func pathKey(path []string) string {
	return strings.Join(path, "\x00")
}

func (o *keyOrder) add(parent []string, key string) {
	full := pathKey(append(append([]string{}, parent...), key))
	if o.seen[full] {
		return
	}
	o.seen[full] = true
	p := pathKey(parent)
	o.keys[p] = append(o.keys[p], key)
}

// addPath records every step of the dotted key under base.
func (o *keyOrder) addPath(base, key []string) []string {
	path := append([]string{}, base...)
	for _, k := range key {
		o.add(path, k)
		path = append(path, k)
	}
	return path
}

func (o *keyOrder) addKeyValue(base []string, kv *unstable.Node) {
	it := kv.Key()
	path := o.addPath(base, keyParts(&it))
	o.addValue(path, kv.Value())
}

func (o *keyOrder) addValue(path []string, v *unstable.Node) {
	switch v.Kind {
	case unstable.InlineTable:
		it := v.Children()
		for it.Next() {
			if n := it.Node(); n.Kind == unstable.KeyValue {
				o.addKeyValue(path, n)
			}
		}
	case unstable.Array:
		it := v.Children()
		for it.Next() {
			o.addValue(path, it.Node())
		}
	}
}

func keyParts(it *unstable.Iterator) []string {
	var parts []string
	for it.Next() {
		parts = append(parts, string(it.Node().Data))
	}
	return parts
}

func tomlKeyOrder(data []byte) (*keyOrder, error) {
	order := &keyOrder{keys: map[string][]string{}, seen: map[string]bool{}}

	var p unstable.Parser
	p.Reset(data)
	var table []string
	for p.NextExpression() {
		e := p.Expression()
		switch e.Kind {
		case unstable.Table, unstable.ArrayTable:
			it := e.Key()
			table = order.addPath(nil, keyParts(&it))
		case unstable.KeyValue:
			order.addKeyValue(table, e)
		}
	}
	if err := p.Error(); err != nil {
		return nil, err
	}
	return order, nil
}

// build converts a decoded TOML table into a Mapping. Keys the parser did not
// report are appended in sorted order.
func (o *keyOrder) build(table map[string]any, path []string) *overlay.Mapping {
	m := overlay.NewMapping()
	for _, k := range o.keys[pathKey(path)] {
		if v, ok := table[k]; ok {
			m.Set(k, o.value(v, append(append([]string{}, path...), k)))
		}
	}

	var rest []string
	for k := range table {
		if _, present := m.Get(k); !present {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		m.Set(k, o.value(table[k], append(append([]string{}, path...), k)))
	}
	return m
}

func (o *keyOrder) value(v any, path []string) any {
	switch val := v.(type) {
	case map[string]any:
		return o.build(val, path)
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = o.value(e, path)
		}
		return out
	default:
		return v
	}
}
