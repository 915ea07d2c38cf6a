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
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/hoprnet/hoprd-config-generator/overlay"
	"github.com/pelletier/go-toml/v2"
)

var ErrUnsupportedValue = errors.New("value cannot be encoded as TOML")

var bareKey = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Marshal encodes m as a TOML document, keeping the order of its keys.
// Within a table the plain values come first, then its sub-tables and arrays
// of tables, each group in mapping order.
func Marshal(m *overlay.Mapping) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeTable(&buf, nil, m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeTable(buf *bytes.Buffer, path []string, m *overlay.Mapping) error {
	var tables []string
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		if _, ok := asTable(pair.Value); ok {
			tables = append(tables, pair.Key)
			continue
		}
		if _, ok := asTableArray(pair.Value); ok {
			tables = append(tables, pair.Key)
			continue
		}
		key, err := encodeKey(pair.Key)
		if err != nil {
			return err
		}
		v, err := encodeValue(pair.Value)
		if err != nil {
			return fmt.Errorf("%s: %w", overlay.FormatPath(append(path, pair.Key)), err)
		}
		fmt.Fprintf(buf, "%s = %s\n", key, v)
	}

	for _, k := range tables {
		v, _ := m.Get(k)
		sub := append(append([]string{}, path...), k)
		header, err := encodeHeader(sub)
		if err != nil {
			return err
		}
		if t, ok := asTable(v); ok {
			// A table holding only tables is defined by its children.
			if t.Len() == 0 || hasPlainValues(t) {
				newline(buf)
				fmt.Fprintf(buf, "[%s]\n", header)
			}
			if err := encodeTable(buf, sub, t); err != nil {
				return err
			}
			continue
		}
		elems, _ := asTableArray(v)
		for _, e := range elems {
			newline(buf)
			fmt.Fprintf(buf, "[[%s]]\n", header)
			if err := encodeTable(buf, sub, e); err != nil {
				return err
			}
		}
	}
	return nil
}

func newline(buf *bytes.Buffer) {
	if buf.Len() > 0 {
		buf.WriteByte('\n')
	}
}

func hasPlainValues(m *overlay.Mapping) bool {
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		_, table := asTable(pair.Value)
		_, tables := asTableArray(pair.Value)
		if !table && !tables {
			return true
		}
	}
	return false
}

func asTable(v any) (*overlay.Mapping, bool) {
	switch val := v.(type) {
	case *overlay.Mapping:
		return val, val != nil
	case map[string]any:
		return overlay.FromMap(val), true
	default:
		return nil, false
	}
}

// asTableArray reports whether v is a non-empty array made only of tables.
func asTableArray(v any) ([]*overlay.Mapping, bool) {
	arr, ok := v.([]any)
	if !ok || len(arr) == 0 {
		return nil, false
	}
	out := make([]*overlay.Mapping, 0, len(arr))
	for _, e := range arr {
		t, ok := asTable(e)
		if !ok {
			return nil, false
		}
		out = append(out, t)
	}
	return out, true
}

func encodeHeader(path []string) (string, error) {
	parts := make([]string, len(path))
	for i, k := range path {
		key, err := encodeKey(k)
		if err != nil {
			return "", err
		}
		parts[i] = key
	}
	return strings.Join(parts, "."), nil
}

func encodeKey(k string) (string, error) {
	if bareKey.MatchString(k) {
		return k, nil
	}
	return encodeScalar(k)
}

// encodeValue renders v inline.
func encodeValue(v any) (string, error) {
	if t, ok := asTable(v); ok {
		parts := make([]string, 0, t.Len())
		for pair := t.Oldest(); pair != nil; pair = pair.Next() {
			key, err := encodeKey(pair.Key)
			if err != nil {
				return "", err
			}
			val, err := encodeValue(pair.Value)
			if err != nil {
				return "", fmt.Errorf("%s: %w", pair.Key, err)
			}
			parts = append(parts, key+" = "+val)
		}
		return "{" + strings.Join(parts, ", ") + "}", nil
	}
	if arr, ok := v.([]any); ok {
		parts := make([]string, len(arr))
		for i, e := range arr {
			val, err := encodeValue(e)
			if err != nil {
				return "", fmt.Errorf("[%d]: %w", i, err)
			}
			parts[i] = val
		}
		return "[" + strings.Join(parts, ", ") + "]", nil
	}
	if v == nil {
		return "", fmt.Errorf("%w: null", ErrUnsupportedValue)
	}
	return encodeScalar(v)
}

// encodeScalar renders a single value with the TOML encoder.
func encodeScalar(v any) (string, error) {
	data, err := toml.Marshal(map[string]any{"v": v})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnsupportedValue, err)
	}
	s, ok := strings.CutPrefix(strings.TrimRight(string(data), "\n"), "v = ")
	if !ok || strings.Contains(s, "\n") {
		return "", fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
	return s, nil
}
