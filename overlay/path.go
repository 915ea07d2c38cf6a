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
	"errors"
	"fmt"
	"strings"

	"github.com/hoprnet/hoprd-config-generator/internal/merge"
)

// PathSeparator separates keys in the textual form of a path.
const PathSeparator = "/"

var (
	ErrNotMapping = errors.New("not a mapping")
	ErrEmptyPath  = errors.New("empty path")
)

// PathNotFoundError is returned when a step of a path cannot be resolved.
type PathNotFoundError struct {
	Path []string
	// Index is the position in Path of the step that failed.
	Index int
	Err   error
}

func (e *PathNotFoundError) Error() string {
	msg := fmt.Sprintf("path %q not found", FormatPath(e.Path))
	if e.Index >= 0 && e.Index < len(e.Path) {
		msg = fmt.Sprintf("path %q not found at %q", FormatPath(e.Path), e.Path[e.Index])
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PathNotFoundError) Unwrap() error {
	return e.Err
}

// ParsePath splits the table notation "a/b/c" into its keys.
func ParsePath(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, PathSeparator)
}

// FormatPath is the inverse of ParsePath.
func FormatPath(path []string) string {
	return strings.Join(path, PathSeparator)
}

// Get walks path through root. At each step the key is first looked up as an
// attribute of a struct (see merge.Attr) and then as a key of a mapping.
// An empty path returns root.
func Get(root any, path []string) (any, error) {
	cur := root
	for i, key := range path {
		next, ok := lookup(cur, key)
		if !ok {
			return nil, &PathNotFoundError{Path: path, Index: i}
		}
		cur = next
	}
	return cur, nil
}

func lookup(node any, key string) (any, bool) {
	if v, ok := merge.Attr(node, key); ok {
		return v, true
	}
	switch n := node.(type) {
	case *Mapping:
		if n == nil {
			return nil, false
		}
		return n.Get(key)
	case map[string]any:
		v, ok := n[key]
		return v, ok
	default:
		return nil, false
	}
}

// Set assigns value at path in root, creating empty mappings for absent
// intermediate keys. Existing intermediates must be mappings; typed values
// are never descended into.
func Set(root *Mapping, path []string, value any) error {
	if len(path) == 0 {
		return ErrEmptyPath
	}
	if root == nil {
		return &PathNotFoundError{Path: path, Index: 0, Err: ErrNotMapping}
	}

	var cur any = root
	for i, key := range path[:len(path)-1] {
		next, ok := lookupKey(cur, key)
		if !ok {
			m := NewMapping()
			setKey(cur, key, m)
			cur = m
			continue
		}
		if !isMapping(next) {
			return &PathNotFoundError{Path: path, Index: i, Err: fmt.Errorf("%w: %T", ErrNotMapping, next)}
		}
		cur = next
	}
	setKey(cur, path[len(path)-1], value)
	return nil
}

func isMapping(v any) bool {
	switch n := v.(type) {
	case *Mapping:
		return n != nil
	case map[string]any:
		return n != nil
	}
	return false
}

func lookupKey(m any, key string) (any, bool) {
	switch n := m.(type) {
	case *Mapping:
		return n.Get(key)
	case map[string]any:
		v, ok := n[key]
		return v, ok
	}
	return nil, false
}

func setKey(m any, key string, value any) {
	switch n := m.(type) {
	case *Mapping:
		n.Set(key, value)
	case map[string]any:
		n[key] = value
	}
}
