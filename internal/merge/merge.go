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

package merge

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

const (
	structTOMLAnnotation = "toml"
	structYAMLAnnotation = "yaml"

	// Arbitrarily selected based on the depth of the deepest node config section. Limiting recursion depth
	// protects against stack overflows when handling malicious or malformed inputs.
	maxRecursionDepth = 50
)

var (
	ErrDstNotStruct     = errors.New("dst must be a pointer to a struct")
	ErrCannotCast       = errors.New("cannot cast value")
	ErrUnknownField     = errors.New("unknown field")
	ErrExceededMaxDepth = fmt.Errorf("exceeded maximum recursion depth of %d", maxRecursionDepth)
)

// annotation options understood by go-toml; they are not field aliases.
var annotationOptions = map[string]bool{
	"omitempty": true,
	"inline":    true,
	"multiline": true,
	"commented": true,
	"flow":      true,
}

// Field is a toml-tagged struct field read back by Fields.
type Field struct {
	Name  string
	Value any
}

// Merge binds the entries of src onto dst, which must be a pointer to a struct.
// Keys are matched against the fields' toml annotations. Keys without a
// matching field are rejected with ErrUnknownField.
func Merge(dst any, src map[string]any) error {
	return mergeWithDepth(dst, src, 0)
}

func mergeWithDepth(dst any, src map[string]any, depth int) error {
	if dst == nil || src == nil {
		return errors.New("src and dst must not be nil")
	}

	if depth > maxRecursionDepth {
		return ErrExceededMaxDepth
	}

	dstVal := reflect.ValueOf(dst)
	if dstVal.Kind() != reflect.Ptr || dstVal.IsNil() {
		return ErrDstNotStruct
	}
	dstVal = dstVal.Elem()
	if dstVal.Kind() != reflect.Struct {
		// [reflect.Type].NumField() will panic if type is not struct.
		return ErrDstNotStruct
	}

	seen := make(map[string]bool, len(src))
	if err := bindStruct(dstVal, src, seen, depth); err != nil {
		return err
	}

	var unknown []string
	for k := range src {
		if !seen[k] {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("%w: %s", ErrUnknownField, strings.Join(unknown, ", "))
	}
	return nil
}

func bindStruct(dstVal reflect.Value, src map[string]any, seen map[string]bool, depth int) error {
	if depth > maxRecursionDepth {
		return ErrExceededMaxDepth
	}

	dstType := dstVal.Type()
	for i := range dstType.NumField() {
		fieldType := dstType.Field(i)
		if !fieldType.IsExported() {
			continue
		}
		fieldVal := dstVal.Field(i)

		names := annotationNames(fieldType.Tag.Get(structTOMLAnnotation))
		if len(names) == 0 {
			// A struct field with no tag could be an embedded struct that contains more fields at the same map level.
			if fieldType.Anonymous && fieldType.Type.Kind() == reflect.Struct {
				if err := bindStruct(fieldVal, src, seen, depth+1); err != nil {
					return err
				}
			}
			continue
		}

		// Try each annotation until we find a match
		var (
			name   string
			srcVal any
			ok     bool
		)
		for _, annotation := range names {
			if srcVal, ok = src[annotation]; ok {
				name = annotation
				break
			}
		}
		if !ok {
			continue
		}
		seen[name] = true

		if err := bindValue(fieldVal, srcVal, depth); err != nil {
			return fmt.Errorf("field %q: %w", name, err)
		}
	}
	return nil
}

// bindValue sets dst from src, allocating pointers and recursing into structs,
// maps and slices.
func bindValue(dst reflect.Value, src any, depth int) error {
	if src == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}

	switch dst.Kind() {
	case reflect.Ptr:
		elem := reflect.New(dst.Type().Elem())
		if err := bindValue(elem.Elem(), src, depth); err != nil {
			return err
		}
		dst.Set(elem)
		return nil
	case reflect.Struct:
		srcMap, ok := src.(map[string]any)
		if !ok {
			return fmt.Errorf("%w: %T to %s", ErrCannotCast, src, dst.Type())
		}
		return mergeWithDepth(dst.Addr().Interface(), srcMap, depth+1)
	case reflect.Map:
		srcMap, ok := src.(map[string]any)
		if !ok {
			return fmt.Errorf("%w: %T to %s", ErrCannotCast, src, dst.Type())
		}
		return handleMap(dst, srcMap, depth)
	case reflect.Slice:
		srcSlice, ok := src.([]any)
		if !ok {
			return fmt.Errorf("%w: %T to %s", ErrCannotCast, src, dst.Type())
		}
		return handleSlice(dst, srcSlice, depth)
	default:
		return setValue(dst, src)
	}
}

// handleMap binds every entry of srcMap into the destination map, creating it if needed.
func handleMap(dst reflect.Value, srcMap map[string]any, depth int) error {
	if depth > maxRecursionDepth {
		return ErrExceededMaxDepth
	}

	keyType := dst.Type().Key()
	elemType := dst.Type().Elem()
	if keyType.Kind() != reflect.String {
		return fmt.Errorf("%w: map key to %s", ErrCannotCast, keyType)
	}
	if dst.IsNil() {
		dst.Set(reflect.MakeMapWithSize(dst.Type(), len(srcMap)))
	}

	for k, v := range srcMap {
		newElem := reflect.New(elemType).Elem()
		if err := bindValue(newElem, v, depth+1); err != nil {
			return fmt.Errorf("key %q: %w", k, err)
		}
		dst.SetMapIndex(reflect.ValueOf(k).Convert(keyType), newElem)
	}
	return nil
}

// handleSlice replaces the destination slice with the bound elements of srcSlice.
func handleSlice(dst reflect.Value, srcSlice []any, depth int) error {
	if depth > maxRecursionDepth {
		return ErrExceededMaxDepth
	}

	newSlice := reflect.MakeSlice(dst.Type(), len(srcSlice), len(srcSlice))
	for i, v := range srcSlice {
		if err := bindValue(newSlice.Index(i), v, depth+1); err != nil {
			return fmt.Errorf("index %d: %w", i, err)
		}
	}
	dst.Set(newSlice)
	return nil
}

// setValue sets a reflect.Value to the given value, handling numeric conversions
// that do not lose information.
func setValue(dst reflect.Value, src any) error {
	srcVal := reflect.ValueOf(src)
	dstType := dst.Type()

	if srcVal.Type().AssignableTo(dstType) {
		dst.Set(srcVal)
		return nil
	}

	if convertible(srcVal, dstType) {
		dst.Set(srcVal.Convert(dstType))
		return nil
	}

	if s, ok := src.(string); ok {
		return parseString(dst, s)
	}

	return fmt.Errorf("%w: %T to %s", ErrCannotCast, src, dstType)
}

// parseString sets a numeric or boolean dst from its text form.
func parseString(dst reflect.Value, s string) error {
	var err error
	switch kind := dst.Kind(); {
	case isInt(kind):
		var n int64
		if n, err = strconv.ParseInt(s, 10, dst.Type().Bits()); err == nil {
			dst.SetInt(n)
		}
	case isUint(kind):
		var n uint64
		if n, err = strconv.ParseUint(s, 10, dst.Type().Bits()); err == nil {
			dst.SetUint(n)
		}
	case isFloat(kind):
		var f float64
		if f, err = strconv.ParseFloat(s, dst.Type().Bits()); err == nil {
			dst.SetFloat(f)
		}
	case kind == reflect.Bool:
		var b bool
		if b, err = strconv.ParseBool(s); err == nil {
			dst.SetBool(b)
		}
	default:
		err = errors.New("no text form")
	}
	if err != nil {
		return fmt.Errorf("%w: %q to %s: %w", ErrCannotCast, s, dst.Type(), err)
	}
	return nil
}

func convertible(src reflect.Value, dstType reflect.Type) bool {
	if !src.Type().ConvertibleTo(dstType) {
		return false
	}

	dstKind := dstType.Kind()
	switch {
	case isInt(src.Kind()):
		if isUint(dstKind) {
			return src.Int() >= 0
		}
		return isInt(dstKind) || isFloat(dstKind)
	case isUint(src.Kind()):
		return isInt(dstKind) || isUint(dstKind) || isFloat(dstKind)
	case isFloat(src.Kind()):
		if isFloat(dstKind) {
			return true
		}
		if isInt(dstKind) || isUint(dstKind) {
			f := src.Float()
			return f == math.Trunc(f) && (f >= 0 || isInt(dstKind))
		}
		return false
	case src.Kind() == reflect.String:
		// Only named string types; []byte and []rune conversions are not wanted here.
		return dstKind == reflect.String
	}
	return true
}

func isInt(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Int64
}

func isUint(k reflect.Kind) bool {
	return k >= reflect.Uint && k <= reflect.Uintptr
}

func isFloat(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}

// annotationNames splits a toml annotation into the field name and its aliases.
func annotationNames(annotation string) []string {
	if annotation == "" || annotation == "-" {
		return nil
	}
	var names []string
	for _, name := range strings.Split(annotation, ",") {
		name = strings.TrimSpace(name)
		if name == "" || annotationOptions[name] {
			continue
		}
		names = append(names, name)
	}
	return names
}

// Fields returns the toml-tagged fields of src in declaration order. Nil
// pointers are reported as an untyped nil, other pointers are dereferenced.
func Fields(src any) ([]Field, error) {
	v := reflect.ValueOf(src)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil, ErrDstNotStruct
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, ErrDstNotStruct
	}

	var fields []Field
	collectFields(v, &fields, 0)
	return fields, nil
}

func collectFields(v reflect.Value, fields *[]Field, depth int) {
	if depth > maxRecursionDepth {
		return
	}
	t := v.Type()
	for i := range t.NumField() {
		fieldType := t.Field(i)
		if !fieldType.IsExported() {
			continue
		}
		names := annotationNames(fieldType.Tag.Get(structTOMLAnnotation))
		if len(names) == 0 {
			if fieldType.Anonymous && fieldType.Type.Kind() == reflect.Struct {
				collectFields(v.Field(i), fields, depth+1)
			}
			continue
		}
		*fields = append(*fields, Field{Name: names[0], Value: indirect(v.Field(i))})
	}
}

func indirect(v reflect.Value) any {
	if v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil
		}
		return indirect(v.Elem())
	}
	return v.Interface()
}

// Attr looks up the attribute name on obj, which must be a struct or a
// pointer to one. The field is matched by its yaml annotation, then its toml
// annotation, then its Go name.
func Attr(obj any, name string) (any, bool) {
	v := reflect.ValueOf(obj)
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, false
	}
	return attr(v, name, 0)
}

func attr(v reflect.Value, name string, depth int) (any, bool) {
	if depth > maxRecursionDepth {
		return nil, false
	}
	t := v.Type()
	for _, annotation := range []string{structYAMLAnnotation, structTOMLAnnotation} {
		for i := range t.NumField() {
			fieldType := t.Field(i)
			if !fieldType.IsExported() {
				continue
			}
			names := annotationNames(fieldType.Tag.Get(annotation))
			if len(names) > 0 && names[0] == name {
				return v.Field(i).Interface(), true
			}
		}
	}
	for i := range t.NumField() {
		fieldType := t.Field(i)
		if !fieldType.IsExported() {
			continue
		}
		if fieldType.Name == name {
			return v.Field(i).Interface(), true
		}
		if fieldType.Anonymous && fieldType.Type.Kind() == reflect.Struct {
			if val, ok := attr(v.Field(i), name, depth+1); ok {
				return val, true
			}
		}
	}
	return nil, false
}
