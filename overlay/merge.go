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

// Merge returns a new mapping holding source overlaid with addons. Neither
// input is modified.
//
// Mapping values in addons are merged recursively with the value of the same
// key in source, or with an empty mapping when source has no mapping there.
// Every other addon value, sequences included, replaces the source value.
// Keys keep their position in source; keys only present in addons are
// appended in addons order.
func Merge(source, addons *Mapping) *Mapping {
	result := copyMapping(source)
	if addons == nil {
		return result
	}
	for pair := addons.Oldest(); pair != nil; pair = pair.Next() {
		if sub, ok := asMapping(pair.Value); ok {
			base, _ := asMapping(result.Value(pair.Key))
			result.Set(pair.Key, Merge(base, sub))
			continue
		}
		result.Set(pair.Key, DeepCopy(pair.Value))
	}
	return result
}

// MergeAll folds addons onto source from left to right.
func MergeAll(source *Mapping, addons ...*Mapping) *Mapping {
	result := copyMapping(source)
	for _, a := range addons {
		result = Merge(result, a)
	}
	return result
}
