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

// Package merge binds plain decoded values (map[string]any, []any and
// scalars) onto toml-tagged structs, and reads them back out in declaration
// order.
//
// Merge is used in two places: typed tag payloads are bound onto their
// variant structs, and the optional "generator" section of a network file is
// bound onto the tool configuration. Fields reads a struct back into ordered
// name/value pairs so that tagged values can be serialized and normalized.
package merge // import "github.com/hoprnet/hoprd-config-generator/internal/merge"
