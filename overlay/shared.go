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

// ExtractShared returns a copy of cfg with every path in paths removed. When
// a removal leaves its parent mapping empty the parent is removed too, up to
// the first ancestor that still holds keys. Paths whose intermediate keys are
// missing or not mappings are skipped.
func ExtractShared(cfg *Mapping, paths [][]string) *Mapping {
	shared := copyMapping(cfg)
	for _, path := range paths {
		removePath(shared, path)
	}
	return shared
}

func removePath(root *Mapping, path []string) {
	if len(path) == 0 {
		return
	}

	// chain[i] is the mapping holding path[i].
	chain := make([]*Mapping, 0, len(path))
	cur := root
	chain = append(chain, cur)
	for _, key := range path[:len(path)-1] {
		v, ok := cur.Get(key)
		if !ok {
			return
		}
		m, ok := v.(*Mapping)
		if !ok || m == nil {
			return
		}
		cur = m
		chain = append(chain, cur)
	}

	if _, present := cur.Delete(path[len(path)-1]); !present {
		return
	}
	for i := len(chain) - 1; i > 0; i-- {
		if chain[i].Len() > 0 {
			return
		}
		chain[i-1].Delete(path[i-1])
	}
}
