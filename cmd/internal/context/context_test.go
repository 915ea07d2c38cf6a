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

package context

import (
	"context"
	"testing"
)

func TestGetValue(t *testing.T) {
	ctx := WithValue(context.Background(), ConfigKey, "value")

	got, err := GetValue[string](ctx, ConfigKey)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "value" {
		t.Fatalf("unexpected value %q", got)
	}

	if _, err := GetValue[int](ctx, ConfigKey); err == nil {
		t.Fatal("expected a type error")
	}
	if _, err := GetValue[string](context.Background(), ConfigKey); err == nil {
		t.Fatal("expected a missing key error")
	}
}
