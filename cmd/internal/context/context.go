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

// Package context carries values set up by the root command to subcommands.
package context

import (
	"context"
	"fmt"
)

type key string

const (
	// ConfigKey holds the *config.Config loaded from the global config flag.
	ConfigKey key = "config"
)

// WithValue returns a copy of ctx holding value under k.
func WithValue[T any](ctx context.Context, k key, value T) context.Context {
	return context.WithValue(ctx, k, value)
}

// GetValue returns the value stored under k, failing when it is missing or
// of another type.
func GetValue[T any](ctx context.Context, k key) (T, error) {
	var zero T
	value := ctx.Value(k)
	if value == nil {
		return zero, fmt.Errorf("key %q not found in context", string(k))
	}
	val, ok := value.(T)
	if !ok {
		return zero, fmt.Errorf("value for key %q is not of type %T", string(k), zero)
	}
	return val, nil
}
