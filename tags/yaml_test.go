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

package tags

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

const taggedDocument = `hopr:
  host:
    address: !IPv4 10.1.2.3
    port: 9091
  strategy:
    on_fail_continue: true
    strategies:
      - !Aggregating
        aggregation_threshold: 100
        unrealized_balance_ratio: 0.9
      - !AutoRedeeming
        redeem_only_aggregated: true
      - !ClosureFinalizer 300
api:
  auth: !Token "12345"
`

func TestUnmarshalTagged(t *testing.T) {
	r := NewDefaultRegistry()

	v, err := r.Unmarshal([]byte(taggedDocument))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	root, ok := v.(*orderedmap.OrderedMap[string, any])
	if !ok {
		t.Fatalf("expected ordered mapping, got %T", v)
	}

	var keys []string
	for pair := root.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	if diff := cmp.Diff([]string{"hopr", "api"}, keys); diff != "" {
		t.Fatalf("key order not preserved; diff = %v", diff)
	}

	hopr := root.Value("hopr").(*orderedmap.OrderedMap[string, any])
	host := hopr.Value("host").(*orderedmap.OrderedMap[string, any])
	if diff := cmp.Diff(&IPv4{Address: "10.1.2.3"}, host.Value("address")); diff != "" {
		t.Fatalf("unexpected address; diff = %v", diff)
	}
	if host.Value("port") != 9091 {
		t.Fatalf("expected port 9091, got %v", host.Value("port"))
	}

	strategies := hopr.Value("strategy").(*orderedmap.OrderedMap[string, any]).Value("strategies").([]any)
	expected := []any{
		&Aggregating{AggregationThreshold: ptr(int64(100)), UnrealizedBalanceRatio: ptr(0.9)},
		&AutoRedeeming{RedeemOnlyAggregated: ptr(true)},
		&ClosureFinalizer{MaxClosureOverdue: ptr(int64(300))},
	}
	if diff := cmp.Diff(expected, strategies); diff != "" {
		t.Fatalf("unexpected strategies; diff = %v", diff)
	}

	auth := root.Value("api").(*orderedmap.OrderedMap[string, any]).Value("auth")
	if diff := cmp.Diff(&Token{Token: "12345"}, auth); diff != "" {
		t.Fatalf("quoted token must stay a string; diff = %v", diff)
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	r := NewDefaultRegistry()

	first, err := r.Unmarshal([]byte(taggedDocument))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, err := r.Marshal(first)
	if err != nil {
		t.Fatalf("unexpected marshal error: %v", err)
	}
	if !strings.Contains(string(out), "!IPv4 10.1.2.3") {
		t.Fatalf("expected tagged address in output:\n%s", out)
	}
	second, err := r.Unmarshal(out)
	if err != nil {
		t.Fatalf("unexpected error decoding marshaled output: %v\n%s", err, out)
	}

	if diff := cmp.Diff(first, second, cmp.Comparer(equalMappings)); diff != "" {
		t.Fatalf("round trip mismatch; diff = %v", diff)
	}
}

func TestUnmarshalUnknownTag(t *testing.T) {
	r := NewDefaultRegistry()

	_, err := r.Unmarshal([]byte("a:\n  b: !IPv6 fe80\n"))
	var unknown *UnknownTagError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownTagError, got %v", err)
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("expected error to name the line, got %v", err)
	}
}

func TestUnmarshalMergeKeys(t *testing.T) {
	r := NewDefaultRegistry()

	v, err := r.Unmarshal([]byte("base: &base\n  a: 1\n  b: 2\nnode:\n  <<: *base\n  b: 3\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	node := v.(*orderedmap.OrderedMap[string, any]).Value("node").(*orderedmap.OrderedMap[string, any])
	if node.Value("a") != 1 || node.Value("b") != 3 {
		t.Fatalf("unexpected merge result: a=%v b=%v", node.Value("a"), node.Value("b"))
	}
}

func TestUnmarshalEmpty(t *testing.T) {
	v, err := NewDefaultRegistry().Unmarshal(nil)
	if err != nil || v != nil {
		t.Fatalf("expected nil document, got %v, %v", v, err)
	}
}

// equalMappings compares ordered mappings by key order and values.
func equalMappings(a, b *orderedmap.OrderedMap[string, any]) bool {
	if a.Len() != b.Len() {
		return false
	}
	for pa, pb := a.Oldest(), b.Oldest(); pa != nil; pa, pb = pa.Next(), pb.Next() {
		if pa.Key != pb.Key {
			return false
		}
		if !cmp.Equal(pa.Value, pb.Value, cmp.Comparer(equalMappings)) {
			return false
		}
	}
	return true
}

func TestUnmarshalTaggedScalarText(t *testing.T) {
	for _, test := range []struct {
		name     string
		doc      string
		expected Value
	}{
		{name: "numeric token", doc: "a: !Token 123456\n", expected: &Token{Token: "123456"}},
		{name: "leading zeros", doc: "a: !Token 007\n", expected: &Token{Token: "007"}},
		{name: "boolean looking token", doc: "a: !Token true\n", expected: &Token{Token: "true"}},
		{name: "integer field", doc: "a: !ClosureFinalizer 300\n", expected: &ClosureFinalizer{MaxClosureOverdue: ptr(int64(300))}},
		{name: "aggregation threshold", doc: "a: !Aggregating 100\n", expected: &Aggregating{AggregationThreshold: ptr(int64(100))}},
		{name: "boolean field", doc: "a: !AutoRedeeming false\n", expected: &AutoRedeeming{RedeemOnlyAggregated: ptr(false)}},
		{name: "empty payload", doc: "a: !AutoFunding\n", expected: &AutoFunding{}},
	} {
		t.Run(test.name, func(t *testing.T) {
			v, err := NewDefaultRegistry().Unmarshal([]byte(test.doc))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got := v.(*orderedmap.OrderedMap[string, any]).Value("a")
			if diff := cmp.Diff(test.expected, got); diff != "" {
				t.Fatalf("unexpected value; diff = %v", diff)
			}
		})
	}
}

func TestUnmarshalTaggedScalarInvalid(t *testing.T) {
	_, err := NewDefaultRegistry().Unmarshal([]byte("a: !ClosureFinalizer soon\n"))
	if !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload, got %v", err)
	}
}

func TestMarshalKeepsTokenText(t *testing.T) {
	r := NewDefaultRegistry()
	doc := orderedmap.New[string, any]()
	doc.Set("a", &Token{Token: "007"})

	out, err := r.Marshal(doc)
	if err != nil {
		t.Fatalf("unexpected marshal error: %v", err)
	}
	v, err := r.Unmarshal(out)
	if err != nil {
		t.Fatalf("unexpected error decoding %s: %v", out, err)
	}
	if diff := cmp.Diff(&Token{Token: "007"}, v.(*orderedmap.OrderedMap[string, any]).Value("a")); diff != "" {
		t.Fatalf("unexpected token; diff = %v", diff)
	}
}
