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

// Package filling writes computed per-node values into a merged node config
// according to a table of rules.
package filling

import (
	"fmt"
	"strings"

	"github.com/hoprnet/hoprd-config-generator/overlay"
)

const (
	// ExternalPrefix marks a rule source that names an external input.
	ExternalPrefix = "*"

	// IPAddr is the external input holding the node's public address.
	IPAddr = "ip_addr"
)

// Rule copies the value found at Source into the config at Output. Source is
// either a path into the node parameters ("network/meta/name") or the name of
// an external input prefixed with ExternalPrefix ("*ip_addr").
type Rule struct {
	Output string
	Source string
}

// External reports whether the rule reads an external input, and its name.
func (r Rule) External() (string, bool) {
	name, ok := strings.CutPrefix(r.Source, ExternalPrefix)
	return name, ok
}

var rules = []Rule{
	{Output: "api/auth/token", Source: "api_password"},
	{Output: "api/host/port", Source: "api_port"},
	{Output: "hopr/chain/network", Source: "network/meta/name"},
	{Output: "hopr/host/port", Source: "network_port"},
	{Output: "hopr/safe_module/module_address", Source: "module_address"},
	{Output: "hopr/safe_module/safe_address", Source: "safe_address"},
	{Output: "identity/password", Source: "identity_password"},
	{Output: "identity/file", Source: "identity_mount_path"},
	{Output: "hopr/host/address", Source: ExternalPrefix + IPAddr},
}

// Rules returns the node config filling table.
func Rules() []Rule {
	return append([]Rule(nil), rules...)
}

// nodeSpecificPaths are the filled outputs unique to one node. The network
// name is filled on every node with the same value and stays shared. The host
// address is the deploying machine's and does not carry over to another host.
var nodeSpecificPaths = []string{
	"api/auth/token",
	"api/host/port",
	"hopr/host/address",
	"hopr/host/port",
	"hopr/safe_module/module_address",
	"hopr/safe_module/safe_address",
	"identity/password",
	"identity/file",
}

// NodeSpecificPaths returns the config paths whose values differ between
// nodes of a network.
func NodeSpecificPaths() [][]string {
	paths := make([][]string, 0, len(nodeSpecificPaths))
	for _, p := range nodeSpecificPaths {
		paths = append(paths, overlay.ParsePath(p))
	}
	return paths
}

// MissingExternalInputError is returned when a rule names an external input
// that was not supplied.
type MissingExternalInputError struct {
	Name string
}

func (e *MissingExternalInputError) Error() string {
	return fmt.Sprintf("missing external input %q", e.Name)
}

// Apply fills cfg in place using Rules and returns it.
func Apply(cfg *overlay.Mapping, params any, external map[string]any) (*overlay.Mapping, error) {
	return ApplyRules(cfg, rules, params, external)
}

// ApplyRules fills cfg in place, applying rules in order. A later rule
// overwrites a value written by an earlier one at the same path.
func ApplyRules(cfg *overlay.Mapping, rules []Rule, params any, external map[string]any) (*overlay.Mapping, error) {
	for _, rule := range rules {
		value, err := resolve(rule, params, external)
		if err != nil {
			return nil, fmt.Errorf("filling %q: %w", rule.Output, err)
		}
		if err := overlay.Set(cfg, overlay.ParsePath(rule.Output), value); err != nil {
			return nil, fmt.Errorf("filling %q: %w", rule.Output, err)
		}
	}
	return cfg, nil
}

func resolve(rule Rule, params any, external map[string]any) (any, error) {
	if name, ok := rule.External(); ok {
		value, ok := external[name]
		if !ok {
			return nil, &MissingExternalInputError{Name: name}
		}
		return value, nil
	}
	return overlay.Get(params, overlay.ParsePath(rule.Source))
}
