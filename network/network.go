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

// Package network describes a network of hoprd nodes as read from a network
// definition file, and derives the per-node parameters used to fill node
// configs.
package network

import (
	"errors"
	"fmt"
	"os"

	"github.com/containerd/log"
	"github.com/hoprnet/hoprd-config-generator/overlay"
	"github.com/hoprnet/hoprd-config-generator/tags"
	"gopkg.in/yaml.v3"
)

var (
	ErrMissingName     = errors.New("network name is required")
	ErrMissingIdentity = errors.New("node identity is required")
	ErrInvalidConfig   = errors.New("config must be a mapping")
)

// Meta holds network wide settings.
type Meta struct {
	Name     string `yaml:"name"`
	Image    string `yaml:"image,omitempty"`
	Provider string `yaml:"provider,omitempty"`
}

// Node is a node entry of the network definition.
type Node struct {
	Identity         string `yaml:"identity"`
	IdentityPassword string `yaml:"identity_password,omitempty"`
	APIPassword      string `yaml:"api_password,omitempty"`
	SafeAddress      string `yaml:"safe_address,omitempty"`
	ModuleAddress    string `yaml:"module_address,omitempty"`
	PeerID           string `yaml:"peer_id,omitempty"`
	APIPort          int    `yaml:"api_port,omitempty"`
	NetworkPort      int    `yaml:"network_port,omitempty"`

	// Config overrides the network config for this node only.
	Config *overlay.Mapping `yaml:"-"`
}

// Network is a parsed network definition.
type Network struct {
	Meta Meta `yaml:"meta"`
	// Config overrides the node template for every node.
	Config *overlay.Mapping `yaml:"-"`
	// Generator holds overrides of the generator's own configuration.
	Generator map[string]any `yaml:"generator,omitempty"`
	Nodes     []*Node        `yaml:"-"`
}

type rawNode struct {
	Node   `yaml:",inline"`
	Config yaml.Node `yaml:"config"`
}

type rawNetwork struct {
	Meta      Meta           `yaml:"meta"`
	Config    yaml.Node      `yaml:"config"`
	Generator map[string]any `yaml:"generator"`
	Nodes     []rawNode      `yaml:"nodes"`
}

// Load reads the network definition at path.
func Load(path string, r *tags.Registry) (*Network, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read network definition: %w", err)
	}
	n, err := Parse(data, r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse network definition %s: %w", path, err)
	}
	log.L.WithField("network", n.Meta.Name).Infof("loaded %d nodes", len(n.Nodes))
	return n, nil
}

// Parse decodes a network definition. Config sections may use the custom
// tags known to r.
func Parse(data []byte, r *tags.Registry) (*Network, error) {
	var raw rawNetwork
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if raw.Meta.Name == "" {
		return nil, ErrMissingName
	}

	cfg, err := decodeConfig(&raw.Config, r)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	n := &Network{
		Meta:      raw.Meta,
		Config:    cfg,
		Generator: raw.Generator,
		Nodes:     make([]*Node, 0, len(raw.Nodes)),
	}
	for i := range raw.Nodes {
		node := raw.Nodes[i].Node
		if node.Identity == "" {
			return nil, fmt.Errorf("nodes[%d]: %w", i, ErrMissingIdentity)
		}
		node.Config, err = decodeConfig(&raw.Nodes[i].Config, r)
		if err != nil {
			return nil, fmt.Errorf("nodes[%d]: config: %w", i, err)
		}
		n.Nodes = append(n.Nodes, &node)
	}
	return n, nil
}

func decodeConfig(node *yaml.Node, r *tags.Registry) (*overlay.Mapping, error) {
	if node.Kind == 0 {
		return overlay.NewMapping(), nil
	}
	v, err := r.Decode(node)
	if err != nil {
		return nil, err
	}
	switch cfg := v.(type) {
	case nil:
		return overlay.NewMapping(), nil
	case *overlay.Mapping:
		return cfg, nil
	default:
		return nil, fmt.Errorf("%w, got %T", ErrInvalidConfig, v)
	}
}
