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

package network

import (
	"fmt"
	"path"
	"path/filepath"

	"github.com/google/uuid"
)

const (
	// MountDir is where the node folder is mounted inside node containers.
	MountDir = "/app/conf"

	ConfigSuffix   = ".cfg.toml"
	IdentitySuffix = ".id"
)

// Defaults are applied to node entries that leave a value unset.
type Defaults struct {
	// Ports of the n-th node (starting at 1) are base + n.
	BaseAPIPort     int
	BaseNetworkPort int
}

// NodeParams are the resolved parameters of one node. Fields are addressed
// by their yaml names in filling rules, e.g. "network/meta/name".
type NodeParams struct {
	Node `yaml:",inline"`

	Index   int      `yaml:"index"`
	Name    string   `yaml:"name"`
	Network *Network `yaml:"network"`
	Folder  string   `yaml:"folder"`

	ConfigFile        string `yaml:"config_file"`
	IdentityFile      string `yaml:"identity_file"`
	ConfigMountPath   string `yaml:"config_mount_path"`
	IdentityMountPath string `yaml:"identity_mount_path"`
}

// Params resolves the parameters of every node of n. Nodes are numbered from
// 1. Missing passwords are generated and missing ports derived from d; n is
// not modified.
func Params(n *Network, folder string, d Defaults) []*NodeParams {
	params := make([]*NodeParams, 0, len(n.Nodes))
	for i, node := range n.Nodes {
		params = append(params, newParams(n, node, i+1, folder, d))
	}
	return params
}

func newParams(n *Network, node *Node, index int, folder string, d Defaults) *NodeParams {
	p := &NodeParams{
		Node:    *node,
		Index:   index,
		Name:    fmt.Sprintf("%s-%d", n.Meta.Name, index),
		Network: n,
		Folder:  folder,
	}
	if p.IdentityPassword == "" {
		p.IdentityPassword = uuid.NewString()
	}
	if p.APIPassword == "" {
		p.APIPassword = uuid.NewString()
	}
	if p.APIPort == 0 {
		p.APIPort = d.BaseAPIPort + index
	}
	if p.NetworkPort == 0 {
		p.NetworkPort = d.BaseNetworkPort + index
	}
	p.ConfigFile = filepath.Join(folder, p.Name+ConfigSuffix)
	p.IdentityFile = filepath.Join(folder, p.Name+IdentitySuffix)
	p.ConfigMountPath = path.Join(MountDir, p.Name+ConfigSuffix)
	p.IdentityMountPath = path.Join(MountDir, p.Name+IdentitySuffix)
	return p
}

// Summary is the per-node record written next to the shared config.
type Summary struct {
	Index            int    `yaml:"index"`
	Name             string `yaml:"name"`
	ConfigFile       string `yaml:"config_file"`
	IdentityFile     string `yaml:"identity_file"`
	PeerID           string `yaml:"peer_id,omitempty"`
	SafeAddress      string `yaml:"safe_address,omitempty"`
	ModuleAddress    string `yaml:"module_address,omitempty"`
	APIPort          int    `yaml:"api_port"`
	NetworkPort      int    `yaml:"network_port"`
	APIPassword      string `yaml:"api_password"`
	IdentityPassword string `yaml:"identity_password"`
}

// Summary returns the summary record of p.
func (p *NodeParams) Summary() Summary {
	return Summary{
		Index:            p.Index,
		Name:             p.Name,
		ConfigFile:       p.ConfigFile,
		IdentityFile:     p.IdentityFile,
		PeerID:           p.PeerID,
		SafeAddress:      p.SafeAddress,
		ModuleAddress:    p.ModuleAddress,
		APIPort:          p.APIPort,
		NetworkPort:      p.NetworkPort,
		APIPassword:      p.APIPassword,
		IdentityPassword: p.IdentityPassword,
	}
}
