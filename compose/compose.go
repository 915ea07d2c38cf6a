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

// Package compose builds the docker compose manifest running every node of a
// network.
package compose

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	osutil "github.com/hoprnet/hoprd-config-generator/internal/os"
	"github.com/hoprnet/hoprd-config-generator/network"
	"github.com/hoprnet/hoprd-config-generator/overlay"
	"gopkg.in/yaml.v3"
)

const (
	configPathEnv   = "HOPRD_CONFIGURATION_FILE_PATH"
	providerEnv     = "HOPRD_PROVIDER"
	defaultDBTarget = "/app/hoprd-db"
)

var dbPath = []string{"hopr", "db", "data"}

// Options configure the manifest.
type Options struct {
	// Image is used when the network definition does not name one.
	Image   string
	Restart string
}

// Member is a node of the manifest together with its rendered config.
type Member struct {
	Params *network.NodeParams
	Config *overlay.Mapping
}

// DefaultPath returns the manifest file name used for a network.
func DefaultPath(networkName string) string {
	return fmt.Sprintf("docker-compose.%s.yml", networkName)
}

// Build returns the manifest running members on a network of their own.
func Build(n *network.Network, members []Member, opts Options) *File {
	image := n.Meta.Image
	if image == "" {
		image = opts.Image
	}

	f := &File{
		Name:     n.Meta.Name,
		Services: make(map[string]Service, len(members)),
		Volumes:  make(map[string]Volume, len(members)),
		Networks: map[string]Network{n.Meta.Name: {Driver: "bridge"}},
	}
	for _, m := range members {
		p := m.Params
		dbVolume := p.Name + "-db"
		api := strconv.Itoa(p.APIPort)
		p2p := strconv.Itoa(p.NetworkPort)

		env := map[string]string{configPathEnv: p.ConfigMountPath}
		if n.Meta.Provider != "" {
			env[providerEnv] = n.Meta.Provider
		}

		f.Services[p.Name] = Service{
			Image:         image,
			ContainerName: p.Name,
			Ports: []string{
				api + ":" + api,
				p2p + ":" + p2p + "/tcp",
				p2p + ":" + p2p + "/udp",
			},
			Volumes: []string{
				bindSource(p.Folder) + ":" + network.MountDir + ":ro",
				dbVolume + ":" + dbTarget(m.Config),
			},
			Environment: env,
			Networks:    []string{n.Meta.Name},
			Healthcheck: &Healthcheck{
				Test:     []string{"CMD", "curl", "-sf", "http://localhost:" + api + "/readyz"},
				Interval: "30s",
				Timeout:  "5s",
				Retries:  3,
			},
			Restart: opts.Restart,
		}
		f.Volumes[dbVolume] = Volume{}
	}
	return f
}

// dbTarget is the database directory configured for the node.
func dbTarget(cfg *overlay.Mapping) string {
	if cfg == nil {
		return defaultDBTarget
	}
	v, err := overlay.Get(cfg, dbPath)
	if err != nil {
		return defaultDBTarget
	}
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return defaultDBTarget
}

// bindSource makes relative folders explicit so compose treats them as bind
// mounts rather than named volumes.
func bindSource(folder string) string {
	if filepath.IsAbs(folder) || strings.HasPrefix(folder, ".") {
		return folder
	}
	return "./" + folder
}

// Marshal encodes f as YAML.
func Marshal(f *File) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write writes f to path.
func Write(path string, f *File) error {
	data, err := Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to marshal compose file: %w", err)
	}
	if err := osutil.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write compose file: %w", err)
	}
	return nil
}
