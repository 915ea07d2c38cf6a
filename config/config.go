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

// Package config holds the generator's own configuration.
package config

import (
	"fmt"
	"io"
	"os"

	"github.com/hoprnet/hoprd-config-generator/internal/merge"
	"github.com/pelletier/go-toml/v2"
)

const (
	// DefaultConfigPath is the default filesystem path for the generator configuration file.
	DefaultConfigPath = "/etc/hoprd-config-generator/config.toml"
)

type Config struct {
	// Folder receives the node config and identity files.
	Folder string `toml:"folder"`

	// Template is the node config template. Empty selects the built-in template.
	Template string `toml:"template"`

	// NoSharedConfig disables writing the consolidated nodes file.
	NoSharedConfig bool `toml:"no_shared_config"`

	// MaxConcurrency is the number of node configs rendered at once.
	// A negative value removes the limit.
	MaxConcurrency int64 `toml:"max_concurrency"`

	// MetricsFile is where generation metrics are written in the Prometheus
	// text format. Empty disables metrics output.
	MetricsFile string `toml:"metrics_file"`

	// BaseAPIPort and BaseNetworkPort derive the ports of nodes that do not
	// set them: the n-th node gets base + n.
	BaseAPIPort     int `toml:"base_api_port"`
	BaseNetworkPort int `toml:"base_network_port"`

	Compose     ComposeConfig     `toml:"compose"`
	IPDetection IPDetectionConfig `toml:"ip_detection"`
}

// ComposeConfig configures the docker compose manifest.
type ComposeConfig struct {
	// File is the manifest path. Empty writes docker-compose.<network>.yml
	// in the working directory.
	File string `toml:"file"`

	// Image is used for nodes of networks whose definition sets no image.
	Image string `toml:"image"`

	Restart string `toml:"restart"`
}

// IPDetectionConfig configures the lookup of the host's public address.
type IPDetectionConfig struct {
	// Disable skips the lookup and uses Fallback.
	Disable bool `toml:"disable"`

	// Endpoint answers a GET request with the caller's address as plain text.
	Endpoint string `toml:"endpoint"`

	// Fallback is used when the lookup fails.
	Fallback string `toml:"fallback"`

	HTTP RetryableHTTPClientConfig `toml:"http"`
}

type configParser func(*Config) error

var parsers = []configParser{parseRootConfig, parseComposeConfig, parseIPDetectionConfig}

// NewConfig returns an initialized Config with default values set.
func NewConfig() *Config {
	cfg := &Config{}
	for _, p := range parsers {
		p(cfg)
	}
	return cfg
}

func NewConfigFromToml(cfgPath string) (*Config, error) {
	f, err := os.Open(cfgPath)
	if err != nil {
		if os.IsNotExist(err) && cfgPath == DefaultConfigPath {
			return NewConfig(), nil
		}
		return nil, fmt.Errorf("failed to open config file %q: %w", cfgPath, err)
	}
	defer f.Close()

	cfg := &Config{}
	if err = toml.NewDecoder(f).DisallowUnknownFields().Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config file %q: %w", cfgPath, err)
	}
	if err := parseConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid config file %q: %w", cfgPath, err)
	}
	return cfg, nil
}

// ApplyOverrides sets the fields of cfg named by the toml keys of overrides,
// as found in the generator section of a network definition.
func ApplyOverrides(cfg *Config, overrides map[string]any) error {
	if len(overrides) == 0 {
		return nil
	}
	if err := merge.Merge(cfg, overrides); err != nil {
		return fmt.Errorf("failed to apply generator overrides: %w", err)
	}
	return parseConfig(cfg)
}

// Dump writes cfg as TOML.
func (cfg *Config) Dump(w io.Writer) error {
	enc := toml.NewEncoder(w)
	enc.SetIndentTables(true)
	return enc.Encode(cfg)
}

func parseConfig(cfg *Config) error {
	for _, p := range parsers {
		if err := p(cfg); err != nil {
			return err
		}
	}
	return nil
}

func parseRootConfig(cfg *Config) error {
	if cfg.Folder == "" {
		cfg.Folder = defaultFolder
	}
	if cfg.MaxConcurrency == 0 {
		cfg.MaxConcurrency = defaultMaxConcurrency
	}
	if cfg.BaseAPIPort == 0 {
		cfg.BaseAPIPort = defaultBaseAPIPort
	}
	if cfg.BaseNetworkPort == 0 {
		cfg.BaseNetworkPort = defaultBaseNetworkPort
	}
	for _, port := range []int{cfg.BaseAPIPort, cfg.BaseNetworkPort} {
		if port < 0 || port > 65535 {
			return fmt.Errorf("base port %d out of range", port)
		}
	}
	return nil
}

func parseComposeConfig(cfg *Config) error {
	if cfg.Compose.Image == "" {
		cfg.Compose.Image = DefaultImage
	}
	if cfg.Compose.Restart == "" {
		cfg.Compose.Restart = defaultRestartPolicy
	}
	return nil
}

func parseIPDetectionConfig(cfg *Config) error {
	if cfg.IPDetection.Endpoint == "" {
		cfg.IPDetection.Endpoint = DefaultIPEndpoint
	}
	if cfg.IPDetection.Fallback == "" {
		cfg.IPDetection.Fallback = DefaultFallbackAddress
	}
	return parseRetryableHTTPClientConfig(&cfg.IPDetection.HTTP)
}
