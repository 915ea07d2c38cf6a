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

// Package generator renders the node configs of a network and writes them,
// together with the identity files, the consolidated nodes file and the
// compose manifest.
//
// Every node goes through the same pipeline: the template is merged with the
// network and node overrides, per-node values are filled in, tagged values
// are normalized to plain mappings and nulls are pruned.
package generator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/containerd/log"
	"github.com/hoprnet/hoprd-config-generator/compose"
	"github.com/hoprnet/hoprd-config-generator/config"
	"github.com/hoprnet/hoprd-config-generator/filling"
	osutil "github.com/hoprnet/hoprd-config-generator/internal/os"
	"github.com/hoprnet/hoprd-config-generator/network"
	"github.com/hoprnet/hoprd-config-generator/overlay"
	"github.com/hoprnet/hoprd-config-generator/tags"
	"github.com/hoprnet/hoprd-config-generator/template"
	"github.com/hoprnet/hoprd-config-generator/tracing"
	"github.com/rs/xid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

const (
	// NodesFileSuffix names the consolidated nodes file, <network>.nodes.yaml.
	NodesFileSuffix = ".nodes.yaml"

	privateFileMode = 0600
	folderMode      = 0755
)

// Rendered is the outcome of the pipeline for one node.
type Rendered struct {
	Params *network.NodeParams
	// Full is the filled config before normalization. It may hold tagged
	// values and nulls.
	Full *overlay.Mapping
	// Config is the normalized and pruned config that TOML encodes.
	Config   *overlay.Mapping
	TOML     []byte
	Identity []byte
}

// Result is the outcome of a generation run.
type Result struct {
	RunID   string
	Network *network.Network
	Nodes   []*Rendered
	// Shared is the config common to all nodes. It is nil when shared config
	// output is disabled or the network has no nodes.
	Shared    *overlay.Mapping
	Summaries []network.Summary
}

// Generator renders and writes node configs.
type Generator struct {
	cfg      *config.Config
	registry *tags.Registry
	rules    []filling.Rule
	metrics  *Metrics
}

// Option configures a Generator.
type Option func(*Generator)

// WithMetrics records generation metrics in m.
func WithMetrics(m *Metrics) Option {
	return func(g *Generator) {
		g.metrics = m
	}
}

// WithRules replaces the filling rules.
func WithRules(rules []filling.Rule) Option {
	return func(g *Generator) {
		g.rules = rules
	}
}

// New returns a Generator. The registry is used to write tagged values into
// the consolidated nodes file.
func New(cfg *config.Config, r *tags.Registry, opts ...Option) *Generator {
	g := &Generator{
		cfg:      cfg,
		registry: r,
		rules:    filling.Rules(),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Render runs the node pipeline for every node of n. tmpl and n are not
// modified. Nothing is returned unless every node renders.
func (g *Generator) Render(ctx context.Context, tmpl *overlay.Mapping, n *network.Network, ipAddr string) (res *Result, err error) {
	runID := xid.New().String()
	ctx = log.WithLogger(ctx, log.G(ctx).WithFields(log.Fields{
		"run":     runID,
		"network": n.Meta.Name,
	}))
	ctx, span := tracing.Start(ctx, "generator.Render",
		attribute.String("network", n.Meta.Name),
		attribute.Int("nodes", len(n.Nodes)),
	)
	defer func() { tracing.End(span, err) }()

	params := network.Params(n, g.cfg.Folder, network.Defaults{
		BaseAPIPort:     g.cfg.BaseAPIPort,
		BaseNetworkPort: g.cfg.BaseNetworkPort,
	})
	external := map[string]any{filling.IPAddr: ipAddr}

	rendered := make([]*Rendered, len(params))
	eg, egCtx := errgroup.WithContext(ctx)
	if g.cfg.MaxConcurrency > 0 {
		eg.SetLimit(int(g.cfg.MaxConcurrency))
	}
	for i, p := range params {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			start := time.Now()
			r, err := g.renderNode(egCtx, tmpl, p, external)
			g.metrics.observeRender(n.Meta.Name, start, err)
			if err != nil {
				return fmt.Errorf("node %d (%s): %w", p.Index, p.Name, err)
			}
			rendered[i] = r
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	res = &Result{
		RunID:     runID,
		Network:   n,
		Nodes:     rendered,
		Summaries: make([]network.Summary, 0, len(params)),
	}
	for _, p := range params {
		res.Summaries = append(res.Summaries, p.Summary())
	}
	if !g.cfg.NoSharedConfig && len(rendered) > 0 {
		res.Shared = overlay.ExtractShared(rendered[0].Config, filling.NodeSpecificPaths())
	}
	g.metrics.markRun(n.Meta.Name, time.Now())
	log.G(ctx).Infof("rendered %d node configs", len(rendered))
	return res, nil
}

func (g *Generator) renderNode(ctx context.Context, tmpl *overlay.Mapping, p *network.NodeParams, external map[string]any) (_ *Rendered, err error) {
	_, span := tracing.Start(ctx, "generator.renderNode",
		attribute.String("node", p.Name),
		attribute.Int("index", p.Index),
	)
	defer func() { tracing.End(span, err) }()

	full := overlay.MergeAll(tmpl, p.Network.Config, p.Config)
	if _, err := filling.ApplyRules(full, g.rules, p, external); err != nil {
		return nil, err
	}
	cfg, err := overlay.NormalizeMapping(full)
	if err != nil {
		return nil, err
	}
	cfg = overlay.PruneMapping(cfg)

	data, err := template.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	log.G(ctx).WithField("node", p.Name).Debug("rendered node config")
	return &Rendered{
		Params:   p,
		Full:     full,
		Config:   cfg,
		TOML:     data,
		Identity: []byte(p.Identity),
	}, nil
}

// NodesFilePath returns where the consolidated nodes file of res is written.
func (g *Generator) NodesFilePath(res *Result) string {
	return filepath.Join(g.cfg.Folder, res.Network.Meta.Name+NodesFileSuffix)
}

// ComposeFilePath returns where the compose manifest of res is written.
func (g *Generator) ComposeFilePath(res *Result) string {
	if g.cfg.Compose.File != "" {
		return g.cfg.Compose.File
	}
	return compose.DefaultPath(res.Network.Meta.Name)
}

// Write writes the files of res: a config and an identity file per node, the
// consolidated nodes file when a shared config was extracted, and the compose
// manifest.
func (g *Generator) Write(ctx context.Context, res *Result) (err error) {
	ctx = log.WithLogger(ctx, log.G(ctx).WithFields(log.Fields{
		"run":     res.RunID,
		"network": res.Network.Meta.Name,
	}))
	ctx, span := tracing.Start(ctx, "generator.Write", attribute.String("network", res.Network.Meta.Name))
	defer func() { tracing.End(span, err) }()

	if err := os.MkdirAll(g.cfg.Folder, folderMode); err != nil {
		return fmt.Errorf("failed to create folder %s: %w", g.cfg.Folder, err)
	}

	members := make([]compose.Member, 0, len(res.Nodes))
	for _, r := range res.Nodes {
		if err := writeFile(r.Params.ConfigFile, r.TOML); err != nil {
			return err
		}
		if err := writeFile(r.Params.IdentityFile, r.Identity); err != nil {
			return err
		}
		log.G(ctx).WithFields(log.Fields{
			"node": r.Params.Name,
			"path": r.Params.ConfigFile,
		}).Debug("wrote node files")
		members = append(members, compose.Member{Params: r.Params, Config: r.Config})
	}

	if res.Shared != nil {
		path := g.NodesFilePath(res)
		data, err := g.nodesFile(res)
		if err != nil {
			return fmt.Errorf("failed to encode nodes file: %w", err)
		}
		if err := writeFile(path, data); err != nil {
			return err
		}
		log.G(ctx).WithField("path", path).Info("wrote nodes file")
	}

	path := g.ComposeFilePath(res)
	opts := compose.Options{Image: g.cfg.Compose.Image, Restart: g.cfg.Compose.Restart}
	if err := compose.Write(path, compose.Build(res.Network, members, opts)); err != nil {
		return err
	}
	log.G(ctx).WithField("path", path).Info("wrote compose file")
	return nil
}

func (g *Generator) nodesFile(res *Result) ([]byte, error) {
	nodes := make([]any, 0, len(res.Summaries))
	for _, s := range res.Summaries {
		nodes = append(nodes, s)
	}
	doc := overlay.NewMapping()
	doc.Set("network", res.Network.Meta.Name)
	doc.Set("config", res.Shared)
	doc.Set("nodes", nodes)
	return g.registry.Marshal(doc)
}

func writeFile(path string, data []byte) error {
	if err := osutil.WriteFile(path, data, privateFileMode); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
