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

package commands

import (
	"context"
	"fmt"

	"github.com/containerd/log"
	ctxutil "github.com/hoprnet/hoprd-config-generator/cmd/internal/context"
	"github.com/hoprnet/hoprd-config-generator/config"
	"github.com/hoprnet/hoprd-config-generator/generator"
	"github.com/hoprnet/hoprd-config-generator/ipinfo"
	"github.com/hoprnet/hoprd-config-generator/network"
	"github.com/hoprnet/hoprd-config-generator/tags"
	"github.com/hoprnet/hoprd-config-generator/template"
	httputil "github.com/hoprnet/hoprd-config-generator/util/http"
	"github.com/urfave/cli/v3"
)

const (
	paramsFlag      = "params"
	folderFlag      = "folder"
	templateFlag    = "template"
	composeFlag     = "compose"
	ipFlag          = "ip"
	noSharedFlag    = "no-shared"
	metricsFileFlag = "metrics-file"
)

// NewGenerateCommand returns the command rendering the files of every node
// of a network.
func NewGenerateCommand() *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "generate node configs, identity files and a compose manifest for a network",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     paramsFlag,
				Aliases:  []string{"p"},
				Usage:    "path to the network definition",
				Required: true,
			},
			&cli.StringFlag{
				Name:  folderFlag,
				Usage: "folder receiving node config and identity files",
			},
			&cli.StringFlag{
				Name:  templateFlag,
				Usage: "node config template (.toml, .yaml or .yml); the built-in template is used when empty",
			},
			&cli.StringFlag{
				Name:  composeFlag,
				Usage: "path of the compose manifest",
			},
			&cli.StringFlag{
				Name:  ipFlag,
				Usage: "public address of the nodes; detected when not set",
			},
			&cli.BoolFlag{
				Name:  noSharedFlag,
				Usage: "do not write the consolidated nodes file",
			},
			&cli.StringFlag{
				Name:  metricsFileFlag,
				Usage: "write generation metrics to this file in the Prometheus text format",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := ctxutil.GetValue[*config.Config](ctx, ctxutil.ConfigKey)
			if err != nil {
				return err
			}

			registry := tags.NewDefaultRegistry()
			n, err := network.Load(cmd.String(paramsFlag), registry)
			if err != nil {
				return err
			}
			if err := config.ApplyOverrides(cfg, n.Generator); err != nil {
				return err
			}
			applyFlags(cmd, cfg)

			tmpl, err := template.Load(cfg.Template, registry)
			if err != nil {
				return err
			}

			ipAddr := cmd.String(ipFlag)
			if ipAddr == "" {
				ipAddr = detectIP(ctx, cfg.IPDetection)
			}

			var (
				opts    []generator.Option
				metrics *generator.Metrics
			)
			if cfg.MetricsFile != "" {
				metrics, err = generator.NewMetrics()
				if err != nil {
					return err
				}
				opts = append(opts, generator.WithMetrics(metrics))
			}

			g := generator.New(cfg, registry, opts...)
			res, renderErr := g.Render(ctx, tmpl, n, ipAddr)
			if renderErr == nil {
				renderErr = g.Write(ctx, res)
			}
			if metrics != nil {
				if err := metrics.WriteToTextfile(cfg.MetricsFile); err != nil {
					log.G(ctx).WithError(err).Warn("failed to write metrics")
				}
			}
			if renderErr != nil {
				return fmt.Errorf("failed to generate network %s: %w", n.Meta.Name, renderErr)
			}

			log.G(ctx).WithFields(log.Fields{
				"network": n.Meta.Name,
				"run":     res.RunID,
				"folder":  cfg.Folder,
			}).Infof("generated %d nodes", len(res.Nodes))
			return nil
		},
	}
}

// applyFlags overrides cfg with the flags set on the command line.
func applyFlags(cmd *cli.Command, cfg *config.Config) {
	if cmd.IsSet(folderFlag) {
		cfg.Folder = cmd.String(folderFlag)
	}
	if cmd.IsSet(templateFlag) {
		cfg.Template = cmd.String(templateFlag)
	}
	if cmd.IsSet(composeFlag) {
		cfg.Compose.File = cmd.String(composeFlag)
	}
	if cmd.IsSet(noSharedFlag) {
		cfg.NoSharedConfig = cmd.Bool(noSharedFlag)
	}
	if cmd.IsSet(metricsFileFlag) {
		cfg.MetricsFile = cmd.String(metricsFileFlag)
	}
}

func detectIP(ctx context.Context, cfg config.IPDetectionConfig) string {
	if cfg.Disable {
		log.G(ctx).WithField("address", cfg.Fallback).Info("public address detection disabled")
		return cfg.Fallback
	}
	client := httputil.NewRetryableClient(cfg.HTTP)
	return ipinfo.Detect(ctx, client, cfg.Endpoint, cfg.Fallback)
}
