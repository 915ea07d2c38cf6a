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

	ctxutil "github.com/hoprnet/hoprd-config-generator/cmd/internal/context"
	"github.com/hoprnet/hoprd-config-generator/config"
	"github.com/urfave/cli/v3"
)

// NewConfigCommand returns the command inspecting the generator
// configuration.
func NewConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "inspect the generator configuration",
		Commands: []*cli.Command{
			{
				Name:  "dump",
				Usage: "print the effective configuration as TOML",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := ctxutil.GetValue[*config.Config](ctx, ctxutil.ConfigKey)
					if err != nil {
						return err
					}
					return cfg.Dump(cmd.Root().Writer)
				},
			},
		},
	}
}
