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

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/containerd/log"
	"github.com/hoprnet/hoprd-config-generator/cmd/hoprd-config-generator/commands"
	"github.com/hoprnet/hoprd-config-generator/cmd/hoprd-config-generator/commands/global"
	"github.com/hoprnet/hoprd-config-generator/tracing"
	"github.com/hoprnet/hoprd-config-generator/version"
	"github.com/urfave/cli/v3"
)

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "hoprd-config-generator",
		Usage:   "generate hoprd node configurations for a network of nodes",
		Flags:   global.Flags(),
		Version: fmt.Sprintf("%s %s", version.Version, version.Revision),
		Commands: []*cli.Command{
			commands.NewGenerateCommand(),
			commands.NewConfigCommand(),
		},
		Before: global.Before,
	}
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	shutdown := initTracing(ctx)

	err := newApp().Run(ctx, os.Args)
	if err := shutdown(ctx); err != nil {
		log.L.WithError(err).Warn("failed to flush traces")
	}
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "hoprd-config-generator: %v\n", err)
		os.Exit(1)
	}
}

func initTracing(ctx context.Context) func(context.Context) error {
	noop := func(context.Context) error { return nil }
	disabled, err := tracing.IsDisabled()
	if err != nil {
		log.L.WithError(err).Warn("tracing disabled")
		return noop
	}
	if disabled {
		return noop
	}
	shutdown, err := tracing.Init(ctx, version.Version)
	if err != nil {
		log.L.WithError(err).Warn("failed to initialize tracing")
		return noop
	}
	return shutdown
}
