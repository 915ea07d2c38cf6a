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

package global

import (
	"context"
	"fmt"

	"github.com/containerd/log"
	ctxutil "github.com/hoprnet/hoprd-config-generator/cmd/internal/context"
	"github.com/hoprnet/hoprd-config-generator/config"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
)

// Global flags for the generator CLI

const (
	ConfigFlag    = "config"
	LogLevelFlag  = "log-level"
	LogFormatFlag = "log-format"

	textLogFormat = "text"
	jsonLogFormat = "json"
)

// Flags returns the flags accepted by the root command.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    ConfigFlag,
			Aliases: []string{"c"},
			Usage:   "path to the generator configuration file",
			Value:   config.DefaultConfigPath,
			Sources: cli.EnvVars("HOPRD_CONFIG_GENERATOR_CONFIG"),
		},
		&cli.StringFlag{
			Name:  LogLevelFlag,
			Usage: "set the logging level [trace, debug, info, warn, error, fatal, panic]",
			Value: logrus.InfoLevel.String(),
		},
		&cli.StringFlag{
			Name:  LogFormatFlag,
			Usage: "set the logging format [text, json]",
			Value: textLogFormat,
		},
	}
}

// Before configures logging and loads the generator configuration into the
// command context.
func Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if err := setupLogging(cmd.String(LogLevelFlag), cmd.String(LogFormatFlag)); err != nil {
		return ctx, err
	}
	ctx = log.WithLogger(ctx, log.L)

	cfg, err := config.NewConfigFromToml(cmd.String(ConfigFlag))
	if err != nil {
		return ctx, err
	}
	return ctxutil.WithValue(ctx, ctxutil.ConfigKey, cfg), nil
}

func setupLogging(level, format string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	logrus.SetLevel(lvl)

	switch format {
	case textLogFormat:
		logrus.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: log.RFC3339NanoFixed,
			FullTimestamp:   true,
		})
	case jsonLogFormat:
		logrus.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: log.RFC3339NanoFixed,
		})
	default:
		return fmt.Errorf("unknown log format %q", format)
	}
	return nil
}
