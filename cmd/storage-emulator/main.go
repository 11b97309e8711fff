/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Command storage-emulator serves the storage wire protocol from a SQL
// database, for local development and integration tests.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/tomoncle/tuplestore/emulator"
	"github.com/tomoncle/tuplestore/utils"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		_, _ = color.New(color.FgRed).Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newApp() *cli.App {
	configFlags := []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to a YAML emulator configuration",
			EnvVars: []string{"EMULATOR_CONFIG"},
		},
		&cli.StringFlag{
			Name:  "addr",
			Usage: "Listen address, overrides server.addr",
		},
		&cli.StringFlag{
			Name:  "base-path",
			Usage: "Path the query endpoint is served on, overrides server.base_path",
		},
	}
	return &cli.App{
		Name:  "storage-emulator",
		Usage: "Serve the storage query protocol from a SQL database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Log format (text, json)",
				Value: "text",
			},
		},
		Before: func(c *cli.Context) error {
			utils.ConfigureConsoleLogFormat(c.String("log-format"))
			utils.ConfigureLogLevel(c.String("log-level"))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Connect to the database, create the tables and serve requests",
				Action: serveCommand,
				Flags:  configFlags,
			},
			{
				Name:   "config",
				Usage:  "Print the effective configuration",
				Action: configCommand,
				Flags:  configFlags,
			},
		},
	}
}

func loadConfig(c *cli.Context) (*emulator.Config, error) {
	cfg, err := emulator.LoadConfig(c.String("config"))
	if err != nil {
		return nil, err
	}
	if c.IsSet("addr") {
		cfg.Server.Addr = c.String("addr")
	}
	if c.IsSet("base-path") {
		cfg.Server.BasePath = c.String("base-path")
	}
	return cfg, nil
}

func serveCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	emu, err := emulator.New(c.Context, cfg)
	if err != nil {
		return fmt.Errorf("failed to start emulator: %w", err)
	}
	defer func() { _ = emu.Close() }()
	return emu.Run(c.Context)
}

func configCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if cfg.Connection.Password != "" {
		cfg.Connection.Password = "******"
	}
	enc := yaml.NewEncoder(c.App.Writer)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}
