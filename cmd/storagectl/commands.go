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

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/tomoncle/tuplestore/client"
	"github.com/tomoncle/tuplestore/repository"
	"github.com/tomoncle/tuplestore/types"
	"github.com/urfave/cli/v2"
)

var filterFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "filter",
		Aliases: []string{"f"},
		Usage:   "Filter as property,operator,value triples, e.g. name,ilike,reg,owner,=,7000",
	},
	&cli.StringFlag{
		Name:    "sort",
		Aliases: []string{"s"},
		Usage:   "Comma separated sort properties, prefix with - for descending",
	},
	&cli.StringFlag{
		Name:  "fields",
		Usage: "Comma separated properties to return",
	},
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "storagectl",
		Usage: "Query and modify records of a storage backend",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "url",
				Aliases: []string{"u"},
				Usage:   "Storage backend base URL",
				EnvVars: []string{"STORAGE_URL"},
			},
			&cli.StringFlag{
				Name:    "file-url",
				Usage:   "File endpoint, defaults to <url>/file",
				EnvVars: []string{"STORAGE_FILE_URL"},
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML client configuration",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "warn",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Print one record",
				ArgsUsage: "<path> <id>",
				Action:    getCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "fields", Usage: "Comma separated properties to return"},
				},
			},
			{
				Name:      "find",
				Usage:     "Print the records matching a filter",
				ArgsUsage: "<path>",
				Action:    findCommand,
				Flags: append([]cli.Flag{
					&cli.IntFlag{Name: "page", Usage: "Zero based page number, requires --size"},
					&cli.IntFlag{Name: "size", Usage: "Page size, all matching records when unset"},
				}, filterFlags...),
			},
			{
				Name:      "count",
				Usage:     "Print the number of records matching a filter",
				ArgsUsage: "<path>",
				Action:    countCommand,
				Flags:     filterFlags,
			},
			{
				Name:      "list",
				Usage:     "Print one page of records with the total count",
				ArgsUsage: "<path>",
				Action:    listCommand,
				Flags: append([]cli.Flag{
					&cli.IntFlag{Name: "page", Usage: "Zero based page number"},
					&cli.IntFlag{Name: "size", Usage: "Page size", Value: 20},
				}, filterFlags...),
			},
			{
				Name:      "export",
				Usage:     "Print every record matching a filter, fetching pages in parallel",
				ArgsUsage: "<path>",
				Action:    exportCommand,
				Flags: append([]cli.Flag{
					&cli.IntFlag{Name: "size", Usage: "Records per request", Value: client.DefaultExportPageSize},
					&cli.IntFlag{Name: "workers", Usage: "Concurrent requests", Value: client.DefaultExportWorkers},
				}, filterFlags...),
			},
			{
				Name:      "create",
				Usage:     "Create records from a JSON object or array and print their ids",
				ArgsUsage: "<path>",
				Action:    createCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "data", Aliases: []string{"d"}, Usage: "JSON document, - reads stdin", Required: true},
				},
			},
			{
				Name:      "update",
				Usage:     "Update one record and print the affected count",
				ArgsUsage: "<path> <id>",
				Action:    updateCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "data", Aliases: []string{"d"}, Usage: "JSON document, - reads stdin", Required: true},
				},
			},
			{
				Name:      "upload",
				Usage:     "Upload a file and print its identifier",
				ArgsUsage: "<file>",
				Action:    uploadCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "content-type", Usage: "Content type, guessed from the extension when unset"},
				},
			},
			{
				Name:      "download",
				Usage:     "Download a file",
				ArgsUsage: "<uuid>",
				Action:    downloadCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Output file, stdout when unset"},
				},
			},
		},
	}
}

func loadConfig(c *cli.Context) (*client.Config, error) {
	cfg := client.DefaultConfig()
	if path := c.String("config"); path != "" {
		loaded, err := client.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg.OverrideFromEnv()
	}
	if c.IsSet("url") {
		cfg.BaseURL = c.String("url")
	}
	if c.IsSet("file-url") {
		cfg.FileURL = c.String("file-url")
	}
	if c.IsSet("log-level") || c.String("config") == "" {
		cfg.LogLevel = c.String("log-level")
	}
	return cfg, cfg.Validate()
}

func newClient(c *cli.Context) (*client.StorageClient, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	return client.NewFromConfig(cfg)
}

func filterFrom(c *cli.Context) types.Filterable {
	return types.NewFilterRequest(c.String("filter"), c.String("sort"), c.String("fields"))
}

func pathArg(c *cli.Context) (string, error) {
	if c.NArg() < 1 {
		return "", fmt.Errorf("%s: path argument is required", c.Command.Name)
	}
	return c.Args().Get(0), nil
}

func idArg(c *cli.Context) (int64, error) {
	if c.NArg() < 2 {
		return 0, fmt.Errorf("%s: id argument is required", c.Command.Name)
	}
	id, err := strconv.ParseInt(c.Args().Get(1), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: id must be an integer: %w", c.Command.Name, err)
	}
	return id, nil
}

func printJSON(c *cli.Context, v interface{}) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func readData(c *cli.Context) (json.RawMessage, error) {
	data := []byte(c.String("data"))
	if c.String("data") == "-" {
		var err error
		if data, err = io.ReadAll(c.App.Reader); err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("data is not valid JSON")
	}
	return data, nil
}

func getCommand(c *cli.Context) error {
	path, err := pathArg(c)
	if err != nil {
		return err
	}
	id, err := idArg(c)
	if err != nil {
		return err
	}
	sc, err := newClient(c)
	if err != nil {
		return err
	}
	doc, err := client.Get(c.Context, sc, path, id, client.RawDecoder())
	if err != nil {
		return err
	}
	if doc == nil {
		return printJSON(c, nil)
	}
	if fields := types.ParseFields(c.String("fields")); len(fields) > 0 {
		obj, err := types.DecodeJsonObject(*doc)
		if err != nil {
			return err
		}
		return printJSON(c, obj.Project(fields))
	}
	return printJSON(c, *doc)
}

func findCommand(c *cli.Context) error {
	path, err := pathArg(c)
	if err != nil {
		return err
	}
	var page *types.PageRequest
	if c.IsSet("size") {
		if page, err = types.NewPageRequest(c.Int("page"), c.Int("size")); err != nil {
			return err
		}
	}
	sc, err := newClient(c)
	if err != nil {
		return err
	}
	docs, err := sc.FindRaw(c.Context, path, page, filterFrom(c))
	if err != nil {
		return err
	}
	return printJSON(c, docs)
}

func countCommand(c *cli.Context) error {
	path, err := pathArg(c)
	if err != nil {
		return err
	}
	sc, err := newClient(c)
	if err != nil {
		return err
	}
	n, err := sc.Count(c.Context, path, filterFrom(c))
	if err != nil {
		return err
	}
	return printJSON(c, n)
}

func listCommand(c *cli.Context) error {
	path, err := pathArg(c)
	if err != nil {
		return err
	}
	page, err := types.NewPageRequest(c.Int("page"), c.Int("size"))
	if err != nil {
		return err
	}
	sc, err := newClient(c)
	if err != nil {
		return err
	}
	res, err := client.List(c.Context, sc, path, page, filterFrom(c), client.RawDecoder())
	if err != nil {
		return err
	}
	return printJSON(c, res)
}

func exportCommand(c *cli.Context) error {
	path, err := pathArg(c)
	if err != nil {
		return err
	}
	sc, err := newClient(c)
	if err != nil {
		return err
	}
	opts := client.ExportOptions{PageSize: c.Int("size"), Workers: c.Int("workers")}
	docs, err := client.Export(c.Context, sc, path, filterFrom(c), opts, client.RawDecoder())
	if err != nil {
		return err
	}
	return printJSON(c, docs)
}

func createCommand(c *cli.Context) error {
	path, err := pathArg(c)
	if err != nil {
		return err
	}
	data, err := readData(c)
	if err != nil {
		return err
	}
	sc, err := newClient(c)
	if err != nil {
		return err
	}
	ids, err := sc.Create(c.Context, path, data)
	if err != nil {
		return err
	}
	return printJSON(c, ids)
}

func updateCommand(c *cli.Context) error {
	path, err := pathArg(c)
	if err != nil {
		return err
	}
	id, err := idArg(c)
	if err != nil {
		return err
	}
	data, err := readData(c)
	if err != nil {
		return err
	}
	sc, err := newClient(c)
	if err != nil {
		return err
	}
	n, err := sc.Update(c.Context, path, id, data)
	if err != nil {
		return err
	}
	return printJSON(c, map[string]int64{"ok": n})
}

func newFileRepository(c *cli.Context) (*repository.FileRepository, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	return repository.NewFileRepositoryFromConfig(cfg)
}

func uploadCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("upload: file argument is required")
	}
	name := c.Args().Get(0)
	f, err := os.Open(name)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	contentType := c.String("content-type")
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(name))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	files, err := newFileRepository(c)
	if err != nil {
		return err
	}
	id, err := files.Upload(c.Context, f, filepath.Base(name), contentType)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, id.String())
	return err
}

func downloadCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("download: uuid argument is required")
	}
	id, err := uuid.Parse(c.Args().Get(0))
	if err != nil {
		return fmt.Errorf("download: invalid uuid: %w", err)
	}
	files, err := newFileRepository(c)
	if err != nil {
		return err
	}
	res, err := files.Download(c.Context, id)
	if err != nil {
		return err
	}
	defer func() { _ = res.Close() }()
	if res.Status != http.StatusOK {
		return fmt.Errorf("download: backend answered status %d", res.Status)
	}

	out := c.App.Writer
	if path := c.String("out"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		out = f
	}
	_, err = io.Copy(out, res.Body)
	return err
}
