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

package emulator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/tomoncle/tuplestore/client"
)

const unorderedSeed = 999

var seedOrderPattern = regexp.MustCompile(`^(\d+)_`)

// Seeder loads fixture files into a Store. A fixture file is a JSON array
// of {"path": ..., "data": [...]} entries and may reference environment
// variables as {{.NAME}}. Files run in the order of their numeric prefix,
// e.g. 001_systems.json before 002_comments.json.
type Seeder struct {
	store  *Store
	dir    string
	logger client.Logger
}

// SeedFile describes a fixture file found in the seed directory.
type SeedFile struct {
	Path  string
	Name  string
	Order int
}

// SeedResult is the outcome of loading one fixture file.
type SeedResult struct {
	File     string
	Records  int
	Skipped  int
	Duration time.Duration
}

type seedEntry struct {
	Path string          `json:"path"`
	Data json.RawMessage `json:"data"`
}

func NewSeeder(store *Store, dir string, logger client.Logger) *Seeder {
	if logger == nil {
		logger = GetLogger()
	}
	return &Seeder{store: store, dir: dir, logger: logger}
}

// Run loads every fixture file. Resources that already hold records are
// left untouched, so restarting against a persistent database does not
// duplicate fixtures.
func (s *Seeder) Run(ctx context.Context) ([]SeedResult, error) {
	files, err := s.Files()
	if err != nil {
		return nil, fmt.Errorf("failed to list seed files: %w", err)
	}
	if len(files) == 0 {
		s.logger.Info("no seed files found", "dir", s.dir)
		return nil, nil
	}

	results := make([]SeedResult, 0, len(files))
	for _, file := range files {
		result, err := s.load(ctx, file)
		if err != nil {
			s.logger.Error("seed file failed", "file", file.Path, "error", err)
			return results, fmt.Errorf("seed file %s: %w", file.Name, err)
		}
		s.logger.Info("seed file loaded",
			"file", file.Name,
			"records", result.Records,
			"skipped", result.Skipped,
			"duration", result.Duration.String(),
		)
		results = append(results, result)
	}
	return results, nil
}

// Files returns the fixture files of the seed directory in load order.
func (s *Seeder) Files() ([]SeedFile, error) {
	var files []SeedFile
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".json") {
			return nil
		}
		files = append(files, SeedFile{Path: path, Name: d.Name(), Order: seedOrder(d.Name())})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(files, func(i, j int) bool {
		if files[i].Order != files[j].Order {
			return files[i].Order < files[j].Order
		}
		return files[i].Name < files[j].Name
	})
	return files, nil
}

func seedOrder(name string) int {
	m := seedOrderPattern.FindStringSubmatch(name)
	if len(m) < 2 {
		return unorderedSeed
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return unorderedSeed
	}
	return n
}

func (s *Seeder) load(ctx context.Context, file SeedFile) (SeedResult, error) {
	start := time.Now()
	result := SeedResult{File: file.Path}

	content, err := os.ReadFile(file.Path)
	if err != nil {
		return result, err
	}
	expanded, err := expandEnv(file.Name, content)
	if err != nil {
		return result, err
	}
	var entries []seedEntry
	if err := json.Unmarshal(expanded, &entries); err != nil {
		return result, fmt.Errorf("fixture must be an array of {path, data} entries: %w", err)
	}

	for i, entry := range entries {
		path, err := ParseResourcePath(entry.Path)
		if err != nil {
			return result, fmt.Errorf("entry %d: %w", i, err)
		}
		docs, err := decodeDocuments(entry.Data)
		if err != nil {
			return result, fmt.Errorf("entry %d: %w", i, err)
		}
		existing, err := s.store.Count(ctx, path, nil)
		if err != nil {
			return result, err
		}
		if existing > 0 {
			result.Skipped += len(docs)
			continue
		}
		if _, err := s.store.Create(ctx, path, docs); err != nil {
			return result, fmt.Errorf("entry %d: %w", i, err)
		}
		result.Records += len(docs)
	}
	result.Duration = time.Since(start)
	return result, nil
}

// expandEnv renders content as a template over the process environment.
func expandEnv(name string, content []byte) ([]byte, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	vars := make(map[string]string)
	for _, env := range os.Environ() {
		if k, v, ok := strings.Cut(env, "="); ok {
			vars[k] = v
		}
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.Bytes(), nil
}
