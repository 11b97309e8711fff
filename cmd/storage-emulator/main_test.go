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
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/tuplestore/emulator"
	"gopkg.in/yaml.v3"
)

func runApp(args ...string) (string, error) {
	app := newApp()
	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = io.Discard
	err := app.RunContext(context.Background(), append([]string{"storage-emulator"}, args...))
	return out.String(), err
}

func TestConfigCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "emulator.yaml")
	content := `
connection:
  type: mysql
  host: db.local
  dbname: storage
  password: secret
server:
  addr: ":9000"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	out, err := runApp("config", "--config", path, "--addr", ":9100", "--base-path", "/api")
	require.NoError(t, err)

	var cfg emulator.Config
	require.NoError(t, yaml.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, emulator.TypeMySQL, cfg.Connection.Type)
	assert.Equal(t, "db.local", cfg.Connection.Host)
	assert.Equal(t, "******", cfg.Connection.Password)
	assert.Equal(t, ":9100", cfg.Server.Addr)
	assert.Equal(t, "/api", cfg.Server.BasePath)
}

func TestServeRejectsInvalidConfig(t *testing.T) {
	t.Setenv("DB_TYPE", "oracle")
	_, err := runApp("serve")
	assert.ErrorContains(t, err, "unsupported database type")
}
