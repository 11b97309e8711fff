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

package client

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/tuplestore/types"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "storage.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
base_url: http://storage.local/api
timeout: 5s
headers:
  X-Tenant: t1
log_level: debug
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "http://storage.local/api", cfg.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, "t1", cfg.Headers["X-Tenant"])
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "http://storage.local/api/file", cfg.ResolveFileURL())
}

func TestLoadConfigEnvOverride(t *testing.T) {
	path := writeConfig(t, "base_url: http://storage.local/api\n")
	t.Setenv("STORAGE_URL", "https://other.local/api/")
	t.Setenv("STORAGE_TIMEOUT", "7")
	t.Setenv("STORAGE_FILE_URL", "https://files.local/upload")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://other.local/api/", cfg.BaseURL)
	assert.Equal(t, 7*time.Second, cfg.Timeout)
	assert.Equal(t, "https://files.local/upload", cfg.ResolveFileURL())
}

func TestConfigValidate(t *testing.T) {
	for _, base := range []string{"", "ftp://storage.local", "://bad"} {
		cfg := DefaultConfig()
		cfg.BaseURL = base
		assert.ErrorIs(t, cfg.Validate(), types.ErrInvalidArgument, base)
	}

	cfg := DefaultConfig()
	cfg.BaseURL = "http://storage.local"
	cfg.Timeout = -time.Second
	assert.ErrorIs(t, cfg.Validate(), types.ErrInvalidArgument)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
