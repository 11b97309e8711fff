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
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/tomoncle/tuplestore/types"
	"github.com/tomoncle/tuplestore/utils"
	"gopkg.in/yaml.v3"
)

// Config describes how to reach the storage backend.
type Config struct {
	BaseURL   string            `yaml:"base_url" json:"base_url"`
	FileURL   string            `yaml:"file_url" json:"file_url"` // defaults to BaseURL + "/file"
	Timeout   time.Duration     `yaml:"timeout" json:"timeout"`
	Headers   map[string]string `yaml:"headers" json:"headers"`
	LogLevel  string            `yaml:"log_level" json:"log_level"`
	LogFormat string            `yaml:"log_format" json:"log_format"` // text, json
}

// DefaultConfig returns a configuration with sensible defaults and no base
// URL.
func DefaultConfig() *Config {
	return &Config{
		Timeout:   30 * time.Second,
		Headers:   map[string]string{},
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// LoadConfig reads a YAML configuration file on top of DefaultConfig and
// applies environment overrides.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.OverrideFromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// OverrideFromEnv applies STORAGE_URL, STORAGE_FILE_URL, STORAGE_TIMEOUT and
// STORAGE_LOG_LEVEL when set.
func (c *Config) OverrideFromEnv() {
	c.BaseURL = utils.EnvDefaultString("STORAGE_URL", c.BaseURL)
	c.FileURL = utils.EnvDefaultString("STORAGE_FILE_URL", c.FileURL)
	c.Timeout = utils.EnvDefaultDuration("STORAGE_TIMEOUT", c.Timeout)
	c.LogLevel = utils.EnvDefaultString("STORAGE_LOG_LEVEL", c.LogLevel)
}

// Validate checks that the base URL is an absolute http(s) URL.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return types.InvalidArgument("base_url must be provided")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return types.WrapError(err, types.KindInvalidArgument, "base_url is not a valid URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return types.InvalidArgument("base_url must use http or https: %s", c.BaseURL)
	}
	if c.Timeout < 0 {
		return types.InvalidArgument("timeout must not be negative")
	}
	return nil
}

// ResolveFileURL returns FileURL, or the file endpoint under BaseURL.
func (c *Config) ResolveFileURL() string {
	if c.FileURL != "" {
		return c.FileURL
	}
	return strings.TrimRight(c.BaseURL, "/") + FilePath
}
