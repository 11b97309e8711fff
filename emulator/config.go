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
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/tomoncle/tuplestore/utils"
	"gopkg.in/yaml.v3"
)

const (
	TypeMySQL    = "mysql"
	TypePostgres = "postgres"
	TypeSQLite   = "sqlite"

	sqliteMemory = ":memory:"
)

var supportedTypes = []string{TypeMySQL, TypePostgres, TypeSQLite}

// ConnectionConfig describes how to connect to the backing database and tune
// its pool.
type ConnectionConfig struct {
	Type            string        `yaml:"type"` // postgres, mysql, sqlite
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Username        string        `yaml:"username"`
	Password        string        `yaml:"password"`
	DBName          string        `yaml:"dbname"` // sqlite: file name, ":memory:" or a "file:" URI
	SSLMode         string        `yaml:"sslmode"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	EnableQueryLog  bool          `yaml:"enable_query_log"`
	SlowQueryTime   time.Duration `yaml:"slow_query_time"`
}

// ServerConfig describes the HTTP side of the emulator.
type ServerConfig struct {
	Addr     string `yaml:"addr"`
	BasePath string `yaml:"base_path"`
	Mode     string `yaml:"mode"` // gin mode: debug, release, test
	// ViewAliases maps read-only view paths onto the resource they expose.
	ViewAliases   map[string]string `yaml:"view_aliases"`
	MaxUploadSize int64             `yaml:"max_upload_size"`
	EnableMetrics bool              `yaml:"enable_metrics"`
	// SeedDir holds JSON fixture files loaded at startup.
	SeedDir string `yaml:"seed_dir"`
}

// Config aggregates connection and server settings.
type Config struct {
	Connection ConnectionConfig `yaml:"connection"`
	Server     ServerConfig     `yaml:"server"`
}

// DefaultConnectionConfig returns an in-memory SQLite configuration.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		Type:            TypeSQLite,
		DBName:          sqliteMemory,
		MaxIdleConns:    10,
		MaxOpenConns:    100,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
		ConnectTimeout:  10 * time.Second,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		SlowQueryTime:   2 * time.Second,
	}
}

// DefaultConfig returns an emulator listening on :8080 over in-memory SQLite.
func DefaultConfig() *Config {
	return &Config{
		Connection: DefaultConnectionConfig(),
		Server: ServerConfig{
			Addr:     ":8080",
			BasePath: "/",
			Mode:     "release",
			ViewAliases: map[string]string{
				"db/main_resource_view": "db/main_resource",
			},
			MaxUploadSize: 32 << 20,
			EnableMetrics: true,
		},
	}
}

// LoadConfig reads a YAML file on top of DefaultConfig and applies DB_*
// environment overrides.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}
	cfg.Connection.OverrideFromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// OverrideFromEnv overrides connection values from environment variables.
func (c *ConnectionConfig) OverrideFromEnv() {
	c.Type = utils.EnvDefaultString("DB_TYPE", c.Type)
	c.Host = utils.EnvDefaultString("DB_HOST", c.Host)
	c.Port = utils.EnvDefaultInt("DB_PORT", c.Port)
	c.Username = utils.EnvDefaultString("DB_USERNAME", c.Username)
	c.Password = utils.EnvDefaultString("DB_PASSWORD", c.Password)
	c.DBName = utils.EnvDefaultString("DB_NAME", c.DBName)
	c.SSLMode = utils.EnvDefaultString("DB_SSLMODE", c.SSLMode)
	c.MaxIdleConns = utils.EnvDefaultInt("DB_MAX_IDLE_CONNS", c.MaxIdleConns)
	c.MaxOpenConns = utils.EnvDefaultInt("DB_MAX_OPEN_CONNS", c.MaxOpenConns)
	c.ConnMaxLifetime = utils.EnvDefaultDuration("DB_CONN_MAX_LIFETIME", c.ConnMaxLifetime)
	c.EnableQueryLog = utils.EnvDefaultBool("DB_ENABLE_QUERY_LOG", c.EnableQueryLog)
}

// Validate checks the database type and normalizes its aliases.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Connection.Type) {
	case "mysql":
		c.Connection.Type = TypeMySQL
	case "postgres", "postgresql":
		c.Connection.Type = TypePostgres
	case "sqlite", "sqlite3", "":
		c.Connection.Type = TypeSQLite
	default:
		return fmt.Errorf("unsupported database type: %s, supported types: %v", c.Connection.Type, supportedTypes)
	}
	if c.Connection.Type != TypeSQLite && c.Connection.DBName == "" {
		return fmt.Errorf("dbname must be set for %s", c.Connection.Type)
	}
	if c.Server.BasePath == "" {
		c.Server.BasePath = "/"
	}
	return nil
}
