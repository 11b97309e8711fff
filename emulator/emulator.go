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
	"context"
	"fmt"
)

// Emulator wires a database manager, a store and an HTTP server from one
// configuration.
type Emulator struct {
	Manager *Manager
	Store   *Store
	Server  *Server
}

// New connects to the configured database and creates the tables.
func New(ctx context.Context, cfg *Config) (*Emulator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("emulator configuration cannot be empty")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := GetLogger()
	manager := NewManager(cfg.Connection, logger)
	if err := manager.Connect(ctx); err != nil {
		return nil, err
	}
	store := NewStore(manager.DB(), cfg.Server.ViewAliases)
	if err := store.Migrate(ctx); err != nil {
		_ = manager.Disconnect()
		return nil, err
	}
	if cfg.Server.SeedDir != "" {
		if _, err := NewSeeder(store, cfg.Server.SeedDir, logger).Run(ctx); err != nil {
			_ = manager.Disconnect()
			return nil, err
		}
	}
	return &Emulator{
		Manager: manager,
		Store:   store,
		Server:  NewServer(store, manager, cfg.Server, logger),
	}, nil
}

// Run serves until ctx is cancelled.
func (e *Emulator) Run(ctx context.Context) error {
	return e.Server.ListenAndServe(ctx)
}

func (e *Emulator) Close() error {
	return e.Manager.Disconnect()
}
