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

package tuplestore

import (
	"context"
	"sync"

	"github.com/tomoncle/tuplestore/client"
	"github.com/tomoncle/tuplestore/repository"
	"github.com/tomoncle/tuplestore/types"
)

var (
	globalClient   *client.StorageClient
	globalClientMu sync.RWMutex
)

// InitClient creates the shared storage client from cfg. It may be called
// again to replace the client; services created earlier keep the client
// they were first bound to.
func InitClient(cfg *client.Config) (*client.StorageClient, error) {
	c, err := client.NewFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	globalClientMu.Lock()
	globalClient = c
	globalClientMu.Unlock()
	client.GetLogger().Info("storage client initialized", "base_url", cfg.BaseURL)
	return c, nil
}

// GetClient returns the shared storage client, or nil before InitClient.
func GetClient() *client.StorageClient {
	globalClientMu.RLock()
	defer globalClientMu.RUnlock()
	return globalClient
}

// CloseClient forgets the shared client and releases idle connections of its
// transport.
func CloseClient() {
	globalClientMu.Lock()
	c := globalClient
	globalClient = nil
	globalClientMu.Unlock()
	if c == nil {
		return
	}
	if e, ok := c.Executor().(interface{ CloseIdleConnections() }); ok {
		e.CloseIdleConnections()
	}
}

type Service[T any] interface {
	// Get returns a single entity by its identifier, or nil if absent.
	Get(ctx context.Context, id int64) (*T, error)

	// Find returns the entities that match the filter.
	Find(ctx context.Context, filter types.Filterable) ([]T, error)

	// List returns one page of entities along with the total count.
	List(ctx context.Context, page *types.PageRequest, filter types.Filterable) (*types.PagedResponse[T], error)

	// Count returns the number of entities matching the filter.
	Count(ctx context.Context, filter types.Filterable) (int64, error)

	// Save inserts a new entity and returns the created identifiers.
	Save(ctx context.Context, model *T) ([]int64, error)

	// Update replaces an existing entity.
	Update(ctx context.Context, id int64, model *T) error

	// Delete is not offered by the storage backend.
	Delete(ctx context.Context, id int64) error
}

type baseServiceImpl[T any] struct {
	path string
	opts []repository.Option[T]

	mu   sync.Mutex
	repo repository.StorageRepository[T]
}

// NewService returns a Service for the resource at path, bound lazily to the
// shared storage client on first use after InitClient.
func NewService[T any](path string, opts ...repository.Option[T]) Service[T] {
	return &baseServiceImpl[T]{path: path, opts: opts}
}

// baseRepo binds the repository to the shared client once one exists.
// Calls made before InitClient fail without binding.
func (s *baseServiceImpl[T]) baseRepo() (repository.StorageRepository[T], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.repo != nil {
		return s.repo, nil
	}
	c := GetClient()
	if c == nil {
		return nil, types.InvalidArgument("storage client is not initialized, call InitClient first")
	}
	repo, err := repository.NewRepository[T](c, s.path, s.opts...)
	if err != nil {
		return nil, err
	}
	s.repo = repo
	return repo, nil
}

func (s *baseServiceImpl[T]) Get(ctx context.Context, id int64) (*T, error) {
	repo, err := s.baseRepo()
	if err != nil {
		return nil, err
	}
	return repo.Get(ctx, id)
}

func (s *baseServiceImpl[T]) Find(ctx context.Context, filter types.Filterable) ([]T, error) {
	repo, err := s.baseRepo()
	if err != nil {
		return nil, err
	}
	return repo.Find(ctx, filter)
}

func (s *baseServiceImpl[T]) List(ctx context.Context, page *types.PageRequest, filter types.Filterable) (*types.PagedResponse[T], error) {
	repo, err := s.baseRepo()
	if err != nil {
		return nil, err
	}
	return repo.List(ctx, page, filter)
}

func (s *baseServiceImpl[T]) Count(ctx context.Context, filter types.Filterable) (int64, error) {
	repo, err := s.baseRepo()
	if err != nil {
		return 0, err
	}
	return repo.Count(ctx, filter)
}

func (s *baseServiceImpl[T]) Save(ctx context.Context, model *T) ([]int64, error) {
	repo, err := s.baseRepo()
	if err != nil {
		return nil, err
	}
	return repo.Add(ctx, model)
}

func (s *baseServiceImpl[T]) Update(ctx context.Context, id int64, model *T) error {
	repo, err := s.baseRepo()
	if err != nil {
		return err
	}
	return repo.Update(ctx, id, model)
}

func (s *baseServiceImpl[T]) Delete(ctx context.Context, id int64) error {
	repo, err := s.baseRepo()
	if err != nil {
		return err
	}
	return repo.Remove(ctx, id)
}
