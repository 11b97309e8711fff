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

package repository

import (
	"context"

	"github.com/tomoncle/tuplestore/types"
)

// StorageRepository is the contract shared by every resource repository.
type StorageRepository[T any] interface {
	// Add stores entity and returns the identifiers of the created records.
	Add(ctx context.Context, entity *T) ([]int64, error)

	// Get returns the entity with the given id, or nil if there is none.
	Get(ctx context.Context, id int64) (*T, error)

	// Update replaces the entity with the given id.
	Update(ctx context.Context, id int64, entity *T) error

	// Remove is not offered by the storage backend.
	Remove(ctx context.Context, id int64) error

	// List returns one page of entities together with the total count.
	List(ctx context.Context, page *types.PageRequest, filter types.Filterable) (*types.PagedResponse[T], error)

	// Find returns every entity matching filter.
	Find(ctx context.Context, filter types.Filterable) ([]T, error)

	// Count returns the number of entities matching filter, read from the
	// same resource as List and Find.
	Count(ctx context.Context, filter types.Filterable) (int64, error)
}

// Encoder converts an entity into the data of a create or update envelope.
type Encoder[T any] func(entity *T) (interface{}, error)
