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
	"strings"

	"github.com/tomoncle/tuplestore/client"
	"github.com/tomoncle/tuplestore/types"
)

type options[T any] struct {
	listPath   string
	decode     client.Decoder[T]
	encode     Encoder[T]
	readOnly   bool
	appendOnly bool
}

// Option configures a repository created by NewRepository.
type Option[T any] func(*options[T])

// WithListPath reads List and Find results from a different path, usually a
// view over the base resource.
func WithListPath[T any](path string) Option[T] {
	return func(o *options[T]) { o.listPath = path }
}

// WithDecoder replaces the JSON decoder used for every read.
func WithDecoder[T any](decode client.Decoder[T]) Option[T] {
	return func(o *options[T]) { o.decode = decode }
}

// WithEncoder replaces the entity passed as envelope data on writes.
func WithEncoder[T any](encode Encoder[T]) Option[T] {
	return func(o *options[T]) { o.encode = encode }
}

// ReadOnly rejects Add and Update.
func ReadOnly[T any]() Option[T] {
	return func(o *options[T]) { o.readOnly = true }
}

// AppendOnly rejects Update.
func AppendOnly[T any]() Option[T] {
	return func(o *options[T]) { o.appendOnly = true }
}

type baseRepositoryImpl[T any] struct {
	client *client.StorageClient
	path   string
	opts   options[T]
	logger client.Logger
}

var _ StorageRepository[struct{}] = (*baseRepositoryImpl[struct{}])(nil)

// NewRepository returns a repository for the resource at path.
func NewRepository[T any](c *client.StorageClient, path string, opts ...Option[T]) (StorageRepository[T], error) {
	if c == nil {
		return nil, types.InvalidArgument("storage client must be provided")
	}
	if strings.TrimSpace(path) == "" {
		return nil, types.InvalidArgument("path must be specified")
	}
	r := &baseRepositoryImpl[T]{client: c, path: path, logger: client.GetLogger()}
	for _, opt := range opts {
		opt(&r.opts)
	}
	if r.opts.listPath == "" {
		r.opts.listPath = path
	}
	if r.opts.decode == nil {
		r.opts.decode = client.JSONDecoder[T]()
	}
	return r, nil
}

func (r *baseRepositoryImpl[T]) Add(ctx context.Context, entity *T) ([]int64, error) {
	if r.opts.readOnly {
		return nil, types.Unsupported("add is not supported for %s", r.path)
	}
	data, err := r.data(entity)
	if err != nil {
		return nil, err
	}
	return r.client.Create(ctx, r.path, data)
}

func (r *baseRepositoryImpl[T]) Get(ctx context.Context, id int64) (*T, error) {
	return client.Get(ctx, r.client, r.path, id, r.opts.decode)
}

func (r *baseRepositoryImpl[T]) Update(ctx context.Context, id int64, entity *T) error {
	if r.opts.readOnly || r.opts.appendOnly {
		return types.Unsupported("update is not supported for %s", r.path)
	}
	data, err := r.data(entity)
	if err != nil {
		return err
	}
	n, err := r.client.Update(ctx, r.path, id, data)
	if err != nil {
		return err
	}
	r.logger.Debug("record updated", "path", client.RecordPath(r.path, id), "affected", n)
	return nil
}

func (r *baseRepositoryImpl[T]) Remove(_ context.Context, id int64) error {
	return types.Unsupported("remove is not supported for %s", client.RecordPath(r.path, id))
}

func (r *baseRepositoryImpl[T]) List(ctx context.Context, page *types.PageRequest, filter types.Filterable) (*types.PagedResponse[T], error) {
	return client.List(ctx, r.client, r.opts.listPath, page, filter, r.opts.decode)
}

func (r *baseRepositoryImpl[T]) Find(ctx context.Context, filter types.Filterable) ([]T, error) {
	return client.Find(ctx, r.client, r.opts.listPath, nil, filter, r.opts.decode)
}

func (r *baseRepositoryImpl[T]) Count(ctx context.Context, filter types.Filterable) (int64, error) {
	return r.client.Count(ctx, r.opts.listPath, filter)
}

func (r *baseRepositoryImpl[T]) data(entity *T) (interface{}, error) {
	if entity == nil {
		return nil, types.InvalidArgument("entity must be provided")
	}
	if r.opts.encode == nil {
		return entity, nil
	}
	data, err := r.opts.encode(entity)
	if err != nil {
		return nil, types.WrapError(err, types.KindInvalidArgument, "entity cannot be encoded")
	}
	return data, nil
}
