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
	"context"
	"encoding/json"
	"fmt"

	"github.com/tomoncle/tuplestore/types"
)

// Decoder converts one raw JSON record into T. Decoders are supplied per
// call or bound once by a repository.
type Decoder[T any] func(raw json.RawMessage) (T, error)

// JSONDecoder decodes records with encoding/json.
func JSONDecoder[T any]() Decoder[T] {
	return func(raw json.RawMessage) (T, error) {
		var v T
		err := json.Unmarshal(raw, &v)
		return v, err
	}
}

// RawDecoder keeps records as raw JSON.
func RawDecoder() Decoder[json.RawMessage] {
	return func(raw json.RawMessage) (json.RawMessage, error) {
		return raw, nil
	}
}

// Find retrieves the records under path, optionally paged and filtered, and
// decodes each of them.
func Find[T any](ctx context.Context, c *StorageClient, path string, page *types.PageRequest, filter types.Filterable, decode Decoder[T]) ([]T, error) {
	raws, err := c.FindRaw(ctx, path, page, filter)
	if err != nil {
		return nil, err
	}
	return decodeAll(raws, decode)
}

// Get retrieves the record path/id. A missing record yields nil, nil.
func Get[T any](ctx context.Context, c *StorageClient, path string, id int64, decode Decoder[T]) (*T, error) {
	raw, err := c.GetRaw(ctx, path, id)
	if err != nil || raw == nil {
		return nil, err
	}
	if decode == nil {
		decode = JSONDecoder[T]()
	}
	v, err := decode(raw)
	if err != nil {
		return nil, types.ProtocolViolation("cannot decode record "+RecordPath(path, id), err)
	}
	return &v, nil
}

func decodeAll[T any](raws []json.RawMessage, decode Decoder[T]) ([]T, error) {
	if decode == nil {
		decode = JSONDecoder[T]()
	}
	out := make([]T, 0, len(raws))
	for i, raw := range raws {
		v, err := decode(raw)
		if err != nil {
			return nil, types.ProtocolViolation(fmt.Sprintf("cannot decode record %d", i), err)
		}
		out = append(out, v)
	}
	return out, nil
}
