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
	"strings"

	"github.com/tomoncle/tuplestore/types"
)

// List counts the records matching filter and, only when there are any,
// fetches the requested page. A zero count never triggers the second
// request. The two calls are not atomic, so len(Content) may disagree with
// TotalElements if the data changes in between.
func List[T any](ctx context.Context, c *StorageClient, path string, page *types.PageRequest, filter types.Filterable, decode Decoder[T]) (*types.PagedResponse[T], error) {
	if strings.TrimSpace(path) == "" {
		return nil, types.InvalidArgument(messagePathMustBeSpecified)
	}

	response := types.NewPagedResponse[T](page)

	total, err := c.Count(ctx, path, filter)
	if err != nil {
		return nil, err
	}
	response.TotalElements = total
	if total == 0 {
		return response, nil
	}

	content, err := Find(ctx, c, path, page, filter, decode)
	if err != nil {
		return nil, err
	}
	response.Content = content
	return response, nil
}
