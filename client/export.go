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
	"fmt"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/tomoncle/tuplestore/types"
)

// Defaults applied by Export to zero ExportOptions fields.
const (
	DefaultExportPageSize = 100
	DefaultExportWorkers  = 4
)

// ExportOptions tunes Export. Zero values select the defaults.
type ExportOptions struct {
	PageSize int
	Workers  int
}

// Export fetches every record matching filter. It counts once and then
// retrieves the pages concurrently on a bounded goroutine pool, returning
// the records in page order. The first failure cancels the remaining
// fetches.
func Export[T any](ctx context.Context, c *StorageClient, path string, filter types.Filterable, opts ExportOptions, decode Decoder[T]) ([]T, error) {
	if strings.TrimSpace(path) == "" {
		return nil, types.InvalidArgument(messagePathMustBeSpecified)
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultExportPageSize
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultExportWorkers
	}

	total, err := c.Count(ctx, path, filter)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return make([]T, 0), nil
	}
	pages := int((total + int64(opts.PageSize) - 1) / int64(opts.PageSize))

	pool, err := ants.NewPool(opts.Workers)
	if err != nil {
		return nil, fmt.Errorf("failed to create export pool: %w", err)
	}
	defer pool.Release()

	parent := ctx
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	var (
		wg       sync.WaitGroup
		failOnce sync.Once
		firstErr error
		results  = make([][]T, pages)
	)
	fail := func(err error) {
		failOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for i := 0; i < pages; i++ {
		page := types.MustPageRequest(i, opts.PageSize)
		slot := i
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				fail(types.WrapError(err, types.KindTransport, "export cancelled"))
				return
			}
			items, err := Find(ctx, c, path, page, filter, decode)
			if err != nil {
				fail(err)
				return
			}
			results[slot] = items
		})
		if submitErr != nil {
			wg.Done()
			fail(fmt.Errorf("failed to schedule page %d: %w", slot, submitErr))
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := parent.Err(); err != nil {
		return nil, types.WrapError(err, types.KindTransport, "export cancelled")
	}
	out := make([]T, 0, total)
	for _, items := range results {
		out = append(out, items...)
	}
	return out, nil
}
