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
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/tuplestore/types"
)

// pagingExecutor serves count and paged finds over n sequential records.
func pagingExecutor(n int, failOffset int, calls *int32) Executor {
	return ExecutorFunc(func(_ context.Context, req *Request) (*Response, error) {
		atomic.AddInt32(calls, 1)
		u, err := url.Parse(req.URL)
		if err != nil {
			return nil, err
		}
		q := u.Query()
		if q.Get("op") == "count" {
			return ok(fmt.Sprintf(`{"ok":%d}`, n)), nil
		}
		limit, _ := strconv.Atoi(q.Get("limit"))
		offset, _ := strconv.Atoi(q.Get("offset"))
		if offset == failOffset {
			return &Response{Status: http.StatusInternalServerError, Body: []byte("page failed")}, nil
		}
		body := "["
		for i := offset; i < offset+limit && i < n; i++ {
			if i > offset {
				body += ","
			}
			body += fmt.Sprintf(`{"system_id":%d}`, i)
		}
		return ok(body + "]"), nil
	})
}

func TestExportKeepsPageOrder(t *testing.T) {
	var calls int32
	c := newTestClient(t, pagingExecutor(23, -1, &calls))

	items, err := Export[system](context.Background(), c, "db/system", nil, ExportOptions{PageSize: 5, Workers: 3}, nil)
	require.NoError(t, err)
	require.Len(t, items, 23)
	for i, item := range items {
		assert.Equal(t, int64(i), item.ID)
	}
	assert.Equal(t, int32(1+5), atomic.LoadInt32(&calls))
}

func TestExportEmpty(t *testing.T) {
	var calls int32
	c := newTestClient(t, pagingExecutor(0, -1, &calls))

	items, err := Export[system](context.Background(), c, "db/system", nil, ExportOptions{}, nil)
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestExportDefaults(t *testing.T) {
	var calls int32
	c := newTestClient(t, pagingExecutor(250, -1, &calls))

	items, err := Export[system](context.Background(), c, "db/system", nil, ExportOptions{}, nil)
	require.NoError(t, err)
	assert.Len(t, items, 250)
	assert.Equal(t, int32(1+3), atomic.LoadInt32(&calls))
}

func TestExportFailure(t *testing.T) {
	var calls int32
	c := newTestClient(t, pagingExecutor(20, 10, &calls))

	_, err := Export[system](context.Background(), c, "db/system", nil, ExportOptions{PageSize: 5, Workers: 1}, nil)
	assert.ErrorIs(t, err, types.ErrBackend)
}

func TestExportBlankPath(t *testing.T) {
	var calls int32
	c := newTestClient(t, pagingExecutor(1, -1, &calls))

	_, err := Export[system](context.Background(), c, "", nil, ExportOptions{}, nil)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestExportCancelledAfterCount(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var calls int32
	inner := pagingExecutor(250, -1, &calls)
	exec := ExecutorFunc(func(ctx context.Context, req *Request) (*Response, error) {
		resp, err := inner.Execute(ctx, req)
		if req.Operation == types.OperationCount {
			cancel()
		}
		return resp, err
	})
	c := newTestClient(t, exec)

	items, err := Export[system](ctx, c, "db/system", nil, ExportOptions{PageSize: 100, Workers: 2}, nil)
	require.Error(t, err)
	assert.Nil(t, items)
	assert.ErrorIs(t, err, types.ErrTransport)
	assert.ErrorIs(t, err, context.Canceled)
}
