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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/tuplestore/types"
)

func TestListZeroTotalSkipsFetch(t *testing.T) {
	spy := newSpy(ok(`{"ok":0}`))
	c := newTestClient(t, spy)

	page := types.MustPageRequest(0, 10)
	resp, err := List[system](context.Background(), c, "db/system", page, types.NewFilterRequest("name,ilike,x", "", ""), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, spy.calls())
	assert.Equal(t, types.OperationCount, spy.request(0).Operation)
	assert.Equal(t, int64(0), resp.TotalElements)
	assert.NotNil(t, resp.Content)
	assert.Empty(t, resp.Content)
	assert.Equal(t, 0, resp.Page)
	assert.Equal(t, 10, resp.Size)
}

func TestListFetchesPage(t *testing.T) {
	spy := newSpy(ok(`{"ok":7}`), ok(`[{"system_id":4},{"system_id":5},{"system_id":6}]`))
	c := newTestClient(t, spy)

	page := types.MustPageRequest(1, 3)
	filter := types.NewFilterRequest("owner,=,1", "-name", "name")
	resp, err := List[system](context.Background(), c, "db/system", page, filter, nil)
	require.NoError(t, err)

	require.Equal(t, 2, spy.calls())
	assert.Equal(t, types.OperationCount, spy.request(0).Operation)
	assert.Equal(t, types.OperationGet, spy.request(1).Operation)
	assert.Contains(t, spy.request(1).URL, "offset=3")
	assert.Contains(t, spy.request(1).URL, "sort=-name")

	assert.Equal(t, int64(7), resp.TotalElements)
	assert.LessOrEqual(t, len(resp.Content), page.GetPageSize())
	assert.Equal(t, int64(4), resp.Content[0].ID)
	assert.Equal(t, 3, resp.TotalPages())
}

func TestListBlankPath(t *testing.T) {
	spy := newSpy()
	c := newTestClient(t, spy)

	_, err := List[system](context.Background(), c, "", types.MustPageRequest(0, 1), nil, nil)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
	assert.Equal(t, 0, spy.calls())
}

func TestListPropagatesCountFailure(t *testing.T) {
	spy := newSpy(ok(`{}`))
	c := newTestClient(t, spy)

	_, err := List[system](context.Background(), c, "db/system", nil, nil, nil)
	assert.ErrorIs(t, err, types.ErrProtocolViolation)
	assert.Equal(t, 1, spy.calls())
}

func TestListPropagatesFetchFailure(t *testing.T) {
	spy := newSpy(ok(`{"ok":2}`), &Response{Status: 500, Body: []byte("boom")})
	c := newTestClient(t, spy)

	_, err := List[system](context.Background(), c, "db/system", nil, nil, nil)
	assert.ErrorIs(t, err, types.ErrBackend)
	assert.Equal(t, 2, spy.calls())
}
