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

package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPageRequest(t *testing.T) {
	tests := []struct {
		name       string
		pageNumber int
		pageSize   int
		wantOffset int
		wantErr    bool
	}{
		{name: "first page", pageNumber: 0, pageSize: 10, wantOffset: 0},
		{name: "sixth page of three", pageNumber: 5, pageSize: 3, wantOffset: 15},
		{name: "negative page", pageNumber: -1, pageSize: 10, wantErr: true},
		{name: "zero size", pageNumber: 0, pageSize: 0, wantErr: true},
		{name: "negative size", pageNumber: 2, pageSize: -5, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPageRequest(tt.pageNumber, tt.pageSize)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidArgument))
				assert.Nil(t, p)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.pageNumber, p.GetPageNumber())
			assert.Equal(t, tt.pageSize, p.GetPageSize())
			assert.Equal(t, tt.wantOffset, p.GetOffset())
		})
	}
}

func TestMustPageRequestPanics(t *testing.T) {
	assert.Panics(t, func() { MustPageRequest(0, 0) })
	assert.NotPanics(t, func() { MustPageRequest(1, 1) })
}

func TestPageRequestNext(t *testing.T) {
	p := MustPageRequest(2, 25)
	next := p.Next()
	assert.Equal(t, 3, next.GetPageNumber())
	assert.Equal(t, 75, next.GetOffset())
	assert.Equal(t, 2, p.GetPageNumber(), "original request must not change")
}

func TestNewPagedResponse(t *testing.T) {
	r := NewPagedResponse[string](MustPageRequest(4, 20))
	assert.Equal(t, 4, r.Page)
	assert.Equal(t, 20, r.Size)
	assert.Zero(t, r.TotalElements)
	assert.NotNil(t, r.Content)
	assert.Empty(t, r.Content)

	unbounded := NewPagedResponse[string](nil)
	assert.Zero(t, unbounded.Size)
	assert.NotNil(t, unbounded.Content)
}

func TestPagedResponseTotalPages(t *testing.T) {
	r := &PagedResponse[int]{Size: 10, TotalElements: 0}
	assert.Equal(t, 0, r.TotalPages())

	r.TotalElements = 10
	assert.Equal(t, 1, r.TotalPages())

	r.TotalElements = 11
	assert.Equal(t, 2, r.TotalPages())

	unbounded := &PagedResponse[int]{TotalElements: 42}
	assert.Equal(t, 1, unbounded.TotalPages())
}

func TestMapKeepsMetadata(t *testing.T) {
	r := &PagedResponse[int]{Page: 1, Size: 2, TotalElements: 7, Content: []int{3, 4}}
	out := Map(r, func(i int) string { return string(rune('a' + i)) })
	assert.Equal(t, []string{"d", "e"}, out.Content)
	assert.Equal(t, int64(7), out.TotalElements)
	assert.Equal(t, 1, out.Page)
	assert.Equal(t, 2, out.Size)
}
