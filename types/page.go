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

// PageRequest describes a zero-based page of records. It is immutable once
// constructed.
type PageRequest struct {
	pageNumber int
	pageSize   int
}

// NewPageRequest constructs a PageRequest. The page number must not be
// negative and the page size must be positive.
func NewPageRequest(pageNumber int, pageSize int) (*PageRequest, error) {
	if pageNumber < 0 {
		return nil, InvalidArgument("page number must not be negative: %d", pageNumber)
	}
	if pageSize < 1 {
		return nil, InvalidArgument("page size must be positive: %d", pageSize)
	}
	return &PageRequest{pageNumber: pageNumber, pageSize: pageSize}, nil
}

// MustPageRequest is like NewPageRequest but panics on invalid input.
func MustPageRequest(pageNumber int, pageSize int) *PageRequest {
	p, err := NewPageRequest(pageNumber, pageSize)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *PageRequest) GetPageNumber() int {
	return p.pageNumber
}

func (p *PageRequest) GetPageSize() int {
	return p.pageSize
}

// GetOffset returns pageNumber * pageSize.
func (p *PageRequest) GetOffset() int {
	return p.pageNumber * p.pageSize
}

// Next returns the request for the following page.
func (p *PageRequest) Next() *PageRequest {
	return &PageRequest{pageNumber: p.pageNumber + 1, pageSize: p.pageSize}
}

// PagedResponse holds one page of content along with the total number of
// records matching the query. Content is never nil and stays empty unless
// TotalElements is positive.
type PagedResponse[T any] struct {
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	Content       []T   `json:"content"`
}

// NewPagedResponse constructs an empty response for the given page, which
// may be nil for unbounded queries.
func NewPagedResponse[T any](page *PageRequest) *PagedResponse[T] {
	r := &PagedResponse[T]{Content: make([]T, 0)}
	if page != nil {
		r.Page = page.GetPageNumber()
		r.Size = page.GetPageSize()
	}
	return r
}

// TotalPages returns the number of pages of Size needed for TotalElements.
func (r *PagedResponse[T]) TotalPages() int {
	if r.Size < 1 {
		if r.TotalElements > 0 {
			return 1
		}
		return 0
	}
	return int((r.TotalElements + int64(r.Size) - 1) / int64(r.Size))
}

// Map converts the content of a paged response, keeping its metadata.
func Map[T any, R any](r *PagedResponse[T], fn func(T) R) *PagedResponse[R] {
	out := &PagedResponse[R]{
		Page:          r.Page,
		Size:          r.Size,
		TotalElements: r.TotalElements,
		Content:       make([]R, 0, len(r.Content)),
	}
	for _, item := range r.Content {
		out.Content = append(out.Content, fn(item))
	}
	return out
}
