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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/tomoncle/tuplestore/types"
	"github.com/tomoncle/tuplestore/utils"
)

// StorageClient dispatches operations to the storage backend. It holds only
// immutable configuration and is safe for concurrent use.
type StorageClient struct {
	baseURL  string
	executor Executor
	headers  map[string]string
	logger   Logger
}

// Option configures a StorageClient.
type Option func(*StorageClient)

// WithLogger sets the client logger.
func WithLogger(logger Logger) Option {
	return func(c *StorageClient) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHeaders adds headers sent with every request.
func WithHeaders(headers map[string]string) Option {
	return func(c *StorageClient) {
		for k, v := range headers {
			c.headers[k] = v
		}
	}
}

// New creates a client for the storage endpoint at baseURL.
func New(baseURL string, executor Executor, opts ...Option) (*StorageClient, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, types.InvalidArgument("baseUrl must be provided")
	}
	if executor == nil {
		return nil, types.InvalidArgument("executor must be provided")
	}
	c := &StorageClient{
		baseURL:  baseURL,
		executor: executor,
		headers:  map[string]string{},
		logger:   GetLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewFromConfig creates a client backed by an HTTPExecutor built from cfg.
func NewFromConfig(cfg *Config) (*StorageClient, error) {
	if cfg == nil {
		return nil, types.InvalidArgument("configuration cannot be empty")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.LogFormat != "" {
		utils.ConfigureConsoleLogFormat(cfg.LogFormat)
	}
	if cfg.LogLevel != "" {
		utils.ConfigureLogLevel(cfg.LogLevel)
	}
	logger := GetLogger()
	executor := NewHTTPExecutor(&http.Client{Timeout: cfg.Timeout}, logger)
	return New(cfg.BaseURL, executor, WithHeaders(cfg.Headers), WithLogger(logger))
}

func (c *StorageClient) BaseURL() string {
	return c.baseURL
}

func (c *StorageClient) Executor() Executor {
	return c.executor
}

// Count returns the number of records under path matching the filter
// clause of filter. Sort and fields are ignored.
func (c *StorageClient) Count(ctx context.Context, path string, filter types.Filterable) (int64, error) {
	body, err := c.query(ctx, Query{Path: path, Operation: types.OperationCount, Filter: filter})
	if err != nil {
		return 0, err
	}
	return decodeOK(body, "count")
}

// Create stores entity under path and returns the identifiers of the created
// records. An entity encoding to JSON null, such as a nil pointer, is
// rejected with ErrInvalidArgument before any request is sent.
func (c *StorageClient) Create(ctx context.Context, path string, entity interface{}) ([]int64, error) {
	body, err := c.envelope(ctx, Query{Path: path, Operation: types.OperationPost}, entity)
	if err != nil {
		return nil, err
	}
	var ids []int64
	if err := json.Unmarshal(body, &ids); err != nil {
		return nil, types.ProtocolViolation("create response is not an array of identifiers", err)
	}
	if ids == nil {
		return nil, types.ProtocolViolation("create response is not an array of identifiers", nil)
	}
	return ids, nil
}

// Update replaces the record path/id with entity and returns the number of
// affected records. A nil entity is rejected as in Create.
func (c *StorageClient) Update(ctx context.Context, path string, id int64, entity interface{}) (int64, error) {
	if strings.TrimSpace(path) == "" {
		return 0, types.InvalidArgument(messagePathMustBeSpecified)
	}
	body, err := c.envelope(ctx, Query{Path: RecordPath(path, id), Operation: types.OperationPut}, entity)
	if err != nil {
		return 0, err
	}
	return decodeOK(body, "update")
}

// Delete always fails: the storage backend offers no remove operation.
func (c *StorageClient) Delete(_ context.Context, path string, id int64) error {
	return types.Unsupported("remove is not offered by the storage backend: %s", RecordPath(path, id))
}

// FindRaw returns the records under path as raw JSON elements.
func (c *StorageClient) FindRaw(ctx context.Context, path string, page *types.PageRequest, filter types.Filterable) ([]json.RawMessage, error) {
	body, err := c.query(ctx, Query{Path: path, Operation: types.OperationGet, Page: page, Filter: filter})
	if err != nil {
		return nil, err
	}
	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, types.ProtocolViolation("find response is not a JSON array", err)
	}
	if items == nil {
		items = make([]json.RawMessage, 0)
	}
	return items, nil
}

// GetRaw returns the record path/id as raw JSON, or nil when the backend
// answers with an empty body or null.
func (c *StorageClient) GetRaw(ctx context.Context, path string, id int64) (json.RawMessage, error) {
	if strings.TrimSpace(path) == "" {
		return nil, types.InvalidArgument(messagePathMustBeSpecified)
	}
	body, err := c.query(ctx, Query{Path: RecordPath(path, id), Operation: types.OperationGet})
	if err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if !json.Valid(trimmed) {
		return nil, types.ProtocolViolation("get response is not valid JSON", nil)
	}
	return json.RawMessage(trimmed), nil
}

func (c *StorageClient) query(ctx context.Context, q Query) ([]byte, error) {
	u, err := EncodeURL(c.baseURL, q)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, &Request{Operation: q.Operation, Method: http.MethodGet, URL: u})
}

func (c *StorageClient) envelope(ctx context.Context, q Query, entity interface{}) ([]byte, error) {
	body, err := EncodeBody(q, entity)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, &Request{Operation: q.Operation, Method: http.MethodPost, URL: c.baseURL, Body: body})
}

func (c *StorageClient) do(ctx context.Context, req *Request) ([]byte, error) {
	if len(c.headers) > 0 {
		req.Headers = make(map[string]string, len(c.headers))
		for k, v := range c.headers {
			req.Headers[k] = v
		}
	}
	resp, err := c.executor.Execute(ctx, req)
	if err != nil {
		if types.KindOf(err) != "" {
			return nil, err
		}
		return nil, types.WrapError(err, types.KindTransport, fmt.Sprintf("%s request to storage failed", req.Operation))
	}
	if resp == nil {
		return nil, types.ProtocolViolation("executor returned no response", nil)
	}
	if resp.Status < 200 || resp.Status > 299 {
		c.logger.Warn("storage backend returned error status", "operation", req.Operation.Name(), "status", resp.Status)
		return nil, types.BackendError(resp.Status, string(resp.Body))
	}
	return resp.Body, nil
}

// decodeOK extracts the integer "ok" field of count and update responses.
func decodeOK(body []byte, operation string) (int64, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return 0, types.ProtocolViolation(operation+" response is not a JSON object", err)
	}
	raw, ok := envelope["ok"]
	if !ok {
		return 0, types.ProtocolViolation(operation+" response has no ok field", nil)
	}
	var n *int64
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, types.ProtocolViolation(operation+" response ok field is not an integer", err)
	}
	if n == nil {
		return 0, types.ProtocolViolation(operation+" response ok field is null", nil)
	}
	if *n < 0 {
		return 0, types.ProtocolViolation(fmt.Sprintf("%s response ok field is negative: %d", operation, *n), nil)
	}
	return *n, nil
}
