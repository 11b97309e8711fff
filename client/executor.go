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
	"io"
	"net/http"
	"time"

	"github.com/tomoncle/tuplestore/metrics"
	"github.com/tomoncle/tuplestore/types"
)

// Request is one HTTP round trip handed to an Executor.
type Request struct {
	Operation types.Operation
	Method    string
	URL       string
	Body      []byte
	Headers   map[string]string
}

// Response is the raw result of a round trip.
type Response struct {
	Status int
	Body   []byte
	Header http.Header
}

// Executor performs HTTP round trips. Implementations own transport
// concerns such as timeouts and connection reuse.
type Executor interface {
	Execute(ctx context.Context, req *Request) (*Response, error)
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, req *Request) (*Response, error)

func (f ExecutorFunc) Execute(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// HTTPExecutor is the net/http Executor. It records metrics and logs every
// round trip at debug level.
type HTTPExecutor struct {
	client *http.Client
	logger Logger
}

var _ Executor = (*HTTPExecutor)(nil)

// NewHTTPExecutor wraps httpClient, or http.DefaultClient when nil.
func NewHTTPExecutor(httpClient *http.Client, logger Logger) *HTTPExecutor {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = GetLogger()
	}
	return &HTTPExecutor{client: httpClient, logger: logger}
}

func (e *HTTPExecutor) Execute(ctx context.Context, req *Request) (*Response, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, types.WrapError(err, types.KindInvalidArgument, "failed to build request")
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := e.client.Do(httpReq)
	if err != nil {
		elapsed := time.Since(start)
		metrics.ObserveRequest(req.Operation.Name(), 0, elapsed)
		e.logger.Warn("storage request failed", "operation", req.Operation.Name(), "url", req.URL, "error", err)
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	elapsed := time.Since(start)
	metrics.ObserveRequest(req.Operation.Name(), resp.StatusCode, elapsed)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("storage request",
		"operation", req.Operation.Name(),
		"method", req.Method,
		"url", req.URL,
		"status", resp.StatusCode,
		"latency", elapsed.Round(time.Microsecond).String(),
	)
	return &Response{Status: resp.StatusCode, Body: data, Header: resp.Header}, nil
}

// CloseIdleConnections closes idle connections of the underlying transport.
func (e *HTTPExecutor) CloseIdleConnections() {
	e.client.CloseIdleConnections()
}
