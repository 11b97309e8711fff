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

package emulator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tomoncle/tuplestore/client"
	"github.com/tomoncle/tuplestore/metrics"
	"github.com/tomoncle/tuplestore/types"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	operationKey    = "operation"
)

// Server answers the storage wire protocol from a Store.
type Server struct {
	store   *Store
	manager *Manager
	config  ServerConfig
	logger  client.Logger
	engine  *gin.Engine
}

// NewServer builds the HTTP handler. manager may be nil, in which case the
// health endpoint only reports the server as up.
func NewServer(store *Store, manager *Manager, config ServerConfig, logger client.Logger) *Server {
	if logger == nil {
		logger = GetLogger()
	}
	if config.MaxUploadSize <= 0 {
		config.MaxUploadSize = 32 << 20
	}
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}
	s := &Server{store: store, manager: manager, config: config, logger: logger}
	s.engine = s.newRouter()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) newRouter() *gin.Engine {
	r := gin.New()
	r.Use(requestID(), s.accessLog(), gin.Recovery())

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found", "path": c.Request.URL.Path})
	})

	base := "/" + strings.Trim(s.config.BasePath, "/")
	api := r.Group(base)
	{
		api.GET("", s.handleQuery)
		api.POST("", s.handleWrite)
		api.POST(client.FilePath, s.handleUpload)
		api.GET(client.FilePath+"/:uuid", s.handleDownload)
	}
	r.GET("/health", s.handleHealth)
	if s.config.EnableMetrics {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("storage emulator listening", "addr", s.config.Addr, "base_path", s.config.BasePath)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.Request.Header.Get(requestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		operation := c.GetString(operationKey)
		if operation == "" {
			operation = "other"
		}
		metrics.EmulatorRequests.WithLabelValues(operation, strconv.Itoa(status)).Inc()
		s.logger.Debug("request served",
			"request_id", c.GetString(requestIDKey),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"operation", operation,
			"status", status,
			"latency", time.Since(start).Round(time.Microsecond).String(),
		)
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "request_id", c.GetString(requestIDKey), "error", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func (s *Server) handleQuery(c *gin.Context) {
	opName := c.DefaultQuery(client.ParamOp, types.OperationGet.Name())
	c.Set(operationKey, metricLabel(opName))

	path, err := ParseResourcePath(c.Query(client.ParamPath))
	if err != nil {
		s.fail(c, err)
		return
	}
	op, ok := types.ParseOperation(opName)
	if !ok || (op != types.OperationGet && op != types.OperationCount) {
		s.fail(c, badRequest(fmt.Sprintf("unsupported query operation %q", opName)))
		return
	}

	q, err := parseFindQuery(c)
	if err != nil {
		s.fail(c, err)
		return
	}

	ctx := c.Request.Context()
	switch {
	case op == types.OperationCount:
		n, err := s.store.Count(ctx, path, q)
		if err != nil {
			s.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": n})
	case path.HasID:
		doc, err := s.store.Get(ctx, path)
		if err != nil {
			s.fail(c, err)
			return
		}
		if doc == nil {
			c.Data(http.StatusOK, "application/json", []byte("null"))
			return
		}
		c.JSON(http.StatusOK, doc.Project(q.Fields))
	default:
		docs, err := s.store.Find(ctx, path, q)
		if err != nil {
			s.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, docs)
	}
}

// metricLabel bounds the operation label to the known operations.
func metricLabel(op string) string {
	if parsed, ok := types.ParseOperation(op); ok {
		return parsed.Name()
	}
	return "invalid"
}

func parseFindQuery(c *gin.Context) (*FindQuery, error) {
	q := &FindQuery{}
	var err error
	if q.Limit, err = intParam(c, client.ParamLimit); err != nil {
		return nil, err
	}
	if q.Offset, err = intParam(c, client.ParamOffset); err != nil {
		return nil, err
	}
	if q.Filter, err = types.ParseFilter(c.Query(client.ParamFilter)); err != nil {
		return nil, badRequest(err.Error())
	}
	q.Sort = types.ParseSort(c.Query(client.ParamSort))
	q.Fields = types.ParseFields(c.Query(client.ParamFields))
	return q, nil
}

func intParam(c *gin.Context, name string) (int, error) {
	v := c.Query(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, badRequest(fmt.Sprintf("%s must be a non-negative integer", name))
	}
	return n, nil
}

type envelope struct {
	Op   string          `json:"op"`
	Path string          `json:"path"`
	Data json.RawMessage `json:"data"`
}

func (s *Server) handleWrite(c *gin.Context) {
	var env envelope
	if err := c.ShouldBindJSON(&env); err != nil {
		c.Set(operationKey, "invalid")
		s.fail(c, badRequest("request body is not a JSON envelope: "+err.Error()))
		return
	}
	c.Set(operationKey, metricLabel(env.Op))

	path, err := ParseResourcePath(env.Path)
	if err != nil {
		s.fail(c, err)
		return
	}
	op, ok := types.ParseOperation(env.Op)
	if !ok || !op.IsWrite() {
		s.fail(c, badRequest(fmt.Sprintf("unsupported write operation %q", env.Op)))
		return
	}
	docs, err := decodeDocuments(env.Data)
	if err != nil {
		s.fail(c, err)
		return
	}

	ctx := c.Request.Context()
	if op == types.OperationPost {
		ids, err := s.store.Create(ctx, path, docs)
		if err != nil {
			s.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, ids)
		return
	}

	if len(docs) != 1 {
		s.fail(c, badRequest("put expects a single object"))
		return
	}
	n, err := s.store.Update(ctx, path, docs[0])
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": n})
}

// decodeDocuments accepts an object or an array of objects.
func decodeDocuments(data json.RawMessage) ([]types.JsonObject, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, badRequest("data must be provided")
	}
	if trimmed[0] != '[' {
		doc, err := types.DecodeJsonObject(trimmed)
		if err != nil {
			return nil, badRequest("data must be a JSON object: " + err.Error())
		}
		return []types.JsonObject{doc}, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, badRequest("data must be an array of JSON objects: " + err.Error())
	}
	if len(items) == 0 {
		return nil, badRequest("data must not be empty")
	}
	docs := make([]types.JsonObject, 0, len(items))
	for i, item := range items {
		doc, err := types.DecodeJsonObject(item)
		if err != nil {
			return nil, badRequest(fmt.Sprintf("data[%d] must be a JSON object: %v", i, err))
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *Server) handleUpload(c *gin.Context) {
	c.Set(operationKey, "upload")
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.config.MaxUploadSize)

	header, err := c.FormFile("file")
	if err != nil {
		s.fail(c, badRequest("multipart form must contain a file part: "+err.Error()))
		return
	}
	f, err := header.Open()
	if err != nil {
		s.fail(c, err)
		return
	}
	defer func() { _ = f.Close() }()
	data, err := io.ReadAll(f)
	if err != nil {
		s.fail(c, err)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	id, err := s.store.SaveFile(c.Request.Context(), header.Filename, contentType, data)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.logger.Info("file stored", "uuid", id.String(), "name", header.Filename, "size", len(data))
	c.String(http.StatusOK, id.String())
}

func (s *Server) handleDownload(c *gin.Context) {
	c.Set(operationKey, "download")
	id, err := uuid.Parse(c.Param("uuid"))
	if err != nil {
		s.fail(c, badRequest("invalid file id"))
		return
	}
	file, err := s.store.LoadFile(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	if file == nil {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, strings.ReplaceAll(file.Name, `"`, "")))
	c.Header("Content-Length", strconv.Itoa(len(file.Data)))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.Set(operationKey, "health")
	if s.manager == nil {
		c.JSON(http.StatusOK, gin.H{"healthy": true})
		return
	}
	status := s.manager.HealthCheck(c.Request.Context())
	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}
