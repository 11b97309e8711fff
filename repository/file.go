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

package repository

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tomoncle/tuplestore/client"
	"github.com/tomoncle/tuplestore/metrics"
	"github.com/tomoncle/tuplestore/types"
)

const (
	uploadOperation   = "upload"
	downloadOperation = "download"
	filePartName      = "file"
)

// FileResource is the result of a download. Body is nil unless Status is
// 200; callers must close it.
type FileResource struct {
	Status             int
	ContentType        string
	ContentLength      int64
	ContentDisposition string
	Body               io.ReadCloser
}

// Close releases the body, if any.
func (f *FileResource) Close() error {
	if f == nil || f.Body == nil {
		return nil
	}
	return f.Body.Close()
}

// FileRepository uploads and downloads files through the storage file
// endpoint. It does not use the query protocol.
type FileRepository struct {
	httpClient *http.Client
	fileURL    string
	logger     client.Logger
}

// NewFileRepository returns a repository for the file endpoint at fileURL.
func NewFileRepository(httpClient *http.Client, fileURL string) (*FileRepository, error) {
	if strings.TrimSpace(fileURL) == "" {
		return nil, types.InvalidArgument("file url must be provided")
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &FileRepository{
		httpClient: httpClient,
		fileURL:    strings.TrimRight(fileURL, "/"),
		logger:     client.GetLogger(),
	}, nil
}

// NewFileRepositoryFromConfig uses the file endpoint resolved from cfg.
func NewFileRepositoryFromConfig(cfg *client.Config) (*FileRepository, error) {
	if cfg == nil {
		return nil, types.InvalidArgument("configuration cannot be empty")
	}
	return NewFileRepository(&http.Client{Timeout: cfg.Timeout}, cfg.ResolveFileURL())
}

// Upload streams content as the "file" part of a multipart form and returns
// the identifier assigned by the backend.
func (r *FileRepository) Upload(ctx context.Context, content io.Reader, fileName, contentType string) (uuid.UUID, error) {
	if content == nil {
		return uuid.Nil, types.InvalidArgument("uploaded file input stream must be defined")
	}
	if strings.TrimSpace(fileName) == "" {
		return uuid.Nil, types.InvalidArgument("uploaded file name must be defined")
	}
	if strings.TrimSpace(contentType) == "" {
		return uuid.Nil, types.InvalidArgument("uploaded file content type must be defined")
	}

	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)
	go func() {
		err := writeFilePart(form, content, fileName, contentType)
		if err == nil {
			err = form.Close()
		}
		_ = pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.fileURL, pr)
	if err != nil {
		_ = pr.Close()
		return uuid.Nil, types.WrapError(err, types.KindInvalidArgument, "failed to build upload request")
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	status, body, err := r.roundTrip(req, uploadOperation)
	if err != nil {
		return uuid.Nil, err
	}
	if status < 200 || status > 299 {
		return uuid.Nil, types.BackendError(status, string(body))
	}

	id, err := uuid.Parse(strings.Trim(strings.TrimSpace(string(body)), `"`))
	if err != nil {
		return uuid.Nil, types.ProtocolViolation("upload response is not a uuid", err)
	}
	r.logger.Info("file uploaded", "file", fileName, "uuid", id.String())
	return id, nil
}

// Download opens the file with the given identifier. A non-200 answer is
// returned as a FileResource carrying only the status.
func (r *FileRepository) Download(ctx context.Context, id uuid.UUID) (*FileResource, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.fileURL+"/"+id.String(), nil)
	if err != nil {
		return nil, types.WrapError(err, types.KindInvalidArgument, "failed to build download request")
	}

	start := time.Now()
	resp, err := r.httpClient.Do(req)
	if err != nil {
		metrics.ObserveRequest(downloadOperation, 0, time.Since(start))
		return nil, types.WrapError(err, types.KindTransport, "download request to storage failed")
	}
	metrics.ObserveRequest(downloadOperation, resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		r.logger.Warn("file download failed", "uuid", id.String(), "status", resp.StatusCode)
		return &FileResource{Status: resp.StatusCode}, nil
	}

	length := resp.ContentLength
	if v := resp.Header.Get("Content-Length"); length < 0 && v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			length = n
		}
	}
	return &FileResource{
		Status:             resp.StatusCode,
		ContentType:        resp.Header.Get("Content-Type"),
		ContentLength:      length,
		ContentDisposition: resp.Header.Get("Content-Disposition"),
		Body:               resp.Body,
	}, nil
}

func (r *FileRepository) roundTrip(req *http.Request, operation string) (int, []byte, error) {
	start := time.Now()
	resp, err := r.httpClient.Do(req)
	if err != nil {
		metrics.ObserveRequest(operation, 0, time.Since(start))
		return 0, nil, types.WrapError(err, types.KindTransport, operation+" request to storage failed")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	metrics.ObserveRequest(operation, resp.StatusCode, time.Since(start))
	if err != nil {
		return 0, nil, types.WrapError(err, types.KindTransport, operation+" response could not be read")
	}
	return resp.StatusCode, body, nil
}

func writeFilePart(form *multipart.Writer, content io.Reader, fileName, contentType string) error {
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		filePartName, escapeQuotes(fileName)))
	header.Set("Content-Type", contentType)
	part, err := form.CreatePart(header)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, content)
	return err
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
