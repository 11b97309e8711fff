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
	"encoding/json"
	"strconv"
	"strings"

	"github.com/tomoncle/tuplestore/types"
)

// Query parameter names of the storage endpoint.
const (
	ParamPath   = "path"
	ParamOp     = "op"
	ParamLimit  = "limit"
	ParamOffset = "offset"
	ParamFilter = "filter"
	ParamSort   = "sort"
	ParamFields = "fields"
)

// FilePath is the file endpoint relative to the storage base URL.
const FilePath = "/file"

const messagePathMustBeSpecified = "path must be specified"

// Query is a single request to the storage endpoint. It is built per call
// and never retained.
type Query struct {
	Path      string
	Operation types.Operation
	Page      *types.PageRequest
	Filter    types.Filterable
}

// Envelope is the JSON body of create and update requests.
type Envelope struct {
	Op   string      `json:"op"`
	Path string      `json:"path"`
	Data interface{} `json:"data"`
}

// RecordPath returns the path of a single record.
func RecordPath(path string, id int64) string {
	return path + "/" + strconv.FormatInt(id, 10)
}

func checkOperation(q Query) error {
	if strings.TrimSpace(q.Path) == "" {
		return types.InvalidArgument(messagePathMustBeSpecified)
	}
	if q.Operation == types.OperationDelete {
		return types.Unsupported("%s is not offered by the storage backend: %s", q.Operation, q.Path)
	}
	if !q.Operation.IsValid() {
		return types.InvalidArgument("unknown operation %d", int(q.Operation))
	}
	return nil
}

// EncodeURL returns the URL of a get or count query. Page parameters are
// emitted only when a page is given, filter parameters only when non-empty.
// Count queries carry the filter clause alone.
func EncodeURL(baseURL string, q Query) (string, error) {
	if err := checkOperation(q); err != nil {
		return "", err
	}
	if q.Operation.IsWrite() {
		return "", types.InvalidArgument("%s is sent as a request body, not a query", q.Operation)
	}

	var b strings.Builder
	b.WriteString(baseURL)
	switch {
	case !strings.Contains(baseURL, "?"):
		b.WriteByte('?')
	case !strings.HasSuffix(baseURL, "?") && !strings.HasSuffix(baseURL, "&"):
		b.WriteByte('&')
	}

	writeParam(&b, ParamPath, q.Path)
	writeParam(&b, ParamOp, q.Operation.Name())

	if q.Page != nil && q.Operation != types.OperationCount {
		writeParam(&b, ParamLimit, strconv.Itoa(q.Page.GetPageSize()))
		writeParam(&b, ParamOffset, strconv.Itoa(q.Page.GetOffset()))
	}

	if q.Filter != nil {
		if v := q.Filter.GetFilter(); v != "" {
			writeParam(&b, ParamFilter, v)
		}
		if q.Operation != types.OperationCount {
			if v := q.Filter.GetSort(); v != "" {
				writeParam(&b, ParamSort, v)
			}
			if v := q.Filter.GetFields(); v != "" {
				writeParam(&b, ParamFields, v)
			}
		}
	}
	return b.String(), nil
}

// EncodeBody returns the JSON envelope of a create or update request.
// json.RawMessage data is embedded verbatim.
func EncodeBody(q Query, data interface{}) ([]byte, error) {
	if err := checkOperation(q); err != nil {
		return nil, err
	}
	if !q.Operation.IsWrite() {
		return nil, types.InvalidArgument("%s has no request body", q.Operation)
	}
	if data == nil {
		return nil, types.InvalidArgument("entity must be provided")
	}
	encoded, err := json.Marshal(data)
	if err != nil {
		return nil, types.WrapError(err, types.KindInvalidArgument, "entity cannot be encoded as JSON")
	}
	if bytes.Equal(bytes.TrimSpace(encoded), []byte("null")) {
		return nil, types.InvalidArgument("entity must be provided")
	}
	body, err := json.Marshal(Envelope{Op: q.Operation.Name(), Path: q.Path, Data: json.RawMessage(encoded)})
	if err != nil {
		return nil, types.WrapError(err, types.KindInvalidArgument, "entity cannot be encoded as JSON")
	}
	return body, nil
}

func writeParam(b *strings.Builder, name, value string) {
	if last := b.String(); len(last) > 0 {
		if c := last[len(last)-1]; c != '?' && c != '&' {
			b.WriteByte('&')
		}
	}
	b.WriteString(name)
	b.WriteByte('=')
	b.WriteString(escapeQueryValue(value))
}

const upperHex = "0123456789ABCDEF"

// escapeQueryValue percent-encodes only what would change the structure of
// the query string, so the filter language (",", "<", ">", "?", "-") stays
// readable on the wire.
func escapeQueryValue(s string) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if shouldEscape(s[i]) {
			n++
		}
	}
	if n == 0 {
		return s
	}
	out := make([]byte, 0, len(s)+2*n)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if shouldEscape(c) {
			out = append(out, '%', upperHex[c>>4], upperHex[c&15])
			continue
		}
		out = append(out, c)
	}
	return string(out)
}

func shouldEscape(c byte) bool {
	if 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9' {
		return false
	}
	switch c {
	case '-', '_', '.', '~', ',', '<', '>', '?', '!', '*', '(', ')', ':', '/', '@', '$', '\'':
		return false
	}
	return true
}
