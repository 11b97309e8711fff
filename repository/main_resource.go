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
	"encoding/json"
	"fmt"

	"github.com/tomoncle/tuplestore/client"
)

const (
	MainResourcePath     = "db/main_resource"
	MainResourceViewPath = "db/main_resource_view"
)

// MainResource holds an information system description as a JSON document.
// The document is passed to and from the backend unchanged.
type MainResource struct {
	JSON json.RawMessage
}

// NewMainResource wraps a JSON document.
func NewMainResource(doc string) *MainResource {
	return &MainResource{JSON: json.RawMessage(doc)}
}

func (m *MainResource) String() string {
	return string(m.JSON)
}

// Unmarshal decodes the document into v.
func (m *MainResource) Unmarshal(v interface{}) error {
	return json.Unmarshal(m.JSON, v)
}

func decodeMainResource(raw json.RawMessage) (MainResource, error) {
	doc := make(json.RawMessage, len(raw))
	copy(doc, raw)
	return MainResource{JSON: doc}, nil
}

func encodeMainResource(m *MainResource) (interface{}, error) {
	if !json.Valid(m.JSON) {
		return nil, fmt.Errorf("main resource is not valid JSON")
	}
	return m.JSON, nil
}

// NewMainResourceRepository returns the repository of main resources. Reads
// of many records go through the main resource view; update is not offered.
func NewMainResourceRepository(c *client.StorageClient) (StorageRepository[MainResource], error) {
	return NewRepository[MainResource](c, MainResourcePath,
		WithListPath[MainResource](MainResourceViewPath),
		WithDecoder[MainResource](decodeMainResource),
		WithEncoder[MainResource](encodeMainResource),
		AppendOnly[MainResource](),
	)
}
