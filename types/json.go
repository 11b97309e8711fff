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
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// JsonObject is a JSON document stored in a single column.
type JsonObject map[string]interface{}

// Value implements driver.Valuer for JsonObject. The document is written as
// text so that dialect JSON functions can read it.
func (j JsonObject) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	b, err := json.Marshal(j)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for JsonObject.
func (j *JsonObject) Scan(value interface{}) error {
	if value == nil {
		*j = make(JsonObject)
		return nil
	}
	data, err := scanBytes(value)
	if err != nil {
		return err
	}
	obj, err := DecodeJsonObject(data)
	if err != nil {
		return err
	}
	*j = obj
	return nil
}

// DecodeJsonObject decodes a JSON object keeping numbers as json.Number, so
// large identifiers survive a round trip unchanged.
func DecodeJsonObject(data []byte) (JsonObject, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var obj JsonObject
	if err := dec.Decode(&obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, errors.New("json value is not an object")
	}
	return obj, nil
}

// Merge copies every key of other into j, replacing existing values.
func (j JsonObject) Merge(other JsonObject) JsonObject {
	for k, v := range other {
		j[k] = v
	}
	return j
}

// Project returns a copy of j restricted to the given keys. An empty key
// list returns j unchanged.
func (j JsonObject) Project(keys []string) JsonObject {
	if len(keys) == 0 {
		return j
	}
	out := make(JsonObject, len(keys))
	for _, k := range keys {
		if v, ok := j[k]; ok {
			out[k] = v
		}
	}
	return out
}

func scanBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, errors.New("type assertion must be []byte or string")
	}
}
