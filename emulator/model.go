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
	"github.com/tomoncle/tuplestore/types"
	"github.com/uptrace/bun"
)

// Record is one stored document. Path is the resource path without the
// record id.
type Record struct {
	bun.BaseModel `bun:"table:storage_records,alias:r"`

	ID   int64            `bun:"id,pk,autoincrement"`
	Path string           `bun:"path,type:varchar(255),notnull"`
	Data types.JsonObject `bun:"data,type:text,notnull"`
}

// File is one uploaded file.
type File struct {
	bun.BaseModel `bun:"table:storage_files,alias:f"`

	UUID        string `bun:"uuid,pk,type:varchar(36)"`
	Name        string `bun:"name,notnull"`
	ContentType string `bun:"content_type,notnull"`
	Size        int64  `bun:"size,notnull"`
	Data        []byte `bun:"data"`
}

func models() []interface{} {
	return []interface{}{(*Record)(nil), (*File)(nil)}
}
