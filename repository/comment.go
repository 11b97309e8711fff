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
	"github.com/google/uuid"
	"github.com/tomoncle/tuplestore/client"
)

const CommentPath = "db/comment"

// Comment is a remark attached to an information system. CommentParentID is
// set for replies.
type Comment struct {
	CommentID       int64     `json:"comment_id,omitempty"`
	CommentParentID *int64    `json:"comment_parent_id,omitempty"`
	InfosystemUUID  uuid.UUID `json:"infosystem_uuid"`
}

// NewCommentRepository returns the repository of comments. Comments are
// append-only.
func NewCommentRepository(c *client.StorageClient) (StorageRepository[Comment], error) {
	return NewRepository[Comment](c, CommentPath, AppendOnly[Comment]())
}
