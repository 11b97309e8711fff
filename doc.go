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

// Package tuplestore is a client for a generic tuple-store backend reached
// over HTTP. Records are addressed by resource path, queried with a small
// filter language and written through a JSON envelope.
//
// The shared client is created once with InitClient and used by services
// created with NewService:
//
//	cfg := client.DefaultConfig()
//	cfg.BaseURL = "http://storage.local/api"
//	if _, err := tuplestore.InitClient(cfg); err != nil {
//		return err
//	}
//	defer tuplestore.CloseClient()
//
//	comments := tuplestore.NewService[repository.Comment](repository.CommentPath,
//		repository.AppendOnly[repository.Comment]())
//	page, err := comments.List(ctx, types.MustPageRequest(0, 20),
//		types.NewFilterRequest("infosystem_uuid,=,"+id.String(), "-comment_id", ""))
package tuplestore
