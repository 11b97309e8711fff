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
	"encoding/json"
	"net/http"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/tuplestore/client"
	"github.com/tomoncle/tuplestore/types"
)

type recordingExecutor struct {
	mu       sync.Mutex
	requests []*client.Request
	bodies   []string
}

func (e *recordingExecutor) Execute(_ context.Context, req *client.Request) (*client.Response, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.requests = append(e.requests, req)
	body := `[]`
	if len(e.bodies) > 0 {
		body = e.bodies[0]
		e.bodies = e.bodies[1:]
	}
	return &client.Response{Status: http.StatusOK, Body: []byte(body)}, nil
}

func newRecordingClient(t *testing.T, bodies ...string) (*client.StorageClient, *recordingExecutor) {
	t.Helper()
	exec := &recordingExecutor{bodies: bodies}
	c, err := client.New("http://storage.local/api", exec, client.WithLogger(client.NopLogger()))
	require.NoError(t, err)
	return c, exec
}

type note struct {
	NoteID int64  `json:"note_id,omitempty"`
	Text   string `json:"text"`
}

func TestNewRepositoryValidates(t *testing.T) {
	_, err := NewRepository[note](nil, "db/note")
	assert.ErrorIs(t, err, types.ErrInvalidArgument)

	c, _ := newRecordingClient(t)
	_, err = NewRepository[note](c, " ")
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestRepositoryCrud(t *testing.T) {
	c, exec := newRecordingClient(t, `[9]`, `{"note_id":9,"text":"hi"}`, `{"ok":1}`, `[{"note_id":9,"text":"hi"}]`)
	repo, err := NewRepository[note](c, "db/note")
	require.NoError(t, err)
	ctx := context.Background()

	ids, err := repo.Add(ctx, &note{Text: "hi"})
	require.NoError(t, err)
	assert.Equal(t, []int64{9}, ids)

	n, err := repo.Get(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, "hi", n.Text)

	require.NoError(t, repo.Update(ctx, 9, &note{Text: "bye"}))

	found, err := repo.Find(ctx, types.NewFilterRequest("text,=,hi", "", ""))
	require.NoError(t, err)
	assert.Len(t, found, 1)

	require.Len(t, exec.requests, 4)
	assert.JSONEq(t, `{"op":"put","path":"db/note/9","data":{"text":"bye"}}`, string(exec.requests[2].Body))
	assert.Contains(t, exec.requests[3].URL, "path=db/note&op=get&filter=text,=,hi")
}

func TestRepositoryRejectsNilEntity(t *testing.T) {
	c, exec := newRecordingClient(t)
	repo, err := NewRepository[note](c, "db/note")
	require.NoError(t, err)

	_, err = repo.Add(context.Background(), nil)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
	err = repo.Update(context.Background(), 1, nil)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
	assert.Empty(t, exec.requests)
}

func TestRepositoryRemoveIsUnsupported(t *testing.T) {
	c, exec := newRecordingClient(t)
	repo, err := NewRepository[note](c, "db/note")
	require.NoError(t, err)

	err = repo.Remove(context.Background(), 1)
	assert.ErrorIs(t, err, types.ErrUnsupportedOperation)
	assert.NotErrorIs(t, err, types.ErrBackend)
	assert.Empty(t, exec.requests)
}

func TestRepositoryReadOnly(t *testing.T) {
	c, exec := newRecordingClient(t)
	repo, err := NewRepository[note](c, "db/note", ReadOnly[note]())
	require.NoError(t, err)

	_, err = repo.Add(context.Background(), &note{})
	assert.ErrorIs(t, err, types.ErrUnsupportedOperation)
	err = repo.Update(context.Background(), 1, &note{})
	assert.ErrorIs(t, err, types.ErrUnsupportedOperation)
	assert.Empty(t, exec.requests)
}

func TestRepositoryListUsesListPath(t *testing.T) {
	c, exec := newRecordingClient(t, `{"ok":1}`, `[{"note_id":1}]`)
	repo, err := NewRepository[note](c, "db/note", WithListPath[note]("db/note_view"))
	require.NoError(t, err)

	resp, err := repo.List(context.Background(), types.MustPageRequest(0, 20), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.TotalElements)
	require.Len(t, exec.requests, 2)
	for _, req := range exec.requests {
		assert.Contains(t, req.URL, "path=db/note_view&")
	}
}

func TestRepositoryCountUsesListPath(t *testing.T) {
	c, exec := newRecordingClient(t, `{"ok":7}`)
	repo, err := NewRepository[note](c, "db/note", WithListPath[note]("db/note_view"))
	require.NoError(t, err)

	n, err := repo.Count(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	require.Len(t, exec.requests, 1)
	assert.Contains(t, exec.requests[0].URL, "path=db/note_view&")
	assert.Contains(t, exec.requests[0].URL, "op=count")
}

func TestRepositoryCustomCodec(t *testing.T) {
	c, exec := newRecordingClient(t, `[1]`, `{"note_id":1,"text":"HI"}`)
	repo, err := NewRepository[note](c, "db/note",
		WithEncoder[note](func(n *note) (interface{}, error) {
			return map[string]string{"text": n.Text + "!"}, nil
		}),
		WithDecoder[note](func(raw json.RawMessage) (note, error) {
			return note{Text: "decoded"}, nil
		}),
	)
	require.NoError(t, err)

	_, err = repo.Add(context.Background(), &note{Text: "hi"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"op":"post","path":"db/note","data":{"text":"hi!"}}`, string(exec.requests[0].Body))

	n, err := repo.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "decoded", n.Text)
}

func TestCommentRepository(t *testing.T) {
	infosystem := uuid.MustParse("6f1c7a2e-5b1a-4f6e-9a57-0f1c2b3d4e5f")
	c, exec := newRecordingClient(t, `[3]`, `[{"comment_id":3,"comment_parent_id":1,"infosystem_uuid":"6f1c7a2e-5b1a-4f6e-9a57-0f1c2b3d4e5f"}]`)
	repo, err := NewCommentRepository(c)
	require.NoError(t, err)
	ctx := context.Background()

	ids, err := repo.Add(ctx, &Comment{InfosystemUUID: infosystem})
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, ids)
	assert.JSONEq(t, `{"op":"post","path":"db/comment","data":{"infosystem_uuid":"6f1c7a2e-5b1a-4f6e-9a57-0f1c2b3d4e5f"}}`,
		string(exec.requests[0].Body))

	comments, err := repo.Find(ctx, types.NewCompositeFilterRequest().AddFilter("infosystem_uuid", types.OpEqual, infosystem.String()))
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, int64(3), comments[0].CommentID)
	require.NotNil(t, comments[0].CommentParentID)
	assert.Equal(t, int64(1), *comments[0].CommentParentID)
	assert.Equal(t, infosystem, comments[0].InfosystemUUID)

	assert.ErrorIs(t, repo.Update(ctx, 3, &Comment{}), types.ErrUnsupportedOperation)
	assert.ErrorIs(t, repo.Remove(ctx, 3), types.ErrUnsupportedOperation)
	assert.Len(t, exec.requests, 2)
}

func TestMainResourceRepository(t *testing.T) {
	c, exec := newRecordingClient(t,
		`[5]`,
		`{"main_resource_id":5,"name":"system"}`,
		`{"ok":1}`,
		`[{"main_resource_id":5,"name":"system"}]`,
		`null`,
	)
	repo, err := NewMainResourceRepository(c)
	require.NoError(t, err)
	ctx := context.Background()

	ids, err := repo.Add(ctx, NewMainResource(`{"name":"system"}`))
	require.NoError(t, err)
	assert.Equal(t, []int64{5}, ids)
	assert.JSONEq(t, `{"op":"post","path":"db/main_resource","data":{"name":"system"}}`, string(exec.requests[0].Body))

	m, err := repo.Get(ctx, 5)
	require.NoError(t, err)
	assert.JSONEq(t, `{"main_resource_id":5,"name":"system"}`, m.String())
	assert.Contains(t, exec.requests[1].URL, "path=db/main_resource/5&")

	page, err := repo.List(ctx, types.MustPageRequest(0, 10), nil)
	require.NoError(t, err)
	require.Len(t, page.Content, 1)
	var doc struct {
		Name string `json:"name"`
	}
	require.NoError(t, page.Content[0].Unmarshal(&doc))
	assert.Equal(t, "system", doc.Name)
	assert.Contains(t, exec.requests[2].URL, "path=db/main_resource_view&")
	assert.Contains(t, exec.requests[3].URL, "path=db/main_resource_view&")

	absent, err := repo.Get(ctx, 6)
	require.NoError(t, err)
	assert.Nil(t, absent)

	_, err = repo.Add(ctx, NewMainResource(`{broken`))
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
	assert.ErrorIs(t, repo.Update(ctx, 5, NewMainResource(`{}`)), types.ErrUnsupportedOperation)
	assert.ErrorIs(t, repo.Remove(ctx, 5), types.ErrUnsupportedOperation)
	assert.Len(t, exec.requests, 5)
}
