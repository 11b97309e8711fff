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

package tuplestore

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/tuplestore/client"
	"github.com/tomoncle/tuplestore/repository"
	"github.com/tomoncle/tuplestore/types"
)

type systemConfig struct {
	SystemConfigID int64  `json:"system_config_id,omitempty"`
	ConfigKey      string `json:"config_key"`
	ConfigValue    string `json:"config_value"`
}

func newBackend(t *testing.T, calls *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodPost {
			body, _ := io.ReadAll(r.Body)
			if assert.Contains(t, string(body), `"op":"post"`) {
				_, _ = w.Write([]byte(`[1]`))
			}
			return
		}
		switch r.URL.Query().Get("op") {
		case "count":
			_, _ = w.Write([]byte(`{"ok":1}`))
		default:
			if r.URL.Query().Get("path") == "db/system_config/1" {
				_, _ = w.Write([]byte(`{"system_config_id":1,"config_key":"k","config_value":"v"}`))
				return
			}
			_, _ = w.Write([]byte(`[{"system_config_id":1,"config_key":"k","config_value":"v"}]`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func initTestClient(t *testing.T, baseURL string) {
	t.Helper()
	cfg := client.DefaultConfig()
	cfg.BaseURL = baseURL
	_, err := InitClient(cfg)
	require.NoError(t, err)
	t.Cleanup(CloseClient)
}

func TestService(t *testing.T) {
	var calls int32
	srv := newBackend(t, &calls)
	initTestClient(t, srv.URL)
	require.NotNil(t, GetClient())

	svc := NewService[systemConfig]("db/system_config")
	ctx := context.Background()

	ids, err := svc.Save(ctx, &systemConfig{ConfigKey: "k", ConfigValue: "v"})
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids)

	cfg, err := svc.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "v", cfg.ConfigValue)

	n, err := svc.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	page, err := svc.List(ctx, types.MustPageRequest(0, 10), types.NewFilterRequest("config_key,=,k", "", ""))
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.TotalElements)
	assert.Len(t, page.Content, 1)

	all, err := svc.Find(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	assert.Equal(t, int32(6), atomic.LoadInt32(&calls))

	err = svc.Delete(ctx, 1)
	assert.ErrorIs(t, err, types.ErrUnsupportedOperation)
	assert.Equal(t, int32(6), atomic.LoadInt32(&calls))
}

func TestServiceAppendOnly(t *testing.T) {
	var calls int32
	srv := newBackend(t, &calls)
	initTestClient(t, srv.URL)

	svc := NewService[repository.Comment](repository.CommentPath, repository.AppendOnly[repository.Comment]())
	err := svc.Update(context.Background(), 1, &repository.Comment{})
	assert.ErrorIs(t, err, types.ErrUnsupportedOperation)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestServiceWithoutClient(t *testing.T) {
	CloseClient()
	svc := NewService[systemConfig]("db/system_config")
	_, err := svc.Get(context.Background(), 1)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)

	var calls int32
	srv := newBackend(t, &calls)
	initTestClient(t, srv.URL)

	n, err := svc.Count(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	cfg, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "k", cfg.ConfigKey)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestServiceCountUsesListPath(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Query().Get("path"))
		_, _ = w.Write([]byte(`{"ok":0}`))
	}))
	t.Cleanup(srv.Close)
	initTestClient(t, srv.URL)

	svc := NewService[systemConfig]("db/system_config",
		repository.WithListPath[systemConfig]("db/system_config_view"))
	n, err := svc.Count(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
	assert.Equal(t, []string{"db/system_config_view"}, paths)
}

func TestInitClientValidates(t *testing.T) {
	_, err := InitClient(&client.Config{BaseURL: "storage.local"})
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}
