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
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/tomoncle/tuplestore/types"
	"github.com/uptrace/bun"
)

// ResourcePath is a request path split into the stored resource and an
// optional record id.
type ResourcePath struct {
	Base  string
	ID    int64
	HasID bool
}

// ParseResourcePath splits "db/comment/5" into "db/comment" and 5.
func ParseResourcePath(path string) (ResourcePath, error) {
	path = strings.Trim(strings.TrimSpace(path), "/")
	if path == "" {
		return ResourcePath{}, badRequest("path must be specified")
	}
	if i := strings.LastIndex(path, "/"); i > 0 {
		if id, err := strconv.ParseInt(path[i+1:], 10, 64); err == nil {
			return ResourcePath{Base: path[:i], ID: id, HasID: true}, nil
		}
	}
	return ResourcePath{Base: path}, nil
}

// IDKey is the property under which record ids are exposed, e.g. comment_id
// for db/comment.
func (p ResourcePath) IDKey() string {
	return p.Base[strings.LastIndex(p.Base, "/")+1:] + "_id"
}

// FindQuery selects records of one resource.
type FindQuery struct {
	Limit  int
	Offset int
	Filter []types.FilterClause
	Sort   []types.SortOrder
	Fields []string
}

// Store keeps records and files in the backing database.
type Store struct {
	db      *bun.DB
	aliases map[string]string
}

// NewStore returns a store over db. aliases maps view paths onto the
// resource they read.
func NewStore(db *bun.DB, aliases map[string]string) *Store {
	a := make(map[string]string, len(aliases))
	for k, v := range aliases {
		a[strings.Trim(k, "/")] = strings.Trim(v, "/")
	}
	return &Store{db: db, aliases: a}
}

// Migrate creates the tables and the path index when missing.
func (s *Store) Migrate(ctx context.Context) error {
	for _, model := range models() {
		if _, err := s.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	_, err := s.db.NewCreateIndex().
		Model((*Record)(nil)).
		Index("idx_storage_records_path").
		Column("path").
		Exec(ctx)
	if err != nil {
		if _, kind := ClassifySQLError(err); kind != ExistIndexErr {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

func (s *Store) resolve(base string) string {
	if target, ok := s.aliases[base]; ok {
		return target
	}
	return base
}

// idKey names the id property after the resource a view reads.
func (s *Store) idKey(p ResourcePath) string {
	return ResourcePath{Base: s.resolve(p.Base)}.IDKey()
}

func (s *Store) builder(p ResourcePath) *queryBuilder {
	return newQueryBuilder(s.db.Dialect().Name(), s.idKey(p))
}

func (s *Store) selectRecords(p ResourcePath, q *FindQuery, records *[]Record) (*bun.SelectQuery, error) {
	query := s.db.NewSelect().Model(records).Where("r.path = ?", s.resolve(p.Base))
	if q == nil {
		return query, nil
	}
	return s.builder(p).ApplyFilter(query, q.Filter)
}

// Count returns the number of records of p matching the filter of q.
func (s *Store) Count(ctx context.Context, p ResourcePath, q *FindQuery) (int64, error) {
	var records []Record
	query, err := s.selectRecords(p, q, &records)
	if err != nil {
		return 0, err
	}
	n, err := query.Count(ctx)
	return int64(n), err
}

// Find returns the documents of p selected by q.
func (s *Store) Find(ctx context.Context, p ResourcePath, q *FindQuery) ([]types.JsonObject, error) {
	var records []Record
	query, err := s.selectRecords(p, q, &records)
	if err != nil {
		return nil, err
	}
	var sort []types.SortOrder
	var fields []string
	if q != nil {
		sort, fields = q.Sort, q.Fields
		if q.Limit > 0 {
			query = query.Limit(q.Limit)
		}
		if q.Offset > 0 {
			query = query.Offset(q.Offset)
		}
	}
	if query, err = s.builder(p).ApplySort(query, sort); err != nil {
		return nil, err
	}
	if err := query.Scan(ctx); err != nil {
		return nil, err
	}

	out := make([]types.JsonObject, 0, len(records))
	for i := range records {
		out = append(out, s.document(p, &records[i]).Project(fields))
	}
	return out, nil
}

// Get returns the document p.Base/p.ID, or nil when there is none.
func (s *Store) Get(ctx context.Context, p ResourcePath) (types.JsonObject, error) {
	record := new(Record)
	err := s.db.NewSelect().Model(record).
		Where("r.path = ?", s.resolve(p.Base)).
		Where("r.id = ?", p.ID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.document(p, record), nil
}

// Create stores docs under p and returns their ids in order.
func (s *Store) Create(ctx context.Context, p ResourcePath, docs []types.JsonObject) ([]int64, error) {
	if p.HasID {
		return nil, badRequest("post path must not contain a record id")
	}
	if _, ok := s.aliases[p.Base]; ok {
		return nil, badRequest(fmt.Sprintf("%s is read only", p.Base))
	}
	ids := make([]int64, 0, len(docs))
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, doc := range docs {
			delete(doc, p.IDKey())
			record := &Record{Path: p.Base, Data: doc}
			if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
				return err
			}
			ids = append(ids, record.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Update merges patch into the document p.Base/p.ID and returns the number
// of updated records.
func (s *Store) Update(ctx context.Context, p ResourcePath, patch types.JsonObject) (int64, error) {
	if !p.HasID {
		return 0, badRequest("put path must end with a record id")
	}
	if _, ok := s.aliases[p.Base]; ok {
		return 0, badRequest(fmt.Sprintf("%s is read only", p.Base))
	}
	var affected int64
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record := new(Record)
		err := tx.NewSelect().Model(record).
			Where("r.path = ?", p.Base).
			Where("r.id = ?", p.ID).
			Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		delete(patch, p.IDKey())
		record.Data = record.Data.Merge(patch)
		res, err := tx.NewUpdate().Model(record).Column("data").WherePK().Exec(ctx)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	return affected, err
}

func (s *Store) document(p ResourcePath, r *Record) types.JsonObject {
	doc := make(types.JsonObject, len(r.Data)+1)
	for k, v := range r.Data {
		doc[k] = v
	}
	doc[s.idKey(p)] = r.ID
	return doc
}

// SaveFile stores an uploaded file and returns its identifier.
func (s *Store) SaveFile(ctx context.Context, name, contentType string, data []byte) (uuid.UUID, error) {
	id := uuid.New()
	file := &File{
		UUID:        id.String(),
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(data)),
		Data:        data,
	}
	if _, err := s.db.NewInsert().Model(file).Exec(ctx); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// LoadFile returns the file with the given id, or nil when there is none.
func (s *Store) LoadFile(ctx context.Context, id uuid.UUID) (*File, error) {
	file := new(File)
	err := s.db.NewSelect().Model(file).Where("f.uuid = ?", id.String()).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return file, nil
}
