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
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/tomoncle/tuplestore/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"github.com/uptrace/bun/dialect/pgdialect"
)

const idColumn = "r.id"

var propertyPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// queryBuilder translates filter clauses and sort orders into SQL on the
// data column for one dialect. idKey is the property exposing the record id.
type queryBuilder struct {
	dialect dialect.Name
	idKey   string
}

func newQueryBuilder(name dialect.Name, idKey string) *queryBuilder {
	return &queryBuilder{dialect: name, idKey: idKey}
}

func checkProperty(p string) error {
	if !propertyPattern.MatchString(p) {
		return badRequest(fmt.Sprintf("invalid property name %q", p))
	}
	return nil
}

// pathArg is the argument addressing property p inside the document.
func (b *queryBuilder) pathArg(p string) string {
	if b.dialect == dialect.PG {
		return p
	}
	return "$." + p
}

func (b *queryBuilder) jsonExpr() string {
	switch b.dialect {
	case dialect.PG:
		return "(r.data::jsonb -> ?)"
	case dialect.MySQL:
		return "JSON_EXTRACT(r.data, ?)"
	default:
		return "json_extract(r.data, ?)"
	}
}

func (b *queryBuilder) textExpr() string {
	switch b.dialect {
	case dialect.PG:
		return "(r.data::jsonb ->> ?)"
	case dialect.MySQL:
		return "JSON_UNQUOTE(JSON_EXTRACT(r.data, ?))"
	default:
		return "CAST(json_extract(r.data, ?) AS TEXT)"
	}
}

func (b *queryBuilder) numberExpr() string {
	switch b.dialect {
	case dialect.PG:
		return "(r.data::jsonb ->> ?)::numeric"
	case dialect.MySQL:
		return "CAST(JSON_UNQUOTE(JSON_EXTRACT(r.data, ?)) AS DECIMAL(38,10))"
	default:
		return "CAST(json_extract(r.data, ?) AS REAL)"
	}
}

func (b *queryBuilder) nullExpr() string {
	switch b.dialect {
	case dialect.PG:
		return "(r.data::jsonb ->> ?) IS NULL"
	case dialect.MySQL:
		return "COALESCE(JSON_TYPE(JSON_EXTRACT(r.data, ?)), 'NULL') = 'NULL'"
	default:
		return "json_extract(r.data, ?) IS NULL"
	}
}

// ApplyFilter adds one WHERE condition per clause.
func (b *queryBuilder) ApplyFilter(q *bun.SelectQuery, clauses []types.FilterClause) (*bun.SelectQuery, error) {
	for _, c := range clauses {
		expr, args, err := b.condition(c)
		if err != nil {
			return nil, err
		}
		q = q.Where(expr, args...)
	}
	return q, nil
}

// ApplySort orders by the given properties, then by id for stable paging.
func (b *queryBuilder) ApplySort(q *bun.SelectQuery, orders []types.SortOrder) (*bun.SelectQuery, error) {
	for _, o := range orders {
		if err := checkProperty(o.Property); err != nil {
			return nil, err
		}
		direction := " ASC"
		if o.Descending {
			direction = " DESC"
		}
		if o.Property == b.idKey {
			q = q.OrderExpr(idColumn + direction)
			continue
		}
		q = q.OrderExpr(b.jsonExpr()+direction, b.pathArg(o.Property))
	}
	return q.OrderExpr(idColumn + " ASC"), nil
}

func (b *queryBuilder) condition(c types.FilterClause) (string, []interface{}, error) {
	if err := checkProperty(c.Property); err != nil {
		return "", nil, err
	}
	if c.Property == b.idKey {
		return b.idCondition(c)
	}

	p := b.pathArg(c.Property)
	switch c.Operator {
	case types.OpEqual:
		return b.textExpr() + " = ?", []interface{}{p, c.Value}, nil
	case types.OpNotEqual, types.OpNotEqualAlt:
		return b.textExpr() + " <> ?", []interface{}{p, c.Value}, nil
	case types.OpGreater, types.OpLess, types.OpGreaterOrEqual, types.OpLessOrEqual:
		expr, args := b.compare(p, string(c.Operator), c.Value)
		return expr, args, nil
	case types.OpNullOrGreater, types.OpNullOrLessOrEq:
		op := strings.TrimPrefix(string(c.Operator), "null_or_")
		expr, args := b.compare(p, op, c.Value)
		return "(" + b.nullExpr() + " OR " + expr + ")", append([]interface{}{p}, args...), nil
	case types.OpLike:
		return b.textExpr() + " LIKE ?", []interface{}{p, likePattern(c.Value)}, nil
	case types.OpILike:
		return "LOWER(" + b.textExpr() + ") LIKE ?", []interface{}{p, strings.ToLower(likePattern(c.Value))}, nil
	case types.OpIsNull:
		return b.nullExpr(), []interface{}{p}, nil
	case types.OpIsNotNull:
		return "NOT (" + b.nullExpr() + ")", []interface{}{p}, nil
	case types.OpContainsAll:
		if b.dialect != dialect.PG {
			return "", nil, badRequest(fmt.Sprintf("operator ?& is not supported on %s", b.dialect))
		}
		keys := strings.Split(c.Value, "|")
		return "jsonb_exists_all(r.data::jsonb -> ?, ?)", []interface{}{p, pgdialect.Array(keys)}, nil
	}
	return "", nil, badRequest(fmt.Sprintf("unknown filter operator %q", c.Operator))
}

// compare uses a numeric comparison when value is a number and a text
// comparison otherwise.
func (b *queryBuilder) compare(p, op, value string) (string, []interface{}) {
	if n, err := strconv.ParseFloat(value, 64); err == nil {
		return b.numberExpr() + " " + op + " ?", []interface{}{p, n}
	}
	return b.textExpr() + " " + op + " ?", []interface{}{p, value}
}

func (b *queryBuilder) idCondition(c types.FilterClause) (string, []interface{}, error) {
	switch c.Operator {
	case types.OpIsNull:
		return "1 = 0", nil, nil
	case types.OpIsNotNull:
		return "1 = 1", nil, nil
	}
	id, err := strconv.ParseInt(c.Value, 10, 64)
	if err != nil {
		return "", nil, badRequest(fmt.Sprintf("%s must be compared with an integer", c.Property))
	}
	switch c.Operator {
	case types.OpEqual, types.OpGreater, types.OpLess, types.OpGreaterOrEqual, types.OpLessOrEqual:
		return idColumn + " " + string(c.Operator) + " ?", []interface{}{id}, nil
	case types.OpNotEqual, types.OpNotEqualAlt:
		return idColumn + " <> ?", []interface{}{id}, nil
	case types.OpNullOrGreater:
		return idColumn + " > ?", []interface{}{id}, nil
	case types.OpNullOrLessOrEq:
		return idColumn + " <= ?", []interface{}{id}, nil
	}
	return "", nil, badRequest(fmt.Sprintf("operator %s cannot be applied to %s", c.Operator, c.Property))
}

// likePattern matches value as a substring unless it carries its own
// wildcards.
func likePattern(value string) string {
	if strings.Contains(value, "%") {
		return value
	}
	return "%" + value + "%"
}
