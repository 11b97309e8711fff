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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompositeFilterRequest(t *testing.T) {
	f := NewCompositeFilterRequest().
		AddFilter("name", OpILike, "malis").
		AddFilter("owner", OpEqual, "70001484").
		SortDesc("name").
		WithFields("owner", "name")

	assert.Equal(t, "name,ilike,malis,owner,=,70001484", f.GetFilter())
	assert.Equal(t, "-name", f.GetSort())
	assert.Equal(t, "owner,name", f.GetFields())
	assert.Len(t, f.FilterParameters(), 2)
}

func TestCompositeFilterRequestEmpty(t *testing.T) {
	f := NewCompositeFilterRequest()
	assert.Empty(t, f.GetFilter())
	assert.Empty(t, f.GetSort())
	assert.Empty(t, f.GetFields())

	var _ Filterable = f
	var _ Filterable = &FilterRequest{}
}

func TestFilterOperatorIsValid(t *testing.T) {
	for _, op := range []FilterOperator{"=", ">", "<", ">=", "<=", "!=", "<>", "like", "ilike", "?&", "null_or_>", "null_or_<=", "isnull", "isnotnull"} {
		assert.True(t, op.IsValid(), "operator %q", op)
	}
	assert.False(t, FilterOperator("==").IsValid())
	assert.False(t, FilterOperator("").IsValid())
}

func TestParseFilter(t *testing.T) {
	clauses, err := ParseFilter("name,ilike,malis,owner,=,70001484,deleted,isnull,")
	require.NoError(t, err)
	require.Len(t, clauses, 3)
	assert.Equal(t, FilterClause{Property: "name", Operator: OpILike, Value: "malis"}, clauses[0])
	assert.Equal(t, FilterClause{Property: "owner", Operator: OpEqual, Value: "70001484"}, clauses[1])
	assert.Equal(t, FilterClause{Property: "deleted", Operator: OpIsNull, Value: ""}, clauses[2])

	clauses, err = ParseFilter("")
	require.NoError(t, err)
	assert.Empty(t, clauses)
}

func TestParseFilterRejectsMalformed(t *testing.T) {
	for _, filter := range []string{"name,ilike", "name,~,x", ",=,x"} {
		_, err := ParseFilter(filter)
		require.Error(t, err, filter)
		assert.True(t, errors.Is(err, ErrInvalidArgument))
	}
}

func TestParseSortAndFields(t *testing.T) {
	assert.Equal(t, []SortOrder{{Property: "name", Descending: true}, {Property: "owner"}}, ParseSort("-name,owner"))
	assert.Empty(t, ParseSort(""))
	assert.Equal(t, []string{"owner", "name"}, ParseFields("owner, name,"))
}
