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

import "strings"

// FilterOperator is an operator of the filter mini-language.
//
//	filter        = filter-clause *( "," filter-clause )
//	filter-clause = property-name "," operator "," value
//	sort          = ["-"] property-name
//	fields        = property-name *( "," property-name )
type FilterOperator string

const (
	OpEqual          FilterOperator = "="
	OpGreater        FilterOperator = ">"
	OpLess           FilterOperator = "<"
	OpGreaterOrEqual FilterOperator = ">="
	OpLessOrEqual    FilterOperator = "<="
	OpNotEqual       FilterOperator = "!="
	OpNotEqualAlt    FilterOperator = "<>"
	OpLike           FilterOperator = "like"
	OpILike          FilterOperator = "ilike"
	OpContainsAll    FilterOperator = "?&"
	OpNullOrGreater  FilterOperator = "null_or_>"
	OpNullOrLessOrEq FilterOperator = "null_or_<="
	OpIsNull         FilterOperator = "isnull"
	OpIsNotNull      FilterOperator = "isnotnull"
)

var filterOperators = map[FilterOperator]struct{}{
	OpEqual: {}, OpGreater: {}, OpLess: {}, OpGreaterOrEqual: {}, OpLessOrEqual: {},
	OpNotEqual: {}, OpNotEqualAlt: {}, OpLike: {}, OpILike: {}, OpContainsAll: {},
	OpNullOrGreater: {}, OpNullOrLessOrEq: {}, OpIsNull: {}, OpIsNotNull: {},
}

// IsValid reports whether the operator belongs to the filter language.
func (o FilterOperator) IsValid() bool {
	_, ok := filterOperators[o]
	return ok
}

// Filterable exposes already serialized filter, sort and fields expressions.
// Empty strings mean "not set".
type Filterable interface {
	GetFilter() string
	GetSort() string
	GetFields() string
}

// FilterRequest is the plain Filterable value object.
type FilterRequest struct {
	Filter string `json:"filter,omitempty" yaml:"filter"`
	Sort   string `json:"sort,omitempty" yaml:"sort"`
	Fields string `json:"fields,omitempty" yaml:"fields"`
}

// NewFilterRequest creates a filter request. No validation is performed,
// malformed expressions are reported by the backend.
func NewFilterRequest(filter, sort, fields string) *FilterRequest {
	return &FilterRequest{Filter: filter, Sort: sort, Fields: fields}
}

func (f *FilterRequest) GetFilter() string {
	if f == nil {
		return ""
	}
	return f.Filter
}

func (f *FilterRequest) GetSort() string {
	if f == nil {
		return ""
	}
	return f.Sort
}

func (f *FilterRequest) GetFields() string {
	if f == nil {
		return ""
	}
	return f.Fields
}

// CompositeFilterRequest accumulates filter clauses and sort parameters and
// serializes them by joining with ",".
type CompositeFilterRequest struct {
	filterParameters []string
	sortParameters   []string
	fields           []string
}

// NewCompositeFilterRequest returns an empty composite filter.
func NewCompositeFilterRequest() *CompositeFilterRequest {
	return &CompositeFilterRequest{}
}

// AddFilter appends a property,operator,value clause.
func (c *CompositeFilterRequest) AddFilter(property string, operator FilterOperator, value string) *CompositeFilterRequest {
	return c.AddFilterParameter(property + "," + string(operator) + "," + value)
}

// AddFilterParameter appends an already serialized clause.
func (c *CompositeFilterRequest) AddFilterParameter(filterParameter string) *CompositeFilterRequest {
	c.filterParameters = append(c.filterParameters, filterParameter)
	return c
}

func (c *CompositeFilterRequest) AddFilterParameters(filterParameters []string) *CompositeFilterRequest {
	c.filterParameters = append(c.filterParameters, filterParameters...)
	return c
}

func (c *CompositeFilterRequest) AddSortParameter(sortParameter string) *CompositeFilterRequest {
	c.sortParameters = append(c.sortParameters, sortParameter)
	return c
}

func (c *CompositeFilterRequest) AddSortParameters(sortParameters []string) *CompositeFilterRequest {
	c.sortParameters = append(c.sortParameters, sortParameters...)
	return c
}

// SortAsc orders by property ascending.
func (c *CompositeFilterRequest) SortAsc(property string) *CompositeFilterRequest {
	return c.AddSortParameter(property)
}

// SortDesc orders by property descending.
func (c *CompositeFilterRequest) SortDesc(property string) *CompositeFilterRequest {
	return c.AddSortParameter("-" + property)
}

// WithFields restricts the returned properties.
func (c *CompositeFilterRequest) WithFields(fields ...string) *CompositeFilterRequest {
	c.fields = append(c.fields, fields...)
	return c
}

func (c *CompositeFilterRequest) FilterParameters() []string {
	return c.filterParameters
}

func (c *CompositeFilterRequest) SortParameters() []string {
	return c.sortParameters
}

func (c *CompositeFilterRequest) GetFilter() string {
	if c == nil {
		return ""
	}
	return strings.Join(c.filterParameters, ",")
}

func (c *CompositeFilterRequest) GetSort() string {
	if c == nil {
		return ""
	}
	return strings.Join(c.sortParameters, ",")
}

func (c *CompositeFilterRequest) GetFields() string {
	if c == nil {
		return ""
	}
	return strings.Join(c.fields, ",")
}

// FilterClause is one parsed property,operator,value triple.
type FilterClause struct {
	Property string
	Operator FilterOperator
	Value    string
}

// ParseFilter splits a serialized filter into clauses. The number of
// comma separated tokens must be a multiple of three.
func ParseFilter(filter string) ([]FilterClause, error) {
	if strings.TrimSpace(filter) == "" {
		return nil, nil
	}
	tokens := strings.Split(filter, ",")
	if len(tokens)%3 != 0 {
		return nil, InvalidArgument("filter must consist of property,operator,value triples: %q", filter)
	}
	clauses := make([]FilterClause, 0, len(tokens)/3)
	for i := 0; i < len(tokens); i += 3 {
		op := FilterOperator(tokens[i+1])
		if !op.IsValid() {
			return nil, InvalidArgument("unknown filter operator %q", tokens[i+1])
		}
		if tokens[i] == "" {
			return nil, InvalidArgument("filter clause %d has no property", i/3)
		}
		clauses = append(clauses, FilterClause{Property: tokens[i], Operator: op, Value: tokens[i+2]})
	}
	return clauses, nil
}

// SortOrder is one parsed sort parameter.
type SortOrder struct {
	Property   string
	Descending bool
}

// ParseSort splits a serialized sort expression.
func ParseSort(sort string) []SortOrder {
	var orders []SortOrder
	for _, part := range strings.Split(sort, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.HasPrefix(part, "-") {
			orders = append(orders, SortOrder{Property: part[1:], Descending: true})
			continue
		}
		orders = append(orders, SortOrder{Property: part})
	}
	return orders
}

// ParseFields splits a serialized fields expression.
func ParseFields(fields string) []string {
	var out []string
	for _, f := range strings.Split(fields, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
