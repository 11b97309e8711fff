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

// Common illegal/default values used by enums.
const (
	IllegalValue = -1
	IllegalName  = "unknown"
	IllegalDesc  = "unknown"
)

// BaseEnum represents a basic enum contract used by domain types.
type BaseEnum interface {
	IsValid() bool
	Number() int
	String() string
	Desc() string
	Name() string
}

// Operation is the wire-level verb sent to the storage backend as the "op"
// query parameter or envelope field.
type Operation int

const (
	OperationGet Operation = iota
	OperationCount
	OperationPost
	OperationPut
	// OperationDelete is never sent: the backend protocol has no delete and
	// every attempt fails with ErrUnsupportedOperation.
	OperationDelete
)

var _ BaseEnum = OperationGet

var operationNames = [...]string{"get", "count", "post", "put", "delete"}

var operationDescs = [...]string{
	"retrieve records",
	"count records",
	"create records",
	"update a record",
	"remove a record (unsupported)",
}

// ParseOperation returns the operation with the given wire value.
func ParseOperation(s string) (Operation, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range operationNames {
		if name == s {
			return Operation(i), true
		}
	}
	return Operation(IllegalValue), false
}

func (o Operation) IsValid() bool {
	return o >= OperationGet && o <= OperationDelete
}

// IsSupported reports whether the backend accepts the operation.
func (o Operation) IsSupported() bool {
	return o.IsValid() && o != OperationDelete
}

// IsWrite reports whether the operation is sent as a POST envelope.
func (o Operation) IsWrite() bool {
	return o == OperationPost || o == OperationPut
}

func (o Operation) Number() int {
	if !o.IsValid() {
		return IllegalValue
	}
	return int(o)
}

func (o Operation) String() string {
	return o.Name()
}

func (o Operation) Name() string {
	if !o.IsValid() {
		return IllegalName
	}
	return operationNames[o]
}

func (o Operation) Desc() string {
	if !o.IsValid() {
		return IllegalDesc
	}
	return operationDescs[o]
}
