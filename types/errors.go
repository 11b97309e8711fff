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
	"fmt"
)

// ErrorKind classifies failures of storage operations.
type ErrorKind string

const (
	KindInvalidArgument      ErrorKind = "INVALID_ARGUMENT"
	KindUnsupportedOperation ErrorKind = "UNSUPPORTED_OPERATION"
	KindTransport            ErrorKind = "TRANSPORT_ERROR"
	KindBackend              ErrorKind = "BACKEND_ERROR"
	KindProtocolViolation    ErrorKind = "PROTOCOL_VIOLATION"
)

// Error is the error type returned by every storage operation. Status and
// Body are only set for KindBackend.
type Error struct {
	Kind    ErrorKind
	Message string
	Status  int
	Body    string
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Kind, e.Message)
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind, so that
// errors.Is(err, ErrBackend) holds for any backend failure.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons.
var (
	ErrInvalidArgument      = &Error{Kind: KindInvalidArgument, Message: "invalid argument"}
	ErrUnsupportedOperation = &Error{Kind: KindUnsupportedOperation, Message: "unsupported operation"}
	ErrTransport            = &Error{Kind: KindTransport, Message: "transport failure"}
	ErrBackend              = &Error{Kind: KindBackend, Message: "backend error"}
	ErrProtocolViolation    = &Error{Kind: KindProtocolViolation, Message: "protocol violation"}
)

// NewError creates an error of the given kind.
func NewError(kind ErrorKind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError wraps err with the given kind. A nil err yields nil.
func WrapError(err error, kind ErrorKind, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Err: err}
}

// InvalidArgument is a shorthand for NewError(KindInvalidArgument, ...).
func InvalidArgument(format string, args ...interface{}) error {
	return NewError(KindInvalidArgument, format, args...)
}

// Unsupported is a shorthand for NewError(KindUnsupportedOperation, ...).
func Unsupported(format string, args ...interface{}) error {
	return NewError(KindUnsupportedOperation, format, args...)
}

// ProtocolViolation wraps a decoding failure, err may be nil.
func ProtocolViolation(message string, err error) error {
	return &Error{Kind: KindProtocolViolation, Message: message, Err: err}
}

// BackendError reports a non-success HTTP status together with the body.
func BackendError(status int, body string) error {
	return &Error{
		Kind:    KindBackend,
		Message: "storage backend rejected request",
		Status:  status,
		Body:    body,
	}
}

// KindOf returns the kind of err, or an empty kind if err is not an *Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
