// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sqlexec

import (
	"errors"
	"fmt"
)

// ErrorKind is the failure taxonomy of an execution.
type ErrorKind string

const (
	// ErrorKindInvalidInput means the request was rejected before any
	// connection was opened.
	ErrorKindInvalidInput ErrorKind = "invalid_input"

	// ErrorKindDatabase covers connection, prepare, bind, execute and fetch
	// failures reported by the driver.
	ErrorKindDatabase ErrorKind = "database"

	// ErrorKindPolicy means a configured guard tripped. Update-count
	// violations are detected after execution and nothing is rolled back.
	ErrorKindPolicy ErrorKind = "policy_violation"
)

// Error is returned by every failing Execute call.
type Error struct {
	Kind    ErrorKind
	Op      string
	Message string
	Cause   error
	Hint    string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// ErrorType returns the kind as a string.
func (e *Error) ErrorType() string {
	return string(e.Kind)
}

// IsRetryable is always false: executions are never retried.
func (e *Error) IsRetryable() bool {
	return false
}

// IsUserVisible returns true; every kind is reportable to the caller.
func (e *Error) IsUserVisible() bool {
	return true
}

// UserMessage returns the message without the op prefix.
func (e *Error) UserMessage() string {
	return e.Error()
}

// Suggestion returns the hint, falling back to a per-kind default.
func (e *Error) Suggestion() string {
	if e.Hint != "" {
		return e.Hint
	}
	switch e.Kind {
	case ErrorKindInvalidInput:
		return "Fix the request and try again; no connection was opened"
	case ErrorKindPolicy:
		return "Narrow the statement or raise the configured limit"
	default:
		return ""
	}
}

// UpdateLimitError carries the numbers of an update-count violation.
type UpdateLimitError struct {
	Actual int64
	Limit  int64
}

func (e *UpdateLimitError) Error() string {
	return fmt.Sprintf("%d > %d", e.Actual, e.Limit)
}

func invalidInput(op, message string, cause error) *Error {
	return &Error{Kind: ErrorKindInvalidInput, Op: op, Message: message, Cause: cause}
}

func databaseFault(op, message string, cause error) *Error {
	return &Error{Kind: ErrorKindDatabase, Op: op, Message: message, Cause: cause}
}

func policyViolation(op, message string, cause error) *Error {
	return &Error{Kind: ErrorKindPolicy, Op: op, Message: message, Cause: cause}
}

// KindOf returns the ErrorKind of err, or "" when err is not an *Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsInvalidInput reports whether err is an invalid-input failure.
func IsInvalidInput(err error) bool {
	return KindOf(err) == ErrorKindInvalidInput
}

// IsDatabaseFault reports whether err is a database fault.
func IsDatabaseFault(err error) bool {
	return KindOf(err) == ErrorKindDatabase
}

// IsPolicyViolation reports whether err is a policy violation.
func IsPolicyViolation(err error) bool {
	return KindOf(err) == ErrorKindPolicy
}
