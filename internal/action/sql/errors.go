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

package sql

import "fmt"

// ErrorType classifies action-level errors. Execution failures are returned
// as *sqlexec.Error and keep their own taxonomy.
type ErrorType string

const (
	// ErrorTypeValidation indicates invalid input parameters.
	ErrorTypeValidation ErrorType = "validation"

	// ErrorTypeType indicates wrong input type.
	ErrorTypeType ErrorType = "type"

	// ErrorTypeNotFound indicates an unknown connection name.
	ErrorTypeNotFound ErrorType = "not_found"

	// ErrorTypeConfig indicates a connection whose secrets cannot be resolved.
	ErrorTypeConfig ErrorType = "config"
)

// OperationError represents an error decoding or preparing an operation.
type OperationError struct {
	Operation  string
	Message    string
	Type       ErrorType
	Cause      error
	Suggestion string
}

// Error implements the error interface.
func (e *OperationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Operation, e.Message)
}

// Unwrap returns the underlying cause.
func (e *OperationError) Unwrap() error {
	return e.Cause
}

// ErrorType returns the classification as a string.
func (e *OperationError) ErrorType() string {
	return string(e.Type)
}

// IsRetryable returns false; input errors are deterministic.
func (e *OperationError) IsRetryable() bool {
	return false
}

func inputError(op, message string, cause error, suggestion string) *OperationError {
	return &OperationError{
		Operation:  op,
		Message:    message,
		Type:       ErrorTypeValidation,
		Cause:      cause,
		Suggestion: suggestion,
	}
}
