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

package errors

import (
	"fmt"
	"time"
)

// ValidationError represents a request or policy input that was rejected.
type ValidationError struct {
	// Field identifies which input failed validation
	Field string

	// Message is the human-readable error description
	Message string

	// Hint provides actionable guidance for fixing the error
	Hint string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) ErrorType() string   { return "validation" }
func (e *ValidationError) IsRetryable() bool   { return false }
func (e *ValidationError) IsUserVisible() bool { return true }
func (e *ValidationError) UserMessage() string { return e.Message }
func (e *ValidationError) Suggestion() string  { return e.Hint }

// NotFoundError represents a named resource that does not exist, such as a
// configured connection or a SQL file.
type NotFoundError struct {
	// Resource is the type of resource (e.g., "connection", "secret")
	Resource string

	// ID is the identifier that was not found
	ID string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func (e *NotFoundError) ErrorType() string { return "not_found" }
func (e *NotFoundError) IsRetryable() bool { return false }

// ConfigError represents configuration problems.
type ConfigError struct {
	// Key is the configuration key that has the problem (e.g., "limits.max_rows")
	Key string

	// Reason explains what's wrong with the configuration
	Reason string

	// Cause is the underlying error (e.g., file read error, parse error)
	Cause error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("config error at %s: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("config error: %s", e.Reason)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

func (e *ConfigError) ErrorType() string   { return "config" }
func (e *ConfigError) IsRetryable() bool   { return false }
func (e *ConfigError) IsUserVisible() bool { return true }
func (e *ConfigError) UserMessage() string { return e.Error() }

// Suggestion points at the config file.
func (e *ConfigError) Suggestion() string {
	return "Check your sqlguard config file or run with --config to point at another one"
}

// TimeoutError represents a statement that exceeded its deadline.
type TimeoutError struct {
	// Operation describes what timed out (e.g., "execute")
	Operation string

	// Duration is the deadline that was exceeded
	Duration time.Duration

	// Cause is the underlying error (if any)
	Cause error
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s operation timed out after %v", e.Operation, e.Duration)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *TimeoutError) Unwrap() error {
	return e.Cause
}

func (e *TimeoutError) ErrorType() string { return "timeout" }
func (e *TimeoutError) IsRetryable() bool { return false }
