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

// Package errors holds the error types and classification interfaces shared
// by the executor, the action layer and the CLI.
package errors

// UserVisibleError is implemented by errors that carry a message and a
// suggestion fit for printing to a CLI user or an agent.
type UserVisibleError interface {
	error

	// IsUserVisible returns true if this error should be shown to users.
	IsUserVisible() bool

	// UserMessage returns a user-friendly error message.
	UserMessage() string

	// Suggestion returns actionable guidance, or "" when there is none.
	Suggestion() string
}

// ErrorClassifier is implemented by errors that can be categorized for exit
// codes, metrics labels and tool error prefixes.
type ErrorClassifier interface {
	error

	// ErrorType returns a string identifying the error category, such as
	// "invalid_input", "database" or "policy_violation".
	ErrorType() string

	// IsRetryable returns true if the operation should be retried.
	IsRetryable() bool
}
