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

package shared

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tombee/sqlguard/internal/sqlexec"
	pkgerrors "github.com/tombee/sqlguard/pkg/errors"
)

// Exit codes
const (
	ExitSuccess         = 0
	ExitFailure         = 1 // database fault or anything unclassified
	ExitInvalidInput    = 2
	ExitPolicyViolation = 3
	ExitConfigError     = 4
)

// ExitError is an error that carries an exit code
type ExitError struct {
	Code    int
	Message string
	Cause   error
}

func (e *ExitError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Cause
}

// NewInvalidInputError creates an error for rejected input.
func NewInvalidInputError(msg string, cause error) *ExitError {
	return &ExitError{Code: ExitInvalidInput, Message: msg, Cause: cause}
}

// NewConfigError creates an error for configuration problems.
func NewConfigError(msg string, cause error) *ExitError {
	return &ExitError{Code: ExitConfigError, Message: msg, Cause: cause}
}

// ExitCodeFor maps err to an exit code. Explicit ExitErrors win, then the
// execution error kind, then the pkg/errors classification.
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	switch sqlexec.KindOf(err) {
	case sqlexec.ErrorKindInvalidInput:
		return ExitInvalidInput
	case sqlexec.ErrorKindPolicy:
		return ExitPolicyViolation
	case sqlexec.ErrorKindDatabase:
		return ExitFailure
	}

	switch pkgerrors.TypeOf(err) {
	case "validation", "not_found":
		return ExitInvalidInput
	case "config":
		return ExitConfigError
	default:
		return ExitFailure
	}
}

// HandleExitError reports err from command and exits with the matching code.
func HandleExitError(command string, err error) {
	if err == nil {
		return
	}
	os.Exit(ReportError(os.Stdout, os.Stderr, command, err))
}

// ReportError writes err as a JSON envelope to stdout when --json is set, or
// as text plus suggestion to stderr otherwise, and returns the exit code.
func ReportError(stdout, stderr io.Writer, command string, err error) int {
	code := ExitCodeFor(err)

	if GetJSON() {
		jsonErr := JSONError{
			Code:    ErrorCodeFor(err),
			Message: err.Error(),
		}
		if uve, ok := pkgerrors.UserFacing(err); ok {
			jsonErr.Suggestion = uve.Suggestion()
		}
		_ = EmitJSONErrorTo(stdout, command, []JSONError{jsonErr})
		return code
	}

	fmt.Fprintln(stderr, RenderError("Error: "+err.Error()))
	printUserVisibleSuggestion(stderr, err)
	return code
}

// printUserVisibleSuggestion prints the suggestion of the first user-visible
// error in the chain.
func printUserVisibleSuggestion(w io.Writer, err error) {
	if uve, ok := pkgerrors.UserFacing(err); ok {
		if suggestion := uve.Suggestion(); suggestion != "" {
			fmt.Fprintf(w, "\nSuggestion: %s\n", suggestion)
		}
	}
}
