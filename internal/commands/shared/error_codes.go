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

	"github.com/tombee/sqlguard/internal/sqlexec"
	pkgerrors "github.com/tombee/sqlguard/pkg/errors"
)

// Error codes for structured JSON output
const (
	// Configuration errors (E200-E299)
	ErrorCodeConfigNotFound = "E201" // Config file not found
	ErrorCodeInvalidConfig  = "E202" // Invalid configuration

	// Input errors (E300-E399)
	ErrorCodeInvalidInput = "E302" // Invalid input
	ErrorCodeFileNotFound = "E303" // SQL file not found

	// Execution errors (E400-E499)
	ErrorCodeNotFound        = "E401" // Named resource not found
	ErrorCodeInternal        = "E402" // Internal error
	ErrorCodeExecutionFailed = "E403" // Database fault
	ErrorCodePolicyViolation = "E410" // Policy or limit violation
)

// ErrorCodeFor maps err to a JSON error code.
func ErrorCodeFor(err error) string {
	var notFound *pkgerrors.NotFoundError
	if errors.As(err, &notFound) {
		if notFound.Resource == "file" {
			return ErrorCodeFileNotFound
		}
		return ErrorCodeNotFound
	}

	switch sqlexec.KindOf(err) {
	case sqlexec.ErrorKindInvalidInput:
		return ErrorCodeInvalidInput
	case sqlexec.ErrorKindPolicy:
		return ErrorCodePolicyViolation
	case sqlexec.ErrorKindDatabase:
		return ErrorCodeExecutionFailed
	}

	switch ExitCodeFor(err) {
	case ExitInvalidInput:
		return ErrorCodeInvalidInput
	case ExitPolicyViolation:
		return ErrorCodePolicyViolation
	case ExitConfigError:
		return ErrorCodeInvalidConfig
	default:
		return ErrorCodeInternal
	}
}
