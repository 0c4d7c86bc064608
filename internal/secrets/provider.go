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

// Package secrets resolves connection password references such as
// env:REPORTS_PASSWORD or keychain:reporting-db into their values.
package secrets

import (
	"context"
	"fmt"
	"strings"
)

// Provider resolves references for one scheme.
type Provider interface {
	// Scheme returns the reference prefix handled, without the colon.
	Scheme() string

	// Resolve returns the secret named by reference.
	Resolve(ctx context.Context, reference string) (string, error)
}

// ResolutionError reports a reference that could not be resolved. The secret
// value never appears in it.
type ResolutionError struct {
	Reference string
	Reason    string
	Cause     error
}

func (e *ResolutionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("resolving %s: %s: %v", e.Reference, e.Reason, e.Cause)
	}
	return fmt.Sprintf("resolving %s: %s", e.Reference, e.Reason)
}

func (e *ResolutionError) Unwrap() error { return e.Cause }

func (e *ResolutionError) ErrorType() string   { return "config" }
func (e *ResolutionError) IsRetryable() bool   { return false }
func (e *ResolutionError) IsUserVisible() bool { return true }
func (e *ResolutionError) UserMessage() string { return e.Error() }

func (e *ResolutionError) Suggestion() string {
	if strings.HasPrefix(e.Reference, "keychain:") {
		return "Store the password with 'sqlguard secrets set " + strings.TrimPrefix(e.Reference, "keychain:") + "'"
	}
	return "Export the environment variable before starting sqlguard"
}
