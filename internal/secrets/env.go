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

package secrets

import (
	"context"
	"os"

	"github.com/bmatcuk/doublestar/v4"
)

// EnvProvider resolves env:NAME references.
type EnvProvider struct {
	// allowlist holds glob patterns; empty allows every variable.
	allowlist []string
	lookup    func(string) (string, bool)
}

// NewEnvProvider creates an environment provider. When allowlist is non-empty
// only variables matching one of its glob patterns (e.g. "DB_*") resolve.
func NewEnvProvider(allowlist []string) *EnvProvider {
	return &EnvProvider{allowlist: allowlist, lookup: os.LookupEnv}
}

// Scheme returns "env".
func (e *EnvProvider) Scheme() string {
	return "env"
}

// Resolve reads the named environment variable.
func (e *EnvProvider) Resolve(ctx context.Context, reference string) (string, error) {
	if len(e.allowlist) > 0 && !e.isAllowed(reference) {
		return "", &ResolutionError{Reference: "env:" + reference, Reason: "environment variable not in allowlist"}
	}

	value, ok := e.lookup(reference)
	if !ok || value == "" {
		return "", &ResolutionError{Reference: "env:" + reference, Reason: "environment variable not set"}
	}
	return value, nil
}

func (e *EnvProvider) isAllowed(name string) bool {
	for _, pattern := range e.allowlist {
		if ok, err := doublestar.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}
