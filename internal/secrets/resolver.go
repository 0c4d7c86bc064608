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
	"strings"
)

// Resolver dispatches references to the provider registered for their
// scheme. Values without a known scheme are returned unchanged, so literal
// passwords keep working.
type Resolver struct {
	providers map[string]Provider
}

// NewResolver creates a resolver over providers.
func NewResolver(providers ...Provider) *Resolver {
	r := &Resolver{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		r.providers[p.Scheme()] = p
	}
	return r
}

// DefaultResolver resolves env: and keychain: references.
func DefaultResolver() *Resolver {
	return NewResolver(NewEnvProvider(nil), NewKeychainProvider(KeychainService))
}

// Resolve returns the secret for value.
func (r *Resolver) Resolve(ctx context.Context, value string) (string, error) {
	scheme, reference, ok := strings.Cut(value, ":")
	if !ok {
		return value, nil
	}
	provider, found := r.providers[scheme]
	if !found {
		return value, nil
	}
	return provider.Resolve(ctx, reference)
}

// IsReference reports whether value names a registered scheme.
func (r *Resolver) IsReference(value string) bool {
	scheme, _, ok := strings.Cut(value, ":")
	if !ok {
		return false
	}
	_, found := r.providers[scheme]
	return found
}
