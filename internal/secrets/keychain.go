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
	"errors"

	"github.com/zalando/go-keyring"
)

// KeychainService is the service name sqlguard entries are stored under.
const KeychainService = "sqlguard"

// KeychainProvider resolves keychain:NAME references from the system
// keychain (macOS Keychain, Secret Service, Windows Credential Manager).
type KeychainProvider struct {
	service string
}

// NewKeychainProvider creates a keychain provider for service.
func NewKeychainProvider(service string) *KeychainProvider {
	return &KeychainProvider{service: service}
}

// Scheme returns "keychain".
func (k *KeychainProvider) Scheme() string {
	return "keychain"
}

// Resolve looks up reference under the provider's service.
func (k *KeychainProvider) Resolve(ctx context.Context, reference string) (string, error) {
	value, err := keyring.Get(k.service, reference)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", &ResolutionError{Reference: "keychain:" + reference, Reason: "keychain entry not found"}
		}
		return "", &ResolutionError{Reference: "keychain:" + reference, Reason: "keychain unavailable", Cause: err}
	}
	return value, nil
}

// Store saves value under reference.
func (k *KeychainProvider) Store(reference, value string) error {
	return keyring.Set(k.service, reference, value)
}

// Delete removes reference. A missing entry is reported as a ResolutionError.
func (k *KeychainProvider) Delete(reference string) error {
	if err := keyring.Delete(k.service, reference); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return &ResolutionError{Reference: "keychain:" + reference, Reason: "keychain entry not found"}
		}
		return &ResolutionError{Reference: "keychain:" + reference, Reason: "keychain unavailable", Cause: err}
	}
	return nil
}
