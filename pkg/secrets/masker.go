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

// Package secrets provides utilities for masking passwords before they reach
// logs, traces or tool responses.
package secrets

import (
	"fmt"
	"net/url"
	"strings"
	"sync"
)

// Mask is the replacement written in place of a secret.
const Mask = "***"

// Masker replaces registered secret values in strings. It is safe for
// concurrent use.
type Masker struct {
	mu      sync.RWMutex
	secrets map[string]struct{}
}

// NewMasker creates an empty masker.
func NewMasker() *Masker {
	return &Masker{secrets: make(map[string]struct{})}
}

// AddSecret registers a value to be masked. Empty values are ignored.
func (m *Masker) AddSecret(value string) {
	if value == "" {
		return
	}
	m.mu.Lock()
	m.secrets[value] = struct{}{}
	m.mu.Unlock()
}

// Mask replaces all known secrets in s with "***".
func (m *Masker) Mask(s string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := s
	for secret := range m.secrets {
		if strings.Contains(result, secret) {
			result = strings.ReplaceAll(result, secret, Mask)
		}
	}
	return result
}

// MaskError returns err's text with secrets masked, or "" for nil.
func (m *Masker) MaskError(err error) string {
	if err == nil {
		return ""
	}
	return m.Mask(err.Error())
}

// MaskMap returns a copy of data with secrets masked in every string value.
// Keys named like passwords are masked outright.
func (m *Masker) MaskMap(data map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{}, len(data))
	for k, v := range data {
		if isSecretKey(k) {
			if v != nil && v != "" {
				result[k] = Mask
			} else {
				result[k] = v
			}
			continue
		}
		result[k] = m.maskValue(v)
	}
	return result
}

func (m *Masker) maskValue(v interface{}) interface{} {
	switch val := v.(type) {
	case string:
		return m.Mask(val)
	case map[string]interface{}:
		return m.MaskMap(val)
	case []interface{}:
		result := make([]interface{}, len(val))
		for i, item := range val {
			result[i] = m.maskValue(item)
		}
		return result
	case nil, bool, int, int64, float64:
		return val
	default:
		return m.Mask(fmt.Sprintf("%v", val))
	}
}

func isSecretKey(key string) bool {
	k := strings.ToLower(key)
	return k == "password" || strings.HasSuffix(k, "_password") || strings.HasSuffix(k, "secret")
}

// RedactURL masks the password in a URL's userinfo. Opaque or unparsable
// URLs are returned unchanged.
func RedactURL(raw string) string {
	prefix := ""
	rest := raw
	if strings.HasPrefix(strings.ToLower(raw), "jdbc:") {
		prefix, rest = raw[:5], raw[5:]
	}

	u, err := url.Parse(rest)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); !ok {
		return raw
	}
	return prefix + u.Redacted()
}
