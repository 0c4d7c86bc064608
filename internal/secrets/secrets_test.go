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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestEnvProvider_Resolve(t *testing.T) {
	t.Setenv("SQLGUARD_TEST_DB_PASSWORD", "s3cret")
	ctx := context.Background()

	t.Run("set variable", func(t *testing.T) {
		value, err := NewEnvProvider(nil).Resolve(ctx, "SQLGUARD_TEST_DB_PASSWORD")
		require.NoError(t, err)
		assert.Equal(t, "s3cret", value)
	})

	t.Run("unset variable", func(t *testing.T) {
		_, err := NewEnvProvider(nil).Resolve(ctx, "SQLGUARD_TEST_MISSING")
		var resErr *ResolutionError
		require.True(t, errors.As(err, &resErr))
		assert.Equal(t, "env:SQLGUARD_TEST_MISSING", resErr.Reference)
	})

	t.Run("allowlist glob", func(t *testing.T) {
		p := NewEnvProvider([]string{"SQLGUARD_TEST_*"})
		_, err := p.Resolve(ctx, "SQLGUARD_TEST_DB_PASSWORD")
		assert.NoError(t, err)

		_, err = p.Resolve(ctx, "HOME")
		assert.ErrorContains(t, err, "not in allowlist")
	})
}

func TestKeychainProvider_Resolve(t *testing.T) {
	keyring.MockInit()
	ctx := context.Background()
	p := NewKeychainProvider("sqlguard-test")

	_, err := p.Resolve(ctx, "reporting")
	assert.ErrorContains(t, err, "keychain entry not found")

	require.NoError(t, p.Store("reporting", "pw"))
	value, err := p.Resolve(ctx, "reporting")
	require.NoError(t, err)
	assert.Equal(t, "pw", value)
}

func TestResolver_Resolve(t *testing.T) {
	keyring.MockInit()
	t.Setenv("SQLGUARD_TEST_PW", "from-env")
	ctx := context.Background()

	kc := NewKeychainProvider(KeychainService)
	require.NoError(t, kc.Store("db", "from-keychain"))
	r := NewResolver(NewEnvProvider(nil), kc)

	tests := []struct {
		input string
		want  string
	}{
		{"env:SQLGUARD_TEST_PW", "from-env"},
		{"keychain:db", "from-keychain"},
		{"plain-password", "plain-password"},
		{"vault:path", "vault:path"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := r.Resolve(ctx, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.True(t, r.IsReference("env:X"))
	assert.False(t, r.IsReference("hunter2"))
}
