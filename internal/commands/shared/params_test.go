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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/sqlguard/internal/sqlexec"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"42", int64(42)},
		{"-7", int64(-7)},
		{"1.5", 1.5},
		{"true", true},
		{"false", false},
		{"null", nil},
		{`"42"`, "42"},
		{"alice", "alice"},
		{"", ""},
		{"NaN", "NaN"},
		{"0x10", "0x10"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseValue(tt.in))
		})
	}
}

func TestParseParams(t *testing.T) {
	p, err := ParseParams([]string{"1", "bob"}, nil)
	require.NoError(t, err)
	assert.Equal(t, sqlexec.ParamsPositional, p.Style())
	assert.Equal(t, []any{int64(1), "bob"}, p.Args())

	p, err = ParseParams(nil, []string{"id=3", ":name=a=b"})
	require.NoError(t, err)
	assert.Equal(t, sqlexec.ParamsNamed, p.Style())
	assert.Equal(t, map[string]any{"id": int64(3), "name": "a=b"}, p.Values())

	p, err = ParseParams(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, sqlexec.ParamsNone, p.Style())

	_, err = ParseParams(nil, []string{"novalue"})
	require.Error(t, err)
	assert.Equal(t, ExitInvalidInput, ExitCodeFor(err))
}
