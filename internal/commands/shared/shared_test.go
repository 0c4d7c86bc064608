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
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/sqlguard/internal/sqlexec"
	pkgerrors "github.com/tombee/sqlguard/pkg/errors"
)

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"explicit", &ExitError{Code: 7, Message: "custom"}, 7},
		{"invalid input", &sqlexec.Error{Kind: sqlexec.ErrorKindInvalidInput, Message: "sql required"}, ExitInvalidInput},
		{"policy", &sqlexec.Error{Kind: sqlexec.ErrorKindPolicy, Message: "too many"}, ExitPolicyViolation},
		{"database", &sqlexec.Error{Kind: sqlexec.ErrorKindDatabase, Message: "open failed"}, ExitFailure},
		{"wrapped policy", fmt.Errorf("run: %w", &sqlexec.Error{Kind: sqlexec.ErrorKindPolicy}), ExitPolicyViolation},
		{"validation", &pkgerrors.ValidationError{Message: "bad"}, ExitInvalidInput},
		{"not found", &pkgerrors.NotFoundError{Resource: "connection", ID: "x"}, ExitInvalidInput},
		{"config", &pkgerrors.ConfigError{Key: "validation", Reason: "bad"}, ExitConfigError},
		{"plain", errors.New("boom"), ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCodeFor(tt.err))
		})
	}
}

func TestErrorCodeFor(t *testing.T) {
	assert.Equal(t, ErrorCodeInvalidInput, ErrorCodeFor(&sqlexec.Error{Kind: sqlexec.ErrorKindInvalidInput}))
	assert.Equal(t, ErrorCodePolicyViolation, ErrorCodeFor(&sqlexec.Error{Kind: sqlexec.ErrorKindPolicy}))
	assert.Equal(t, ErrorCodeExecutionFailed, ErrorCodeFor(&sqlexec.Error{Kind: sqlexec.ErrorKindDatabase}))
	assert.Equal(t, ErrorCodeNotFound, ErrorCodeFor(&pkgerrors.NotFoundError{Resource: "connection"}))
	assert.Equal(t, ErrorCodeFileNotFound, ErrorCodeFor(&pkgerrors.NotFoundError{Resource: "file"}))
	assert.Equal(t, ErrorCodeInvalidConfig, ErrorCodeFor(&pkgerrors.ConfigError{Reason: "bad"}))
	assert.Equal(t, ErrorCodeInternal, ErrorCodeFor(errors.New("boom")))
}

func TestReportError_Text(t *testing.T) {
	SetJSONForTest(false)

	var stdout, stderr bytes.Buffer
	err := &sqlexec.Error{Kind: sqlexec.ErrorKindPolicy, Message: "update count exceeds maxUpdateRows: 5 > 2"}
	code := ReportError(&stdout, &stderr, "exec", err)

	assert.Equal(t, ExitPolicyViolation, code)
	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "Error: update count exceeds maxUpdateRows: 5 > 2")
	assert.Contains(t, stderr.String(), "Suggestion: Narrow the statement")
}

func TestReportError_JSON(t *testing.T) {
	SetJSONForTest(true)
	t.Cleanup(func() { SetJSONForTest(false) })

	var stdout, stderr bytes.Buffer
	err := &sqlexec.Error{Kind: sqlexec.ErrorKindInvalidInput, Message: "sql required"}
	code := ReportError(&stdout, &stderr, "exec", err)

	assert.Equal(t, ExitInvalidInput, code)
	assert.Empty(t, stderr.String())

	var got struct {
		Version string      `json:"@version"`
		Command string      `json:"command"`
		Success bool        `json:"success"`
		Errors  []JSONError `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &got))
	assert.Equal(t, "1.0", got.Version)
	assert.Equal(t, "exec", got.Command)
	assert.False(t, got.Success)
	require.Len(t, got.Errors, 1)
	assert.Equal(t, ErrorCodeInvalidInput, got.Errors[0].Code)
	assert.Equal(t, "sql required", got.Errors[0].Message)
	assert.NotEmpty(t, got.Errors[0].Suggestion)
}

func TestExitError(t *testing.T) {
	cause := errors.New("no such file")
	err := NewConfigError("cannot load config", cause)

	assert.Equal(t, "cannot load config: no such file", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, ExitConfigError, ExitCodeFor(err))
	assert.Equal(t, ExitInvalidInput, ExitCodeFor(NewInvalidInputError("bad flag", nil)))
}

func TestRenderTable(t *testing.T) {
	out := RenderTable([]string{"id", "name"}, [][]string{{"1", "alice"}, {"22", "b"}})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)

	assert.Contains(t, lines[0], "id")
	assert.Contains(t, lines[0], "name")
	assert.Equal(t, "1   alice", lines[1])
	assert.Equal(t, "22  b    ", lines[2])
}

func TestIsNonInteractive_Env(t *testing.T) {
	t.Setenv("SQLGUARD_NON_INTERACTIVE", "true")
	assert.True(t, IsNonInteractive())

	_, err := PromptPassword(&bytes.Buffer{}, "Password: ")
	assert.ErrorIs(t, err, ErrNoTerminal)
}

func TestFlags(t *testing.T) {
	SetVersion("1.2.3", "abc", "2025-01-01")
	v, c, b := GetVersion()
	assert.Equal(t, "1.2.3", v)
	assert.Equal(t, "abc", c)
	assert.Equal(t, "2025-01-01", b)

	flags := RegisterFlagPointers()
	*flags.Quiet = true
	assert.True(t, GetQuiet())
	*flags.Quiet = false

	SetConfigPathForTest("/tmp/sqlguard.yaml")
	assert.Equal(t, "/tmp/sqlguard.yaml", GetConfigPath())
	SetConfigPathForTest("")
}
