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

package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/sqlguard/internal/commands/shared"
	internalconfig "github.com/tombee/sqlguard/internal/config"
	"github.com/tombee/sqlguard/internal/sqlsafe"
)

const sampleConfig = `log:
  level: warn
policy:
  read_only: true
connections:
  reporting:
    url: jdbc:postgresql://db:5432/reports
    username: reader
    password: env:REPORTS_PASSWORD
  legacy:
    url: jdbc:mysql://old:3306/app
    username: app
    password: hunter2hunter2
`

func useConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	shared.SetConfigPathForTest(path)
	t.Cleanup(func() {
		shared.SetConfigPathForTest("")
		shared.SetJSONForTest(false)
	})
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewConfigCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestConfigShow_MasksLiteralPasswords(t *testing.T) {
	path := useConfig(t, sampleConfig)

	out, err := execute(t, "show")
	require.NoError(t, err)
	assert.Contains(t, out, "# Configuration: "+path)
	assert.Contains(t, out, "password: env:REPORTS_PASSWORD")
	assert.Contains(t, out, "hu**********r2")
	assert.NotContains(t, out, "hunter2hunter2")
	assert.Contains(t, out, "read_only: true")
}

func TestConfigShow_JSON(t *testing.T) {
	useConfig(t, sampleConfig)
	shared.SetJSONForTest(true)

	out, err := execute(t)
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	limits := got["limits"].(map[string]interface{})
	assert.EqualValues(t, 1000, limits["max_rows"])
	conns := got["connections"].(map[string]interface{})
	assert.Equal(t, "****", maskPassword("short"))
	assert.Equal(t, "hu**********r2", conns["legacy"].(map[string]interface{})["password"])
}

func TestConfigPath(t *testing.T) {
	path := useConfig(t, sampleConfig)

	out, err := execute(t, "path")
	require.NoError(t, err)
	assert.Equal(t, path+"\n", out)
}

func TestConfigValidate(t *testing.T) {
	useConfig(t, sampleConfig)
	shared.SetJSONForTest(true)

	out, err := execute(t, "validate")
	require.NoError(t, err)

	var resp ValidateResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, resp.Success)
	assert.True(t, resp.ReadOnly)
	require.Len(t, resp.Connections, 2)
	assert.Equal(t, "legacy", resp.Connections[0].Name)
	assert.Equal(t, sqlsafe.DialectMySQL, resp.Connections[0].Dialect)
	assert.Equal(t, "literal", resp.Connections[0].Password)
	assert.Equal(t, "reporting", resp.Connections[1].Name)
	assert.Equal(t, "env", resp.Connections[1].Password)
}

func TestConfigValidate_Invalid(t *testing.T) {
	useConfig(t, "limits:\n  max_rows: -1\n")

	_, err := execute(t, "validate")
	require.Error(t, err)
	assert.Equal(t, shared.ExitConfigError, shared.ExitCodeFor(err))
}

func TestMaskSensitiveConfig_DoesNotMutate(t *testing.T) {
	cfg := internalconfig.Default()
	cfg.Connections = map[string]internalconfig.Connection{
		"a": {URL: "jdbc:sqlite::memory:", Username: "u", Password: "literal-secret"},
	}

	masked := maskSensitiveConfig(cfg)
	assert.Equal(t, "literal-secret", cfg.Connections["a"].Password)
	assert.NotEqual(t, "literal-secret", masked.Connections["a"].Password)
}
