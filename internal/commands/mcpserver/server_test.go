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

package mcpserver

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/sqlguard/internal/commands/shared"
	"github.com/tombee/sqlguard/internal/config"
	"github.com/tombee/sqlguard/internal/sqlexec"
)

func TestNewServer(t *testing.T) {
	cfg := config.Default()
	cfg.Log.Level = "error"

	srv, err := newServer(cfg, sqlexec.Config{})
	require.NoError(t, err)
	assert.NotNil(t, srv)
}

func TestNewServer_InvalidRule(t *testing.T) {
	cfg := config.Default()
	cfg.Policy.Rule = "kind =="

	_, err := newServer(cfg, sqlexec.Config{})
	require.Error(t, err)
	assert.Equal(t, shared.ExitInvalidInput, shared.ExitCodeFor(err))
}

func TestCommand_InvalidLogLevel(t *testing.T) {
	shared.SetConfigPathForTest("")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cmd := NewCommand()
	cmd.SetArgs([]string{"--log-level", "loud"})
	err := cmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level: loud")
}

func TestCommand_MissingConfig(t *testing.T) {
	shared.SetConfigPathForTest(filepath.Join(t.TempDir(), "missing.yaml"))
	t.Cleanup(func() { shared.SetConfigPathForTest("") })

	cmd := NewCommand()
	cmd.SetArgs([]string{})
	err := cmd.Execute()

	require.Error(t, err)
	assert.Equal(t, shared.ExitConfigError, shared.ExitCodeFor(err))
}
