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

package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/sqlguard/internal/commands/shared"
)

func TestNewRootCommand(t *testing.T) {
	cmd := NewRootCommand()

	assert.Equal(t, "sqlguard", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)

	for _, name := range []string{"verbose", "quiet", "json", "trace", "config"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), "flag %s not registered", name)
	}
}

func TestSetVersion(t *testing.T) {
	SetVersion("1.2.3", "abc123", "2025-12-22")

	v, c, b := GetVersion()
	assert.Equal(t, "1.2.3", v)
	assert.Equal(t, "abc123", c)
	assert.Equal(t, "2025-12-22", b)
}

func TestHelpJSON(t *testing.T) {
	root := NewRootCommand()
	var ran bool
	root.AddCommand(&cobra.Command{
		Use:   "exec <sql>",
		Short: "Execute one statement",
		RunE:  func(*cobra.Command, []string) error { ran = true; return nil },
	})

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"help", "--json"})
	t.Cleanup(func() { shared.SetJSONForTest(false) })
	require.NoError(t, root.Execute())
	assert.False(t, ran)

	var resp HelpResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "help", resp.Command)

	names := []string{}
	for _, c := range resp.Commands {
		names = append(names, c.Name)
	}
	assert.Contains(t, names, "exec")
	assert.NotEmpty(t, resp.GlobalFlags)
}

func TestHelpUnknownCommand(t *testing.T) {
	root := NewRootCommand()
	root.AddCommand(&cobra.Command{Use: "version", RunE: func(*cobra.Command, []string) error { return nil }})
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"help", "nope"})

	err := root.Execute()
	require.Error(t, err)
	assert.Equal(t, shared.ExitInvalidInput, shared.ExitCodeFor(err))
}
