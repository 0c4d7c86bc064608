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

package version

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/sqlguard/internal/commands/shared"
)

func TestVersionOutput(t *testing.T) {
	shared.SetVersion("1.0.0", "test123", "2025-12-22")
	defer shared.SetVersion("dev", "unknown", "unknown")

	cmd := NewVersionCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "sqlguard version 1.0.0")
	assert.Contains(t, buf.String(), "test123")
	assert.Contains(t, buf.String(), "sqlite")
}

func TestVersionJSONOutput(t *testing.T) {
	shared.SetVersion("1.0.0", "test123", "2025-12-22")
	defer shared.SetVersion("dev", "unknown", "unknown")

	rootCmd := &cobra.Command{Use: "test"}
	flags := shared.RegisterFlagPointers()
	rootCmd.PersistentFlags().BoolVar(flags.JSON, "json", false, "JSON output")
	t.Cleanup(func() { shared.SetJSONForTest(false) })

	rootCmd.AddCommand(NewVersionCommand())
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"version", "--json"})
	require.NoError(t, rootCmd.Execute())

	var info VersionInfo
	require.NoError(t, json.Unmarshal(buf.Bytes(), &info))
	assert.True(t, info.Success)
	assert.Equal(t, "version", info.Command)
	assert.Equal(t, "1.0.0", info.Version)
	assert.Equal(t, "2025-12-22", info.BuildDate)
	require.Len(t, info.Drivers, 3)
	for i, prefix := range []string{"mysql/", "postgres/", "sqlite/"} {
		assert.True(t, strings.HasPrefix(info.Drivers[i], prefix), info.Drivers[i])
	}
}
