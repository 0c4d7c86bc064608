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

package main

import (
	"strings"

	"github.com/tombee/sqlguard/internal/cli"
	"github.com/tombee/sqlguard/internal/commands/check"
	configcmd "github.com/tombee/sqlguard/internal/commands/config"
	"github.com/tombee/sqlguard/internal/commands/exec"
	"github.com/tombee/sqlguard/internal/commands/mcpserver"
	"github.com/tombee/sqlguard/internal/commands/secrets"
	versioncmd "github.com/tombee/sqlguard/internal/commands/version"
)

// Version information (injected via ldflags at build time)
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	cli.SetVersion(version, commit, buildDate)

	rootCmd := cli.NewRootCommand()

	// Execution commands
	rootCmd.AddCommand(exec.NewCommand())
	rootCmd.AddCommand(check.NewCommand())

	// MCP server
	rootCmd.AddCommand(mcpserver.NewCommand())

	// Configuration and secrets
	rootCmd.AddCommand(configcmd.NewConfigCommand())
	rootCmd.AddCommand(secrets.NewCommand())

	rootCmd.AddCommand(versioncmd.NewVersionCommand())

	if cmd, err := rootCmd.ExecuteC(); err != nil {
		cli.HandleExitError(strings.TrimPrefix(cmd.CommandPath(), rootCmd.Name()+" "), err)
	}
}
