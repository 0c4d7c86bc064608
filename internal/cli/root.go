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
	"github.com/spf13/cobra"

	"github.com/tombee/sqlguard/internal/commands/shared"
)

// SetVersion sets the version information (called from main)
func SetVersion(v, c, b string) {
	shared.SetVersion(v, c, b)
}

// NewRootCommand creates the root Cobra command for sqlguard
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sqlguard",
		Short: "sqlguard - guarded SQL execution",
		Long: `sqlguard runs a single SQL statement against MySQL, PostgreSQL or SQLite
with comments stripped, parameters bound, and rows, field sizes, update
counts and time bounded.

Run 'sqlguard exec --help' to execute a statement.
Run 'sqlguard mcp-server' to expose the same operation to MCP clients.`,
		SilenceUsage:  true, // Don't show usage on errors
		SilenceErrors: true, // We handle errors ourselves for proper exit codes
	}

	flags := shared.RegisterFlagPointers()

	cmd.PersistentFlags().BoolVarP(flags.Verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVarP(flags.Quiet, "quiet", "q", false, "Only log errors")
	cmd.PersistentFlags().BoolVar(flags.JSON, "json", false, "Output in JSON format")
	cmd.PersistentFlags().BoolVar(flags.Trace, "trace", false, "Print execution spans to stderr")
	cmd.PersistentFlags().StringVar(flags.Config, "config", "", "Path to config file (default: ~/.config/sqlguard/config.yaml)")

	cmd.SetHelpCommand(NewHelpCommand(cmd))

	return cmd
}

// GetVersion returns version information
func GetVersion() (string, string, string) {
	return shared.GetVersion()
}

// HandleExitError handles exit errors with proper exit codes
func HandleExitError(command string, err error) {
	shared.HandleExitError(command, err)
}
