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
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tombee/sqlguard/internal/commands/shared"
	"github.com/tombee/sqlguard/internal/secrets"
)

// keychain is swapped in tests.
var keychain = secrets.NewKeychainProvider(secrets.KeychainService)

// NewCommand creates the secrets command for connection passwords.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secrets",
		Short: "Manage connection passwords in the system keychain",
		Long: `Store, remove and test connection password references.

Connections in the config file may reference a password instead of holding
it literally:
  password: keychain:reporting     # system keychain, service "sqlguard"
  password: env:REPORTS_PASSWORD   # environment variable

Commands:
  set      Store a password in the keychain
  delete   Remove a password from the keychain
  resolve  Check that a reference resolves (the value is never printed)

Examples:
  sqlguard secrets set reporting
  printf '%s' "$PW" | sqlguard secrets set reporting --from-stdin
  sqlguard secrets resolve env:REPORTS_PASSWORD`,
	}

	cmd.AddCommand(newSetCommand())
	cmd.AddCommand(newDeleteCommand())
	cmd.AddCommand(newResolveCommand())

	return cmd
}

func newSetCommand() *cobra.Command {
	var fromStdin bool

	cmd := &cobra.Command{
		Use:   "set <name>",
		Short: "Store a password in the keychain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			var value string
			var err error
			if fromStdin {
				value, err = readSecret(cmd.InOrStdin())
			} else {
				value, err = shared.PromptPassword(cmd.ErrOrStderr(), fmt.Sprintf("Password for %s: ", name))
			}
			if err != nil {
				return shared.NewInvalidInputError("cannot read password", err)
			}
			if value == "" {
				return shared.NewInvalidInputError("password must not be empty", nil)
			}

			if err := keychain.Store(name, value); err != nil {
				return shared.NewConfigError("cannot store password", err)
			}
			return report(cmd, "secrets set", fmt.Sprintf("Stored keychain:%s", name))
		},
	}

	cmd.Flags().BoolVar(&fromStdin, "from-stdin", false, "Read the password from stdin instead of prompting")

	return cmd
}

func newDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Remove a password from the keychain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := keychain.Delete(args[0]); err != nil {
				return err
			}
			return report(cmd, "secrets delete", fmt.Sprintf("Deleted keychain:%s", args[0]))
		},
	}
}

func newResolveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <reference>",
		Short: "Check that a password reference resolves",
		Long: `Resolve a reference such as env:NAME or keychain:NAME using the
environment allowlist from the config file. Only success is reported; the
value is never printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := shared.LoadConfig()
			if err != nil {
				return err
			}
			resolver := secrets.NewResolver(
				secrets.NewEnvProvider(cfg.Secrets.EnvAllowlist),
				keychain,
			)
			if !resolver.IsReference(args[0]) {
				return shared.NewInvalidInputError(fmt.Sprintf("%q is not a reference (use env:NAME or keychain:NAME)", args[0]), nil)
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			value, err := resolver.Resolve(ctx, args[0])
			if err != nil {
				return err
			}
			return report(cmd, "secrets resolve", fmt.Sprintf("%s resolves (%d characters)", args[0], len(value)))
		},
	}
}

func readSecret(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

func report(cmd *cobra.Command, command, message string) error {
	if shared.GetJSON() {
		type response struct {
			shared.JSONResponse
			Message string `json:"message"`
		}
		return shared.EmitJSONTo(cmd.OutOrStdout(), response{
			JSONResponse: shared.NewJSONResponse(command),
			Message:      message,
		})
	}
	if !shared.GetQuiet() {
		fmt.Fprintln(cmd.OutOrStdout(), shared.RenderOK(message))
	}
	return nil
}
