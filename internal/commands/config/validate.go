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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tombee/sqlguard/internal/commands/shared"
	"github.com/tombee/sqlguard/internal/sqlsafe"
)

// ConnectionSummary describes one configured connection.
type ConnectionSummary struct {
	Name     string          `json:"name"`
	Dialect  sqlsafe.Dialect `json:"dialect"`
	Username string          `json:"username"`
	Password string          `json:"password"`
}

// ValidateResponse is the --json output of config validate.
type ValidateResponse struct {
	shared.JSONResponse
	Path        string              `json:"path"`
	Connections []ConnectionSummary `json:"connections"`
	ReadOnly    bool                `json:"read_only"`
	Rule        string              `json:"rule,omitempty"`
}

func newConfigValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration",
		Long: `Load the configuration with defaults and environment overrides applied
and report any problems. Exits 4 when the configuration is invalid.

Password references are not resolved; each connection's password source is
listed instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := shared.LoadConfig()
			if err != nil {
				return err
			}

			resolver := cfg.Resolver()
			resp := ValidateResponse{
				JSONResponse: shared.NewJSONResponse("config validate"),
				Path:         configPath(),
				Connections:  []ConnectionSummary{},
				ReadOnly:     cfg.Policy.ReadOnly,
				Rule:         cfg.Policy.Rule,
			}
			for _, name := range cfg.ConnectionNames() {
				conn := cfg.Connections[name]
				resp.Connections = append(resp.Connections, ConnectionSummary{
					Name:     name,
					Dialect:  sqlsafe.GuessDialect(conn.URL),
					Username: conn.Username,
					Password: providerFor(resolver, conn.Password),
				})
			}

			if shared.GetJSON() {
				return shared.EmitJSONTo(cmd.OutOrStdout(), resp)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, shared.RenderOK("Configuration is valid"))
			for _, c := range resp.Connections {
				fmt.Fprintf(out, "  %s %s (%s, password: %s)\n", shared.RenderLabel(c.Name+":"), c.Username, c.Dialect, c.Password)
			}
			if resp.ReadOnly {
				fmt.Fprintln(out, shared.RenderWarn("read-only mode: only queries are allowed"))
			}
			if resp.Rule != "" {
				fmt.Fprintf(out, "  %s %s\n", shared.RenderLabel("rule:"), resp.Rule)
			}
			return nil
		},
	}
}
