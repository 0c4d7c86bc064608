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
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tombee/sqlguard/internal/commands/shared"
	"github.com/tombee/sqlguard/internal/config"
	"github.com/tombee/sqlguard/internal/secrets"
)

// NewConfigCommand creates the config command with subcommands
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View and validate configuration",
		Long: `View and validate sqlguard configuration.

Subcommands:
  show     - Display the effective configuration (file, defaults and environment)
  path     - Show config file location
  validate - Load the configuration and report problems`,
		Args: cobra.NoArgs,
	}

	show := newConfigShowCommand()
	cmd.AddCommand(show)
	cmd.AddCommand(newConfigPathCommand())
	cmd.AddCommand(newConfigValidateCommand())

	// If no subcommand provided, default to 'show'
	cmd.RunE = show.RunE

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Long: `Display the effective configuration.

Literal connection passwords are masked. Secret references such as
env:DB_PASSWORD are shown as written.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := shared.LoadConfig()
			if err != nil {
				return err
			}
			masked := maskSensitiveConfig(cfg)
			if shared.GetJSON() {
				return outputConfigJSON(cmd.OutOrStdout(), masked)
			}
			return outputConfigYAML(cmd.OutOrStdout(), configPath(), masked)
		},
	}
}

func newConfigPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show config file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath()
			if path == "" {
				return shared.NewConfigError("failed to determine config path", nil)
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

// configPath returns --config or the default location.
func configPath() string {
	if path := shared.GetConfigPath(); path != "" {
		return path
	}
	path, err := config.ConfigPath()
	if err != nil {
		return ""
	}
	return path
}

// maskSensitiveConfig copies cfg with literal passwords masked.
func maskSensitiveConfig(cfg *config.Config) *config.Config {
	masked := *cfg
	masked.Connections = make(map[string]config.Connection, len(cfg.Connections))
	resolver := cfg.Resolver()
	for name, conn := range cfg.Connections {
		if conn.Password != "" && !resolver.IsReference(conn.Password) {
			conn.Password = maskPassword(conn.Password)
		}
		masked.Connections[name] = conn
	}
	return &masked
}

func maskPassword(password string) string {
	if len(password) <= 8 {
		return "****"
	}
	return password[:2] + strings.Repeat("*", len(password)-4) + password[len(password)-2:]
}

// outputConfigJSON writes cfg with its YAML key names as JSON.
func outputConfigJSON(w io.Writer, cfg *config.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	var generic map[string]interface{}
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return shared.EmitJSONTo(w, generic)
}

func outputConfigYAML(w io.Writer, path string, cfg *config.Config) error {
	fmt.Fprintf(w, "# Configuration: %s\n", path)

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return encoder.Close()
}

// providerFor reports the secret scheme a password uses, or "literal".
func providerFor(resolver *secrets.Resolver, password string) string {
	if password == "" {
		return "none"
	}
	if !resolver.IsReference(password) {
		return "literal"
	}
	scheme, _, _ := strings.Cut(password, ":")
	return scheme
}
