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
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	sqlaction "github.com/tombee/sqlguard/internal/action/sql"
	"github.com/tombee/sqlguard/internal/commands/shared"
	"github.com/tombee/sqlguard/internal/config"
	"github.com/tombee/sqlguard/internal/log"
	"github.com/tombee/sqlguard/internal/mcp/server"
	"github.com/tombee/sqlguard/internal/policy"
	"github.com/tombee/sqlguard/internal/sqlexec"
)

// NewCommand creates the mcp-server command
func NewCommand() *cobra.Command {
	var (
		logLevel    string
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "mcp-server",
		Short: "Serve guarded SQL execution over MCP",
		Long: `Start the sqlguard MCP (Model Context Protocol) server on stdio.

The server exposes two tools:
  - sql_execute: run one statement under row, field, update and time limits
  - sql_check:   sanitize, bind and policy-check a statement without connecting

Named connections, limits and the statement policy come from the config file.

Configuration example for an MCP client:
  {
    "mcpServers": {
      "sqlguard": {
        "command": "sqlguard",
        "args": ["mcp-server"]
      }
    }
  }`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := shared.LoadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("metrics-addr") {
				cfg.MCP.MetricsAddr = metricsAddr
			}
			if cmd.Flags().Changed("log-level") {
				if !log.ValidLevel(logLevel) {
					return shared.NewInvalidInputError(fmt.Sprintf("invalid log level: %s", logLevel), nil)
				}
				cfg.Log.Level = logLevel
			}
			return runMCPServer(cfg)
		},
	}

	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Logging verbosity (trace, debug, info, warn, error)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9464)")

	return cmd
}

// newServer wires the executor, action and MCP server from cfg.
func newServer(cfg *config.Config, base sqlexec.Config) (*server.Server, error) {
	logger := shared.NewLogger(cfg)

	p, err := policy.New(cfg.Policy)
	if err != nil {
		return nil, err
	}
	base.Logger = logger
	base.Policy = p
	base.Defaults = cfg.Limits

	action, err := sqlaction.New(&sqlaction.Config{
		Settings: cfg,
		Executor: sqlexec.New(base),
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	versionStr, _, _ := shared.GetVersion()
	return server.NewServer(server.ServerConfig{
		Name:           "sqlguard",
		Version:        versionStr,
		Logger:         logger,
		Action:         action,
		CallsPerMinute: cfg.MCP.CallsPerMinute,
		MetricsAddr:    cfg.MCP.MetricsAddr,
	})
}

func runMCPServer(cfg *config.Config) error {
	tp, err := shared.NewTracing(cfg)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(shutdownCtx)
	}()

	srv, err := newServer(cfg, sqlexec.Config{Tracer: tp.Tracer()})
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Run blocks until stdin closes or a signal arrives.
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}
	return nil
}
