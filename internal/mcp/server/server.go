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

// Package server implements an MCP server that exposes guarded SQL execution
// as tools.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	sqlaction "github.com/tombee/sqlguard/internal/action/sql"
	"github.com/tombee/sqlguard/internal/log"
)

// Server wraps the MCP server and provides the SQL tools.
type Server struct {
	mcpServer   *server.MCPServer
	name        string
	version     string
	action      *sqlaction.SQLAction
	limiter     *rate.Limiter
	middleware  *log.ToolMiddleware
	logger      *slog.Logger
	metricsAddr string
}

// ServerConfig configures the MCP server.
type ServerConfig struct {
	// Name is the server name (default: "sqlguard").
	Name string

	// Version is the sqlguard version.
	Version string

	// LogLevel controls logging verbosity when Logger is nil.
	LogLevel string

	// Logger overrides the stderr logger.
	Logger *slog.Logger

	// Action runs the tools. Required.
	Action *sqlaction.SQLAction

	// CallsPerMinute caps tool calls. Zero disables limiting.
	CallsPerMinute int

	// MetricsAddr, when set, serves /metrics over HTTP while running.
	MetricsAddr string
}

// createLogger creates a logger with the specified level. It writes to
// stderr so the stdio protocol stream stays clean.
func createLogger(levelStr string) (*slog.Logger, error) {
	if levelStr == "" {
		levelStr = "info"
	}
	if !log.ValidLevel(levelStr) {
		return nil, fmt.Errorf("invalid log level: %s (must be trace, debug, info, warn, or error)", levelStr)
	}
	return log.New(&log.Config{
		Level:  levelStr,
		Format: log.FormatText,
		Output: os.Stderr,
	}), nil
}

// NewServer creates a new MCP server instance.
func NewServer(config ServerConfig) (*Server, error) {
	if config.Action == nil {
		return nil, errors.New("sql action is required")
	}
	if config.Name == "" {
		config.Name = "sqlguard"
	}
	if config.Version == "" {
		config.Version = "dev"
	}

	logger := config.Logger
	if logger == nil {
		var err error
		if logger, err = createLogger(config.LogLevel); err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
	}
	logger = log.WithComponent(logger, "mcp")

	s := &Server{
		mcpServer:   server.NewMCPServer(config.Name, config.Version, server.WithToolCapabilities(false)),
		name:        config.Name,
		version:     config.Version,
		action:      config.Action,
		middleware:  log.NewToolMiddleware(logger),
		logger:      logger,
		metricsAddr: config.MetricsAddr,
	}
	if config.CallsPerMinute > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(float64(config.CallsPerMinute)/60.0), config.CallsPerMinute)
	}

	s.registerTools()
	return s, nil
}

// Run serves MCP over stdio until stdin closes.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("starting sqlguard MCP server", slog.String("version", s.version))

	if s.metricsAddr != "" {
		srv := s.metricsServer()
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.logger.Error("metrics endpoint failed", log.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}
	return nil
}

func (s *Server) metricsServer() *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &http.Server{
		Addr:              s.metricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// Helper function to create error response
func errorResponse(message string) *mcp.CallToolResult {
	return mcp.NewToolResultError(message)
}

// Helper function to create success response
func textResponse(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}
