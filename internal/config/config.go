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

// Package config loads sqlguard settings from a YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tombee/sqlguard/internal/log"
	"github.com/tombee/sqlguard/internal/policy"
	"github.com/tombee/sqlguard/internal/sqlexec"
	sgerrors "github.com/tombee/sqlguard/pkg/errors"
)

var (
	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("config: invalid configuration")
)

// Config is the complete sqlguard configuration.
type Config struct {
	Log         LogConfig             `yaml:"log"`
	Limits      sqlexec.Limits        `yaml:"limits"`
	Policy      policy.Config         `yaml:"policy"`
	Connections map[string]Connection `yaml:"connections,omitempty"`
	Secrets     SecretsConfig         `yaml:"secrets"`
	MCP         MCPConfig             `yaml:"mcp"`
	Tracing     TracingConfig         `yaml:"tracing"`
}

// LogConfig configures logging behavior.
type LogConfig struct {
	// Level sets the minimum log level (trace, debug, info, warn, error).
	Level string `yaml:"level"`

	// Format sets the output format (json, text).
	Format string `yaml:"format"`

	// AddSource adds source file and line information to logs.
	AddSource bool `yaml:"add_source"`
}

// Connection is a named database target. Password may be a literal or a
// secret reference such as env:DB_PASSWORD or keychain:reporting.
type Connection struct {
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
	Password string `yaml:"password,omitempty"`
}

// SecretsConfig restricts secret resolution.
type SecretsConfig struct {
	// EnvAllowlist holds glob patterns of environment variables that env:
	// references may read. Empty allows all.
	EnvAllowlist []string `yaml:"env_allowlist,omitempty"`
}

// MCPConfig configures the MCP tool server.
type MCPConfig struct {
	// CallsPerMinute caps tool calls. Zero disables limiting.
	CallsPerMinute int `yaml:"calls_per_minute"`

	// MetricsAddr, when set, serves Prometheus metrics over HTTP.
	MetricsAddr string `yaml:"metrics_addr"`
}

// TracingConfig configures span export.
type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

// Default returns a Config with built-in defaults.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Limits: sqlexec.DefaultLimits(),
		MCP: MCPConfig{
			CallsPerMinute: 60,
		},
		Tracing: TracingConfig{
			ServiceName: "sqlguard",
		},
	}
}

// Load reads configuration from configPath (optional), applies defaults to
// zero values, overlays environment variables and validates the result.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		if err := cfg.loadFromFile(configPath); err != nil {
			return nil, &sgerrors.ConfigError{
				Key:    "config_file",
				Reason: fmt.Sprintf("failed to load from %s", configPath),
				Cause:  err,
			}
		}
	}

	cfg.applyDefaults()
	cfg.loadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, &sgerrors.ConfigError{
			Key:    "validation",
			Reason: "configuration validation failed",
			Cause:  err,
		}
	}

	return cfg, nil
}

// LoadDefault loads the file at the default path when it exists and falls
// back to defaults plus environment otherwise.
func LoadDefault() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return Load("")
	}
	if _, err := os.Stat(path); err != nil {
		return Load("")
	}
	return Load(path)
}

func (c *Config) applyDefaults() {
	d := Default()
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
	c.Limits = c.Limits.Or(d.Limits)
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = d.Tracing.ServiceName
	}
}

func (c *Config) loadFromFile(path string) error {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	return nil
}

// loadFromEnv overlays environment variables. Unparseable numbers are
// ignored.
func (c *Config) loadFromEnv() {
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = strings.ToLower(val)
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = strings.ToLower(val)
	}
	if val := os.Getenv("LOG_SOURCE"); val != "" {
		c.Log.AddSource = parseBool(val)
	}

	envLimit("SQLGUARD_TIMEOUT_MS", &c.Limits.TimeoutMs)
	envLimit("SQLGUARD_MAX_ROWS", &c.Limits.MaxRows)
	envLimit("SQLGUARD_MAX_UPDATE_ROWS", &c.Limits.MaxUpdateRows)
	envLimit("SQLGUARD_MAX_FIELD_SIZE", &c.Limits.MaxFieldSize)

	if val := os.Getenv("SQLGUARD_READ_ONLY"); val != "" {
		c.Policy.ReadOnly = parseBool(val)
	}
	if val := os.Getenv("SQLGUARD_POLICY_RULE"); val != "" {
		c.Policy.Rule = val
	}
	envInt("SQLGUARD_MCP_CALLS_PER_MINUTE", &c.MCP.CallsPerMinute)
	if val := os.Getenv("SQLGUARD_METRICS_ADDR"); val != "" {
		c.MCP.MetricsAddr = val
	}
	if val := os.Getenv("SQLGUARD_TRACING"); val != "" {
		c.Tracing.Enabled = parseBool(val)
	}
}

func envInt(key string, dst *int) {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*dst = n
		}
	}
}

func envLimit(key string, dst **int) {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*dst = sqlexec.Limit(n)
		}
	}
}

func parseBool(val string) bool {
	return val == "1" || strings.ToLower(val) == "true"
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if !log.ValidLevel(c.Log.Level) {
		errs = append(errs, fmt.Sprintf("log.level must be one of [trace, debug, info, warn, error], got %q", c.Log.Level))
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Log.Format] {
		errs = append(errs, fmt.Sprintf("log.format must be one of [json, text], got %q", c.Log.Format))
	}

	for _, l := range c.Limits.Fields() {
		if l.Value != nil && *l.Value < 0 {
			errs = append(errs, fmt.Sprintf("limits.%s must be non-negative, got %d", l.Key, *l.Value))
		}
	}

	if _, err := policy.New(c.Policy); err != nil {
		errs = append(errs, err.Error())
	}

	for _, name := range c.ConnectionNames() {
		conn := c.Connections[name]
		if strings.TrimSpace(conn.URL) == "" {
			errs = append(errs, fmt.Sprintf("connections.%s.url is required", name))
		}
		if strings.TrimSpace(conn.Username) == "" {
			errs = append(errs, fmt.Sprintf("connections.%s.username is required", name))
		}
	}

	if c.MCP.CallsPerMinute < 0 {
		errs = append(errs, fmt.Sprintf("mcp.calls_per_minute must be non-negative, got %d", c.MCP.CallsPerMinute))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w:\n  - %s", ErrInvalidConfig, strings.Join(errs, "\n  - "))
	}

	return nil
}

// LoggerConfig converts the log section for log.New.
func (c *Config) LoggerConfig() *log.Config {
	cfg := log.DefaultConfig()
	cfg.Level = c.Log.Level
	cfg.Format = log.Format(c.Log.Format)
	cfg.AddSource = c.Log.AddSource
	return cfg
}
