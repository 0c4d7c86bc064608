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

package shared

import (
	"log/slog"

	"github.com/tombee/sqlguard/internal/config"
	"github.com/tombee/sqlguard/internal/log"
	"github.com/tombee/sqlguard/internal/tracing"
)

// LoadConfig loads the file named by --config, or the default config path
// when the flag is empty.
func LoadConfig() (*config.Config, error) {
	if path := GetConfigPath(); path != "" {
		return config.Load(path)
	}
	return config.LoadDefault()
}

// NewLogger builds the command logger from cfg. --verbose lowers the level
// to debug and --quiet raises it to error.
func NewLogger(cfg *config.Config) *slog.Logger {
	lc := cfg.LoggerConfig()
	switch {
	case GetQuiet():
		lc.Level = "error"
	case GetVerbose():
		lc.Level = "debug"
	}
	return log.New(lc)
}

// NewTracing builds the tracer provider. --trace enables pretty-printed
// spans on stderr regardless of the config file.
func NewTracing(cfg *config.Config) (*tracing.Provider, error) {
	v, _, _ := GetVersion()
	return tracing.NewProvider(tracing.Config{
		Enabled:        cfg.Tracing.Enabled || GetTrace(),
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: v,
		PrettyPrint:    GetTrace(),
	})
}
