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

package log

import (
	"context"
	"log/slog"
	"time"
)

// ToolCall describes one tool invocation for logging purposes.
type ToolCall struct {
	// Tool is the tool name (e.g., "sql_execute").
	Tool string

	// RequestID is the unique ID for this call.
	RequestID string

	// Metadata contains additional request fields.
	Metadata map[string]interface{}
}

// LogToolCall logs an incoming tool call.
func LogToolCall(logger *slog.Logger, call *ToolCall) {
	attrs := []any{
		EventKey, "tool_call",
		ToolKey, call.Tool,
	}
	if call.RequestID != "" {
		attrs = append(attrs, RequestIDKey, call.RequestID)
	}
	for k, v := range call.Metadata {
		attrs = append(attrs, k, v)
	}

	logger.Debug("tool call received", attrs...)
}

// LogToolResult logs the outcome of a tool call. Failures are logged at warn
// since they are usually caller mistakes rather than faults in the server.
func LogToolResult(logger *slog.Logger, call *ToolCall, err error, duration time.Duration) {
	attrs := []any{
		EventKey, "tool_result",
		ToolKey, call.Tool,
		"success", err == nil,
		DurationKey, duration.Milliseconds(),
	}
	if call.RequestID != "" {
		attrs = append(attrs, RequestIDKey, call.RequestID)
	}

	level := slog.LevelInfo
	message := "tool call completed"
	if err != nil {
		attrs = append(attrs, "error", err.Error())
		level = slog.LevelWarn
		message = "tool call failed"
	}

	logger.Log(context.Background(), level, message, attrs...)
}

// ToolMiddleware wraps tool handlers with call logging.
type ToolMiddleware struct {
	logger *slog.Logger
}

// NewToolMiddleware creates a new tool logging middleware.
func NewToolMiddleware(logger *slog.Logger) *ToolMiddleware {
	return &ToolMiddleware{logger: logger}
}

// Handle logs call, runs handler and logs its result.
func (m *ToolMiddleware) Handle(call *ToolCall, handler func() error) error {
	start := time.Now()
	LogToolCall(m.logger, call)

	err := handler()

	LogToolResult(m.logger, call, err, time.Since(start))
	return err
}
