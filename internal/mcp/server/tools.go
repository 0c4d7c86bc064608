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

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	sqlaction "github.com/tombee/sqlguard/internal/action/sql"
	"github.com/tombee/sqlguard/internal/log"
	sgerrors "github.com/tombee/sqlguard/pkg/errors"
	"github.com/tombee/sqlguard/pkg/secrets"
)

// connectionProperties are shared by both tools.
func connectionProperties() map[string]interface{} {
	return map[string]interface{}{
		"sql": map[string]interface{}{
			"type":        "string",
			"description": "One SQL statement. A trailing semicolon and comments are allowed; a second statement is rejected.",
		},
		"connection": map[string]interface{}{
			"type":        "string",
			"description": "Name of a configured connection. Use instead of url/username/password.",
		},
		"url": map[string]interface{}{
			"type":        "string",
			"description": "Database URL, e.g. jdbc:postgresql://host:5432/db, mysql://host/db or sqlite:/path/to.db",
		},
		"username": map[string]interface{}{
			"type":        "string",
			"description": "Database user",
		},
		"password": map[string]interface{}{
			"type":        "string",
			"description": "Database password or a reference such as env:DB_PASSWORD",
		},
		"positional": map[string]interface{}{
			"type":        "array",
			"description": "Values bound to ? placeholders in order",
		},
		"named": map[string]interface{}{
			"type":        "object",
			"description": "Values bound to :name placeholders. Cannot be combined with positional.",
		},
	}
}

func (s *Server) registerTools() {
	execProps := connectionProperties()
	execProps["timeout_ms"] = map[string]interface{}{"type": "integer", "description": "Statement timeout in milliseconds (whole seconds, minimum 1s)"}
	execProps["max_rows"] = map[string]interface{}{"type": "integer", "description": "Maximum rows returned; extra rows set truncated"}
	execProps["max_update_rows"] = map[string]interface{}{"type": "integer", "description": "Maximum rows an update may affect before it is reported as a policy violation"}
	execProps["max_field_size"] = map[string]interface{}{"type": "integer", "description": "Maximum characters per text value"}
	execProps["format"] = map[string]interface{}{
		"type":        "string",
		"enum":        []string{sqlaction.FormatResult, sqlaction.FormatRows, sqlaction.FormatJSON, sqlaction.FormatCSV, sqlaction.FormatMarkdown},
		"description": "Response shape (default: result)",
	}

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "sql_execute",
		Description: "Run one SQL statement with row, field, update-count and time limits. Returns rows for queries and the update count otherwise.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: execProps,
			Required:   []string{"sql"},
		},
	}, s.handleExecute)

	checkProps := connectionProperties()
	checkProps["dialect"] = map[string]interface{}{
		"type":        "string",
		"enum":        []string{"mysql", "postgres", "sqlite"},
		"description": "Target dialect when no connection or url is given",
	}

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "sql_check",
		Description: "Sanitize and bind a statement without connecting. Returns the SQL as it would be sent, its kind, hash and bound arguments.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: checkProps,
			Required:   []string{"sql"},
		},
	}, s.handleCheck)
}

func (s *Server) handleExecute(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.call(ctx, "sql_execute", "execute", request)
}

func (s *Server) handleCheck(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.call(ctx, "sql_check", "check", request)
}

func (s *Server) call(ctx context.Context, tool, operation string, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.limiter != nil && !s.limiter.Allow() {
		return errorResponse("[rate_limited] too many tool calls; retry later"), nil
	}

	args := request.GetArguments()
	if args == nil {
		return errorResponse("[validation] invalid arguments format"), nil
	}

	masker := secrets.NewMasker()
	if password, ok := args["password"].(string); ok {
		masker.AddSecret(password)
	}

	call := &log.ToolCall{
		Tool:      tool,
		RequestID: uuid.NewString(),
		Metadata:  callMetadata(args),
	}

	var result *sqlaction.Result
	err := s.middleware.Handle(call, func() error {
		var err error
		result, err = s.action.Execute(ctx, operation, args)
		return err
	})
	if err != nil {
		return errorResponse(masker.Mask(toolErrorMessage(err))), nil
	}

	switch v := result.Response.(type) {
	case string:
		return textResponse(v), nil
	default:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return errorResponse(fmt.Sprintf("[internal] cannot encode result: %v", err)), nil
		}
		return textResponse(string(data)), nil
	}
}

// toolErrorMessage prefixes err with its kind and appends any suggestion.
func toolErrorMessage(err error) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", sgerrors.TypeOf(err), err.Error())
	if uve, ok := sgerrors.UserFacing(err); ok && uve.Suggestion() != "" {
		b.WriteString("\nSuggestion: ")
		b.WriteString(uve.Suggestion())
	}
	return b.String()
}

// callMetadata picks loggable fields; passwords and bound values never are.
func callMetadata(args map[string]interface{}) map[string]interface{} {
	md := map[string]interface{}{}
	for _, key := range []string{"connection", "format", "max_rows", "timeout_ms"} {
		if v, ok := args[key]; ok {
			md[key] = v
		}
	}
	if u, ok := args["url"].(string); ok {
		md["url"] = secrets.RedactURL(u)
	}
	return md
}
