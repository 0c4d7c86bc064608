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

// Package sql provides a builtin action that runs guarded SQL statements.
//
// Operations:
//   - execute: sanitize, bind and run one statement under limits
//   - check: sanitize and bind only, without connecting
//
// Connection details come either from url/username/password inputs or from a
// named connection in the configuration, whose password may be a secret
// reference.
package sql

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/tombee/sqlguard/internal/config"
	"github.com/tombee/sqlguard/internal/log"
	"github.com/tombee/sqlguard/internal/policy"
	"github.com/tombee/sqlguard/internal/secrets"
	"github.com/tombee/sqlguard/internal/sqlexec"
	"github.com/tombee/sqlguard/internal/sqlsafe"
	sgerrors "github.com/tombee/sqlguard/pkg/errors"
)

// Output formats accepted by the execute operation.
const (
	FormatResult   = "result"
	FormatRows     = "rows"
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
)

// SQLAction implements the action interface for SQL operations.
type SQLAction struct {
	settings *config.Config
	executor *sqlexec.Executor
	resolver *secrets.Resolver
	logger   *slog.Logger
}

// Config holds configuration for the SQL action.
type Config struct {
	// Settings supplies default limits, policy and named connections.
	// Default: config.Default()
	Settings *config.Config

	// Executor runs statements. Default: built from Settings.
	Executor *sqlexec.Executor

	// Resolver resolves connection password references.
	// Default: Settings.Resolver()
	Resolver *secrets.Resolver

	// Logger receives action logs. Default: discard.
	Logger *slog.Logger
}

// New creates a new SQL action instance.
func New(cfg *Config) (*SQLAction, error) {
	if cfg == nil {
		cfg = &Config{}
	}

	a := &SQLAction{
		settings: cfg.Settings,
		executor: cfg.Executor,
		resolver: cfg.Resolver,
		logger:   cfg.Logger,
	}
	if a.settings == nil {
		a.settings = config.Default()
	}
	if a.logger == nil {
		a.logger = log.Discard()
	}
	if a.resolver == nil {
		a.resolver = a.settings.Resolver()
	}
	if a.executor == nil {
		p, err := policy.New(a.settings.Policy)
		if err != nil {
			return nil, err
		}
		a.executor = sqlexec.New(sqlexec.Config{
			Logger:   a.logger,
			Policy:   p,
			Defaults: a.settings.Limits,
		})
	}
	return a, nil
}

// Name returns the action identifier.
func (a *SQLAction) Name() string {
	return "sql"
}

// Operations returns the list of supported operations.
func (a *SQLAction) Operations() []string {
	return []string{"execute", "check"}
}

// Result represents the output of a SQL operation.
type Result struct {
	Response interface{}
	Metadata map[string]interface{}
}

// Execute runs a named operation with the given inputs.
func (a *SQLAction) Execute(ctx context.Context, operation string, inputs map[string]interface{}) (*Result, error) {
	switch operation {
	case "execute":
		return a.execute(ctx, inputs)
	case "check":
		return a.check(ctx, inputs)
	default:
		return nil, &OperationError{
			Operation:  operation,
			Message:    "unknown operation",
			Type:       ErrorTypeValidation,
			Suggestion: "Valid operations: execute, check",
		}
	}
}

func (a *SQLAction) execute(ctx context.Context, inputs map[string]interface{}) (*Result, error) {
	format, err := getString(inputs, "format")
	if err != nil {
		return nil, inputError("execute", "invalid 'format' parameter", err, "")
	}
	if format == "" {
		format = FormatResult
	}
	switch format {
	case FormatResult, FormatRows, FormatJSON, FormatCSV, FormatMarkdown:
	default:
		return nil, inputError("execute", "unknown format "+format, nil,
			"Use one of: result, rows, json, csv, markdown")
	}

	req, err := a.buildRequest(ctx, "execute", inputs)
	if err != nil {
		return nil, err
	}

	res, err := a.executor.Execute(ctx, req)
	if err != nil {
		return nil, err
	}

	return &Result{
		Response: render(res, format),
		Metadata: resultMetadata(res),
	}, nil
}

func (a *SQLAction) check(_ context.Context, inputs map[string]interface{}) (*Result, error) {
	sqlText, err := getString(inputs, "sql")
	if err != nil {
		return nil, inputError("check", "invalid 'sql' parameter", err, "Provide 'sql' as a string")
	}
	params, err := decodeParams("check", inputs)
	if err != nil {
		return nil, err
	}

	dialect := sqlsafe.DialectUnknown
	if d, _ := getString(inputs, "dialect"); d != "" {
		dialect = sqlsafe.Dialect(strings.ToLower(d))
	} else if target, err := a.connectionURL(inputs); err == nil && target != "" {
		dialect = sqlsafe.GuessDialect(target)
	}

	plan, err := a.executor.Check(sqlText, params, dialect)
	if err != nil {
		return nil, err
	}

	return &Result{
		Response: plan,
		Metadata: map[string]interface{}{
			"operation": "check",
			"kind":      string(plan.Kind),
			"dialect":   string(plan.Dialect),
			"sql_hash":  plan.SQLHash,
		},
	}, nil
}

// connectionURL returns the url input or the url of the named connection
// without resolving secrets.
func (a *SQLAction) connectionURL(inputs map[string]interface{}) (string, error) {
	if u, err := getString(inputs, "url"); err != nil || u != "" {
		return u, err
	}
	name, err := getString(inputs, "connection")
	if err != nil || name == "" {
		return "", err
	}
	conn, ok := a.settings.Connections[name]
	if !ok {
		return "", nil
	}
	return conn.URL, nil
}

func (a *SQLAction) buildRequest(ctx context.Context, op string, inputs map[string]interface{}) (*sqlexec.Request, error) {
	req := &sqlexec.Request{}

	var err error
	if req.SQL, err = getString(inputs, "sql"); err != nil {
		return nil, inputError(op, "invalid 'sql' parameter", err, "Provide 'sql' as a string")
	}

	name, err := getString(inputs, "connection")
	if err != nil {
		return nil, inputError(op, "invalid 'connection' parameter", err, "")
	}
	url, _ := getString(inputs, "url")
	if name != "" && url != "" {
		return nil, inputError(op, "use either 'url' or 'connection', not both", nil, "")
	}

	if name != "" {
		conn, err := a.settings.ResolveConnection(ctx, name, a.resolver)
		if err != nil {
			return nil, connectionError(op, name, err)
		}
		req.URL, req.Username, req.Password = conn.URL, conn.Username, conn.Password
		req.Connection = name
	} else {
		for key, dst := range map[string]*string{"url": &req.URL, "username": &req.Username, "password": &req.Password} {
			if *dst, err = getString(inputs, key); err != nil {
				return nil, inputError(op, "invalid '"+key+"' parameter", err, "")
			}
		}
		if req.Password != "" && a.resolver.IsReference(req.Password) {
			if req.Password, err = a.resolver.Resolve(ctx, req.Password); err != nil {
				return nil, &OperationError{Operation: op, Message: "cannot resolve password", Type: ErrorTypeConfig, Cause: err}
			}
		}
	}

	if req.Params, err = decodeParams(op, inputs); err != nil {
		return nil, err
	}

	limits := []struct {
		key string
		dst **int
	}{
		{"timeout_ms", &req.Limits.TimeoutMs},
		{"max_rows", &req.Limits.MaxRows},
		{"max_update_rows", &req.Limits.MaxUpdateRows},
		{"max_field_size", &req.Limits.MaxFieldSize},
	}
	for _, l := range limits {
		if *l.dst, err = getOptionalInt(inputs, l.key); err != nil {
			return nil, inputError(op, "invalid '"+l.key+"' parameter", err, "Provide '"+l.key+"' as a non-negative integer")
		}
	}

	return req, nil
}

func decodeParams(op string, inputs map[string]interface{}) (sqlexec.Params, error) {
	positional, err := getOptionalArray(inputs, "positional")
	if err != nil {
		return sqlexec.Params{}, inputError(op, "invalid 'positional' parameter", err, "Provide 'positional' as an array")
	}
	named, err := getOptionalObject(inputs, "named")
	if err != nil {
		return sqlexec.Params{}, inputError(op, "invalid 'named' parameter", err, "Provide 'named' as an object")
	}
	return sqlexec.NewParams(positional, named), nil
}

func connectionError(op, name string, err error) *OperationError {
	typ := ErrorTypeConfig
	suggestion := "Check the connection's password reference"
	var notFound *sgerrors.NotFoundError
	if errors.As(err, &notFound) {
		typ = ErrorTypeNotFound
		suggestion = "Define the connection under 'connections' in the config file"
	}
	return &OperationError{
		Operation:  op,
		Message:    "cannot use connection " + name,
		Type:       typ,
		Cause:      err,
		Suggestion: suggestion,
	}
}

func render(res *sqlexec.Result, format string) interface{} {
	switch format {
	case FormatRows:
		return res.RowMaps()
	case FormatJSON:
		return res.JSON()
	case FormatCSV:
		return res.CSV()
	case FormatMarkdown:
		return res.Markdown()
	default:
		return res
	}
}

func resultMetadata(res *sqlexec.Result) map[string]interface{} {
	md := map[string]interface{}{
		"operation":  "execute",
		"type":       string(res.Type),
		"dialect":    string(res.Dialect),
		"driver":     res.Driver,
		"sql_hash":   res.SQLHash,
		"elapsed_ms": res.ElapsedMs,
	}
	if res.IsQuery() {
		md["row_count"] = len(res.Rows)
		md["truncated"] = res.Truncated
	}
	if res.UpdateCount != nil {
		md["update_count"] = *res.UpdateCount
	}
	return md
}
