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

// Package check implements the check command, which sanitizes, binds and
// policy-checks statements without connecting to a database.
package check

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/tombee/sqlguard/internal/commands/shared"
	"github.com/tombee/sqlguard/internal/policy"
	"github.com/tombee/sqlguard/internal/sqlexec"
	"github.com/tombee/sqlguard/internal/sqlsafe"
	sgerrors "github.com/tombee/sqlguard/pkg/errors"
)

// FileResult is the outcome for one statement.
type FileResult struct {
	File  string        `json:"file"`
	Valid bool          `json:"valid"`
	Plan  *sqlexec.Plan `json:"plan,omitempty"`
	Error string        `json:"error,omitempty"`
	Code  string        `json:"code,omitempty"`

	err error
}

// Response is the --json envelope for check.
type Response struct {
	shared.JSONResponse
	Results []FileResult `json:"results"`
}

type options struct {
	sql        string
	dialect    string
	connection string
	args       []string
	params     []string
}

// NewCommand creates the check command
func NewCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "check [file-or-glob...]",
		Short: "Check statements without executing them",
		Long: `Check runs the same sanitizing, parameter binding and policy checks as exec
and prints the statement as it would be sent, without opening a connection.

Each file holds one statement. Arguments may be doublestar globs such as
'queries/**/*.sql'. Use --sql to check an inline statement instead.

The dialect controls placeholder rewriting ('?' becomes $1, $2, ... for
PostgreSQL). It comes from --dialect, or from --connection's URL.

Exits non-zero when any statement fails, with the code of the first failure.`,
		Example: `  sqlguard check --dialect postgres "queries/**/*.sql"
  sqlguard check --sql "SELECT * FROM t WHERE id = :id" --param id=1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.sql == "" && len(args) == 0 {
				return shared.NewInvalidInputError("provide files to check or --sql", nil)
			}
			return run(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.sql, "sql", "", "Inline statement to check")
	cmd.Flags().StringVar(&opts.dialect, "dialect", "", "Target dialect (mysql, postgres, sqlite)")
	cmd.Flags().StringVarP(&opts.connection, "connection", "c", "", "Take the dialect from a named connection")
	cmd.Flags().StringArrayVarP(&opts.args, "arg", "a", nil, "Positional argument for '?' (repeatable)")
	cmd.Flags().StringArrayVarP(&opts.params, "param", "p", nil, "Named argument as name=value (repeatable)")

	return cmd
}

func run(cmd *cobra.Command, patterns []string, opts *options) error {
	cfg, err := shared.LoadConfig()
	if err != nil {
		return err
	}

	dialect, err := resolveDialect(opts, func(name string) (string, bool) {
		conn, ok := cfg.Connections[name]
		return conn.URL, ok
	})
	if err != nil {
		return err
	}

	params, err := shared.ParseParams(opts.args, opts.params)
	if err != nil {
		return err
	}

	p, err := policy.New(cfg.Policy)
	if err != nil {
		return err
	}
	executor := sqlexec.New(sqlexec.Config{
		Logger:   shared.NewLogger(cfg),
		Policy:   p,
		Defaults: cfg.Limits,
	})

	var results []FileResult
	if opts.sql != "" {
		results = append(results, checkOne(executor, "<inline>", opts.sql, params, dialect))
	}

	files, err := expand(patterns)
	if err != nil {
		return err
	}
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			results = append(results, failed(file, fmt.Errorf("failed to read file: %w", err)))
			continue
		}
		results = append(results, checkOne(executor, file, string(data), params, dialect))
	}

	report(cmd, results)

	for _, r := range results {
		if !r.Valid {
			return &shared.ExitError{
				Code:    shared.ExitCodeFor(r.err),
				Message: fmt.Sprintf("%d of %d statements failed", countFailed(results), len(results)),
			}
		}
	}
	return nil
}

func checkOne(executor *sqlexec.Executor, file, sqlText string, params sqlexec.Params, dialect sqlsafe.Dialect) FileResult {
	plan, err := executor.Check(sqlText, params, dialect)
	if err != nil {
		return failed(file, err)
	}
	return FileResult{File: file, Valid: true, Plan: plan}
}

func failed(file string, err error) FileResult {
	return FileResult{
		File:  file,
		Error: err.Error(),
		Code:  shared.ErrorCodeFor(err),
		err:   err,
	}
}

// resolveDialect picks the dialect from --dialect, then --connection.
// Without either the statement is checked with '?' placeholders kept.
func resolveDialect(opts *options, lookup func(name string) (string, bool)) (sqlsafe.Dialect, error) {
	if opts.dialect != "" && opts.connection != "" {
		return "", shared.NewInvalidInputError("use either --dialect or --connection, not both", nil)
	}

	if opts.dialect != "" {
		switch d := sqlsafe.Dialect(opts.dialect); d {
		case sqlsafe.DialectMySQL, sqlsafe.DialectPostgres, sqlsafe.DialectSQLite:
			return d, nil
		default:
			return "", shared.NewInvalidInputError(fmt.Sprintf("unknown dialect %q (mysql, postgres, sqlite)", opts.dialect), nil)
		}
	}

	if opts.connection != "" {
		url, ok := lookup(opts.connection)
		if !ok {
			return "", &sgerrors.NotFoundError{Resource: "connection", ID: opts.connection}
		}
		return sqlsafe.GuessDialect(url), nil
	}
	return sqlsafe.DialectUnknown, nil
}

// expand resolves each pattern with doublestar. A literal path that does not
// exist, or a glob matching nothing, is an error.
func expand(patterns []string) ([]string, error) {
	seen := map[string]bool{}
	var files []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, shared.NewInvalidInputError(fmt.Sprintf("invalid pattern %q", pattern), err)
		}
		if len(matches) == 0 {
			return nil, &sgerrors.NotFoundError{Resource: "file", ID: pattern}
		}
		sort.Strings(matches)
		for _, m := range matches {
			m = filepath.Clean(m)
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	return files, nil
}

func report(cmd *cobra.Command, results []FileResult) {
	out := cmd.OutOrStdout()
	if shared.GetJSON() {
		resp := Response{JSONResponse: shared.NewJSONResponse("check"), Results: results}
		resp.Success = countFailed(results) == 0
		_ = shared.EmitJSONTo(out, resp)
		return
	}

	for _, r := range results {
		if !r.Valid {
			fmt.Fprintln(out, shared.RenderError(r.File+": "+r.Error))
			continue
		}
		fmt.Fprintln(out, shared.RenderOK(fmt.Sprintf("%s: %s", r.File, r.Plan.Kind)))
		if shared.GetVerbose() {
			fmt.Fprintln(out, "  "+shared.RenderLabel("sql:  ")+r.Plan.SQL)
			fmt.Fprintln(out, "  "+shared.RenderLabel("hash: ")+r.Plan.SQLHash)
		}
	}
}

func countFailed(results []FileResult) int {
	n := 0
	for _, r := range results {
		if !r.Valid {
			n++
		}
	}
	return n
}
