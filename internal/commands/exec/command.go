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

// Package exec implements the exec command, which runs one statement under
// the configured limits and policy.
package exec

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tombee/sqlguard/internal/commands/shared"
	"github.com/tombee/sqlguard/internal/config"
	"github.com/tombee/sqlguard/internal/jq"
	"github.com/tombee/sqlguard/internal/policy"
	"github.com/tombee/sqlguard/internal/sqlexec"
	"github.com/tombee/sqlguard/internal/sqlsafe"
	"go.opentelemetry.io/otel/trace"
)

// Output formats
const (
	FormatTable    = "table"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

type options struct {
	connection     string
	url            string
	username       string
	password       string
	passwordPrompt bool
	args           []string
	params         []string
	format         string
	jqExpr         string
	timeoutMs      int
	maxRows        int
	maxUpdateRows  int
	maxFieldSize   int
}

// Response is the --json envelope for exec.
type Response struct {
	shared.JSONResponse
	Result   *sqlexec.Result `json:"result"`
	Filtered []interface{}   `json:"filtered,omitempty"`
}

// NewCommand creates the exec command
func NewCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "exec <sql | ->",
		Short: "Execute one SQL statement under limits",
		Long: `Exec runs a single statement against a MySQL, PostgreSQL or SQLite database.

Comments are stripped and only one statement is accepted. Arguments bind to
'?' placeholders (--arg) or :name placeholders (--param), never both. Rows,
field sizes, update counts and run time are bounded by the configured limits,
which the --max-* and --timeout-ms flags override for one call.

Pass '-' to read the statement from stdin.

Connection:
  --connection <name>     Named connection from the config file
  --url/--username        Explicit target; --password may be a literal or a
                          reference such as env:DB_PASSWORD
  --password-prompt       Read the password from the terminal`,
		Example: `  sqlguard exec --connection reporting "SELECT id, name FROM users WHERE id = ?" --arg 42
  sqlguard exec --url jdbc:sqlite:./app.db --username app --format csv "SELECT * FROM t"
  echo "DELETE FROM jobs WHERE state = :state" | sqlguard exec -c ops --param state=done -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.connection, "connection", "c", "", "Named connection from the config file")
	cmd.Flags().StringVar(&opts.url, "url", "", "Connection URL (jdbc:mysql://, jdbc:postgresql://, jdbc:sqlite:)")
	cmd.Flags().StringVar(&opts.username, "username", "", "Database user")
	cmd.Flags().StringVar(&opts.password, "password", "", "Password or secret reference (env:NAME, keychain:NAME)")
	cmd.Flags().BoolVar(&opts.passwordPrompt, "password-prompt", false, "Prompt for the password")
	cmd.Flags().StringArrayVarP(&opts.args, "arg", "a", nil, "Positional argument for '?' (repeatable)")
	cmd.Flags().StringArrayVarP(&opts.params, "param", "p", nil, "Named argument as name=value (repeatable)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", FormatTable, "Output format (table, csv, markdown, json)")
	cmd.Flags().StringVar(&opts.jqExpr, "jq", "", "jq filter applied to the rows (queries) or the result (updates)")
	// Unset flags keep the configured limit; an explicit 0 is honored.
	cmd.Flags().IntVar(&opts.timeoutMs, "timeout-ms", 0, "Statement timeout in milliseconds")
	cmd.Flags().IntVar(&opts.maxRows, "max-rows", 0, "Maximum rows returned")
	cmd.Flags().IntVar(&opts.maxUpdateRows, "max-update-rows", 0, "Maximum rows an update may affect")
	cmd.Flags().IntVar(&opts.maxFieldSize, "max-field-size", 0, "Maximum characters per text field")

	return cmd
}

func run(cmd *cobra.Command, sqlArg string, opts *options) error {
	switch opts.format {
	case FormatTable, FormatCSV, FormatMarkdown, FormatJSON:
	default:
		return shared.NewInvalidInputError(fmt.Sprintf("unknown format %q (table, csv, markdown, json)", opts.format), nil)
	}

	filter := jq.NewExecutor(0, 0)
	if opts.jqExpr != "" {
		if err := filter.Validate(opts.jqExpr); err != nil {
			return shared.NewInvalidInputError("invalid --jq expression", err)
		}
	}

	sqlText, err := readSQL(cmd.InOrStdin(), sqlArg)
	if err != nil {
		return err
	}

	cfg, err := shared.LoadConfig()
	if err != nil {
		return err
	}

	tp, err := shared.NewTracing(cfg)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(shutdownCtx)
	}()

	executor, err := newExecutor(cfg, tp.Tracer())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	req, err := buildRequest(ctx, cmd, cfg, sqlText, opts)
	if err != nil {
		return err
	}

	res, err := executor.Execute(ctx, req)
	if err != nil {
		return err
	}

	var filtered []interface{}
	if opts.jqExpr != "" {
		var input interface{} = res
		if res.IsQuery() {
			input = res.RowMaps()
		}
		if filtered, err = filter.Filter(ctx, opts.jqExpr, input); err != nil {
			return shared.NewInvalidInputError("jq filter failed", err)
		}
	}

	out := cmd.OutOrStdout()
	if shared.GetJSON() {
		return shared.EmitJSONTo(out, Response{
			JSONResponse: shared.NewJSONResponse("exec"),
			Result:       res,
			Filtered:     filtered,
		})
	}
	if opts.jqExpr != "" {
		for _, v := range filtered {
			if err := shared.EmitJSONTo(out, v); err != nil {
				return err
			}
		}
		return nil
	}

	return render(out, cmd.ErrOrStderr(), res, opts.format)
}

func newExecutor(cfg *config.Config, tracer trace.Tracer) (*sqlexec.Executor, error) {
	p, err := policy.New(cfg.Policy)
	if err != nil {
		return nil, err
	}
	return sqlexec.New(sqlexec.Config{
		Logger:   shared.NewLogger(cfg),
		Tracer:   tracer,
		Policy:   p,
		Defaults: cfg.Limits,
	}), nil
}

// limitsFromFlags sets only the limits whose flags were given.
func limitsFromFlags(cmd *cobra.Command, opts *options) sqlexec.Limits {
	var limits sqlexec.Limits
	flags := []struct {
		name  string
		value int
		dst   **int
	}{
		{"timeout-ms", opts.timeoutMs, &limits.TimeoutMs},
		{"max-rows", opts.maxRows, &limits.MaxRows},
		{"max-update-rows", opts.maxUpdateRows, &limits.MaxUpdateRows},
		{"max-field-size", opts.maxFieldSize, &limits.MaxFieldSize},
	}
	for _, f := range flags {
		if cmd.Flags().Changed(f.name) {
			*f.dst = sqlexec.Limit(f.value)
		}
	}
	return limits
}

// readSQL returns arg, or all of stdin when arg is "-".
func readSQL(stdin io.Reader, arg string) (string, error) {
	if arg != "-" {
		return arg, nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read statement from stdin: %w", err)
	}
	return string(data), nil
}

func buildRequest(ctx context.Context, cmd *cobra.Command, cfg *config.Config, sqlText string, opts *options) (*sqlexec.Request, error) {
	params, err := shared.ParseParams(opts.args, opts.params)
	if err != nil {
		return nil, err
	}
	req := &sqlexec.Request{
		SQL:    sqlText,
		Params: params,
		Limits: limitsFromFlags(cmd, opts),
	}

	resolver := cfg.Resolver()
	switch {
	case opts.connection != "" && opts.url != "":
		return nil, shared.NewInvalidInputError("use either --url or --connection, not both", nil)

	case opts.connection != "":
		conn, err := cfg.ResolveConnection(ctx, opts.connection, resolver)
		if err != nil {
			return nil, err
		}
		req.URL, req.Username, req.Password = conn.URL, conn.Username, conn.Password
		req.Connection = opts.connection

	default:
		req.URL, req.Username = opts.url, opts.username
		if opts.password != "" {
			if req.Password, err = resolver.Resolve(ctx, opts.password); err != nil {
				return nil, shared.NewConfigError("cannot resolve --password", err)
			}
		}
	}

	if opts.passwordPrompt {
		if req.Password, err = shared.PromptPassword(cmd.ErrOrStderr(), "Password: "); err != nil {
			return nil, shared.NewInvalidInputError("password prompt failed", err)
		}
	}
	return req, nil
}

func render(out, errOut io.Writer, res *sqlexec.Result, format string) error {
	switch format {
	case FormatCSV:
		_, err := io.WriteString(out, res.CSV())
		return err
	case FormatMarkdown:
		_, err := io.WriteString(out, res.Markdown())
		return err
	case FormatJSON:
		_, err := fmt.Fprintln(out, res.JSON())
		return err
	}

	if !res.IsQuery() {
		return renderUpdate(out, res)
	}

	if _, err := io.WriteString(out, shared.RenderTable(res.Labels(), res.Strings("NULL"))); err != nil {
		return err
	}
	if shared.GetQuiet() {
		return nil
	}
	summary := fmt.Sprintf("%d %s in %dms", len(res.Rows), plural(len(res.Rows), "row"), res.ElapsedMs)
	if res.Truncated {
		fmt.Fprintln(errOut, shared.RenderWarn(summary+" (truncated)"))
	} else {
		fmt.Fprintln(errOut, shared.RenderLabel(summary))
	}
	return nil
}

func renderUpdate(out io.Writer, res *sqlexec.Result) error {
	var count int64
	if res.UpdateCount != nil {
		count = *res.UpdateCount
	}
	if res.Type == sqlsafe.KindDDL && count == 0 {
		_, err := fmt.Fprintln(out, shared.RenderOK("OK"))
		return err
	}

	msg := fmt.Sprintf("%d %s affected", count, plural(int(count), "row"))
	if len(res.GeneratedKeys) > 0 {
		keys := make([]string, 0, len(res.GeneratedKeys))
		for _, k := range res.GeneratedKeys {
			for label, v := range k {
				keys = append(keys, fmt.Sprintf("%s=%v", label, v))
			}
		}
		msg += " (" + strings.Join(keys, ", ") + ")"
	}
	_, err := fmt.Fprintln(out, shared.RenderOK(msg))
	return err
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
