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

package sqlexec

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/tombee/sqlguard/internal/log"
	"github.com/tombee/sqlguard/internal/sqlsafe"
	"github.com/tombee/sqlguard/internal/tracing"
	sgerrors "github.com/tombee/sqlguard/pkg/errors"
	"github.com/tombee/sqlguard/pkg/secrets"
)

// Policy decides whether a sanitized statement may run at all. It is
// consulted before any connection is opened.
type Policy interface {
	Check(stmt sqlsafe.Statement, dialect sqlsafe.Dialect) error
}

// Config configures an Executor. Every field is optional.
type Config struct {
	// Opener opens database handles (default: sql.Open).
	Opener Opener

	// Logger receives execution logs (default: discard).
	Logger *slog.Logger

	// Tracer records execution spans (default: global provider).
	Tracer trace.Tracer

	// Policy, when set, can reject statements before connecting.
	Policy Policy

	// Defaults fill absent request limits before the built-in defaults apply.
	Defaults Limits
}

// Executor runs guarded statements. It holds no per-request state and is safe
// for concurrent use.
type Executor struct {
	opener   Opener
	logger   *slog.Logger
	tracer   trace.Tracer
	policy   Policy
	defaults Limits
	now      func() time.Time
}

// New creates an Executor from cfg.
func New(cfg Config) *Executor {
	e := &Executor{
		opener:   cfg.Opener,
		logger:   cfg.Logger,
		tracer:   cfg.Tracer,
		policy:   cfg.Policy,
		defaults: cfg.Defaults,
		now:      time.Now,
	}
	if e.opener == nil {
		e.opener = DefaultOpener
	}
	if e.logger == nil {
		e.logger = log.Discard()
	}
	e.logger = log.WithComponent(e.logger, "sqlexec")
	return e
}

// execution is the state of one Execute call.
type execution struct {
	requestID string
	kind      sqlsafe.Kind
	// sql is the text handed to the driver; it is what SQLHash covers.
	sql    string
	result *Result
	logger *slog.Logger
	masker *secrets.Masker
}

// Execute validates, sanitizes and runs req. On failure the result is nil and
// the error is an *Error. No retries are attempted.
func (e *Executor) Execute(ctx context.Context, req *Request) (*Result, error) {
	if req == nil {
		return nil, invalidInput("validate", "request required", nil)
	}

	dialect := sqlsafe.GuessDialect(req.URL)
	x := &execution{
		requestID: uuid.NewString(),
		result:    &Result{Dialect: dialect},
		masker:    secrets.NewMasker(),
	}
	x.masker.AddSecret(req.Password)
	x.logger = log.WithRequestID(log.WithConnection(e.logger, req.Connection), x.requestID)

	ctx, span := tracing.StartExecution(ctx, e.tracer, x.requestID, string(dialect))
	defer span.End()

	err := e.run(ctx, req, x)

	status := statusOK
	if err != nil {
		status = string(KindOf(err))
	}
	recordMetrics(string(x.kind), string(dialect), status, float64(x.result.ElapsedMs)/1000, resultOrNil(x.result, err))
	span.SetAttributes(map[string]any{
		"sql.type": string(x.kind),
		"sql.hash": x.result.SQLHash,
	})

	if err != nil {
		span.RecordError(err, status)
		e.logFailure(x, err)
		return nil, err
	}

	res := x.result
	attrs := []any{
		log.DialectKey, res.Dialect,
		log.StatementKey, res.Type,
		log.DurationKey, res.ElapsedMs,
		log.SQLHashKey, res.SQLHash,
	}
	if res.Type == sqlsafe.KindQuery {
		attrs = append(attrs, "rows", len(res.Rows), "truncated", res.Truncated)
		span.SetAttributes(map[string]any{"sql.rows": len(res.Rows), "sql.truncated": res.Truncated})
	} else if res.UpdateCount != nil {
		attrs = append(attrs, log.UpdateCountKey, *res.UpdateCount)
		span.SetAttributes(map[string]any{"sql.update_count": *res.UpdateCount})
	}
	x.logger.Info("statement executed", attrs...)

	return res, nil
}

func resultOrNil(res *Result, err error) *Result {
	if err != nil {
		return nil
	}
	return res
}

func (e *Executor) logFailure(x *execution, err error) {
	attrs := []any{
		log.ErrorKindKey, KindOf(err),
		log.DurationKey, x.result.ElapsedMs,
		"error", x.masker.MaskError(err),
	}
	if x.result.SQLHash != "" {
		attrs = append(attrs, log.SQLHashKey, x.result.SQLHash)
	}

	switch KindOf(err) {
	case ErrorKindInvalidInput:
		x.logger.Info("statement rejected", attrs...)
	case ErrorKindPolicy:
		x.logger.Warn("policy violation", attrs...)
	default:
		x.logger.Error("statement failed", attrs...)
	}
}

func (e *Executor) run(ctx context.Context, req *Request, x *execution) (err error) {
	start := e.now()
	defer func() {
		x.result.ElapsedMs = e.now().Sub(start).Milliseconds()
		if x.sql != "" {
			x.result.SQLHash = hashSQL(x.sql)
		}
	}()

	if isBlank(req.URL) || isBlank(req.Username) {
		return invalidInput("validate", "url/username required", nil)
	}
	if req.Limits.negative() {
		return invalidInput("validate", "limits must not be negative", nil)
	}
	limits := req.Limits.Or(e.defaults).resolve()

	stmt, args, err := e.compile(req.SQL, req.Params, x.result.Dialect)
	x.kind = stmt.Kind
	if err != nil {
		return err
	}

	target, err := ResolveTarget(req.URL, req.Username, req.Password)
	if err != nil {
		return databaseFault("connect", "cannot resolve connection url", err)
	}
	x.sql = sqlsafe.Rebind(stmt.SQL, target.Dialect)

	x.logger.Debug("executing statement",
		log.DialectKey, target.Dialect,
		log.StatementKey, stmt.Kind,
		"driver", target.DriverName,
		"args", len(args),
	)
	log.Trace(x.logger, "statement text", slog.String("sql", x.masker.Mask(x.sql)))

	if err := ctx.Err(); err != nil {
		return databaseFault("connect", "request cancelled before execution", err)
	}
	// Once the statement is running only the deadline or the driver ends it.
	execCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), limits.timeout)
	defer cancel()

	// Connect
	connectCtx, connectSpan := tracing.StartPhase(execCtx, e.tracer, "connect")
	db, err := e.opener.Open(target.DriverName, target.DSN)
	if err != nil {
		connectSpan.RecordError(err, string(ErrorKindDatabase))
		connectSpan.End()
		return databaseFault("connect", "open failed", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	conn, err := db.Conn(connectCtx)
	connectSpan.End()
	if err != nil {
		return e.driverFault("connect", "connection failed", err, limits)
	}
	defer conn.Close()
	x.result.Driver = DriverIdentity(target.DriverName)
	x.result.Dialect = target.Dialect

	// Prepare and execute
	execCtx, execSpan := tracing.StartPhase(execCtx, e.tracer, "execute")
	defer execSpan.End()

	prepared, err := conn.PrepareContext(execCtx, x.sql)
	if err != nil {
		return e.driverFault("prepare", "prepare failed", err, limits)
	}
	defer prepared.Close()

	if sqlsafe.ReturnsRows(stmt) {
		err = e.query(execCtx, prepared, args, stmt, limits, x)
	} else {
		err = e.update(execCtx, prepared, args, stmt, limits, x)
	}
	if err != nil {
		execSpan.RecordError(err, string(KindOf(err)))
	}
	return err
}

// compile validates, sanitizes and binds sqlText, then applies the policy.
// The returned statement carries the kind even when err is non-nil, as long
// as sanitizing succeeded.
func (e *Executor) compile(sqlText string, params Params, dialect sqlsafe.Dialect) (sqlsafe.Statement, []any, error) {
	if isBlank(sqlText) {
		return sqlsafe.Statement{}, nil, invalidInput("validate", "sql required", nil)
	}
	if params.Style() == paramsBoth {
		return sqlsafe.Statement{}, nil, invalidInput("validate", "positional and named cannot be used together", nil)
	}

	stmt, err := sqlsafe.Sanitize(sqlText)
	if err != nil {
		return sqlsafe.Statement{}, nil, invalidInput("sanitize", "invalid sql", err)
	}

	args := params.Args()
	if params.Style() == ParamsNamed {
		compiled, err := sqlsafe.CompileNamed(stmt.SQL, params.Values())
		if err != nil {
			return stmt, nil, invalidInput("bind", "invalid parameters", err)
		}
		stmt.SQL = compiled.SQL
		args = compiled.Args
	}

	if e.policy != nil {
		if err := e.policy.Check(stmt, dialect); err != nil {
			return stmt, nil, policyViolation("policy", "statement rejected by policy", err)
		}
	}
	return stmt, args, nil
}

// Plan is a statement as it would be sent to the driver.
type Plan struct {
	SQL     string          `json:"sql"`
	Kind    sqlsafe.Kind    `json:"kind"`
	Dialect sqlsafe.Dialect `json:"dialect"`
	SQLHash string          `json:"sqlHash"`
	Args    []any           `json:"args"`
}

// Check sanitizes and binds sqlText for dialect and applies the policy
// without connecting. Errors are the same *Error values Execute returns.
func (e *Executor) Check(sqlText string, params Params, dialect sqlsafe.Dialect) (*Plan, error) {
	stmt, args, err := e.compile(sqlText, params, dialect)
	if err != nil {
		return nil, err
	}
	if args == nil {
		args = []any{}
	}
	final := sqlsafe.Rebind(stmt.SQL, dialect)
	e.logger.Debug("statement checked", log.StatementKey, stmt.Kind, log.DialectKey, dialect)
	return &Plan{
		SQL:     final,
		Kind:    stmt.Kind,
		Dialect: dialect,
		SQLHash: hashSQL(final),
		Args:    args,
	}, nil
}

func (e *Executor) query(ctx context.Context, prepared *sql.Stmt, args []any, stmt sqlsafe.Statement, limits bounds, x *execution) error {
	rows, err := prepared.QueryContext(ctx, args...)
	if err != nil {
		return e.driverFault("execute", "query failed", err, limits)
	}
	defer rows.Close()

	columns, err := rows.ColumnTypes()
	if err != nil {
		return e.driverFault("fetch", "reading columns failed", err, limits)
	}

	res := x.result
	if len(columns) == 0 {
		// Statements such as PRAGMA assignments report no result set.
		for rows.Next() {
		}
		if err := rows.Err(); err != nil {
			return e.driverFault("fetch", "fetch failed", err, limits)
		}
		res.Type = updateType(stmt.Kind)
		var zero int64
		res.UpdateCount = &zero
		return nil
	}

	res.Type = sqlsafe.KindQuery
	res.Columns = make([]Column, len(columns))
	for i, ct := range columns {
		res.Columns[i] = Column{Label: ct.Name(), TypeName: ct.DatabaseTypeName()}
	}
	res.Rows = [][]any{}

	for rows.Next() {
		if len(res.Rows) >= limits.maxRows {
			res.Truncated = true
			break
		}

		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return e.driverFault("fetch", "scan failed", err, limits)
		}
		for i, v := range values {
			values[i] = normalizeCell(v, limits.maxFieldSize)
		}
		res.Rows = append(res.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return e.driverFault("fetch", "fetch failed", err, limits)
	}
	return nil
}

func (e *Executor) update(ctx context.Context, prepared *sql.Stmt, args []any, stmt sqlsafe.Statement, limits bounds, x *execution) error {
	result, err := prepared.ExecContext(ctx, args...)
	if err != nil {
		return e.driverFault("execute", "execute failed", err, limits)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		if stmt.Kind != sqlsafe.KindDDL {
			return e.driverFault("execute", "reading update count failed", err, limits)
		}
		affected = 0
	}

	if affected > int64(limits.maxUpdateRows) {
		return policyViolation("update", "update count exceeds maxUpdateRows",
			&UpdateLimitError{Actual: affected, Limit: int64(limits.maxUpdateRows)})
	}

	res := x.result
	res.Type = updateType(stmt.Kind)
	res.UpdateCount = &affected

	if stmt.Kind == sqlsafe.KindUpdate && isInsert(stmt.SQL) {
		// Drivers without LastInsertId support (lib/pq) return an error.
		if id, err := result.LastInsertId(); err == nil && id != 0 {
			res.GeneratedKeys = []map[string]any{{GeneratedKeyLabel: id}}
		}
	}
	return nil
}

// driverFault wraps a driver error, reporting deadline expiry as a timeout.
func (e *Executor) driverFault(op, message string, err error, limits bounds) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return databaseFault(op, "statement timed out", &sgerrors.TimeoutError{
			Operation: op,
			Duration:  limits.timeout,
			Cause:     err,
		})
	}
	return databaseFault(op, message, err)
}

func updateType(kind sqlsafe.Kind) sqlsafe.Kind {
	if kind == sqlsafe.KindDDL {
		return sqlsafe.KindDDL
	}
	return sqlsafe.KindUpdate
}

func isInsert(sql string) bool {
	s := strings.TrimLeftFunc(sql, unicode.IsSpace)
	return len(s) >= 6 && strings.EqualFold(s[:6], "INSERT")
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// normalizeCell converts driver byte slices to strings and cuts strings
// longer than maxField runes.
func normalizeCell(v any, maxField int) any {
	switch val := v.(type) {
	case []byte:
		return truncateRunes(string(val), maxField)
	case string:
		return truncateRunes(val, maxField)
	default:
		return v
	}
}

func truncateRunes(s string, max int) string {
	if len(s) <= max || utf8.RuneCountInString(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}
