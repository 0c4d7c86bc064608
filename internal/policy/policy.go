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

// Package policy decides whether a sanitized statement may run before any
// connection is opened.
//
// Two guards are available. ReadOnly rejects every statement that is not a
// query. Rule is an expr-lang boolean expression evaluated against the
// statement; the statement runs only when it yields true.
//
// Rule environment:
//
//	kind     statement kind: "QUERY", "UPDATE" or "DDL"
//	dialect  "mysql", "postgres", "sqlite" or "unknown"
//	sql      sanitized statement text
//
// Functions:
//
//	mentions(word)  whole-word, case-insensitive match outside quotes and comments
//
// Example:
//
//	kind != "DDL" && !(kind == "UPDATE" && !mentions("WHERE"))
package policy

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/tombee/sqlguard/internal/sqlsafe"
	"github.com/tombee/sqlguard/pkg/errors"
)

// Config is the policy section of the configuration file.
type Config struct {
	ReadOnly bool   `yaml:"read_only" json:"read_only"`
	Rule     string `yaml:"rule" json:"rule,omitempty"`
}

// Policy is a compiled Config. The zero value allows everything.
type Policy struct {
	readOnly bool
	rule     string
	program  *vm.Program
}

// ruleEnv builds the evaluation environment for one statement. Compilation
// uses the zero statement so that types are checked up front.
func ruleEnv(stmt sqlsafe.Statement, dialect sqlsafe.Dialect) map[string]interface{} {
	return map[string]interface{}{
		"kind":    string(stmt.Kind),
		"dialect": string(dialect),
		"sql":     stmt.SQL,
		"mentions": func(word string) bool {
			return sqlsafe.MentionsWord(stmt.SQL, word)
		},
	}
}

// New compiles cfg. A rule that does not compile to a boolean is a
// validation error.
func New(cfg Config) (*Policy, error) {
	p := &Policy{readOnly: cfg.ReadOnly, rule: cfg.Rule}
	if cfg.Rule == "" {
		return p, nil
	}

	program, err := expr.Compile(cfg.Rule,
		expr.Env(ruleEnv(sqlsafe.Statement{}, "")),
		expr.AsBool(),
	)
	if err != nil {
		return nil, &errors.ValidationError{
			Field:   "policy.rule",
			Message: fmt.Sprintf("failed to compile rule: %s", err.Error()),
			Hint:    "rules are boolean expressions over kind, dialect and sql",
		}
	}
	p.program = program
	return p, nil
}

// Enabled reports whether p can reject anything.
func (p *Policy) Enabled() bool {
	return p != nil && (p.readOnly || p.program != nil)
}

// Check returns a *errors.ValidationError when stmt is not allowed.
func (p *Policy) Check(stmt sqlsafe.Statement, dialect sqlsafe.Dialect) error {
	if p == nil {
		return nil
	}

	if p.readOnly && stmt.Kind != sqlsafe.KindQuery {
		return &errors.ValidationError{
			Field:   "sql",
			Message: fmt.Sprintf("%s statements are not allowed in read-only mode", stmt.Kind),
			Hint:    "disable policy.read_only or run a query",
		}
	}

	if p.program == nil {
		return nil
	}

	out, err := expr.Run(p.program, ruleEnv(stmt, dialect))
	if err != nil {
		return &errors.ValidationError{
			Field:   "policy.rule",
			Message: fmt.Sprintf("rule evaluation failed: %s", err.Error()),
		}
	}
	if allowed, _ := out.(bool); !allowed {
		return &errors.ValidationError{
			Field:   "sql",
			Message: fmt.Sprintf("statement rejected by rule %q", p.rule),
		}
	}
	return nil
}
