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

// Package sqlsafe provides the lexical guards applied to SQL text before it
// reaches a database driver: comment stripping, single-statement enforcement,
// statement classification and named parameter compilation.
//
// All functions are pure and safe for concurrent use.
package sqlsafe

import (
	"errors"
	"strings"
	"unicode"
)

// Kind classifies a statement by its leading keyword.
type Kind string

const (
	KindQuery  Kind = "QUERY"
	KindUpdate Kind = "UPDATE"
	KindDDL    Kind = "DDL"
)

// Dialect is a coarse database family guessed from a connection URL.
type Dialect string

const (
	DialectMySQL    Dialect = "mysql"
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
	DialectUnknown  Dialect = "unknown"
)

var (
	// ErrEmptySQL is returned when nothing executable remains after sanitizing.
	ErrEmptySQL = errors.New("sql required")

	// ErrMultipleStatements is returned when a top-level ';' is followed by more SQL.
	ErrMultipleStatements = errors.New("multiple statements detected")
)

// Statement is SQL that passed sanitization.
type Statement struct {
	// SQL has no comments and no trailing semicolon.
	SQL  string
	Kind Kind
}

// Sanitize strips comments and one trailing semicolon, then enforces that
// exactly one statement remains.
func Sanitize(sql string) (Statement, error) {
	cleaned := StripTrailingSemicolon(StripComments(sql))
	if strings.TrimSpace(cleaned) == "" {
		return Statement{}, ErrEmptySQL
	}
	if err := EnsureSingleStatement(cleaned); err != nil {
		return Statement{}, err
	}
	return Statement{SQL: cleaned, Kind: DetectType(cleaned)}, nil
}

// StripComments removes line and block comments that appear outside quoted
// regions. A line comment's terminating newline is kept and a block comment is
// replaced by a single space, so tokens on either side never fuse together.
// The result is a fixed point: stripping it again returns it unchanged.
func StripComments(sql string) string {
	var out strings.Builder
	out.Grow(len(sql))

	Scan(sql, func(seg Segment) bool {
		switch seg.Kind {
		case SegmentLineComment:
		case SegmentBlockComment:
			out.WriteByte(' ')
		default:
			out.WriteString(seg.Text)
		}
		return true
	})

	return out.String()
}

// StripTrailingSemicolon trims trailing whitespace and removes at most one
// final ';'.
func StripTrailingSemicolon(sql string) string {
	trimmed := strings.TrimRightFunc(sql, unicode.IsSpace)
	return strings.TrimSuffix(trimmed, ";")
}

// EnsureSingleStatement fails if a ';' outside quotes and comments is followed
// by anything other than whitespace or comments.
func EnsureSingleStatement(sql string) error {
	terminated := false
	var err error

	Scan(sql, func(seg Segment) bool {
		switch {
		case seg.Kind.IsComment():
			return true
		case seg.Kind.IsString():
			if terminated {
				err = ErrMultipleStatements
				return false
			}
			return true
		}

		for _, r := range seg.Text {
			if terminated && !unicode.IsSpace(r) {
				err = ErrMultipleStatements
				return false
			}
			if r == ';' {
				terminated = true
			}
		}
		return true
	})

	return err
}

// DetectType classifies sql by its first keyword, ignoring case and leading
// whitespace. WITH counts as a query when any whitespace follows it, so a
// CTE starting on the next line is not mistaken for DDL. Anything that is
// neither a query nor a DML statement is DDL.
func DetectType(sql string) Kind {
	s := strings.ToUpper(strings.TrimLeftFunc(sql, unicode.IsSpace))

	switch {
	case strings.HasPrefix(s, "SELECT"):
		return KindQuery
	case hasKeyword(s, "WITH"):
		return KindQuery
	case strings.HasPrefix(s, "INSERT"),
		strings.HasPrefix(s, "UPDATE"),
		strings.HasPrefix(s, "DELETE"),
		strings.HasPrefix(s, "MERGE"):
		return KindUpdate
	default:
		return KindDDL
	}
}

// hasKeyword reports whether s starts with word followed by whitespace.
func hasKeyword(s, word string) bool {
	if !strings.HasPrefix(s, word) || len(s) == len(word) {
		return false
	}
	return unicode.IsSpace(rune(s[len(word)]))
}

// GuessDialect infers the database family from a connection URL. An optional
// "jdbc:" prefix is ignored.
func GuessDialect(url string) Dialect {
	u := strings.ToLower(strings.TrimSpace(url))
	u = strings.TrimPrefix(u, "jdbc:")

	switch {
	case strings.HasPrefix(u, "mysql"), strings.HasPrefix(u, "mariadb"):
		return DialectMySQL
	case strings.HasPrefix(u, "postgres"), strings.HasPrefix(u, "pgsql"):
		return DialectPostgres
	case strings.HasPrefix(u, "sqlite"):
		return DialectSQLite
	default:
		return DialectUnknown
	}
}
