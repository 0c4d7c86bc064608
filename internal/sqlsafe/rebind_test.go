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

package sqlsafe

import "testing"

func TestRebind(t *testing.T) {
	tests := []struct {
		name    string
		sql     string
		dialect Dialect
		want    string
	}{
		{"postgres numbered", "SELECT ? , '?' , ?", DialectPostgres, "SELECT $1 , '?' , $2"},
		{"postgres no placeholders", "SELECT 1", DialectPostgres, "SELECT 1"},
		{"mysql untouched", "SELECT ?, ?", DialectMySQL, "SELECT ?, ?"},
		{"sqlite untouched", "SELECT ?", DialectSQLite, "SELECT ?"},
		{"identifier with question mark", `SELECT "a?" FROM t WHERE x = ?`, DialectPostgres, `SELECT "a?" FROM t WHERE x = $1`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Rebind(tt.sql, tt.dialect); got != tt.want {
				t.Errorf("Rebind() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHasReturning(t *testing.T) {
	tests := []struct {
		sql  string
		want bool
	}{
		{"INSERT INTO t(a) VALUES(1) RETURNING id", true},
		{"insert into t(a) values(1) returning *", true},
		{"INSERT INTO t(a) VALUES('returning')", false},
		{"UPDATE t SET returning_count = 1", false},
		{"DELETE FROM t", false},
	}

	for _, tt := range tests {
		if got := HasReturning(tt.sql); got != tt.want {
			t.Errorf("HasReturning(%q) = %v, want %v", tt.sql, got, tt.want)
		}
	}
}

func TestReturnsRows(t *testing.T) {
	tests := []struct {
		stmt Statement
		want bool
	}{
		{Statement{SQL: "SELECT 1", Kind: KindQuery}, true},
		{Statement{SQL: "SHOW TABLES", Kind: KindDDL}, true},
		{Statement{SQL: "PRAGMA table_info(t)", Kind: KindDDL}, true},
		{Statement{SQL: "EXPLAIN SELECT 1", Kind: KindDDL}, true},
		{Statement{SQL: "CREATE TABLE t (id INT)", Kind: KindDDL}, false},
		{Statement{SQL: "DESCRIPTION", Kind: KindDDL}, false},
		{Statement{SQL: "INSERT INTO t VALUES (1) RETURNING id", Kind: KindUpdate}, true},
		{Statement{SQL: "DELETE FROM t", Kind: KindUpdate}, false},
		{Statement{SQL: "REPLACE INTO t VALUES (7, 'x') RETURNING id", Kind: KindDDL}, true},
		{Statement{SQL: "UPSERT INTO t VALUES (1) RETURNING *", Kind: KindDDL}, true},
		{Statement{SQL: "REPLACE INTO t VALUES (7, 'returning')", Kind: KindDDL}, false},
	}

	for _, tt := range tests {
		if got := ReturnsRows(tt.stmt); got != tt.want {
			t.Errorf("ReturnsRows(%q) = %v, want %v", tt.stmt.SQL, got, tt.want)
		}
	}
}

func TestMentionsWord(t *testing.T) {
	tests := []struct {
		sql  string
		word string
		want bool
	}{
		{"DELETE FROM t WHERE id = 1", "where", true},
		{"DELETE FROM t", "WHERE", false},
		{"DELETE FROM t -- WHERE id = 1", "WHERE", false},
		{"UPDATE t SET a = 'where'", "WHERE", false},
		{"SELECT nowhere FROM t", "WHERE", false},
		{"SELECT 1", "", false},
	}

	for _, tt := range tests {
		if got := MentionsWord(tt.sql, tt.word); got != tt.want {
			t.Errorf("MentionsWord(%q, %q) = %v, want %v", tt.sql, tt.word, got, tt.want)
		}
	}
}
