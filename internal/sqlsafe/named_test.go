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

import (
	"errors"
	"reflect"
	"testing"
)

func TestCompileNamed(t *testing.T) {
	tests := []struct {
		name     string
		sql      string
		named    map[string]any
		wantSQL  string
		wantArgs []any
	}{
		{
			name:     "placeholders in order",
			sql:      "SELECT * FROM t WHERE a = :a AND c = :c",
			named:    map[string]any{"a": 1, "c": "x"},
			wantSQL:  "SELECT * FROM t WHERE a = ? AND c = ?",
			wantArgs: []any{1, "x"},
		},
		{
			name:     "quoted placeholder untouched",
			sql:      "SELECT * FROM t WHERE b = ':b' AND a = :a",
			named:    map[string]any{"a": 2},
			wantSQL:  "SELECT * FROM t WHERE b = ':b' AND a = ?",
			wantArgs: []any{2},
		},
		{
			name:     "duplicate bound twice",
			sql:      "SELECT * FROM t WHERE id = :id OR parent = :id",
			named:    map[string]any{"id": 7},
			wantSQL:  "SELECT * FROM t WHERE id = ? OR parent = ?",
			wantArgs: []any{7, 7},
		},
		{
			name:     "postgres cast kept",
			sql:      "SELECT :v::int",
			named:    map[string]any{"v": "5"},
			wantSQL:  "SELECT ?::int",
			wantArgs: []any{"5"},
		},
		{
			name:     "comment untouched",
			sql:      "SELECT 1 /* :x */",
			named:    map[string]any{},
			wantSQL:  "SELECT 1 /* :x */",
			wantArgs: []any{},
		},
		{
			name:     "lone colon",
			sql:      "SELECT a : b",
			named:    map[string]any{},
			wantSQL:  "SELECT a : b",
			wantArgs: []any{},
		},
		{
			name:     "nil value is bound",
			sql:      "UPDATE t SET a = :a",
			named:    map[string]any{"a": nil},
			wantSQL:  "UPDATE t SET a = ?",
			wantArgs: []any{nil},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CompileNamed(tt.sql, tt.named)
			if err != nil {
				t.Fatalf("CompileNamed() unexpected error: %v", err)
			}
			if got.SQL != tt.wantSQL {
				t.Errorf("SQL = %q, want %q", got.SQL, tt.wantSQL)
			}
			if !reflect.DeepEqual(got.Args, tt.wantArgs) {
				t.Errorf("Args = %#v, want %#v", got.Args, tt.wantArgs)
			}
		})
	}
}

func TestCompileNamed_Missing(t *testing.T) {
	_, err := CompileNamed("SELECT * FROM t WHERE name = :name", map[string]any{"other": 1})
	if err == nil {
		t.Fatal("expected error for missing parameter")
	}

	var missing *MissingParamError
	if !errors.As(err, &missing) {
		t.Fatalf("error = %T, want *MissingParamError", err)
	}
	if missing.Name != "name" {
		t.Errorf("Name = %q, want %q", missing.Name, "name")
	}
	if err.Error() != "missing named param: name" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestPlaceholders(t *testing.T) {
	got := Placeholders("SELECT :a, ':b', :c::text, :a -- :d")
	want := []string{"a", "c", "a"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Placeholders() = %v, want %v", got, want)
	}
}
