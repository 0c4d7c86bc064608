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
	"github.com/tombee/sqlguard/internal/sqlsafe"
)

// GeneratedKeyLabel is the key under which LastInsertId is reported.
const GeneratedKeyLabel = "GENERATED_KEY"

// Column describes one result column.
type Column struct {
	Label    string `json:"label"`
	TypeName string `json:"typeName"`
}

// Result is the bounded outcome of one execution. Query fields are set when
// Type is QUERY, update fields otherwise.
type Result struct {
	Driver    string          `json:"driver"`
	Dialect   sqlsafe.Dialect `json:"dialect"`
	// SQLHash is the SHA-256 of the text sent to the driver: comments
	// stripped (a block comment leaves one space), named placeholders
	// compiled and rebound for the dialect.
	SQLHash   string          `json:"sqlHash"`
	ElapsedMs int64           `json:"elapsedMs"`
	Type      sqlsafe.Kind    `json:"type"`

	Columns   []Column `json:"columns"`
	Rows      [][]any  `json:"rows"`
	Truncated bool     `json:"truncated"`

	UpdateCount   *int64           `json:"updateCount,omitempty"`
	GeneratedKeys []map[string]any `json:"generatedKeys,omitempty"`
}

// IsQuery reports whether r carries rows.
func (r *Result) IsQuery() bool {
	return r != nil && r.Type == sqlsafe.KindQuery && r.Columns != nil && r.Rows != nil
}

// Labels returns the column labels in order.
func (r *Result) Labels() []string {
	labels := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		labels[i] = c.Label
	}
	return labels
}
