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
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// CSV renders a query result with a header line of labels. Fields holding a
// comma, quote or newline are quoted with inner quotes doubled, and nil
// renders empty. Non-query results render as "".
func (r *Result) CSV() string {
	if !r.IsQuery() {
		return ""
	}

	var b strings.Builder
	for i, c := range r.Columns {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(csvField(c.Label))
	}
	b.WriteByte('\n')

	for _, row := range r.Rows {
		for i, cell := range row {
			if i > 0 {
				b.WriteByte(',')
			}
			if cell != nil {
				b.WriteString(csvField(cellString(cell)))
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func csvField(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}

// Markdown renders a query result as a pipe table. Non-query results render
// as "Not a query result.".
func (r *Result) Markdown() string {
	if !r.IsQuery() {
		return "Not a query result."
	}

	var b strings.Builder
	b.WriteString("| ")
	for _, c := range r.Columns {
		b.WriteString(c.Label)
		b.WriteString(" | ")
	}
	b.WriteByte('\n')

	b.WriteByte('|')
	for range r.Columns {
		b.WriteString(" --- |")
	}
	b.WriteByte('\n')

	for _, row := range r.Rows {
		b.WriteString("| ")
		for _, cell := range row {
			if cell != nil {
				b.WriteString(cellString(cell))
			}
			b.WriteString(" | ")
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// JSON renders a query result as an array of objects keyed by label, one
// object per line. Numbers and booleans are bare, nil is null and everything
// else is a string. Non-query results render as "[]".
func (r *Result) JSON() string {
	if !r.IsQuery() {
		return "[]"
	}

	labels := r.Labels()
	var b strings.Builder
	b.WriteString("[\n")
	for i, row := range r.Rows {
		b.WriteString("  {")
		for j, label := range labels {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteByte('"')
			b.WriteString(escapeJSON(label))
			b.WriteString(`": `)
			var cell any
			if j < len(row) {
				cell = row[j]
			}
			b.WriteString(jsonValue(cell))
		}
		b.WriteByte('}')
		if i < len(r.Rows)-1 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
	b.WriteByte(']')
	return b.String()
}

var jsonEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\b", `\b`,
	"\f", `\f`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

func escapeJSON(s string) string {
	return jsonEscaper.Replace(s)
}

func jsonValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(val)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(val)
	case float32:
		return jsonFloat(float64(val))
	case float64:
		return jsonFloat(val)
	default:
		return `"` + escapeJSON(cellString(val)) + `"`
	}
}

func jsonFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return `"` + strconv.FormatFloat(f, 'g', -1, 64) + `"`
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// cellString renders a non-nil cell as text.
func cellString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []byte:
		return string(val)
	case time.Time:
		return val.Format(time.RFC3339Nano)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}

// OrderedRow is one row as label/value pairs in column order.
type OrderedRow struct {
	Labels []string
	Values []any
}

// Get returns the value under label.
func (o OrderedRow) Get(label string) (any, bool) {
	for i, l := range o.Labels {
		if l == label {
			return o.Values[i], true
		}
	}
	return nil, false
}

// RowMaps returns each row as a map from label to value. Duplicate labels
// keep the last column. Non-query results yield an empty slice.
func (r *Result) RowMaps() []map[string]any {
	out := []map[string]any{}
	if !r.IsQuery() {
		return out
	}
	labels := r.Labels()
	for _, row := range r.Rows {
		m := make(map[string]any, len(labels))
		for i, label := range labels {
			if i < len(row) {
				m[label] = row[i]
			}
		}
		out = append(out, m)
	}
	return out
}

// OrderedRows is RowMaps preserving column order.
func (r *Result) OrderedRows() []OrderedRow {
	out := []OrderedRow{}
	if !r.IsQuery() {
		return out
	}
	labels := r.Labels()
	for _, row := range r.Rows {
		out = append(out, OrderedRow{Labels: labels, Values: row})
	}
	return out
}

// Strings returns every cell as text, with null standing in for nil.
func (r *Result) Strings(null string) [][]string {
	out := make([][]string, 0, len(r.Rows))
	for _, row := range r.Rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			if cell == nil {
				cells[i] = null
			} else {
				cells[i] = cellString(cell)
			}
		}
		out = append(out, cells)
	}
	return out
}
