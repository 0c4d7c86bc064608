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
	"strconv"
	"strings"
	"unicode"
)

// Rebind rewrites '?' placeholders into the native style of dialect. Only
// Postgres differs, using $1..$n. Quoted regions and comments are untouched.
func Rebind(sql string, dialect Dialect) string {
	if dialect != DialectPostgres || !strings.Contains(sql, "?") {
		return sql
	}

	var out strings.Builder
	out.Grow(len(sql) + 8)
	n := 0

	Scan(sql, func(seg Segment) bool {
		if seg.Kind != SegmentCode {
			out.WriteString(seg.Text)
			return true
		}
		for i := 0; i < len(seg.Text); i++ {
			if seg.Text[i] == '?' {
				n++
				out.WriteByte('$')
				out.WriteString(strconv.Itoa(n))
				continue
			}
			out.WriteByte(seg.Text[i])
		}
		return true
	})

	return out.String()
}

// rowKeywords start statements that produce a result set even though they
// classify as DDL.
var rowKeywords = []string{"SHOW", "EXPLAIN", "DESCRIBE", "DESC", "PRAGMA", "VALUES", "TABLE"}

// ReturnsRows reports whether stmt is expected to produce a result set: any
// QUERY, any statement with a RETURNING clause (REPLACE and UPSERT classify
// as DDL), or a row-producing utility statement.
func ReturnsRows(stmt Statement) bool {
	if stmt.Kind == KindQuery || HasReturning(stmt.SQL) {
		return true
	}
	if stmt.Kind != KindDDL {
		return false
	}
	s := strings.ToUpper(strings.TrimLeftFunc(stmt.SQL, unicode.IsSpace))
	for _, kw := range rowKeywords {
		if hasKeyword(s, kw) {
			return true
		}
	}
	return false
}

// HasReturning reports whether sql contains the RETURNING keyword outside of
// quotes and comments.
func HasReturning(sql string) bool {
	return MentionsWord(sql, "RETURNING")
}

// MentionsWord reports whether word appears as a whole word, ignoring case,
// outside quotes and comments.
func MentionsWord(sql, word string) bool {
	if word == "" {
		return false
	}
	word = strings.ToUpper(word)
	found := false
	Scan(sql, func(seg Segment) bool {
		if seg.Kind != SegmentCode {
			return true
		}
		if containsWord(strings.ToUpper(seg.Text), word) {
			found = true
			return false
		}
		return true
	})
	return found
}

func containsWord(s, word string) bool {
	for offset := 0; ; {
		idx := strings.Index(s[offset:], word)
		if idx < 0 {
			return false
		}
		start := offset + idx
		end := start + len(word)
		before := start == 0 || !isIdentByte(s[start-1])
		after := end == len(s) || !isIdentByte(s[end])
		if before && after {
			return true
		}
		offset = end
	}
}
